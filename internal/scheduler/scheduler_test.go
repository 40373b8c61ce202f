package scheduler

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
	err  error
	runs int
}

func (j *stubJob) Run() error   { j.runs++; return j.err }
func (j *stubJob) Name() string { return j.name }

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.AddJob("not a cron expression", &stubJob{name: "price-sync"})
	require.Error(t, err)
}

func TestAddJobAcceptsSixFieldSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.AddJob("0 30 18 * * MON-FRI", &stubJob{name: "price-sync"})
	require.NoError(t, err)
}

func TestRunNowExecutesAndPropagatesError(t *testing.T) {
	s := New(zerolog.Nop())

	ok := &stubJob{name: "fund-refresh"}
	require.NoError(t, s.RunNow(ok))
	assert.Equal(t, 1, ok.runs)

	failing := &stubJob{name: "fund-refresh", err: errors.New("scrape failed")}
	err := s.RunNow(failing)
	assert.ErrorContains(t, err, "scrape failed")
	assert.Equal(t, 1, failing.runs)
}
