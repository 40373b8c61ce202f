package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbelardi/finanzas/internal/domain"
)

func TestSanitizeUsername(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"Martin", "martin", false},
		{"  user_1  ", "user_1", false},
		{"a-b-c", "a-b-c", false},
		{"ab", "", true},
		{"waytoolongusernamethatexceeds", "", true},
		{"has space", "", true},
		{"../etc/passwd", "", true},
		{"dots..inside", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := SanitizeUsername(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			assert.True(t, domain.IsValidation(err), "input %q should yield a validation error", tt.in)
		} else {
			require.NoError(t, err, "input %q", tt.in)
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestAccountStoreRoundTrip(t *testing.T) {
	store, err := NewAccountStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("martin")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	acc, created, err := store.GetOrCreate("Martin", time.Now())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "martin", acc.Username)

	acc.Cash.ARS = 1500
	acc.Positions = append(acc.Positions, domain.Position{
		Type: domain.AssetStock, Symbol: "GGAL", Quantity: 10, AveragePrice: 103, Currency: domain.ARS,
	})
	require.NoError(t, store.Save("martin", acc))

	loaded, err := store.Load("martin")
	require.NoError(t, err)
	assert.Equal(t, 1500.0, loaded.Cash.ARS)
	require.Len(t, loaded.Positions, 1)
	assert.Equal(t, "GGAL", loaded.Positions[0].Symbol)

	_, created, err = store.GetOrCreate("martin", time.Now())
	require.NoError(t, err)
	assert.False(t, created, "second login must not recreate the account")
}

func TestAccountStoreUpdateRollsBackOnError(t *testing.T) {
	store, err := NewAccountStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.GetOrCreate("martin", time.Now())
	require.NoError(t, err)

	_, err = store.Update("martin", func(acc *domain.Account) error {
		acc.Cash.ARS = 999999
		return domain.ErrInsufficientFunds
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	loaded, err := store.Load("martin")
	require.NoError(t, err)
	assert.Equal(t, 0.0, loaded.Cash.ARS, "failed mutation must not be persisted")
}

func TestAccountStoreConcurrentUpdates(t *testing.T) {
	store, err := NewAccountStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.GetOrCreate("martin", time.Now())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update("martin", func(acc *domain.Account) error {
				acc.Cash.ARS += 100
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	loaded, err := store.Load("martin")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, loaded.Cash.ARS, "all increments must survive concurrent updates")
}

func TestAccountStoreNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewAccountStore(dir)
	require.NoError(t, err)

	_, _, err = store.GetOrCreate("martin", time.Now())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
	_, err = os.Stat(filepath.Join(dir, "martin.json"))
	assert.NoError(t, err)
}

func TestHistoryStoreUpsert(t *testing.T) {
	store, err := NewHistoryStore(t.TempDir())
	require.NoError(t, err)

	entries, err := store.Load("martin")
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, store.Save("martin", []domain.SummaryEntry{
		{Date: "2024-01-02", TotalARS: 100},
		{Date: "2024-01-01", TotalARS: 50},
	}))

	entries, err = store.Load("martin")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2024-01-01", entries[0].Date, "entries must come back sorted")

	require.NoError(t, store.Upsert("martin", []domain.SummaryEntry{
		{Date: "2024-01-02", TotalARS: 120},
		{Date: "2024-01-03", TotalARS: 130},
	}))

	entries, err = store.Load("martin")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 120.0, entries[1].TotalARS, "same-date entry must be replaced")
	assert.Equal(t, "2024-01-03", entries[2].Date)
}
