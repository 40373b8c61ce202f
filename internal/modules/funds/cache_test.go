package funds

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `fondo,tna,rendimiento_mensual,categoria
Fima Premium,32.5,2.1,Money Market
Balanz Ahorro,38.0,,Renta Fija
Sin Datos,,,Renta Variable
`

func writeCache(t *testing.T, dir, content string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, "fondos.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	if age > 0 {
		old := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(path, old, old))
	}
	return path
}

func newTestCache(path string, calls *int) *Cache {
	c := NewCache("python3", "scripts/cafci.py", path, 24*time.Hour)
	c.run = func(ctx context.Context, bin, script string) error {
		*calls++
		return nil
	}
	return c
}

func TestRowsParsesCSV(t *testing.T) {
	calls := 0
	path := writeCache(t, t.TempDir(), sampleCSV, 0)
	c := newTestCache(path, &calls)

	rows, err := c.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Fima Premium", rows[0].Name)
	assert.Equal(t, "fima-premium", rows[0].ID)
	assert.Equal(t, "Money Market", rows[0].Category)
	require.NotNil(t, rows[0].TNA)
	assert.Equal(t, 32.5, *rows[0].TNA)
	require.NotNil(t, rows[0].MonthlyReturnPct)
	assert.Equal(t, 2.1, *rows[0].MonthlyReturnPct)

	assert.Nil(t, rows[1].MonthlyReturnPct, "empty cell stays nil")
	assert.Nil(t, rows[2].TNA)

	assert.Equal(t, 0, calls, "fresh file never triggers the scraper")
}

func TestRefreshIfStaleGating(t *testing.T) {
	calls := 0
	path := writeCache(t, t.TempDir(), sampleCSV, 48*time.Hour)
	c := newTestCache(path, &calls)

	require.NoError(t, c.RefreshIfStale(context.Background()))
	assert.Equal(t, 1, calls, "stale file triggers one scrape")

	// the fake runner does not touch the file, so it stays stale; a
	// fresh mtime must gate the next call
	now := time.Now()
	require.NoError(t, os.Chtimes(path, now, now))
	require.NoError(t, c.RefreshIfStale(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestRefreshWhenFileMissing(t *testing.T) {
	calls := 0
	c := newTestCache(filepath.Join(t.TempDir(), "absent.csv"), &calls)

	require.NoError(t, c.RefreshIfStale(context.Background()))
	assert.Equal(t, 1, calls, "missing file always triggers a scrape")
}

func TestRowsServedFromMemory(t *testing.T) {
	calls := 0
	dir := t.TempDir()
	path := writeCache(t, dir, sampleCSV, 0)
	c := newTestCache(path, &calls)

	first, err := c.Rows(context.Background())
	require.NoError(t, err)

	// rewrite the file; the memory cache still serves the old rows
	writeCache(t, dir, "fondo,tna,rendimiento_mensual,categoria\nOtro,1,,X\n", 0)
	second, err := c.Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestForceRefreshInvalidatesMemory(t *testing.T) {
	calls := 0
	dir := t.TempDir()
	path := writeCache(t, dir, sampleCSV, 0)
	c := newTestCache(path, &calls)

	_, err := c.Rows(context.Background())
	require.NoError(t, err)

	writeCache(t, dir, "fondo,tna,rendimiento_mensual,categoria\nOtro,1,,X\n", 0)
	require.NoError(t, c.ForceRefresh(context.Background()))
	assert.Equal(t, 1, calls)

	rows, err := c.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Otro", rows[0].Name)
}

func TestMeanTNAByCategory(t *testing.T) {
	calls := 0
	csv := `fondo,tna,rendimiento_mensual,categoria
A,30,,Money Market
B,40,,Money Market
C,,,Money Market
D,99,,Renta Fija
`
	path := writeCache(t, t.TempDir(), csv, 0)
	svc := NewService(newTestCache(path, &calls), nil)

	mean, count, err := svc.MeanTNAByCategory(context.Background(), "Money Market")
	require.NoError(t, err)
	assert.Equal(t, 35.0, mean)
	assert.Equal(t, 2, count, "rows without TNA are skipped")

	mean, count, err = svc.MeanTNAByCategory(context.Background(), "Inexistente")
	require.NoError(t, err)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0, count)
}

func TestListFilters(t *testing.T) {
	calls := 0
	path := writeCache(t, t.TempDir(), sampleCSV, 0)
	svc := NewService(newTestCache(path, &calls), nil)

	byCat, err := svc.List(context.Background(), "Renta Fija", "", false)
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, "Balanz Ahorro", byCat[0].Name)

	bySearch, err := svc.List(context.Background(), "", "fima", false)
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "Fima Premium", bySearch[0].Name)

	none, err := svc.List(context.Background(), "", "zzz", false)
	require.NoError(t, err)
	assert.Empty(t, none)
}
