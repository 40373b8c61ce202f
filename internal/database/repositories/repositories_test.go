package repositories

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbelardi/finanzas/internal/database"
	"github.com/mbelardi/finanzas/internal/domain"
)

func testDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db
}

func fp(v float64) *float64 {
	return &v
}

func TestBondUpsertAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewBondRepository(db.Conn(), zerolog.Nop())

	err := repo.Upsert([]domain.Bond{
		{
			Ticker:       "AL30",
			Name:         "Bonar 2030",
			MaturityDate: "2030-07-09",
			Currency:     domain.USD,
			Price:        fp(57800),
			TIR:          fp(1100),
			Parity:       fp(95),
			Volume:       fp(2500000),
		},
		{Ticker: "GD35", Name: "Global 2035", Currency: domain.USD, TIR: fp(950)},
		{Ticker: "", Name: "sin ticker"},
	})
	require.NoError(t, err)

	all, err := repo.All()
	require.NoError(t, err)
	require.Len(t, all, 2, "rows without ticker are skipped")
	assert.Equal(t, "AL30", all[0].Ticker)
	assert.Equal(t, "GD35", all[1].Ticker)

	b, err := repo.Get("AL30")
	require.NoError(t, err)
	assert.Equal(t, "Bonar 2030", b.Name)
	assert.Equal(t, domain.USD, b.Currency)
	require.NotNil(t, b.Price)
	assert.Equal(t, 57800.0, *b.Price)
	assert.Nil(t, b.Duration, "omitted quote fields stay nil")
	assert.Nil(t, b.CouponRate)
}

func TestBondUpsertReplacesByTicker(t *testing.T) {
	db := testDB(t)
	repo := NewBondRepository(db.Conn(), zerolog.Nop())

	require.NoError(t, repo.Upsert([]domain.Bond{{Ticker: "AL30", Price: fp(100)}}))
	require.NoError(t, repo.Upsert([]domain.Bond{{Ticker: "AL30", Price: fp(120)}}))

	all, err := repo.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 120.0, *all[0].Price)
}

func TestBondLatestPrice(t *testing.T) {
	db := testDB(t)
	repo := NewBondRepository(db.Conn(), zerolog.Nop())

	require.NoError(t, repo.Upsert([]domain.Bond{
		{Ticker: "AL30", Price: fp(57800)},
		{Ticker: "GD35", TIR: fp(950)},
	}))

	price, err := repo.LatestPrice("AL30")
	require.NoError(t, err)
	assert.Equal(t, 57800.0, price)

	_, err = repo.LatestPrice("GD35")
	assert.True(t, errors.Is(err, domain.ErrNoPriceData), "bond without price has no quote")

	_, err = repo.LatestPrice("XX99")
	assert.True(t, errors.Is(err, domain.ErrNoPriceData))
}

func TestBondImportFile(t *testing.T) {
	db := testDB(t)
	repo := NewBondRepository(db.Conn(), zerolog.Nop())

	n, err := repo.ImportFile(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err, "missing universe file is not an error")
	assert.Equal(t, 0, n)

	path := filepath.Join(t.TempDir(), "bonds.json")
	payload := `[
		{"ticker": "AL30", "name": "Bonar 2030", "currency": "USD", "price": 57800, "tir": 1100},
		{"ticker": "TX26", "name": "Boncer 2026", "currency": "ARS", "couponRate": 2}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))

	n, err = repo.ImportFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	b, err := repo.Get("TX26")
	require.NoError(t, err)
	assert.Equal(t, domain.ARS, b.Currency)
	require.NotNil(t, b.CouponRate)
	assert.Equal(t, 2.0, *b.CouponRate)
}

func TestFundReplaceAll(t *testing.T) {
	db := testDB(t)
	repo := NewFundRepository(db.Conn(), zerolog.Nop())

	require.NoError(t, repo.ReplaceAll([]domain.Fund{
		{ID: "mercado-fondo", Name: "Mercado Fondo", Category: "Money Market", TNA: fp(38.2)},
		{ID: "delta-pesos", Name: "Delta Pesos", Category: "Money Market", TNA: fp(40.1)},
		{ID: "alpha-latam", Name: "Alpha Latam", Category: "Renta Variable"},
	}))

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	mm, err := repo.ByCategory("Money Market")
	require.NoError(t, err)
	require.Len(t, mm, 2)
	assert.Equal(t, "Delta Pesos", mm[0].Name)
	assert.Equal(t, "Mercado Fondo", mm[1].Name)

	// a fresh scrape replaces the table wholesale
	require.NoError(t, repo.ReplaceAll([]domain.Fund{
		{ID: "cocos-ahorro", Name: "Cocos Ahorro", Category: "Money Market", TNA: fp(41.5)},
	}))

	all, err := repo.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "cocos-ahorro", all[0].ID)
	require.NotNil(t, all[0].TNA)
	assert.Equal(t, 41.5, *all[0].TNA)
	assert.Nil(t, all[0].MonthlyReturnPct)
}
