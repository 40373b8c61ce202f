package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/mbelardi/finanzas/internal/domain"
)

// BondRepository stores the bond universe used by the recommendation
// advisor and as a price fallback for bond positions.
type BondRepository struct {
	*BaseRepository
}

// NewBondRepository creates a new bond repository
func NewBondRepository(db *sql.DB, log zerolog.Logger) *BondRepository {
	return &BondRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "bonds").Logger()),
	}
}

// Upsert replaces quote rows by ticker
func (r *BondRepository) Upsert(bonds []domain.Bond) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bonds
			(ticker, name, price, tir, uptir, parity, duration, volume, coupon_rate, maturity_date, currency, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, b := range bonds {
		if b.Ticker == "" {
			continue
		}
		cur := b.Currency
		if !cur.IsValid() {
			cur = domain.ARS
		}
		_, err := stmt.Exec(b.Ticker, b.Name, b.Price, b.TIR, b.UPTIR, b.Parity,
			b.Duration, b.Volume, b.CouponRate, b.MaturityDate, string(cur), now)
		if err != nil {
			return fmt.Errorf("failed to upsert bond %s: %w", b.Ticker, err)
		}
	}

	return tx.Commit()
}

// All returns every bond in the universe ordered by ticker
func (r *BondRepository) All() ([]domain.Bond, error) {
	rows, err := r.db.Query(`
		SELECT ticker, name, price, tir, uptir, parity, duration, volume, coupon_rate, maturity_date, currency
		FROM bonds ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bonds: %w", err)
	}
	defer rows.Close()

	var bonds []domain.Bond
	for rows.Next() {
		b, err := scanBond(rows)
		if err != nil {
			return nil, err
		}
		bonds = append(bonds, b)
	}
	return bonds, rows.Err()
}

// Get returns one bond by ticker
func (r *BondRepository) Get(ticker string) (domain.Bond, error) {
	row := r.db.QueryRow(`
		SELECT ticker, name, price, tir, uptir, parity, duration, volume, coupon_rate, maturity_date, currency
		FROM bonds WHERE ticker = ?`, ticker)

	b, err := scanBond(row)
	if err == sql.ErrNoRows {
		return domain.Bond{}, domain.ErrNoPriceData
	}
	if err != nil {
		return domain.Bond{}, fmt.Errorf("failed to get bond %s: %w", ticker, err)
	}
	return b, nil
}

// LatestPrice returns the universe quote for a ticker. It backs bond
// positions whose symbol never shows up in the price history store.
func (r *BondRepository) LatestPrice(ticker string) (float64, error) {
	b, err := r.Get(ticker)
	if err != nil {
		return 0, err
	}
	if b.Price == nil || *b.Price <= 0 {
		return 0, domain.ErrNoPriceData
	}
	return *b.Price, nil
}

// ImportFile loads a JSON universe file and upserts its rows. A missing
// file is not an error, the universe is simply empty until synced.
func (r *BondRepository) ImportFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read bond universe: %w", err)
	}

	var bonds []domain.Bond
	if err := json.Unmarshal(data, &bonds); err != nil {
		return 0, fmt.Errorf("failed to parse bond universe: %w", err)
	}

	if err := r.Upsert(bonds); err != nil {
		return 0, err
	}
	r.log.Info().Int("count", len(bonds)).Str("path", path).Msg("Imported bond universe")
	return len(bonds), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBond(row rowScanner) (domain.Bond, error) {
	var b domain.Bond
	var cur string
	err := row.Scan(&b.Ticker, &b.Name, &b.Price, &b.TIR, &b.UPTIR, &b.Parity,
		&b.Duration, &b.Volume, &b.CouponRate, &b.MaturityDate, &cur)
	if err != nil {
		return domain.Bond{}, err
	}
	b.Currency = domain.Currency(cur)
	return b, nil
}
