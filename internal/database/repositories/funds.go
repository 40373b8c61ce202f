package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mbelardi/finanzas/internal/domain"
)

// FundRepository mirrors the scraped mutual fund rows so they survive
// restarts and can be queried by category.
type FundRepository struct {
	*BaseRepository
}

// NewFundRepository creates a new fund repository
func NewFundRepository(db *sql.DB, log zerolog.Logger) *FundRepository {
	return &FundRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "funds").Logger()),
	}
}

// ReplaceAll swaps the whole fund table for a fresh scrape
func (r *FundRepository) ReplaceAll(funds []domain.Fund) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM funds`); err != nil {
		return fmt.Errorf("failed to clear funds: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO funds (id, name, category, currency, tna, monthly_return_pct, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, f := range funds {
		if f.ID == "" {
			continue
		}
		cur := f.Currency
		if !cur.IsValid() {
			cur = domain.ARS
		}
		if _, err := stmt.Exec(f.ID, f.Name, f.Category, string(cur), f.TNA, f.MonthlyReturnPct, now); err != nil {
			return fmt.Errorf("failed to insert fund %s: %w", f.ID, err)
		}
	}

	return tx.Commit()
}

// All returns every fund ordered by name
func (r *FundRepository) All() ([]domain.Fund, error) {
	return r.query(`
		SELECT id, name, category, currency, tna, monthly_return_pct
		FROM funds ORDER BY name`)
}

// ByCategory returns funds in one category ordered by name
func (r *FundRepository) ByCategory(category string) ([]domain.Fund, error) {
	return r.query(`
		SELECT id, name, category, currency, tna, monthly_return_pct
		FROM funds WHERE category = ? ORDER BY name`, category)
}

// Count returns how many funds are stored
func (r *FundRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM funds`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count funds: %w", err)
	}
	return n, nil
}

func (r *FundRepository) query(q string, args ...interface{}) ([]domain.Fund, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query funds: %w", err)
	}
	defer rows.Close()

	var funds []domain.Fund
	for rows.Next() {
		var f domain.Fund
		var cur string
		if err := rows.Scan(&f.ID, &f.Name, &f.Category, &cur, &f.TNA, &f.MonthlyReturnPct); err != nil {
			return nil, fmt.Errorf("failed to scan fund: %w", err)
		}
		f.Currency = domain.Currency(cur)
		funds = append(funds, f)
	}
	return funds, rows.Err()
}
