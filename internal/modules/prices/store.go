package prices

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/clients/yahoo"
	"github.com/mbelardi/finanzas/internal/domain"
)

// Store persists daily price snapshots in a single SQLite database keyed
// by symbol and date.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore opens (and if needed creates) the history database
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS daily_prices (
			symbol TEXT NOT NULL,
			date TEXT NOT NULL,
			open_price REAL NOT NULL DEFAULT 0,
			high_price REAL NOT NULL DEFAULT 0,
			low_price REAL NOT NULL DEFAULT 0,
			close_price REAL NOT NULL,
			volume INTEGER,
			PRIMARY KEY (symbol, date)
		)
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create daily_prices table: %w", err)
	}

	return &Store{
		db:  db,
		log: log.With().Str("component", "price_store").Logger(),
	}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying connection, used for integrity checks
func (s *Store) DB() *sql.DB {
	return s.db
}

// Upsert inserts or replaces daily bars for a symbol
func (s *Store) Upsert(symbol string, bars []yahoo.HistoricalPrice) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO daily_prices
			(symbol, date, open_price, high_price, low_price, close_price, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, bar := range bars {
		date := bar.Date.Format("2006-01-02")
		if _, err := stmt.Exec(symbol, date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume); err != nil {
			return fmt.Errorf("failed to upsert price for %s on %s: %w", symbol, date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price upsert: %w", err)
	}
	return nil
}

// History fetches stored bars for a symbol, ascending by date. A limit
// of 0 returns everything.
func (s *Store) History(symbol string, limit int) ([]DailyPrice, error) {
	query := `
		SELECT symbol, date, open_price, high_price, low_price, close_price, volume
		FROM daily_prices
		WHERE symbol = ?
		ORDER BY date DESC
	`
	args := []interface{}{symbol}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var prices []DailyPrice
	for rows.Next() {
		var p DailyPrice
		var volume sql.NullInt64
		if err := rows.Scan(&p.Symbol, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}
		if volume.Valid {
			p.Volume = &volume.Int64
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	// Reverse to ascending order
	for i, j := 0, len(prices)-1; i < j; i, j = i+1, j-1 {
		prices[i], prices[j] = prices[j], prices[i]
	}
	return prices, nil
}

// LatestCloseOnOrBefore resolves the most recent close whose date is on
// or before day (YYYY-MM-DD). Returns domain.ErrNoPriceData when no
// snapshot qualifies.
func (s *Store) LatestCloseOnOrBefore(symbol, day string) (float64, error) {
	var price float64
	err := s.db.QueryRow(`
		SELECT close_price FROM daily_prices
		WHERE symbol = ? AND date <= ?
		ORDER BY date DESC
		LIMIT 1
	`, symbol, day).Scan(&price)
	if err == sql.ErrNoRows {
		return 0, domain.ErrNoPriceData
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query latest close: %w", err)
	}
	return price, nil
}

// LatestCloseBefore resolves the most recent close strictly before day.
// Used by the trailing-return benchmark.
func (s *Store) LatestCloseBefore(symbol, day string) (float64, error) {
	var price float64
	err := s.db.QueryRow(`
		SELECT close_price FROM daily_prices
		WHERE symbol = ? AND date < ?
		ORDER BY date DESC
		LIMIT 1
	`, symbol, day).Scan(&price)
	if err == sql.ErrNoRows {
		return 0, domain.ErrNoPriceData
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query close before date: %w", err)
	}
	return price, nil
}

// LatestClose resolves the most recent stored close for a symbol
func (s *Store) LatestClose(symbol string) (float64, error) {
	var price float64
	err := s.db.QueryRow(`
		SELECT close_price FROM daily_prices
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT 1
	`, symbol).Scan(&price)
	if err == sql.ErrNoRows {
		return 0, domain.ErrNoPriceData
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query latest close: %w", err)
	}
	return price, nil
}

// CountBars returns how many snapshots are stored for a symbol
func (s *Store) CountBars(symbol string) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM daily_prices WHERE symbol = ?`, symbol).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count bars: %w", err)
	}
	return n, nil
}

// Symbols lists every symbol with at least one stored snapshot
func (s *Store) Symbols() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}
