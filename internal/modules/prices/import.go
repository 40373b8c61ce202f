package prices

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mbelardi/finanzas/internal/clients/yahoo"
)

// snapshotBar is one row of an exported per-symbol price file
type snapshotBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// ImportDir loads every <SYMBOL>.json snapshot file from a directory
// into the store. A missing directory is not an error; files that fail
// to parse are skipped with a warning. Returns the number of symbols
// imported.
func (s *Store) ImportDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	imported := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		symbol := strings.TrimSuffix(entry.Name(), ".json")

		bars, err := readSnapshotFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Skipping unreadable snapshot file")
			continue
		}
		if len(bars) == 0 {
			continue
		}

		if err := s.Upsert(symbol, bars); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func readSnapshotFile(path string) ([]yahoo.HistoricalPrice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []snapshotBar
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file: %w", err)
	}

	bars := make([]yahoo.HistoricalPrice, 0, len(raw))
	for _, bar := range raw {
		d, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			continue
		}
		bars = append(bars, yahoo.HistoricalPrice{
			Date:   d,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}
	return bars, nil
}
