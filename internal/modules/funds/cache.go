package funds

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbelardi/finanzas/internal/domain"
)

const (
	scriptTimeout = 5 * time.Minute
	memoryTTL     = time.Minute
)

// runner executes the scraper process. Extracted so tests can count
// invocations without a Python interpreter.
type runner func(ctx context.Context, bin, script string) error

func execRunner(ctx context.Context, bin, script string) error {
	cmd := exec.CommandContext(ctx, bin, script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to run fund scraper: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Cache serves mutual fund TNA rows from a CSV file written by an
// external scraper script, refreshing it when the file goes stale.
type Cache struct {
	pythonBin  string
	scriptPath string
	cachePath  string
	ttl        time.Duration
	run        runner
	log        zerolog.Logger

	mu         sync.Mutex
	refreshing bool
	mem        []domain.Fund
	memAt      time.Time
}

// NewCache creates a fund cache over the given CSV path
func NewCache(pythonBin, scriptPath, cachePath string, ttl time.Duration) *Cache {
	return &Cache{
		pythonBin:  pythonBin,
		scriptPath: scriptPath,
		cachePath:  cachePath,
		ttl:        ttl,
		run:        execRunner,
		log:        log.With().Str("component", "fund_cache").Logger(),
	}
}

// Stats describes the cache file state
type Stats struct {
	Exists    bool    `json:"exists"`
	AgeHours  float64 `json:"ageHours"`
	Valid     bool    `json:"valid"`
	FundCount int     `json:"fundCount"`
}

func (c *Cache) fileAge() (time.Duration, bool) {
	info, err := os.Stat(c.cachePath)
	if err != nil {
		return 0, false
	}
	return time.Since(info.ModTime()), true
}

// RefreshIfStale runs the scraper when the cache file is missing or
// older than the TTL. A refresh already in flight is not doubled up;
// the caller reads whatever the file currently holds.
func (c *Cache) RefreshIfStale(ctx context.Context) error {
	age, exists := c.fileAge()
	if exists && age < c.ttl {
		return nil
	}
	return c.refresh(ctx)
}

// ForceRefresh runs the scraper regardless of file age
func (c *Cache) ForceRefresh(ctx context.Context) error {
	return c.refresh(ctx)
}

func (c *Cache) refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.refreshing {
		c.mu.Unlock()
		c.log.Debug().Msg("Fund refresh already in flight, skipping")
		return nil
	}
	c.refreshing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.refreshing = false
		c.mem = nil
		c.mu.Unlock()
	}()

	runCtx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()

	c.log.Info().Str("script", c.scriptPath).Msg("Refreshing fund cache")
	if err := c.run(runCtx, c.pythonBin, c.scriptPath); err != nil {
		return fmt.Errorf("failed to refresh fund cache: %w", err)
	}
	c.log.Info().Msg("Fund cache refreshed")
	return nil
}

// Rows returns the cached fund rows, refreshing the file first when it
// is stale. Rows parsed within the last minute are served from memory.
func (c *Cache) Rows(ctx context.Context) ([]domain.Fund, error) {
	c.mu.Lock()
	if c.mem != nil && time.Since(c.memAt) < memoryTTL {
		rows := c.mem
		c.mu.Unlock()
		return rows, nil
	}
	c.mu.Unlock()

	if err := c.RefreshIfStale(ctx); err != nil {
		// a stale file is still better than no data
		if _, exists := c.fileAge(); !exists {
			return nil, err
		}
		c.log.Warn().Err(err).Msg("Serving stale fund cache after failed refresh")
	}

	rows, err := c.readFile()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.mem = rows
	c.memAt = time.Now()
	c.mu.Unlock()
	return rows, nil
}

// CacheStats reports the file state plus the current row count
func (c *Cache) CacheStats(ctx context.Context) Stats {
	age, exists := c.fileAge()
	stats := Stats{
		Exists:   exists,
		AgeHours: age.Hours(),
		Valid:    exists && age < c.ttl,
	}
	if rows, err := c.Rows(ctx); err == nil {
		stats.FundCount = len(rows)
	}
	return stats
}

// readFile parses the scraper CSV: fondo, tna, rendimiento_mensual,
// categoria. Unparseable numeric cells become nil, not zero.
func (c *Cache) readFile() ([]domain.Fund, error) {
	f, err := os.Open(c.cachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open fund cache: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse fund cache: %w", err)
	}
	if len(records) < 2 {
		return []domain.Fund{}, nil
	}

	cols := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		cols[strings.TrimSpace(h)] = i
	}

	funds := make([]domain.Fund, 0, len(records)-1)
	for _, rec := range records[1:] {
		name := cell(rec, cols, "fondo")
		if name == "" {
			continue
		}
		fund := domain.Fund{
			ID:               fundID(name),
			Name:             name,
			Category:         cell(rec, cols, "categoria"),
			Currency:         domain.ARS,
			TNA:              parseCell(rec, cols, "tna"),
			MonthlyReturnPct: parseCell(rec, cols, "rendimiento_mensual"),
		}
		funds = append(funds, fund)
	}
	return funds, nil
}

func cell(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseCell(rec []string, cols map[string]int, name string) *float64 {
	raw := cell(rec, cols, name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// fundID normalizes a fund name into a stable row key
func fundID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.ReplaceAll(id, " ", "-")
	return id
}
