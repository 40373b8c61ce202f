package scheduler

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// HealthCheckJob verifies database integrity and data directory
// writability on a schedule, so corruption is noticed before a user
// request trips over it.
type HealthCheckJob struct {
	log     zerolog.Logger
	dataDir string
	dbs     map[string]*sql.DB
}

// NewHealthCheckJob creates a health check over the given databases
func NewHealthCheckJob(log zerolog.Logger, dataDir string, dbs map[string]*sql.DB) *HealthCheckJob {
	return &HealthCheckJob{
		log:     log.With().Str("component", "health_check").Logger(),
		dataDir: dataDir,
		dbs:     dbs,
	}
}

// Name returns the job name
func (j *HealthCheckJob) Name() string {
	return "health_check"
}

// Run checks every registered database and the data directory
func (j *HealthCheckJob) Run() error {
	var firstErr error

	for name, db := range j.dbs {
		if err := j.checkDatabase(name, db); err != nil {
			j.log.Error().Err(err).Str("database", name).Msg("Database integrity check failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if err := j.checkDataDir(); err != nil {
		j.log.Error().Err(err).Str("dir", j.dataDir).Msg("Data directory check failed")
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr == nil {
		j.log.Debug().Msg("Health check passed")
	}
	return firstErr
}

func (j *HealthCheckJob) checkDatabase(name string, db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s: %w", name, err)
	}

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to run integrity check on %s: %w", name, err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check on %s returned %q", name, result)
	}
	return nil
}

func (j *HealthCheckJob) checkDataDir() error {
	probe := filepath.Join(j.dataDir, ".healthcheck")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("data directory not writable: %w", err)
	}
	return os.Remove(probe)
}
