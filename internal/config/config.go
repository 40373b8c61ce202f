package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port              int
	DevMode           bool
	LogLevel          string
	DataDir           string // root for users/, history/ JSON files
	HistoryDBPath     string // SQLite price snapshot store
	AppDBPath         string // SQLite bond universe / fund cache mirror
	PythonBin         string
	FundScriptPath    string
	FundCachePath     string
	FundCacheTTLHours int
	PriceSyncSchedule string
	FundSyncSchedule  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")

	cfg := &Config{
		Port:              getEnvAsInt("GO_PORT", 8001),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DataDir:           dataDir,
		HistoryDBPath:     getEnv("HISTORY_DB_PATH", filepath.Join(dataDir, "history.db")),
		AppDBPath:         getEnv("APP_DB_PATH", filepath.Join(dataDir, "app.db")),
		PythonBin:         getEnv("PYTHON_BIN", "python3"),
		FundScriptPath:    getEnv("FUND_SCRIPT_PATH", "./scripts/cafci_tna_full.py"),
		FundCachePath:     getEnv("FUND_CACHE_PATH", filepath.Join(dataDir, "fondos_tna.csv")),
		FundCacheTTLHours: getEnvAsInt("FUND_CACHE_TTL_HOURS", 24),
		PriceSyncSchedule: getEnv("PRICE_SYNC_SCHEDULE", "0 30 18 * * MON-FRI"),
		FundSyncSchedule:  getEnv("FUND_SYNC_SCHEDULE", "@daily"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.FundCacheTTLHours <= 0 {
		return fmt.Errorf("FUND_CACHE_TTL_HOURS must be positive")
	}
	return nil
}

// UsersDir returns the directory holding per-user account files
func (c *Config) UsersDir() string {
	return filepath.Join(c.DataDir, "users")
}

// HistoryDir returns the directory holding per-user daily history files
func (c *Config) HistoryDir() string {
	return filepath.Join(c.DataDir, "history")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
