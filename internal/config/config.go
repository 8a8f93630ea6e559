// Package config provides configuration management functionality.
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
	DataDir    string // Base directory for all databases (always absolute)
	ReportsDir string // Directory for generated weight reports (always absolute)
	LogLevel   string
	Port       int
	DevMode    bool

	// Engine defaults. Individual indexes may override windows and floor
	// in their own configuration; these apply when an index does not.
	ShortWindow     int     // trailing observations for the short covariance
	LongWindow      int     // trailing observations for the long covariance
	VolatilityFloor float64 // lower bound applied to per-asset annualized vol

	// Realized-volatility estimator defaults
	EWMALambdaShort float64
	EWMALambdaLong  float64
	MaxLeverage     float64

	// Funding
	FixedFundingRate  float64 // fallback rate when no stored fixing is available
	FundingStaleLimit int     // max calendar days a stored fixing may be carried forward

	// Scheduler
	SchedulerEnabled    bool
	ValuationSchedule   string // cron spec for the daily valuation job
	BackupSchedule      string // cron spec for the nightly backup job
	MaintenanceSchedule string // cron spec for database maintenance

	// Funding-rate feed (optional)
	FeedEnabled bool
	FeedURL     string

	// R2 backup (S3-compatible object storage)
	Backup BackupConfig
}

// BackupConfig holds cloud backup configuration
type BackupConfig struct {
	Enabled         bool
	Endpoint        string // S3-compatible endpoint URL
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	RetentionDays   int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("BALLAST_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	reportsDir := getEnv("BALLAST_REPORTS_DIR", filepath.Join(absDataDir, "reports"))
	absReportsDir, err := filepath.Abs(reportsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reports directory path: %w", err)
	}

	if err := os.MkdirAll(absReportsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}

	cfg := &Config{
		DataDir:    absDataDir,
		ReportsDir: absReportsDir,
		Port:       getEnvAsInt("BALLAST_PORT", 8010),
		DevMode:    getEnvAsBool("DEV_MODE", false),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		ShortWindow:     getEnvAsInt("ENGINE_SHORT_WINDOW", 20),
		LongWindow:      getEnvAsInt("ENGINE_LONG_WINDOW", 62),
		VolatilityFloor: getEnvAsFloat("ENGINE_VOLATILITY_FLOOR", 1e-4),

		EWMALambdaShort: getEnvAsFloat("EWMA_LAMBDA_SHORT", 0.94),
		EWMALambdaLong:  getEnvAsFloat("EWMA_LAMBDA_LONG", 0.97),
		MaxLeverage:     getEnvAsFloat("MAX_LEVERAGE", 1.5),

		FixedFundingRate:  getEnvAsFloat("FIXED_FUNDING_RATE", 0.0),
		FundingStaleLimit: getEnvAsInt("FUNDING_STALE_LIMIT_DAYS", 7),

		SchedulerEnabled:    getEnvAsBool("SCHEDULER_ENABLED", true),
		ValuationSchedule:   getEnv("VALUATION_SCHEDULE", "0 0 18 * * MON-FRI"),
		BackupSchedule:      getEnv("BACKUP_SCHEDULE", "0 30 2 * * *"),
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "0 0 */6 * * *"),

		FeedEnabled: getEnvAsBool("RATES_FEED_ENABLED", false),
		FeedURL:     getEnv("RATES_FEED_URL", ""),

		Backup: BackupConfig{
			Enabled:         getEnvAsBool("R2_BACKUP_ENABLED", false),
			Endpoint:        getEnv("R2_ENDPOINT", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("R2_BUCKET", ""),
			RetentionDays:   getEnvAsInt("R2_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and coherent
func (c *Config) Validate() error {
	if c.ShortWindow < 2 {
		return fmt.Errorf("engine short window must be at least 2, got %d", c.ShortWindow)
	}
	if c.LongWindow < 2 {
		return fmt.Errorf("engine long window must be at least 2, got %d", c.LongWindow)
	}
	if c.ShortWindow > c.LongWindow {
		return fmt.Errorf("engine short window %d exceeds long window %d", c.ShortWindow, c.LongWindow)
	}
	if c.VolatilityFloor <= 0 {
		return fmt.Errorf("volatility floor must be positive, got %g", c.VolatilityFloor)
	}
	if c.EWMALambdaShort <= 0 || c.EWMALambdaShort >= 1 {
		return fmt.Errorf("EWMA short lambda must be in (0,1), got %g", c.EWMALambdaShort)
	}
	if c.EWMALambdaLong <= 0 || c.EWMALambdaLong >= 1 {
		return fmt.Errorf("EWMA long lambda must be in (0,1), got %g", c.EWMALambdaLong)
	}
	if c.MaxLeverage <= 0 {
		return fmt.Errorf("max leverage must be positive, got %g", c.MaxLeverage)
	}
	if c.FundingStaleLimit < 0 {
		return fmt.Errorf("funding stale limit must not be negative, got %d", c.FundingStaleLimit)
	}
	if c.FeedEnabled && c.FeedURL == "" {
		return fmt.Errorf("rates feed enabled but RATES_FEED_URL is not set")
	}
	if c.Backup.Enabled {
		if c.Backup.Endpoint == "" || c.Backup.Bucket == "" {
			return fmt.Errorf("backup enabled but R2 endpoint or bucket is not set")
		}
		if c.Backup.AccessKeyID == "" || c.Backup.SecretAccessKey == "" {
			return fmt.Errorf("backup enabled but R2 credentials are not set")
		}
	}

	return nil
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
