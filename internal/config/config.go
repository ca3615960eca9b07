// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir   string // Base directory for the dashboard database (always absolute)
	LogLevel  string
	LogPretty bool
	Port      int
	DevMode   bool
	Location  *time.Location // Calendar "today" for views and report grouping

	// TradeDedupEpsilon is the quantity tolerance under which two trades with the
	// same strategy/date/symbol/side are treated as the same fill.
	TradeDedupEpsilon float64

	Backup *BackupConfig
}

// BackupConfig holds off-site backup configuration
type BackupConfig struct {
	Enabled         bool
	Schedule        string // robfig/cron expression with seconds field
	RetentionDays   int
	Bucket          string
	Endpoint        string // Custom S3 endpoint (R2, MinIO); empty = AWS
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Configured reports whether enough settings exist to reach the bucket.
func (b *BackupConfig) Configured() bool {
	return b != nil && b.Enabled && b.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("MC_DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tz := getEnv("TIMEZONE", "Europe/Rome")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		Port:              getEnvAsInt("MC_PORT", 8080),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvAsBool("LOG_PRETTY", true),
		Location:          loc,
		TradeDedupEpsilon: getEnvAsFloat("TRADE_DEDUP_EPSILON", 1e-7),
		Backup:            loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.TradeDedupEpsilon < 0 {
		return fmt.Errorf("TRADE_DEDUP_EPSILON must not be negative: %g", c.TradeDedupEpsilon)
	}
	if c.Backup != nil && c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("BACKUP_ENABLED requires S3_BUCKET")
	}
	return nil
}

// DatabasePath returns the dashboard database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "dashboard.db")
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

func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
		Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"), // 03:00 daily
		RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		Bucket:          getEnv("S3_BUCKET", ""),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		Region:          getEnv("S3_REGION", "auto"),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
	}
}
