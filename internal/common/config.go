package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Archive  ArchiveConfig
	PDF      PDFConfig
	Watch    WatchConfig
}

// DatabaseConfig holds record-store configuration. A postgres:// DSN
// selects the pgx backend; anything else is treated as a SQLite path.
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ArchiveConfig holds the filing locations for ingested documents.
type ArchiveConfig struct {
	// Root is the broker-scoped customer archive.
	Root string
	// UnassignedRoot is the triage inbox for documents without a customer.
	UnassignedRoot string
}

// PDFConfig holds PDF text extraction configuration.
type PDFConfig struct {
	Pdftotext string
	Timeout   time.Duration
	MaxPages  int
}

// WatchConfig holds intake-watcher configuration.
type WatchConfig struct {
	Root        string
	Debounce    time.Duration
	InitialScan bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Archive: ArchiveConfig{
			Root:           getEnv("ARCHIVE_ROOT", ""),
			UnassignedRoot: getEnv("UNASSIGNED_ROOT", ""),
		},
		PDF: PDFConfig{
			Pdftotext: getEnv("PDFTOTEXT", "pdftotext"),
			Timeout:   getEnvAsDuration("PDFTOTEXT_TIMEOUT", 30*time.Second),
			MaxPages:  getEnvAsInt("PDF_MAX_PAGES", 0),
		},
		Watch: WatchConfig{
			Root:        getEnv("WATCH_ROOT", ""),
			Debounce:    getEnvAsDuration("WATCH_DEBOUNCE", 2*time.Second),
			InitialScan: getEnv("WATCH_INITIAL_SCAN", "true") == "true",
		},
	}
}

// Helper functions for environment variable parsing
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Archive.Root == "" {
		return NewAppError("CONFIG_ERROR", "ARCHIVE_ROOT is required", ErrInvalidInput)
	}
	if c.Archive.UnassignedRoot == "" {
		return NewAppError("CONFIG_ERROR", "UNASSIGNED_ROOT is required", ErrInvalidInput)
	}
	return nil
}
