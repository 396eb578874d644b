// Package config loads the ledger's runtime configuration from the
// environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	// Database
	SQLiteDBPath string

	// Ledger
	HomeCurrency string

	// Import defaults
	ImportSource   string
	ImportCategory string

	// Worker
	SyncInterval time.Duration
}

func Load() *Config {
	return &Config{
		SQLiteDBPath:   getEnv("KAKEIBO_DB_PATH", "./data/kakeibo.db"),
		HomeCurrency:   getEnv("KAKEIBO_HOME_CURRENCY", "JPY"),
		ImportSource:   getEnv("KAKEIBO_IMPORT_SOURCE", "csv"),
		ImportCategory: getEnv("KAKEIBO_IMPORT_CATEGORY", "Uncategorized"),
		SyncInterval:   getEnvDuration("KAKEIBO_SYNC_INTERVAL", 1*time.Hour),
	}
}

// Validate checks the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.SQLiteDBPath == "" {
		errs = append(errs, "database path cannot be empty")
	}

	code := strings.ToUpper(strings.TrimSpace(c.HomeCurrency))
	if code == "" {
		errs = append(errs, "home currency cannot be empty")
	} else if len(code) > 8 {
		errs = append(errs, fmt.Sprintf("home currency %q is not a currency code", c.HomeCurrency))
	}

	if c.SyncInterval < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at least 1 minute", c.SyncInterval))
	} else if c.SyncInterval > 7*24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at most 7 days", c.SyncInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
