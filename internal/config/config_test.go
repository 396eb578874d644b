package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KAKEIBO_DB_PATH", "")
	t.Setenv("KAKEIBO_HOME_CURRENCY", "")
	t.Setenv("KAKEIBO_SYNC_INTERVAL", "")

	cfg := Load()

	if cfg.SQLiteDBPath != "./data/kakeibo.db" {
		t.Errorf("SQLiteDBPath = %q, want default", cfg.SQLiteDBPath)
	}
	if cfg.HomeCurrency != "JPY" {
		t.Errorf("HomeCurrency = %q, want JPY", cfg.HomeCurrency)
	}
	if cfg.SyncInterval != time.Hour {
		t.Errorf("SyncInterval = %v, want 1h", cfg.SyncInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KAKEIBO_DB_PATH", "/tmp/test.db")
	t.Setenv("KAKEIBO_HOME_CURRENCY", "EUR")
	t.Setenv("KAKEIBO_SYNC_INTERVAL", "30m")

	cfg := Load()
	if cfg.SQLiteDBPath != "/tmp/test.db" {
		t.Errorf("SQLiteDBPath = %q", cfg.SQLiteDBPath)
	}
	if cfg.HomeCurrency != "EUR" {
		t.Errorf("HomeCurrency = %q", cfg.HomeCurrency)
	}
	if cfg.SyncInterval != 30*time.Minute {
		t.Errorf("SyncInterval = %v", cfg.SyncInterval)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		SQLiteDBPath: "",
		HomeCurrency: "",
		SyncInterval: time.Second,
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"database path", "home currency", "sync interval"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidateRejectsHugeInterval(t *testing.T) {
	cfg := Load()
	cfg.SyncInterval = 30 * 24 * time.Hour

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted a 30-day sync interval")
	}
}
