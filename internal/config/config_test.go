package config

import (
	"testing"
	"time"

	"github.com/kiwari-pos/tiffin/internal/kvstore"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "STORE_DRIVER", "SQLITE_PATH", "DATABASE_URL", "TZ_NAME", "CURRENCY",
		"CHECKOUT_CLEAR_DELAY", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID", "CHROME_BIN", "ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8081" {
		t.Errorf("port: got %s", cfg.Port)
	}
	if cfg.Store.Driver != kvstore.DriverSQLite || cfg.Store.SQLitePath != "./data/tiffin.db" {
		t.Errorf("store: got %+v", cfg.Store)
	}
	if cfg.Currency != "INR" {
		t.Errorf("currency: got %s", cfg.Currency)
	}
	if cfg.ClearDelay != 100*time.Millisecond {
		t.Errorf("clear delay: got %s", cfg.ClearDelay)
	}
	if cfg.Location != time.Local {
		t.Errorf("location: got %s", cfg.Location)
	}
	if cfg.Telegram.Enabled() {
		t.Error("telegram should be disabled without a token")
	}
	if len(cfg.AllowedOrigins) != 1 {
		t.Errorf("origins: got %v", cfg.AllowedOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("TZ_NAME", "Asia/Kolkata")
	t.Setenv("CHECKOUT_CLEAR_DELAY", "0s")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != kvstore.DriverMemory {
		t.Errorf("driver: got %s", cfg.Store.Driver)
	}
	if cfg.Location.String() != "Asia/Kolkata" {
		t.Errorf("location: got %s", cfg.Location)
	}
	if cfg.ClearDelay != 0 {
		t.Errorf("clear delay: got %s", cfg.ClearDelay)
	}
	if !cfg.Telegram.Enabled() || cfg.Telegram.ChatID != -100200 {
		t.Errorf("telegram: got %+v", cfg.Telegram)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("origins: got %v", cfg.AllowedOrigins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"TZ_NAME":              "Mars/Olympus",
		"CHECKOUT_CLEAR_DELAY": "soon",
		"TELEGRAM_CHAT_ID":     "channel",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", key, val)
			}
		})
	}
}

func TestLoad_NegativeDelay(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHECKOUT_CLEAR_DELAY", "-1s")
	if _, err := Load(); err == nil {
		t.Error("expected error for negative delay")
	}
}
