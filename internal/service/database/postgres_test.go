package database

import (
	"testing"
	"time"
)

func TestDSNCarriesSSLMode(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "isl",
		Password: "secret",
		Database: "isl_announcements",
		SSLMode:  "require",
	}
	want := "host=db.internal port=5433 user=isl password=secret dbname=isl_announcements sslmode=require"
	if got := cfg.dsn(); got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}
}

func TestWithDefaultsFillsPoolSettings(t *testing.T) {
	cfg := PostgresConfig{Host: "localhost"}.withDefaults()
	if cfg.SSLMode != "disable" {
		t.Errorf("sslmode = %q, want disable", cfg.SSLMode)
	}
	if cfg.MaxOpenConns != 25 || cfg.MaxIdleConns != 5 {
		t.Errorf("pool = %d/%d, want 25/5", cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("conn lifetime = %s, want 5m", cfg.ConnMaxLifetime)
	}
}

func TestWithDefaultsKeepsExplicitSettings(t *testing.T) {
	cfg := PostgresConfig{
		SSLMode:         "verify-full",
		MaxOpenConns:    50,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
	}.withDefaults()
	if cfg.SSLMode != "verify-full" {
		t.Errorf("sslmode = %q, want verify-full", cfg.SSLMode)
	}
	if cfg.MaxOpenConns != 50 || cfg.MaxIdleConns != 10 || cfg.ConnMaxLifetime != time.Hour {
		t.Errorf("explicit pool settings overwritten: %+v", cfg)
	}
}
