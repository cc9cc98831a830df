package config

import (
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != "127.0.0.1:8390" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.StoreBackend != "file" || cfg.FetchMode != "http" {
		t.Fatalf("backend = %q, fetch = %q, want file/http", cfg.StoreBackend, cfg.FetchMode)
	}
	if !cfg.RefreshOnSwitch {
		t.Fatal("RefreshOnSwitch should default to true")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DASHBOARD_STORE_BACKEND", "SQLite")
	t.Setenv("SCREENER_FETCH_MODE", "browser")
	t.Setenv("DASHBOARD_BIND_CANDIDATES", "127.0.0.1:9000, 127.0.0.1:9001")
	t.Setenv("SCREENER_HTTP_TIMEOUT_MS", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoreBackend != "sqlite" {
		t.Fatalf("StoreBackend = %q, want sqlite", cfg.StoreBackend)
	}
	if cfg.FetchMode != "browser" {
		t.Fatalf("FetchMode = %q, want browser", cfg.FetchMode)
	}
	want := []string{"127.0.0.1:9000", "127.0.0.1:9001"}
	if !reflect.DeepEqual(cfg.PortCandidates, want) {
		t.Fatalf("PortCandidates = %v, want %v", cfg.PortCandidates, want)
	}
	if cfg.HTTPTimeoutMS != 1000 {
		t.Fatalf("HTTPTimeoutMS = %d, want floor of 1000", cfg.HTTPTimeoutMS)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("DASHBOARD_STORE_BACKEND", "redis")
	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject unknown store backend")
	}
}

func TestCDPURL(t *testing.T) {
	cfg := &Config{CDPAddress: "127.0.0.1", CDPPort: 9220}
	if got := cfg.CDPURL(); got != "http://127.0.0.1:9220" {
		t.Fatalf("CDPURL() = %q", got)
	}
}
