package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadDefaults(t *testing.T) {
	lookuper := envconfig.MapLookuper(map[string]string{
		"TELEGRAM_BOT_TOKEN": "token",
		"DB_HOST":            "localhost",
		"DB_USER":            "bot",
		"DB_PASSWORD":        "secret",
		"DB_NAME":            "pricebot",
	})

	var cfg Config
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		t.Fatalf("ProcessWith failed: %v", err)
	}

	if cfg.MonitorInterval != 60*time.Second {
		t.Errorf("MonitorInterval = %v, want 60s", cfg.MonitorInterval)
	}
	if cfg.QuoteCacheTTL != 60*time.Second {
		t.Errorf("QuoteCacheTTL = %v, want 60s", cfg.QuoteCacheTTL)
	}
	if cfg.UpstreamMinSpacing != 1200*time.Millisecond {
		t.Errorf("UpstreamMinSpacing = %v, want 1.2s", cfg.UpstreamMinSpacing)
	}
	if cfg.MonitorFetchTimeout != 30*time.Second {
		t.Errorf("MonitorFetchTimeout = %v, want 30s", cfg.MonitorFetchTimeout)
	}
	if cfg.NotifyTimeout != 5*time.Second {
		t.Errorf("NotifyTimeout = %v, want 5s", cfg.NotifyTimeout)
	}
	if cfg.CoinGeckoBaseURL == "" || cfg.DBPort != 5432 {
		t.Errorf("unexpected defaults: base_url=%q db_port=%d", cfg.CoinGeckoBaseURL, cfg.DBPort)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	var cfg Config
	err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.MapLookuper(map[string]string{}),
	})
	if err == nil {
		t.Fatal("expected error for missing required keys")
	}
}
