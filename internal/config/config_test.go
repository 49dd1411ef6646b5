package config

import (
	"testing"
	"time"
)

func TestLoadCacheConfigDefaults(t *testing.T) {
	cfg := LoadCacheConfig()
	if !cfg.Enabled {
		t.Fatal("cache disabled by default")
	}
	if !cfg.Methods["GET"] || cfg.Methods["POST"] {
		t.Fatalf("methods=%v want GET only", cfg.Methods)
	}
	if cfg.TTL != 30*time.Second {
		t.Fatalf("ttl=%s want=30s", cfg.TTL)
	}
	if cfg.Prefix != "pricing:cache" || cfg.KeyStrategy != "route_query" {
		t.Fatalf("prefix=%q strategy=%q", cfg.Prefix, cfg.KeyStrategy)
	}
}

func TestLoadCacheConfigOverrides(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "2m")
	cfg := LoadCacheConfig()
	if cfg.Enabled {
		t.Fatal("CACHE_ENABLED=false ignored")
	}
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] {
		t.Fatalf("methods=%v want GET and HEAD", cfg.Methods)
	}
	if cfg.TTL != 2*time.Minute {
		t.Fatalf("ttl=%s want=2m", cfg.TTL)
	}
}

func TestLoadRateLimitConfigClampsTTL(t *testing.T) {
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "30s")
	cfg := LoadRateLimitConfig()
	if cfg.TTL != 5*time.Minute {
		t.Fatalf("ttl=%s want=5m (5x interval)", cfg.TTL)
	}
}

func TestLoadRateLimitConfigAliases(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "120")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "500ms")
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 120 {
		t.Fatalf("capacity=%d want=120", cfg.Capacity)
	}
	if cfg.RefillTokens != 1 || cfg.RefillInterval != 500*time.Millisecond {
		t.Fatalf("refill=%d/%s want=1 per 500ms", cfg.RefillTokens, cfg.RefillInterval)
	}
}
