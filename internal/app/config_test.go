package app

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("OBJECT_STORAGE_MODE", "local")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected an error without JWT_SECRET_KEY")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("OBJECT_STORAGE_MODE", "local")
	t.Setenv("EVENTS_LOCAL_DIR", t.TempDir())
	t.Setenv("PORT", "")
	t.Setenv("LEASE_TIMEOUT", "")
	t.Setenv("VIABLE_SCOPE_BY_PROJECT", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr() != ":8080" {
		t.Fatalf("addr: got=%q", cfg.Addr())
	}
	if cfg.Lease.Timeout != 0 {
		t.Fatalf("lease sweeper must be off by default, got timeout=%s", cfg.Lease.Timeout)
	}
	if cfg.ScopeViableByProject {
		t.Fatalf("viable listing must be unscoped by default")
	}
	if cfg.Auth.AccessTTL != time.Hour {
		t.Fatalf("access ttl: got=%s", cfg.Auth.AccessTTL)
	}
	if cfg.Redis.Channel == "" {
		t.Fatalf("redis channel default missing")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("OBJECT_STORAGE_MODE", "local")
	t.Setenv("EVENTS_LOCAL_DIR", t.TempDir())
	t.Setenv("PORT", ":9000")
	t.Setenv("LEASE_TIMEOUT", "15m")
	t.Setenv("LEASE_SWEEP_INTERVAL", "45")
	t.Setenv("VIABLE_SCOPE_BY_PROJECT", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr() != ":9000" {
		t.Fatalf("addr: got=%q", cfg.Addr())
	}
	if cfg.Lease.Timeout != 15*time.Minute || cfg.Lease.Interval != 45*time.Second {
		t.Fatalf("lease: %+v", cfg.Lease)
	}
	if !cfg.ScopeViableByProject {
		t.Fatalf("expected scoped viable listing")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins: %#v", cfg.CORSOrigins)
	}
}

func TestLoadConfigRejectsUnknownStorageMode(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("OBJECT_STORAGE_MODE", "s3")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected an error for an unknown storage mode")
	}
}
