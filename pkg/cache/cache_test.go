package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/JaimeStill/factotum/pkg/cache"
	"github.com/JaimeStill/factotum/pkg/lifecycle"
)

func TestConfigDefaults(t *testing.T) {
	cfg := &cache.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if cfg.Prefix != "factotum:" {
		t.Errorf("Prefix = %q, want factotum:", cfg.Prefix)
	}
	if cfg.TTLDuration() != 10*time.Minute {
		t.Errorf("TTL = %v, want 10m", cfg.TTLDuration())
	}
	if cfg.DialTimeoutDuration() != 5*time.Second {
		t.Errorf("DialTimeout = %v, want 5s", cfg.DialTimeoutDuration())
	}
}

func TestConfigEnvOverride(t *testing.T) {
	t.Setenv("TEST_CACHE_ADDR", "redis:6379")
	t.Setenv("TEST_CACHE_DB", "3")

	cfg := &cache.Config{}
	err := cfg.Finalize(&cache.Env{Addr: "TEST_CACHE_ADDR", DB: "TEST_CACHE_DB"})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if cfg.Addr != "redis:6379" {
		t.Errorf("Addr = %q, want redis:6379", cfg.Addr)
	}
	if cfg.DB != 3 {
		t.Errorf("DB = %d, want 3", cfg.DB)
	}
}

func TestConfigInvalidTTL(t *testing.T) {
	cfg := &cache.Config{TTL: "forever"}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("expected error for invalid ttl")
	}
}

func TestNoopCache(t *testing.T) {
	cfg := &cache.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	c := cache.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := c.Start(lifecycle.New()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx := context.Background()
	if err := c.Set(ctx, "puc:tree", []byte("{}")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	_, ok, err := c.Get(ctx, "puc:tree")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("noop cache should always miss")
	}

	if _, err := c.Bump(ctx, "puc:tree:version"); err != nil {
		t.Errorf("Bump: %v", err)
	}
	if v, err := c.Version(ctx, "puc:tree:version"); err != nil || v != 0 {
		t.Errorf("Version = %d, %v; want 0, nil", v, err)
	}
}

func TestUnreachableRedisDegrades(t *testing.T) {
	cfg := &cache.Config{Addr: "127.0.0.1:1", DialTimeout: "200ms"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	lc := lifecycle.New()
	c := cache.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := c.Start(lc); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := lc.WaitForStartup(); err != nil {
		t.Fatalf("an unreachable cache should not block startup: %v", err)
	}
	defer lc.Shutdown(time.Second)

	ctx := context.Background()
	if err := c.Set(ctx, "puc:tree:0", []byte("[]")); err != nil {
		t.Errorf("Set after degrade should not dial redis: %v", err)
	}
	if _, ok, err := c.Get(ctx, "puc:tree:0"); ok || err != nil {
		t.Errorf("Get after degrade = %v, %v; want miss", ok, err)
	}
	if _, err := c.Bump(ctx, "puc:tree:version"); err != nil {
		t.Errorf("Bump after degrade should not dial redis: %v", err)
	}
}
