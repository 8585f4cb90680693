package redis

import (
	"testing"

	"github.com/yasboss/storefront-backend/pkg/config"
)

func TestKeyBuilding(t *testing.T) {
	c := &Client{}
	if got := c.IdempotencyKey("payments", "pay_123"); got != "yb:idempotency:payments:pay_123" {
		t.Fatalf("unexpected idempotency key %q", got)
	}
	if got := c.CacheKey("settings", "TAX_PERCENT"); got != "yb:cache:settings:TAX_PERCENT" {
		t.Fatalf("unexpected cache key %q", got)
	}
	if got := c.LockKey("cron"); got != "yb:lock:cron" {
		t.Fatalf("unexpected lock key %q", got)
	}
	// blank segments collapse instead of producing "a::b"
	if got := c.CacheKey("", "x"); got != "yb:cache:x" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when neither url nor address set")
	}
}

func TestOptionsFromConfigParsesURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:pw@localhost:6380/2", PoolSize: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
	if opts.DB != 2 {
		t.Fatalf("unexpected db %d", opts.DB)
	}
	if opts.PoolSize != 7 {
		t.Fatalf("pool size fallback not applied: %d", opts.PoolSize)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	c := &Client{}
	if _, err := c.Get(t.Context(), "k"); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if err := c.Set(t.Context(), "k", "v", 0); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
}
