package redis

import (
	"testing"
	"time"

	"promo-script-ai-api/internal/config"
)

func TestOptions(t *testing.T) {
	opts := options(&config.RedisConfig{
		Host:        "::1",
		Port:        6380,
		DB:          2,
		PoolSize:    7,
		DialTimeout: time.Second,
	})
	if opts.Addr != "[::1]:6380" || opts.DB != 2 || opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestClientKeyPrefix(t *testing.T) {
	c := &Client{prefix: "promo:"}
	if got := c.key("footage:abc"); got != "promo:footage:abc" {
		t.Fatalf("key=%q", got)
	}
	if got := (&Client{}).key("x"); got != "x" {
		t.Fatalf("empty prefix key=%q", got)
	}
}

func TestCacheKind(t *testing.T) {
	cases := map[string]string{
		"footage:abc":   "footage",
		"voiceover:v:1": "voiceover",
		"plain":         "other",
		":leading":      "other",
	}
	for key, want := range cases {
		if got := cacheKind(key); got != want {
			t.Errorf("cacheKind(%q)=%q, want %q", key, got, want)
		}
	}
}

func TestBuildRateLimitKey(t *testing.T) {
	if got := BuildRateLimitKey("10.0.0.1", "/v1/scripts/generate"); got != "ratelimit:10.0.0.1:/v1/scripts/generate" {
		t.Fatalf("key=%q", got)
	}
}
