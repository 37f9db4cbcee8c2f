package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
auth:
  enabled: true
  api_key: secret
fetch:
  user_agent: probe-agent
  timeout_seconds: 45
  max_retries: 5
  backoff_initial_ms: 100
  backoff_max_ms: 500
  max_in_flight: 8
ratelimit:
  strategy: token_bucket
  max_requests: 20
  window_ms: 2000
profiler:
  task_timeout_seconds: 10
  hero_enrich_limit: 3
storage:
  backend: gcs
  gcs_bucket: bucket
  prefix: snaps
cache:
  backend: redis
  redis_url: redis://localhost:6379/0
  ttl_seconds: 60
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Auth.Enabled || cfg.Auth.APIKey != "secret" {
		t.Fatalf("expected auth enabled with secret key")
	}
	if cfg.Fetch.MaxRetries != 5 || cfg.Fetch.MaxInFlight != 8 || cfg.Fetch.UserAgent != "probe-agent" {
		t.Fatalf("expected fetch overrides to apply: %+v", cfg.Fetch)
	}
	if cfg.RateLimit.Strategy != "token_bucket" || cfg.RateWindow() != 2*time.Second {
		t.Fatalf("expected rate limit overrides to apply: %+v", cfg.RateLimit)
	}
	if got := cfg.FetchTimeout(); got != 45*time.Second {
		t.Fatalf("expected fetch timeout 45s, got %v", got)
	}
	if cfg.BackoffBase() != 100*time.Millisecond || cfg.BackoffMax() != 500*time.Millisecond {
		t.Fatalf("unexpected backoff: %v %v", cfg.BackoffBase(), cfg.BackoffMax())
	}
	if cfg.TaskTimeout() != 10*time.Second || cfg.Profiler.HeroEnrichLimit != 3 {
		t.Fatalf("unexpected profiler config: %+v", cfg.Profiler)
	}
	// untouched keys keep their defaults
	if cfg.Profiler.CatalogPageLimit != 250 || cfg.Profiler.ExpectedPlatform != "shopify" {
		t.Fatalf("expected profiler defaults, got %+v", cfg.Profiler)
	}
	if cfg.CacheTTL() != time.Minute || cfg.Logging.Development {
		t.Fatalf("unexpected cache/logging config")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fetch.MaxRetries != 3 || cfg.RateLimit.MaxRequests != 10 || cfg.RateWindow() != time.Second {
		t.Fatalf("unexpected defaults: %+v %+v", cfg.Fetch, cfg.RateLimit)
	}
	if cfg.BackoffBase() != time.Second {
		t.Fatalf("expected 1s backoff base, got %v", cfg.BackoffBase())
	}
	if cfg.Storage.Backend != "none" || cfg.Cache.Backend != "none" {
		t.Fatalf("expected optional backends disabled by default")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("INSIGHTS_FETCH_MAX_RETRIES", "1")
	t.Setenv("INSIGHTS_RATELIMIT_STRATEGY", "none")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fetch.MaxRetries != 1 || cfg.RateLimit.Strategy != "none" {
		t.Fatalf("expected env overrides, got %+v %+v", cfg.Fetch, cfg.RateLimit)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:    ServerConfig{Port: 8080},
		Fetch:     FetchConfig{TimeoutSeconds: 10, MaxInFlight: 1},
		RateLimit: RateLimitConfig{Strategy: "sliding_window", MaxRequests: 10, WindowMs: 1000},
		Profiler:  ProfilerConfig{TaskTimeoutSeconds: 5},
		Storage:   StorageConfig{Backend: "none"},
		Cache:     CacheConfig{Backend: "none"},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected base config to be valid, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 0 }, want: "server.port"},
		{name: "auth missing api key", mutate: func(c *Config) { c.Auth.Enabled = true }, want: "auth.api_key"},
		{name: "invalid timeout", mutate: func(c *Config) { c.Fetch.TimeoutSeconds = 0 }, want: "fetch.timeout_seconds"},
		{name: "negative retries", mutate: func(c *Config) { c.Fetch.MaxRetries = -1 }, want: "fetch.max_retries"},
		{name: "no admission slots", mutate: func(c *Config) { c.Fetch.MaxInFlight = 0 }, want: "fetch.max_in_flight"},
		{
			name:   "backoff inverted",
			mutate: func(c *Config) { c.Fetch.BackoffInitialMs = 10; c.Fetch.BackoffMaxMs = 5 },
			want:   "fetch.backoff_max_ms",
		},
		{name: "unknown strategy", mutate: func(c *Config) { c.RateLimit.Strategy = "leaky" }, want: "ratelimit.strategy"},
		{name: "zero window", mutate: func(c *Config) { c.RateLimit.WindowMs = 0 }, want: "ratelimit.window_ms"},
		{name: "task timeout", mutate: func(c *Config) { c.Profiler.TaskTimeoutSeconds = 0 }, want: "profiler.task_timeout_seconds"},
		{name: "gcs without bucket", mutate: func(c *Config) { c.Storage.Backend = "gcs" }, want: "storage.gcs_bucket"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Backend = "s3" }, want: "storage.backend"},
		{name: "topic without project", mutate: func(c *Config) { c.PubSub.TopicName = "t" }, want: "pubsub.project_id"},
		{name: "redis without url", mutate: func(c *Config) { c.Cache.Backend = "redis" }, want: "cache.redis_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
