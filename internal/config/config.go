// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Profiler  ProfilerConfig  `mapstructure:"profiler"`
	DB        DBConfig        `mapstructure:"db"`
	Storage   StorageConfig   `mapstructure:"storage"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// FetchConfig configures the HTTP client and its retry behavior.
type FetchConfig struct {
	UserAgent        string `mapstructure:"user_agent"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxRetries       int    `mapstructure:"max_retries"`
	BackoffInitialMs int    `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int    `mapstructure:"backoff_max_ms"`
	MaxInFlight      int    `mapstructure:"max_in_flight"`
	MaxBodyBytes     int    `mapstructure:"max_body_bytes"`
	RespectRobots    bool   `mapstructure:"respect_robots"`
}

// RateLimitConfig bounds the request rate of a single client.
type RateLimitConfig struct {
	Strategy    string `mapstructure:"strategy"`
	MaxRequests int    `mapstructure:"max_requests"`
	WindowMs    int    `mapstructure:"window_ms"`
}

// ProfilerConfig tunes the orchestrator.
type ProfilerConfig struct {
	TaskTimeoutSeconds int    `mapstructure:"task_timeout_seconds"`
	ExpectedPlatform   string `mapstructure:"expected_platform"`
	HeroEnrichLimit    int    `mapstructure:"hero_enrich_limit"`
	CatalogPageLimit   int    `mapstructure:"catalog_page_limit"`
	CatalogMaxPages    int    `mapstructure:"catalog_max_pages"`
	Parallel           int    `mapstructure:"parallel"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// StorageConfig selects where profile snapshots are archived.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	LocalDir  string `mapstructure:"local_dir"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// CacheConfig selects the profile cache backend.
type CacheConfig struct {
	Backend    string `mapstructure:"backend"`
	RedisURL   string `mapstructure:"redis_url"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INSIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 120)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; storefront-insights/0.1)")
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.backoff_initial_ms", 1000)
	v.SetDefault("fetch.backoff_max_ms", 8000)
	v.SetDefault("fetch.max_in_flight", 5)
	v.SetDefault("fetch.max_body_bytes", 0)
	v.SetDefault("fetch.respect_robots", false)
	v.SetDefault("ratelimit.strategy", "sliding_window")
	v.SetDefault("ratelimit.max_requests", 10)
	v.SetDefault("ratelimit.window_ms", 1000)
	v.SetDefault("profiler.task_timeout_seconds", 60)
	v.SetDefault("profiler.expected_platform", "shopify")
	v.SetDefault("profiler.hero_enrich_limit", 0)
	v.SetDefault("profiler.catalog_page_limit", 250)
	v.SetDefault("profiler.catalog_max_pages", 1)
	v.SetDefault("profiler.parallel", 2)
	v.SetDefault("db.max_open_conns", 4)
	v.SetDefault("storage.backend", "none")
	v.SetDefault("storage.local_dir", "snapshots")
	v.SetDefault("storage.prefix", "profiles")
	v.SetDefault("cache.backend", "none")
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must be >= 0")
	}
	if c.Fetch.MaxInFlight <= 0 {
		return fmt.Errorf("fetch.max_in_flight must be > 0")
	}
	if c.Fetch.BackoffMaxMs < c.Fetch.BackoffInitialMs {
		return fmt.Errorf("fetch.backoff_max_ms must be >= fetch.backoff_initial_ms")
	}
	switch c.RateLimit.Strategy {
	case "sliding_window", "token_bucket", "none":
	default:
		return fmt.Errorf("ratelimit.strategy %q is not supported", c.RateLimit.Strategy)
	}
	if c.RateLimit.Strategy != "none" && (c.RateLimit.MaxRequests <= 0 || c.RateLimit.WindowMs <= 0) {
		return fmt.Errorf("ratelimit.max_requests and ratelimit.window_ms must be > 0")
	}
	if c.Profiler.TaskTimeoutSeconds <= 0 {
		return fmt.Errorf("profiler.task_timeout_seconds must be > 0")
	}
	switch c.Storage.Backend {
	case "none", "memory", "local":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set when storage.backend is gcs")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	switch c.Cache.Backend {
	case "none", "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url must be set when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend)
	}
	return nil
}

// FetchTimeout is the per-request timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// BackoffBase is the delay before the first retry.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.Fetch.BackoffInitialMs) * time.Millisecond
}

// BackoffMax caps the retry delay.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.Fetch.BackoffMaxMs) * time.Millisecond
}

// RateWindow is the rolling window the request cap applies to.
func (c Config) RateWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowMs) * time.Millisecond
}

// TaskTimeout bounds each orchestrator task.
func (c Config) TaskTimeout() time.Duration {
	return time.Duration(c.Profiler.TaskTimeoutSeconds) * time.Second
}

// CacheTTL is how long cached profiles stay fresh.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// RequestTimeout bounds a single API request.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}
