// Package app builds the long-lived services shared by the CLI commands and the HTTP server.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/storefront-insights/internal/api"
	"github.com/JakeFAU/storefront-insights/internal/archive"
	memoryCache "github.com/JakeFAU/storefront-insights/internal/cache/memory"
	redisCache "github.com/JakeFAU/storefront-insights/internal/cache/redis"
	"github.com/JakeFAU/storefront-insights/internal/clock/system"
	"github.com/JakeFAU/storefront-insights/internal/config"
	"github.com/JakeFAU/storefront-insights/internal/fetch"
	"github.com/JakeFAU/storefront-insights/internal/hash/sha256"
	"github.com/JakeFAU/storefront-insights/internal/logging"
	"github.com/JakeFAU/storefront-insights/internal/policy/ratelimit"
	"github.com/JakeFAU/storefront-insights/internal/profiler"
	gcppublisher "github.com/JakeFAU/storefront-insights/internal/publisher/pubsub"
	gcsstorage "github.com/JakeFAU/storefront-insights/internal/storage/gcs"
	localstorage "github.com/JakeFAU/storefront-insights/internal/storage/local"
	memoryStorage "github.com/JakeFAU/storefront-insights/internal/storage/memory"
	pgstore "github.com/JakeFAU/storefront-insights/internal/storage/postgres"
	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

// App holds the services built from one Config.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	profiler *profiler.Profiler
	brands   *pgstore.BrandStore
	cache    storefront.ProfileCache
	redis    *redisCache.Cache
	gcs      *gcsstorage.BlobStore
	pubsub   *gcppublisher.Publisher
	archiver *archive.Archiver
}

// Build wires every service cfg enables. Optional backends that are switched off stay nil.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logging.OrNop(logger)}
	a.logger.Info("building application",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("database", cfg.DB.DSN != ""),
	)

	var err error
	if a.profiler, err = a.setupProfiler(); err != nil {
		return nil, err
	}
	if err = a.setupDatabase(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err = a.setupCache(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err = a.setupArchive(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) setupProfiler() (*profiler.Profiler, error) {
	limiter, err := ratelimit.New(ratelimit.Config{
		Strategy:    ratelimit.Strategy(a.cfg.RateLimit.Strategy),
		MaxRequests: a.cfg.RateLimit.MaxRequests,
		Window:      a.cfg.RateWindow(),
	})
	if err != nil {
		return nil, fmt.Errorf("rate limiter init failed: %w", err)
	}
	client := fetch.New(fetch.Config{
		UserAgent:     a.cfg.Fetch.UserAgent,
		RespectRobots: a.cfg.Fetch.RespectRobots,
		Timeout:       a.cfg.FetchTimeout(),
		MaxRetries:    a.cfg.Fetch.MaxRetries,
		BackoffBase:   a.cfg.BackoffBase(),
		BackoffMax:    a.cfg.BackoffMax(),
		MaxInFlight:   a.cfg.Fetch.MaxInFlight,
		MaxBodyBytes:  a.cfg.Fetch.MaxBodyBytes,
	}, fetch.WithLimiter(limiter), fetch.WithLogger(a.logger))
	a.logger.Debug("fetch client ready",
		zap.String("rate_strategy", a.cfg.RateLimit.Strategy),
		zap.Int("max_requests", a.cfg.RateLimit.MaxRequests),
		zap.Duration("window", a.cfg.RateWindow()),
		zap.Int("max_in_flight", a.cfg.Fetch.MaxInFlight),
	)
	return profiler.New(client, system.New(), profiler.Config{
		TaskTimeout:      a.cfg.TaskTimeout(),
		ExpectedPlatform: a.cfg.Profiler.ExpectedPlatform,
		HeroEnrichLimit:  a.cfg.Profiler.HeroEnrichLimit,
		CatalogPageLimit: a.cfg.Profiler.CatalogPageLimit,
		CatalogMaxPages:  a.cfg.Profiler.CatalogMaxPages,
	}, a.logger), nil
}

func (a *App) setupDatabase(ctx context.Context) error {
	if a.cfg.DB.DSN == "" {
		a.logger.Warn("no database DSN configured, brand persistence disabled")
		return nil
	}
	store, err := pgstore.NewBrandStore(ctx, pgstore.Config{
		DSN:      a.cfg.DB.DSN,
		MaxConns: int32(a.cfg.DB.MaxOpenConns),
	})
	if err != nil {
		return fmt.Errorf("brand store init failed: %w", err)
	}
	a.brands = store
	a.logger.Info("brand store initialized")
	return nil
}

func (a *App) setupCache(ctx context.Context) error {
	switch a.cfg.Cache.Backend {
	case "redis":
		c, err := redisCache.New(ctx, a.cfg.Cache.RedisURL)
		if err != nil {
			return fmt.Errorf("redis cache init failed: %w", err)
		}
		a.redis = c
		a.cache = c
		a.logger.Info("using redis profile cache", zap.Duration("ttl", a.cfg.CacheTTL()))
	case "memory":
		a.cache = memoryCache.New()
		a.logger.Info("using in-memory profile cache", zap.Duration("ttl", a.cfg.CacheTTL()))
	default:
		a.logger.Info("profile cache disabled")
	}
	return nil
}

func (a *App) setupArchive(ctx context.Context) error {
	var blobs storefront.BlobStore
	switch a.cfg.Storage.Backend {
	case "gcs":
		store, err := gcsstorage.Dial(ctx, gcsstorage.Config{Bucket: a.cfg.Storage.GCSBucket})
		if err != nil {
			return fmt.Errorf("gcs blob store init failed: %w", err)
		}
		a.gcs = store
		blobs = store
		a.logger.Info("using GCS snapshot storage", zap.String("bucket", a.cfg.Storage.GCSBucket))
	case "local":
		store, err := localstorage.New(localstorage.Config{BaseDir: a.cfg.Storage.LocalDir})
		if err != nil {
			return fmt.Errorf("local blob store init failed: %w", err)
		}
		blobs = store
		a.logger.Info("using local snapshot storage", zap.String("path", a.cfg.Storage.LocalDir))
	case "memory":
		blobs = memoryStorage.NewBlobStore()
		a.logger.Info("using in-memory snapshot storage")
	default:
		a.logger.Info("snapshot archiving disabled")
		return nil
	}

	var publisher storefront.Publisher
	if a.cfg.PubSub.TopicName != "" {
		p, err := gcppublisher.Dial(ctx, a.cfg.PubSub.ProjectID, a.cfg.PubSub.TopicName)
		if err != nil {
			return fmt.Errorf("pubsub publisher init failed: %w", err)
		}
		a.pubsub = p
		publisher = p
		a.logger.Info("Pub/Sub publisher initialized",
			zap.String("project", a.cfg.PubSub.ProjectID),
			zap.String("topic", a.cfg.PubSub.TopicName),
		)
	}

	a.archiver = archive.New(blobs, publisher, sha256.New(), system.New(), archive.Config{
		Prefix: a.cfg.Storage.Prefix,
		Topic:  a.cfg.PubSub.TopicName,
	}, a.logger)
	return nil
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config {
	return a.cfg
}

// Profiler returns the shared profiler.
func (a *App) Profiler() *profiler.Profiler {
	return a.profiler
}

// Brands returns the Postgres brand store, or nil when no DSN is configured.
func (a *App) Brands() *pgstore.BrandStore {
	return a.brands
}

// Archiver returns the snapshot archiver, or nil when archiving is disabled.
func (a *App) Archiver() *archive.Archiver {
	return a.archiver
}

// APIServer assembles the HTTP API over the built services.
func (a *App) APIServer() *api.Server {
	deps := api.Deps{
		Profiler: a.profiler,
		Cache:    a.cache,
		Checks:   map[string]api.Pinger{},
	}
	// Typed nils must not leak into the interface fields.
	if a.brands != nil {
		deps.Brands = a.brands
		deps.Checks["database"] = a.brands
	}
	if a.redis != nil {
		deps.Checks["cache"] = a.redis
	}
	if a.archiver != nil {
		deps.Archiver = a.archiver
	}
	return api.NewServer(deps, a.cfg, a.logger)
}

// Close releases every client the App opened.
func (a *App) Close() {
	if a.pubsub != nil {
		if err := a.pubsub.Close(); err != nil {
			a.logger.Warn("pubsub publisher close failed", zap.Error(err))
		}
	}
	if a.gcs != nil {
		if err := a.gcs.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis client close failed", zap.Error(err))
		}
	}
	if a.brands != nil {
		a.brands.Close()
	}
}
