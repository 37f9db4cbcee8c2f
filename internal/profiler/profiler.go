// Package profiler builds a BrandProfile for a storefront by fanning out independent extraction
// tasks over the home page and a handful of secondary pages.
package profiler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/storefront-insights/internal/catalog"
	"github.com/JakeFAU/storefront-insights/internal/clock/system"
	"github.com/JakeFAU/storefront-insights/internal/extract"
	"github.com/JakeFAU/storefront-insights/internal/fetch"
	"github.com/JakeFAU/storefront-insights/internal/logging"
	"github.com/JakeFAU/storefront-insights/internal/metrics"
	"github.com/JakeFAU/storefront-insights/internal/platform"
	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

// ErrNotFound means the home page could not be fetched, so no profile exists.
var ErrNotFound = errors.New("website not found or not accessible")

// Config tunes a Profiler.
type Config struct {
	TaskTimeout      time.Duration
	ExpectedPlatform string
	HeroEnrichLimit  int
	CatalogPageLimit int
	CatalogMaxPages  int
}

// Profiler orchestrates a single profile run per call. It is safe for concurrent use; all calls
// share the fetcher's limiter and admission gate.
type Profiler struct {
	fetcher fetch.Fetcher
	catalog *catalog.Client
	clock   storefront.Clock
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Profiler. A nil clock uses the system clock.
func New(fetcher fetch.Fetcher, clock storefront.Clock, cfg Config, logger *zap.Logger) *Profiler {
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = time.Minute
	}
	if clock == nil {
		clock = system.New()
	}
	logger = logging.OrNop(logger)
	return &Profiler{
		fetcher: fetcher,
		catalog: catalog.NewClient(fetcher, cfg.CatalogPageLimit, cfg.CatalogMaxPages, logger),
		clock:   clock,
		cfg:     cfg,
		logger:  logger.Named("profiler"),
	}
}

// run carries the per-call state shared by tasks. Tasks only read it, apart from the single
// profile field each of them owns.
type run struct {
	home    *extract.Page
	origin  string
	profile *storefront.BrandProfile
}

// Profile fetches rawURL and assembles its BrandProfile. It fails only when the home page is
// unreachable, returning an error wrapping ErrNotFound; every other failure leaves the affected
// field at its default.
func (p *Profiler) Profile(ctx context.Context, rawURL string) (*storefront.BrandProfile, error) {
	start := time.Now()
	r, err := p.start(ctx, rawURL)
	if err != nil {
		metrics.ObserveProfile("not_found", time.Since(start))
		p.logger.Info("home page unavailable", zap.String("url", rawURL), zap.Error(err))
		return nil, err
	}

	tasks := []struct {
		name string
		fn   func(context.Context, *run) error
	}{
		{"catalog", p.catalogTask},
		{"hero", p.heroTask},
		{"policies", p.policiesTask},
		{"faqs", p.faqTask},
		{"socials_contacts", p.socialsTask},
		{"about", p.aboutTask},
		{"important_links", p.linksTask},
		{"reviews", p.reviewsTask},
	}

	// No shared cancellation: a failing task never stops its siblings.
	var (
		g      errgroup.Group
		failed atomic.Int32
	)
	for _, task := range tasks {
		g.Go(func() error {
			if err := p.runTask(ctx, task.name, func(taskCtx context.Context) error {
				return task.fn(taskCtx, r)
			}); err != nil {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	r.profile.Timestamp = p.clock.Now()
	status := "ok"
	if failed.Load() > 0 {
		status = "degraded"
	}
	metrics.ObserveProfile(status, time.Since(start))
	p.logger.Info("profile complete",
		zap.String("domain", r.profile.Domain),
		zap.String("platform", string(r.profile.Platform)),
		zap.Int("products", len(r.profile.ProductCatalog)),
		zap.Int("policies", len(r.profile.Policies)),
		zap.Int("socials", r.profile.Socials.Found()),
		zap.Int32("failed_tasks", failed.Load()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return r.profile, nil
}

func (p *Profiler) start(ctx context.Context, rawURL string) (*run, error) {
	target, err := fetch.NormalizeURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	resp, err := p.fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrNotFound, target, resp.StatusCode)
	}

	pageURL := target
	if resp.URL != "" {
		pageURL = resp.URL
	}
	home, err := extract.Parse(pageURL, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	origin, err := fetch.Origin(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	domain := fetch.Domain(target)
	profile := storefront.NewBrandProfile(domain)
	profile.Platform = platform.Detect(resp.Body, resp.Headers)
	if !platform.Matches(profile.Platform, p.cfg.ExpectedPlatform) {
		p.logger.Warn("unexpected storefront platform",
			zap.String("url", target),
			zap.String("expected", p.cfg.ExpectedPlatform),
			zap.String("detected", string(profile.Platform)),
		)
	}
	profile.Brand = extract.BrandName(home, domain)
	return &run{home: home, origin: origin, profile: profile}, nil
}

// runTask applies the task timeout and converts panics into task failures.
func (p *Profiler) runTask(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	taskCtx, cancel := context.WithTimeout(ctx, p.cfg.TaskTimeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task %s panicked: %v", name, rec)
		}
		if err != nil {
			metrics.ObserveTask(name, "failed")
			p.logger.Warn("task degraded", zap.String("task", name), zap.Error(err))
			return
		}
		metrics.ObserveTask(name, "ok")
	}()
	return fn(taskCtx)
}

// guard adapts fn for an errgroup inside a task. A panic in fn is logged and leaves
// only that step's result unset; the task and its siblings carry on.
func (p *Profiler) guard(step string, fn func()) func() error {
	return func() error {
		defer func() {
			if rec := recover(); rec != nil {
				p.logger.Warn("task step panicked", zap.String("step", step), zap.Any("panic", rec))
			}
		}()
		fn()
		return nil
	}
}

// page fetches a secondary page. Non-2xx statuses are reported as errors.
func (p *Profiler) page(ctx context.Context, rawURL string) (*extract.Page, error) {
	resp, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	pageURL := rawURL
	if resp.URL != "" {
		pageURL = resp.URL
	}
	return extract.Parse(pageURL, resp.Body)
}
