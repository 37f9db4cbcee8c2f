// Package ratelimit bounds how many requests a client may start within a rolling window.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/storefront-insights/internal/metrics"
)

// Strategy names a limiter implementation.
type Strategy string

// Supported strategies.
const (
	StrategySlidingWindow Strategy = "sliding_window"
	StrategyTokenBucket   Strategy = "token_bucket"
	StrategyNone          Strategy = "none"
)

// Limiter blocks until a request to rawURL may start.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// window is the budget of a single host.
type window interface {
	Wait(ctx context.Context) error
}

// Config holds rate limiter configuration. MaxRequests per Window applies to each host separately.
type Config struct {
	Strategy    Strategy
	MaxRequests int
	Window      time.Duration
}

// New builds the limiter selected by cfg.Strategy.
func New(cfg Config) (Limiter, error) {
	switch cfg.Strategy {
	case StrategySlidingWindow, "":
		return newPerHost(func() window { return NewSlidingWindow(cfg.MaxRequests, cfg.Window) }), nil
	case StrategyTokenBucket:
		return newPerHost(func() window { return NewTokenBucket(cfg.MaxRequests, cfg.Window) }), nil
	case StrategyNone:
		return Unlimited{}, nil
	default:
		return nil, fmt.Errorf("unknown rate limit strategy %q", cfg.Strategy)
	}
}

// PerHost keeps one window per host, created on first use, so storefronts never share a budget.
type PerHost struct {
	mu        sync.Mutex
	windows   map[string]window
	newWindow func() window
}

// newPerHost creates a PerHost limiter whose windows come from newWindow.
func newPerHost(newWindow func() window) *PerHost {
	return &PerHost{windows: make(map[string]window), newWindow: newWindow}
}

// Wait blocks until the host of rawURL has room in its window.
func (l *PerHost) Wait(ctx context.Context, rawURL string) error {
	host := HostKey(rawURL)
	l.mu.Lock()
	w, ok := l.windows[host]
	if !ok {
		w = l.newWindow()
		l.windows[host] = w
	}
	l.mu.Unlock()
	return w.Wait(ctx)
}

// Hosts reports how many hosts currently hold a window.
func (l *PerHost) Hosts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// HostKey returns the lowercased host[:port] of rawURL, or "unknown".
func HostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return strings.ToLower(u.Host)
}

// TokenBucket approximates N-per-window with a token bucket of rate N/W and burst N.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a TokenBucket. Non-positive inputs disable limiting.
func NewTokenBucket(maxRequests int, window time.Duration) *TokenBucket {
	if maxRequests <= 0 || window <= 0 {
		return &TokenBucket{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	every := window / time.Duration(maxRequests)
	return &TokenBucket{limiter: rate.NewLimiter(rate.Every(every), maxRequests)}
}

// Wait blocks until a token is available, respecting the context.
func (t *TokenBucket) Wait(ctx context.Context) error {
	start := time.Now()
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(waited)
	}
	return nil
}

// Unlimited never blocks.
type Unlimited struct{}

// Wait returns immediately unless ctx is already done.
func (Unlimited) Wait(ctx context.Context, _ string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
