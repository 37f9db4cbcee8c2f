// Package fetch implements the rate-limited, retrying HTTP client used for every storefront probe.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/JakeFAU/storefront-insights/internal/logging"
	"github.com/JakeFAU/storefront-insights/internal/metrics"
	"github.com/JakeFAU/storefront-insights/internal/policy/ratelimit"
)

var (
	// ErrUnavailable marks a URL that could not be fetched after all retries.
	ErrUnavailable = errors.New("resource unavailable")
	// ErrBodyTooLarge is returned instead of a truncated body when MaxBodyBytes is exceeded.
	ErrBodyTooLarge = errors.New("response body exceeds limit")
)

// Response is a completed HTTP exchange. Non-2xx statuses are returned as responses, not errors.
type Response struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// OK reports whether the status is 2xx.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher is the contract the profiler depends on.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Response, error)
}

// Config controls collector behavior.
type Config struct {
	UserAgent     string
	RespectRobots bool
	Timeout       time.Duration
	MaxRetries    int
	BackoffBase   time.Duration
	BackoffMax    time.Duration
	MaxInFlight   int
	MaxBodyBytes  int // 0 means unlimited
	Headers       http.Header
}

// Option customizes a Client.
type Option func(*Client)

// WithLimiter sets the limiter consulted before every request. Budgets are kept per host.
func WithLimiter(limiter ratelimit.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(logger).Named("fetch")
	}
}

// WithTransport replaces the pooled HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// Client fetches pages through a Colly collector. The limiter and the admission gate are keyed by
// host, so every profile run gets its own budget even when runs share one Client.
type Client struct {
	cfg           Config
	transport     http.RoundTripper
	baseCollector *colly.Collector
	limiter       ratelimit.Limiter
	gatesMu       sync.Mutex
	gates         map[string]*semaphore.Weighted
	retry         *RetryPolicy
	pauser        pauser
	logger        *zap.Logger
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 5
	}
	c := &Client{
		cfg:       cfg,
		transport: newHTTPTransport(),
		limiter:   ratelimit.Unlimited{},
		gates:     make(map[string]*semaphore.Weighted),
		retry:     NewRetryPolicy(cfg.MaxRetries, cfg.BackoffBase, cfg.BackoffMax),
		pauser:    timerPauser{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if cfg.RespectRobots {
		c.transport = newRobotsTransport(c.transport, c.logger)
	}

	collector := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.MaxBodySize(collyBodyLimit(cfg.MaxBodyBytes)),
	)
	collector.IgnoreRobotsTxt = !cfg.RespectRobots
	if cfg.UserAgent != "" {
		collector.UserAgent = cfg.UserAgent
	}
	// Clones share the backend, so the timeout and transport are set once here.
	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(c.transport)
	c.baseCollector = collector
	return c
}

// Fetch GETs rawURL. Transport failures and 5xx responses are retried with exponential backoff;
// 4xx responses are returned immediately. When every attempt fails the error wraps ErrUnavailable.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Response, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := c.attempt(ctx, rawURL)
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}
		if err == nil {
			err = fmt.Errorf("server error: status %d", resp.StatusCode)
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, fmt.Errorf("fetch %s canceled: %w", rawURL, ctxErr)
		}
		if !c.retry.ShouldRetry(err, attempt) {
			break
		}
		delay := c.retry.Backoff(attempt)
		c.logger.Debug("retrying fetch",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		metrics.ObserveRetry(rawURL)
		c.pauser.Pause(ctx, delay)
	}
	return Response{}, fmt.Errorf("%w: %s: %w", ErrUnavailable, rawURL, lastErr)
}

// attempt performs a single request behind the admission gate and the rate limiter.
func (c *Client) attempt(ctx context.Context, rawURL string) (Response, error) {
	gate := c.gate(rawURL)
	if err := gate.Acquire(ctx, 1); err != nil {
		return Response{}, fmt.Errorf("acquire fetch slot: %w", err)
	}
	defer gate.Release(1)

	if err := c.limiter.Wait(ctx, rawURL); err != nil {
		return Response{}, err
	}

	var (
		result   Response
		fetchErr error
	)
	start := time.Now()
	collector := c.buildCollector(start, &result, &fetchErr)
	if err := c.runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		metrics.ObserveFetch(rawURL, "error", 0)
		return Response{}, err
	}
	metrics.ObserveFetch(rawURL, metrics.StatusClass(result.StatusCode), len(result.Body))
	return result, nil
}

// gate returns the admission semaphore of rawURL's host.
func (c *Client) gate(rawURL string) *semaphore.Weighted {
	host := ratelimit.HostKey(rawURL)
	c.gatesMu.Lock()
	defer c.gatesMu.Unlock()
	g, ok := c.gates[host]
	if !ok {
		g = semaphore.NewWeighted(int64(c.cfg.MaxInFlight))
		c.gates[host] = g
	}
	return g
}

func (c *Client) buildCollector(start time.Time, result *Response, fetchErr *error) *colly.Collector {
	collector := c.baseCollector.Clone()
	c.configureCollectorHooks(collector, start, result, fetchErr)
	return collector
}

func (c *Client) configureCollectorHooks(
	hooks collectorHooks,
	start time.Time,
	result *Response,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		c.copyHeaders(r)
	})

	hooks.OnResponse(func(r *colly.Response) {
		if limit := c.cfg.MaxBodyBytes; limit > 0 && len(r.Body) > limit {
			*fetchErr = fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
			return
		}
		headers := http.Header{}
		if r.Headers != nil {
			headers = r.Headers.Clone()
		}
		*result = Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    headers,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
}

func (c *Client) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func (c *Client) copyHeaders(r *colly.Request) {
	for key, values := range c.cfg.Headers {
		for _, v := range values {
			r.Headers.Add(key, v)
		}
	}
}

// collyBodyLimit reads one byte past the configured limit so an oversized body can be told apart
// from one that fits exactly.
func collyBodyLimit(maxBodyBytes int) int {
	if maxBodyBytes <= 0 {
		return 0
	}
	return maxBodyBytes + 1
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}
}
