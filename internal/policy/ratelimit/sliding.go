package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JakeFAU/storefront-insights/internal/metrics"
)

// SlidingWindow admits at most max requests in any rolling window.
// Timestamps are pruned and appended under the mutex; callers sleep without holding it.
type SlidingWindow struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	stamps []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSlidingWindow creates a SlidingWindow. Non-positive inputs disable limiting.
func NewSlidingWindow(maxRequests int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		max:    maxRequests,
		window: window,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Wait blocks until the request fits in the window or ctx is done.
func (l *SlidingWindow) Wait(ctx context.Context) error {
	if l.max <= 0 || l.window <= 0 {
		return nil
	}
	start := l.now()
	for {
		wait, ok := l.tryAcquire()
		if ok {
			if waited := l.now().Sub(start); waited > time.Millisecond {
				metrics.ObserveRateLimitDelay(waited)
			}
			return nil
		}
		if err := l.sleep(ctx, wait); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
}

// tryAcquire records a slot if one is free, otherwise reports how long until the oldest entry expires.
func (l *SlidingWindow) tryAcquire() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	expired := 0
	for expired < len(l.stamps) && now.Sub(l.stamps[expired]) >= l.window {
		expired++
	}
	l.stamps = l.stamps[expired:]

	if len(l.stamps) < l.max {
		l.stamps = append(l.stamps, now)
		return 0, true
	}
	return l.stamps[0].Add(l.window).Sub(now), false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
