package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

func newFakeWindow(maxRequests int, window time.Duration) (*SlidingWindow, *fakeClock) {
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	l := NewSlidingWindow(maxRequests, window)
	l.now = clk.Now
	l.sleep = clk.Sleep
	return l, clk
}

func TestSlidingWindowNeverExceedsCap(t *testing.T) {
	t.Parallel()

	l, clk := newFakeWindow(10, time.Second)
	ctx := context.Background()
	start := clk.Now()

	grants := make([]time.Time, 0, 15)
	for i := 0; i < 15; i++ {
		require.NoError(t, l.Wait(ctx))
		grants = append(grants, clk.Now())
	}

	for i, g := range grants {
		inWindow := 0
		for _, other := range grants[i:] {
			if other.Sub(g) < time.Second {
				inWindow++
			}
		}
		require.LessOrEqual(t, inWindow, 10, "grant %d", i)
	}
	require.GreaterOrEqual(t, grants[len(grants)-1].Sub(start), time.Second)
	require.Equal(t, start, grants[9])
	require.Equal(t, start.Add(time.Second), grants[10])
}

func TestSlidingWindowContextCanceled(t *testing.T) {
	t.Parallel()

	l := NewSlidingWindow(1, time.Hour)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSlidingWindowConcurrentRealTime(t *testing.T) {
	t.Parallel()

	l := NewSlidingWindow(5, 150*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Wait(ctx))
		}()
	}
	wg.Wait()

	// 12 requests at 5 per window need three windows: the last two start no earlier than 2*W.
	require.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}

func TestTokenBucketDelays(t *testing.T) {
	t.Parallel()

	l := NewTokenBucket(1, 100*time.Millisecond)
	ctx := context.Background()
	require.NoError(t, l.Wait(ctx))

	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestNewByStrategy(t *testing.T) {
	t.Parallel()

	l, err := New(Config{Strategy: StrategySlidingWindow, MaxRequests: 1, Window: time.Second})
	require.NoError(t, err)
	require.IsType(t, &PerHost{}, l)
	require.NoError(t, l.Wait(context.Background(), "https://a.example/"))
	require.IsType(t, &SlidingWindow{}, l.(*PerHost).windows["a.example"])

	l, err = New(Config{Strategy: StrategyTokenBucket, MaxRequests: 1, Window: time.Second})
	require.NoError(t, err)
	require.NoError(t, l.Wait(context.Background(), "https://a.example/"))
	require.IsType(t, &TokenBucket{}, l.(*PerHost).windows["a.example"])

	l, err = New(Config{Strategy: StrategyNone})
	require.NoError(t, err)
	require.NoError(t, l.Wait(context.Background(), "https://a.example/"))

	_, err = New(Config{Strategy: "leaky"})
	require.Error(t, err)
}

func TestPerHostBudgetsAreIndependent(t *testing.T) {
	t.Parallel()

	l, err := New(Config{Strategy: StrategySlidingWindow, MaxRequests: 1, Window: time.Hour})
	require.NoError(t, err)

	require.NoError(t, l.Wait(context.Background(), "https://a.example/products.json"))

	// A second storefront is not held back by the first one's exhausted window.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, l.Wait(ctx, "https://B.example/pages/faq"))

	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, l.Wait(ctx, "https://a.example/pages/about"), context.DeadlineExceeded)
	require.Equal(t, 2, l.(*PerHost).Hosts())
}

func TestHostKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, "shop.example", HostKey("https://Shop.Example/a?b=c"))
	require.Equal(t, "127.0.0.1:8080", HostKey("http://127.0.0.1:8080/"))
	require.Equal(t, "unknown", HostKey("::not a url"))
}
