package exchange

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls atomic.Int32
	value decimal.Decimal
	err   error
	gate  chan struct{}
}

func (s *countingSource) Rate(_ context.Context, from, to string) (Rate, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return Rate{}, s.err
	}
	return Rate{From: from, To: to, Value: s.value, Date: time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC)}, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestCache(src RateSource, ttl time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 6, 17, 9, 0, 0, 0, time.UTC)}
	c := NewCache(src, ttl)
	c.now = clock.Now
	return c, clock
}

func TestCache_Rate(t *testing.T) {
	t.Parallel()

	t.Run("reuses fresh rate", func(t *testing.T) {
		t.Parallel()
		src := &countingSource{value: decimal.RequireFromString("0.92")}
		c, clock := newTestCache(src, time.Hour)

		r1, err := c.Rate(context.Background(), "USD", "EUR")
		require.NoError(t, err)
		clock.Advance(59 * time.Minute)
		r2, err := c.Rate(context.Background(), "usd", "eur")
		require.NoError(t, err)

		require.Equal(t, r1, r2)
		require.Equal(t, int32(1), src.calls.Load())
	})

	t.Run("refreshes after ttl", func(t *testing.T) {
		t.Parallel()
		src := &countingSource{value: decimal.RequireFromString("0.92")}
		c, clock := newTestCache(src, time.Hour)

		_, err := c.Rate(context.Background(), "USD", "EUR")
		require.NoError(t, err)
		clock.Advance(time.Hour)
		_, err = c.Rate(context.Background(), "USD", "EUR")
		require.NoError(t, err)

		require.Equal(t, int32(2), src.calls.Load())
	})

	t.Run("keys by pair", func(t *testing.T) {
		t.Parallel()
		src := &countingSource{value: decimal.RequireFromString("1.35")}
		c, _ := newTestCache(src, time.Hour)

		_, err := c.Rate(context.Background(), "USD", "SGD")
		require.NoError(t, err)
		_, err = c.Rate(context.Background(), "EUR", "SGD")
		require.NoError(t, err)

		require.Equal(t, int32(2), src.calls.Load())
	})

	t.Run("same currency skips source", func(t *testing.T) {
		t.Parallel()
		src := &countingSource{}
		c, _ := newTestCache(src, time.Hour)

		r, err := c.Rate(context.Background(), "USD", "usd")
		require.NoError(t, err)
		require.True(t, r.Value.Equal(decimal.NewFromInt(1)))
		require.Equal(t, int32(0), src.calls.Load())
	})

	t.Run("invalid code", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCache(&countingSource{}, time.Hour)

		_, err := c.Rate(context.Background(), "USD", "EURO")
		require.ErrorIs(t, err, ErrInvalidCurrency)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		t.Parallel()
		src := &countingSource{err: errors.New("boom")}
		c, _ := newTestCache(src, time.Hour)

		_, err := c.Rate(context.Background(), "USD", "EUR")
		require.Error(t, err)
		_, err = c.Rate(context.Background(), "USD", "EUR")
		require.Error(t, err)

		require.Equal(t, int32(2), src.calls.Load())
	})

	t.Run("concurrent misses share one call", func(t *testing.T) {
		t.Parallel()
		src := &countingSource{value: decimal.RequireFromString("0.92"), gate: make(chan struct{})}
		c, _ := newTestCache(src, time.Hour)

		const n = 8
		var wg sync.WaitGroup
		results := make([]Rate, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r, err := c.Rate(context.Background(), "USD", "EUR")
				assert.NoError(t, err)
				results[i] = r
			}()
		}

		require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
		time.Sleep(20 * time.Millisecond)
		close(src.gate)
		wg.Wait()

		require.Equal(t, int32(1), src.calls.Load())
		for _, r := range results {
			require.True(t, r.Value.Equal(decimal.RequireFromString("0.92")))
		}
	})
}

func TestRate_Apply(t *testing.T) {
	t.Parallel()

	r := Rate{Value: decimal.RequireFromString("0.9234")}
	require.Equal(t, "92.34", r.Apply(decimal.NewFromInt(100)).StringFixed(2))
	require.Equal(t, "-11.54", r.Apply(decimal.RequireFromString("-12.50")).StringFixed(2))
	require.True(t, r.Apply(decimal.Zero).IsZero())
}

func TestNormalizeCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "usd", want: "USD"},
		{in: " sgd ", want: "SGD"},
		{in: "", wantErr: true},
		{in: "US", wantErr: true},
		{in: "U$D", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeCode(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCurrency)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
