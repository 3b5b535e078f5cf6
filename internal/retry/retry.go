package retry

import (
	"context"
	"math/rand"
	"time"
)

const (
	defaultInitialInterval = 1 * time.Second
	defaultMaxInterval     = 30 * time.Second
	defaultMultiplier      = 2.0
	defaultMaxRetries      = 3
	defaultJitter          = 0.1
)

// Policy decides how a single cycle's operation is attempted.
type Policy interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Skip makes exactly one attempt. A failure leaves the cycle empty.
type Skip struct{}

// Do runs fn once.
func (Skip) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Backoff retries with exponential backoff and jitter, bounded by maxRetries.
type Backoff struct {
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
	maxRetries      int
	jitter          float64
	sleep           func(ctx context.Context, d time.Duration) error
}

// Option configures a Backoff.
type Option func(*Backoff)

// WithInitialInterval sets the first wait between attempts.
func WithInitialInterval(d time.Duration) Option {
	return func(b *Backoff) {
		if d >= 0 {
			b.initialInterval = d
		}
	}
}

// WithMaxInterval caps the wait between attempts.
func WithMaxInterval(d time.Duration) Option {
	return func(b *Backoff) {
		if d > 0 {
			b.maxInterval = d
		}
	}
}

// WithMultiplier sets the backoff growth factor.
func WithMultiplier(m float64) Option {
	return func(b *Backoff) {
		if m >= 1 {
			b.multiplier = m
		}
	}
}

// WithMaxRetries sets how many extra attempts follow the first one.
func WithMaxRetries(n int) Option {
	return func(b *Backoff) {
		if n >= 0 {
			b.maxRetries = n
		}
	}
}

// WithJitter sets the jitter factor (0.0 to 1.0).
func WithJitter(j float64) Option {
	return func(b *Backoff) {
		if j >= 0 && j <= 1 {
			b.jitter = j
		}
	}
}

// WithSleep overrides how the policy waits. Tests use it to avoid real delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(b *Backoff) {
		if fn != nil {
			b.sleep = fn
		}
	}
}

// NewBackoff creates a Backoff with defaults and optional overrides.
func NewBackoff(opts ...Option) *Backoff {
	b := &Backoff{
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
		multiplier:      defaultMultiplier,
		maxRetries:      defaultMaxRetries,
		jitter:          defaultJitter,
		sleep:           sleepContext,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Do executes fn until it succeeds, retries are exhausted, or ctx ends.
// The last error is returned.
func (b *Backoff) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	interval := b.initialInterval

	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 {
			jitter := (rand.Float64()*2 - 1) * b.jitter * float64(interval)
			wait := time.Duration(float64(interval) + jitter)
			if wait < 0 {
				wait = 0
			}
			if sleepErr := b.sleep(ctx, wait); sleepErr != nil {
				return sleepErr
			}

			interval = time.Duration(float64(interval) * b.multiplier)
			if interval > b.maxInterval {
				interval = b.maxInterval
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
	}

	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var (
	_ Policy = Skip{}
	_ Policy = (*Backoff)(nil)
)
