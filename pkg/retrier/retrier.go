// Package retrier implements exponential backoff with jitter.
package retrier

import (
	"context"
	"math/rand"
	"time"
)

const (
	defaultInitialInterval = 1 * time.Second
	defaultMaxInterval     = 30 * time.Second
	defaultMultiplier      = 2.0
	defaultMaxRetries      = 5
	defaultJitter          = 0.1
)

// Retrier retries failed calls with exponentially growing, jittered pauses.
type Retrier struct {
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
	maxRetries      int
	jitter          float64
	retryIf         func(error) bool
}

// Option defines a function to configure the Retrier.
type Option func(*Retrier)

// WithInitialInterval sets the initial retry interval.
func WithInitialInterval(d time.Duration) Option {
	return func(r *Retrier) {
		if d > 0 {
			r.initialInterval = d
		}
	}
}

// WithMaxInterval caps the retry interval.
func WithMaxInterval(d time.Duration) Option {
	return func(r *Retrier) {
		if d > 0 {
			r.maxInterval = d
		}
	}
}

// WithMultiplier sets the backoff growth factor.
func WithMultiplier(m float64) Option {
	return func(r *Retrier) {
		if m > 1 {
			r.multiplier = m
		}
	}
}

// WithMaxRetries sets how many retries happen after the first attempt.
func WithMaxRetries(n int) Option {
	return func(r *Retrier) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithJitter sets the jitter fraction applied to each pause (0 disables it).
func WithJitter(j float64) Option {
	return func(r *Retrier) {
		if j >= 0 {
			r.jitter = j
		}
	}
}

// WithRetryIf installs a predicate deciding whether an error is worth
// retrying. Errors the predicate rejects are returned immediately.
func WithRetryIf(pred func(error) bool) Option {
	return func(r *Retrier) {
		if pred != nil {
			r.retryIf = pred
		}
	}
}

// New creates a new Retrier with default values and optional overrides.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
		multiplier:      defaultMultiplier,
		maxRetries:      defaultMaxRetries,
		jitter:          defaultJitter,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Do executes the given function with retries.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := DoWithData(r, ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoWithData executes the given function with retries and returns a value.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		result T
		err    error
	)

	interval := r.initialInterval
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(r.pause(interval)):
			}

			interval = time.Duration(float64(interval) * r.multiplier)
			if interval > r.maxInterval {
				interval = r.maxInterval
			}
		}

		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
		if r.retryIf != nil && !r.retryIf(err) {
			return result, err
		}
	}

	return result, err
}

// pause applies jitter to the interval, never returning a negative duration.
func (r *Retrier) pause(interval time.Duration) time.Duration {
	if r.jitter <= 0 {
		return interval
	}

	jittered := float64(interval) * (1 + (rand.Float64()*2-1)*r.jitter)
	if jittered < 0 {
		return 0
	}
	return time.Duration(jittered)
}
