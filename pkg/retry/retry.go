// Package retry wraps venue-bound operations with bounded exponential-backoff
// retries, client-side rate limiting and a circuit breaker. Every network
// call in the core routes through a Caller; nothing talks to the venue
// directly.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Config controls the retry envelope.
type Config struct {
	Attempts     int           // total attempts, including the first
	InitialDelay time.Duration // delay before the second attempt
	Factor       float64       // multiplicative backoff factor
	RateLimit    rate.Limit    // venue calls per second, 0 disables limiting
	Burst        int
}

// DefaultConfig mirrors the retry envelope the bot has always used:
// five attempts, 2s initial delay, doubling.
func DefaultConfig() Config {
	return Config{
		Attempts:     5,
		InitialDelay: 2 * time.Second,
		Factor:       2,
		RateLimit:    10,
		Burst:        5,
	}
}

// Caller executes operations with retries. Safe for concurrent use.
type Caller struct {
	cfg     Config
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// New builds a Caller from cfg. Zero or negative attempt counts are clamped
// to a single attempt.
func New(name string, cfg Config) *Caller {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.Factor < 1 {
		cfg.Factor = 1
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(cfg.RateLimit, burst)
	}
	settings := gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 8
		},
	}
	return &Caller{
		cfg:     cfg,
		limiter: limiter,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Do runs fn until it succeeds or the attempt budget is exhausted, sleeping
// InitialDelay·Factor^n between attempts. The final error is returned as-is.
// An open circuit breaker short-circuits the remaining attempts.
func (c *Caller) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	delay := c.cfg.InitialDelay
	var lastErr error
	for attempt := 0; attempt < c.cfg.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.cfg.Factor)
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		_, err := c.breaker.Execute(func() (any, error) {
			return nil, fn(ctx)
		})
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return err
		}
	}
	return lastErr
}

// Do is the generic form for operations that return a value.
func Do[T any](ctx context.Context, c *Caller, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := c.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}
