// Package resilience provides bounded retries with exponential backoff and
// a circuit breaker wrapper for outbound calls.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrCircuitOpen indicates the circuit breaker is open.
	ErrCircuitOpen = gobreaker.ErrOpenState
	// ErrExhaustedRetries indicates retry attempts were exhausted.
	ErrExhaustedRetries = errors.New("retry attempts exhausted")
)

// RetryConfig holds configuration for retry operations.
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	RandomFactor    float64

	// RetryIf decides whether a failure is worth another attempt.
	// A nil RetryIf retries every failure.
	RetryIf func(error) bool
}

// DefaultRetryConfig returns a default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		RandomFactor:    0.1,
	}
}

// WithRetry executes an operation with exponential backoff retry.
// Backoff sleeps respect context cancellation. When attempts are exhausted
// the returned error wraps ErrExhaustedRetries and carries the last failure.
func WithRetry(ctx context.Context, operation func(context.Context) error, cfg RetryConfig) error {
	var lastErr error
	interval := cfg.InitialInterval
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := operation(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return fmt.Errorf("retry abandoned: %w", ctx.Err())
		}

		if errors.Is(err, ErrCircuitOpen) {
			return err
		}

		if cfg.RetryIf != nil && !cfg.RetryIf(err) {
			return err
		}

		if attempt < cfg.MaxAttempts {
			jitter := 1.0 + (cfg.RandomFactor * (2*rnd.Float64() - 1))
			interval = time.Duration(float64(interval) * cfg.Multiplier * jitter)
			if interval > cfg.MaxInterval {
				interval = cfg.MaxInterval
			}

			slog.Debug("Operation failed, retrying",
				"attempt", attempt,
				"max_attempts", cfg.MaxAttempts,
				"next_interval", interval,
				"error", err,
			)

			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("retry abandoned: %w", ctx.Err())
			case <-timer.C:
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %v",
		ErrExhaustedRetries,
		cfg.MaxAttempts,
		lastErr)
}

// BreakerConfig holds configuration for circuit breakers.
type BreakerConfig struct {
	Name          string
	MaxFailures   int
	CallTimeout   time.Duration
	HalfOpenLimit int
	ResetInterval time.Duration
}

// Breaker wraps outbound calls in a gobreaker circuit breaker plus a
// per-call timeout. Consecutive failures beyond MaxFailures open the
// circuit; calls while open fail fast with ErrCircuitOpen.
type Breaker struct {
	name        string
	callTimeout time.Duration
	cb          *gobreaker.CircuitBreaker
}

// NewBreaker creates a circuit breaker with sensible defaults for any
// unset config field.
func NewBreaker(cfg BreakerConfig, log *slog.Logger) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	if cfg.HalfOpenLimit <= 0 {
		cfg.HalfOpenLimit = 1
	}
	if cfg.ResetInterval <= 0 {
		cfg.ResetInterval = 60 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: uint32(cfg.HalfOpenLimit),
		Interval:    cfg.ResetInterval,
		Timeout:     cfg.ResetInterval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.MaxFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Breaker{
		name:        cfg.Name,
		callTimeout: cfg.CallTimeout,
		cb:          gobreaker.NewCircuitBreaker(settings),
	}
}

// Execute runs an operation through the circuit breaker, applying the
// per-call timeout when the context carries no deadline of its own.
func (b *Breaker) Execute(ctx context.Context, operation func(context.Context) error) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.callTimeout)
		defer cancel()
	}

	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, operation(ctx)
	})

	return err
}
