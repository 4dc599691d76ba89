// Package resilient wraps a durable store with circuit breaking and
// per-call timeouts, so a failing backend degrades the cache quickly
// instead of stalling every flush.
package resilient

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"cachekit/pkg/cache"
)

// Config controls the breaker and timeout behavior.
type Config struct {
	// Timeout bounds each Load/Save call. 0 disables the deadline.
	Timeout time.Duration

	// ConsecutiveFailures trips the breaker once reached.
	ConsecutiveFailures uint32

	// OpenDuration is how long the breaker stays open before probing.
	OpenDuration time.Duration

	// MaxRequests is the number of probe requests allowed half-open.
	MaxRequests uint32
}

// DefaultConfig returns conservative defaults: 2s timeout, trip after 5
// consecutive failures, stay open for 30s.
func DefaultConfig() Config {
	return Config{
		Timeout:             2 * time.Second,
		ConsecutiveFailures: 5,
		OpenDuration:        30 * time.Second,
		MaxRequests:         1,
	}
}

// Store decorates another cache.Store with a circuit breaker and timeouts.
type Store struct {
	inner   cache.Store
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	logger  *zap.Logger
}

// New wraps inner with the given config. name labels the breaker in logs.
func New(name string, inner cache.Store, config Config, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("resilient").With(zap.String("store", name))

	s := &Store{
		inner:   inner,
		timeout: config.Timeout,
		logger:  logger,
	}

	threshold := config.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: config.MaxRequests,
		Timeout:     config.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return s
}

// Load reads the snapshot through the breaker.
func (s *Store) Load(ctx context.Context) (map[string]cache.StoredEntry, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.cb.Execute(func() (interface{}, error) {
		return s.inner.Load(ctx)
	})
	if err != nil {
		return nil, s.translate(ctx, err, "load")
	}
	if result == nil {
		return nil, nil
	}
	return result.(map[string]cache.StoredEntry), nil
}

// Save writes the snapshot through the breaker.
func (s *Store) Save(ctx context.Context, snapshot map[string]cache.StoredEntry) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.Save(ctx, snapshot)
	})
	if err != nil {
		return s.translate(ctx, err, "save")
	}
	return nil
}

// Close closes the wrapped store.
func (s *Store) Close() error {
	return s.inner.Close()
}

// translate maps breaker and deadline errors onto the cache sentinels.
func (s *Store) translate(ctx context.Context, err error, operation string) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.logger.Warn("request rejected by open circuit",
			zap.String("operation", operation))
		return cache.ErrCircuitOpen
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		s.logger.Warn("store operation timed out",
			zap.String("operation", operation),
			zap.Duration("timeout", s.timeout))
		return cache.ErrTimeout
	default:
		s.logger.Error("store operation failed",
			zap.String("operation", operation),
			zap.Error(err))
		return err
	}
}
