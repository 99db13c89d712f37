package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrStoreUnavailable is returned while the breaker is open.
var ErrStoreUnavailable = errors.New("cache store unavailable")

// BreakerConfig configures the circuit breaker around a store.
type BreakerConfig struct {
	// MaxRequests is the maximum number of requests allowed in half-open state.
	MaxRequests uint32
	// Interval is the cyclic period of the closed state for clearing counts.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns the default breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 3,
	}
}

// BreakerStore stops calling a failing store for a while so that cache reads
// fall back to computation without paying the store's timeout each time.
type BreakerStore struct {
	next    Store
	breaker *gobreaker.CircuitBreaker[any]
}

// NewBreakerStore wraps next with a circuit breaker.
func NewBreakerStore(next Store, cfg BreakerConfig, logger *slog.Logger) *BreakerStore {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	settings := gobreaker.Settings{
		Name:        "cache-store",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	return &BreakerStore{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

// State returns the breaker's current state.
func (s *BreakerStore) State() gobreaker.State {
	return s.breaker.State()
}

// Get reads through the breaker.
func (s *BreakerStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	type result struct {
		entry Entry
		ok    bool
	}
	res, err := s.breaker.Execute(func() (any, error) {
		entry, ok, err := s.next.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		return result{entry: entry, ok: ok}, nil
	})
	if err != nil {
		return Entry{}, false, translateBreakerError(err)
	}
	r := res.(result)
	return r.entry, r.ok, nil
}

// Set writes through the breaker.
func (s *BreakerStore) Set(ctx context.Context, key string, entry Entry) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.next.Set(ctx, key, entry)
	})
	return translateBreakerError(err)
}

// DeletePrefix deletes through the breaker.
func (s *BreakerStore) DeletePrefix(ctx context.Context, prefix string) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.next.DeletePrefix(ctx, prefix)
	})
	return translateBreakerError(err)
}

func translateBreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
