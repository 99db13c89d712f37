// Package subscribers reacts to telemetry change events.
package subscribers

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/pulse/internal/scoring/application"
	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/eventbus"
	telemetry "github.com/felixgeelhaar/pulse/internal/telemetry/domain"
)

// Invalidator drops cached entries by key or prefix.
type Invalidator interface {
	Invalidate(ctx context.Context, keyOrPrefix string)
}

// CacheInvalidator clears every scoring aggregate when a task or instance
// changes. Aggregates span the whole history, so no narrower prefix is safe.
type CacheInvalidator struct {
	cache    Invalidator
	prefixes []string
	logger   *slog.Logger
}

// NewCacheInvalidator creates a consumer that invalidates cache.
func NewCacheInvalidator(cache Invalidator, logger *slog.Logger) *CacheInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheInvalidator{
		cache:    cache,
		prefixes: application.Prefixes(),
		logger:   logger,
	}
}

// EventTypes implements eventbus.EventConsumer.
func (c *CacheInvalidator) EventTypes() []string {
	return []string{
		telemetry.RoutingKeyInstanceChanged,
		telemetry.RoutingKeyTaskChanged,
	}
}

// Handle implements eventbus.EventConsumer. Store failures are absorbed by
// the cache, so Handle never fails.
func (c *CacheInvalidator) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	for _, prefix := range c.prefixes {
		c.cache.Invalidate(ctx, prefix)
	}
	c.logger.Debug("scoring cache invalidated",
		"routing_key", event.RoutingKey,
		"aggregate_id", event.AggregateID,
	)
	return nil
}
