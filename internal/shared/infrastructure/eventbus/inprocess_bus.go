package eventbus

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/pulse/pkg/observability"
)

// InProcessBus delivers events synchronously to consumers in the same
// process. It is the default bus when no broker is configured.
type InProcessBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
	metrics  observability.Metrics
}

// InProcessOption configures an InProcessBus.
type InProcessOption func(*InProcessBus)

// WithBusMetrics records dispatch counts and durations.
func WithBusMetrics(m observability.Metrics) InProcessOption {
	return func(b *InProcessBus) { b.metrics = metricsOrNoop(m) }
}

// NewInProcessBus creates an in-process bus.
func NewInProcessBus(logger *slog.Logger, opts ...InProcessOption) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &InProcessBus{
		registry: NewConsumerRegistry(logger),
		logger:   logger,
		metrics:  observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RegisterConsumer registers an event consumer.
func (b *InProcessBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Registry returns the underlying consumer registry.
func (b *InProcessBus) Registry() *ConsumerRegistry {
	return b.registry
}

// Publish decodes the envelope and dispatches it before returning.
// Malformed payloads and consumer failures are logged, never returned:
// a publisher must not fail because a local consumer did.
func (b *InProcessBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event, err := Decode(payload, routingKey)
	if err != nil {
		b.logger.Error("dropping malformed event", "routing_key", routingKey, "error", err)
		b.metrics.Counter(MetricEventsDropped, 1, observability.T("routing_key", routingKey))
		return nil
	}
	b.dispatch(ctx, event)
	return nil
}

// PublishConsumedEvent dispatches an already decoded event.
func (b *InProcessBus) PublishConsumedEvent(ctx context.Context, event *ConsumedEvent) error {
	return b.registry.Dispatch(ctx, event)
}

func (b *InProcessBus) dispatch(ctx context.Context, event *ConsumedEvent) {
	start := time.Now()
	err := b.registry.Dispatch(ctx, event)
	duration := time.Since(start)
	recordDispatch(b.metrics, event.RoutingKey, duration, err)

	if err != nil {
		b.logger.Error("event dispatch failed",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return
	}
	b.logger.Debug("event dispatched",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", duration.Milliseconds(),
	)
}

// Start blocks until ctx is done; delivery already happens in Publish.
func (b *InProcessBus) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// Close is a no-op.
func (b *InProcessBus) Close() error {
	return nil
}
