package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/felixgeelhaar/pulse/internal/app"
	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/eventbus"
)

// StartInvalidationConsumer consumes change events published by other Pulse
// processes and feeds them to the container's cache invalidator. It returns
// nil without RABBITMQ_URL. The consumer runs until ctx is done; callers
// close it on shutdown.
func StartInvalidationConsumer(ctx context.Context, container *app.Container, logger *slog.Logger) (*eventbus.RabbitMQConsumer, error) {
	cfg := container.Config
	if cfg.RabbitMQURL == "" {
		return nil, nil
	}

	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConfig{
		URL:       cfg.RabbitMQURL,
		QueueName: cfg.RabbitMQQueue,
		Logger:    logger,
		Metrics:   container.Metrics,
	}, nil)
	if err != nil {
		return nil, err
	}
	consumer.RegisterConsumer(container.CacheInvalidator)

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("invalidation consumer stopped", "queue", consumer.Queue(), "error", err)
		}
	}()
	return consumer, nil
}
