// Package commands implements the telemetry write side: creating tasks and
// moving instances through their lifecycle.
package commands

import (
	"context"
	"log/slog"
	"time"

	sharedApplication "github.com/felixgeelhaar/pulse/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/pulse/internal/shared/domain"
	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/eventbus"
)

// Deps are the collaborators every handler needs. Nil UnitOfWork and
// Publisher are allowed; Now defaults to time.Now.
type Deps struct {
	UnitOfWork sharedApplication.UnitOfWork
	Publisher  eventbus.Publisher
	Logger     *slog.Logger
	Now        func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.UnitOfWork == nil {
		d.UnitOfWork = sharedApplication.NoopUnitOfWork{}
	}
	if d.Publisher == nil {
		d.Publisher = eventbus.NewNoopPublisher(d.Logger)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// at returns t when set, otherwise now.
func (d Deps) at(t *time.Time) time.Time {
	if t != nil {
		return t.UTC()
	}
	return d.Now().UTC()
}

// publish sends events after the unit of work committed. A failed publish
// leaves cached scores stale until their TTL, so it is logged, not returned.
func (d Deps) publish(ctx context.Context, events ...sharedDomain.DomainEvent) {
	sharedApplication.ApplyEventMetadata(events, sharedApplication.EventMetadataFromContext(ctx))
	for _, event := range events {
		if err := eventbus.PublishEvent(ctx, d.Publisher, event); err != nil {
			d.Logger.Warn("failed to publish change event",
				"routing_key", event.RoutingKey(),
				"aggregate_id", event.AggregateID(),
				"error", err,
			)
		}
	}
}
