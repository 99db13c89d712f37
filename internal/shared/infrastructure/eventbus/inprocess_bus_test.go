package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/pulse/internal/shared/domain"
	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/pulse/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleEvent struct {
	domain.BaseEvent
	InstanceID uuid.UUID `json:"instance_id"`
}

func newSampleEvent() sampleEvent {
	id := uuid.New()
	return sampleEvent{
		BaseEvent:  domain.NewBaseEvent(id, "TaskInstance", instanceChanged),
		InstanceID: id,
	}
}

func TestInProcessBus_PublishEventDeliversEnvelope(t *testing.T) {
	bus := eventbus.NewInProcessBus(testLogger())
	consumer := &mockConsumer{eventTypes: []string{instanceChanged}}
	bus.RegisterConsumer(consumer)

	event := newSampleEvent()
	require.NoError(t, eventbus.PublishEvent(context.Background(), bus, event))

	require.Len(t, consumer.events, 1)
	got := consumer.events[0]
	assert.Equal(t, event.EventID(), got.EventID)
	assert.Equal(t, event.AggregateID(), got.AggregateID)
	assert.Equal(t, "TaskInstance", got.AggregateType)
	assert.Equal(t, instanceChanged, got.RoutingKey)
	assert.WithinDuration(t, event.OccurredAt(), got.OccurredAt, time.Millisecond)

	var payload struct {
		InstanceID uuid.UUID `json:"instance_id"`
	}
	require.NoError(t, json.Unmarshal(got.Payload, &payload))
	assert.Equal(t, event.InstanceID, payload.InstanceID)
}

func TestInProcessBus_PublishFillsMissingRoutingKey(t *testing.T) {
	bus := eventbus.NewInProcessBus(testLogger())
	consumer := &mockConsumer{eventTypes: []string{taskChanged}}
	bus.RegisterConsumer(consumer)

	payload, err := json.Marshal(&eventbus.ConsumedEvent{EventID: uuid.New()})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), taskChanged, payload))
	require.Len(t, consumer.events, 1)
	assert.Equal(t, taskChanged, consumer.events[0].RoutingKey)
}

func TestInProcessBus_ConsumerErrorIsNotReturned(t *testing.T) {
	bus := eventbus.NewInProcessBus(testLogger())
	consumer := &mockConsumer{eventTypes: []string{instanceChanged}, err: errors.New("boom")}
	bus.RegisterConsumer(consumer)

	err := eventbus.PublishEvent(context.Background(), bus, newSampleEvent())

	require.NoError(t, err)
	assert.Len(t, consumer.events, 1)
}

func TestInProcessBus_InvalidPayloadIsDropped(t *testing.T) {
	bus := eventbus.NewInProcessBus(testLogger())
	consumer := &mockConsumer{eventTypes: []string{instanceChanged}}
	bus.RegisterConsumer(consumer)

	require.NoError(t, bus.Publish(context.Background(), instanceChanged, []byte("invalid json")))
	assert.Empty(t, consumer.events)
}

func TestInProcessBus_PublishConsumedEventReturnsErrors(t *testing.T) {
	bus := eventbus.NewInProcessBus(testLogger())
	errConsumer := errors.New("consumer error")
	bus.RegisterConsumer(&mockConsumer{eventTypes: []string{instanceChanged}, err: errConsumer})

	err := bus.PublishConsumedEvent(context.Background(), &eventbus.ConsumedEvent{RoutingKey: instanceChanged})
	assert.ErrorIs(t, err, errConsumer)
}

func TestInProcessBus_StartBlocksUntilCancelled(t *testing.T) {
	bus := eventbus.NewInProcessBus(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- bus.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
	assert.NoError(t, bus.Close())
}

func TestInProcessBus_RecordsDispatchMetrics(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	bus := eventbus.NewInProcessBus(testLogger(), eventbus.WithBusMetrics(metrics))
	bus.RegisterConsumer(&mockConsumer{eventTypes: []string{instanceChanged}})
	bus.RegisterConsumer(&mockConsumer{eventTypes: []string{taskChanged}, err: errors.New("boom")})

	require.NoError(t, eventbus.PublishEvent(context.Background(), bus, newSampleEvent()))
	require.NoError(t, bus.Publish(context.Background(), taskChanged, mustEnvelope(t, taskChanged)))
	require.NoError(t, bus.Publish(context.Background(), instanceChanged, []byte("not json")))

	key := func(rk string) observability.Tag { return observability.T("routing_key", rk) }
	assert.Equal(t, int64(1), metrics.GetCounter(eventbus.MetricEventsDispatched, key(instanceChanged)))
	assert.Equal(t, int64(1), metrics.GetCounter(eventbus.MetricEventsFailed, key(taskChanged)))
	assert.Equal(t, int64(1), metrics.GetCounter(eventbus.MetricEventsDropped, key(instanceChanged)))
	assert.Len(t, metrics.GetTimings(eventbus.MetricDispatchDuration, key(instanceChanged)), 1)
}

func mustEnvelope(t *testing.T, routingKey string) []byte {
	t.Helper()
	payload, err := json.Marshal(&eventbus.ConsumedEvent{EventID: uuid.New(), RoutingKey: routingKey})
	require.NoError(t, err)
	return payload
}
