package eventbus_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRabbitMQ_RoundTrip(t *testing.T) {
	url := os.Getenv("PULSE_TEST_AMQP_URL")
	if url == "" {
		t.Skip("PULSE_TEST_AMQP_URL not set")
	}

	cfg := eventbus.RabbitMQConfig{
		URL:      url,
		Exchange: "pulse.test." + uuid.NewString(),
		Logger:   testLogger(),
	}

	consumer, err := eventbus.NewRabbitMQConsumer(cfg, nil)
	require.NoError(t, err)
	defer consumer.Close()

	received := make(chan *eventbus.ConsumedEvent, 1)
	consumer.RegisterConsumer(&channelConsumer{types: []string{instanceChanged}, out: received})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go func() { _ = consumer.Start(ctx) }()

	publisher, err := eventbus.NewRabbitMQPublisher(cfg)
	require.NoError(t, err)
	defer publisher.Close()
	require.NoError(t, publisher.Ping(ctx))

	event := newSampleEvent()
	require.NoError(t, eventbus.PublishEvent(ctx, publisher, event))

	select {
	case got := <-received:
		assert.Equal(t, event.EventID(), got.EventID)
	case <-ctx.Done():
		t.Fatal("event not received")
	}
}

type channelConsumer struct {
	types []string
	out   chan *eventbus.ConsumedEvent
}

func (c *channelConsumer) EventTypes() []string { return c.types }

func (c *channelConsumer) Handle(_ context.Context, event *eventbus.ConsumedEvent) error {
	c.out <- event
	return nil
}
