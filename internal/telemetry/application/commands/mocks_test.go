package commands

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) SaveTask(ctx context.Context, task *domain.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *mockRepo) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *mockRepo) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *mockRepo) SaveInstance(ctx context.Context, inst *domain.TaskInstance) error {
	return m.Called(ctx, inst).Error(0)
}

func (m *mockRepo) GetInstance(ctx context.Context, id uuid.UUID) (*domain.TaskInstance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaskInstance), args.Error(1)
}

func (m *mockRepo) ListInstances(ctx context.Context, filter domain.InstanceFilter) ([]*domain.TaskInstance, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TaskInstance), args.Error(1)
}

func (m *mockRepo) DeleteInstance(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// recordingPublisher keeps decoded envelopes.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventbus.ConsumedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	event, err := eventbus.Decode(payload, routingKey)
	if err != nil {
		return err
	}
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) payload(t *testing.T, i int) map[string]any {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.Greater(t, len(p.events), i)
	var out map[string]any
	require.NoError(t, json.Unmarshal(p.events[i].Payload, &out))
	return out
}

func testDeps(pub *recordingPublisher) Deps {
	return Deps{
		Publisher: pub,
		Now:       func() time.Time { return fixedNow },
	}
}
