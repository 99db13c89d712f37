package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskInstance_Lifecycle(t *testing.T) {
	initAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("complete computes derived factors", func(t *testing.T) {
		inst := domain.NewTaskInstance(uuid.New(), domain.Predicted{ExpectedRelief: domain.Float(40)}, initAt)
		require.NoError(t, inst.Start(initAt.Add(5*time.Minute)))
		require.NoError(t, inst.Complete(domain.Actual{ActualRelief: domain.Float(70)}, initAt.Add(time.Hour)))

		assert.Equal(t, domain.StatusCompleted, inst.Status)
		require.NotNil(t, inst.Derived)
		assert.Equal(t, 30.0, inst.Derived.NetRelief)
		assert.Equal(t, 30.0, inst.Derived.SerendipityFactor)
		assert.Equal(t, 0.0, inst.Derived.DisappointmentFactor)
	})

	t.Run("completing twice is rejected and keeps derived values", func(t *testing.T) {
		inst := domain.NewTaskInstance(uuid.New(), domain.Predicted{ExpectedRelief: domain.Float(60)}, initAt)
		require.NoError(t, inst.Complete(domain.Actual{ActualRelief: domain.Float(20)}, initAt.Add(time.Hour)))
		first := *inst.Derived

		err := inst.Complete(domain.Actual{ActualRelief: domain.Float(90)}, initAt.Add(2*time.Hour))
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, first, *inst.Derived)
	})

	t.Run("start is idempotent", func(t *testing.T) {
		inst := domain.NewTaskInstance(uuid.New(), domain.Predicted{}, initAt)
		require.NoError(t, inst.Start(initAt.Add(time.Minute)))
		require.NoError(t, inst.Start(initAt.Add(10*time.Minute)))
		assert.Equal(t, initAt.Add(time.Minute), *inst.StartedAt)
	})

	t.Run("cancelled instance cannot be started", func(t *testing.T) {
		inst := domain.NewTaskInstance(uuid.New(), domain.Predicted{}, initAt)
		require.NoError(t, inst.Cancel())
		assert.ErrorIs(t, inst.Start(initAt), domain.ErrInvalidTransition)
		assert.ErrorIs(t, inst.Cancel(), domain.ErrInvalidTransition)
	})
}

func TestDeriveFactors(t *testing.T) {
	tests := []struct {
		name           string
		expected       *float64
		actual         *float64
		net            float64
		serendipity    float64
		disappointment float64
	}{
		{"pleasant surprise", domain.Float(30), domain.Float(80), 50, 50, 0},
		{"disappointment", domain.Float(80), domain.Float(30), -50, 0, 50},
		{"predicted equals actual", domain.Float(50), domain.Float(50), 0, 0, 0},
		{"missing expected counts as zero", nil, domain.Float(25), 25, 25, 0},
		{"missing both", nil, nil, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred := domain.Predicted{ExpectedRelief: tt.expected}
			act := domain.Actual{ActualRelief: tt.actual}

			first := domain.DeriveFactors(pred, act)
			second := domain.DeriveFactors(pred, act)

			assert.Equal(t, first, second)
			assert.Equal(t, tt.net, first.NetRelief)
			assert.Equal(t, tt.serendipity, first.SerendipityFactor)
			assert.Equal(t, tt.disappointment, first.DisappointmentFactor)
			if first.NetRelief != 0 {
				assert.True(t, (first.SerendipityFactor == 0) != (first.DisappointmentFactor == 0))
			}
		})
	}
}

func TestTaskInstance_Clone(t *testing.T) {
	inst := domain.NewTaskInstance(uuid.New(), domain.Predicted{CognitiveLoad: domain.Float(40)}, time.Now())
	require.NoError(t, inst.Complete(domain.Actual{DurationMinutes: domain.Float(30)}, time.Now()))

	clone := inst.Clone()
	*clone.Predicted.CognitiveLoad = 99
	clone.Derived.NetRelief = 12

	assert.Equal(t, 40.0, *inst.Predicted.CognitiveLoad)
	assert.Equal(t, 0.0, inst.Derived.NetRelief)
}

func TestInstanceFilter_Matches(t *testing.T) {
	taskID := uuid.New()
	at := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	inst := domain.NewTaskInstance(taskID, domain.Predicted{}, at.Add(-time.Hour))
	require.NoError(t, inst.Complete(domain.Actual{}, at))

	before := at.Add(time.Minute)
	after := at.Add(-time.Minute)

	assert.True(t, domain.InstanceFilter{}.Matches(inst))
	assert.True(t, domain.InstanceFilter{TaskIDs: []uuid.UUID{taskID}}.Matches(inst))
	assert.False(t, domain.InstanceFilter{TaskIDs: []uuid.UUID{uuid.New()}}.Matches(inst))
	assert.True(t, domain.InstanceFilter{Statuses: []domain.Status{domain.StatusCompleted}}.Matches(inst))
	assert.False(t, domain.InstanceFilter{Statuses: []domain.Status{domain.StatusActive}}.Matches(inst))
	assert.True(t, domain.InstanceFilter{CompletedAfter: &after, CompletedBefore: &before}.Matches(inst))
	assert.False(t, domain.InstanceFilter{CompletedBefore: &at}.Matches(inst))
}
