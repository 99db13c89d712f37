package domain

import (
	"math"
	"testing"
	"time"

	telemetry "github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/stretchr/testify/assert"
)

func full() telemetry.Actual {
	return telemetry.Actual{CompletionPercent: telemetry.Float(100)}
}

func TestProductivity_WorkAtParity(t *testing.T) {
	task := newTask(t, "write", telemetry.TaskTypeWork, 60)
	inst := completed(t, task, day0, 60, full())

	f := NewFrame([]*telemetry.TaskInstance{inst}, taskMap(task), nil)
	s := ProductivitySeries(f, DefaultProductivitySettings())

	assert.InDelta(t, 300.0, s.Values[0], 1e-9)
	assert.False(t, s.Defaulted[0])
}

func TestProductivity_SelfCareOrdinal(t *testing.T) {
	task := newTask(t, "stretch", telemetry.TaskTypeSelfCare, 15)
	// Frame order deliberately differs from completion order.
	third := completed(t, task, day0.Add(6*time.Hour), 15, full())
	first := completed(t, task, day0, 15, full())
	second := completed(t, task, day0.Add(2*time.Hour), 15, full())
	nextDay := completed(t, task, day0.Add(24*time.Hour), 15, full())

	f := NewFrame([]*telemetry.TaskInstance{third, first, second, nextDay}, taskMap(task), nil)
	s := ProductivitySeries(f, DefaultProductivitySettings())

	assert.InDelta(t, 300.0, s.Values[0], 1e-9)
	assert.InDelta(t, 100.0, s.Values[1], 1e-9)
	assert.InDelta(t, 200.0, s.Values[2], 1e-9)
	assert.InDelta(t, 100.0, s.Values[3], 1e-9, "ordinal resets on a new day")
}

func TestProductivity_Play(t *testing.T) {
	play := newTask(t, "game", telemetry.TaskTypePlay, 60)
	work := newTask(t, "code", telemetry.TaskTypeWork, 60)

	t.Run("play without work is penalized", func(t *testing.T) {
		inst := completed(t, play, day0, 60, full())
		s := ProductivitySeries(NewFrame([]*telemetry.TaskInstance{inst}, taskMap(play), nil), DefaultProductivitySettings())
		assert.InDelta(t, -30.0, s.Values[0], 1e-9)
	})

	t.Run("balanced day is neutral", func(t *testing.T) {
		w := completed(t, work, day0, 60, full())
		p := completed(t, play, day0.Add(2*time.Hour), 60, full())
		s := ProductivitySeries(NewFrame([]*telemetry.TaskInstance{w, p}, taskMap(play, work), nil), DefaultProductivitySettings())
		assert.InDelta(t, 100.0, s.Values[1], 1e-9)
	})

	t.Run("penalty scales with time spent", func(t *testing.T) {
		assert.InDelta(t, -0.15, PlayMultiplier(30, 0, 2, 30, 60), 1e-9)
		assert.InDelta(t, -0.3, PlayMultiplier(300, 60, 2, 300, 60), 1e-9, "floor at -0.3")
		assert.Equal(t, 1.0, PlayMultiplier(100, 60, 2, 100, 60))
	})
}

func TestCompletionTimeRatio(t *testing.T) {
	assert.Equal(t, 1.0, CompletionTimeRatio(100, 60, 60))
	assert.Equal(t, 1.5, CompletionTimeRatio(100, 60, 10), "capped")
	assert.Equal(t, 0.5, CompletionTimeRatio(50, 60, 60))
	assert.Equal(t, 1.0, CompletionTimeRatio(100, 0, 60), "missing estimate")
	assert.Equal(t, 1.0, CompletionTimeRatio(100, 60, 0), "missing duration")
}

func TestWorkMultiplier(t *testing.T) {
	assert.Equal(t, 3.0, WorkMultiplier(0.4))
	assert.Equal(t, 3.0, WorkMultiplier(1.0))
	assert.InDelta(t, 4.0, WorkMultiplier(1.25), 1e-9)
	assert.Equal(t, 5.0, WorkMultiplier(1.5))
}

func TestEfficiencyMultiplier(t *testing.T) {
	tests := []struct {
		name  string
		ctr   float64
		curve EfficiencyCurve
		want  float64
	}{
		{"parity", 1.0, CurveFlattenedSquare, 1.0},
		{"fast flattened", 1.5, CurveFlattenedSquare, 1.25},
		{"slow flattened", 0.5, CurveFlattenedSquare, 0.75},
		{"fast linear", 1.5, CurveLinear, 1.5},
		{"slow linear", 0.5, CurveLinear, 0.5},
		{"very slow linear clamps", 0.1, CurveLinear, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EfficiencyMultiplier(tt.ctr, tt.curve, 1.0), 1e-9)
		})
	}
	assert.Equal(t, 1.0, EfficiencyMultiplier(1.5, CurveLinear, 0), "zero strength disables")
}

func TestGoalMultiplier(t *testing.T) {
	assert.Equal(t, 0.8, GoalMultiplier(0.2))
	assert.InDelta(t, 0.9, GoalMultiplier(0.8), 1e-9)
	assert.InDelta(t, 0.95, GoalMultiplier(0.9), 1e-9)
	assert.InDelta(t, 1.0, GoalMultiplier(1.0), 1e-9)
	assert.InDelta(t, 1.1, GoalMultiplier(1.1), 1e-9)
	assert.Equal(t, 1.2, GoalMultiplier(2))
}

func TestBurnoutMultiplier(t *testing.T) {
	settings := DefaultProductivitySettings().Burnout

	assert.InDelta(t, 1-0.5*(1-math.Exp(-480.0/300)), BurnoutMultiplier(settings, 3000, 900), 1e-9)
	assert.Equal(t, 1.0, BurnoutMultiplier(settings, 3000, 600), "ordinary day in a heavy week")
	assert.Equal(t, 1.0, BurnoutMultiplier(settings, 2000, 900), "under the weekly threshold")

	settings.Enabled = false
	assert.Equal(t, 1.0, BurnoutMultiplier(settings, 3000, 900))
}

func TestProductivity_GoalEnabled(t *testing.T) {
	settings := DefaultProductivitySettings()
	settings.GoalHoursPerWeek = 10

	b := Productivity(ProductivityInputs{
		TaskType:          telemetry.TaskTypeWork,
		CompletionPercent: 100,
		EstimateMinutes:   60,
		ActualMinutes:     60,
		DayWorkMinutes:    60,
		WeekWorkMinutes:   720,
	}, settings)

	assert.InDelta(t, 1.2, b.GoalMultiplier, 1e-9)
	assert.InDelta(t, 360.0, b.Score, 1e-9)
}

func TestProductivityContext_WeeklyWindow(t *testing.T) {
	task := newTask(t, "code", telemetry.TaskTypeWork, 60)
	old := completed(t, task, day0.Add(-8*24*time.Hour), 120, full())
	recent := completed(t, task, day0.Add(-2*24*time.Hour), 90, full())
	today := completed(t, task, day0, 60, full())
	open := telemetry.NewTaskInstance(task.ID, telemetry.Predicted{}, day0)

	f := NewFrame([]*telemetry.TaskInstance{today, open, old, recent}, taskMap(task), nil)
	inputs, ok := ProductivityContext(f)

	assert.True(t, ok[0])
	assert.False(t, ok[1])
	assert.Equal(t, 150.0, inputs[0].WeekWorkMinutes, "eight-day-old work drops out")
	assert.Equal(t, 60.0, inputs[0].DayWorkMinutes)
	assert.Equal(t, 120.0, inputs[2].WeekWorkMinutes)

	s := ProductivitySeries(f, DefaultProductivitySettings())
	assert.Equal(t, 0.0, s.Values[1])
	assert.True(t, s.Defaulted[1])
}
