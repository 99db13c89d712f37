package domain

import (
	"math"
	"testing"
	"time"

	telemetry "github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newTask(t *testing.T, name string, taskType telemetry.TaskType, estimate float64) *telemetry.Task {
	t.Helper()
	task, err := telemetry.NewTask(name, taskType, estimate)
	require.NoError(t, err)
	return task
}

// completed builds a completed instance that took duration minutes and finished at end.
func completed(t *testing.T, task *telemetry.Task, end time.Time, duration float64, actual telemetry.Actual) *telemetry.TaskInstance {
	t.Helper()
	start := end.Add(-time.Duration(duration * float64(time.Minute)))
	inst := telemetry.NewTaskInstance(task.ID, telemetry.Predicted{}, start)
	require.NoError(t, inst.Start(start))
	if actual.DurationMinutes == nil {
		actual.DurationMinutes = telemetry.Float(duration)
	}
	require.NoError(t, inst.Complete(actual, end))
	return inst
}

func taskMap(tasks ...*telemetry.Task) map[uuid.UUID]*telemetry.Task {
	m := make(map[uuid.UUID]*telemetry.Task, len(tasks))
	for _, task := range tasks {
		m[task.ID] = task
	}
	return m
}

func TestNewFrame_Sanitizes(t *testing.T) {
	task := newTask(t, "write", telemetry.TaskTypeWork, 60)
	inst := telemetry.NewTaskInstance(task.ID, telemetry.Predicted{
		ExpectedRelief:   telemetry.Float(150),
		ExpectedAversion: telemetry.Float(math.NaN()),
	}, day0)
	require.NoError(t, inst.Complete(telemetry.Actual{
		ActualRelief:      telemetry.Float(-20),
		DurationMinutes:   telemetry.Float(-5),
		CompletionPercent: telemetry.Float(math.Inf(1)),
	}, day0.Add(30*time.Minute)))

	f := NewFrame([]*telemetry.TaskInstance{inst}, taskMap(task), nil)
	require.Equal(t, 1, f.Len())

	assert.Equal(t, 100.0, f.ExpectedRelief.Values[0])
	assert.Equal(t, 0.0, f.ActualRelief.Values[0])
	assert.False(t, f.ExpectedAversion.Valid[0], "NaN is missing")
	assert.Equal(t, 0.0, f.DurationMinutes.Values[0])
	assert.True(t, f.DurationMinutes.Valid[0])
	assert.False(t, f.CompletionPercent.Valid[0], "Inf is missing")
	assert.Equal(t, 60.0, f.EstimateMinutes.Values[0], "estimate falls back to the task")
	assert.Equal(t, 30.0, f.StartDelayMinutes.Values[0], "start delay uses completion when never started")
	assert.Equal(t, telemetry.TaskTypeWork, f.TaskTypes[0])
	assert.Equal(t, time.UTC, f.Location)
}

func TestNewFrame_EstimatePrecedence(t *testing.T) {
	task := newTask(t, "read", telemetry.TaskTypeOther, 40)

	predicted := telemetry.NewTaskInstance(task.ID, telemetry.Predicted{TimeEstimateMinutes: telemetry.Float(25)}, day0)
	nonPositive := telemetry.NewTaskInstance(task.ID, telemetry.Predicted{TimeEstimateMinutes: telemetry.Float(0)}, day0)
	orphan := telemetry.NewTaskInstance(uuid.New(), telemetry.Predicted{}, day0)

	f := NewFrame([]*telemetry.TaskInstance{predicted, nonPositive, orphan}, taskMap(task), time.UTC)

	assert.Equal(t, 25.0, f.EstimateMinutes.Or(0, -1))
	assert.Equal(t, 40.0, f.EstimateMinutes.Or(1, -1))
	assert.False(t, f.EstimateMinutes.Valid[2])
	assert.Equal(t, telemetry.TaskTypeOther, f.TaskTypes[2])
	assert.False(t, f.StartDelayMinutes.Valid[0], "open and never started")
}

func TestFrame_InScopeAndIndex(t *testing.T) {
	work := newTask(t, "code", telemetry.TaskTypeWork, 30)
	play := newTask(t, "game", telemetry.TaskTypePlay, 30)
	a := completed(t, work, day0, 30, telemetry.Actual{})
	b := completed(t, play, day0, 30, telemetry.Actual{})

	f := NewFrame([]*telemetry.TaskInstance{a, b}, taskMap(work, play), nil)

	i, ok := f.Index(b.ID)
	require.True(t, ok)
	assert.Equal(t, 1, i)

	assert.True(t, f.InScope(0, GlobalScope()))
	assert.True(t, f.InScope(0, TaskTypeScope(telemetry.TaskTypeWork)))
	assert.False(t, f.InScope(1, TaskTypeScope(telemetry.TaskTypeWork)))
	assert.True(t, f.InScope(1, TaskScope(play.ID)))

	typ, ok := f.TaskTypeOf(play.ID)
	assert.True(t, ok)
	assert.Equal(t, telemetry.TaskTypePlay, typ)

	one := f.Slice(1)
	assert.Equal(t, 1, one.Len())
	assert.Equal(t, b.ID, one.InstanceIDs[0])
}

func TestFrame_StartOfDayUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	f := NewFrame(nil, nil, loc)

	// 20:00 UTC is 06:00 the next day at UTC+10.
	got := f.StartOfDay(time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, loc), got)
}
