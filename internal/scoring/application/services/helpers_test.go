package services

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/pulse/internal/scoring/domain"
	telemetry "github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// now is a Wednesday afternoon.
var now = time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return now }

type history struct {
	t         *testing.T
	tasks     map[uuid.UUID]*telemetry.Task
	instances []*telemetry.TaskInstance
}

func newHistory(t *testing.T) *history {
	return &history{t: t, tasks: make(map[uuid.UUID]*telemetry.Task)}
}

func (h *history) task(name string, taskType telemetry.TaskType, estimate float64) *telemetry.Task {
	h.t.Helper()
	task, err := telemetry.NewTask(name, taskType, estimate)
	require.NoError(h.t, err)
	h.tasks[task.ID] = task
	return task
}

func (h *history) complete(task *telemetry.Task, end time.Time, duration float64, actual telemetry.Actual) *telemetry.TaskInstance {
	h.t.Helper()
	start := end.Add(-time.Duration(duration * float64(time.Minute)))
	inst := telemetry.NewTaskInstance(task.ID, telemetry.Predicted{}, start)
	require.NoError(h.t, inst.Start(start))
	if actual.DurationMinutes == nil {
		actual.DurationMinutes = telemetry.Float(duration)
	}
	require.NoError(h.t, inst.Complete(actual, end))
	h.instances = append(h.instances, inst)
	return inst
}

func (h *history) open(task *telemetry.Task) *telemetry.TaskInstance {
	inst := telemetry.NewTaskInstance(task.ID, telemetry.Predicted{}, now)
	h.instances = append(h.instances, inst)
	return inst
}

func (h *history) taskList() []*telemetry.Task {
	list := make([]*telemetry.Task, 0, len(h.tasks))
	for _, task := range h.tasks {
		list = append(list, task)
	}
	return list
}

func (h *history) frame() *domain.Frame {
	return domain.NewFrame(h.instances, h.tasks, time.UTC)
}

func daysAgo(n int) time.Time {
	return now.Add(-time.Duration(n) * 24 * time.Hour)
}
