package domain

import (
	"math"
	"time"

	telemetry "github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
)

// Column is one metric across every row of a Frame. Valid marks rows where
// the value was present and finite.
type Column struct {
	Values []float64
	Valid  []bool
}

func newColumn(n int) Column {
	return Column{Values: make([]float64, n), Valid: make([]bool, n)}
}

// At returns the value at row i and whether it is present.
func (c Column) At(i int) (float64, bool) {
	return c.Values[i], c.Valid[i]
}

// Or returns the value at row i, or def when it is missing.
func (c Column) Or(i int, def float64) float64 {
	if c.Valid[i] {
		return c.Values[i]
	}
	return def
}

// Frame is a column-oriented view of an instance collection. Scorers evaluate
// whole columns at once instead of walking instance records one by one.
// Raw values are sanitized here: 0–100 scales are clamped, durations and
// completion are floored at zero, and NaN/Inf become missing.
type Frame struct {
	Location *time.Location

	InstanceIDs   []uuid.UUID
	TaskIDs       []uuid.UUID
	TaskTypes     []telemetry.TaskType
	Statuses      []telemetry.Status
	InitializedAt []time.Time
	CompletedAt   []time.Time

	ExpectedRelief    Column
	ActualRelief      Column
	ExpectedAversion  Column
	ActualAversion    Column
	CognitiveLoad     Column
	EmotionalLoad     Column
	EstimateMinutes   Column
	DurationMinutes   Column
	CompletionPercent Column
	StartDelayMinutes Column
	NetRelief         Column

	taskTypeByID map[uuid.UUID]telemetry.TaskType
	index        map[uuid.UUID]int
}

// NewFrame builds a frame from instances. Tasks supply the task type and the
// fallback time estimate; instances of unknown tasks are typed as "other".
// A nil location means UTC.
func NewFrame(instances []*telemetry.TaskInstance, tasks map[uuid.UUID]*telemetry.Task, loc *time.Location) *Frame {
	if loc == nil {
		loc = time.UTC
	}
	n := len(instances)
	f := &Frame{
		Location:          loc,
		InstanceIDs:       make([]uuid.UUID, n),
		TaskIDs:           make([]uuid.UUID, n),
		TaskTypes:         make([]telemetry.TaskType, n),
		Statuses:          make([]telemetry.Status, n),
		InitializedAt:     make([]time.Time, n),
		CompletedAt:       make([]time.Time, n),
		ExpectedRelief:    newColumn(n),
		ActualRelief:      newColumn(n),
		ExpectedAversion:  newColumn(n),
		ActualAversion:    newColumn(n),
		CognitiveLoad:     newColumn(n),
		EmotionalLoad:     newColumn(n),
		EstimateMinutes:   newColumn(n),
		DurationMinutes:   newColumn(n),
		CompletionPercent: newColumn(n),
		StartDelayMinutes: newColumn(n),
		NetRelief:         newColumn(n),
		taskTypeByID:      make(map[uuid.UUID]telemetry.TaskType, len(tasks)),
		index:             make(map[uuid.UUID]int, n),
	}
	for id, task := range tasks {
		if task != nil {
			f.taskTypeByID[id] = task.Type
		}
	}

	for i, inst := range instances {
		f.index[inst.ID] = i
		f.InstanceIDs[i] = inst.ID
		f.TaskIDs[i] = inst.TaskID
		f.Statuses[i] = inst.Status
		f.InitializedAt[i] = inst.InitializedAt

		task := tasks[inst.TaskID]
		f.TaskTypes[i] = telemetry.TaskTypeOther
		if task != nil && task.Type != "" {
			f.TaskTypes[i] = task.Type
		}

		if inst.CompletedAt != nil {
			f.CompletedAt[i] = *inst.CompletedAt
		}

		setScale(f.ExpectedRelief, i, inst.Predicted.ExpectedRelief)
		setScale(f.ActualRelief, i, inst.Actual.ActualRelief)
		setScale(f.ExpectedAversion, i, inst.Predicted.ExpectedAversion)
		setScale(f.ActualAversion, i, inst.Actual.ActualAversion)
		setScale(f.CognitiveLoad, i, firstPresent(inst.Actual.CognitiveLoad, inst.Predicted.CognitiveLoad))
		setScale(f.EmotionalLoad, i, firstPresent(inst.Actual.EmotionalLoad, inst.Predicted.EmotionalLoad))
		setNonNegative(f.DurationMinutes, i, inst.Actual.DurationMinutes)
		setNonNegative(f.CompletionPercent, i, inst.Actual.CompletionPercent)

		estimate := inst.Predicted.TimeEstimateMinutes
		if !present(estimate) || *estimate <= 0 {
			estimate = nil
			if task != nil && task.TimeEstimateMinutes > 0 {
				estimate = &task.TimeEstimateMinutes
			}
		}
		if present(estimate) && *estimate > 0 {
			f.EstimateMinutes.Values[i] = *estimate
			f.EstimateMinutes.Valid[i] = true
		}

		var startedAt *time.Time
		if inst.StartedAt != nil {
			startedAt = inst.StartedAt
		} else if inst.CompletedAt != nil {
			startedAt = inst.CompletedAt
		}
		if startedAt != nil && !inst.InitializedAt.IsZero() {
			f.StartDelayMinutes.Values[i] = math.Max(0, startedAt.Sub(inst.InitializedAt).Minutes())
			f.StartDelayMinutes.Valid[i] = true
		}

		if inst.Derived != nil {
			f.NetRelief.Values[i] = inst.Derived.NetRelief
			f.NetRelief.Valid[i] = true
		} else if inst.IsCompleted() {
			f.NetRelief.Values[i] = telemetry.DeriveFactors(inst.Predicted, inst.Actual).NetRelief
			f.NetRelief.Valid[i] = true
		}
	}
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.InstanceIDs) }

// Index returns the row of the given instance.
func (f *Frame) Index(id uuid.UUID) (int, bool) {
	i, ok := f.index[id]
	return i, ok
}

// IsCompleted reports whether row i is a completed instance.
func (f *Frame) IsCompleted(i int) bool {
	return f.Statuses[i] == telemetry.StatusCompleted && !f.CompletedAt[i].IsZero()
}

// TaskTypeOf returns the type of the given task, or "" when unknown to the frame.
func (f *Frame) TaskTypeOf(taskID uuid.UUID) (telemetry.TaskType, bool) {
	t, ok := f.taskTypeByID[taskID]
	return t, ok
}

// InScope reports whether row i belongs to scope.
func (f *Frame) InScope(i int, scope Scope) bool {
	switch scope.Kind {
	case ScopeTask:
		return f.TaskIDs[i] == scope.TaskID
	case ScopeTaskType:
		return f.TaskTypes[i] == scope.TaskType
	default:
		return true
	}
}

// StartOfDay returns local midnight for t in the frame's location.
func (f *Frame) StartOfDay(t time.Time) time.Time {
	local := t.In(f.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, f.Location)
}

func present(v *float64) bool {
	return v != nil && isFinite(*v)
}

func firstPresent(values ...*float64) *float64 {
	for _, v := range values {
		if present(v) {
			return v
		}
	}
	return nil
}

func setScale(c Column, i int, v *float64) {
	if !present(v) {
		return
	}
	c.Values[i] = Clamp(*v, 0, 100)
	c.Valid[i] = true
}

func setNonNegative(c Column, i int, v *float64) {
	if !present(v) {
		return
	}
	c.Values[i] = math.Max(0, *v)
	c.Valid[i] = true
}

// Slice returns a single-row frame for row i.
func (f *Frame) Slice(i int) *Frame {
	one := &Frame{
		Location:          f.Location,
		InstanceIDs:       []uuid.UUID{f.InstanceIDs[i]},
		TaskIDs:           []uuid.UUID{f.TaskIDs[i]},
		TaskTypes:         []telemetry.TaskType{f.TaskTypes[i]},
		Statuses:          []telemetry.Status{f.Statuses[i]},
		InitializedAt:     []time.Time{f.InitializedAt[i]},
		CompletedAt:       []time.Time{f.CompletedAt[i]},
		ExpectedRelief:    f.ExpectedRelief.row(i),
		ActualRelief:      f.ActualRelief.row(i),
		ExpectedAversion:  f.ExpectedAversion.row(i),
		ActualAversion:    f.ActualAversion.row(i),
		CognitiveLoad:     f.CognitiveLoad.row(i),
		EmotionalLoad:     f.EmotionalLoad.row(i),
		EstimateMinutes:   f.EstimateMinutes.row(i),
		DurationMinutes:   f.DurationMinutes.row(i),
		CompletionPercent: f.CompletionPercent.row(i),
		StartDelayMinutes: f.StartDelayMinutes.row(i),
		NetRelief:         f.NetRelief.row(i),
		taskTypeByID:      f.taskTypeByID,
		index:             map[uuid.UUID]int{f.InstanceIDs[i]: 0},
	}
	return one
}

func (c Column) row(i int) Column {
	return Column{Values: []float64{c.Values[i]}, Valid: []bool{c.Valid[i]}}
}
