package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Status represents the instance lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string { return string(s) }

// ParseStatus converts a string into a Status.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusActive, StatusCompleted, StatusCancelled:
		return Status(value), true
	default:
		return "", false
	}
}

// Predicted holds the self-reported expectations captured when an instance is initialized.
// Every field is optional.
type Predicted struct {
	ExpectedRelief      *float64 `json:"expected_relief,omitempty"`
	ExpectedAversion    *float64 `json:"expected_aversion,omitempty"`
	CognitiveLoad       *float64 `json:"cognitive_load,omitempty"`
	EmotionalLoad       *float64 `json:"emotional_load,omitempty"`
	TimeEstimateMinutes *float64 `json:"time_estimate_minutes,omitempty"`
}

// Actual holds the self-reported outcome captured at completion.
// Every field is optional.
type Actual struct {
	ActualRelief      *float64 `json:"actual_relief,omitempty"`
	ActualAversion    *float64 `json:"actual_aversion,omitempty"`
	CompletionPercent *float64 `json:"completion_percent,omitempty"`
	DurationMinutes   *float64 `json:"duration_minutes,omitempty"`
	CognitiveLoad     *float64 `json:"cognitive_load,omitempty"`
	EmotionalLoad     *float64 `json:"emotional_load,omitempty"`
}

// Derived holds the per-instance factors computed once at completion.
type Derived struct {
	NetRelief            float64 `json:"net_relief"`
	SerendipityFactor    float64 `json:"serendipity_factor"`
	DisappointmentFactor float64 `json:"disappointment_factor"`
}

// TaskInstance is a single attempt at a task.
type TaskInstance struct {
	ID            uuid.UUID
	TaskID        uuid.UUID
	Predicted     Predicted
	Actual        Actual
	InitializedAt time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	Status        Status
	Derived       *Derived
}

// Float returns a pointer to v. It keeps optional payload literals short.
func Float(v float64) *float64 {
	return &v
}

// NewTaskInstance creates an active instance with the given predictions.
func NewTaskInstance(taskID uuid.UUID, predicted Predicted, initializedAt time.Time) *TaskInstance {
	return &TaskInstance{
		ID:            uuid.New(),
		TaskID:        taskID,
		Predicted:     predicted,
		InitializedAt: initializedAt.UTC(),
		Status:        StatusActive,
	}
}

// IsCompleted reports whether the instance finished.
func (i *TaskInstance) IsCompleted() bool { return i.Status == StatusCompleted }

// IsActive reports whether the instance is still open.
func (i *TaskInstance) IsActive() bool { return i.Status == StatusActive }

// Start records the moment work began. Starting twice is a no-op.
func (i *TaskInstance) Start(at time.Time) error {
	if !i.IsActive() {
		return ErrInvalidTransition
	}
	if i.StartedAt != nil {
		return nil
	}
	started := at.UTC()
	i.StartedAt = &started
	return nil
}

// Complete records the actual outcome and computes the derived factors.
// Derived factors are computed exactly once; completing again is rejected.
func (i *TaskInstance) Complete(actual Actual, at time.Time) error {
	if !i.IsActive() {
		return ErrInvalidTransition
	}
	completed := at.UTC()
	i.Actual = actual
	i.CompletedAt = &completed
	i.Status = StatusCompleted
	derived := DeriveFactors(i.Predicted, i.Actual)
	i.Derived = &derived
	return nil
}

// Cancel closes the instance without an outcome.
func (i *TaskInstance) Cancel() error {
	if !i.IsActive() {
		return ErrInvalidTransition
	}
	i.Status = StatusCancelled
	return nil
}

// Clone returns a deep copy of the instance.
func (i *TaskInstance) Clone() *TaskInstance {
	c := *i
	c.Predicted = Predicted{
		ExpectedRelief:      cloneFloat(i.Predicted.ExpectedRelief),
		ExpectedAversion:    cloneFloat(i.Predicted.ExpectedAversion),
		CognitiveLoad:       cloneFloat(i.Predicted.CognitiveLoad),
		EmotionalLoad:       cloneFloat(i.Predicted.EmotionalLoad),
		TimeEstimateMinutes: cloneFloat(i.Predicted.TimeEstimateMinutes),
	}
	c.Actual = Actual{
		ActualRelief:      cloneFloat(i.Actual.ActualRelief),
		ActualAversion:    cloneFloat(i.Actual.ActualAversion),
		CompletionPercent: cloneFloat(i.Actual.CompletionPercent),
		DurationMinutes:   cloneFloat(i.Actual.DurationMinutes),
		CognitiveLoad:     cloneFloat(i.Actual.CognitiveLoad),
		EmotionalLoad:     cloneFloat(i.Actual.EmotionalLoad),
	}
	c.StartedAt = cloneTime(i.StartedAt)
	c.CompletedAt = cloneTime(i.CompletedAt)
	if i.Derived != nil {
		d := *i.Derived
		c.Derived = &d
	}
	return &c
}

// DeriveFactors computes net relief and its positive/negative split.
// Missing relief values count as zero so the result is always defined.
func DeriveFactors(predicted Predicted, actual Actual) Derived {
	expected := valueOrZero(predicted.ExpectedRelief)
	got := valueOrZero(actual.ActualRelief)
	net := got - expected
	return Derived{
		NetRelief:            net,
		SerendipityFactor:    math.Max(0, net),
		DisappointmentFactor: math.Max(0, -net),
	}
}

func valueOrZero(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
