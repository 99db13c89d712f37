// Package domain contains the domain model for task telemetry: task templates,
// their instances and the self-reported predicted/actual payloads.
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyTaskName     = errors.New("task name cannot be empty")
	ErrNegativeEstimate  = errors.New("time estimate cannot be negative")
	ErrTaskNotFound      = errors.New("task not found")
	ErrInstanceNotFound  = errors.New("task instance not found")
	ErrInvalidTransition = errors.New("invalid instance status transition")
)

// TaskType classifies a task template. The type selects the productivity multiplier.
type TaskType string

const (
	TaskTypeWork     TaskType = "work"
	TaskTypeSelfCare TaskType = "self_care"
	TaskTypePlay     TaskType = "play"
	TaskTypeOther    TaskType = "other"
)

// TaskTypes lists every known task type.
func TaskTypes() []TaskType {
	return []TaskType{TaskTypeWork, TaskTypeSelfCare, TaskTypePlay, TaskTypeOther}
}

// ParseTaskType maps free-form input onto a known task type.
// Unknown values become TaskTypeOther.
func ParseTaskType(value string) TaskType {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	switch normalized {
	case "work":
		return TaskTypeWork
	case "self_care", "selfcare":
		return TaskTypeSelfCare
	case "play":
		return TaskTypePlay
	default:
		return TaskTypeOther
	}
}

// IsKnownTaskType reports whether value names one of the known task types exactly.
func IsKnownTaskType(value string) bool {
	for _, t := range TaskTypes() {
		if string(t) == value {
			return true
		}
	}
	return false
}

func (t TaskType) String() string { return string(t) }

// Task is a reusable template from which instances are created.
type Task struct {
	ID                  uuid.UUID
	Name                string
	Type                TaskType
	TimeEstimateMinutes float64
	CreatedAt           time.Time
}

// NewTask creates a new task template.
func NewTask(name string, taskType TaskType, estimateMinutes float64) (*Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyTaskName
	}
	if estimateMinutes < 0 {
		return nil, ErrNegativeEstimate
	}
	if taskType == "" {
		taskType = TaskTypeOther
	}
	return &Task{
		ID:                  uuid.New(),
		Name:                name,
		Type:                taskType,
		TimeEstimateMinutes: estimateMinutes,
		CreatedAt:           time.Now().UTC(),
	}, nil
}
