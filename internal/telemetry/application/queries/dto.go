// Package queries implements the telemetry read side.
package queries

import (
	"time"

	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
)

// TaskDTO is a data transfer object for task templates.
type TaskDTO struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Type                string    `json:"task_type"`
	TimeEstimateMinutes float64   `json:"time_estimate_minutes"`
	CreatedAt           time.Time `json:"created_at"`
}

// InstanceDTO is a data transfer object for task instances. Task fields are
// empty when the template no longer exists.
type InstanceDTO struct {
	ID            uuid.UUID        `json:"id"`
	TaskID        uuid.UUID        `json:"task_id"`
	TaskName      string           `json:"task_name,omitempty"`
	TaskType      string           `json:"task_type,omitempty"`
	Status        string           `json:"status"`
	Predicted     domain.Predicted `json:"predicted"`
	Actual        domain.Actual    `json:"actual"`
	Derived       *domain.Derived  `json:"derived,omitempty"`
	InitializedAt time.Time        `json:"initialized_at"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
}

func toTaskDTO(t *domain.Task) TaskDTO {
	return TaskDTO{
		ID:                  t.ID,
		Name:                t.Name,
		Type:                string(t.Type),
		TimeEstimateMinutes: t.TimeEstimateMinutes,
		CreatedAt:           t.CreatedAt,
	}
}

func toInstanceDTO(inst *domain.TaskInstance, task *domain.Task) InstanceDTO {
	dto := InstanceDTO{
		ID:            inst.ID,
		TaskID:        inst.TaskID,
		Status:        string(inst.Status),
		Predicted:     inst.Predicted,
		Actual:        inst.Actual,
		Derived:       inst.Derived,
		InitializedAt: inst.InitializedAt,
		StartedAt:     inst.StartedAt,
		CompletedAt:   inst.CompletedAt,
	}
	if task != nil {
		dto.TaskName = task.Name
		dto.TaskType = string(task.Type)
	}
	return dto
}
