package domain

import (
	"time"

	"github.com/felixgeelhaar/pulse/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	InstanceAggregateType = "TaskInstance"
	TaskAggregateType     = "Task"

	RoutingKeyInstanceChanged = "telemetry.instance.changed"
	RoutingKeyTaskChanged     = "telemetry.task.changed"
)

// ChangeKind describes which mutation produced a change event.
type ChangeKind string

const (
	ChangeSaved   ChangeKind = "saved"
	ChangeDeleted ChangeKind = "deleted"
)

// InstanceChanged is emitted after every create/update/complete/cancel/delete of an instance.
type InstanceChanged struct {
	domain.BaseEvent
	InstanceID uuid.UUID  `json:"instance_id"`
	TaskID     uuid.UUID  `json:"task_id"`
	Status     Status     `json:"status,omitempty"`
	Change     ChangeKind `json:"change"`
}

// NewInstanceChanged creates an InstanceChanged event.
func NewInstanceChanged(instanceID, taskID uuid.UUID, status Status, change ChangeKind, at time.Time) InstanceChanged {
	return InstanceChanged{
		BaseEvent:  domain.NewBaseEventAt(instanceID, InstanceAggregateType, RoutingKeyInstanceChanged, at),
		InstanceID: instanceID,
		TaskID:     taskID,
		Status:     status,
		Change:     change,
	}
}

// TaskChanged is emitted after a task template is saved.
type TaskChanged struct {
	domain.BaseEvent
	TaskID uuid.UUID `json:"task_id"`
	Type   TaskType  `json:"task_type"`
}

// NewTaskChanged creates a TaskChanged event.
func NewTaskChanged(taskID uuid.UUID, taskType TaskType, at time.Time) TaskChanged {
	return TaskChanged{
		BaseEvent: domain.NewBaseEventAt(taskID, TaskAggregateType, RoutingKeyTaskChanged, at),
		TaskID:    taskID,
		Type:      taskType,
	}
}
