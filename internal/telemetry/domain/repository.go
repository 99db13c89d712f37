package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InstanceFilter narrows ListInstances results. Zero values match everything.
type InstanceFilter struct {
	TaskIDs         []uuid.UUID
	Statuses        []Status
	CompletedAfter  *time.Time
	CompletedBefore *time.Time
}

// Matches reports whether the instance satisfies the filter.
func (f InstanceFilter) Matches(inst *TaskInstance) bool {
	if len(f.TaskIDs) > 0 {
		found := false
		for _, id := range f.TaskIDs {
			if id == inst.TaskID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if s == inst.Status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.CompletedAfter != nil || f.CompletedBefore != nil {
		if inst.CompletedAt == nil {
			return false
		}
		if f.CompletedAfter != nil && inst.CompletedAt.Before(*f.CompletedAfter) {
			return false
		}
		if f.CompletedBefore != nil && !inst.CompletedAt.Before(*f.CompletedBefore) {
			return false
		}
	}
	return true
}

// Repository persists tasks and their instances.
type Repository interface {
	SaveTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, id uuid.UUID) (*Task, error)
	ListTasks(ctx context.Context) ([]*Task, error)

	SaveInstance(ctx context.Context, inst *TaskInstance) error
	GetInstance(ctx context.Context, id uuid.UUID) (*TaskInstance, error)
	ListInstances(ctx context.Context, filter InstanceFilter) ([]*TaskInstance, error)
	DeleteInstance(ctx context.Context, id uuid.UUID) error
}
