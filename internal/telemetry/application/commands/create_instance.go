package commands

import (
	"context"
	"fmt"
	"time"

	sharedApplication "github.com/felixgeelhaar/pulse/internal/shared/application"
	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
)

// CreateInstanceCommand starts tracking an attempt at a task.
type CreateInstanceCommand struct {
	TaskID    uuid.UUID
	Predicted domain.Predicted
	// InitializedAt defaults to now.
	InitializedAt *time.Time
}

func (CreateInstanceCommand) CommandName() string { return "telemetry.create_instance" }

// CreateInstanceResult identifies the new instance.
type CreateInstanceResult struct {
	InstanceID uuid.UUID
}

// CreateInstanceHandler handles CreateInstanceCommand.
type CreateInstanceHandler struct {
	repo domain.Repository
	deps Deps
}

var _ sharedApplication.CommandHandler[CreateInstanceCommand, *CreateInstanceResult] = (*CreateInstanceHandler)(nil)

// NewCreateInstanceHandler creates a CreateInstanceHandler.
func NewCreateInstanceHandler(repo domain.Repository, deps Deps) *CreateInstanceHandler {
	return &CreateInstanceHandler{repo: repo, deps: deps.withDefaults()}
}

// Handle executes the command. A missing time estimate is taken from the task.
func (h *CreateInstanceHandler) Handle(ctx context.Context, cmd CreateInstanceCommand) (*CreateInstanceResult, error) {
	var inst *domain.TaskInstance

	err := sharedApplication.WithUnitOfWork(ctx, h.deps.UnitOfWork, func(txCtx context.Context) error {
		task, err := h.repo.GetTask(txCtx, cmd.TaskID)
		if err != nil {
			return fmt.Errorf("task %s: %w", cmd.TaskID, err)
		}

		predicted := cmd.Predicted
		if predicted.TimeEstimateMinutes == nil && task.TimeEstimateMinutes > 0 {
			predicted.TimeEstimateMinutes = domain.Float(task.TimeEstimateMinutes)
		}

		inst = domain.NewTaskInstance(task.ID, predicted, h.deps.at(cmd.InitializedAt))
		return h.repo.SaveInstance(txCtx, inst)
	})
	if err != nil {
		return nil, err
	}

	h.deps.Logger.Info("instance created", "instance_id", inst.ID, "task_id", inst.TaskID)
	event := domain.NewInstanceChanged(inst.ID, inst.TaskID, inst.Status, domain.ChangeSaved, h.deps.Now())
	h.deps.publish(ctx, &event)
	return &CreateInstanceResult{InstanceID: inst.ID}, nil
}
