package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/pulse/internal/shared/application"
	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
)

// CreateTaskCommand creates a task template.
type CreateTaskCommand struct {
	Name            string
	Type            string
	EstimateMinutes float64
}

func (CreateTaskCommand) CommandName() string { return "telemetry.create_task" }

// CreateTaskResult identifies the new task.
type CreateTaskResult struct {
	TaskID uuid.UUID
}

// CreateTaskHandler handles CreateTaskCommand.
type CreateTaskHandler struct {
	repo domain.Repository
	deps Deps
}

var _ sharedApplication.CommandHandler[CreateTaskCommand, *CreateTaskResult] = (*CreateTaskHandler)(nil)

// NewCreateTaskHandler creates a CreateTaskHandler.
func NewCreateTaskHandler(repo domain.Repository, deps Deps) *CreateTaskHandler {
	return &CreateTaskHandler{repo: repo, deps: deps.withDefaults()}
}

// Handle executes the command.
func (h *CreateTaskHandler) Handle(ctx context.Context, cmd CreateTaskCommand) (*CreateTaskResult, error) {
	task, err := domain.NewTask(cmd.Name, domain.ParseTaskType(cmd.Type), cmd.EstimateMinutes)
	if err != nil {
		return nil, err
	}
	task.CreatedAt = h.deps.Now().UTC()

	err = sharedApplication.WithUnitOfWork(ctx, h.deps.UnitOfWork, func(txCtx context.Context) error {
		return h.repo.SaveTask(txCtx, task)
	})
	if err != nil {
		return nil, err
	}

	h.deps.Logger.Info("task created", "task_id", task.ID, "task_type", task.Type)
	event := domain.NewTaskChanged(task.ID, task.Type, task.CreatedAt)
	h.deps.publish(ctx, &event)
	return &CreateTaskResult{TaskID: task.ID}, nil
}
