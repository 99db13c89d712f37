package commands

import (
	"context"
	"fmt"

	sharedApplication "github.com/felixgeelhaar/pulse/internal/shared/application"
	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
)

// DeleteInstanceCommand removes an instance from the history.
type DeleteInstanceCommand struct {
	InstanceID uuid.UUID
}

func (DeleteInstanceCommand) CommandName() string { return "telemetry.delete_instance" }

// DeleteInstanceHandler handles DeleteInstanceCommand.
type DeleteInstanceHandler struct {
	repo domain.Repository
	deps Deps
}

var _ sharedApplication.CommandHandler[DeleteInstanceCommand, struct{}] = (*DeleteInstanceHandler)(nil)

// NewDeleteInstanceHandler creates a DeleteInstanceHandler.
func NewDeleteInstanceHandler(repo domain.Repository, deps Deps) *DeleteInstanceHandler {
	return &DeleteInstanceHandler{repo: repo, deps: deps.withDefaults()}
}

// Handle executes the command.
func (h *DeleteInstanceHandler) Handle(ctx context.Context, cmd DeleteInstanceCommand) (struct{}, error) {
	var taskID uuid.UUID

	err := sharedApplication.WithUnitOfWork(ctx, h.deps.UnitOfWork, func(txCtx context.Context) error {
		inst, err := h.repo.GetInstance(txCtx, cmd.InstanceID)
		if err != nil {
			return fmt.Errorf("instance %s: %w", cmd.InstanceID, err)
		}
		taskID = inst.TaskID
		return h.repo.DeleteInstance(txCtx, cmd.InstanceID)
	})
	if err != nil {
		return struct{}{}, err
	}

	h.deps.Logger.Info("instance deleted", "instance_id", cmd.InstanceID)
	event := domain.NewInstanceChanged(cmd.InstanceID, taskID, "", domain.ChangeDeleted, h.deps.Now())
	h.deps.publish(ctx, &event)
	return struct{}{}, nil
}
