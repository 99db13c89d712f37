package commands

import (
	"context"
	"fmt"
	"time"

	sharedApplication "github.com/felixgeelhaar/pulse/internal/shared/application"
	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
)

// transition loads an instance, applies change and saves it in one unit of
// work, then announces the new state.
func transition(ctx context.Context, repo domain.Repository, deps Deps, id uuid.UUID, change func(*domain.TaskInstance) error) (*domain.TaskInstance, error) {
	var inst *domain.TaskInstance

	err := sharedApplication.WithUnitOfWork(ctx, deps.UnitOfWork, func(txCtx context.Context) error {
		var err error
		inst, err = repo.GetInstance(txCtx, id)
		if err != nil {
			return fmt.Errorf("instance %s: %w", id, err)
		}
		if err := change(inst); err != nil {
			return fmt.Errorf("instance %s is %s: %w", id, inst.Status, err)
		}
		return repo.SaveInstance(txCtx, inst)
	})
	if err != nil {
		return nil, err
	}

	event := domain.NewInstanceChanged(inst.ID, inst.TaskID, inst.Status, domain.ChangeSaved, deps.Now())
	deps.publish(ctx, &event)
	return inst, nil
}

// StartInstanceCommand records when work on an instance began.
type StartInstanceCommand struct {
	InstanceID uuid.UUID
	At         *time.Time
}

func (StartInstanceCommand) CommandName() string { return "telemetry.start_instance" }

// StartInstanceHandler handles StartInstanceCommand.
type StartInstanceHandler struct {
	repo domain.Repository
	deps Deps
}

// NewStartInstanceHandler creates a StartInstanceHandler.
func NewStartInstanceHandler(repo domain.Repository, deps Deps) *StartInstanceHandler {
	return &StartInstanceHandler{repo: repo, deps: deps.withDefaults()}
}

// Handle executes the command.
func (h *StartInstanceHandler) Handle(ctx context.Context, cmd StartInstanceCommand) (*domain.TaskInstance, error) {
	at := h.deps.at(cmd.At)
	inst, err := transition(ctx, h.repo, h.deps, cmd.InstanceID, func(inst *domain.TaskInstance) error {
		return inst.Start(at)
	})
	if err != nil {
		return nil, err
	}
	h.deps.Logger.Info("instance started", "instance_id", inst.ID)
	return inst, nil
}

// CompleteInstanceCommand records the outcome of an instance.
type CompleteInstanceCommand struct {
	InstanceID uuid.UUID
	Actual     domain.Actual
	At         *time.Time
}

func (CompleteInstanceCommand) CommandName() string { return "telemetry.complete_instance" }

// CompleteInstanceHandler handles CompleteInstanceCommand.
type CompleteInstanceHandler struct {
	repo domain.Repository
	deps Deps
}

// NewCompleteInstanceHandler creates a CompleteInstanceHandler.
func NewCompleteInstanceHandler(repo domain.Repository, deps Deps) *CompleteInstanceHandler {
	return &CompleteInstanceHandler{repo: repo, deps: deps.withDefaults()}
}

// Handle executes the command. Completing twice fails with
// domain.ErrInvalidTransition. A missing duration is measured from the start
// time when one was recorded.
func (h *CompleteInstanceHandler) Handle(ctx context.Context, cmd CompleteInstanceCommand) (*domain.TaskInstance, error) {
	at := h.deps.at(cmd.At)
	inst, err := transition(ctx, h.repo, h.deps, cmd.InstanceID, func(inst *domain.TaskInstance) error {
		actual := cmd.Actual
		if actual.DurationMinutes == nil && inst.StartedAt != nil && at.After(*inst.StartedAt) {
			actual.DurationMinutes = domain.Float(at.Sub(*inst.StartedAt).Minutes())
		}
		return inst.Complete(actual, at)
	})
	if err != nil {
		return nil, err
	}
	h.deps.Logger.Info("instance completed",
		"instance_id", inst.ID,
		"net_relief", inst.Derived.NetRelief,
	)
	return inst, nil
}

// CancelInstanceCommand abandons an active instance.
type CancelInstanceCommand struct {
	InstanceID uuid.UUID
}

func (CancelInstanceCommand) CommandName() string { return "telemetry.cancel_instance" }

// CancelInstanceHandler handles CancelInstanceCommand.
type CancelInstanceHandler struct {
	repo domain.Repository
	deps Deps
}

// NewCancelInstanceHandler creates a CancelInstanceHandler.
func NewCancelInstanceHandler(repo domain.Repository, deps Deps) *CancelInstanceHandler {
	return &CancelInstanceHandler{repo: repo, deps: deps.withDefaults()}
}

// Handle executes the command.
func (h *CancelInstanceHandler) Handle(ctx context.Context, cmd CancelInstanceCommand) (*domain.TaskInstance, error) {
	inst, err := transition(ctx, h.repo, h.deps, cmd.InstanceID, func(inst *domain.TaskInstance) error {
		return inst.Cancel()
	})
	if err != nil {
		return nil, err
	}
	h.deps.Logger.Info("instance cancelled", "instance_id", inst.ID)
	return inst, nil
}

var (
	_ sharedApplication.CommandHandler[StartInstanceCommand, *domain.TaskInstance]    = (*StartInstanceHandler)(nil)
	_ sharedApplication.CommandHandler[CompleteInstanceCommand, *domain.TaskInstance] = (*CompleteInstanceHandler)(nil)
	_ sharedApplication.CommandHandler[CancelInstanceCommand, *domain.TaskInstance]   = (*CancelInstanceHandler)(nil)
)
