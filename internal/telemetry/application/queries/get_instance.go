package queries

import (
	"context"
	"errors"
	"fmt"

	sharedApplication "github.com/felixgeelhaar/pulse/internal/shared/application"
	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
)

// GetInstanceQuery fetches one instance.
type GetInstanceQuery struct {
	InstanceID uuid.UUID
}

func (GetInstanceQuery) QueryName() string { return "telemetry.get_instance" }

// GetInstanceHandler handles GetInstanceQuery.
type GetInstanceHandler struct {
	repo domain.Repository
}

var _ sharedApplication.QueryHandler[GetInstanceQuery, *InstanceDTO] = (*GetInstanceHandler)(nil)

// NewGetInstanceHandler creates a GetInstanceHandler.
func NewGetInstanceHandler(repo domain.Repository) *GetInstanceHandler {
	return &GetInstanceHandler{repo: repo}
}

// Handle executes the query.
func (h *GetInstanceHandler) Handle(ctx context.Context, query GetInstanceQuery) (*InstanceDTO, error) {
	inst, err := h.repo.GetInstance(ctx, query.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("instance %s: %w", query.InstanceID, err)
	}

	task, err := h.repo.GetTask(ctx, inst.TaskID)
	if err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
		return nil, err
	}

	dto := toInstanceDTO(inst, task)
	return &dto, nil
}
