package queries

import (
	"context"
	"fmt"
	"time"

	sharedApplication "github.com/felixgeelhaar/pulse/internal/shared/application"
	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
)

// ListInstancesQuery contains the parameters for listing instances.
type ListInstancesQuery struct {
	TaskIDs         []uuid.UUID
	Statuses        []string
	TaskType        string // Filter by the template's type
	CompletedAfter  *time.Time
	CompletedBefore *time.Time
	Limit           int // Keep only the most recent instances; 0 keeps all
}

func (ListInstancesQuery) QueryName() string { return "telemetry.list_instances" }

// ListInstancesHandler handles ListInstancesQuery.
type ListInstancesHandler struct {
	repo domain.Repository
}

var _ sharedApplication.QueryHandler[ListInstancesQuery, []InstanceDTO] = (*ListInstancesHandler)(nil)

// NewListInstancesHandler creates a ListInstancesHandler.
func NewListInstancesHandler(repo domain.Repository) *ListInstancesHandler {
	return &ListInstancesHandler{repo: repo}
}

// Handle executes the query. Results are ordered by initialization time.
func (h *ListInstancesHandler) Handle(ctx context.Context, query ListInstancesQuery) ([]InstanceDTO, error) {
	filter := domain.InstanceFilter{
		TaskIDs:         query.TaskIDs,
		CompletedAfter:  query.CompletedAfter,
		CompletedBefore: query.CompletedBefore,
	}
	for _, s := range query.Statuses {
		status, ok := domain.ParseStatus(s)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", s)
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	instances, err := h.repo.ListInstances(ctx, filter)
	if err != nil {
		return nil, err
	}

	tasks, err := h.repo.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*domain.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	var want domain.TaskType
	if query.TaskType != "" {
		want = domain.ParseTaskType(query.TaskType)
	}

	dtos := make([]InstanceDTO, 0, len(instances))
	for _, inst := range instances {
		task := byID[inst.TaskID]
		if want != "" && (task == nil || task.Type != want) {
			continue
		}
		dtos = append(dtos, toInstanceDTO(inst, task))
	}

	if query.Limit > 0 && len(dtos) > query.Limit {
		dtos = dtos[len(dtos)-query.Limit:]
	}
	return dtos, nil
}
