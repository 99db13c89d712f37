package queries

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/pulse/internal/shared/application"
	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
)

// ListTasksQuery lists task templates, optionally of one type.
type ListTasksQuery struct {
	Type string
}

func (ListTasksQuery) QueryName() string { return "telemetry.list_tasks" }

// ListTasksHandler handles ListTasksQuery.
type ListTasksHandler struct {
	repo domain.Repository
}

var _ sharedApplication.QueryHandler[ListTasksQuery, []TaskDTO] = (*ListTasksHandler)(nil)

// NewListTasksHandler creates a ListTasksHandler.
func NewListTasksHandler(repo domain.Repository) *ListTasksHandler {
	return &ListTasksHandler{repo: repo}
}

// Handle executes the query.
func (h *ListTasksHandler) Handle(ctx context.Context, query ListTasksQuery) ([]TaskDTO, error) {
	tasks, err := h.repo.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	var want domain.TaskType
	if query.Type != "" {
		want = domain.ParseTaskType(query.Type)
	}

	dtos := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		if want != "" && t.Type != want {
			continue
		}
		dtos = append(dtos, toTaskDTO(t))
	}
	return dtos, nil
}
