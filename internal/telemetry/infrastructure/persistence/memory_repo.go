// Package persistence stores tasks and task instances.
package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
)

// MemoryRepository keeps telemetry in process memory. Values are copied on
// the way in and out.
type MemoryRepository struct {
	mu        sync.RWMutex
	tasks     map[uuid.UUID]*domain.Task
	instances map[uuid.UUID]*domain.TaskInstance
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tasks:     make(map[uuid.UUID]*domain.Task),
		instances: make(map[uuid.UUID]*domain.TaskInstance),
	}
}

var _ domain.Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) SaveTask(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := *task
	r.tasks[task.ID] = &t
	return nil
}

func (r *MemoryRepository) GetTask(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	c := *t
	return &c, nil
}

func (r *MemoryRepository) ListTasks(_ context.Context) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		c := *t
		out = append(out, &c)
	}
	sortTasks(out)
	return out, nil
}

func (r *MemoryRepository) SaveInstance(_ context.Context, inst *domain.TaskInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[inst.ID] = inst.Clone()
	return nil
}

func (r *MemoryRepository) GetInstance(_ context.Context, id uuid.UUID) (*domain.TaskInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	if !ok {
		return nil, domain.ErrInstanceNotFound
	}
	return inst.Clone(), nil
}

func (r *MemoryRepository) ListInstances(_ context.Context, filter domain.InstanceFilter) ([]*domain.TaskInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.TaskInstance, 0, len(r.instances))
	for _, inst := range r.instances {
		if filter.Matches(inst) {
			out = append(out, inst.Clone())
		}
	}
	sortInstances(out)
	return out, nil
}

func (r *MemoryRepository) DeleteInstance(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[id]; !ok {
		return domain.ErrInstanceNotFound
	}
	delete(r.instances, id)
	return nil
}

// sortTasks orders by creation time, then name, then id.
func sortTasks(tasks []*domain.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID.String() < b.ID.String()
	})
}

// sortInstances orders by initialization time, then id.
func sortInstances(instances []*domain.TaskInstance) {
	sort.Slice(instances, func(i, j int) bool {
		a, b := instances[i], instances[j]
		if !a.InitializedAt.Equal(b.InitializedAt) {
			return a.InitializedAt.Before(b.InitializedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}
