package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
)

// PostgresRepository implements domain.Repository on PostgreSQL.
type PostgresRepository struct {
	conn database.Connection
}

// NewPostgresRepository creates a repository over a migrated connection.
func NewPostgresRepository(conn database.Connection) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

var _ domain.Repository = (*PostgresRepository)(nil)

func (r *PostgresRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *PostgresRepository) SaveTask(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (id, name, task_type, time_estimate_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			task_type = EXCLUDED.task_type,
			time_estimate_minutes = EXCLUDED.time_estimate_minutes
	`
	_, err := r.exec(ctx).Exec(ctx, query,
		task.ID,
		task.Name,
		string(task.Type),
		task.TimeEstimateMinutes,
		task.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT id, name, task_type, time_estimate_minutes, created_at FROM tasks WHERE id = $1`
	task, err := scanPostgresTask(r.exec(ctx).QueryRow(ctx, query, id))
	if database.IsNoRows(err) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

func (r *PostgresRepository) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	query := `SELECT id, name, task_type, time_estimate_minutes, created_at FROM tasks ORDER BY created_at, name`
	rows, err := r.exec(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanPostgresTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanPostgresTask(row database.Row) (*domain.Task, error) {
	var (
		task     domain.Task
		taskType string
	)
	if err := row.Scan(&task.ID, &task.Name, &taskType, &task.TimeEstimateMinutes, &task.CreatedAt); err != nil {
		return nil, err
	}
	task.Type = domain.TaskType(taskType)
	task.CreatedAt = task.CreatedAt.UTC()
	return &task, nil
}

func (r *PostgresRepository) SaveInstance(ctx context.Context, inst *domain.TaskInstance) error {
	payload, err := encodePayload(inst)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO task_instances (
			id, task_id, status, predicted, actual, derived,
			initialized_at, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			predicted = EXCLUDED.predicted,
			actual = EXCLUDED.actual,
			derived = EXCLUDED.derived,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at
	`
	_, err = r.exec(ctx).Exec(ctx, query,
		inst.ID,
		inst.TaskID,
		string(inst.Status),
		payload.Predicted,
		payload.Actual,
		payload.Derived,
		inst.InitializedAt.UTC(),
		inst.StartedAt,
		inst.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save instance: %w", err)
	}
	return nil
}

const postgresInstanceColumns = `id, task_id, status, predicted::text, actual::text, derived::text, initialized_at, started_at, completed_at`

func (r *PostgresRepository) GetInstance(ctx context.Context, id uuid.UUID) (*domain.TaskInstance, error) {
	query := `SELECT ` + postgresInstanceColumns + ` FROM task_instances WHERE id = $1`
	inst, err := scanPostgresInstance(r.exec(ctx).QueryRow(ctx, query, id))
	if database.IsNoRows(err) {
		return nil, domain.ErrInstanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	return inst, nil
}

func (r *PostgresRepository) ListInstances(ctx context.Context, filter domain.InstanceFilter) ([]*domain.TaskInstance, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.TaskIDs) > 0 {
		ids := make([]string, len(filter.TaskIDs))
		for i, id := range filter.TaskIDs {
			ids[i] = id.String()
		}
		where = append(where, "task_id::text = ANY("+arg(ids)+")")
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, "status = ANY("+arg(statuses)+")")
	}
	if filter.CompletedAfter != nil {
		where = append(where, "completed_at >= "+arg(filter.CompletedAfter.UTC()))
	}
	if filter.CompletedBefore != nil {
		where = append(where, "completed_at < "+arg(filter.CompletedBefore.UTC()))
	}

	query := `SELECT ` + postgresInstanceColumns + ` FROM task_instances`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY initialized_at, id"

	rows, err := r.exec(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	defer rows.Close()

	var instances []*domain.TaskInstance
	for rows.Next() {
		inst, err := scanPostgresInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

func (r *PostgresRepository) DeleteInstance(ctx context.Context, id uuid.UUID) error {
	result, err := r.exec(ctx).Exec(ctx, `DELETE FROM task_instances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete instance: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrInstanceNotFound
	}
	return nil
}

func scanPostgresInstance(row database.Row) (*domain.TaskInstance, error) {
	var (
		inst                   domain.TaskInstance
		status                 string
		payload                instancePayload
		startedAt, completedAt *time.Time
	)
	err := row.Scan(
		&inst.ID,
		&inst.TaskID,
		&status,
		&payload.Predicted,
		&payload.Actual,
		&payload.Derived,
		&inst.InitializedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	inst.Status = domain.Status(status)
	inst.InitializedAt = inst.InitializedAt.UTC()
	if startedAt != nil {
		t := startedAt.UTC()
		inst.StartedAt = &t
	}
	if completedAt != nil {
		t := completedAt.UTC()
		inst.CompletedAt = &t
	}
	if err := payload.decodeInto(&inst); err != nil {
		return nil, err
	}
	return &inst, nil
}
