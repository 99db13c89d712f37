package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
)

// sqliteTimeLayout is fixed width so stored timestamps sort as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteRepository implements domain.Repository on SQLite.
type SQLiteRepository struct {
	conn database.Connection
}

// NewSQLiteRepository creates a repository over a migrated SQLite connection.
func NewSQLiteRepository(conn database.Connection) *SQLiteRepository {
	return &SQLiteRepository{conn: conn}
}

var _ domain.Repository = (*SQLiteRepository)(nil)

func (r *SQLiteRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func nullSQLiteTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatSQLiteTime(*t), Valid: true}
}

func (r *SQLiteRepository) SaveTask(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (id, name, task_type, time_estimate_minutes, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			task_type = excluded.task_type,
			time_estimate_minutes = excluded.time_estimate_minutes
	`
	_, err := r.exec(ctx).Exec(ctx, query,
		task.ID.String(),
		task.Name,
		string(task.Type),
		task.TimeEstimateMinutes,
		formatSQLiteTime(task.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT id, name, task_type, time_estimate_minutes, created_at FROM tasks WHERE id = ?`
	task, err := scanSQLiteTask(r.exec(ctx).QueryRow(ctx, query, id.String()))
	if database.IsNoRows(err) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

func (r *SQLiteRepository) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	query := `SELECT id, name, task_type, time_estimate_minutes, created_at FROM tasks ORDER BY created_at, name`
	rows, err := r.exec(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanSQLiteTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanSQLiteTask(row database.Row) (*domain.Task, error) {
	var (
		id, name, taskType, createdAt string
		estimate                      float64
	)
	if err := row.Scan(&id, &name, &taskType, &estimate, &createdAt); err != nil {
		return nil, err
	}
	taskID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid task id %q: %w", id, err)
	}
	created, err := parseSQLiteTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &domain.Task{
		ID:                  taskID,
		Name:                name,
		Type:                domain.TaskType(taskType),
		TimeEstimateMinutes: estimate,
		CreatedAt:           created,
	}, nil
}

func (r *SQLiteRepository) SaveInstance(ctx context.Context, inst *domain.TaskInstance) error {
	payload, err := encodePayload(inst)
	if err != nil {
		return err
	}

	var derived sql.NullString
	if payload.Derived != nil {
		derived = sql.NullString{String: *payload.Derived, Valid: true}
	}

	query := `
		INSERT INTO task_instances (
			id, task_id, status, predicted, actual, derived,
			initialized_at, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			predicted = excluded.predicted,
			actual = excluded.actual,
			derived = excluded.derived,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at
	`
	_, err = r.exec(ctx).Exec(ctx, query,
		inst.ID.String(),
		inst.TaskID.String(),
		string(inst.Status),
		payload.Predicted,
		payload.Actual,
		derived,
		formatSQLiteTime(inst.InitializedAt),
		nullSQLiteTime(inst.StartedAt),
		nullSQLiteTime(inst.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save instance: %w", err)
	}
	return nil
}

const sqliteInstanceColumns = `id, task_id, status, predicted, actual, derived, initialized_at, started_at, completed_at`

func (r *SQLiteRepository) GetInstance(ctx context.Context, id uuid.UUID) (*domain.TaskInstance, error) {
	query := `SELECT ` + sqliteInstanceColumns + ` FROM task_instances WHERE id = ?`
	inst, err := scanSQLiteInstance(r.exec(ctx).QueryRow(ctx, query, id.String()))
	if database.IsNoRows(err) {
		return nil, domain.ErrInstanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	return inst, nil
}

func (r *SQLiteRepository) ListInstances(ctx context.Context, filter domain.InstanceFilter) ([]*domain.TaskInstance, error) {
	var (
		where []string
		args  []any
	)
	if len(filter.TaskIDs) > 0 {
		where = append(where, "task_id IN ("+placeholders(len(filter.TaskIDs))+")")
		for _, id := range filter.TaskIDs {
			args = append(args, id.String())
		}
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, s := range filter.Statuses {
			args = append(args, string(s))
		}
	}
	if filter.CompletedAfter != nil {
		where = append(where, "completed_at >= ?")
		args = append(args, formatSQLiteTime(*filter.CompletedAfter))
	}
	if filter.CompletedBefore != nil {
		where = append(where, "completed_at < ?")
		args = append(args, formatSQLiteTime(*filter.CompletedBefore))
	}

	query := `SELECT ` + sqliteInstanceColumns + ` FROM task_instances`
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
		inst, err := scanSQLiteInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

func (r *SQLiteRepository) DeleteInstance(ctx context.Context, id uuid.UUID) error {
	result, err := r.exec(ctx).Exec(ctx, `DELETE FROM task_instances WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete instance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete instance: %w", err)
	}
	if affected == 0 {
		return domain.ErrInstanceNotFound
	}
	return nil
}

func scanSQLiteInstance(row database.Row) (*domain.TaskInstance, error) {
	var (
		id, taskID, status, predicted, actual, initializedAt string
		derived, startedAt, completedAt                      sql.NullString
	)
	if err := row.Scan(&id, &taskID, &status, &predicted, &actual, &derived, &initializedAt, &startedAt, &completedAt); err != nil {
		return nil, err
	}

	inst := &domain.TaskInstance{Status: domain.Status(status)}
	var err error
	if inst.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid instance id %q: %w", id, err)
	}
	if inst.TaskID, err = uuid.Parse(taskID); err != nil {
		return nil, fmt.Errorf("invalid task id %q: %w", taskID, err)
	}
	if inst.InitializedAt, err = parseSQLiteTime(initializedAt); err != nil {
		return nil, err
	}
	if inst.StartedAt, err = parseNullSQLiteTime(startedAt); err != nil {
		return nil, err
	}
	if inst.CompletedAt, err = parseNullSQLiteTime(completedAt); err != nil {
		return nil, err
	}

	payload := instancePayload{Predicted: predicted, Actual: actual}
	if derived.Valid {
		payload.Derived = &derived.String
	}
	if err := payload.decodeInto(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func parseNullSQLiteTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseSQLiteTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
