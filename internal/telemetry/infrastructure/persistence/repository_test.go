package persistence_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/database/postgres"
	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/felixgeelhaar/pulse/internal/telemetry/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestMemoryRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) domain.Repository {
		return persistence.NewMemoryRepository()
	})
}

func TestSQLiteRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) domain.Repository {
		ctx := context.Background()
		conn, err := sqlite.NewConnection(ctx, database.Config{
			SQLitePath: filepath.Join(t.TempDir(), "pulse.db"),
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		require.NoError(t, migrations.Run(ctx, conn))
		return persistence.NewSQLiteRepository(conn)
	})
}

func TestPostgresRepository(t *testing.T) {
	url := os.Getenv("PULSE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PULSE_TEST_DATABASE_URL not set")
	}
	runRepositoryContract(t, func(t *testing.T) domain.Repository {
		ctx := context.Background()
		conn, err := postgres.NewConnection(ctx, database.Config{URL: url})
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		require.NoError(t, migrations.Run(ctx, conn))
		_, err = conn.Exec(ctx, `TRUNCATE task_instances, tasks`)
		require.NoError(t, err)
		return persistence.NewPostgresRepository(conn)
	})
}

func TestSQLiteRepository_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: ":memory:"})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, migrations.Run(ctx, conn))

	repo := persistence.NewSQLiteRepository(conn)
	uow := database.NewUnitOfWork(conn)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	task := newTask(t, "Inbox zero", domain.TaskTypeWork, 20)
	require.NoError(t, repo.SaveTask(txCtx, task))
	_, err = repo.GetTask(txCtx, task.ID)
	require.NoError(t, err, "visible inside the transaction")
	require.NoError(t, uow.Rollback(txCtx))

	_, err = repo.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func newTask(t *testing.T, name string, taskType domain.TaskType, estimate float64) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(name, taskType, estimate)
	require.NoError(t, err)
	task.CreatedAt = base
	return task
}

func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) domain.Repository) {
	ctx := context.Background()

	t.Run("task round trip and upsert", func(t *testing.T) {
		repo := newRepo(t)
		task := newTask(t, "Write report", domain.TaskTypeWork, 45)
		require.NoError(t, repo.SaveTask(ctx, task))

		got, err := repo.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.Name, got.Name)
		assert.Equal(t, domain.TaskTypeWork, got.Type)
		assert.Equal(t, 45.0, got.TimeEstimateMinutes)
		assert.True(t, task.CreatedAt.Equal(got.CreatedAt))

		task.Name = "Write quarterly report"
		require.NoError(t, repo.SaveTask(ctx, task))
		tasks, err := repo.ListTasks(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Write quarterly report", tasks[0].Name)
	})

	t.Run("missing task", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetTask(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("tasks ordered by creation", func(t *testing.T) {
		repo := newRepo(t)
		later := newTask(t, "Later", domain.TaskTypePlay, 10)
		later.CreatedAt = base.Add(time.Hour)
		earlier := newTask(t, "Earlier", domain.TaskTypeSelfCare, 10)
		require.NoError(t, repo.SaveTask(ctx, later))
		require.NoError(t, repo.SaveTask(ctx, earlier))

		tasks, err := repo.ListTasks(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "Earlier", tasks[0].Name)
		assert.Equal(t, "Later", tasks[1].Name)
	})

	t.Run("instance payloads survive round trip", func(t *testing.T) {
		repo := newRepo(t)
		task := newTask(t, "Gym", domain.TaskTypeSelfCare, 60)
		require.NoError(t, repo.SaveTask(ctx, task))

		inst := domain.NewTaskInstance(task.ID, domain.Predicted{
			ExpectedRelief:      domain.Float(60),
			ExpectedAversion:    domain.Float(40),
			TimeEstimateMinutes: domain.Float(60),
		}, base)
		require.NoError(t, repo.SaveInstance(ctx, inst))

		got, err := repo.GetInstance(ctx, inst.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusActive, got.Status)
		assert.Nil(t, got.StartedAt)
		assert.Nil(t, got.CompletedAt)
		assert.Nil(t, got.Derived)
		assert.Equal(t, inst.Predicted, got.Predicted)
		assert.Nil(t, got.Predicted.CognitiveLoad, "absent stays absent")

		require.NoError(t, got.Start(base.Add(5*time.Minute)))
		require.NoError(t, got.Complete(domain.Actual{
			ActualRelief:      domain.Float(75),
			CompletionPercent: domain.Float(100),
			DurationMinutes:   domain.Float(55),
		}, base.Add(time.Hour)))
		require.NoError(t, repo.SaveInstance(ctx, got))

		done, err := repo.GetInstance(ctx, inst.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, done.Status)
		require.NotNil(t, done.StartedAt)
		require.NotNil(t, done.CompletedAt)
		assert.True(t, base.Add(5*time.Minute).Equal(*done.StartedAt))
		assert.True(t, base.Add(time.Hour).Equal(*done.CompletedAt))
		require.NotNil(t, done.Derived)
		assert.InDelta(t, 15, done.Derived.NetRelief, 1e-9)
		assert.InDelta(t, 15, done.Derived.SerendipityFactor, 1e-9)
		assert.Equal(t, 55.0, *done.Actual.DurationMinutes)
	})

	t.Run("list filters", func(t *testing.T) {
		repo := newRepo(t)
		work := newTask(t, "Code review", domain.TaskTypeWork, 30)
		play := newTask(t, "Piano", domain.TaskTypePlay, 30)
		require.NoError(t, repo.SaveTask(ctx, work))
		require.NoError(t, repo.SaveTask(ctx, play))

		completedAt := func(offset time.Duration) *domain.TaskInstance {
			inst := domain.NewTaskInstance(work.ID, domain.Predicted{}, base.Add(offset-time.Hour))
			require.NoError(t, inst.Complete(domain.Actual{}, base.Add(offset)))
			require.NoError(t, repo.SaveInstance(ctx, inst))
			return inst
		}
		first := completedAt(0)
		second := completedAt(24 * time.Hour)
		open := domain.NewTaskInstance(play.ID, domain.Predicted{}, base.Add(48*time.Hour))
		require.NoError(t, repo.SaveInstance(ctx, open))

		all, err := repo.ListInstances(ctx, domain.InstanceFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []uuid.UUID{first.ID, second.ID, open.ID}, ids(all))

		byTask, err := repo.ListInstances(ctx, domain.InstanceFilter{TaskIDs: []uuid.UUID{play.ID}})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{open.ID}, ids(byTask))

		byStatus, err := repo.ListInstances(ctx, domain.InstanceFilter{Statuses: []domain.Status{domain.StatusCompleted}})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{first.ID, second.ID}, ids(byStatus))

		after := base.Add(time.Hour)
		before := base.Add(48 * time.Hour)
		window, err := repo.ListInstances(ctx, domain.InstanceFilter{CompletedAfter: &after, CompletedBefore: &before})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{second.ID}, ids(window))
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		inst := domain.NewTaskInstance(uuid.New(), domain.Predicted{}, base)
		require.NoError(t, repo.SaveInstance(ctx, inst))

		require.NoError(t, repo.DeleteInstance(ctx, inst.ID))
		_, err := repo.GetInstance(ctx, inst.ID)
		assert.ErrorIs(t, err, domain.ErrInstanceNotFound)
		assert.ErrorIs(t, repo.DeleteInstance(ctx, inst.ID), domain.ErrInstanceNotFound)
	})
}

func ids(instances []*domain.TaskInstance) []uuid.UUID {
	out := make([]uuid.UUID, len(instances))
	for i, inst := range instances {
		out[i] = inst.ID
	}
	return out
}
