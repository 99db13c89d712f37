package instance

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/felixgeelhaar/pulse/adapter/cli"
	internalApp "github.com/felixgeelhaar/pulse/internal/app"
	"github.com/felixgeelhaar/pulse/internal/telemetry/application/commands"
	"github.com/felixgeelhaar/pulse/internal/telemetry/application/queries"
	"github.com/felixgeelhaar/pulse/pkg/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *cli.App {
	t.Helper()

	cfg := &config.Config{
		AppEnv:         "test",
		DatabaseDriver: "memory",
		LogLevel:       "error",
	}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := internalApp.NewContainer(context.Background(), cfg, logger, internalApp.WithProfile(&config.Profile{}))
	require.NoError(t, err)

	app := cli.NewApp(container)
	cli.SetApp(app)
	t.Cleanup(func() {
		cli.SetApp(nil)
		cli.SetJSONOutput(false)
		container.Close()
	})
	return app
}

// setFlags sets flag values so they count as changed, and resets them after the test.
func setFlags(t *testing.T, cmd *cobra.Command, values map[string]string) {
	t.Helper()
	for name, v := range values {
		require.NoError(t, cmd.Flags().Set(name, v))
	}
	t.Cleanup(func() {
		for name := range values {
			f := cmd.Flags().Lookup(name)
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
}

func run(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	require.NoError(t, cmd.RunE(cmd, args))
	return out.String()
}

func createTask(t *testing.T, app *cli.App, name, taskType string) uuid.UUID {
	t.Helper()
	result, err := app.CreateTaskHandler.Handle(context.Background(), commands.CreateTaskCommand{
		Name:            name,
		Type:            taskType,
		EstimateMinutes: 30,
	})
	require.NoError(t, err)
	return result.TaskID
}

func instanceIDFrom(t *testing.T, out string) uuid.UUID {
	t.Helper()
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(out), "Instance created:"))
	id, err := uuid.Parse(raw)
	require.NoError(t, err)
	return id
}

func TestCreateCmd_OnlyChangedFlagsArePredicted(t *testing.T) {
	app := setupTestApp(t)
	taskID := createTask(t, app, "Write report", "work")

	setFlags(t, createCmd, map[string]string{"relief": "60"})
	id := instanceIDFrom(t, run(t, createCmd, taskID.String()))

	inst, err := app.GetInstanceHandler.Handle(context.Background(), queries.GetInstanceQuery{InstanceID: id})
	require.NoError(t, err)
	require.NotNil(t, inst.Predicted.ExpectedRelief)
	assert.Equal(t, 60.0, *inst.Predicted.ExpectedRelief)
	assert.Nil(t, inst.Predicted.ExpectedAversion)
	require.NotNil(t, inst.Predicted.TimeEstimateMinutes)
	assert.Equal(t, 30.0, *inst.Predicted.TimeEstimateMinutes)
}

func TestCreateCmd_InvalidTaskID(t *testing.T) {
	setupTestApp(t)
	createCmd.SetContext(context.Background())
	err := createCmd.RunE(createCmd, []string{"not-a-uuid"})
	assert.ErrorContains(t, err, "invalid task ID")
}

func TestLifecycle_CompleteComputesNetRelief(t *testing.T) {
	app := setupTestApp(t)
	taskID := createTask(t, app, "Write report", "work")

	setFlags(t, createCmd, map[string]string{"relief": "40"})
	id := instanceIDFrom(t, run(t, createCmd, taskID.String()))

	assert.Contains(t, run(t, startCmd, id.String()), "Instance started:")

	setFlags(t, completeCmd, map[string]string{"relief": "90", "duration": "25"})
	out := run(t, completeCmd, id.String())
	assert.Contains(t, out, "net relief: 50.00")

	inst, err := app.GetInstanceHandler.Handle(context.Background(), queries.GetInstanceQuery{InstanceID: id})
	require.NoError(t, err)
	assert.Equal(t, "completed", inst.Status)
	require.NotNil(t, inst.Actual.DurationMinutes)
	assert.Equal(t, 25.0, *inst.Actual.DurationMinutes)
	require.NotNil(t, inst.Derived)
	assert.Equal(t, 50.0, inst.Derived.SerendipityFactor)
}

func TestCancelCmd_RejectsSecondCancel(t *testing.T) {
	app := setupTestApp(t)
	taskID := createTask(t, app, "Dishes", "self_care")
	id := instanceIDFrom(t, run(t, createCmd, taskID.String()))

	assert.Contains(t, run(t, cancelCmd, id.String()), "Instance cancelled:")

	err := cancelCmd.RunE(cancelCmd, []string{id.String()})
	assert.Error(t, err)

	inst, err := app.GetInstanceHandler.Handle(context.Background(), queries.GetInstanceQuery{InstanceID: id})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", inst.Status)
}

func TestDeleteCmd_RemovesInstance(t *testing.T) {
	app := setupTestApp(t)
	taskID := createTask(t, app, "Dishes", "self_care")
	id := instanceIDFrom(t, run(t, createCmd, taskID.String()))

	assert.Contains(t, run(t, deleteCmd, id.String()), "Instance deleted:")

	_, err := app.GetInstanceHandler.Handle(context.Background(), queries.GetInstanceQuery{InstanceID: id})
	assert.Error(t, err)
}

func TestListCmd_FiltersByStatusAndType(t *testing.T) {
	app := setupTestApp(t)
	work := createTask(t, app, "Write report", "work")
	play := createTask(t, app, "Guitar", "play")

	first := instanceIDFrom(t, run(t, createCmd, work.String()))
	run(t, createCmd, work.String())
	run(t, createCmd, play.String())
	run(t, completeCmd, first.String())

	cli.SetJSONOutput(true)
	listStatuses, listType = []string{"active"}, "work"
	defer func() { listStatuses, listType = nil, "" }()

	var instances []queries.InstanceDTO
	require.NoError(t, json.Unmarshal([]byte(run(t, listCmd)), &instances))
	require.Len(t, instances, 1)
	assert.Equal(t, "Write report", instances[0].TaskName)
	assert.Equal(t, "active", instances[0].Status)
}

func TestListCmd_Empty(t *testing.T) {
	setupTestApp(t)
	assert.Contains(t, run(t, listCmd), "No instances found.")
}

func TestListCmd_InvalidSince(t *testing.T) {
	setupTestApp(t)
	listSince = "yesterday"
	defer func() { listSince = "" }()

	listCmd.SetContext(context.Background())
	err := listCmd.RunE(listCmd, nil)
	assert.ErrorContains(t, err, "YYYY-MM-DD")
}

func TestCommandsRequireApp(t *testing.T) {
	cli.SetApp(nil)
	startCmd.SetContext(context.Background())
	err := startCmd.RunE(startCmd, []string{uuid.NewString()})
	assert.ErrorIs(t, err, cli.ErrAppNotInitialized)
}
