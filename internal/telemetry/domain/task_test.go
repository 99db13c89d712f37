package domain_test

import (
	"testing"

	"github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	task, err := domain.NewTask("  Write report ", domain.TaskTypeWork, 60)
	require.NoError(t, err)
	assert.Equal(t, "Write report", task.Name)
	assert.Equal(t, domain.TaskTypeWork, task.Type)

	_, err = domain.NewTask("   ", domain.TaskTypeWork, 60)
	assert.ErrorIs(t, err, domain.ErrEmptyTaskName)

	_, err = domain.NewTask("x", domain.TaskTypeWork, -1)
	assert.ErrorIs(t, err, domain.ErrNegativeEstimate)

	task, err = domain.NewTask("Walk", "", 20)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskTypeOther, task.Type)
}

func TestParseTaskType(t *testing.T) {
	assert.Equal(t, domain.TaskTypeWork, domain.ParseTaskType("Work"))
	assert.Equal(t, domain.TaskTypeSelfCare, domain.ParseTaskType("self-care"))
	assert.Equal(t, domain.TaskTypeSelfCare, domain.ParseTaskType("self care"))
	assert.Equal(t, domain.TaskTypePlay, domain.ParseTaskType("play"))
	assert.Equal(t, domain.TaskTypeOther, domain.ParseTaskType("chores"))
	assert.True(t, domain.IsKnownTaskType("self_care"))
	assert.False(t, domain.IsKnownTaskType("chores"))
}
