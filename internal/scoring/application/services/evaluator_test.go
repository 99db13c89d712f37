package services

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/pulse/internal/scoring/domain"
	telemetry "github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluator_Table(t *testing.T) {
	h := newHistory(t)
	task := h.task("code", telemetry.TaskTypeWork, 60)
	later := h.complete(task, daysAgo(1), 60, telemetry.Actual{CompletionPercent: telemetry.Float(100)})
	earlier := h.complete(task, daysAgo(2), 30, telemetry.Actual{CompletionPercent: telemetry.Float(100)})
	h.open(task)

	e := NewEvaluator(NewDefaultScorerRegistry())
	rows, err := e.Table(h.frame(), []string{ScorerSpeed, ScorerProductivity}, domain.DefaultEvalEnv())
	require.NoError(t, err)

	require.Len(t, rows, 2, "open instances are not listed")
	assert.Equal(t, earlier.ID, rows[0].InstanceID)
	assert.Equal(t, later.ID, rows[1].InstanceID)
	assert.Equal(t, 100.0, rows[0].Scores[ScorerSpeed])
	assert.InDelta(t, 300.0, rows[1].Scores[ScorerProductivity], 1e-9)

	_, err = e.Table(h.frame(), []string{"nope"}, domain.DefaultEvalEnv())
	assert.ErrorIs(t, err, domain.ErrUnknownScorer)
}

func TestEvaluator_Scores(t *testing.T) {
	h := newHistory(t)
	task := h.task("code", telemetry.TaskTypeWork, 60)
	done := h.complete(task, daysAgo(1), 60, telemetry.Actual{})
	open := h.open(task)

	scores, err := NewEvaluator(NewDefaultScorerRegistry()).Scores(h.frame(), ScorerCompletion, domain.DefaultEvalEnv())
	require.NoError(t, err)
	assert.Equal(t, 100.0, scores[done.ID].Value)
	assert.True(t, scores[done.ID].Defaulted)
	assert.Equal(t, 0.0, scores[open.ID].Value)
}

func TestEvaluator_Candidates(t *testing.T) {
	h := newHistory(t)
	practiced := h.task("code", telemetry.TaskTypeWork, 60)
	fresh := h.task("paint", telemetry.TaskTypePlay, 45)

	h.complete(practiced, daysAgo(1), 30, telemetry.Actual{CompletionPercent: telemetry.Float(100)})
	h.complete(practiced, daysAgo(2), 60, telemetry.Actual{CompletionPercent: telemetry.Float(100)})
	h.complete(practiced, daysAgo(90), 240, telemetry.Actual{CompletionPercent: telemetry.Float(100)})

	e := NewEvaluator(NewDefaultScorerRegistry())
	metrics := []MetricSpec{{Name: ScorerSpeed, HigherIsBetter: true}, {Name: ScorerProductivity, HigherIsBetter: true}}
	candidates, err := e.Candidates(h.frame(), h.taskList(), metrics, domain.DefaultEvalEnv(), daysAgo(30), now)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	byName := map[string]Candidate{}
	for _, c := range candidates {
		byName[c.Name] = c
	}

	code := byName["code"]
	assert.True(t, code.HasHistory)
	assert.Equal(t, 2, code.Samples, "instances outside the window are ignored")
	assert.InDelta(t, 75.0, code.Scores[ScorerSpeed], 1e-9)

	paint := byName["paint"]
	assert.Equal(t, fresh.ID, paint.TaskID)
	assert.False(t, paint.HasHistory)
	assert.Equal(t, 50.0, paint.Scores[ScorerSpeed])
	assert.Equal(t, 0.0, paint.Scores[ScorerProductivity])
	assert.Contains(t, paint.Annotations, domain.NoteNoHistory)

	_, err = e.Candidates(h.frame(), h.taskList(), []MetricSpec{{Name: "mood"}}, domain.DefaultEvalEnv(), time.Time{}, now)
	assert.ErrorIs(t, err, domain.ErrUnknownScorer)
}
