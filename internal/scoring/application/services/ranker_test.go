package services

import (
	"math"
	"testing"

	"github.com/felixgeelhaar/pulse/internal/scoring/domain"
	telemetry "github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(name string, taskType telemetry.TaskType, estimate float64, scores map[string]float64) Candidate {
	return Candidate{
		TaskID:          uuid.New(),
		Name:            name,
		TaskType:        taskType,
		EstimateMinutes: estimate,
		HasHistory:      true,
		Scores:          scores,
	}
}

func names(results []RankedResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Name
	}
	return out
}

func TestRanker_OrdersByCombinedScore(t *testing.T) {
	candidates := []Candidate{
		candidate("a", telemetry.TaskTypeWork, 30, map[string]float64{"relief": 60, "stress": 40}),
		candidate("b", telemetry.TaskTypeWork, 30, map[string]float64{"relief": 90, "stress": 80}),
		candidate("c", telemetry.TaskTypePlay, 30, map[string]float64{"relief": 70, "stress": 10}),
	}
	metrics := []MetricSpec{{Name: "relief", HigherIsBetter: true}, {Name: "stress", HigherIsBetter: false}}

	results, err := NewRanker().Rank(candidates, metrics, RankFilters{}, RankOptions{})
	require.NoError(t, err)

	// a: (60+60)/2=60, b: (90+20)/2=55, c: (70+90)/2=80
	assert.Equal(t, []string{"c", "a", "b"}, names(results))
	assert.Equal(t, 1, results[0].Rank)
	assert.InDelta(t, 80.0, results[0].Score, 1e-9)
	assert.Equal(t, 90.0, results[0].Breakdown["stress"], "lower is better inverts")
}

func TestRanker_TieBreaksAreDeterministic(t *testing.T) {
	scores := map[string]float64{"execution": 50}
	candidates := []Candidate{
		candidate("long", telemetry.TaskTypeWork, 90, scores),
		candidate("unknown", telemetry.TaskTypeWork, 0, scores),
		candidate("short-1", telemetry.TaskTypeWork, 15, scores),
		candidate("short-2", telemetry.TaskTypeWork, 15, scores),
	}
	metrics := []MetricSpec{{Name: "execution", HigherIsBetter: true}}

	for i := 0; i < 5; i++ {
		results, err := NewRanker().Rank(candidates, metrics, RankFilters{}, RankOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"short-1", "short-2", "long", "unknown"}, names(results))
	}
}

func TestRanker_Filters(t *testing.T) {
	work := candidate("work", telemetry.TaskTypeWork, 30, map[string]float64{"relief": 70})
	long := candidate("long", telemetry.TaskTypeWork, 240, map[string]float64{"relief": 90})
	play := candidate("play", telemetry.TaskTypePlay, 30, map[string]float64{"relief": 80})
	low := candidate("low", telemetry.TaskTypeWork, 30, map[string]float64{"relief": 20})
	fresh := candidate("fresh", telemetry.TaskTypeWork, 30, map[string]float64{"relief": 50})
	fresh.HasHistory = false
	candidates := []Candidate{work, long, play, low, fresh}
	metrics := []MetricSpec{{Name: "relief", HigherIsBetter: true}}

	tests := []struct {
		name    string
		filters RankFilters
		want    []string
	}{
		{"none", RankFilters{}, []string{"long", "play", "work", "fresh", "low"}},
		{"task types", RankFilters{TaskTypes: []telemetry.TaskType{telemetry.TaskTypePlay}}, []string{"play"}},
		{"max estimate", RankFilters{MaxEstimateMinutes: 60}, []string{"play", "work", "fresh", "low"}},
		{"excluded ids", RankFilters{ExcludeTaskIDs: []uuid.UUID{long.TaskID, play.TaskID}}, []string{"work", "fresh", "low"}},
		{"minimum", RankFilters{MinScores: map[string]float64{"relief": 60}}, []string{"long", "play", "work"}},
		{"require history", RankFilters{RequireHistory: true}, []string{"long", "play", "work", "low"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := NewRanker().Rank(candidates, metrics, tt.filters, RankOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(results))
		})
	}
}

func TestRanker_WeightsAndTopN(t *testing.T) {
	candidates := []Candidate{
		candidate("relieving", telemetry.TaskTypeWork, 30, map[string]float64{"relief": 100, "execution": 0}),
		candidate("executing", telemetry.TaskTypeWork, 30, map[string]float64{"relief": 0, "execution": 80}),
	}
	metrics := []MetricSpec{{Name: "relief", HigherIsBetter: true}, {Name: "execution", HigherIsBetter: true}}

	results, err := NewRanker().Rank(candidates, metrics, RankFilters{}, RankOptions{
		TopN:    1,
		Weights: map[string]float64{"execution": 3, "relief": 1},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "executing", results[0].Name)
	assert.InDelta(t, 60.0, results[0].Score, 1e-9)
}

func TestRanker_MissingScoreIsNeutral(t *testing.T) {
	c := candidate("sparse", telemetry.TaskTypeOther, 10, map[string]float64{})
	results, err := NewRanker().Rank([]Candidate{c}, []MetricSpec{{Name: "stress"}}, RankFilters{}, RankOptions{})
	require.NoError(t, err)
	assert.Equal(t, 50.0, results[0].Score)
	assert.Contains(t, results[0].Annotations, domain.NoteMissingInput)
}

func TestRanker_ConfigurationErrors(t *testing.T) {
	r := NewRanker()
	c := []Candidate{candidate("a", telemetry.TaskTypeWork, 10, nil)}

	_, err := r.Rank(c, nil, RankFilters{}, RankOptions{})
	assert.ErrorIs(t, err, domain.ErrNoMetrics)

	metrics := []MetricSpec{{Name: "relief", HigherIsBetter: true}}
	_, err = r.Rank(c, metrics, RankFilters{}, RankOptions{Weights: map[string]float64{"relief": 0}})
	assert.ErrorIs(t, err, domain.ErrZeroWeights)

	_, err = r.Rank(c, metrics, RankFilters{}, RankOptions{Weights: map[string]float64{"speed": 1}})
	assert.ErrorIs(t, err, domain.ErrUnknownMetric)

	_, err = r.Rank(c, append(metrics, metrics[0]), RankFilters{}, RankOptions{})
	assert.True(t, domain.IsConfigurationError(err))

	_, err = r.Rank(c, metrics, RankFilters{MinScores: map[string]float64{"speed": 40}}, RankOptions{})
	assert.ErrorIs(t, err, domain.ErrUnknownMetric)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestRanker_RejectsInvalidWeights(t *testing.T) {
	c := []Candidate{
		candidate("a", telemetry.TaskTypeWork, 10, map[string]float64{"relief": 0, "execution": 100}),
	}
	metrics := []MetricSpec{
		{Name: "relief", HigherIsBetter: true},
		{Name: "execution", HigherIsBetter: true},
	}

	tests := []struct {
		name    string
		weights map[string]float64
	}{
		{"negative", map[string]float64{"relief": 2, "execution": -1}},
		{"infinite", map[string]float64{"relief": 1, "execution": math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := NewRanker().Rank(c, metrics, RankFilters{}, RankOptions{Weights: tt.weights})
			assert.ErrorIs(t, err, domain.ErrInvalidWeight)
			assert.Nil(t, results)
		})
	}
}
