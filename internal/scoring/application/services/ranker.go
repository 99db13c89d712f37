package services

import (
	"math"
	"sort"

	"github.com/felixgeelhaar/pulse/internal/scoring/domain"
	telemetry "github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
)

// MetricSpec names a score used for ranking and its direction.
type MetricSpec struct {
	Name           string `json:"name"`
	HigherIsBetter bool   `json:"higher_is_better"`
}

// Candidate is a task considered for recommendation, with its per-metric
// scores already normalized to [0, 100].
type Candidate struct {
	TaskID          uuid.UUID          `json:"task_id"`
	Name            string             `json:"name"`
	TaskType        telemetry.TaskType `json:"task_type"`
	EstimateMinutes float64            `json:"estimate_minutes"`
	HasHistory      bool               `json:"has_history"`
	Samples         int                `json:"samples"`
	Scores          map[string]float64 `json:"scores"`
	Annotations     []string           `json:"annotations,omitempty"`
}

// RankFilters reject candidates before scoring.
type RankFilters struct {
	TaskTypes []telemetry.TaskType `json:"task_types,omitempty"`
	// MaxEstimateMinutes rejects tasks estimated longer than this; zero disables it.
	MaxEstimateMinutes float64     `json:"max_estimate_minutes,omitempty"`
	ExcludeTaskIDs     []uuid.UUID `json:"exclude_task_ids,omitempty"`
	// MinScores rejects candidates whose oriented metric score is below the minimum.
	MinScores      map[string]float64 `json:"min_scores,omitempty"`
	RequireHistory bool               `json:"require_history,omitempty"`
}

// RankOptions controls result size and metric weighting.
type RankOptions struct {
	// TopN limits the result; zero returns every candidate.
	TopN int `json:"top_n,omitempty"`
	// Weights switch the combination from a plain mean to a weighted mean.
	Weights map[string]float64 `json:"weights,omitempty"`
}

// RankedResult is one recommendation.
type RankedResult struct {
	Rank            int                `json:"rank"`
	TaskID          uuid.UUID          `json:"task_id"`
	Name            string             `json:"name"`
	TaskType        telemetry.TaskType `json:"task_type"`
	EstimateMinutes float64            `json:"estimate_minutes"`
	Score           float64            `json:"score"`
	Breakdown       map[string]float64 `json:"breakdown"`
	Annotations     []string           `json:"annotations,omitempty"`
}

// Ranker orders candidates deterministically by their combined metric score.
type Ranker struct{}

// NewRanker creates a ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank filters, scores and sorts candidates. Ties on the combined score go
// to the shorter estimate, then to the original candidate order.
func (r *Ranker) Rank(candidates []Candidate, metrics []MetricSpec, filters RankFilters, opts RankOptions) ([]RankedResult, error) {
	if err := validateMetrics(metrics, opts.Weights, filters.MinScores); err != nil {
		return nil, err
	}

	excluded := make(map[uuid.UUID]bool, len(filters.ExcludeTaskIDs))
	for _, id := range filters.ExcludeTaskIDs {
		excluded[id] = true
	}

	results := make([]RankedResult, 0, len(candidates))
	for _, c := range candidates {
		if !passesStaticFilters(c, filters, excluded) {
			continue
		}

		breakdown := make(map[string]float64, len(metrics))
		annotations := append([]string(nil), c.Annotations...)
		for _, m := range metrics {
			s, ok := c.Scores[m.Name]
			if !ok || math.IsNaN(s) || math.IsInf(s, 0) {
				s = domain.NeutralScore
				annotations = appendOnce(annotations, domain.NoteMissingInput)
			}
			s = domain.ClampScore(s)
			if !m.HigherIsBetter {
				s = 100 - s
			}
			breakdown[m.Name] = s
		}

		if !passesMinimums(breakdown, filters.MinScores) {
			continue
		}

		combined, err := combine(breakdown, metrics, opts.Weights)
		if err != nil {
			return nil, err
		}

		results = append(results, RankedResult{
			TaskID:          c.TaskID,
			Name:            c.Name,
			TaskType:        c.TaskType,
			EstimateMinutes: c.EstimateMinutes,
			Score:           combined,
			Breakdown:       breakdown,
			Annotations:     annotations,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return estimateKey(results[i].EstimateMinutes) < estimateKey(results[j].EstimateMinutes)
	})

	if opts.TopN > 0 && len(results) > opts.TopN {
		results = results[:opts.TopN]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

// validateMetrics rejects duplicate or empty metric names, weights and
// minimums naming a metric that was not requested, and invalid weights.
func validateMetrics(metrics []MetricSpec, weights, minimums map[string]float64) error {
	if len(metrics) == 0 {
		return domain.NewConfigurationError("metrics", "", domain.ErrNoMetrics)
	}
	seen := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		if m.Name == "" || seen[m.Name] {
			return domain.NewConfigurationError("metric", m.Name, domain.ErrUnknownMetric)
		}
		seen[m.Name] = true
	}
	for name := range minimums {
		if !seen[name] {
			return domain.NewConfigurationError("min_score", name, domain.ErrUnknownMetric)
		}
	}
	if len(weights) == 0 {
		return nil
	}
	for name := range weights {
		if !seen[name] {
			return domain.NewConfigurationError("weight", name, domain.ErrUnknownMetric)
		}
	}
	return domain.ValidateWeights(weights)
}

func passesStaticFilters(c Candidate, f RankFilters, excluded map[uuid.UUID]bool) bool {
	if excluded[c.TaskID] {
		return false
	}
	if f.RequireHistory && !c.HasHistory {
		return false
	}
	if f.MaxEstimateMinutes > 0 && c.EstimateMinutes > f.MaxEstimateMinutes {
		return false
	}
	if len(f.TaskTypes) > 0 {
		for _, t := range f.TaskTypes {
			if t == c.TaskType {
				return true
			}
		}
		return false
	}
	return true
}

func passesMinimums(breakdown map[string]float64, minimums map[string]float64) bool {
	for name, floor := range minimums {
		if breakdown[name] < floor {
			return false
		}
	}
	return true
}

func combine(breakdown map[string]float64, metrics []MetricSpec, weights map[string]float64) (float64, error) {
	if len(weights) > 0 {
		return domain.Composite(breakdown, weights)
	}
	var sum float64
	for _, m := range metrics {
		sum += breakdown[m.Name]
	}
	return sum / float64(len(metrics)), nil
}

// estimateKey sorts unknown estimates after every known one.
func estimateKey(minutes float64) float64 {
	if minutes <= 0 {
		return math.Inf(1)
	}
	return minutes
}

func appendOnce(notes []string, note string) []string {
	for _, n := range notes {
		if n == note {
			return notes
		}
	}
	return append(notes, note)
}
