package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/felixgeelhaar/pulse/internal/scoring/domain"
)

// Scorer names shipped with the default registry.
const (
	ScorerDifficulty   = "difficulty"
	ScorerSpeed        = "speed"
	ScorerStartSpeed   = "start_speed"
	ScorerCompletion   = "completion"
	ScorerExecution    = "execution"
	ScorerProductivity = "productivity"
	ScorerRelief       = "relief"
	ScorerNetRelief    = "net_relief"
	ScorerStress       = "stress"
)

// FormulaVersion tags every score produced by the built-in formulas.
const FormulaVersion = "v1"

// BatchFunc evaluates a scorer over every row of a frame.
type BatchFunc func(f *domain.Frame, env domain.EvalEnv) domain.Series

// ScorerDefinition describes one named scorer.
type ScorerDefinition struct {
	Name        string
	Description string
	Batch       BatchFunc
	// RequiredFields lists the telemetry fields the formula reads. Missing
	// fields fall back to neutral defaults rather than failing.
	RequiredFields []string
	Bound          domain.Bound
	// Default is the neutral score used when an instance has no data.
	Default float64
	// Min and Optimum bound points scores when they enter a composite.
	Min     float64
	Optimum float64
	Version string
	// HigherIsBetter is false for scores such as stress where rankings invert.
	HigherIsBetter bool
}

// Func scores row i of the frame. The whole frame is evaluated so that
// history-dependent scorers see the rows around i.
func (d ScorerDefinition) Func(f *domain.Frame, i int, env domain.EvalEnv) domain.Score {
	s := d.Batch(f, env)
	score := domain.Score{
		Name:    d.Name,
		Value:   s.Values[i],
		Bound:   d.Bound,
		Version: d.Version,
	}
	if s.Defaulted[i] {
		score.Annotations = append(score.Annotations, domain.NoteMissingInput)
	}
	return score
}

// Normalize maps a raw score onto [0, 100]. Percent scores pass through
// clamped; points scores are bounded by [Min, Optimum].
func (d ScorerDefinition) Normalize(v float64) float64 {
	if d.Bound == domain.BoundPoints {
		return domain.NormalizeToBound(v, d.Min, d.Optimum)
	}
	return domain.ClampScore(v)
}

// ScorerRegistry maps scorer names to their definitions.
type ScorerRegistry struct {
	mu      sync.RWMutex
	scorers map[string]ScorerDefinition
}

// NewScorerRegistry creates an empty registry.
func NewScorerRegistry() *ScorerRegistry {
	return &ScorerRegistry{scorers: make(map[string]ScorerDefinition)}
}

// Register adds a scorer. Names must be unique.
func (r *ScorerRegistry) Register(def ScorerDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("scorer name is required")
	}
	if def.Batch == nil {
		return fmt.Errorf("scorer %q has no batch function", def.Name)
	}
	if def.Version == "" {
		def.Version = FormulaVersion
	}
	if def.Bound == "" {
		def.Bound = domain.BoundPercent
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.scorers[def.Name]; exists {
		return fmt.Errorf("scorer %q already registered", def.Name)
	}
	r.scorers[def.Name] = def
	return nil
}

// Get returns the named scorer or a configuration error.
func (r *ScorerRegistry) Get(name string) (ScorerDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.scorers[name]
	if !ok {
		return ScorerDefinition{}, domain.NewConfigurationError("scorer", name, domain.ErrUnknownScorer)
	}
	return def, nil
}

// Names returns every registered scorer name in sorted order.
func (r *ScorerRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.scorers))
	for name := range r.scorers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns every registered scorer sorted by name.
func (r *ScorerRegistry) Definitions() []ScorerDefinition {
	names := r.Names()
	defs := make([]ScorerDefinition, 0, len(names))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range names {
		defs = append(defs, r.scorers[name])
	}
	return defs
}

// NewDefaultScorerRegistry returns a registry with every built-in scorer.
// Component factors on [0, 1] are exposed scaled to [0, 100].
func NewDefaultScorerRegistry() *ScorerRegistry {
	r := NewScorerRegistry()
	for _, def := range builtinScorers() {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

func builtinScorers() []ScorerDefinition {
	return []ScorerDefinition{
		{
			Name:           ScorerDifficulty,
			Description:    "how hard the task felt, from aversion and cognitive load",
			Batch:          func(f *domain.Frame, _ domain.EvalEnv) domain.Series { return domain.DifficultySeries(f).Scale(100) },
			RequiredFields: []string{"actual_aversion|expected_aversion", "cognitive_load"},
			Default:        domain.Difficulty(domain.DefaultAversion, domain.DefaultCognitiveLoad) * 100,
			HigherIsBetter: true,
		},
		{
			Name:           ScorerSpeed,
			Description:    "actual duration against the time estimate",
			Batch:          func(f *domain.Frame, _ domain.EvalEnv) domain.Series { return domain.SpeedSeries(f).Scale(100) },
			RequiredFields: []string{"duration_minutes", "time_estimate_minutes"},
			Default:        domain.NeutralSpeed * 100,
			HigherIsBetter: true,
		},
		{
			Name:           ScorerStartSpeed,
			Description:    "how quickly work began after the instance was created",
			Batch:          func(f *domain.Frame, _ domain.EvalEnv) domain.Series { return domain.StartSpeedSeries(f).Scale(100) },
			RequiredFields: []string{"initialized_at", "started_at|completed_at"},
			Default:        domain.NeutralStartSpeed * 100,
			HigherIsBetter: true,
		},
		{
			Name:           ScorerCompletion,
			Description:    "completion percentage with a flattened top end",
			Batch:          func(f *domain.Frame, _ domain.EvalEnv) domain.Series { return domain.CompletionSeries(f).Scale(100) },
			RequiredFields: []string{"completion_percent"},
			Default:        domain.CompletionFactor(50) * 100,
			HigherIsBetter: true,
		},
		{
			Name:           ScorerExecution,
			Description:    "finishing difficult tasks quickly and completely",
			Batch:          func(f *domain.Frame, _ domain.EvalEnv) domain.Series { return domain.ExecutionSeries(f) },
			RequiredFields: []string{"actual_aversion|expected_aversion", "cognitive_load", "duration_minutes", "time_estimate_minutes", "completion_percent"},
			Default:        domain.NeutralScore,
			HigherIsBetter: true,
		},
		{
			Name:        ScorerProductivity,
			Description: "completion weighted by task type, efficiency, burnout and weekly goal",
			Batch: func(f *domain.Frame, env domain.EvalEnv) domain.Series {
				return domain.ProductivitySeries(f, env.Productivity)
			},
			RequiredFields: []string{"task_type", "completion_percent", "duration_minutes", "time_estimate_minutes", "completed_at"},
			Bound:          domain.BoundPoints,
			Default:        0,
			Min:            0,
			Optimum:        domain.ProductivityOptimum,
			HigherIsBetter: true,
		},
		{
			Name:           ScorerRelief,
			Description:    "actual relief relative to the task's own relief baseline",
			Batch:          domain.ReliefSeries,
			RequiredFields: []string{"actual_relief"},
			Default:        domain.NeutralScore,
			HigherIsBetter: true,
		},
		{
			Name:           ScorerNetRelief,
			Description:    "actual minus expected relief, mapped from [-100, 100]",
			Batch:          func(f *domain.Frame, _ domain.EvalEnv) domain.Series { return domain.NetReliefSeries(f) },
			RequiredFields: []string{"actual_relief", "expected_relief"},
			Default:        domain.NeutralScore,
			HigherIsBetter: true,
		},
		{
			Name:           ScorerStress,
			Description:    "mean of cognitive and emotional load",
			Batch:          func(f *domain.Frame, _ domain.EvalEnv) domain.Series { return domain.StressSeries(f) },
			RequiredFields: []string{"cognitive_load", "emotional_load"},
			Default:        domain.NeutralScore,
			HigherIsBetter: false,
		},
	}
}
