// Package application exposes the scoring core to adapters: component and
// composite scores, baselines, rankings and score tables, all memoized in the
// aggregate cache and invalidated by telemetry change events.
package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/pulse/internal/scoring/application/services"
	"github.com/felixgeelhaar/pulse/internal/scoring/domain"
	"github.com/felixgeelhaar/pulse/internal/scoring/infrastructure/cache"
	telemetry "github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/felixgeelhaar/pulse/pkg/observability"
	"github.com/google/uuid"
)

// Cache key prefixes. Every one of them is dropped when telemetry changes.
const (
	PrefixFrame     = "frame:"
	PrefixScores    = "scores:"
	PrefixBaseline  = "baseline:"
	PrefixRank      = "rank:"
	PrefixComposite = "composite:"
	PrefixListing   = "listing:"
)

// Prefixes lists every cache prefix the service writes.
func Prefixes() []string {
	return []string{PrefixFrame, PrefixScores, PrefixBaseline, PrefixRank, PrefixComposite, PrefixListing}
}

// Metric names recorded by the service.
const (
	MetricBatchRows      = "scoring.batch_rows"
	MetricRankCandidates = "scoring.rank_candidates"
)

// CompositeName is the score name of composite results.
const CompositeName = "composite"

// TelemetryReader is the part of the telemetry repository scoring reads.
type TelemetryReader interface {
	ListInstances(ctx context.Context, filter telemetry.InstanceFilter) ([]*telemetry.TaskInstance, error)
	GetTask(ctx context.Context, id uuid.UUID) (*telemetry.Task, error)
	ListTasks(ctx context.Context) ([]*telemetry.Task, error)
}

// Config tunes the scoring service.
type Config struct {
	ScoreTTL           time.Duration
	ListingTTL         time.Duration
	Baseline           services.BaselineOptions
	MinSamples         int
	Productivity       domain.ProductivitySettings
	DefaultWeights     map[string]float64
	DefaultRankMetrics []services.MetricSpec
	// Location decides calendar days; nil means UTC.
	Location *time.Location
}

// DefaultConfig returns the standard service configuration.
func DefaultConfig() Config {
	return Config{
		ScoreTTL:     cache.DefaultScoreTTL,
		ListingTTL:   cache.DefaultListingTTL,
		Baseline:     services.DefaultBaselineOptions(),
		MinSamples:   services.DefaultMinSamples,
		Productivity: domain.DefaultProductivitySettings(),
		DefaultWeights: map[string]float64{
			services.ScorerExecution:    1,
			services.ScorerProductivity: 1,
			services.ScorerRelief:       1,
		},
		DefaultRankMetrics: []services.MetricSpec{
			{Name: services.ScorerRelief, HigherIsBetter: true},
			{Name: services.ScorerExecution, HigherIsBetter: true},
			{Name: services.ScorerStress, HigherIsBetter: false},
		},
		Location: time.UTC,
	}
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service's notion of now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRegistry replaces the default scorer registry.
func WithRegistry(r *services.ScorerRegistry) Option {
	return func(s *Service) { s.registry = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service is the scoring entry point used by the CLI and the MCP server.
type Service struct {
	reader    TelemetryReader
	cache     *cache.Cache
	cfg       Config
	now       func() time.Time
	registry  *services.ScorerRegistry
	evaluator *services.Evaluator
	baselines *services.BaselineCalculator
	ranker    *services.Ranker
	logger    *slog.Logger
	metrics   observability.Metrics
}

// NewService creates a scoring service. A nil cache disables memoization.
func NewService(reader TelemetryReader, c *cache.Cache, cfg Config, opts ...Option) *Service {
	defaults := DefaultConfig()
	if cfg.ScoreTTL <= 0 {
		cfg.ScoreTTL = defaults.ScoreTTL
	}
	if cfg.ListingTTL <= 0 {
		cfg.ListingTTL = defaults.ListingTTL
	}
	if cfg.Baseline.WindowDays <= 0 {
		cfg.Baseline.WindowDays = defaults.Baseline.WindowDays
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Productivity.EfficiencyCurve == "" {
		cfg.Productivity = defaults.Productivity
	}

	s := &Service{
		reader:   reader,
		cache:    c,
		cfg:      cfg,
		now:      time.Now,
		registry: services.NewDefaultScorerRegistry(),
		ranker:   services.NewRanker(),
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.evaluator = services.NewEvaluator(s.registry)
	s.baselines = services.NewBaselineCalculator(s.now, cfg.MinSamples)
	return s
}

// Registry returns the scorer registry.
func (s *Service) Registry() *services.ScorerRegistry { return s.registry }

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// Invalidate drops every cached aggregate.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, prefix := range Prefixes() {
		s.cache.Invalidate(ctx, prefix)
	}
}

type snapshot struct {
	Instances []*telemetry.TaskInstance `json:"instances"`
	Tasks     []*telemetry.Task         `json:"tasks"`
}

func (s *Service) snapshot(ctx context.Context) (snapshot, error) {
	return cache.GetOrCompute(ctx, s.cache, PrefixFrame+"snapshot", s.cfg.ListingTTL, func(ctx context.Context) (snapshot, error) {
		instances, err := s.reader.ListInstances(ctx, telemetry.InstanceFilter{})
		if err != nil {
			return snapshot{}, fmt.Errorf("failed to list instances: %w", err)
		}
		tasks, err := s.reader.ListTasks(ctx)
		if err != nil {
			return snapshot{}, fmt.Errorf("failed to list tasks: %w", err)
		}
		s.logger.Debug("loaded telemetry snapshot", "instances", len(instances), "tasks", len(tasks))
		return snapshot{Instances: instances, Tasks: tasks}, nil
	})
}

func (s *Service) buildFrame(snap snapshot) *domain.Frame {
	tasks := make(map[uuid.UUID]*telemetry.Task, len(snap.Tasks))
	for _, t := range snap.Tasks {
		tasks[t.ID] = t
	}
	f := domain.NewFrame(snap.Instances, tasks, s.cfg.Location)
	s.metrics.Histogram(MetricBatchRows, float64(f.Len()))
	return f
}

func (s *Service) frame(ctx context.Context) (*domain.Frame, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildFrame(snap), nil
}

func (s *Service) env(f *domain.Frame) domain.EvalEnv {
	return domain.EvalEnv{
		Productivity: s.cfg.Productivity,
		Baseline:     s.baselines.Func(f, s.cfg.Baseline),
	}
}

// day scopes keys whose value depends on the current date.
func (s *Service) day() string {
	return s.now().In(s.cfg.Location).Format("2006-01-02")
}

func (s *Service) scoreTable(ctx context.Context, name string) (map[uuid.UUID]domain.InstanceScore, error) {
	key := PrefixScores + name + ":" + s.day()
	return cache.GetOrCompute(ctx, s.cache, key, s.cfg.ScoreTTL, func(ctx context.Context) (map[uuid.UUID]domain.InstanceScore, error) {
		f, err := s.frame(ctx)
		if err != nil {
			return nil, err
		}
		return s.evaluator.Scores(f, name, s.env(f))
	})
}

// ComputeComponentScore returns the named component score of a stored instance.
func (s *Service) ComputeComponentScore(ctx context.Context, name string, instanceID uuid.UUID) (domain.Score, error) {
	def, err := s.registry.Get(name)
	if err != nil {
		return domain.Score{}, err
	}
	table, err := s.scoreTable(ctx, name)
	if err != nil {
		return domain.Score{}, err
	}
	row, ok := table[instanceID]
	if !ok {
		return domain.Score{}, fmt.Errorf("instance %s: %w", instanceID, telemetry.ErrInstanceNotFound)
	}
	return scoreFromRow(def, row), nil
}

func scoreFromRow(def services.ScorerDefinition, row domain.InstanceScore) domain.Score {
	score := domain.Score{
		Name:    def.Name,
		Value:   row.Value,
		Bound:   def.Bound,
		Version: def.Version,
	}
	if !row.Completed {
		score.Annotations = append(score.Annotations, domain.NoteNotCompleted)
	}
	if row.Defaulted {
		score.Annotations = append(score.Annotations, domain.NoteMissingInput)
	}
	return score
}

// ScoreInstance scores an instance that may not be stored yet, against the
// stored history. The result is not cached.
func (s *Service) ScoreInstance(ctx context.Context, name string, inst *telemetry.TaskInstance) (domain.Score, error) {
	def, err := s.registry.Get(name)
	if err != nil {
		return domain.Score{}, err
	}
	if inst == nil {
		return domain.Score{}, fmt.Errorf("instance is required")
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return domain.Score{}, err
	}

	instances := make([]*telemetry.TaskInstance, 0, len(snap.Instances)+1)
	for _, existing := range snap.Instances {
		if existing.ID != inst.ID {
			instances = append(instances, existing)
		}
	}
	instances = append(instances, inst)
	snap.Instances = instances

	if !containsTask(snap.Tasks, inst.TaskID) {
		task, err := s.reader.GetTask(ctx, inst.TaskID)
		if err != nil && !errors.Is(err, telemetry.ErrTaskNotFound) {
			return domain.Score{}, fmt.Errorf("failed to load task: %w", err)
		}
		if task != nil {
			snap.Tasks = append(snap.Tasks, task)
		}
	}

	f := s.buildFrame(snap)
	i, _ := f.Index(inst.ID)
	score := def.Func(f, i, s.env(f))
	if !f.IsCompleted(i) {
		score.Annotations = append([]string{domain.NoteNotCompleted}, score.Annotations...)
	}
	return score, nil
}

func containsTask(tasks []*telemetry.Task, id uuid.UUID) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

// CompositeResult is a weighted combination of component scores.
type CompositeResult struct {
	InstanceID uuid.UUID          `json:"instance_id"`
	Score      domain.Score       `json:"score"`
	Components map[string]float64 `json:"components"`
	Weights    map[string]float64 `json:"weights"`
}

// ComputeComposite combines normalized component scores of an instance.
// Nil weights select the configured defaults. Components without data are
// left out of the combination.
func (s *Service) ComputeComposite(ctx context.Context, weights map[string]float64, instanceID uuid.UUID) (CompositeResult, error) {
	if len(weights) == 0 {
		weights = s.cfg.DefaultWeights
	}
	names := make([]string, 0, len(weights))
	for name := range weights {
		if _, err := s.registry.Get(name); err != nil {
			return CompositeResult{}, err
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if _, err := domain.Composite(nil, weights); err != nil {
		return CompositeResult{}, err
	}

	key := PrefixComposite + instanceID.String() + ":" + weightsKey(names, weights) + ":" + s.day()
	return cache.GetOrCompute(ctx, s.cache, key, s.cfg.ScoreTTL, func(ctx context.Context) (CompositeResult, error) {
		components := make(map[string]float64, len(names))
		var notes []string
		for _, name := range names {
			def, _ := s.registry.Get(name)
			table, err := s.scoreTable(ctx, name)
			if err != nil {
				return CompositeResult{}, err
			}
			row, ok := table[instanceID]
			if !ok {
				return CompositeResult{}, fmt.Errorf("instance %s: %w", instanceID, telemetry.ErrInstanceNotFound)
			}
			if row.Defaulted {
				notes = append(notes, domain.NoteMissingInput+": "+name)
				continue
			}
			components[name] = def.Normalize(row.Value)
		}

		value, err := domain.Composite(components, weights)
		if err != nil {
			return CompositeResult{}, err
		}
		return CompositeResult{
			InstanceID: instanceID,
			Score: domain.Score{
				Name:        CompositeName,
				Value:       value,
				Bound:       domain.BoundPercent,
				Version:     services.FormulaVersion,
				Annotations: notes,
			},
			Components: components,
			Weights:    weights,
		}, nil
	})
}

func weightsKey(names []string, weights map[string]float64) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + strconv.FormatFloat(weights[name], 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// GetBaseline returns the rolling baseline of a metric. A non-positive
// windowDays selects the configured window.
func (s *Service) GetBaseline(ctx context.Context, metric string, scope domain.Scope, windowDays int) (services.Baseline, error) {
	if _, err := domain.LookupMetric(metric); err != nil {
		return services.Baseline{}, err
	}
	if err := scope.Validate(); err != nil {
		return services.Baseline{}, err
	}
	opts := s.cfg.Baseline
	if windowDays > 0 {
		opts.WindowDays = windowDays
	}

	key := fmt.Sprintf("%s%s:%s:%d:%t:%s", PrefixBaseline, metric, scope, opts.WindowDays, opts.ExcludeToday, s.day())
	return cache.GetOrCompute(ctx, s.cache, key, s.cfg.ScoreTTL, func(ctx context.Context) (services.Baseline, error) {
		f, err := s.frame(ctx)
		if err != nil {
			return services.Baseline{}, err
		}
		return s.baselines.Calculate(f, metric, scope, opts)
	})
}

// RankRequest asks for task recommendations.
type RankRequest struct {
	// Metrics defaults to the configured ranking metrics when empty.
	Metrics []services.MetricSpec `json:"metrics,omitempty"`
	Filters services.RankFilters  `json:"filters"`
	Options services.RankOptions  `json:"options"`
	// WindowDays bounds the history averaged per task; zero uses the baseline window.
	WindowDays int `json:"window_days,omitempty"`
}

// MetricSpec returns a ranking metric for name with the scorer's own direction.
func (s *Service) MetricSpec(name string) (services.MetricSpec, error) {
	def, err := s.registry.Get(name)
	if err != nil {
		return services.MetricSpec{}, err
	}
	return services.MetricSpec{Name: name, HigherIsBetter: def.HigherIsBetter}, nil
}

// Rank recommends tasks from their per-task score history.
func (s *Service) Rank(ctx context.Context, req RankRequest) ([]services.RankedResult, error) {
	if len(req.Metrics) == 0 {
		req.Metrics = s.cfg.DefaultRankMetrics
	}
	if len(req.Metrics) == 0 {
		return nil, domain.NewConfigurationError("metrics", "", domain.ErrNoMetrics)
	}
	for _, m := range req.Metrics {
		if _, err := s.registry.Get(m.Name); err != nil {
			return nil, err
		}
	}
	if req.WindowDays <= 0 {
		req.WindowDays = s.cfg.Baseline.WindowDays
	}

	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rank request: %w", err)
	}
	sum := sha256.Sum256(raw)
	key := PrefixRank + hex.EncodeToString(sum[:8]) + ":" + s.day()

	return cache.GetOrCompute(ctx, s.cache, key, s.cfg.ScoreTTL, func(ctx context.Context) ([]services.RankedResult, error) {
		snap, err := s.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		f := s.buildFrame(snap)
		now := s.now()
		start := now.Add(-time.Duration(req.WindowDays) * 24 * time.Hour)

		candidates, err := s.evaluator.Candidates(f, snap.Tasks, req.Metrics, s.env(f), start, now)
		if err != nil {
			return nil, err
		}
		s.metrics.Gauge(MetricRankCandidates, float64(len(candidates)))

		results, err := s.ranker.Rank(candidates, req.Metrics, req.Filters, req.Options)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("ranked tasks", "candidates", len(candidates), "results", len(results))
		return results, nil
	})
}

// ScoreTable returns every completed instance with the requested scores.
// Empty names select every registered scorer.
func (s *Service) ScoreTable(ctx context.Context, names []string) ([]services.TableRow, error) {
	if len(names) == 0 {
		names = s.registry.Names()
	}
	for _, name := range names {
		if _, err := s.registry.Get(name); err != nil {
			return nil, err
		}
	}

	key := PrefixScores + "table:" + strings.Join(names, ",") + ":" + s.day()
	return cache.GetOrCompute(ctx, s.cache, key, s.cfg.ScoreTTL, func(ctx context.Context) ([]services.TableRow, error) {
		f, err := s.frame(ctx)
		if err != nil {
			return nil, err
		}
		return s.evaluator.Table(f, names, s.env(f))
	})
}

// ScorerInfo describes a registered scorer for listings.
type ScorerInfo struct {
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Bound          domain.Bound `json:"bound"`
	Version        string       `json:"version"`
	HigherIsBetter bool         `json:"higher_is_better"`
	RequiredFields []string     `json:"required_fields"`
}

// Scorers lists every registered scorer.
func (s *Service) Scorers() []ScorerInfo {
	defs := s.registry.Definitions()
	out := make([]ScorerInfo, len(defs))
	for i, d := range defs {
		out[i] = ScorerInfo{
			Name:           d.Name,
			Description:    d.Description,
			Bound:          d.Bound,
			Version:        d.Version,
			HigherIsBetter: d.HigherIsBetter,
			RequiredFields: d.RequiredFields,
		}
	}
	return out
}
