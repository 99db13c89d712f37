package services

import (
	"time"

	"github.com/felixgeelhaar/pulse/internal/scoring/domain"
)

// BaselineOptions controls the rolling window of a baseline.
type BaselineOptions struct {
	WindowDays   int  `json:"window_days"`
	ExcludeToday bool `json:"exclude_today"`
}

// DefaultBaselineOptions returns a 30-day window that excludes today.
func DefaultBaselineOptions() BaselineOptions {
	return BaselineOptions{WindowDays: 30, ExcludeToday: true}
}

// DefaultMinSamples is the smallest sample a scope needs before it is trusted.
const DefaultMinSamples = 5

// Baseline is the mean of a metric over a window of completed instances.
type Baseline struct {
	Metric string       `json:"metric"`
	Scope  domain.Scope `json:"scope"`
	// ResolvedScope is the scope that actually supplied the samples.
	ResolvedScope domain.Scope `json:"resolved_scope"`
	Value         float64      `json:"value"`
	Samples       int          `json:"samples"`
	WindowStart   time.Time    `json:"window_start"`
	WindowEnd     time.Time    `json:"window_end"`
	Annotations   []string     `json:"annotations,omitempty"`
}

// BaselineCalculator computes rolling metric baselines over a frame.
type BaselineCalculator struct {
	now        func() time.Time
	minSamples int
}

// NewBaselineCalculator creates a calculator. A nil now uses time.Now and a
// non-positive minSamples uses DefaultMinSamples.
func NewBaselineCalculator(now func() time.Time, minSamples int) *BaselineCalculator {
	if now == nil {
		now = time.Now
	}
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	return &BaselineCalculator{now: now, minSamples: minSamples}
}

// MinSamples returns the sample threshold below which a scope falls back.
func (c *BaselineCalculator) MinSamples() int { return c.minSamples }

// Window returns the half-open window [start, end) the options select.
// When today is included the window ends now, inclusive.
func (c *BaselineCalculator) Window(f *domain.Frame, opts BaselineOptions) (time.Time, time.Time) {
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultBaselineOptions().WindowDays
	}
	now := c.now()
	start := now.Add(-time.Duration(opts.WindowDays) * 24 * time.Hour)
	end := now
	if opts.ExcludeToday {
		end = f.StartOfDay(now)
	}
	return start, end
}

// Calculate returns the baseline of metric within scope. Scopes with fewer
// than MinSamples samples fall back task → task type → global; a global
// scope without samples yields the metric's neutral value.
func (c *BaselineCalculator) Calculate(f *domain.Frame, metric string, scope domain.Scope, opts BaselineOptions) (Baseline, error) {
	m, err := domain.LookupMetric(metric)
	if err != nil {
		return Baseline{}, err
	}
	if err := scope.Validate(); err != nil {
		return Baseline{}, err
	}

	start, end := c.Window(f, opts)
	column := m.Column(f)
	result := Baseline{Metric: metric, Scope: scope, WindowStart: start, WindowEnd: end}

	for _, candidate := range c.fallbackChain(f, scope) {
		mean, n := c.mean(f, column, candidate, start, end, opts.ExcludeToday)
		if n >= c.minSamples || (candidate.Kind == domain.ScopeGlobal && n > 0) {
			result.ResolvedScope = candidate
			result.Value = mean
			result.Samples = n
			if candidate != scope {
				result.Annotations = append(result.Annotations, domain.NoteBaselineFallback)
			}
			if n < c.minSamples {
				result.Annotations = append(result.Annotations, domain.NoteInsufficientBaseline)
			}
			return result, nil
		}
	}

	result.ResolvedScope = domain.GlobalScope()
	result.Value = m.Neutral
	result.Annotations = append(result.Annotations, domain.NoteInsufficientBaseline)
	if scope.Kind != domain.ScopeGlobal {
		result.Annotations = append(result.Annotations, domain.NoteBaselineFallback)
	}
	return result, nil
}

// Func adapts the calculator to a domain.BaselineFunc over f. Results are
// memoized per metric and scope for the lifetime of the returned function.
func (c *BaselineCalculator) Func(f *domain.Frame, opts BaselineOptions) domain.BaselineFunc {
	type key struct {
		metric string
		scope  domain.Scope
	}
	memo := make(map[key]float64)
	return func(metric string, scope domain.Scope) float64 {
		k := key{metric, scope}
		if v, ok := memo[k]; ok {
			return v
		}
		b, err := c.Calculate(f, metric, scope, opts)
		v := domain.NeutralScore
		if err == nil {
			v = b.Value
		}
		memo[k] = v
		return v
	}
}

func (c *BaselineCalculator) fallbackChain(f *domain.Frame, scope domain.Scope) []domain.Scope {
	switch scope.Kind {
	case domain.ScopeTask:
		chain := []domain.Scope{scope}
		if t, ok := f.TaskTypeOf(scope.TaskID); ok {
			chain = append(chain, domain.TaskTypeScope(t))
		}
		return append(chain, domain.GlobalScope())
	case domain.ScopeTaskType:
		return []domain.Scope{scope, domain.GlobalScope()}
	default:
		return []domain.Scope{domain.GlobalScope()}
	}
}

func (c *BaselineCalculator) mean(f *domain.Frame, column domain.Column, scope domain.Scope, start, end time.Time, endExclusive bool) (float64, int) {
	var sum float64
	var n int
	for i := 0; i < f.Len(); i++ {
		if !f.IsCompleted(i) || !f.InScope(i, scope) {
			continue
		}
		at := f.CompletedAt[i]
		if at.Before(start) {
			continue
		}
		if (endExclusive && !at.Before(end)) || (!endExclusive && at.After(end)) {
			continue
		}
		v, ok := column.At(i)
		if !ok {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}
