package services

import (
	"sort"
	"time"

	"github.com/felixgeelhaar/pulse/internal/scoring/domain"
	telemetry "github.com/felixgeelhaar/pulse/internal/telemetry/domain"
	"github.com/google/uuid"
)

// TableRow is one completed instance with its requested scores.
type TableRow struct {
	InstanceID  uuid.UUID          `json:"instance_id"`
	TaskID      uuid.UUID          `json:"task_id"`
	TaskType    telemetry.TaskType `json:"task_type"`
	CompletedAt time.Time          `json:"completed_at"`
	Scores      map[string]float64 `json:"scores"`
}

// Evaluator runs registered scorers over frames.
type Evaluator struct {
	registry *ScorerRegistry
}

// NewEvaluator creates an evaluator over registry.
func NewEvaluator(registry *ScorerRegistry) *Evaluator {
	return &Evaluator{registry: registry}
}

// Registry returns the scorer registry.
func (e *Evaluator) Registry() *ScorerRegistry { return e.registry }

// Evaluate runs the named scorer over every row of f.
func (e *Evaluator) Evaluate(f *domain.Frame, name string, env domain.EvalEnv) (domain.Series, error) {
	def, err := e.registry.Get(name)
	if err != nil {
		return domain.Series{}, err
	}
	return def.Batch(f, env), nil
}

// Scores returns the named scorer's value per instance.
func (e *Evaluator) Scores(f *domain.Frame, name string, env domain.EvalEnv) (map[uuid.UUID]domain.InstanceScore, error) {
	s, err := e.Evaluate(f, name, env)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]domain.InstanceScore, f.Len())
	for i, id := range f.InstanceIDs {
		out[id] = domain.InstanceScore{
			InstanceID: id,
			Value:      s.Values[i],
			Completed:  f.IsCompleted(i),
			Defaulted:  s.Defaulted[i],
		}
	}
	return out, nil
}

// Table evaluates names over f and returns one row per completed instance,
// ordered by completion time.
func (e *Evaluator) Table(f *domain.Frame, names []string, env domain.EvalEnv) ([]TableRow, error) {
	series := make(map[string]domain.Series, len(names))
	for _, name := range names {
		s, err := e.Evaluate(f, name, env)
		if err != nil {
			return nil, err
		}
		series[name] = s
	}

	rows := make([]TableRow, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		if !f.IsCompleted(i) {
			continue
		}
		scores := make(map[string]float64, len(names))
		for _, name := range names {
			scores[name] = series[name].Values[i]
		}
		rows = append(rows, TableRow{
			InstanceID:  f.InstanceIDs[i],
			TaskID:      f.TaskIDs[i],
			TaskType:    f.TaskTypes[i],
			CompletedAt: f.CompletedAt[i],
			Scores:      scores,
		})
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].CompletedAt.Before(rows[b].CompletedAt)
	})
	return rows, nil
}

// Candidates builds one ranking candidate per task. Each metric is the mean
// of the task's normalized component scores over completed instances inside
// [start, end]; tasks without such history get each scorer's neutral default.
func (e *Evaluator) Candidates(f *domain.Frame, tasks []*telemetry.Task, metrics []MetricSpec, env domain.EvalEnv, start, end time.Time) ([]Candidate, error) {
	defs := make([]ScorerDefinition, len(metrics))
	series := make([]domain.Series, len(metrics))
	for j, m := range metrics {
		def, err := e.registry.Get(m.Name)
		if err != nil {
			return nil, err
		}
		defs[j] = def
		series[j] = def.Batch(f, env)
	}

	type acc struct {
		sums []float64
		n    int
	}
	history := make(map[uuid.UUID]*acc)
	for i := 0; i < f.Len(); i++ {
		if !f.IsCompleted(i) {
			continue
		}
		at := f.CompletedAt[i]
		if at.Before(start) || at.After(end) {
			continue
		}
		a := history[f.TaskIDs[i]]
		if a == nil {
			a = &acc{sums: make([]float64, len(metrics))}
			history[f.TaskIDs[i]] = a
		}
		for j := range metrics {
			a.sums[j] += defs[j].Normalize(series[j].Values[i])
		}
		a.n++
	}

	candidates := make([]Candidate, 0, len(tasks))
	for _, task := range tasks {
		c := Candidate{
			TaskID:          task.ID,
			Name:            task.Name,
			TaskType:        task.Type,
			EstimateMinutes: task.TimeEstimateMinutes,
			Scores:          make(map[string]float64, len(metrics)),
		}
		if a := history[task.ID]; a != nil {
			c.HasHistory = true
			c.Samples = a.n
			for j, m := range metrics {
				c.Scores[m.Name] = a.sums[j] / float64(a.n)
			}
		} else {
			for j, m := range metrics {
				c.Scores[m.Name] = defs[j].Normalize(defs[j].Default)
			}
			c.Annotations = append(c.Annotations, domain.NoteNoHistory)
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
