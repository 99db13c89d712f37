package domain

import "github.com/google/uuid"

// BaselineFunc resolves the baseline mean of a metric within a scope.
type BaselineFunc func(metric string, scope Scope) float64

// EvalEnv carries what batch scorers need beyond the frame itself.
type EvalEnv struct {
	Productivity ProductivitySettings
	Baseline     BaselineFunc
}

// DefaultEvalEnv returns an environment with default productivity settings
// and neutral baselines.
func DefaultEvalEnv() EvalEnv {
	return EvalEnv{Productivity: DefaultProductivitySettings()}
}

func (e EvalEnv) baseline(metric string, scope Scope) float64 {
	if e.Baseline == nil {
		if m, err := LookupMetric(metric); err == nil {
			return m.Neutral
		}
		return NeutralScore
	}
	return e.Baseline(metric, scope)
}

// NetReliefMin and NetReliefMax bound the net relief scale.
const (
	NetReliefMin = -100.0
	NetReliefMax = 100.0
)

// ReliefSeries scores actual relief against each task's own relief baseline.
// Rows without an actual relief report score neutral.
func ReliefSeries(f *Frame, env EvalEnv) Series {
	s := NewSeries(f.Len())
	baselines := make(map[uuid.UUID]float64)
	for i := range s.Values {
		relief, ok := f.ActualRelief.At(i)
		if !ok {
			s.Values[i] = NeutralScore
			s.Defaulted[i] = true
			continue
		}
		taskID := f.TaskIDs[i]
		b, cached := baselines[taskID]
		if !cached {
			b = env.baseline(MetricActualRelief, TaskScope(taskID))
			baselines[taskID] = b
		}
		s.Values[i] = NormalizeToBaseline(relief, b)
	}
	return s
}

// NetReliefSeries maps net relief from [-100, 100] onto [0, 100].
func NetReliefSeries(f *Frame) Series {
	s := NewSeries(f.Len())
	for i := range s.Values {
		net, ok := f.NetRelief.At(i)
		if !ok {
			s.Values[i] = NeutralScore
			s.Defaulted[i] = true
			continue
		}
		s.Values[i] = NormalizeToBound(net, NetReliefMin, NetReliefMax)
	}
	return s
}

// StressSeries is the mean of cognitive and emotional load. When only one is
// reported it stands alone; with neither the row is neutral.
func StressSeries(f *Frame) Series {
	s := NewSeries(f.Len())
	for i := range s.Values {
		cognitive, cOK := f.CognitiveLoad.At(i)
		emotional, eOK := f.EmotionalLoad.At(i)
		switch {
		case cOK && eOK:
			s.Values[i] = (cognitive + emotional) / 2
		case cOK:
			s.Values[i] = cognitive
		case eOK:
			s.Values[i] = emotional
		default:
			s.Values[i] = NeutralScore
			s.Defaulted[i] = true
		}
	}
	return s
}
