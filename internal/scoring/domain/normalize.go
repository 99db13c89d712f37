package domain

import "math"

// NormalizationMode selects how a raw metric is mapped onto [0, 100].
type NormalizationMode string

const (
	// ModeBaselineRelative scores a value against a rolling baseline: equal is 50, double is 100.
	ModeBaselineRelative NormalizationMode = "baseline_relative"
	// ModeObjectiveBound scores a value against a known minimum and optimum.
	ModeObjectiveBound NormalizationMode = "objective_bound"
)

// NeutralScore is returned whenever a normalization cannot be computed.
const NeutralScore = 50.0

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// ClampScore limits v to [0, 100].
func ClampScore(v float64) float64 {
	return Clamp(v, 0, 100)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NormalizeToBaseline maps value onto [0, 100] relative to baseline.
// A zero (or non-finite) baseline yields the neutral score.
func NormalizeToBaseline(value, baseline float64) float64 {
	if !isFinite(value) || !isFinite(baseline) || baseline == 0 {
		return NeutralScore
	}
	return ClampScore(50 + ((value-baseline)/baseline)*50)
}

// NormalizeToBound maps value onto [0, 100] between min and optimal.
// A degenerate range yields the neutral score.
func NormalizeToBound(value, min, optimal float64) float64 {
	if !isFinite(value) || !isFinite(min) || !isFinite(optimal) || optimal == min {
		return NeutralScore
	}
	return ClampScore((value - min) / (optimal - min) * 100)
}

// Normalizer applies one normalization mode with fixed references.
type Normalizer struct {
	Mode     NormalizationMode
	Baseline float64
	Min      float64
	Optimal  float64
}

// Normalize maps value onto [0, 100] using the configured mode.
func (n Normalizer) Normalize(value float64) float64 {
	switch n.Mode {
	case ModeObjectiveBound:
		return NormalizeToBound(value, n.Min, n.Optimal)
	default:
		return NormalizeToBaseline(value, n.Baseline)
	}
}

// NormalizeSeries applies the normalizer to every value of the series in place.
func (n Normalizer) NormalizeSeries(s Series) Series {
	for i, v := range s.Values {
		s.Values[i] = n.Normalize(v)
	}
	return s
}
