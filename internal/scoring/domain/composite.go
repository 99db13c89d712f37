package domain

import "sort"

// Composite combines component scores as Σ(s·w)/Σw. Components absent from
// scores are left out of both sums; when none are present the result is
// neutral. Negative or non-finite weights and a zero weight sum are
// configuration errors. The result is clamped to [0, 100].
func Composite(scores map[string]float64, weights map[string]float64) (float64, error) {
	if err := ValidateWeights(weights); err != nil {
		return 0, err
	}

	// Deterministic summation order.
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	var weighted, used float64
	for _, name := range names {
		s, ok := scores[name]
		if !ok || !isFinite(s) {
			continue
		}
		weighted += s * weights[name]
		used += weights[name]
	}
	if used == 0 {
		return NeutralScore, nil
	}
	return ClampScore(weighted / used), nil
}

// ValidateWeights rejects an empty map, any negative or non-finite weight,
// and weights that sum to zero.
func ValidateWeights(weights map[string]float64) error {
	if len(weights) == 0 {
		return NewConfigurationError("weights", "", ErrZeroWeights)
	}
	var total float64
	for name, w := range weights {
		if w < 0 || !isFinite(w) {
			return NewConfigurationError("weight", name, ErrInvalidWeight)
		}
		total += w
	}
	if !(total > 0) {
		return NewConfigurationError("weights", "sum", ErrZeroWeights)
	}
	return nil
}
