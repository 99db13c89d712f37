package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/pulse/internal/shared/infrastructure/security"
	"gopkg.in/yaml.v3"
)

// Profile is a YAML scoring profile. Omitted fields keep the built-in
// defaults.
type Profile struct {
	Productivity ProductivityProfile `yaml:"productivity"`
	Weights      map[string]float64  `yaml:"weights"`
	RankMetrics  []RankMetric        `yaml:"rank_metrics"`
}

// ProductivityProfile overrides productivity tuning.
type ProductivityProfile struct {
	EfficiencyCurve    string          `yaml:"efficiency_curve"`
	EfficiencyStrength *float64        `yaml:"efficiency_strength"`
	PlayWorkRatioLimit *float64        `yaml:"play_work_ratio_limit"`
	GoalHoursPerWeek   *float64        `yaml:"goal_hours_per_week"`
	Burnout            *BurnoutProfile `yaml:"burnout"`
}

// BurnoutProfile overrides the work-overload penalty.
type BurnoutProfile struct {
	Enabled              *bool    `yaml:"enabled"`
	WeeklyThresholdHours *float64 `yaml:"weekly_threshold_hours"`
}

// RankMetric names a default ranking metric. A nil HigherIsBetter uses the
// scorer's own direction.
type RankMetric struct {
	Name           string `yaml:"name"`
	HigherIsBetter *bool  `yaml:"higher_is_better"`
}

// ErrInvalidProfile is returned for profiles that parse but make no sense.
var ErrInvalidProfile = errors.New("invalid scoring profile")

// LoadProfile reads a profile from path. An empty path returns an empty
// profile.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return &Profile{}, nil
	}
	data, err := security.SafeReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scoring profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes and validates a YAML profile. Unknown keys are
// rejected.
func ParseProfile(data []byte) (*Profile, error) {
	p := &Profile{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse scoring profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks value ranges. Scorer names are checked by the scoring
// service when the profile is applied.
func (p *Profile) Validate() error {
	switch p.Productivity.EfficiencyCurve {
	case "", "flattened_square", "linear":
	default:
		return fmt.Errorf("%w: efficiency_curve %q", ErrInvalidProfile, p.Productivity.EfficiencyCurve)
	}
	if v := p.Productivity.EfficiencyStrength; v != nil && *v < 0 {
		return fmt.Errorf("%w: efficiency_strength must not be negative", ErrInvalidProfile)
	}
	if v := p.Productivity.PlayWorkRatioLimit; v != nil && *v <= 0 {
		return fmt.Errorf("%w: play_work_ratio_limit must be positive", ErrInvalidProfile)
	}
	if v := p.Productivity.GoalHoursPerWeek; v != nil && *v < 0 {
		return fmt.Errorf("%w: goal_hours_per_week must not be negative", ErrInvalidProfile)
	}
	if b := p.Productivity.Burnout; b != nil && b.WeeklyThresholdHours != nil && *b.WeeklyThresholdHours <= 0 {
		return fmt.Errorf("%w: burnout.weekly_threshold_hours must be positive", ErrInvalidProfile)
	}

	if len(p.Weights) > 0 {
		var total float64
		for name, w := range p.Weights {
			if w < 0 {
				return fmt.Errorf("%w: weight %q is negative", ErrInvalidProfile, name)
			}
			total += w
		}
		if total == 0 {
			return fmt.Errorf("%w: weights sum to zero", ErrInvalidProfile)
		}
	}

	seen := make(map[string]bool, len(p.RankMetrics))
	for _, m := range p.RankMetrics {
		if m.Name == "" {
			return fmt.Errorf("%w: rank metric without a name", ErrInvalidProfile)
		}
		if seen[m.Name] {
			return fmt.Errorf("%w: rank metric %q listed twice", ErrInvalidProfile, m.Name)
		}
		seen[m.Name] = true
	}
	return nil
}
