package app

import (
	scoringApp "github.com/felixgeelhaar/pulse/internal/scoring/application"
	"github.com/felixgeelhaar/pulse/internal/scoring/application/services"
	scoringDomain "github.com/felixgeelhaar/pulse/internal/scoring/domain"
	"github.com/felixgeelhaar/pulse/pkg/config"
)

// ScoringConfig maps the environment and an optional scoring profile onto the
// scoring service configuration. Profile values override the defaults; a
// positive PULSE_GOAL_HOURS_PER_WEEK overrides the profile's goal.
func ScoringConfig(cfg *config.Config, profile *config.Profile, registry *services.ScorerRegistry) (scoringApp.Config, error) {
	out := scoringApp.DefaultConfig()

	if cfg.CacheScoreTTL > 0 {
		out.ScoreTTL = cfg.CacheScoreTTL
	}
	if cfg.CacheListingTTL > 0 {
		out.ListingTTL = cfg.CacheListingTTL
	}
	if cfg.BaselineWindowDays > 0 {
		out.Baseline.WindowDays = cfg.BaselineWindowDays
	}
	out.Baseline.ExcludeToday = cfg.BaselineExcludeToday
	if cfg.BaselineMinSamples > 0 {
		out.MinSamples = cfg.BaselineMinSamples
	}
	out.Location = cfg.Location()

	if profile != nil {
		applyProductivityProfile(&out.Productivity, profile.Productivity)

		if len(profile.Weights) > 0 {
			for name := range profile.Weights {
				if _, err := registry.Get(name); err != nil {
					return scoringApp.Config{}, err
				}
			}
			out.DefaultWeights = profile.Weights
		}

		if len(profile.RankMetrics) > 0 {
			metrics := make([]services.MetricSpec, 0, len(profile.RankMetrics))
			for _, m := range profile.RankMetrics {
				def, err := registry.Get(m.Name)
				if err != nil {
					return scoringApp.Config{}, err
				}
				higher := def.HigherIsBetter
				if m.HigherIsBetter != nil {
					higher = *m.HigherIsBetter
				}
				metrics = append(metrics, services.MetricSpec{Name: m.Name, HigherIsBetter: higher})
			}
			out.DefaultRankMetrics = metrics
		}
	}

	if cfg.GoalHoursPerWeek > 0 {
		out.Productivity.GoalHoursPerWeek = cfg.GoalHoursPerWeek
	}
	return out, nil
}

func applyProductivityProfile(dst *scoringDomain.ProductivitySettings, p config.ProductivityProfile) {
	if p.EfficiencyCurve != "" {
		dst.EfficiencyCurve = scoringDomain.EfficiencyCurve(p.EfficiencyCurve)
	}
	if p.EfficiencyStrength != nil {
		dst.EfficiencyStrength = *p.EfficiencyStrength
	}
	if p.PlayWorkRatioLimit != nil {
		dst.PlayWorkRatioLimit = *p.PlayWorkRatioLimit
	}
	if p.GoalHoursPerWeek != nil {
		dst.GoalHoursPerWeek = *p.GoalHoursPerWeek
	}
	if p.Burnout != nil {
		if p.Burnout.Enabled != nil {
			dst.Burnout.Enabled = *p.Burnout.Enabled
		}
		if p.Burnout.WeeklyThresholdHours != nil {
			dst.Burnout.WeeklyThresholdHours = *p.Burnout.WeeklyThresholdHours
		}
	}
}
