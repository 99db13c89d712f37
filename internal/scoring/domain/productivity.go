package domain

import (
	"math"
	"sort"
	"time"

	telemetry "github.com/felixgeelhaar/pulse/internal/telemetry/domain"
)

// EfficiencyCurve selects how the completion-time ratio bends the productivity score.
type EfficiencyCurve string

const (
	CurveFlattenedSquare EfficiencyCurve = "flattened_square"
	CurveLinear          EfficiencyCurve = "linear"
)

// ProductivityOptimum is the score of a fully completed work task at the best
// completion-time ratio; composites normalize productivity points against it.
const ProductivityOptimum = 500.0

const maxCompletionTimeRatio = 1.5

// BurnoutSettings configures the work-overload penalty.
type BurnoutSettings struct {
	Enabled              bool    `yaml:"enabled" json:"enabled"`
	WeeklyThresholdHours float64 `yaml:"weekly_threshold_hours" json:"weekly_threshold_hours"`
}

// ProductivitySettings tunes the productivity score.
type ProductivitySettings struct {
	EfficiencyCurve    EfficiencyCurve `yaml:"efficiency_curve" json:"efficiency_curve"`
	EfficiencyStrength float64         `yaml:"efficiency_strength" json:"efficiency_strength"`
	PlayWorkRatioLimit float64         `yaml:"play_work_ratio_limit" json:"play_work_ratio_limit"`
	Burnout            BurnoutSettings `yaml:"burnout" json:"burnout"`
	// GoalHoursPerWeek enables the weekly goal multiplier when positive.
	GoalHoursPerWeek float64 `yaml:"goal_hours_per_week" json:"goal_hours_per_week"`
}

// DefaultProductivitySettings returns the standard tuning.
func DefaultProductivitySettings() ProductivitySettings {
	return ProductivitySettings{
		EfficiencyCurve:    CurveFlattenedSquare,
		EfficiencyStrength: 1.0,
		PlayWorkRatioLimit: 2.0,
		Burnout: BurnoutSettings{
			Enabled:              true,
			WeeklyThresholdHours: 42,
		},
	}
}

// ProductivityInputs is everything the productivity formula reads for one instance.
// The day and week totals are computed over the whole history by ProductivityContext.
type ProductivityInputs struct {
	TaskType          telemetry.TaskType
	CompletionPercent float64
	EstimateMinutes   float64
	ActualMinutes     float64
	SelfCareOrdinal   int
	DayPlayMinutes    float64
	DayWorkMinutes    float64
	WeekWorkMinutes   float64
}

// ProductivityBreakdown explains a productivity score.
type ProductivityBreakdown struct {
	Base                 float64 `json:"base"`
	CompletionTimeRatio  float64 `json:"completion_time_ratio"`
	TypeMultiplier       float64 `json:"type_multiplier"`
	BurnoutMultiplier    float64 `json:"burnout_multiplier"`
	EfficiencyMultiplier float64 `json:"efficiency_multiplier"`
	GoalMultiplier       float64 `json:"goal_multiplier"`
	Score                float64 `json:"score"`
}

// CompletionTimeRatio compares the work delivered per minute against the estimate,
// capped at 1.5. Missing or non-positive durations are neutral (1.0).
func CompletionTimeRatio(completionPercent, estimateMinutes, actualMinutes float64) float64 {
	if estimateMinutes <= 0 || actualMinutes <= 0 || !isFinite(estimateMinutes) || !isFinite(actualMinutes) {
		return 1.0
	}
	ratio := completionPercent * estimateMinutes / (100 * actualMinutes)
	return math.Min(maxCompletionTimeRatio, math.Max(0, ratio))
}

// WorkMultiplier scales work tasks from 3x at parity up to 5x at the ratio cap.
func WorkMultiplier(ctr float64) float64 {
	switch {
	case ctr <= 1.0:
		return 3.0
	case ctr >= 1.5:
		return 5.0
	default:
		return 3.0 + (ctr-1.0)/0.5*2.0
	}
}

// SelfCareMultiplier grows with each self-care completion on the same day.
func SelfCareMultiplier(ordinal int) float64 {
	if ordinal < 1 {
		return 1.0
	}
	return float64(ordinal)
}

// PlayMultiplier is 1.0 unless play dominates work for the day, in which case
// the instance turns into a penalty proportional to the time spent, down to -0.3.
func PlayMultiplier(dayPlayMinutes, dayWorkMinutes, ratioLimit, actualMinutes, estimateMinutes float64) float64 {
	if ratioLimit <= 0 {
		ratioLimit = 2.0
	}
	excessive := false
	if dayWorkMinutes <= 0 {
		excessive = dayPlayMinutes > 0
	} else {
		excessive = dayPlayMinutes/dayWorkMinutes > ratioLimit
	}
	if !excessive {
		return 1.0
	}
	timePercent := 100.0
	if estimateMinutes > 0 {
		timePercent = actualMinutes / estimateMinutes * 100
	}
	return -0.003 * Clamp(timePercent, 0, 100)
}

// BurnoutMultiplier penalizes work done during an overloaded week. It only
// applies when the weekly total exceeds the threshold and the day's work is
// more than twice the week's daily average.
func BurnoutMultiplier(settings BurnoutSettings, weekWorkMinutes, dayWorkMinutes float64) float64 {
	if !settings.Enabled || settings.WeeklyThresholdHours <= 0 {
		return 1.0
	}
	thresholdMinutes := settings.WeeklyThresholdHours * 60
	avgDaily := weekWorkMinutes / 7
	if weekWorkMinutes <= thresholdMinutes || dayWorkMinutes <= 2*avgDaily {
		return 1.0
	}
	excess := weekWorkMinutes - thresholdMinutes
	return 1 - 0.5*(1-math.Exp(-excess/300))
}

// EfficiencyMultiplier rewards beating the estimate and penalizes overruns, within [0.5, 1.5].
func EfficiencyMultiplier(ctr float64, curve EfficiencyCurve, strength float64) float64 {
	diff := (ctr - 1) * 100
	effect := diff
	if curve != CurveLinear {
		sign := 1.0
		if diff < 0 {
			sign = -1.0
		}
		effect = sign * diff * diff / 100
	}
	return Clamp(1-0.01*strength*(-effect), 0.5, 1.5)
}

// GoalMultiplier scales by progress toward the weekly goal.
func GoalMultiplier(ratio float64) float64 {
	switch {
	case ratio >= 1.2:
		return 1.2
	case ratio >= 1.0:
		return 1.0 + (ratio-1.0)/0.2*0.2
	case ratio >= 0.8:
		return 0.9 + (ratio-0.8)/0.2*0.1
	default:
		return 0.8
	}
}

// Productivity computes the productivity score in points. The result is
// unbounded: completion above 100% raises it and play penalties make it negative.
func Productivity(in ProductivityInputs, settings ProductivitySettings) ProductivityBreakdown {
	b := ProductivityBreakdown{
		Base:                 math.Max(0, in.CompletionPercent),
		TypeMultiplier:       1.0,
		BurnoutMultiplier:    1.0,
		EfficiencyMultiplier: 1.0,
		GoalMultiplier:       1.0,
	}
	b.CompletionTimeRatio = CompletionTimeRatio(in.CompletionPercent, in.EstimateMinutes, in.ActualMinutes)

	switch in.TaskType {
	case telemetry.TaskTypeWork:
		b.TypeMultiplier = WorkMultiplier(b.CompletionTimeRatio)
		b.BurnoutMultiplier = BurnoutMultiplier(settings.Burnout, in.WeekWorkMinutes, in.DayWorkMinutes)
	case telemetry.TaskTypeSelfCare:
		b.TypeMultiplier = SelfCareMultiplier(in.SelfCareOrdinal)
	case telemetry.TaskTypePlay:
		b.TypeMultiplier = PlayMultiplier(in.DayPlayMinutes, in.DayWorkMinutes, settings.PlayWorkRatioLimit, in.ActualMinutes, in.EstimateMinutes)
	}

	strength := settings.EfficiencyStrength
	if strength < 0 {
		strength = 0
	}
	b.EfficiencyMultiplier = EfficiencyMultiplier(b.CompletionTimeRatio, settings.EfficiencyCurve, strength)

	if settings.GoalHoursPerWeek > 0 {
		b.GoalMultiplier = GoalMultiplier(in.WeekWorkMinutes / 60 / settings.GoalHoursPerWeek)
	}

	b.Score = b.Base * b.TypeMultiplier * b.BurnoutMultiplier * b.EfficiencyMultiplier * b.GoalMultiplier
	return b
}

// ProductivityContext derives the per-row productivity inputs for every completed
// row. Rows are visited in completion order (ties keep frame order) so the
// self-care ordinal and the day totals count completions "so far"; the week
// total is a trailing seven-day window ending at the row's completion.
// Open rows get zero-valued inputs and ok=false.
func ProductivityContext(f *Frame) (inputs []ProductivityInputs, ok []bool) {
	n := f.Len()
	inputs = make([]ProductivityInputs, n)
	ok = make([]bool, n)

	order := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if f.IsCompleted(i) {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return f.CompletedAt[order[a]].Before(f.CompletedAt[order[b]])
	})

	type dayTotals struct {
		selfCare int
		play     float64
		work     float64
	}
	days := make(map[time.Time]*dayTotals)

	type workEntry struct {
		at      time.Time
		minutes float64
	}
	var window []workEntry
	var windowSum float64

	for _, i := range order {
		at := f.CompletedAt[i]
		day := f.StartOfDay(at)
		totals, exists := days[day]
		if !exists {
			totals = &dayTotals{}
			days[day] = totals
		}

		duration := f.DurationMinutes.Or(i, 0)
		switch f.TaskTypes[i] {
		case telemetry.TaskTypeSelfCare:
			totals.selfCare++
		case telemetry.TaskTypePlay:
			totals.play += duration
		case telemetry.TaskTypeWork:
			totals.work += duration
			window = append(window, workEntry{at: at, minutes: duration})
			windowSum += duration
		}

		cutoff := at.Add(-7 * 24 * time.Hour)
		for len(window) > 0 && !window[0].at.After(cutoff) {
			windowSum -= window[0].minutes
			window = window[1:]
		}

		completion := f.CompletionPercent.Or(i, 100)
		inputs[i] = ProductivityInputs{
			TaskType:          f.TaskTypes[i],
			CompletionPercent: completion,
			EstimateMinutes:   f.EstimateMinutes.Or(i, 0),
			ActualMinutes:     f.DurationMinutes.Or(i, 0),
			SelfCareOrdinal:   totals.selfCare,
			DayPlayMinutes:    totals.play,
			DayWorkMinutes:    totals.work,
			WeekWorkMinutes:   math.Max(0, windowSum),
		}
		ok[i] = true
	}
	return inputs, ok
}

// ProductivitySeries evaluates productivity points for every row.
// Open rows score zero and are marked defaulted.
func ProductivitySeries(f *Frame, settings ProductivitySettings) Series {
	inputs, ok := ProductivityContext(f)
	s := NewSeries(f.Len())
	for i := range s.Values {
		if !ok[i] {
			s.Defaulted[i] = true
			continue
		}
		s.Values[i] = Productivity(inputs[i], settings).Score
	}
	return s
}
