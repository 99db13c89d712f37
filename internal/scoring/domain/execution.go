package domain

import "math"

// Neutral defaults used when an input is missing.
const (
	DefaultAversion      = 50.0
	DefaultCognitiveLoad = 50.0
	NeutralSpeed         = 0.5
	NeutralStartSpeed    = 0.5
)

// Difficulty maps aversion and cognitive load (both 0–100) onto [0, 1).
// Aversion dominates: 0.7·aversion + 0.3·load, saturating exponentially.
func Difficulty(aversion, cognitiveLoad float64) float64 {
	aversion = Clamp(aversion, 0, 100)
	cognitiveLoad = Clamp(cognitiveLoad, 0, 100)
	combined := 0.7*aversion + 0.3*cognitiveLoad
	return 1 - math.Exp(-combined/50)
}

// Speed scores actual duration against the estimate on [0, 1].
// Finishing in half the estimate or less is perfect; on time is 0.5;
// overruns decay as 0.5/ratio. A missing estimate is neutral.
func Speed(actualMinutes, estimateMinutes float64) float64 {
	if !isFinite(estimateMinutes) || estimateMinutes <= 0 || !isFinite(actualMinutes) {
		return NeutralSpeed
	}
	ratio := math.Max(0, actualMinutes) / estimateMinutes
	switch {
	case ratio <= 0.5:
		return 1.0
	case ratio <= 1.0:
		return 1.0 - (ratio - 0.5)
	default:
		return 0.5 * (1 / ratio)
	}
}

// StartSpeed scores how quickly work began after the instance was initialized.
func StartSpeed(delayMinutes float64) float64 {
	if !isFinite(delayMinutes) {
		return NeutralStartSpeed
	}
	m := math.Max(0, delayMinutes)
	switch {
	case m <= 5:
		return 1.0
	case m <= 30:
		return 1.0 - (m-5)/25*0.2
	case m <= 120:
		return 0.8 - (m-30)/90*0.3
	default:
		return 0.5 * math.Exp(-(m-120)/240)
	}
}

// CompletionFactor maps a completion percentage onto [0, 1], flattening the top end.
func CompletionFactor(percent float64) float64 {
	if !isFinite(percent) {
		return 1.0
	}
	p := math.Max(0, percent)
	switch {
	case p >= 100:
		return 1.0
	case p >= 90:
		return 0.9 + (p-90)/10*0.1
	case p >= 50:
		return 0.5 + (p-50)/40*0.4
	default:
		return p / 50 * 0.5
	}
}

// ExecutionScore rewards finishing hard tasks quickly and completely, on [0, 100].
func ExecutionScore(difficulty, speed, startSpeed, completion float64) float64 {
	score := 50 * (1 + difficulty) * (0.5 + 0.5*speed) * (0.5 + 0.5*startSpeed) * completion
	return ClampScore(score)
}

// ExecutionComponents holds the inputs that produced an execution score.
type ExecutionComponents struct {
	Difficulty float64 `json:"difficulty"`
	Speed      float64 `json:"speed"`
	StartSpeed float64 `json:"start_speed"`
	Completion float64 `json:"completion"`
	Score      float64 `json:"score"`
}

// DifficultySeries evaluates difficulty (0–1) for every row.
// Aversion prefers the actual report and falls back to the prediction.
func DifficultySeries(f *Frame) Series {
	s := NewSeries(f.Len())
	for i := range s.Values {
		aversion, ok := f.ActualAversion.At(i)
		if !ok {
			aversion, ok = f.ExpectedAversion.At(i)
		}
		load, loadOK := f.CognitiveLoad.At(i)
		if !ok {
			aversion = DefaultAversion
		}
		if !loadOK {
			load = DefaultCognitiveLoad
		}
		s.Values[i] = Difficulty(aversion, load)
		s.Defaulted[i] = !ok && !loadOK
	}
	return s
}

// SpeedSeries evaluates speed (0–1) for every row.
func SpeedSeries(f *Frame) Series {
	s := NewSeries(f.Len())
	for i := range s.Values {
		actual, ok := f.DurationMinutes.At(i)
		estimate, estOK := f.EstimateMinutes.At(i)
		if !ok || !estOK {
			s.Values[i] = NeutralSpeed
			s.Defaulted[i] = true
			continue
		}
		s.Values[i] = Speed(actual, estimate)
	}
	return s
}

// StartSpeedSeries evaluates start speed (0–1) for every row.
func StartSpeedSeries(f *Frame) Series {
	s := NewSeries(f.Len())
	for i := range s.Values {
		delay, ok := f.StartDelayMinutes.At(i)
		if !ok {
			s.Values[i] = NeutralStartSpeed
			s.Defaulted[i] = true
			continue
		}
		s.Values[i] = StartSpeed(delay)
	}
	return s
}

// CompletionSeries evaluates the completion factor (0–1) for every row.
// Completed rows without a percentage count as fully complete; open rows as zero.
func CompletionSeries(f *Frame) Series {
	s := NewSeries(f.Len())
	for i := range s.Values {
		pct, ok := f.CompletionPercent.At(i)
		if !ok {
			pct = 0
			if f.IsCompleted(i) {
				pct = 100
			}
			s.Defaulted[i] = true
		}
		s.Values[i] = CompletionFactor(pct)
	}
	return s
}

// ExecutionSeries evaluates the execution score (0–100) for every row.
func ExecutionSeries(f *Frame) Series {
	difficulty := DifficultySeries(f)
	speed := SpeedSeries(f)
	start := StartSpeedSeries(f)
	completion := CompletionSeries(f)

	s := NewSeries(f.Len())
	for i := range s.Values {
		s.Values[i] = ExecutionScore(difficulty.Values[i], speed.Values[i], start.Values[i], completion.Values[i])
		s.Defaulted[i] = difficulty.Defaulted[i] && speed.Defaulted[i] && start.Defaulted[i]
	}
	return s
}

// ExecutionBreakdown returns the execution components for row i.
func ExecutionBreakdown(f *Frame, i int) ExecutionComponents {
	one := f.Slice(i)
	c := ExecutionComponents{
		Difficulty: DifficultySeries(one).Values[0],
		Speed:      SpeedSeries(one).Values[0],
		StartSpeed: StartSpeedSeries(one).Values[0],
		Completion: CompletionSeries(one).Values[0],
	}
	c.Score = ExecutionScore(c.Difficulty, c.Speed, c.StartSpeed, c.Completion)
	return c
}
