package domain

import (
	"math"

	"github.com/google/uuid"
)

// Bound describes the range of a score.
type Bound string

const (
	// BoundPercent scores are always within [0, 100].
	BoundPercent Bound = "percent"
	// BoundPoints scores are raw and unbounded.
	BoundPoints Bound = "points"
)

// Annotations attached to scores and baselines when a fallback was used.
const (
	NoteInsufficientBaseline  = "insufficient baseline sample"
	NoteBaselineFallback      = "baseline fell back to broader scope"
	NotePredictedEqualsActual = "predicted equals actual"
	NoteMissingInput          = "missing input, neutral default used"
	NoteNoHistory             = "no completed history, neutral default used"
	NoteNotCompleted          = "instance not completed"
)

// Score is a named value tagged with the formula version that produced it.
type Score struct {
	Name        string   `json:"name"`
	Value       float64  `json:"value"`
	Bound       Bound    `json:"bound"`
	Version     string   `json:"version"`
	Annotations []string `json:"annotations,omitempty"`
}

// InstanceScore is one row of a score table.
type InstanceScore struct {
	InstanceID uuid.UUID `json:"instance_id"`
	Value      float64   `json:"value"`
	Completed  bool      `json:"completed"`
	Defaulted  bool      `json:"defaulted,omitempty"`
}

// Series is the result of evaluating a scorer over every row of a Frame.
type Series struct {
	Values    []float64 `json:"values"`
	Defaulted []bool    `json:"defaulted"`
}

// NewSeries allocates a series of length n.
func NewSeries(n int) Series {
	return Series{
		Values:    make([]float64, n),
		Defaulted: make([]bool, n),
	}
}

// Len returns the number of rows.
func (s Series) Len() int { return len(s.Values) }

// Scale multiplies every value by factor and returns the series.
func (s Series) Scale(factor float64) Series {
	for i := range s.Values {
		s.Values[i] *= factor
	}
	return s
}

// Round2 rounds to two decimals for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
