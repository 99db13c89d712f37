package domain

import "sort"

// Metric names accepted by the baseline calculator.
const (
	MetricExpectedRelief    = "expected_relief"
	MetricActualRelief      = "actual_relief"
	MetricExpectedAversion  = "expected_aversion"
	MetricActualAversion    = "actual_aversion"
	MetricCognitiveLoad     = "cognitive_load"
	MetricEmotionalLoad     = "emotional_load"
	MetricDurationMinutes   = "duration_minutes"
	MetricCompletionPercent = "completion_percent"
	MetricNetRelief         = "net_relief"
)

// Metric is a raw telemetry value that can be averaged into a baseline.
type Metric struct {
	Name string
	// Neutral is returned when no sample exists in any scope.
	Neutral     float64
	Description string
	column      func(*Frame) Column
}

// Column returns the metric's values over the frame.
func (m Metric) Column(f *Frame) Column {
	return m.column(f)
}

var metrics = map[string]Metric{
	MetricExpectedRelief: {
		Name: MetricExpectedRelief, Neutral: 50, Description: "anticipated relief (0-100)",
		column: func(f *Frame) Column { return f.ExpectedRelief },
	},
	MetricActualRelief: {
		Name: MetricActualRelief, Neutral: 50, Description: "experienced relief (0-100)",
		column: func(f *Frame) Column { return f.ActualRelief },
	},
	MetricExpectedAversion: {
		Name: MetricExpectedAversion, Neutral: 50, Description: "anticipated reluctance (0-100)",
		column: func(f *Frame) Column { return f.ExpectedAversion },
	},
	MetricActualAversion: {
		Name: MetricActualAversion, Neutral: 50, Description: "reported reluctance after completion (0-100)",
		column: func(f *Frame) Column { return f.ActualAversion },
	},
	MetricCognitiveLoad: {
		Name: MetricCognitiveLoad, Neutral: 50, Description: "cognitive load (0-100)",
		column: func(f *Frame) Column { return f.CognitiveLoad },
	},
	MetricEmotionalLoad: {
		Name: MetricEmotionalLoad, Neutral: 50, Description: "emotional load (0-100)",
		column: func(f *Frame) Column { return f.EmotionalLoad },
	},
	MetricDurationMinutes: {
		Name: MetricDurationMinutes, Neutral: 30, Description: "actual duration in minutes",
		column: func(f *Frame) Column { return f.DurationMinutes },
	},
	MetricCompletionPercent: {
		Name: MetricCompletionPercent, Neutral: 50, Description: "completion percentage",
		column: func(f *Frame) Column { return f.CompletionPercent },
	},
	MetricNetRelief: {
		Name: MetricNetRelief, Neutral: 0, Description: "actual minus expected relief",
		column: func(f *Frame) Column { return f.NetRelief },
	},
}

// LookupMetric returns the metric with the given name.
func LookupMetric(name string) (Metric, error) {
	m, ok := metrics[name]
	if !ok {
		return Metric{}, NewConfigurationError("metric", name, ErrUnknownMetric)
	}
	return m, nil
}

// MetricNames returns every known metric name in sorted order.
func MetricNames() []string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
