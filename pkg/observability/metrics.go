package observability

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics records counters, gauges and distributions. The cache, the scoring
// service and the event bus accept one; NoopMetrics is the default.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Histogram(name string, value float64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag labels a metric series.
type Tag struct {
	Key   string
	Value string
}

// T is shorthand for Tag{Key: key, Value: value}.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Gauge(string, float64, ...Tag)        {}
func (NoopMetrics) Histogram(string, float64, ...Tag)    {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// series is everything recorded under one name and tag set.
type series struct {
	count     int64
	gauge     float64
	samples   []float64
	durations []time.Duration
}

// InMemoryMetrics keeps every series in memory. Tests use it to assert on
// cache hits, batch sizes and event dispatch counts.
type InMemoryMetrics struct {
	mu     sync.RWMutex
	series map[string]*series
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{series: make(map[string]*series)}
}

func (m *InMemoryMetrics) record(name string, tags []Tag, fn func(*series)) {
	key := formatKey(name, tags)
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.series[key]
	if !ok {
		s = &series{}
		m.series[key] = s
	}
	fn(s)
}

func (m *InMemoryMetrics) lookup(name string, tags []Tag) (series, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.series[formatKey(name, tags)]
	if !ok {
		return series{}, false
	}
	return *s, true
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.record(name, tags, func(s *series) { s.count += value })
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.record(name, tags, func(s *series) { s.gauge = value })
}

func (m *InMemoryMetrics) Histogram(name string, value float64, tags ...Tag) {
	m.record(name, tags, func(s *series) { s.samples = append(s.samples, value) })
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.record(name, tags, func(s *series) { s.durations = append(s.durations, duration) })
}

// GetCounter returns the accumulated counter value, zero when unseen.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	s, _ := m.lookup(name, tags)
	return s.count
}

// GetGauge returns the last gauge value, zero when unseen.
func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	s, _ := m.lookup(name, tags)
	return s.gauge
}

// GetHistogram returns a copy of the recorded samples.
func (m *InMemoryMetrics) GetHistogram(name string, tags ...Tag) []float64 {
	s, ok := m.lookup(name, tags)
	if !ok || len(s.samples) == 0 {
		return nil
	}
	return append([]float64(nil), s.samples...)
}

// GetTimings returns a copy of the recorded durations.
func (m *InMemoryMetrics) GetTimings(name string, tags ...Tag) []time.Duration {
	s, ok := m.lookup(name, tags)
	if !ok || len(s.durations) == 0 {
		return nil
	}
	return append([]time.Duration(nil), s.durations...)
}

// Keys lists every recorded series key in sorted order.
func (m *InMemoryMetrics) Keys() []string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.series))
	for k := range m.series {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Reset drops all series.
func (m *InMemoryMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series = make(map[string]*series)
}

// formatKey renders name:k1=v1:k2=v2 with tags sorted by key.
func formatKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	sorted := append([]Tag(nil), tags...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	parts := make([]string, 0, len(sorted)+1)
	parts = append(parts, name)
	for _, t := range sorted {
		parts = append(parts, t.Key+"="+t.Value)
	}
	return strings.Join(parts, ":")
}

// Operation metric names recorded by Timer.
const (
	MetricOperationTotal    = "pulse.operation.total"
	MetricOperationDuration = "pulse.operation.duration"
	MetricOperationErrors   = "pulse.operation.errors"
)
