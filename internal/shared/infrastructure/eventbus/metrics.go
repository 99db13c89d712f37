package eventbus

import (
	"time"

	"github.com/felixgeelhaar/pulse/pkg/observability"
)

// Event bus metric names. Every series is tagged with the routing key.
const (
	MetricEventsDispatched = "events.dispatched"
	MetricEventsFailed     = "events.failed"
	MetricEventsDropped    = "events.dropped"
	MetricDispatchDuration = "events.dispatch_duration"
)

func recordDispatch(m observability.Metrics, routingKey string, took time.Duration, err error) {
	tag := observability.T("routing_key", routingKey)
	m.Timing(MetricDispatchDuration, took, tag)
	if err != nil {
		m.Counter(MetricEventsFailed, 1, tag)
		return
	}
	m.Counter(MetricEventsDispatched, 1, tag)
}

func metricsOrNoop(m observability.Metrics) observability.Metrics {
	if m == nil {
		return observability.NoopMetrics{}
	}
	return m
}
