package observability

import (
	"context"

	"github.com/google/uuid"
)

// Attribute keys shared by logs and metrics.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
	OperationKey     = "operation"
	DurationKey      = "duration_ms"
	ErrorKey         = "error"
)

// ctxKey indexes values this package stores on a context. The attribute key
// doubles as the log attribute name.
type ctxKey struct{ attr string }

var (
	correlationKey = ctxKey{CorrelationIDKey}
	requestKey     = ctxKey{RequestIDKey}
	operationKey   = ctxKey{OperationKey}
)

// contextAttrs lists the keys copied from the context onto every log record.
var contextAttrs = []ctxKey{correlationKey, requestKey, operationKey}

func withID(ctx context.Context, key ctxKey, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, key, id)
}

func lookup(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// WithCorrelationID ties ctx to a correlation ID that commands copy onto
// the events they publish. An empty id generates one.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return withID(ctx, correlationKey, id)
}

// CorrelationIDFromContext returns the correlation ID or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return lookup(ctx, correlationKey)
}

// WithRequestID tags ctx with a request ID. An empty id generates one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withID(ctx, requestKey, id)
}

// RequestIDFromContext returns the request ID or "".
func RequestIDFromContext(ctx context.Context) string {
	return lookup(ctx, requestKey)
}

// WithOperation names the operation running under ctx, e.g. "scoring.rank".
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey, operation)
}

// OperationFromContext returns the operation name or "".
func OperationFromContext(ctx context.Context) string {
	return lookup(ctx, operationKey)
}
