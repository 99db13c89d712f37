package application

import "context"

// Query is a request that only reads state.
type Query interface {
	QueryName() string
}

// QueryHandler answers one query type.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
