package database

import (
	"context"
	"errors"
)

type txKey struct{}

type txState struct {
	tx    Transaction
	owned bool
}

// ExecutorFromContext returns the transaction bound to ctx, or conn when
// there is none. Repositories call it so they join an open unit of work.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if state, ok := ctx.Value(txKey{}).(txState); ok && state.tx != nil {
		return state.tx
	}
	return conn
}

// UnitOfWork runs repository calls inside one database transaction.
type UnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work over conn.
func NewUnitOfWork(conn Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Begin opens a transaction, or joins the one already bound to ctx.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if state, ok := ctx.Value(txKey{}).(txState); ok && state.tx != nil {
		return context.WithValue(ctx, txKey{}, txState{tx: state.tx}), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, txKey{}, txState{tx: tx, owned: true}), nil
}

// Commit commits when this unit opened the transaction.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	state, ok := ctx.Value(txKey{}).(txState)
	if !ok {
		return errors.New("no transaction in context")
	}
	if !state.owned {
		return nil
	}
	return state.tx.Commit(ctx)
}

// Rollback rolls back when this unit opened the transaction.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	state, ok := ctx.Value(txKey{}).(txState)
	if !ok {
		return errors.New("no transaction in context")
	}
	if !state.owned {
		return nil
	}
	return state.tx.Rollback(ctx)
}
