package database

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoTransaction is returned by Commit and Rollback outside a unit of work.
var ErrNoTransaction = errors.New("database: no transaction in context")

type txKey struct{}

// txScope is the transaction a unit-of-work context carries. Only the scope
// that opened the transaction may end it.
type txScope struct {
	tx    Transaction
	owner bool
}

func scopeFrom(ctx context.Context) (txScope, bool) {
	s, ok := ctx.Value(txKey{}).(txScope)
	return s, ok && s.tx != nil
}

// UnitOfWork implements application.UnitOfWork over a Connection.
// Begin inside an open unit joins the outer transaction.
type UnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work for conn.
func NewUnitOfWork(conn Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Begin opens a transaction, or joins the one already in ctx.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if outer, ok := scopeFrom(ctx); ok {
		return context.WithValue(ctx, txKey{}, txScope{tx: outer.tx}), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return context.WithValue(ctx, txKey{}, txScope{tx: tx, owner: true}), nil
}

// Commit commits when ctx opened the transaction and is a no-op for joined units.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	return u.end(ctx, Transaction.Commit)
}

// Rollback rolls back when ctx opened the transaction and is a no-op for joined units.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	return u.end(ctx, Transaction.Rollback)
}

func (u *UnitOfWork) end(ctx context.Context, finish func(Transaction, context.Context) error) error {
	s, ok := scopeFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !s.owner {
		return nil
	}
	return finish(s.tx, ctx)
}

// ExecutorFromContext returns the unit's transaction when ctx carries one and
// conn otherwise. Repositories call it on every query.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if s, ok := scopeFrom(ctx); ok {
		return s.tx
	}
	return conn
}
