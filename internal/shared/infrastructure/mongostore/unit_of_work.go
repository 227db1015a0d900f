package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

type sessionKey struct{}

type sessionInfo struct {
	session mongo.Session
	owned   bool
}

// UnitOfWork runs application units inside a MongoDB multi-document transaction.
// On a standalone server there are no transactions: writes apply one by one
// and Commit and Rollback only close the unit.
type UnitOfWork struct {
	client       *mongo.Client
	transactions bool
}

// NewUnitOfWork creates a unit of work bound to the store's client.
func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{client: store.client, transactions: store.transactions}
}

// Begin starts a session transaction and returns a session context.
// An existing unit in ctx is reused and left to its owner.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := ctx.Value(sessionKey{}).(sessionInfo); ok {
		return context.WithValue(ctx, sessionKey{}, sessionInfo{session: info.session, owned: false}), nil
	}
	if !u.transactions {
		return context.WithValue(ctx, sessionKey{}, sessionInfo{owned: true}), nil
	}

	session, err := u.client.StartSession()
	if err != nil {
		return nil, err
	}
	if err := session.StartTransaction(); err != nil {
		session.EndSession(ctx)
		return nil, err
	}

	sessCtx := mongo.NewSessionContext(ctx, session)
	return context.WithValue(sessCtx, sessionKey{}, sessionInfo{session: session, owned: true}), nil
}

// Commit commits the transaction if this unit owns it.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	info, ok := ctx.Value(sessionKey{}).(sessionInfo)
	if !ok {
		return errors.New("no mongo session in context")
	}
	if !info.owned || info.session == nil {
		return nil
	}
	defer info.session.EndSession(ctx)
	return info.session.CommitTransaction(ctx)
}

// Rollback aborts the transaction if this unit owns it.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	info, ok := ctx.Value(sessionKey{}).(sessionInfo)
	if !ok {
		return errors.New("no mongo session in context")
	}
	if !info.owned || info.session == nil {
		return nil
	}
	defer info.session.EndSession(ctx)
	return info.session.AbortTransaction(ctx)
}
