package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type txMarker struct{}

func begun(t *testing.T) (*mockUnitOfWork, context.Context, context.Context) {
	t.Helper()
	uow := new(mockUnitOfWork)
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txMarker{}, "meeting-request")
	uow.On("Begin", ctx).Return(txCtx, nil)
	return uow, ctx, txCtx
}

func TestWithUnitOfWork(t *testing.T) {
	t.Run("commits with the transaction context", func(t *testing.T) {
		uow, ctx, txCtx := begun(t)
		uow.On("Commit", txCtx).Return(nil)

		var seen context.Context
		err := WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
			seen = ctx
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, txCtx, seen)
		uow.AssertExpectations(t)
		uow.AssertNotCalled(t, "Rollback", mock.Anything)
	})

	t.Run("rolls back and returns the function error", func(t *testing.T) {
		uow, ctx, txCtx := begun(t)
		uow.On("Rollback", txCtx).Return(nil)
		saveErr := errors.New("save meeting")

		err := WithUnitOfWork(ctx, uow, func(context.Context) error { return saveErr })

		assert.Same(t, saveErr, err)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("joins a failed rollback", func(t *testing.T) {
		uow, ctx, txCtx := begun(t)
		rbErr := errors.New("connection reset")
		uow.On("Rollback", txCtx).Return(rbErr)
		saveErr := errors.New("save outbox")

		err := WithUnitOfWork(ctx, uow, func(context.Context) error { return saveErr })

		assert.ErrorIs(t, err, saveErr)
		assert.ErrorIs(t, err, rbErr)
	})

	t.Run("begin failure skips the function", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		ctx := context.Background()
		beginErr := errors.New("pool exhausted")
		uow.On("Begin", ctx).Return(ctx, beginErr)

		called := false
		err := WithUnitOfWork(ctx, uow, func(context.Context) error {
			called = true
			return nil
		})

		assert.Same(t, beginErr, err)
		assert.False(t, called)
	})

	t.Run("wraps commit failure", func(t *testing.T) {
		uow, ctx, txCtx := begun(t)
		commitErr := errors.New("serialization failure")
		uow.On("Commit", txCtx).Return(commitErr)

		err := WithUnitOfWork(ctx, uow, func(context.Context) error { return nil })

		assert.ErrorIs(t, err, commitErr)
		assert.Contains(t, err.Error(), "commit")
	})

	t.Run("rolls back and re-panics", func(t *testing.T) {
		uow, ctx, txCtx := begun(t)
		uow.On("Rollback", txCtx).Return(nil)

		assert.PanicsWithValue(t, "boom", func() {
			_ = WithUnitOfWork(ctx, uow, func(context.Context) error { panic("boom") })
		})
		uow.AssertCalled(t, "Rollback", txCtx)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})
}
