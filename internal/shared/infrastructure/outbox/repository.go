package outbox

import (
	"context"
	"time"
)

// Repository persists outbox messages. SaveBatch joins the unit of work in
// ctx so messages commit together with the aggregate that raised them.
type Repository interface {
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished returns pending messages due at now, oldest first.
	GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*Message, error)

	MarkPublished(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string, at time.Time) error

	// DeleteOld removes messages published before cutoff.
	DeleteOld(ctx context.Context, cutoff time.Time) (int64, error)
}
