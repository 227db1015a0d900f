package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/mentora/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/mentora/internal/shared/domain"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// saveEvents stamps the aggregate's pending events and writes them to the
// outbox inside the caller's unit of work.
func saveEvents(ctx context.Context, repo outbox.Repository, aggregate sharedDomain.AggregateRoot, userID uuid.UUID) error {
	events := aggregate.DomainEvents()
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx, userID))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	if err := repo.SaveBatch(ctx, msgs); err != nil {
		return err
	}
	aggregate.ClearDomainEvents()
	return nil
}
