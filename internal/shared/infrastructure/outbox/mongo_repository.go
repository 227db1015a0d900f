package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/mongostore"
)

// MongoRepository implements Repository on MongoDB. Message IDs come from
// a counter document so ordering matches the SQL stores.
type MongoRepository struct {
	messages *mongo.Collection
	counters *mongo.Collection
}

// NewMongoRepository creates an outbox repository in db.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		messages: db.Collection(mongostore.OutboxCollection),
		counters: db.Collection(mongostore.CountersCollection),
	}
}

type outboxDocument struct {
	ID               int64      `bson:"_id"`
	EventID          string     `bson:"event_id"`
	AggregateType    string     `bson:"aggregate_type"`
	AggregateID      string     `bson:"aggregate_id"`
	RoutingKey       string     `bson:"routing_key"`
	Payload          string     `bson:"payload"`
	CreatedAt        time.Time  `bson:"created_at"`
	PublishedAt      *time.Time `bson:"published_at"`
	NextRetryAt      *time.Time `bson:"next_retry_at"`
	RetryCount       int        `bson:"retry_count"`
	LastError        *string    `bson:"last_error"`
	DeadLetteredAt   *time.Time `bson:"dead_lettered_at"`
	DeadLetterReason *string    `bson:"dead_letter_reason"`
}

func (r *MongoRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": mongostore.OutboxCollection},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate outbox id: %w", err)
	}
	return counter.Seq, nil
}

// SaveBatch inserts msgs. Inside a mongostore unit of work ctx carries the session.
func (r *MongoRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	docs := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		id, err := r.nextID(ctx)
		if err != nil {
			return err
		}
		msg.ID = id
		docs = append(docs, outboxDocument{
			ID:            id,
			EventID:       msg.EventID.String(),
			AggregateType: msg.AggregateType,
			AggregateID:   msg.AggregateID.String(),
			RoutingKey:    msg.RoutingKey,
			Payload:       string(msg.Payload),
			CreatedAt:     msg.CreatedAt.UTC(),
		})
	}
	_, err := r.messages.InsertMany(ctx, docs)
	return err
}

// GetUnpublished returns pending messages due at now.
func (r *MongoRepository) GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*Message, error) {
	filter := bson.M{
		"published_at":     nil,
		"dead_lettered_at": nil,
		"$or": bson.A{
			bson.M{"next_retry_at": nil},
			bson.M{"next_retry_at": bson.M{"$lte": now.UTC()}},
		},
	}
	cursor, err := r.messages.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []outboxDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	msgs := make([]*Message, 0, len(docs))
	for _, doc := range docs {
		eventID, err := uuid.Parse(doc.EventID)
		if err != nil {
			return nil, fmt.Errorf("outbox message %d: event id: %w", doc.ID, err)
		}
		aggregateID, err := uuid.Parse(doc.AggregateID)
		if err != nil {
			return nil, fmt.Errorf("outbox message %d: aggregate id: %w", doc.ID, err)
		}
		msgs = append(msgs, &Message{
			ID:               doc.ID,
			EventID:          eventID,
			AggregateType:    doc.AggregateType,
			AggregateID:      aggregateID,
			RoutingKey:       doc.RoutingKey,
			Payload:          []byte(doc.Payload),
			CreatedAt:        doc.CreatedAt,
			PublishedAt:      doc.PublishedAt,
			NextRetryAt:      doc.NextRetryAt,
			RetryCount:       doc.RetryCount,
			LastError:        doc.LastError,
			DeadLetteredAt:   doc.DeadLetteredAt,
			DeadLetterReason: doc.DeadLetterReason,
		})
	}
	return msgs, nil
}

// MarkPublished records a successful publish.
func (r *MongoRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	_, err := r.messages.UpdateByID(ctx, id, bson.M{"$set": bson.M{"published_at": at.UTC()}})
	return err
}

// MarkFailed counts a failed attempt and schedules the next one.
func (r *MongoRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := r.messages.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"retry_count": 1},
		"$set": bson.M{"last_error": errMsg, "next_retry_at": nextRetryAt.UTC()},
	})
	return err
}

// MarkDead parks a message that exhausted its retries.
func (r *MongoRepository) MarkDead(ctx context.Context, id int64, reason string, at time.Time) error {
	_, err := r.messages.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"retry_count": 1},
		"$set": bson.M{"dead_lettered_at": at.UTC(), "dead_letter_reason": reason},
	})
	return err
}

// DeleteOld removes messages published before cutoff.
func (r *MongoRepository) DeleteOld(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.messages.DeleteMany(ctx, bson.M{"published_at": bson.M{"$ne": nil, "$lt": cutoff.UTC()}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
