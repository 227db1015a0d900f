package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Indexes lists the index models per collection.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		MeetingRequestsCollection: {
			{Keys: bson.D{{Key: "mentee_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "mentor_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "requested_time", Value: 1}}},
			{Keys: bson.D{{Key: "confirmed_time", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		OutboxCollection: {
			{Keys: bson.D{{Key: "published_at", Value: 1}, {Key: "dead_lettered_at", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "event_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
}

// EnsureIndexes creates every index. Existing identical indexes are left alone.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for collection, models := range Indexes() {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
