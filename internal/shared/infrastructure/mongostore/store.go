// Package mongostore connects to MongoDB and provides the session-backed
// unit of work used by the Mongo repositories.
package mongostore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	UsersCollection           = "users"
	MeetingRequestsCollection = "meeting_requests"
	OutboxCollection          = "outbox_messages"
	CountersCollection        = "counters"
)

// DefaultDatabase is used when neither the config nor the URI names a database.
const DefaultDatabase = "mentora"

// Store owns a MongoDB client and the application database.
type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

// Connect dials MongoDB and verifies the deployment is reachable.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	var hello bson.M
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb hello: %w", err)
	}

	if database == "" {
		database = databaseFromURI(uri)
	}
	return &Store{
		client:       client,
		db:           client.Database(database),
		transactions: supportsTransactions(hello),
	}, nil
}

// SupportsTransactions reports whether the deployment is a replica set
// member or a mongos router. Standalone servers reject transactions.
func (s *Store) SupportsTransactions() bool {
	return s.transactions
}

func supportsTransactions(hello bson.M) bool {
	if name, ok := hello["setName"].(string); ok && name != "" {
		return true
	}
	msg, _ := hello["msg"].(string)
	return msg == "isdbgrid"
}

// Client returns the underlying client.
func (s *Store) Client() *mongo.Client {
	return s.client
}

// Database returns the application database.
func (s *Store) Database() *mongo.Database {
	return s.db
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return DefaultDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return DefaultDatabase
}
