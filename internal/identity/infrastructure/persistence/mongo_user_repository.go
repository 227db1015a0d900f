package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/mongostore"
)

// MongoUserRepository stores users in the users collection. IDs are kept
// as canonical UUID strings in _id.
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a user repository in db.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection(mongostore.UsersCollection)}
}

type userDocument struct {
	ID               string    `bson:"_id"`
	FirstName        string    `bson:"first_name"`
	LastName         string    `bson:"last_name"`
	Email            string    `bson:"email"`
	Role             string    `bson:"role"`
	AssignedMentorID *string   `bson:"assigned_mentor_id"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func toUserDocument(u *domain.User) userDocument {
	doc := userDocument{
		ID:        u.ID().String(),
		FirstName: u.FirstName(),
		LastName:  u.LastName(),
		Email:     u.Email(),
		Role:      string(u.Role()),
		CreatedAt: u.CreatedAt().UTC(),
		UpdatedAt: u.UpdatedAt().UTC(),
	}
	if id := u.AssignedMentorID(); id != nil {
		s := id.String()
		doc.AssignedMentorID = &s
	}
	return doc
}

func (d userDocument) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("user document id: %w", err)
	}
	var mentorID *uuid.UUID
	if d.AssignedMentorID != nil {
		parsed, err := uuid.Parse(*d.AssignedMentorID)
		if err != nil {
			return nil, fmt.Errorf("user %s assigned mentor: %w", d.ID, err)
		}
		mentorID = &parsed
	}
	return domain.RehydrateUser(id, d.FirstName, d.LastName, d.Email, domain.Role(d.Role), mentorID, d.CreatedAt, d.UpdatedAt), nil
}

// Save upserts the user by ID.
func (r *MongoUserRepository) Save(ctx context.Context, user *domain.User) error {
	doc := toUserDocument(user)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

// FindByID returns nil, nil when the user does not exist.
func (r *MongoUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var doc userDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

// FindByIDs loads every existing user among ids.
func (r *MongoUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	ids = domain.UniqueIDs(ids)
	result := make(map[uuid.UUID]*domain.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	keys := make(bson.A, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	users, err := r.find(ctx, bson.M{"_id": bson.M{"$in": keys}}, options.Find())
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID()] = u
	}
	return result, nil
}

// List returns all users ordered by role, then last name.
func (r *MongoUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{
		{Key: "role", Value: 1},
		{Key: "last_name", Value: 1},
		{Key: "first_name", Value: 1},
	}))
}

func (r *MongoUserRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.User, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]*domain.User, 0, len(docs))
	for _, doc := range docs {
		u, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
