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

	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/mongostore"
)

// MongoMeetingRepository stores meeting requests in MongoDB.
type MongoMeetingRepository struct {
	collection *mongo.Collection
}

// NewMongoMeetingRepository creates a meeting request repository in db.
func NewMongoMeetingRepository(db *mongo.Database) *MongoMeetingRepository {
	return &MongoMeetingRepository{collection: db.Collection(mongostore.MeetingRequestsCollection)}
}

type meetingDocument struct {
	ID              string     `bson:"_id"`
	MenteeID        string     `bson:"mentee_id"`
	MentorID        string     `bson:"mentor_id"`
	RequestedTime   time.Time  `bson:"requested_time"`
	DurationMinutes int        `bson:"duration_minutes"`
	Message         string     `bson:"message"`
	Status          string     `bson:"status"`
	MentorNotes     string     `bson:"mentor_notes"`
	ConfirmedTime   *time.Time `bson:"confirmed_time"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
}

func toMeetingDocument(m *domain.MeetingRequest) meetingDocument {
	return meetingDocument{
		ID:              m.ID().String(),
		MenteeID:        m.MenteeID().String(),
		MentorID:        m.MentorID().String(),
		RequestedTime:   m.RequestedTime().UTC(),
		DurationMinutes: m.DurationMinutes(),
		Message:         m.Message(),
		Status:          string(m.Status()),
		MentorNotes:     m.MentorNotes(),
		ConfirmedTime:   m.ConfirmedTime(),
		CreatedAt:       m.CreatedAt().UTC(),
		UpdatedAt:       m.UpdatedAt().UTC(),
	}
}

func (d meetingDocument) toDomain() (*domain.MeetingRequest, error) {
	ids := make([]uuid.UUID, 3)
	for i, raw := range []string{d.ID, d.MenteeID, d.MentorID} {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("meeting document %s: %w", d.ID, err)
		}
		ids[i] = id
	}

	var confirmed *time.Time
	if d.ConfirmedTime != nil {
		t := d.ConfirmedTime.UTC()
		confirmed = &t
	}
	return domain.RehydrateMeetingRequest(
		ids[0], ids[1], ids[2],
		d.RequestedTime.UTC(), d.DurationMinutes, d.Message,
		domain.Status(d.Status), d.MentorNotes, confirmed,
		d.CreatedAt.UTC(), d.UpdatedAt.UTC(),
	), nil
}

// Save upserts the request by ID.
func (r *MongoMeetingRepository) Save(ctx context.Context, m *domain.MeetingRequest) error {
	doc := toMeetingDocument(m)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

// FindByID returns nil, nil when the request does not exist.
func (r *MongoMeetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.MeetingRequest, error) {
	var doc meetingDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

// Find returns the requests matching filter, newest first.
func (r *MongoMeetingRepository) Find(ctx context.Context, filter domain.ScheduleFilter) ([]*domain.MeetingRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, meetingFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []meetingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	meetings := make([]*domain.MeetingRequest, 0, len(docs))
	for _, doc := range docs {
		m, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, nil
}

// meetingFilter mirrors domain.ScheduleFilter.Matches as a query document.
func meetingFilter(f domain.ScheduleFilter) bson.M {
	query := bson.M{}
	if f.MenteeID != nil {
		query["mentee_id"] = f.MenteeID.String()
	}
	if f.MentorID != nil {
		query["mentor_id"] = f.MentorID.String()
	}
	if f.Status != nil {
		query["status"] = string(*f.Status)
	}

	now := f.Now.UTC()
	var window bson.A
	if f.Upcoming {
		window = append(window,
			bson.M{"status": string(domain.StatusPending)},
			bson.M{"status": string(domain.StatusConfirmed), "confirmed_time": bson.M{"$gte": now}},
		)
	}
	if f.Past {
		window = append(window,
			bson.M{"status": bson.M{"$in": bson.A{
				string(domain.StatusCompleted), string(domain.StatusRejected), string(domain.StatusCancelled),
			}}},
			bson.M{"status": string(domain.StatusConfirmed), "confirmed_time": bson.M{"$lt": now}},
		)
	}
	if len(window) > 0 {
		query["$or"] = window
	}
	return query
}
