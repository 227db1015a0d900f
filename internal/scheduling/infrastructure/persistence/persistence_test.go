package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	identity "github.com/felixgeelhaar/mentora/internal/identity/domain"
	identityPersistence "github.com/felixgeelhaar/mentora/internal/identity/infrastructure/persistence"
	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/migrations"
)

var fixedNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func openMigratedSQLite(t *testing.T) database.Connection {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "mentora.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Migrate(ctx, conn))
	return conn
}

func seedUser(t *testing.T, repo identity.UserRepository, first string, role identity.Role) uuid.UUID {
	t.Helper()
	f, err := identity.NewName(first)
	require.NoError(t, err)
	l, err := identity.NewName("Tester")
	require.NoError(t, err)
	e, err := identity.NewEmail(first + "@example.com")
	require.NoError(t, err)
	u, err := identity.NewUser(f, l, e, role, nil, fixedNow)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), u))
	return u.ID()
}

// meetingSet saves one request per listing window and returns them by name.
func meetingSet(t *testing.T, repo domain.Repository, mentee, mentor, otherMentee uuid.UUID) map[string]*domain.MeetingRequest {
	t.Helper()
	ctx := context.Background()
	future := fixedNow.Add(2 * time.Hour)
	past := fixedNow.Add(-2 * time.Hour)

	build := func(menteeID uuid.UUID, status domain.Status, confirmed *time.Time, createdOffset time.Duration) *domain.MeetingRequest {
		created := fixedNow.Add(-72 * time.Hour).Add(createdOffset)
		return domain.RehydrateMeetingRequest(uuid.New(), menteeID, mentor, fixedNow.Add(time.Hour), 30, "msg",
			status, "", confirmed, created, created)
	}

	set := map[string]*domain.MeetingRequest{
		"pending":          build(mentee, domain.StatusPending, nil, 1*time.Minute),
		"confirmed_future": build(mentee, domain.StatusConfirmed, &future, 2*time.Minute),
		"confirmed_past":   build(mentee, domain.StatusConfirmed, &past, 3*time.Minute),
		"completed":        build(mentee, domain.StatusCompleted, nil, 4*time.Minute),
		"rejected":         build(mentee, domain.StatusRejected, nil, 5*time.Minute),
		"cancelled":        build(mentee, domain.StatusCancelled, nil, 6*time.Minute),
		"other_mentee":     build(otherMentee, domain.StatusPending, nil, 7*time.Minute),
	}
	for _, m := range set {
		require.NoError(t, repo.Save(ctx, m))
	}
	return set
}

func ids(meetings []*domain.MeetingRequest) []uuid.UUID {
	out := make([]uuid.UUID, len(meetings))
	for i, m := range meetings {
		out[i] = m.ID()
	}
	return out
}

// exerciseRepository runs the shared repository contract against repo.
func exerciseRepository(t *testing.T, repo domain.Repository, mentee, mentor, otherMentee uuid.UUID) {
	ctx := context.Background()
	set := meetingSet(t, repo, mentee, mentor, otherMentee)

	t.Run("find by id round trips", func(t *testing.T) {
		want := set["confirmed_future"]
		got, err := repo.FindByID(ctx, want.ID())
		require.NoError(t, err)
		require.NotNil(t, got)

		assert.Equal(t, want.MenteeID(), got.MenteeID())
		assert.Equal(t, want.MentorID(), got.MentorID())
		assert.Equal(t, domain.StatusConfirmed, got.Status())
		assert.Equal(t, "msg", got.Message())
		assert.Equal(t, 30, got.DurationMinutes())
		require.NotNil(t, got.ConfirmedTime())
		assert.True(t, want.ConfirmedTime().Equal(*got.ConfirmedTime()))
		assert.True(t, want.CreatedAt().Equal(got.CreatedAt()))
	})

	t.Run("missing is nil", func(t *testing.T) {
		got, err := repo.FindByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("newest first", func(t *testing.T) {
		got, err := repo.Find(ctx, domain.ScheduleFilter{Now: fixedNow})
		require.NoError(t, err)
		require.Len(t, got, 7)
		assert.Equal(t, set["other_mentee"].ID(), got[0].ID())
		assert.Equal(t, set["pending"].ID(), got[6].ID())
	})

	menteeID := mentee
	windows := []struct {
		name   string
		filter domain.ScheduleFilter
		want   []string
	}{
		{"upcoming", domain.ScheduleFilter{MenteeID: &menteeID, Upcoming: true, Now: fixedNow}, []string{"confirmed_future", "pending"}},
		{"past", domain.ScheduleFilter{MenteeID: &menteeID, Past: true, Now: fixedNow}, []string{"cancelled", "rejected", "completed", "confirmed_past"}},
		{"both", domain.ScheduleFilter{MenteeID: &menteeID, Upcoming: true, Past: true, Now: fixedNow}, []string{"cancelled", "rejected", "completed", "confirmed_past", "confirmed_future", "pending"}},
	}
	for _, w := range windows {
		t.Run(w.name, func(t *testing.T) {
			got, err := repo.Find(ctx, w.filter)
			require.NoError(t, err)
			want := make([]uuid.UUID, len(w.want))
			for i, name := range w.want {
				want[i] = set[name].ID()
			}
			assert.Equal(t, want, ids(got))
		})
	}

	t.Run("status and owner", func(t *testing.T) {
		status := domain.StatusPending
		mentorID := mentor
		got, err := repo.Find(ctx, domain.ScheduleFilter{MentorID: &mentorID, Status: &status, Now: fixedNow})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{set["other_mentee"].ID(), set["pending"].ID()}, ids(got))
	})

	t.Run("save updates transition", func(t *testing.T) {
		m := set["pending"]
		at := fixedNow.Add(24 * time.Hour)
		require.NoError(t, m.TransitionTo(domain.StatusConfirmed, "notes", &at, fixedNow))
		require.NoError(t, repo.Save(ctx, m))

		got, err := repo.FindByID(ctx, m.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, got.Status())
		assert.Equal(t, "notes", got.MentorNotes())
		assert.True(t, at.Equal(*got.ConfirmedTime()))
		assert.True(t, fixedNow.Equal(got.UpdatedAt()))

		require.NoError(t, m.TransitionTo(domain.StatusCancelled, "", nil, fixedNow))
		require.NoError(t, repo.Save(ctx, m))
		got, err = repo.FindByID(ctx, m.ID())
		require.NoError(t, err)
		assert.Nil(t, got.ConfirmedTime())
		assert.Equal(t, "notes", got.MentorNotes())
	})
}

func TestSQLMeetingRepository(t *testing.T) {
	conn := openMigratedSQLite(t)
	users := identityPersistence.NewSQLUserRepository(conn)
	mentor := seedUser(t, users, "mentor", identity.RoleMentor)
	mentee := seedUser(t, users, "mentee", identity.RoleMentee)
	other := seedUser(t, users, "other", identity.RoleMentee)

	exerciseRepository(t, NewSQLMeetingRepository(conn), mentee, mentor, other)
}

func TestInMemoryMeetingRepository(t *testing.T) {
	exerciseRepository(t, NewInMemoryMeetingRepository(), uuid.New(), uuid.New(), uuid.New())
}

func TestSQLMeetingRepository_WhereClause(t *testing.T) {
	mentee := uuid.New()
	repo := &SQLMeetingRepository{driver: database.DriverPostgres}

	where, args := repo.whereClause(domain.ScheduleFilter{MenteeID: &mentee, Upcoming: true, Past: true, Now: fixedNow})

	assert.Equal(t,
		`mentee_id = ? AND (status = 'Pending' OR (status = 'Confirmed' AND confirmed_time >= ?) OR status IN ('Completed', 'Rejected', 'Cancelled') OR (status = 'Confirmed' AND confirmed_time < ?))`,
		where)
	assert.Equal(t, []any{mentee, fixedNow, fixedNow}, args)

	where, args = repo.whereClause(domain.ScheduleFilter{Now: fixedNow})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestMeetingFilter(t *testing.T) {
	mentor := uuid.New()
	status := domain.StatusConfirmed

	query := meetingFilter(domain.ScheduleFilter{MentorID: &mentor, Status: &status, Past: true, Now: fixedNow})

	assert.Equal(t, mentor.String(), query["mentor_id"])
	assert.Equal(t, "Confirmed", query["status"])
	or, ok := query["$or"].(bson.A)
	require.True(t, ok)
	assert.Len(t, or, 2)
	assert.Equal(t, bson.M{"status": "Confirmed", "confirmed_time": bson.M{"$lt": fixedNow}}, or[1])

	assert.NotContains(t, meetingFilter(domain.ScheduleFilter{Now: fixedNow}), "$or")
}
