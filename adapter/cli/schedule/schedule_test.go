package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/mentora/adapter/cli"
	internalApp "github.com/felixgeelhaar/mentora/internal/app"
	identity "github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/felixgeelhaar/mentora/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testUsers struct {
	mentor, mentee, other *identity.User
}

// setupLocalModeTestApp creates a CLI app over a fresh SQLite database.
func setupLocalModeTestApp(t *testing.T) testUsers {
	t.Helper()

	cfg := &config.Config{
		AppEnv:              "test",
		SQLitePath:          filepath.Join(t.TempDir(), "test.db"),
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     10,
		OutboxMaxRetries:    3,
		JWTTTL:              time.Hour,
		EmailProvider:       "log",
		EmailFromAddress:    "no-reply@example.com",
		EmailBreakerFailure: 3,
		EmailBreakerTimeout: time.Second,
		MetricsNamespace:    "schedule_cli_test",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	container, err := internalApp.NewContainer(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	now := time.Now().UTC()
	mentor := identity.RehydrateUser(uuid.New(), "Grace", "Hopper", "grace@example.com", identity.RoleMentor, nil, now, now)
	mentorID := mentor.ID()
	users := testUsers{
		mentor: mentor,
		mentee: identity.RehydrateUser(uuid.New(), "Linus", "Student", "linus@example.com", identity.RoleMentee, &mentorID, now, now),
		other:  identity.RehydrateUser(uuid.New(), "Ken", "Student", "ken@example.com", identity.RoleMentee, nil, now, now),
	}
	for _, u := range []*identity.User{users.mentor, users.mentee, users.other} {
		require.NoError(t, container.UserRepo.Save(ctx, u))
	}

	cli.SetApp(cli.NewApp(
		container.RequestMeetingHandler,
		container.UpdateStatusHandler,
		container.ListSchedulesHandler,
		container.GetScheduleHandler,
		container.UserRepo,
		container.Tokens,
	))
	t.Cleanup(func() { cli.SetApp(nil) })
	return users
}

// run executes the schedule command group and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	asUser, jsonOutput = "", false
	requestAt, requestDuration, requestMessage = "", domain.DefaultDurationMinutes, ""
	listStatus, listUpcoming, listPast = "", false, false
	statusNotes, statusConfirmed = "", ""

	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(io.Discard)
	Cmd.SetArgs(args)
	err := Cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScheduleCommands(t *testing.T) {
	users := setupLocalModeTestApp(t)
	at := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)

	out, err := run(t, "request", "--as", users.mentee.ID().String(), "--at", at, "--message", "Career chat", "--json")
	require.NoError(t, err)

	var created queries.ScheduleDTO
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "Pending", created.Status)
	assert.Equal(t, domain.DefaultDurationMinutes, created.DurationMinutes)
	assert.Equal(t, "Grace", created.Mentor.FirstName)
	id := created.ID.String()

	t.Run("list as mentor", func(t *testing.T) {
		out, err := run(t, "list", "--as", users.mentor.ID().String())
		require.NoError(t, err)
		assert.Contains(t, out, "Meeting requests (1)")
		assert.Contains(t, out, "Linus Student <linus@example.com>")
		assert.Contains(t, out, "Career chat")
	})

	t.Run("list as unrelated mentee", func(t *testing.T) {
		out, err := run(t, "list", "--as", users.other.ID().String())
		require.NoError(t, err)
		assert.Contains(t, out, "No meeting requests found.")
	})

	t.Run("show is limited to participants", func(t *testing.T) {
		_, err := run(t, "show", id, "--as", users.other.ID().String())
		assert.ErrorIs(t, err, domain.ErrForbidden)

		out, err := run(t, "show", id, "--as", users.mentee.ID().String())
		require.NoError(t, err)
		assert.Contains(t, out, "[Pending]")
	})

	t.Run("mentor confirms", func(t *testing.T) {
		_, err := run(t, "status", id, "Confirmed", "--as", users.mentor.ID().String())
		assert.ErrorIs(t, err, domain.ErrMissingConfirmedTime)

		out, err := run(t, "status", id, "Confirmed", "--as", users.mentor.ID().String(),
			"--confirmed-time", at, "--notes", "See you then")
		require.NoError(t, err)
		assert.Contains(t, out, "[Confirmed]")
		assert.Contains(t, out, "Notes: See you then")
	})

	t.Run("upcoming includes the confirmed meeting", func(t *testing.T) {
		out, err := run(t, "list", "--as", users.mentee.ID().String(), "--upcoming", "--json")
		require.NoError(t, err)

		var list []queries.ScheduleDTO
		require.NoError(t, json.Unmarshal([]byte(out), &list))
		require.Len(t, list, 1)
		assert.Equal(t, "Confirmed", list[0].Status)
	})

	t.Run("mentee cannot change status", func(t *testing.T) {
		_, err := run(t, "status", id, "Cancelled", "--as", users.mentee.ID().String())
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestScheduleRequest_Errors(t *testing.T) {
	users := setupLocalModeTestApp(t)

	_, err := run(t, "request", "--as", users.other.ID().String(), "--at", time.Now().Add(time.Hour).Format(time.RFC3339))
	assert.ErrorIs(t, err, domain.ErrUnresolvedMentor)

	_, err = run(t, "request", "--as", users.mentee.ID().String(), "--at", time.Now().Add(-time.Hour).Format(time.RFC3339))
	assert.ErrorIs(t, err, domain.ErrInvalidTime)

	_, err = run(t, "request", "--as", users.mentee.ID().String())
	assert.ErrorIs(t, err, domain.ErrMissingField)

	_, err = run(t, "request", "--as", uuid.NewString(), "--at", time.Now().Add(time.Hour).Format(time.RFC3339))
	assert.ErrorContains(t, err, "not found")
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("2025-03-01T15:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC), got)

	got, err = parseTime("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = parseTime("next tuesday")
	assert.Error(t, err)
}
