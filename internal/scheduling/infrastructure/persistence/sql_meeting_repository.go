package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/database"
)

// SQLMeetingRepository stores meeting requests in Postgres or SQLite.
type SQLMeetingRepository struct {
	conn   database.Connection
	driver database.Driver
}

// NewSQLMeetingRepository creates a meeting request repository on conn.
func NewSQLMeetingRepository(conn database.Connection) *SQLMeetingRepository {
	return &SQLMeetingRepository{conn: conn, driver: conn.Driver()}
}

const meetingColumns = `id, mentee_id, mentor_id, requested_time, duration_minutes, message,
	status, mentor_notes, confirmed_time, created_at, updated_at`

// Save inserts the request or updates its mutable columns.
func (r *SQLMeetingRepository) Save(ctx context.Context, m *domain.MeetingRequest) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, database.Rebind(r.driver, `
		INSERT INTO meeting_requests (`+meetingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			mentor_notes = excluded.mentor_notes,
			confirmed_time = excluded.confirmed_time,
			updated_at = excluded.updated_at`),
		m.ID(),
		m.MenteeID(),
		m.MentorID(),
		database.TimeArg(r.driver, m.RequestedTime()),
		m.DurationMinutes(),
		m.Message(),
		string(m.Status()),
		m.MentorNotes(),
		database.NullTimeArg(r.driver, m.ConfirmedTime()),
		database.TimeArg(r.driver, m.CreatedAt()),
		database.TimeArg(r.driver, m.UpdatedAt()),
	)
	return err
}

// FindByID returns nil, nil when the request does not exist.
func (r *SQLMeetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.MeetingRequest, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, database.Rebind(r.driver, `SELECT `+meetingColumns+` FROM meeting_requests WHERE id = ?`), id)

	m, err := scanMeeting(row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	return m, err
}

// Find returns the requests matching filter, newest first.
func (r *SQLMeetingRepository) Find(ctx context.Context, filter domain.ScheduleFilter) ([]*domain.MeetingRequest, error) {
	where, args := r.whereClause(filter)
	query := `SELECT ` + meetingColumns + ` FROM meeting_requests`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY created_at DESC, id`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, database.Rebind(r.driver, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meetings := make([]*domain.MeetingRequest, 0)
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

// whereClause mirrors domain.ScheduleFilter.Matches.
func (r *SQLMeetingRepository) whereClause(f domain.ScheduleFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.MenteeID != nil {
		conds = append(conds, `mentee_id = ?`)
		args = append(args, *f.MenteeID)
	}
	if f.MentorID != nil {
		conds = append(conds, `mentor_id = ?`)
		args = append(args, *f.MentorID)
	}
	if f.Status != nil {
		conds = append(conds, `status = ?`)
		args = append(args, string(*f.Status))
	}

	var window []string
	now := database.TimeArg(r.driver, f.Now)
	if f.Upcoming {
		window = append(window, `status = 'Pending' OR (status = 'Confirmed' AND confirmed_time >= ?)`)
		args = append(args, now)
	}
	if f.Past {
		window = append(window, `status IN ('Completed', 'Rejected', 'Cancelled') OR (status = 'Confirmed' AND confirmed_time < ?)`)
		args = append(args, now)
	}
	if len(window) > 0 {
		conds = append(conds, `(`+strings.Join(window, ` OR `)+`)`)
	}

	return strings.Join(conds, ` AND `), args
}

func scanMeeting(row database.Row) (*domain.MeetingRequest, error) {
	var (
		id, menteeID, mentorID uuid.UUID
		requestedTime          database.Time
		duration               int
		message, status, notes string
		confirmedTime          database.Time
		createdAt, updatedAt   database.Time
	)
	if err := row.Scan(
		&id, &menteeID, &mentorID, &requestedTime, &duration, &message,
		&status, &notes, &confirmedTime, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	return domain.RehydrateMeetingRequest(
		id, menteeID, mentorID,
		requestedTime.Time, duration, message,
		domain.Status(status), notes, confirmedTime.Ptr(),
		createdAt.Time, updatedAt.Time,
	), nil
}
