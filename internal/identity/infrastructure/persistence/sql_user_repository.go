package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/database"
)

// SQLUserRepository stores users in Postgres or SQLite.
type SQLUserRepository struct {
	conn   database.Connection
	driver database.Driver
}

// NewSQLUserRepository creates a user repository on conn.
func NewSQLUserRepository(conn database.Connection) *SQLUserRepository {
	return &SQLUserRepository{conn: conn, driver: conn.Driver()}
}

const userColumns = `id, first_name, last_name, email, role, assigned_mentor_id, created_at, updated_at`

// Save inserts or updates the user keyed by ID.
func (r *SQLUserRepository) Save(ctx context.Context, user *domain.User) error {
	var mentorID any
	if id := user.AssignedMentorID(); id != nil {
		mentorID = *id
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, database.Rebind(r.driver, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			role = excluded.role,
			assigned_mentor_id = excluded.assigned_mentor_id,
			updated_at = excluded.updated_at`),
		user.ID(),
		user.FirstName(),
		user.LastName(),
		user.Email(),
		string(user.Role()),
		mentorID,
		database.TimeArg(r.driver, user.CreatedAt()),
		database.TimeArg(r.driver, user.UpdatedAt()),
	)
	return err
}

// FindByID returns nil, nil when the user does not exist.
func (r *SQLUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, database.Rebind(r.driver, `SELECT `+userColumns+` FROM users WHERE id = ?`), id)

	user, err := scanUser(row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	return user, err
}

// FindByIDs loads every existing user among ids in one query.
func (r *SQLUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	ids = domain.UniqueIDs(ids)
	result := make(map[uuid.UUID]*domain.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")

	users, err := r.query(ctx, `SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID()] = u
	}
	return result, nil
}

// List returns all users ordered by role, then last name.
func (r *SQLUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	return r.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY role, last_name, first_name`)
}

func (r *SQLUserRepository) query(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, database.Rebind(r.driver, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row database.Row) (*domain.User, error) {
	var (
		id                   uuid.UUID
		first, last, email   string
		role                 string
		mentorID             uuid.NullUUID
		createdAt, updatedAt database.Time
	)
	if err := row.Scan(&id, &first, &last, &email, &role, &mentorID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var assigned *uuid.UUID
	if mentorID.Valid {
		assigned = &mentorID.UUID
	}
	return domain.RehydrateUser(id, first, last, email, domain.Role(role), assigned, createdAt.Time, updatedAt.Time), nil
}
