// Package migrations applies the embedded goose migrations for the SQL stores.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/database"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrationsFS embed.FS

type poolConnection interface {
	Pool() *pgxpool.Pool
}

type sqlDBConnection interface {
	DB() *sql.DB
}

// Migrator wraps a goose provider bound to one connection.
type Migrator struct {
	provider *goose.Provider
	db       *sql.DB
	ownsDB   bool
}

// Status is the state of one migration.
type Status struct {
	Version int64
	Path    string
	Applied bool
}

// NewMigrator builds a migrator for a Postgres or SQLite connection.
func NewMigrator(conn database.Connection) (*Migrator, error) {
	var (
		db      *sql.DB
		ownsDB  bool
		dialect goose.Dialect
		dir     string
	)

	switch c := conn.(type) {
	case poolConnection:
		// goose needs database/sql, so bridge the pgx pool.
		db, ownsDB = stdlib.OpenDBFromPool(c.Pool()), true
		dialect, dir = goose.DialectPostgres, "postgres"
	case sqlDBConnection:
		db = c.DB()
		dialect, dir = goose.DialectSQLite3, "sqlite"
	default:
		return nil, fmt.Errorf("migrations: unsupported connection for driver %s", conn.Driver())
	}

	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		if ownsDB {
			_ = db.Close()
		}
		return nil, fmt.Errorf("create goose provider: %w", err)
	}
	return &Migrator{provider: provider, db: db, ownsDB: ownsDB}, nil
}

// Up applies all pending migrations and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("apply migrations: %w", err)
	}
	return len(results), nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	if _, err := m.provider.Down(ctx); err != nil {
		return fmt.Errorf("roll back migration: %w", err)
	}
	return nil
}

// Status lists every known migration.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, Status{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

// Version returns the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	return m.provider.GetDBVersion(ctx)
}

// Close releases the bridged database handle. The connection itself stays open.
func (m *Migrator) Close() error {
	if m.ownsDB {
		return m.db.Close()
	}
	return nil
}

// Migrate applies all pending migrations on conn.
func Migrate(ctx context.Context, conn database.Connection) error {
	m, err := NewMigrator(conn)
	if err != nil {
		return err
	}
	defer m.Close()
	_, err = m.Up(ctx)
	return err
}
