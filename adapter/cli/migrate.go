package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/mongostore"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Apply or roll back the embedded SQL migrations. For MongoDB, "up"
creates the collection indexes and the other subcommands do nothing.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := GetApp()
		if err != nil {
			return err
		}
		if app.MongoDB != nil {
			if err := mongostore.EnsureIndexes(cmd.Context(), app.MongoDB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "MongoDB indexes ensured.")
			return nil
		}

		m, err := newMigrator(app)
		if err != nil {
			return err
		}
		defer m.Close()

		applied, err := m.Up(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", applied)
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := GetApp()
		if err != nil {
			return err
		}
		if app.MongoDB != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "MongoDB has no migrations to roll back.")
			return nil
		}

		m, err := newMigrator(app)
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.Down(cmd.Context()); err != nil {
			return err
		}
		version, err := m.Version(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rolled back to version %d.\n", version)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := GetApp()
		if err != nil {
			return err
		}
		if app.MongoDB != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "MongoDB is schemaless; run 'mentora migrate up' to ensure indexes.")
			return nil
		}

		m, err := newMigrator(app)
		if err != nil {
			return err
		}
		defer m.Close()

		statuses, err := m.Status(cmd.Context())
		if err != nil {
			return err
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %05d  %-8s %s\n", s.Version, state, s.Path)
		}
		return nil
	},
}

func newMigrator(app *App) (*migrations.Migrator, error) {
	if app.DBConn == nil {
		return nil, errors.New("no SQL database configured")
	}
	return migrations.NewMigrator(app.DBConn)
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}
