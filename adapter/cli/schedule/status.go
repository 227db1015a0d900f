package schedule

import (
	"fmt"

	"github.com/felixgeelhaar/mentora/adapter/cli"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	statusNotes     string
	statusConfirmed string
)

var statusCmd = &cobra.Command{
	Use:   "status <meeting id> <status>",
	Short: "Change the status of a meeting request",
	Long: `Confirm, reject, complete or cancel a meeting request. Only the
request's mentor or an admin may do this. Confirming needs --confirmed-time.

Examples:
  mentora schedule status <id> Confirmed --as <mentor id> --confirmed-time 2025-03-01T15:00:00Z
  mentora schedule status <id> Rejected --as <mentor id> --notes "Travelling that week"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		caller, err := app.Caller(ctx, asUser)
		if err != nil {
			return err
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid meeting ID: %w", err)
		}

		command := commands.UpdateStatusCommand{
			Caller:      caller,
			MeetingID:   id,
			Status:      args[1],
			MentorNotes: statusNotes,
		}
		if statusConfirmed != "" {
			t, err := parseTime(statusConfirmed)
			if err != nil {
				return err
			}
			command.ConfirmedTime = &t
		}

		meeting, err := app.UpdateStatusHandler.Handle(ctx, command)
		if err != nil {
			return err
		}

		dtos, err := queries.JoinParticipants(ctx, app.Users, []*domain.MeetingRequest{meeting})
		if err != nil {
			return err
		}
		return printOne(cmd.OutOrStdout(), &dtos[0])
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusNotes, "notes", "n", "", "notes for the mentee")
	statusCmd.Flags().StringVar(&statusConfirmed, "confirmed-time", "", "agreed start time (required for Confirmed)")
}
