package schedule

import (
	"fmt"

	"github.com/felixgeelhaar/mentora/adapter/cli"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <meeting id>",
	Short: "Show one meeting request",
	Args:  cobra.ExactArgs(1),
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

		dto, err := app.GetScheduleHandler.Handle(ctx, queries.GetScheduleQuery{Caller: caller, MeetingID: id})
		if err != nil {
			return err
		}
		return printOne(cmd.OutOrStdout(), dto)
	},
}
