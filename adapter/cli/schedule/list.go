package schedule

import (
	"github.com/felixgeelhaar/mentora/adapter/cli"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	listStatus   string
	listUpcoming bool
	listPast     bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your meeting requests",
	Long: `List the meeting requests visible to the --as user, newest first.
Mentees see their own requests, mentors the requests addressed to them and
admins every request.

Examples:
  mentora schedule list --as <user id>
  mentora schedule list --as <user id> --status Confirmed --upcoming`,
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

		dtos, err := app.ListSchedulesHandler.Handle(ctx, queries.ListMySchedulesQuery{
			Caller:   caller,
			Status:   listStatus,
			Upcoming: listUpcoming,
			Past:     listPast,
		})
		if err != nil {
			return err
		}
		return printSchedules(cmd.OutOrStdout(), dtos)
	},
}

func init() {
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "only requests with this status")
	listCmd.Flags().BoolVar(&listUpcoming, "upcoming", false, "only pending or future confirmed requests")
	listCmd.Flags().BoolVar(&listPast, "past", false, "only closed or past confirmed requests")
}
