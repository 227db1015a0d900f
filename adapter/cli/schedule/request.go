package schedule

import (
	"github.com/felixgeelhaar/mentora/adapter/cli"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/mentora/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	"github.com/spf13/cobra"
)

var (
	requestAt       string
	requestDuration int
	requestMessage  string
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Request a meeting with your assigned mentor",
	Long: `Request a meeting with the mentor assigned to the --as user.

Examples:
  mentora schedule request --as <mentee id> --at 2025-03-01T15:00:00Z
  mentora schedule request --as <mentee id> --at "2025-03-01 15:00" --duration 45 --message "Career chat"`,
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
		requestedTime, err := parseTime(requestAt)
		if err != nil {
			return err
		}

		meeting, err := app.RequestMeetingHandler.Handle(ctx, commands.RequestMeetingCommand{
			Caller:          caller,
			RequestedTime:   requestedTime,
			DurationMinutes: requestDuration,
			Message:         requestMessage,
		})
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
	requestCmd.Flags().StringVar(&requestAt, "at", "", "requested start time")
	requestCmd.Flags().IntVar(&requestDuration, "duration", domain.DefaultDurationMinutes, "duration in minutes")
	requestCmd.Flags().StringVarP(&requestMessage, "message", "m", "", "message to the mentor")
}
