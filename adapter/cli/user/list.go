package user

import (
	"fmt"

	"github.com/felixgeelhaar/mentora/adapter/cli"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp()
		if err != nil {
			return err
		}

		users, err := app.Users.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No users. Add one with: mentora user add")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Users (%d):\n", len(users))
		for _, u := range users {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-7s %s <%s>\n", u.Role(), u.FullName(), u.Email())
			fmt.Fprintf(cmd.OutOrStdout(), "    ID: %s\n", u.ID())
			if mentor := u.AssignedMentorID(); mentor != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "    Mentor: %s\n", mentor)
			}
		}
		return nil
	},
}
