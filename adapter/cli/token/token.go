package token

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mentora/adapter/cli"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var issueUser string

// Cmd is the token command group
var Cmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API tokens",
}

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a bearer token for a user",
	Long: `Issue a signed bearer token for development and testing.

Examples:
  mentora token issue --user <user id>
  curl -H "Authorization: Bearer $(mentora token issue --user <id>)" localhost:8080/api/v1/schedules`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp()
		if err != nil {
			return err
		}
		if app.Tokens == nil {
			return errors.New("token signing not configured")
		}

		id, err := uuid.Parse(issueUser)
		if err != nil {
			return fmt.Errorf("invalid user ID: %w", err)
		}
		user, err := app.Users.FindByID(cmd.Context(), id)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("user %s not found", id)
		}

		raw, err := app.Tokens.Issue(user.ID(), user.Role().String())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), raw)
		return nil
	},
}

func init() {
	issueCmd.Flags().StringVar(&issueUser, "user", "", "user ID the token identifies")
	_ = issueCmd.MarkFlagRequired("user")
	Cmd.AddCommand(issueCmd)
}
