package user

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/mentora/adapter/cli"
	"github.com/felixgeelhaar/mentora/internal/identity/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	addFirstName string
	addLastName  string
	addEmail     string
	addRole      string
	addMentor    string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a user",
	Long: `Add an admin, mentor or mentee. Mentees may name their assigned mentor.

Examples:
  mentora user add --first Grace --last Hopper --email grace@example.com --role Mentor
  mentora user add --first Ada --last Lovelace --email ada@example.com --role Mentee --mentor <mentor id>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.GetApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		first, err := domain.NewName(addFirstName)
		if err != nil {
			return fmt.Errorf("first name: %w", err)
		}
		last, err := domain.NewName(addLastName)
		if err != nil {
			return fmt.Errorf("last name: %w", err)
		}
		email, err := domain.NewEmail(addEmail)
		if err != nil {
			return err
		}
		role, err := domain.ParseRole(addRole)
		if err != nil {
			return err
		}

		var mentorID *uuid.UUID
		if addMentor != "" {
			id, err := uuid.Parse(addMentor)
			if err != nil {
				return fmt.Errorf("invalid mentor ID: %w", err)
			}
			mentor, err := app.Users.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if mentor == nil || mentor.Role() != domain.RoleMentor {
				return fmt.Errorf("mentor %s not found", id)
			}
			mentorID = &id
		}

		user, err := domain.NewUser(first, last, email, role, mentorID, time.Now().UTC())
		if err != nil {
			return err
		}
		if err := app.Users.Save(ctx, user); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", user.Role(), user.FullName())
		fmt.Fprintf(cmd.OutOrStdout(), "  ID: %s\n", user.ID())
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addFirstName, "first", "", "first name")
	addCmd.Flags().StringVar(&addLastName, "last", "", "last name")
	addCmd.Flags().StringVar(&addEmail, "email", "", "email address")
	addCmd.Flags().StringVar(&addRole, "role", string(domain.RoleMentee), "Admin, Mentor or Mentee")
	addCmd.Flags().StringVar(&addMentor, "mentor", "", "assigned mentor ID (mentees only)")
	_ = addCmd.MarkFlagRequired("first")
	_ = addCmd.MarkFlagRequired("last")
	_ = addCmd.MarkFlagRequired("email")
}
