package cli

import (
	"fmt"
	"sort"

	"github.com/felixgeelhaar/mentora/pkg/observability"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity to the configured backends",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := GetApp()
		if err != nil {
			return err
		}
		if app.Health == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		}

		result := app.Health.Check(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), result.Status)

		names := make([]string, 0, len(result.Checks))
		for name := range result.Checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			check := result.Checks[name]
			if check.Message != "" && Verbose() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-10s %s (%s)\n", name, check.Status, check.Message)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %-10s %s\n", name, check.Status)
		}

		if result.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("backends unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
