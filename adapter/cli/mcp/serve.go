package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mentora/adapter/cli"
	mcpinternal "github.com/felixgeelhaar/mentora/internal/mcp"
	"github.com/felixgeelhaar/mentora/pkg/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var actAs string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serve the schedule tools over MCP. Every call acts as one user, taken
from --as or MCP_USER_ID. Set MCP_AUTH_TOKEN to require a bearer token.

Examples:
  mentora mcp serve --as <user id>
  MCP_ADDR=127.0.0.1:9000 mentora mcp serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := cli.GetApp()
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		raw := actAs
		if raw == "" {
			raw = cfg.MCPUserID
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("acting user: pass --as or set MCP_USER_ID: %w", err)
		}
		app.SetCurrentUserID(userID)
		if _, err := app.CurrentCaller(ctx); err != nil {
			return err
		}

		err = mcpinternal.Serve(ctx, cfg, app, app.Metrics, cli.Logger())
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&actAs, "as", "", "user ID every MCP call acts as (defaults to MCP_USER_ID)")
}
