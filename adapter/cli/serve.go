package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var shutdownTimeout time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduling HTTP API",
	Long: `Run the HTTP API. In local mode the outbox processor runs in the same
process and delivers notifications in process.

Examples:
  mentora serve
  HTTP_ADDR=127.0.0.1:9090 mentora serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := GetApp()
		if err != nil {
			return err
		}
		if app.APIServer == nil {
			return errors.New("API server not configured")
		}

		ctx := cmd.Context()
		if app.OutboxProcessor != nil {
			app.OutboxProcessor.Start(ctx)
			defer app.OutboxProcessor.Stop()
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- app.APIServer.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("API server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.APIServer.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "grace period for in-flight requests")
	rootCmd.AddCommand(serveCmd)
}
