package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/harun/recap/internal/observability"
	"github.com/harun/recap/pkg/session"
	"github.com/spf13/cobra"
)

var cleanupSessionID string

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Ask the backend to release a session",
	Long: `Ask the backend to release a session's resources.
Sends POST {base_url}/api/cleanup?session_id={id} once and reports the result.
Unlike the automatic notification this waits for the answer.`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupSessionID, "session-id", "", "session id to release (required)")
	_ = cleanupCmd.MarkFlagRequired("session-id")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	timeout := cfg.APITimeout()
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	notifier := session.NewHTTPNotifier(cfg.API.BaseURL, &http.Client{Timeout: timeout})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	err = notifier.NotifyCleanup(ctx, cleanupSessionID)
	observability.RecordSessionCleanup(time.Since(start), err == nil)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("Session released"), cleanupSessionID)
	return nil
}
