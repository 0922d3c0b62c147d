package cli

import (
	"fmt"

	"github.com/harun/recap/internal/config"
	"github.com/spf13/cobra"
)

var sessionMetricsAddr string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Run a client session in the foreground",
	Long: `Run a client session in the foreground.
The session id is created and printed, then the process waits for SIGINT or
SIGTERM. The signal fires the unload event, which asks the backend to clean up
the session; shutdown then fires teardown and waits briefly for the
notification to land.`,
	RunE: runSession,
}

func init() {
	sessionCmd.Flags().StringVar(&sessionMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	rootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	a, release, err := openApp(cmd, func(cfg *config.Config) {
		if sessionMetricsAddr != "" {
			cfg.Metrics.Enabled = true
			cfg.Metrics.Addr = sessionMetricsAddr
		}
	})
	if err != nil {
		return err
	}
	defer release()

	if err := a.Start(); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	id, _ := a.GetSession().ID()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Session:"), id)
	fmt.Fprintf(out, "%s %d\n", labelStyle.Render("History records:"), a.GetHistory().Len())
	if addr := a.MetricsAddr(); addr != "" {
		fmt.Fprintf(out, "%s http://%s/metrics\n", labelStyle.Render("Metrics:"), addr)
	}

	a.Wait(cmd.Context())
	return nil
}
