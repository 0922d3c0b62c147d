package cli

import (
	"fmt"
	"time"

	"github.com/harun/recap/internal/app"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session and history status",
	Long:  `Show whether a session is running and the state of the stored history.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, release, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer release()

	out := cmd.OutOrStdout()
	pidFile := app.PIDFileFor(a.GetConfig())

	if pid, err := pidFile.Read(); err == nil && pidFile.IsRunning() {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Session:"), successStyle.Render("running"))
		fmt.Fprintf(out, "%s %d\n", labelStyle.Render("PID:"), pid)
		if uptime, err := pidFile.Uptime(); err == nil {
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Uptime:"), formatDuration(uptime))
		}
	} else {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Session:"), dimStyle.Render("stopped"))
	}

	status := a.Status()
	cfg := a.GetConfig()
	fmt.Fprintf(out, "%s %d/%d (%s)\n", labelStyle.Render("History:"), status.HistoryRecords, a.GetHistory().Capacity(), status.HistoryState)
	fmt.Fprintf(out, "%s %s %s\n", labelStyle.Render("Storage:"), cfg.Storage.Backend, cfg.Storage.Path)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Backend:"), cfg.API.BaseURL)

	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
