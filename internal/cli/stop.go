package cli

import (
	"fmt"
	"syscall"
	"time"

	"github.com/harun/recap/internal/app"
	"github.com/spf13/cobra"
)

var (
	stopTimeout int
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running session",
	Long: `Stop the running session gracefully.
Sends SIGTERM to the session process, which fires the unload event and
notifies the backend, then waits for it to exit.`,
	RunE: runStop,
}

func init() {
	stopCmd.Flags().IntVar(&stopTimeout, "timeout", 10, "timeout in seconds to wait for the session to stop")
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	pidFile := app.PIDFileFor(cfg)
	out := cmd.OutOrStdout()

	if !pidFile.IsRunning() {
		fmt.Fprintln(out, "No session running")
		return pidFile.Remove()
	}

	if err := pidFile.Signal(syscall.SIGTERM); err != nil {
		return err
	}

	deadline := time.Now().Add(time.Duration(stopTimeout) * time.Second)
	for time.Now().Before(deadline) {
		if !pidFile.IsRunning() {
			fmt.Fprintln(out, successStyle.Render("Session stopped"))
			return pidFile.Remove()
		}
		time.Sleep(100 * time.Millisecond)
	}

	fmt.Fprintln(out, warningStyle.Render("Timeout reached, sending SIGKILL..."))
	if err := pidFile.Signal(syscall.SIGKILL); err != nil {
		return err
	}
	if err := pidFile.Remove(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Session killed")
	return nil
}
