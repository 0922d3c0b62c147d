package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/harun/recap/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// writeTestConfig saves a config rooted in a temp dir and returns its path.
func writeTestConfig(t *testing.T, baseURL string, mutate func(*config.Config)) string {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.DataDir = dir
	cfg.Logging.Console = false
	if mutate != nil {
		mutate(cfg)
	}

	path := filepath.Join(dir, "recap.json")
	require.NoError(t, config.NewLoader(path).Save(cfg))
	return path
}

// execute runs the root command with args after resetting flag state left
// over from earlier runs.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	out := &bytes.Buffer{}
	cmd := GetRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	cfgFile = ""
	logLevel = "info"
	historyFormat = FormatTable
	historyFields = nil
	historyJSON = ""
	cleanupSessionID = ""
	configureBaseURL = ""
	configureBackend = ""
	configureForce = false
	sessionMetricsAddr = ""
	stopTimeout = 10

	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
		c.PersistentFlags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(cmd)
}

func findCommand(name string) *cobra.Command {
	for _, c := range GetRootCmd().Commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
