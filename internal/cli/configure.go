package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/harun/recap/internal/config"
	"github.com/harun/recap/internal/observability"
	"github.com/spf13/cobra"
)

var (
	configureBaseURL string
	configureBackend string
	configureForce   bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write a configuration file",
	Long: `Write a configuration file with default values.
Use --base-url and --storage to override the backend endpoint and the
storage backend. An existing file is kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().StringVar(&configureBaseURL, "base-url", "", "backend base URL")
	configureCmd.Flags().StringVar(&configureBackend, "storage", "", "storage backend (memory, file, sqlite, sqlite-pure)")
	configureCmd.Flags().BoolVar(&configureForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	configPath := loader.GetConfigPath()

	if _, err := os.Stat(configPath); err == nil && !configureForce {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", configPath)
	}

	cfg := config.DefaultConfig()
	if configureBaseURL != "" {
		cfg.API.BaseURL = configureBaseURL
	}
	if configureBackend != "" {
		cfg.Storage.Backend = configureBackend
	}

	if errs := config.NewValidator().ValidateConfig(cfg); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errs[0])
	}

	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	recordConfigSaved(cmd, cfg, configPath)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration saved to: %s\n", configPath)
	fmt.Fprintln(out, "You can now start a session with: recap session")
	return nil
}

// recordConfigSaved appends a config_saved event to <data_dir>/audit.log.
// Audit failures are reported but do not fail the command.
func recordConfigSaved(cmd *cobra.Command, cfg *config.Config, configPath string) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dir, err := config.DefaultDataDir()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: audit log skipped: %v\n", err)
			return
		}
		dataDir = dir
	}

	if err := observability.InitAuditLogger(filepath.Join(dataDir, "audit.log")); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: audit log skipped: %v\n", err)
		return
	}
	defer func() { _ = observability.GetAuditLogger().Close() }()

	observability.RecordConfigAudit("config_saved", map[string]interface{}{"path": configPath})
}
