package cli

import (
	"context"
	"fmt"

	"github.com/harun/recap/internal/app"
	"github.com/harun/recap/internal/config"
	"github.com/harun/recap/internal/logger"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "recap",
	Short: "Recap - meeting session and history client",
	Long: `Recap keeps the client side of a meeting-summarization session: a
per-process session id that is released on the backend when the session ends,
and a bounded, persisted history of recent meetings.`,
	Version:      version,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.recap/recap.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}

// loadConfig loads the config file and applies the --log-level flag
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if flag := cmd.Flags().Lookup("log-level"); flag != nil && flag.Changed {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*logger.Logger, error) {
	logCfg := logger.FromConfig(cfg.Logging)
	logCfg.Output = cmd.ErrOrStderr()

	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

// openApp builds the application for a command. The returned release func
// closes it and its logger.
func openApp(cmd *cobra.Command, mutate func(*config.Config)) (*app.App, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if mutate != nil {
		mutate(cfg)
	}

	log, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(cfg, log)
	if err != nil {
		log.Close()
		return nil, nil, err
	}

	release := func() {
		if err := a.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to close")
		}
		log.Close()
	}
	return a, release, nil
}
