package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/smartinbox/internal/config"
	"github.com/teemow/smartinbox/internal/logging"
)

var (
	configFile string
	logLevel   string
	logFormat  string

	// appConfig is loaded before every command runs.
	appConfig = config.DefaultConfig()
)

// rootCmd represents the base command for the smartinbox application
var rootCmd = &cobra.Command{
	Use:   "smartinbox",
	Short: "AI-assisted Gmail triage",
	Long: `smartinbox is a Gmail client that labels, filters and answers mail with
help from a text-generation model.

It can run as:
  - A set of CLI commands for quick inbox access
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "smartinbox version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ~/.config/smartinbox/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides log.level)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides log.format)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthURLCmd())
	rootCmd.AddCommand(newInboxCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initConfig loads the configuration and installs the default logger.
// Logs always go to stderr so stdout stays free for command output and the
// stdio transport.
func initConfig(cmd *cobra.Command) error {
	var (
		cfg config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFrom(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	appConfig = cfg
	return nil
}
