// Package cli provides the command-line interface for starbot.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"starbot/internal/config"
	"starbot/internal/logger"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "starbot",
	Short: "Republish newly starred repositories as social posts",
	Long: "starbot polls a GitHub user's starred repositories (or a bookmark feed), works out which items are new " +
		"since the last message it posted, and publishes them to Bluesky, Discord or a self-hosted feed.",
	SilenceUsage: true,
	RunE:         runAction,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "starbot %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to configuration file")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file, applies the environment overlay and
// installs the configured logger as the slog default.
func loadConfig(ctx context.Context, logOut io.Writer) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.ApplyEnv(ctx, nil); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	log, err := logger.New(logOut, cfg.Logging.Format, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	slog.SetDefault(log)

	return cfg, nil
}
