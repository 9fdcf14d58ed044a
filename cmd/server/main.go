package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/arturoeanton/reliefchat/internal/logger"
	"github.com/arturoeanton/reliefchat/pkg/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"
	envFile string
)

func main() {
	root := &cobra.Command{
		Use:           "reliefchat",
		Short:         "Chat bridge for verified users",
		Long:          "reliefchat issues Stream Chat tokens for verified identities and resolves public, direct and group channels.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to a .env file (ignored if missing)")

	root.AddCommand(serveCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(channelCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads .env, environment and validates the result.
func loadConfig() (*config.Config, *slog.Logger, error) {
	_ = godotenv.Load(envFile) // silently ignore if the file doesn't exist

	cfg := config.Load()
	log := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, log, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "reliefchat", version)
		},
	}
}
