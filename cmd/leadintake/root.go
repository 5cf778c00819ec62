package main

import (
	"log/slog"

	"leadintake/config"
	logs "leadintake/internal/infra/log"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the leadintake CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leadintake",
		Short: "Attorney lead intake service",
		Long: `leadintake pairs prospects who upload a resume with an attorney and
serves the attorney login, token refresh and registration endpoints.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String(config.ConfigFileFlag, "", "config file path (overrides LEADINTAKE_CONFIG)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.Int("http-port", 0, "API listen port")
	flags.Int("worker-port", 0, "push worker listen port")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewWorkerCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewAttorneyCmd())

	return cmd
}

// loadConfig layers the config file, environment and the changed persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.NewWithFlags(cmd.Flags())
}

func loadConfigAndLogger(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logs.NewWithWriter(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	return cfg, logger, nil
}
