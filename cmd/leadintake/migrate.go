package main

import (
	"context"

	"leadintake/internal/errors"
	"leadintake/internal/infra/persistence/migrations"
	"leadintake/internal/infra/persistence/postgres"

	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Run database migrations",
		Long:      `Apply pending migrations (up, the default), roll back the latest one (down) or list their state (status).`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(migrations.Up), string(migrations.Down), "status"},
		RunE:      runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	action := string(migrations.Up)
	if len(args) == 1 {
		action = args[0]
	}

	cfg, logger, err := loadConfigAndLogger(cmd)
	if err != nil {
		return err
	}

	db, err := postgres.Open(cfg, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return errors.WithStack(err)
	}
	defer sqlDB.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := postgres.Ping(ctx, sqlDB, cfg.Database.ConnectRetries, logger); err != nil {
		return err
	}

	if action == "status" {
		return migrations.Status(ctx, sqlDB, logger)
	}

	if err := migrations.Run(ctx, sqlDB, migrations.Direction(action), logger); err != nil {
		return err
	}

	cmd.Println("Migrations completed successfully")

	return nil
}
