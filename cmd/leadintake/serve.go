package main

import (
	"leadintake/internal/delivery/api"
	apimiddleware "leadintake/internal/delivery/api/middleware"
	"leadintake/internal/delivery/api/router/handler"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API: access and refresh tokens, attorney registration,
lead filing and the lead listings.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fx.New(
		injectInfra(cfg),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectAPI(),
		fx.Invoke(
			startServer,
		),
	).Run()

	return nil
}

func injectAPI() fx.Option {
	return fx.Options(
		fx.Provide(
			apimiddleware.NewAuthMiddleware,
			handler.NewAuthHandler,
			handler.NewLeadHandler,
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}
