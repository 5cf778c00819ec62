package main

import (
	"leadintake/internal/delivery/worker"
	"leadintake/internal/delivery/worker/handler"
	"leadintake/internal/infra/mail"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// NewWorkerCmd creates the worker subcommand.
func NewWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Start the push worker that mails lead assignments",
		Long: `Start the push worker. It receives LeadAssigned events from Pub/Sub push
subscriptions (or the local publisher) and mails both parties of the lead.`,
		Args: cobra.NoArgs,
		RunE: runWorker,
	}
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fx.New(
		injectInfra(cfg),
		fx.Provide(
			mail.NewLeadMailer,
			handler.NewPushHandler,
			fx.Annotate(
				worker.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
		fx.Invoke(
			startServer,
		),
	).Run()

	return nil
}
