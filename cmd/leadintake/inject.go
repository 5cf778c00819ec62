package main

import (
	"context"
	"log/slog"
	"os"

	"leadintake/config"
	"leadintake/internal/delivery"
	"leadintake/internal/domain/repository"
	"leadintake/internal/domain/service"
	"leadintake/internal/infra/auth"
	logs "leadintake/internal/infra/log"
	"leadintake/internal/infra/metrics"
	"leadintake/internal/infra/persistence/postgres"
	"leadintake/internal/infra/persistence/redis"
	"leadintake/internal/infra/pubsub"
	"leadintake/internal/infra/storage"
	"leadintake/internal/usecase/impl"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

type startServerParams struct {
	fx.In
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
}

// injectInfra supplies the already loaded configuration to the graph.
func injectInfra(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(
			context.Background,
			logs.New,
			postgres.New,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			fxLogger := &fxevent.SlogLogger{Logger: logger}
			fxLogger.UseLogLevel(slog.LevelDebug)

			return fxLogger
		}),
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewAttorneyRepository,
			postgres.NewProspectRepository,
			postgres.NewLeadRepository,
			postgres.NewRefreshTokenRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewPasswordHasher,
			auth.NewPasswordVerifier,
			auth.NewJWTService,
			newRefreshTokenStore,
			metrics.NewRegistry,
			newMetrics,
			storage.New,
		),
		pubsub.Module,
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewLeadService,
		),
	)
}

func newMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

type refreshStoreParams struct {
	fx.In
	fx.Lifecycle

	Config    *config.Config
	Logger    *slog.Logger
	TxManager repository.TransactionManager
}

// newRefreshTokenStore picks the backend named by auth.refreshStore.
func newRefreshTokenStore(params refreshStoreParams) (service.RefreshTokenStore, error) {
	if params.Config.Auth.RefreshStore == config.RefreshStoreRedis {
		client, err := redis.NewClient(redis.ClientParams{
			Lifecycle: params.Lifecycle,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return nil, err
		}

		return redis.NewRefreshTokenStore(client, params.Config, params.Logger)
	}

	return postgres.NewRefreshTokenStore(postgres.RefreshTokenStoreParams{
		TxManager: params.TxManager,
		Config:    params.Config,
		Logger:    params.Logger,
	})
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))

				// Trigger graceful shutdown to execute all OnStop hooks
				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}
