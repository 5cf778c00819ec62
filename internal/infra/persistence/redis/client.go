package redis

import (
	"context"
	"log/slog"
	"time"

	"leadintake/config"
	"leadintake/internal/domain/lifecycle"
	"leadintake/internal/errors"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"go.uber.org/fx"
)

const connectBackoffBase = 250 * time.Millisecond

// ClientParams defines the required parameters
type ClientParams struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// NewClient builds the client and pings it on start, retrying while Redis comes up.
func NewClient(params ClientParams) (*goredis.Client, error) {
	cfg := params.Config.Redis
	if cfg == nil || cfg.Addr == "" {
		return nil, errors.New("redis.addr is required for the redis refresh store")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	params.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			backoff := retry.WithMaxRetries(params.Config.Database.ConnectRetries, retry.NewExponential(connectBackoffBase))

			return retry.Do(ctx, backoff, func(ctx context.Context) error {
				pingCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
				defer cancel()

				if err := client.Ping(pingCtx).Err(); err != nil {
					params.Logger.Warn("Redis not ready", slog.String("addr", cfg.Addr), slog.Any("error", err))

					return retry.RetryableError(errors.Wrap(err, "failed to ping Redis"))
				}

				return nil
			})
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return client, nil
}
