package otc

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mkravets/identity-core/internal/config"
)

// NewModule returns the one-time-code module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig) *redis.Client {
					return redis.NewClient(&redis.Options{
						Addr:     config.Redis.Addr,
						Password: config.Redis.Password,
						DB:       config.Redis.DB,
					})
				},
			),
			fx.Annotate(
				func(client *redis.Client, log *zap.Logger) *Ledger {
					return NewLedger(client, log)
				},
			),
		),
		fx.Invoke(registerHooks),
	)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	client *redis.Client,
	logger *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing redis connection")
			return client.Close()
		},
	})
}
