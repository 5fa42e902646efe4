package app

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mkravets/identity-core/internal/account"
	"github.com/mkravets/identity-core/internal/auth"
	"github.com/mkravets/identity-core/internal/database"
	"github.com/mkravets/identity-core/internal/federation"
	"github.com/mkravets/identity-core/internal/mailer"
	"github.com/mkravets/identity-core/internal/migration"
	"github.com/mkravets/identity-core/internal/otc"
	"github.com/mkravets/identity-core/internal/server"
)

// Module combines all application modules
func Module() fx.Option {
	return fx.Options(
		// Logger
		fx.Provide(newLogger),

		// Configuration
		fx.Provide(server.LoadConfig),

		// Storage
		database.Module(),
		migration.Module(),

		// Domain modules
		account.NewModule(),
		otc.NewModule(),
		federation.NewModule(),
		mailer.NewModule(),
		auth.NewModule(),

		// Server
		fx.Provide(server.NewServer),

		// Start the server
		fx.Invoke(registerHooks),
	)
}

func newLogger() (*zap.Logger, error) {
	env := os.Getenv("APP_ENV")
	return server.NewLogger(env)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	srv *server.Server,
	log *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("failed to start server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server...")
			return srv.Stop(ctx)
		},
	})
}
