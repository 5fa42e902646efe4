package auth

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mkravets/identity-core/internal/account"
	"github.com/mkravets/identity-core/internal/config"
	"github.com/mkravets/identity-core/internal/federation"
	"github.com/mkravets/identity-core/internal/mailer"
	"github.com/mkravets/identity-core/internal/otc"
)

// NewModule returns the auth module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide service
			fx.Annotate(
				func(
					config *config.AppConfig,
					log *zap.Logger,
					accounts *account.Store,
					hasher *account.Hasher,
					codes *otc.Ledger,
					exchanger federation.Exchanger,
					reconciler *federation.Reconciler,
					mail mailer.Mailer,
				) *Service {
					return NewService(&config.Auth, log, accounts, hasher, codes, exchanger, reconciler, mail)
				},
			),
			// Provide handler
			fx.Annotate(
				func(svc *Service, log *zap.Logger) *Handler {
					return NewHandler(svc, log)
				},
			),
			// Provide middleware
			fx.Annotate(
				func(config *config.AppConfig) *AuthMiddleware {
					return NewAuthMiddleware(&config.Auth)
				},
			),
		),
	)
}
