package federation

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mkravets/identity-core/internal/account"
	"github.com/mkravets/identity-core/internal/config"
)

// NewModule returns the federation module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger) Exchanger {
					return NewGoogleExchanger(config.OAuth, log)
				},
			),
			fx.Annotate(
				func(accounts *account.Store, log *zap.Logger) *Reconciler {
					return NewReconciler(accounts, log)
				},
			),
		),
	)
}
