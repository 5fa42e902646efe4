package mailer

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mkravets/identity-core/internal/config"
)

// NewModule returns the mailer module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger) Mailer {
					return NewSMTPMailer(config.Mail, log)
				},
			),
		),
	)
}
