package account

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mkravets/identity-core/internal/sequence"
)

// NewModule returns the account module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(db *gorm.DB) Repository {
					return NewRepository(db)
				},
			),
			fx.Annotate(
				func(db *gorm.DB) sequence.Generator {
					return sequence.NewGenerator(db)
				},
			),
			fx.Annotate(
				func() *Hasher {
					return NewHasher()
				},
			),
			fx.Annotate(
				func(repo Repository, hasher *Hasher, seq sequence.Generator, log *zap.Logger) *Store {
					return NewStore(repo, hasher, seq, log)
				},
			),
		),
	)
}
