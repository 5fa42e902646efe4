package federation

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mkravets/identity-core/internal/account"
)

// Reconciler matches external identity claims against local accounts.
//
// Known limitation: an existing account sharing the provider's email
// adopts the federated login without any proof that the user controls
// the local account.
type Reconciler struct {
	accounts *account.Store
	log      *zap.Logger
}

func NewReconciler(accounts *account.Store, log *zap.Logger) *Reconciler {
	return &Reconciler{
		accounts: accounts,
		log:      log,
	}
}

// Reconcile returns the local account for an external identity,
// creating one on first sight. The bool reports whether the account is
// new. Created accounts get a server-generated password, so the digest
// is never empty.
func (r *Reconciler) Reconcile(ctx context.Context, identity ExternalIdentity) (*account.Account, bool, error) {
	existing, err := r.accounts.FindByEmail(ctx, identity.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, account.ErrAccountNotFound) {
		return nil, false, err
	}

	created, err := r.accounts.Create(ctx, account.Draft{
		Name:     identity.Name,
		Email:    identity.Email,
		GoogleID: identity.Subject,
	})
	if err != nil {
		return nil, false, err
	}

	r.log.Info("account created from federated login",
		zap.String("account_id", created.ID))

	return created, true, nil
}
