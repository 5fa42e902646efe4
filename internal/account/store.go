package account

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkravets/identity-core/internal/sequence"
)

// HumanIDPrefix is the counter name backing human-readable account ids.
const HumanIDPrefix = "USR"

const generatedPasswordLength = 16

// Store enforces the account invariants on top of the repository: email
// normalization, unconditional hashing on the plaintext path, and
// human-id assignment. Plaintext never reaches the repository.
type Store struct {
	repo   Repository
	hasher *Hasher
	seq    sequence.Generator
	log    *zap.Logger
}

func NewStore(repo Repository, hasher *Hasher, seq sequence.Generator, log *zap.Logger) *Store {
	return &Store{
		repo:   repo,
		hasher: hasher,
		seq:    seq,
		log:    log,
	}
}

// Create builds and persists an account from a draft. A missing
// password is replaced with a server-generated one before hashing, so
// the stored digest is never empty. A DuplicateKey conflict from the
// repository propagates verbatim.
func (s *Store) Create(ctx context.Context, draft Draft) (*Account, error) {
	email := NormalizeEmail(draft.Email)
	if email == "" {
		return nil, &ValidationError{Field: "email", Message: "email is required"}
	}

	password := draft.Password
	if password == "" {
		generated, err := GenerateRandomPassword(generatedPasswordLength)
		if err != nil {
			return nil, err
		}
		password = generated
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	acc := &Account{
		ID:           uuid.NewString(),
		Name:         draft.Name,
		Email:        email,
		PasswordHash: digest,
		Role:         RoleUser,
	}
	if draft.GoogleID != "" {
		googleID := draft.GoogleID
		acc.GoogleID = &googleID
	}

	// Human-readable id is minted only when an email is present, and
	// identifier assignment failing fails the creation outright.
	humanID, err := s.seq.Next(ctx, HumanIDPrefix)
	if err != nil {
		return nil, err
	}
	acc.HumanID = &humanID

	if err := s.repo.Create(ctx, acc); err != nil {
		return nil, err
	}

	s.log.Info("account created",
		zap.String("account_id", acc.ID),
		zap.String("human_id", humanID))

	return acc, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return s.repo.FindByEmail(ctx, NormalizeEmail(email))
}

func (s *Store) FindByID(ctx context.Context, id string) (*Account, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdatePassword hashes newPassword and replaces the stored digest.
// It always hashes its input; there is no only-if-changed path.
func (s *Store) UpdatePassword(ctx context.Context, id, newPassword string) (*Account, error) {
	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdatePasswordHash(ctx, id, digest)
}
