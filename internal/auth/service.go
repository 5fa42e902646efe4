package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mkravets/identity-core/internal/account"
	"github.com/mkravets/identity-core/internal/config"
	"github.com/mkravets/identity-core/internal/federation"
	"github.com/mkravets/identity-core/internal/mailer"
	"github.com/mkravets/identity-core/internal/otc"
)

// ErrInvalidCredentials covers both an unknown email and a wrong
// password, so a caller cannot tell which stage failed.
var ErrInvalidCredentials = errors.New("invalid email or password")

const minPasswordLength = 8

type Service struct {
	config     *config.AuthConfig
	log        *zap.Logger
	accounts   *account.Store
	hasher     *account.Hasher
	codes      *otc.Ledger
	exchanger  federation.Exchanger
	reconciler *federation.Reconciler
	mailer     mailer.Mailer
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Session is the result of a successful authentication: a signed token
// and the account without its digest.
type Session struct {
	Token   string       `json:"token"`
	Account account.View `json:"account"`
	IsNew   bool         `json:"isNew,omitempty"`
}

// ResetConfirmation acknowledges a completed password reset. The
// password field is always masked.
type ResetConfirmation struct {
	Message  string `json:"message"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewService(
	config *config.AuthConfig,
	log *zap.Logger,
	accounts *account.Store,
	hasher *account.Hasher,
	codes *otc.Ledger,
	exchanger federation.Exchanger,
	reconciler *federation.Reconciler,
	mail mailer.Mailer,
) *Service {
	return &Service{
		config:     config,
		log:        log,
		accounts:   accounts,
		hasher:     hasher,
		codes:      codes,
		exchanger:  exchanger,
		reconciler: reconciler,
		mailer:     mail,
	}
}

// GenerateToken issues a signed session token bound to the account id
// and role.
func (s *Service) GenerateToken(acc *account.Account) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: string(acc.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// Register creates an account from the draft and opens a session for
// it. A missing password is generated server-side by the store.
func (s *Service) Register(ctx context.Context, draft account.Draft) (*Session, error) {
	acc, err := s.accounts.Create(ctx, draft)
	if err != nil {
		return nil, err
	}

	token, err := s.GenerateToken(acc)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, Account: acc.View()}, nil
}

// Login verifies the credentials and opens a session. Unknown email and
// wrong password fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	acc, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			s.hasher.Hash("dummy") // Prevent timing attacks
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, acc.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.GenerateToken(acc)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, Account: acc.View()}, nil
}

// LoginWithGoogle exchanges the provider authorization code, reconciles
// the claims against local accounts, and opens a session. No local
// password is involved.
func (s *Service) LoginWithGoogle(ctx context.Context, code string) (*Session, error) {
	identity, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	acc, isNew, err := s.reconciler.Reconcile(ctx, identity)
	if err != nil {
		return nil, err
	}

	token, err := s.GenerateToken(acc)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, Account: acc.View(), IsNew: isNew}, nil
}

// RequestPasswordReset issues a one-time code for the account behind
// email and mails it out. The code never appears in the return value.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	normalized := account.NormalizeEmail(email)

	if _, err := s.accounts.FindByEmail(ctx, normalized); err != nil {
		return err
	}

	code, err := s.codes.Issue(ctx, normalized)
	if err != nil {
		return err
	}

	return s.mailer.SendResetCode(ctx, normalized, code)
}

// VerifyResetCode consumes a matching unexpired code. False is an
// answer, not an error.
func (s *Service) VerifyResetCode(ctx context.Context, email, code string) (bool, error) {
	return s.codes.Verify(ctx, account.NormalizeEmail(email), code)
}

// ResetPassword replaces the account's password through the hashing
// path and purges any outstanding codes for the address.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) (*ResetConfirmation, error) {
	if len(newPassword) < minPasswordLength {
		return nil, &account.ValidationError{
			Field:   "newPassword",
			Message: "password must be at least 8 characters",
		}
	}

	normalized := account.NormalizeEmail(email)

	acc, err := s.accounts.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if _, err := s.accounts.UpdatePassword(ctx, acc.ID, newPassword); err != nil {
		return nil, err
	}

	if err := s.codes.Purge(ctx, normalized); err != nil {
		s.log.Warn("failed to purge reset codes", zap.Error(err))
	}

	return &ResetConfirmation{
		Message:  "Password reset successfully.",
		Email:    acc.Email,
		Password: "****",
	}, nil
}

// GetAccount loads the account behind a token subject, digest stripped.
func (s *Service) GetAccount(ctx context.Context, id string) (account.View, error) {
	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return account.View{}, err
	}
	return acc.View(), nil
}
