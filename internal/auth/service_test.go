package auth

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/identity-core/internal/account"
	"github.com/mkravets/identity-core/internal/federation"
)

func TestService_RegisterAndLogin(t *testing.T) {
	deps := newTestService(t)
	svc := deps.service

	session, err := svc.Register(context.Background(), account.Draft{
		Name:     "Test User",
		Email:    "u@x.com",
		Password: "pw123456",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "u@x.com", session.Account.Email)
	assert.Equal(t, account.RoleUser, session.Account.Role)

	loggedIn, err := svc.Login(context.Background(), "u@x.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, session.Account.ID, loggedIn.Account.ID)
	assert.NotEmpty(t, loggedIn.Token)
}

func TestService_Login_Failures(t *testing.T) {
	deps := newTestService(t)
	svc := deps.service

	_, err := svc.Register(context.Background(), account.Draft{
		Email:    "u@x.com",
		Password: "pw123456",
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{
			name:     "wrong password",
			email:    "u@x.com",
			password: "wrongpass",
		},
		{
			name:     "unknown email",
			email:    "nobody@x.com",
			password: "pw123456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.email, tt.password)
			// Both stages fail with the same error
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestService_Login_NormalizedEmail(t *testing.T) {
	deps := newTestService(t)
	svc := deps.service

	registered, err := svc.Register(context.Background(), account.Draft{
		Email:    " A@X.com ",
		Password: "pw123456",
	})
	require.NoError(t, err)

	session, err := svc.Login(context.Background(), "a@x.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, registered.Account.ID, session.Account.ID)
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	deps := newTestService(t)
	svc := deps.service

	_, err := svc.Register(context.Background(), account.Draft{
		Email:    "u@x.com",
		Password: "pw123456",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), account.Draft{
		Email:    "U@X.COM",
		Password: "otherpass1",
	})
	assert.ErrorIs(t, err, account.ErrEmailTaken)
}

func TestService_Register_WithoutPassword(t *testing.T) {
	deps := newTestService(t)
	svc := deps.service

	session, err := svc.Register(context.Background(), account.Draft{
		Email: "u@x.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	// An empty password does not verify against the generated digest
	_, err = svc.Login(context.Background(), "u@x.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_TokenClaims(t *testing.T) {
	deps := newTestService(t)
	svc := deps.service

	session, err := svc.Register(context.Background(), account.Draft{
		Email:    "u@x.com",
		Password: "pw123456",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Account.ID, claims.Subject)
	assert.Equal(t, "user", claims.Role)
}

func TestService_ValidateToken(t *testing.T) {
	deps := newTestService(t)
	svc := deps.service

	tests := []struct {
		name       string
		setupToken func() string
		wantErr    bool
	}{
		{
			name: "valid token",
			setupToken: func() string {
				session, err := svc.Register(context.Background(), account.Draft{
					Email:    "valid@x.com",
					Password: "pw123456",
				})
				require.NoError(t, err)
				return session.Token
			},
			wantErr: false,
		},
		{
			name: "expired token",
			setupToken: func() string {
				expiredCfg := newTestConfig()
				expiredCfg.TokenExpiration = -time.Hour
				expired := newTestServiceWithConfig(t, expiredCfg)
				session, err := expired.service.Register(context.Background(), account.Draft{
					Email:    "expired@x.com",
					Password: "pw123456",
				})
				require.NoError(t, err)
				return session.Token
			},
			wantErr: true,
		},
		{
			name: "invalid token",
			setupToken: func() string {
				return "invalid.token.here"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tt.setupToken())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, claims.Subject)
		})
	}
}

func TestService_LoginWithGoogle(t *testing.T) {
	deps := newTestService(t)
	svc := deps.service

	first, err := svc.LoginWithGoogle(context.Background(), "auth-code-1")
	require.NoError(t, err)
	assert.True(t, first.IsNew)
	assert.NotEmpty(t, first.Token)
	assert.Equal(t, "federated@example.com", first.Account.Email)

	// Codes resolving to the same upstream email land on the same account
	second, err := svc.LoginWithGoogle(context.Background(), "auth-code-2")
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.Equal(t, first.Account.ID, second.Account.ID)
}

func TestService_LoginWithGoogle_UpstreamRejected(t *testing.T) {
	deps := newTestService(t)
	deps.exchanger.err = federation.ErrUpstreamAuth

	_, err := deps.service.LoginWithGoogle(context.Background(), "bad-code")
	assert.ErrorIs(t, err, federation.ErrUpstreamAuth)
}

func TestService_RequestPasswordReset(t *testing.T) {
	deps := newTestService(t)
	svc := deps.service

	_, err := svc.Register(context.Background(), account.Draft{
		Email:    "u@x.com",
		Password: "pw123456",
	})
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "U@x.com"))

	require.Len(t, deps.mailer.sent, 1)
	assert.Equal(t, "u@x.com", deps.mailer.sent[0].recipient)
	assert.Regexp(t, regexp.MustCompile(`^[1-9]\d{5}$`), deps.mailer.sent[0].code)
}

func TestService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	deps := newTestService(t)

	err := deps.service.RequestPasswordReset(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
	assert.Empty(t, deps.mailer.sent)
}

func TestService_VerifyResetCode_SingleUse(t *testing.T) {
	deps := newTestService(t)
	svc := deps.service

	_, err := svc.Register(context.Background(), account.Draft{
		Email:    "u@x.com",
		Password: "pw123456",
	})
	require.NoError(t, err)
	require.NoError(t, svc.RequestPasswordReset(context.Background(), "u@x.com"))

	code := deps.mailer.lastCode()

	ok, err := svc.VerifyResetCode(context.Background(), "u@x.com", code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyResetCode(context.Background(), "u@x.com", code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_ResetPassword(t *testing.T) {
	tests := []struct {
		name        string
		email       string
		newPassword string
		wantErr     error
	}{
		{
			name:        "valid reset",
			email:       "u@x.com",
			newPassword: "newpw1234",
		},
		{
			name:        "password too short",
			email:       "u@x.com",
			newPassword: "short",
			wantErr:     &account.ValidationError{Field: "newPassword", Message: "password must be at least 8 characters"},
		},
		{
			name:        "unknown account",
			email:       "nobody@x.com",
			newPassword: "newpw1234",
			wantErr:     account.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestService(t)
			svc := deps.service

			_, err := svc.Register(context.Background(), account.Draft{
				Email:    "u@x.com",
				Password: "pw123456",
			})
			require.NoError(t, err)

			confirmation, err := svc.ResetPassword(context.Background(), tt.email, tt.newPassword)
			if tt.wantErr != nil {
				assert.EqualError(t, err, tt.wantErr.Error())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "u@x.com", confirmation.Email)
			assert.Equal(t, "****", confirmation.Password)
			assert.NotContains(t, confirmation.Message, tt.newPassword)

			_, err = svc.Login(context.Background(), "u@x.com", tt.newPassword)
			assert.NoError(t, err)

			_, err = svc.Login(context.Background(), "u@x.com", "pw123456")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestService_ResetPassword_PurgesOutstandingCodes(t *testing.T) {
	deps := newTestService(t)
	svc := deps.service

	_, err := svc.Register(context.Background(), account.Draft{
		Email:    "u@x.com",
		Password: "pw123456",
	})
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "u@x.com"))
	require.NoError(t, svc.RequestPasswordReset(context.Background(), "u@x.com"))
	leftover := deps.mailer.sent[0].code

	_, err = svc.ResetPassword(context.Background(), "u@x.com", "newpw1234")
	require.NoError(t, err)

	ok, err := svc.VerifyResetCode(context.Background(), "u@x.com", leftover)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_EndToEndResetFlow(t *testing.T) {
	deps := newTestService(t)
	svc := deps.service

	_, err := svc.Register(context.Background(), account.Draft{
		Email:    "u@x.com",
		Password: "pw123456",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "u@x.com", "pw123456")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "u@x.com"))
	code := deps.mailer.lastCode()

	ok, err := svc.VerifyResetCode(context.Background(), "u@x.com", code)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.ResetPassword(context.Background(), "u@x.com", "newpw1234")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "u@x.com", "newpw1234")
	assert.NoError(t, err)

	_, err = svc.Login(context.Background(), "u@x.com", "pw123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
