package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mkravets/identity-core/internal/account"
	"github.com/mkravets/identity-core/internal/config"
	"github.com/mkravets/identity-core/internal/federation"
	"github.com/mkravets/identity-core/internal/otc"
	"github.com/mkravets/identity-core/internal/sequence"
)

func newTestLogger(t *testing.T) *zap.Logger {
	return zap.NewNop()
}

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:       "test-secret-key",
		TokenExpiration: time.Hour,
	}
}

type sentMail struct {
	recipient string
	code      string
}

// captureMailer records outgoing reset codes instead of sending them.
type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *captureMailer) SendResetCode(_ context.Context, recipient, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{recipient: recipient, code: code})
	return nil
}

func (m *captureMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].code
}

// stubExchanger returns a fixed identity for any authorization code.
type stubExchanger struct {
	identity federation.ExternalIdentity
	err      error
}

func (e *stubExchanger) Exchange(_ context.Context, _ string) (federation.ExternalIdentity, error) {
	if e.err != nil {
		return federation.ExternalIdentity{}, e.err
	}
	return e.identity, nil
}

type testDeps struct {
	service   *Service
	mailer    *captureMailer
	exchanger *stubExchanger
	accounts  *account.Store
}

func newTestService(t *testing.T) *testDeps {
	return newTestServiceWithConfig(t, newTestConfig())
}

func newTestServiceWithConfig(t *testing.T, cfg *config.AuthConfig) *testDeps {
	log := newTestLogger(t)
	hasher := account.NewHasher()
	accounts := account.NewStore(
		account.NewMemoryRepository(),
		hasher,
		sequence.NewMemoryGenerator(),
		log,
	)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	codes := otc.NewLedger(client, log)

	mail := &captureMailer{}
	exchanger := &stubExchanger{
		identity: federation.ExternalIdentity{
			Subject: "google-subject-1",
			Email:   "federated@example.com",
			Name:    "Federated User",
		},
	}
	reconciler := federation.NewReconciler(accounts, log)

	return &testDeps{
		service:   NewService(cfg, log, accounts, hasher, codes, exchanger, reconciler, mail),
		mailer:    mail,
		exchanger: exchanger,
		accounts:  accounts,
	}
}
