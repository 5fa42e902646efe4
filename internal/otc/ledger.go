package otc

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CodeTTL is the validity window of an issued code.
const CodeTTL = 10 * time.Minute

const keyPrefix = "otc"

// ErrStoreUnavailable is returned when redis cannot be reached.
var ErrStoreUnavailable = errors.New("code store unavailable")

// Ledger keeps one-time password-recovery codes, keyed by
// (email, code). Redis owns the expiry via TTL; consumption is a single
// GETDEL so a code can never verify twice.
type Ledger struct {
	redis *redis.Client
	log   *zap.Logger
	now   func() time.Time
}

func NewLedger(client *redis.Client, log *zap.Logger) *Ledger {
	return &Ledger{
		redis: client,
		log:   log,
		now:   time.Now,
	}
}

func (l *Ledger) key(email, code string) string {
	return keyPrefix + ":" + email + ":" + code
}

// Issue generates a fresh 6-digit code for email and records it with a
// 10-minute expiry. The caller delivers the code out-of-band; an email
// may hold several outstanding codes at once.
func (l *Ledger) Issue(ctx context.Context, email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	expiresAt := l.now().Add(CodeTTL)
	value := strconv.FormatInt(expiresAt.Unix(), 10)

	if err := l.redis.Set(ctx, l.key(email, code), value, CodeTTL).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	l.log.Info("one-time code issued", zap.String("email", email))
	return code, nil
}

// Verify consumes a matching, unexpired code and reports success. A
// non-matching code returns false and leaves any outstanding codes
// untouched, so the holder may retry until expiry.
func (l *Ledger) Verify(ctx context.Context, email, code string) (bool, error) {
	value, err := l.redis.GetDel(ctx, l.key(email, code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// TTL normally removes stale records; the stored timestamp guards
	// against a record that outlived its window.
	expiresAt, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return false, nil
	}
	return l.now().Unix() < expiresAt, nil
}

// Purge removes every outstanding code for email. Used as cleanup once
// a password reset completes.
func (l *Ledger) Purge(ctx context.Context, email string) error {
	pattern := keyPrefix + ":" + email + ":*"

	var cursor uint64
	for {
		keys, next, err := l.redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if len(keys) > 0 {
			if err := l.redis.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// generateCode draws a uniform 6-digit numeric code in [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
