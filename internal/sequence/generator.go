package sequence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrStoreUnavailable is returned when the counter storage cannot be
// reached. Callers minting identifiers must treat it as a hard failure.
var ErrStoreUnavailable = errors.New("sequence store unavailable")

// Generator mints unique human-readable identifiers of the form
// PREFIX000042 from a named, monotonically increasing counter.
type Generator interface {
	Next(ctx context.Context, prefix string) (string, error)
}

type generator struct {
	db *gorm.DB
}

func NewGenerator(db *gorm.DB) Generator {
	return &generator{db: db}
}

// Next increments the counter for prefix and returns the formatted id.
// The increment-and-fetch is a single upsert statement so concurrent
// callers can never observe the same value.
func (g *generator) Next(ctx context.Context, prefix string) (string, error) {
	var seq int64
	err := g.db.WithContext(ctx).Raw(
		`INSERT INTO sequence_counters (prefix, seq) VALUES (?, 1)
		 ON CONFLICT (prefix) DO UPDATE SET seq = sequence_counters.seq + 1
		 RETURNING seq`,
		prefix,
	).Scan(&seq).Error
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return Format(prefix, seq), nil
}

// Format renders a counter value as a prefixed, zero-padded identifier.
func Format(prefix string, seq int64) string {
	return fmt.Sprintf("%s%06d", prefix, seq)
}
