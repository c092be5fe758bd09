package port

import (
	"context"
	"time"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
)

// RefreshTokenStore is the keyed store behind the refresh token registry.
// Keys are token hashes; all operations must be safe under concurrent
// invocation from independent in-flight requests.
type RefreshTokenStore interface {
	// Save upserts the record for the token hash (last write wins).
	Save(ctx context.Context, tokenHash string, record domain.RefreshTokenRecord) error
	// Get returns the live record for the token hash. An entry whose expiry
	// has passed is removed as a side effect and reported as ErrNotFound.
	Get(ctx context.Context, tokenHash string) (*domain.RefreshTokenRecord, error)
	// Delete removes the entry. Idempotent; absent keys are not an error.
	Delete(ctx context.Context, tokenHash string) error
	// DeleteAllForEmail removes every entry owned by the email and reports
	// how many were removed. Idempotent.
	DeleteAllForEmail(ctx context.Context, email string) (int, error)
	// CleanupExpired removes every entry expired as of now. Intended for a
	// periodic scheduler; lazy expiry in Get remains the correctness backstop.
	CleanupExpired(ctx context.Context, now time.Time) (int, error)
}
