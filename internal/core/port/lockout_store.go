package port

import (
	"context"
	"time"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
)

// LockoutStore persists login-failure counters and lock marks per
// (email, role) key with atomic updates. The lockout policy itself lives in
// the usecase layer; the store only provides the keyed primitives.
type LockoutStore interface {
	// IncrementFailures atomically bumps the consecutive-failure counter and
	// returns the new count. The counter ages out after ttl.
	IncrementFailures(ctx context.Context, email string, role domain.Role, ttl time.Duration) (int, error)
	// ResetFailures clears the failure counter. Idempotent.
	ResetFailures(ctx context.Context, email string, role domain.Role) error
	// SetLockedUntil marks the account locked until the supplied instant.
	SetLockedUntil(ctx context.Context, email string, role domain.Role, until time.Time) error
	// GetLockedUntil reports the lock mark, if any.
	GetLockedUntil(ctx context.Context, email string, role domain.Role) (time.Time, bool, error)
	// ClearLock removes the lock mark. Idempotent.
	ClearLock(ctx context.Context, email string, role domain.Role) error
}
