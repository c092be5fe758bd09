package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
	"github.com/ksalhab89/coupon-system-auth/internal/core/port"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/config"
)

// LockoutManager applies the login-failure lockout policy on top of the
// keyed counter primitives of a LockoutStore. Failures age out after the
// configured window; reaching the threshold locks the pair until the
// deadline, after which the state resets on the next observation.
type LockoutManager struct {
	store  port.LockoutStore
	policy config.LockoutSettings
	now    func() time.Time
}

func NewLockoutManager(store port.LockoutStore, policy config.LockoutSettings) *LockoutManager {
	if policy.MaxFailures <= 0 {
		policy.MaxFailures = 5
	}
	if policy.Duration <= 0 {
		policy.Duration = 15 * time.Minute
	}
	if policy.FailureWindow <= 0 {
		policy.FailureWindow = policy.Duration
	}

	return &LockoutManager{
		store:  store,
		policy: policy,
		now:    time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (m *LockoutManager) WithClock(now func() time.Time) *LockoutManager {
	if now != nil {
		m.now = now
	}
	return m
}

// Status reports the lock state for the (email, role) pair. A deadline that
// has passed clears the lock and the failure counter as a side effect.
func (m *LockoutManager) Status(ctx context.Context, email string, role domain.Role) (domain.LockoutStatus, error) {
	until, found, err := m.store.GetLockedUntil(ctx, email, role)
	if err != nil {
		return domain.LockoutStatus{}, fmt.Errorf("lockout status: %w", err)
	}
	if !found {
		return domain.LockoutStatus{}, nil
	}

	if !until.After(m.now()) {
		if err := m.store.ClearLock(ctx, email, role); err != nil {
			return domain.LockoutStatus{}, fmt.Errorf("clear lapsed lock: %w", err)
		}
		if err := m.store.ResetFailures(ctx, email, role); err != nil {
			return domain.LockoutStatus{}, fmt.Errorf("reset failures after lapse: %w", err)
		}
		return domain.LockoutStatus{}, nil
	}

	return domain.LockoutStatus{LockedUntil: &until}, nil
}

// RecordFailure bumps the failure counter and, at the threshold, locks the
// pair and resets the counter. Returns the observed count and, when the
// lock was just applied, its deadline.
func (m *LockoutManager) RecordFailure(ctx context.Context, email string, role domain.Role) (int, *time.Time, error) {
	failures, err := m.store.IncrementFailures(ctx, email, role, m.policy.FailureWindow)
	if err != nil {
		return 0, nil, fmt.Errorf("record failure: %w", err)
	}

	if failures < m.policy.MaxFailures {
		return failures, nil, nil
	}

	until := m.now().Add(m.policy.Duration)
	if err := m.store.SetLockedUntil(ctx, email, role, until); err != nil {
		return failures, nil, fmt.Errorf("apply lock: %w", err)
	}
	if err := m.store.ResetFailures(ctx, email, role); err != nil {
		return failures, &until, fmt.Errorf("reset failures after lock: %w", err)
	}

	return failures, &until, nil
}

// RecordSuccess resets the failure counter after a successful login.
func (m *LockoutManager) RecordSuccess(ctx context.Context, email string, role domain.Role) error {
	if err := m.store.ResetFailures(ctx, email, role); err != nil {
		return fmt.Errorf("record success: %w", err)
	}
	return nil
}

// Unlock clears both the lock mark and the failure counter.
func (m *LockoutManager) Unlock(ctx context.Context, email string, role domain.Role) error {
	if err := m.store.ClearLock(ctx, email, role); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	if err := m.store.ResetFailures(ctx, email, role); err != nil {
		return fmt.Errorf("unlock reset failures: %w", err)
	}
	return nil
}

// MaxFailures exposes the configured threshold.
func (m *LockoutManager) MaxFailures() int {
	return m.policy.MaxFailures
}
