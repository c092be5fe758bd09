package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
	"github.com/ksalhab89/coupon-system-auth/internal/core/port"
)

type lockoutKey struct {
	email string
	role  domain.Role
}

type failureCounter struct {
	count     int
	expiresAt time.Time
}

// LockoutStore is the in-process failure counter and lock mark store used
// when Redis is disabled.
type LockoutStore struct {
	mu       sync.Mutex
	failures map[lockoutKey]failureCounter
	locks    map[lockoutKey]time.Time
	now      func() time.Time
}

// NewLockoutStore builds an empty in-memory lockout store.
func NewLockoutStore() *LockoutStore {
	return &LockoutStore{
		failures: make(map[lockoutKey]failureCounter),
		locks:    make(map[lockoutKey]time.Time),
		now:      time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *LockoutStore) WithClock(now func() time.Time) *LockoutStore {
	if now != nil {
		s.now = now
	}
	return s
}

// IncrementFailures bumps the counter, restarting the aging window when the
// previous one has lapsed.
func (s *LockoutStore) IncrementFailures(_ context.Context, email string, role domain.Role, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := lockoutKey{email: email, role: role}
	now := s.now()

	counter, ok := s.failures[key]
	if !ok || now.After(counter.expiresAt) {
		counter = failureCounter{count: 0, expiresAt: now.Add(ttl)}
	}
	counter.count++
	s.failures[key] = counter

	return counter.count, nil
}

// ResetFailures clears the failure counter.
func (s *LockoutStore) ResetFailures(_ context.Context, email string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.failures, lockoutKey{email: email, role: role})
	return nil
}

// SetLockedUntil marks the account locked.
func (s *LockoutStore) SetLockedUntil(_ context.Context, email string, role domain.Role, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.locks[lockoutKey{email: email, role: role}] = until
	return nil
}

// GetLockedUntil reports the lock mark, dropping it when it has lapsed.
func (s *LockoutStore) GetLockedUntil(_ context.Context, email string, role domain.Role) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := lockoutKey{email: email, role: role}
	until, ok := s.locks[key]
	if !ok {
		return time.Time{}, false, nil
	}

	if !s.now().Before(until) {
		delete(s.locks, key)
		return time.Time{}, false, nil
	}

	return until, true, nil
}

// ClearLock removes the lock mark.
func (s *LockoutStore) ClearLock(_ context.Context, email string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, lockoutKey{email: email, role: role})
	return nil
}

var _ port.LockoutStore = (*LockoutStore)(nil)
