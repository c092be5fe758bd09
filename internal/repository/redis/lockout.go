package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
	"github.com/ksalhab89/coupon-system-auth/internal/core/port"
)

const defaultLockoutPrefix = "coupon:lockout"

// LockoutStore keeps login-failure counters and lock marks in Redis, keyed
// per (email, role) so the same email carries independent state per role.
type LockoutStore struct {
	client *red.Client
	prefix string
}

// NewLockoutStore wires a Redis client into a lockout store.
func NewLockoutStore(client *red.Client, keyPrefix string) *LockoutStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultLockoutPrefix
	}

	return &LockoutStore{client: client, prefix: prefix}
}

// IncrementFailures atomically bumps the failure counter and applies the
// aging window on first failure.
func (s *LockoutStore) IncrementFailures(ctx context.Context, email string, role domain.Role, ttl time.Duration) (int, error) {
	key := s.failuresKey(email, role)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr failures: %w", err)
	}

	if count == 1 && ttl > 0 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			return int(count), fmt.Errorf("redis expire failures: %w", err)
		}
	}

	return int(count), nil
}

// ResetFailures clears the failure counter.
func (s *LockoutStore) ResetFailures(ctx context.Context, email string, role domain.Role) error {
	if err := s.client.Del(ctx, s.failuresKey(email, role)).Err(); err != nil {
		return fmt.Errorf("redis reset failures: %w", err)
	}
	return nil
}

// SetLockedUntil marks the account locked; the key expires with the lock.
func (s *LockoutStore) SetLockedUntil(ctx context.Context, email string, role domain.Role, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return errors.New("lockout deadline already passed")
	}

	value := until.UTC().Format(time.RFC3339Nano)
	if err := s.client.Set(ctx, s.lockKey(email, role), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set lock: %w", err)
	}

	return nil
}

// GetLockedUntil reports the lock mark, if any.
func (s *LockoutStore) GetLockedUntil(ctx context.Context, email string, role domain.Role) (time.Time, bool, error) {
	value, err := s.client.Get(ctx, s.lockKey(email, role)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("redis get lock: %w", err)
	}

	until, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse lock deadline: %w", err)
	}

	return until, true, nil
}

// ClearLock removes the lock mark.
func (s *LockoutStore) ClearLock(ctx context.Context, email string, role domain.Role) error {
	if err := s.client.Del(ctx, s.lockKey(email, role)).Err(); err != nil {
		return fmt.Errorf("redis clear lock: %w", err)
	}
	return nil
}

func (s *LockoutStore) failuresKey(email string, role domain.Role) string {
	return fmt.Sprintf("%s:failures:%s:%s", s.prefix, role, email)
}

func (s *LockoutStore) lockKey(email string, role domain.Role) string {
	return fmt.Sprintf("%s:lock:%s:%s", s.prefix, role, email)
}

var _ port.LockoutStore = (*LockoutStore)(nil)
