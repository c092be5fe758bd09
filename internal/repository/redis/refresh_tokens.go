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
	"github.com/ksalhab89/coupon-system-auth/internal/repository"
)

const defaultRefreshPrefix = "coupon:refresh"

// RefreshTokenStore keeps refresh token registry entries in Redis. Token
// keys carry a TTL matching the token expiry; a per-email set indexes the
// live hashes for bulk invalidation.
type RefreshTokenStore struct {
	client *red.Client
	prefix string
}

// NewRefreshTokenStore wires a Redis client into a registry store.
func NewRefreshTokenStore(client *red.Client, keyPrefix string) *RefreshTokenStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultRefreshPrefix
	}

	return &RefreshTokenStore{client: client, prefix: prefix}
}

// Save upserts the registry entry and refreshes the email index.
func (s *RefreshTokenStore) Save(ctx context.Context, tokenHash string, record domain.RefreshTokenRecord) error {
	key, err := s.tokenKey(tokenHash)
	if err != nil {
		return err
	}

	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		return errors.New("record already expired")
	}

	fields := map[string]interface{}{
		"email":      record.Email,
		"role":       record.Role.String(),
		"expires_at": record.ExpiresAt.UTC().Format(time.RFC3339Nano),
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.PExpire(ctx, key, ttl)
	pipe.SAdd(ctx, s.indexKey(record.Email), tokenHash)
	pipe.PExpire(ctx, s.indexKey(record.Email), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save refresh token: %w", err)
	}

	return nil
}

// Get returns the live record for the token hash, removing it when expired.
func (s *RefreshTokenStore) Get(ctx context.Context, tokenHash string) (*domain.RefreshTokenRecord, error) {
	key, err := s.tokenKey(tokenHash)
	if err != nil {
		return nil, err
	}

	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get refresh token: %w", err)
	}
	if len(fields) == 0 {
		return nil, repository.ErrNotFound
	}

	record, err := recordFromFields(fields)
	if err != nil {
		return nil, err
	}

	// Redis TTL normally handles expiry; this covers clock skew between
	// the application and the server.
	if record.Expired(time.Now()) {
		_ = s.Delete(ctx, tokenHash)
		return nil, repository.ErrNotFound
	}

	return record, nil
}

// Delete removes the entry and its index membership. Idempotent.
func (s *RefreshTokenStore) Delete(ctx context.Context, tokenHash string) error {
	key, err := s.tokenKey(tokenHash)
	if err != nil {
		return err
	}

	email, err := s.client.HGet(ctx, key, "email").Result()
	if err != nil && !errors.Is(err, red.Nil) {
		return fmt.Errorf("redis lookup refresh token owner: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if email != "" {
		pipe.SRem(ctx, s.indexKey(email), tokenHash)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete refresh token: %w", err)
	}

	return nil
}

// DeleteAllForEmail removes every live entry owned by the email.
func (s *RefreshTokenStore) DeleteAllForEmail(ctx context.Context, email string) (int, error) {
	index := s.indexKey(email)

	hashes, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return 0, fmt.Errorf("redis list refresh tokens for email: %w", err)
	}

	removed := 0
	for _, hash := range hashes {
		key, err := s.tokenKey(hash)
		if err != nil {
			continue
		}
		deleted, err := s.client.Del(ctx, key).Result()
		if err != nil {
			return removed, fmt.Errorf("redis delete refresh token: %w", err)
		}
		removed += int(deleted)
	}

	if err := s.client.Del(ctx, index).Err(); err != nil {
		return removed, fmt.Errorf("redis delete refresh token index: %w", err)
	}

	return removed, nil
}

// CleanupExpired prunes index members whose token keys the server TTL has
// already removed.
func (s *RefreshTokenStore) CleanupExpired(ctx context.Context, _ time.Time) (int, error) {
	pruned := 0

	iter := s.client.Scan(ctx, 0, s.indexKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		index := iter.Val()

		hashes, err := s.client.SMembers(ctx, index).Result()
		if err != nil {
			return pruned, fmt.Errorf("redis list index members: %w", err)
		}

		for _, hash := range hashes {
			key, err := s.tokenKey(hash)
			if err != nil {
				continue
			}
			exists, err := s.client.Exists(ctx, key).Result()
			if err != nil {
				return pruned, fmt.Errorf("redis check refresh token: %w", err)
			}
			if exists == 0 {
				if err := s.client.SRem(ctx, index, hash).Err(); err != nil {
					return pruned, fmt.Errorf("redis prune index member: %w", err)
				}
				pruned++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return pruned, fmt.Errorf("redis scan refresh token indexes: %w", err)
	}

	return pruned, nil
}

func (s *RefreshTokenStore) tokenKey(tokenHash string) (string, error) {
	trimmed := strings.TrimSpace(tokenHash)
	if trimmed == "" {
		return "", errors.New("token hash must not be empty")
	}
	return fmt.Sprintf("%s:token:%s", s.prefix, trimmed), nil
}

func (s *RefreshTokenStore) indexKey(email string) string {
	return fmt.Sprintf("%s:by_email:%s", s.prefix, email)
}

func recordFromFields(fields map[string]string) (*domain.RefreshTokenRecord, error) {
	expiresAt, err := time.Parse(time.RFC3339Nano, fields["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("parse refresh token expiry: %w", err)
	}

	return &domain.RefreshTokenRecord{
		Email:     fields["email"],
		Role:      domain.Role(fields["role"]),
		ExpiresAt: expiresAt,
	}, nil
}

var _ port.RefreshTokenStore = (*RefreshTokenStore)(nil)
