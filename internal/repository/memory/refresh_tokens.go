package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
	"github.com/ksalhab89/coupon-system-auth/internal/core/port"
	"github.com/ksalhab89/coupon-system-auth/internal/repository"
)

// RefreshTokenStore is the in-process registry used when Redis is disabled.
// Entries expire lazily on read and eagerly via CleanupExpired.
type RefreshTokenStore struct {
	mu      sync.Mutex
	records map[string]domain.RefreshTokenRecord
	byEmail map[string]map[string]struct{}
	now     func() time.Time
}

// NewRefreshTokenStore builds an empty in-memory registry.
func NewRefreshTokenStore() *RefreshTokenStore {
	return &RefreshTokenStore{
		records: make(map[string]domain.RefreshTokenRecord),
		byEmail: make(map[string]map[string]struct{}),
		now:     time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *RefreshTokenStore) WithClock(now func() time.Time) *RefreshTokenStore {
	if now != nil {
		s.now = now
	}
	return s
}

// Save upserts the registry entry under the token hash.
func (s *RefreshTokenStore) Save(_ context.Context, tokenHash string, record domain.RefreshTokenRecord) error {
	if tokenHash == "" {
		return errors.New("token hash must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if previous, ok := s.records[tokenHash]; ok && previous.Email != record.Email {
		s.unindex(previous.Email, tokenHash)
	}

	s.records[tokenHash] = record

	hashes, ok := s.byEmail[record.Email]
	if !ok {
		hashes = make(map[string]struct{})
		s.byEmail[record.Email] = hashes
	}
	hashes[tokenHash] = struct{}{}

	return nil
}

// Get returns the live record for the token hash, dropping it when expired.
func (s *RefreshTokenStore) Get(_ context.Context, tokenHash string) (*domain.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if record.Expired(s.now()) {
		s.remove(tokenHash, record.Email)
		return nil, repository.ErrNotFound
	}

	copied := record
	return &copied, nil
}

// Delete removes the entry. Idempotent.
func (s *RefreshTokenStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.records[tokenHash]; ok {
		s.remove(tokenHash, record.Email)
	}

	return nil
}

// DeleteAllForEmail removes every live entry owned by the email.
func (s *RefreshTokenStore) DeleteAllForEmail(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hashes, ok := s.byEmail[email]
	if !ok {
		return 0, nil
	}

	removed := 0
	now := s.now()
	for hash := range hashes {
		record, ok := s.records[hash]
		if ok && !record.Expired(now) {
			removed++
		}
		delete(s.records, hash)
	}
	delete(s.byEmail, email)

	return removed, nil
}

// CleanupExpired sweeps out every entry past its deadline.
func (s *RefreshTokenStore) CleanupExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for hash, record := range s.records {
		if record.Expired(now) {
			s.remove(hash, record.Email)
			removed++
		}
	}

	return removed, nil
}

// Len reports the number of stored entries, live or not.
func (s *RefreshTokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *RefreshTokenStore) remove(tokenHash, email string) {
	delete(s.records, tokenHash)
	s.unindex(email, tokenHash)
}

func (s *RefreshTokenStore) unindex(email, tokenHash string) {
	hashes, ok := s.byEmail[email]
	if !ok {
		return
	}
	delete(hashes, tokenHash)
	if len(hashes) == 0 {
		delete(s.byEmail, email)
	}
}

var _ port.RefreshTokenStore = (*RefreshTokenStore)(nil)
