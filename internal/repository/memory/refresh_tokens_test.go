package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
	"github.com/ksalhab89/coupon-system-auth/internal/repository"
)

func TestRefreshTokenStoreSaveAndGet(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewRefreshTokenStore().WithClock(func() time.Time { return base })

	record := domain.RefreshTokenRecord{
		Email:     "owner@example.com",
		Role:      domain.RoleCompany,
		ExpiresAt: base.Add(time.Hour),
	}

	if err := store.Save(context.Background(), "hash-1", record); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(context.Background(), "hash-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != record.Email || got.Role != record.Role {
		t.Fatalf("got record %+v, want %+v", got, record)
	}
}

func TestRefreshTokenStoreGetUnknownHash(t *testing.T) {
	store := NewRefreshTokenStore()

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefreshTokenStoreLazyExpiry(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewRefreshTokenStore().WithClock(func() time.Time { return current })

	record := domain.RefreshTokenRecord{
		Email:     "owner@example.com",
		Role:      domain.RoleCustomer,
		ExpiresAt: current.Add(time.Minute),
	}
	if err := store.Save(context.Background(), "hash-1", record); err != nil {
		t.Fatalf("save: %v", err)
	}

	current = current.Add(2 * time.Minute)

	if _, err := store.Get(context.Background(), "hash-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected expired entry to be dropped, store has %d entries", store.Len())
	}
}

func TestRefreshTokenStoreDeleteIdempotent(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewRefreshTokenStore().WithClock(func() time.Time { return base })

	record := domain.RefreshTokenRecord{
		Email:     "owner@example.com",
		Role:      domain.RoleCompany,
		ExpiresAt: base.Add(time.Hour),
	}
	if err := store.Save(context.Background(), "hash-1", record); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.Delete(context.Background(), "hash-1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete(context.Background(), "hash-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := store.Get(context.Background(), "hash-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRefreshTokenStoreDeleteAllForEmail(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewRefreshTokenStore().WithClock(func() time.Time { return base })

	for _, hash := range []string{"a", "b", "c"} {
		record := domain.RefreshTokenRecord{
			Email:     "owner@example.com",
			Role:      domain.RoleCompany,
			ExpiresAt: base.Add(time.Hour),
		}
		if err := store.Save(context.Background(), hash, record); err != nil {
			t.Fatalf("save %q: %v", hash, err)
		}
	}

	other := domain.RefreshTokenRecord{
		Email:     "other@example.com",
		Role:      domain.RoleCustomer,
		ExpiresAt: base.Add(time.Hour),
	}
	if err := store.Save(context.Background(), "d", other); err != nil {
		t.Fatalf("save other: %v", err)
	}

	removed, err := store.DeleteAllForEmail(context.Background(), "owner@example.com")
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}

	if _, err := store.Get(context.Background(), "d"); err != nil {
		t.Fatalf("unrelated entry should survive: %v", err)
	}
}

func TestRefreshTokenStoreCleanupExpired(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewRefreshTokenStore().WithClock(func() time.Time { return base })

	stale := domain.RefreshTokenRecord{
		Email:     "stale@example.com",
		Role:      domain.RoleCustomer,
		ExpiresAt: base.Add(time.Minute),
	}
	live := domain.RefreshTokenRecord{
		Email:     "live@example.com",
		Role:      domain.RoleCompany,
		ExpiresAt: base.Add(time.Hour),
	}
	if err := store.Save(context.Background(), "stale", stale); err != nil {
		t.Fatalf("save stale: %v", err)
	}
	if err := store.Save(context.Background(), "live", live); err != nil {
		t.Fatalf("save live: %v", err)
	}

	removed, err := store.CleanupExpired(context.Background(), base.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if store.Len() != 1 {
		t.Fatalf("store has %d entries after cleanup, want 1", store.Len())
	}
}
