package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
	"github.com/ksalhab89/coupon-system-auth/internal/repository"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *red.Client) {
	t.Helper()

	server := miniredis.RunT(t)
	client := red.NewClient(&red.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return server, client
}

func TestRefreshTokenStoreRoundTrip(t *testing.T) {
	_, client := newTestClient(t)
	store := NewRefreshTokenStore(client, "test:refresh")

	record := domain.RefreshTokenRecord{
		Email:     "owner@example.com",
		Role:      domain.RoleCompany,
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
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

func TestRefreshTokenStoreRejectsExpiredRecord(t *testing.T) {
	_, client := newTestClient(t)
	store := NewRefreshTokenStore(client, "test:refresh")

	record := domain.RefreshTokenRecord{
		Email:     "owner@example.com",
		Role:      domain.RoleCustomer,
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	if err := store.Save(context.Background(), "hash-1", record); err == nil {
		t.Fatal("expected error saving an expired record")
	}
}

func TestRefreshTokenStoreServerExpiry(t *testing.T) {
	server, client := newTestClient(t)
	store := NewRefreshTokenStore(client, "test:refresh")

	record := domain.RefreshTokenRecord{
		Email:     "owner@example.com",
		Role:      domain.RoleCustomer,
		ExpiresAt: time.Now().Add(time.Minute).UTC(),
	}
	if err := store.Save(context.Background(), "hash-1", record); err != nil {
		t.Fatalf("save: %v", err)
	}

	server.FastForward(2 * time.Minute)

	if _, err := store.Get(context.Background(), "hash-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after TTL, got %v", err)
	}
}

func TestRefreshTokenStoreDeleteIdempotent(t *testing.T) {
	_, client := newTestClient(t)
	store := NewRefreshTokenStore(client, "test:refresh")

	record := domain.RefreshTokenRecord{
		Email:     "owner@example.com",
		Role:      domain.RoleCompany,
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
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
	_, client := newTestClient(t)
	store := NewRefreshTokenStore(client, "test:refresh")

	expires := time.Now().Add(time.Hour).UTC()
	for _, hash := range []string{"a", "b", "c"} {
		record := domain.RefreshTokenRecord{
			Email:     "owner@example.com",
			Role:      domain.RoleCompany,
			ExpiresAt: expires,
		}
		if err := store.Save(context.Background(), hash, record); err != nil {
			t.Fatalf("save %q: %v", hash, err)
		}
	}

	other := domain.RefreshTokenRecord{
		Email:     "other@example.com",
		Role:      domain.RoleCustomer,
		ExpiresAt: expires,
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

func TestRefreshTokenStoreCleanupPrunesIndex(t *testing.T) {
	server, client := newTestClient(t)
	store := NewRefreshTokenStore(client, "test:refresh")

	short := domain.RefreshTokenRecord{
		Email:     "owner@example.com",
		Role:      domain.RoleCustomer,
		ExpiresAt: time.Now().Add(time.Minute).UTC(),
	}
	long := domain.RefreshTokenRecord{
		Email:     "owner@example.com",
		Role:      domain.RoleCustomer,
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
	if err := store.Save(context.Background(), "short", short); err != nil {
		t.Fatalf("save short: %v", err)
	}
	if err := store.Save(context.Background(), "long", long); err != nil {
		t.Fatalf("save long: %v", err)
	}

	server.FastForward(2 * time.Minute)

	pruned, err := store.CleanupExpired(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("pruned = %d, want 1", pruned)
	}

	if _, err := store.Get(context.Background(), "long"); err != nil {
		t.Fatalf("live entry should survive cleanup: %v", err)
	}
}
