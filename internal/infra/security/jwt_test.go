package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestCodec(t *testing.T, now *time.Time) *TokenCodec {
	t.Helper()

	codec, err := NewTokenCodec("unit-test-secret-0123456789", "coupon-auth", 30*time.Minute, 168*time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return codec.WithClock(func() time.Time { return *now })
}

func TestNewTokenCodecRequiresSecret(t *testing.T) {
	for _, secret := range []string{"", "   "} {
		if _, err := NewTokenCodec(secret, "coupon-auth", time.Minute, time.Hour); err == nil {
			t.Fatalf("secret %q: expected error", secret)
		}
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, &now)

	token, err := codec.IssueAccessToken("ada@example.com", "customer", 7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := codec.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "ada@example.com" {
		t.Fatalf("subject = %q", claims.Subject)
	}
	if claims.Role != "customer" || claims.UserID != 7 || claims.Kind != KindAccess {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.ID == "" {
		t.Fatal("missing jti")
	}
	if got := claims.ExpiresAt.Time; !got.Equal(now.Add(30 * time.Minute)) {
		t.Fatalf("exp = %v", got)
	}

	if !codec.Verify(token) {
		t.Fatal("Verify returned false for a valid token")
	}
}

func TestRefreshTokenOmitsIdentityClaims(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, &now)

	token, err := codec.IssueRefreshToken("ada@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := codec.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Kind != KindRefresh {
		t.Fatalf("kind = %q", claims.Kind)
	}
	if claims.Role != "" || claims.UserID != 0 {
		t.Fatalf("refresh token carries identity claims: %+v", claims)
	}
	if got := claims.ExpiresAt.Time; !got.Equal(now.Add(168 * time.Hour)) {
		t.Fatalf("exp = %v", got)
	}
}

func TestParseExpiredToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, &now)

	token, err := codec.IssueAccessToken("ada@example.com", "customer", 7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	now = now.Add(31 * time.Minute)

	if _, err := codec.Parse(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
	if codec.Verify(token) {
		t.Fatal("Verify returned true for an expired token")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, &now)

	inputs := []string{
		"",
		"   ",
		"garbage",
		"a.b.c",
		strings.Repeat("x", 4096),
		"eyJhbGciOiJIUzI1NiJ9..",
	}
	for _, input := range inputs {
		if _, err := codec.Parse(input); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("input %.20q: expected ErrInvalidToken, got %v", input, err)
		}
		if codec.Verify(input) {
			t.Fatalf("input %.20q: Verify returned true", input)
		}
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, &now)

	other, err := NewTokenCodec("a-completely-different-secret", "coupon-auth", 30*time.Minute, 168*time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	other.WithClock(func() time.Time { return now })

	token, err := other.IssueAccessToken("ada@example.com", "customer", 7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := codec.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsForeignIssuer(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, &now)

	other, err := NewTokenCodec("unit-test-secret-0123456789", "another-service", 30*time.Minute, 168*time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	other.WithClock(func() time.Time { return now })

	token, err := other.IssueAccessToken("ada@example.com", "customer", 7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := codec.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTTLDefaults(t *testing.T) {
	codec, err := NewTokenCodec("unit-test-secret-0123456789", "coupon-auth", 0, 0)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	if codec.AccessTTL() != 30*time.Minute {
		t.Fatalf("access ttl = %v", codec.AccessTTL())
	}
	if codec.RefreshTTL() != 7*24*time.Hour {
		t.Fatalf("refresh ttl = %v", codec.RefreshTTL())
	}
}

func TestHashTokenIsStable(t *testing.T) {
	a := HashToken("some-token")
	b := HashToken("some-token")
	c := HashToken("another-token")

	if a != b {
		t.Fatal("same input hashed differently")
	}
	if a == c {
		t.Fatal("different inputs collided")
	}
	if len(a) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(a))
	}
}
