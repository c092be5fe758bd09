package domain

import "time"

// TokenKind distinguishes access tokens from refresh tokens inside claims.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenPair bundles the access and refresh tokens issued together.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RefreshTokenRecord is the registry metadata kept for a live refresh token.
// The registry keys records by the SHA-256 hash of the token string; the raw
// token is never stored server-side.
type RefreshTokenRecord struct {
	Email     string
	Role      Role
	ExpiresAt time.Time
}

// Expired reports whether the record's expiry has passed as of now.
func (r RefreshTokenRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
