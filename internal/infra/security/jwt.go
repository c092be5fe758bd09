package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
)

var (
	// ErrInvalidToken indicates the token is malformed or its signature does not verify.
	ErrInvalidToken = errors.New("jwt: invalid token")
	// ErrExpiredToken indicates the token's expiry has passed.
	ErrExpiredToken = errors.New("jwt: token expired")
)

const (
	// KindAccess marks short-lived tokens presented on every API call.
	KindAccess = "access"
	// KindRefresh marks tokens exchanged for a new pair at rotation time.
	KindRefresh = "refresh"
)

// SessionClaims carries the identity fields embedded in session tokens.
// Refresh tokens omit role and uid; both are recovered from registry
// metadata at refresh time.
type SessionClaims struct {
	Role   string `json:"role,omitempty"`
	UserID int64  `json:"uid,omitempty"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenCodec creates and verifies compact HS256-signed session tokens.
// Verification failures of any sort surface as sentinel errors from Parse
// and as a plain false from Verify; no decoding error escapes.
type TokenCodec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenCodec constructs a codec for the supplied shared secret.
func NewTokenCodec(secret, issuer string, accessTTL, refreshTTL time.Duration) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt: signing secret is required")
	}
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &TokenCodec{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock allows injection of a custom clock (primarily for testing).
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	if now != nil {
		c.now = now
	}
	return c
}

// AccessTTL returns the configured access token lifetime.
func (c *TokenCodec) AccessTTL() time.Duration {
	return c.accessTTL
}

// RefreshTTL returns the configured refresh token lifetime.
func (c *TokenCodec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

// IssueAccessToken signs an access token carrying subject email, role, and
// numeric user id.
func (c *TokenCodec) IssueAccessToken(email, role string, userID int64) (string, error) {
	now := c.now().UTC()

	claims := SessionClaims{
		Role:   role,
		UserID: userID,
		Kind:   KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
			ID:        uuid.NewString(),
		},
	}

	return c.sign(claims)
}

// IssueRefreshToken signs a refresh token carrying only the subject email.
func (c *TokenCodec) IssueRefreshToken(email string) (string, error) {
	now := c.now().UTC()

	claims := SessionClaims{
		Kind: KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL)),
			ID:        uuid.NewString(),
		},
	}

	return c.sign(claims)
}

func (c *TokenCodec) sign(claims SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}

	return signed, nil
}

// Parse validates the token and returns its claims. Malformed input, wrong
// signature, and expiry map onto ErrInvalidToken / ErrExpiredToken.
func (c *TokenCodec) Parse(token string) (*SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithIssuer(c.issuer), jwt.WithTimeFunc(func() time.Time { return c.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != KindAccess && claims.Kind != KindRefresh {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Verify reports whether the token is well formed, correctly signed, and
// unexpired. It never panics or returns an error, whatever the input.
func (c *TokenCodec) Verify(token string) bool {
	_, err := c.Parse(token)
	return err == nil
}
