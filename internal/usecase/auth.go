package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
	"github.com/ksalhab89/coupon-system-auth/internal/core/port"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/config"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/logger"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/security"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/telemetry"
	"github.com/ksalhab89/coupon-system-auth/internal/repository"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike,
	// so responses never reveal which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken covers malformed, expired, rotated, and revoked
	// refresh tokens alike.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// AccountLockedError rejects an attempt against a locked (email, role) pair.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.UTC().Format(time.RFC3339))
}

// LoginInput carries the credentials of a login attempt.
type LoginInput struct {
	Email     string
	Password  string
	Role      string
	IPAddress string
}

// Session is the outcome of a successful login or refresh.
type Session struct {
	Tokens    domain.TokenPair
	Principal domain.Principal
	ExpiresIn time.Duration
}

// AuthService orchestrates login, token refresh, verification, logout, and
// administrative unlock across the codec, stores, and account repositories.
type AuthService struct {
	codec    *security.TokenCodec
	accounts map[domain.Role]port.AccountRepository
	admin    config.AdminSettings
	lockouts *LockoutManager
	tokens   port.RefreshTokenStore
	events   port.EventPublisher
	metrics  *telemetry.AuthMetrics
	log      *zap.Logger
	now      func() time.Time
}

func NewAuthService(
	codec *security.TokenCodec,
	companies port.AccountRepository,
	customers port.AccountRepository,
	admin config.AdminSettings,
	lockouts *LockoutManager,
	tokens port.RefreshTokenStore,
	events port.EventPublisher,
	metrics *telemetry.AuthMetrics,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		codec: codec,
		accounts: map[domain.Role]port.AccountRepository{
			domain.RoleCompany:  companies,
			domain.RoleCustomer: customers,
		},
		admin:    admin,
		lockouts: lockouts,
		tokens:   tokens,
		events:   events,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	if now != nil {
		s.now = now
	}
	return s
}

// Login authenticates the credentials for the requested role and issues a
// token pair. Lockout state is checked before credentials so attempts
// against a locked pair never touch the account store.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}

	status, err := s.lockouts.Status(ctx, input.Email, role)
	if err != nil {
		return nil, err
	}
	if status.Locked(s.now()) {
		return nil, &AccountLockedError{Until: *status.LockedUntil}
	}

	principal, ok, err := s.resolveCredentials(ctx, input.Email, input.Password, role)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.handleFailedLogin(ctx, input, role)
	}

	if err := s.lockouts.RecordSuccess(ctx, input.Email, role); err != nil {
		return nil, err
	}

	session, err := s.issueSession(ctx, principal)
	if err != nil {
		return nil, err
	}

	s.metrics.LoginSuccesses.WithLabelValues(role.String()).Inc()
	s.publish(func() error {
		return s.events.PublishLoginSucceeded(ctx, domain.LoginSucceededEvent{
			EventID:    uuid.NewString(),
			Email:      principal.Email,
			Role:       principal.Role,
			UserID:     principal.UserID,
			IPAddress:  input.IPAddress,
			OccurredAt: s.now().UTC(),
		})
	})

	s.log.Info("login succeeded",
		zap.String("email", logger.MaskEmail(principal.Email)),
		zap.String("role", role.String()),
	)

	return session, nil
}

// Refresh rotates a refresh token: the presented token must verify and
// still be registered; the new token is stored before the old one is
// invalidated so a crash between the two steps never strands the caller.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.codec.Parse(refreshToken)
	if err != nil || claims.Kind != security.KindRefresh {
		return nil, ErrInvalidRefreshToken
	}

	oldHash := security.HashToken(refreshToken)
	record, err := s.tokens.Get(ctx, oldHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if record.Email != claims.Subject {
		return nil, ErrInvalidRefreshToken
	}

	status, err := s.lockouts.Status(ctx, record.Email, record.Role)
	if err != nil {
		return nil, err
	}
	if status.Locked(s.now()) {
		return nil, &AccountLockedError{Until: *status.LockedUntil}
	}

	principal, err := s.resolvePrincipal(ctx, record.Email, record.Role)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = s.tokens.Delete(ctx, oldHash)
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	session, err := s.issueSession(ctx, principal)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Delete(ctx, oldHash); err != nil {
		return nil, err
	}

	s.metrics.TokenRefreshes.Inc()
	s.publish(func() error {
		return s.events.PublishTokenRefreshed(ctx, domain.TokenRefreshedEvent{
			EventID:    uuid.NewString(),
			Email:      principal.Email,
			Role:       principal.Role,
			UserID:     principal.UserID,
			OccurredAt: s.now().UTC(),
		})
	})

	return session, nil
}

// VerifyRequestToken validates an access token and reconstructs the caller
// principal from its claims.
func (s *AuthService) VerifyRequestToken(token string) (*domain.Principal, error) {
	claims, err := s.codec.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Kind != security.KindAccess {
		return nil, security.ErrInvalidToken
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, security.ErrInvalidToken
	}

	return &domain.Principal{
		UserID: claims.UserID,
		Email:  claims.Subject,
		Role:   role,
	}, nil
}

// Logout invalidates the presented refresh token. Unknown tokens are a
// no-op so the operation is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Delete(ctx, security.HashToken(refreshToken))
}

// LogoutAll invalidates every live refresh token owned by the email,
// returning how many sessions were ended.
func (s *AuthService) LogoutAll(ctx context.Context, email string) (int, error) {
	return s.tokens.DeleteAllForEmail(ctx, email)
}

// Unlock clears the lockout state for the (email, role) pair on behalf of
// an administrator.
func (s *AuthService) Unlock(ctx context.Context, email, roleValue, unlockedBy string) error {
	role, err := domain.ParseRole(roleValue)
	if err != nil {
		return err
	}

	if err := s.lockouts.Unlock(ctx, email, role); err != nil {
		return err
	}

	s.metrics.Unlocks.Inc()
	s.publish(func() error {
		return s.events.PublishAccountUnlocked(ctx, domain.AccountUnlockedEvent{
			EventID:    uuid.NewString(),
			Email:      email,
			Role:       role,
			UnlockedBy: unlockedBy,
			OccurredAt: s.now().UTC(),
		})
	})

	s.log.Info("account unlocked",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("role", role.String()),
	)

	return nil
}

func (s *AuthService) resolveCredentials(ctx context.Context, email, password string, role domain.Role) (*domain.Principal, bool, error) {
	if role == domain.RoleAdmin {
		emailMatch := subtle.ConstantTimeCompare([]byte(email), []byte(s.admin.Email)) == 1
		passwordMatch := subtle.ConstantTimeCompare([]byte(password), []byte(s.admin.Password)) == 1
		if !emailMatch || !passwordMatch {
			return nil, false, nil
		}
		return &domain.Principal{
			UserID:      s.admin.UserID,
			Email:       s.admin.Email,
			Role:        domain.RoleAdmin,
			DisplayName: s.admin.DisplayName,
		}, true, nil
	}

	account, err := s.accounts[role].FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	match, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return nil, false, err
	}
	if !match {
		return nil, false, nil
	}

	return &domain.Principal{
		UserID:      account.ID,
		Email:       account.Email,
		Role:        role,
		DisplayName: account.DisplayName,
	}, true, nil
}

func (s *AuthService) resolvePrincipal(ctx context.Context, email string, role domain.Role) (*domain.Principal, error) {
	if role == domain.RoleAdmin {
		return &domain.Principal{
			UserID:      s.admin.UserID,
			Email:       s.admin.Email,
			Role:        domain.RoleAdmin,
			DisplayName: s.admin.DisplayName,
		}, nil
	}

	account, err := s.accounts[role].FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	return &domain.Principal{
		UserID:      account.ID,
		Email:       account.Email,
		Role:        role,
		DisplayName: account.DisplayName,
	}, nil
}

func (s *AuthService) handleFailedLogin(ctx context.Context, input LoginInput, role domain.Role) error {
	failures, lockedUntil, err := s.lockouts.RecordFailure(ctx, input.Email, role)
	if err != nil {
		return err
	}

	s.metrics.LoginFailures.WithLabelValues(role.String(), "bad_credentials").Inc()
	s.publish(func() error {
		return s.events.PublishLoginFailed(ctx, domain.LoginFailedEvent{
			EventID:    uuid.NewString(),
			Email:      input.Email,
			Role:       role,
			Failures:   failures,
			IPAddress:  input.IPAddress,
			OccurredAt: s.now().UTC(),
		})
	})

	s.log.Warn("login failed",
		zap.String("email", logger.MaskEmail(input.Email)),
		zap.String("role", role.String()),
		zap.Int("failures", failures),
	)

	if lockedUntil != nil {
		s.metrics.Lockouts.WithLabelValues(role.String()).Inc()
		s.publish(func() error {
			return s.events.PublishAccountLocked(ctx, domain.AccountLockedEvent{
				EventID:     uuid.NewString(),
				Email:       input.Email,
				Role:        role,
				LockedUntil: *lockedUntil,
				OccurredAt:  s.now().UTC(),
			})
		})
		return &AccountLockedError{Until: *lockedUntil}
	}

	return ErrInvalidCredentials
}

func (s *AuthService) issueSession(ctx context.Context, principal *domain.Principal) (*Session, error) {
	accessToken, err := s.codec.IssueAccessToken(principal.Email, principal.Role.String(), principal.UserID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.codec.IssueRefreshToken(principal.Email)
	if err != nil {
		return nil, err
	}

	record := domain.RefreshTokenRecord{
		Email:     principal.Email,
		Role:      principal.Role,
		ExpiresAt: s.now().UTC().Add(s.codec.RefreshTTL()),
	}
	if err := s.tokens.Save(ctx, security.HashToken(refreshToken), record); err != nil {
		return nil, fmt.Errorf("register refresh token: %w", err)
	}

	return &Session{
		Tokens: domain.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		},
		Principal: *principal,
		ExpiresIn: s.codec.AccessTTL(),
	}, nil
}

// Event publishing must never fail the auth flow.
func (s *AuthService) publish(fn func() error) {
	if err := fn(); err != nil {
		s.log.Warn("publish security event", zap.Error(err))
	}
}
