package port

import (
	"context"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
)

// EventPublisher publishes security events to the message bus.
type EventPublisher interface {
	PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error
	PublishLoginFailed(ctx context.Context, event domain.LoginFailedEvent) error
	PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error
	PublishAccountUnlocked(ctx context.Context, event domain.AccountUnlockedEvent) error
	PublishTokenRefreshed(ctx context.Context, event domain.TokenRefreshedEvent) error
}
