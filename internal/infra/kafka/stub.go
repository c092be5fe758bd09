package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
	"github.com/ksalhab89/coupon-system-auth/internal/core/port"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/logger"
)

// StubPublisher logs events instead of producing them. Used when no brokers
// are configured or the producer fails to connect.
type StubPublisher struct {
	logger *zap.Logger
}

func NewStubPublisher(log *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: log}
}

func (s *StubPublisher) PublishLoginSucceeded(_ context.Context, event domain.LoginSucceededEvent) error {
	s.log(topicLoginSucceeded, event.Email)
	return nil
}

func (s *StubPublisher) PublishLoginFailed(_ context.Context, event domain.LoginFailedEvent) error {
	s.log(topicLoginFailed, event.Email)
	return nil
}

func (s *StubPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	s.log(topicAccountLocked, event.Email)
	return nil
}

func (s *StubPublisher) PublishAccountUnlocked(_ context.Context, event domain.AccountUnlockedEvent) error {
	s.log(topicAccountUnlocked, event.Email)
	return nil
}

func (s *StubPublisher) PublishTokenRefreshed(_ context.Context, event domain.TokenRefreshedEvent) error {
	s.log(topicTokenRefreshed, event.Email)
	return nil
}

func (s *StubPublisher) log(eventType, email string) {
	s.logger.Debug("security event skipped, no kafka brokers",
		zap.String("event_type", eventType),
		zap.String("email", logger.MaskEmail(email)),
	)
}

var _ port.EventPublisher = (*StubPublisher)(nil)
