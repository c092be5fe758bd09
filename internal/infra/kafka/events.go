package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
	"github.com/ksalhab89/coupon-system-auth/internal/core/port"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/logger"
)

const (
	topicLoginSucceeded  = "auth.login.succeeded"
	topicLoginFailed     = "auth.login.failed"
	topicAccountLocked   = "auth.account.locked"
	topicAccountUnlocked = "auth.account.unlocked"
	topicTokenRefreshed  = "auth.token.refreshed"

	envelopeVersion = "1.0"
)

type envelope struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Email     string      `json:"email"`
	Timestamp time.Time   `json:"timestamp"`
	Version   string      `json:"version"`
	Payload   interface{} `json:"payload"`
}

// Publisher emits security events to Kafka, one topic per event type.
// Messages are keyed by email so events for one account stay ordered.
type Publisher struct {
	producer    sarama.SyncProducer
	topicPrefix string
	logger      *zap.Logger
	now         func() time.Time
}

func NewPublisher(producer sarama.SyncProducer, topicPrefix string, log *zap.Logger) *Publisher {
	return &Publisher{
		producer:    producer,
		topicPrefix: topicPrefix,
		logger:      log,
		now:         time.Now,
	}
}

// WithClock overrides the envelope timestamp source. Used by tests.
func (p *Publisher) WithClock(now func() time.Time) *Publisher {
	if now != nil {
		p.now = now
	}
	return p
}

func (p *Publisher) PublishLoginSucceeded(_ context.Context, event domain.LoginSucceededEvent) error {
	return p.publish(topicLoginSucceeded, event.EventID, event.Email, event)
}

func (p *Publisher) PublishLoginFailed(_ context.Context, event domain.LoginFailedEvent) error {
	return p.publish(topicLoginFailed, event.EventID, event.Email, event)
}

func (p *Publisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	return p.publish(topicAccountLocked, event.EventID, event.Email, event)
}

func (p *Publisher) PublishAccountUnlocked(_ context.Context, event domain.AccountUnlockedEvent) error {
	return p.publish(topicAccountUnlocked, event.EventID, event.Email, event)
}

func (p *Publisher) PublishTokenRefreshed(_ context.Context, event domain.TokenRefreshedEvent) error {
	return p.publish(topicTokenRefreshed, event.EventID, event.Email, event)
}

// sarama's sync producer carries its own timeouts; the context stays at the
// interface boundary.
func (p *Publisher) publish(eventType, eventID, email string, payload interface{}) error {
	if eventID == "" {
		eventID = uuid.NewString()
	}

	body, err := json.Marshal(envelope{
		EventID:   eventID,
		EventType: eventType,
		Email:     email,
		Timestamp: p.now().UTC(),
		Version:   envelopeVersion,
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic(eventType),
		Key:   sarama.StringEncoder(email),
		Value: sarama.ByteEncoder(body),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s event: %w", eventType, err)
	}

	p.logger.Debug("security event published",
		zap.String("event_type", eventType),
		zap.String("event_id", eventID),
		zap.String("email", logger.MaskEmail(email)),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)

	return nil
}

func (p *Publisher) topic(eventType string) string {
	if p.topicPrefix == "" {
		return eventType
	}
	return p.topicPrefix + "." + eventType
}

var _ port.EventPublisher = (*Publisher)(nil)
