package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/campus-clock/internal/core/domain"
	"github.com/arklim/campus-clock/internal/core/port"
	"github.com/arklim/campus-clock/internal/infra/config"
)

const schemaVersion = "1.0"

const (
	eventTypeAttemptScheduled = "attempt.scheduled"
	eventTypeAttemptFinished  = "attempt.finished"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventType, userID string, payload any) error {
	envelope := eventEnvelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: envelopeMetadata{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Key:   sarama.StringEncoder(userID),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAttemptScheduled emits an attempt.scheduled event.
func (p *EventPublisher) PublishAttemptScheduled(ctx context.Context, event domain.AttemptScheduledEvent) error {
	return p.publish(ctx, eventTypeAttemptScheduled, event.UserID, event)
}

// PublishAttemptFinished emits an attempt.finished event.
func (p *EventPublisher) PublishAttemptFinished(ctx context.Context, event domain.AttemptFinishedEvent) error {
	return p.publish(ctx, eventTypeAttemptFinished, event.UserID, event)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
