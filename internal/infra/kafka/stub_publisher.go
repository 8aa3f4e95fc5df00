package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/arklim/campus-clock/internal/core/domain"
	"github.com/arklim/campus-clock/internal/core/port"
)

// StubPublisher logs events instead of publishing them. Used when no
// Kafka brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a logging-only event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubPublisher{logger: logger}
}

// PublishAttemptScheduled logs the scheduled event.
func (p *StubPublisher) PublishAttemptScheduled(_ context.Context, event domain.AttemptScheduledEvent) error {
	p.logger.Debug("attempt scheduled (event publishing disabled)",
		zap.String("attempt_id", event.AttemptID),
		zap.String("user_id", event.UserID),
		zap.Time("scheduled_at", event.ScheduledAt),
	)
	return nil
}

// PublishAttemptFinished logs the finished event.
func (p *StubPublisher) PublishAttemptFinished(_ context.Context, event domain.AttemptFinishedEvent) error {
	p.logger.Debug("attempt finished (event publishing disabled)",
		zap.String("attempt_id", event.AttemptID),
		zap.String("user_id", event.UserID),
		zap.String("status", string(event.Status)),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
