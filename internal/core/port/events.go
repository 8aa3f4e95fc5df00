package port

import (
	"context"

	"github.com/arklim/campus-clock/internal/core/domain"
)

// EventPublisher emits attempt lifecycle events to the event stream.
type EventPublisher interface {
	PublishAttemptScheduled(ctx context.Context, event domain.AttemptScheduledEvent) error
	PublishAttemptFinished(ctx context.Context, event domain.AttemptFinishedEvent) error
}
