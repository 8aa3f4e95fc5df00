package port

import (
	"context"
	"time"
)

// AttemptQueue is a delayed execution queue keyed by attempt identifier.
type AttemptQueue interface {
	// Enqueue registers an attempt for execution no earlier than due.
	Enqueue(ctx context.Context, attemptID string, due time.Time) error
	// PopDue atomically removes and returns up to limit attempts whose
	// due time is at or before now.
	PopDue(ctx context.Context, now time.Time, limit int) ([]string, error)
}
