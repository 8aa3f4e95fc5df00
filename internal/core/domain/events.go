package domain

import "time"

// AttemptScheduledEvent is published when the dispatcher creates a
// pending attempt and enqueues its delayed execution.
type AttemptScheduledEvent struct {
	AttemptID   string    `json:"attempt_id"`
	UserID      string    `json:"user_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// AttemptFinishedEvent is published once per attempt when it reaches a
// terminal state.
type AttemptFinishedEvent struct {
	AttemptID  string        `json:"attempt_id"`
	UserID     string        `json:"user_id"`
	Status     AttemptStatus `json:"status"`
	Message    string        `json:"message,omitempty"`
	ExecutedAt time.Time     `json:"executed_at"`
}
