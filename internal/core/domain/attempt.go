package domain

import "time"

// AttemptStatus enumerates the lifecycle states of a check-in attempt.
type AttemptStatus string

const (
	AttemptStatusPending AttemptStatus = "pending"
	AttemptStatusSuccess AttemptStatus = "success"
	AttemptStatusFailed  AttemptStatus = "failed"
	AttemptStatusSkipped AttemptStatus = "skipped"
)

// IsTerminal reports whether the status is a final state.
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptStatusSuccess || s == AttemptStatusFailed || s == AttemptStatusSkipped
}

// Attempt is one scheduled check-in execution for a user. The status
// transitions exactly once, from pending to a terminal value.
type Attempt struct {
	ID          string
	UserID      string
	Status      AttemptStatus
	ScheduledAt time.Time
	ExecutedAt  *time.Time
	Message     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsTerminal reports whether the attempt already reached a final state.
func (a Attempt) IsTerminal() bool {
	return a.Status.IsTerminal()
}

// Finish moves the attempt into a terminal state and stamps the
// execution time. Returns false when the attempt is already terminal.
func (a *Attempt) Finish(status AttemptStatus, message string, at time.Time) bool {
	if a.IsTerminal() || !status.IsTerminal() {
		return false
	}
	executedAt := at.UTC()
	a.Status = status
	a.Message = message
	a.ExecutedAt = &executedAt
	return true
}
