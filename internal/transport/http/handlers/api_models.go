package handlers

import (
	"time"

	"github.com/arklim/campus-clock/internal/core/domain"
)

// ErrorResponse represents a generic error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports liveness state.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports readiness per dependency.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// AuthLoginRequest defines the payload for the admin login endpoint.
type AuthLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthLoginResponse carries the issued bearer token.
type AuthLoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterUserRequest defines the payload to register a portal account.
type RegisterUserRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Email     string `json:"email"`
	AutoClock bool   `json:"auto_clock"`
}

// UpdatePasswordRequest defines the payload to replace a portal password.
type UpdatePasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// SetAutoClockRequest toggles daily scheduling for a user.
type SetAutoClockRequest struct {
	AutoClock *bool `json:"auto_clock" binding:"required"`
}

// UserSummary describes the API view of a user. Credential material is
// never part of it.
type UserSummary struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	AutoClock bool      `json:"auto_clock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AttemptSummary describes the API view of an attempt.
type AttemptSummary struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Status      string     `json:"status"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	ExecutedAt  *time.Time `json:"executed_at,omitempty"`
	Message     string     `json:"message,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newUserSummary(user domain.User) UserSummary {
	return UserSummary{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		AutoClock: user.AutoClock,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func newAttemptSummary(attempt domain.Attempt) AttemptSummary {
	return AttemptSummary{
		ID:          attempt.ID,
		UserID:      attempt.UserID,
		Status:      string(attempt.Status),
		ScheduledAt: attempt.ScheduledAt,
		ExecutedAt:  attempt.ExecutedAt,
		Message:     attempt.Message,
		CreatedAt:   attempt.CreatedAt,
	}
}
