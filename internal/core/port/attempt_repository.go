package port

import (
	"context"
	"time"

	"github.com/arklim/campus-clock/internal/core/domain"
)

// AttemptRepository persists check-in attempts. Attempts are only ever
// removed by cascade when the owning user is deleted.
type AttemptRepository interface {
	Create(ctx context.Context, attempt domain.Attempt) error
	GetByID(ctx context.Context, id string) (*domain.Attempt, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Attempt, error)
	// Finish performs the single pending-to-terminal transition.
	// Returns repository.ErrAlreadyFinished when the attempt left the
	// pending state earlier.
	Finish(ctx context.Context, id string, status domain.AttemptStatus, message string, executedAt time.Time) error
}
