package port

import (
	"context"

	"github.com/arklim/campus-clock/internal/core/domain"
)

// Notifier delivers the final state of an attempt to the owning user.
// Delivery transport is an external concern; implementations must be
// safe to call exactly once per terminal attempt.
type Notifier interface {
	Notify(ctx context.Context, user domain.User, attempt domain.Attempt) error
}
