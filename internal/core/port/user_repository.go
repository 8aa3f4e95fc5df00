package port

import (
	"context"

	"github.com/arklim/campus-clock/internal/core/domain"
)

// UserRepository exposes persistence behavior for portal users.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ListAutoClock(ctx context.Context) ([]domain.User, error)
	SetAutoClock(ctx context.Context, id string, autoClock bool) error
	UpdatePassword(ctx context.Context, id string, ciphertext string) error
	// UpdateSessionCookies overwrites the stored cookie snapshot.
	// Last writer wins; snapshots are never merged.
	UpdateSessionCookies(ctx context.Context, id string, cookies string) error
	Delete(ctx context.Context, id string) error
}
