package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories groups the PostgreSQL-backed repositories.
type Repositories struct {
	Users    *UserRepository
	Attempts *AttemptRepository
}

// NewRepositories wires all repositories on a shared pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(pool),
		Attempts: NewAttemptRepository(pool),
	}
}
