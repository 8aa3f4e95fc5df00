package usecase

import "github.com/google/uuid"

// newID returns a time-ordered identifier. UUIDv7 keeps index locality
// for rows that are almost always queried in creation order.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
