package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrAlreadyExists indicates a unique constraint rejected the write.
	ErrAlreadyExists = errors.New("repository: already exists")
	// ErrAlreadyFinished indicates the attempt left the pending state
	// before this transition; the status moves exactly once.
	ErrAlreadyFinished = errors.New("repository: attempt already finished")
)
