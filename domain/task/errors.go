package task

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no task has the requested ID.
	ErrNotFound = errors.New("task not found")

	// ErrInvalid is returned when task data violates a domain rule.
	ErrInvalid = errors.New("invalid task data")

	// ErrConflict is reserved for duplicate detection.
	ErrConflict = errors.New("task already exists")
)

// NotFoundError carries the ID of the missing task.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotFound, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError returns a NotFoundError for id.
func NewNotFoundError(id string) error {
	return &NotFoundError{ID: id}
}
