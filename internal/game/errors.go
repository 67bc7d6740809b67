package game

import "errors"

var (
	// ErrNotFound means the referenced task, template, or profile does not
	// exist for this user.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition means the task is not in a status that permits
	// the requested operation.
	ErrInvalidTransition = errors.New("invalid task transition")

	// ErrInvalidInput means a caller-supplied field failed validation.
	ErrInvalidInput = errors.New("invalid input")
)
