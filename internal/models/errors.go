package models

import "errors"

// Domain errors shared across the storage, auth, and handler layers.
var (
	// ErrHabitNotFound is returned when a habit does not exist or is not
	// owned by the requesting user. Callers cannot tell the two apart.
	ErrHabitNotFound = errors.New("habit not found")
	// ErrNameRequired is returned when a habit is created with a blank name.
	ErrNameRequired = errors.New("habit name is required")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
)
