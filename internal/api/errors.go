package api

import (
	"fmt"

	"dismoment/internal/models"
)

// CompensationError is returned when a step failed and undoing an earlier
// step failed too. The earlier side effect is left behind.
type CompensationError struct {
	Op         string
	Resource   string
	Cause      error
	CleanupErr error
	// File is set when the leftover is an uploaded file.
	File *models.File
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("%s: %v (cleanup of %s failed: %v)", e.Op, e.Cause, e.Resource, e.CleanupErr)
}

func (e *CompensationError) Unwrap() []error {
	return []error{e.Cause, e.CleanupErr}
}
