// Package sentinel holds the storage facts stores report to services.
// Services translate them into domain errors; handlers never see them.
package sentinel

import "errors"

var (
	// ErrNotFound means the record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the write would overwrite something that must not
	// change, such as an existing id or a recorded task outcome.
	ErrConflict = errors.New("conflict")
)
