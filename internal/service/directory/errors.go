package directory

import "errors"

var (
	// ErrNotFound is returned when an update targets an id that does not exist.
	ErrNotFound = errors.New("directory: agent not found")

	// ErrStorage replaces every underlying store failure. The original error
	// is logged, never returned.
	ErrStorage = errors.New("directory: storage error")
)
