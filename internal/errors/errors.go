package errors

import (
	"errors"
	"fmt"
)

// Infrastructure errors shared by the handoff stores and configuration.
// Protocol failures are handoff.Error, never one of these.
var (
	// ErrNotFound means the record is absent or its TTL has elapsed.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the record exists in another status, or a concurrent
	// writer changed it first.
	ErrConflict = errors.New("conflict")

	ErrInvalidConfig = errors.New("invalid configuration")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
