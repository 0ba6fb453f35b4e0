package reschedule

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced project or task does not exist.
var ErrNotFound = errors.New("reschedule: not found")

// ValidationError rejects a request before any computation runs. The store
// is never touched when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("reschedule: invalid %s: %s", e.Field, e.Reason)
}
