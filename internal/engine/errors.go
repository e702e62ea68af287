package engine

import (
	"errors"
	"fmt"
)

// InvariantError reports a broken internal invariant, such as an
// out-of-range record index. It is raised with panic; user input never
// produces one.
type InvariantError struct {
	// Op names the operation that detected the violation.
	Op string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("engine invariant violated in %s: %s", e.Op, e.Message)
}

// IsInvariantError returns true if err is or wraps an InvariantError.
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
