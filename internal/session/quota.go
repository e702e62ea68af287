package session

import (
	"errors"
	"fmt"
)

// DefaultMaxCommands is the default processing cap per session.
const DefaultMaxCommands = 1000

// Quota caps the number of command lines a session consumes.
//
// Lines beyond the cap are left unread. Run treats that as a normal end of
// input; Exec reports it as QuotaExceededError so callers can tell.
type Quota struct {
	max     int
	current int
}

// NewQuota creates a quota allowing max commands.
func NewQuota(max int) *Quota {
	return &Quota{max: max}
}

// Check consumes one command from the quota, or returns
// *QuotaExceededError when none remain. A rejected check consumes nothing.
func (q *Quota) Check(sessionID string) error {
	if q.current >= q.max {
		return &QuotaExceededError{
			SessionID: sessionID,
			Commands:  q.current + 1,
			Limit:     q.max,
		}
	}
	q.current++
	return nil
}

// Current returns the number of consumed commands.
func (q *Quota) Current() int {
	return q.current
}

// Max returns the cap.
func (q *Quota) Max() int {
	return q.max
}

// Remaining returns how many more commands may be consumed.
func (q *Quota) Remaining() int {
	return q.max - q.current
}

// QuotaExceededError is returned by Exec once the cap has been reached.
type QuotaExceededError struct {
	SessionID string
	Commands  int
	Limit     int
}

// Error implements the error interface.
func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("session %s exceeded command cap: command %d > %d limit",
		e.SessionID, e.Commands, e.Limit)
}

// IsQuotaError returns true if err is or wraps a QuotaExceededError.
func IsQuotaError(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}
