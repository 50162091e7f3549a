package workday

import (
	"errors"
	"fmt"
)

// Precondition failures. They are reported to the user and leave the day
// untouched.
var (
	ErrNoActiveDay   = errors.New("no active day: start or resume today's log first")
	ErrDayActive     = errors.New("a day is already in progress: save or cancel it first")
	ErrJobRunning    = errors.New("clock out of all jobs before saving")
	ErrNothingToSave = errors.New("no work logged today to save")
	ErrNoSavedLog    = errors.New("no saved log")
)

// ValidationError reports bad user input such as an unknown job name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
