package task

import "errors"

// ValidationError is returned when input is rejected before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	// ErrEmptyTitle is returned when a title is empty after trimming.
	ErrEmptyTitle = &ValidationError{Field: "title", Message: "Title is required"}
	// ErrNotFound is returned when an operation references an unknown task ID.
	ErrNotFound = errors.New("task not found")
)

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
