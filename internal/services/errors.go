package services

import "errors"

// ErrValidation marks a FormError raised before any backend call.
var ErrValidation = errors.New("validation failed")

// FormError is a failure shown inline on the page that caused it. Message is
// user-facing; Err is ErrValidation or the backend failure.
type FormError struct {
	Message string
	Err     error
}

func (e *FormError) Error() string { return e.Message }

func (e *FormError) Unwrap() error { return e.Err }

func invalid(msg string) error {
	return &FormError{Message: msg, Err: ErrValidation}
}

// IsValidation reports whether err was rejected before reaching the backend.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// PageStatus is the three-state load flag of a page.
type PageStatus string

const (
	StatusLoading PageStatus = "loading"
	StatusError   PageStatus = "error"
	StatusReady   PageStatus = "ready"
)
