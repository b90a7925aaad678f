package apperror

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError pairs a sentinel error (for errors.Is dispatch) with the
// human-readable message that ends up in the HTTP response body.
type AppError struct {
	Err     error  // sentinel: ErrNotFound, ErrValidation, ...
	Message string // what the client sees
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(message string) *AppError {
	return &AppError{Err: ErrNotFound, Message: message}
}

func Validation(message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message}
}

// Conflict reports a uniqueness violation (duplicate email or provider ID).
// Handlers map it to 400; the public API reports duplicate registration
// as a bad request, not a 409.
func Conflict(message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message}
}

// Unauthorized reports a missing, expired, or tampered credential.
func Unauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message}
}
