package domain

import "errors"

// Sentinel errors for the application. Handlers map them to HTTP statuses.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrConflict     = errors.New("resource already exists")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal server error")
)

// Error pairs a sentinel kind with a client-safe message. errors.Is against
// the sentinel still works through Unwrap, while Error() stays presentable.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// NewError builds a kinded error with a client-safe message.
func NewError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}
