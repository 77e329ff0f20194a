package response

import (
	"errors"
	"fmt"
)

// ScoreHeader carries the confidence of a returned mask from the inference
// server through the gateway.
const ScoreHeader = "X-Mask-Score"

// Error carries the HTTP status an error should surface with.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// Wrap keeps err as the message so the caller sees the underlying text
// verbatim, while still answering with code.
func Wrap(code int, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// Wrapf is Wrap with a formatted prefix.
func Wrapf(code int, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: fmt.Errorf(format+": %w", append(args, err)...)}
}
