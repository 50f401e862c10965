package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter marks a local validation failure raised before any remote call.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNotFound marks a remote entity that does not exist (unknown symbol or order).
	ErrNotFound = errors.New("not found")
	// ErrRejected marks a request the exchange declined.
	ErrRejected = errors.New("rejected by exchange")
	// ErrUnreachable marks a connectivity failure.
	ErrUnreachable = errors.New("exchange unreachable")
)

// InvalidParameter builds an error wrapping ErrInvalidParameter.
func InvalidParameter(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

// ExchangeError carries the exchange's own code and message. Kind is either
// ErrNotFound or ErrRejected.
type ExchangeError struct {
	Code    int64
	Message string
	Kind    error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%v (code %d): %s", e.Kind, e.Code, e.Message)
}

func (e *ExchangeError) Unwrap() error {
	return e.Kind
}
