package models

import "fmt"

type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindInvalidState ErrorKind = "invalid_state"
	KindValidation   ErrorKind = "validation"
	KindStorage      ErrorKind = "storage"
)

// Error is the single error type surfaced by the store and the ledger.
// errors.Is matches any *Error of the same Kind, so callers compare against the sentinels below.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrInvalidState = &Error{Kind: KindInvalidState}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrStorage      = &Error{Kind: KindStorage}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) error {
	return &Error{Kind: KindInvalidState, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// StorageFailure wraps a driver or transaction error. Already classified errors pass through unchanged.
func StorageFailure(op string, err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return &Error{Kind: KindStorage, Msg: op, Err: err}
}
