package errors

import (
	"errors"
	"fmt"
)

// Error represents a typed migration error. Fatal kinds abort the whole run;
// non-fatal kinds are confined to a single document.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors of the same kind regardless of message, so callers can
// test errors.Is(err, ErrUploadRejected) against cloned instances.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e != nil && t != nil && e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, fatal bool, message string) *Error {
	return &Error{Code: code, Fatal: fatal, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, fatal bool, message string) *Error {
	return &Error{Code: code, Fatal: fatal, Message: message, Err: err}
}

// Predefined error kinds for the migration pipeline.
var (
	ErrMalformedSource  = New("MALFORMED_SOURCE", true, "export structure is invalid")
	ErrIncompleteRecord = New("INCOMPLETE_RECORD", false, "document lacks classification data")
	ErrCatalogCreate    = New("CATALOG_CREATE_FAILED", true, "remote catalog rejected creation")
	ErrUploadRejected   = New("UPLOAD_REJECTED", false, "upload rejected by destination")
	ErrTaskFailed       = New("TASK_FAILED", false, "consumption task failed")
	ErrTaskTimeout      = New("TASK_TIMEOUT", false, "consumption task did not finish in time")
	ErrLedgerIO         = New("LEDGER_IO", true, "ledger storage failure")
	ErrInternal         = New("INTERNAL", true, "internal error")
)

// FromError normalises any error into an *Error. Unknown errors are treated
// as fatal internals so they can never be silently skipped.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Fatal, ErrInternal.Message)
}

// IsFatal reports whether err should abort the whole run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return FromError(err).Fatal
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Clonef is Clone with a formatted message.
func Clonef(err *Error, format string, args ...interface{}) *Error {
	return Clone(err, fmt.Sprintf(format, args...))
}
