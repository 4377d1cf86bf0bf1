// Package errs defines the tagged error taxonomy shared by every wallet
// component. Callers branch on Kind, never on message text.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a wallet failure.
type Kind string

const (
	// KindInvalidParams marks validator rejections. Local, never retried,
	// always names the offending field.
	KindInvalidParams Kind = "INVALID_PARAMS"
	// KindResolutionRejected marks account-resolution failures: curve or
	// account mismatch, inactive account, user declined a prompt.
	KindResolutionRejected Kind = "RESOLUTION_REJECTED"
	// KindTransientNetwork marks the ledger busy class. Retried internally by
	// the execution wrapper; visible to callers only when retries exhaust.
	KindTransientNetwork Kind = "TRANSIENT_NETWORK"
	// KindTerminalProtocol marks failures that must not be retried: expired
	// schedules, malformed mirror responses, duplicate no-ops.
	KindTerminalProtocol Kind = "TERMINAL_PROTOCOL"
	// KindUnknown is returned by KindOf for errors outside the taxonomy.
	KindUnknown Kind = "UNKNOWN"
)

// Error carries the kind plus enough context to cross component boundaries.
type Error struct {
	Kind    Kind
	Op      string // operation name, e.g. "initiateSwap"
	Field   string // offending field, when one exists
	Message string
	Err     error
}

func (e *Error) Error() string {
	s := string(e.Kind)
	if e.Op != "" {
		s += " " + e.Op
	}
	if e.Field != "" {
		s += " [" + e.Field + "]"
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of err, unwrapping as needed.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// InvalidParams builds a validator rejection naming the offending field.
func InvalidParams(op, field, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidParams, Op: op, Field: field, Message: fmt.Sprintf(format, args...)}
}

// ResolutionRejected builds a resolution failure with the concrete reason.
func ResolutionRejected(op, format string, args ...any) *Error {
	return &Error{Kind: KindResolutionRejected, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Transient builds a retryable network failure.
func Transient(op string, err error) *Error {
	return &Error{Kind: KindTransientNetwork, Op: op, Message: "network busy", Err: err}
}

// Terminal builds a non-retryable protocol failure.
func Terminal(op, format string, args ...any) *Error {
	return &Error{Kind: KindTerminalProtocol, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches op context to err, preserving its kind when it has one.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return &Error{Kind: e.Kind, Op: op, Field: e.Field, Message: e.Message, Err: err}
	}
	return &Error{Kind: KindUnknown, Op: op, Err: err}
}
