// Package errors defines the error kinds reported by the swarm daemon harness
// and the process exit codes they map to.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the life-cycle stage or subsystem it came from.
type Kind int

const (
	// KindUnknown is the zero value; used for errors that carry no kind.
	KindUnknown Kind = iota
	// KindUsage covers bad, missing or unknown command-line arguments.
	KindUsage
	// KindInitialization covers failures of the init hook or of loading
	// default configuration sources.
	KindInitialization
	// KindConfiguration covers broken option tables and option callback failures.
	KindConfiguration
	// KindNotFound reports a configuration key that does not exist.
	KindNotFound
	// KindMalformed reports a configuration value that cannot be converted
	// to the requested type.
	KindMalformed
	// KindWorker covers failures of the main task.
	KindWorker
	// KindLogChannel covers log files that could not be (re)opened.
	KindLogChannel
	// KindState reports an operation invoked in the wrong controller state.
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "UsageError"
	case KindInitialization:
		return "InitializationError"
	case KindConfiguration:
		return "ConfigurationError"
	case KindNotFound:
		return "NotFoundError"
	case KindMalformed:
		return "MalformedError"
	case KindWorker:
		return "WorkerError"
	case KindLogChannel:
		return "LogChannelError"
	case KindState:
		return "StateError"
	default:
		return "Error"
	}
}

// Process exit codes, following sysexits(3).
const (
	ExitOK       = 0
	ExitUsage    = 64
	ExitSoftware = 70
	ExitConfig   = 78
)

// Error is a kinded error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind. A target with a
// message only matches an error with the same message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// Sentinel values usable with errors.Is to test for a kind.
var (
	ErrUsage          = &Error{Kind: KindUsage}
	ErrInitialization = &Error{Kind: KindInitialization}
	ErrConfiguration  = &Error{Kind: KindConfiguration}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrMalformed      = &Error{Kind: KindMalformed}
	ErrWorker         = &Error{Kind: KindWorker}
	ErrLogChannel     = &Error{Kind: KindLogChannel}
	ErrState          = &Error{Kind: KindState}
)

// New creates an error of the given kind.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around cause.
// If cause is nil, returns nil.
func Wrap(kind Kind, cause error, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind Kind, cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

// ExitCode maps an error to the exit code the controller reports for it.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch KindOf(err) {
	case KindUsage:
		return ExitUsage
	case KindInitialization, KindConfiguration, KindNotFound, KindMalformed:
		return ExitConfig
	default:
		return ExitSoftware
	}
}
