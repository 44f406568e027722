// Package errs holds the user-facing error type shared by the CLI and the
// HTTP service.
package errs

import (
	"errors"
	"fmt"
)

// UserErrorf is a user-facing error.
// This helper exists mostly to avoid linters complaining about errors starting
// with a capitalized letter.
func UserErrorf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

// Kind classifies where an error came from.
type Kind int

// Error kinds. The zero value means "unclassified".
const (
	KindUnknown Kind = iota
	// KindInit is a failure while acquiring credentials, building the model
	// handle or reaching the tool endpoint during startup.
	KindInit
	// KindRemote is a failure reported by the model provider or tool endpoint.
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a user-facing reason.
//
// Reason is meant to be short and actionable; Err may contain technical details.
// When Err is nil, Error() falls back to Reason.
type Error struct {
	Err    error
	Reason string
	Kind   Kind
}

// Wrap creates an Error with the given underlying error and user-facing reason.
func Wrap(err error, reason string) Error {
	return Error{Err: err, Reason: reason}
}

// Wrapf creates an Error with the given underlying error and a formatted reason.
func Wrapf(err error, format string, a ...any) Error {
	return Error{Err: err, Reason: fmt.Sprintf(format, a...)}
}

// Init marks err as a startup failure.
func Init(err error, reason string) Error {
	return Error{Err: err, Reason: reason, Kind: KindInit}
}

// Remote marks err as a failure of an external collaborator.
func Remote(err error, reason string) Error {
	return Error{Err: err, Reason: reason, Kind: KindRemote}
}

func (e Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Reason
}

func (e Error) Unwrap() error {
	return e.Err
}

// ReasonText returns the user-facing reason for the error.
func (e Error) ReasonText() string {
	return e.Reason
}

// KindOf returns the kind of the outermost classified Error in err's chain.
func KindOf(err error) Kind {
	for err != nil {
		var e Error
		if !errors.As(err, &e) {
			return KindUnknown
		}
		if e.Kind != KindUnknown {
			return e.Kind
		}
		err = e.Err
	}
	return KindUnknown
}
