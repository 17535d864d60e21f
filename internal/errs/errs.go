// Package errs defines the error taxonomy business operations return. Each
// error carries a kind a caller can branch on without parsing messages.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and the HTTP layer.
type Kind int

const (
	// KindInternal is an unexpected failure, including local-store errors.
	KindInternal Kind = iota
	// KindValidation is bad input or a missing business precondition.
	KindValidation
	// KindConflict is an illegal state transition or a lost write race.
	KindConflict
	// KindAuthorization means the actor does not own the resource.
	KindAuthorization
	// KindNotFound is an unknown id.
	KindNotFound
	// KindGateway is a failed external payment processor call.
	KindGateway
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindGateway:
		return "gateway"
	}
	return "internal"
}

// Error is a classified error, optionally wrapping an underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(err error, kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Validationf creates a validation error.
func Validationf(format string, args ...any) error {
	return Newf(KindValidation, format, args...)
}

// Conflictf creates a conflict error.
func Conflictf(format string, args ...any) error {
	return Newf(KindConflict, format, args...)
}

// Authorizationf creates an authorization error.
func Authorizationf(format string, args ...any) error {
	return Newf(KindAuthorization, format, args...)
}

// NotFoundf creates a not-found error.
func NotFoundf(format string, args ...any) error {
	return Newf(KindNotFound, format, args...)
}

// Gatewayf creates a gateway error.
func Gatewayf(format string, args ...any) error {
	return Newf(KindGateway, format, args...)
}
