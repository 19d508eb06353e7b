// Package apperror defines the error taxonomy shared by the workflow and
// grading engines. Handlers map these onto HTTP statuses and response codes.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the API layer.
type Kind uint8

const (
	KindValidation Kind = iota + 1 // malformed or missing input
	KindForbidden                  // caller lacks the role for this operation
	KindInvalidTransition          // entity not in a state that allows the transition
	KindInvalidState               // entity state incompatible with the operation
	KindConflict                   // optimistic concurrency collision, retryable
	KindNotFound                   // entity does not exist
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	}
	return "unknown"
}

// Error carries a kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransition(format string, args ...any) error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or 0 if err is not an apperror.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
