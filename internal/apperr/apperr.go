// Package apperr defines the domain error taxonomy shared by services and handlers.
// Authorization failures live in the gate package (gate.ErrUnauthenticated, gate.ErrForbidden).
package apperr

import (
	"errors"
	"fmt"

	"github.com/diewo77/go-marketplace/validation"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrMissingIdentity  = errors.New("missing identity")
	ErrConflict         = errors.New("conflict")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrPaymentProvider  = errors.New("payment provider error")
)

// Error carries a machine code, a human reason and optional field violations.
type Error struct {
	Kind   error
	Code   string
	Reason string
	Fields validation.Violations
	Err    error
}

func (e *Error) Error() string {
	msg := e.Code
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Details is what handlers put in the "details" field of an error response.
func (e *Error) Details() any {
	if len(e.Fields) > 0 {
		return e.Fields
	}
	if e.Reason != "" {
		return e.Reason
	}
	return nil
}

// NotFound reports a missing entity, e.g. NotFound("order").
func NotFound(entity string) error {
	return &Error{Kind: ErrNotFound, Code: entity + "_not_found", Reason: fmt.Sprintf("No %s matches the given query.", entity)}
}

// Invalid wraps a set of field violations.
func Invalid(v validation.Violations) error {
	return &Error{Kind: ErrValidation, Code: "validation_failed", Fields: v}
}

// InvalidField is a shortcut for a single violation.
func InvalidField(field, msg string) error {
	return Invalid(validation.Violations{field: msg})
}

// Rule is a validation failure that is not tied to a single field.
func Rule(code, reason string) error {
	return &Error{Kind: ErrValidation, Code: code, Reason: reason}
}

func MissingIdentity(reason string) error {
	return &Error{Kind: ErrMissingIdentity, Code: "missing_identity", Reason: reason}
}

func Conflict(code, reason string) error {
	return &Error{Kind: ErrConflict, Code: code, Reason: reason}
}

func InvalidSignature(err error) error {
	return &Error{Kind: ErrInvalidSignature, Code: "invalid_signature", Err: err}
}

func PaymentProvider(err error) error {
	return &Error{Kind: ErrPaymentProvider, Code: "payment_provider_error", Reason: "The payment provider rejected the request.", Err: err}
}
