// internal/app/lifecycle/errors.go
package lifecycle

import (
	"errors"

	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/app/system/inputval"
)

var (
	// ErrNotFound is returned when no member or payment matches the id.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied is returned when the actor's role does not allow
	// the operation. It is the same value as authz.ErrPermissionDenied.
	ErrPermissionDenied = authz.ErrPermissionDenied

	// ErrDuplicateEmail is returned when another member already uses the email.
	ErrDuplicateEmail = errors.New("a member with this email already exists")

	// ErrDuplicateReference is returned by a Members adapter when the
	// registration reference collides on insert. AddMember retries it.
	ErrDuplicateReference = errors.New("registration reference already in use")

	// ErrPaymentFinalized is returned when verifying or rejecting a payment
	// that is no longer pending.
	ErrPaymentFinalized = errors.New("payment has already been verified or rejected")

	// ErrInvalidTransition is returned for a status change the lifecycle
	// does not allow (activating a member who was never activated through
	// a payment).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrReferenceExhausted is returned when no unused registration
	// reference was found within the attempt budget.
	ErrReferenceExhausted = errors.New("could not generate a unique registration reference")
)

// ValidationError carries per-field messages for rejected input.
type ValidationError struct {
	Fields []inputval.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	r := inputval.Result{Errors: e.Fields}
	return r.All()
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: []inputval.FieldError{{Field: field, Message: msg}}}
}

func fromResult(r *inputval.Result) error {
	if r == nil || !r.HasErrors() {
		return nil
	}
	return &ValidationError{Fields: r.Errors}
}
