// internal/app/features/systemusers/helpers.go
package systemusers

import (
	"github.com/mta-community/mtahub/internal/app/content"
	"github.com/mta-community/mtahub/internal/app/system/inputval"
)

// minPassword is the shortest staff password accepted.
const minPassword = 10

func fieldError(field, msg string) error {
	return &content.ValidationError{Result: &inputval.Result{Errors: []inputval.FieldError{{Field: field, Message: msg}}}}
}

func checkCreate(in createInput) error {
	switch {
	case in.FullName == "":
		return fieldError("full_name", "Full name is required.")
	case !inputval.IsValidEmail(in.Email):
		return fieldError("email", "A valid email is required.")
	case in.Password != "" && len(in.Password) < minPassword:
		return fieldError("password", "Password must be at least 10 characters.")
	}
	return nil
}

func checkEdit(in editInput) error {
	switch {
	case in.FullName != nil && *in.FullName == "":
		return fieldError("full_name", "Full name cannot be empty.")
	case in.Email != nil && !inputval.IsValidEmail(*in.Email):
		return fieldError("email", "A valid email is required.")
	case in.Password != nil && *in.Password != "" && len(*in.Password) < minPassword:
		return fieldError("password", "Password must be at least 10 characters.")
	}
	return nil
}
