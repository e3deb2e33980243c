// internal/app/system/authz/authz.go
package authz

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mta-community/mtahub/internal/app/system/auth"
	"github.com/mta-community/mtahub/internal/domain/models"
)

// ErrPermissionDenied is returned when the actor's role does not allow the
// requested operation. It is distinct from any not-found error.
var ErrPermissionDenied = errors.New("permission denied")

// Actor is the staff user performing an operation.
type Actor struct {
	ID   string
	Name string
	Role string
}

// System is the actor used by background jobs and the operator CLI.
var System = Actor{ID: "system", Name: "system", Role: models.RoleAdmin}

// Action is a class of operation subject to a role check.
type Action int

const (
	View   Action = iota // read admin data
	Edit                 // create or update
	Delete               // delete, cancel
)

func (a Action) String() string {
	switch a {
	case View:
		return "view"
	case Edit:
		return "edit"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// CanView reports whether role may read admin data.
func CanView(role string) bool {
	switch strings.ToLower(role) {
	case models.RoleAdmin, models.RoleEditor, models.RoleViewer:
		return true
	}
	return false
}

// CanEdit reports whether role may create or update records.
func CanEdit(role string) bool {
	switch strings.ToLower(role) {
	case models.RoleAdmin, models.RoleEditor:
		return true
	}
	return false
}

// CanDelete reports whether role may delete records.
func CanDelete(role string) bool {
	return IsAdminRole(role)
}

// IsAdminRole reports whether role is admin.
func IsAdminRole(role string) bool {
	return strings.ToLower(role) == models.RoleAdmin
}

// Allowed reports whether role permits action.
func Allowed(role string, action Action) bool {
	switch action {
	case View:
		return CanView(role)
	case Edit:
		return CanEdit(role)
	case Delete:
		return CanDelete(role)
	}
	return false
}

// Require returns ErrPermissionDenied unless the actor may perform action.
func Require(a Actor, action Action) error {
	if Allowed(a.Role, action) {
		return nil
	}
	return ErrPermissionDenied
}

// UserCtx returns the user's role (lowercased), name, id and a found flag.
// With no signed-in user it returns "visitor", "", "", false.
func UserCtx(r *http.Request) (role, name, userID string, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user.ID == "" {
		return "visitor", "", "", false
	}
	return strings.ToLower(user.Role), user.Name, user.ID, true
}

// ActorFrom builds an Actor from the signed-in user. ok is false when no
// user is present.
func ActorFrom(r *http.Request) (Actor, bool) {
	role, name, id, ok := UserCtx(r)
	if !ok {
		return Actor{}, false
	}
	return Actor{ID: id, Name: name, Role: role}, true
}
