// internal/app/system/authz/roles.go
package authz

import (
	"strings"

	"github.com/mta-community/mtahub/internal/domain/models"
)

// StaffRoles are the roles that can sign in to the admin console.
var StaffRoles = []string{models.RoleAdmin, models.RoleEditor, models.RoleViewer}

// IsStaffRole reports whether role is one of StaffRoles.
func IsStaffRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, r := range StaffRoles {
		if r == role {
			return true
		}
	}
	return false
}
