// internal/domain/models/authmethods.go
package models

// Staff auth methods.
const (
	AuthPassword = "password"
	AuthGoogle   = "google"
)

// AuthMethod represents a staff sign-in option.
type AuthMethod struct {
	Value string // The value stored in the database
	Label string // The display label in the admin console
}

// AllAuthMethods contains all supported staff auth methods.
var AllAuthMethods = []AuthMethod{
	{Value: AuthPassword, Label: "Password"},
	{Value: AuthGoogle, Label: "Google"},
}

// IsValidAuthMethod checks if a value is a valid auth method.
func IsValidAuthMethod(value string) bool {
	for _, m := range AllAuthMethods {
		if m.Value == value {
			return true
		}
	}
	return false
}
