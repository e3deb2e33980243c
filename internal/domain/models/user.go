// internal/domain/models/user.go
package models

import "time"

// Staff roles.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"

	// RoleSponsor is only ever carried by sponsor portal sessions.
	RoleSponsor = "sponsor"
)

// User statuses.
const (
	UserActive   = "active"
	UserDisabled = "disabled"
)

// User is a staff account for the admin console.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	FullName     string    `bson:"full_name" json:"full_name"`
	FullNameCI   string    `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string    `bson:"email" json:"email"`
	AuthMethod   string    `bson:"auth_method,omitempty" json:"auth_method,omitempty"`
	Role         string    `bson:"role" json:"role"` // admin | editor | viewer
	Status       string    `bson:"status,omitempty" json:"status,omitempty"`
	PasswordHash string    `bson:"password_hash,omitempty" json:"-"`
	LastLoginAt  time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
