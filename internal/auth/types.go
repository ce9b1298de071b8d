package auth

import "errors"

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleViewer can read but not change anything.
	RoleViewer Role = "viewer"

	// RoleOperator can feed readings and publish bus events.
	RoleOperator Role = "operator"

	// RoleAdmin has full API access.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of valid roles.
var ValidRoles = []Role{RoleViewer, RoleOperator, RoleAdmin}

// IsValidRole returns true if r is one of ValidRoles.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Sentinel errors.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrInvalidRole  = errors.New("invalid role")
	ErrNoSecret     = errors.New("signing secret is empty")
)
