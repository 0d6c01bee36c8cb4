package sdk

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of portal roles a user can hold.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
	RoleNurse  Role = "nurse"
)

// ErrUnknownRole is returned when a role value is outside the closed enumeration.
var ErrUnknownRole = errors.New("unknown role")

// Roles returns every valid role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleDoctor, RoleNurse}
}

// ParseRole normalizes a role string (trimmed, lower-cased) and validates it.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Valid reports whether r is one of admin, doctor or nurse.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleNurse:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
