package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole indicates the supplied role string does not name a known actor role.
var ErrUnknownRole = errors.New("unknown role")

// Role identifies one of the three actor roles of the coupon platform.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCompany  Role = "company"
	RoleCustomer Role = "customer"
)

// ParseRole resolves a client-supplied role string into a Role.
func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(RoleAdmin):
		return RoleAdmin, nil
	case string(RoleCompany):
		return RoleCompany, nil
	case string(RoleCustomer):
		return RoleCustomer, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, value)
	}
}

// String returns the wire representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether the role belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCompany, RoleCustomer:
		return true
	default:
		return false
	}
}

// Principal is the resolved identity of an authenticated caller.
// It is derived per request, never persisted.
type Principal struct {
	UserID      int64
	Email       string
	Role        Role
	DisplayName string
}

// Account is a company or customer row as seen by the auth subsystem:
// numeric id, contact email, display name, and the stored password hash.
type Account struct {
	ID           int64
	Email        string
	DisplayName  string
	PasswordHash string
}
