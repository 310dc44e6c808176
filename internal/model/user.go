// Package model defines the data structures used throughout the application.
package model

import "strings"

// Role values. Anything else is rejected by the account service.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account.
//
// Email is the identity: it is trimmed and lower-cased before it ever
// reaches the store (see NormalizeEmail), so "Ann@Example.com" and
// "ann@example.com" are the same user.
//
// PasswordHash is a bcrypt hash and is never serialized to JSON.
type User struct {
	ID           int64  `json:"id"       db:"id"`
	Email        string `json:"email"    db:"email"`
	PasswordHash string `json:"-"        db:"password"`
	Role         string `json:"role"     db:"role"`
	APICalls     int    `json:"apiCalls" db:"api_calls"` // draft generations used
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// NormalizeEmail is the single place email identifiers are case-normalized.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
