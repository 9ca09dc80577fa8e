// Package users defines the user model for the BoardMates control plane.
// A user is the unit of identity: directors, administrators, and pending
// invitees all share the same record shape and differ only in role/status.
package users

import (
	"strings"
	"time"

	"github.com/boardmates/boardmates/internal/errors"
)

// Role represents a user's platform-level role.
// Per-board roles live on the organization membership, not here.
type Role string

const (
	// RolePending is assigned to newly created users until an
	// administrator promotes them.
	RolePending Role = "pending"

	// RoleMember is a regular platform user.
	RoleMember Role = "member"

	// RoleDirector is a board director with elevated board privileges.
	RoleDirector Role = "director"

	// RoleAdmin is a platform administrator.
	RoleAdmin Role = "admin"
)

// AllRoles returns all valid roles.
func AllRoles() []Role {
	return []Role{RolePending, RoleMember, RoleDirector, RoleAdmin}
}

// IsValid checks if the role is a known valid role.
func (r Role) IsValid() bool {
	for _, valid := range AllRoles() {
		if r == valid {
			return true
		}
	}
	return false
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a string into a Role.
// Returns an error if the string is not a valid role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", errors.NewInvalidUser("role", "must be one of pending, member, director, admin")
	}
	return r, nil
}

// Status represents a user's account lifecycle state.
type Status string

const (
	// StatusPending marks an account awaiting administrator approval.
	StatusPending Status = "pending"

	// StatusApproved marks a fully active account.
	StatusApproved Status = "approved"

	// StatusSuspended marks an account that may no longer sign in.
	StatusSuspended Status = "suspended"
)

// AllStatuses returns all valid statuses.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusSuspended}
}

// IsValid checks if the status is a known valid status.
func (s Status) IsValid() bool {
	for _, valid := range AllStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus parses a string into a Status.
// Returns an error if the string is not a valid status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", errors.NewInvalidUser("status", "must be one of pending, approved, suspended")
	}
	return st, nil
}

// User represents a stored user record.
// The ID is assigned by the store on creation and is immutable afterwards.
type User struct {
	// ID is the opaque unique identifier for this user.
	ID string `json:"id"`

	// Email is the user's email address, unique across the platform.
	// Always stored lower-cased.
	Email string `json:"email"`

	// Name is the user's display name.
	Name string `json:"name"`

	// Role is the platform-level role.
	Role Role `json:"role"`

	// Status is the account lifecycle state.
	Status Status `json:"status"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Empty for accounts that have not completed registration.
	PasswordHash string `json:"-"`

	// CreatedAt is when the user record was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the user record was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// CanSignIn reports whether the account is allowed to authenticate.
func (u *User) CanSignIn() bool {
	return u.Status == StatusApproved
}

// IsAdmin reports whether the user holds the platform admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NewUser carries the caller-supplied fields for user creation.
// Role and Status are optional; the store assigns defaults when empty.
type NewUser struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         Role   `json:"role,omitempty"`
	Status       Status `json:"status,omitempty"`
	PasswordHash string `json:"-"`
}

// Validate checks that the creation request is well-formed.
func (n *NewUser) Validate() error {
	if err := validateEmail(n.Email); err != nil {
		return err
	}
	if strings.TrimSpace(n.Name) == "" {
		return errors.NewInvalidUser("name", "cannot be empty")
	}
	if n.Role != "" && !n.Role.IsValid() {
		return errors.NewInvalidUser("role", "unknown role: "+string(n.Role))
	}
	if n.Status != "" && !n.Status.IsValid() {
		return errors.NewInvalidUser("status", "unknown status: "+string(n.Status))
	}
	return nil
}

// Update describes a partial modification of a user record.
// Nil fields are left unchanged by the store.
type Update struct {
	Email  *string `json:"email,omitempty"`
	Name   *string `json:"name,omitempty"`
	Role   *Role   `json:"role,omitempty"`
	Status *Status `json:"status,omitempty"`

	// PasswordHash replaces the stored credential hash. Never
	// serialized; the API layer hashes before it reaches here.
	PasswordHash *string `json:"-"`
}

// IsEmpty reports whether the update would change nothing.
func (u *Update) IsEmpty() bool {
	return u.Email == nil && u.Name == nil && u.Role == nil && u.Status == nil && u.PasswordHash == nil
}

// Validate checks that the update is well-formed.
// An update with no fields set is rejected: it would be a silent no-op.
func (u *Update) Validate() error {
	if u.IsEmpty() {
		return errors.NewInvalidUser("update", "no fields to update")
	}
	if u.Email != nil {
		if err := validateEmail(*u.Email); err != nil {
			return err
		}
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return errors.NewInvalidUser("name", "cannot be empty")
	}
	if u.Role != nil && !u.Role.IsValid() {
		return errors.NewInvalidUser("role", "unknown role: "+string(*u.Role))
	}
	if u.Status != nil && !u.Status.IsValid() {
		return errors.NewInvalidUser("status", "unknown status: "+string(*u.Status))
	}
	if u.PasswordHash != nil && *u.PasswordHash == "" {
		return errors.NewInvalidUser("password", "hash cannot be empty")
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email address.
// All lookups and writes go through this so that uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return errors.NewInvalidUser("email", "cannot be empty")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return errors.NewInvalidUser("email", "not a valid address: "+email)
	}
	return nil
}
