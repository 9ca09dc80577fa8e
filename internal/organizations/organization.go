// Package organizations defines the organization model for the BoardMates
// control plane. An organization is a board workspace; users join it through
// memberships that carry a per-organization role.
package organizations

import (
	"strings"
	"time"

	"github.com/boardmates/boardmates/internal/errors"
	"github.com/boardmates/boardmates/internal/users"
)

// MemberRole represents a user's role within one organization.
// It is independent of the user's platform role.
type MemberRole string

const (
	// MemberRoleOwner is the organization owner. Exactly one per
	// organization by convention; the store does not enforce this.
	MemberRoleOwner MemberRole = "owner"

	// MemberRoleAdmin may manage the organization's membership.
	MemberRoleAdmin MemberRole = "admin"

	// MemberRoleMember is a regular board member.
	MemberRoleMember MemberRole = "member"
)

// AllMemberRoles returns all valid membership roles.
func AllMemberRoles() []MemberRole {
	return []MemberRole{MemberRoleOwner, MemberRoleAdmin, MemberRoleMember}
}

// IsValid checks if the membership role is known.
func (r MemberRole) IsValid() bool {
	for _, valid := range AllMemberRoles() {
		if r == valid {
			return true
		}
	}
	return false
}

// String returns the string representation of the membership role.
func (r MemberRole) String() string {
	return string(r)
}

// ParseMemberRole parses a string into a MemberRole.
// Returns an error if the string is not a valid membership role.
func ParseMemberRole(s string) (MemberRole, error) {
	r := MemberRole(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", errors.NewInvalidOrganization("role", "must be one of owner, admin, member")
	}
	return r, nil
}

// Organization represents a stored board workspace.
type Organization struct {
	// ID is the opaque unique identifier, assigned by the store.
	ID string `json:"id"`

	// Name is the human-readable organization name.
	Name string `json:"name"`

	// Slug is the unique, URL-safe identifier used in client routes.
	Slug string `json:"slug"`

	// CreatedAt is when the organization was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the organization was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewOrganization carries the caller-supplied fields for creation.
type NewOrganization struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Validate checks that the creation request is well-formed.
func (n *NewOrganization) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return errors.NewInvalidOrganization("name", "cannot be empty")
	}
	slug := NormalizeSlug(n.Slug)
	if slug == "" {
		return errors.NewInvalidOrganization("slug", "cannot be empty")
	}
	for _, ch := range slug {
		if ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9' || ch == '-' {
			continue
		}
		return errors.NewInvalidOrganization("slug", "only lower-case letters, digits and '-' allowed: "+slug)
	}
	return nil
}

// Member is a user's appearance inside one organization: the stored user
// record annotated with the membership role.
type Member struct {
	User users.User `json:"user"`

	// Role is the user's role within this organization.
	Role MemberRole `json:"role"`

	// JoinedAt is when the membership was created.
	JoinedAt time.Time `json:"joined_at"`
}

// Membership is the inverse view: one organization a user belongs to,
// annotated with their role in it.
type Membership struct {
	Organization Organization `json:"organization"`

	// Role is the user's role within the organization.
	Role MemberRole `json:"role"`

	// JoinedAt is when the membership was created.
	JoinedAt time.Time `json:"joined_at"`
}

// NormalizeSlug lower-cases and trims a slug.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
