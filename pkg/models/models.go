// Package models provides shared data models for the boardmates public API.
package models

import (
	"time"
)

// UserInfo is the external representation of a user. Password hashes
// never leave the server.
type UserInfo struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserRequest is the API request for creating a user.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
	Status   string `json:"status,omitempty"`
	Password string `json:"password,omitempty"`
}

// UpdateUserRequest is the API request for a partial user update.
// Absent fields are left untouched.
type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty"`
	Name     *string `json:"name,omitempty"`
	Role     *string `json:"role,omitempty"`
	Status   *string `json:"status,omitempty"`
	Password *string `json:"password,omitempty"`
}

// OrganizationInfo is the external representation of an organization.
type OrganizationInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateOrganizationRequest is the API request for creating an organization.
type CreateOrganizationRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// MemberInfo is the API response for an organization member: the user
// plus their role within that organization.
type MemberInfo struct {
	User     UserInfo  `json:"user"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// AddMemberRequest is the API request for adding a user to an organization.
type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
}

// UpdateMemberRequest is the API request for changing a member's role.
type UpdateMemberRequest struct {
	Role string `json:"role"`
}

// MembershipInfo is the API response for one of a user's memberships:
// the organization plus the user's role within it.
type MembershipInfo struct {
	Organization OrganizationInfo `json:"organization"`
	Role         string           `json:"role"`
	JoinedAt     time.Time        `json:"joined_at"`
}

// LoginRequest is the API request for exchanging credentials for a token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the API response for a successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

// AuthStatus is the API response for authentication status.
type AuthStatus struct {
	Authenticated bool      `json:"authenticated"`
	UserID        string    `json:"user_id,omitempty"`
	Email         string    `json:"email,omitempty"`
	Name          string    `json:"name,omitempty"`
	Role          string    `json:"role,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
}

// HealthStatus is the API response for the liveness endpoint.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyStatus is the API response for the readiness endpoint.
type ReadyStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// RejectionReason is one aggregated rejection cause in an audit summary.
type RejectionReason struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// ActionCount is one aggregated action in an audit summary.
type ActionCount struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// AuditSummaryResponse is the API response for aggregated audit activity.
type AuditSummaryResponse struct {
	Accepted            int               `json:"accepted"`
	Rejected            int               `json:"rejected"`
	TopRejectionReasons []RejectionReason `json:"top_rejection_reasons,omitempty"`
	TopActions          []ActionCount     `json:"top_actions,omitempty"`
}

// ErrorResponse is the API response for errors.
type ErrorResponse struct {
	Error      string `json:"error"`
	Reason     string `json:"reason,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Code       int    `json:"code"`
}
