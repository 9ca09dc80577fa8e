// Package errors provides explicit, human-readable error types for boardmates.
// All errors must include a Reason and Suggestion for actionable feedback.
package errors

import (
	stderrors "errors"
	"fmt"
)

// BoardError is the base error type for all boardmates errors.
// Every error must provide a human-readable reason and suggestion.
type BoardError struct {
	Code       ErrorCode
	Message    string
	Reason     string
	Suggestion string
	Cause      error
}

// ErrorCode represents the category of error for exit code mapping.
type ErrorCode int

const (
	CodeValidation ErrorCode = 1
	CodeAuth       ErrorCode = 2
	CodeStorage    ErrorCode = 3
	CodeInternal   ErrorCode = 4
)

func (e *BoardError) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg = fmt.Sprintf("%s\nReason: %s", msg, e.Reason)
	}
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s\nSuggestion: %s", msg, e.Suggestion)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s\nCaused by: %v", msg, e.Cause)
	}
	return msg
}

func (e *BoardError) Unwrap() error {
	return e.Cause
}

// Base returns the error itself. The method is promoted onto every typed
// wrapper embedding BoardError, which lets AsBoardError reach the embedded
// base through errors.As.
func (e *BoardError) Base() *BoardError {
	return e
}

// AsBoardError extracts the BoardError carried anywhere in err's chain.
func AsBoardError(err error) (*BoardError, bool) {
	var b interface{ Base() *BoardError }
	if stderrors.As(err, &b) {
		return b.Base(), true
	}
	return nil, false
}

// CodeOf maps an error to its exit-code category. Errors from outside
// this package map to CodeInternal.
func CodeOf(err error) ErrorCode {
	if b, ok := AsBoardError(err); ok {
		return b.Code
	}
	return CodeInternal
}

// ErrUserNotFound is returned when a referenced user does not exist.
// Repositories report absence as a nil result without error; this type is
// for callers that must surface the absence, such as HTTP handlers.
type ErrUserNotFound struct {
	BoardError
	ID string
}

// NewUserNotFound creates a new ErrUserNotFound.
func NewUserNotFound(id string) *ErrUserNotFound {
	return &ErrUserNotFound{
		BoardError: BoardError{
			Code:       CodeValidation,
			Message:    fmt.Sprintf("user not found: %s", id),
			Reason:     "no user registered with this identifier",
			Suggestion: "list known users with 'boardmates user list'",
		},
		ID: id,
	}
}

// ErrOrganizationNotFound is returned when a referenced organization does not exist.
type ErrOrganizationNotFound struct {
	BoardError
	ID string
}

// NewOrganizationNotFound creates a new ErrOrganizationNotFound.
func NewOrganizationNotFound(id string) *ErrOrganizationNotFound {
	return &ErrOrganizationNotFound{
		BoardError: BoardError{
			Code:       CodeValidation,
			Message:    fmt.Sprintf("organization not found: %s", id),
			Reason:     "no organization registered with this identifier",
			Suggestion: "list known organizations with 'boardmates org list'",
		},
		ID: id,
	}
}

// ErrDuplicateEmail is returned when creating or updating a user would
// violate the unique email constraint.
type ErrDuplicateEmail struct {
	BoardError
	Email string
}

// NewDuplicateEmail creates a new ErrDuplicateEmail.
func NewDuplicateEmail(email string) *ErrDuplicateEmail {
	return &ErrDuplicateEmail{
		BoardError: BoardError{
			Code:       CodeValidation,
			Message:    fmt.Sprintf("email already registered: %s", email),
			Reason:     "another user holds this email address",
			Suggestion: fmt.Sprintf("look the account up with 'boardmates user get --email %s'", email),
		},
		Email: email,
	}
}

// ErrDuplicateSlug is returned when creating an organization would violate
// the unique slug constraint.
type ErrDuplicateSlug struct {
	BoardError
	Slug string
}

// NewDuplicateSlug creates a new ErrDuplicateSlug.
func NewDuplicateSlug(slug string) *ErrDuplicateSlug {
	return &ErrDuplicateSlug{
		BoardError: BoardError{
			Code:       CodeValidation,
			Message:    fmt.Sprintf("slug already registered: %s", slug),
			Reason:     "another organization holds this slug",
			Suggestion: "pick a different slug or reuse the existing organization",
		},
		Slug: slug,
	}
}

// ErrDuplicateMember is returned when a user is added to an organization
// they already belong to.
type ErrDuplicateMember struct {
	BoardError
	OrganizationID string
	UserID         string
}

// NewDuplicateMember creates a new ErrDuplicateMember.
func NewDuplicateMember(orgID, userID string) *ErrDuplicateMember {
	return &ErrDuplicateMember{
		BoardError: BoardError{
			Code:       CodeValidation,
			Message:    fmt.Sprintf("user %s already belongs to organization %s", userID, orgID),
			Reason:     "memberships are unique per user and organization",
			Suggestion: "update the existing membership role instead of re-adding",
		},
		OrganizationID: orgID,
		UserID:         userID,
	}
}

// ErrMemberNotFound is returned when a membership operation references a
// user who does not belong to the organization.
type ErrMemberNotFound struct {
	BoardError
	OrganizationID string
	UserID         string
}

// NewMemberNotFound creates a new ErrMemberNotFound.
func NewMemberNotFound(orgID, userID string) *ErrMemberNotFound {
	return &ErrMemberNotFound{
		BoardError: BoardError{
			Code:       CodeValidation,
			Message:    fmt.Sprintf("user %s is not a member of organization %s", userID, orgID),
			Reason:     "no membership links this user to the organization",
			Suggestion: "list members with 'boardmates org members'",
		},
		OrganizationID: orgID,
		UserID:         userID,
	}
}

// ErrInvalidUser is returned when a user payload fails validation.
type ErrInvalidUser struct {
	BoardError
	Field string
}

// NewInvalidUser creates a new ErrInvalidUser.
func NewInvalidUser(field, reason string) *ErrInvalidUser {
	return &ErrInvalidUser{
		BoardError: BoardError{
			Code:       CodeValidation,
			Message:    "invalid user",
			Reason:     fmt.Sprintf("field '%s': %s", field, reason),
			Suggestion: "correct the rejected field and retry",
		},
		Field: field,
	}
}

// ErrInvalidOrganization is returned when an organization payload fails validation.
type ErrInvalidOrganization struct {
	BoardError
	Field string
}

// NewInvalidOrganization creates a new ErrInvalidOrganization.
func NewInvalidOrganization(field, reason string) *ErrInvalidOrganization {
	return &ErrInvalidOrganization{
		BoardError: BoardError{
			Code:       CodeValidation,
			Message:    "invalid organization",
			Reason:     fmt.Sprintf("field '%s': %s", field, reason),
			Suggestion: "correct the rejected field and retry",
		},
		Field: field,
	}
}

// ErrAuthFailed is returned when authentication fails.
type ErrAuthFailed struct {
	BoardError
}

// NewAuthFailed creates a new ErrAuthFailed.
func NewAuthFailed(reason string) *ErrAuthFailed {
	return &ErrAuthFailed{
		BoardError: BoardError{
			Code:       CodeAuth,
			Message:    "authentication failed",
			Reason:     reason,
			Suggestion: "authenticate with 'boardmates auth login'",
		},
	}
}

// NewAuthExpired creates an ErrAuthFailed for expired credentials.
func NewAuthExpired() *ErrAuthFailed {
	return &ErrAuthFailed{
		BoardError: BoardError{
			Code:       CodeAuth,
			Message:    "authentication expired",
			Reason:     "token has expired",
			Suggestion: "re-authenticate with 'boardmates auth login'",
		},
	}
}

// ErrPermissionDenied is returned when an authenticated caller lacks the
// role an operation requires.
type ErrPermissionDenied struct {
	BoardError
	Operation string
	Required  string
}

// NewPermissionDenied creates a new ErrPermissionDenied.
func NewPermissionDenied(operation, required string) *ErrPermissionDenied {
	return &ErrPermissionDenied{
		BoardError: BoardError{
			Code:       CodeAuth,
			Message:    fmt.Sprintf("%s forbidden", operation),
			Reason:     fmt.Sprintf("operation requires the %s role", required),
			Suggestion: "ask a workspace administrator to run this operation",
		},
		Operation: operation,
		Required:  required,
	}
}

// ErrDatabaseUnavailable is returned when the backing store cannot be
// reached or refuses an operation for reasons outside the caller's control.
type ErrDatabaseUnavailable struct {
	BoardError
}

// NewDatabaseUnavailable creates a new ErrDatabaseUnavailable.
func NewDatabaseUnavailable(reason string) *ErrDatabaseUnavailable {
	return &ErrDatabaseUnavailable{
		BoardError: BoardError{
			Code:       CodeStorage,
			Message:    "database unavailable",
			Reason:     reason,
			Suggestion: "check PostgreSQL connectivity with 'boardmates doctor'",
		},
	}
}

// ErrMigrationFailed is returned when a schema migration cannot be applied.
type ErrMigrationFailed struct {
	BoardError
	Migration string
}

// NewMigrationFailed creates a new ErrMigrationFailed.
func NewMigrationFailed(migration string, cause error) *ErrMigrationFailed {
	return &ErrMigrationFailed{
		BoardError: BoardError{
			Code:       CodeStorage,
			Message:    fmt.Sprintf("migration failed: %s", migration),
			Reason:     "the schema migration did not apply cleanly",
			Suggestion: "inspect the migration SQL and the database logs",
			Cause:      cause,
		},
		Migration: migration,
	}
}

// ErrServerUnavailable is returned by clients when the API server cannot be reached.
type ErrServerUnavailable struct {
	BoardError
	Endpoint string
}

// NewServerUnavailable creates a new ErrServerUnavailable.
func NewServerUnavailable(endpoint, reason string) *ErrServerUnavailable {
	return &ErrServerUnavailable{
		BoardError: BoardError{
			Code:       CodeInternal,
			Message:    fmt.Sprintf("server unreachable: %s", endpoint),
			Reason:     reason,
			Suggestion: "verify the endpoint and server health with 'boardmates doctor'",
		},
		Endpoint: endpoint,
	}
}

// ErrBootstrap is returned for declarative workspace bootstrap failures.
type ErrBootstrap struct {
	BoardError
}

// NewBootstrapError creates a new ErrBootstrap.
func NewBootstrapError(message, reason, suggestion string) *ErrBootstrap {
	return &ErrBootstrap{
		BoardError: BoardError{
			Code:       CodeValidation,
			Message:    message,
			Reason:     reason,
			Suggestion: suggestion,
		},
	}
}
