// Package storage provides persistence for the boardmates control plane:
// user accounts, organizations and the memberships linking them.
//
// Absence is not an error in this package. Lookups for a record that does
// not exist return a nil result and a nil error; callers that need to
// surface the absence construct their own not-found error. Only constraint
// violations, connectivity loss and malformed input produce errors.
package storage

import (
	"context"

	"github.com/boardmates/boardmates/internal/organizations"
	"github.com/boardmates/boardmates/internal/users"
)

// UserRepository defines the interface for user persistence.
// All implementations must be:
// - Thread-safe
// - Context-aware (respecting cancellation/timeout)
// - Explicit about errors (never swallow)
type UserRepository interface {
	// Create stores a new user and returns the stored record with its
	// server-assigned id, defaults and timestamps.
	// Returns an error if:
	// - The email is already registered (ErrDuplicateEmail)
	// - The payload is invalid
	// - Context is cancelled
	Create(ctx context.Context, n *users.NewUser) (*users.User, error)

	// GetByID retrieves a user by id.
	// Returns (nil, nil) if no user has this id.
	GetByID(ctx context.Context, id string) (*users.User, error)

	// GetByEmail retrieves a user by email. The email is normalized
	// before lookup.
	// Returns (nil, nil) if no user has this email.
	GetByEmail(ctx context.Context, email string) (*users.User, error)

	// Update applies a partial modification to the user with the given id
	// and returns the updated record.
	// Returns (nil, nil) if no user has this id.
	// Returns an error if:
	// - The new email is already registered (ErrDuplicateEmail)
	// - The payload is invalid
	// - Context is cancelled
	Update(ctx context.Context, id string, upd *users.Update) (*users.User, error)

	// Delete removes the user with the given id along with their
	// memberships. Deleting an absent user is a no-op.
	Delete(ctx context.Context, id string) error

	// List returns all users ordered by email.
	// Returns empty slice (not nil) if no users exist.
	List(ctx context.Context) ([]*users.User, error)

	// ListByOrganization returns the users belonging to an organization,
	// each annotated with their membership role, ordered by email.
	// Returns empty slice (not nil) if the organization has no members
	// or does not exist.
	ListByOrganization(ctx context.Context, orgID string) ([]*organizations.Member, error)

	// CheckConnectivity verifies that the backing store is reachable.
	// Startup fails if the store is unavailable.
	CheckConnectivity(ctx context.Context) error
}

// OrganizationRepository defines the interface for organization and
// membership persistence. Implementations share the UserRepository
// requirements: thread-safe, context-aware, explicit about errors.
type OrganizationRepository interface {
	// Create stores a new organization and returns the stored record.
	// Returns an error if:
	// - The slug is already registered (ErrDuplicateSlug)
	// - The payload is invalid
	// - Context is cancelled
	Create(ctx context.Context, n *organizations.NewOrganization) (*organizations.Organization, error)

	// GetByID retrieves an organization by id.
	// Returns (nil, nil) if no organization has this id.
	GetByID(ctx context.Context, id string) (*organizations.Organization, error)

	// GetBySlug retrieves an organization by slug. The slug is normalized
	// before lookup.
	// Returns (nil, nil) if no organization has this slug.
	GetBySlug(ctx context.Context, slug string) (*organizations.Organization, error)

	// List returns all organizations ordered by slug.
	// Returns empty slice (not nil) if none exist.
	List(ctx context.Context) ([]*organizations.Organization, error)

	// Delete removes the organization with the given id along with its
	// memberships. Deleting an absent organization is a no-op.
	Delete(ctx context.Context, id string) error

	// AddMember links a user to an organization with the given role.
	// Returns an error if:
	// - The membership already exists (ErrDuplicateMember)
	// - The organization or user does not exist
	// - Context is cancelled
	AddMember(ctx context.Context, orgID, userID string, role organizations.MemberRole) error

	// UpdateMemberRole changes the role of an existing membership.
	// Returns ErrMemberNotFound if no such membership exists.
	UpdateMemberRole(ctx context.Context, orgID, userID string, role organizations.MemberRole) error

	// RemoveMember unlinks a user from an organization. Removing an
	// absent membership is a no-op.
	RemoveMember(ctx context.Context, orgID, userID string) error

	// ListMemberships returns the organizations a user belongs to, each
	// annotated with the user's role, ordered by slug.
	// Returns empty slice (not nil) if the user belongs to none.
	ListMemberships(ctx context.Context, userID string) ([]*organizations.Membership, error)

	// CheckConnectivity verifies that the backing store is reachable.
	CheckConnectivity(ctx context.Context) error
}
