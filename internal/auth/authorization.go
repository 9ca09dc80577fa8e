// Authorization for the boardmates control plane follows a deny-by-default
// model: a role may perform an action only if a grant exists for it.
package auth

import (
	"sort"
	"strings"
	"sync"

	"github.com/boardmates/boardmates/internal/errors"
	"github.com/boardmates/boardmates/internal/users"
)

// Action names a guarded control-plane operation.
type Action string

const (
	ActionUserRead    Action = "user.read"
	ActionUserWrite   Action = "user.write"
	ActionUserDelete  Action = "user.delete"
	ActionOrgRead     Action = "org.read"
	ActionOrgWrite    Action = "org.write"
	ActionMemberWrite Action = "member.write"
	ActionAuditRead   Action = "audit.read"
)

// AuthorizationService manages role to action grants.
// Absence of a grant is denial.
type AuthorizationService struct {
	mu     sync.RWMutex
	grants map[users.Role]map[Action]bool
}

// NewAuthorizationService creates an empty authorization service with
// deny-by-default semantics.
func NewAuthorizationService() *AuthorizationService {
	return &AuthorizationService{
		grants: make(map[users.Role]map[Action]bool),
	}
}

// DefaultAuthorizationService returns the standard workspace policy:
// admins hold every grant, directors manage users and organizations,
// members read, and pending accounts hold nothing.
func DefaultAuthorizationService() *AuthorizationService {
	s := NewAuthorizationService()

	all := []Action{
		ActionUserRead, ActionUserWrite, ActionUserDelete,
		ActionOrgRead, ActionOrgWrite, ActionMemberWrite, ActionAuditRead,
	}
	for _, action := range all {
		s.Grant(users.RoleAdmin, action)
	}

	for _, action := range []Action{
		ActionUserRead, ActionUserWrite,
		ActionOrgRead, ActionOrgWrite, ActionMemberWrite, ActionAuditRead,
	} {
		s.Grant(users.RoleDirector, action)
	}

	s.Grant(users.RoleMember, ActionUserRead)
	s.Grant(users.RoleMember, ActionOrgRead)

	return s
}

// Grant allows a role to perform an action. Granting twice is a no-op.
func (s *AuthorizationService) Grant(role users.Role, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grants[role] == nil {
		s.grants[role] = make(map[Action]bool)
	}
	s.grants[role][action] = true
}

// Revoke removes a grant from a role.
func (s *AuthorizationService) Revoke(role users.Role, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grants[role] == nil {
		return
	}
	delete(s.grants[role], action)
}

// Authorize checks whether the identity may perform the action.
// Returns nil if authorized, an error if denied.
func (s *AuthorizationService) Authorize(identity *Identity, action Action) error {
	if identity == nil {
		return errors.NewAuthFailed("no identity in request context")
	}
	if s.HasGrant(identity.Role, action) {
		return nil
	}
	return errors.NewPermissionDenied(string(action), s.rolesFor(action))
}

// HasGrant reports whether the role holds a grant for the action.
func (s *AuthorizationService) HasGrant(role users.Role, action Action) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roleGrants, ok := s.grants[role]
	if !ok {
		return false
	}
	return roleGrants[action]
}

// GrantsFor returns the actions granted to a role, sorted for stable output.
func (s *AuthorizationService) GrantsFor(role users.Role) []Action {
	s.mu.RLock()
	defer s.mu.RUnlock()

	actions := make([]Action, 0, len(s.grants[role]))
	for action := range s.grants[role] {
		actions = append(actions, action)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}

// rolesFor lists the roles currently holding a grant for the action,
// for use in permission-denied messages.
func (s *AuthorizationService) rolesFor(action Action) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var roles []string
	for role, grants := range s.grants {
		if grants[action] {
			roles = append(roles, string(role))
		}
	}
	sort.Strings(roles)
	if len(roles) == 0 {
		return "admin"
	}
	return strings.Join(roles, " or ")
}
