package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/boardmates/boardmates/internal/errors"
	"github.com/boardmates/boardmates/internal/organizations"
	"github.com/boardmates/boardmates/internal/users"
)

// MockStore is an in-memory implementation of UserRepository and
// OrganizationRepository for testing. It is thread-safe, respects context
// cancellation and mirrors the PostgreSQL error mapping, including the
// nil-result-on-absence contract.
type MockStore struct {
	mu      sync.RWMutex
	users   map[string]*users.User
	emails  map[string]string
	orgs    map[string]*organizations.Organization
	slugs   map[string]string
	members map[string]map[string]memberRecord

	// Test helper fields for simulating failures
	connectivityFailure     bool
	persistenceFailure      bool
	connectivityCheckCalled bool
}

type memberRecord struct {
	role     organizations.MemberRole
	joinedAt time.Time
}

// NewMockStore creates a new empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		users:   make(map[string]*users.User),
		emails:  make(map[string]string),
		orgs:    make(map[string]*organizations.Organization),
		slugs:   make(map[string]string),
		members: make(map[string]map[string]memberRecord),
	}
}

// checkContext verifies the context is not cancelled or timed out.
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Create stores a new user with a generated id and timestamps.
func (s *MockStore) Create(ctx context.Context, n *users.NewUser) (*users.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persistenceFailure {
		return nil, errors.NewDatabaseUnavailable("persistence failure (simulated)")
	}

	email := users.NormalizeEmail(n.Email)
	if _, exists := s.emails[email]; exists {
		return nil, errors.NewDuplicateEmail(email)
	}

	role := n.Role
	if role == "" {
		role = users.RolePending
	}
	status := n.Status
	if status == "" {
		status = users.StatusPending
	}

	now := time.Now()
	u := &users.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         n.Name,
		Role:         role,
		Status:       status,
		PasswordHash: n.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.users[u.ID] = u
	s.emails[email] = u.ID
	return copyUser(u), nil
}

// GetByID retrieves a user by id. Absence is reported as (nil, nil).
func (s *MockStore) GetByID(ctx context.Context, id string) (*users.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.users[id]
	if !exists {
		return nil, nil
	}
	return copyUser(u), nil
}

// GetByEmail retrieves a user by normalized email. Absence is reported
// as (nil, nil).
func (s *MockStore) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.emails[users.NormalizeEmail(email)]
	if !exists {
		return nil, nil
	}
	return copyUser(s.users[id]), nil
}

// Update applies a partial modification. Absence is reported as (nil, nil).
func (s *MockStore) Update(ctx context.Context, id string, upd *users.Update) (*users.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.users[id]
	if !exists {
		return nil, nil
	}

	if upd.Email != nil {
		email := users.NormalizeEmail(*upd.Email)
		if otherID, taken := s.emails[email]; taken && otherID != id {
			return nil, errors.NewDuplicateEmail(email)
		}
		delete(s.emails, u.Email)
		u.Email = email
		s.emails[email] = id
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Status != nil {
		u.Status = *upd.Status
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	u.UpdatedAt = time.Now()

	return copyUser(u), nil
}

// Delete removes a user and their memberships. Deleting an absent user is
// a no-op.
func (s *MockStore) Delete(ctx context.Context, id string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.users[id]
	if !exists {
		return nil
	}

	delete(s.emails, u.Email)
	delete(s.users, id)
	for _, orgMembers := range s.members {
		delete(orgMembers, id)
	}
	return nil
}

// List returns all users ordered by email.
func (s *MockStore) List(ctx context.Context) ([]*users.User, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*users.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, copyUser(u))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

// ListByOrganization returns an organization's members ordered by email.
// An unknown organization yields an empty slice.
func (s *MockStore) ListByOrganization(ctx context.Context, orgID string) ([]*organizations.Member, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*organizations.Member, 0)
	for userID, rec := range s.members[orgID] {
		u, exists := s.users[userID]
		if !exists {
			continue
		}
		result = append(result, &organizations.Member{
			User:     *copyUser(u),
			Role:     rec.role,
			JoinedAt: rec.joinedAt,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].User.Email < result[j].User.Email })
	return result, nil
}

// orgView adapts MockStore to the OrganizationRepository interface.
// UserRepository and OrganizationRepository both declare Create, GetByID,
// List, Delete and CheckConnectivity, so one receiver cannot satisfy both.
type orgView struct {
	s *MockStore
}

// Organizations returns the OrganizationRepository view of the store.
// Both views share the same underlying data and lock.
func (s *MockStore) Organizations() OrganizationRepository {
	return orgView{s: s}
}

// Create stores a new organization with a generated id and timestamps.
func (v orgView) Create(ctx context.Context, n *organizations.NewOrganization) (*organizations.Organization, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}

	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if v.s.persistenceFailure {
		return nil, errors.NewDatabaseUnavailable("persistence failure (simulated)")
	}

	slug := organizations.NormalizeSlug(n.Slug)
	if _, exists := v.s.slugs[slug]; exists {
		return nil, errors.NewDuplicateSlug(slug)
	}

	now := time.Now()
	o := &organizations.Organization{
		ID:        uuid.NewString(),
		Name:      n.Name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}

	v.s.orgs[o.ID] = o
	v.s.slugs[slug] = o.ID
	v.s.members[o.ID] = make(map[string]memberRecord)
	return copyOrganization(o), nil
}

// GetByID retrieves an organization by id. Absence is reported as (nil, nil).
func (v orgView) GetByID(ctx context.Context, id string) (*organizations.Organization, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	o, exists := v.s.orgs[id]
	if !exists {
		return nil, nil
	}
	return copyOrganization(o), nil
}

// GetBySlug retrieves an organization by normalized slug. Absence is
// reported as (nil, nil).
func (v orgView) GetBySlug(ctx context.Context, slug string) (*organizations.Organization, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	id, exists := v.s.slugs[organizations.NormalizeSlug(slug)]
	if !exists {
		return nil, nil
	}
	return copyOrganization(v.s.orgs[id]), nil
}

// List returns all organizations ordered by slug.
func (v orgView) List(ctx context.Context) ([]*organizations.Organization, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	result := make([]*organizations.Organization, 0, len(v.s.orgs))
	for _, o := range v.s.orgs {
		result = append(result, copyOrganization(o))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slug < result[j].Slug })
	return result, nil
}

// Delete removes an organization and its memberships. Deleting an absent
// organization is a no-op.
func (v orgView) Delete(ctx context.Context, id string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	o, exists := v.s.orgs[id]
	if !exists {
		return nil
	}

	delete(v.s.slugs, o.Slug)
	delete(v.s.orgs, id)
	delete(v.s.members, id)
	return nil
}

// AddMember links a user to an organization. An empty role defaults to
// member.
func (v orgView) AddMember(ctx context.Context, orgID, userID string, role organizations.MemberRole) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if role == "" {
		role = organizations.MemberRoleMember
	}
	if !role.IsValid() {
		return errors.NewInvalidOrganization("role", "unknown member role: "+string(role))
	}

	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if _, exists := v.s.orgs[orgID]; !exists {
		return errors.NewOrganizationNotFound(orgID)
	}
	if _, exists := v.s.users[userID]; !exists {
		return errors.NewUserNotFound(userID)
	}
	if _, exists := v.s.members[orgID][userID]; exists {
		return errors.NewDuplicateMember(orgID, userID)
	}

	v.s.members[orgID][userID] = memberRecord{role: role, joinedAt: time.Now()}
	return nil
}

// UpdateMemberRole changes the role of an existing membership.
func (v orgView) UpdateMemberRole(ctx context.Context, orgID, userID string, role organizations.MemberRole) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if !role.IsValid() {
		return errors.NewInvalidOrganization("role", "unknown member role: "+string(role))
	}

	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	rec, exists := v.s.members[orgID][userID]
	if !exists {
		return errors.NewMemberNotFound(orgID, userID)
	}

	rec.role = role
	v.s.members[orgID][userID] = rec
	return nil
}

// RemoveMember unlinks a user from an organization. Removing an absent
// membership is a no-op.
func (v orgView) RemoveMember(ctx context.Context, orgID, userID string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	delete(v.s.members[orgID], userID)
	return nil
}

// ListMemberships returns the organizations a user belongs to, ordered
// by slug.
func (v orgView) ListMemberships(ctx context.Context, userID string) ([]*organizations.Membership, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	result := make([]*organizations.Membership, 0)
	for orgID, orgMembers := range v.s.members {
		rec, exists := orgMembers[userID]
		if !exists {
			continue
		}
		result = append(result, &organizations.Membership{
			Organization: *copyOrganization(v.s.orgs[orgID]),
			Role:         rec.role,
			JoinedAt:     rec.joinedAt,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Organization.Slug < result[j].Organization.Slug
	})
	return result, nil
}

// CheckConnectivity verifies store connectivity for the organization view.
func (v orgView) CheckConnectivity(ctx context.Context) error {
	return v.s.CheckConnectivity(ctx)
}

// CheckConnectivity verifies store connectivity.
func (s *MockStore) CheckConnectivity(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectivityCheckCalled = true

	if s.connectivityFailure {
		return errors.NewDatabaseUnavailable("mock connectivity failure")
	}
	return nil
}

// SetConnectivityFailure configures the store to simulate connectivity
// failures.
func (s *MockStore) SetConnectivityFailure(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectivityFailure = fail
}

// SetPersistenceFailure configures the store to simulate persistence
// failures.
func (s *MockStore) SetPersistenceFailure(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistenceFailure = fail
}

// ConnectivityCheckCalled returns whether CheckConnectivity was called.
func (s *MockStore) ConnectivityCheckCalled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectivityCheckCalled
}

// copyUser creates a copy of a user record.
func copyUser(src *users.User) *users.User {
	dst := *src
	return &dst
}

// copyOrganization creates a copy of an organization record.
func copyOrganization(src *organizations.Organization) *organizations.Organization {
	dst := *src
	return &dst
}

// Verify MockStore implements the storage interfaces.
var (
	_ UserRepository         = (*MockStore)(nil)
	_ OrganizationRepository = orgView{}
)
