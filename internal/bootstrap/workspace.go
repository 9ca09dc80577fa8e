// Package bootstrap provides declarative workspace seeding.
//
// A workspace file describes the organizations, users and memberships
// an environment starts with. The file is YAML, versionable and
// schema-checked: unknown keys fail the load, and references between
// sections are verified before anything is written. Apply is additive
// and idempotent; records that already exist are left untouched.
package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/boardmates/boardmates/internal/auth"
	berrors "github.com/boardmates/boardmates/internal/errors"
	"github.com/boardmates/boardmates/internal/organizations"
	"github.com/boardmates/boardmates/internal/users"
)

// Workspace is the declarative seed for an environment.
type Workspace struct {
	Organizations []OrganizationSeed `yaml:"organizations,omitempty"`
	Users         []UserSeed         `yaml:"users,omitempty"`
	Memberships   []MembershipSeed   `yaml:"memberships,omitempty"`

	// validated tracks if Validate() has been called
	validated bool

	// applied tracks if Apply() has been called
	applied bool

	// path is the source file path
	path string
}

// OrganizationSeed declares one organization.
type OrganizationSeed struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

// UserSeed declares one user account. Role and status fall back to the
// store defaults when omitted. A password, when given, is hashed before
// it is stored.
type UserSeed struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role,omitempty"`
	Status   string `yaml:"status,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// MembershipSeed links a declared user to a declared organization.
type MembershipSeed struct {
	Organization string `yaml:"organization"`
	User         string `yaml:"user"`
	Role         string `yaml:"role,omitempty"`
}

// UserDirectory is the subset of the user store seeding needs.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	Create(ctx context.Context, n *users.NewUser) (*users.User, error)
}

// OrganizationDirectory is the subset of the organization store
// seeding needs.
type OrganizationDirectory interface {
	GetBySlug(ctx context.Context, slug string) (*organizations.Organization, error)
	Create(ctx context.Context, n *organizations.NewOrganization) (*organizations.Organization, error)
	AddMember(ctx context.Context, orgID, userID string, role organizations.MemberRole) error
}

// LoadWorkspace loads a workspace file. Unknown keys fail the load so
// a typo cannot silently drop a seed.
func LoadWorkspace(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace file: %w", err)
	}

	// First pass: check for unknown keys using a raw unmarshal.
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse workspace YAML: %w", err)
	}

	knownKeys := map[string]bool{
		"organizations": true,
		"users":         true,
		"memberships":   true,
	}
	for key := range raw {
		if !knownKeys[key] {
			return nil, fmt.Errorf("unknown workspace key: %s", key)
		}
	}

	checkEntryKeys := func(section string, entries interface{}, known map[string]bool) error {
		list, ok := entries.([]interface{})
		if !ok {
			return nil
		}
		for i, entry := range list {
			m, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			for key := range m {
				if !known[key] {
					return fmt.Errorf("unknown key in %s[%d]: %s", section, i, key)
				}
			}
		}
		return nil
	}

	if err := checkEntryKeys("organizations", raw["organizations"], map[string]bool{
		"name": true, "slug": true,
	}); err != nil {
		return nil, err
	}
	if err := checkEntryKeys("users", raw["users"], map[string]bool{
		"email": true, "name": true, "role": true, "status": true, "password": true,
	}); err != nil {
		return nil, err
	}
	if err := checkEntryKeys("memberships", raw["memberships"], map[string]bool{
		"organization": true, "user": true, "role": true,
	}); err != nil {
		return nil, err
	}

	// Second pass: unmarshal into the typed workspace.
	var ws Workspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workspace: %w", err)
	}
	ws.path = path

	if len(ws.Organizations) == 0 && len(ws.Users) == 0 {
		return nil, fmt.Errorf("workspace is empty: declare at least one organization or user")
	}

	return &ws, nil
}

// Validate performs dry-run checks: every seed must be well-formed and
// every membership must reference a declared organization and user.
// No store is touched.
func (w *Workspace) Validate() error {
	slugs := make(map[string]bool, len(w.Organizations))
	for i, org := range w.Organizations {
		n := organizations.NewOrganization{Name: org.Name, Slug: org.Slug}
		if err := n.Validate(); err != nil {
			return fmt.Errorf("organizations[%d]: %w", i, err)
		}
		slug := organizations.NormalizeSlug(org.Slug)
		if slugs[slug] {
			return fmt.Errorf("organizations[%d]: duplicate slug '%s'", i, slug)
		}
		slugs[slug] = true
	}

	emails := make(map[string]bool, len(w.Users))
	for i, u := range w.Users {
		n := users.NewUser{Email: u.Email, Name: u.Name}
		if err := n.Validate(); err != nil {
			return fmt.Errorf("users[%d]: %w", i, err)
		}
		if u.Role != "" {
			if _, err := users.ParseRole(u.Role); err != nil {
				return fmt.Errorf("users[%d]: %w", i, err)
			}
		}
		if u.Status != "" {
			if _, err := users.ParseStatus(u.Status); err != nil {
				return fmt.Errorf("users[%d]: %w", i, err)
			}
		}
		email := users.NormalizeEmail(u.Email)
		if emails[email] {
			return fmt.Errorf("users[%d]: duplicate email '%s'", i, email)
		}
		emails[email] = true
	}

	seen := make(map[string]bool, len(w.Memberships))
	for i, m := range w.Memberships {
		slug := organizations.NormalizeSlug(m.Organization)
		if !slugs[slug] {
			return fmt.Errorf("memberships[%d]: references undeclared organization '%s'", i, m.Organization)
		}
		email := users.NormalizeEmail(m.User)
		if !emails[email] {
			return fmt.Errorf("memberships[%d]: references undeclared user '%s'", i, m.User)
		}
		if m.Role != "" {
			if _, err := organizations.ParseMemberRole(m.Role); err != nil {
				return fmt.Errorf("memberships[%d]: %w", i, err)
			}
		}
		key := slug + "\x00" + email
		if seen[key] {
			return fmt.Errorf("memberships[%d]: duplicate membership %s in %s", i, email, slug)
		}
		seen[key] = true
	}

	w.validated = true
	return nil
}

// IsValidated returns true if Validate() has been called successfully.
func (w *Workspace) IsValidated() bool {
	return w.validated
}

// IsApplied returns true if Apply() has been called successfully.
func (w *Workspace) IsApplied() bool {
	return w.applied
}

// ApplyResult reports what an apply actually did.
type ApplyResult struct {
	OrganizationsCreated int
	UsersCreated         int
	MembershipsCreated   int

	// Skipped lists the seeds that already existed.
	Skipped []string
}

// Apply seeds the stores. The workspace must be validated first.
// Existing records are never modified: an organization with a matching
// slug, a user with a matching email or an existing membership counts
// as a skip, which makes repeated applies safe.
func (w *Workspace) Apply(ctx context.Context, userDir UserDirectory, orgDir OrganizationDirectory) (*ApplyResult, error) {
	if !w.validated {
		return nil, fmt.Errorf("workspace must be validated before apply")
	}
	if userDir == nil || orgDir == nil {
		return nil, fmt.Errorf("apply requires user and organization stores")
	}

	result := &ApplyResult{}
	orgIDs := make(map[string]string, len(w.Organizations))
	userIDs := make(map[string]string, len(w.Users))

	for _, seed := range w.Organizations {
		slug := organizations.NormalizeSlug(seed.Slug)
		existing, err := orgDir.GetBySlug(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("failed to look up organization '%s': %w", slug, err)
		}
		if existing != nil {
			orgIDs[slug] = existing.ID
			result.Skipped = append(result.Skipped, "organization "+slug)
			continue
		}
		created, err := orgDir.Create(ctx, &organizations.NewOrganization{
			Name: seed.Name,
			Slug: seed.Slug,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create organization '%s': %w", slug, err)
		}
		orgIDs[slug] = created.ID
		result.OrganizationsCreated++
	}

	for _, seed := range w.Users {
		email := users.NormalizeEmail(seed.Email)
		existing, err := userDir.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up user '%s': %w", email, err)
		}
		if existing != nil {
			userIDs[email] = existing.ID
			result.Skipped = append(result.Skipped, "user "+email)
			continue
		}

		n := users.NewUser{Email: seed.Email, Name: seed.Name}
		if seed.Role != "" {
			role, err := users.ParseRole(seed.Role)
			if err != nil {
				return nil, err
			}
			n.Role = role
		}
		if seed.Status != "" {
			status, err := users.ParseStatus(seed.Status)
			if err != nil {
				return nil, err
			}
			n.Status = status
		}
		if seed.Password != "" {
			hash, err := auth.HashPassword(seed.Password)
			if err != nil {
				return nil, err
			}
			n.PasswordHash = hash
		}

		created, err := userDir.Create(ctx, &n)
		if err != nil {
			return nil, fmt.Errorf("failed to create user '%s': %w", email, err)
		}
		userIDs[email] = created.ID
		result.UsersCreated++
	}

	for _, seed := range w.Memberships {
		slug := organizations.NormalizeSlug(seed.Organization)
		email := users.NormalizeEmail(seed.User)

		role := organizations.MemberRole(seed.Role)
		err := orgDir.AddMember(ctx, orgIDs[slug], userIDs[email], role)
		if err != nil {
			var dup *berrors.ErrDuplicateMember
			if stderrors.As(err, &dup) {
				result.Skipped = append(result.Skipped, "membership "+email+" in "+slug)
				continue
			}
			return nil, fmt.Errorf("failed to add %s to %s: %w", email, slug, err)
		}
		result.MembershipsCreated++
	}

	w.applied = true
	return result, nil
}

// Init generates an example workspace file.
// The generated file is a template only; nothing is applied.
func Init(dir string) (string, error) {
	path := filepath.Join(dir, "boardmates.yaml")

	example := `# BoardMates workspace seed
# Generated by 'boardmates bootstrap init'
#
# Validate with 'boardmates bootstrap validate', then seed the
# environment with 'boardmates bootstrap apply'.

organizations:
  - name: Acme Corp
    slug: acme

users:
  - email: chair@acme.example
    name: Board Chair
    role: director
    status: approved
    password: change-me

  - email: observer@acme.example
    name: Board Observer

memberships:
  - organization: acme
    user: chair@acme.example
    role: owner
`

	if err := os.WriteFile(path, []byte(example), 0644); err != nil {
		return "", fmt.Errorf("failed to write workspace file: %w", err)
	}

	return path, nil
}
