package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/boardmates/boardmates/internal/storage"
)

func writeWorkspaceFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boardmates.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write workspace file: %v", err)
	}
	return path
}

const validWorkspace = `
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
    name: Observer

memberships:
  - organization: acme
    user: chair@acme.example
    role: owner
`

// TestLoadWorkspace_RejectsUnknownKeys verifies that typos anywhere in
// the file fail the load instead of silently dropping a seed.
func TestLoadWorkspace_RejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "unknown top-level key",
			content: `
organisations:
  - name: Acme
    slug: acme
`,
			wantErr: "unknown workspace key",
		},
		{
			name: "unknown key in user entry",
			content: `
users:
  - email: a@b.example
    name: A
    passwrod: oops
`,
			wantErr: "unknown key in users[0]",
		},
		{
			name: "unknown key in membership entry",
			content: `
organizations:
  - name: Acme
    slug: acme
users:
  - email: a@b.example
    name: A
memberships:
  - organization: acme
    user: a@b.example
    rol: owner
`,
			wantErr: "unknown key in memberships[0]",
		},
		{
			name:    "empty workspace",
			content: "memberships: []\n",
			wantErr: "workspace is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeWorkspaceFile(t, tt.content)
			_, err := LoadWorkspace(path)
			if err == nil {
				t.Fatal("LoadWorkspace() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

// TestWorkspace_Validate verifies the dry-run reference checks.
func TestWorkspace_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ws      Workspace
		wantErr string
	}{
		{
			name: "valid",
			ws: Workspace{
				Organizations: []OrganizationSeed{{Name: "Acme", Slug: "acme"}},
				Users:         []UserSeed{{Email: "a@b.example", Name: "A"}},
				Memberships:   []MembershipSeed{{Organization: "acme", User: "a@b.example"}},
			},
		},
		{
			name: "bad slug",
			ws: Workspace{
				Organizations: []OrganizationSeed{{Name: "Acme", Slug: "has spaces"}},
			},
			wantErr: "organizations[0]",
		},
		{
			name: "duplicate email",
			ws: Workspace{
				Users: []UserSeed{
					{Email: "a@b.example", Name: "A"},
					{Email: "A@B.example", Name: "Same address"},
				},
			},
			wantErr: "duplicate email",
		},
		{
			name: "membership references undeclared organization",
			ws: Workspace{
				Users:       []UserSeed{{Email: "a@b.example", Name: "A"}},
				Memberships: []MembershipSeed{{Organization: "ghost", User: "a@b.example"}},
			},
			wantErr: "undeclared organization",
		},
		{
			name: "membership references undeclared user",
			ws: Workspace{
				Organizations: []OrganizationSeed{{Name: "Acme", Slug: "acme"}},
				Users:         []UserSeed{{Email: "a@b.example", Name: "A"}},
				Memberships:   []MembershipSeed{{Organization: "acme", User: "ghost@b.example"}},
			},
			wantErr: "undeclared user",
		},
		{
			name: "invalid membership role",
			ws: Workspace{
				Organizations: []OrganizationSeed{{Name: "Acme", Slug: "acme"}},
				Users:         []UserSeed{{Email: "a@b.example", Name: "A"}},
				Memberships:   []MembershipSeed{{Organization: "acme", User: "a@b.example", Role: "emperor"}},
			},
			wantErr: "memberships[0]",
		},
		{
			name: "invalid user role",
			ws: Workspace{
				Users: []UserSeed{{Email: "a@b.example", Name: "A", Role: "emperor"}},
			},
			wantErr: "users[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ws.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				if !tt.ws.IsValidated() {
					t.Error("IsValidated() = false after successful validate")
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

// TestWorkspace_ApplyIsIdempotent verifies that a second apply of the
// same workspace creates nothing and skips everything.
func TestWorkspace_ApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStore()

	path := writeWorkspaceFile(t, validWorkspace)
	ws, err := LoadWorkspace(path)
	if err != nil {
		t.Fatalf("LoadWorkspace() error = %v", err)
	}
	if err := ws.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	first, err := ws.Apply(ctx, store, store.Organizations())
	if err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}
	if first.OrganizationsCreated != 1 || first.UsersCreated != 2 || first.MembershipsCreated != 1 {
		t.Errorf("first apply = %+v, want 1 org, 2 users, 1 membership", first)
	}
	if !ws.IsApplied() {
		t.Error("IsApplied() = false after apply")
	}

	chair, err := store.GetByEmail(ctx, "chair@acme.example")
	if err != nil || chair == nil {
		t.Fatalf("seeded user missing: %v", err)
	}
	if chair.Role.String() != "director" || chair.Status.String() != "approved" {
		t.Errorf("seeded user = %s/%s, want director/approved", chair.Role, chair.Status)
	}
	if chair.PasswordHash == "" || chair.PasswordHash == "change-me" {
		t.Error("seeded password was not hashed")
	}

	second, err := ws.Apply(ctx, store, store.Organizations())
	if err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}
	if second.OrganizationsCreated != 0 || second.UsersCreated != 0 || second.MembershipsCreated != 0 {
		t.Errorf("second apply created records: %+v", second)
	}
	if len(second.Skipped) != 4 {
		t.Errorf("second apply skipped %d seeds, want 4: %v", len(second.Skipped), second.Skipped)
	}
}

// TestWorkspace_ApplyRequiresValidation verifies the validate-first
// contract.
func TestWorkspace_ApplyRequiresValidation(t *testing.T) {
	store := storage.NewMockStore()
	ws := &Workspace{
		Users: []UserSeed{{Email: "a@b.example", Name: "A"}},
	}

	if _, err := ws.Apply(context.Background(), store, store.Organizations()); err == nil {
		t.Fatal("Apply() without Validate() succeeded, want error")
	}
}

// TestInit_GeneratesLoadableExample verifies that the generated
// template passes its own load and validation.
func TestInit_GeneratesLoadableExample(t *testing.T) {
	dir := t.TempDir()

	path, err := Init(dir)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("Init() wrote to %s, want %s", filepath.Dir(path), dir)
	}

	ws, err := LoadWorkspace(path)
	if err != nil {
		t.Fatalf("generated workspace does not load: %v", err)
	}
	if err := ws.Validate(); err != nil {
		t.Fatalf("generated workspace does not validate: %v", err)
	}
}
