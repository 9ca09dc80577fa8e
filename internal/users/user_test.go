package users

import (
	"testing"
)

// TestParseRole verifies role parsing accepts every known role in any
// case and rejects unknowns.
func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"pending", RolePending, false},
		{"member", RoleMember, false},
		{"director", RoleDirector, false},
		{"admin", RoleAdmin, false},
		{"ADMIN", RoleAdmin, false},
		{" Director ", RoleDirector, false},
		{"superuser", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseRole(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRole(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestParseStatus verifies status parsing.
func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"approved", StatusApproved, false},
		{"suspended", StatusSuspended, false},
		{"Approved", StatusApproved, false},
		{"deleted", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseStatus(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStatus(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestAllRolesAreValid verifies the enum helpers stay in sync.
func TestAllRolesAreValid(t *testing.T) {
	for _, role := range AllRoles() {
		if !role.IsValid() {
			t.Errorf("AllRoles returned invalid role %q", role)
		}
	}
	for _, status := range AllStatuses() {
		if !status.IsValid() {
			t.Errorf("AllStatuses returned invalid status %q", status)
		}
	}
	if Role("nonsense").IsValid() {
		t.Error("expected unknown role to be invalid")
	}
}

// TestNewUser_Validate verifies creation payload validation.
func TestNewUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    NewUser
		wantErr bool
	}{
		{"valid minimal", NewUser{Email: "a@b.co", Name: "Ada"}, false},
		{"valid with role", NewUser{Email: "a@b.co", Name: "Ada", Role: RoleAdmin, Status: StatusApproved}, false},
		{"empty email", NewUser{Name: "Ada"}, true},
		{"missing at sign", NewUser{Email: "nope", Name: "Ada"}, true},
		{"at sign leading", NewUser{Email: "@b.co", Name: "Ada"}, true},
		{"at sign trailing", NewUser{Email: "a@", Name: "Ada"}, true},
		{"empty name", NewUser{Email: "a@b.co", Name: "  "}, true},
		{"unknown role", NewUser{Email: "a@b.co", Name: "Ada", Role: "overlord"}, true},
		{"unknown status", NewUser{Email: "a@b.co", Name: "Ada", Status: "frozen"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected error for %s, got nil", tt.name)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected %s to validate, got %v", tt.name, err)
			}
		})
	}
}

// TestUpdate_Validate verifies that empty updates and malformed fields
// are rejected.
func TestUpdate_Validate(t *testing.T) {
	if err := (&Update{}).Validate(); err == nil {
		t.Error("expected error for empty update, got nil")
	}

	badEmail := "not-an-email"
	if err := (&Update{Email: &badEmail}).Validate(); err == nil {
		t.Error("expected error for malformed email, got nil")
	}

	badRole := Role("overlord")
	if err := (&Update{Role: &badRole}).Validate(); err == nil {
		t.Error("expected error for unknown role, got nil")
	}

	name := "Ada"
	if err := (&Update{Name: &name}).Validate(); err != nil {
		t.Errorf("expected single-field update to validate, got %v", err)
	}
}

// TestNormalizeEmail verifies case folding and trimming.
func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada@Example.COM "); got != "ada@example.com" {
		t.Errorf("NormalizeEmail = %q, want ada@example.com", got)
	}
}

// TestUserHelpers verifies the sign-in and admin predicates.
func TestUserHelpers(t *testing.T) {
	approved := &User{Status: StatusApproved, Role: RoleMember}
	if !approved.CanSignIn() {
		t.Error("expected approved user to be able to sign in")
	}

	pending := &User{Status: StatusPending}
	if pending.CanSignIn() {
		t.Error("expected pending user to be unable to sign in")
	}

	suspended := &User{Status: StatusSuspended, Role: RoleAdmin}
	if suspended.CanSignIn() {
		t.Error("expected suspended user to be unable to sign in")
	}
	if !suspended.IsAdmin() {
		t.Error("expected admin role to report IsAdmin")
	}
}
