package redflag

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/boardmates/boardmates/internal/errors"
	"github.com/boardmates/boardmates/internal/organizations"
	"github.com/boardmates/boardmates/internal/storage"
	"github.com/boardmates/boardmates/internal/users"
)

// TestStorage_RejectsDuplicateEmail proves that the store enforces email
// uniqueness with a typed error, including across letter case.
//
// Red-Flag: Two accounts MUST NOT share an email address.
func TestStorage_RejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStore()

	if _, err := store.Create(ctx, &users.NewUser{Email: "chair@example.com", Name: "First"}); err != nil {
		t.Fatalf("failed to create first user: %v", err)
	}

	_, err := store.Create(ctx, &users.NewUser{Email: "CHAIR@Example.com", Name: "Second"})
	if err == nil {
		t.Fatal("expected duplicate email error, got nil")
	}

	var dup *errors.ErrDuplicateEmail
	if !stderrors.As(err, &dup) {
		t.Fatalf("expected *errors.ErrDuplicateEmail, got %T", err)
	}
}

// TestStorage_RejectsDuplicateSlug proves that organization slugs are
// unique in the store.
//
// Red-Flag: Two organizations MUST NOT share a slug.
func TestStorage_RejectsDuplicateSlug(t *testing.T) {
	ctx := context.Background()
	orgs := storage.NewMockStore().Organizations()

	if _, err := orgs.Create(ctx, &organizations.NewOrganization{Name: "Acme", Slug: "acme"}); err != nil {
		t.Fatalf("failed to create first organization: %v", err)
	}

	_, err := orgs.Create(ctx, &organizations.NewOrganization{Name: "Shadow", Slug: "Acme"})
	if err == nil {
		t.Fatal("expected duplicate slug error, got nil")
	}

	var dup *errors.ErrDuplicateSlug
	if !stderrors.As(err, &dup) {
		t.Fatalf("expected *errors.ErrDuplicateSlug, got %T", err)
	}
}

// TestStorage_RejectsDuplicateMember proves that adding the same user to
// an organization twice fails with a typed error.
//
// Red-Flag: A user joins an organization at most once.
func TestStorage_RejectsDuplicateMember(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStore()
	orgs := store.Organizations()

	u, err := store.Create(ctx, &users.NewUser{Email: "chair@example.com", Name: "Chair"})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	org, err := orgs.Create(ctx, &organizations.NewOrganization{Name: "Acme", Slug: "acme"})
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	if err := orgs.AddMember(ctx, org.ID, u.ID, organizations.MemberRoleOwner); err != nil {
		t.Fatalf("failed to add member: %v", err)
	}

	err = orgs.AddMember(ctx, org.ID, u.ID, organizations.MemberRoleMember)
	if err == nil {
		t.Fatal("expected duplicate member error, got nil")
	}

	var dup *errors.ErrDuplicateMember
	if !stderrors.As(err, &dup) {
		t.Fatalf("expected *errors.ErrDuplicateMember, got %T", err)
	}
}

// TestStorage_RejectsInvalidNewUser proves that malformed user records
// never reach the store.
//
// Red-Flag: Validation MUST run before persistence.
func TestStorage_RejectsInvalidNewUser(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStore()

	tests := []struct {
		name string
		n    users.NewUser
	}{
		{"empty email", users.NewUser{Name: "No Email"}},
		{"email without at", users.NewUser{Email: "not-an-address", Name: "X"}},
		{"email starting with at", users.NewUser{Email: "@example.com", Name: "X"}},
		{"email ending with at", users.NewUser{Email: "x@", Name: "X"}},
		{"empty name", users.NewUser{Email: "x@example.com"}},
		{"whitespace name", users.NewUser{Email: "x@example.com", Name: "   "}},
		{"unknown role", users.NewUser{Email: "x@example.com", Name: "X", Role: users.Role("emperor")}},
		{"unknown status", users.NewUser{Email: "x@example.com", Name: "X", Status: users.Status("frozen")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(ctx, &tt.n)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			var invalid *errors.ErrInvalidUser
			if !stderrors.As(err, &invalid) {
				t.Fatalf("expected *errors.ErrInvalidUser, got %T", err)
			}
		})
	}
}

// TestStorage_RejectsEmptyUpdate proves that an update with no fields is
// refused instead of silently rewriting nothing.
//
// Red-Flag: Empty updates MUST be rejected.
func TestStorage_RejectsEmptyUpdate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStore()

	u, err := store.Create(ctx, &users.NewUser{Email: "chair@example.com", Name: "Chair"})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	_, err = store.Update(ctx, u.ID, &users.Update{})
	if err == nil {
		t.Fatal("expected error for empty update, got nil")
	}
	var invalid *errors.ErrInvalidUser
	if !stderrors.As(err, &invalid) {
		t.Fatalf("expected *errors.ErrInvalidUser, got %T", err)
	}
}

// TestStorage_AddMemberRequiresExistingRecords proves that memberships
// can only link records that exist, and that each missing side is
// reported with its own typed error.
//
// Red-Flag: Memberships MUST NOT reference absent users or organizations.
func TestStorage_AddMemberRequiresExistingRecords(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStore()
	orgs := store.Organizations()

	u, err := store.Create(ctx, &users.NewUser{Email: "chair@example.com", Name: "Chair"})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	org, err := orgs.Create(ctx, &organizations.NewOrganization{Name: "Acme", Slug: "acme"})
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	t.Run("unknown organization", func(t *testing.T) {
		err := orgs.AddMember(ctx, "no-such-org", u.ID, organizations.MemberRoleMember)
		var notFound *errors.ErrOrganizationNotFound
		if !stderrors.As(err, &notFound) {
			t.Fatalf("expected *errors.ErrOrganizationNotFound, got %T", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		err := orgs.AddMember(ctx, org.ID, "no-such-user", organizations.MemberRoleMember)
		var notFound *errors.ErrUserNotFound
		if !stderrors.As(err, &notFound) {
			t.Fatalf("expected *errors.ErrUserNotFound, got %T", err)
		}
	})
}

// TestStorage_RoleChangeRequiresMembership proves that changing a member
// role for a user who never joined reports the missing membership.
//
// Red-Flag: Role changes without a membership MUST fail.
func TestStorage_RoleChangeRequiresMembership(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStore()
	orgs := store.Organizations()

	u, err := store.Create(ctx, &users.NewUser{Email: "chair@example.com", Name: "Chair"})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	org, err := orgs.Create(ctx, &organizations.NewOrganization{Name: "Acme", Slug: "acme"})
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	err = orgs.UpdateMemberRole(ctx, org.ID, u.ID, organizations.MemberRoleAdmin)
	var notFound *errors.ErrMemberNotFound
	if !stderrors.As(err, &notFound) {
		t.Fatalf("expected *errors.ErrMemberNotFound, got %T", err)
	}
}

// TestStorage_HonorsCancelledContext proves that a cancelled request
// stops before touching the store.
//
// Red-Flag: Cancelled operations MUST NOT write.
func TestStorage_HonorsCancelledContext(t *testing.T) {
	store := storage.NewMockStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Create(ctx, &users.NewUser{Email: "chair@example.com", Name: "Chair"})
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// The cancelled write must have left no trace.
	u, err := store.GetByEmail(context.Background(), "chair@example.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if u != nil {
		t.Error("cancelled create must not persist the user")
	}
}

// TestStorage_HonorsDeadline proves that reads respect an expired
// deadline.
//
// Red-Flag: Expired deadlines MUST abort the operation.
func TestStorage_HonorsDeadline(t *testing.T) {
	store := storage.NewMockStore()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := store.List(ctx)
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

// TestStorage_SurfacesPersistenceFailure proves that a failing backend
// is reported as a typed storage error, not swallowed.
//
// Red-Flag: Storage outages MUST surface to the caller.
func TestStorage_SurfacesPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStore()
	store.SetPersistenceFailure(true)

	_, err := store.Create(ctx, &users.NewUser{Email: "chair@example.com", Name: "Chair"})
	if err == nil {
		t.Fatal("expected storage error, got nil")
	}
	var unavailable *errors.ErrDatabaseUnavailable
	if !stderrors.As(err, &unavailable) {
		t.Fatalf("expected *errors.ErrDatabaseUnavailable, got %T", err)
	}

	// Recovery restores normal service.
	store.SetPersistenceFailure(false)
	if _, err := store.Create(ctx, &users.NewUser{Email: "chair@example.com", Name: "Chair"}); err != nil {
		t.Fatalf("store did not recover after the failure cleared: %v", err)
	}
}
