package storage

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
)

// TestUniqueViolationClassification verifies that PostgreSQL unique
// constraint violations are recognized by SQLSTATE, including when the
// driver error is wrapped.
func TestUniqueViolationClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "bare unique violation",
			err:  &pq.Error{Code: "23505", Constraint: "users_email_key"},
			want: true,
		},
		{
			name: "wrapped unique violation",
			err:  fmt.Errorf("failed to insert user: %w", &pq.Error{Code: "23505"}),
			want: true,
		},
		{
			name: "foreign key violation is not unique",
			err:  &pq.Error{Code: "23503"},
			want: false,
		},
		{
			name: "syntax error is not unique",
			err:  &pq.Error{Code: "42601"},
			want: false,
		},
		{
			name: "plain error",
			err:  fmt.Errorf("connection refused"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// TestASPQErrorExtractsDriverError verifies driver error extraction used
// for foreign key mapping in AddMember.
func TestASPQErrorExtractsDriverError(t *testing.T) {
	inner := &pq.Error{Code: "23503", Constraint: "organization_members_user_id_fkey"}
	wrapped := fmt.Errorf("failed to add member: %w", inner)

	got := asPQError(wrapped)
	if got == nil {
		t.Fatal("expected pq.Error from wrapped chain, got nil")
	}
	if got.Code != "23503" {
		t.Errorf("expected code 23503, got %s", got.Code)
	}
	if got.Constraint != "organization_members_user_id_fkey" {
		t.Errorf("unexpected constraint: %s", got.Constraint)
	}

	if asPQError(fmt.Errorf("no driver error here")) != nil {
		t.Error("expected nil for non-driver error")
	}
	if asPQError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}
