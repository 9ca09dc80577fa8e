package storage

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/boardmates/boardmates/internal/errors"
	"github.com/boardmates/boardmates/internal/organizations"
	"github.com/boardmates/boardmates/internal/users"
)

// PostgreSQL error codes surfaced through lib/pq.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// PostgresConfig configures the PostgreSQL connection pool.
type PostgresConfig struct {
	// ConnectionString is the PostgreSQL connection string.
	ConnectionString string

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime.
	ConnMaxLifetime time.Duration
}

// Open connects to PostgreSQL and applies the pool settings.
// Connectivity is verified separately via CheckConnectivity.
func Open(cfg PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString)
	if err != nil {
		return nil, errors.NewDatabaseUnavailable(err.Error())
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// PostgresUserRepository implements UserRepository using PostgreSQL.
// This is the production implementation.
type PostgresUserRepository struct {
	db *sql.DB
}

// NewPostgresUserRepository creates a new PostgreSQL user repository.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = "id, email, name, role, status, password_hash, created_at, updated_at"

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*users.User, error) {
	var u users.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Status, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create stores a new user, assigning id, timestamps and defaults.
func (r *PostgresUserRepository) Create(ctx context.Context, n *users.NewUser) (*users.User, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	email := users.NormalizeEmail(n.Email)
	role := n.Role
	if role == "" {
		role = users.RolePending
	}
	status := n.Status
	if status == "" {
		status = users.StatusPending
	}

	row := r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, name, role, status, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		email, n.Name, string(role), string(status), n.PasswordHash,
	)

	u, err := scanUser(row)
	if isUniqueViolation(err) {
		return nil, errors.NewDuplicateEmail(email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

// GetByID retrieves a user by id. Absence is reported as (nil, nil).
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by normalized email. Absence is reported
// as (nil, nil).
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		users.NormalizeEmail(email),
	)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// Update applies a partial modification and returns the updated record.
// Absence is reported as (nil, nil).
func (r *PostgresUserRepository) Update(ctx context.Context, id string, upd *users.Update) (*users.User, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)
	if upd.Email != nil {
		args = append(args, users.NormalizeEmail(*upd.Email))
		set = append(set, fmt.Sprintf("email = $%d", len(args)))
	}
	if upd.Name != nil {
		args = append(args, *upd.Name)
		set = append(set, fmt.Sprintf("name = $%d", len(args)))
	}
	if upd.Role != nil {
		args = append(args, string(*upd.Role))
		set = append(set, fmt.Sprintf("role = $%d", len(args)))
	}
	if upd.Status != nil {
		args = append(args, string(*upd.Status))
		set = append(set, fmt.Sprintf("status = $%d", len(args)))
	}
	if upd.PasswordHash != nil {
		args = append(args, *upd.PasswordHash)
		set = append(set, fmt.Sprintf("password_hash = $%d", len(args)))
	}
	set = append(set, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(set, ", "), len(args), userColumns,
	)

	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if isUniqueViolation(err) {
		email := ""
		if upd.Email != nil {
			email = users.NormalizeEmail(*upd.Email)
		}
		return nil, errors.NewDuplicateEmail(email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

// Delete removes a user. Memberships cascade with the row. Deleting an
// absent user is a no-op.
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}

	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// List returns all users ordered by email.
func (r *PostgresUserRepository) List(ctx context.Context) ([]*users.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY email`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	result := make([]*users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return result, nil
}

// ListByOrganization returns an organization's users joined with their
// membership roles, ordered by email. An unknown organization yields an
// empty slice, mirroring the join.
func (r *PostgresUserRepository) ListByOrganization(ctx context.Context, orgID string) ([]*organizations.Member, error) {
	result := make([]*organizations.Member, 0)
	if _, err := uuid.Parse(orgID); err != nil {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.email, u.name, u.role, u.status, u.password_hash, u.created_at, u.updated_at,
		        om.role, om.joined_at
		 FROM users u
		 JOIN organization_members om ON om.user_id = u.id
		 WHERE om.organization_id = $1
		 ORDER BY u.email`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list organization members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m organizations.Member
		err := rows.Scan(
			&m.User.ID, &m.User.Email, &m.User.Name, &m.User.Role, &m.User.Status,
			&m.User.PasswordHash, &m.User.CreatedAt, &m.User.UpdatedAt,
			&m.Role, &m.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return result, nil
}

// CheckConnectivity verifies database connectivity.
func (r *PostgresUserRepository) CheckConnectivity(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return errors.NewDatabaseUnavailable(err.Error())
	}
	return nil
}

// PostgresOrganizationRepository implements OrganizationRepository using
// PostgreSQL.
type PostgresOrganizationRepository struct {
	db *sql.DB
}

// NewPostgresOrganizationRepository creates a new PostgreSQL organization
// repository.
func NewPostgresOrganizationRepository(db *sql.DB) *PostgresOrganizationRepository {
	return &PostgresOrganizationRepository{db: db}
}

const orgColumns = "id, name, slug, created_at, updated_at"

func scanOrganization(row rowScanner) (*organizations.Organization, error) {
	var o organizations.Organization
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create stores a new organization, assigning id and timestamps.
func (r *PostgresOrganizationRepository) Create(ctx context.Context, n *organizations.NewOrganization) (*organizations.Organization, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	slug := organizations.NormalizeSlug(n.Slug)
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO organizations (name, slug)
		 VALUES ($1, $2)
		 RETURNING `+orgColumns,
		n.Name, slug,
	)

	o, err := scanOrganization(row)
	if isUniqueViolation(err) {
		return nil, errors.NewDuplicateSlug(slug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert organization: %w", err)
	}
	return o, nil
}

// GetByID retrieves an organization by id. Absence is reported as (nil, nil).
func (r *PostgresOrganizationRepository) GetByID(ctx context.Context, id string) (*organizations.Organization, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE id = $1`,
		id,
	)

	o, err := scanOrganization(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return o, nil
}

// GetBySlug retrieves an organization by normalized slug. Absence is
// reported as (nil, nil).
func (r *PostgresOrganizationRepository) GetBySlug(ctx context.Context, slug string) (*organizations.Organization, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE slug = $1`,
		organizations.NormalizeSlug(slug),
	)

	o, err := scanOrganization(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization by slug: %w", err)
	}
	return o, nil
}

// List returns all organizations ordered by slug.
func (r *PostgresOrganizationRepository) List(ctx context.Context) ([]*organizations.Organization, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orgColumns+` FROM organizations ORDER BY slug`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	result := make([]*organizations.Organization, 0)
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organizations: %w", err)
	}
	return result, nil
}

// Delete removes an organization. Memberships cascade with the row.
// Deleting an absent organization is a no-op.
func (r *PostgresOrganizationRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}

	_, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	return nil
}

// AddMember links a user to an organization. An empty role defaults to
// member.
func (r *PostgresOrganizationRepository) AddMember(ctx context.Context, orgID, userID string, role organizations.MemberRole) error {
	if role == "" {
		role = organizations.MemberRoleMember
	}
	if !role.IsValid() {
		return errors.NewInvalidOrganization("role", "unknown member role: "+string(role))
	}
	if _, err := uuid.Parse(orgID); err != nil {
		return errors.NewOrganizationNotFound(orgID)
	}
	if _, err := uuid.Parse(userID); err != nil {
		return errors.NewUserNotFound(userID)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO organization_members (organization_id, user_id, role)
		 VALUES ($1, $2, $3)`,
		orgID, userID, string(role),
	)
	if isUniqueViolation(err) {
		return errors.NewDuplicateMember(orgID, userID)
	}
	if pqErr := asPQError(err); pqErr != nil && pqErr.Code == foreignKeyViolationCode {
		if strings.Contains(pqErr.Constraint, "user") {
			return errors.NewUserNotFound(userID)
		}
		return errors.NewOrganizationNotFound(orgID)
	}
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// UpdateMemberRole changes the role of an existing membership.
func (r *PostgresOrganizationRepository) UpdateMemberRole(ctx context.Context, orgID, userID string, role organizations.MemberRole) error {
	if !role.IsValid() {
		return errors.NewInvalidOrganization("role", "unknown member role: "+string(role))
	}
	if _, err := uuid.Parse(orgID); err != nil {
		return errors.NewMemberNotFound(orgID, userID)
	}
	if _, err := uuid.Parse(userID); err != nil {
		return errors.NewMemberNotFound(orgID, userID)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE organization_members SET role = $1
		 WHERE organization_id = $2 AND user_id = $3`,
		string(role), orgID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewMemberNotFound(orgID, userID)
	}
	return nil
}

// RemoveMember unlinks a user from an organization. Removing an absent
// membership is a no-op.
func (r *PostgresOrganizationRepository) RemoveMember(ctx context.Context, orgID, userID string) error {
	if _, err := uuid.Parse(orgID); err != nil {
		return nil
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil
	}

	_, err := r.db.ExecContext(ctx,
		`DELETE FROM organization_members
		 WHERE organization_id = $1 AND user_id = $2`,
		orgID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// ListMemberships returns the organizations a user belongs to, ordered
// by slug.
func (r *PostgresOrganizationRepository) ListMemberships(ctx context.Context, userID string) ([]*organizations.Membership, error) {
	result := make([]*organizations.Membership, 0)
	if _, err := uuid.Parse(userID); err != nil {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT o.id, o.name, o.slug, o.created_at, o.updated_at,
		        om.role, om.joined_at
		 FROM organizations o
		 JOIN organization_members om ON om.organization_id = o.id
		 WHERE om.user_id = $1
		 ORDER BY o.slug`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m organizations.Membership
		err := rows.Scan(
			&m.Organization.ID, &m.Organization.Name, &m.Organization.Slug,
			&m.Organization.CreatedAt, &m.Organization.UpdatedAt,
			&m.Role, &m.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memberships: %w", err)
	}
	return result, nil
}

// CheckConnectivity verifies database connectivity.
func (r *PostgresOrganizationRepository) CheckConnectivity(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return errors.NewDatabaseUnavailable(err.Error())
	}
	return nil
}

// asPQError extracts the PostgreSQL error from an error chain.
func asPQError(err error) *pq.Error {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr
	}
	return nil
}

// isUniqueViolation reports whether the error is a PostgreSQL unique
// constraint violation.
func isUniqueViolation(err error) bool {
	pqErr := asPQError(err)
	return pqErr != nil && pqErr.Code == uniqueViolationCode
}

// Verify the PostgreSQL repositories implement the storage interfaces.
var (
	_ UserRepository         = (*PostgresUserRepository)(nil)
	_ OrganizationRepository = (*PostgresOrganizationRepository)(nil)
)
