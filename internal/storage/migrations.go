package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	berrors "github.com/boardmates/boardmates/internal/errors"
	"github.com/boardmates/boardmates/migrations"
)

// MigrationRunner applies the embedded schema migrations in version order.
// Each migration runs in its own transaction and is recorded in
// schema_migrations, so a rerun only applies what is still pending. A
// failed migration aborts the run; the server treats that as a fatal
// startup error.
type MigrationRunner struct {
	db *sql.DB
}

// NewMigrationRunner creates a runner over an open database handle.
func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return &MigrationRunner{db: db}
}

// Run brings the schema up to date.
func (r *MigrationRunner) Run(ctx context.Context) error {
	if err := r.ensureLedger(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	files, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		return fmt.Errorf("failed to list migration files: %w", err)
	}
	sort.Strings(files)

	for _, filename := range files {
		version, _, ok := strings.Cut(filename, "_")
		if !ok {
			continue
		}
		if applied[version] {
			continue
		}
		if err := r.apply(ctx, version, filename); err != nil {
			return berrors.NewMigrationFailed(strings.TrimSuffix(filename, ".up.sql"), err)
		}
	}

	return nil
}

func (r *MigrationRunner) ensureLedger(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`)
	return err
}

func (r *MigrationRunner) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (r *MigrationRunner) apply(ctx context.Context, version, filename string) error {
	ddl, err := fs.ReadFile(migrations.FS, filename)
	if err != nil {
		return fmt.Errorf("failed to read migration %s: %w", filename, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version) VALUES ($1)`, version,
	); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}
