// Package registry persists the mapping from subtree path to everything
// fit knows about that subtree: source URL, clone location, mark-file
// locations, and workspace location.
//
// Storage is an embedded SQLite database (.fit/registry.db) opened in
// WAL mode, the sole source of truth for what is registered. Records
// are created on first successful import and updated afterwards; they
// are never deleted implicitly; removal is an explicit user action.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Errors returned by registry operations, checkable with errors.Is.
var (
	// ErrNotRegistered is returned when a subtree path has no record.
	ErrNotRegistered = errors.New("subtree not registered")

	// ErrAlreadyRegistered is returned when importing a subtree path
	// that already has a record.
	ErrAlreadyRegistered = errors.New("subtree already registered")

	// ErrDuplicateIdentifier is returned when a new registration's
	// sanitized identifier collides with an existing one. Two subtrees
	// sharing an identifier would share clone and mark files, so this
	// is a fatal configuration error rather than something to tolerate.
	ErrDuplicateIdentifier = errors.New("duplicate sanitized identifier")
)

// Registration is one subtree's record.
type Registration struct {
	// Path is the normalized logical subtree path, the unique key.
	Path string `yaml:"path"`

	// Identifier is the sanitized filesystem-safe form of Path.
	Identifier string `yaml:"identifier"`

	// SourceURL is the Git source locator.
	SourceURL string `yaml:"source_url"`

	// ClonePath is where the disposable source clone lives.
	ClonePath string `yaml:"clone_path"`

	// SourceMarks and AggregateMarks are the mark-ledger file paths.
	SourceMarks    string `yaml:"source_marks"`
	AggregateMarks string `yaml:"aggregate_marks"`

	// WorkspacePath is the isolated checkout directory. May be empty
	// for records created before workspaces were materialized; it is
	// backfilled on update.
	WorkspacePath string `yaml:"workspace_path,omitempty"`

	// CreatedAt and UpdatedAt are bookkeeping timestamps.
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// Registry is a handle on the registration database.
type Registry struct {
	conn *sql.DB
	path string
}

// Open opens (creating if needed) the registry database at path and
// initializes the schema. The caller must Close it.
//
// Example:
//
//	reg, err := registry.Open(filepath.Join(root, ".fit", "registry.db"))
//	if err != nil {
//	    return err
//	}
//	defer reg.Close()
func Open(path string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping registry database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	r := &Registry{conn: conn, path: path}
	if err := r.initSchema(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the database connection.
func (r *Registry) Close() error {
	if r.conn == nil {
		return nil
	}
	if err := r.conn.Close(); err != nil {
		return fmt.Errorf("failed to close registry database: %w", err)
	}
	r.conn = nil
	return nil
}

// Path returns the database file location.
func (r *Registry) Path() string {
	return r.path
}

func (r *Registry) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS registrations (
		path            TEXT PRIMARY KEY,
		identifier      TEXT NOT NULL UNIQUE,
		source_url      TEXT NOT NULL,
		clone_path      TEXT NOT NULL,
		source_marks    TEXT NOT NULL,
		aggregate_marks TEXT NOT NULL,
		workspace_path  TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	);
	`
	if _, err := r.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize registry schema: %w", err)
	}
	return nil
}

// Put inserts a new registration. Fails with ErrAlreadyRegistered when
// the path exists and ErrDuplicateIdentifier when another path already
// claimed the same sanitized identifier.
func (r *Registry) Put(ctx context.Context, reg Registration) error {
	if exists, err := r.Exists(ctx, reg.Path); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, reg.Path)
	}

	var holder string
	err := r.conn.QueryRowContext(ctx,
		`SELECT path FROM registrations WHERE identifier = ?`, reg.Identifier).Scan(&holder)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %q already used by %q", ErrDuplicateIdentifier, reg.Identifier, holder)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to check identifier: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.conn.ExecContext(ctx, `
		INSERT INTO registrations
			(path, identifier, source_url, clone_path, source_marks, aggregate_marks, workspace_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reg.Path, reg.Identifier, reg.SourceURL, reg.ClonePath,
		reg.SourceMarks, reg.AggregateMarks, reg.WorkspacePath,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert registration: %w", err)
	}
	return nil
}

// Get returns the registration for a normalized subtree path.
func (r *Registry) Get(ctx context.Context, path string) (*Registration, error) {
	row := r.conn.QueryRowContext(ctx, `
		SELECT path, identifier, source_url, clone_path, source_marks, aggregate_marks, workspace_path, created_at, updated_at
		FROM registrations WHERE path = ?`, path)

	reg, err := scanRegistration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registration: %w", err)
	}
	return reg, nil
}

// Exists reports whether a subtree path is registered.
func (r *Registry) Exists(ctx context.Context, path string) (bool, error) {
	var one int
	err := r.conn.QueryRowContext(ctx,
		`SELECT 1 FROM registrations WHERE path = ?`, path).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check registration: %w", err)
	}
	return true, nil
}

// List returns all registrations ordered by path.
func (r *Registry) List(ctx context.Context) ([]Registration, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT path, identifier, source_url, clone_path, source_marks, aggregate_marks, workspace_path, created_at, updated_at
		FROM registrations ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var regs []Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate registrations: %w", err)
	}
	return regs, nil
}

// SetWorkspace backfills or updates the workspace location of an
// existing registration and bumps its updated_at timestamp.
func (r *Registry) SetWorkspace(ctx context.Context, path, workspace string) error {
	res, err := r.conn.ExecContext(ctx, `
		UPDATE registrations SET workspace_path = ?, updated_at = ? WHERE path = ?`,
		workspace, time.Now().UTC().Format(time.RFC3339), path)
	if err != nil {
		return fmt.Errorf("failed to update workspace path: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotRegistered, path)
	}
	return nil
}

// Touch bumps a registration's updated_at timestamp after a sync.
func (r *Registry) Touch(ctx context.Context, path string) error {
	_, err := r.conn.ExecContext(ctx, `
		UPDATE registrations SET updated_at = ? WHERE path = ?`,
		time.Now().UTC().Format(time.RFC3339), path)
	if err != nil {
		return fmt.Errorf("failed to touch registration: %w", err)
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for scanRegistration.
type scanner interface {
	Scan(dest ...any) error
}

func scanRegistration(s scanner) (*Registration, error) {
	var reg Registration
	var created, updated string
	if err := s.Scan(&reg.Path, &reg.Identifier, &reg.SourceURL, &reg.ClonePath,
		&reg.SourceMarks, &reg.AggregateMarks, &reg.WorkspacePath, &created, &updated); err != nil {
		return nil, err
	}
	reg.CreatedAt, _ = time.Parse(time.RFC3339, created)
	reg.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &reg, nil
}
