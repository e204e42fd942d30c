// Package git drives the source-side Git repositories fit synchronizes
// from. Each registered subtree owns one clone directory; every sync
// cycle throws the clone away and re-fetches it pristine, because the
// history rewrite applied afterwards is not idempotent against already
// rewritten content.
package git

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fitrepo/fit/internal/vcs"
)

// Repo is a handle on one Git clone. The zero value is not usable;
// create handles with New or Clone.
type Repo struct {
	// dir is the working-tree root of the clone.
	dir string
}

// New returns a handle for an existing clone directory. No validation
// happens here; operations fail with ErrNotARepository when the
// directory holds no repository.
func New(dir string) *Repo {
	return &Repo{dir: dir}
}

// Dir returns the clone's working-tree root.
func (r *Repo) Dir() string {
	return r.dir
}

// GitDir returns the metadata directory of the clone.
func (r *Repo) GitDir() string {
	return filepath.Join(r.dir, ".git")
}

// run executes git inside the clone.
func (r *Repo) run(ctx context.Context, args ...string) ([]byte, error) {
	return vcs.Run(ctx, vcs.DefaultTimeout, r.dir, "git", args...)
}

// Config sets a repository-local configuration value.
func (r *Repo) Config(ctx context.Context, key, value string) error {
	_, err := r.run(ctx, "config", key, value)
	return err
}

// ConfigGet reads a repository-local configuration value. Returns an
// empty string when the key is unset.
func (r *Repo) ConfigGet(ctx context.Context, key string) string {
	out, err := r.run(ctx, "config", "--get", key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// Version returns the git binary version string.
func Version(ctx context.Context) (string, error) {
	return vcs.GitVersion(ctx)
}
