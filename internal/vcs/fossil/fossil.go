// Package fossil drives the aggregate-side Fossil repository. One
// Fossil repository file holds the merged histories of every registered
// subtree; branch names carry the subtree's namespace prefix so the
// sources never collide.
//
// Fossil separates the repository file from checkouts, which fit uses
// directly: streaming imports address the repository file, while
// exports run from a disposable checkout opened in a temporary
// directory and updated to the branch being exported.
package fossil

import (
	"context"
	"fmt"

	"github.com/fitrepo/fit/internal/vcs"
)

// Repo is a handle on a Fossil repository file.
type Repo struct {
	// file is the absolute path of the repository file.
	file string
}

// New returns a handle for a repository file. The file need not exist
// yet; Init creates it.
func New(file string) *Repo {
	return &Repo{file: file}
}

// File returns the repository file path.
func (r *Repo) File() string {
	return r.file
}

// Init creates the repository file. Fails if fossil cannot create it;
// calling Init on an existing file is an error surfaced by fossil
// itself.
func (r *Repo) Init(ctx context.Context, extraArgs ...string) error {
	args := append([]string{"init"}, extraArgs...)
	args = append(args, r.file)
	if _, err := vcs.Run(ctx, vcs.DefaultTimeout, "", "fossil", args...); err != nil {
		return fmt.Errorf("failed to init fossil repository %s: %w", r.file, err)
	}
	return nil
}

// Version returns the fossil binary version string.
func Version(ctx context.Context) (string, error) {
	return vcs.FossilVersion(ctx)
}
