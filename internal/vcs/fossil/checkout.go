package fossil

import (
	"context"
	"fmt"

	"github.com/fitrepo/fit/internal/vcs"
)

// Checkout is an open working directory backed by a repository file.
type Checkout struct {
	repo *Repo

	// dir is the checkout root.
	dir string
}

// IsOpen reports whether dir is an open fossil checkout.
func IsOpen(ctx context.Context, dir string) bool {
	return vcs.RunQuiet(ctx, dir, "fossil", "status")
}

// Open opens the repository into dir and returns the checkout. If dir
// is already an open checkout of some repository, it is reused as-is.
func (r *Repo) Open(ctx context.Context, dir string, extraArgs ...string) (*Checkout, error) {
	if IsOpen(ctx, dir) {
		return &Checkout{repo: r, dir: dir}, nil
	}

	args := append([]string{"open"}, extraArgs...)
	args = append(args, r.file)
	if _, err := vcs.Run(ctx, vcs.DefaultTimeout, dir, "fossil", args...); err != nil {
		return nil, fmt.Errorf("failed to open fossil repository in %s: %w", dir, err)
	}
	return &Checkout{repo: r, dir: dir}, nil
}

// Dir returns the checkout root.
func (c *Checkout) Dir() string {
	return c.dir
}

// Update switches the checkout to the named branch.
func (c *Checkout) Update(ctx context.Context, branch string) error {
	if _, err := vcs.Run(ctx, vcs.DefaultTimeout, c.dir, "fossil", "update", branch); err != nil {
		return fmt.Errorf("%w: fossil branch %s", vcs.ErrBranchNotFound, branch)
	}
	return nil
}

// Close closes the checkout. Best effort: a checkout with uncommitted
// changes refuses to close, which is not worth failing a completed sync
// over.
func (c *Checkout) Close(ctx context.Context) {
	_ = vcs.RunQuiet(ctx, c.dir, "fossil", "close", "--force")
}
