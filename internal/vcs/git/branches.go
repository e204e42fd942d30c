package git

import (
	"context"
	"fmt"

	"github.com/fitrepo/fit/internal/vcs"
)

// ListBranches returns all local branches in the clone.
func (r *Repo) ListBranches(ctx context.Context) ([]vcs.BranchInfo, error) {
	out, err := r.run(ctx, "branch", "--list")
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	return vcs.ParseBranchList(out), nil
}

// BranchExists reports whether a local branch exists.
func (r *Repo) BranchExists(ctx context.Context, name string) bool {
	return vcs.RunQuiet(ctx, r.dir, "git", "show-ref", "--verify", "--quiet", "refs/heads/"+name)
}

// RenameBranch renames a local branch.
func (r *Repo) RenameBranch(ctx context.Context, from, to string) error {
	if _, err := r.run(ctx, "branch", "-m", from, to); err != nil {
		return fmt.Errorf("failed to rename branch %s to %s: %w", from, to, err)
	}
	return nil
}

// DeleteBranch removes a local branch regardless of merge state.
func (r *Repo) DeleteBranch(ctx context.Context, name string) error {
	if _, err := r.run(ctx, "branch", "-D", name); err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", name, err)
	}
	return nil
}

// ForceCheckout checks out a branch, discarding local modifications.
// Used after a fast-import so the working tree matches the imported
// refs before pushing.
func (r *Repo) ForceCheckout(ctx context.Context, branch string) error {
	if _, err := r.run(ctx, "checkout", "-f", branch); err != nil {
		return fmt.Errorf("%w: %s", vcs.ErrBranchNotFound, branch)
	}
	return nil
}
