package fossil

import (
	"context"
	"fmt"
	"strings"

	"github.com/fitrepo/fit/internal/vcs"
)

// ListBranches returns all branches in the repository. Works without an
// open checkout: the repository file is addressed directly.
func (r *Repo) ListBranches(ctx context.Context) ([]vcs.BranchInfo, error) {
	out, err := vcs.Run(ctx, vcs.DefaultTimeout, "", "fossil", "branch", "list", "-R", r.file)
	if err != nil {
		return nil, fmt.Errorf("failed to list fossil branches: %w", err)
	}
	return vcs.ParseBranchList(out), nil
}

// BranchesWithPrefix returns the branch names carrying the given
// namespace prefix, in the order fossil reports them.
func (r *Repo) BranchesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	branches, err := r.ListBranches(ctx)
	if err != nil {
		return nil, err
	}

	var matches []string
	for _, b := range branches {
		if strings.HasPrefix(b.Name, prefix+"/") {
			matches = append(matches, b.Name)
		}
	}
	return matches, nil
}
