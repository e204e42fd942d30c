package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/fitrepo/fit/internal/vcs"
)

// Relocate rewrites every commit in the clone so all paths live under
// subtree, preserving graph structure and authorship. The heavy lifting
// is delegated to git-filter-repo, which is treated as a correct
// external rewriter.
//
// force relaxes filter-repo's freshness checks. It is required on
// update cycles, where the clone was just re-fetched but filter-repo
// cannot tell it apart from previously-rewritten history.
//
// Relocate must only ever run against a pristine clone: applying the
// subdirectory filter to content already under subtree double-nests it.
func (r *Repo) Relocate(ctx context.Context, subtree string, force bool) error {
	args := []string{"--to-subdirectory-filter", subtree}
	if force {
		args = append(args, "--force")
	}

	// No timeout: rewrite duration scales with history size.
	if _, err := vcs.Run(ctx, 0, r.dir, "git-filter-repo", args...); err != nil {
		return fmt.Errorf("failed to relocate history under %s: %w", subtree, err)
	}
	return nil
}

// NamespaceResult reports what NamespaceBranches did to each branch.
type NamespaceResult struct {
	// Renamed lists branches that received the prefix.
	Renamed []string

	// Discarded lists unprefixed branches deleted because the prefixed
	// name already existed (prior sync cycle holds equivalent content).
	Discarded []string

	// Failed lists branches whose rename failed. These keep their
	// unprefixed names; content export still proceeds, so this is
	// cosmetic rather than a correctness failure.
	Failed []string
}

// NamespaceBranches renames every local branch B not already starting
// with prefix+"/" to prefix+"/"+B.
//
// Collision policy: when prefix/B already exists in the freshly
// rewritten clone, the unprefixed B is deleted rather than renamed. The
// prefixed branch is assumed to hold the equivalent previously
// synchronized content, so last rewrite wins and no duplicate branch
// survives. Running the rewrite cycle twice therefore yields exactly
// one prefix/B, never prefix/prefix/B.
func (r *Repo) NamespaceBranches(ctx context.Context, prefix string) (*NamespaceResult, error) {
	branches, err := r.ListBranches(ctx)
	if err != nil {
		return nil, err
	}

	result := &NamespaceResult{}
	for _, b := range branches {
		if b.Name == "" || strings.HasPrefix(b.Name, prefix+"/") {
			continue
		}

		target := prefix + "/" + b.Name
		if r.BranchExists(ctx, target) {
			// git refuses to delete the checked-out branch; move HEAD to
			// the surviving prefixed branch first.
			if b.Current {
				if err := r.ForceCheckout(ctx, target); err != nil {
					result.Failed = append(result.Failed, b.Name)
					continue
				}
			}
			if err := r.DeleteBranch(ctx, b.Name); err != nil {
				result.Failed = append(result.Failed, b.Name)
				continue
			}
			result.Discarded = append(result.Discarded, b.Name)
			continue
		}

		if err := r.RenameBranch(ctx, b.Name, target); err != nil {
			result.Failed = append(result.Failed, b.Name)
			continue
		}
		result.Renamed = append(result.Renamed, b.Name)
	}

	return result, nil
}
