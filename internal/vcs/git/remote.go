package git

import (
	"context"
	"fmt"

	"github.com/fitrepo/fit/internal/vcs"
)

// PushAll force-pushes every branch and tag to a remote. Used by the
// reverse sync after a fast-import: the imported refs replace whatever
// the source currently holds. The aggregate is authoritative for
// commits that flowed through it.
func (r *Repo) PushAll(ctx context.Context, remote string) error {
	if remote == "" {
		remote = "origin"
	}

	if _, err := vcs.Run(ctx, 0, r.dir, "git", "push", "-f", remote, "--all"); err != nil {
		return fmt.Errorf("failed to push branches to %s: %w", remote, err)
	}
	if _, err := vcs.Run(ctx, 0, r.dir, "git", "push", "-f", remote, "--tags"); err != nil {
		return fmt.Errorf("failed to push tags to %s: %w", remote, err)
	}
	return nil
}

// RemoteURL returns the fetch URL of a remote, or empty when unset.
func (r *Repo) RemoteURL(ctx context.Context, remote string) string {
	if remote == "" {
		remote = "origin"
	}
	return r.ConfigGet(ctx, "remote."+remote+".url")
}
