package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fitrepo/fit/internal/vcs"
)

// CloneFresh removes any existing directory at dest and clones url into
// it. --no-local forces a real object transfer even for filesystem
// sources, so the clone never shares storage with the original and the
// rewrite that follows cannot corrupt it.
//
// Every sync cycle starts here: the subdirectory filter is only safe
// against pristine history, so fit never rewrites a clone in place.
func CloneFresh(ctx context.Context, url, dest string) (*Repo, error) {
	if err := os.RemoveAll(dest); err != nil {
		return nil, fmt.Errorf("failed to remove stale clone %s: %w", dest, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return nil, fmt.Errorf("failed to create clone parent directory: %w", err)
	}

	// No timeout: clone duration scales with history size.
	if _, err := vcs.Run(ctx, 0, "", "git", "clone", "--no-local", url, dest); err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", url, err)
	}

	return New(dest), nil
}

// IsRepo reports whether dir holds a git repository.
func IsRepo(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && (info.IsDir() || info.Mode().IsRegular())
}
