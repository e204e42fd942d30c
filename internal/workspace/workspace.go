// Package workspace materializes the isolated working-directory view of
// a registered subtree.
//
// The workspace directory looks like a standalone checkout of the
// subtree but is backed by the full source clone: a .git pointer file
// redirects its metadata to the clone, core.worktree aims the clone's
// working tree at the workspace, and a sparse-checkout filter scoped to
// the subtree hides everything else from status and diff tooling.
//
// The configuration is reapplied on every update cycle, because the
// sync engine discards and re-clones the backing repository each time.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fitrepo/fit/internal/vcs"
)

// ErrInconsistentIndex is returned by Verify when the workspace's
// status view disagrees with the sparse filter (in-filter files shown
// as untracked). Recoverable: run Repair.
var ErrInconsistentIndex = errors.New("workspace index inconsistent with sparse filter")

// Materialize wires targetDir up as the isolated view of subtree,
// backed by the clone at clonePath. Safe to call repeatedly; each call
// rewrites the pointer file and filter from scratch.
func Materialize(ctx context.Context, clonePath, targetDir, subtree string) error {
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	gitDir := filepath.Join(clonePath, ".git")

	// Metadata pointer: the workspace's .git is a file referring to the
	// clone's real metadata directory.
	relGitDir, err := filepath.Rel(targetDir, gitDir)
	if err != nil {
		return fmt.Errorf("failed to relate workspace to clone: %w", err)
	}
	pointer := fmt.Sprintf("gitdir: %s\n", relGitDir)
	if err := os.WriteFile(filepath.Join(targetDir, ".git"), []byte(pointer), 0644); err != nil {
		return fmt.Errorf("failed to write gitdir pointer: %w", err)
	}

	// Working-tree root: the clone's tree is the workspace directory.
	relWorktree, err := filepath.Rel(gitDir, targetDir)
	if err != nil {
		return fmt.Errorf("failed to relate clone to workspace: %w", err)
	}
	if _, err := vcs.Run(ctx, vcs.DefaultTimeout, clonePath, "git", "config", "core.worktree", relWorktree); err != nil {
		return fmt.Errorf("failed to set core.worktree: %w", err)
	}

	// Path-inclusion filter scoped to the subtree.
	if _, err := vcs.Run(ctx, vcs.DefaultTimeout, clonePath, "git", "config", "core.sparseCheckout", "true"); err != nil {
		return fmt.Errorf("failed to enable sparse checkout: %w", err)
	}
	if err := writeSparseFilter(gitDir, subtree+"/*\n"); err != nil {
		return err
	}

	// Files outside the filter must not show up as untracked noise.
	if _, err := vcs.Run(ctx, vcs.DefaultTimeout, clonePath, "git", "config", "status.showUntrackedFiles", "no"); err != nil {
		return fmt.Errorf("failed to suppress untracked reporting: %w", err)
	}

	return nil
}

// writeSparseFilter writes the sparse-checkout pattern file.
func writeSparseFilter(gitDir, patterns string) error {
	infoDir := filepath.Join(gitDir, "info")
	if err := os.MkdirAll(infoDir, 0750); err != nil {
		return fmt.Errorf("failed to create info directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(infoDir, "sparse-checkout"), []byte(patterns), 0644); err != nil {
		return fmt.Errorf("failed to write sparse-checkout filter: %w", err)
	}
	return nil
}

// GitDir resolves the real metadata directory behind a workspace,
// following the .git pointer file. A missing pointer means the
// workspace was never materialized.
func GitDir(targetDir string) (string, error) {
	pointer := filepath.Join(targetDir, ".git")
	info, err := os.Stat(pointer)
	if err != nil {
		return "", fmt.Errorf("no workspace at %s: %w", targetDir, err)
	}
	if info.IsDir() {
		return pointer, nil
	}

	data, err := os.ReadFile(pointer)
	if err != nil {
		return "", fmt.Errorf("failed to read gitdir pointer: %w", err)
	}
	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, "gitdir: ") {
		return "", fmt.Errorf("malformed gitdir pointer in %s", pointer)
	}
	dir := strings.TrimPrefix(line, "gitdir: ")
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(targetDir, dir)
	}
	return filepath.Clean(dir), nil
}

// Verify checks workspace health. A tracked file inside the filter that
// git reports as untracked means the index went inconsistent, which
// surfaces as ErrInconsistentIndex.
func Verify(ctx context.Context, targetDir string) error {
	if _, err := GitDir(targetDir); err != nil {
		return err
	}

	out, err := vcs.Run(ctx, vcs.DefaultTimeout, targetDir, "git", "status", "--porcelain")
	if err != nil {
		return fmt.Errorf("failed to read workspace status: %w", err)
	}
	for _, line := range vcs.Lines(out) {
		if strings.HasPrefix(line, "??") {
			return fmt.Errorf("%w: %s", ErrInconsistentIndex, strings.TrimSpace(strings.TrimPrefix(line, "??")))
		}
	}
	return nil
}

// Repair recovers a workspace whose index went inconsistent with the
// sparse filter (in-filter files reported untracked, typically after
// force-adds interacted with the filter). The procedure: widen the
// filter to everything, force-add, unstage, then restore the filter.
// Idempotent and safe to run repeatedly.
func Repair(ctx context.Context, targetDir string) error {
	gitDir, err := GitDir(targetDir)
	if err != nil {
		return err
	}

	// Widen the filter, remembering the real one.
	sparseFile := filepath.Join(gitDir, "info", "sparse-checkout")
	backup, backupErr := os.ReadFile(sparseFile)
	if err := writeSparseFilter(gitDir, "/*\n"); err != nil {
		return err
	}

	run := func(args ...string) error {
		_, err := vcs.Run(ctx, vcs.DefaultTimeout, targetDir, "git", args...)
		return err
	}

	if err := run("config", "core.sparseCheckout", "false"); err != nil {
		return fmt.Errorf("failed to disable sparse checkout: %w", err)
	}
	if err := run("config", "advice.updateSparsePath", "false"); err != nil {
		return fmt.Errorf("failed to silence sparse advice: %w", err)
	}

	// Force-add everything, then unstage. Individual add failures are
	// tolerated; the reset and filter restore still leave a usable
	// state, and a re-run can finish the job.
	_ = run("add", "-A", "--force")
	if err := run("reset"); err != nil {
		return fmt.Errorf("failed to unstage after force-add: %w", err)
	}

	// Restore the scoped filter.
	if backupErr == nil {
		if err := os.WriteFile(sparseFile, backup, 0644); err != nil {
			return fmt.Errorf("failed to restore sparse filter: %w", err)
		}
	}
	if err := run("config", "core.sparseCheckout", "true"); err != nil {
		return fmt.Errorf("failed to re-enable sparse checkout: %w", err)
	}
	if err := run("config", "status.showUntrackedFiles", "no"); err != nil {
		return fmt.Errorf("failed to suppress untracked reporting: %w", err)
	}

	return nil
}
