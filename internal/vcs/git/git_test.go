package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fitrepo/fit/internal/vcs"
)

func requireGit(t *testing.T) {
	t.Helper()
	if !vcs.IsGitAvailable() {
		t.Skip("git not available")
	}
}

// seedRepo creates a repo with one commit on main and returns it.
func seedRepo(t *testing.T) *Repo {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()

	run := func(args ...string) {
		if _, err := vcs.Run(ctx, 0, dir, "git", args...); err != nil {
			t.Fatalf("git %v: %v", args, err)
		}
	}
	run("init")
	run("symbolic-ref", "HEAD", "refs/heads/main")
	run("config", "user.name", "Tester")
	run("config", "user.email", "tester@example.com")

	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a\n"), 0644); err != nil {
		t.Fatal(err)
	}
	run("add", ".")
	run("commit", "-m", "seed")

	return New(dir)
}

func TestCloneFresh(t *testing.T) {
	requireGit(t)
	ctx := context.Background()

	src := seedRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")

	clone, err := CloneFresh(ctx, src.Dir(), dest)
	if err != nil {
		t.Fatalf("CloneFresh: %v", err)
	}
	if !IsRepo(clone.Dir()) {
		t.Error("clone is not a repository")
	}

	// A pre-existing destination is discarded, not reused. Plant a
	// marker file and confirm it is gone after the re-clone.
	marker := filepath.Join(dest, "stale.txt")
	if err := os.WriteFile(marker, []byte("stale\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := CloneFresh(ctx, src.Dir(), dest); err != nil {
		t.Fatalf("second CloneFresh: %v", err)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("stale destination content survived re-clone")
	}
}

func TestBranchOperations(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	r := seedRepo(t)

	run := func(args ...string) {
		if _, err := r.run(ctx, args...); err != nil {
			t.Fatalf("git %v: %v", args, err)
		}
	}
	run("branch", "dev")

	branches, err := r.ListBranches(ctx)
	if err != nil {
		t.Fatalf("ListBranches: %v", err)
	}
	if len(branches) != 2 {
		t.Fatalf("ListBranches = %v", branches)
	}

	if !r.BranchExists(ctx, "dev") {
		t.Error("BranchExists(dev) = false")
	}
	if r.BranchExists(ctx, "ghost") {
		t.Error("BranchExists(ghost) = true")
	}

	if err := r.RenameBranch(ctx, "dev", "feature/dev"); err != nil {
		t.Fatalf("RenameBranch: %v", err)
	}
	if !r.BranchExists(ctx, "feature/dev") {
		t.Error("renamed branch missing")
	}

	if err := r.DeleteBranch(ctx, "feature/dev"); err != nil {
		t.Fatalf("DeleteBranch: %v", err)
	}
	if r.BranchExists(ctx, "feature/dev") {
		t.Error("deleted branch still present")
	}

	if err := r.ForceCheckout(ctx, "no-such-branch"); !errors.Is(err, vcs.ErrBranchNotFound) {
		t.Errorf("ForceCheckout missing branch = %v, want ErrBranchNotFound", err)
	}
}

func TestNamespaceBranches(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	r := seedRepo(t)

	run := func(args ...string) {
		if _, err := r.run(ctx, args...); err != nil {
			t.Fatalf("git %v: %v", args, err)
		}
	}
	run("branch", "dev")
	// Pre-existing prefixed branch forces the collision path for main.
	run("branch", "libs__foo/main")

	res, err := r.NamespaceBranches(ctx, "libs__foo")
	if err != nil {
		t.Fatalf("NamespaceBranches: %v", err)
	}

	if len(res.Renamed) != 1 || res.Renamed[0] != "dev" {
		t.Errorf("Renamed = %v, want [dev]", res.Renamed)
	}
	if len(res.Discarded) != 1 || res.Discarded[0] != "main" {
		t.Errorf("Discarded = %v, want [main]", res.Discarded)
	}
	if len(res.Failed) != 0 {
		t.Errorf("Failed = %v", res.Failed)
	}

	branches, err := r.ListBranches(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, b := range branches {
		names = append(names, b.Name)
	}
	for _, n := range names {
		if !strings.HasPrefix(n, "libs__foo/") {
			t.Errorf("unprefixed branch survived: %s (all: %v)", n, names)
		}
	}
	if len(names) != 2 {
		t.Errorf("branches after namespacing = %v", names)
	}
}

func TestNamespaceBranchesIdempotent(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	r := seedRepo(t)

	if _, err := r.NamespaceBranches(ctx, "libs__foo"); err != nil {
		t.Fatal(err)
	}
	res, err := r.NamespaceBranches(ctx, "libs__foo")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Renamed) != 0 || len(res.Discarded) != 0 {
		t.Errorf("second pass touched branches: %+v", res)
	}

	branches, err := r.ListBranches(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range branches {
		if strings.HasPrefix(b.Name, "libs__foo/libs__foo/") {
			t.Errorf("doubly-prefixed branch %s", b.Name)
		}
	}
}

func TestExportCommandMarksGating(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)

	existing := filepath.Join(dir, "have.marks")
	if err := os.WriteFile(existing, []byte(":1 abc\n"), 0644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "none.marks")
	out := filepath.Join(dir, "out.marks")

	cmd, _ := r.ExportCommand(vcs.MarkOptions{ImportMarks: existing, ExportMarks: out})
	joined := strings.Join(cmd.Args, " ")
	if !strings.Contains(joined, "--import-marks "+existing) {
		t.Errorf("existing marks file not passed: %v", cmd.Args)
	}
	if !strings.Contains(joined, "--export-marks "+out) {
		t.Errorf("export marks not passed: %v", cmd.Args)
	}
	if cmd.Dir != dir {
		t.Errorf("cmd.Dir = %q", cmd.Dir)
	}

	// First run: no marks file yet, so no --import-marks flag.
	cmd, _ = r.ExportCommand(vcs.MarkOptions{ImportMarks: missing, ExportMarks: out})
	if strings.Contains(strings.Join(cmd.Args, " "), "--import-marks") {
		t.Errorf("missing marks file should be omitted: %v", cmd.Args)
	}
}

func TestImportCommandForcesRefUpdates(t *testing.T) {
	r := New(t.TempDir())
	cmd, _ := r.ImportCommand(vcs.MarkOptions{ExportMarks: filepath.Join(r.Dir(), "out.marks")})

	joined := strings.Join(cmd.Args, " ")
	if !strings.Contains(joined, "fast-import --force") {
		t.Errorf("expected forced fast-import: %v", cmd.Args)
	}
}
