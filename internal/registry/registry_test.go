package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := Open(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

func sample(path, ident string) Registration {
	return Registration{
		Path:           path,
		Identifier:     ident,
		SourceURL:      "https://example.com/" + ident + ".git",
		ClonePath:      "/work/.fit/clones/" + ident,
		SourceMarks:    "/work/.fit/marks/" + ident + "_git.marks",
		AggregateMarks: "/work/.fit/marks/" + ident + "_fossil.marks",
	}
}

func TestPutAndGet(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	want := sample("libs/foo", "libs__foo")
	if err := reg.Put(ctx, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := reg.Get(ctx, "libs/foo")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SourceURL != want.SourceURL {
		t.Errorf("SourceURL = %q, want %q", got.SourceURL, want.SourceURL)
	}
	if got.Identifier != "libs__foo" {
		t.Errorf("Identifier = %q", got.Identifier)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not recorded")
	}
	if got.WorkspacePath != "" {
		t.Errorf("WorkspacePath should start empty, got %q", got.WorkspacePath)
	}
}

func TestGetUnregistered(t *testing.T) {
	reg := openTestRegistry(t)

	_, err := reg.Get(context.Background(), "no/such")
	if !errors.Is(err, ErrNotRegistered) {
		t.Errorf("expected ErrNotRegistered, got %v", err)
	}
}

func TestDuplicatePath(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	if err := reg.Put(ctx, sample("libs/foo", "libs__foo")); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	err := reg.Put(ctx, sample("libs/foo", "libs__foo"))
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestDuplicateIdentifierIsFatal(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	if err := reg.Put(ctx, sample("libs/foo", "shared")); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	err := reg.Put(ctx, sample("other/tree", "shared"))
	if !errors.Is(err, ErrDuplicateIdentifier) {
		t.Errorf("expected ErrDuplicateIdentifier, got %v", err)
	}
}

func TestSetWorkspaceBackfill(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	if err := reg.Put(ctx, sample("libs/foo", "libs__foo")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := reg.SetWorkspace(ctx, "libs/foo", "/work/libs/foo"); err != nil {
		t.Fatalf("SetWorkspace: %v", err)
	}

	got, err := reg.Get(ctx, "libs/foo")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.WorkspacePath != "/work/libs/foo" {
		t.Errorf("WorkspacePath = %q", got.WorkspacePath)
	}

	if err := reg.SetWorkspace(ctx, "no/such", "/x"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("expected ErrNotRegistered, got %v", err)
	}
}

func TestListOrdered(t *testing.T) {
	reg := openTestRegistry(t)
	ctx := context.Background()

	for _, p := range []struct{ path, ident string }{
		{"zeta", "zeta"},
		{"alpha/one", "alpha__one"},
		{"mid", "mid"},
	} {
		if err := reg.Put(ctx, sample(p.path, p.ident)); err != nil {
			t.Fatalf("Put %s: %v", p.path, err)
		}
	}

	regs, err := reg.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(regs) != 3 {
		t.Fatalf("expected 3 registrations, got %d", len(regs))
	}
	want := []string{"alpha/one", "mid", "zeta"}
	for i, w := range want {
		if regs[i].Path != w {
			t.Errorf("List[%d] = %q, want %q", i, regs[i].Path, w)
		}
	}
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "registry.db")
	ctx := context.Background()

	reg, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := reg.Put(ctx, sample("libs/foo", "libs__foo")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := reg.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reg2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reg2.Close()

	if _, err := reg2.Get(ctx, "libs/foo"); err != nil {
		t.Errorf("Get after reopen: %v", err)
	}
}
