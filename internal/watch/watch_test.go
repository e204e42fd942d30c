package watch

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, dir string, batches chan []string) *Watcher {
	t.Helper()

	w, err := New(Config{
		Dir:              dir,
		DebounceInterval: 50 * time.Millisecond,
		OnBatch: func(ctx context.Context, paths []string) {
			batches <- paths
		},
		Logger: log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func waitBatch(t *testing.T, batches chan []string) []string {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for batch")
		return nil
	}
}

func TestBatchesChanges(t *testing.T) {
	dir := t.TempDir()
	batches := make(chan []string, 4)
	startWatcher(t, dir, batches)

	target := filepath.Join(dir, "file.txt")
	// Several rapid writes to the same file collapse to one entry.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(target, []byte("v\n"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	batch := waitBatch(t, batches)
	count := 0
	for _, p := range batch {
		if p == target {
			count++
		}
	}
	if count != 1 {
		t.Errorf("batch = %v, want exactly one entry for %s", batch, target)
	}
}

func TestNewSubdirectoryIsWatched(t *testing.T) {
	dir := t.TempDir()
	batches := make(chan []string, 4)
	startWatcher(t, dir, batches)

	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0750); err != nil {
		t.Fatal(err)
	}
	waitBatch(t, batches) // the mkdir itself

	inner := filepath.Join(sub, "deep.txt")
	if err := os.WriteFile(inner, []byte("x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	found := false
	deadline := time.After(5 * time.Second)
	for !found {
		select {
		case batch := <-batches:
			for _, p := range batch {
				if p == inner {
					found = true
				}
			}
		case <-deadline:
			t.Fatal("change in new subdirectory never reported")
		}
	}
}

func TestIgnoredPaths(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/ws/libs/foo/file.go", false},
		{"/ws/.git/index", true},
		{"/ws/libs/.git/config", true},
		{"/ws/.fit/registry.db", true},
		{"/ws/_FOSSIL_", true},
		{"/ws/notes.txt~", true},
		{"/ws/.file.swp", true},
	}
	for _, tt := range tests {
		if got := ignored(tt.path); got != tt.want {
			t.Errorf("ignored(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Config{
		Dir:     dir,
		OnBatch: func(context.Context, []string) {},
		Logger:  log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	if _, err := New(Config{Dir: ".", Logger: log.Default()}); err == nil {
		t.Error("expected error without OnBatch")
	}
	if _, err := New(Config{Dir: ".", OnBatch: func(context.Context, []string) {}}); err == nil {
		t.Error("expected error without Logger")
	}
}
