package vcs

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"
)

func TestParseBranchList(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    []BranchInfo
		current string
	}{
		{
			name:   "empty",
			output: "",
			want:   nil,
		},
		{
			name:   "git style",
			output: "  dev\n* main\n  release/1.0\n",
			want: []BranchInfo{
				{Name: "dev"},
				{Name: "main", Current: true},
				{Name: "release/1.0"},
			},
		},
		{
			name:   "fossil style",
			output: "* trunk\n  libs__foo/main\n  libs__foo/dev\n",
			want: []BranchInfo{
				{Name: "trunk", Current: true},
				{Name: "libs__foo/main"},
				{Name: "libs__foo/dev"},
			},
		},
		{
			name:   "blank lines skipped",
			output: "\n  main\n\n",
			want:   []BranchInfo{{Name: "main"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseBranchList([]byte(tt.output))
			if len(got) != len(tt.want) {
				t.Fatalf("got %d branches, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("branch %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestVersionAtLeast(t *testing.T) {
	tests := []struct {
		version string
		min     string
		want    bool
	}{
		{"2.39.0", "v2.25.0", true},
		{"2.25.0", "v2.25.0", true},
		{"2.24.1", "v2.25.0", false},
		{"2.12", "v2.12", true},
		{"2.11", "v2.12", false},
		{"2.39.0 (Apple Git-145)", "v2.25.0", true},
		// unparseable versions pass the gate
		{"experimental", "v2.25.0", true},
		{"", "v2.25.0", true},
	}

	for _, tt := range tests {
		if got := VersionAtLeast(tt.version, tt.min); got != tt.want {
			t.Errorf("VersionAtLeast(%q, %q) = %v, want %v", tt.version, tt.min, got, tt.want)
		}
	}
}

func TestLines(t *testing.T) {
	got := Lines([]byte("  a \n\nb\n \n"))
	want := []string{"a", "b"}
	if len(got) != len(want) {
		t.Fatalf("Lines = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}

	if FirstLine([]byte("\n  first\nsecond\n")) != "first" {
		t.Error("FirstLine did not skip leading blank line")
	}
	if FirstLine(nil) != "" {
		t.Error("FirstLine(nil) should be empty")
	}
}

func TestRunCapturesStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	_, err := Run(context.Background(), DefaultTimeout, "", "sh", "-c", "echo broken >&2; exit 7")
	if err == nil {
		t.Fatal("expected failure")
	}
	if !errors.Is(err, ErrToolFailed) {
		t.Errorf("error does not wrap ErrToolFailed: %v", err)
	}

	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error is not a ToolError: %v", err)
	}
	if toolErr.Stderr != "broken" {
		t.Errorf("Stderr = %q, want %q", toolErr.Stderr, "broken")
	}
	if ExitCode(err) != 7 {
		t.Errorf("ExitCode = %d, want 7", ExitCode(err))
	}
}

func TestRunTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	_, err := Run(context.Background(), 50*time.Millisecond, "", "sh", "-c", "sleep 5")
	if err == nil {
		t.Fatal("expected timeout failure")
	}
}

func TestRunQuiet(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	if !RunQuiet(context.Background(), "", "sh", "-c", "exit 0") {
		t.Error("RunQuiet should report success for exit 0")
	}
	if RunQuiet(context.Background(), "", "sh", "-c", "exit 1") {
		t.Error("RunQuiet should report failure for exit 1")
	}
}
