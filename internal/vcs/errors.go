package vcs

import (
	"errors"
	"fmt"
	"os/exec"
)

// Common errors returned by store operations.
//
// These can be checked with errors.Is():
//
//	if errors.Is(err, vcs.ErrToolNotAvailable) {
//	    // git, fossil, or git-filter-repo is not installed
//	}
var (
	// ErrToolNotAvailable is returned when a required binary (git,
	// fossil, or git-filter-repo) is not installed or not in PATH.
	ErrToolNotAvailable = errors.New("required tool not available")

	// ErrToolFailed is returned when a store subprocess exits non-zero.
	// The wrapping error carries the command, exit code, and stderr.
	ErrToolFailed = errors.New("external tool failed")

	// ErrNotARepository is returned when an operation expects a store
	// checkout or repository at a path where none exists.
	ErrNotARepository = errors.New("not a repository")

	// ErrBranchNotFound is returned when a named branch does not exist.
	ErrBranchNotFound = errors.New("branch not found")
)

// ToolError wraps a subprocess failure with enough context to diagnose
// it: the command line, the exit code, and captured stderr. It matches
// ErrToolFailed under errors.Is.
type ToolError struct {
	// Tool is the binary name (git, fossil, git-filter-repo).
	Tool string

	// Args are the arguments the tool was invoked with.
	Args []string

	// ExitCode is the subprocess exit code, or -1 if it did not run.
	ExitCode int

	// Stderr is the captured error output, trimmed.
	Stderr string

	// Err is the underlying exec error.
	Err error
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s %v failed (exit %d): %s", e.Tool, e.Args, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s %v failed (exit %d): %v", e.Tool, e.Args, e.ExitCode, e.Err)
}

// Unwrap makes the error match ErrToolFailed and the underlying exec
// error under errors.Is/errors.As.
func (e *ToolError) Unwrap() []error {
	return []error{ErrToolFailed, e.Err}
}

// NewToolError builds a ToolError from a failed command invocation.
func NewToolError(tool string, args []string, stderr string, err error) *ToolError {
	return &ToolError{
		Tool:     tool,
		Args:     args,
		ExitCode: ExitCode(err),
		Stderr:   stderr,
		Err:      err,
	}
}

// ExitCode extracts the exit code from a command error, or -1 when the
// process never ran (binary missing, context canceled).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
