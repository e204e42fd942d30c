// Package vcs provides the process boundary between fit and the two
// version-control stores it drives: Git (the per-subtree source) and
// Fossil (the shared aggregate).
//
// Both stores are treated as opaque commit-graph engines reached through
// their command-line binaries. This package holds the pieces common to
// both implementations:
//   - command execution with explicit working directories (no operation
//     depends on the ambient process directory)
//   - output parsing helpers
//   - binary availability and minimum-version checks
//   - the sentinel errors shared by the subpackages
//
// The implementations live in internal/vcs/git and internal/vcs/fossil.
//
// # Streaming contract
//
// Export and import are expressed as unstarted *exec.Cmd values built by
// ExportCommand/ImportCommand on each side. The sync engine connects the
// producer's stdout to the consumer's stdin directly, so memory stays
// bounded regardless of history size. MarkOptions carries the mark-file
// pair for one direction: ImportMarks is only passed to the tool when the
// file already exists (the first transfer is always full), ExportMarks is
// always written so the next run resumes from this one.
package vcs

import "time"

// Type identifies a store backend.
type Type string

const (
	// TypeGit is the source-side store.
	TypeGit Type = "git"

	// TypeFossil is the aggregate-side store.
	TypeFossil Type = "fossil"
)

// String returns the string representation of the store type.
func (t Type) String() string {
	return string(t)
}

// MarkOptions parameterizes a streaming export or import with the marks
// facility of the underlying tool. Both fields are absolute paths.
type MarkOptions struct {
	// ImportMarks is the marks file from previous runs. Implementations
	// pass it to the tool only when the file exists; an absent file means
	// a full (from-scratch) transfer.
	ImportMarks string

	// ExportMarks is where the tool writes the updated marks table.
	// Required: without it the next run cannot resume.
	ExportMarks string
}

// BranchInfo describes a branch in either store.
type BranchInfo struct {
	// Name is the branch name without any ref prefix.
	Name string

	// Current is true for the checked-out branch.
	Current bool
}

// DefaultTimeout bounds individual non-streaming store commands.
// Streaming transfers and clones are not subject to it; the caller may
// impose an external deadline through the context.
const DefaultTimeout = 30 * time.Second
