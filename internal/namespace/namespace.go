// Package namespace maps logical subtree paths to the identifiers fit
// derives from them: the normalized path itself, the branch-name prefix
// used inside the aggregate Fossil repository, and the filesystem-safe
// identifier used to name clone directories and mark files.
//
// All functions here are pure; no I/O happens in this package.
//
// The delimiter used for both the branch prefix and the sanitized
// identifier is "__". Normalize rejects any path containing "__", which
// is what makes both mappings injective: no two distinct accepted paths
// can collapse to the same prefix or identifier.
package namespace

import (
	"errors"
	"fmt"
	"strings"
)

// Delimiter replaces path separators in branch prefixes and sanitized
// identifiers. Paths containing it are rejected by Normalize.
const Delimiter = "__"

// ErrInvalidPath is returned when a subtree path fails validation.
// Use errors.Is to detect it; the returned error carries the reason.
var ErrInvalidPath = errors.New("invalid subtree path")

// Normalize validates a logical subtree path and returns its canonical
// slash-separated form. It fails with ErrInvalidPath when the path:
//
//   - is empty
//   - begins or ends with a separator
//   - contains a hidden (dot-prefixed) component, "." or ".."
//   - contains characters illegal in git or fossil branch names
//     (<>:"|?*, backslash-escaped controls)
//   - contains the reserved delimiter "__"
//
// Backslashes are treated as separators before validation so Windows-style
// input normalizes the same way.
func Normalize(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	s := strings.ReplaceAll(p, `\`, "/")

	if strings.HasPrefix(s, "/") || strings.HasSuffix(s, "/") {
		return "", fmt.Errorf("%w: %q must not begin or end with '/'", ErrInvalidPath, p)
	}

	if strings.Contains(s, Delimiter) {
		return "", fmt.Errorf("%w: %q contains reserved delimiter %q", ErrInvalidPath, p, Delimiter)
	}

	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("%w: %q contains control characters", ErrInvalidPath, p)
		}
		if strings.ContainsRune(`<>:"|?*`, r) {
			return "", fmt.Errorf("%w: %q contains illegal character %q", ErrInvalidPath, p, r)
		}
	}

	// Components are checked before any cleaning: path.Clean would
	// resolve "." and ".." away and let a traversal slip through as a
	// different, silently accepted path.
	for _, part := range strings.Split(s, "/") {
		if part == "" {
			return "", fmt.Errorf("%w: %q contains an empty component", ErrInvalidPath, p)
		}
		if strings.HasPrefix(part, ".") {
			return "", fmt.Errorf("%w: %q contains hidden component %q", ErrInvalidPath, p, part)
		}
	}

	return s, nil
}

// BranchPrefix converts a normalized subtree path to the branch-name
// prefix used in the aggregate repository. "libs/foo" becomes "libs__foo";
// branches imported for that subtree are named "libs__foo/<branch>".
func BranchPrefix(norm string) string {
	return strings.ReplaceAll(norm, "/", Delimiter)
}

// PrefixToPath is the inverse of BranchPrefix.
func PrefixToPath(prefix string) string {
	return strings.ReplaceAll(prefix, Delimiter, "/")
}

// Sanitize converts a normalized subtree path to a filesystem-safe
// identifier used for clone directories and mark-file names. It uses the
// same delimiter as BranchPrefix, so it is injective over all paths
// Normalize accepts.
func Sanitize(norm string) string {
	return strings.ReplaceAll(norm, "/", Delimiter)
}

// ValidateSourceURL checks a Git source locator. URLs with a recognized
// scheme are accepted as-is; anything else is assumed to be a local path
// and accepted (existence is checked by the clone step, which owns the
// authoritative failure). Only an empty locator is rejected here.
func ValidateSourceURL(url string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("%w: source URL is empty", ErrInvalidPath)
	}
	return nil
}

// HasScheme reports whether the locator looks like a remote URL rather
// than a local path.
func HasScheme(url string) bool {
	for _, scheme := range []string{"http://", "https://", "git://", "ssh://", "git@"} {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}
	return false
}
