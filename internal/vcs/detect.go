package vcs

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/mod/semver"
)

// ===================
// Binary Availability
// ===================

// Minimum versions fit is known to work with. Git needs fast-export
// marks reuse and sparse-checkout; fossil needs --incremental import.
const (
	MinGitVersion    = "v2.25.0"
	MinFossilVersion = "v2.12"
)

// IsGitAvailable returns true if the git binary is in PATH.
func IsGitAvailable() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// IsFossilAvailable returns true if the fossil binary is in PATH.
func IsFossilAvailable() bool {
	_, err := exec.LookPath("fossil")
	return err == nil
}

// IsFilterRepoAvailable returns true if git-filter-repo is installed.
// The rewriter delegates subtree relocation to it.
func IsFilterRepoAvailable() bool {
	if _, err := exec.LookPath("git-filter-repo"); err == nil {
		return true
	}
	// filter-repo may be installed as a git subcommand only
	return RunQuiet(context.Background(), "", "git", "filter-repo", "--version")
}

// GitVersion returns the installed git version ("2.39.0").
func GitVersion(ctx context.Context) (string, error) {
	out, err := Run(ctx, DefaultTimeout, "", "git", "--version")
	if err != nil {
		return "", fmt.Errorf("%w: git: %v", ErrToolNotAvailable, err)
	}
	// "git version 2.39.0"
	return strings.TrimPrefix(FirstLine(out), "git version "), nil
}

// FossilVersion returns the installed fossil version ("2.23").
func FossilVersion(ctx context.Context) (string, error) {
	out, err := Run(ctx, DefaultTimeout, "", "fossil", "version")
	if err != nil {
		return "", fmt.Errorf("%w: fossil: %v", ErrToolNotAvailable, err)
	}
	// "This is fossil version 2.23 [abcdef0123] 2023-11-01 ..."
	fields := strings.Fields(FirstLine(out))
	for i, f := range fields {
		if f == "version" && i+1 < len(fields) {
			return fields[i+1], nil
		}
	}
	return FirstLine(out), nil
}

// VersionAtLeast compares a tool version string against a minimum
// expressed in semver form ("v2.25.0"). Versions that do not parse are
// accepted; only a parseable, lower version fails the gate.
func VersionAtLeast(version, min string) bool {
	v := "v" + strings.TrimPrefix(version, "v")
	// Trim trailing annotations like "2.39.0 (Apple Git-145)"
	if i := strings.IndexAny(v, " ("); i > 0 {
		v = v[:i]
	}
	if !semver.IsValid(v) {
		return true
	}
	return semver.Compare(v, min) >= 0
}

// DependencyStatus reports the result of one dependency probe.
type DependencyStatus struct {
	// Tool is the binary name.
	Tool string

	// Available is true if the binary was found and runs.
	Available bool

	// Version is the detected version string, if available.
	Version string

	// Problem describes what is wrong, empty when healthy.
	Problem string
}

// CheckDependencies probes the binaries fit needs and returns one status
// per tool. The sync engine refuses to run when any probe fails; the
// doctor command renders the full report.
func CheckDependencies(ctx context.Context) []DependencyStatus {
	var results []DependencyStatus

	gitStatus := DependencyStatus{Tool: "git"}
	if version, err := GitVersion(ctx); err != nil {
		gitStatus.Problem = "not installed or not in PATH"
	} else {
		gitStatus.Available = true
		gitStatus.Version = version
		if !VersionAtLeast(version, MinGitVersion) {
			gitStatus.Problem = fmt.Sprintf("version %s is older than required %s", version, strings.TrimPrefix(MinGitVersion, "v"))
		}
	}
	results = append(results, gitStatus)

	fossilStatus := DependencyStatus{Tool: "fossil"}
	if version, err := FossilVersion(ctx); err != nil {
		fossilStatus.Problem = "not installed or not in PATH"
	} else {
		fossilStatus.Available = true
		fossilStatus.Version = version
		if !VersionAtLeast(version, MinFossilVersion) {
			fossilStatus.Problem = fmt.Sprintf("version %s is older than required %s", version, strings.TrimPrefix(MinFossilVersion, "v"))
		}
	}
	results = append(results, fossilStatus)

	frStatus := DependencyStatus{Tool: "git-filter-repo"}
	if IsFilterRepoAvailable() {
		frStatus.Available = true
	} else {
		frStatus.Problem = "not installed; install with: pip install git-filter-repo"
	}
	results = append(results, frStatus)

	return results
}

// RequireDependencies returns an error naming every missing or outdated
// dependency, or nil when all probes pass.
func RequireDependencies(ctx context.Context) error {
	var problems []string
	for _, dep := range CheckDependencies(ctx) {
		if dep.Problem != "" {
			problems = append(problems, fmt.Sprintf("%s: %s", dep.Tool, dep.Problem))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrToolNotAvailable, strings.Join(problems, "; "))
	}
	return nil
}
