package vcs

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// ===================
// Command Execution
// ===================

// Run executes a store command with an explicit working directory and
// returns its stdout. Stderr is captured and folded into the returned
// ToolError on failure. A zero timeout disables the internal deadline.
//
// Example:
//
//	out, err := vcs.Run(ctx, vcs.DefaultTimeout, cloneDir, "git", "branch", "--list")
func Run(ctx context.Context, timeout time.Duration, workDir string, tool string, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), NewToolError(tool, args, strings.TrimSpace(stderr.String()), err)
	}

	return stdout.Bytes(), nil
}

// RunQuiet executes a command and reports only whether it succeeded.
// Used for probes where a non-zero exit is an answer, not an error.
func RunQuiet(ctx context.Context, workDir string, tool string, args ...string) bool {
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Dir = workDir
	return cmd.Run() == nil
}

// Command builds an unstarted command with an explicit working
// directory and stderr capture attached. The caller wires stdin/stdout
// and starts it; stderr contents are retrieved through the returned
// buffer after Wait.
func Command(ctx context.Context, workDir string, tool string, args ...string) (*exec.Cmd, *bytes.Buffer) {
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Dir = workDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	return cmd, &stderr
}

// ===================
// Output Parsing
// ===================

// Lines splits command output into trimmed, non-empty lines.
func Lines(output []byte) []string {
	if len(output) == 0 {
		return nil
	}

	raw := strings.Split(string(output), "\n")
	result := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}

// FirstLine returns the first non-empty line of output, trimmed.
func FirstLine(output []byte) string {
	lines := Lines(output)
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}

// ParseBranchList parses "branch list" style output where the current
// branch is marked with a leading asterisk. Works for both git and
// fossil, which share the convention.
func ParseBranchList(output []byte) []BranchInfo {
	var branches []BranchInfo
	for _, line := range Lines(output) {
		current := strings.HasPrefix(line, "*")
		name := strings.TrimSpace(strings.TrimPrefix(line, "*"))
		if name == "" {
			continue
		}
		branches = append(branches, BranchInfo{Name: name, Current: current})
	}
	return branches
}
