package fossil

import (
	"bytes"
	"os"
	"os/exec"

	"github.com/fitrepo/fit/internal/vcs"
)

// ImportCommand builds the consumer side of a source→aggregate stream:
// fossil import reading a git fast-export stream from stdin, directly
// into the repository file.
//
// --incremental appends to existing history instead of requiring an
// empty repository, which is what allows many subtrees to share one
// aggregate and repeated syncs to extend earlier ones.
func (r *Repo) ImportCommand(opts vcs.MarkOptions) (*exec.Cmd, *bytes.Buffer) {
	args := []string{"import", "--git", "--incremental"}
	if opts.ImportMarks != "" {
		if _, err := os.Stat(opts.ImportMarks); err == nil {
			args = append(args, "--import-marks", opts.ImportMarks)
		}
	}
	args = append(args, "--export-marks", opts.ExportMarks, r.file)

	cmd := exec.Command("fossil", args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	return cmd, &stderr
}

// ExportCommand builds the producer side of an aggregate→source stream:
// fossil export emitting a git fast-export stream to stdout. Must run
// inside an open checkout updated to the branch being exported, or
// content is taken from the wrong revision; the caller supplies that
// checkout.
func (c *Checkout) ExportCommand(opts vcs.MarkOptions) (*exec.Cmd, *bytes.Buffer) {
	args := []string{"export", "--git"}
	if opts.ImportMarks != "" {
		if _, err := os.Stat(opts.ImportMarks); err == nil {
			args = append(args, "--import-marks", opts.ImportMarks)
		}
	}
	args = append(args, "--export-marks", opts.ExportMarks)

	cmd := exec.Command("fossil", args...)
	cmd.Dir = c.dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	return cmd, &stderr
}
