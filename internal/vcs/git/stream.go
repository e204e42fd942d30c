package git

import (
	"bytes"
	"os"
	"os/exec"

	"github.com/fitrepo/fit/internal/vcs"
)

// ExportCommand builds the producer side of a source→aggregate stream:
// git fast-export over all refs, emitting to stdout. The returned
// command is unstarted; the pipeline wires and runs it.
//
// Marks handling: ImportMarks is passed only when the file exists, so
// the first export is a full transfer and later exports emit only
// commits without a recorded mark. ExportMarks is always written.
func (r *Repo) ExportCommand(opts vcs.MarkOptions) (*exec.Cmd, *bytes.Buffer) {
	args := []string{"fast-export", "--all"}
	if opts.ImportMarks != "" {
		if _, err := os.Stat(opts.ImportMarks); err == nil {
			args = append(args, "--import-marks", opts.ImportMarks)
		}
	}
	args = append(args, "--export-marks", opts.ExportMarks)

	cmd := exec.Command("git", args...)
	cmd.Dir = r.dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	return cmd, &stderr
}

// ImportCommand builds the consumer side of an aggregate→source stream:
// git fast-import reading from stdin. --force permits updating existing
// refs, which happens whenever the aggregate side was itself rebuilt
// from a rewrite cycle.
func (r *Repo) ImportCommand(opts vcs.MarkOptions) (*exec.Cmd, *bytes.Buffer) {
	args := []string{"fast-import", "--force"}
	if opts.ImportMarks != "" {
		if _, err := os.Stat(opts.ImportMarks); err == nil {
			args = append(args, "--import-marks="+opts.ImportMarks)
		}
	}
	args = append(args, "--export-marks="+opts.ExportMarks)

	cmd := exec.Command("git", args...)
	cmd.Dir = r.dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	return cmd, &stderr
}
