// Package marks owns the mark-correspondence ledger that makes repeated
// synchronization incremental.
//
// Each registered subtree has two mark files, one per store: the Git
// side, written by fast-export and fast-import, and the Fossil side,
// written by fossil import and export. Both tables are append-only: a
// mark, once emitted for a commit, is reused by every later run, which
// is what prevents already-transferred commits from being re-streamed.
//
// The two files are always used as a matched pair derived from the same
// registration. Mixing one registration's file with another's produces
// undefined correspondence, so paths are only ever handed out together
// through Files, keyed by the registration's sanitized identifier.
package marks

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Direction names one flow of a bidirectional sync.
type Direction string

const (
	// SourceToAggregate is the update flow: git fast-export feeding
	// fossil import.
	SourceToAggregate Direction = "source-to-aggregate"

	// AggregateToSource is the push flow: fossil export feeding git
	// fast-import.
	AggregateToSource Direction = "aggregate-to-source"
)

// String returns the direction name.
func (d Direction) String() string {
	return string(d)
}

// Key is the typed registration identity marks files are derived from.
// It is the sanitized subtree identifier; constructing paths through
// Key rather than string concatenation keeps both files of a pair bound
// to one registration.
type Key string

// Files is the matched pair of mark files for one registration.
type Files struct {
	// Source is the Git-side marks file.
	Source string

	// Aggregate is the Fossil-side marks file.
	Aggregate string
}

// Pair assigns the two files of a registration to their roles in one
// direction: Producer is the exporting store's file, Consumer the
// importing store's. Within a single sync call each tool reads its own
// file as import-marks and rewrites it as export-marks.
type Pair struct {
	Producer string
	Consumer string
}

// ForDirection returns the producer/consumer role assignment of the
// pair for the given direction.
func (f Files) ForDirection(d Direction) Pair {
	if d == AggregateToSource {
		return Pair{Producer: f.Aggregate, Consumer: f.Source}
	}
	return Pair{Producer: f.Source, Consumer: f.Aggregate}
}

// Ledger locates and manages mark files under one marks directory.
type Ledger struct {
	dir string
}

// NewLedger returns a ledger rooted at dir. The directory is created
// lazily when marks are first written by the tools themselves.
func NewLedger(dir string) *Ledger {
	return &Ledger{dir: dir}
}

// Dir returns the marks directory.
func (l *Ledger) Dir() string {
	return l.dir
}

// For returns the mark-file pair for a registration key.
func (l *Ledger) For(key Key) Files {
	return Files{
		Source:    filepath.Join(l.dir, string(key)+"_git.marks"),
		Aggregate: filepath.Join(l.dir, string(key)+"_fossil.marks"),
	}
}

// EnsureDir creates the marks directory.
func (l *Ledger) EnsureDir() error {
	if err := os.MkdirAll(l.dir, 0750); err != nil {
		return fmt.Errorf("failed to create marks directory: %w", err)
	}
	return nil
}

// Reset deletes both mark files of a registration, forcing the next
// sync in either direction to be a full re-transfer. Destructive: a
// full re-export can rewrite or rebase the downstream store's history,
// so callers must confirm before invoking it.
func (l *Ledger) Reset(key Key) error {
	files := l.For(key)
	for _, f := range []string{files.Source, files.Aggregate} {
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove marks file %s: %w", f, err)
		}
	}
	return nil
}

// Staged is an in-flight rewrite of a marks file. The exporting tool
// writes its new table to Path; Commit moves it over the real file only
// after the consumer finished, so an aborted stream never advances the
// recorded correspondence past what the consumer durably received.
type Staged struct {
	final string
}

// StageFor returns a staged rewrite of the marks file at path.
func StageFor(path string) Staged {
	return Staged{final: path}
}

// Path is where the new table is written while the transfer runs.
func (s Staged) Path() string {
	return s.final + ".pending"
}

// Commit replaces the real marks file with the staged one.
func (s Staged) Commit() error {
	if err := os.Rename(s.Path(), s.final); err != nil {
		return fmt.Errorf("failed to commit marks file %s: %w", s.final, err)
	}
	return nil
}

// Discard removes the staged file, leaving the real one untouched.
func (s Staged) Discard() {
	_ = os.Remove(s.Path())
}

// Table is a parsed mark table: mark number → revision identifier.
type Table map[int]string

// Load parses a mark file. A missing file yields an empty table, which
// is the "first sync, full transfer" case rather than an error.
//
// Both git and fossil emit lines of the form ":<mark> <identifier>";
// unrecognized lines are skipped so format extensions do not break the
// parse.
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open marks file: %w", err)
	}
	defer f.Close()

	table := Table{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, ":") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		mark, err := strconv.Atoi(strings.TrimPrefix(fields[0], ":"))
		if err != nil {
			continue
		}
		table[mark] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read marks file: %w", err)
	}
	return table, nil
}

// Len returns the number of recorded correspondences.
func (t Table) Len() int {
	return len(t)
}

// Max returns the highest mark number, or 0 for an empty table. Marks
// grow monotonically, so Max is the resume position of the next run.
func (t Table) Max() int {
	max := 0
	for mark := range t {
		if mark > max {
			max = mark
		}
	}
	return max
}

// Supersedes reports whether t contains every mark of prev. A sync run
// that honors the append-only invariant only ever extends the table; a
// run that dropped or renumbered marks would re-transfer history.
func (t Table) Supersedes(prev Table) bool {
	for mark, id := range prev {
		if got, ok := t[mark]; !ok || got != id {
			return false
		}
	}
	return true
}
