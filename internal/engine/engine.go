// Package engine drives the synchronization workflow between the
// per-subtree Git sources and the shared aggregate Fossil repository.
//
// Each sync call walks the phases Fetching → Rewriting → Streaming →
// Materializing → Done; any failure lands in Aborted with the partial
// progress (mark tables, rewritten clone) left in place so a retry
// resumes from the last durable checkpoint instead of starting over.
//
// Calls that write the same aggregate repository are serialized by a
// process-wide per-store mutex: the revision numbering and mark
// correspondence of the aggregate must stay observably sequential, so
// two subtrees may sync concurrently only against different stores.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fitrepo/fit/internal/marks"
	"github.com/fitrepo/fit/internal/registry"
	"github.com/fitrepo/fit/internal/vcs/fossil"
)

// ErrNoMatchingBranch is returned by Push when no aggregate branch
// carries the subtree's namespace prefix. Fatal for the current call:
// it means the subtree was never imported or its branches were renamed
// by hand, both of which need manual inspection rather than guessing.
var ErrNoMatchingBranch = errors.New("no aggregate branch matches namespace prefix")

// Config fixes the on-disk layout the engine works in. All paths are
// absolute; nothing in the engine depends on the process working
// directory.
type Config struct {
	// Root is the project root holding the aggregate checkout, the
	// .fit state directory, and the workspace directories.
	Root string

	// FossilRepo is the aggregate repository file.
	FossilRepo string

	// ClonesDir holds the disposable source clones.
	ClonesDir string

	// MarksDir holds the mark-ledger files.
	MarksDir string
}

// DefaultConfig returns the standard layout under root: fit.fossil at
// the top, clones and marks under .fit/.
func DefaultConfig(root string) Config {
	return Config{
		Root:       root,
		FossilRepo: filepath.Join(root, "fit.fossil"),
		ClonesDir:  filepath.Join(root, ".fit", "clones"),
		MarksDir:   filepath.Join(root, ".fit", "marks"),
	}
}

// RegistryPath returns the registry database location for a root.
func RegistryPath(root string) string {
	return filepath.Join(root, ".fit", "registry.db")
}

// Notifier receives sync lifecycle events. The dashboard subscribes
// through this; a nil notifier is valid and drops everything.
type Notifier interface {
	SyncEvent(subtree string, direction marks.Direction, phase Phase)
}

// Engine executes sync operations against one project layout.
type Engine struct {
	cfg      Config
	reg      *registry.Registry
	ledger   *marks.Ledger
	fossil   *fossil.Repo
	logger   *log.Logger
	notifier Notifier
}

// New creates an engine over an open registry. If logger is nil, a
// default stderr logger is used.
//
// Example:
//
//	reg, err := registry.Open(engine.RegistryPath(root))
//	if err != nil {
//	    return err
//	}
//	defer reg.Close()
//	eng := engine.New(engine.DefaultConfig(root), reg, nil)
func New(cfg Config, reg *registry.Registry, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(os.Stderr, "[engine] ", log.LstdFlags)
	}
	return &Engine{
		cfg:    cfg,
		reg:    reg,
		ledger: marks.NewLedger(cfg.MarksDir),
		fossil: fossil.New(cfg.FossilRepo),
		logger: logger,
	}
}

// SetNotifier installs a sync-event receiver.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// Registry exposes the engine's registry for read-side callers (list,
// dashboard).
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Ledger exposes the mark ledger (reset-marks).
func (e *Engine) Ledger() *marks.Ledger {
	return e.ledger
}

// Config returns the engine's layout.
func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) notify(subtree string, d marks.Direction, p Phase) {
	if e.notifier != nil {
		e.notifier.SyncEvent(subtree, d, p)
	}
}

// ===================
// Aggregate-store serialization
// ===================

// storeLocks serializes sync calls per aggregate repository file.
// Scope is the store, not the subtree: two subtrees importing into the
// same fossil file must not interleave their import streams.
var storeLocks sync.Map

func lockStore(repoFile string) func() {
	abs, err := filepath.Abs(repoFile)
	if err != nil {
		abs = repoFile
	}
	mu, _ := storeLocks.LoadOrStore(abs, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	return mu.(*sync.Mutex).Unlock
}

// ===================
// Layout helpers
// ===================

// layout is the derived per-registration file layout.
type layout struct {
	ident     marks.Key
	clonePath string
	workspace string
	files     marks.Files
}

func (e *Engine) layoutFor(ident string, norm string) layout {
	return layout{
		ident:     marks.Key(ident),
		clonePath: filepath.Join(e.cfg.ClonesDir, ident),
		workspace: filepath.Join(e.cfg.Root, filepath.FromSlash(norm)),
		files:     e.ledger.For(marks.Key(ident)),
	}
}

// ensureDirs creates the state directories the engine writes into.
func (e *Engine) ensureDirs() error {
	for _, dir := range []string{e.cfg.ClonesDir, e.cfg.MarksDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// ResetMarks deletes both mark tables of a registration. The next sync
// in either direction becomes a full re-transfer, which can rewrite the
// downstream store's history; callers confirm before reaching here.
func (e *Engine) ResetMarks(ctx context.Context, subtree string) error {
	reg, err := e.reg.Get(ctx, subtree)
	if err != nil {
		return err
	}
	e.logger.Printf("Resetting mark tables for %s (next sync will re-transfer full history)", reg.Path)
	return e.ledger.Reset(marks.Key(reg.Identifier))
}
