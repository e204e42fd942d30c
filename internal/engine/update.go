package engine

import (
	"context"
	"fmt"

	"github.com/fitrepo/fit/internal/marks"
	"github.com/fitrepo/fit/internal/namespace"
	"github.com/fitrepo/fit/internal/registry"
	"github.com/fitrepo/fit/internal/vcs"
	"github.com/fitrepo/fit/internal/vcs/git"
	"github.com/fitrepo/fit/internal/workspace"
)

// Import registers a Git source under a subtree path and performs the
// first synchronization into the aggregate. The registration record is
// only written after the sync succeeds, so a failed import leaves no
// half-registered state behind (clone and marks may remain; they are
// disposable and reused by a retry of the import).
func (e *Engine) Import(ctx context.Context, sourceURL, subtreePath string) error {
	if err := namespace.ValidateSourceURL(sourceURL); err != nil {
		return err
	}
	norm, err := namespace.Normalize(subtreePath)
	if err != nil {
		return err
	}

	// Reject configuration problems before any external process runs.
	if exists, err := e.reg.Exists(ctx, norm); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("%w: %s", registry.ErrAlreadyRegistered, norm)
	}
	if err := vcs.RequireDependencies(ctx); err != nil {
		return err
	}
	if err := e.ensureDirs(); err != nil {
		return err
	}

	unlock := lockStore(e.cfg.FossilRepo)
	defer unlock()

	ident := namespace.Sanitize(norm)
	lay := e.layoutFor(ident, norm)

	e.logger.Printf("Importing %s as subtree %s", sourceURL, norm)
	if err := e.syncSourceToAggregate(ctx, lay, sourceURL, norm, false); err != nil {
		return err
	}

	if err := e.reg.Put(ctx, registry.Registration{
		Path:           norm,
		Identifier:     ident,
		SourceURL:      sourceURL,
		ClonePath:      lay.clonePath,
		SourceMarks:    lay.files.Source,
		AggregateMarks: lay.files.Aggregate,
		WorkspacePath:  lay.workspace,
	}); err != nil {
		return err
	}

	e.updateAggregateCheckout(ctx, norm)
	e.logger.Printf("Imported %s into subtree %s", sourceURL, norm)
	return nil
}

// Update resynchronizes a registered subtree from its source into the
// aggregate. The clone is rebuilt from scratch and the mark ledger
// makes the transfer incremental: commits already holding a mark are
// never re-streamed, so an update with no upstream change is a no-op.
func (e *Engine) Update(ctx context.Context, subtreePath string) error {
	norm, err := namespace.Normalize(subtreePath)
	if err != nil {
		return err
	}
	reg, err := e.reg.Get(ctx, norm)
	if err != nil {
		return err
	}
	if err := vcs.RequireDependencies(ctx); err != nil {
		return err
	}
	if err := e.ensureDirs(); err != nil {
		return err
	}

	unlock := lockStore(e.cfg.FossilRepo)
	defer unlock()

	lay := e.layoutFor(reg.Identifier, norm)

	e.logger.Printf("Updating subtree %s from %s", norm, reg.SourceURL)
	if err := e.syncSourceToAggregate(ctx, lay, reg.SourceURL, norm, true); err != nil {
		return err
	}

	// Backfill for records created before workspaces were materialized.
	if reg.WorkspacePath == "" {
		if err := e.reg.SetWorkspace(ctx, norm, lay.workspace); err != nil {
			return err
		}
	} else if err := e.reg.Touch(ctx, norm); err != nil {
		return err
	}

	e.logger.Printf("Updated subtree %s", norm)
	return nil
}

// syncSourceToAggregate runs one source→aggregate cycle: fresh clone,
// subtree relocation, branch namespacing, streamed transfer, workspace
// materialization. force relaxes the rewriter's freshness checks and is
// set on every cycle after the first.
func (e *Engine) syncSourceToAggregate(ctx context.Context, lay layout, sourceURL, norm string, force bool) (err error) {
	direction := marks.SourceToAggregate
	phase := PhaseFetching
	defer func() {
		if err != nil {
			err = fmt.Errorf("sync %s %s aborted in %s phase: %w", norm, direction, phase, err)
			e.notify(norm, direction, PhaseAborted)
		}
	}()

	// Fetching: always from scratch. The relocation filter is not
	// idempotent against already-rewritten history, so in-place reuse
	// of the previous clone would double-nest the subtree.
	e.notify(norm, direction, phase)
	repo, err := git.CloneFresh(ctx, sourceURL, lay.clonePath)
	if err != nil {
		return err
	}

	phase = PhaseRewriting
	e.notify(norm, direction, phase)
	if err = repo.Relocate(ctx, norm, force); err != nil {
		return err
	}
	prefix := namespace.BranchPrefix(norm)
	result, err := repo.NamespaceBranches(ctx, prefix)
	if err != nil {
		return err
	}
	for _, b := range result.Discarded {
		e.logger.Printf("Branch %s/%s already exists, discarded unprefixed %s", prefix, b, b)
	}
	for _, b := range result.Failed {
		// Cosmetic: the branch keeps its unprefixed name but its
		// content still exports.
		e.logger.Printf("WARNING: failed to rename branch %s, leaving unprefixed", b)
	}

	phase = PhaseStreaming
	e.notify(norm, direction, phase)
	pair := lay.files.ForDirection(direction)
	prev, err := marks.Load(pair.Producer)
	if err != nil {
		return err
	}
	if prev.Len() > 0 {
		e.logger.Printf("Resuming transfer past mark :%d (%d commits already recorded)", prev.Max(), prev.Len())
	}

	// The producer's new table lands only after the consumer finished:
	// a cleanly-exiting producer feeding a failed consumer must not
	// record commits the aggregate never received, or the retry would
	// skip them.
	staged := marks.StageFor(pair.Producer)
	producer, producerErr := repo.ExportCommand(vcs.MarkOptions{
		ImportMarks: pair.Producer,
		ExportMarks: staged.Path(),
	})
	consumer, consumerErr := e.fossil.ImportCommand(vcs.MarkOptions{
		ImportMarks: pair.Consumer,
		ExportMarks: pair.Consumer,
	})
	if err = runPipeline(producer, consumer, producerErr, consumerErr); err != nil {
		staged.Discard()
		return err
	}
	if err = staged.Commit(); err != nil {
		return err
	}

	phase = PhaseMaterializing
	e.notify(norm, direction, phase)
	if err = workspace.Materialize(ctx, lay.clonePath, lay.workspace, norm); err != nil {
		return err
	}

	phase = PhaseDone
	e.notify(norm, direction, phase)
	return nil
}

// updateAggregateCheckout moves the aggregate checkout at the project
// root to the subtree's first prefixed branch so the imported files
// appear on disk. Best effort: the root may not be an open checkout.
func (e *Engine) updateAggregateCheckout(ctx context.Context, norm string) {
	prefix := namespace.BranchPrefix(norm)
	matches, err := e.fossil.BranchesWithPrefix(ctx, prefix)
	if err != nil || len(matches) == 0 {
		e.logger.Printf("WARNING: no aggregate branch with prefix %s/, checkout not updated", prefix)
		return
	}

	branch := pickBranch(matches, prefix)
	co, err := e.fossil.Open(ctx, e.cfg.Root)
	if err != nil {
		e.logger.Printf("WARNING: aggregate checkout unavailable: %v", err)
		return
	}
	if err := co.Update(ctx, branch); err != nil {
		e.logger.Printf("WARNING: failed to update checkout to %s: %v", branch, err)
		return
	}
	e.logger.Printf("Aggregate checkout updated to branch %s", branch)
}
