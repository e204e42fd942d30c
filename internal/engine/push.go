package engine

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fitrepo/fit/internal/marks"
	"github.com/fitrepo/fit/internal/namespace"
	"github.com/fitrepo/fit/internal/vcs"
	"github.com/fitrepo/fit/internal/vcs/git"
)

// Push resynchronizes a registered subtree from the aggregate back into
// its Git source: commits introduced in the aggregate since the last
// push flow out, previously-pushed commits are never duplicated (the
// mark ledger skips them), and the result is force-pushed to the
// source's origin.
//
// Branch resolution follows the single deterministic rule: only
// branches carrying the exact "prefix/" namespace match. No match is a
// fatal ErrNoMatchingBranch, since guessing by substring similarity
// risks silently exporting the wrong branch's content.
func (e *Engine) Push(ctx context.Context, subtreePath string) error {
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

	e.logger.Printf("Pushing subtree %s back to %s", norm, reg.SourceURL)
	if err := e.syncAggregateToSource(ctx, lay, reg.SourceURL, norm); err != nil {
		return err
	}
	if err := e.reg.Touch(ctx, norm); err != nil {
		return err
	}

	e.logger.Printf("Pushed subtree %s", norm)
	return nil
}

// syncAggregateToSource runs one aggregate→source cycle: resolve the
// namespaced branch, re-clone the source, export the aggregate history
// from a disposable checkout activated on that branch, fast-import it
// into the clone, and force-push the result to origin.
func (e *Engine) syncAggregateToSource(ctx context.Context, lay layout, sourceURL, norm string) (err error) {
	direction := marks.AggregateToSource
	phase := PhaseFetching
	defer func() {
		if err != nil {
			err = fmt.Errorf("sync %s %s aborted in %s phase: %w", norm, direction, phase, err)
			e.notify(norm, direction, PhaseAborted)
		}
	}()

	// Resolve the branch before anything else: a missing namespace is
	// a configuration problem, not worth a clone.
	prefix := namespace.BranchPrefix(norm)
	matches, err := e.fossil.BranchesWithPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("%w: prefix %s/", ErrNoMatchingBranch, prefix)
	}
	branch := pickBranch(matches, prefix)
	e.logger.Printf("Exporting from aggregate branch %s", branch)

	e.notify(norm, direction, phase)
	repo, err := git.CloneFresh(ctx, sourceURL, lay.clonePath)
	if err != nil {
		return err
	}

	// Export must run inside a checkout activated on the resolved
	// branch, or content streams from whatever revision the shared
	// checkout happens to be on.
	phase = PhaseStreaming
	e.notify(norm, direction, phase)
	tempDir, err := os.MkdirTemp("", "fit-export-*")
	if err != nil {
		return fmt.Errorf("failed to create export checkout directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	co, err := e.fossil.Open(ctx, tempDir, "--workdir", tempDir)
	if err != nil {
		return err
	}
	defer co.Close(ctx)
	if err = co.Update(ctx, branch); err != nil {
		return err
	}

	// Same staging rule as the update direction: the producer's table
	// only lands once the consumer finished.
	pair := lay.files.ForDirection(direction)
	staged := marks.StageFor(pair.Producer)
	producer, producerErr := co.ExportCommand(vcs.MarkOptions{
		ImportMarks: pair.Producer,
		ExportMarks: staged.Path(),
	})
	consumer, consumerErr := repo.ImportCommand(vcs.MarkOptions{
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
	if err = repo.PushAll(ctx, "origin"); err != nil {
		return err
	}

	phase = PhaseDone
	e.notify(norm, direction, phase)
	return nil
}

// pickBranch selects deterministically among branches sharing the
// namespace prefix: the conventional default branch names win, then
// lexicographic order. Every input carries the prefix already.
func pickBranch(matches []string, prefix string) string {
	for _, preferred := range []string{"trunk", "main", "master"} {
		for _, m := range matches {
			if m == prefix+"/"+preferred {
				return m
			}
		}
	}
	sorted := append([]string(nil), matches...)
	sort.Strings(sorted)
	return sorted[0]
}
