package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/fitrepo/fit/internal/vcs/fossil"
)

// Init creates the aggregate repository file if it does not exist,
// opens it as a checkout at the project root, and lays out the .fit
// state directories. Idempotent: re-running init on an initialized
// project only re-opens what needs opening.
//
// extraInitArgs and extraOpenArgs are forwarded to the underlying
// fossil init/open invocations.
func (e *Engine) Init(ctx context.Context, extraInitArgs, extraOpenArgs []string) error {
	if _, err := os.Stat(e.cfg.FossilRepo); os.IsNotExist(err) {
		e.logger.Printf("Creating aggregate repository %s", e.cfg.FossilRepo)
		if err := e.fossil.Init(ctx, extraInitArgs...); err != nil {
			return err
		}
	}

	if fossil.IsOpen(ctx, e.cfg.Root) {
		e.logger.Printf("Aggregate repository already open at %s", e.cfg.Root)
	} else {
		e.logger.Printf("Opening aggregate repository at %s", e.cfg.Root)
		if _, err := e.fossil.Open(ctx, e.cfg.Root, extraOpenArgs...); err != nil {
			return err
		}
	}

	if err := e.ensureDirs(); err != nil {
		return fmt.Errorf("failed to create state directories: %w", err)
	}

	e.logger.Printf("Initialization complete")
	return nil
}
