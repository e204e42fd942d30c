package engine

// Phase identifies where in a sync call the engine is. Phases are
// logged and attached to errors so an aborted run names the step that
// failed.
type Phase string

const (
	// PhaseFetching covers the fresh clone of the source history.
	PhaseFetching Phase = "fetching"

	// PhaseRewriting covers the subtree relocation and branch
	// namespacing of the clone.
	PhaseRewriting Phase = "rewriting"

	// PhaseStreaming covers the export/import pipeline.
	PhaseStreaming Phase = "streaming"

	// PhaseMaterializing covers workspace setup and checkout updates.
	PhaseMaterializing Phase = "materializing"

	// PhaseDone is the successful terminal state.
	PhaseDone Phase = "done"

	// PhaseAborted is the failure terminal state. Partial progress
	// (marks, clones) is retained for the next attempt.
	PhaseAborted Phase = "aborted"
)

// String returns the phase name.
func (p Phase) String() string {
	return string(p)
}
