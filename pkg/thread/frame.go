package thread

// Frame holds the state of one nesting level of a thread: a loop
// iteration, a branch, a procedure activation, or a reporter
// evaluation. Frames form a chain linked outward through Parent; the
// thread's chain head is the innermost frame.
//
// The structural fields (BlockID, Parent, ProcedureCode) are mutated
// only through Thread operations so the procedure registry stays in
// lockstep with the chain. The remaining fields are scratch state owned
// by the block primitives.
type Frame struct {
	// BlockID is the block this frame is positioned on; empty once
	// the frame has advanced past its last block and awaits
	// unwinding.
	BlockID string

	// Parent links outward to the enclosing frame; nil at the
	// outermost frame.
	Parent *Frame

	// IsLoop marks the frame's block as a loop that re-runs when its
	// body finishes.
	IsLoop bool

	// WarpMode is inherited from the parent at push time and never
	// recomputed; procedure calls may set it when the procedure is
	// declared warp.
	WarpMode bool

	// Reported holds values delivered by child reporter evaluations,
	// keyed by input ID. Lazily created.
	Reported map[string]any

	// WaitingReporter is the input ID a child reporter is currently
	// evaluating for; empty when none.
	WaitingReporter string

	// Params binds procedure arguments by name. Lazily created.
	Params map[string]any

	// ExecutionContext is scratch space for the block primitive
	// itself (loop counters, wait deadlines). Lazily created, opaque
	// to the chain operations.
	ExecutionContext map[string]any

	// ProcedureCode is the procedure identity this frame is an
	// activation of; empty for ordinary frames.
	ProcedureCode string
}

// Context returns the frame's execution context, creating it on first
// use.
func (f *Frame) Context() map[string]any {
	if f.ExecutionContext == nil {
		f.ExecutionContext = make(map[string]any)
	}
	return f.ExecutionContext
}
