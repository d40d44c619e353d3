// Package thread implements the execution state of one running script:
// an explicit, data-driven call stack that can be suspended and resumed
// at block granularity. All nesting (loops, branches, procedure calls,
// reporter evaluation) lives in a chain of frames, so the driver never
// relies on the host call stack and any thread can be parked between
// any two blocks.
package thread

import "github.com/zurustar/karakuri/pkg/target"

// Status describes what a thread is doing and what may happen to it
// next. Done is terminal.
type Status int

const (
	// StatusRunning threads are eligible for stepping now.
	StatusRunning Status = iota

	// StatusPromiseWait threads are parked until an asynchronous
	// completion resolves.
	StatusPromiseWait

	// StatusYield threads gave up the rest of the current step; the
	// driver may resume them again within the same tick.
	StatusYield

	// StatusYieldTick threads are parked until the next tick and are
	// never resumed in the tick that parked them.
	StatusYieldTick

	// StatusDone threads have finished. Terminal.
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusPromiseWait:
		return "promise-wait"
	case StatusYield:
		return "yield"
	case StatusYieldTick:
		return "yield-tick"
	case StatusDone:
		return "done"
	default:
		return "unknown"
	}
}

// MaxChainDepth bounds the frame chain. Scripts deep enough to hit it
// are broken graphs, not programs.
const MaxChainDepth = 1024

// Thread is the execution state of one logical script run.
//
// Chain mutation goes exclusively through Thread methods so the
// procedure registry can never drift from the frames that carry
// procedure activations.
type Thread struct {
	topBlock string
	target   *target.Target
	status   Status

	frames *Frame
	depth  int

	procStack  []string
	procCounts map[string]int

	requestGlow bool
	glowBlockID string

	warpTimer WarpTimer
}

// NewThread creates a Running thread for the script anchored at
// topBlock. The caller pushes the first frame when it starts stepping.
func NewThread(topBlock string, tgt *target.Target) *Thread {
	assert(topBlock != "", "thread needs a top block")
	assert(tgt != nil, "thread needs a target")
	return &Thread{
		topBlock:   topBlock,
		target:     tgt,
		status:     StatusRunning,
		procCounts: make(map[string]int),
	}
}

// TopBlock returns the ID of the script's first block.
func (t *Thread) TopBlock() string {
	return t.topBlock
}

// Target returns the target this thread acts against.
func (t *Thread) Target() *target.Target {
	return t.target
}

// Status returns the thread's current status.
func (t *Thread) Status() Status {
	return t.status
}

// SetStatus transitions the thread. Done is terminal: leaving it is a
// driver bug. Entering Done drops the glow hints.
func (t *Thread) SetStatus(s Status) {
	assert(t.status != StatusDone || s == StatusDone, "thread is done, cannot become %v", s)
	if s == StatusDone {
		t.requestGlow = false
		t.glowBlockID = ""
	}
	t.status = s
}

// Depth returns the number of frames on the chain.
func (t *Thread) Depth() int {
	return t.depth
}

// Push prepends a frame positioned on blockID. The frame inherits warp
// mode from its parent; the procedure registry is untouched until the
// frame is marked as an activation.
func (t *Thread) Push(blockID string) {
	assert(t.depth < MaxChainDepth, "frame chain exceeds %d frames", MaxChainDepth)
	warp := false
	if t.frames != nil {
		warp = t.frames.WarpMode
	}
	t.frames = &Frame{BlockID: blockID, Parent: t.frames, WarpMode: warp}
	t.depth++
}

// MarkProcedureCall stamps the current frame as an activation of
// procCode and records the identity in the procedure registry.
func (t *Thread) MarkProcedureCall(procCode string) {
	assert(t.frames != nil, "procedure mark on empty frame chain")
	assert(procCode != "", "empty procedure code")
	assert(t.frames.ProcedureCode == "", "frame already activates %q", t.frames.ProcedureCode)
	t.frames.ProcedureCode = procCode
	t.procStack = append(t.procStack, procCode)
	t.procCounts[procCode]++
}

// Pop removes and returns the innermost frame. Popping a procedure
// activation removes its identity from the registry, which must still
// hold it as the most recent entry.
func (t *Thread) Pop() *Frame {
	assert(t.frames != nil, "pop on empty frame chain")
	f := t.frames
	if f.ProcedureCode != "" {
		n := len(t.procStack)
		assert(n > 0 && t.procStack[n-1] == f.ProcedureCode,
			"procedure registry out of lockstep popping %q", f.ProcedureCode)
		t.procStack = t.procStack[:n-1]
		t.procCounts[f.ProcedureCode]--
		if t.procCounts[f.ProcedureCode] == 0 {
			delete(t.procCounts, f.ProcedureCode)
		}
	}
	t.frames = f.Parent
	t.depth--
	return f
}

// PeekFrame returns the innermost frame without removing it, or nil.
func (t *Thread) PeekFrame() *Frame {
	return t.frames
}

// PeekBlockID returns the innermost frame's block ID, or "" when the
// chain is empty.
func (t *Thread) PeekBlockID() string {
	if t.frames == nil {
		return ""
	}
	return t.frames.BlockID
}

// GoToNextBlock advances the current frame in place to the block
// following its current one ("" at the end of a sequence). Everything
// per-block is reset; warp mode survives because it belongs to the
// nesting level, not the block.
func (t *Thread) GoToNextBlock() {
	assert(t.frames != nil, "advance on empty frame chain")
	f := t.frames
	next := ""
	if f.BlockID != "" {
		next = t.target.Blocks.NextOf(f.BlockID)
	}
	f.BlockID = next
	f.IsLoop = false
	f.Reported = nil
	f.WaitingReporter = ""
	f.Params = nil
	f.ExecutionContext = nil
}

// StopThisScript unwinds the chain to and including the nearest
// enclosing procedure activation. A script with no activation on the
// chain stops entirely: the chain empties and the thread is Done.
func (t *Thread) StopThisScript() {
	for t.frames != nil {
		f := t.Pop()
		if f.ProcedureCode != "" {
			return
		}
	}
	t.SetStatus(StatusDone)
}

// AtTopOfScript reports whether the current frame is positioned on the
// script's top block.
func (t *Thread) AtTopOfScript() bool {
	return t.PeekBlockID() == t.topBlock
}

// Kill empties the chain and terminates the thread. Used for stop-all
// and script restarts.
func (t *Thread) Kill() {
	for t.frames != nil {
		t.Pop()
	}
	t.warpTimer.Reset()
	t.SetStatus(StatusDone)
}

// SetParam binds a procedure parameter on the current frame.
func (t *Thread) SetParam(name string, value any) {
	assert(t.frames != nil, "param bind on empty frame chain")
	if t.frames.Params == nil {
		t.frames.Params = make(map[string]any)
	}
	t.frames.Params[name] = value
}

// GetParam resolves a parameter against the nearest enclosing binding,
// walking outward from the current frame. The second result is false
// when no frame binds the name.
func (t *Thread) GetParam(name string) (any, bool) {
	for f := t.frames; f != nil; f = f.Parent {
		if f.Params != nil {
			if v, ok := f.Params[name]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// PushReportedValue delivers a reporter result to the parent frame,
// stored under the parent's waiting-reporter key. A reporter at the
// chain root has nowhere to deliver and the value is discarded.
func (t *Thread) PushReportedValue(value any) {
	assert(t.frames != nil, "report on empty frame chain")
	parent := t.frames.Parent
	if parent == nil || parent.WaitingReporter == "" {
		return
	}
	if parent.Reported == nil {
		parent.Reported = make(map[string]any)
	}
	parent.Reported[parent.WaitingReporter] = value
	parent.WaitingReporter = ""
}

// IsRecursiveCall reports in O(1) whether procCode is already active on
// the current call path. Callers refuse to push a new activation for a
// recursive call instead of growing the chain without bound.
func (t *Thread) IsRecursiveCall(procCode string) bool {
	return t.procCounts[procCode] > 0
}

// ActiveProcedures returns a copy of the activation registry, outermost
// first.
func (t *Thread) ActiveProcedures() []string {
	out := make([]string, len(t.procStack))
	copy(out, t.procStack)
	return out
}

// RequestGlow asks the front end to highlight this thread's script.
// Advisory only; never consulted by the driver.
func (t *Thread) RequestGlow() {
	t.requestGlow = true
}

// ClearGlowRequest withdraws the highlight request.
func (t *Thread) ClearGlowRequest() {
	t.requestGlow = false
}

// GlowRequested reports whether the script asked to glow.
func (t *Thread) GlowRequested() bool {
	return t.requestGlow
}

// SetGlowBlock records the block the front end should highlight.
func (t *Thread) SetGlowBlock(blockID string) {
	t.glowBlockID = blockID
}

// GlowBlock returns the block to highlight, or "".
func (t *Thread) GlowBlock() string {
	return t.glowBlockID
}

// WarpTimer returns the thread's warp burst timer.
func (t *Thread) WarpTimer() *WarpTimer {
	return &t.warpTimer
}
