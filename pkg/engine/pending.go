package engine

import (
	"sync"
	"time"

	"github.com/zurustar/karakuri/pkg/thread"
)

// Pending is the completion handle behind the promise-wait status. A
// primitive returns one to park its thread; Resolve may be called from
// any goroutine and the resolution is applied on the engine goroutine
// at the start of the next tick.
type Pending struct {
	mu       sync.Mutex
	resolved bool
	value    any
}

// Resolve completes the pending operation with value. Later calls are
// ignored.
func (p *Pending) Resolve(value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved {
		return
	}
	p.resolved = true
	p.value = value
}

func (p *Pending) poll() (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.resolved
}

// pendingEntry tracks one parked thread: a handle, an optional deadline
// the tick loop resolves on its own, and an optional cleanup run at
// resolution.
type pendingEntry struct {
	pending   *Pending
	deadline  time.Time
	reporter  bool
	onResolve func()
}

// schedule parks bookkeeping for th: the entry resolves once d has
// elapsed, or earlier through the returned handle. The primitive sets
// the promise-wait status itself to actually suspend the thread.
func (e *Engine) schedule(th *thread.Thread, d time.Duration, onResolve func()) *Pending {
	p := &Pending{}
	e.parked[th] = &pendingEntry{
		pending:   p,
		deadline:  time.Now().Add(d),
		reporter:  waitingOnReporter(th),
		onResolve: onResolve,
	}
	return p
}

// newPending parks bookkeeping for th with no deadline: the entry
// resolves only through the returned handle, from any goroutine.
func (e *Engine) newPending(th *thread.Thread) *Pending {
	p := &Pending{}
	e.parked[th] = &pendingEntry{
		pending:  p,
		reporter: waitingOnReporter(th),
	}
	return p
}

// waitingOnReporter reports whether th's current frame is a reporter
// whose parent awaits its value. Such a frame resolves by delivering
// the value, not by advancing past a block.
func waitingOnReporter(th *thread.Thread) bool {
	f := th.PeekFrame()
	return f != nil && f.Parent != nil && f.Parent.WaitingReporter != ""
}

// applyResolutions delivers every finished completion: reporters push
// their value to the parent frame and pop; stack blocks advance past
// the suspended block. Runs on the engine goroutine.
func (e *Engine) applyResolutions() {
	now := time.Now()
	for th, entry := range e.parked {
		value, done := entry.pending.poll()
		if !done && !entry.deadline.IsZero() && !now.Before(entry.deadline) {
			entry.pending.Resolve(nil)
			value, done = nil, true
		}
		if !done {
			continue
		}
		delete(e.parked, th)
		if entry.onResolve != nil {
			entry.onResolve()
		}
		assert(th.Status() == thread.StatusPromiseWait,
			"parked thread is %v, not promise-wait", th.Status())
		if entry.reporter {
			th.PushReportedValue(value)
			th.Pop()
		} else {
			th.GoToNextBlock()
		}
		th.SetStatus(thread.StatusRunning)
	}
}
