package engine

import (
	"time"

	"github.com/zurustar/karakuri/pkg/thread"
)

// Cooperative multitasking constants. Threads share StepBudget of
// stepping time per tick; a warp-mode burst may run without yielding
// for at most WarpTime before it is parked until the next tick.
const (
	StepBudget = 12 * time.Millisecond
	WarpTime   = 500 * time.Millisecond
)

// stepThreads drives one tick of stepping: round-robin over the thread
// table while budget remains and some thread still wants to run. Yield
// threads are woken again within the same tick; yield-tick and
// promise-wait threads are skipped.
func (e *Engine) stepThreads() {
	start := time.Now()
	for {
		ran := false
		// Fresh snapshot each round so threads started mid-tick
		// (broadcast receivers) get stepped in a later round.
		for _, th := range e.Threads() {
			if th.Status() == thread.StatusYield {
				th.SetStatus(thread.StatusRunning)
			}
			if th.Status() != thread.StatusRunning {
				continue
			}
			ran = true
			e.stepThread(th)
		}
		if !ran || e.stepBudget <= 0 || time.Since(start) >= e.stepBudget {
			return
		}
	}
}

// stepThread runs blocks on one thread until it yields, parks, or
// finishes. Sequential blocks run back to back; loops give control
// back once per iteration unless warp mode keeps the burst going.
func (e *Engine) stepThread(th *thread.Thread) {
	for {
		f := th.PeekFrame()
		if f == nil {
			th.SetStatus(thread.StatusDone)
			return
		}

		if f.BlockID == "" {
			// The frame ran past its last block; unwind it.
			th.Pop()
			f = th.PeekFrame()
			if f == nil {
				th.SetStatus(thread.StatusDone)
				return
			}
			if f.IsLoop {
				if f.WarpMode {
					if th.WarpTimer().Elapsed() < e.warpTime {
						// Re-run the loop block inside the burst.
						continue
					}
					th.WarpTimer().Reset()
					th.SetStatus(thread.StatusYieldTick)
				}
				// Loops yield once per iteration.
				return
			}
			th.GoToNextBlock()
			continue
		}

		if f.WarpMode {
			if !th.WarpTimer().Started() {
				th.WarpTimer().Start()
			}
		} else if th.WarpTimer().Started() {
			// The previous burst is over; the next one starts fresh.
			th.WarpTimer().Reset()
		}

		blockID := f.BlockID
		e.execute(th)

		switch th.Status() {
		case thread.StatusYield:
			if cur := th.PeekFrame(); cur != nil && cur.WarpMode && th.WarpTimer().Elapsed() < e.warpTime {
				th.SetStatus(thread.StatusRunning)
				continue
			}
			return
		case thread.StatusPromiseWait, thread.StatusYieldTick, thread.StatusDone:
			return
		}

		// A block that neither pushed a frame nor repositioned the
		// thread is complete; move to its follower.
		if th.PeekFrame() == f && f.BlockID == blockID {
			th.GoToNextBlock()
		}
	}
}
