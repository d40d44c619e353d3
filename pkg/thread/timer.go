package thread

import "time"

// WarpTimer measures wall time spent inside a warp-mode burst so the
// driver can bound how long a thread runs without yielding.
type WarpTimer struct {
	start time.Time
}

// Start records the current time as the beginning of a burst.
func (wt *WarpTimer) Start() {
	wt.start = time.Now()
}

// Started reports whether the timer has been started since the last
// reset.
func (wt *WarpTimer) Started() bool {
	return !wt.start.IsZero()
}

// Elapsed returns the time since Start, or zero before any start.
func (wt *WarpTimer) Elapsed() time.Duration {
	if wt.start.IsZero() {
		return 0
	}
	return time.Since(wt.start)
}

// Reset clears the timer so the next burst starts fresh.
func (wt *WarpTimer) Reset() {
	wt.start = time.Time{}
}
