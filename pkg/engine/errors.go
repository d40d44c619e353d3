package engine

import (
	"errors"
	"fmt"
)

// ErrNoProject is returned when an engine is built without any targets.
var ErrNoProject = errors.New("project has no targets")

// assert panics when cond is false. Used for driver invariants that
// must hold between stepping phases.
func assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}
