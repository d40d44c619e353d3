package thread

import "fmt"

// assert panics when cond is false. Chain preconditions are interpreter
// invariants; violating them means the driver is broken and execution
// must not limp past the damage.
func assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}
