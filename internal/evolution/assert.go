package evolution

import "fmt"

// debugAssert panics when cond is false in builds tagged evodebug and is a no-op
// otherwise.
func debugAssert(cond bool, format string, args ...any) {
	if debugAssertions && !cond {
		panic(fmt.Sprintf("evolution: assertion failed: "+format, args...))
	}
}
