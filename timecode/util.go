package timecode

import "fmt"

// Assert panics with a descriptive message when cond is false.
//
// Reserved for precondition violations (per spec.md §7): caller bugs
// such as initializing a decoder with a definition that has no built
// lookup table, or clearing a decoder with a live monitor. These are
// never expected to be recovered at runtime.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("timecode: assertion failed: "+format, args...))
	}
}
