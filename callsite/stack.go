package callsite

import "runtime"

// Frame is one resolved stack frame, innermost first in a capture.
type Frame struct {
	// Function is the fully qualified function name, for example
	// "github.com/acme/app/feed.(*Client).Pull".
	Function string
	File     string
	Line     int
}

// Stack captures the calling goroutine's stack as resolved frames,
// innermost first. The frame of Stack itself is excluded; the caller's
// frame is index 0. Inlined frames are expanded.
func Stack() []Frame {
	pcs := make([]uintptr, 64)
	var n int
	for {
		// skip runtime.Callers and Stack itself
		n = runtime.Callers(2, pcs)
		if n < len(pcs) {
			break
		}
		pcs = make([]uintptr, len(pcs)*2)
	}

	frames := runtime.CallersFrames(pcs[:n])
	out := make([]Frame, 0, n)
	for {
		fr, more := frames.Next()
		if fr.Function != "" {
			out = append(out, Frame{Function: fr.Function, File: fr.File, Line: fr.Line})
		}
		if !more {
			break
		}
	}
	return out
}
