package callsite

import "strings"

// Locator finds the user frame that requested a retry handle.
//
// The scan walks from the top of the stack until it hits the engine's
// handle-request entry point, then skips any further engine-internal
// frames (the simple-run convenience entry and package-level wrappers)
// so the next frame is the requesting user function.
type Locator struct {
	// EntrySuffix matches the handle-request entry point, for example
	// ".(*Store).Current".
	EntrySuffix string
	// EnginePrefixes are package prefixes whose frames belong to the
	// engine itself. Frames from "runtime." and "reflect." are always
	// treated as internal.
	EnginePrefixes []string
}

// Locate returns the index of the user frame in frames, or false when
// the stack is exhausted without finding one.
func (l *Locator) Locate(frames []Frame) (int, bool) {
	for i := 0; i < len(frames); i++ {
		if !strings.HasSuffix(frames[i].Function, l.EntrySuffix) {
			continue
		}
		i++
		for i < len(frames) && l.Internal(frames[i].Function) {
			i++
		}
		if i < len(frames) {
			return i, true
		}
		return 0, false
	}
	return 0, false
}

// Internal reports whether the function belongs to the engine, the
// runtime, or the dynamic-invocation machinery.
func (l *Locator) Internal(function string) bool {
	if strings.HasPrefix(function, "runtime.") || strings.HasPrefix(function, "reflect.") {
		return true
	}
	for _, p := range l.EnginePrefixes {
		if strings.HasPrefix(function, p) {
			return true
		}
	}
	return false
}
