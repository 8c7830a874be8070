// Package callsite identifies the code location that requested a retry
// handle by walking the current goroutine's call stack.
//
// It locates the user frame above the engine's entry points, and builds a
// stable string key for that logical call site. Two recursive activations
// of the same function at different call depths produce different keys;
// repeated requests from the same activation produce the same key.
package callsite
