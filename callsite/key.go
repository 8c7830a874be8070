package callsite

import (
	"fmt"
	"strconv"
	"strings"
)

// Key builds the call-site key for the user frame at index idx.
//
// The base key is the user frame's fully qualified function name. When a
// later frame re-enters the same function (a recursive activation below
// us), the line numbers of every non-internal frame between the user
// frame and the outermost such re-entry are appended, ":"-separated.
// The suffix encodes the position of this activation in the recursion,
// so distinct depths get distinct keys while a plain top-level call
// keeps the bare base key.
func (l *Locator) Key(frames []Frame, idx int) string {
	base := frames[idx].Function

	boundary := -1
	for i := len(frames) - 1; i > idx; i-- {
		if frames[i].Function == base {
			boundary = i
			break
		}
	}
	if boundary < 0 {
		return base
	}

	var b strings.Builder
	b.WriteString(base)
	for i := idx + 1; i < boundary; i++ {
		if l.Internal(frames[i].Function) {
			continue
		}
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(frames[i].Line))
	}
	return b.String()
}

// Describe builds the human-readable provenance string for the user
// frame at idx, plus the line number of the nearest non-internal caller.
func (l *Locator) Describe(frames []Frame, idx int) (string, int) {
	f := frames[idx]
	for i := idx + 1; i < len(frames); i++ {
		if l.Internal(frames[i].Function) {
			continue
		}
		caller := frames[i]
		return fmt.Sprintf("%s is called on %s(%s:%d)", f.Function, caller.Function, caller.File, caller.Line), caller.Line
	}
	return fmt.Sprintf("%s is called of %s", f.Function, f.File), 0
}
