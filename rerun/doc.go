// Package rerun retries the function it is called from.
//
// A function opts into retrying with a two-line prologue: it asks the
// store for the retry context of its own call site, and lets the
// context drive it. The engine identifies the call site by walking the
// stack, re-invokes the enclosing method reflectively on failure, and
// hands the final outcome back to the original caller:
//
//	func (c *Client) Pull(n int) (int, error) {
//		r := rerun.Current(c, n)
//		if r.Run() {
//			v, _ := r.Result().(int)
//			return v, r.Err()
//		}
//		// normal body; runs once per attempt
//	}
//
// An attempt fails when the function returns a non-nil trailing error
// or panics. A failing function is invoked limit+1 times in total; on
// exhaustion the original error (or panic) reaches the caller
// unchanged.
//
// A Store is confined to a single goroutine. Default() provides a
// process-wide store for single-goroutine programs; concurrent
// programs create one store per worker with NewStore.
//
// Package-level functions cannot be looked up reflectively, so their
// variants are registered up front with Register; when several
// variants share a name the closest signature for the live arguments
// is selected.
//
// Run and RunFunc are the explicit variant: a bounded retry loop over
// a callable the caller supplies directly, no stack inspection.
package rerun
