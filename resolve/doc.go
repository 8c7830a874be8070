// Package resolve binds call sites to invocable callables.
//
// Methods are bound by name on the target's type; Go method names are
// unique per type, so binding reduces to lookup plus signature
// validation. Package-level functions are invisible to reflection, so
// callers register candidate variants under a name; when several
// variants share a name, Best selects the closest signature for the
// runtime argument values: an exact pass first, then a distance-scored
// compatibility pass that understands interface satisfaction, numeric
// kind equivalence and nil arguments.
package resolve
