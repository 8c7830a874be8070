package resolve

import (
	"fmt"
	"reflect"

	"github.com/kbukum/rerun/errors"
)

// TargetMethod binds the exported method name on target. Method names
// are unique per type, so no overload selection applies here; the
// bound signature must still accept the given argument count.
//
// When target is a non-pointer value the lookup falls back to the
// method set of an addressable copy, so pointer-receiver methods bind
// too. Unexported methods are invisible to reflection and fail the
// binding.
func TargetMethod(target any, name string, args []any) (*Callable, error) {
	if target == nil {
		return nil, errors.ResolutionFailed(name, fmt.Errorf("nil target"))
	}

	v := reflect.ValueOf(target)
	m := v.MethodByName(name)
	if !m.IsValid() && v.Kind() != reflect.Pointer {
		pv := reflect.New(v.Type())
		pv.Elem().Set(v)
		m = pv.MethodByName(name)
	}
	if !m.IsValid() {
		return nil, errors.ResolutionFailed(name,
			fmt.Errorf("%s has no exported method %s", v.Type(), name))
	}

	c, err := NewCallable(name, m)
	if err != nil {
		return nil, err
	}
	if !c.Accepts(len(args)) {
		return nil, errors.ArgumentMismatch(name, len(args),
			fmt.Sprintf("method %s takes %d parameter(s)", c.typ.String(), c.NumParams()))
	}
	return c, nil
}
