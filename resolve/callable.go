package resolve

import (
	"fmt"
	"reflect"
	"runtime"
	"runtime/debug"

	"github.com/kbukum/rerun/errors"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Callable is a bound, invocable function or method together with the
// metadata the engine needs for diagnostics.
type Callable struct {
	name     string
	fn       reflect.Value
	typ      reflect.Type
	file     string
	line     int
	errIndex int // index of the trailing error result, -1 if none
}

// PanicError wraps a panic raised by an attempt so the retry loop can
// treat it as a failure and still re-raise the original value on
// exhaustion.
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// NewCallable wraps fn, which must be a func value.
func NewCallable(name string, fn reflect.Value) (*Callable, error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, errors.ResolutionFailed(name, fmt.Errorf("not a func: %v", fn.Kind()))
	}
	t := fn.Type()

	errIdx := -1
	if t.NumOut() > 0 && t.Out(t.NumOut()-1) == errType {
		errIdx = t.NumOut() - 1
	}

	c := &Callable{
		name:     name,
		fn:       fn,
		typ:      t,
		errIndex: errIdx,
	}
	if pc := fn.Pointer(); pc != 0 {
		if f := runtime.FuncForPC(pc); f != nil {
			c.file, c.line = f.FileLine(pc)
		}
	}
	return c, nil
}

// Name returns the bare callable name, for example "Pull".
func (c *Callable) Name() string { return c.name }

// NumParams returns the declared parameter count (a variadic slice
// counts as one).
func (c *Callable) NumParams() int { return c.typ.NumIn() }

// Variadic reports whether the callable's last parameter is variadic.
func (c *Callable) Variadic() bool { return c.typ.IsVariadic() }

// Signature renders the callable's type for diagnostics.
func (c *Callable) Signature() string {
	return fmt.Sprintf("%s %s", c.name, c.typ.String())
}

// Location returns the file and line of the callable's definition.
func (c *Callable) Location() (string, int) { return c.file, c.line }

// Accepts reports whether the callable can take n arguments.
func (c *Callable) Accepts(n int) bool {
	if c.typ.IsVariadic() {
		return n >= c.typ.NumIn()-1
	}
	return n == c.typ.NumIn()
}

// Call invokes the callable with the given argument values, splitting
// the results from the trailing error. Panics raised by the callable
// (or by argument binding) are captured as *PanicError.
func (c *Callable) Call(args []any) (results []any, err error) {
	in, err := c.buildArgs(args)
	if err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			results = nil
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()

	out := c.fn.Call(in)

	if c.errIndex >= 0 {
		if e := out[c.errIndex]; !e.IsNil() {
			err = e.Interface().(error)
		}
		out = out[:c.errIndex]
	}
	results = make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, err
}

// buildArgs adapts the runtime argument values to the callable's
// parameter types. Nil arguments become the zero value of nilable
// parameter kinds; numeric values are converted across kinds and named
// types. Arguments that cannot be adapted yield ARGUMENT_MISMATCH.
func (c *Callable) buildArgs(args []any) ([]reflect.Value, error) {
	if !c.Accepts(len(args)) {
		return nil, errors.ArgumentMismatch(c.name, len(args),
			fmt.Sprintf("callable takes %d parameter(s)", c.typ.NumIn()))
	}

	fixed := c.typ.NumIn()
	if c.typ.IsVariadic() {
		fixed--
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		if i < fixed {
			pt = c.typ.In(i)
		} else {
			pt = c.typ.In(c.typ.NumIn() - 1).Elem()
		}
		v, err := adaptArg(a, pt, c.name, i)
		if err != nil {
			return nil, err
		}
		in[i] = v
	}
	return in, nil
}

func adaptArg(a any, pt reflect.Type, callable string, pos int) (reflect.Value, error) {
	if a == nil {
		if nilable(pt.Kind()) {
			return reflect.Zero(pt), nil
		}
		return reflect.Value{}, errors.ArgumentMismatch(callable, pos, "nil is not assignable to "+pt.String())
	}

	av := reflect.ValueOf(a)
	at := av.Type()
	switch {
	case at.AssignableTo(pt):
		return av, nil
	case numericKind(at.Kind()) && numericKind(pt.Kind()) && at.ConvertibleTo(pt):
		return av.Convert(pt), nil
	case at.Kind() == pt.Kind() && at.ConvertibleTo(pt):
		// named type with the same underlying shape
		return av.Convert(pt), nil
	default:
		return reflect.Value{}, errors.ArgumentMismatch(callable, pos, at.String()+" is not assignable to "+pt.String())
	}
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map,
		reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

func numericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
