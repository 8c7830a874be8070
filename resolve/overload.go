package resolve

import (
	"reflect"
	"sort"

	"github.com/kbukum/rerun/errors"
)

const incompatible = -1

// Best selects the candidate whose signature is closest to the runtime
// argument values. Selection is deterministic:
//
//  1. Candidates that cannot accept len(args) arguments are dropped.
//  2. An exact pass returns the first candidate whose every parameter
//     matches the argument's dynamic type identically (numeric kinds
//     of the same width count as identical). A nil argument has no
//     dynamic type and disqualifies the exact pass.
//  3. A distance pass scores the remaining candidates per position:
//     identical or same-kind numeric costs 0, satisfaction of a
//     non-empty interface or a shared underlying type costs 1, the
//     empty interface or a cross-kind numeric conversion costs 2.
//     A nil argument costs its parameter type's rank in the
//     candidates' specificity chain when that chain is linear, and
//     nothing otherwise. Lowest total wins; ties go to the first
//     candidate in registration order.
func Best(name string, candidates []*Callable, args []any) (*Callable, error) {
	var viable []*Callable
	for _, c := range candidates {
		if c.Accepts(len(args)) {
			viable = append(viable, c)
		}
	}
	if len(viable) == 0 {
		return nil, errors.NoCandidate(name, len(args))
	}
	if len(viable) == 1 {
		return viable[0], nil
	}

	argTypes := make([]reflect.Type, len(args))
	for i, a := range args {
		if a != nil {
			argTypes[i] = reflect.TypeOf(a)
		}
	}

	for _, c := range viable {
		if exactMatch(c, argTypes) {
			return c, nil
		}
	}

	type scored struct {
		c    *Callable
		cost int
	}
	var compat []scored
	for _, c := range viable {
		cost, ok := 0, true
		for i, at := range argTypes {
			if at == nil {
				continue // nil positions are ranked below
			}
			d := distance(at, c.paramType(i))
			if d == incompatible {
				ok = false
				break
			}
			cost += d
		}
		if ok {
			compat = append(compat, scored{c, cost})
		}
	}
	if len(compat) == 0 {
		return nil, errors.NoCandidate(name, len(args))
	}

	for i, at := range argTypes {
		if at != nil {
			continue
		}
		types := make([]reflect.Type, len(compat))
		for j, s := range compat {
			types[j] = s.c.paramType(i)
		}
		chain := specificityChain(types)
		if chain == nil {
			continue // no linear ordering, nil carries no cost here
		}
		for j := range compat {
			compat[j].cost += chainRank(chain, compat[j].c.paramType(i))
		}
	}

	best := compat[0]
	for _, s := range compat[1:] {
		if s.cost < best.cost {
			best = s
		}
	}
	return best.c, nil
}

// paramType returns the effective parameter type for argument position
// i, flattening a variadic tail to its element type.
func (c *Callable) paramType(i int) reflect.Type {
	t := c.typ
	if t.IsVariadic() && i >= t.NumIn()-1 {
		return t.In(t.NumIn() - 1).Elem()
	}
	return t.In(i)
}

func exactMatch(c *Callable, argTypes []reflect.Type) bool {
	for i, at := range argTypes {
		if at == nil {
			return false
		}
		pt := c.paramType(i)
		if at == pt {
			continue
		}
		if numericKind(at.Kind()) && at.Kind() == pt.Kind() {
			continue
		}
		return false
	}
	return true
}

func distance(at, pt reflect.Type) int {
	if at == pt {
		return 0
	}
	if numericKind(at.Kind()) && numericKind(pt.Kind()) {
		if at.Kind() == pt.Kind() {
			return 0
		}
		if at.ConvertibleTo(pt) {
			return 2
		}
		return incompatible
	}
	if pt.Kind() == reflect.Interface {
		if pt.NumMethod() == 0 {
			return 2
		}
		if at.AssignableTo(pt) {
			return 1
		}
		return incompatible
	}
	if at.AssignableTo(pt) {
		return 1
	}
	if at.Kind() == pt.Kind() && at.ConvertibleTo(pt) {
		return 1
	}
	return incompatible
}

// specificityChain orders the distinct parameter types from most to
// least specific. It returns nil when the types do not form a linear
// assignability chain.
func specificityChain(types []reflect.Type) []reflect.Type {
	var uniq []reflect.Type
	for _, t := range types {
		seen := false
		for _, u := range uniq {
			if u == t {
				seen = true
				break
			}
		}
		if !seen {
			uniq = append(uniq, t)
		}
	}
	if len(uniq) < 2 {
		return uniq
	}
	sort.SliceStable(uniq, func(i, j int) bool {
		return uniq[i].AssignableTo(uniq[j]) && !uniq[j].AssignableTo(uniq[i])
	})
	for i := 0; i < len(uniq)-1; i++ {
		if !uniq[i].AssignableTo(uniq[i+1]) {
			return nil
		}
	}
	return uniq
}

func chainRank(chain []reflect.Type, t reflect.Type) int {
	for i, u := range chain {
		if u == t {
			return i
		}
	}
	return len(chain)
}
