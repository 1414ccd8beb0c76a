package main

import (
	"maps"
	"slices"
	"strings"
)

// Env maps each live binding to its refined type at one program point.
//
// An Env is never modified after it is returned: every operation builds a
// new one, so the environments of diverging paths cannot interfere. A nil
// *Env stands for an unreachable point; all methods accept it.
type Env struct {
	types map[*Binding]Type
}

func NewEnv() *Env {
	return &Env{types: make(map[*Binding]Type)}
}

func (e *Env) clone() *Env {
	return &Env{types: maps.Clone(e.types)}
}

// Reachable reports whether any path reaches this point.
func (e *Env) Reachable() bool {
	return e != nil
}

// Lookup returns the refined type of b. Every binding is seeded when its
// scope is entered, so a missing binding is an internal failure.
func (e *Env) Lookup(b *Binding) Type {
	if e == nil {
		throwInternal("lookup of '%s' at an unreachable point", b.Name)
	}
	t, ok := e.types[b]
	if !ok {
		throwInternal("binding '%s' is not in the environment", b.Name)
	}
	return t
}

func (e *Env) Has(b *Binding) bool {
	if e == nil {
		return false
	}
	_, ok := e.types[b]
	return ok
}

// Refine returns an environment in which b has type t. Refining to the
// empty type makes the point unreachable.
func (e *Env) Refine(b *Binding, t Type) *Env {
	if e == nil {
		return nil
	}
	if t == TypeBottom {
		return nil
	}
	if !e.Has(b) {
		throwInternal("refinement of '%s', which is not in the environment", b.Name)
	}
	if e.types[b] == t {
		return e
	}
	next := e.clone()
	next.types[b] = t
	return next
}

// Declare seeds b with t, whether or not b was already present.
func (e *Env) Declare(b *Binding, t Type) *Env {
	if e == nil {
		return nil
	}
	next := e.clone()
	next.types[b] = t
	return next
}

// Seed declares every binding of scope with t, unless it is already
// present.
func (e *Env) Seed(scope *Scope, t Type) *Env {
	if e == nil || scope == nil || len(scope.Bindings) == 0 {
		return e
	}
	next := e.clone()
	for _, b := range scope.Bindings {
		if _, ok := next.types[b]; !ok {
			next.types[b] = t
		}
	}
	return next
}

// Prune drops the bindings of scope. It is applied when control leaves a
// block.
func (e *Env) Prune(scope *Scope) *Env {
	if e == nil || scope == nil || len(scope.Bindings) == 0 {
		return e
	}
	next := e.clone()
	for _, b := range scope.Bindings {
		delete(next.types, b)
	}
	return next
}

// Havoc resets every mutable binding in bindings to its declared type.
// Immutable bindings keep their refinement; bindings not in e are ignored.
func (e *Env) Havoc(bindings []*Binding) *Env {
	if e == nil {
		return nil
	}
	var next *Env
	for _, b := range bindings {
		if b.Mutability == Immutable {
			continue
		}
		t, ok := e.types[b]
		if !ok || t == b.Declared {
			continue
		}
		if next == nil {
			next = e.clone()
		}
		next.types[b] = b.Declared
	}
	if next == nil {
		return e
	}
	return next
}

// JoinEnv merges the environments of two paths reaching the same point.
// A binding present on only one side belongs to a block the other path
// never entered (a let inside one case, say) and is dropped. Function-scope
// bindings are seeded on entry and must be on both sides.
func JoinEnv(a, b *Env) *Env {
	if a == nil {
		return b
	}
	if b == nil || a == b {
		return a
	}
	joined := NewEnv()
	for binding, ta := range a.types {
		tb, ok := b.types[binding]
		if !ok {
			checkDroppable(binding)
			continue
		}
		joined.types[binding] = Join(ta, tb)
	}
	for binding := range b.types {
		if _, ok := a.types[binding]; !ok {
			checkDroppable(binding)
		}
	}
	return joined
}

func checkDroppable(b *Binding) {
	if b.Scope == nil || b.Scope.Kind == ScopeFunction {
		throwInternal("function-scope binding '%s' missing on one side of a join", b.Name)
	}
}

// JoinAll folds JoinEnv over envs.
func JoinAll(envs ...*Env) *Env {
	var joined *Env
	for _, e := range envs {
		joined = JoinEnv(joined, e)
	}
	return joined
}

// Equal reports whether both environments hold the same bindings with the
// same types.
func (e *Env) Equal(other *Env) bool {
	if e == nil || other == nil {
		return e == other
	}
	return maps.Equal(e.types, other.types)
}

// Covers reports whether every binding e shares with other has a type in
// other that e already accounts for. A type that escapes the binding's
// declared type has already been reported where it was assigned and does
// not count.
func (e *Env) Covers(other *Env) bool {
	if other == nil {
		return true
	}
	if e == nil {
		return false
	}
	for b, t := range e.types {
		ot, ok := other.types[b]
		if !ok || Subtype(ot, t) {
			continue
		}
		if b.Mutability == Mutable && !Subtype(ot, b.Declared) {
			continue
		}
		return false
	}
	return true
}

// Bindings returns the bindings of e ordered by declaration.
func (e *Env) Bindings() []*Binding {
	if e == nil {
		return nil
	}
	bindings := slices.Collect(maps.Keys(e.types))
	slices.SortFunc(bindings, func(a, b *Binding) int {
		return a.ID - b.ID
	})
	return bindings
}

func (e *Env) String() string {
	if e == nil {
		return "unreachable"
	}
	var parts []string
	for _, b := range e.Bindings() {
		parts = append(parts, b.Name+": "+e.types[b].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
