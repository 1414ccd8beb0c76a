package main

import "fmt"

// Mutability says whether a binding can be reassigned after its
// declaration. Immutable bindings keep their refinements across loop
// back-edges.
type Mutability int

const (
	Mutable Mutability = iota
	Immutable
)

func (m Mutability) String() string {
	if m == Immutable {
		return "immutable"
	}
	return "mutable"
}

// BindingKind is the declaration form that introduced a binding.
type BindingKind string

const (
	BindingVar   BindingKind = "var"
	BindingLet   BindingKind = "let"
	BindingConst BindingKind = "const"
	BindingParam BindingKind = "param"
)

// ScopeKind distinguishes the function scope, where var and parameters
// live, from block scopes, where let and const live.
type ScopeKind int

const (
	ScopeFunction ScopeKind = iota
	ScopeBlock
)

// Binding is one variable's storage slot.
type Binding struct {
	ID         int
	Name       string
	Kind       BindingKind
	Declared   Type
	Annotated  bool
	Mutability Mutability
	Scope      *Scope
	Pos        Pos
}

func (b *Binding) String() string {
	return fmt.Sprintf("%s %s: %s", b.Kind, b.Name, b.Declared)
}

// Scope is a lexical scope. Bindings are listed in declaration order.
type Scope struct {
	Kind     ScopeKind
	Parent   *Scope
	Bindings []*Binding
	names    map[string]*Binding
}

func newScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{
		Kind:   kind,
		Parent: parent,
		names:  make(map[string]*Binding),
	}
}

// SymbolTable tracks the scopes of a single function while it is being
// resolved.
type SymbolTable struct {
	function *Scope
	current  *Scope
	bindings []*Binding
}

func NewSymbolTable() *SymbolTable {
	fn := newScope(ScopeFunction, nil)
	return &SymbolTable{
		function: fn,
		current:  fn,
	}
}

// FunctionScope returns the scope holding parameters and var bindings.
func (st *SymbolTable) FunctionScope() *Scope {
	return st.function
}

// CurrentScope returns the innermost open scope.
func (st *SymbolTable) CurrentScope() *Scope {
	return st.current
}

// Bindings returns every binding declared so far, in declaration order.
func (st *SymbolTable) Bindings() []*Binding {
	return st.bindings
}

func (st *SymbolTable) PushScope() *Scope {
	st.current = newScope(ScopeBlock, st.current)
	return st.current
}

func (st *SymbolTable) PopScope() {
	if st.current.Parent == nil {
		panic("PopScope: cannot pop the function scope")
	}
	st.current = st.current.Parent
}

// DeclareVariable declares name in the scope its kind belongs to. Repeated
// var declarations name the same binding, and a var may redeclare a
// parameter; a let or const may not share a scope with another binding of
// the same name.
func (st *SymbolTable) DeclareVariable(name string, kind BindingKind, pos Pos) (*Binding, error) {
	scope := st.current
	if kind == BindingVar || kind == BindingParam {
		scope = st.function
	}

	if existing, ok := scope.names[name]; ok {
		if kind == BindingVar && (existing.Kind == BindingVar || existing.Kind == BindingParam) {
			return existing, nil
		}
		return nil, fmt.Errorf("error: variable '%s' already declared", name)
	}

	mutability := Mutable
	if kind == BindingConst {
		mutability = Immutable
	}
	b := &Binding{
		ID:         len(st.bindings),
		Name:       name,
		Kind:       kind,
		Mutability: mutability,
		Scope:      scope,
		Pos:        pos,
	}
	scope.names[name] = b
	scope.Bindings = append(scope.Bindings, b)
	st.bindings = append(st.bindings, b)
	return b, nil
}

// LookupVariable finds the innermost binding for name, or nil.
func (st *SymbolTable) LookupVariable(name string) *Binding {
	for s := st.current; s != nil; s = s.Parent {
		if b, ok := s.names[name]; ok {
			return b
		}
	}
	return nil
}
