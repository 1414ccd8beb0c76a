package main

import (
	"errors"
	"fmt"
)

// Resolve links every identifier of program to its binding, records the
// scope opened by each block, for and switch, validates break and continue
// targets, and gives unannotated bindings a declared type inferred from
// every value assigned to them.
func Resolve(program *ASTNode) error {
	var errs []error
	for _, fn := range program.Children {
		r := &resolver{
			st:            NewSymbolTable(),
			sources:       make(map[*Binding][]*ASTNode),
			uninitialized: make(map[*Binding]bool),
			updated:       make(map[*Binding]bool),
		}
		r.function(fn)
		if len(r.errs) == 0 {
			r.inferDeclaredTypes()
		}
		errs = append(errs, r.errs...)
	}
	return errors.Join(errs...)
}

type targetKind int

const (
	targetLoop targetKind = iota
	targetSwitch
	targetBlock
)

// jumpTarget is a statement break or continue can leave. Labels and the
// unlabeled loop or switch each get an entry.
type jumpTarget struct {
	label string
	kind  targetKind
}

type resolver struct {
	st      *SymbolTable
	errs    []error
	targets []jumpTarget

	// Values assigned to each binding, including initializers.
	sources       map[*Binding][]*ASTNode
	uninitialized map[*Binding]bool
	updated       map[*Binding]bool
}

func (r *resolver) errorf(n *ASTNode, format string, args ...any) {
	r.errs = append(r.errs, fmt.Errorf("line %s: %s", n.Pos, fmt.Sprintf(format, args...)))
}

func (r *resolver) function(fn *ASTNode) {
	fn.Scope = r.st.FunctionScope()
	for _, p := range fn.Params {
		b, err := r.st.DeclareVariable(p.String, BindingParam, p.Pos)
		if err != nil {
			r.errorf(p, "%v", err)
			continue
		}
		b.Declared = TypeAny
		if p.HasAnnotation {
			b.Declared = p.Annotation
			b.Annotated = true
		}
		p.Binding = b
	}
	r.hoistVars(fn.Children[0])
	r.stmt(fn.Children[0])
}

// hoistVars declares every var of the function body in the function scope
// before anything is resolved, so references may precede the declaration.
func (r *resolver) hoistVars(n *ASTNode) {
	switch n.Kind {
	case NodeVar:
		if n.DeclKind != BindingVar {
			return
		}
		b, err := r.st.DeclareVariable(n.String, BindingVar, n.Pos)
		if err != nil {
			r.errorf(n, "%v", err)
			return
		}
		if !n.HasAnnotation {
			return
		}
		if b.Annotated && b.Declared != n.Annotation {
			r.errorf(n, "conflicting annotations for '%s': %s and %s", n.String, b.Declared, n.Annotation)
			return
		}
		b.Declared = n.Annotation
		b.Annotated = true
	case NodeBlock, NodeLabel:
		for _, child := range n.Children {
			r.hoistVars(child)
		}
	case NodeIf:
		for _, child := range n.Children[1:] {
			r.hoistVars(child)
		}
	case NodeWhile:
		r.hoistVars(n.Children[1])
	case NodeDoWhile:
		r.hoistVars(n.Children[0])
	case NodeFor:
		r.hoistVars(n.Children[0])
		r.hoistVars(n.Children[3])
	case NodeSwitch:
		for _, c := range n.Children[1:] {
			for _, stmt := range c.Children[1:] {
				r.hoistVars(stmt)
			}
		}
	}
}

func (r *resolver) stmt(n *ASTNode) {
	switch n.Kind {
	case NodeBlock:
		n.Scope = r.st.PushScope()
		for _, child := range n.Children {
			r.stmt(child)
		}
		r.st.PopScope()

	case NodeVar:
		r.declaration(n)

	case NodeIf:
		r.expr(n.Children[0])
		for _, child := range n.Children[1:] {
			r.stmt(child)
		}

	case NodeWhile:
		r.expr(n.Children[0])
		r.loopBody(n.Children[1])

	case NodeDoWhile:
		r.loopBody(n.Children[0])
		r.expr(n.Children[1])

	case NodeFor:
		n.Scope = r.st.PushScope()
		r.stmt(n.Children[0])
		r.expr(n.Children[1])
		r.expr(n.Children[2])
		r.loopBody(n.Children[3])
		r.st.PopScope()

	case NodeSwitch:
		r.expr(n.Children[0])
		n.Scope = r.st.PushScope()
		r.targets = append(r.targets, jumpTarget{kind: targetSwitch})
		for _, c := range n.Children[1:] {
			r.expr(c.Children[0])
			for _, stmt := range c.Children[1:] {
				r.stmt(stmt)
			}
		}
		r.targets = r.targets[:len(r.targets)-1]
		r.st.PopScope()

	case NodeLabel:
		for _, t := range r.targets {
			if t.label == n.String {
				r.errorf(n, "label '%s' is already in use", n.String)
			}
		}
		r.targets = append(r.targets, jumpTarget{label: n.String, kind: labeledKind(n)})
		r.stmt(n.Children[0])
		r.targets = r.targets[:len(r.targets)-1]

	case NodeBreak:
		if _, ok := r.findTarget(n.String, false); !ok {
			if n.String == "" {
				r.errorf(n, "break outside of a loop or switch")
			} else {
				r.errorf(n, "undefined label '%s'", n.String)
			}
		}

	case NodeContinue:
		t, ok := r.findTarget(n.String, true)
		switch {
		case !ok && n.String == "":
			r.errorf(n, "continue outside of a loop")
		case !ok:
			r.errorf(n, "undefined label '%s'", n.String)
		case t.kind != targetLoop:
			r.errorf(n, "continue target '%s' is not a loop", n.String)
		}

	case NodeReturn, NodeThrow:
		for _, child := range n.Children {
			r.expr(child)
		}

	case NodeNone:

	default:
		r.expr(n)
	}
}

func (r *resolver) loopBody(body *ASTNode) {
	r.targets = append(r.targets, jumpTarget{kind: targetLoop})
	r.stmt(body)
	r.targets = r.targets[:len(r.targets)-1]
}

// labeledKind is the kind of statement a chain of labels ends in.
func labeledKind(n *ASTNode) targetKind {
	for n.Kind == NodeLabel {
		n = n.Children[0]
	}
	switch {
	case n.IsLoop():
		return targetLoop
	case n.Kind == NodeSwitch:
		return targetSwitch
	}
	return targetBlock
}

// findTarget looks up the statement a jump leaves. Unlabeled continue needs
// a loop; unlabeled break needs a loop or a switch.
func (r *resolver) findTarget(label string, isContinue bool) (jumpTarget, bool) {
	for i := len(r.targets) - 1; i >= 0; i-- {
		t := r.targets[i]
		if label != "" {
			if t.label == label {
				return t, true
			}
			continue
		}
		if t.label != "" {
			continue
		}
		if !isContinue || t.kind == targetLoop {
			return t, true
		}
	}
	return jumpTarget{}, false
}

func (r *resolver) declaration(n *ASTNode) {
	var init *ASTNode
	if len(n.Children) > 0 {
		init = n.Children[0]
		r.expr(init)
	}

	var b *Binding
	if n.DeclKind == BindingVar {
		b = r.st.FunctionScope().names[n.String]
		if b == nil {
			// hoistVars already reported the conflict.
			return
		}
	} else {
		var err error
		b, err = r.st.DeclareVariable(n.String, n.DeclKind, n.Pos)
		if err != nil {
			r.errorf(n, "%v", err)
			return
		}
		if n.HasAnnotation {
			b.Declared = n.Annotation
			b.Annotated = true
		}
	}
	n.Binding = b

	switch {
	case init != nil:
		r.sources[b] = append(r.sources[b], init)
	case n.DeclKind == BindingConst:
		r.errorf(n, "const '%s' must be initialized", n.String)
	default:
		r.uninitialized[b] = true
	}
}

func (r *resolver) expr(n *ASTNode) {
	switch n.Kind {
	case NodeIdent:
		b := r.st.LookupVariable(n.String)
		if b == nil {
			r.errorf(n, "variable '%s' not declared", n.String)
			return
		}
		n.Binding = b

	case NodeAssign:
		r.expr(n.Children[1])
		if b := r.target(n.Children[0]); b != nil {
			r.sources[b] = append(r.sources[b], n.Children[1])
		}

	case NodeUpdate:
		if b := r.target(n.Children[0]); b != nil {
			r.updated[b] = true
		}

	default:
		for _, child := range n.Children {
			r.expr(child)
		}
	}
}

func (r *resolver) target(ident *ASTNode) *Binding {
	r.expr(ident)
	b := ident.Binding
	if b != nil && b.Mutability == Immutable {
		r.errorf(ident, "cannot assign to const '%s'", b.Name)
		return nil
	}
	return b
}

// inferDeclaredTypes computes the declared type of every unannotated
// binding as the join of the static types of all values assigned to it,
// plus void when it may be read before any assignment. Static types of
// references use the current estimate, so this iterates to a fixpoint;
// the lattice is finite and the estimates only grow.
func (r *resolver) inferDeclaredTypes() {
	estimate := make(map[*Binding]Type)
	var inferred []*Binding
	for _, b := range r.st.Bindings() {
		if b.Annotated || b.Kind == BindingParam {
			continue
		}
		inferred = append(inferred, b)
		var t Type
		if r.uninitialized[b] {
			t |= TypeVoid
		}
		if r.updated[b] {
			t |= TypeNumber
		}
		estimate[b] = t
	}

	declared := func(b *Binding) Type {
		if t, ok := estimate[b]; ok {
			return t
		}
		return b.Declared
	}

	for changed := true; changed; {
		changed = false
		for _, b := range inferred {
			t := estimate[b]
			for _, src := range r.sources[b] {
				t |= staticType(src, declared)
			}
			if t != estimate[b] {
				estimate[b] = t
				changed = true
			}
		}
	}

	for _, b := range inferred {
		b.Declared = estimate[b]
		if b.Declared == TypeBottom {
			// Only self-referential assignments; nothing is known.
			b.Declared = TypeAny
		}
	}
}

// staticType is the flow-insensitive type of an expression, reading each
// reference as its binding's declared type.
func staticType(n *ASTNode, declared func(*Binding) Type) Type {
	switch n.Kind {
	case NodeInteger:
		return TypeNumber
	case NodeString:
		return TypeString
	case NodeBoolean:
		return TypeBoolean
	case NodeNull:
		return TypeNull
	case NodeUndefined:
		return TypeVoid
	case NodeIdent:
		if n.Binding == nil {
			return TypeAny
		}
		return declared(n.Binding)
	case NodeBinary:
		l := staticType(n.Children[0], declared)
		r := staticType(n.Children[1], declared)
		switch n.Op {
		case "&&":
			return Join(l, r)
		case "||":
			return Join(ExcludeNullish(l), r)
		}
		return binaryResultType(n.Op, l, r)
	case NodeUnary:
		return unaryResultType(n.Op)
	case NodeCond:
		return Join(staticType(n.Children[1], declared), staticType(n.Children[2], declared))
	case NodeCall:
		if n.HasAnnotation {
			return n.Annotation
		}
		return TypeAny
	case NodeAssign:
		return staticType(n.Children[1], declared)
	case NodeUpdate:
		return TypeNumber
	}
	return TypeAny
}
