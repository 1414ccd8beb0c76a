package main

import "fmt"

// binaryResultType is the type produced by an arithmetic or comparison
// operator. && and || depend on the refinements of their left operand and
// are handled by condition.
func binaryResultType(op string, l, r Type) Type {
	switch op {
	case "==", "!=", "===", "!==", "<", ">", "<=", ">=":
		return TypeBoolean
	case "+":
		switch {
		case l == TypeString || r == TypeString:
			return TypeString
		case (l|r)&(TypeString|TypeAny) == 0:
			return TypeNumber
		}
		return TypeNumber | TypeString
	}
	return TypeNumber
}

// storedType is the type b holds after a value of type t is stored in it.
// An opaque value stored in an annotated binding is taken to match the
// annotation.
func storedType(b *Binding, t Type) Type {
	if b.Annotated && t&TypeAny != 0 {
		return b.Declared
	}
	return t
}

func unaryResultType(op string) Type {
	switch op {
	case "!":
		return TypeBoolean
	case "typeof":
		return TypeString
	case "void":
		return TypeVoid
	}
	return TypeNumber
}

func literalType(n *ASTNode) (Type, bool) {
	switch n.Kind {
	case NodeInteger:
		return TypeNumber, true
	case NodeString:
		return TypeString, true
	case NodeBoolean:
		return TypeBoolean, true
	case NodeNull:
		return TypeNull, true
	case NodeUndefined:
		return TypeVoid, true
	}
	return TypeBottom, false
}

// expr evaluates n in env and returns the environment after its side
// effects together with its type. An unreachable env yields an unreachable
// env and the empty type; nothing inside it is recorded.
func (c *Checker) expr(env *Env, n *ASTNode) (*Env, Type) {
	if env == nil {
		return nil, TypeBottom
	}
	if t, ok := literalType(n); ok {
		return env, t
	}

	switch n.Kind {
	case NodeNone:
		return env, TypeAny

	case NodeIdent:
		t := env.Lookup(n.Binding)
		c.record(n, t)
		return env, t

	case NodeBinary:
		if n.Op == "&&" || n.Op == "||" {
			t, f, typ := c.condition(env, n)
			return JoinEnv(t, f), typ
		}
		env, l := c.expr(env, n.Children[0])
		env, r := c.expr(env, n.Children[1])
		if env == nil {
			return nil, TypeBottom
		}
		return env, binaryResultType(n.Op, l, r)

	case NodeUnary:
		if n.Op == "!" {
			t, f, _ := c.condition(env, n.Children[0])
			return JoinEnv(t, f), TypeBoolean
		}
		env, _ = c.expr(env, n.Children[0])
		if env == nil {
			return nil, TypeBottom
		}
		return env, unaryResultType(n.Op)

	case NodeCond:
		t, f, _ := c.condition(env, n.Children[0])
		te, tt := c.expr(t, n.Children[1])
		fe, ft := c.expr(f, n.Children[2])
		return JoinEnv(te, fe), Join(tt, ft)

	case NodeCall:
		return c.call(env, n)

	case NodeAssign:
		env, t := c.expr(env, n.Children[1])
		if env == nil {
			return nil, TypeBottom
		}
		b := n.Children[0].Binding
		c.expectType(n.Pos, fmt.Sprintf("assignment to '%s'", b.Name), t, b.Declared)
		return env.Refine(b, storedType(b, t)), t

	case NodeUpdate:
		target := n.Children[0]
		c.record(target, env.Lookup(target.Binding))
		c.expectType(n.Pos, fmt.Sprintf("update of '%s'", target.String), TypeNumber, target.Binding.Declared)
		return env.Refine(target.Binding, TypeNumber), TypeNumber
	}

	throwInternal("unexpected %s in expression position", n.Kind)
	return nil, TypeBottom
}

func (c *Checker) call(env *Env, n *ASTNode) (*Env, Type) {
	env, _ = c.expr(env, n.Children[0])
	for i, arg := range n.Children[1:] {
		var t Type
		env, t = c.expr(env, arg)
		if env == nil {
			return nil, TypeBottom
		}
		if i < len(n.ParamTypes) {
			c.expectType(arg.Pos, fmt.Sprintf("argument %d of call", i+1), t, n.ParamTypes[i])
		}
	}
	if env == nil {
		return nil, TypeBottom
	}
	if n.HasAnnotation {
		return env, n.Annotation
	}
	return env, TypeAny
}

// expectType reports actual flowing into a use site that requires
// expected. With ReportEachMember every incompatible member of a union is
// its own diagnostic.
func (c *Checker) expectType(pos Pos, context string, actual, expected Type) {
	if Subtype(actual, expected) {
		return
	}
	d := Diagnostic{
		Pos:      pos,
		Function: c.fn.String,
		Context:  context,
		Actual:   actual,
		Expected: expected,
	}
	if !c.cfg.ReportEachMember {
		d.Member = actual
		c.diags.Add(d)
		return
	}
	for _, m := range actual.Members() {
		if !Subtype(m, expected) {
			d.Member = m
			c.diags.Add(d)
		}
	}
}
