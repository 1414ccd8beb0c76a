package main

// condition evaluates n as a branch condition. It returns the environment
// in which n is truthy, the one in which it is falsy, and the type of n.
// A side that cannot happen is nil.
func (c *Checker) condition(env *Env, n *ASTNode) (t, f *Env, typ Type) {
	if env == nil {
		return nil, nil, TypeBottom
	}

	switch n.Kind {
	case NodeNone:
		// for (;;)
		return env, nil, TypeAny

	case NodeBoolean:
		if n.Boolean {
			return env, nil, TypeBoolean
		}
		return nil, env, TypeBoolean

	case NodeUnary:
		if n.Op == "!" {
			t, f, _ := c.condition(env, n.Children[0])
			return f, t, TypeBoolean
		}

	case NodeBinary:
		switch n.Op {
		case "&&":
			lt, lf, ltyp := c.condition(env, n.Children[0])
			rt, rf, rtyp := c.condition(lt, n.Children[1])
			return rt, JoinEnv(lf, rf), Join(ltyp, rtyp)
		case "||":
			lt, lf, ltyp := c.condition(env, n.Children[0])
			rt, rf, rtyp := c.condition(lf, n.Children[1])
			return JoinEnv(lt, rt), rf, Join(ExcludeNullish(ltyp), rtyp)
		case "==", "!=", "===", "!==":
			out, typ := c.expr(env, n)
			if out == nil {
				return nil, nil, TypeBottom
			}
			t, f := equalityRefinement(out, n)
			return t, f, typ
		}

	case NodeIdent:
		out, typ := c.expr(env, n)
		return truthy(out, n.Binding), out, typ

	case NodeAssign:
		out, typ := c.expr(env, n)
		if out == nil {
			return nil, nil, TypeBottom
		}
		return truthy(out, n.Children[0].Binding), out, typ
	}

	out, typ := c.expr(env, n)
	return out, out, typ
}

// truthy narrows b to the values that can be truthy. Falsy values exist in
// every member (0, "", false), so the falsy side is not narrowed.
func truthy(env *Env, b *Binding) *Env {
	if env == nil {
		return nil
	}
	return env.Refine(b, ExcludeNullish(env.Lookup(b)))
}

// equalityRefinement splits env on an equality test between a reference
// and a literal, or between typeof of a reference and a type name. Any
// other comparison refines nothing.
func equalityRefinement(env *Env, n *ASTNode) (t, f *Env) {
	subject, other := n.Children[0], n.Children[1]
	if _, ok := literalType(subject); ok {
		subject, other = other, subject
	}

	negated := n.Op == "!=" || n.Op == "!=="
	strict := n.Op == "===" || n.Op == "!=="

	t, f = env, env
	switch {
	case subject.Kind == NodeIdent:
		if other.Kind == NodeNull || other.Kind == NodeUndefined {
			if strict {
				t, f = strictRefinement(env, subject.Binding, other)
			} else {
				cur := env.Lookup(subject.Binding)
				t = env.Refine(subject.Binding, OnlyNullish(cur))
				f = env.Refine(subject.Binding, ExcludeNullish(cur))
			}
		} else if strict {
			t, f = strictRefinement(env, subject.Binding, other)
		}

	case subject.Kind == NodeUnary && subject.Op == "typeof" &&
		subject.Children[0].Kind == NodeIdent && other.Kind == NodeString:
		m, ok := typeofMember(other.String)
		if !ok {
			break
		}
		b := subject.Children[0].Binding
		cur := env.Lookup(b)
		t = env.Refine(b, Only(cur, m))
		f = env.Refine(b, Exclude(cur, m))
	}

	if negated {
		return f, t
	}
	return t, f
}

// strictRefinement splits env on b === lit. null and undefined are the only
// values of their member, so both sides narrow; any other literal only
// narrows the side where the test holds.
func strictRefinement(env *Env, b *Binding, lit *ASTNode) (t, f *Env) {
	cur := env.Lookup(b)
	switch lit.Kind {
	case NodeNull:
		return env.Refine(b, OnlyNull(cur)), env.Refine(b, ExcludeNull(cur))
	case NodeUndefined:
		return env.Refine(b, OnlyVoid(cur)), env.Refine(b, ExcludeVoid(cur))
	}
	m, ok := literalType(lit)
	if !ok {
		return env, env
	}
	return env.Refine(b, Only(cur, m)), env
}

func typeofMember(name string) (Type, bool) {
	switch name {
	case "number":
		return TypeNumber, true
	case "string":
		return TypeString, true
	case "boolean":
		return TypeBoolean, true
	case "undefined":
		return TypeVoid, true
	}
	return TypeBottom, false
}
