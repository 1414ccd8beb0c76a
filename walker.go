package main

import "fmt"

// stmt walks one statement from env and returns the environment at its
// normal exit, or nil when control never falls out of it. Statements are
// not visited from an unreachable env, so dead code is not checked.
func (c *Checker) stmt(env *Env, n *ASTNode) *Env {
	if env == nil {
		return nil
	}

	switch n.Kind {
	case NodeBlock:
		return c.block(env, n)

	case NodeVar:
		return c.declaration(env, n)

	case NodeIf:
		t, f, _ := c.condition(env, n.Children[0])
		t = c.stmt(t, n.Children[1])
		if len(n.Children) == 3 {
			f = c.stmt(f, n.Children[2])
		}
		return JoinEnv(t, f)

	case NodeWhile, NodeDoWhile, NodeFor:
		return c.loop(env, n, nil)

	case NodeSwitch:
		return c.switchStmt(env, n, nil)

	case NodeLabel:
		return c.labeled(env, n)

	case NodeBreak, NodeContinue:
		c.jump(env, n)
		return nil

	case NodeReturn:
		c.returnStmt(env, n)
		return nil

	case NodeThrow:
		c.expr(env, n.Children[0])
		return nil

	case NodeNone:
		return env
	}

	env, _ = c.expr(env, n)
	return env
}

// block seeds the block's let and const bindings as void and drops them
// again on the way out.
func (c *Checker) block(env *Env, n *ASTNode) *Env {
	env = env.Seed(n.Scope, TypeVoid)
	c.pushScope(n.Scope)
	for _, s := range n.Children {
		env = c.stmt(env, s)
		if env == nil {
			break
		}
	}
	c.popScope(n.Scope)
	return env.Prune(n.Scope)
}

func (c *Checker) declaration(env *Env, n *ASTNode) *Env {
	b := n.Binding
	if len(n.Children) == 0 {
		if n.DeclKind == BindingVar {
			// var x; leaves the hoisted binding alone.
			return env
		}
		return env.Declare(b, TypeVoid)
	}

	env, t := c.expr(env, n.Children[0])
	if env == nil {
		return nil
	}
	if b.Annotated {
		c.expectType(n.Pos, fmt.Sprintf("declaration of '%s'", b.Name), t, b.Declared)
	}
	return env.Declare(b, storedType(b, t))
}

func (c *Checker) returnStmt(env *Env, n *ASTNode) {
	t := TypeVoid
	if len(n.Children) > 0 {
		env, t = c.expr(env, n.Children[0])
		if env == nil {
			return
		}
	}
	if c.fn.HasAnnotation {
		c.expectType(n.Pos, "return value", t, c.fn.Annotation)
	}
}

// labeled walks a chain of labels. Loops and switches take the labels as
// extra names for their own frame; any other statement gets a block frame
// that only labeled breaks can leave.
func (c *Checker) labeled(env *Env, n *ASTNode) *Env {
	var labels []string
	for n.Kind == NodeLabel {
		labels = append(labels, n.String)
		n = n.Children[0]
	}

	switch {
	case n.IsLoop():
		return c.loop(env, n, labels)
	case n.Kind == NodeSwitch:
		return c.switchStmt(env, n, labels)
	}

	f := c.pushFrame(frameBlock, labels)
	out := c.stmt(env, n)
	c.popFrame(f)
	return JoinAll(append([]*Env{out}, f.breaks...)...)
}
