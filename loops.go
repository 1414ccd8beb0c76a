package main

// LoopStat records how many passes the walker made over one loop and
// whether its head environment ended up covering the back-edge.
type LoopStat struct {
	Pos    Pos
	Passes int
	Stable bool
}

type loopPassResult struct {
	back *Env
	exit *Env
}

// loop walks a while, do-while or for loop.
//
// A first pass from the entry environment finds what the body does to the
// bindings it touches; its output is discarded. The head environment is
// the entry with every mutable binding assigned in the loop reset to its
// declared type, joined with that pass's back-edge. The body is then walked
// again from the head and only this pass is kept. If its back-edge still
// brings in types the head does not cover, the head is widened and the
// pass redone, up to MaxLoopPasses in total.
func (c *Checker) loop(env *Env, n *ASTNode, labels []string) *Env {
	if n.Kind == NodeFor {
		env = env.Seed(n.Scope, TypeVoid)
		c.pushScope(n.Scope)
		defer c.popScope(n.Scope)
		env = c.stmt(env, n.Children[0])
		if env == nil {
			return nil
		}
	}

	cp := c.mark()
	naive := c.loopPass(env, n, labels)
	c.rollback(cp)

	head := JoinEnv(env.Havoc(assignedBindings(n)), naive.back)
	passes := 1
	var res loopPassResult
	for {
		cp = c.mark()
		res = c.loopPass(head, n, labels)
		passes++
		if head.Covers(res.back) || passes >= c.cfg.MaxLoopPasses {
			break
		}
		c.rollback(cp)
		head = JoinEnv(head, res.back)
	}
	c.loops = append(c.loops, LoopStat{
		Pos:    n.Pos,
		Passes: passes,
		Stable: head.Covers(res.back),
	})

	if n.Kind == NodeFor {
		return res.exit.Prune(n.Scope)
	}
	return res.exit
}

// loopPass walks the loop once from head.
func (c *Checker) loopPass(head *Env, n *ASTNode, labels []string) loopPassResult {
	f := c.pushFrame(frameLoop, labels)
	var res loopPassResult

	switch n.Kind {
	case NodeWhile:
		t, exit, _ := c.condition(head, n.Children[0])
		end := c.stmt(t, n.Children[1])
		res.back = JoinAll(append([]*Env{end}, f.continues...)...)
		res.exit = exit

	case NodeDoWhile:
		end := c.stmt(head, n.Children[0])
		test := JoinAll(append([]*Env{end}, f.continues...)...)
		res.back, res.exit, _ = c.condition(test, n.Children[1])

	case NodeFor:
		t, exit, _ := c.condition(head, n.Children[1])
		end := c.stmt(t, n.Children[3])
		update := JoinAll(append([]*Env{end}, f.continues...)...)
		res.back, _ = c.expr(update, n.Children[2])
		res.exit = exit

	default:
		throwInternal("%s is not a loop", n.Kind)
	}

	c.popFrame(f)
	res.exit = JoinAll(append([]*Env{res.exit}, f.breaks...)...)
	return res
}

// assignedBindings lists the bindings a loop's condition, update or body
// may assign, in first-assignment order. Nested loops and both sides of
// every branch are included whether or not the walker can reach them.
func assignedBindings(loop *ASTNode) []*Binding {
	var assigned []*Binding
	seen := make(map[*Binding]bool)
	add := func(b *Binding) {
		if b != nil && !seen[b] {
			seen[b] = true
			assigned = append(assigned, b)
		}
	}

	var visit func(n *ASTNode)
	visit = func(n *ASTNode) {
		switch n.Kind {
		case NodeAssign, NodeUpdate:
			add(n.Children[0].Binding)
		case NodeVar:
			if len(n.Children) > 0 {
				add(n.Binding)
			}
		}
		for _, child := range n.Children {
			visit(child)
		}
	}

	children := loop.Children
	if loop.Kind == NodeFor {
		// The initializer runs once, before the head.
		children = children[1:]
	}
	for _, child := range children {
		visit(child)
	}
	return assigned
}
