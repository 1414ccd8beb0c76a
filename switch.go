package main

// switchStmt walks a switch. Case k is entered either by falling out of
// case k-1 or by dispatch, where the discriminant strictly equals the case
// test. Control leaves through a break, by falling out of the last case,
// or, without a default, when no test matches.
func (c *Checker) switchStmt(env *Env, n *ASTNode, labels []string) *Env {
	disc := n.Children[0]
	env, _ = c.expr(env, disc)
	if env == nil {
		return nil
	}

	env = env.Seed(n.Scope, TypeVoid)
	c.pushScope(n.Scope)
	f := c.pushFrame(frameSwitch, labels)

	// unmatched is the environment in which no test seen so far matched.
	unmatched := env
	var fallout *Env
	hasDefault := false
	for _, cs := range n.Children[1:] {
		test := cs.Children[0]
		var dispatch *Env
		if test.Kind == NodeNone {
			hasDefault = true
			dispatch = unmatched
		} else {
			unmatched, _ = c.expr(unmatched, test)
			dispatch = unmatched
			if disc.Kind == NodeIdent && unmatched != nil {
				if _, ok := literalType(test); ok {
					dispatch, unmatched = strictRefinement(unmatched, disc.Binding, test)
				}
			}
		}

		e := JoinEnv(fallout, dispatch)
		for _, s := range cs.Children[1:] {
			e = c.stmt(e, s)
			if e == nil {
				break
			}
		}
		fallout = e
	}

	c.popFrame(f)
	c.popScope(n.Scope)

	exits := append([]*Env{fallout}, f.breaks...)
	if !hasDefault {
		exits = append(exits, unmatched)
	}
	return JoinAll(exits...).Prune(n.Scope)
}
