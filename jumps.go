package main

import "slices"

type frameKind int

const (
	frameLoop frameKind = iota
	frameSwitch
	frameBlock
)

// jumpFrame collects the environments of the break and continue statements
// that leave one statement.
type jumpFrame struct {
	kind   frameKind
	labels []string
	// Number of block scopes open when the frame was pushed. Jumps drop the
	// bindings of every scope they leave.
	scopeDepth int
	breaks     []*Env
	continues  []*Env
}

func (c *Checker) pushFrame(kind frameKind, labels []string) *jumpFrame {
	f := &jumpFrame{kind: kind, labels: labels, scopeDepth: len(c.scopes)}
	c.frames = append(c.frames, f)
	return f
}

func (c *Checker) popFrame(f *jumpFrame) {
	if len(c.frames) == 0 || c.frames[len(c.frames)-1] != f {
		throwInternal("jump frames popped out of order")
	}
	c.frames = c.frames[:len(c.frames)-1]
}

// target finds the frame a break or continue leaves. The resolver has
// already rejected jumps without a target.
func (c *Checker) target(n *ASTNode) *jumpFrame {
	isContinue := n.Kind == NodeContinue
	for i := len(c.frames) - 1; i >= 0; i-- {
		f := c.frames[i]
		if n.String != "" {
			if slices.Contains(f.labels, n.String) {
				return f
			}
			continue
		}
		if f.kind == frameLoop || (f.kind == frameSwitch && !isContinue) {
			return f
		}
	}
	throwInternal("no target for %s at line %s", n.Kind, n.Pos)
	return nil
}

// jump records env on the target of n. The rest of the enclosing block is
// dead.
func (c *Checker) jump(env *Env, n *ASTNode) {
	f := c.target(n)
	for _, s := range c.scopes[f.scopeDepth:] {
		env = env.Prune(s)
	}
	if n.Kind == NodeContinue {
		if f.kind != frameLoop {
			throwInternal("continue at line %s targets a non-loop", n.Pos)
		}
		f.continues = append(f.continues, env)
	} else {
		f.breaks = append(f.breaks, env)
	}
}

func (c *Checker) pushScope(s *Scope) {
	c.scopes = append(c.scopes, s)
}

func (c *Checker) popScope(s *Scope) {
	if len(c.scopes) == 0 || c.scopes[len(c.scopes)-1] != s {
		throwInternal("scopes popped out of order")
	}
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// checkpoint is the output state of the checker at one moment. Loop passes
// whose results are discarded roll back to it.
type checkpoint struct {
	diags     int
	refs      int
	loops     int
	breaks    []int
	continues []int
}

func (c *Checker) mark() checkpoint {
	cp := checkpoint{
		diags: c.diags.Len(),
		refs:  len(c.refs),
		loops: len(c.loops),
	}
	for _, f := range c.frames {
		cp.breaks = append(cp.breaks, len(f.breaks))
		cp.continues = append(cp.continues, len(f.continues))
	}
	return cp
}

// rollback forgets every diagnostic, reference, loop statistic and pending
// jump recorded since cp. Frames pushed since cp must already be popped.
func (c *Checker) rollback(cp checkpoint) {
	if len(c.frames) != len(cp.breaks) {
		throwInternal("rollback with %d frames, checkpoint has %d", len(c.frames), len(cp.breaks))
	}
	c.diags.truncate(cp.diags)
	c.refs = c.refs[:cp.refs]
	c.loops = c.loops[:cp.loops]
	for i, f := range c.frames {
		f.breaks = f.breaks[:cp.breaks[i]]
		f.continues = f.continues[:cp.continues[i]]
	}
}
