package main

import (
	"errors"
	"fmt"
)

// Reference is one read of a binding and the refined type visible there.
type Reference struct {
	Node *ASTNode
	Name string
	Pos  Pos
	// Tag is the fixture label of the reference, if any.
	Tag  string
	Type Type
}

// FunctionResult is the outcome of checking one function. When Err is set
// the analysis was aborted and the other fields are empty.
type FunctionResult struct {
	Name        string
	Diagnostics []Diagnostic
	References  []Reference
	Loops       []LoopStat
	Err         error
}

// CheckResult holds the results of every function of a program, in
// program order.
type CheckResult struct {
	Functions []FunctionResult
}

// Diagnostics returns the diagnostics of all functions in order.
func (r *CheckResult) Diagnostics() []Diagnostic {
	var diags []Diagnostic
	for _, fn := range r.Functions {
		diags = append(diags, fn.Diagnostics...)
	}
	return diags
}

func (r *CheckResult) HasErrors() bool {
	for _, fn := range r.Functions {
		if len(fn.Diagnostics) > 0 || fn.Err != nil {
			return true
		}
	}
	return false
}

// Err joins the internal errors of all functions.
func (r *CheckResult) Err() error {
	var errs []error
	for _, fn := range r.Functions {
		if fn.Err != nil {
			errs = append(errs, fmt.Errorf("function '%s': %w", fn.Name, fn.Err))
		}
	}
	return errors.Join(errs...)
}

// Checker walks one function. It is not safe for concurrent use; every
// function gets its own.
type Checker struct {
	cfg Config
	fn  *ASTNode

	diags  ErrorCollection
	refs   []Reference
	loops  []LoopStat
	frames []*jumpFrame
	scopes []*Scope
}

// CheckProgram checks every function of a resolved program. An internal
// failure in one function does not stop the others.
func CheckProgram(program *ASTNode, cfg Config) *CheckResult {
	result := &CheckResult{}
	for _, fn := range program.Children {
		result.Functions = append(result.Functions, CheckFunction(fn, cfg))
	}
	return result
}

// CheckFunction checks a resolved function and stores the refined type of
// each reference on its node.
func CheckFunction(fn *ASTNode, cfg Config) FunctionResult {
	c := &Checker{cfg: cfg, fn: fn}
	if err := c.run(); err != nil {
		return FunctionResult{Name: fn.String, Err: err}
	}
	for _, ref := range c.refs {
		ref.Node.Refined = ref.Type
	}
	return FunctionResult{
		Name:        fn.String,
		Diagnostics: c.diags.Errors(),
		References:  c.refs,
		Loops:       c.loops,
	}
}

func (c *Checker) run() (err error) {
	defer catchInternal(&err)

	if c.fn.Scope == nil {
		throwInternal("function '%s' has not been resolved", c.fn.String)
	}
	env := NewEnv()
	for _, b := range c.fn.Scope.Bindings {
		if b.Kind == BindingParam {
			env = env.Declare(b, b.Declared)
		} else {
			env = env.Declare(b, TypeVoid)
		}
	}

	end := c.stmt(env, c.fn.Children[0])
	if end != nil && c.fn.HasAnnotation {
		c.expectType(c.fn.Pos, "implicit return", TypeVoid, c.fn.Annotation)
	}
	if len(c.frames) != 0 || len(c.scopes) != 0 {
		throwInternal("%d jump frames and %d scopes left open", len(c.frames), len(c.scopes))
	}
	return nil
}

func (c *Checker) record(n *ASTNode, t Type) {
	c.refs = append(c.refs, Reference{
		Node: n,
		Name: n.String,
		Pos:  n.Pos,
		Tag:  n.Tag,
		Type: t,
	})
}
