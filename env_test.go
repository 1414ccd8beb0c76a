package main

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"
)

// catching runs f and returns the internal failure it raised, if any.
func catching(f func()) (err error) {
	defer catchInternal(&err)
	f()
	return nil
}

type envFixture struct {
	st       *SymbolTable
	x, c     *Binding
	block    *Scope
	inBlock  *Binding
	function *Scope
}

// newEnvFixture declares var x: ?boolean, const c: ?string and a let in a
// nested block.
func newEnvFixture(t *testing.T) envFixture {
	t.Helper()
	st := NewSymbolTable()
	x, err := st.DeclareVariable("x", BindingVar, Pos{Line: 1})
	be.Err(t, err, nil)
	x.Declared = TypeBoolean | TypeNull
	c, err := st.DeclareVariable("c", BindingConst, Pos{Line: 2})
	be.Err(t, err, nil)
	c.Declared = TypeString | TypeNull
	block := st.PushScope()
	inBlock, err := st.DeclareVariable("y", BindingLet, Pos{Line: 3})
	be.Err(t, err, nil)
	inBlock.Declared = TypeNumber
	st.PopScope()
	return envFixture{st: st, x: x, c: c, block: block, inBlock: inBlock, function: st.FunctionScope()}
}

func TestEnvRefine(t *testing.T) {
	f := newEnvFixture(t)
	env := NewEnv().Declare(f.x, TypeBoolean|TypeNull)

	refined := env.Refine(f.x, TypeBoolean)
	be.Equal(t, refined.Lookup(f.x), TypeBoolean)
	// The original is untouched.
	be.Equal(t, env.Lookup(f.x), TypeBoolean|TypeNull)

	be.True(t, env.Refine(f.x, TypeBottom) == nil)
	be.True(t, (*Env)(nil).Refine(f.x, TypeNumber) == nil)
}

func TestEnvLookupMissingBinding(t *testing.T) {
	f := newEnvFixture(t)
	err := catching(func() {
		NewEnv().Lookup(f.x)
	})
	be.True(t, errors.Is(err, ErrInternal))
}

func TestEnvHavocKeepsImmutable(t *testing.T) {
	f := newEnvFixture(t)
	env := NewEnv().Declare(f.x, TypeBoolean).Declare(f.c, TypeString)

	havoced := env.Havoc([]*Binding{f.x, f.c, f.inBlock})
	be.Equal(t, havoced.Lookup(f.x), TypeBoolean|TypeNull)
	be.Equal(t, havoced.Lookup(f.c), TypeString)
	be.True(t, !havoced.Has(f.inBlock))

	// Havocing what is already declared changes nothing.
	be.True(t, havoced.Havoc([]*Binding{f.x}) == havoced)
}

func TestJoinEnv(t *testing.T) {
	f := newEnvFixture(t)
	a := NewEnv().Declare(f.x, TypeBoolean).Declare(f.inBlock, TypeNumber)
	b := NewEnv().Declare(f.x, TypeNull)

	joined := JoinEnv(a, b)
	be.Equal(t, joined.Lookup(f.x), TypeBoolean|TypeNull)
	// y was only declared on one path.
	be.True(t, !joined.Has(f.inBlock))

	be.True(t, JoinEnv(a, JoinEnv(nil, b)).Equal(JoinEnv(b, a)))
	be.True(t, JoinEnv(nil, a) == a)
	be.True(t, JoinEnv(a, nil) == a)
	be.True(t, JoinEnv(nil, nil) == nil)
	be.True(t, JoinAll(nil, a, nil).Equal(a))
}

func TestJoinEnvLaws(t *testing.T) {
	f := newEnvFixture(t)
	a := NewEnv().Declare(f.x, TypeBoolean).Declare(f.c, TypeString).Declare(f.inBlock, TypeNumber)
	b := NewEnv().Declare(f.x, TypeNull).Declare(f.c, TypeNull)
	c := NewEnv().Declare(f.x, TypeBoolean|TypeNull).Declare(f.c, TypeString).Declare(f.inBlock, TypeVoid)

	envs := []*Env{a, b, c, nil}
	for _, p := range envs {
		for _, q := range envs {
			be.True(t, JoinEnv(p, q).Equal(JoinEnv(q, p)))
			for _, r := range envs {
				be.True(t, JoinEnv(JoinEnv(p, q), r).Equal(JoinEnv(p, JoinEnv(q, r))))
			}
		}
	}

	all := JoinAll(a, b, c)
	be.Equal(t, all.Lookup(f.x), TypeBoolean|TypeNull)
	be.Equal(t, all.Lookup(f.c), TypeString|TypeNull)
	// b never entered the block.
	be.True(t, !all.Has(f.inBlock))
	be.Equal(t, JoinEnv(a, c).Lookup(f.inBlock), TypeNumber|TypeVoid)
	be.True(t, JoinAll(nil, c, nil).Equal(c))
}

func TestJoinEnvFunctionBindingOnOneSide(t *testing.T) {
	f := newEnvFixture(t)
	a := NewEnv().Declare(f.x, TypeBoolean).Declare(f.c, TypeString)
	b := NewEnv().Declare(f.x, TypeNull)

	err := catching(func() {
		JoinEnv(a, b)
	})
	be.True(t, errors.Is(err, ErrInternal))

	err = catching(func() {
		JoinEnv(b, a)
	})
	be.True(t, errors.Is(err, ErrInternal))
}

func TestEnvSeedAndPrune(t *testing.T) {
	f := newEnvFixture(t)
	env := NewEnv().Declare(f.x, TypeBoolean)

	seeded := env.Seed(f.block, TypeVoid)
	be.Equal(t, seeded.Lookup(f.inBlock), TypeVoid)
	// Seeding never overwrites a binding that is already there.
	be.Equal(t, seeded.Declare(f.inBlock, TypeNumber).Seed(f.block, TypeVoid).Lookup(f.inBlock), TypeNumber)

	pruned := seeded.Prune(f.block)
	be.True(t, !pruned.Has(f.inBlock))
	be.True(t, pruned.Equal(env))
}

func TestEnvCovers(t *testing.T) {
	f := newEnvFixture(t)
	head := NewEnv().Declare(f.x, TypeBoolean|TypeNull).Declare(f.c, TypeString)

	be.True(t, head.Covers(NewEnv().Declare(f.x, TypeBoolean).Declare(f.c, TypeString)))
	be.True(t, !head.Covers(NewEnv().Declare(f.x, TypeBoolean).Declare(f.c, TypeNull)))
	be.True(t, head.Covers(nil))
	be.True(t, !(*Env)(nil).Covers(head))

	// number escapes the declared type of x; that was reported where it
	// was assigned.
	be.True(t, head.Covers(NewEnv().Declare(f.x, TypeNumber).Declare(f.c, TypeString)))
}

func TestEnvString(t *testing.T) {
	f := newEnvFixture(t)
	env := NewEnv().Declare(f.c, TypeString).Declare(f.x, TypeBoolean|TypeNull)
	be.Equal(t, env.String(), "{x: boolean | null, c: string}")
	be.Equal(t, (*Env)(nil).String(), "unreachable")
}
