package main

import (
	"testing"

	"github.com/nalgeon/be"
)

// allTypes enumerates every member set, the empty one included.
func allTypes() []Type {
	var types []Type
	for t := Type(0); t < TypeAny<<1; t++ {
		types = append(types, t)
	}
	return types
}

func TestSubtype(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Type
		expected bool
	}{
		{"same member", TypeNumber, TypeNumber, true},
		{"different members", TypeString, TypeNumber, false},
		{"member of union", TypeNull, TypeNull | TypeBoolean, true},
		{"union into member", TypeNull | TypeBoolean, TypeBoolean, false},
		{"empty into anything", TypeBottom, TypeNumber, true},
		{"any into number", TypeAny, TypeNumber, true},
		{"number into any", TypeNumber, TypeAny, true},
		{"maybe string into string", TypeString | TypeNullish, TypeString, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			be.Equal(t, Subtype(test.a, test.b), test.expected)
		})
	}
}

func TestJoinLaws(t *testing.T) {
	types := allTypes()
	for _, a := range types {
		be.Equal(t, Join(a, a), a)
		be.Equal(t, Join(a, TypeBottom), a)
		for _, b := range types {
			be.Equal(t, Join(a, b), Join(b, a))
			be.True(t, Subtype(a, Join(a, b)))
			for _, c := range []Type{TypeNumber, TypeNull | TypeString, TypeAny} {
				be.Equal(t, Join(Join(a, b), c), Join(a, Join(b, c)))
			}
		}
	}
}

func TestNullishSplit(t *testing.T) {
	maybeBool := TypeNull | TypeBoolean
	be.True(t, IsNullish(maybeBool))
	be.True(t, !IsNullish(TypeBoolean))
	be.Equal(t, ExcludeNullish(maybeBool), TypeBoolean)
	be.Equal(t, OnlyNullish(maybeBool), TypeNull)
	be.Equal(t, ExcludeNullish(TypeNull|TypeVoid), TypeBottom)
	be.Equal(t, OnlyNullish(TypeString), TypeBottom)

	// any could hold anything, so both sides keep something.
	be.Equal(t, ExcludeNullish(TypeAny), TypeAny)
	be.Equal(t, OnlyNullish(TypeAny), TypeNullish)

	be.Equal(t, ExcludeNull(TypeNullish|TypeString), TypeVoid|TypeString)
	be.Equal(t, OnlyVoid(TypeNullish|TypeString), TypeVoid)
	be.Equal(t, Only(TypeAny, TypeNumber), TypeNumber)
	be.Equal(t, Exclude(TypeNumber|TypeString, TypeNumber), TypeString)
}

func TestTypeToString(t *testing.T) {
	tests := []struct {
		typ      Type
		expected string
	}{
		{TypeNumber, "number"},
		{TypeString | TypeVoid, "string | void"},
		{TypeVoid | TypeString, "string | void"},
		{TypeBoolean | TypeNull | TypeNumber, "boolean | null | number"},
		{TypeAny, "any"},
		{TypeBottom, "empty"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			be.Equal(t, test.typ.String(), test.expected)
		})
	}
}

func TestMembers(t *testing.T) {
	be.Equal(t, (TypeVoid | TypeString | TypeBoolean).Members(), []Type{TypeBoolean, TypeString, TypeVoid})
	be.Equal(t, len(TypeBottom.Members()), 0)
	be.True(t, TypeNull.IsSingleton())
	be.True(t, !(TypeNull | TypeVoid).IsSingleton())
	be.True(t, !TypeBottom.IsSingleton())
}

func TestParseType(t *testing.T) {
	tests := []struct {
		input    string
		expected Type
	}{
		{"number", TypeNumber},
		{"?string", TypeString | TypeNull | TypeVoid},
		{"number | string", TypeNumber | TypeString},
		{"undefined", TypeVoid},
		{"mixed", TypeAny},
		{" boolean|null ", TypeBoolean | TypeNull},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			typ, err := ParseType(test.input)
			be.Err(t, err, nil)
			be.Equal(t, typ, test.expected)
		})
	}

	_, err := ParseType("object")
	be.True(t, err != nil)
	be.Equal(t, err.Error(), "unknown type 'object'")

	_, err = ParseType("")
	be.True(t, err != nil)
}
