package main

import (
	"fmt"
	"strings"
)

// Type is a set of members, one bit per member. Two types are equal iff
// their member sets are equal, so == works.
type Type uint8

const (
	TypeNumber Type = 1 << iota
	TypeString
	TypeBoolean
	TypeNull
	TypeVoid
	// TypeAny is the opaque placeholder for everything this checker does
	// not model. It is both a subtype and a supertype of every type.
	TypeAny

	// TypeBottom is the empty set. It never flows into an environment;
	// narrowing to it marks a branch as unreachable.
	TypeBottom Type = 0

	TypeNullish = TypeNull | TypeVoid
)

// Rendering order: members are listed alphabetically by name.
var memberOrder = []struct {
	member Type
	name   string
}{
	{TypeAny, "any"},
	{TypeBoolean, "boolean"},
	{TypeNull, "null"},
	{TypeNumber, "number"},
	{TypeString, "string"},
	{TypeVoid, "void"},
}

// Subtype reports whether every member of a is a member of b.
func Subtype(a, b Type) bool {
	if a&TypeAny != 0 || b&TypeAny != 0 {
		return true
	}
	return a&^b == 0
}

// Join is the union of two member sets.
func Join(a, b Type) Type {
	return a | b
}

func IsNullish(t Type) bool {
	return t&TypeNullish != 0
}

func ExcludeNullish(t Type) Type {
	return t &^ TypeNullish
}

func OnlyNullish(t Type) Type {
	return Only(t, TypeNullish)
}

func ExcludeNull(t Type) Type {
	return t &^ TypeNull
}

func OnlyNull(t Type) Type {
	return Only(t, TypeNull)
}

func ExcludeVoid(t Type) Type {
	return t &^ TypeVoid
}

func OnlyVoid(t Type) Type {
	return Only(t, TypeVoid)
}

// Only keeps the members of t that are in mask. An opaque type could hold
// any of them, so it narrows to mask itself.
func Only(t, mask Type) Type {
	if t&TypeAny != 0 {
		return mask
	}
	return t & mask
}

// Exclude removes the members in mask from t.
func Exclude(t, mask Type) Type {
	return t &^ mask
}

func (t Type) IsBottom() bool {
	return t == TypeBottom
}

func (t Type) IsSingleton() bool {
	return t != 0 && t&(t-1) == 0
}

// Members returns the singleton types making up t, in rendering order.
func (t Type) Members() []Type {
	var members []Type
	for _, m := range memberOrder {
		if t&m.member != 0 {
			members = append(members, m.member)
		}
	}
	return members
}

func (t Type) String() string {
	if t == TypeBottom {
		return "empty"
	}
	var names []string
	for _, m := range memberOrder {
		if t&m.member != 0 {
			names = append(names, m.name)
		}
	}
	return strings.Join(names, " | ")
}

// ParseType reads an annotation such as "number", "?string" or
// "number | string". "undefined" is an alias for void and "mixed" for any.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeBottom, fmt.Errorf("empty type annotation")
	}
	var t Type
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		maybe := false
		for strings.HasPrefix(part, "?") {
			maybe = true
			part = strings.TrimSpace(part[1:])
		}
		m, ok := memberByName(part)
		if !ok {
			return TypeBottom, fmt.Errorf("unknown type '%s'", part)
		}
		t |= m
		if maybe {
			t |= TypeNullish
		}
	}
	return t, nil
}

func memberByName(name string) (Type, bool) {
	switch name {
	case "undefined":
		return TypeVoid, true
	case "mixed":
		return TypeAny, true
	}
	for _, m := range memberOrder {
		if m.name == name {
			return m.member, true
		}
	}
	return TypeBottom, false
}
