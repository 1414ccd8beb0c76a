package main

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"undeclared", `(func "f" (ident "y"))`, "line 1: variable 'y' not declared"},
		{"undeclared assignment", `(func "f" (assign "y" 1))`, "variable 'y' not declared"},
		{"const assignment", `(func "f" (const "c" 1) (assign "c" 2))`, "cannot assign to const 'c'"},
		{"const update", `(func "f" (const "c" 1) (update "++" "c"))`, "cannot assign to const 'c'"},
		{"const without initializer", `(func "f" (const "c"))`, "const 'c' must be initialized"},
		{"let redeclared", `(func "f" (let "x" 1) (let "x" 2))`, "variable 'x' already declared"},
		{"const after let", `(func "f" (block (var "x" 1)) (block (var "x" 1) (let "z" 1) (const "z" 2)))`, "variable 'z' already declared"},
		{"break outside loop", `(func "f" (break))`, "break outside of a loop or switch"},
		{"continue in switch", `(func "f" (switch 1 (case 1 (continue))))`, "continue outside of a loop"},
		{"undefined label", `(func "f" (while true (break "nope")))`, "undefined label 'nope'"},
		{"continue to block", `(func "f" (label "l" (block (continue "l"))))`, "continue target 'l' is not a loop"},
		{"label reused", `(func "f" (label "l" (label "l" (while true (break)))))`, "label 'l' is already in use"},
		{"conflicting annotations", `(func "f" (var "x" ^{type: number} 1) (var "x" ^{type: string} ""))`,
			"conflicting annotations for 'x': number and string"},
		{"label out of reach", `(func "f" (label "l" (block)) (while true (break "l")))`, "undefined label 'l'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := Decode(tt.src)
			be.Err(t, err, nil)
			err = Resolve(program)
			be.True(t, err != nil)
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestResolveReportsEveryError(t *testing.T) {
	program, err := Decode(`
(program
  (func "f" (ident "a") (ident "b"))
  (func "g" (break)))
`)
	be.Err(t, err, nil)
	err = Resolve(program)
	be.True(t, err != nil)
	be.Equal(t, strings.Split(err.Error(), "\n"), []string{
		"line 3: variable 'a' not declared",
		"line 3: variable 'b' not declared",
		"line 4: break outside of a loop or switch",
	})
}

func TestResolveAcceptsValidJumps(t *testing.T) {
	resolved(t, `
(func "f" (params "b")
  (label "outer"
    (for none none none
      (block
        (switch (ident "b")
          (case 1 (break))
          (case 2 (continue))
          (case 3 (continue "outer"))
          (default (break "outer"))))))
  (label "l" (block (break "l")))
  (do (continue) (ident "b")))
`)
}

func TestInferDeclaredTypes(t *testing.T) {
	_, tags := resolved(t, `
(func "f" (params "p" (param "q" ^{type: "?string"}))
  #z=(var "z")
  (assign "z" "")
  #a=(var "a" 1)
  (assign "a" "s")
  #chain=(var "chain" (ident "a"))
  #i=(let "i" "s")
  (update "++" "i")
  #annotated=(let "n" ^{type: "?number"} 1)
  #p=(ident "p")
  #q=(ident "q")
  #or=(var "or" (binary "||" (ident "q") 0))
  #call=(var "call" (call "g" ^{type: boolean})))
`)
	be.Equal(t, tags["z"].Binding.Declared, TypeString|TypeVoid)
	be.Equal(t, tags["a"].Binding.Declared, TypeNumber|TypeString)
	be.Equal(t, tags["chain"].Binding.Declared, TypeNumber|TypeString)
	be.Equal(t, tags["i"].Binding.Declared, TypeNumber|TypeString)
	be.Equal(t, tags["annotated"].Binding.Declared, TypeNumber|TypeNullish)
	be.True(t, tags["annotated"].Binding.Annotated)
	be.Equal(t, tags["p"].Binding.Declared, TypeAny)
	be.Equal(t, tags["q"].Binding.Declared, TypeString|TypeNullish)
	be.Equal(t, tags["or"].Binding.Declared, TypeNumber|TypeString)
	be.Equal(t, tags["call"].Binding.Declared, TypeBoolean)
}

func TestInferSelfReferentialBindings(t *testing.T) {
	_, tags := resolved(t, `
(func "f"
  #a=(var "a" (ident "b"))
  #b=(var "b" (ident "a"))
  #c=(var "c" 1)
  (assign "c" (binary "+" (ident "c") (ident "a"))))
`)
	be.Equal(t, tags["a"].Binding.Declared, TypeAny)
	be.Equal(t, tags["b"].Binding.Declared, TypeAny)
	be.Equal(t, tags["c"].Binding.Declared, TypeNumber)
}

func TestInferenceFollowsLaterAssignments(t *testing.T) {
	// The first use of y sees the final declared type of x, not just its
	// initializer.
	_, tags := resolved(t, `
(func "f"
  #y=(var "y" (ident "x"))
  (var "x" 1)
  (assign "x" null))
`)
	be.Equal(t, tags["y"].Binding.Declared, TypeNumber|TypeNull)
}
