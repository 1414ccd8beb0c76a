package sexy

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestParseAtoms(t *testing.T) {
	tests := []struct {
		input string
		typ   NodeType
		text  string
		out   string
	}{
		{"number", NodeSymbol, "number", "number"},
		{"op-loc", NodeSymbol, "op-loc", "op-loc"},
		{"max_loop_passes", NodeSymbol, "max_loop_passes", "max_loop_passes"},
		{"-", NodeSymbol, "-", "-"},
		{"#x", NodeSymbol, "#x", "#x"},
		{`"x"`, NodeString, "x", `"x"`},
		{`""`, NodeString, "", `""`},
		{`"?string"`, NodeString, "?string", `"?string"`},
		{`"say \"hi\""`, NodeString, `say "hi"`, `"say \"hi\""`},
		{`"a\\b"`, NodeString, `a\b`, `"a\\b"`},
		{`"héllo"`, NodeString, "héllo", `"héllo"`},
		{"42", NodeInteger, "42", "42"},
		{"-7", NodeInteger, "-7", "-7"},
		{"+3", NodeInteger, "+3", "+3"},
		{"...", NodeEllipsis, "", "..."},
		{"#then#", NodeLabelRef, "then", "#then#"},
		{"#12#", NodeLabelRef, "12", "#12#"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := Parse(tt.input)
			be.Err(t, err, nil)
			be.Equal(t, n.Type, tt.typ)
			be.Equal(t, n.Text, tt.text)
			be.Equal(t, n.String(), tt.out)
		})
	}
}

func TestParseCollections(t *testing.T) {
	tests := []struct {
		input string
		typ   NodeType
		out   string
	}{
		{"()", NodeList, "()"},
		{`(break "outer")`, NodeList, `(break "outer")`},
		{`(binary "==" (ident "x") null)`, NodeList, `(binary "==" (ident "x") null)`},
		{"[]", NodeArray, "[]"},
		{"[number (maybe string)]", NodeArray, "[number (maybe string)]"},
		{"{}", NodeMap, "{}"},
		{"{then: number}", NodeMap, "{then: number}"},
		{"{a: 1,b: 2,}", NodeMap, "{a: 1, b: 2}"},
		{"{null string}", NodeSet, "{null string}"},
		{"{boolean}", NodeSet, "{boolean}"},
		{"{1 (x) [y]}", NodeSet, "{1 (x) [y]}"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := Parse(tt.input)
			be.Err(t, err, nil)
			be.Equal(t, n.Type, tt.typ)
			be.Equal(t, n.String(), tt.out)
		})
	}
}

func TestParseLabels(t *testing.T) {
	n, err := Parse(`(block #x=(ident "x") #1=null (if #c=(ident "b") #x#))`)
	be.Err(t, err, nil)
	be.Equal(t, n.Label, "")
	be.Equal(t, n.Items[1].Label, "x")
	be.Equal(t, n.Items[1].Head(), "ident")
	be.Equal(t, n.Items[2].Label, "1")
	be.Equal(t, n.Items[2].Type, NodeSymbol)
	cond := n.Items[3]
	be.Equal(t, cond.Items[1].Label, "c")
	be.Equal(t, cond.Items[2].Type, NodeLabelRef)
	be.Equal(t, cond.Items[2].Text, "x")
	be.Equal(t, n.String(), `(block #x=(ident "x") #1=null (if #c=(ident "b") #x#))`)
}

func TestParseMeta(t *testing.T) {
	tests := []struct {
		name  string
		input string
		out   string
	}{
		{"after the head", `(var "x" ^{type: number} 1)`, `(^{type: number} var "x" 1)`},
		{"only meta", `(^{line: 1})`, `(^{line: 1})`},
		{"merged", `(^{line: 1} call ^{type: number} "g" ^{col: 4})`, `(^{line: 1, type: number, col: 4} call "g")`},
		{"later wins", `(ident ^{line: 1} "x" ^{line: 2})`, `(^{line: 2} ident "x")`},
		{"nested values", `(call "g" ^{params: [number {null string}]})`, `(^{params: [number {null string}]} call "g")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Parse(tt.input)
			be.Err(t, err, nil)
			be.Equal(t, len(n.MetaKeys), len(n.MetaItems))
			be.Equal(t, n.String(), tt.out)
		})
	}
}

func TestParseComments(t *testing.T) {
	n, err := Parse(`; a checked function
(func "f" ; trailing
  ; between items
  (return))`)
	be.Err(t, err, nil)
	be.Equal(t, n.String(), `(func "f" (return))`)
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		`(program (func "f" (params (param "x" ^{type: "?number"})) (return (ident "x"))))`,
		`(switch (ident "x") (case null (break)) (default))`,
		`{then: number, else: (union null void), same: #then#}`,
		`(for none (binary "<" (ident "i") 10) (update "++" "i") (block))`,
		`[... (return) ...]`,
		`#top={#a=1 #a#}`,
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			first, err := Parse(input)
			be.Err(t, err, nil)
			second, err := Parse(first.String())
			be.Err(t, err, nil)
			be.Equal(t, second.String(), first.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "line 1: unexpected end of input"},
		{"(", "line 1: '(' opened on line 1 is never closed"},
		{"(if\n  (ident \"x\")", "line 2: '(' opened on line 1 is never closed"},
		{"[1 2", "line 1: '[' opened on line 1 is never closed"},
		{"{a b", "line 1: '{' opened on line 1 is never closed"},
		{"{a: 1", "line 1: expected ',' or '}' in map, got end of input"},
		{"{a: 1 b: 2}", "line 1: expected ',' or '}' in map, got symbol b"},
		{"{a: 1, 2: b}", "line 1: expected a symbol as map key, got integer 2"},
		{"(x ^y)", "line 1: expected '{', got symbol y"},
		{")", "line 1: unexpected ')'"},
		{"(a)\n(b)", "line 2: expected end of input, got '('"},
		{"x y", "line 1: expected end of input, got symbol y"},
		{`"open`, "line 1: unterminated string"},
		{`"bad \n"`, `line 1: invalid escape sequence: \n`},
		{"(a\n .)", "line 2: unexpected character '.'"},
		{"..", "line 1: unexpected character '.'"},
		{"@", "line 1: unexpected character '@'"},
		{"?string", "line 1: unexpected character '?'"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := Parse(tt.input)
			be.Err(t, err, tt.want)
			be.True(t, n == nil)
		})
	}
}

func TestListAccessors(t *testing.T) {
	node, err := Parse(`(var "x" ^{type: number, line: 3} 1)`)
	be.Err(t, err, nil)
	be.Equal(t, node.Head(), "var")
	be.Equal(t, len(node.Args()), 2)
	be.Equal(t, node.Args()[0].Text, "x")
	be.Equal(t, node.Meta("type").String(), "number")
	be.Equal(t, node.Meta("line").Text, "3")
	be.True(t, node.Meta("col") == nil)
	be.True(t, node.Get("type") == nil)
	be.True(t, node.IsSymbol("var") == false)
	be.True(t, node.Items[0].IsSymbol("var"))

	// Lists headed by something other than a symbol have no head.
	anon, err := Parse(`("x" 1)`)
	be.Err(t, err, nil)
	be.Equal(t, anon.Head(), "")
	be.True(t, anon.Args() == nil)

	m, err := Parse(`{a: 1, b: "two"}`)
	be.Err(t, err, nil)
	be.Equal(t, m.Get("b").Text, "two")
	be.True(t, m.Get("c") == nil)
	be.True(t, m.Meta("a") == nil)
}

func TestNodeLines(t *testing.T) {
	node, err := Parse("(program\n  (func \"f\"\n    #x=(ident\n \"x\")))")
	be.Err(t, err, nil)
	be.Equal(t, node.Line, 1)
	fn := node.Args()[0]
	be.Equal(t, fn.Line, 2)
	be.Equal(t, fn.Args()[0].Line, 2)
	ident := fn.Args()[1]
	be.Equal(t, ident.Line, 3)
	be.Equal(t, ident.Args()[0].Line, 4)
}

func TestParseErrorLine(t *testing.T) {
	_, err := Parse("(a\n  b\n  ])")
	be.True(t, err != nil)
	be.True(t, strings.HasPrefix(err.Error(), "line 3: "))
}
