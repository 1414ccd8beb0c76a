package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/strager/flowcheck/sexy"
)

// Decode reads a tree in its s-expression interchange form. The root is
// either (program (func ...) ...) or a single (func ...), which is wrapped
// in a program.
func Decode(src string) (*ASTNode, error) {
	root, err := sexy.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse tree: %w", err)
	}

	d := &decoder{}
	var program *ASTNode
	switch root.Head() {
	case "program":
		program = &ASTNode{Kind: NodeProgram, Pos: d.pos(root)}
		for _, item := range root.Args() {
			if item.Head() != "func" {
				d.errorf(item, "expected (func ...) in program, got %s", item)
				continue
			}
			program.Children = append(program.Children, d.function(item))
		}
	case "func":
		program = &ASTNode{
			Kind:     NodeProgram,
			Pos:      d.pos(root),
			Children: []*ASTNode{d.function(root)},
		}
	default:
		d.errorf(root, "expected (program ...) or (func ...) at top level")
	}

	if len(d.errs) > 0 {
		return nil, errors.Join(d.errs...)
	}
	return program, nil
}

// DecodeType reads a type written as a symbol (number), a string
// ("?string", "number | string"), (maybe T), (union T...) or a set of
// members such as {null string}. The symbol unreachable denotes the empty
// type.
func DecodeType(n *sexy.Node) (Type, error) {
	d := &decoder{}
	t := d.typ(n)
	if len(d.errs) > 0 {
		return TypeBottom, errors.Join(d.errs...)
	}
	return t, nil
}

type decoder struct {
	errs []error
}

func (d *decoder) errorf(n *sexy.Node, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if n == nil {
		d.errs = append(d.errs, errors.New(msg))
		return
	}
	d.errs = append(d.errs, fmt.Errorf("line %d: %s", n.Line, msg))
}

func (d *decoder) pos(n *sexy.Node) Pos {
	p := Pos{Line: n.Line}
	if line := n.Meta("line"); line != nil {
		p.Line = d.integer(line)
	}
	if col := n.Meta("col"); col != nil {
		p.Col = d.integer(col)
	}
	return p
}

func (d *decoder) integer(n *sexy.Node) int {
	if n.Type != sexy.NodeInteger {
		d.errorf(n, "expected integer, got %s", n)
		return 0
	}
	v, err := strconv.Atoi(n.Text)
	if err != nil {
		d.errorf(n, "invalid integer %s", n.Text)
	}
	return v
}

func (d *decoder) name(n *sexy.Node, what string) string {
	if n == nil || n.Type != sexy.NodeString {
		d.errorf(n, "expected %s name as a string", what)
		return ""
	}
	return n.Text
}

func (d *decoder) annotate(node *ASTNode, src *sexy.Node, key string) {
	if t := src.Meta(key); t != nil {
		node.Annotation = d.typ(t)
		node.HasAnnotation = true
	}
}

func (d *decoder) typ(n *sexy.Node) Type {
	switch n.Type {
	case sexy.NodeSymbol:
		if n.Text == "unreachable" {
			return TypeBottom
		}
		t, err := ParseType(n.Text)
		if err != nil {
			d.errorf(n, "%v", err)
		}
		return t
	case sexy.NodeString:
		t, err := ParseType(n.Text)
		if err != nil {
			d.errorf(n, "%v", err)
		}
		return t
	case sexy.NodeSet:
		var t Type
		for _, item := range n.Items {
			t |= d.typ(item)
		}
		return t
	case sexy.NodeList:
		switch n.Head() {
		case "maybe":
			if len(n.Args()) != 1 {
				d.errorf(n, "(maybe T) takes one type")
				return TypeAny
			}
			return d.typ(n.Args()[0]) | TypeNullish
		case "union":
			var t Type
			for _, arg := range n.Args() {
				t |= d.typ(arg)
			}
			if t == TypeBottom {
				d.errorf(n, "(union) needs at least one member")
			}
			return t
		}
	}
	d.errorf(n, "invalid type %s", n)
	return TypeAny
}

func (d *decoder) function(n *sexy.Node) *ASTNode {
	args := n.Args()
	fn := &ASTNode{Kind: NodeFunc, Pos: d.pos(n), Tag: n.Label}
	if len(args) == 0 {
		d.errorf(n, "(func) needs a name")
		return fn
	}
	fn.String = d.name(args[0], "function")
	d.annotate(fn, n, "returns")
	args = args[1:]

	if len(args) > 0 && args[0].Head() == "params" {
		for _, p := range args[0].Args() {
			fn.Params = append(fn.Params, d.param(p))
		}
		args = args[1:]
	}

	body := &ASTNode{Kind: NodeBlock, Pos: fn.Pos}
	for _, stmt := range args {
		body.Children = append(body.Children, d.stmt(stmt))
	}
	fn.Children = []*ASTNode{body}
	return fn
}

func (d *decoder) param(n *sexy.Node) *ASTNode {
	if n.Type == sexy.NodeString {
		return &ASTNode{Kind: NodeParam, String: n.Text, Pos: d.pos(n)}
	}
	if n.Head() != "param" || len(n.Args()) != 1 {
		d.errorf(n, "expected (param \"name\") or a string, got %s", n)
		return &ASTNode{Kind: NodeParam}
	}
	p := &ASTNode{
		Kind:   NodeParam,
		String: d.name(n.Args()[0], "parameter"),
		Pos:    d.pos(n),
		Tag:    n.Label,
	}
	d.annotate(p, n, "type")
	return p
}

func (d *decoder) block(stmts []*sexy.Node, pos Pos) *ASTNode {
	block := &ASTNode{Kind: NodeBlock, Pos: pos}
	for _, stmt := range stmts {
		block.Children = append(block.Children, d.stmt(stmt))
	}
	return block
}

// optional decodes an omitted-slot placeholder or a statement.
func (d *decoder) optional(n *sexy.Node, decode func(*sexy.Node) *ASTNode) *ASTNode {
	if n.IsSymbol("none") {
		return &ASTNode{Kind: NodeNone, Pos: d.pos(n)}
	}
	return decode(n)
}

func (d *decoder) stmt(n *sexy.Node) *ASTNode {
	args := n.Args()
	pos := d.pos(n)
	var node *ASTNode

	switch n.Head() {
	case "var", "let", "const":
		if len(args) < 1 || len(args) > 2 {
			d.errorf(n, "(%s \"name\" INIT?) takes a name and an optional initializer", n.Head())
			return &ASTNode{Kind: NodeNone, Pos: pos}
		}
		node = &ASTNode{
			Kind:     NodeVar,
			String:   d.name(args[0], "variable"),
			DeclKind: BindingKind(n.Head()),
		}
		d.annotate(node, n, "type")
		if len(args) == 2 {
			node.Children = []*ASTNode{d.expr(args[1])}
		}

	case "block":
		node = d.block(args, pos)

	case "if":
		if len(args) < 2 || len(args) > 3 {
			d.errorf(n, "(if COND THEN ELSE?) takes two or three operands")
			return &ASTNode{Kind: NodeNone, Pos: pos}
		}
		node = &ASTNode{Kind: NodeIf}
		node.Children = append(node.Children, d.expr(args[0]), d.stmt(args[1]))
		if len(args) == 3 {
			node.Children = append(node.Children, d.stmt(args[2]))
		}

	case "while":
		if len(args) != 2 {
			d.errorf(n, "(while COND BODY) takes two operands")
			return &ASTNode{Kind: NodeNone, Pos: pos}
		}
		node = &ASTNode{Kind: NodeWhile, Children: []*ASTNode{d.expr(args[0]), d.stmt(args[1])}}

	case "do":
		if len(args) != 2 {
			d.errorf(n, "(do BODY COND) takes two operands")
			return &ASTNode{Kind: NodeNone, Pos: pos}
		}
		node = &ASTNode{Kind: NodeDoWhile, Children: []*ASTNode{d.stmt(args[0]), d.expr(args[1])}}

	case "for":
		if len(args) != 4 {
			d.errorf(n, "(for INIT COND UPDATE BODY) takes four operands; use none for omitted clauses")
			return &ASTNode{Kind: NodeNone, Pos: pos}
		}
		node = &ASTNode{Kind: NodeFor, Children: []*ASTNode{
			d.optional(args[0], d.stmt),
			d.optional(args[1], d.expr),
			d.optional(args[2], d.expr),
			d.stmt(args[3]),
		}}

	case "switch":
		if len(args) < 1 {
			d.errorf(n, "(switch DISCRIMINANT CASE...) needs a discriminant")
			return &ASTNode{Kind: NodeNone, Pos: pos}
		}
		node = &ASTNode{Kind: NodeSwitch, Children: []*ASTNode{d.expr(args[0])}}
		for _, c := range args[1:] {
			node.Children = append(node.Children, d.switchCase(c))
		}

	case "break", "continue":
		kind := NodeBreak
		if n.Head() == "continue" {
			kind = NodeContinue
		}
		node = &ASTNode{Kind: kind}
		switch len(args) {
		case 0:
		case 1:
			node.String = d.name(args[0], "label")
		default:
			d.errorf(n, "(%s) takes at most a label", n.Head())
		}

	case "label":
		if len(args) != 2 {
			d.errorf(n, "(label \"name\" STMT) takes a name and a statement")
			return &ASTNode{Kind: NodeNone, Pos: pos}
		}
		node = &ASTNode{Kind: NodeLabel, String: d.name(args[0], "label"), Children: []*ASTNode{d.stmt(args[1])}}

	case "return":
		node = &ASTNode{Kind: NodeReturn}
		switch len(args) {
		case 0:
		case 1:
			node.Children = []*ASTNode{d.expr(args[0])}
		default:
			d.errorf(n, "(return) takes at most one value")
		}

	case "throw":
		if len(args) != 1 {
			d.errorf(n, "(throw VALUE) takes one value")
			return &ASTNode{Kind: NodeNone, Pos: pos}
		}
		node = &ASTNode{Kind: NodeThrow, Children: []*ASTNode{d.expr(args[0])}}

	default:
		return d.expr(n)
	}

	node.Pos = pos
	node.Tag = n.Label
	return node
}

func (d *decoder) switchCase(n *sexy.Node) *ASTNode {
	args := n.Args()
	c := &ASTNode{Kind: NodeCase, Pos: d.pos(n), Tag: n.Label}
	switch n.Head() {
	case "case":
		if len(args) < 1 {
			d.errorf(n, "(case TEST STMT...) needs a test")
			return c
		}
		c.Children = append(c.Children, d.expr(args[0]))
		args = args[1:]
	case "default":
		c.Children = append(c.Children, &ASTNode{Kind: NodeNone, Pos: c.Pos})
	default:
		d.errorf(n, "expected (case ...) or (default ...) in switch, got %s", n)
		return c
	}
	for _, stmt := range args {
		c.Children = append(c.Children, d.stmt(stmt))
	}
	return c
}

func (d *decoder) expr(n *sexy.Node) *ASTNode {
	pos := d.pos(n)
	var node *ASTNode

	switch n.Type {
	case sexy.NodeInteger:
		v, err := strconv.ParseInt(n.Text, 10, 64)
		if err != nil {
			d.errorf(n, "invalid integer %s", n.Text)
		}
		node = &ASTNode{Kind: NodeInteger, Integer: v}
	case sexy.NodeString:
		node = &ASTNode{Kind: NodeString, String: n.Text}
	case sexy.NodeSymbol:
		switch n.Text {
		case "true", "false":
			node = &ASTNode{Kind: NodeBoolean, Boolean: n.Text == "true"}
		case "null":
			node = &ASTNode{Kind: NodeNull}
		case "undefined":
			node = &ASTNode{Kind: NodeUndefined}
		default:
			d.errorf(n, "unexpected symbol '%s' in expression", n.Text)
			return &ASTNode{Kind: NodeNone, Pos: pos}
		}
	case sexy.NodeList:
		node = d.compound(n)
		if node == nil {
			return &ASTNode{Kind: NodeNone, Pos: pos}
		}
	default:
		d.errorf(n, "unexpected %s in expression", n)
		return &ASTNode{Kind: NodeNone, Pos: pos}
	}

	node.Pos = pos
	node.Tag = n.Label
	return node
}

func (d *decoder) compound(n *sexy.Node) *ASTNode {
	args := n.Args()
	arity := func(want int) bool {
		if len(args) != want {
			d.errorf(n, "(%s) takes %d operands, got %d", n.Head(), want, len(args))
			return false
		}
		return true
	}

	switch n.Head() {
	case "ident":
		if !arity(1) {
			return nil
		}
		return &ASTNode{Kind: NodeIdent, String: d.name(args[0], "variable")}

	case "binary":
		if !arity(3) {
			return nil
		}
		op := d.operator(args[0], binaryOperators)
		return &ASTNode{Kind: NodeBinary, Op: op, Children: []*ASTNode{d.expr(args[1]), d.expr(args[2])}}

	case "unary":
		if !arity(2) {
			return nil
		}
		op := d.operator(args[0], unaryOperators)
		return &ASTNode{Kind: NodeUnary, Op: op, Children: []*ASTNode{d.expr(args[1])}}

	case "cond":
		if !arity(3) {
			return nil
		}
		return &ASTNode{Kind: NodeCond, Children: []*ASTNode{d.expr(args[0]), d.expr(args[1]), d.expr(args[2])}}

	case "call":
		if len(args) < 1 {
			d.errorf(n, "(call CALLEE ARG...) needs a callee")
			return nil
		}
		call := &ASTNode{Kind: NodeCall}
		for _, arg := range args {
			call.Children = append(call.Children, d.expr(arg))
		}
		d.annotate(call, n, "type")
		if params := n.Meta("params"); params != nil {
			if params.Type != sexy.NodeArray {
				d.errorf(params, "params must be an array of types")
			} else {
				for _, p := range params.Items {
					call.ParamTypes = append(call.ParamTypes, d.typ(p))
				}
			}
		}
		return call

	case "assign":
		if !arity(2) {
			return nil
		}
		target := &ASTNode{Kind: NodeIdent, String: d.name(args[0], "variable"), Pos: d.pos(n)}
		return &ASTNode{Kind: NodeAssign, Children: []*ASTNode{target, d.expr(args[1])}}

	case "update":
		if !arity(2) {
			return nil
		}
		op := d.operator(args[0], updateOperators)
		target := &ASTNode{Kind: NodeIdent, String: d.name(args[1], "variable"), Pos: d.pos(n)}
		return &ASTNode{Kind: NodeUpdate, Op: op, Children: []*ASTNode{target}}
	}

	d.errorf(n, "unknown form %s", n)
	return nil
}

var (
	binaryOperators = []string{
		"==", "!=", "===", "!==", "<", ">", "<=", ">=",
		"+", "-", "*", "/", "%", "&&", "||",
	}
	unaryOperators  = []string{"!", "-", "+", "typeof", "void"}
	updateOperators = []string{"++", "--"}
)

func (d *decoder) operator(n *sexy.Node, allowed []string) string {
	if n.Type != sexy.NodeString {
		d.errorf(n, "operator must be a string, got %s", n)
		return ""
	}
	for _, op := range allowed {
		if op == n.Text {
			return op
		}
	}
	d.errorf(n, "unsupported operator \"%s\"", n.Text)
	return n.Text
}
