package main

import (
	"fmt"
	"strconv"
	"strings"
)

// Pos is a source position carried over from the tree. Col is zero when
// the producer only knows the line.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.Col == 0 {
		return strconv.Itoa(p.Line)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// NodeKind represents different types of AST nodes
type NodeKind string

const (
	NodeProgram  NodeKind = "NodeProgram"
	NodeFunc     NodeKind = "NodeFunc"
	NodeParam    NodeKind = "NodeParam"
	NodeBlock    NodeKind = "NodeBlock"
	NodeVar      NodeKind = "NodeVar"
	NodeIf       NodeKind = "NodeIf"
	NodeWhile    NodeKind = "NodeWhile"
	NodeDoWhile  NodeKind = "NodeDoWhile"
	NodeFor      NodeKind = "NodeFor"
	NodeSwitch   NodeKind = "NodeSwitch"
	NodeCase     NodeKind = "NodeCase"
	NodeBreak    NodeKind = "NodeBreak"
	NodeContinue NodeKind = "NodeContinue"
	NodeLabel    NodeKind = "NodeLabel"
	NodeReturn   NodeKind = "NodeReturn"
	NodeThrow    NodeKind = "NodeThrow"
	// NodeNone fills an omitted slot, such as a for loop without an
	// update clause or the test of a default case.
	NodeNone NodeKind = "NodeNone"

	NodeIdent     NodeKind = "NodeIdent"
	NodeInteger   NodeKind = "NodeInteger"
	NodeString    NodeKind = "NodeString"
	NodeBoolean   NodeKind = "NodeBoolean"
	NodeNull      NodeKind = "NodeNull"
	NodeUndefined NodeKind = "NodeUndefined"
	NodeBinary    NodeKind = "NodeBinary"
	NodeUnary     NodeKind = "NodeUnary"
	NodeCond      NodeKind = "NodeCond"
	NodeCall      NodeKind = "NodeCall"
	NodeAssign    NodeKind = "NodeAssign"
	NodeUpdate    NodeKind = "NodeUpdate"
)

// ASTNode represents a node in the tree handed to the checker.
//
// Children layout by kind:
//
//	NodeProgram   functions
//	NodeFunc      body block (parameters are in Params)
//	NodeVar       initializer, if any
//	NodeIf        cond, then, else (optional)
//	NodeWhile     cond, body
//	NodeDoWhile   body, cond
//	NodeFor       init, cond, update, body (NodeNone when omitted)
//	NodeSwitch    discriminant, cases
//	NodeCase      test (NodeNone for default), statements
//	NodeLabel     labeled statement
//	NodeReturn    value, if any
//	NodeThrow     value
//	NodeBinary    left, right
//	NodeUnary     operand
//	NodeCond      cond, then, else
//	NodeCall      callee, arguments
//	NodeAssign    target ident, value
//	NodeUpdate    target ident
type ASTNode struct {
	Kind NodeKind
	// NodeIdent, NodeString, NodeFunc, NodeParam, NodeVar: the name or
	// literal. NodeBreak, NodeContinue, NodeLabel: the label.
	String string
	// NodeInteger:
	Integer int64
	// NodeBoolean:
	Boolean bool
	// NodeBinary, NodeUnary, NodeUpdate:
	Op       string
	Children []*ASTNode
	Pos      Pos
	// Tag is the fixture label attached to the node, if any.
	Tag string

	// NodeVar:
	DeclKind BindingKind
	// NodeVar, NodeParam: declared type. NodeFunc: return type.
	// NodeCall: result type.
	Annotation    Type
	HasAnnotation bool
	// NodeFunc:
	Params []*ASTNode
	// NodeCall: expected argument types; TypeAny where unconstrained.
	ParamTypes []Type

	// Filled by Resolve. NodeIdent, NodeVar, NodeParam: the binding.
	// NodeFunc: the function scope. NodeBlock, NodeFor, NodeSwitch: the
	// block scope they open.
	Binding *Binding
	Scope   *Scope

	// Filled by the checker on NodeIdent: the refined type visible at the
	// reference. TypeBottom when the reference is unreachable.
	Refined Type
}

// IsLoop reports whether the node is one of the loop statements.
func (n *ASTNode) IsLoop() bool {
	switch n.Kind {
	case NodeWhile, NodeDoWhile, NodeFor:
		return true
	}
	return false
}

// ToSExpr converts an AST node back to the s-expression form Decode reads.
// References that have been checked carry their refined type.
func ToSExpr(node *ASTNode) string {
	w := &sexprWriter{}
	w.node(node)
	return w.b.String()
}

// ToSExprWithPositions is ToSExpr with the line and column of every list
// form written as metadata, so decoding the result keeps the positions.
func ToSExprWithPositions(node *ASTNode) string {
	w := &sexprWriter{positions: true}
	w.node(node)
	return w.b.String()
}

type sexprWriter struct {
	b         strings.Builder
	positions bool
}

// list writes (head words... ^{meta} children...). The node's position is
// appended to meta when positions are enabled.
func (w *sexprWriter) list(node *ASTNode, head string, words []string, meta []string, children []*ASTNode) {
	w.b.WriteString("(" + head)
	for _, word := range words {
		w.b.WriteString(" " + word)
	}
	w.meta(node, meta)
	for _, child := range children {
		w.b.WriteString(" ")
		w.node(child)
	}
	w.b.WriteString(")")
}

func (w *sexprWriter) meta(node *ASTNode, meta []string) {
	if w.positions && node.Pos.Line != 0 {
		meta = append(meta, "line: "+strconv.Itoa(node.Pos.Line))
		if node.Pos.Col != 0 {
			meta = append(meta, "col: "+strconv.Itoa(node.Pos.Col))
		}
	}
	if len(meta) > 0 {
		w.b.WriteString(" ^{" + strings.Join(meta, ", ") + "}")
	}
}

func (w *sexprWriter) node(node *ASTNode) {
	if node.Tag != "" {
		w.b.WriteString("#" + node.Tag + "=")
	}

	var meta []string
	if node.HasAnnotation {
		key := "type"
		if node.Kind == NodeFunc {
			key = "returns"
		}
		meta = append(meta, key+": "+typeSExpr(node.Annotation))
	}

	switch node.Kind {
	case NodeNone:
		w.b.WriteString("none")
	case NodeInteger:
		w.b.WriteString(strconv.FormatInt(node.Integer, 10))
	case NodeString:
		w.b.WriteString(strconv.Quote(node.String))
	case NodeBoolean:
		w.b.WriteString(strconv.FormatBool(node.Boolean))
	case NodeNull:
		w.b.WriteString("null")
	case NodeUndefined:
		w.b.WriteString("undefined")
	case NodeIdent:
		if node.Binding != nil {
			meta = append(meta, "refined: "+typeSExpr(node.Refined))
		}
		w.list(node, "ident", []string{strconv.Quote(node.String)}, meta, nil)
	case NodeProgram:
		w.list(node, "program", nil, nil, node.Children)
	case NodeFunc:
		w.b.WriteString("(func " + strconv.Quote(node.String))
		w.meta(node, meta)
		w.b.WriteString(" ")
		w.list(&ASTNode{}, "params", nil, nil, node.Params)
		for _, stmt := range node.Children[0].Children {
			w.b.WriteString(" ")
			w.node(stmt)
		}
		w.b.WriteString(")")
	case NodeParam:
		w.list(node, "param", []string{strconv.Quote(node.String)}, meta, nil)
	case NodeVar:
		w.list(node, string(node.DeclKind), []string{strconv.Quote(node.String)}, meta, node.Children)
	case NodeBlock:
		w.list(node, "block", nil, nil, node.Children)
	case NodeIf:
		w.list(node, "if", nil, nil, node.Children)
	case NodeWhile:
		w.list(node, "while", nil, nil, node.Children)
	case NodeDoWhile:
		w.list(node, "do", nil, nil, node.Children)
	case NodeFor:
		w.list(node, "for", nil, nil, node.Children)
	case NodeSwitch:
		w.list(node, "switch", nil, nil, node.Children)
	case NodeCase:
		if node.Children[0].Kind == NodeNone {
			w.list(node, "default", nil, nil, node.Children[1:])
		} else {
			w.list(node, "case", nil, nil, node.Children)
		}
	case NodeBreak, NodeContinue:
		head := "break"
		if node.Kind == NodeContinue {
			head = "continue"
		}
		var words []string
		if node.String != "" {
			words = append(words, strconv.Quote(node.String))
		}
		w.list(node, head, words, nil, nil)
	case NodeLabel:
		w.list(node, "label", []string{strconv.Quote(node.String)}, nil, node.Children)
	case NodeReturn:
		w.list(node, "return", nil, nil, node.Children)
	case NodeThrow:
		w.list(node, "throw", nil, nil, node.Children)
	case NodeBinary:
		w.list(node, "binary", []string{strconv.Quote(node.Op)}, nil, node.Children)
	case NodeUnary:
		w.list(node, "unary", []string{strconv.Quote(node.Op)}, nil, node.Children)
	case NodeCond:
		w.list(node, "cond", nil, nil, node.Children)
	case NodeCall:
		if len(node.ParamTypes) > 0 {
			params := make([]string, len(node.ParamTypes))
			for i, t := range node.ParamTypes {
				params[i] = typeSExpr(t)
			}
			meta = append(meta, "params: ["+strings.Join(params, " ")+"]")
		}
		w.list(node, "call", nil, meta, node.Children)
	case NodeAssign:
		w.list(node, "assign", []string{strconv.Quote(node.Children[0].String)}, nil, node.Children[1:])
	case NodeUpdate:
		w.list(node, "update", []string{strconv.Quote(node.Op), strconv.Quote(node.Children[0].String)}, nil, nil)
	default:
		w.b.WriteString("(unknown)")
	}
}

// typeSExpr renders a type in the annotation form Decode accepts.
func typeSExpr(t Type) string {
	members := t.Members()
	switch len(members) {
	case 0:
		return "unreachable"
	case 1:
		return members[0].String()
	}
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = m.String()
	}
	return "(union " + strings.Join(parts, " ") + ")"
}
