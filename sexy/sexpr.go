package sexy

import (
	"fmt"
	"strings"
	"unicode"
)

// NodeType is the kind of datum a Node holds.
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeEllipsis
	NodeList
	NodeMap
	NodeSet
	NodeArray
	NodeLabelRef
)

// Node is one datum of the notation used for flow trees and fixture
// assertions.
type Node struct {
	Type NodeType

	// NodeSymbol, NodeString, NodeInteger, NodeLabelRef
	Text string

	// NodeList, NodeSet, NodeArray items; NodeMap values, parallel to Keys
	Items []*Node
	Keys  []string

	// ^{...} entries of a NodeList, parallel slices. Later keys win.
	MetaKeys  []string
	MetaItems []*Node

	// Label is set by a #name= prefix.
	Label string

	// Line is the 1-based line of the datum's first token.
	Line int
}

func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	if n.Label != "" {
		b.WriteString("#" + n.Label + "=")
	}
	switch n.Type {
	case NodeSymbol, NodeInteger:
		b.WriteString(n.Text)
	case NodeString:
		b.WriteString(quote(n.Text))
	case NodeEllipsis:
		b.WriteString("...")
	case NodeLabelRef:
		b.WriteString("#" + n.Text + "#")
	case NodeList:
		b.WriteByte('(')
		sep := ""
		if len(n.MetaKeys) > 0 {
			b.WriteByte('^')
			writeEntries(b, n.MetaKeys, n.MetaItems)
			sep = " "
		}
		for _, item := range n.Items {
			b.WriteString(sep)
			item.write(b)
			sep = " "
		}
		b.WriteByte(')')
	case NodeMap:
		writeEntries(b, n.Keys, n.Items)
	case NodeSet:
		writeItems(b, '{', n.Items, '}')
	case NodeArray:
		writeItems(b, '[', n.Items, ']')
	default:
		fmt.Fprintf(b, "<node type %d>", n.Type)
	}
}

func writeEntries(b *strings.Builder, keys []string, values []*Node) {
	b.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(key + ": ")
		values[i].write(b)
	}
	b.WriteByte('}')
}

func writeItems(b *strings.Builder, open byte, items []*Node, close byte) {
	b.WriteByte(open)
	for i, item := range items {
		if i > 0 {
			b.WriteByte(' ')
		}
		item.write(b)
	}
	b.WriteByte(close)
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// IsSymbol reports whether n is the bare symbol name.
func (n *Node) IsSymbol(name string) bool {
	return n.Type == NodeSymbol && n.Text == name
}

// Head returns the leading symbol of a list such as (if ...), or "" when
// n is not a list headed by a symbol.
func (n *Node) Head() string {
	if n.Type != NodeList || len(n.Items) == 0 || n.Items[0].Type != NodeSymbol {
		return ""
	}
	return n.Items[0].Text
}

// Args returns the items of a list after its head symbol.
func (n *Node) Args() []*Node {
	if n.Head() == "" {
		return nil
	}
	return n.Items[1:]
}

// Meta returns the metadata value stored under key on a list, or nil.
func (n *Node) Meta(key string) *Node {
	return lookup(n.MetaKeys, n.MetaItems, key)
}

// Get returns the value stored under key in a map, or nil.
func (n *Node) Get(key string) *Node {
	if n.Type != NodeMap {
		return nil
	}
	return lookup(n.Keys, n.Items, key)
}

func lookup(keys []string, values []*Node, key string) *Node {
	for i, k := range keys {
		if k == key {
			return values[i]
		}
	}
	return nil
}

// Parse reads exactly one datum from input. Errors are prefixed with the
// line they occur on.
func Parse(input string) (*Node, error) {
	tokens, err := scan(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	node, err := p.datum()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, tok.errorf("expected end of input, got %s", tok)
	}
	return node, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

// lookahead returns the token after the next one.
func (p *parser) lookahead() token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(text string) error {
	tok := p.next()
	if !tok.is(text) {
		return tok.errorf("expected '%s', got %s", text, tok)
	}
	return nil
}

func (p *parser) datum() (*Node, error) {
	label := ""
	if p.peek().kind == tokLabelDef {
		label = p.next().text
	}
	tok := p.peek()
	node, err := p.bareDatum()
	if err != nil {
		return nil, err
	}
	node.Label = label
	node.Line = tok.line
	return node, nil
}

func (p *parser) bareDatum() (*Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokSymbol:
		return &Node{Type: NodeSymbol, Text: tok.text}, nil
	case tokString:
		return &Node{Type: NodeString, Text: tok.text}, nil
	case tokInteger:
		return &Node{Type: NodeInteger, Text: tok.text}, nil
	case tokEllipsis:
		return &Node{Type: NodeEllipsis}, nil
	case tokLabelRef:
		return &Node{Type: NodeLabelRef, Text: tok.text}, nil
	case tokPunct:
		switch tok.text {
		case "(":
			return p.list(tok)
		case "[":
			items, err := p.items(tok, "]")
			if err != nil {
				return nil, err
			}
			return &Node{Type: NodeArray, Items: items}, nil
		case "{":
			return p.braces(tok)
		}
	}
	return nil, tok.errorf("unexpected %s", tok)
}

// items reads data up to and including close.
func (p *parser) items(open token, close string) ([]*Node, error) {
	var items []*Node
	for !p.peek().is(close) {
		if p.peek().kind == tokEOF {
			return nil, p.peek().errorf("'%s' opened on line %d is never closed", open.text, open.line)
		}
		item, err := p.datum()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	p.next()
	return items, nil
}

func (p *parser) list(open token) (*Node, error) {
	list := &Node{Type: NodeList}
	for !p.peek().is(")") {
		if p.peek().kind == tokEOF {
			return nil, p.peek().errorf("'(' opened on line %d is never closed", open.line)
		}
		if !p.peek().is("^") {
			item, err := p.datum()
			if err != nil {
				return nil, err
			}
			list.Items = append(list.Items, item)
			continue
		}

		p.next()
		if err := p.expect("{"); err != nil {
			return nil, err
		}
		keys, values, err := p.entries()
		if err != nil {
			return nil, err
		}
		for i, key := range keys {
			if j := indexOf(list.MetaKeys, key); j >= 0 {
				list.MetaItems[j] = values[i]
			} else {
				list.MetaKeys = append(list.MetaKeys, key)
				list.MetaItems = append(list.MetaItems, values[i])
			}
		}
	}
	p.next()
	return list, nil
}

// braces reads a map {k: v, ...} or a set {a b ...} after its '{'. An
// empty {} is a map.
func (p *parser) braces(open token) (*Node, error) {
	if p.peek().is("}") {
		p.next()
		return &Node{Type: NodeMap}, nil
	}
	if p.peek().kind == tokSymbol && p.lookahead().is(":") {
		keys, values, err := p.entries()
		if err != nil {
			return nil, err
		}
		return &Node{Type: NodeMap, Keys: keys, Items: values}, nil
	}
	items, err := p.items(open, "}")
	if err != nil {
		return nil, err
	}
	return &Node{Type: NodeSet, Items: items}, nil
}

// entries reads key: value pairs separated by commas up to and including
// the closing '}'. A trailing comma is allowed.
func (p *parser) entries() ([]string, []*Node, error) {
	var keys []string
	var values []*Node
	for !p.peek().is("}") {
		key := p.next()
		if key.kind != tokSymbol {
			return nil, nil, key.errorf("expected a symbol as map key, got %s", key)
		}
		if err := p.expect(":"); err != nil {
			return nil, nil, err
		}
		value, err := p.datum()
		if err != nil {
			return nil, nil, err
		}
		keys = append(keys, key.text)
		values = append(values, value)

		if p.peek().is(",") {
			p.next()
		} else if !p.peek().is("}") {
			return nil, nil, p.peek().errorf("expected ',' or '}' in map, got %s", p.peek())
		}
	}
	p.next()
	return keys, values, nil
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokSymbol
	tokString
	tokInteger
	tokEllipsis
	tokLabelDef
	tokLabelRef
	// tokPunct is one of ( ) [ ] { } : , ^
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (t token) is(punct string) bool {
	return t.kind == tokPunct && t.text == punct
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokPunct:
		return "'" + t.text + "'"
	case tokString:
		return "string " + quote(t.text)
	case tokLabelDef:
		return "label #" + t.text + "="
	case tokLabelRef:
		return "label reference #" + t.text + "#"
	case tokEllipsis:
		return "'...'"
	case tokInteger:
		return "integer " + t.text
	}
	return "symbol " + t.text
}

func (t token) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", t.line, fmt.Sprintf(format, args...))
}

// scan splits input into tokens. The result always ends with tokEOF.
func scan(input string) ([]token, error) {
	s := &scanner{src: []rune(input), line: 1}
	var tokens []token
	for {
		tok, err := s.token()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", s.line, err)
		}
		tokens = append(tokens, tok)
		if tok.kind == tokEOF {
			return tokens, nil
		}
	}
}

type scanner struct {
	src  []rune
	pos  int
	line int
}

func (s *scanner) at(offset int) rune {
	if s.pos+offset < len(s.src) {
		return s.src[s.pos+offset]
	}
	return 0
}

func (s *scanner) advance() rune {
	r := s.src[s.pos]
	s.pos++
	if r == '\n' {
		s.line++
	}
	return r
}

func (s *scanner) skipSpaceAndComments() {
	for s.pos < len(s.src) {
		switch r := s.at(0); {
		case unicode.IsSpace(r):
			s.advance()
		case r == ';':
			for s.pos < len(s.src) && s.at(0) != '\n' {
				s.advance()
			}
		default:
			return
		}
	}
}

func (s *scanner) token() (token, error) {
	s.skipSpaceAndComments()
	tok := token{line: s.line}
	if s.pos >= len(s.src) {
		tok.kind = tokEOF
		return tok, nil
	}

	r := s.at(0)
	switch {
	case strings.ContainsRune("()[]{}:,^", r):
		s.advance()
		tok.kind, tok.text = tokPunct, string(r)
	case r == '"':
		text, err := s.str()
		if err != nil {
			return tok, err
		}
		tok.kind, tok.text = tokString, text
	case r == '#':
		s.advance()
		name := s.labelName()
		switch s.at(0) {
		case '=':
			s.advance()
			tok.kind, tok.text = tokLabelDef, name
		case '#':
			s.advance()
			tok.kind, tok.text = tokLabelRef, name
		default:
			tok.kind, tok.text = tokSymbol, "#"+name
		}
	case r == '.':
		if s.at(1) != '.' || s.at(2) != '.' {
			return tok, fmt.Errorf("unexpected character '.'")
		}
		s.pos += 3
		tok.kind, tok.text = tokEllipsis, "..."
	case unicode.IsDigit(r), (r == '+' || r == '-') && unicode.IsDigit(s.at(1)):
		start := s.pos
		s.advance()
		for unicode.IsDigit(s.at(0)) {
			s.advance()
		}
		tok.kind, tok.text = tokInteger, string(s.src[start:s.pos])
	case unicode.IsLetter(r), r == '+', r == '-':
		start := s.pos
		s.advance()
		for isSymbolChar(s.at(0)) {
			s.advance()
		}
		tok.kind, tok.text = tokSymbol, string(s.src[start:s.pos])
	default:
		return tok, fmt.Errorf("unexpected character '%c'", r)
	}
	return tok, nil
}

func (s *scanner) str() (string, error) {
	s.advance()
	var b strings.Builder
	for {
		if s.pos >= len(s.src) {
			return "", fmt.Errorf("unterminated string")
		}
		r := s.advance()
		switch r {
		case '"':
			return b.String(), nil
		case '\\':
			esc := s.at(0)
			if esc != '"' && esc != '\\' {
				return "", fmt.Errorf("invalid escape sequence: \\%c", esc)
			}
			s.advance()
			b.WriteRune(esc)
		default:
			b.WriteRune(r)
		}
	}
}

// labelName reads the name after '#': all digits, or a symbol.
func (s *scanner) labelName() string {
	start := s.pos
	if unicode.IsDigit(s.at(0)) {
		for unicode.IsDigit(s.at(0)) {
			s.advance()
		}
	} else {
		for isSymbolChar(s.at(0)) {
			s.advance()
		}
	}
	return string(s.src[start:s.pos])
}

func isSymbolChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
}
