/*
NaiveSystems Analyze - A tool for static code analysis
Copyright (C) 2023  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package syntax builds a syntax tree from C++ tokens. The parser never
// gives up: malformed input yields Error placeholder nodes and entries in
// Tree.Errors, and parsing resumes at the next statement or declaration.
package syntax

import (
	"fmt"
	"strconv"
	"strings"

	"naive.systems/cxxlint/lexer"
	"naive.systems/cxxlint/source"
)

type parser struct {
	toks    []lexer.Token
	pos     int
	tree    *Tree
	braces  []int     // token indexes of unmatched '{'
	fns     []fnFrame // enclosing function bodies
	closing bool      // unwinding to the function body being force-closed
}

type fnFrame struct {
	name   string
	column int // column of the first token of the definition
	brace  int // token index of the body's '{'
	depth  int // len(braces) before the body was opened
}

// Parse builds the tree for one translation unit. Trivia tokens are dropped.
func Parse(tokens []lexer.Token) *Tree {
	p := &parser{tree: &Tree{}}
	for _, tok := range tokens {
		if !tok.IsTrivia() && tok.Kind != lexer.EOF {
			p.toks = append(p.toks, tok)
		}
	}
	eof := lexer.Token{Kind: lexer.EOF, Pos: source.Pos{Line: 1, Column: 1}}
	if n := len(tokens); n > 0 {
		last := tokens[n-1]
		eof.Pos, eof.End = last.End, last.End
		eof.Offset, eof.EndOffset = last.EndOffset, last.EndOffset
	}
	eof.End = eof.Pos
	p.toks = append(p.toks, eof)
	p.tree.Tokens = p.toks

	root := p.node(TranslationUnit, 0)
	p.tree.Root = root
	for !p.atEOF() {
		before := p.pos
		if p.at("}") {
			// stray closer at file scope
			p.advance()
			continue
		}
		if d := p.parseDeclaration(topContext); d != NoNode {
			p.add(root, d)
		}
		if p.pos == before {
			p.advance()
		}
	}
	if len(p.braces) > 0 {
		open := p.toks[p.braces[0]]
		p.errorf(UnbalancedDelimiter, source.Span{Start: open.Pos, End: eof.Pos}, "'{' is never closed")
	}
	p.tree.Nodes[root].Span = source.Span{Start: p.toks[0].Pos, End: eof.Pos}
	if len(tokens) > 0 {
		p.tree.Nodes[root].Span.Start = tokens[0].Pos
	}
	return p.tree
}

func (p *parser) cur() lexer.Token {
	return p.toks[p.pos]
}

func (p *parser) peek(n int) lexer.Token {
	return p.tokAt(p.pos + n)
}

func (p *parser) tokAt(i int) lexer.Token {
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) at(text string) bool {
	return p.cur().Is(text)
}

func (p *parser) atEOF() bool {
	return p.cur().Kind == lexer.EOF
}

// advance consumes one token and maintains the brace stack.
func (p *parser) advance() lexer.Token {
	tok := p.toks[p.pos]
	if tok.Kind == lexer.EOF {
		return tok
	}
	switch {
	case tok.Is("{"):
		p.braces = append(p.braces, p.pos)
	case tok.Is("}"):
		if n := len(p.braces); n > 0 {
			p.braces = p.braces[:n-1]
		} else {
			p.errorf(UnbalancedDelimiter, tok.Span(), "unmatched '}'")
		}
	}
	p.pos++
	return tok
}

// advanceTo consumes tokens up to, not including, index end.
func (p *parser) advanceTo(end int) {
	for p.pos < end && !p.atEOF() {
		p.advance()
	}
}

func (p *parser) lastEnd() source.Pos {
	if p.pos == 0 {
		return p.toks[0].Pos
	}
	return p.toks[p.pos-1].End
}

// prevSpan is the span of the last consumed token, where errors about
// unterminated constructs are anchored.
func (p *parser) prevSpan() source.Span {
	if p.pos == 0 {
		return p.cur().Span()
	}
	return p.toks[p.pos-1].Span()
}

func (p *parser) errorf(kind ErrorKind, span source.Span, format string, args ...any) {
	p.tree.Errors = append(p.tree.Errors, ParseError{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span})
}

// expect consumes text or reports that it is missing after the last
// consumed token.
func (p *parser) expect(text string) bool {
	if p.at(text) {
		p.advance()
		return true
	}
	p.errorf(SyntaxError, p.prevSpan(), "expected '%s'%s", text, p.foundSuffix())
	return false
}

func (p *parser) foundSuffix() string {
	tok := p.cur()
	if tok.Kind == lexer.EOF {
		return " at end of input"
	}
	return fmt.Sprintf(" before '%s'", tok.Text)
}

// expectSemi ends a statement or declaration, resynchronizing on failure.
func (p *parser) expectSemi(after string) bool {
	if p.at(";") {
		p.advance()
		return true
	}
	p.errorf(SyntaxError, p.prevSpan(), "expected ';' after %s", after)
	p.recover()
	return false
}

// recover skips to the next ';' (consumed), an unmatched '}' (not consumed)
// or EOF. Nothing is skipped when the current token already begins a
// statement on a later line.
func (p *parser) recover() {
	if p.startsStatement() {
		return
	}
	depth := 0
	for !p.atEOF() {
		switch {
		case p.at("{"):
			depth++
		case p.at("}"):
			if depth == 0 {
				return
			}
			depth--
		case p.at(";") && depth == 0:
			p.advance()
			return
		}
		p.advance()
	}
}

func (p *parser) startsStatement() bool {
	if p.pos == 0 {
		return true
	}
	tok := p.cur()
	if tok.Pos.Line <= p.toks[p.pos-1].End.Line {
		return false
	}
	switch tok.Kind {
	case lexer.Ident:
		return true
	case lexer.Keyword:
		return statementKeywords[tok.Text] || fundamentalTypes[tok.Text] || specifiers[tok.Text]
	case lexer.Operator:
		switch tok.Text {
		case "*", "++", "--", "::", "~":
			return true
		}
	}
	return false
}

var statementKeywords = map[string]bool{
	"if": true, "while": true, "do": true, "for": true, "switch": true,
	"return": true, "break": true, "continue": true, "goto": true, "try": true,
	"throw": true, "case": true, "default": true, "delete": true, "new": true,
	"using": true, "typedef": true, "class": true, "struct": true, "union": true,
	"enum": true, "template": true, "namespace": true, "static_assert": true,
	"this": true, "const": true, "volatile": true,
}

func (p *parser) node(kind Kind, tok int) NodeID {
	t := p.tokAt(tok)
	p.tree.Nodes = append(p.tree.Nodes, Node{
		Kind:     kind,
		Span:     source.Span{Start: t.Pos, End: t.Pos},
		Parent:   NoNode,
		ArrayLen: -1,
		Tok:      tok,
	})
	return NodeID(len(p.tree.Nodes) - 1)
}

func (p *parser) add(parent, child NodeID) {
	p.tree.Nodes[parent].Children = append(p.tree.Nodes[parent].Children, child)
	if child != NoNode {
		p.tree.Nodes[child].Parent = parent
	}
}

// finish ends a node at the last consumed token and widens it to cover its
// children.
func (p *parser) finish(id NodeID) NodeID {
	n := &p.tree.Nodes[id]
	end := p.lastEnd()
	if end.Before(n.Span.Start) {
		n.Span.End = n.Span.Start
	} else {
		n.Span.End = end
	}
	for _, c := range n.Children {
		if c != NoNode {
			n.Span = n.Span.Union(p.tree.Nodes[c].Span)
		}
	}
	return id
}

// placeholder stands in for a missing construct. It is zero-width at the end
// of the last consumed token.
func (p *parser) placeholder() NodeID {
	id := p.node(Error, p.pos)
	end := p.lastEnd()
	p.tree.Nodes[id].Span = source.Span{Start: end, End: end}
	return id
}

// skipBalanced consumes a bracketed group starting at the current opener.
// visit sees every token inside the group.
func (p *parser) skipBalanced(visit func(i int)) {
	open := p.cur().Text
	closer := map[string]string{"(": ")", "[": "]", "{": "}", "<": ">"}[open]
	depth := 0
	for !p.atEOF() {
		tok := p.cur()
		switch {
		case tok.Is(open):
			depth++
		case tok.Is(closer):
			depth--
		}
		if visit != nil && depth > 0 && !tok.Is(open) {
			visit(p.pos)
		}
		p.advance()
		if depth == 0 {
			return
		}
		// a '}' at depth zero of a non-brace group means the group is broken
		if open != "{" && p.at("}") {
			return
		}
	}
}

// parseIntLiteral converts a C++ integer literal, ignoring suffixes and
// digit separators.
func parseIntLiteral(text string) (int64, bool) {
	text = strings.ReplaceAll(text, "'", "")
	text = strings.TrimRight(text, "uUlLzZ")
	if len(text) > 1 && text[0] == '0' && text[1] >= '0' && text[1] <= '9' {
		text = "0o" + text[1:]
	}
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// IntValue returns the value of an integer literal node.
func (t *Tree) IntValue(id NodeID) (int64, bool) {
	id = t.Unparen(id)
	if id == NoNode {
		return 0, false
	}
	n := &t.Nodes[id]
	switch {
	case n.Kind == Literal && n.Has(FlagNumber):
		return parseIntLiteral(n.Name)
	case n.Kind == Literal && n.Has(FlagBool):
		if n.Name == "true" {
			return 1, true
		}
		return 0, true
	case n.Kind == Unary && n.Op == "-":
		v, ok := t.IntValue(t.Child(id, 0))
		return -v, ok
	}
	return 0, false
}
