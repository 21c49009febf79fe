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

package syntax

import (
	"strings"

	"naive.systems/cxxlint/lexer"
)

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"<<=": true, ">>=": true, "&=": true, "|=": true, "^=": true,
}

var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7,
	"<=>": 8,
	"<<":  9, ">>": 9,
	"+": 10, "-": 10,
	"*": 11, "/": 11, "%": 11,
	".*": 12, "->*": 12,
}

var castKeywords = map[string]bool{
	"static_cast": true, "dynamic_cast": true, "reinterpret_cast": true, "const_cast": true,
}

// parseExpr parses a full expression, including the comma operator.
func (p *parser) parseExpr() NodeID {
	lhs := p.parseAssign()
	for p.at(",") {
		op := p.pos
		p.advance()
		rhs := p.parseAssign()
		lhs = p.binary(Binary, op, lhs, rhs)
	}
	return lhs
}

func (p *parser) binary(kind Kind, op int, lhs, rhs NodeID) NodeID {
	id := p.node(kind, op)
	p.tree.Nodes[id].Op = p.toks[op].Text
	p.add(id, lhs)
	p.add(id, rhs)
	return p.finish(id)
}

func (p *parser) parseAssign() NodeID {
	if p.at("throw") {
		id := p.node(Throw, p.pos)
		p.advance()
		if !p.at(";") && !p.at(")") && !p.at(",") && !p.at("}") {
			p.add(id, p.parseAssign())
		}
		return p.finish(id)
	}
	lhs := p.parseConditional()
	if tok := p.cur(); tok.Kind == lexer.Operator && assignOps[tok.Text] {
		op := p.pos
		p.advance()
		var rhs NodeID
		if p.at("{") {
			rhs = p.parseInitList()
		} else {
			rhs = p.parseAssign()
		}
		return p.binary(Assign, op, lhs, rhs)
	}
	return lhs
}

func (p *parser) parseConditional() NodeID {
	cond := p.parseBinary(1)
	if !p.at("?") {
		return cond
	}
	id := p.node(Conditional, p.pos)
	p.advance()
	p.add(id, cond)
	p.add(id, p.parseExpr())
	if p.expect(":") {
		p.add(id, p.parseAssign())
	} else {
		p.add(id, p.placeholder())
	}
	return p.finish(id)
}

func (p *parser) parseBinary(minPrec int) NodeID {
	lhs := p.parseUnary()
	for {
		tok := p.cur()
		prec := 0
		if tok.Kind == lexer.Operator {
			prec = binaryPrec[tok.Text]
		}
		if prec == 0 || prec < minPrec {
			return lhs
		}
		op := p.pos
		p.advance()
		rhs := p.parseBinary(prec + 1)
		lhs = p.binary(Binary, op, lhs, rhs)
	}
}

func (p *parser) unary(kind Kind) NodeID {
	id := p.node(kind, p.pos)
	p.tree.Nodes[id].Op = p.advance().Text
	p.add(id, p.parseUnary())
	return p.finish(id)
}

func (p *parser) parseUnary() NodeID {
	tok := p.cur()
	switch {
	case tok.Is("*"):
		return p.unary(Deref)
	case tok.Is("&"):
		return p.unary(AddrOf)
	case tok.Is("-") || tok.Is("+") || tok.Is("!") || tok.Is("~") || tok.Is("++") || tok.Is("--"):
		return p.unary(Unary)
	case tok.Is("sizeof") || tok.Is("alignof"):
		id := p.node(Sizeof, p.pos)
		p.advance()
		if p.at("...") {
			p.advance()
		}
		if p.at("(") {
			if ts, ok := p.scanType(p.pos + 1); ok && p.tokAt(ts.end).Is(")") && (ts.keyword || ts.ref.Builtin || ts.ref.Pointer > 0) {
				p.advanceTo(ts.end + 1)
				return p.finish(id)
			}
		}
		p.add(id, p.parseUnary())
		return p.finish(id)
	case tok.Is("::") && (p.peek(1).Is("new") || p.peek(1).Is("delete")):
		p.advance()
		return p.parseUnary()
	case tok.Is("new"):
		return p.parseNew()
	case tok.Is("delete"):
		id := p.node(Delete, p.pos)
		p.advance()
		if p.at("[") && p.peek(1).Is("]") {
			p.advance()
			p.advance()
			p.tree.Nodes[id].Flags |= FlagArray
		}
		p.add(id, p.parseUnary())
		return p.finish(id)
	case tok.Is("(") && p.isCast():
		id := p.node(Cast, p.pos)
		ts, _ := p.scanType(p.pos + 1)
		p.tree.Nodes[id].Type = ts.ref
		p.advanceTo(ts.end + 1)
		p.add(id, p.parseUnary())
		return p.finish(id)
	}
	return p.parsePostfix(p.parsePrimary())
}

// isCast recognizes a C-style cast at the current '('.
func (p *parser) isCast() bool {
	ts, ok := p.scanType(p.pos + 1)
	if !ok || !p.tokAt(ts.end).Is(")") {
		return false
	}
	if ts.keyword || ts.ref.Pointer > 0 || ts.ref.Builtin {
		return true
	}
	next := p.tokAt(ts.end + 1)
	switch next.Kind {
	case lexer.Ident, lexer.Number, lexer.String, lexer.Char:
		return true
	case lexer.Keyword:
		return next.Text == "this" || next.Text == "nullptr" || next.Text == "true" || next.Text == "false"
	}
	return false
}

func (p *parser) parseNew() NodeID {
	id := p.node(New, p.pos)
	p.advance()
	if p.at("(") {
		// placement arguments are followed by the allocated type
		if end, ok := p.scanGroup(p.pos); ok {
			if next := p.tokAt(end); next.Kind == lexer.Ident || next.Is("::") || fundamentalTypes[next.Text] || next.Is("(") {
				p.advanceTo(end)
			}
		}
	}
	if p.at("(") {
		p.skipBalanced(nil)
	} else if ts, ok := p.scanType(p.pos); ok {
		p.tree.Nodes[id].Type = ts.ref
		p.advanceTo(ts.end)
	} else {
		p.errorf(SyntaxError, p.prevSpan(), "expected a type after 'new'")
		return p.finish(id)
	}
	switch {
	case p.at("["):
		p.tree.Nodes[id].Flags |= FlagArray
		p.advance()
		p.add(id, p.parseExpr())
		p.expect("]")
		for p.at("[") {
			p.skipBalanced(nil)
		}
		if p.at("{") {
			p.add(id, p.parseInitList())
		} else if p.at("(") {
			p.parseArgs(id)
		}
	case p.at("("):
		p.parseArgs(id)
	case p.at("{"):
		p.add(id, p.parseInitList())
	}
	return p.finish(id)
}

func (p *parser) parsePrimary() NodeID {
	tok := p.cur()
	switch tok.Kind {
	case lexer.Ident:
		return p.parseName()
	case lexer.Number:
		return p.literal(FlagNumber)
	case lexer.Char:
		return p.literal(FlagChar)
	case lexer.String:
		id := p.literal(FlagString)
		for p.cur().Kind == lexer.String {
			p.tree.Nodes[id].Name += p.advance().Text
		}
		return p.finish(id)
	case lexer.Keyword:
		switch {
		case tok.Text == "true" || tok.Text == "false":
			return p.literal(FlagBool)
		case tok.Text == "nullptr":
			return p.literal(FlagNull)
		case tok.Text == "this":
			id := p.node(This, p.pos)
			p.advance()
			return p.finish(id)
		case castKeywords[tok.Text]:
			return p.parseNamedCast()
		case tok.Text == "typeid" || tok.Text == "decltype" || tok.Text == "noexcept":
			id := p.node(Call, p.pos)
			callee := p.node(Ident, p.pos)
			p.tree.Nodes[callee].Name = p.advance().Text
			p.add(id, p.finish(callee))
			if p.at("(") {
				p.parseArgs(id)
			}
			return p.finish(id)
		case fundamentalTypes[tok.Text] || tok.Text == "typename":
			// functional cast: int(x), double{y}
			id := p.node(Cast, p.pos)
			ts, ok := p.scanType(p.pos)
			if !ok {
				p.advance()
				return p.finish(id)
			}
			p.tree.Nodes[id].Type = ts.ref
			p.advanceTo(ts.end)
			if p.at("(") {
				p.parseArgs(id)
			} else if p.at("{") {
				p.add(id, p.parseInitList())
			}
			return p.finish(id)
		case tok.Text == "operator":
			id := p.node(Ident, p.pos)
			p.tree.Nodes[id].Name = p.parseOperatorName()
			return p.finish(id)
		}
	case lexer.Operator:
		if tok.Text == "::" {
			return p.parseName()
		}
	case lexer.Punct:
		switch tok.Text {
		case "(":
			id := p.node(Paren, p.pos)
			p.advance()
			if p.at("{") {
				// statement expression
				p.add(id, p.parseBlock())
			} else {
				p.add(id, p.parseExpr())
			}
			p.expect(")")
			return p.finish(id)
		case "{":
			return p.parseInitList()
		case "[":
			return p.parseLambda()
		}
	}
	p.errorf(SyntaxError, p.prevSpan(), "expected expression%s", p.foundSuffix())
	return p.placeholder()
}

func (p *parser) literal(flag Flags) NodeID {
	id := p.node(Literal, p.pos)
	p.tree.Nodes[id].Flags |= flag
	p.tree.Nodes[id].Name = p.advance().Text
	return p.finish(id)
}

// parseName parses a possibly qualified identifier. Template arguments are
// consumed when they are followed by '(', '::' or '{'.
func (p *parser) parseName() NodeID {
	id := p.node(Ident, p.pos)
	var b strings.Builder
	if p.at("::") {
		b.WriteString(p.advance().Text)
	}
	for {
		if p.at("~") {
			b.WriteString(p.advance().Text)
		}
		if p.cur().Kind != lexer.Ident {
			if p.at("operator") {
				b.WriteString(p.parseOperatorName())
			}
			break
		}
		p.tree.Nodes[id].Tok = p.pos
		b.WriteString(p.advance().Text)
		if p.at("<") {
			if end, ok := p.scanTemplateArgs(p.pos); ok {
				next := p.tokAt(end)
				if next.Is("(") || next.Is("::") || next.Is("{") {
					for p.pos < end {
						b.WriteString(p.advance().Text)
					}
				}
			}
		}
		if p.at("::") {
			b.WriteString(p.advance().Text)
			if p.at("template") {
				p.advance()
			}
			continue
		}
		break
	}
	name := b.String()
	if name == "NULL" {
		p.tree.Nodes[id].Kind = Literal
		p.tree.Nodes[id].Flags |= FlagNull
	}
	p.tree.Nodes[id].Name = name
	return p.finish(id)
}

func (p *parser) parseNamedCast() NodeID {
	id := p.node(Cast, p.pos)
	p.tree.Nodes[id].Op = p.advance().Text
	if p.at("<") {
		if end, ok := p.scanTemplateArgs(p.pos); ok {
			if ts, ok := p.scanType(p.pos + 1); ok {
				p.tree.Nodes[id].Type = ts.ref
			}
			p.advanceTo(end)
		} else {
			p.errorf(SyntaxError, p.prevSpan(), "expected '>' in %s", p.tree.Nodes[id].Op)
		}
	}
	if !p.expect("(") {
		return p.finish(id)
	}
	p.add(id, p.parseExpr())
	p.expect(")")
	return p.finish(id)
}

func (p *parser) parsePostfix(e NodeID) NodeID {
	for {
		tok := p.cur()
		switch {
		case tok.Is("("):
			call := p.node(Call, p.pos)
			p.add(call, e)
			p.parseArgs(call)
			e = p.finish(call)
		case tok.Is("["):
			idx := p.node(Index, p.pos)
			p.add(idx, e)
			p.advance()
			p.add(idx, p.parseExpr())
			p.expect("]")
			e = p.finish(idx)
		case tok.Is(".") || tok.Is("->"):
			m := p.node(Member, p.pos)
			p.tree.Nodes[m].Op = p.advance().Text
			p.add(m, e)
			if p.at("template") {
				p.advance()
			}
			if p.at("~") {
				p.advance()
			}
			if p.cur().Kind == lexer.Ident {
				p.tree.Nodes[m].Tok = p.pos
				p.tree.Nodes[m].Name = p.advance().Text
				if p.at("<") {
					if end, ok := p.scanTemplateArgs(p.pos); ok && p.tokAt(end).Is("(") {
						p.advanceTo(end)
					}
				}
			} else if p.at("operator") {
				p.tree.Nodes[m].Name = p.parseOperatorName()
			} else {
				p.errorf(SyntaxError, p.prevSpan(), "expected member name%s", p.foundSuffix())
			}
			e = p.finish(m)
		case tok.Is("++") || tok.Is("--"):
			post := p.node(Postfix, p.pos)
			p.tree.Nodes[post].Op = p.advance().Text
			p.add(post, e)
			e = p.finish(post)
		default:
			return e
		}
	}
}

// parseArgs parses ( args ) and appends each argument to parent.
func (p *parser) parseArgs(parent NodeID) {
	p.advance()
	if p.at(")") {
		p.advance()
		return
	}
	for {
		var arg NodeID
		if p.at("{") {
			arg = p.parseInitList()
		} else {
			arg = p.parseAssign()
		}
		if p.at("...") {
			p.advance()
		}
		p.add(parent, arg)
		if p.at(",") {
			p.advance()
			continue
		}
		if p.at(")") {
			p.advance()
			return
		}
		p.errorf(SyntaxError, p.prevSpan(), "expected ')'%s", p.foundSuffix())
		return
	}
}

func (p *parser) parseInitList() NodeID {
	id := p.node(InitList, p.pos)
	p.tree.Nodes[id].Op = "{"
	p.advance()
	for !p.at("}") && !p.atEOF() {
		before := p.pos
		if p.at(".") && p.peek(1).Kind == lexer.Ident && p.peek(2).Is("=") {
			// designated initializer
			p.advance()
			p.advance()
			p.advance()
		}
		if p.at("{") {
			p.add(id, p.parseInitList())
		} else {
			p.add(id, p.parseAssign())
		}
		if p.at("...") {
			p.advance()
		}
		if p.at(",") {
			p.advance()
			continue
		}
		if !p.at("}") {
			p.errorf(SyntaxError, p.prevSpan(), "expected '}' to close initializer list%s", p.foundSuffix())
			return p.finish(id)
		}
		if p.pos == before {
			break
		}
	}
	if p.at("}") {
		p.advance()
	}
	return p.finish(id)
}

// parseLambda skips a lambda expression. Identifiers in its captures and
// body are kept as Ident children so later passes see the variables it uses.
func (p *parser) parseLambda() NodeID {
	id := p.node(Lambda, p.pos)
	collect := func(i int) {
		tok := p.toks[i]
		if tok.Kind != lexer.Ident || (i > 0 && (p.toks[i-1].Is(".") || p.toks[i-1].Is("->") || p.toks[i-1].Is("::"))) {
			return
		}
		ident := p.node(Ident, i)
		p.tree.Nodes[ident].Name = tok.Text
		p.tree.Nodes[ident].Span = tok.Span()
		p.add(id, ident)
	}
	p.skipBalanced(collect)
	if p.at("<") {
		if end, ok := p.scanTemplateArgs(p.pos); ok {
			p.advanceTo(end)
		}
	}
	if p.at("(") {
		p.skipBalanced(nil)
	}
	for !p.at("{") && !p.at(";") && !p.at(")") && !p.atEOF() {
		p.advance()
	}
	if p.at("{") {
		p.skipBalanced(collect)
	}
	return p.finish(id)
}
