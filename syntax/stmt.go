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

import "naive.systems/cxxlint/lexer"

var stmtContext = declContext{kind: contextStmt}

// parseBlock parses { statements }. The closing '}' is left alone when the
// enclosing function body is being force-closed.
func (p *parser) parseBlock() NodeID {
	blk := p.node(Block, p.pos)
	p.advance()
	for !p.at("}") && !p.atEOF() {
		if p.closing || p.closesEnclosingFunction() {
			return p.finish(blk)
		}
		before := p.pos
		if s := p.parseStatement(); s != NoNode {
			p.add(blk, s)
		}
		if p.closing {
			return p.finish(blk)
		}
		if p.pos == before {
			p.advance()
		}
	}
	if p.at("}") {
		p.advance()
	}
	return p.finish(blk)
}

func (p *parser) parseStatement() NodeID {
	tok := p.cur()
	switch {
	case tok.Is("{"):
		return p.parseBlock()
	case tok.Is(";"):
		id := p.node(Empty, p.pos)
		p.advance()
		return p.finish(id)
	case tok.Is("if"):
		return p.parseIf()
	case tok.Is("while"):
		return p.parseWhile()
	case tok.Is("do"):
		return p.parseDoWhile()
	case tok.Is("for"):
		return p.parseFor()
	case tok.Is("switch"):
		return p.parseSwitch()
	case tok.Is("case"):
		id := p.node(Case, p.pos)
		p.advance()
		p.add(id, p.parseConditional())
		p.expect(":")
		return p.finish(id)
	case tok.Is("default") && p.peek(1).Is(":"):
		id := p.node(Default, p.pos)
		p.advance()
		p.advance()
		return p.finish(id)
	case tok.Is("return"):
		id := p.node(Return, p.pos)
		p.advance()
		if !p.at(";") {
			if p.at("{") {
				p.add(id, p.parseInitList())
			} else {
				p.add(id, p.parseExpr())
			}
		}
		p.expectSemi("return statement")
		return p.finish(id)
	case tok.Is("break") || tok.Is("continue"):
		kind := Break
		if tok.Text == "continue" {
			kind = Continue
		}
		id := p.node(kind, p.pos)
		p.advance()
		p.expectSemi("'" + tok.Text + "'")
		return p.finish(id)
	case tok.Is("goto"):
		id := p.node(Goto, p.pos)
		p.advance()
		if p.cur().Kind == lexer.Ident {
			p.tree.Nodes[id].Name = p.advance().Text
		}
		p.expectSemi("goto statement")
		return p.finish(id)
	case tok.Is("try"):
		return p.parseTry()
	case tok.Is("using") || tok.Is("typedef") || tok.Is("static_assert"):
		return p.parseOpaque()
	case tok.Is("class") || tok.Is("struct") || tok.Is("union") || tok.Is("enum") || tok.Is("template") || tok.Is("namespace"):
		return p.parseDeclaration(stmtContext)
	case tok.Kind == lexer.Ident && p.peek(1).Is(":"):
		id := p.node(Label, p.pos)
		p.tree.Nodes[id].Name = p.advance().Text
		p.advance()
		return p.finish(id)
	case p.looksLikeDecl(p.pos):
		return p.parseDeclaration(stmtContext)
	}
	id := p.node(ExprStmt, p.pos)
	p.add(id, p.parseExpr())
	p.expectSemi("expression")
	return p.finish(id)
}

// parseParenCond parses ( expr ) after if, while and switch.
func (p *parser) parseParenCond(keyword string) NodeID {
	if !p.at("(") {
		p.errorf(SyntaxError, p.prevSpan(), "expected '(' after '%s'", keyword)
		return p.placeholder()
	}
	p.advance()
	var cond NodeID
	if p.looksLikeDecl(p.pos) {
		// condition declaration: if (T* x = f())
		start := p.pos
		ts, _ := p.scanType(p.pos)
		p.advanceTo(ts.end)
		cond = p.parseDeclarators(start, ts.ref, ts.flags, stmtContext, false)
	} else {
		cond = p.parseExpr()
	}
	p.expect(")")
	return cond
}

func (p *parser) parseIf() NodeID {
	id := p.node(If, p.pos)
	p.advance()
	if p.at("constexpr") {
		p.advance()
	}
	p.add(id, p.parseParenCond("if"))
	p.add(id, p.parseSubStatement())
	if p.at("else") && !p.closing {
		p.advance()
		p.add(id, p.parseSubStatement())
	}
	return p.finish(id)
}

// parseSubStatement parses the body of a control statement.
func (p *parser) parseSubStatement() NodeID {
	if p.atEOF() || p.at("}") {
		p.errorf(SyntaxError, p.prevSpan(), "expected statement%s", p.foundSuffix())
		return p.placeholder()
	}
	return p.parseStatement()
}

func (p *parser) parseWhile() NodeID {
	id := p.node(While, p.pos)
	p.advance()
	p.add(id, p.parseParenCond("while"))
	p.add(id, p.parseSubStatement())
	return p.finish(id)
}

func (p *parser) parseDoWhile() NodeID {
	id := p.node(DoWhile, p.pos)
	p.advance()
	p.add(id, p.parseSubStatement())
	if p.closing {
		p.add(id, p.placeholder())
		return p.finish(id)
	}
	if !p.at("while") {
		p.errorf(SyntaxError, p.prevSpan(), "expected 'while' after do body")
		p.add(id, p.placeholder())
		p.recover()
		return p.finish(id)
	}
	p.advance()
	p.add(id, p.parseParenCond("while"))
	p.expectSemi("do-while statement")
	return p.finish(id)
}

func (p *parser) parseFor() NodeID {
	id := p.node(For, p.pos)
	p.advance()
	if !p.expect("(") {
		p.add(id, NoNode)
		p.add(id, NoNode)
		p.add(id, NoNode)
		p.add(id, p.parseSubStatement())
		return p.finish(id)
	}
	init := NoNode
	switch {
	case p.at(";"):
		p.advance()
	case p.looksLikeDecl(p.pos):
		start := p.pos
		ts, _ := p.scanType(p.pos)
		p.advanceTo(ts.end)
		decl := p.parseDeclarators(start, ts.ref, ts.flags, stmtContext, false)
		if p.at(":") {
			return p.parseRangeFor(id, decl)
		}
		init = decl
		p.expect(";")
	default:
		init = p.parseExpr()
		p.expect(";")
	}
	cond := NoNode
	if !p.at(";") {
		cond = p.parseExpr()
	}
	p.expect(";")
	post := NoNode
	if !p.at(")") {
		post = p.parseExpr()
	}
	p.expect(")")
	p.add(id, init)
	p.add(id, cond)
	p.add(id, post)
	p.add(id, p.parseSubStatement())
	return p.finish(id)
}

func (p *parser) parseRangeFor(id, decl NodeID) NodeID {
	p.tree.Nodes[id].Kind = RangeFor
	p.advance()
	// the DeclStmt holds exactly one VarDecl here
	v := decl
	if children := p.tree.Nodes[decl].Children; len(children) == 1 {
		v = children[0]
	}
	p.add(id, v)
	if p.at("{") {
		p.add(id, p.parseInitList())
	} else {
		p.add(id, p.parseExpr())
	}
	p.expect(")")
	p.add(id, p.parseSubStatement())
	return p.finish(id)
}

func (p *parser) parseSwitch() NodeID {
	id := p.node(Switch, p.pos)
	p.advance()
	p.add(id, p.parseParenCond("switch"))
	p.add(id, p.parseSubStatement())
	return p.finish(id)
}

func (p *parser) parseTry() NodeID {
	id := p.node(Try, p.pos)
	p.advance()
	if !p.at("{") {
		p.errorf(SyntaxError, p.prevSpan(), "expected '{' after 'try'")
		return p.finish(id)
	}
	p.add(id, p.parseBlock())
	for p.at("catch") && !p.closing {
		c := p.node(Catch, p.pos)
		p.advance()
		param := NoNode
		if p.expect("(") {
			if p.at("...") {
				p.advance()
			} else if _, ok := p.scanType(p.pos); ok {
				param = p.parseParam()
			}
			p.expect(")")
		}
		p.add(c, param)
		if p.at("{") {
			p.add(c, p.parseBlock())
		} else {
			p.errorf(SyntaxError, p.prevSpan(), "expected '{' after catch clause")
		}
		p.add(id, p.finish(c))
	}
	return p.finish(id)
}
