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

type contextKind int

const (
	contextTop contextKind = iota
	contextClass
	contextStmt
)

type declContext struct {
	kind      contextKind
	className string
}

var topContext = declContext{kind: contextTop}

// parseDeclaration parses one declaration. Variables are wrapped in a
// DeclStmt; functions, classes and the like stand alone.
func (p *parser) parseDeclaration(ctx declContext) NodeID {
	p.skipAttributes()
	switch {
	case p.at(";"):
		id := p.node(Empty, p.pos)
		p.advance()
		return p.finish(id)
	case p.at("template"):
		return p.parseTemplate(ctx)
	case p.at("namespace"):
		return p.parseNamespace()
	case p.at("using") || p.at("typedef") || p.at("static_assert") || (p.at("friend") && ctx.kind == contextClass):
		return p.parseOpaque()
	case p.at("extern") && p.peek(1).Kind == lexer.String:
		return p.parseLinkage(ctx)
	case p.at("enum"):
		return p.parseEnum()
	case p.at("class") || p.at("struct") || p.at("union"):
		if p.isClassDefinition(p.pos) {
			return p.parseClass(ctx)
		}
		if p.peek(2).Is(";") {
			// forward declaration
			return p.parseOpaque()
		}
	}

	start := p.pos
	flags := p.parseSpecifiers()
	var ty TypeRef
	if p.at("~") || p.at("operator") || p.nameThenParen() {
		_, name, _ := p.scanQualifiedName(p.pos, true)
		ctor := p.at("~") || p.at("operator") || strings.Contains(name, "::") || (ctx.kind == contextClass && name == ctx.className)
		if !ctor && ctx.kind != contextStmt {
			p.errorf(SyntaxError, p.cur().Span(), "expected a type specifier before '%s'", name)
		}
	} else {
		ts, ok := p.scanType(p.pos)
		if !ok {
			p.errorf(SyntaxError, p.cur().Span(), "expected a declaration%s", p.foundSuffix())
			id := p.placeholder()
			p.recover()
			return id
		}
		p.advanceTo(ts.end)
		ty = ts.ref
		flags |= ts.flags
	}
	return p.parseDeclarators(start, ty, flags, ctx, true)
}

// nameThenParen reports whether the declaration has no type: a constructor,
// destructor or a function whose return type was omitted.
func (p *parser) nameThenParen() bool {
	end, _, ok := p.scanQualifiedName(p.pos, true)
	if !ok {
		return false
	}
	// out-of-class destructor: Foo::~Foo()
	return p.tokAt(end).Is("(") || (p.tokAt(end).Is("::") && p.tokAt(end+1).Is("~"))
}

func (p *parser) parseSpecifiers() Flags {
	var flags Flags
	for {
		tok := p.cur()
		if tok.Kind != lexer.Keyword || !specifiers[tok.Text] {
			return flags
		}
		switch tok.Text {
		case "static":
			flags |= FlagStatic
		case "constexpr":
			flags |= FlagConst
		}
		p.advance()
	}
}

func (p *parser) skipAttributes() {
	for p.at("[") && p.peek(1).Is("[") {
		p.skipBalanced(nil)
	}
}

// parseDeclarators parses the comma-separated declarators that follow a
// type. A function declarator ends the declaration.
func (p *parser) parseDeclarators(start int, ty TypeRef, flags Flags, ctx declContext, terminated bool) NodeID {
	stmt := p.node(DeclStmt, start)
	for {
		d := p.parseDeclarator(start, ty, flags, ctx)
		if p.tree.Nodes[d].Kind == Function {
			if len(p.tree.Nodes[stmt].Children) == 0 {
				return d
			}
			p.add(stmt, d)
			break
		}
		p.add(stmt, d)
		if !p.at(",") {
			break
		}
		p.advance()
	}
	if terminated {
		p.expectSemi("declaration")
	}
	return p.finish(stmt)
}

// parseDeclarator parses one declarator with its initializer.
func (p *parser) parseDeclarator(start int, ty TypeRef, flags Flags, ctx declContext) NodeID {
	for p.at("*") || p.at("&") || p.at("&&") || p.at("const") || p.at("volatile") {
		switch {
		case p.at("*"):
			ty.Pointer++
		case p.at("&") || p.at("&&"):
			ty.Ref = true
		}
		p.advance()
	}
	if p.at("(") && (p.peek(1).Is("*") || p.peek(1).Is("&")) {
		return p.parseFunctionPointer(ty, flags, ctx)
	}
	nameTok := p.pos
	name := p.parseDeclName()
	if p.at("(") && ctx.kind != contextStmt {
		return p.parseFunction(start, nameTok, name, ty, flags, ctx)
	}

	v := p.node(VarDecl, nameTok)
	switch ctx.kind {
	case contextClass:
		flags |= FlagField
	case contextTop:
		flags |= FlagGlobal
	}
	for p.at("[") {
		flags |= FlagArray
		p.advance()
		bound := -1
		if p.at("]") {
			p.advance()
		} else {
			dim := p.parseExpr()
			if n, ok := p.tree.IntValue(dim); ok {
				bound = int(n)
			}
			p.expect("]")
		}
		p.tree.Nodes[v].Dims = append(p.tree.Nodes[v].Dims, bound)
	}
	if dims := p.tree.Nodes[v].Dims; len(dims) > 0 {
		p.tree.Nodes[v].ArrayLen = dims[0]
	}
	if p.at(":") && ctx.kind == contextClass {
		// bit-field width
		p.advance()
		p.parseConditional()
	}
	switch {
	case p.at("="):
		p.advance()
		if p.at("{") {
			p.add(v, p.parseInitList())
		} else {
			p.add(v, p.parseAssign())
		}
	case p.at("{"):
		p.add(v, p.parseInitList())
	case p.at("("):
		// direct initialization: T x(args)
		init := p.node(InitList, p.pos)
		p.tree.Nodes[init].Op = "("
		p.parseArgs(init)
		p.add(v, p.finish(init))
	}
	n := &p.tree.Nodes[v]
	n.Name = name
	n.Type = ty
	n.Flags |= flags
	return p.finish(v)
}

// parseDeclName parses a possibly qualified declarator name, including
// destructor and operator names. It returns "" for abstract declarators.
func (p *parser) parseDeclName() string {
	var b strings.Builder
	if p.at("::") {
		b.WriteString("::")
		p.advance()
	}
	for {
		if p.at("~") {
			b.WriteString("~")
			p.advance()
		}
		if p.at("operator") {
			b.WriteString(p.parseOperatorName())
			return b.String()
		}
		if p.cur().Kind != lexer.Ident {
			return b.String()
		}
		b.WriteString(p.advance().Text)
		if p.at("<") {
			if end, ok := p.scanTemplateArgs(p.pos); ok && (p.tokAt(end).Is("::") || p.tokAt(end).Is("(")) {
				for p.pos < end {
					b.WriteString(p.advance().Text)
				}
			}
		}
		if p.at("::") && (p.peek(1).Kind == lexer.Ident || p.peek(1).Is("~") || p.peek(1).Is("operator")) {
			b.WriteString("::")
			p.advance()
			continue
		}
		return b.String()
	}
}

func (p *parser) parseOperatorName() string {
	b := strings.Builder{}
	b.WriteString(p.advance().Text)
	switch {
	case p.at("(") && p.peek(1).Is(")"):
		b.WriteString("()")
		p.advance()
		p.advance()
	case p.at("[") && p.peek(1).Is("]"):
		b.WriteString("[]")
		p.advance()
		p.advance()
	case p.at("new") || p.at("delete"):
		b.WriteString(" " + p.advance().Text)
		if p.at("[") && p.peek(1).Is("]") {
			b.WriteString("[]")
			p.advance()
			p.advance()
		}
	case p.cur().Kind == lexer.Operator || p.at(","):
		b.WriteString(p.advance().Text)
	default:
		// conversion operator
		if ts, ok := p.scanType(p.pos); ok {
			b.WriteString(" " + ts.ref.String())
			p.advanceTo(ts.end)
		}
	}
	return b.String()
}

// parseFunctionPointer handles T (*name)(params) declarators.
func (p *parser) parseFunctionPointer(ty TypeRef, flags Flags, ctx declContext) NodeID {
	p.advance()
	for p.at("*") || p.at("&") {
		p.advance()
	}
	nameTok := p.pos
	name := p.parseDeclName()
	v := p.node(VarDecl, nameTok)
	p.expect(")")
	if p.at("(") {
		p.skipBalanced(nil)
	}
	if p.at("=") {
		p.advance()
		p.add(v, p.parseAssign())
	}
	if ctx.kind == contextClass {
		flags |= FlagField
	}
	n := &p.tree.Nodes[v]
	n.Name = name
	ty.Pointer++
	n.Type = ty
	n.Flags |= flags
	return p.finish(v)
}

// parseFunction parses the part of a function declaration after its name.
func (p *parser) parseFunction(start, nameTok int, name string, ty TypeRef, flags Flags, ctx declContext) NodeID {
	fn := p.node(Function, nameTok)
	p.tree.Nodes[fn].Span.Start = p.tokAt(start).Pos
	p.tree.Nodes[fn].Name = name
	p.tree.Nodes[fn].Type = ty
	p.tree.Nodes[fn].Flags = flags
	p.add(fn, p.parseParams())
	p.skipFunctionQualifiers()
	switch {
	case p.at("="):
		// pure, defaulted or deleted
		p.advance()
		if !p.at(";") {
			p.advance()
		}
		p.expectSemi("function declaration")
	case p.at(":"):
		p.parseCtorInits(fn)
		if p.at("{") {
			p.add(fn, p.parseFunctionBody(fn, start))
		} else {
			p.errorf(SyntaxError, p.prevSpan(), "expected function body after member initializers")
			p.recover()
		}
	case p.at("{"):
		p.add(fn, p.parseFunctionBody(fn, start))
	case p.at("try"):
		p.advance()
		if p.at(":") {
			p.parseCtorInits(fn)
		}
		if p.at("{") {
			p.add(fn, p.parseFunctionBody(fn, start))
		}
		for p.at("catch") {
			p.advance()
			if p.at("(") {
				p.skipBalanced(nil)
			}
			if p.at("{") {
				p.skipBalanced(nil)
			}
		}
	default:
		p.expectSemi("function declaration")
	}
	if p.tree.Body(fn) != NoNode {
		p.tree.Nodes[fn].Flags |= FlagDefinition
		p.tree.Functions = append(p.tree.Functions, fn)
	}
	return p.finish(fn)
}

func (p *parser) skipFunctionQualifiers() {
	for {
		switch {
		case p.at("const") || p.at("volatile") || p.at("override") || p.at("final") || p.at("&") || p.at("&&"):
			p.advance()
		case p.at("noexcept") || p.at("throw"):
			p.advance()
			if p.at("(") {
				p.skipBalanced(nil)
			}
		case p.at("->"):
			p.advance()
			if ts, ok := p.scanType(p.pos); ok {
				p.advanceTo(ts.end)
			}
		case p.at("[") && p.peek(1).Is("["):
			p.skipAttributes()
		default:
			return
		}
	}
}

// parseParams parses a parameter list. A missing ')' is reported after the
// last parameter and the list ends there.
func (p *parser) parseParams() NodeID {
	list := p.node(ParamList, p.pos)
	p.advance()
	if p.at(")") {
		p.advance()
		return p.finish(list)
	}
	if p.at("void") && p.peek(1).Is(")") {
		p.advance()
		p.advance()
		return p.finish(list)
	}
	for {
		if p.at("...") {
			p.advance()
		} else if _, ok := p.scanType(p.pos); ok {
			p.add(list, p.parseParam())
		} else {
			p.errorf(SyntaxError, p.prevSpan(), "expected ')'%s", p.foundSuffix())
			p.skipBrokenParams()
			return p.finish(list)
		}
		if p.at(",") {
			p.advance()
			continue
		}
		if p.at(")") {
			p.advance()
			return p.finish(list)
		}
		p.errorf(SyntaxError, p.prevSpan(), "expected ')'%s", p.foundSuffix())
		p.skipBrokenParams()
		return p.finish(list)
	}
}

// skipBrokenParams resynchronizes inside a parameter list: at the closing
// ')', the function body or the end of the declaration.
func (p *parser) skipBrokenParams() {
	for !p.atEOF() && !p.at("{") && !p.at(";") && !p.at("}") {
		if p.at(")") {
			p.advance()
			return
		}
		if p.startsStatement() {
			return
		}
		p.advance()
	}
}

func (p *parser) parseParam() NodeID {
	param := p.node(Param, p.pos)
	p.skipAttributes()
	ts, _ := p.scanType(p.pos)
	p.advanceTo(ts.end)
	ty := ts.ref
	if p.at("...") {
		p.advance()
	}
	if p.at("(") && (p.peek(1).Is("*") || p.peek(1).Is("&")) {
		p.advance()
		for p.at("*") || p.at("&") {
			p.advance()
		}
		ty.Pointer++
		if p.cur().Kind == lexer.Ident {
			p.tree.Nodes[param].Tok = p.pos
			p.tree.Nodes[param].Name = p.advance().Text
		}
		p.expect(")")
		if p.at("(") {
			p.skipBalanced(nil)
		}
	} else if p.cur().Kind == lexer.Ident {
		p.tree.Nodes[param].Tok = p.pos
		p.tree.Nodes[param].Name = p.advance().Text
	}
	for p.at("[") {
		p.skipBalanced(nil)
		ty.Pointer++
	}
	if p.at("=") {
		p.advance()
		p.add(param, p.parseAssign())
	}
	p.tree.Nodes[param].Type = ty
	p.tree.Nodes[param].Flags |= ts.flags
	return p.finish(param)
}

// parseCtorInits parses ": member(args), base{args}".
func (p *parser) parseCtorInits(fn NodeID) {
	p.advance()
	for {
		if p.cur().Kind != lexer.Ident && !p.at("::") {
			p.errorf(SyntaxError, p.prevSpan(), "expected member initializer%s", p.foundSuffix())
			return
		}
		call := p.node(Call, p.pos)
		p.tree.Nodes[call].Flags |= FlagCtorInit
		callee := p.node(Ident, p.pos)
		end, name, _ := p.scanQualifiedName(p.pos, true)
		p.advanceTo(end)
		p.tree.Nodes[callee].Name = name
		p.add(call, p.finish(callee))
		switch {
		case p.at("("):
			p.parseArgs(call)
		case p.at("{"):
			p.add(call, p.parseInitList())
		default:
			p.errorf(SyntaxError, p.prevSpan(), "expected '(' or '{' after member initializer '%s'", name)
		}
		p.add(fn, p.finish(call))
		if !p.at(",") {
			return
		}
		p.advance()
	}
}

// parseFunctionBody parses a body and tracks it so that a following
// definition at the same or a lower indentation can close it.
func (p *parser) parseFunctionBody(fn NodeID, start int) NodeID {
	p.fns = append(p.fns, fnFrame{
		name:   p.tree.Nodes[fn].Name,
		column: p.tokAt(start).Pos.Column,
		brace:  p.pos,
		depth:  len(p.braces),
	})
	body := p.parseBlock()
	p.fns = p.fns[:len(p.fns)-1]
	p.closing = false
	return body
}

// closesEnclosingFunction detects a definition header inside a function
// body that is not indented past the function itself. That body is missing
// its '}', so it is closed here and reported once.
func (p *parser) closesEnclosingFunction() bool {
	if len(p.fns) == 0 || p.pos == 0 {
		return false
	}
	fr := p.fns[len(p.fns)-1]
	tok := p.cur()
	if tok.Pos.Line <= p.toks[p.pos-1].End.Line || tok.Pos.Column > fr.column {
		return false
	}
	if !p.looksLikeDefinitionHeader(p.pos) {
		return false
	}
	open := p.toks[fr.brace]
	span := open.Span()
	span.End = p.lastEnd()
	p.errorf(UnbalancedDelimiter, span, "expected '}' to close the body of '%s'", fr.name)
	if len(p.braces) > fr.depth {
		p.braces = p.braces[:fr.depth]
	}
	p.closing = true
	return true
}

func (p *parser) parseClass(ctx declContext) NodeID {
	cls := p.node(Class, p.pos)
	if !p.at("class") {
		p.tree.Nodes[cls].Flags |= FlagStruct
	}
	p.advance()
	for p.at("alignas") || (p.at("[") && p.peek(1).Is("[")) {
		if p.at("alignas") {
			p.advance()
		}
		p.skipBalanced(nil)
	}
	if p.cur().Kind == lexer.Ident || p.at("::") {
		end, name, _ := p.scanQualifiedName(p.pos, true)
		p.tree.Nodes[cls].Tok = p.pos
		p.tree.Nodes[cls].Name = name
		p.advanceTo(end)
	}
	if p.at("final") {
		p.advance()
	}
	if p.at(":") {
		for !p.at("{") && !p.atEOF() {
			p.advance()
		}
	}
	p.tree.Nodes[cls].Flags |= FlagDefinition
	name := p.tree.Nodes[cls].Name
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	member := declContext{kind: contextClass, className: name}
	p.advance()
	for !p.at("}") && !p.atEOF() {
		before := p.pos
		if (p.at("public") || p.at("private") || p.at("protected")) && p.peek(1).Is(":") {
			label := p.node(AccessLabel, p.pos)
			p.tree.Nodes[label].Name = p.advance().Text
			p.advance()
			p.add(cls, p.finish(label))
			continue
		}
		if d := p.parseDeclaration(member); d != NoNode {
			p.add(cls, d)
		}
		if p.pos == before {
			p.advance()
		}
	}
	if p.at("}") {
		p.advance()
	}
	p.finish(cls)
	switch {
	case p.at(";"):
		p.advance()
	case (p.cur().Kind == lexer.Ident || p.at("*") || p.at("&")) && p.cur().Pos.Line == p.toks[p.pos-1].End.Line:
		// declarators after the class body
		decl := p.parseDeclarators(p.pos, TypeRef{Name: p.tree.Nodes[cls].Name}, 0, ctx, true)
		p.add(cls, decl)
		p.finish(cls)
	default:
		p.errorf(SyntaxError, p.prevSpan(), "expected ';' after class definition")
	}
	return cls
}

func (p *parser) parseEnum() NodeID {
	enum := p.node(Enum, p.pos)
	p.advance()
	if p.at("class") || p.at("struct") {
		p.advance()
	}
	if p.cur().Kind == lexer.Ident {
		p.tree.Nodes[enum].Tok = p.pos
		p.tree.Nodes[enum].Name = p.advance().Text
	}
	for !p.at("{") && !p.at(";") && !p.atEOF() && !p.startsStatement() {
		p.advance()
	}
	if p.at("{") {
		p.skipBalanced(nil)
		p.tree.Nodes[enum].Flags |= FlagDefinition
	}
	for p.cur().Kind == lexer.Ident || p.at(",") || p.at("*") {
		p.advance()
	}
	p.expectSemi("enum declaration")
	return p.finish(enum)
}

func (p *parser) parseNamespace() NodeID {
	ns := p.node(Namespace, p.pos)
	p.advance()
	if p.at("inline") {
		p.advance()
	}
	if p.cur().Kind == lexer.Ident {
		end, name, _ := p.scanQualifiedName(p.pos, false)
		p.tree.Nodes[ns].Tok = p.pos
		p.tree.Nodes[ns].Name = name
		p.advanceTo(end)
	}
	if p.at("=") {
		// namespace alias
		for !p.at(";") && !p.atEOF() {
			p.advance()
		}
		p.expectSemi("namespace alias")
		return p.finish(ns)
	}
	if !p.expect("{") {
		p.recover()
		return p.finish(ns)
	}
	p.parseDeclList(ns)
	return p.finish(ns)
}

// parseLinkage handles extern "C" declarations and blocks.
func (p *parser) parseLinkage(ctx declContext) NodeID {
	p.advance()
	p.advance()
	if !p.at("{") {
		return p.parseDeclaration(ctx)
	}
	ns := p.node(Namespace, p.pos)
	p.advance()
	p.parseDeclList(ns)
	return p.finish(ns)
}

// parseDeclList parses declarations up to and including the closing '}'.
func (p *parser) parseDeclList(parent NodeID) {
	for !p.at("}") && !p.atEOF() {
		before := p.pos
		if d := p.parseDeclaration(topContext); d != NoNode {
			p.add(parent, d)
		}
		if p.pos == before {
			p.advance()
		}
	}
	if p.at("}") {
		p.advance()
	}
}

func (p *parser) parseTemplate(ctx declContext) NodeID {
	tmpl := p.node(Template, p.pos)
	p.advance()
	if p.at("<") {
		p.parseTemplateParams()
	}
	if p.atEOF() {
		p.errorf(SyntaxError, p.prevSpan(), "expected a declaration after template parameter list")
		return p.finish(tmpl)
	}
	if d := p.parseDeclaration(ctx); d != NoNode {
		p.add(tmpl, d)
	}
	return p.finish(tmpl)
}

// parseTemplateParams skips a template parameter list. A missing '>' is
// reported after the last parameter.
func (p *parser) parseTemplateParams() {
	p.advance()
	if p.at(">") {
		p.advance()
		return
	}
	for {
		switch {
		case p.at("typename") || p.at("class"):
			p.advance()
			if p.at("...") {
				p.advance()
			}
			if p.cur().Kind == lexer.Ident {
				p.advance()
			}
		case p.at("template"):
			p.advance()
			if p.at("<") {
				if end, ok := p.scanTemplateArgs(p.pos); ok {
					p.advanceTo(end)
				}
			}
			if p.at("typename") || p.at("class") {
				p.advance()
			}
			if p.cur().Kind == lexer.Ident {
				p.advance()
			}
		default:
			ts, ok := p.scanType(p.pos)
			if !ok {
				p.errorf(SyntaxError, p.prevSpan(), "expected template parameter%s", p.foundSuffix())
				return
			}
			p.advanceTo(ts.end)
			if p.at("...") {
				p.advance()
			}
			if p.cur().Kind == lexer.Ident {
				p.advance()
			}
		}
		if p.at("=") {
			p.advance()
			if p.skipTemplateDefault() {
				return
			}
		}
		switch {
		case p.at(","):
			p.advance()
			continue
		case p.at(">"):
			p.advance()
			return
		case p.at(">>"):
			// closes a nested default argument and this list
			p.advance()
			return
		}
		p.errorf(SyntaxError, p.prevSpan(), "expected '>' to close template parameter list%s", p.foundSuffix())
		return
	}
}

// skipTemplateDefault skips a default template argument. It reports whether
// a closing '>>' ended both the argument and the parameter list.
func (p *parser) skipTemplateDefault() bool {
	depth := 0
	for !p.atEOF() {
		switch {
		case p.at("(") || p.at("["):
			p.skipBalanced(nil)
			continue
		case p.at("<"):
			depth++
		case p.at(">"):
			if depth == 0 {
				return false
			}
			depth--
		case p.at(">>"):
			if depth == 0 {
				return false
			}
			if depth == 1 {
				p.advance()
				return true
			}
			depth -= 2
		case p.at(",") && depth == 0:
			return false
		case p.at(";") || p.at("{") || p.at("}"):
			return false
		}
		p.advance()
	}
	return false
}

// parseOpaque skips a declaration that is not modelled, up to its ';'.
func (p *parser) parseOpaque() NodeID {
	id := p.node(Opaque, p.pos)
	p.tree.Nodes[id].Name = p.cur().Text
	for !p.atEOF() {
		switch {
		case p.at(";"):
			p.advance()
			return p.finish(id)
		case p.at("{") || p.at("(") || p.at("["):
			p.skipBalanced(nil)
			continue
		case p.at("}"):
			p.errorf(SyntaxError, p.prevSpan(), "expected ';' after declaration")
			return p.finish(id)
		}
		p.advance()
	}
	p.errorf(SyntaxError, p.prevSpan(), "expected ';' after declaration")
	return p.finish(id)
}
