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

package symbols

import (
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/golang/glog"

	"naive.systems/cxxlint/lexer"
	"naive.systems/cxxlint/syntax"
)

type access uint8

const (
	read access = 1 << iota
	write
)

type builder struct {
	tree  *syntax.Tree
	t     *Table
	scope ScopeID
	fn    syntax.NodeID
}

// Build walks the tree once and returns its symbol table.
func Build(tree *syntax.Tree) *Table {
	t := &Table{
		uses:      make(map[syntax.NodeID]SymbolID),
		decls:     make(map[syntax.NodeID]SymbolID),
		classes:   make(map[string]ScopeID),
		reads:     roaring.New(),
		writes:    roaring.New(),
		addrTaken: roaring.New(),
	}
	b := &builder{tree: tree, t: t, scope: NoScope, fn: syntax.NoNode}
	b.open(GlobalScope, tree.Root)
	for _, c := range tree.Nodes[tree.Root].Children {
		b.decl(c)
	}
	b.close()
	glog.V(2).Infof("symbols: %d scopes, %d symbols, %d uses", len(t.Scopes), len(t.Symbols), len(t.uses))
	return t
}

func (b *builder) open(kind ScopeKind, node syntax.NodeID) ScopeID {
	id := ScopeID(len(b.t.Scopes))
	b.t.Scopes = append(b.t.Scopes, Scope{
		ID:     id,
		Parent: b.scope,
		Kind:   kind,
		Node:   node,
		names:  make(map[string]SymbolID),
	})
	b.scope = id
	return id
}

func (b *builder) close() {
	b.scope = b.t.Scopes[b.scope].Parent
}

func (b *builder) declare(name string, kind Kind, decl syntax.NodeID) SymbolID {
	if name == "" {
		return NoSymbol
	}
	scope := &b.t.Scopes[b.scope]
	if prev, ok := scope.names[name]; ok && kind >= Function && b.t.Symbols[prev].Kind == kind {
		// redeclaration of a function, class or namespace
		b.t.decls[decl] = prev
		return prev
	}
	n := b.tree.Node(decl)
	id := SymbolID(len(b.t.Symbols))
	sym := Symbol{
		ID:       id,
		Name:     name,
		Kind:     kind,
		Decl:     decl,
		Span:     n.Span,
		Scope:    b.scope,
		Func:     b.fn,
		Type:     n.Type,
		Init:     Initialized,
		Pointer:  n.Type.Pointer > 0,
		Array:    n.Has(syntax.FlagArray),
		ArrayLen: n.ArrayLen,
		Dims:     n.Dims,
		Static:   n.Has(syntax.FlagStatic),
		Shadows:  NoSymbol,
	}
	if n.Tok >= 0 && n.Tok < len(b.tree.Tokens) && b.tree.Tokens[n.Tok].Kind == lexer.Ident {
		sym.Span = b.tree.Tokens[n.Tok].Span()
	}
	if kind == Variable || kind == Parameter || kind == Field {
		if prev := b.t.Lookup(scope.Parent, name); prev != NoSymbol {
			switch b.t.Symbols[prev].Kind {
			case Variable, Parameter, Field:
				sym.Shadows = prev
			}
		}
	}
	b.t.Symbols = append(b.t.Symbols, sym)
	scope.names[name] = id
	scope.Symbols = append(scope.Symbols, id)
	if _, ok := b.t.decls[decl]; !ok {
		b.t.decls[decl] = id
	}
	return id
}

// decl handles namespace-scope and class-scope declarations.
func (b *builder) decl(id syntax.NodeID) {
	if id == syntax.NoNode {
		return
	}
	n := b.tree.Node(id)
	switch n.Kind {
	case syntax.Namespace:
		b.declare(n.Name, Namespace, id)
		b.open(NamespaceScope, id)
		for _, c := range n.Children {
			b.decl(c)
		}
		b.close()
	case syntax.Template:
		for _, c := range n.Children {
			b.decl(c)
		}
	case syntax.Class:
		b.class(id)
	case syntax.Enum:
		b.enum(id)
	case syntax.Function:
		b.function(id, true)
	case syntax.DeclStmt:
		for _, c := range n.Children {
			b.decl(c)
		}
	case syntax.VarDecl:
		b.varDecl(id)
	case syntax.Opaque, syntax.AccessLabel, syntax.Empty, syntax.Error:
	default:
		b.stmt(id)
	}
}

func (b *builder) class(id syntax.NodeID) {
	n := b.tree.Node(id)
	b.declare(lastComponent(n.Name), Class, id)
	scope := b.open(ClassScope, id)
	if n.Name != "" {
		b.t.classes[n.Name] = scope
		b.t.classes[lastComponent(n.Name)] = scope
	}
	var methods, fields, outer []syntax.NodeID
	var members func(c syntax.NodeID)
	members = func(c syntax.NodeID) {
		cn := b.tree.Node(c)
		switch cn.Kind {
		case syntax.DeclStmt:
			for _, v := range cn.Children {
				if b.tree.Nodes[v].Kind == syntax.VarDecl && !b.tree.Nodes[v].Has(syntax.FlagField) {
					outer = append(outer, v)
					continue
				}
				members(v)
			}
		case syntax.VarDecl:
			b.declare(cn.Name, Field, c)
			fields = append(fields, c)
		case syntax.Function:
			b.declare(lastComponent(cn.Name), Function, c)
			methods = append(methods, c)
		case syntax.Template:
			for _, tc := range cn.Children {
				members(tc)
			}
		case syntax.Class:
			b.class(c)
		case syntax.Enum:
			b.enum(c)
		}
	}
	for _, c := range n.Children {
		members(c)
	}
	for _, f := range fields {
		for _, c := range b.tree.Nodes[f].Children {
			b.expr(c, read)
		}
	}
	for _, m := range methods {
		b.function(m, false)
	}
	b.close()
	for _, v := range outer {
		b.varDecl(v)
	}
}

// enum declares the enumerators of an enum body. Scoped enumerators are
// not visible unqualified and are skipped.
func (b *builder) enum(id syntax.NodeID) {
	n := b.tree.Node(id)
	b.declare(n.Name, Class, id)
	toks := b.tree.Tokens
	i := n.Tok
	if i > 0 && (toks[i-1].Is("class") || toks[i-1].Is("struct")) {
		return
	}
	for i < len(toks) && !toks[i].Is("{") && !toks[i].Is(";") && toks[i].Kind != lexer.EOF {
		i++
	}
	if i >= len(toks) || !toks[i].Is("{") {
		return
	}
	depth := 0
	expectName := true
	for ; i < len(toks) && toks[i].Kind != lexer.EOF; i++ {
		tok := toks[i]
		switch {
		case tok.Is("{") || tok.Is("(") || tok.Is("["):
			depth++
			if depth == 1 {
				expectName = true
			}
			continue
		case tok.Is("}") || tok.Is(")") || tok.Is("]"):
			depth--
		case tok.Is(",") && depth == 1:
			expectName = true
			continue
		}
		if depth == 0 {
			return
		}
		if depth == 1 && expectName && tok.Kind == lexer.Ident {
			sym := b.declare(tok.Text, Enumerator, id)
			if sym != NoSymbol {
				b.t.Symbols[sym].Span = tok.Span()
			}
		}
		expectName = false
	}
}

// function resolves a function definition. Out-of-class members are walked
// inside their class scope so members resolve from the body.
func (b *builder) function(id syntax.NodeID, declare bool) {
	n := b.tree.Node(id)
	qualifier, name := splitQualified(n.Name)
	if declare && qualifier == "" {
		b.declare(name, Function, id)
	}
	body := b.tree.Body(id)
	inits := b.tree.CtorInits(id)
	if body == syntax.NoNode && len(inits) == 0 {
		return
	}
	savedScope, savedFn := b.scope, b.fn
	if qualifier != "" {
		if scope, ok := b.t.classes[qualifier]; ok {
			b.scope = scope
		} else if scope, ok := b.t.classes[lastComponent(qualifier)]; ok {
			b.scope = scope
		}
	}
	b.fn = id
	b.open(FunctionScope, id)
	for _, p := range b.tree.Params(id) {
		for _, c := range b.tree.Nodes[p].Children {
			b.expr(c, read)
		}
		b.declare(b.tree.Nodes[p].Name, Parameter, p)
	}
	for _, init := range inits {
		in := b.tree.Node(init)
		b.expr(b.tree.Child(init, 0), write)
		for _, arg := range in.Children[1:] {
			b.expr(arg, read)
		}
	}
	if body != syntax.NoNode {
		for _, s := range b.tree.Nodes[body].Children {
			b.stmt(s)
		}
	}
	b.close()
	b.scope, b.fn = savedScope, savedFn
}

func (b *builder) varDecl(id syntax.NodeID) {
	n := b.tree.Node(id)
	for _, c := range n.Children {
		b.expr(c, read)
	}
	kind := Variable
	if n.Has(syntax.FlagField) {
		kind = Field
	}
	sym := b.declare(n.Name, kind, id)
	if sym == NoSymbol {
		return
	}
	s := &b.t.Symbols[sym]
	switch {
	case kind == Field || b.fn == syntax.NoNode || s.Static:
	case len(n.Children) > 0:
	case n.Parent != syntax.NoNode && b.tree.Nodes[n.Parent].Kind == syntax.RangeFor:
		// bound to each element of the range
	case s.Array:
		s.Init = Unknown
	case n.Type.IsScalar():
		s.Init = Uninitialized
	}
}

func (b *builder) stmt(id syntax.NodeID) {
	if id == syntax.NoNode {
		return
	}
	n := b.tree.Node(id)
	switch n.Kind {
	case syntax.VarDecl:
		b.varDecl(id)
	case syntax.Param:
		b.declare(n.Name, Parameter, id)
	case syntax.Class:
		b.class(id)
	case syntax.Enum:
		b.enum(id)
	case syntax.Function:
		b.function(id, true)
	case syntax.Namespace, syntax.Template:
		b.decl(id)
	case syntax.Opaque, syntax.Error, syntax.Empty:
	case syntax.Block, syntax.If, syntax.For, syntax.RangeFor, syntax.While, syntax.Switch, syntax.Catch:
		b.open(BlockScope, id)
		for _, c := range n.Children {
			b.stmt(c)
		}
		b.close()
	default:
		if !n.Kind.IsStmt() {
			b.expr(id, read)
			return
		}
		for _, c := range n.Children {
			b.stmt(c)
		}
	}
}

func (b *builder) resolve(name string) SymbolID {
	return b.t.Lookup(b.scope, strings.TrimPrefix(name, "::"))
}

func (b *builder) use(id syntax.NodeID, mode access) {
	sym := b.resolve(b.tree.Nodes[id].Name)
	if sym == NoSymbol {
		return
	}
	b.t.uses[id] = sym
	if mode&read != 0 {
		b.t.reads.Add(uint32(sym))
	}
	if mode&write != 0 {
		b.t.writes.Add(uint32(sym))
	}
}

// target walks the operand of an assignment or increment.
func (b *builder) target(id syntax.NodeID, mode access) {
	if u := b.tree.Unparen(id); u != syntax.NoNode && b.tree.Nodes[u].Kind == syntax.Ident {
		b.use(u, mode)
		return
	}
	b.expr(id, read)
}

func (b *builder) expr(id syntax.NodeID, mode access) {
	if id == syntax.NoNode {
		return
	}
	n := b.tree.Node(id)
	switch n.Kind {
	case syntax.Ident:
		b.use(id, mode)
	case syntax.Assign:
		b.expr(b.tree.Child(id, 1), read)
		if n.Op == "=" {
			b.target(b.tree.Child(id, 0), write)
		} else {
			b.target(b.tree.Child(id, 0), read|write)
		}
	case syntax.Unary:
		if n.Op == "++" || n.Op == "--" {
			b.target(b.tree.Child(id, 0), read|write)
		} else {
			b.expr(b.tree.Child(id, 0), read)
		}
	case syntax.Postfix:
		b.target(b.tree.Child(id, 0), read|write)
	case syntax.AddrOf:
		if u := b.tree.Unparen(b.tree.Child(id, 0)); u != syntax.NoNode && b.tree.Nodes[u].Kind == syntax.Ident {
			b.use(u, read)
			if sym := b.t.Use(u); sym != NoSymbol {
				b.t.addrTaken.Add(uint32(sym))
			}
			return
		}
		b.expr(b.tree.Child(id, 0), read)
	default:
		for _, c := range n.Children {
			if c == syntax.NoNode {
				continue
			}
			if b.tree.Nodes[c].Kind.IsStmt() {
				b.stmt(c)
				continue
			}
			b.expr(c, read)
		}
	}
}

func lastComponent(name string) string {
	_, last := splitQualified(name)
	return last
}

// splitQualified splits "a::b::c" into "a::b" and "c".
func splitQualified(name string) (string, string) {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[:i], name[i+2:]
	}
	return "", name
}
