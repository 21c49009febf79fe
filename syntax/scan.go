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

// Lookahead helpers. They inspect tokens from an index without consuming
// anything.

var fundamentalTypes = map[string]bool{
	"void": true, "bool": true, "char": true, "char8_t": true, "char16_t": true,
	"char32_t": true, "wchar_t": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true, "auto": true,
}

var scalarTypedefs = map[string]bool{
	"size_t": true, "ssize_t": true, "ptrdiff_t": true, "intptr_t": true,
	"uintptr_t": true, "int8_t": true, "int16_t": true, "int32_t": true,
	"int64_t": true, "uint8_t": true, "uint16_t": true, "uint32_t": true,
	"uint64_t": true, "std::size_t": true, "std::ptrdiff_t": true,
	"std::int32_t": true, "std::int64_t": true, "std::uint32_t": true,
	"std::uint64_t": true,
}

// specifiers may precede the type of a declaration.
var specifiers = map[string]bool{
	"static": true, "inline": true, "virtual": true, "explicit": true,
	"constexpr": true, "consteval": true, "constinit": true, "extern": true,
	"mutable": true, "thread_local": true, "friend": true, "register": true,
}

type typeScan struct {
	end   int
	ref   TypeRef
	flags Flags
	// keyword reports whether the type started with a keyword, which makes
	// the tokens a declaration without looking further.
	keyword bool
}

// scanType matches a type specifier at i: specifiers, cv-qualifiers, a
// builtin or (qualified, templated) name, then '*', '&' and '&&'.
func (p *parser) scanType(i int) (typeScan, bool) {
	var ts typeScan
	j := i
	elaborated := false
	for {
		tok := p.tokAt(j)
		switch {
		case tok.Kind == lexer.Keyword && specifiers[tok.Text]:
			ts.keyword = true
			if tok.Text == "static" {
				ts.flags |= FlagStatic
			}
			if tok.Text == "constexpr" {
				ts.flags |= FlagConst
				ts.ref.Const = true
			}
			j++
			continue
		case tok.Is("const") || tok.Is("volatile"):
			ts.keyword = true
			if tok.Text == "const" {
				ts.flags |= FlagConst
				ts.ref.Const = true
			}
			j++
			continue
		case tok.Is("typename"):
			j++
			continue
		case tok.Is("struct") || tok.Is("class") || tok.Is("union") || tok.Is("enum"):
			ts.keyword = true
			elaborated = true
			j++
			continue
		}
		break
	}
	tok := p.tokAt(j)
	switch {
	case tok.Kind == lexer.Keyword && fundamentalTypes[tok.Text] && !elaborated:
		var words []string
		for {
			t := p.tokAt(j)
			if t.Kind == lexer.Keyword && fundamentalTypes[t.Text] {
				words = append(words, t.Text)
				j++
				continue
			}
			if t.Is("const") || t.Is("volatile") {
				if t.Text == "const" {
					ts.ref.Const = true
					ts.flags |= FlagConst
				}
				j++
				continue
			}
			break
		}
		ts.keyword = true
		ts.ref.Name = strings.Join(words, " ")
		ts.ref.Builtin = true
		ts.ref.Auto = ts.ref.Name == "auto"
	case tok.Is("decltype"):
		end, ok := p.scanGroup(j + 1)
		if !ok {
			return ts, false
		}
		ts.keyword = true
		ts.ref.Name = "decltype"
		j = end
	case tok.Kind == lexer.Ident || tok.Is("::"):
		end, name, ok := p.scanQualifiedName(j, false)
		if !ok {
			return ts, false
		}
		ts.ref.Name = name
		ts.ref.Builtin = scalarTypedefs[name]
		j = end
	default:
		return ts, false
	}
	for {
		t := p.tokAt(j)
		switch {
		case t.Is("*"):
			ts.ref.Pointer++
		case t.Is("&") || t.Is("&&"):
			ts.ref.Ref = true
		case t.Is("const") || t.Is("volatile"):
		default:
			ts.end = j
			return ts, true
		}
		j++
	}
}

// scanQualifiedName matches [::] name (<args>)? (:: name (<args>)?)*.
// Template arguments are taken when followed by '::', '(' or an identifier,
// or when always is set.
func (p *parser) scanQualifiedName(i int, always bool) (int, string, bool) {
	var b strings.Builder
	j := i
	if p.tokAt(j).Is("::") {
		b.WriteString("::")
		j++
	}
	if p.tokAt(j).Kind != lexer.Ident {
		return i, "", false
	}
	for {
		b.WriteString(p.tokAt(j).Text)
		j++
		if p.tokAt(j).Is("<") {
			if end, ok := p.scanTemplateArgs(j); ok {
				next := p.tokAt(end)
				if always || next.Is("::") || next.Is("(") || next.Kind == lexer.Ident || next.Is("*") || next.Is("&") || next.Is("&&") || next.Is(">") || next.Is(",") || next.Is(")") || next.Is("...") {
					for k := j; k < end; k++ {
						b.WriteString(p.tokAt(k).Text)
					}
					j = end
				}
			}
		}
		if p.tokAt(j).Is("::") && p.tokAt(j+1).Kind == lexer.Ident {
			b.WriteString("::")
			j++
			continue
		}
		return j, b.String(), true
	}
}

// scanTemplateArgs matches a balanced <...> group at i and returns the index
// after it. Tokens that cannot appear in a template argument list make the
// match fail, so comparisons are not mistaken for arguments.
func (p *parser) scanTemplateArgs(i int) (int, bool) {
	depth := 0
	for j := i; j < len(p.toks) && j < i+128; j++ {
		tok := p.toks[j]
		switch {
		case tok.Is("<"):
			depth++
		case tok.Is(">"):
			depth--
		case tok.Is(">>"):
			depth -= 2
		case tok.Is("(") || tok.Is("["):
			end, ok := p.scanGroup(j)
			if !ok {
				return i, false
			}
			j = end - 1
		case tok.Is(";") || tok.Is("{") || tok.Is("}") || tok.Is("&&") || tok.Is("||") || tok.Is("=") || tok.Kind == lexer.EOF:
			return i, false
		}
		if depth <= 0 {
			return j + 1, true
		}
	}
	return i, false
}

// scanGroup matches a balanced (...) or [...] group at i.
func (p *parser) scanGroup(i int) (int, bool) {
	if !p.tokAt(i).Is("(") && !p.tokAt(i).Is("[") {
		return i, false
	}
	depth := 0
	for j := i; j < len(p.toks); j++ {
		tok := p.toks[j]
		switch {
		case tok.Is("(") || tok.Is("["):
			depth++
		case tok.Is(")") || tok.Is("]"):
			depth--
		case tok.Is("{") || tok.Is("}") || tok.Kind == lexer.EOF:
			return i, false
		}
		if depth == 0 {
			return j + 1, true
		}
	}
	return i, false
}

// looksLikeDecl decides whether the statement at i declares variables.
func (p *parser) looksLikeDecl(i int) bool {
	for p.tokAt(i).Is("[") && p.tokAt(i+1).Is("[") {
		end, ok := p.scanGroup(i)
		if !ok {
			return false
		}
		i = end
	}
	ts, ok := p.scanType(i)
	if !ok {
		return false
	}
	if ts.keyword {
		return true
	}
	name := p.tokAt(ts.end)
	if name.Kind != lexer.Ident {
		return false
	}
	next := p.tokAt(ts.end + 1)
	switch {
	case next.Is("=") || next.Is(";") || next.Is(",") || next.Is("[") || next.Is("(") || next.Is("{") || next.Is(":") || next.Is(")"):
		return true
	}
	return false
}

// looksLikeDefinitionHeader reports whether the tokens at i start a function
// definition, a template or a class or namespace definition.
func (p *parser) looksLikeDefinitionHeader(i int) bool {
	tok := p.tokAt(i)
	switch {
	case tok.Is("template"):
		return p.tokAt(i + 1).Is("<")
	case tok.Is("namespace"):
		return p.tokAt(i+1).Is("{") || (p.tokAt(i+1).Kind == lexer.Ident && p.tokAt(i+2).Is("{"))
	case tok.Is("class") || tok.Is("struct") || tok.Is("union"):
		return p.isClassDefinition(i)
	}
	ts, ok := p.scanType(i)
	if !ok {
		return false
	}
	end, _, ok := p.scanQualifiedName(ts.end, false)
	if !ok || !p.tokAt(end).Is("(") {
		return false
	}
	// the parameter list may itself be broken, so only look for the body
	for j := end; j < len(p.toks) && j < end+256; j++ {
		t := p.toks[j]
		switch {
		case t.Is("{"):
			return true
		case t.Is(";") || t.Is("}") || t.Is("=") || t.Kind == lexer.EOF:
			return false
		}
	}
	return false
}

// isClassDefinition reports whether the class-key at i introduces a body.
func (p *parser) isClassDefinition(i int) bool {
	j := i + 1
	for {
		group := j
		if p.tokAt(j).Is("alignas") {
			group = j + 1
		} else if !p.tokAt(j).Is("[") || !p.tokAt(j+1).Is("[") {
			break
		}
		end, ok := p.scanGroup(group)
		if !ok {
			return false
		}
		j = end
	}
	if end, _, ok := p.scanQualifiedName(j, true); ok {
		j = end
	}
	if p.tokAt(j).Is("final") {
		j++
	}
	switch {
	case p.tokAt(j).Is("{"):
		return true
	case p.tokAt(j).Is(":"):
		for k := j; k < len(p.toks) && k < j+128; k++ {
			t := p.toks[k]
			if t.Is("{") {
				return true
			}
			if t.Is(";") || t.Is("}") || t.Kind == lexer.EOF {
				return false
			}
		}
	}
	return false
}
