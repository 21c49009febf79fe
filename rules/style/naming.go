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

package style

import (
	"regexp"
	"strings"

	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/rules"
	"naive.systems/cxxlint/source"
	"naive.systems/cxxlint/syntax"
)

type scheme struct {
	re   *regexp.Regexp
	desc string
}

var (
	upperCamel = scheme{regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`), "UpperCamelCase"}
	lowerCamel = scheme{regexp.MustCompile(`^[a-z][A-Za-z0-9]*$`), "lowerCamelCase"}
	snakeCase  = scheme{regexp.MustCompile(`^[a-z][a-z0-9_]*$`), "lower_snake_case"}
	memberCase = scheme{regexp.MustCompile(`^[a-z][a-z0-9_]*_$`), "lower_snake_case with a trailing underscore"}
	kConstant  = scheme{regexp.MustCompile(`^k[A-Z][A-Za-z0-9]*$`), "kCamelCase"}
)

// conventions maps identifier classes to schemes. Google class data members
// take a trailing underscore; struct members do not.
var conventions = map[rules.Convention]map[string]scheme{
	rules.Google: {
		"type":         upperCamel,
		"function":     upperCamel,
		"variable":     snakeCase,
		"constant":     kConstant,
		"field":        memberCase,
		"struct_field": snakeCase,
		"namespace":    snakeCase,
	},
	rules.LLVM: {
		"type":         upperCamel,
		"function":     lowerCamel,
		"variable":     upperCamel,
		"constant":     upperCamel,
		"field":        upperCamel,
		"struct_field": upperCamel,
		"namespace":    snakeCase,
	},
}

func schemeFor(style rules.Style, class string) scheme {
	if re, ok := style.Naming[class]; ok && re != nil {
		return scheme{re, re.String()}
	}
	if class == "struct_field" {
		if re, ok := style.Naming["field"]; ok && re != nil {
			return scheme{re, re.String()}
		}
	}
	return conventions[style.Convention][class]
}

func unqualified(name string) string {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[i+2:]
	}
	return name
}

func stripTemplateArgs(name string) string {
	if i := strings.IndexByte(name, '<'); i >= 0 {
		return name[:i]
	}
	return name
}

// nameSpan locates the token spelling name at or after the node's token.
func nameSpan(t *syntax.Tree, n *syntax.Node, name string) source.Span {
	for i := n.Tok; i >= 0 && i < len(t.Tokens) && i < n.Tok+32; i++ {
		if t.Tokens[i].Text == name {
			return t.Tokens[i].Span()
		}
	}
	return n.Span
}

func checkNaming(in *rules.Input) []diagnostic.Finding {
	var findings []diagnostic.Finding
	t := in.Tree
	check := func(id syntax.NodeID, class, what, name string) {
		if name == "" || strings.HasPrefix(name, "operator") {
			return
		}
		s := schemeFor(in.Style, class)
		if s.re == nil || s.re.MatchString(name) {
			return
		}
		n := &t.Nodes[id]
		findings = append(findings, in.Report(NamingConvention, nameSpan(t, n, name), in.FunctionOf(id),
			"%s name '%s' should be %s", what, name, s.desc))
	}
	for i := range t.Nodes {
		id := syntax.NodeID(i)
		n := &t.Nodes[i]
		switch n.Kind {
		case syntax.Class, syntax.Enum:
			check(id, "type", "type", stripTemplateArgs(unqualified(n.Name)))
		case syntax.Namespace:
			for _, part := range strings.Split(n.Name, "::") {
				check(id, "namespace", "namespace", part)
			}
		case syntax.Function:
			name := unqualified(n.Name)
			if isSpecialMember(t, id, name) {
				continue
			}
			if in.Style.Convention == rules.Google && in.Style.Naming["function"] == nil && isAccessor(t, id, name) {
				continue
			}
			check(id, "function", "function", name)
		case syntax.Param:
			check(id, "variable", "parameter", n.Name)
		case syntax.VarDecl:
			name := unqualified(n.Name)
			switch {
			case n.Has(syntax.FlagField) && n.Has(syntax.FlagConst) && n.Has(syntax.FlagStatic):
				check(id, "constant", "constant", name)
			case n.Has(syntax.FlagField):
				if cls := t.EnclosingClass(id); cls != syntax.NoNode && t.Nodes[cls].Has(syntax.FlagStruct) {
					check(id, "struct_field", "data member", name)
				} else {
					check(id, "field", "data member", name)
				}
			case n.Has(syntax.FlagConst) && (n.Has(syntax.FlagGlobal) || n.Has(syntax.FlagStatic)):
				check(id, "constant", "constant", name)
			case n.Has(syntax.FlagConst):
				// local constants may use either form
				if !kConstant.re.MatchString(name) {
					check(id, "variable", "variable", name)
				}
			default:
				check(id, "variable", "variable", name)
			}
		}
	}
	return findings
}

// isAccessor reports a Google style accessor or mutator: a method named like
// a data member of its class (count for count_) or set_ followed by that name.
func isAccessor(t *syntax.Tree, fn syntax.NodeID, name string) bool {
	cls := t.EnclosingClass(fn)
	if cls == syntax.NoNode || !snakeCase.re.MatchString(name) {
		return false
	}
	field := strings.TrimPrefix(name, "set_")
	found := false
	t.Walk(cls, func(id syntax.NodeID) bool {
		n := &t.Nodes[id]
		if n.Kind == syntax.Function {
			return false
		}
		if n.Kind == syntax.VarDecl && n.Has(syntax.FlagField) && (n.Name == field+"_" || n.Name == field) {
			found = true
		}
		return !found
	})
	return found
}

// isSpecialMember reports constructors, destructors, conversion operators
// and main, whose names the convention does not choose.
func isSpecialMember(t *syntax.Tree, fn syntax.NodeID, name string) bool {
	full := t.Nodes[fn].Name
	switch {
	case name == "main", strings.HasPrefix(name, "~"), strings.HasPrefix(name, "operator"):
		return true
	case strings.Contains(full, "::"):
		// Foo::Foo
		if stripTemplateArgs(unqualified(strings.TrimSuffix(full, "::"+name))) == name {
			return true
		}
	}
	if cls := t.EnclosingClass(fn); cls != syntax.NoNode {
		return stripTemplateArgs(unqualified(t.Nodes[cls].Name)) == name
	}
	return false
}
