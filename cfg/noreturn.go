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

package cfg

import "naive.systems/cxxlint/syntax"

// knownNoReturn are functions that do not return.
var knownNoReturn = map[string]struct{}{
	"exit":                   {},
	"_Exit":                  {},
	"quick_exit":             {},
	"abort":                  {},
	"std::exit":              {},
	"std::_Exit":             {},
	"std::quick_exit":        {},
	"std::abort":             {},
	"std::terminate":         {},
	"std::unreachable":       {},
	"__builtin_unreachable":  {},
	"__builtin_trap":         {},
	"std::rethrow_exception": {},
	"longjmp":                {},
	"std::longjmp":           {},
}

// cantReturn reports whether an expression statement never completes:
// a throw or a call to a known non-returning function.
func cantReturn(tree *syntax.Tree, expr syntax.NodeID) bool {
	expr = tree.Unparen(expr)
	if expr == syntax.NoNode {
		return false
	}
	n := tree.Node(expr)
	switch n.Kind {
	case syntax.Throw:
		return true
	case syntax.Call:
		callee := tree.Unparen(tree.Child(expr, 0))
		if callee == syntax.NoNode || tree.Nodes[callee].Kind != syntax.Ident {
			return false
		}
		name := tree.Nodes[callee].Name
		if len(name) > 2 && name[:2] == "::" {
			name = name[2:]
		}
		_, ok := knownNoReturn[name]
		return ok
	}
	return false
}
