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

// Package defect turns dataflow events and symbol facts into latent-defect
// findings.
package defect

import (
	"naive.systems/cxxlint/dataflow"
	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/rules"
	"naive.systems/cxxlint/symbols"
	"naive.systems/cxxlint/syntax"
)

func flowRule(id, code string, sev diagnostic.Severity, kind dataflow.EventKind, doc string) *rules.Rule {
	r := &rules.Rule{ID: id, Code: code, Category: rules.CategoryDefect, Severity: sev, Needs: rules.NeedFlow, Doc: doc}
	r.Check = func(in *rules.Input) []diagnostic.Finding {
		var findings []diagnostic.Finding
		for _, facts := range in.Facts {
			for _, e := range facts.Of(kind) {
				findings = append(findings, in.Report(r, e.Span, facts.Name, "%s", describe(in, e)))
			}
		}
		return findings
	}
	return r
}

var (
	NullDereference = flowRule("NullDereference", "CXX2001", diagnostic.Error, dataflow.NullDereference,
		"A pointer known to be null is dereferenced.")
	UseAfterFree = flowRule("UseAfterFree", "CXX2002", diagnostic.Error, dataflow.UseAfterFree,
		"Memory is accessed through a pointer after it was released.")
	DoubleFree = flowRule("DoubleFree", "CXX2003", diagnostic.Error, dataflow.DoubleFree,
		"The same allocation is released twice.")
	UninitializedRead = flowRule("UninitializedRead", "CXX2004", diagnostic.Error, dataflow.UninitializedRead,
		"A local variable is read on a path where it was never assigned.")
	ResourceLeak = flowRule("ResourceLeak", "CXX2005", diagnostic.Error, dataflow.ResourceLeak,
		"Memory owned by a local pointer is neither released nor handed off before the function returns.")
	OutOfBoundsAccess = flowRule("OutOfBoundsAccess", "CXX2006", diagnostic.Error, dataflow.OutOfBoundsAccess,
		"A constant index lies outside the declared bound of an array.")
	DivisionByZero = flowRule("DivisionByZero", "CXX2007", diagnostic.Error, dataflow.DivisionByZero,
		"The divisor is the constant zero.")
	UnreachableCode = flowRule("UnreachableCode", "CXX2008", diagnostic.Warning, dataflow.UnreachableCode,
		"Statements that no path from the function entry reaches.")
	InfiniteLoop = flowRule("InfiniteLoop", "CXX2009", diagnostic.Warning, dataflow.InfiniteLoop,
		"A loop with a constant true condition that nothing leaves.")
)

var UnusedVariable = &rules.Rule{
	ID: "UnusedVariable", Code: "CXX2010", Category: rules.CategoryDefect,
	Severity: diagnostic.Warning, Needs: rules.NeedSymbols,
	Doc: "A local variable of scalar or pointer type whose value is never read.",
}

var ShadowedDeclaration = &rules.Rule{
	ID: "ShadowedDeclaration", Code: "CXX2011", Category: rules.CategoryDefect,
	Severity: diagnostic.Info, Needs: rules.NeedSymbols,
	Doc: "A local or parameter hides a variable of an enclosing scope.",
}

func init() {
	UnusedVariable.Check = checkUnused
	ShadowedDeclaration.Check = checkShadowed
}

func All() []*rules.Rule {
	return []*rules.Rule{
		NullDereference, UseAfterFree, DoubleFree, UninitializedRead, ResourceLeak,
		OutOfBoundsAccess, DivisionByZero, UnreachableCode, InfiniteLoop,
		UnusedVariable, ShadowedDeclaration,
	}
}

func symbolName(in *rules.Input, id symbols.SymbolID) string {
	if id == symbols.NoSymbol || in.Symbols == nil {
		return ""
	}
	return in.Symbols.Symbol(id).Name
}

func describe(in *rules.Input, e dataflow.Event) string {
	name := symbolName(in, e.Symbol)
	switch e.Kind {
	case dataflow.NullDereference:
		return in.Sprintf("null pointer '%s' is dereferenced", name)
	case dataflow.UseAfterFree:
		return in.Sprintf("'%s' is used after its memory was released", name)
	case dataflow.DoubleFree:
		return in.Sprintf("'%s' is released twice", name)
	case dataflow.UninitializedRead:
		return in.Sprintf("'%s' is read before it is initialized", name)
	case dataflow.ResourceLeak:
		return in.Sprintf("memory allocated for '%s' is never released", name)
	case dataflow.OutOfBoundsAccess:
		return in.Sprintf("index %d is out of bounds for '%s' of size %d", e.Value, name, e.Bound)
	case dataflow.DivisionByZero:
		if name != "" {
			return in.Sprintf("division by '%s', which is always zero", name)
		}
		return in.Sprintf("division by zero")
	case dataflow.UnreachableCode:
		return in.Sprintf("code is unreachable")
	case dataflow.InfiniteLoop:
		return in.Sprintf("loop never terminates")
	}
	return e.Kind.String()
}

func checkUnused(in *rules.Input) []diagnostic.Finding {
	var findings []diagnostic.Finding
	t := in.Symbols
	for i := range t.Symbols {
		s := &t.Symbols[i]
		if !s.IsLocal() || !s.Type.IsScalar() || s.Array || t.IsRead(s.ID) || t.AddressTaken(s.ID) {
			continue
		}
		if hasSideEffects(in.Tree, in.Tree.Child(s.Decl, 0)) {
			continue
		}
		findings = append(findings, in.Report(UnusedVariable, s.Span, in.FunctionOf(s.Decl), "unused variable '%s'", s.Name))
	}
	return findings
}

// hasSideEffects reports initializers whose evaluation matters even when the
// variable is never read.
func hasSideEffects(tree *syntax.Tree, init syntax.NodeID) bool {
	found := false
	tree.Walk(init, func(id syntax.NodeID) bool {
		switch tree.Nodes[id].Kind {
		case syntax.Call, syntax.New, syntax.Assign, syntax.Postfix, syntax.Throw:
			found = true
		case syntax.Unary:
			if op := tree.Nodes[id].Op; op == "++" || op == "--" {
				found = true
			}
		}
		return !found
	})
	return found
}

func checkShadowed(in *rules.Input) []diagnostic.Finding {
	var findings []diagnostic.Finding
	t := in.Symbols
	for i := range t.Symbols {
		s := &t.Symbols[i]
		if s.Shadows == symbols.NoSymbol || (s.Kind != symbols.Variable && s.Kind != symbols.Parameter) {
			continue
		}
		outer := t.Symbol(s.Shadows)
		f := in.Report(ShadowedDeclaration, s.Span, in.FunctionOf(s.Decl),
			"declaration of '%s' shadows a %s declared at line %d", s.Name, outer.Kind, outer.Span.Start.Line)
		f.Related = append(f.Related, outer.Span)
		findings = append(findings, f)
	}
	return findings
}
