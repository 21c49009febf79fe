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

// Package rules defines the detector contract shared by the rule sets and
// the schedule the engine runs them in.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/message"

	"naive.systems/cxxlint/cfg"
	"naive.systems/cxxlint/dataflow"
	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/lexer"
	"naive.systems/cxxlint/source"
	"naive.systems/cxxlint/symbols"
	"naive.systems/cxxlint/syntax"
)

// Needs is the set of analysis products a rule reads.
type Needs uint8

const (
	NeedTokens Needs = 1 << iota
	NeedTree
	NeedSymbols
	NeedFlow
)

// Closure adds the stages the requested ones are built from.
func (n Needs) Closure() Needs {
	if n&NeedFlow != 0 {
		n |= NeedSymbols
	}
	if n&NeedSymbols != 0 {
		n |= NeedTree
	}
	if n&NeedTree != 0 {
		n |= NeedTokens
	}
	return n
}

// Has reports whether every stage of m is in n.
func (n Needs) Has(m Needs) bool {
	return n&m == m
}

// level orders rules by their deepest stage.
func (n Needs) level() int {
	switch {
	case n&NeedFlow != 0:
		return 3
	case n&NeedSymbols != 0:
		return 2
	case n&NeedTree != 0:
		return 1
	}
	return 0
}

func (n Needs) String() string {
	var parts []string
	for _, s := range [...]struct {
		need Needs
		name string
	}{{NeedTokens, "tokens"}, {NeedTree, "tree"}, {NeedSymbols, "symbols"}, {NeedFlow, "flow"}} {
		if n&s.need != 0 {
			parts = append(parts, s.name)
		}
	}
	return strings.Join(parts, "|")
}

const (
	CategorySyntax = "syntax"
	CategoryDefect = "defect"
	CategoryStyle  = "style"
	CategoryEngine = "engine"
)

// Rule is one detector. Check must not modify the Input.
type Rule struct {
	ID       string
	Code     string
	Category string
	Severity diagnostic.Severity
	Needs    Needs
	Doc      string
	Check    func(in *Input) []diagnostic.Finding
}

// Finding creates a finding of r.
func (r *Rule) Finding(file, function string, span source.Span, msg string) diagnostic.Finding {
	return diagnostic.Finding{
		RuleID:   r.ID,
		Code:     r.Code,
		Category: r.Category,
		Severity: r.Severity,
		Message:  msg,
		File:     file,
		Function: function,
		Span:     span,
	}
}

var (
	InputError = &Rule{
		ID: "InputError", Code: "CXX0001", Category: CategoryEngine, Severity: diagnostic.Error,
		Doc: "The input is empty or is not valid UTF-8 text.",
	}
	InternalError = &Rule{
		ID: "InternalError", Code: "CXX0002", Category: CategoryEngine, Severity: diagnostic.Error,
		Doc: "An analysis failed on a function; its other results are unaffected.",
	}
	UnknownRule = &Rule{
		ID: "UnknownRule", Code: "CXX0003", Category: CategoryEngine, Severity: diagnostic.Warning,
		Doc: "The configuration enables a rule id that does not exist.",
	}
)

// Reserved returns the rules the engine reports itself.
func Reserved() []*Rule {
	return []*Rule{InputError, InternalError, UnknownRule}
}

type Convention uint8

const (
	Google Convention = iota
	LLVM
)

func (c Convention) String() string {
	if c == LLVM {
		return "llvm"
	}
	return "google"
}

func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(s) {
	case "", "google":
		return Google, nil
	case "llvm":
		return LLVM, nil
	}
	return Google, fmt.Errorf("unknown style convention %q", s)
}

// Style parameterizes the style rules.
type Style struct {
	Convention    Convention
	MaxLineLength int
	// Naming replaces the convention's pattern for an identifier class:
	// type, function, variable, constant, field or namespace.
	Naming map[string]*regexp.Regexp
}

func DefaultStyle() Style {
	return Style{Convention: Google, MaxLineLength: 80}
}

// Input is everything a rule may read about one translation unit. Stages
// the schedule does not need are left nil.
type Input struct {
	File    string
	Text    string
	Lines   []string
	Tokens  []lexer.Token // full stream, trivia included
	Tree    *syntax.Tree
	Symbols *symbols.Table
	Graphs  []*cfg.Graph
	Facts   []*dataflow.Facts
	Style   Style
	Printer *message.Printer
}

// Sprintf formats a message in the configured language.
func (in *Input) Sprintf(format string, args ...any) string {
	if in.Printer == nil {
		return fmt.Sprintf(format, args...)
	}
	return in.Printer.Sprintf(format, args...)
}

// Report creates a finding of r in this unit.
func (in *Input) Report(r *Rule, span source.Span, function string, format string, args ...any) diagnostic.Finding {
	return r.Finding(in.File, function, span, in.Sprintf(format, args...))
}

// FunctionOf returns the name of the function enclosing a node.
func (in *Input) FunctionOf(id syntax.NodeID) string {
	if in.Tree == nil || id == syntax.NoNode {
		return ""
	}
	if fn := in.Tree.EnclosingFunction(id); fn != syntax.NoNode {
		return in.Tree.Nodes[fn].Name
	}
	return ""
}

// FunctionAt returns the name of the function definition whose span covers
// a position, innermost first.
func (in *Input) FunctionAt(pos source.Pos) string {
	if in.Tree == nil {
		return ""
	}
	name := ""
	for _, fn := range in.Tree.Functions {
		if in.Tree.Nodes[fn].Span.Contains(source.Span{Start: pos, End: pos}) {
			name = in.Tree.Nodes[fn].Name
		}
	}
	return name
}
