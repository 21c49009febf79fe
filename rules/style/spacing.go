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
	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/lexer"
	"naive.systems/cxxlint/rules"
	"naive.systems/cxxlint/syntax"
)

var unspacedBinary = map[string]bool{",": true, ".*": true, "->*": true}

func checkOperatorSpacing(in *rules.Input) []diagnostic.Finding {
	var findings []diagnostic.Finding
	toks := in.Tree.Tokens
	check := func(id syntax.NodeID, op int) {
		if op <= 0 || op+1 >= len(toks) {
			return
		}
		before, gapBefore := adjacent(toks[op-1], toks[op])
		after, gapAfter := adjacent(toks[op], toks[op+1])
		if (before && gapBefore == 0) || (after && gapAfter == 0 && toks[op+1].Kind != lexer.EOF) {
			findings = append(findings, in.Report(OperatorSpacing, toks[op].Span(), in.FunctionOf(id),
				"missing space around '%s'", toks[op].Text))
		}
	}
	for i := range in.Tree.Nodes {
		n := &in.Tree.Nodes[i]
		id := syntax.NodeID(i)
		switch n.Kind {
		case syntax.Binary:
			if !unspacedBinary[n.Op] {
				check(id, n.Tok)
			}
		case syntax.Assign:
			check(id, n.Tok)
		case syntax.VarDecl:
			if !n.Has(syntax.FlagArray) && len(n.Children) > 0 && n.Tok+1 < len(toks) && toks[n.Tok+1].Is("=") {
				check(id, n.Tok+1)
			}
		}
	}
	return findings
}

func checkCommaSpacing(in *rules.Input) []diagnostic.Finding {
	var findings []diagnostic.Finding
	toks := in.Tokens
	for i, tok := range toks {
		if !tok.Is(",") {
			continue
		}
		if i+1 < len(toks) {
			next := toks[i+1]
			if same, gap := adjacent(tok, next); same && gap == 0 && next.Kind != lexer.EOF && next.Kind != lexer.Comment {
				findings = append(findings, in.Report(CommaSpacing, tok.Span(), in.FunctionAt(tok.Pos), "missing space after ','"))
				continue
			}
		}
		if i > 0 {
			if same, gap := adjacent(toks[i-1], tok); same && gap > 0 && toks[i-1].Kind != lexer.Comment {
				findings = append(findings, in.Report(CommaSpacing, tok.Span(), in.FunctionAt(tok.Pos), "unexpected space before ','"))
			}
		}
	}
	return findings
}

var spacedKeywords = map[string]bool{"if": true, "for": true, "while": true, "switch": true, "catch": true}

func checkParenSpacing(in *rules.Input) []diagnostic.Finding {
	var findings []diagnostic.Finding
	toks := in.Tokens
	report := func(tok lexer.Token, format string, args ...any) {
		findings = append(findings, in.Report(ParenthesisSpacing, tok.Span(), in.FunctionAt(tok.Pos), format, args...))
	}
	for i, tok := range toks {
		switch {
		case tok.Is("(") && i+1 < len(toks):
			next := toks[i+1]
			if same, gap := adjacent(tok, next); same && gap > 0 && next.Kind != lexer.Comment && next.Kind != lexer.EOF && !next.Is(")") {
				report(tok, "unexpected space after '('")
			}
		case tok.Is(")") && i > 0:
			prev := toks[i-1]
			if same, gap := adjacent(prev, tok); same && gap > 0 && prev.Kind != lexer.Comment && !prev.Is("(") && !prev.Is(";") {
				report(tok, "unexpected space before ')'")
			}
		case tok.Kind == lexer.Keyword && spacedKeywords[tok.Text] && i+1 < len(toks):
			if same, gap := adjacent(tok, toks[i+1]); same && gap == 0 && toks[i+1].Is("(") {
				report(tok, "missing space between '%s' and '('", tok.Text)
			}
		}
	}
	return findings
}
