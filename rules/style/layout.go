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
	"strings"

	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/lexer"
	"naive.systems/cxxlint/rules"
	"naive.systems/cxxlint/source"
	"naive.systems/cxxlint/syntax"
)

func checkLineLength(in *rules.Input) []diagnostic.Finding {
	limit := in.Style.MaxLineLength
	if limit <= 0 {
		return nil
	}
	var findings []diagnostic.Finding
	for i, line := range in.Lines {
		n := runeLen(strings.TrimRight(line, "\r"))
		if n <= limit {
			continue
		}
		trimmed := strings.TrimSpace(line)
		// long include paths and URLs cannot be wrapped
		if isInclude(trimmed) || strings.Contains(trimmed, "http://") || strings.Contains(trimmed, "https://") {
			continue
		}
		span := source.Span{Start: source.Pos{Line: i + 1, Column: limit + 1}, End: source.Pos{Line: i + 1, Column: n + 1}}
		findings = append(findings, in.Report(LineLength, span, in.FunctionAt(span.Start),
			"line is %d characters long, exceeds %d", n, limit))
	}
	return findings
}

func isInclude(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "#") {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(trimmed[1:]), "include")
}

func checkBlankLineBeforeInclude(in *rules.Input) []diagnostic.Finding {
	var findings []diagnostic.Finding
	for _, tok := range in.Tokens {
		if tok.Kind != lexer.Directive || !isInclude(tok.Text) || tok.Pos.Line < 2 {
			continue
		}
		prev := strings.TrimSpace(lineAt(in, tok.Pos.Line-1))
		// other directives, such as a preceding include or an include guard
		if prev == "" || strings.HasPrefix(prev, "#") {
			continue
		}
		findings = append(findings, in.Report(BlankLineBeforeInclude, tok.Span(), "",
			"#include should be preceded by a blank line"))
	}
	return findings
}

// atLineStart reports whether toks[i] is the first significant token on its
// line.
func atLineStart(toks []lexer.Token, i int) bool {
	return i == 0 || toks[i-1].End.Line < toks[i].Pos.Line
}

var braceOpeners = map[string]bool{
	")": true, "else": true, "do": true, "try": true, "const": true, "override": true,
	"final": true, "noexcept": true,
}

var typeHeads = []string{"class ", "struct ", "union ", "enum ", "namespace "}

func checkBracePlacement(in *rules.Input) []diagnostic.Finding {
	var findings []diagnostic.Finding
	toks := significant(in.Tokens)
	report := func(tok lexer.Token, format string, args ...any) {
		findings = append(findings, in.Report(BracePlacement, tok.Span(), in.FunctionAt(tok.Pos), format, args...))
	}
	for i, tok := range toks {
		if i == 0 {
			continue
		}
		prev := toks[i-1]
		switch {
		case tok.Is("{") && atLineStart(toks, i):
			opens := braceOpeners[prev.Text] && prev.Kind != lexer.Ident
			if prev.Kind == lexer.Ident {
				head := strings.TrimSpace(lineAt(in, prev.Pos.Line))
				for _, kw := range typeHeads {
					if strings.HasPrefix(head, kw) {
						opens = true
					}
				}
			}
			if opens {
				report(tok, "opening brace should be on the line of '%s'", prev.Text)
			}
		case tok.Is("{"):
			if same, gap := adjacent(prev, tok); same && gap == 0 && braceOpeners[prev.Text] && prev.Kind != lexer.Ident {
				report(tok, "missing space before '{'")
			}
		case tok.Is("else") && atLineStart(toks, i) && prev.Is("}"):
			report(tok, "'else' should be on the same line as the preceding '}'")
		}
	}
	return findings
}

func checkOneStatementPerLine(in *rules.Input) []diagnostic.Finding {
	var findings []diagnostic.Finding
	t := in.Tree
	for i := range t.Nodes {
		if t.Nodes[i].Kind != syntax.Block {
			continue
		}
		lastLine := 0
		var prev syntax.NodeID = syntax.NoNode
		for _, c := range t.Nodes[i].Children {
			n := &t.Nodes[c]
			if prev != syntax.NoNode {
				switch t.Nodes[prev].Kind {
				case syntax.Case, syntax.Default, syntax.Label:
				default:
					if n.Span.Start.Line == t.Nodes[prev].Span.End.Line && n.Span.Start.Line != lastLine {
						lastLine = n.Span.Start.Line
						findings = append(findings, in.Report(OneStatementPerLine, n.Span, in.FunctionOf(c),
							"more than one statement on line %d", n.Span.Start.Line))
					}
				}
			}
			prev = c
		}
	}
	return findings
}

func checkParameterWrap(in *rules.Input) []diagnostic.Finding {
	var findings []diagnostic.Finding
	t := in.Tree
	limit := in.Style.MaxLineLength
	for i := range t.Nodes {
		if t.Nodes[i].Kind != syntax.Function {
			continue
		}
		fn := syntax.NodeID(i)
		params := t.Params(fn)
		if len(params) == 0 {
			continue
		}
		list := t.Nodes[t.Child(fn, 0)].Span
		if list.Start.Line == list.End.Line {
			if limit > 0 && runeLen(lineAt(in, list.End.Line)) > limit {
				findings = append(findings, in.Report(ParameterListWrap, list, t.Nodes[fn].Name,
					"parameter list of '%s' should be wrapped to fit in %d columns", t.Nodes[fn].Name, limit))
			}
			continue
		}
		first := t.Nodes[params[0]].Span.Start
		indent := indentOf(lineAt(in, t.Nodes[fn].Span.Start.Line))
		for k := 1; k < len(params); k++ {
			p := &t.Nodes[params[k]]
			if p.Span.Start.Line == t.Nodes[params[k-1]].Span.End.Line {
				continue
			}
			if col := p.Span.Start.Column; col != first.Column && col != indent+5 {
				findings = append(findings, in.Report(ParameterListWrap, p.Span, t.Nodes[fn].Name,
					"wrapped parameter '%s' should align with the first parameter", p.Name))
			}
		}
	}
	return findings
}

func checkAccessLabels(in *rules.Input) []diagnostic.Finding {
	var findings []diagnostic.Finding
	t := in.Tree
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.Kind != syntax.AccessLabel {
			continue
		}
		cls := t.EnclosingClass(syntax.NodeID(i))
		if cls == syntax.NoNode {
			continue
		}
		tok := t.Tokens[n.Tok]
		line := lineAt(in, tok.Pos.Line)
		if indentOf(line)+1 != tok.Pos.Column {
			// shares its line with other code
			continue
		}
		expected := indentOf(lineAt(in, t.Nodes[cls].Span.Start.Line))
		if in.Style.Convention == rules.Google {
			expected++
		}
		if got := tok.Pos.Column - 1; got != expected {
			findings = append(findings, in.Report(AccessLabelIndent, tok.Span(), "",
				"'%s:' should be indented %d space(s), not %d", n.Name, expected, got))
		}
	}
	return findings
}
