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

// Package syntaxcheck reports parse failures and unrecognized tokens.
package syntaxcheck

import (
	"strings"

	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/lexer"
	"naive.systems/cxxlint/rules"
	"naive.systems/cxxlint/syntax"
)

var SyntaxError = &rules.Rule{
	ID: "SyntaxError", Code: "CXX1001", Category: rules.CategorySyntax,
	Severity: diagnostic.Error, Needs: rules.NeedTree,
	Doc: "The parser could not match the C++ grammar and recovered.",
}

var UnbalancedDelimiter = &rules.Rule{
	ID: "UnbalancedDelimiter", Code: "CXX1002", Category: rules.CategorySyntax,
	Severity: diagnostic.Error, Needs: rules.NeedTree,
	Doc: "A brace is never closed or closes nothing.",
}

var UnknownToken = &rules.Rule{
	ID: "UnknownToken", Code: "CXX1003", Category: rules.CategorySyntax,
	Severity: diagnostic.Error, Needs: rules.NeedTokens,
	Doc: "Characters that do not form a C++ token, including unterminated literals.",
}

func init() {
	SyntaxError.Check = func(in *rules.Input) []diagnostic.Finding {
		return parseErrors(in, SyntaxError, syntax.SyntaxError)
	}
	UnbalancedDelimiter.Check = func(in *rules.Input) []diagnostic.Finding {
		return parseErrors(in, UnbalancedDelimiter, syntax.UnbalancedDelimiter)
	}
	UnknownToken.Check = checkUnknownTokens
}

func All() []*rules.Rule {
	return []*rules.Rule{SyntaxError, UnbalancedDelimiter, UnknownToken}
}

func parseErrors(in *rules.Input, rule *rules.Rule, kind syntax.ErrorKind) []diagnostic.Finding {
	var findings []diagnostic.Finding
	for _, e := range in.Tree.Errors {
		if e.Kind != kind {
			continue
		}
		findings = append(findings, in.Report(rule, e.Span, in.FunctionAt(e.Span.Start), "%s", e.Message))
	}
	return findings
}

func checkUnknownTokens(in *rules.Input) []diagnostic.Finding {
	var findings []diagnostic.Finding
	for _, tok := range in.Tokens {
		if tok.Kind != lexer.Unknown {
			continue
		}
		fn := in.FunctionAt(tok.Pos)
		if q := strings.IndexAny(tok.Text, "\"'"); q >= 0 && q <= 3 {
			findings = append(findings, in.Report(UnknownToken, tok.Span(), fn, "unterminated literal %s", tok.Text))
			continue
		}
		findings = append(findings, in.Report(UnknownToken, tok.Span(), fn, "unexpected character %q", tok.Text))
	}
	return findings
}
