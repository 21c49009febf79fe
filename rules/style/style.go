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

// Package style checks layout and naming conventions. Most checks work on
// token positions; the tree is consulted where tokens alone are ambiguous,
// such as binary versus unary '*'.
package style

import (
	"unicode"
	"unicode/utf8"

	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/lexer"
	"naive.systems/cxxlint/rules"
)

func rule(id, code string, needs rules.Needs, doc string) *rules.Rule {
	return &rules.Rule{
		ID: id, Code: code, Category: rules.CategoryStyle, Severity: diagnostic.Warning,
		Needs: needs, Doc: doc,
	}
}

var (
	NamingConvention = rule("NamingConvention", "CXX3001", rules.NeedTree,
		"Identifiers follow the naming scheme of the configured convention.")
	OperatorSpacing = rule("OperatorSpacing", "CXX3002", rules.NeedTree,
		"Binary and assignment operators are surrounded by spaces.")
	CommaSpacing = rule("CommaSpacing", "CXX3003", rules.NeedTokens,
		"A comma is followed by a space and not preceded by one.")
	AccessLabelIndent = rule("AccessLabelIndent", "CXX3004", rules.NeedTree,
		"Access specifiers are indented relative to their class as the convention requires.")
	LineLength = rule("LineLength", "CXX3005", rules.NeedTokens,
		"Lines do not exceed the configured length.")
	OneStatementPerLine = rule("OneStatementPerLine", "CXX3006", rules.NeedTree,
		"Each statement starts on its own line.")
	BlankLineBeforeInclude = rule("BlankLineBeforeInclude", "CXX3007", rules.NeedTokens,
		"An #include block is separated from preceding code or comments by a blank line.")
	ParameterListWrap = rule("ParameterListWrap", "CXX3008", rules.NeedTree,
		"Long parameter lists are wrapped and wrapped parameters are aligned.")
	BracePlacement = rule("BracePlacement", "CXX3009", rules.NeedTokens,
		"Opening braces end the line of the statement they open; else follows the closing brace.")
	ParenthesisSpacing = rule("ParenthesisSpacing", "CXX3010", rules.NeedTokens,
		"No spaces just inside parentheses; control keywords are followed by a space.")
)

func init() {
	NamingConvention.Check = checkNaming
	OperatorSpacing.Check = checkOperatorSpacing
	CommaSpacing.Check = checkCommaSpacing
	AccessLabelIndent.Check = checkAccessLabels
	LineLength.Check = checkLineLength
	OneStatementPerLine.Check = checkOneStatementPerLine
	BlankLineBeforeInclude.Check = checkBlankLineBeforeInclude
	ParameterListWrap.Check = checkParameterWrap
	BracePlacement.Check = checkBracePlacement
	ParenthesisSpacing.Check = checkParenSpacing
}

func All() []*rules.Rule {
	return []*rules.Rule{
		NamingConvention, OperatorSpacing, CommaSpacing, AccessLabelIndent, LineLength,
		OneStatementPerLine, BlankLineBeforeInclude, ParameterListWrap, BracePlacement,
		ParenthesisSpacing,
	}
}

// significant drops comments, directives and EOF.
func significant(tokens []lexer.Token) []lexer.Token {
	out := make([]lexer.Token, 0, len(tokens))
	for _, tok := range tokens {
		if !tok.IsTrivia() && tok.Kind != lexer.EOF {
			out = append(out, tok)
		}
	}
	return out
}

// adjacent reports whether b starts on the line a ends on, and the number of
// columns between them.
func adjacent(a, b lexer.Token) (bool, int) {
	if a.End.Line != b.Pos.Line {
		return false, 0
	}
	return true, b.Pos.Column - a.End.Column
}

// indentOf counts the leading whitespace runes of a line.
func indentOf(line string) int {
	n := 0
	for _, r := range line {
		if !unicode.IsSpace(r) {
			break
		}
		n++
	}
	return n
}

func lineAt(in *rules.Input, line int) string {
	if line < 1 || line > len(in.Lines) {
		return ""
	}
	return in.Lines[line-1]
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
