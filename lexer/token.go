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

package lexer

import (
	"fmt"

	"naive.systems/cxxlint/source"
)

type Kind int

const (
	EOF Kind = iota
	Ident
	Keyword
	Number
	String
	Char
	Operator
	Punct
	Directive // preprocessor line, trivia
	Comment   // trivia
	Unknown
)

var kindNames = [...]string{
	EOF:       "EOF",
	Ident:     "Ident",
	Keyword:   "Keyword",
	Number:    "Number",
	String:    "String",
	Char:      "Char",
	Operator:  "Operator",
	Punct:     "Punct",
	Directive: "Directive",
	Comment:   "Comment",
	Unknown:   "Unknown",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is an immutable lexeme with its location. Offset and EndOffset are
// byte offsets into the source; Pos and End are rune positions.
type Token struct {
	Kind      Kind
	Text      string
	Pos       source.Pos
	End       source.Pos
	Offset    int
	EndOffset int
}

func (t Token) Span() source.Span {
	return source.Span{Start: t.Pos, End: t.End}
}

// IsTrivia reports whether the parser should skip the token.
func (t Token) IsTrivia() bool {
	return t.Kind == Comment || t.Kind == Directive
}

// Is reports whether the token is an operator, punctuator or keyword spelled
// text.
func (t Token) Is(text string) bool {
	switch t.Kind {
	case Operator, Punct, Keyword:
		return t.Text == text
	}
	return false
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q at %s", t.Kind, t.Text, t.Pos)
}

var keywords = map[string]bool{
	"alignas": true, "alignof": true, "auto": true, "bool": true, "break": true,
	"case": true, "catch": true, "char": true, "char16_t": true, "char32_t": true,
	"char8_t": true, "class": true, "const": true, "const_cast": true,
	"consteval": true, "constexpr": true, "constinit": true, "continue": true,
	"decltype": true, "default": true, "delete": true, "do": true, "double": true,
	"dynamic_cast": true, "else": true, "enum": true, "explicit": true,
	"extern": true, "false": true, "final": true, "float": true, "for": true,
	"friend": true, "goto": true, "if": true, "inline": true, "int": true,
	"long": true, "mutable": true, "namespace": true, "new": true,
	"noexcept": true, "nullptr": true, "operator": true, "override": true,
	"private": true, "protected": true, "public": true, "register": true,
	"reinterpret_cast": true, "return": true, "short": true, "signed": true,
	"sizeof": true, "static": true, "static_assert": true, "static_cast": true,
	"struct": true, "switch": true, "template": true, "this": true,
	"thread_local": true, "throw": true, "true": true, "try": true,
	"typedef": true, "typeid": true, "typename": true, "union": true,
	"unsigned": true, "using": true, "virtual": true, "void": true,
	"volatile": true, "wchar_t": true, "while": true,
}

// IsKeyword reports whether word is a reserved C++ keyword.
func IsKeyword(word string) bool {
	return keywords[word]
}

// Operators ordered so that the first prefix match is the longest one.
var operators = []string{
	"<<=", ">>=", "<=>", "->*", "...",
	"::", "->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=", "&&", "||",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", ".*",
	"+", "-", "*", "/", "%", "<", ">", "=", "!", "&", "|", "^", "~", "?", ":", ".",
}

const punctuators = "(){}[];,#"
