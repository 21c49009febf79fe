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
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"naive.systems/cxxlint/lexer"
	"naive.systems/cxxlint/rules"
	"naive.systems/cxxlint/syntax"
)

func input(src string, style rules.Style) *rules.Input {
	tokens := lexer.Tokenize(src)
	return &rules.Input{
		File:   "test.cpp",
		Text:   src,
		Lines:  strings.Split(src, "\n"),
		Tokens: tokens,
		Tree:   syntax.Parse(tokens),
		Style:  style,
	}
}

// run returns the findings of rule as "line:col message".
func run(rule *rules.Rule, src string, style rules.Style) []string {
	var out []string
	for _, f := range rule.Check(input(src, style)) {
		out = append(out, fmt.Sprintf("%v %s", f.Span.Start, f.Message))
	}
	return out
}

type ruleCase struct {
	src      string
	expected []string
}

func checkCases(t *testing.T, rule *rules.Rule, style rules.Style, cases []ruleCase) {
	t.Helper()
	for _, testCase := range cases {
		got := run(rule, testCase.src, style)
		if !reflect.DeepEqual(got, testCase.expected) {
			t.Errorf("unexpected result for %q. got: %v. expected: %v.", testCase.src, got, testCase.expected)
		}
	}
}

func TestOperatorSpacing(t *testing.T) {
	checkCases(t, OperatorSpacing, rules.DefaultStyle(), []ruleCase{
		{"int f() { return a+b; }", []string{"1:19 missing space around '+'"}},
		{"void f() { int x=1; }", []string{"1:17 missing space around '='"}},
		{"void f() { x = a + b; }", nil},
		{"void f() { x = -1; *p = 2; }", nil},
		{"void f() { g(a, b); }", nil},
	})
}

func TestCommaSpacing(t *testing.T) {
	checkCases(t, CommaSpacing, rules.DefaultStyle(), []ruleCase{
		{"void f(int a,int b);", []string{"1:13 missing space after ','"}},
		{"void f(int a , int b);", []string{"1:14 unexpected space before ','"}},
		{"void f(int a, int b);", nil},
	})
}

func TestParenthesisSpacing(t *testing.T) {
	checkCases(t, ParenthesisSpacing, rules.DefaultStyle(), []ruleCase{
		{"void f() { if(x) { g( y ); } }", []string{
			"1:12 missing space between 'if' and '('",
			"1:21 unexpected space after '('",
			"1:25 unexpected space before ')'",
		}},
		{"void f() { if (x) { g(y); } }", nil},
	})
}

func TestLineLength(t *testing.T) {
	style := rules.DefaultStyle()
	style.MaxLineLength = 10
	checkCases(t, LineLength, style, []ruleCase{
		{"int abcdef = 1;\n", []string{"1:11 line is 15 characters long, exceeds 10"}},
		{"int a = 1;\n", nil},
		{"#include <averyverylongheader.h>\n", nil},
	})
}

func TestBlankLineBeforeInclude(t *testing.T) {
	checkCases(t, BlankLineBeforeInclude, rules.DefaultStyle(), []ruleCase{
		{"// header\n#include <a.h>\n", []string{"2:1 #include should be preceded by a blank line"}},
		{"// header\n\n#include <a.h>\n", nil},
		{"#pragma once\n#include <a.h>\n#include <b.h>\n", nil},
	})
}

func TestBracePlacement(t *testing.T) {
	checkCases(t, BracePlacement, rules.DefaultStyle(), []ruleCase{
		{"void f()\n{\n}\n", []string{"2:1 opening brace should be on the line of ')'"}},
		{"class A\n{\n};\n", []string{"2:1 opening brace should be on the line of 'A'"}},
		{"void f() {\n  if (x) {\n  }\n  else {\n  }\n}\n", []string{"4:3 'else' should be on the same line as the preceding '}'"}},
		{"void f(){}\n", []string{"1:9 missing space before '{'"}},
		{"void f() {\n  if (x) {\n  } else {\n  }\n}\n", nil},
	})
}

func TestOneStatementPerLine(t *testing.T) {
	checkCases(t, OneStatementPerLine, rules.DefaultStyle(), []ruleCase{
		{"void f() {\n  a(); b();\n}\n", []string{"2:8 more than one statement on line 2"}},
		{"void f() {\n  a();\n  b();\n}\n", nil},
	})
}

func TestParameterListWrap(t *testing.T) {
	style := rules.DefaultStyle()
	style.MaxLineLength = 20
	checkCases(t, ParameterListWrap, style, []ruleCase{
		{"void f(int alpha, int beta);\n", []string{"1:7 parameter list of 'f' should be wrapped to fit in 20 columns"}},
		{"void f(int alpha,\n       int beta);\n", nil},
		{"void f(int alpha,\n    int beta);\n", nil},
		{"void f(int alpha,\n   int beta);\n", []string{"2:4 wrapped parameter 'beta' should align with the first parameter"}},
	})
}

func TestAccessLabelIndent(t *testing.T) {
	checkCases(t, AccessLabelIndent, rules.DefaultStyle(), []ruleCase{
		{"class A {\n public:\n  int x_;\n};\n", nil},
		{"class A {\npublic:\n  int x_;\n};\n", []string{"2:1 'public:' should be indented 1 space(s), not 0"}},
	})
	llvm := rules.DefaultStyle()
	llvm.Convention = rules.LLVM
	checkCases(t, AccessLabelIndent, llvm, []ruleCase{
		{"class A {\npublic:\n  int X;\n};\n", nil},
		{"class A {\n public:\n  int X;\n};\n", []string{"2:2 'public:' should be indented 0 space(s), not 1"}},
	})
}

func TestNamingConvention(t *testing.T) {
	checkCases(t, NamingConvention, rules.DefaultStyle(), []ruleCase{
		{"class my_class {};\n", []string{"1:7 type name 'my_class' should be UpperCamelCase"}},
		{"void do_thing() {}\n", []string{"1:6 function name 'do_thing' should be UpperCamelCase"}},
		{"void DoThing() {}\n", nil},
		{"class A {\n public:\n  int count() const { return count_; }\n  void set_count(int c) { count_ = c; }\n  int get_count() const;\n\n private:\n  int count_;\n};\n",
			[]string{"5:7 function name 'get_count' should be UpperCamelCase"}},
		{"struct S {\n  int size;\n  int size_of() const;\n  void set_size(int s);\n};\n", []string{"3:7 function name 'size_of' should be UpperCamelCase"}},
		{"void f(int BadName) {}\n", []string{"1:12 parameter name 'BadName' should be lower_snake_case"}},
		{"class A {\n  int count;\n};\n", []string{"2:7 data member name 'count' should be lower_snake_case with a trailing underscore"}},
		{"struct S {\n  int count;\n};\n", nil},
		{"const int max_value = 1;\n", []string{"1:11 constant name 'max_value' should be kCamelCase"}},
		{"const int kMaxValue = 1;\n", nil},
		{"class Widget {\n public:\n  Widget();\n  ~Widget();\n};\nint main() { return 0; }\n", nil},
	})
	custom := rules.DefaultStyle()
	custom.Naming = map[string]*regexp.Regexp{"function": regexp.MustCompile(`^[A-Z]`)}
	checkCases(t, NamingConvention, custom, []ruleCase{
		{"void do_thing() {}\n", []string{"1:6 function name 'do_thing' should be ^[A-Z]"}},
		{"void DoThing() {}\n", nil},
	})
}
