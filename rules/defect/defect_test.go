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
package defect

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"naive.systems/cxxlint/cfg"
	"naive.systems/cxxlint/dataflow"
	"naive.systems/cxxlint/lexer"
	"naive.systems/cxxlint/rules"
	"naive.systems/cxxlint/symbols"
	"naive.systems/cxxlint/syntax"
)

func input(t *testing.T, src string) *rules.Input {
	t.Helper()
	tokens := lexer.Tokenize(src)
	tree := syntax.Parse(tokens)
	in := &rules.Input{
		File:    "test.cpp",
		Text:    src,
		Lines:   strings.Split(src, "\n"),
		Tokens:  tokens,
		Tree:    tree,
		Symbols: symbols.Build(tree),
		Style:   rules.DefaultStyle(),
	}
	for _, g := range cfg.BuildAll(tree) {
		facts, err := dataflow.Analyze(tree, in.Symbols, g)
		if err != nil {
			t.Fatalf("dataflow.Analyze(%s): %v", g.Name, err)
		}
		in.Graphs = append(in.Graphs, g)
		in.Facts = append(in.Facts, facts)
	}
	return in
}

func located(t *testing.T, rule *rules.Rule, src string) []string {
	var out []string
	for _, f := range rule.Check(input(t, src)) {
		out = append(out, fmt.Sprintf("%v %s: %s", f.Span.Start, f.Function, f.Message))
	}
	return out
}

func TestFlowRules(t *testing.T) {
	for _, testCase := range [...]struct {
		rule     *rules.Rule
		src      string
		expected []string
	}{
		{NullDereference, "void f() {\n  int* ptr = nullptr;\n  *ptr = 42;\n}\n", []string{"3:3 f: null pointer 'ptr' is dereferenced"}},
		{DoubleFree, "void f() {\n  int* p = new int(1);\n  delete p;\n  delete p;\n}\n", []string{"4:3 f: 'p' is released twice"}},
		{UninitializedRead, "int f() {\n  int x;\n  return x;\n}\n", []string{"3:3 f: 'x' is read before it is initialized"}},
		{UnreachableCode, "int f(int x) {\n  return x*2;\n  x += 1;\n}\n", []string{"3:3 f: code is unreachable"}},
		{NullDereference, "int f() {\n  int x;\n  return x;\n}\n", nil},
		{OutOfBoundsAccess, "int f() {\n  int m[2][3] = {};\n  return m[1][5] + m[2][0];\n}\n", []string{
			"3:10 f: index 5 is out of bounds for 'm' of size 3",
			"3:20 f: index 2 is out of bounds for 'm' of size 2",
		}},
	} {
		if got := located(t, testCase.rule, testCase.src); !reflect.DeepEqual(got, testCase.expected) {
			t.Errorf("unexpected result for %v on %q. got: %v. expected: %v.", testCase.rule.ID, testCase.src, got, testCase.expected)
		}
	}
}

func TestFlowMessages(t *testing.T) {
	for _, testCase := range [...]struct {
		rule     *rules.Rule
		src      string
		expected string
	}{
		{DivisionByZero, "void f(int x) { g(x % 0); }", "division by zero"},
		{InfiniteLoop, "void f() { for (;;) {} }", "loop never terminates"},
		{DoubleFree, "void f() { int* p = (int*)malloc(4); free(p); free(p); }", "'p' is released twice"},
		{UninitializedRead, "void f(int c) { int x; if (c) x = 1; g(x); }", "'x' is read before it is initialized"},
	} {
		findings := testCase.rule.Check(input(t, testCase.src))
		if len(findings) != 1 || findings[0].Message != testCase.expected {
			t.Errorf("unexpected result for %q. got: %v. expected: [%v].", testCase.src, findings, testCase.expected)
		}
	}
}

func TestUnusedVariable(t *testing.T) {
	for _, testCase := range [...]struct {
		src      string
		expected []string
	}{
		{"void f() {\n  int unused = 1;\n  int used = 2;\n  g(used);\n}\n", []string{"2:7 f: unused variable 'unused'"}},
		{"void f() {\n  int n = next();\n}\n", nil},
		{"void f() {\n  int x;\n  init(&x);\n}\n", nil},
		{"void f(int unused_param) {\n}\n", nil},
	} {
		if got := located(t, UnusedVariable, testCase.src); !reflect.DeepEqual(got, testCase.expected) {
			t.Errorf("unexpected result for %q. got: %v. expected: %v.", testCase.src, got, testCase.expected)
		}
	}
}

func TestShadowedDeclaration(t *testing.T) {
	src := "void f(int x) {\n  int y = x;\n  {\n    int y = 2;\n    use(y);\n  }\n  use(y);\n}\n"
	findings := ShadowedDeclaration.Check(input(t, src))
	if len(findings) != 1 {
		t.Fatalf("unexpected result for shadow count. got: %v. expected: 1.", findings)
	}
	f := findings[0]
	got := fmt.Sprintf("%v %s", f.Span.Start, f.Message)
	expected := "4:9 declaration of 'y' shadows a variable declared at line 2"
	if got != expected {
		t.Errorf("unexpected result for shadowed y. got: %v. expected: %v.", got, expected)
	}
	if len(f.Related) != 1 || f.Related[0].Start.Line != 2 {
		t.Errorf("unexpected result for related span. got: %v. expected: one span on line 2.", f.Related)
	}
}
