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
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"naive.systems/cxxlint/cfg"
	"naive.systems/cxxlint/dataflow"
	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/options"
	"naive.systems/cxxlint/rules"
	"naive.systems/cxxlint/rules/builtin"
	"naive.systems/cxxlint/sdk/testcase"
	"naive.systems/cxxlint/source"
	"naive.systems/cxxlint/symbols"
	"naive.systems/cxxlint/syntax"
)

func newEngine(t *testing.T, config *options.Config, registry *rules.Registry) *Engine {
	t.Helper()
	e, err := New(config, registry)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func analyzeAll(e *Engine, sources []testcase.Source) (*diagnostic.Set, error) {
	var sets []*diagnostic.Set
	for _, src := range sources {
		set, err := e.Analyze(context.Background(), Unit{Name: src.Name, Text: src.Text})
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return diagnostic.Merge(sets...), nil
}

func TestFixtures(t *testing.T) {
	for _, path := range testcase.Glob(t, "testdata/*.txtar") {
		t.Run(filepath.Base(path), func(t *testing.T) {
			tc := testcase.New(t, path)
			e := newEngine(t, tc.Config, builtin.NewRegistry())
			tc.ExpectOK(analyzeAll(e, tc.Sources))
		})
	}
}

func TestInputErrors(t *testing.T) {
	e := newEngine(t, options.Default(), builtin.NewRegistry())
	for _, testCase := range [...]struct {
		text     string
		expected []string
	}{
		{"int x = 1;\xff\n", []string{"bad.cpp: error: [CXX0001][InputError]: input is not valid UTF-8 text"}},
		{"\xef\xbb\xbf", []string{"bad.cpp: error: [CXX0001][InputError]: input is empty"}},
		{"", []string{"bad.cpp: error: [CXX0001][InputError]: input is empty"}},
	} {
		set, err := e.Analyze(context.Background(), Unit{Name: "bad.cpp", Text: []byte(testCase.text)})
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if got := testcase.Render(set); !reflect.DeepEqual(got, testCase.expected) {
			t.Errorf("unexpected result for %q. got: %v. expected: %v.", testCase.text, got, testCase.expected)
		}
	}
}

func TestRuleFailureIsIsolated(t *testing.T) {
	registry := rules.NewRegistry()
	boom := &rules.Rule{
		ID: "Boom", Code: "CXX9001", Category: rules.CategoryStyle, Severity: diagnostic.Warning,
		Needs: rules.NeedTokens,
		Check: func(*rules.Input) []diagnostic.Finding { panic("boom") },
	}
	echo := &rules.Rule{
		ID: "Echo", Code: "CXX9002", Category: rules.CategoryStyle, Severity: diagnostic.Warning,
		Needs: rules.NeedTokens,
	}
	echo.Check = func(in *rules.Input) []diagnostic.Finding {
		return []diagnostic.Finding{in.Report(echo, in.Tokens[0].Span(), "", "first token")}
	}
	if err := registry.Register(boom, echo); err != nil {
		t.Fatalf("Register: %v", err)
	}
	e := newEngine(t, options.Default(), registry)
	set, err := e.Analyze(context.Background(), Unit{Name: "main.cpp", Text: []byte("int x;\n")})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	expected := []string{
		"main.cpp: error: [CXX0002][InternalError]: rule Boom failed: panic: boom",
		"main.cpp:1:1: warning: [CXX9002][Echo]: first token",
	}
	if got := testcase.Render(set); !reflect.DeepEqual(got, expected) {
		t.Errorf("unexpected result for panicking rule. got: %v. expected: %v.", got, expected)
	}
}

func TestFunctionFailureIsIsolated(t *testing.T) {
	config := options.Default()
	config.EnabledRules = []string{"NullDereference"}
	e := newEngine(t, config, builtin.NewRegistry())
	e.analyze = func(tree *syntax.Tree, table *symbols.Table, g *cfg.Graph) (*dataflow.Facts, error) {
		if g.Name == "bad" {
			return nil, fmt.Errorf("%w after 3 visits", dataflow.ErrNoConvergence)
		}
		return dataflow.Analyze(tree, table, g)
	}
	src := "void bad() {\n  int* p = nullptr;\n  *p = 1;\n}\nvoid good() {\n  int* q = nullptr;\n  *q = 1;\n}\n"
	set, err := e.Analyze(context.Background(), Unit{Name: "main.cpp", Text: []byte(src)})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	expected := []string{
		"main.cpp:1:6: error: [CXX0002][InternalError]: analysis of 'bad' failed: dataflow: fixed point not reached after 3 visits",
		"main.cpp:7:3: error: [CXX2001][NullDereference]: null pointer 'q' is dereferenced",
	}
	if got := testcase.Render(set); !reflect.DeepEqual(got, expected) {
		t.Errorf("unexpected result for failing function. got: %v. expected: %v.", got, expected)
	}
	if f := set.Findings[0]; f.Function != "bad" || f.Span.End != (source.Pos{Line: 1, Column: 9}) {
		t.Errorf("unexpected result for internal error location. got: %v %v. expected: bad 1:6-1:9.", f.Function, f.Span)
	}
}

func TestCanceledContext(t *testing.T) {
	e := newEngine(t, options.Default(), builtin.NewRegistry())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	set, err := e.Analyze(ctx, Unit{Name: "main.cpp", Text: []byte("int f() { return 0; }\n")})
	if err == nil || set != nil {
		t.Errorf("unexpected result for canceled context. got: %v, %v. expected: nil, context canceled.", set, err)
	}
}

func TestDeterministic(t *testing.T) {
	tc := testcase.New(t, filepath.Join("testdata", "defects.txtar"))
	e := newEngine(t, options.Default(), builtin.NewRegistry())
	first, err := analyzeAll(e, tc.Sources)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := analyzeAll(e, tc.Sources)
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if !reflect.DeepEqual(again, first) {
			t.Fatalf("unexpected result for run %d. got: %v. expected: %v.", i, testcase.Render(again), testcase.Render(first))
		}
	}
}

func TestConfigFindings(t *testing.T) {
	config := options.Default()
	config.EnabledRules = []string{"NullDereference", "NoSuchRule"}
	e := newEngine(t, config, builtin.NewRegistry())
	got := testcase.Render(&diagnostic.Set{Findings: e.ConfigFindings()})
	expected := []string{"warning: [CXX0003][UnknownRule]: unknown rule id 'NoSuchRule'"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("unexpected result for unknown rule. got: %v. expected: %v.", got, expected)
	}
	if ids := e.Schedule().IDs(); !reflect.DeepEqual(ids, []string{"NullDereference"}) {
		t.Errorf("unexpected result for schedule. got: %v. expected: [NullDereference].", ids)
	}
}

func TestInvalidConfig(t *testing.T) {
	config := options.Default()
	config.StyleConvention = "gnu"
	if _, err := New(config, builtin.NewRegistry()); err == nil {
		t.Errorf("unexpected result for unknown convention. got: nil. expected: error.")
	}
}

func TestGoodCodeHasNoErrors(t *testing.T) {
	e := newEngine(t, options.Default(), builtin.NewRegistry())
	for _, name := range []string{"good_code.cpp", "good_code.hpp"} {
		text, err := os.ReadFile(filepath.Join("..", "syntax", "testdata", name))
		if err != nil {
			t.Fatal(err)
		}
		set, err := e.Analyze(context.Background(), Unit{Name: name, Text: text})
		if err != nil {
			t.Fatalf("Analyze(%s): %v", name, err)
		}
		for _, f := range set.Findings {
			if f.Severity == diagnostic.Error {
				t.Errorf("unexpected result for %v. got: %v. expected: no error findings.", name, f.String())
			}
		}
	}
}
