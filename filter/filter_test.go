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

package filter

import (
	"reflect"
	"testing"

	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/diff"
	"naive.systems/cxxlint/lexer"
	"naive.systems/cxxlint/source"
)

func finding(rule, code, category, file string, line int) diagnostic.Finding {
	return diagnostic.Finding{
		RuleID:   rule,
		Code:     code,
		Category: category,
		File:     file,
		Span:     source.Span{Start: source.Pos{Line: line, Column: 1}, End: source.Pos{Line: line, Column: 2}},
	}
}

func lines(set *diagnostic.Set) []int {
	var out []int
	for _, f := range set.Findings {
		out = append(out, f.Span.Start.Line)
	}
	return out
}

func TestDeleteExceedResults(t *testing.T) {
	set := diagnostic.Aggregate([]diagnostic.Finding{
		finding("LineLength", "CXX3005", "style", "a.cpp", 1),
		finding("LineLength", "CXX3005", "style", "a.cpp", 2),
		finding("LineLength", "CXX3005", "style", "a.cpp", 3),
		finding("NullDereference", "CXX2001", "defect", "a.cpp", 4),
		finding("NullDereference", "CXX2001", "defect", "a.cpp", 5),
	})
	for _, testCase := range [...]struct {
		caps     map[string]int
		expected []int
	}{
		{nil, []int{1, 2, 3, 4, 5}},
		{map[string]int{"LineLength": 2}, []int{1, 2, 4, 5}},
		{map[string]int{"CXX2001": 1}, []int{1, 2, 3, 4}},
		{map[string]int{"LineLength": 0, "NullDereference": 1}, []int{1, 2, 3, 4}},
	} {
		got := lines(DeleteExceedResults(set, testCase.caps))
		if !reflect.DeepEqual(got, testCase.expected) {
			t.Errorf("unexpected result for %v. got: %v. expected: %v.", testCase.caps, got, testCase.expected)
		}
	}
}

func TestIgnore(t *testing.T) {
	set := diagnostic.Aggregate([]diagnostic.Finding{
		finding("LineLength", "CXX3005", "style", "src/main.cpp", 1),
		finding("LineLength", "CXX3005", "style", "src/output/gen.cpp", 2),
		finding("LineLength", "CXX3005", "style", "third_party/lib/x.h", 3),
	})
	got := lines(Ignore(set, []string{"src/output/**", "third_party/**/*.h", "[bad"}))
	if !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("unexpected result for Ignore. got: %v. expected: %v.", got, []int{1})
	}
}

func TestIsCppFile(t *testing.T) {
	for _, testCase := range [...]struct {
		path     string
		expected bool
	}{
		{"a.cpp", true},
		{"dir/b.HPP", true},
		{"c.cc", true},
		{"d.c++", true},
		{"e.go", false},
		{"Makefile", false},
	} {
		if got := IsCppFile(testCase.path); got != testCase.expected {
			t.Errorf("unexpected result for %v. got: %v. expected: %v.", testCase.path, got, testCase.expected)
		}
	}
}

func TestSuppress(t *testing.T) {
	src := "int a=1;  // NOLINT\n" +
		"int b=2;  // NOLINT(LineLength, CXX3002)\n" +
		"// NOLINTNEXTLINE(style)\n" +
		"int c=3;\n" +
		"int d=4;  // NOLINT(*)\n" +
		"int e=5;\n"
	s := ParseSuppressions(lexer.Tokenize(src))
	findings := []diagnostic.Finding{
		finding("OperatorSpacing", "CXX3002", "style", "a.cpp", 1),
		finding("OperatorSpacing", "CXX3002", "style", "a.cpp", 2),
		finding("UnusedVariable", "CXX2010", "defect", "a.cpp", 2),
		finding("OperatorSpacing", "CXX3002", "style", "a.cpp", 4),
		finding("UnusedVariable", "CXX2010", "defect", "a.cpp", 4),
		finding("UnusedVariable", "CXX2010", "defect", "a.cpp", 5),
		finding("OperatorSpacing", "CXX3002", "style", "a.cpp", 6),
		finding("InternalError", "CXX0002", "engine", "a.cpp", 1),
	}
	var got []string
	for _, f := range Suppress(findings, s) {
		got = append(got, f.Span.Start.String()+" "+f.RuleID)
	}
	expected := []string{"2:1 UnusedVariable", "4:1 UnusedVariable", "6:1 OperatorSpacing", "1:1 InternalError"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("unexpected result for Suppress. got: %v. expected: %v.", got, expected)
	}
}

func TestKeepChanged(t *testing.T) {
	patch, err := diff.Parse("--- a/a.cpp\n+++ b/a.cpp\n@@ -1,2 +1,3 @@\n")
	if err != nil {
		t.Fatal(err)
	}
	set := diagnostic.Aggregate([]diagnostic.Finding{
		finding("LineLength", "CXX3005", "style", "a.cpp", 2),
		finding("LineLength", "CXX3005", "style", "a.cpp", 7),
		finding("LineLength", "CXX3005", "style", "b.cpp", 1),
		{RuleID: "InputError", Code: "CXX0001", Category: "engine", File: "c.cpp"},
	})
	got := lines(KeepChanged(set, patch))
	if !reflect.DeepEqual(got, []int{2, 0}) {
		t.Errorf("unexpected result for KeepChanged. got: %v. expected: %v.", got, []int{2, 0})
	}
}
