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

package diagnostic

import (
	"encoding/json"
	"reflect"
	"testing"

	"naive.systems/cxxlint/source"
)

func at(line, col int) source.Span {
	return source.Span{Start: source.Pos{Line: line, Column: col}, End: source.Pos{Line: line, Column: col + 1}}
}

func TestAggregateOrderAndDedup(t *testing.T) {
	findings := []Finding{
		{RuleID: "LineLength", File: "b.cpp", Span: at(3, 1)},
		{RuleID: "NullDereference", File: "a.cpp", Span: at(10, 5), Function: "f"},
		{RuleID: "DoubleFree", File: "a.cpp", Span: at(10, 5), Function: "f"},
		{RuleID: "NullDereference", File: "a.cpp", Span: at(10, 5), Function: "f", Message: "again"},
		{RuleID: "UnusedVariable", File: "a.cpp", Span: at(2, 9)},
	}
	set := Aggregate(findings)
	var got []string
	for _, f := range set.Findings {
		got = append(got, f.File+" "+f.Span.Start.String()+" "+f.RuleID)
	}
	expected := []string{
		"a.cpp 2:9 UnusedVariable",
		"a.cpp 10:5 DoubleFree",
		"a.cpp 10:5 NullDereference",
		"b.cpp 3:1 LineLength",
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("unexpected result for Aggregate. got: %v. expected: %v.", got, expected)
	}
	if findings[0].RuleID != "LineLength" {
		t.Errorf("unexpected result for input order. got: %v. expected: %v.", findings[0].RuleID, "LineLength")
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	a := []Finding{
		{RuleID: "X", File: "f", Span: at(1, 1), Message: "b"},
		{RuleID: "X", File: "f", Span: source.Span{Start: source.Pos{Line: 1, Column: 1}, End: source.Pos{Line: 2, Column: 1}}, Message: "a"},
		{RuleID: "Y", File: "f", Span: at(1, 1)},
	}
	b := []Finding{a[2], a[1], a[0]}
	if got, expected := Aggregate(a).Records(), Aggregate(b).Records(); !reflect.DeepEqual(got, expected) {
		t.Errorf("unexpected result for permuted input. got: %v. expected: %v.", got, expected)
	}
	if n := Merge(Aggregate(a), Aggregate(b)).Len(); n != 3 {
		t.Errorf("unexpected result for Merge. got: %v. expected: %v.", n, 3)
	}
}

func TestFingerprintUsesKey(t *testing.T) {
	f := Finding{RuleID: "LineLength", File: "a.cpp", Span: at(4, 81), Message: "line is 90 characters"}
	g := f
	g.Message = "other text"
	g.Severity = Info
	if f.Fingerprint() != g.Fingerprint() {
		t.Errorf("unexpected result for fingerprint of equal keys. got: %v. expected: %v.", g.Fingerprint(), f.Fingerprint())
	}
	g.Span = at(5, 81)
	if f.Fingerprint() == g.Fingerprint() {
		t.Errorf("unexpected result for fingerprint of different keys. got: equal. expected: different.")
	}
	if len(f.Fingerprint()) != 16 {
		t.Errorf("unexpected result for fingerprint length. got: %v. expected: %v.", len(f.Fingerprint()), 16)
	}
}

func TestRecordJSON(t *testing.T) {
	f := Finding{RuleID: "DoubleFree", Code: "CXX2003", Category: "defect", Severity: Error, Message: "m", File: "a.cpp", Span: at(7, 3)}
	data, err := json.Marshal(f.Record())
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	for key, expected := range map[string]any{"line": 7.0, "column": 3.0, "end_column": 4.0, "rule_id": "DoubleFree", "severity": "error", "code": "CXX2003"} {
		if !reflect.DeepEqual(got[key], expected) {
			t.Errorf("unexpected result for %v. got: %v. expected: %v.", key, got[key], expected)
		}
	}
	if _, ok := got["function"]; ok {
		t.Errorf("unexpected result for empty function. got: present. expected: omitted.")
	}
}

func TestParseSeverity(t *testing.T) {
	for _, testCase := range [...]struct {
		in       string
		expected Severity
		ok       bool
	}{
		{"error", Error, true},
		{"Warning", Warning, true},
		{"INFO", Info, true},
		{"fatal", Error, false},
	} {
		got, err := ParseSeverity(testCase.in)
		if (err == nil) != testCase.ok || got != testCase.expected {
			t.Errorf("unexpected result for %v. got: %v, %v. expected: %v.", testCase.in, got, err, testCase.expected)
		}
	}
}

func TestByCategory(t *testing.T) {
	set := Aggregate([]Finding{
		{RuleID: "A", Category: "style", Span: at(1, 1)},
		{RuleID: "B", Category: "defect", Span: at(2, 1), Severity: Warning},
		{RuleID: "C", Category: "style", Span: at(3, 1), Severity: Warning},
	})
	if got := set.Categories(); !reflect.DeepEqual(got, []string{"defect", "style"}) {
		t.Errorf("unexpected result for Categories. got: %v. expected: %v.", got, []string{"defect", "style"})
	}
	if got := len(set.ByCategory()["style"]); got != 2 {
		t.Errorf("unexpected result for style group. got: %v. expected: %v.", got, 2)
	}
	if got := set.Count()[Warning]; got != 2 {
		t.Errorf("unexpected result for warning count. got: %v. expected: %v.", got, 2)
	}
}
