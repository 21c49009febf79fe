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

// Package testcase loads txtar fixtures for analysis tests. An archive
// holds the sources to analyze, an optional config.yaml (or config.json)
// and an expected file listing one finding per line in the report text
// form:
//
//	-- config.yaml --
//	enabled_rules: [NullDereference]
//	-- main.cpp --
//	void f() { int* p = nullptr; *p = 1; }
//	-- expected --
//	main.cpp:1:30: error: [CXX2001][NullDereference]: null pointer 'p' is dereferenced
package testcase

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/options"
)

const expectedFile = "expected"

type Source struct {
	Name string
	Text []byte
}

type TestCase struct {
	t        *testing.T
	Path     string
	Comment  string
	Config   *options.Config
	Sources  []Source
	Expected []string
}

func New(t *testing.T, path string) *TestCase {
	t.Helper()
	archive, err := txtar.ParseFile(path)
	if err != nil {
		t.Fatalf("txtar.ParseFile(%s): %v", path, err)
	}
	tc := &TestCase{t: t, Path: path, Comment: strings.TrimSpace(string(archive.Comment)), Config: options.Default()}
	hasExpected := false
	for _, f := range archive.Files {
		switch f.Name {
		case "config.yaml", "config.json":
			tc.Config, err = options.Decode(f.Name, f.Data)
			if err != nil {
				t.Fatalf("%s: %s: %v", path, f.Name, err)
			}
		case expectedFile:
			hasExpected = true
			tc.Expected = nonEmptyLines(string(f.Data))
		default:
			tc.Sources = append(tc.Sources, Source{Name: f.Name, Text: f.Data})
		}
	}
	if !hasExpected {
		t.Fatalf("%s: no %s file", path, expectedFile)
	}
	return tc
}

// Glob returns the archives matching pattern, sorted.
func Glob(t *testing.T, pattern string) []string {
	t.Helper()
	paths, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatalf("filepath.Glob(%s): %v", pattern, err)
	}
	if len(paths) == 0 {
		t.Fatalf("no test case matches %s", pattern)
	}
	sort.Strings(paths)
	return paths
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	return lines
}

// Render lists the findings in the form the expected file uses.
func Render(set *diagnostic.Set) []string {
	lines := make([]string, 0, set.Len())
	for i := range set.Findings {
		lines = append(lines, set.Findings[i].String())
	}
	return lines
}

func (tc *TestCase) expectedEquals(actual *diagnostic.Set) bool {
	got := Render(actual)
	if len(got) != len(tc.Expected) {
		return false
	}
	for i := range got {
		if got[i] != tc.Expected[i] {
			return false
		}
	}
	return true
}

func (tc *TestCase) dump(actual *diagnostic.Set) {
	tc.t.Logf("%s: got:\n%s", tc.Path, strings.Join(Render(actual), "\n"))
	tc.t.Logf("%s: expected:\n%s", tc.Path, strings.Join(tc.Expected, "\n"))
}

func (tc *TestCase) ExpectOK(actual *diagnostic.Set, err error) {
	tc.t.Helper()
	if err != nil {
		tc.t.Fatalf("%s: analysis returned error: %v", tc.Path, err)
	}
	if !tc.expectedEquals(actual) {
		tc.dump(actual)
		tc.t.Errorf("%s: findings differ from the expected file", tc.Path)
	}
}

func (tc *TestCase) ExpectError(_ *diagnostic.Set, err error) {
	tc.t.Helper()
	if err == nil {
		tc.t.Fatalf("%s: analysis is expected to return an error", tc.Path)
	}
	tc.t.Logf("analysis returned error: %v", err)
}
