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

package options

import (
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/i18n"
	"naive.systems/cxxlint/rules"
	"naive.systems/cxxlint/rules/builtin"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "cxxlint.yaml", `
enabled_rules: [NullDereference, LineLength]
style_convention: llvm
severity_overrides:
  LineLength: info
naming:
  type: "^[A-Z][a-z]+$"
max_report_num:
  LineLength: 3
unknown_key: 1
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	expected := Default()
	expected.EnabledRules = []string{"NullDereference", "LineLength"}
	expected.StyleConvention = "llvm"
	expected.SeverityOverrides = map[string]string{"LineLength": "info"}
	expected.Naming = map[string]string{"type": "^[A-Z][a-z]+$"}
	expected.MaxReportNum = map[string]int{"LineLength": 3}
	if !reflect.DeepEqual(cfg, expected) {
		t.Errorf("unexpected result for %v. got: %+v. expected: %+v.", path, cfg, expected)
	}
	compiled, err := cfg.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if compiled.Style.Convention != rules.LLVM || compiled.Style.MaxLineLength != 80 {
		t.Errorf("unexpected result for style. got: %+v. expected: llvm, 80 columns.", compiled.Style)
	}
	if compiled.Severity["LineLength"] != diagnostic.Info {
		t.Errorf("unexpected result for severity. got: %v. expected: %v.", compiled.Severity["LineLength"], diagnostic.Info)
	}
	if compiled.Encoding != nil {
		t.Errorf("unexpected result for encoding. got: %v. expected: nil.", compiled.Encoding)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "cxxlint.json", `{"max_line_length": 100, "suppressions": false, "encoding": "GBK", "workers": 2}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxLineLength != 100 || cfg.Suppressions || cfg.Workers != 2 || cfg.StyleConvention != "google" {
		t.Errorf("unexpected result for %v. got: %+v. expected: overrides over defaults.", path, cfg)
	}
	compiled, err := cfg.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if compiled.Encoding == nil {
		t.Errorf("unexpected result for GBK. got: nil. expected: a decoder.")
	}
}

func TestLoadErrors(t *testing.T) {
	for _, testCase := range [...]struct {
		name    string
		content string
	}{
		{"bad.yaml", "enabled_rules: [a"},
		{"bad.json", "{"},
		{"style.yaml", "style_convention: gnu"},
		{"severity.yaml", "severity_overrides: {LineLength: fatal}"},
		{"naming.yaml", "naming: {method: x}"},
		{"pattern.yaml", "naming: {type: \"(\"}"},
		{"length.yaml", "max_line_length: 0"},
		{"lang.yaml", "lang: fr"},
		{"encoding.yaml", "encoding: no-such-charset"},
	} {
		if _, err := Load(writeFile(t, testCase.name, testCase.content)); err == nil {
			t.Errorf("unexpected result for %v. got: nil. expected: error.", testCase.name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("unexpected result for a missing file. got: nil. expected: error.")
	}
}

func TestUnknownRules(t *testing.T) {
	cfg := Default()
	cfg.EnabledRules = []string{"NullDereference", "CXX3005", "NoSuchRule", "InputError"}
	cfg.SeverityOverrides = map[string]string{"Typo": "info"}
	cfg.MaxReportNum = map[string]int{"NoSuchRule": 1}
	findings := UnknownRules(cfg, builtin.NewRegistry(), i18n.GetPrinter("en"))
	var got []string
	for _, f := range findings {
		if f.RuleID != "UnknownRule" || f.Severity != diagnostic.Warning {
			t.Errorf("unexpected result for %v. got: %v %v. expected: UnknownRule warning.", f.Message, f.RuleID, f.Severity)
		}
		got = append(got, f.Message)
	}
	expected := []string{"unknown rule id 'NoSuchRule'", "unknown rule id 'Typo'"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("unexpected result for UnknownRules. got: %v. expected: %v.", got, expected)
	}
}

func TestParseSeverityFlag(t *testing.T) {
	got, err := ParseSeverityFlag(`NullDereference=warning 'LineLength=info'`)
	if err != nil {
		t.Fatal(err)
	}
	expected := map[string]string{"NullDereference": "warning", "LineLength": "info"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("unexpected result for severity flag. got: %v. expected: %v.", got, expected)
	}
	for _, bad := range []string{"LineLength", "=info", "'unclosed"} {
		if _, err := ParseSeverityFlag(bad); err == nil {
			t.Errorf("unexpected result for %v. got: nil. expected: error.", bad)
		}
	}
}

func TestSharedOptionsConfig(t *testing.T) {
	path := writeFile(t, "cxxlint.yaml", "style_convention: llvm\nmax_line_length: 120\nlang: zh\n")
	fs := flag.NewFlagSet("cxxlint", flag.ContinueOnError)
	opts := NewSharedOptionsFromFlagSet(fs)
	err := fs.Parse([]string{
		"-config", path,
		"-max_line_length", "100",
		"-rules", "LineLength, NamingConvention",
		"-severity", "LineLength=error",
		"-ignore_dir", "build/**",
	})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := opts.Config()
	if err != nil {
		t.Fatal(err)
	}
	expected := Default()
	expected.StyleConvention = "llvm"
	expected.MaxLineLength = 100
	expected.Lang = "zh"
	expected.EnabledRules = []string{"LineLength", "NamingConvention"}
	expected.SeverityOverrides = map[string]string{"LineLength": "error"}
	expected.IgnorePatterns = []string{"build/**"}
	if !reflect.DeepEqual(cfg, expected) {
		t.Errorf("unexpected result for flags over config. got: %+v. expected: %+v.", cfg, expected)
	}
}
