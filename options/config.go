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

// Package options holds the analysis configuration: the file format, its
// defaults and validation, and the command-line flags of cxxlint.
package options

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v2"

	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/i18n"
	"naive.systems/cxxlint/rules"
	"naive.systems/cxxlint/source"
)

// Config is the user-facing configuration, read from YAML or JSON.
type Config struct {
	// EnabledRules lists the rule ids to run. Empty means every rule.
	EnabledRules    []string `yaml:"enabled_rules" json:"enabled_rules"`
	StyleConvention string   `yaml:"style_convention" json:"style_convention"`
	MaxLineLength   int      `yaml:"max_line_length" json:"max_line_length"`
	// SeverityOverrides maps a rule id to error, warning or info.
	SeverityOverrides map[string]string `yaml:"severity_overrides" json:"severity_overrides"`
	// Naming maps an identifier class (type, function, variable, constant,
	// field, struct_field, namespace) to a regular expression replacing the
	// convention's scheme.
	Naming         map[string]string `yaml:"naming" json:"naming"`
	Lang           string            `yaml:"lang" json:"lang"`
	Encoding       string            `yaml:"encoding" json:"encoding"`
	Suppressions   bool              `yaml:"suppressions" json:"suppressions"`
	MaxReportNum   map[string]int    `yaml:"max_report_num" json:"max_report_num"`
	IgnorePatterns []string          `yaml:"ignore_patterns" json:"ignore_patterns"`
	Workers        int               `yaml:"workers" json:"workers"`
}

var namingClasses = []string{"type", "function", "variable", "constant", "field", "struct_field", "namespace"}

var configKeys = []string{
	"enabled_rules", "style_convention", "max_line_length", "severity_overrides",
	"naming", "lang", "encoding", "suppressions", "max_report_num",
	"ignore_patterns", "workers",
}

func Default() *Config {
	return &Config{
		StyleConvention: rules.Google.String(),
		MaxLineLength:   80,
		Lang:            "en",
		Encoding:        "utf-8",
		Suppressions:    true,
	}
}

// Load reads a configuration file over the defaults. Files ending in .json
// are JSON; anything else is YAML. Unknown keys are logged and ignored.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s): %v", path, err)
	}
	cfg, err := Decode(path, content)
	if err != nil {
		return nil, fmt.Errorf("options.Load(%s): %v", path, err)
	}
	return cfg, nil
}

// Decode parses configuration content over the defaults; name selects the
// format and labels the warnings.
func Decode(name string, content []byte) (*Config, error) {
	cfg := Default()
	var keys []string
	if strings.EqualFold(filepath.Ext(name), ".json") {
		raw := map[string]json.RawMessage{}
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("json.Unmarshal: %v", err)
		}
		keys = maps.Keys(raw)
		if err := json.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("json.Unmarshal: %v", err)
		}
	} else {
		raw := map[string]interface{}{}
		if err := yaml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("yaml.Unmarshal: %v", err)
		}
		keys = maps.Keys(raw)
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("yaml.Unmarshal: %v", err)
		}
	}
	slices.Sort(keys)
	for _, key := range keys {
		if !slices.Contains(configKeys, key) {
			glog.Warningf("%s: unknown configuration key %q", name, key)
		}
	}
	if _, err := cfg.Compile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Compiled is the checked, typed form of a Config.
type Compiled struct {
	Style    rules.Style
	Severity map[string]diagnostic.Severity
	// Encoding decodes the input, nil when it is already UTF-8.
	Encoding encoding.Encoding
}

// Compile validates the configuration. Unknown conventions, severities,
// naming classes, encodings and malformed patterns are errors; unknown rule
// ids are not (see UnknownRules).
func (c *Config) Compile() (*Compiled, error) {
	convention, err := rules.ParseConvention(c.StyleConvention)
	if err != nil {
		return nil, err
	}
	if c.MaxLineLength <= 0 {
		return nil, fmt.Errorf("max_line_length must be positive, got %d", c.MaxLineLength)
	}
	if c.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Lang != "" && !i18n.Supported(c.Lang) {
		return nil, fmt.Errorf("unsupported language %q", c.Lang)
	}
	out := &Compiled{
		Style:    rules.Style{Convention: convention, MaxLineLength: c.MaxLineLength},
		Severity: make(map[string]diagnostic.Severity, len(c.SeverityOverrides)),
	}
	for id, name := range c.SeverityOverrides {
		sev, err := diagnostic.ParseSeverity(name)
		if err != nil {
			return nil, fmt.Errorf("severity of %s: %v", id, err)
		}
		out.Severity[id] = sev
	}
	if len(c.Naming) > 0 {
		out.Style.Naming = make(map[string]*regexp.Regexp, len(c.Naming))
		for class, pattern := range c.Naming {
			if !slices.Contains(namingClasses, class) {
				return nil, fmt.Errorf("unknown naming class %q", class)
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("naming pattern of %s: %v", class, err)
			}
			out.Style.Naming[class] = re
		}
	}
	if c.Encoding != "" && !strings.EqualFold(c.Encoding, "utf-8") && !strings.EqualFold(c.Encoding, "utf8") {
		e, err := ianaindex.MIME.Encoding(c.Encoding)
		if err != nil {
			return nil, fmt.Errorf("ianaindex.MIME.Encoding(%s): %v", c.Encoding, err)
		}
		if e == nil {
			return nil, fmt.Errorf("encoding %s is not supported", c.Encoding)
		}
		out.Encoding = e
	}
	return out, nil
}

// UnknownRules reports every enabled, overridden or capped rule id the
// registry does not know as an UnknownRule finding. Issue codes are accepted
// where ids are.
func UnknownRules(c *Config, reg *rules.Registry, printer *message.Printer) []diagnostic.Finding {
	ids := slices.Clone(c.EnabledRules)
	ids = append(ids, maps.Keys(c.SeverityOverrides)...)
	ids = append(ids, maps.Keys(c.MaxReportNum)...)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	var findings []diagnostic.Finding
	for _, id := range ids {
		if reg.Known(id) {
			continue
		}
		glog.Warningf("unknown rule id %q in configuration", id)
		findings = append(findings, rules.UnknownRule.Finding("", "", source.Span{}, printer.Sprintf("unknown rule id '%s'", id)))
	}
	return findings
}
