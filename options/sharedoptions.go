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
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// ArrayFlags collects a repeated string flag.
type ArrayFlags []string

func (i *ArrayFlags) String() string {
	return strings.Join(*i, ",")
}

func (i *ArrayFlags) Set(value string) error {
	*i = append(*i, value)
	return nil
}

type SharedOptions struct {
	CheckProgress    *bool
	ConfigPath       *string
	DebugMode        *bool
	DiffPath         *string
	HistoryDB        *string
	IgnorePatterns   ArrayFlags
	Lang             *string
	MaxLineLength    *int
	ProjectName      *string
	ResultsDir       *string
	Rules            *string
	Severity         *string
	ShowResults      *bool
	ShowResultsCount *bool
	SrcDir           *string
	Style            *string
	Workers          *int

	fs *flag.FlagSet
}

func (s SharedOptions) GetCheckProgress() bool {
	return *s.CheckProgress
}

func (s SharedOptions) GetConfigPath() string {
	return *s.ConfigPath
}

func (s SharedOptions) GetDebugMode() bool {
	return *s.DebugMode
}

func (s SharedOptions) GetDiffPath() string {
	return *s.DiffPath
}

func (s SharedOptions) GetHistoryDB() string {
	return *s.HistoryDB
}

func (s SharedOptions) GetIgnorePatterns() ArrayFlags {
	return s.IgnorePatterns
}

func (s SharedOptions) GetLang() string {
	return *s.Lang
}

func (s SharedOptions) GetProjectName() string {
	return *s.ProjectName
}

func (s SharedOptions) GetResultsDir() string {
	return *s.ResultsDir
}

func (s SharedOptions) GetShowResults() bool {
	return *s.ShowResults
}

func (s SharedOptions) GetShowResultsCount() bool {
	return *s.ShowResultsCount
}

func (s SharedOptions) GetSrcDir() string {
	return *s.SrcDir
}

func (s SharedOptions) GetWorkers() int {
	return *s.Workers
}

type DefaultOptionValues struct {
	CheckProgress    bool
	ConfigPath       string
	DebugMode        bool
	DiffPath         string
	HistoryDB        string
	Lang             string
	MaxLineLength    int
	ProjectName      string
	ResultsDir       string
	Rules            string
	Severity         string
	ShowResults      bool
	ShowResultsCount bool
	SrcDir           string
	Style            string
	Workers          int
}

var Defaults = DefaultOptionValues{
	CheckProgress:    true,
	ConfigPath:       "",
	DebugMode:        false,
	DiffPath:         "",
	HistoryDB:        "",
	Lang:             "en",
	MaxLineLength:    80,
	ProjectName:      "",
	ResultsDir:       "output",
	Rules:            "",
	Severity:         "",
	ShowResults:      false,
	ShowResultsCount: false,
	SrcDir:           ".",
	Style:            "google",
	Workers:          0,
}

// NewSharedOptions registers the flags on the command line flag set.
func NewSharedOptions() *SharedOptions {
	return NewSharedOptionsFromFlagSet(flag.CommandLine)
}

func NewSharedOptionsFromFlagSet(fs *flag.FlagSet) *SharedOptions {
	option := &SharedOptions{fs: fs}

	option.CheckProgress = fs.Bool("check_progress", Defaults.CheckProgress, "Show the checking progress")
	option.ConfigPath = fs.String("config", Defaults.ConfigPath, "Path to a YAML or JSON configuration file")
	option.DebugMode = fs.Bool("debug_mode", Defaults.DebugMode, "Whether to display error information")
	option.DiffPath = fs.String("diff", Defaults.DiffPath, "Only report findings on lines changed by this unified diff")
	option.HistoryDB = fs.String("history_db", Defaults.HistoryDB, "SQLite database recording the statistics of every run")
	option.Lang = fs.String("lang", Defaults.Lang, "Language of the messages. Support en and zh")
	option.MaxLineLength = fs.Int("max_line_length", Defaults.MaxLineLength, "Maximum line length of the style rules")
	option.ProjectName = fs.String("project_name", Defaults.ProjectName, "Name of the checked project")
	option.ResultsDir = fs.String("results_dir", Defaults.ResultsDir, "Directory of the results files")
	option.Rules = fs.String("rules", Defaults.Rules, "Comma-separated rule ids or codes to run; all rules when empty")
	option.Severity = fs.String("severity", Defaults.Severity, "Shell-quoted list of Rule=severity overrides")
	option.ShowResults = fs.Bool("show_results", Defaults.ShowResults, "Show results after the analysis")
	option.ShowResultsCount = fs.Bool("show_results_count", Defaults.ShowResultsCount, "Show results count group by category after the analysis")
	option.SrcDir = fs.String("src_dir", Defaults.SrcDir, "Directory or file to analyze")
	option.Style = fs.String("style", Defaults.Style, "Style convention of the style rules. Support google and llvm")
	option.Workers = fs.Int("workers", Defaults.Workers, "Number of files analyzed in parallel, 0 for the number of CPUs")

	fs.Var(&option.IgnorePatterns, "ignore_dir", "Doublestar pattern of paths that will be ignored")

	return option
}

// ParseSeverityFlag splits a shell-quoted word list of Rule=severity pairs.
func ParseSeverityFlag(s string) (map[string]string, error) {
	words, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("shlex.Split(%s): %v", s, err)
	}
	overrides := make(map[string]string, len(words))
	for _, word := range words {
		id, sev, found := strings.Cut(word, "=")
		if !found || id == "" || sev == "" {
			return nil, fmt.Errorf("malformed severity override %q, expected Rule=severity", word)
		}
		overrides[id] = sev
	}
	return overrides, nil
}

// Config loads the configuration file, if any, and applies the flags given
// explicitly on the command line over it.
func (s *SharedOptions) Config() (*Config, error) {
	cfg := Default()
	if s.GetConfigPath() != "" {
		loaded, err := Load(s.GetConfigPath())
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	given := make(map[string]bool)
	s.fs.Visit(func(f *flag.Flag) { given[f.Name] = true })

	if given["lang"] {
		cfg.Lang = *s.Lang
	}
	if given["style"] {
		cfg.StyleConvention = *s.Style
	}
	if given["max_line_length"] {
		cfg.MaxLineLength = *s.MaxLineLength
	}
	if given["workers"] {
		cfg.Workers = *s.Workers
	}
	if given["rules"] {
		cfg.EnabledRules = nil
		for _, id := range strings.Split(*s.Rules, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.EnabledRules = append(cfg.EnabledRules, id)
			}
		}
	}
	if *s.Severity != "" {
		overrides, err := ParseSeverityFlag(*s.Severity)
		if err != nil {
			return nil, err
		}
		if cfg.SeverityOverrides == nil {
			cfg.SeverityOverrides = make(map[string]string)
		}
		for id, sev := range overrides {
			cfg.SeverityOverrides[id] = sev
		}
	}
	cfg.IgnorePatterns = append(cfg.IgnorePatterns, s.IgnorePatterns...)
	if _, err := cfg.Compile(); err != nil {
		return nil, err
	}
	return cfg, nil
}
