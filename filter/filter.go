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

/*
Package filter narrows a diagnostic set after analysis: per-rule report caps,
ignored paths, inline suppressions and changed-line selection. It depends on
no analysis stage beyond the token stream.
*/
package filter

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/golang/glog"

	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/diff"
)

var kCppSuffixs = []string{"cpp", "cc", "cxx", "c++", "hpp", "hh", "hxx", "h"}

// IsCppFile reports whether path names a C++ source or header file.
func IsCppFile(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, suffix := range kCppSuffixs {
		if ext == suffix {
			return true
		}
	}
	return false
}

// DeleteExceedResults keeps at most maxReportNum[rule] findings of each
// capped rule, in set order. Rules are looked up by id or by code; a
// non-positive cap means no limit.
func DeleteExceedResults(set *diagnostic.Set, maxReportNum map[string]int) *diagnostic.Set {
	if len(maxReportNum) == 0 {
		return set
	}
	reported := make(map[string]int)
	return set.Filter(func(f *diagnostic.Finding) bool {
		limit, exist := maxReportNum[f.RuleID]
		if !exist {
			limit, exist = maxReportNum[f.Code]
		}
		if !exist || limit <= 0 {
			return true
		}
		reported[f.RuleID]++
		return reported[f.RuleID] <= limit
	})
}

// MatchAny reports whether path matches one of the doublestar patterns.
// Malformed patterns are logged and skipped.
func MatchAny(patterns []string, path string) bool {
	path = filepath.ToSlash(path)
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			glog.Errorf("malformed ignore pattern %s: %v", pattern, err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// Ignore drops the findings of files matching any of the patterns.
func Ignore(set *diagnostic.Set, patterns []string) *diagnostic.Set {
	if len(patterns) == 0 {
		return set
	}
	return set.Filter(func(f *diagnostic.Finding) bool {
		return !MatchAny(patterns, f.File)
	})
}

// KeepChanged keeps the findings that start on a line the patch added or
// modified. Findings without a location are always kept.
func KeepChanged(set *diagnostic.Set, patch *diff.Patch) *diagnostic.Set {
	return set.Filter(func(f *diagnostic.Finding) bool {
		if !f.Span.Start.IsValid() {
			return true
		}
		return patch.Changed(f.File, f.Span.Start.Line)
	})
}
