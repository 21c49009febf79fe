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
	"regexp"
	"strings"

	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/lexer"
	"naive.systems/cxxlint/rules"
)

var nolint = regexp.MustCompile(`\bNOLINT(NEXTLINE)?(?:\(([^)]*)\))?`)

type suppression struct {
	all   bool
	names []string
}

// Suppressions are the NOLINT comments of one file:
//
//	x = y;  // NOLINT
//	x = y;  // NOLINT(OperatorSpacing, CXX3005, style)
//	// NOLINTNEXTLINE(NullDereference)
//
// A name matches a rule id, an issue code or a category.
type Suppressions struct {
	lines map[int][]suppression
}

// ParseSuppressions collects the NOLINT markers in the comment tokens.
func ParseSuppressions(tokens []lexer.Token) *Suppressions {
	s := &Suppressions{lines: make(map[int][]suppression)}
	for _, tok := range tokens {
		if tok.Kind != lexer.Comment {
			continue
		}
		for _, m := range nolint.FindAllStringSubmatchIndex(tok.Text, -1) {
			line := tok.Pos.Line + strings.Count(tok.Text[:m[0]], "\n")
			if m[2] >= 0 {
				line++
			}
			var sup suppression
			if m[4] >= 0 {
				for _, name := range strings.Split(tok.Text[m[4]:m[5]], ",") {
					if name = strings.TrimSpace(name); name != "" && name != "*" {
						sup.names = append(sup.names, name)
					}
				}
			}
			sup.all = len(sup.names) == 0
			s.lines[line] = append(s.lines[line], sup)
		}
	}
	return s
}

func (s *Suppressions) Len() int {
	return len(s.lines)
}

// Suppressed reports whether a NOLINT marker covers the finding. Findings
// the engine reports about itself are never suppressed.
func (s *Suppressions) Suppressed(f *diagnostic.Finding) bool {
	if f.Category == rules.CategoryEngine || !f.Span.Start.IsValid() {
		return false
	}
	for _, sup := range s.lines[f.Span.Start.Line] {
		if sup.all {
			return true
		}
		for _, name := range sup.names {
			if strings.EqualFold(name, f.RuleID) || strings.EqualFold(name, f.Code) || strings.EqualFold(name, f.Category) {
				return true
			}
		}
	}
	return false
}

// Suppress drops the findings covered by a NOLINT marker.
func Suppress(findings []diagnostic.Finding, s *Suppressions) []diagnostic.Finding {
	if s == nil || s.Len() == 0 {
		return findings
	}
	out := findings[:0:0]
	for i := range findings {
		if !s.Suppressed(&findings[i]) {
			out = append(out, findings[i])
		}
	}
	return out
}
