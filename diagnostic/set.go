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
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Set is an ordered collection of findings in which no two findings share a
// Key.
type Set struct {
	Findings []Finding
}

// Less is the total order of a Set: file, start line, start column and rule
// id, then end position, message and function to break ties.
func Less(a, b *Finding) bool {
	switch {
	case a.File != b.File:
		return a.File < b.File
	case a.Span.Start.Line != b.Span.Start.Line:
		return a.Span.Start.Line < b.Span.Start.Line
	case a.Span.Start.Column != b.Span.Start.Column:
		return a.Span.Start.Column < b.Span.Start.Column
	case a.RuleID != b.RuleID:
		return a.RuleID < b.RuleID
	case a.Span.End.Line != b.Span.End.Line:
		return a.Span.End.Line < b.Span.End.Line
	case a.Span.End.Column != b.Span.End.Column:
		return a.Span.End.Column < b.Span.End.Column
	case a.Message != b.Message:
		return a.Message < b.Message
	}
	return a.Function < b.Function
}

// Aggregate sorts the findings and keeps the first of each Key. Nothing is
// filtered by severity. The input slice is not modified.
func Aggregate(findings []Finding) *Set {
	sorted := slices.Clone(findings)
	slices.SortStableFunc(sorted, func(a, b Finding) bool { return Less(&a, &b) })
	seen := make(map[Key]bool, len(sorted))
	out := make([]Finding, 0, len(sorted))
	for _, f := range sorted {
		k := f.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	return &Set{Findings: out}
}

// Merge aggregates the findings of several sets.
func Merge(sets ...*Set) *Set {
	var all []Finding
	for _, s := range sets {
		if s != nil {
			all = append(all, s.Findings...)
		}
	}
	return Aggregate(all)
}

func (s *Set) Len() int {
	return len(s.Findings)
}

func (s *Set) Records() []Record {
	records := make([]Record, 0, len(s.Findings))
	for i := range s.Findings {
		records = append(records, s.Findings[i].Record())
	}
	return records
}

// Count returns the number of findings per severity.
func (s *Set) Count() map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range s.Findings {
		counts[f.Severity]++
	}
	return counts
}

// ByCategory groups the findings by rule category, keeping the set order
// within each group.
func (s *Set) ByCategory() map[string][]Finding {
	groups := make(map[string][]Finding)
	for _, f := range s.Findings {
		groups[f.Category] = append(groups[f.Category], f)
	}
	return groups
}

// Categories returns the categories present in the set, sorted.
func (s *Set) Categories() []string {
	names := maps.Keys(s.ByCategory())
	slices.Sort(names)
	return names
}

// Filter returns a new set with the findings keep accepts.
func (s *Set) Filter(keep func(*Finding) bool) *Set {
	out := &Set{}
	for i := range s.Findings {
		if keep(&s.Findings[i]) {
			out.Findings = append(out.Findings, s.Findings[i])
		}
	}
	return out
}
