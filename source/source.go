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

// Package source holds the location types shared by every analysis stage.
package source

import "fmt"

// Pos is a 1-based line and column. Columns count runes, not bytes.
type Pos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) Before(q Pos) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a half-open range: End is the position just past the last rune.
type Span struct {
	Start Pos `json:"start"`
	End   Pos `json:"end"`
}

// Contains reports whether o lies within s.
func (s Span) Contains(o Span) bool {
	return !o.Start.Before(s.Start) && !s.End.Before(o.End)
}

// Union returns the smallest span covering both s and o. Invalid spans are
// ignored.
func (s Span) Union(o Span) Span {
	if !o.Start.IsValid() {
		return s
	}
	if !s.Start.IsValid() {
		return o
	}
	if o.Start.Before(s.Start) {
		s.Start = o.Start
	}
	if s.End.Before(o.End) {
		s.End = o.End
	}
	return s
}

func (s Span) String() string {
	return s.Start.String() + "-" + s.End.String()
}
