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

package dataflow

import (
	"naive.systems/cxxlint/source"
	"naive.systems/cxxlint/symbols"
	"naive.systems/cxxlint/syntax"
)

type EventKind uint8

const (
	NullDereference EventKind = iota
	UseAfterFree
	DoubleFree
	UninitializedRead
	ResourceLeak
	OutOfBoundsAccess
	DivisionByZero
	UnreachableCode
	InfiniteLoop
)

var eventNames = [...]string{
	"NullDereference", "UseAfterFree", "DoubleFree", "UninitializedRead", "ResourceLeak",
	"OutOfBoundsAccess", "DivisionByZero", "UnreachableCode", "InfiniteLoop",
}

func (k EventKind) String() string {
	return eventNames[k]
}

// Event is one defect observation. Span covers the statement it occurs in,
// except for OutOfBoundsAccess where it covers the subscript expression;
// Node is the precise expression.
type Event struct {
	Kind   EventKind
	Span   source.Span
	Node   syntax.NodeID
	Symbol symbols.SymbolID
	Value  int64 // offending index or divisor
	Bound  int   // declared array bound
}

// Facts are the events of one function.
type Facts struct {
	Func   syntax.NodeID
	Name   string
	Events []Event
}

// Of returns the events of the given kind.
func (f *Facts) Of(kind EventKind) []Event {
	var out []Event
	for _, e := range f.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
