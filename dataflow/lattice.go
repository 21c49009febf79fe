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
	"golang.org/x/exp/slices"

	"naive.systems/cxxlint/symbols"
)

// PointerState is what is known about the target of a pointer.
type PointerState uint8

const (
	PtrUnknown PointerState = iota
	PtrNull
	PtrValid
	PtrFreed
	// PtrSuspect joins Valid with Null or Freed: possibly bad, not reported.
	PtrSuspect
)

func (s PointerState) String() string {
	return [...]string{"unknown", "null", "valid", "freed", "suspect"}[s]
}

func joinPointer(a, b PointerState) PointerState {
	switch {
	case a == b:
		return a
	case a == PtrUnknown || b == PtrUnknown:
		return PtrUnknown
	default:
		return PtrSuspect
	}
}

// joinInit merges initialization states: Initialized and Uninitialized
// meet in MaybeInitialized; Unknown absorbs everything.
func joinInit(a, b symbols.InitState) symbols.InitState {
	switch {
	case a == b:
		return a
	case a == symbols.Unknown || b == symbols.Unknown:
		return symbols.Unknown
	default:
		return symbols.MaybeInitialized
	}
}

// latticeHeight is the longest ascending chain of one slot in either
// component.
const latticeHeight = 3

// state is the product of the initialization and pointer lattices, one
// slot per local of the function.
type state struct {
	init []symbols.InitState
	ptr  []PointerState
}

func (s state) clone() state {
	return state{init: slices.Clone(s.init), ptr: slices.Clone(s.ptr)}
}

func (s state) join(o state) state {
	out := s.clone()
	for i := range out.init {
		out.init[i] = joinInit(out.init[i], o.init[i])
		out.ptr[i] = joinPointer(out.ptr[i], o.ptr[i])
	}
	return out
}

func (s state) equal(o state) bool {
	return slices.Equal(s.init, o.init) && slices.Equal(s.ptr, o.ptr)
}
