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

// Package dataflow runs forward fixed-point analyses over a control-flow
// graph and reports the defect events the rules turn into findings.
package dataflow

import (
	"errors"
	"fmt"

	"naive.systems/cxxlint/cfg"
)

// ErrNoConvergence is returned when a fixed point is not reached within
// the visit bound.
var ErrNoConvergence = errors.New("dataflow: fixed point not reached")

// Lattice describes a forward analysis over states of type S. Transfer and
// Refine must not modify their input state.
type Lattice[S any] interface {
	// Entry is the state on entry to the function.
	Entry() S
	Join(a, b S) S
	Equal(a, b S) bool
	// Transfer applies the statements of a block.
	Transfer(b *cfg.Block, in S) S
	// Refine narrows the state flowing along an edge, e.g. by the branch
	// condition of the source block. It reports false when the edge cannot
	// be taken in that state.
	Refine(b *cfg.Block, e cfg.Edge, out S) (S, bool)
}

// Result holds the fixed point. States of unreachable blocks are the zero
// value and Visited is false for them.
type Result[S any] struct {
	In      []S
	Visited []bool
	Steps   int
}

// Solve computes the forward fixed point of l over g. height bounds the
// number of times the state of one block can change; more than
// len(blocks) * height block visits yields ErrNoConvergence.
func Solve[S any](g *cfg.Graph, l Lattice[S], height int) (*Result[S], error) {
	n := len(g.Blocks)
	res := &Result[S]{In: make([]S, n), Visited: make([]bool, n)}
	if n == 0 {
		return res, nil
	}
	if height < 1 {
		height = 1
	}
	limit := n * height

	queued := make([]bool, n)
	worklist := []cfg.BlockID{g.Entry}
	res.In[g.Entry] = l.Entry()
	res.Visited[g.Entry] = true
	queued[g.Entry] = true

	for len(worklist) > 0 {
		id := worklist[0]
		worklist = worklist[1:]
		queued[id] = false

		res.Steps++
		if res.Steps > limit {
			return res, fmt.Errorf("%w after %d visits of %d blocks", ErrNoConvergence, limit, n)
		}

		b := g.Blocks[id]
		out := l.Transfer(b, res.In[id])
		for _, e := range b.Succs {
			s, ok := l.Refine(b, e, out)
			if !ok {
				continue
			}
			switch {
			case !res.Visited[e.To]:
				res.In[e.To] = s
				res.Visited[e.To] = true
			default:
				joined := l.Join(res.In[e.To], s)
				if l.Equal(joined, res.In[e.To]) {
					continue
				}
				res.In[e.To] = joined
			}
			if !queued[e.To] {
				queued[e.To] = true
				worklist = append(worklist, e.To)
			}
		}
	}
	return res, nil
}
