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

// Package cfg builds per-function control-flow graphs over the syntax tree.
package cfg

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"naive.systems/cxxlint/syntax"
)

type BlockID int32

const NoBlock BlockID = -1

type EdgeKind uint8

const (
	Unconditional EdgeKind = iota
	True
	False
	LoopBack
)

func (k EdgeKind) String() string {
	return [...]string{"uncond", "true", "false", "loop"}[k]
}

type Edge struct {
	To   BlockID
	Kind EdgeKind
}

// Block is a basic block. Stmts holds statements and evaluated condition
// expressions in execution order.
type Block struct {
	ID    BlockID
	Stmts []syntax.NodeID
	// Cond is the condition evaluated last in the block when the block ends
	// in a True/False branch.
	Cond  syntax.NodeID
	Succs []Edge
	Preds []BlockID
}

// Loop describes one loop statement. The blocks of the loop are the
// contiguous range First..Last.
type Loop struct {
	Node    syntax.NodeID
	Header  BlockID
	First   BlockID
	Last    BlockID
	Forever bool // condition is absent or constant true
}

// Contains reports whether id belongs to the loop.
func (l *Loop) Contains(id BlockID) bool {
	return id >= l.First && id <= l.Last
}

type Graph struct {
	Func   syntax.NodeID
	Name   string
	Blocks []*Block
	Entry  BlockID
	Exit   BlockID
	Loops  []Loop
}

func (g *Graph) Block(id BlockID) *Block {
	return g.Blocks[id]
}

// Reachable returns the set of blocks reachable from the entry.
func (g *Graph) Reachable() *roaring.Bitmap {
	seen := roaring.New()
	queue := []BlockID{g.Entry}
	seen.Add(uint32(g.Entry))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range g.Blocks[id].Succs {
			if seen.CheckedAdd(uint32(e.To)) {
				queue = append(queue, e.To)
			}
		}
	}
	return seen
}

// String renders the graph as one line per block, for debugging and tests.
func (g *Graph) String() string {
	var sb strings.Builder
	for _, b := range g.Blocks {
		fmt.Fprintf(&sb, "b%d[%d]", b.ID, len(b.Stmts))
		for _, e := range b.Succs {
			fmt.Fprintf(&sb, " %s:b%d", e.Kind, e.To)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
