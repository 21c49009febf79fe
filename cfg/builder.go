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

package cfg

import (
	"github.com/golang/glog"

	"naive.systems/cxxlint/syntax"
)

// builder constructs the control flow graph of one function.
//
// The append* methods return the block where following statements are
// added. After a jump that block is fresh and has no predecessors.
type builder struct {
	tree    *syntax.Tree
	g       *Graph
	labels  map[string]BlockID
	targets branchTargets
}

// Build constructs the graph of a function definition. It returns nil for
// declarations without a body.
func Build(tree *syntax.Tree, fn syntax.NodeID) *Graph {
	body := tree.Body(fn)
	if body == syntax.NoNode {
		return nil
	}
	b := &builder{
		tree:    tree,
		g:       &Graph{Func: fn, Name: tree.Nodes[fn].Name},
		labels:  make(map[string]BlockID),
		targets: branchTargets{brk: NoBlock, cont: NoBlock, sw: NoBlock},
	}
	b.g.Entry = b.newBlock()
	b.g.Exit = b.newBlock()
	end := b.appendStmt(b.g.Entry, body)
	b.link(end, b.g.Exit, Unconditional)
	glog.V(3).Infof("cfg %s:\n%s", b.g.Name, b.g)
	return b.g
}

// BuildAll constructs the graphs of every function definition in source
// order.
func BuildAll(tree *syntax.Tree) []*Graph {
	var graphs []*Graph
	for _, fn := range tree.Functions {
		if g := Build(tree, fn); g != nil {
			graphs = append(graphs, g)
		}
	}
	return graphs
}

func (b *builder) newBlock() BlockID {
	id := BlockID(len(b.g.Blocks))
	b.g.Blocks = append(b.g.Blocks, &Block{ID: id, Cond: syntax.NoNode})
	return id
}

func (b *builder) link(from, to BlockID, kind EdgeKind) {
	if from == NoBlock || to == NoBlock {
		return
	}
	src := b.g.Blocks[from]
	for _, e := range src.Succs {
		if e.To == to {
			return
		}
	}
	src.Succs = append(src.Succs, Edge{To: to, Kind: kind})
	b.g.Blocks[to].Preds = append(b.g.Blocks[to].Preds, from)
}

func (b *builder) add(blk BlockID, n syntax.NodeID) {
	if n != syntax.NoNode {
		b.g.Blocks[blk].Stmts = append(b.g.Blocks[blk].Stmts, n)
	}
}

// branch ends current with a condition.
func (b *builder) branch(current BlockID, cond syntax.NodeID) {
	b.add(current, cond)
	b.g.Blocks[current].Cond = cond
}

// constantTrue reports whether a loop condition always holds.
func (b *builder) constantTrue(cond syntax.NodeID) bool {
	if cond == syntax.NoNode {
		return true
	}
	v, ok := b.tree.IntValue(cond)
	return ok && v != 0
}

func (b *builder) constantFalse(cond syntax.NodeID) bool {
	v, ok := b.tree.IntValue(cond)
	return ok && v == 0
}

func (b *builder) appendStmt(current BlockID, id syntax.NodeID) BlockID {
	if id == syntax.NoNode {
		return current
	}
	n := b.tree.Node(id)
	switch n.Kind {
	case syntax.Block:
		for _, c := range n.Children {
			current = b.appendStmt(current, c)
		}
		return current

	case syntax.Empty, syntax.Class, syntax.Enum, syntax.Function, syntax.Opaque, syntax.Namespace, syntax.Template:
		return current

	case syntax.ExprStmt:
		b.add(current, id)
		if cantReturn(b.tree, b.tree.Child(id, 0)) {
			b.link(current, b.g.Exit, Unconditional)
			return b.newBlock() // unreachable after throw or a non-returning call
		}
		return current

	case syntax.Return:
		b.add(current, id)
		b.link(current, b.g.Exit, Unconditional)
		return b.newBlock() // unreachable after return

	case syntax.Break:
		b.add(current, id)
		b.link(current, b.targets.brk, Unconditional)
		return b.newBlock()

	case syntax.Continue:
		b.add(current, id)
		b.link(current, b.targets.cont, LoopBack)
		return b.newBlock()

	case syntax.Goto:
		b.add(current, id)
		b.link(current, b.labelTarget(n.Name), Unconditional)
		return b.newBlock()

	case syntax.Label:
		target := b.labelTarget(n.Name)
		b.link(current, target, Unconditional)
		b.add(target, id)
		return target

	case syntax.Case, syntax.Default:
		return b.appendCase(current, id)

	case syntax.If:
		return b.appendIf(current, id)

	case syntax.While:
		return b.appendWhile(current, id)

	case syntax.DoWhile:
		return b.appendDoWhile(current, id)

	case syntax.For:
		return b.appendFor(current, id)

	case syntax.RangeFor:
		return b.appendRangeFor(current, id)

	case syntax.Switch:
		return b.appendSwitch(current, id)

	case syntax.Try:
		return b.appendTry(current, id)

	default: // DeclStmt, VarDecl and error placeholders
		b.add(current, id)
		return current
	}
}

// labelTarget retrieves or creates the block of a label.
func (b *builder) labelTarget(name string) BlockID {
	if target, ok := b.labels[name]; ok {
		return target
	}
	target := b.newBlock() // forward goto reference
	b.labels[name] = target
	return target
}

func (b *builder) appendIf(current BlockID, id syntax.NodeID) BlockID {
	cond := b.tree.Child(id, 0)
	b.branch(current, cond)

	then := b.newBlock()
	b.link(current, then, True)
	afterThen := b.appendStmt(then, b.tree.Child(id, 1))

	after := b.newBlock()
	b.link(afterThen, after, Unconditional)

	if elseStmt := b.tree.Child(id, 2); elseStmt != syntax.NoNode {
		elseBranch := b.newBlock()
		b.link(current, elseBranch, False)
		afterElse := b.appendStmt(elseBranch, elseStmt)
		b.link(afterElse, after, Unconditional)
	} else {
		b.link(current, after, False)
	}
	return after
}

func (b *builder) appendWhile(current BlockID, id syntax.NodeID) BlockID {
	cond, body := b.tree.Child(id, 0), b.tree.Child(id, 1)
	after := b.newBlock()
	header := b.newBlock()
	b.link(current, header, Unconditional)
	b.branch(header, cond)
	forever := b.constantTrue(cond)

	entry := b.newBlock()
	b.link(header, entry, True)
	if !forever {
		b.link(header, after, False)
	}

	oldb := b.targets.pushBreak(after)
	oldc := b.targets.pushContinue(header)
	end := b.appendStmt(entry, body)
	b.link(end, header, LoopBack)
	b.targets.popContinue(oldc)
	b.targets.popBreak(oldb)

	b.loop(id, header, forever)
	return after
}

func (b *builder) appendDoWhile(current BlockID, id syntax.NodeID) BlockID {
	body, cond := b.tree.Child(id, 0), b.tree.Child(id, 1)
	after := b.newBlock()
	check := b.newBlock()
	entry := b.newBlock()
	b.link(current, entry, Unconditional)
	b.branch(check, cond)
	forever := b.constantTrue(cond)
	if !b.constantFalse(cond) {
		b.link(check, entry, LoopBack)
	}
	if !forever {
		b.link(check, after, False)
	}

	oldb := b.targets.pushBreak(after)
	oldc := b.targets.pushContinue(check)
	end := b.appendStmt(entry, body)
	b.link(end, check, Unconditional)
	b.targets.popContinue(oldc)
	b.targets.popBreak(oldb)

	b.loop(id, check, forever)
	return after
}

func (b *builder) appendFor(current BlockID, id syntax.NodeID) BlockID {
	init, cond, post, body := b.tree.Child(id, 0), b.tree.Child(id, 1), b.tree.Child(id, 2), b.tree.Child(id, 3)
	b.add(current, init)

	after := b.newBlock()
	header := b.newBlock()
	b.link(current, header, Unconditional)
	forever := b.constantTrue(cond)
	if cond != syntax.NoNode {
		b.branch(header, cond)
	}

	entry := b.newBlock()
	b.link(header, entry, True)
	if !forever {
		b.link(header, after, False)
	}

	cont := header
	if post != syntax.NoNode {
		cont = b.newBlock()
		b.add(cont, post)
		b.link(cont, header, LoopBack)
	}

	oldb := b.targets.pushBreak(after)
	oldc := b.targets.pushContinue(cont)
	end := b.appendStmt(entry, body)
	if cont == header {
		b.link(end, header, LoopBack)
	} else {
		b.link(end, cont, Unconditional)
	}
	b.targets.popContinue(oldc)
	b.targets.popBreak(oldb)

	b.loop(id, header, forever)
	return after
}

func (b *builder) appendRangeFor(current BlockID, id syntax.NodeID) BlockID {
	decl, rng, body := b.tree.Child(id, 0), b.tree.Child(id, 1), b.tree.Child(id, 2)
	b.add(current, rng)

	after := b.newBlock()
	header := b.newBlock()
	b.link(current, header, Unconditional)
	entry := b.newBlock()
	b.link(header, entry, True)
	b.link(header, after, False)
	b.add(entry, decl)

	oldb := b.targets.pushBreak(after)
	oldc := b.targets.pushContinue(header)
	end := b.appendStmt(entry, body)
	b.link(end, header, LoopBack)
	b.targets.popContinue(oldc)
	b.targets.popBreak(oldb)

	b.loop(id, header, false)
	return after
}

// loop records the loop whose blocks were created from header on.
func (b *builder) loop(id syntax.NodeID, header BlockID, forever bool) {
	b.g.Loops = append(b.g.Loops, Loop{
		Node:    id,
		Header:  header,
		First:   header,
		Last:    BlockID(len(b.g.Blocks) - 1),
		Forever: forever,
	})
}

func (b *builder) appendSwitch(current BlockID, id syntax.NodeID) BlockID {
	cond, body := b.tree.Child(id, 0), b.tree.Child(id, 1)
	b.add(current, cond)
	after := b.newBlock()

	oldb := b.targets.pushBreak(after)
	oldsw, olddef := b.targets.pushSwitch(current)
	// statements before the first label are unreachable
	end := b.appendStmt(b.newBlock(), body)
	b.link(end, after, Unconditional)
	hadDefault := b.targets.popSwitch(oldsw, olddef)
	b.targets.popBreak(oldb)

	if !hadDefault {
		b.link(current, after, False)
	}
	return after
}

// appendCase starts the block of a case or default label. It is entered
// from the switch header and by fallthrough from the previous case.
func (b *builder) appendCase(current BlockID, id syntax.NodeID) BlockID {
	blk := b.newBlock()
	b.link(current, blk, Unconditional)
	if b.targets.sw != NoBlock {
		b.link(b.targets.sw, blk, True)
		if b.tree.Nodes[id].Kind == syntax.Default {
			b.targets.sawDeflt = true
		}
	}
	b.add(blk, id)
	return blk
}

// appendTry links the block before the try to every handler: any prefix of
// the protected block may have run when a handler is entered.
func (b *builder) appendTry(current BlockID, id syntax.NodeID) BlockID {
	n := b.tree.Node(id)
	if len(n.Children) == 0 {
		return current
	}
	body := b.newBlock()
	b.link(current, body, Unconditional)
	end := b.appendStmt(body, n.Children[0])
	after := b.newBlock()
	b.link(end, after, Unconditional)
	for _, c := range n.Children[1:] {
		handler := b.newBlock()
		b.link(current, handler, Unconditional)
		b.add(handler, b.tree.Child(c, 0))
		hend := b.appendStmt(handler, b.tree.Child(c, 1))
		b.link(hend, after, Unconditional)
	}
	return after
}
