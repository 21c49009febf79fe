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
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/golang/glog"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"naive.systems/cxxlint/cfg"
	"naive.systems/cxxlint/source"
	"naive.systems/cxxlint/symbols"
	"naive.systems/cxxlint/syntax"
)

var allocFuncs = map[string]bool{
	"malloc": true, "calloc": true, "realloc": true, "strdup": true, "strndup": true,
	"aligned_alloc": true, "std::malloc": true, "std::calloc": true, "std::realloc": true,
}

var freeFuncs = map[string]bool{"free": true, "std::free": true}

type allocSite struct {
	node syntax.NodeID
	span source.Span
}

// analysis is the per-function state of Analyze. It implements
// Lattice[state]; events are only recorded in the reporting pass that runs
// after the fixed point is reached.
type analysis struct {
	tree  *syntax.Tree
	table *symbols.Table
	g     *cfg.Graph
	slots map[symbols.SymbolID]int
	syms  []symbols.SymbolID

	report   bool
	anchor   source.Span
	facts    *Facts
	reported *roaring.Bitmap // symbols with an uninitialized read reported
	allocs   map[int]allocSite
}

// Analyze runs the dataflow analyses of one function graph.
func Analyze(tree *syntax.Tree, table *symbols.Table, g *cfg.Graph) (*Facts, error) {
	a := &analysis{
		tree:     tree,
		table:    table,
		g:        g,
		slots:    make(map[symbols.SymbolID]int),
		facts:    &Facts{Func: g.Func, Name: g.Name},
		reported: roaring.New(),
		allocs:   make(map[int]allocSite),
	}
	for _, sym := range table.Locals(g.Func) {
		a.slots[sym] = len(a.syms)
		a.syms = append(a.syms, sym)
	}
	res, err := Solve[state](g, a, latticeHeight*len(a.syms)+1)
	if err != nil {
		glog.Warningf("dataflow %s: %v", g.Name, err)
		return nil, err
	}
	glog.V(3).Infof("dataflow %s: fixed point after %d visits", g.Name, res.Steps)

	a.report = true
	for _, b := range g.Blocks {
		if res.Visited[b.ID] {
			a.Transfer(b, res.In[b.ID])
		}
	}
	if res.Visited[g.Exit] {
		a.checkLeaks(res.In[g.Exit])
	}
	a.checkReachability()
	a.checkLoops()
	return a.facts, nil
}

func (a *analysis) Entry() state {
	st := state{init: make([]symbols.InitState, len(a.syms)), ptr: make([]PointerState, len(a.syms))}
	for i, sym := range a.syms {
		// locals are undeclared until their VarDecl runs
		st.init[i] = symbols.Unknown
		if a.table.Symbol(sym).Kind == symbols.Parameter {
			st.init[i] = symbols.Initialized
		}
	}
	return st
}

func (a *analysis) Join(x, y state) state {
	return x.join(y)
}

func (a *analysis) Equal(x, y state) bool {
	return x.equal(y)
}

func (a *analysis) Transfer(b *cfg.Block, in state) state {
	st := in.clone()
	for _, id := range b.Stmts {
		a.anchor = a.anchorOf(id)
		a.element(&st, id)
	}
	return st
}

func (a *analysis) Refine(b *cfg.Block, e cfg.Edge, out state) (state, bool) {
	if b.Cond == syntax.NoNode || e.Kind == cfg.Unconditional {
		return out, true
	}
	st := out.clone()
	ok := a.refine(&st, b.Cond, e.Kind != cfg.False)
	return st, ok
}

func (a *analysis) emit(kind EventKind, node syntax.NodeID, sym symbols.SymbolID) *Event {
	if !a.report {
		return nil
	}
	a.facts.Events = append(a.facts.Events, Event{Kind: kind, Span: a.anchor, Node: node, Symbol: sym})
	return &a.facts.Events[len(a.facts.Events)-1]
}

// anchorOf returns the span findings in a block element are reported at:
// the statement itself, or for conditions the head of the enclosing
// compound statement.
func (a *analysis) anchorOf(id syntax.NodeID) source.Span {
	n := a.tree.Node(id)
	if n.Kind.IsStmt() {
		return n.Span
	}
	p := n.Parent
	for p != syntax.NoNode && !a.tree.Nodes[p].Kind.IsStmt() {
		p = a.tree.Nodes[p].Parent
	}
	if p == syntax.NoNode {
		return n.Span
	}
	switch ps := a.tree.Nodes[p].Span; a.tree.Nodes[p].Kind {
	case syntax.If, syntax.While, syntax.For, syntax.RangeFor, syntax.Switch, syntax.Catch:
		return source.Span{Start: ps.Start, End: n.Span.End}
	case syntax.DoWhile:
		return n.Span
	default:
		return ps
	}
}

// slot returns the analysis slot of the local an expression names.
func (a *analysis) slot(id syntax.NodeID) (int, symbols.SymbolID, bool) {
	u := a.tree.Unparen(id)
	if u == syntax.NoNode || a.tree.Nodes[u].Kind != syntax.Ident {
		return 0, symbols.NoSymbol, false
	}
	sym := a.table.Use(u)
	slot, ok := a.slots[sym]
	return slot, sym, ok
}

func (a *analysis) pointerSlot(id syntax.NodeID) (int, symbols.SymbolID, bool) {
	slot, sym, ok := a.slot(id)
	if !ok {
		return 0, sym, false
	}
	s := a.table.Symbol(sym)
	return slot, sym, s.Pointer && !s.Array
}

func (a *analysis) element(st *state, id syntax.NodeID) {
	n := a.tree.Node(id)
	switch n.Kind {
	case syntax.DeclStmt:
		for _, c := range n.Children {
			if a.tree.Nodes[c].Kind == syntax.VarDecl {
				a.varDecl(st, c)
			}
		}
	case syntax.VarDecl:
		a.varDecl(st, id)
	case syntax.ExprStmt, syntax.Return:
		for _, c := range n.Children {
			a.expr(st, c)
		}
	case syntax.Case, syntax.Default, syntax.Label, syntax.Break, syntax.Continue, syntax.Goto,
		syntax.Param, syntax.Empty, syntax.Error:
	default:
		if !n.Kind.IsStmt() {
			a.expr(st, id)
		}
	}
}

func (a *analysis) varDecl(st *state, id syntax.NodeID) {
	init := a.tree.Child(id, 0)
	a.expr(st, init)
	sym := a.table.Declared(id)
	slot, ok := a.slots[sym]
	if !ok {
		return
	}
	s := a.table.Symbol(sym)
	st.init[slot] = s.Init
	if !s.Pointer || s.Array {
		return
	}
	if init == syntax.NoNode {
		st.ptr[slot] = PtrUnknown
		return
	}
	st.ptr[slot] = a.valueOf(st, init)
	if a.isAlloc(init) {
		a.recordAlloc(slot, init)
	}
}

func (a *analysis) expr(st *state, id syntax.NodeID) {
	if id == syntax.NoNode {
		return
	}
	n := a.tree.Node(id)
	switch n.Kind {
	case syntax.Ident:
		a.read(st, id)
	case syntax.Assign:
		a.assign(st, id)
	case syntax.Deref:
		c := a.tree.Child(id, 0)
		a.expr(st, c)
		a.deref(st, c, id)
	case syntax.Member:
		c := a.tree.Child(id, 0)
		a.expr(st, c)
		if n.Op == "->" {
			a.deref(st, c, id)
		}
	case syntax.Index:
		base, idx := a.tree.Child(id, 0), a.tree.Child(id, 1)
		a.expr(st, base)
		a.expr(st, idx)
		a.index(st, id, base, idx)
	case syntax.Delete:
		c := a.tree.Child(id, 0)
		a.expr(st, c)
		a.release(st, c, id)
	case syntax.Call:
		for _, c := range n.Children {
			a.expr(st, c)
		}
		callee := a.tree.Unparen(a.tree.Child(id, 0))
		if callee != syntax.NoNode && a.tree.Nodes[callee].Kind == syntax.Ident && freeFuncs[a.tree.Nodes[callee].Name] && len(n.Children) == 2 {
			a.release(st, n.Children[1], id)
		}
	case syntax.Binary:
		a.expr(st, a.tree.Child(id, 0))
		a.expr(st, a.tree.Child(id, 1))
		if n.Op == "/" || n.Op == "%" {
			a.divide(id, a.tree.Child(id, 1))
		}
	case syntax.AddrOf:
		// the address may be used to initialize the variable
		if slot, _, ok := a.slot(a.tree.Child(id, 0)); ok {
			st.init[slot] = symbols.Initialized
			return
		}
		a.expr(st, a.tree.Child(id, 0))
	case syntax.Lambda, syntax.Sizeof, syntax.Literal, syntax.This:
	default:
		for _, c := range n.Children {
			if c != syntax.NoNode && !a.tree.Nodes[c].Kind.IsStmt() {
				a.expr(st, c)
			}
		}
	}
}

func (a *analysis) read(st *state, id syntax.NodeID) {
	slot, sym, ok := a.slot(id)
	if !ok {
		return
	}
	switch st.init[slot] {
	case symbols.Uninitialized, symbols.MaybeInitialized:
		if a.report && a.reported.CheckedAdd(uint32(sym)) {
			a.emit(UninitializedRead, id, sym)
		}
	}
}

func (a *analysis) assign(st *state, id syntax.NodeID) {
	n := a.tree.Node(id)
	lhs, rhs := a.tree.Child(id, 0), a.tree.Child(id, 1)
	a.expr(st, rhs)
	if n.Op == "/=" || n.Op == "%=" {
		a.divide(id, rhs)
	}
	slot, sym, ok := a.slot(lhs)
	if !ok {
		a.expr(st, lhs)
		return
	}
	if n.Op != "=" {
		a.read(st, a.tree.Unparen(lhs))
	}
	st.init[slot] = symbols.Initialized
	if s := a.table.Symbol(sym); !s.Pointer || s.Array {
		return
	}
	if n.Op != "=" {
		st.ptr[slot] = PtrUnknown
		return
	}
	st.ptr[slot] = a.valueOf(st, rhs)
	if a.isAlloc(rhs) {
		a.recordAlloc(slot, rhs)
	}
}

func (a *analysis) deref(st *state, ptr, at syntax.NodeID) {
	slot, sym, ok := a.pointerSlot(ptr)
	if !ok {
		return
	}
	switch st.ptr[slot] {
	case PtrNull:
		a.emit(NullDereference, at, sym)
	case PtrFreed:
		a.emit(UseAfterFree, at, sym)
	}
}

func (a *analysis) release(st *state, ptr, at syntax.NodeID) {
	slot, sym, ok := a.pointerSlot(ptr)
	if !ok {
		return
	}
	switch st.ptr[slot] {
	case PtrFreed:
		a.emit(DoubleFree, at, sym)
	case PtrNull:
		// deleting a null pointer is a no-op
	default:
		st.ptr[slot] = PtrFreed
	}
}

// index checks a constant subscript against the bound of the dimension it
// selects. In m[i][j] the subscript j selects the second dimension of m.
func (a *analysis) index(st *state, at, base, idx syntax.NodeID) {
	dim := 0
	u := a.tree.Unparen(base)
	for u != syntax.NoNode && a.tree.Nodes[u].Kind == syntax.Index {
		dim++
		u = a.tree.Unparen(a.tree.Child(u, 0))
	}
	if u == syntax.NoNode || a.tree.Nodes[u].Kind != syntax.Ident {
		return
	}
	sym := a.table.Use(u)
	if sym == symbols.NoSymbol {
		return
	}
	s := a.table.Symbol(sym)
	if !s.Array {
		if dim == 0 {
			a.deref(st, base, at)
		}
		return
	}
	if dim >= len(s.Dims) {
		return
	}
	bound := s.Dims[dim]
	v, ok := a.tree.IntValue(idx)
	if !ok || bound < 0 || (v >= 0 && v < int64(bound)) {
		return
	}
	if e := a.emit(OutOfBoundsAccess, at, sym); e != nil {
		e.Value, e.Bound = v, bound
		e.Span = a.tree.Nodes[at].Span
	}
}

// divide checks a divisor that is the literal zero or a local initialized
// to zero and never written afterwards.
func (a *analysis) divide(at, divisor syntax.NodeID) {
	if v, ok := a.tree.IntValue(divisor); ok {
		if v == 0 {
			a.emit(DivisionByZero, at, symbols.NoSymbol)
		}
		return
	}
	u := a.tree.Unparen(divisor)
	if u == syntax.NoNode || a.tree.Nodes[u].Kind != syntax.Ident {
		return
	}
	sym := a.table.Use(u)
	if sym == symbols.NoSymbol {
		return
	}
	s := a.table.Symbol(sym)
	if !s.IsLocal() || s.Pointer || a.table.IsWritten(sym) || a.table.AddressTaken(sym) {
		return
	}
	if v, ok := a.tree.IntValue(singleInit(a.tree, a.tree.Child(s.Decl, 0))); ok && v == 0 {
		a.emit(DivisionByZero, at, sym)
	}
}

// singleInit unwraps "= {x}" and "(x)" initializers.
func singleInit(tree *syntax.Tree, id syntax.NodeID) syntax.NodeID {
	id = tree.Unparen(id)
	for id != syntax.NoNode && tree.Nodes[id].Kind == syntax.InitList && len(tree.Nodes[id].Children) == 1 {
		id = tree.Unparen(tree.Nodes[id].Children[0])
	}
	return id
}

func (a *analysis) valueOf(st *state, e syntax.NodeID) PointerState {
	e = singleInit(a.tree, e)
	if e == syntax.NoNode {
		return PtrUnknown
	}
	n := a.tree.Node(e)
	switch n.Kind {
	case syntax.Literal:
		switch {
		case n.Has(syntax.FlagNull):
			return PtrNull
		case n.Has(syntax.FlagString):
			return PtrValid
		}
		if v, ok := a.tree.IntValue(e); ok && v == 0 {
			return PtrNull
		}
	case syntax.InitList:
		if len(n.Children) == 0 {
			return PtrNull
		}
	case syntax.New, syntax.AddrOf:
		return PtrValid
	case syntax.Cast:
		if len(n.Children) > 0 {
			return a.valueOf(st, n.Children[len(n.Children)-1])
		}
	case syntax.Call:
		if a.isAlloc(e) {
			return PtrValid
		}
	case syntax.Conditional:
		return joinPointer(a.valueOf(st, a.tree.Child(e, 1)), a.valueOf(st, a.tree.Child(e, 2)))
	case syntax.Ident:
		if slot, _, ok := a.pointerSlot(e); ok {
			return st.ptr[slot]
		}
		if sym := a.table.Use(e); sym != symbols.NoSymbol && a.table.Symbol(sym).Array {
			return PtrValid
		}
	}
	return PtrUnknown
}

func (a *analysis) isAlloc(e syntax.NodeID) bool {
	e = singleInit(a.tree, e)
	for e != syntax.NoNode && a.tree.Nodes[e].Kind == syntax.Cast && len(a.tree.Nodes[e].Children) > 0 {
		e = a.tree.Unparen(a.tree.Nodes[e].Children[len(a.tree.Nodes[e].Children)-1])
	}
	if e == syntax.NoNode {
		return false
	}
	switch n := a.tree.Node(e); n.Kind {
	case syntax.New:
		return true
	case syntax.Call:
		callee := a.tree.Unparen(a.tree.Child(e, 0))
		return callee != syntax.NoNode && a.tree.Nodes[callee].Kind == syntax.Ident && allocFuncs[a.tree.Nodes[callee].Name]
	}
	return false
}

func (a *analysis) recordAlloc(slot int, e syntax.NodeID) {
	if !a.report {
		return
	}
	if _, ok := a.allocs[slot]; !ok {
		a.allocs[slot] = allocSite{node: e, span: a.anchor}
	}
}

// refine applies a branch outcome to the pointer states. It returns false
// when the outcome contradicts what is known.
func (a *analysis) refine(st *state, cond syntax.NodeID, truth bool) bool {
	c := a.tree.Unparen(cond)
	if c == syntax.NoNode {
		return true
	}
	n := a.tree.Node(c)
	switch n.Kind {
	case syntax.Ident:
		if slot, _, ok := a.pointerSlot(c); ok {
			return setNonNull(st, slot, truth)
		}
	case syntax.Unary:
		if n.Op == "!" {
			return a.refine(st, a.tree.Child(c, 0), !truth)
		}
	case syntax.Binary:
		lhs, rhs := a.tree.Child(c, 0), a.tree.Child(c, 1)
		switch n.Op {
		case "&&":
			if truth {
				return a.refine(st, lhs, true) && a.refine(st, rhs, true)
			}
		case "||":
			if !truth {
				return a.refine(st, lhs, false) && a.refine(st, rhs, false)
			}
		case "==", "!=":
			ptr := lhs
			if a.isNullLiteral(lhs) {
				ptr = rhs
			} else if !a.isNullLiteral(rhs) {
				return true
			}
			if slot, _, ok := a.pointerSlot(ptr); ok {
				return setNonNull(st, slot, (n.Op == "!=") == truth)
			}
		}
	}
	return true
}

func (a *analysis) isNullLiteral(e syntax.NodeID) bool {
	e = a.tree.Unparen(e)
	if e == syntax.NoNode || a.tree.Nodes[e].Kind != syntax.Literal {
		return false
	}
	if a.tree.Nodes[e].Has(syntax.FlagNull) {
		return true
	}
	v, ok := a.tree.IntValue(e)
	return ok && v == 0 && a.tree.Nodes[e].Has(syntax.FlagNumber)
}

func setNonNull(st *state, slot int, nonNull bool) bool {
	switch cur := st.ptr[slot]; {
	case nonNull && cur == PtrNull, !nonNull && cur == PtrValid:
		return false
	case nonNull && cur != PtrFreed:
		st.ptr[slot] = PtrValid
	case !nonNull:
		st.ptr[slot] = PtrNull
	}
	return true
}

// checkLeaks reports locals that own an allocation at function exit and
// never release or hand it off.
func (a *analysis) checkLeaks(exit state) {
	slots := maps.Keys(a.allocs)
	slices.Sort(slots)
	for _, slot := range slots {
		if exit.ptr[slot] != PtrValid {
			continue
		}
		sym := a.syms[slot]
		if a.table.Symbol(sym).Kind != symbols.Variable || a.table.Symbol(sym).Static {
			continue
		}
		released, escaped := a.ownership(sym)
		if released || escaped || a.table.AddressTaken(sym) {
			continue
		}
		site := a.allocs[slot]
		a.anchor = site.span
		a.emit(ResourceLeak, site.node, sym)
	}
}

// ownership classifies every use of a pointer in the function.
func (a *analysis) ownership(sym symbols.SymbolID) (released, escaped bool) {
	a.tree.Walk(a.g.Func, func(id syntax.NodeID) bool {
		n := a.tree.Node(id)
		if n.Kind == syntax.Lambda {
			for _, c := range n.Children {
				if a.table.Use(c) == sym {
					escaped = true
				}
			}
			return false
		}
		if n.Kind != syntax.Ident || a.table.Use(id) != sym {
			return true
		}
		child, parent := id, n.Parent
		for parent != syntax.NoNode && a.tree.Nodes[parent].Kind == syntax.Paren {
			child, parent = parent, a.tree.Nodes[parent].Parent
		}
		if parent == syntax.NoNode {
			return true
		}
		p := a.tree.Node(parent)
		switch p.Kind {
		case syntax.Delete:
			released = true
		case syntax.Call:
			callee := a.tree.Unparen(a.tree.Child(parent, 0))
			switch {
			case callee == child:
			case callee != syntax.NoNode && a.tree.Nodes[callee].Kind == syntax.Ident && freeFuncs[a.tree.Nodes[callee].Name]:
				released = true
			default:
				escaped = true
			}
		case syntax.Deref, syntax.Index, syntax.ExprStmt, syntax.If, syntax.While, syntax.DoWhile, syntax.For:
		case syntax.Member:
			if p.Children[0] != child {
				escaped = true
			}
		case syntax.Assign:
			if p.Children[0] != child {
				escaped = true
			}
		case syntax.Unary:
			if p.Op != "!" {
				escaped = true
			}
		case syntax.Binary:
			switch p.Op {
			case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
			default:
				escaped = true
			}
		case syntax.Conditional:
			if p.Children[0] != child {
				escaped = true
			}
		default:
			escaped = true
		}
		return true
	})
	return released, escaped
}

// checkReachability reports the first block of every region of
// unreachable blocks that hold statements.
func (a *analysis) checkReachability() {
	reach := a.g.Reachable()
	covered := roaring.New()
	for _, b := range a.g.Blocks {
		if reach.Contains(uint32(b.ID)) || covered.Contains(uint32(b.ID)) || len(b.Stmts) == 0 {
			continue
		}
		a.cover(b.ID, reach, covered)
		if a.onlyJumps(b) {
			continue
		}
		var span source.Span
		for _, id := range b.Stmts {
			span = span.Union(a.anchorOf(id))
		}
		a.anchor = span
		a.emit(UnreachableCode, b.Stmts[0], symbols.NoSymbol)
	}
}

func (a *analysis) cover(from cfg.BlockID, reach, covered *roaring.Bitmap) {
	queue := []cfg.BlockID{from}
	covered.Add(uint32(from))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range a.g.Blocks[id].Succs {
			if !reach.Contains(uint32(e.To)) && covered.CheckedAdd(uint32(e.To)) {
				queue = append(queue, e.To)
			}
		}
	}
}

// onlyJumps reports blocks holding nothing but a break, such as the break
// after a return inside a case.
func (a *analysis) onlyJumps(b *cfg.Block) bool {
	for _, id := range b.Stmts {
		switch a.tree.Nodes[id].Kind {
		case syntax.Break, syntax.Empty:
		default:
			return false
		}
	}
	return true
}

// checkLoops reports constant-true loops that no reachable edge leaves.
func (a *analysis) checkLoops() {
	reach := a.g.Reachable()
	for _, loop := range a.g.Loops {
		if !loop.Forever || !reach.Contains(uint32(loop.Header)) {
			continue
		}
		blocks := roaring.New()
		blocks.AddRange(uint64(loop.First), uint64(loop.Last)+1)
		blocks.And(reach)
		leaves := false
		it := blocks.Iterator()
		for it.HasNext() && !leaves {
			for _, e := range a.g.Blocks[it.Next()].Succs {
				if !blocks.Contains(uint32(e.To)) {
					leaves = true
					break
				}
			}
		}
		if leaves {
			continue
		}
		a.anchor = a.tree.Nodes[loop.Node].Span
		a.emit(InfiniteLoop, loop.Node, symbols.NoSymbol)
	}
}
