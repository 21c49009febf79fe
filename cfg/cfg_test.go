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
	"testing"

	"naive.systems/cxxlint/lexer"
	"naive.systems/cxxlint/syntax"
)

func graphOf(t *testing.T, src string) (*syntax.Tree, *Graph) {
	t.Helper()
	tree := syntax.Parse(lexer.Tokenize(src))
	if len(tree.Errors) != 0 {
		t.Fatalf("unexpected parse errors: %v", tree.Errors)
	}
	graphs := BuildAll(tree)
	if len(graphs) != 1 {
		t.Fatalf("expected one graph, got %d", len(graphs))
	}
	return tree, graphs[0]
}

// unreachable returns the unreachable blocks that hold statements.
func unreachable(g *Graph) []*Block {
	reach := g.Reachable()
	var out []*Block
	for _, b := range g.Blocks {
		if !reach.Contains(uint32(b.ID)) && len(b.Stmts) > 0 {
			out = append(out, b)
		}
	}
	return out
}

func hasEdge(b *Block, kind EdgeKind) bool {
	for _, e := range b.Succs {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func TestUnreachableAfterJump(t *testing.T) {
	for _, testCase := range [...]struct {
		src      string
		expected int
	}{
		{"int f(int x) { return x * 2; x += 1; }", 1},
		{"void f() { exit(1); g(); }", 1},
		{"void f() { throw 1; g(); }", 1},
		{"void f() { std::terminate(); }", 0},
		{"void f(int x) { while (x) { break; g(); } }", 1},
		{"void f(int x) { if (x) { return; } g(); }", 0},
		{"void f(int x) { if (x) return; else return; g(); }", 1},
		{"void f() { goto done; g(); done: h(); }", 1},
	} {
		_, g := graphOf(t, testCase.src)
		if got := len(unreachable(g)); got != testCase.expected {
			t.Errorf("unexpected result for %v. got: %v. expected: %v.\n%v", testCase.src, got, testCase.expected, g)
		}
	}
}

func TestLoops(t *testing.T) {
	for _, testCase := range [...]struct {
		src      string
		forever  bool
		hasFalse bool
	}{
		{"void f() { while (true) {} }", true, false},
		{"void f() { while (1) {} }", true, false},
		{"void f(int n) { while (n) { n--; } }", false, true},
		{"void f() { for (;;) {} }", true, false},
		{"void f(int n) { for (int i = 0; i < n; i++) {} }", false, true},
		{"void f() { do { g(); } while (true); }", true, false},
		{"void f(const std::vector<int>& v) { for (int x : v) { g(x); } }", false, true},
	} {
		_, g := graphOf(t, testCase.src)
		if len(g.Loops) != 1 {
			t.Errorf("unexpected result for %v. got: %v loops. expected: 1.", testCase.src, len(g.Loops))
			continue
		}
		loop := g.Loops[0]
		if loop.Forever != testCase.forever {
			t.Errorf("unexpected result for %v. got forever: %v. expected: %v.", testCase.src, loop.Forever, testCase.forever)
		}
		header := g.Block(loop.Header)
		if got := hasEdge(header, False); got != testCase.hasFalse {
			t.Errorf("unexpected result for %v. got false edge: %v. expected: %v.\n%v", testCase.src, got, testCase.hasFalse, g)
		}
		back := false
		for _, b := range g.Blocks {
			for _, e := range b.Succs {
				if e.Kind == LoopBack && loop.Contains(b.ID) && loop.Contains(e.To) {
					back = true
				}
			}
		}
		if !back {
			t.Errorf("unexpected result for %v. got: no loop-back edge.\n%v", testCase.src, g)
		}
	}
}

func TestBreakLeavesForeverLoop(t *testing.T) {
	_, g := graphOf(t, "void f(int x) { for (;;) { if (x) break; } g(); }")
	loop := g.Loops[0]
	reach := g.Reachable()
	leaves := false
	for _, b := range g.Blocks {
		if !loop.Contains(b.ID) || !reach.Contains(uint32(b.ID)) {
			continue
		}
		for _, e := range b.Succs {
			if !loop.Contains(e.To) {
				leaves = true
			}
		}
	}
	if !leaves {
		t.Errorf("unexpected result for break. got: no edge leaves the loop.\n%v", g)
	}
	if len(unreachable(g)) != 0 {
		t.Errorf("unexpected result for code after loop. got: unreachable.\n%v", g)
	}
}

func TestIfElseEdges(t *testing.T) {
	_, g := graphOf(t, "int f(int x) { int y = 0; if (x > 0) { y = 1; } else { y = 2; } return y; }")
	entry := g.Block(g.Entry)
	if entry.Cond == syntax.NoNode {
		t.Fatalf("unexpected result for entry. got: no condition.\n%v", g)
	}
	if !hasEdge(entry, True) || !hasEdge(entry, False) {
		t.Errorf("unexpected result for entry edges. got: %v. expected: true and false.", entry.Succs)
	}
	then, els := g.Block(entry.Succs[0].To), g.Block(entry.Succs[1].To)
	if len(then.Succs) != 1 || len(els.Succs) != 1 || then.Succs[0].To != els.Succs[0].To {
		t.Errorf("unexpected result for join. got: %v and %v.\n%v", then.Succs, els.Succs, g)
	}
}

func TestSwitchCases(t *testing.T) {
	_, g := graphOf(t, "int f(int x) { switch (x) { case 1: return 1; case 2: x++; default: break; } return x; }")
	entry := g.Block(g.Entry)
	cases := 0
	for _, e := range entry.Succs {
		if e.Kind == True {
			cases++
		}
	}
	if cases != 3 {
		t.Errorf("unexpected result for case edges. got: %v. expected: 3.\n%v", cases, g)
	}
	if hasEdge(entry, False) {
		t.Errorf("unexpected result for switch with default. got: an edge past the switch.")
	}
	if n := len(unreachable(g)); n != 0 {
		t.Errorf("unexpected result for unreachable. got: %v. expected: 0.\n%v", n, g)
	}
}

func TestGraphsAreSelfContained(t *testing.T) {
	src := `
int a(int x) { for (int i = 0; i < x; i++) { if (i == 3) continue; x--; } return x; }
int b(int x) { try { x++; } catch (const std::exception& e) { return 0; } catch (...) {} return x; }
void c();
void d() { int v = 1; do { v++; } while (v < 10); }
`
	tree := syntax.Parse(lexer.Tokenize(src))
	graphs := BuildAll(tree)
	if len(graphs) != 3 {
		t.Fatalf("unexpected result for graphs. got: %v. expected: 3.", len(graphs))
	}
	for _, g := range graphs {
		for _, b := range g.Blocks {
			for _, e := range b.Succs {
				if e.To < 0 || int(e.To) >= len(g.Blocks) || g.Blocks[e.To] == nil {
					t.Errorf("graph %s: edge b%d -> b%d leaves the graph", g.Name, b.ID, e.To)
				}
			}
		}
		if !g.Reachable().Contains(uint32(g.Exit)) {
			t.Errorf("graph %s: exit unreachable\n%v", g.Name, g)
		}
	}
}
