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

package symbols

import (
	"reflect"
	"testing"

	"naive.systems/cxxlint/lexer"
	"naive.systems/cxxlint/syntax"
)

func build(t *testing.T, src string) (*syntax.Tree, *Table) {
	t.Helper()
	tree := syntax.Parse(lexer.Tokenize(src))
	if len(tree.Errors) != 0 {
		t.Fatalf("unexpected parse errors: %v", tree.Errors)
	}
	return tree, Build(tree)
}

func find(table *Table, name string) []*Symbol {
	var out []*Symbol
	for i := range table.Symbols {
		if table.Symbols[i].Name == name {
			out = append(out, &table.Symbols[i])
		}
	}
	return out
}

func only(t *testing.T, table *Table, name string) *Symbol {
	t.Helper()
	syms := find(table, name)
	if len(syms) != 1 {
		t.Fatalf("expected one symbol named %s, got %d", name, len(syms))
	}
	return syms[0]
}

func TestInitStates(t *testing.T) {
	_, table := build(t, `
int g;
void f(int p) {
  int a;
  int b = 1;
  int* c;
  int arr[3];
  std::string s;
  static int k;
  int& r = b;
}
`)
	for _, testCase := range [...]struct {
		name     string
		kind     Kind
		expected InitState
	}{
		{"g", Variable, Initialized},
		{"p", Parameter, Initialized},
		{"a", Variable, Uninitialized},
		{"b", Variable, Initialized},
		{"c", Variable, Uninitialized},
		{"arr", Variable, Unknown},
		{"s", Variable, Initialized},
		{"k", Variable, Initialized},
		{"r", Variable, Initialized},
	} {
		sym := only(t, table, testCase.name)
		if sym.Kind != testCase.kind || sym.Init != testCase.expected {
			t.Errorf("unexpected result for %v. got: %v %v. expected: %v %v.", testCase.name, sym.Kind, sym.Init, testCase.kind, testCase.expected)
		}
	}
	if c := only(t, table, "c"); !c.Pointer {
		t.Errorf("unexpected result for c. got: not a pointer. expected: pointer.")
	}
	if arr := only(t, table, "arr"); !arr.Array || arr.ArrayLen != 3 || !reflect.DeepEqual(arr.Dims, []int{3}) {
		t.Errorf("unexpected result for arr. got: %v %v %v. expected: true 3 [3].", arr.Array, arr.ArrayLen, arr.Dims)
	}
	if g := only(t, table, "g"); g.IsLocal() {
		t.Errorf("unexpected result for g. got: local. expected: global.")
	}
}

func TestShadowing(t *testing.T) {
	_, table := build(t, `
void f(int x) {
  int y = x;
  {
    int y = 2;
    use(y);
  }
  use(y);
}
`)
	ys := find(table, "y")
	if len(ys) != 2 {
		t.Fatalf("expected two symbols named y, got %d", len(ys))
	}
	if ys[0].Shadows != NoSymbol {
		t.Errorf("unexpected result for outer y. got: %v. expected: %v.", ys[0].Shadows, NoSymbol)
	}
	if ys[1].Shadows != ys[0].ID {
		t.Errorf("unexpected result for inner y. got: %v. expected: %v.", ys[1].Shadows, ys[0].ID)
	}
	if ys[0].Scope == ys[1].Scope {
		t.Errorf("unexpected result for scopes. got: same scope. expected: nested scopes.")
	}
}

func TestReadsAndWrites(t *testing.T) {
	_, table := build(t, `
void f() {
  int a = 1;
  int b;
  b = 2;
  int c = 3;
  c += 1;
  int d = 4;
  g(&d);
  int e = 0;
  e++;
}
`)
	for _, testCase := range [...]struct {
		name                 string
		read, written, taken bool
	}{
		{"a", false, false, false},
		{"b", false, true, false},
		{"c", true, true, false},
		{"d", true, false, true},
		{"e", true, true, false},
	} {
		sym := only(t, table, testCase.name)
		got := [3]bool{table.IsRead(sym.ID), table.IsWritten(sym.ID), table.AddressTaken(sym.ID)}
		expected := [3]bool{testCase.read, testCase.written, testCase.taken}
		if got != expected {
			t.Errorf("unexpected result for %v. got: %v. expected: %v.", testCase.name, got, expected)
		}
	}
}

func TestMembersResolve(t *testing.T) {
	tree, table := build(t, `
class Counter {
 public:
  void bump() { count_++; }
  int get() const;
 private:
  int count_;
};
int Counter::get() const { return count_; }
`)
	field := only(t, table, "count_")
	if field.Kind != Field {
		t.Fatalf("unexpected result for count_. got: %v. expected: %v.", field.Kind, Field)
	}
	uses := 0
	tree.Walk(tree.Root, func(id syntax.NodeID) bool {
		n := tree.Node(id)
		if n.Kind == syntax.Ident && n.Name == "count_" {
			if table.Use(id) != field.ID {
				t.Errorf("unexpected result for use at %v. got: %v. expected: %v.", n.Span, table.Use(id), field.ID)
			}
			uses++
		}
		return true
	})
	if uses != 2 {
		t.Errorf("unexpected result for uses of count_. got: %v. expected: 2.", uses)
	}
}

func TestEnumerators(t *testing.T) {
	tree, table := build(t, `
enum Color { kRed, kGreen = 2, kBlue };
int f() { return kGreen; }
`)
	for _, name := range []string{"kRed", "kGreen", "kBlue"} {
		if sym := only(t, table, name); sym.Kind != Enumerator {
			t.Errorf("unexpected result for %v. got: %v. expected: %v.", name, sym.Kind, Enumerator)
		}
	}
	tree.Walk(tree.Root, func(id syntax.NodeID) bool {
		n := tree.Node(id)
		if n.Kind == syntax.Ident && n.Name == "kGreen" && table.Use(id) == NoSymbol {
			t.Errorf("unexpected result for use of kGreen. got: unresolved.")
		}
		return true
	})
}

func TestLocals(t *testing.T) {
	tree, table := build(t, "int f(int a, int b) { int c = a + b; for (int i = 0; i < c; i++) {} return c; }\nint h() { int z = 0; return z; }\n")
	var names []string
	for _, id := range table.Locals(tree.Functions[0]) {
		names = append(names, table.Symbol(id).Name)
	}
	expected := []string{"a", "b", "c", "i"}
	if len(names) != len(expected) {
		t.Fatalf("unexpected result for locals. got: %v. expected: %v.", names, expected)
	}
	for i := range names {
		if names[i] != expected[i] {
			t.Errorf("unexpected result for locals. got: %v. expected: %v.", names, expected)
			break
		}
	}
	for _, scope := range table.Scopes {
		if scope.Parent != NoScope && int(scope.Parent) >= len(table.Scopes) {
			t.Errorf("scope %v has dangling parent %v", scope.ID, scope.Parent)
		}
	}
}
