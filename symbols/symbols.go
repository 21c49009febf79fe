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

// Package symbols resolves declarations and identifier uses of a syntax
// tree into a table of scopes and symbols.
package symbols

import (
	"github.com/RoaringBitmap/roaring/v2"

	"naive.systems/cxxlint/source"
	"naive.systems/cxxlint/syntax"
)

type SymbolID int32

const NoSymbol SymbolID = -1

type ScopeID int32

const NoScope ScopeID = -1

type Kind uint8

const (
	Variable Kind = iota
	Parameter
	Field
	Function
	Class
	Namespace
	Enumerator
)

func (k Kind) String() string {
	return [...]string{"variable", "parameter", "field", "function", "class", "namespace", "enumerator"}[k]
}

// InitState is the initialization state of a variable at its declaration.
type InitState uint8

const (
	Uninitialized InitState = iota
	Initialized
	MaybeInitialized
	Unknown
)

func (s InitState) String() string {
	return [...]string{"uninitialized", "initialized", "maybe-initialized", "unknown"}[s]
}

type Symbol struct {
	ID       SymbolID
	Name     string
	Kind     Kind
	Decl     syntax.NodeID // declaring node
	Span     source.Span   // span of the declared name
	Scope    ScopeID
	Func     syntax.NodeID // enclosing function definition, NoNode outside functions
	Type     syntax.TypeRef
	Init     InitState
	Pointer  bool
	Array    bool
	ArrayLen int
	Dims     []int // bound of every dimension, -1 if unknown
	Static   bool
	Shadows  SymbolID // symbol of an enclosing scope hidden by this one
}

// IsLocal reports whether the symbol is a variable with automatic storage.
func (s *Symbol) IsLocal() bool {
	return s.Kind == Variable && s.Func != syntax.NoNode && !s.Static
}

type ScopeKind uint8

const (
	GlobalScope ScopeKind = iota
	NamespaceScope
	ClassScope
	FunctionScope
	BlockScope
)

type Scope struct {
	ID      ScopeID
	Parent  ScopeID
	Kind    ScopeKind
	Node    syntax.NodeID
	Symbols []SymbolID
	names   map[string]SymbolID
}

// Table holds every scope and symbol of one translation unit. It is
// immutable once Build returns.
type Table struct {
	Scopes  []Scope
	Symbols []Symbol

	uses      map[syntax.NodeID]SymbolID
	decls     map[syntax.NodeID]SymbolID
	classes   map[string]ScopeID
	reads     *roaring.Bitmap
	writes    *roaring.Bitmap
	addrTaken *roaring.Bitmap
}

func (t *Table) Symbol(id SymbolID) *Symbol {
	return &t.Symbols[id]
}

// Use returns the symbol an Ident node refers to, or NoSymbol.
func (t *Table) Use(node syntax.NodeID) SymbolID {
	if id, ok := t.uses[node]; ok {
		return id
	}
	return NoSymbol
}

// Declared returns the symbol declared by a VarDecl, Param, Function or
// Class node, or NoSymbol.
func (t *Table) Declared(node syntax.NodeID) SymbolID {
	if id, ok := t.decls[node]; ok {
		return id
	}
	return NoSymbol
}

// IsRead reports whether the value of the symbol is read anywhere.
func (t *Table) IsRead(id SymbolID) bool {
	return t.reads.Contains(uint32(id))
}

// IsWritten reports whether the symbol is assigned after its declaration.
func (t *Table) IsWritten(id SymbolID) bool {
	return t.writes.Contains(uint32(id))
}

// AddressTaken reports whether &x appears for the symbol.
func (t *Table) AddressTaken(id SymbolID) bool {
	return t.addrTaken.Contains(uint32(id))
}

// Lookup resolves name from scope outwards.
func (t *Table) Lookup(scope ScopeID, name string) SymbolID {
	for scope != NoScope {
		s := &t.Scopes[scope]
		if id, ok := s.names[name]; ok {
			return id
		}
		scope = s.Parent
	}
	return NoSymbol
}

// Locals returns the local variables and parameters of a function in
// declaration order.
func (t *Table) Locals(fn syntax.NodeID) []SymbolID {
	var out []SymbolID
	for i := range t.Symbols {
		s := &t.Symbols[i]
		if s.Func == fn && (s.Kind == Variable || s.Kind == Parameter) {
			out = append(out, s.ID)
		}
	}
	return out
}
