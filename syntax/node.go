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

package syntax

import (
	"fmt"

	"naive.systems/cxxlint/lexer"
	"naive.systems/cxxlint/source"
)

// NodeID addresses a node in Tree.Nodes.
type NodeID int32

const NoNode NodeID = -1

type Kind uint8

const (
	TranslationUnit Kind = iota
	Namespace
	Class
	AccessLabel
	Function
	ParamList
	Param
	VarDecl
	Enum
	Template
	Opaque // declaration the analysis does not model (using, typedef, ...)
	Error  // placeholder for a missing or malformed construct

	Block
	DeclStmt
	ExprStmt
	If
	While
	DoWhile
	For
	RangeFor
	Switch
	Case
	Default
	Return
	Break
	Continue
	Goto
	Label
	Try
	Catch
	Empty

	Ident
	Literal
	Unary
	Deref
	AddrOf
	Postfix
	Binary
	Assign
	Conditional
	Call
	Index
	Member
	New
	Delete
	Cast
	InitList
	Lambda
	Paren
	This
	Sizeof
	Throw
)

var kindNames = [...]string{
	TranslationUnit: "TranslationUnit", Namespace: "Namespace", Class: "Class",
	AccessLabel: "AccessLabel", Function: "Function", ParamList: "ParamList",
	Param: "Param", VarDecl: "VarDecl", Enum: "Enum", Template: "Template",
	Opaque: "Opaque", Error: "Error", Block: "Block", DeclStmt: "DeclStmt",
	ExprStmt: "ExprStmt", If: "If", While: "While", DoWhile: "DoWhile", For: "For",
	RangeFor: "RangeFor", Switch: "Switch", Case: "Case", Default: "Default",
	Return: "Return", Break: "Break", Continue: "Continue", Goto: "Goto",
	Label: "Label", Try: "Try", Catch: "Catch", Empty: "Empty", Ident: "Ident",
	Literal: "Literal", Unary: "Unary", Deref: "Deref", AddrOf: "AddrOf",
	Postfix: "Postfix", Binary: "Binary", Assign: "Assign",
	Conditional: "Conditional", Call: "Call", Index: "Index", Member: "Member",
	New: "New", Delete: "Delete", Cast: "Cast", InitList: "InitList",
	Lambda: "Lambda", Paren: "Paren", This: "This", Sizeof: "Sizeof", Throw: "Throw",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsStmt reports whether nodes of kind k appear as statements in a Block.
func (k Kind) IsStmt() bool {
	return k >= Block && k <= Empty
}

type Flags uint16

const (
	FlagArray     Flags = 1 << iota // new[], delete[], array declarator
	FlagStatic                      // static storage
	FlagConst                       // const or constexpr declaration
	FlagField                       // data member of a class
	FlagGlobal                      // namespace-scope variable
	FlagCtorInit                    // member initializer of a constructor
	FlagStruct                      // class declared with struct or union
	FlagDefinition                  // class or function with a body
	FlagNumber                      // literal kinds
	FlagString
	FlagChar
	FlagBool
	FlagNull
)

// TypeRef is the shallow type of a declaration.
type TypeRef struct {
	Name    string // base type spelling, e.g. "int" or "std::string"
	Pointer int    // levels of indirection
	Ref     bool
	Const   bool
	Builtin bool // fundamental or standard scalar typedef
	Auto    bool
}

// IsScalar reports whether values of the type are left indeterminate when a
// local is declared without initializer.
func (t TypeRef) IsScalar() bool {
	return !t.Ref && (t.Pointer > 0 || t.Builtin)
}

func (t TypeRef) String() string {
	s := t.Name
	for i := 0; i < t.Pointer; i++ {
		s += "*"
	}
	if t.Ref {
		s += "&"
	}
	return s
}

// Node is one element of the syntax tree. Child layout depends on Kind:
//
//	Function   ParamList, ctor initializers (Call, FlagCtorInit) ..., Block?
//	VarDecl    initializer?
//	If         cond, then, else?
//	While      cond, body
//	DoWhile    body, cond
//	For        init, cond, post, body (missing parts are NoNode)
//	RangeFor   VarDecl, range, body
//	Switch     cond, body
//	Try        Block, Catch...
//	Catch      Param or NoNode, Block
//	Call       callee, args...
//	Index      base, index
//	Conditional cond, then, else
//	New        array size (FlagArray) or ctor args...
type Node struct {
	Kind     Kind
	Span     source.Span
	Parent   NodeID
	Children []NodeID
	Op       string // operator spelling
	Name     string // identifier, declared name, literal text
	Type     TypeRef
	Flags    Flags
	ArrayLen int   // declared bound of an array declarator, -1 if unknown
	Dims     []int // bound of every array dimension, outermost first, -1 if unknown
	Tok      int   // index of the principal token in Tree.Tokens
}

func (n *Node) Has(f Flags) bool {
	return n.Flags&f != 0
}

type ErrorKind int

const (
	SyntaxError ErrorKind = iota
	UnbalancedDelimiter
)

func (k ErrorKind) String() string {
	if k == UnbalancedDelimiter {
		return "UnbalancedDelimiter"
	}
	return "SyntaxError"
}

// ParseError is a recoverable parse failure.
type ParseError struct {
	Kind    ErrorKind
	Message string
	Span    source.Span
}

func (e ParseError) String() string {
	return fmt.Sprintf("%s %s: %s", e.Span.Start, e.Kind, e.Message)
}

// Tree is an arena of nodes. Parent links are indices, never owners.
type Tree struct {
	Nodes     []Node
	Root      NodeID
	Tokens    []lexer.Token // significant tokens, trivia removed
	Errors    []ParseError
	Functions []NodeID // function definitions in source order
}

func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}

// Child returns the i-th child of id, or NoNode.
func (t *Tree) Child(id NodeID, i int) NodeID {
	n := &t.Nodes[id]
	if i < 0 || i >= len(n.Children) {
		return NoNode
	}
	return n.Children[i]
}

// Body returns the body Block of a function definition, or NoNode for a
// declaration.
func (t *Tree) Body(fn NodeID) NodeID {
	n := &t.Nodes[fn]
	if len(n.Children) < 2 {
		return NoNode
	}
	last := n.Children[len(n.Children)-1]
	if t.Nodes[last].Kind != Block {
		return NoNode
	}
	return last
}

// Params returns the Param nodes of a function.
func (t *Tree) Params(fn NodeID) []NodeID {
	list := t.Child(fn, 0)
	if list == NoNode || t.Nodes[list].Kind != ParamList {
		return nil
	}
	return t.Nodes[list].Children
}

// CtorInits returns the member initializers of a constructor.
func (t *Tree) CtorInits(fn NodeID) []NodeID {
	var inits []NodeID
	for _, c := range t.Nodes[fn].Children {
		if c != NoNode && t.Nodes[c].Has(FlagCtorInit) {
			inits = append(inits, c)
		}
	}
	return inits
}

// Walk visits the subtree rooted at id in pre-order. Returning false from f
// skips the children of the visited node.
func (t *Tree) Walk(id NodeID, f func(id NodeID) bool) {
	if id == NoNode {
		return
	}
	if !f(id) {
		return
	}
	for _, c := range t.Nodes[id].Children {
		t.Walk(c, f)
	}
}

// EnclosingFunction returns the innermost Function ancestor of id.
func (t *Tree) EnclosingFunction(id NodeID) NodeID {
	for id != NoNode {
		if t.Nodes[id].Kind == Function {
			return id
		}
		id = t.Nodes[id].Parent
	}
	return NoNode
}

// EnclosingClass returns the innermost Class ancestor of id.
func (t *Tree) EnclosingClass(id NodeID) NodeID {
	for id = t.Nodes[id].Parent; id != NoNode; id = t.Nodes[id].Parent {
		if t.Nodes[id].Kind == Class {
			return id
		}
	}
	return NoNode
}

// Unparen strips redundant parentheses.
func (t *Tree) Unparen(id NodeID) NodeID {
	for id != NoNode && t.Nodes[id].Kind == Paren {
		id = t.Child(id, 0)
	}
	return id
}

// Dump renders the subtree in an indented debugging format.
func (t *Tree) Dump(id NodeID) string {
	var out []byte
	var rec func(id NodeID, depth int)
	rec = func(id NodeID, depth int) {
		for i := 0; i < depth; i++ {
			out = append(out, ' ', ' ')
		}
		if id == NoNode {
			out = append(out, "<none>\n"...)
			return
		}
		n := &t.Nodes[id]
		out = append(out, n.Kind.String()...)
		if n.Op != "" {
			out = append(out, ' ')
			out = append(out, n.Op...)
		}
		if n.Name != "" {
			out = append(out, ' ')
			out = append(out, n.Name...)
		}
		out = append(out, '\n')
		for _, c := range n.Children {
			rec(c, depth+1)
		}
	}
	rec(id, 0)
	return string(out)
}
