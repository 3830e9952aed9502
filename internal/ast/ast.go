/*
Copyright (C) 2026  Carl-Philip Hänsch

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

// Package ast holds the source-level tree: lists, vectors, symbols and
// primitives. Nodes are produced by internal/parser and consumed by
// internal/compiler and internal/eval.
package ast

import "fmt"

// NodeKind discriminates the tagged Node variant.
type NodeKind int

const (
	KindList NodeKind = iota
	KindVector
	KindSymbol
	KindPrimitive
)

// PrimitiveKind discriminates Primitive.
type PrimitiveKind int

const (
	PrimNumber PrimitiveKind = iota
	PrimString
)

// Primitive is a literal number or string carried by a Node.
//
// Number is stored as a signed 64-bit integer. A leading '-' in the
// source is folded into the literal at parse time (see internal/parser),
// not rewritten to a subtraction form.
type Primitive struct {
	Kind   PrimitiveKind
	Number int64
	String string
}

func NewNumberPrimitive(n int64) Primitive {
	return Primitive{Kind: PrimNumber, Number: n}
}

func NewStringPrimitive(s string) Primitive {
	return Primitive{Kind: PrimString, String: s}
}

func (p Primitive) String_() string {
	if p.Kind == PrimNumber {
		return fmt.Sprintf("%d", p.Number)
	}
	return p.String
}

// Node is the AST tagged variant: List/Vector/Symbol/Primitive.
type Node struct {
	Kind      NodeKind
	Children  []Node // List, Vector
	Symbol    string  // Symbol
	Primitive Primitive
}

func NewList(children []Node) Node {
	return Node{Kind: KindList, Children: children}
}

func NewVector(children []Node) Node {
	return Node{Kind: KindVector, Children: children}
}

func NewSymbol(name string) Node {
	return Node{Kind: KindSymbol, Symbol: name}
}

func NewNumber(n int64) Node {
	return Node{Kind: KindPrimitive, Primitive: NewNumberPrimitive(n)}
}

func NewStringNode(s string) Node {
	return Node{Kind: KindPrimitive, Primitive: NewStringPrimitive(s)}
}

func (n Node) IsList() bool      { return n.Kind == KindList }
func (n Node) IsVector() bool    { return n.Kind == KindVector }
func (n Node) IsSymbol() bool    { return n.Kind == KindSymbol }
func (n Node) IsPrimitive() bool { return n.Kind == KindPrimitive }

// Head returns the first element of a List, if any.
func (n Node) Head() (Node, bool) {
	if n.Kind != KindList || len(n.Children) == 0 {
		return Node{}, false
	}
	return n.Children[0], true
}

// HeadSymbol returns the textual name of a List's head symbol, if its head
// is a Symbol. Used by the compiler's dispatch table to decide which rule
// handles a call.
func (n Node) HeadSymbol() (string, bool) {
	h, ok := n.Head()
	if !ok || h.Kind != KindSymbol {
		return "", false
	}
	return h.Symbol, true
}
