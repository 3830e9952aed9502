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

// Package eval is the tree-walking reference oracle: a direct interpreter
// over ast.Node that the test suite cross-checks compiled output against,
// per top-level form. It has no heap-ownership analysis and no IR — a
// Value owns whatever it points to, Go's garbage collector tracks it, and
// that's the whole memory story, intentionally simpler than the compiled
// path's ownership lattice.
package eval

import (
	"fmt"

	"github.com/launix-de/slisp/internal/ast"
)

// Kind discriminates Value's active field, standing in for a Rust enum's
// variant tag.
type Kind int

const (
	KindNil Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindKeyword
	KindVector
	KindSet
	KindMap
	KindFunction
)

// Value is the evaluator's runtime value: closed set { Nil, Boolean,
// Number, String, Keyword, Vector, Set, Map, Function }.
type Value struct {
	Kind Kind

	Bool   bool
	Number int64
	Str    string // String and Keyword both use this

	Items []Value // Vector and Set
	Keys  []Value // Map
	Vals  []Value // Map

	Fn *Function
}

// Function is a closure-free user-defined function: its body sees only
// its own parameters and globals, never an enclosing call's locals,
// matching the compiler's no-closures rule.
type Function struct {
	Name   string
	Params []string
	Body   ast.Node
}

func Nil() Value            { return Value{Kind: KindNil} }
func Bool(b bool) Value     { return Value{Kind: KindBoolean, Bool: b} }
func Num(n int64) Value     { return Value{Kind: KindNumber, Number: n} }
func Str(s string) Value    { return Value{Kind: KindString, Str: s} }
func Keyword(s string) Value { return Value{Kind: KindKeyword, Str: s} }
func Vector(items []Value) Value { return Value{Kind: KindVector, Items: items} }
func Set(items []Value) Value    { return Value{Kind: KindSet, Items: items} }
func Map(keys, vals []Value) Value {
	return Value{Kind: KindMap, Keys: keys, Vals: vals}
}

// IsTruthy implements the evaluator's truthiness: false and nil are
// false; numeric 0 is false; empty strings/vectors/sets/maps are false;
// everything else is true.
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBoolean:
		return v.Bool
	case KindNumber:
		return v.Number != 0
	case KindString, KindKeyword:
		return v.Str != ""
	case KindVector, KindSet:
		return len(v.Items) > 0
	case KindMap:
		return len(v.Keys) > 0
	case KindFunction:
		return true
	}
	return true
}

// Equal is structural equality across same-variant values; cross-variant
// comparisons are false except Nil=Nil.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNil:
		return true
	case KindBoolean:
		return a.Bool == b.Bool
	case KindNumber:
		return a.Number == b.Number
	case KindString, KindKeyword:
		return a.Str == b.Str
	case KindVector, KindSet:
		if len(a.Items) != len(b.Items) {
			return false
		}
		if a.Kind == KindSet {
			for _, x := range a.Items {
				if !containsValue(b.Items, x) {
					return false
				}
			}
			return true
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.Keys) != len(b.Keys) {
			return false
		}
		for i, k := range a.Keys {
			bv, ok := mapGet(b, k)
			if !ok || !Equal(a.Vals[i], bv) {
				return false
			}
		}
		return true
	}
	return false
}

func containsValue(items []Value, v Value) bool {
	for _, x := range items {
		if Equal(x, v) {
			return true
		}
	}
	return false
}

func mapGet(m Value, key Value) (Value, bool) {
	for i, k := range m.Keys {
		if Equal(k, key) {
			return m.Vals[i], true
		}
	}
	return Value{}, false
}

// String renders v the way `str`/print render values, mirroring
// original_source's value_to_string.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return ""
	case KindBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return fmt.Sprintf("%d", v.Number)
	case KindString:
		return v.Str
	case KindKeyword:
		return v.Str
	case KindVector:
		return joinItems("[", v.Items, "]")
	case KindSet:
		return joinItems("#{", v.Items, "}")
	case KindMap:
		out := "{"
		for i, k := range v.Keys {
			if i > 0 {
				out += " "
			}
			out += k.String() + " " + v.Vals[i].String()
		}
		return out + "}"
	case KindFunction:
		return "#<function " + v.Fn.Name + ">"
	}
	return ""
}

func joinItems(open string, items []Value, close string) string {
	out := open
	for i, it := range items {
		if i > 0 {
			out += " "
		}
		out += it.String()
	}
	return out + close
}
