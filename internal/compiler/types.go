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

// Package compiler lowers internal/ast.Node to internal/ir.Program,
// driven by a type/heap-ownership analyzer threaded through every
// compile_node call (the CompileResult below). Primitives are registered
// into one dispatch table (builtins.go) rather than split across
// per-category files with cross-package use chains.
package compiler

import "github.com/launix-de/slisp/internal/runtime"

// ValueKind is the compile-time value classification; its RuntimeTag
// method gives the one-byte tag the runtime/backend use.
type ValueKind int

const (
	KindNil ValueKind = iota
	KindNumber
	KindBoolean
	KindString
	KindVector
	KindMap
	KindKeyword
	KindSet
	KindAny
)

func (k ValueKind) RuntimeTag() runtime.Tag {
	switch k {
	case KindNil:
		return runtime.TagNil
	case KindNumber:
		return runtime.TagNumber
	case KindBoolean:
		return runtime.TagBoolean
	case KindString:
		return runtime.TagString
	case KindVector:
		return runtime.TagVector
	case KindMap:
		return runtime.TagMap
	case KindKeyword:
		return runtime.TagKeyword
	case KindSet:
		return runtime.TagSet
	default:
		return runtime.TagAny
	}
}

// IsHeapKind matches original_source's ValueKind::is_heap_kind: the kinds
// whose runtime representation is a heap pointer requiring a Free.
func (k ValueKind) IsHeapKind() bool {
	switch k {
	case KindString, KindVector, KindMap, KindSet:
		return true
	}
	return false
}

// IsHeapCloneKind matches is_heap_clone_kind: IsHeapKind plus Keyword.
// A keyword literal is compiled as Borrowed, so where a keyword is stored
// (a let binding, a collection element) this predicate makes the compiler
// emit a _string_clone, and a let binding holding that clone is freed by
// FreeLocal like a string.
func (k ValueKind) IsHeapCloneKind() bool {
	return k.IsHeapKind() || k == KindKeyword
}

// HeapOwnership tracks whether the top-of-stack value at a program point
// must be freed by the enclosing scope.
type HeapOwnership int

const (
	OwnershipNone HeapOwnership = iota
	OwnershipBorrowed
	OwnershipOwned
)

// Combine implements the exact lattice from
// original_source/src/compiler/types.rs: Owned⊔Owned=Owned,
// None⊔None=None, any other combination (including Owned mixed with
// anything but Owned) resolves to Borrowed. This must not be
// re-interpreted as None: doing so creates heap leaks on cross-branch
// merges where one `if` arm is Owned and the other is None.
func (a HeapOwnership) Combine(b HeapOwnership) HeapOwnership {
	switch {
	case a == OwnershipOwned && b == OwnershipOwned:
		return OwnershipOwned
	case a == OwnershipNone && b == OwnershipNone:
		return OwnershipNone
	default:
		return OwnershipBorrowed
	}
}

// MapKeyLiteral is the subset of keys known at compile time, usable to
// track per-key map value kinds.
type MapKeyLiteralKind int

const (
	MapKeyString MapKeyLiteralKind = iota
	MapKeyKeyword
	MapKeyNumber
	MapKeyBoolean
	MapKeyNil
)

type MapKeyLiteral struct {
	Kind   MapKeyLiteralKind
	String string // String, Keyword
	Number int64
	Bool   bool
}

// MapValueTypes tracks per-literal-key value kinds for a hash-map
// constructed entirely from compile-time-known keys; nil means the map
// degraded to unknown keys and every `get` must return KindAny.
type MapValueTypes map[MapKeyLiteral]ValueKind

// RetainedSlot records a local that owns heap storage, plus any heap
// children whose lifetime is entailed by it (e.g. a map's values). This
// is strictly a tree: implementations must not build back-references, and
// freeing walks it post-order (dependents first).
type RetainedSlot struct {
	Slot       int
	Key        *MapKeyLiteral
	Kind       ValueKind
	Dependents []RetainedSlot
}

// CompileResult is threaded out of every compile_node call.
type CompileResult struct {
	Kind          ValueKind
	Ownership     HeapOwnership
	MapValueTypes MapValueTypes // non-nil only when Kind == KindMap and keys were all literal
	RetainedSlots []RetainedSlot
}

func (r CompileResult) WithRetainedSlot(s RetainedSlot) CompileResult {
	r.RetainedSlots = append(r.RetainedSlots, s)
	return r
}
