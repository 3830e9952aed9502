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
package compiler

// binding is one lexical name's slot and compile-time kind/ownership.
type binding struct {
	name      string
	slot      int
	kind      ValueKind
	heapOwned bool
}

// CompileContext is the lexical scope chain: an insertion-ordered name to
// slot map (so FreeLocal emission order matches declaration order),
// separate param-name tracking, and an outer link for nested function
// bodies (fn/defn bodies cannot see an enclosing function's locals by
// design, only their own params — see Lookup).
type CompileContext struct {
	outer      *CompileContext
	bindings   []binding
	params     []string
	nextSlot   int
	isFunction bool
}

func NewRootContext() *CompileContext {
	return &CompileContext{}
}

// NewFunctionScope opens a fresh, isolated context for a fn/defn body:
// SLisp has no closures over mutable captures, so a function body only
// resolves its own parameters and locals, never an enclosing let's slots.
func (c *CompileContext) NewFunctionScope(params []string) *CompileContext {
	return &CompileContext{outer: c, params: params, isFunction: true}
}

// AddVariable reserves a fresh slot for name in the current scope. Name
// reuse within the same scope (shadowing) is rejected by the let compile
// rule before this is called.
func (c *CompileContext) AddVariable(name string, kind ValueKind, heapOwned bool) int {
	slot := c.nextSlot
	c.nextSlot++
	c.bindings = append(c.bindings, binding{name: name, slot: slot, kind: kind, heapOwned: heapOwned})
	return slot
}

// RemoveLast pops n most-recently-added bindings, used once their scope's
// FreeLocal instructions have been emitted.
func (c *CompileContext) RemoveLast(n int) {
	c.bindings = c.bindings[:len(c.bindings)-n]
}

// IsBoundHere reports whether name is already bound in this exact scope
// (not an outer one) — the `let` rule's shadowing check.
func (c *CompileContext) IsBoundHere(name string) bool {
	for _, b := range c.bindings {
		if b.name == name {
			return true
		}
	}
	return false
}

// Lookup resolves name to a local slot within the current function scope
// (walking let-nesting, not function nesting), or to a parameter index.
// ok is false for an unresolved name (UnknownSymbol).
func (c *CompileContext) Lookup(name string) (slot int, kind ValueKind, heapOwned, isParam bool, ok bool) {
	for i := len(c.bindings) - 1; i >= 0; i-- {
		b := c.bindings[i]
		if b.name == name {
			return b.slot, b.kind, b.heapOwned, false, true
		}
	}
	for i, p := range c.params {
		if p == name {
			return i, KindAny, false, true, true
		}
	}
	return 0, 0, false, false, false
}

func (c *CompileContext) LocalCount() int {
	return c.nextSlot
}

func (c *CompileContext) ParamCount() int {
	return len(c.params)
}
