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

import (
	"github.com/launix-de/slisp/internal/ast"
	"github.com/launix-de/slisp/internal/ir"
)

// compileLet ports original_source/src/compiler/bindings.rs's
// compile_let: exactly 2 arguments (bindings vector, body), bindings must
// be an even-length vector of (symbol, expr) pairs, shadowing a live name
// is rejected, and every heap-owned binding introduced gets exactly one
// FreeLocal in reverse declaration order once the body value is safely
// captured.
func compileLet(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
	if len(args) != 2 {
		return CompileResult{}, &ArityError{Name: "let", Expected: "2", Got: len(args)}
	}
	bindingsVec := args[0]
	body := args[1]
	if !bindingsVec.IsVector() {
		return CompileResult{}, &InvalidExpressionError{Message: "let bindings must be a vector"}
	}
	if len(bindingsVec.Children)%2 != 0 {
		return CompileResult{}, &InvalidExpressionError{Message: "let bindings vector must have an even number of elements"}
	}

	introduced := 0
	var ownedSlots []int
	for i := 0; i+1 < len(bindingsVec.Children); i += 2 {
		nameNode := bindingsVec.Children[i]
		valueNode := bindingsVec.Children[i+1]
		if !nameNode.IsSymbol() {
			return CompileResult{}, &InvalidExpressionError{Message: "let binding name must be a symbol"}
		}
		name := nameNode.Symbol
		if ctx.IsBoundHere(name) {
			return CompileResult{}, &InvalidExpressionError{Message: "let does not support shadowing: " + name + " is already bound"}
		}

		res, err := c.compileNode(ctx, valueNode)
		if err != nil {
			return CompileResult{}, err
		}
		heapOwned := res.Ownership == OwnershipOwned && res.Kind.IsHeapKind()
		if res.Ownership == OwnershipBorrowed && res.Kind.IsHeapCloneKind() {
			// A Borrowed heap-kind value flowing into a store must be
			// cloned so the new binding owns independent storage.
			c.Program.Add(ir.RuntimeCall("_string_clone", 1))
			heapOwned = true
		}

		slot := ctx.AddVariable(name, res.Kind, heapOwned)
		c.Program.Add(ir.StoreLocal(slot))
		introduced++
		if heapOwned {
			ownedSlots = append(ownedSlots, slot)
		}
	}

	bodyRes, err := c.compileNode(ctx, body)
	if err != nil {
		return CompileResult{}, err
	}
	// If the body's final expression is itself a bound name that would
	// otherwise be freed below, clone it first so the returned value
	// survives the FreeLocal loop.
	if body.IsSymbol() {
		if _, _, heapOwned, _, ok := ctx.Lookup(body.Symbol); ok && heapOwned {
			c.Program.Add(ir.RuntimeCall("_string_clone", 1))
			bodyRes.Ownership = OwnershipOwned
		}
	}

	for i := len(ownedSlots) - 1; i >= 0; i-- {
		c.Program.Add(ir.FreeLocal(ownedSlots[i]))
	}
	ctx.RemoveLast(introduced)

	return bodyRes, nil
}
