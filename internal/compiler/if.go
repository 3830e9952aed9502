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

// compileIf handles arity 2 or 3: test, JumpIfZero to else, then-branch,
// Jump to end, else-label, else-branch (or a nil push), end-label. Both
// branches' ownership is joined by HeapOwnership.Combine; when they
// disagree the result is forced Owned. The result is left on the stack;
// it is not materialized into a local.
func compileIf(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
	if len(args) != 2 && len(args) != 3 {
		return CompileResult{}, &ArityError{Name: "if", Expected: "2 or 3", Got: len(args)}
	}

	if _, err := c.compileNode(ctx, args[0]); err != nil {
		return CompileResult{}, err
	}
	jumpToElse := c.Program.Add(ir.JumpIfZero(0))

	thenRes, err := c.compileNode(ctx, args[1])
	if err != nil {
		return CompileResult{}, err
	}
	jumpToEnd := c.Program.Add(ir.Jump(0))

	elseTarget := c.Program.Len()
	c.Program.PatchTarget(jumpToElse, elseTarget)

	var elseRes CompileResult
	if len(args) == 3 {
		elseRes, err = c.compileNode(ctx, args[2])
		if err != nil {
			return CompileResult{}, err
		}
	} else {
		c.Program.Add(ir.Push(0))
		elseRes = CompileResult{Kind: KindNil, Ownership: OwnershipNone}
	}

	endTarget := c.Program.Len()
	c.Program.PatchTarget(jumpToEnd, endTarget)

	kind := thenRes.Kind
	if thenRes.Kind != elseRes.Kind {
		kind = KindAny
	}

	ownership := thenRes.Ownership.Combine(elseRes.Ownership)
	if thenRes.Ownership != elseRes.Ownership {
		// The generic lattice (HeapOwnership.Combine) collapses any
		// disagreement to Borrowed, which is correct when joining two
		// already-computed classifications (e.g. a map's per-key value
		// kinds). The `if` result is different: one of the two branches
		// really did just hand us a fresh heap allocation, so treating
		// it as merely Borrowed would skip freeing it. Per this
		// expression's own rule (not the generic lattice), a disagreement
		// is instead forced to Owned; kind degrades to Any, so only a
		// genuinely heap-producing branch is ever actually freed by the
		// caller (c.freeOwned/FreeLocal both gate on Kind.IsHeapKind()).
		ownership = OwnershipOwned
	}
	return CompileResult{Kind: kind, Ownership: ownership}, nil
}
