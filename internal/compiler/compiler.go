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

// functionSignature records enough about a defn to compile calls to it
// and to propagate heap ownership of its result.
type functionSignature struct {
	paramCount int
	returnKind ValueKind
	returnHeap bool
}

// Compiler lowers a sequence of top-level forms into one ir.Program. It
// carries the program being built, the global function table, and the
// single primitive dispatch table (see builtins.go) every call-head
// lookup consults before falling back to a user-defined function call.
type Compiler struct {
	Program   *ir.Program
	functions map[string]functionSignature
}

func NewCompiler() *Compiler {
	return &Compiler{
		Program:   ir.NewProgram(),
		functions: make(map[string]functionSignature),
	}
}

// CompileProgram compiles every top-level form. defn forms register
// themselves into the function table as they're compiled, so later forms
// (including later defns) can call earlier ones; forward references
// within the program are not supported, matching the analyzer's one-pass
// design.
func CompileProgram(forms []ast.Node) (*ir.Program, error) {
	c := NewCompiler()
	c.Program.Add(ir.InitHeap())
	root := NewRootContext()
	for _, f := range forms {
		if _, err := c.compileTopLevel(root, f); err != nil {
			return c.Program, err
		}
	}
	c.Program.EntryLocalCount = root.LocalCount()
	return c.Program, nil
}

// compileTopLevel handles a top-level form: defn registers a function,
// anything else compiles as an expression whose value is discarded (the
// driver only cares about side effects and the heap-balance invariant at
// top level, since SLisp has no module-level bindings).
func (c *Compiler) compileTopLevel(ctx *CompileContext, n ast.Node) (CompileResult, error) {
	if head, ok := n.HeadSymbol(); ok && (head == "defn" || head == "fn") {
		return c.compileFunctionDef(ctx, n)
	}
	res, err := c.compileNode(ctx, n)
	if err != nil {
		return CompileResult{}, err
	}
	c.freeOwned(res)
	return res, nil
}

// freeOwned emits FreeLocal-equivalent cleanup for a top-level expression
// result that nothing retains: since the value isn't bound, it is freed
// immediately via Free if it was heap-Owned (there is no slot to drop it
// from, unlike a let body).
func (c *Compiler) freeOwned(res CompileResult) {
	if res.Ownership == OwnershipOwned && res.Kind.IsHeapKind() {
		c.Program.Add(ir.Free())
	}
}

// compileNode is the single recursive entry point every rule in
// builtins.go and the special forms below call back into.
func (c *Compiler) compileNode(ctx *CompileContext, n ast.Node) (CompileResult, error) {
	switch n.Kind {
	case ast.KindPrimitive:
		return c.compilePrimitive(ctx, n)
	case ast.KindSymbol:
		return c.compileSymbol(ctx, n)
	case ast.KindVector:
		return c.compileVectorLiteral(ctx, n)
	case ast.KindList:
		return c.compileList(ctx, n)
	}
	return CompileResult{}, &InternalError{Message: "unreachable node kind"}
}

func (c *Compiler) compilePrimitive(ctx *CompileContext, n ast.Node) (CompileResult, error) {
	if n.Primitive.Kind == ast.PrimNumber {
		c.Program.Add(ir.Push(n.Primitive.Number))
		return CompileResult{Kind: KindNumber, Ownership: OwnershipNone}, nil
	}
	c.Program.Add(ir.PushString([]byte(n.Primitive.String)))
	return CompileResult{Kind: KindString, Ownership: OwnershipOwned}, nil
}

func (c *Compiler) compileSymbol(ctx *CompileContext, n ast.Node) (CompileResult, error) {
	name := n.Symbol
	if len(name) > 0 && name[0] == ':' {
		// Keyword literal: self-evaluating, not a variable reference.
		c.Program.Add(ir.PushString([]byte(name)))
		return CompileResult{Kind: KindKeyword, Ownership: OwnershipBorrowed}, nil
	}
	if name == "true" || name == "false" {
		v := int64(0)
		if name == "true" {
			v = 1
		}
		c.Program.Add(ir.Push(v))
		return CompileResult{Kind: KindBoolean, Ownership: OwnershipNone}, nil
	}
	if name == "nil" {
		c.Program.Add(ir.Push(0))
		return CompileResult{Kind: KindNil, Ownership: OwnershipNone}, nil
	}

	slot, kind, heapOwned, isParam, ok := ctx.Lookup(name)
	if !ok {
		return CompileResult{}, &UnknownSymbolError{Name: name}
	}
	ownership := OwnershipNone
	if heapOwned {
		ownership = OwnershipBorrowed
	}
	if isParam {
		c.Program.Add(ir.LoadParam(slot))
	} else {
		c.Program.Add(ir.LoadLocal(slot))
	}
	return CompileResult{Kind: kind, Ownership: ownership}, nil
}

// compileVectorLiteral handles a bare `[...]` form appearing as an
// expression (not the `let` bindings vector, which the let rule consumes
// directly from the AST without calling this).
func (c *Compiler) compileVectorLiteral(ctx *CompileContext, n ast.Node) (CompileResult, error) {
	for _, child := range n.Children {
		res, err := c.compileNode(ctx, child)
		if err != nil {
			return CompileResult{}, err
		}
		if res.Ownership == OwnershipBorrowed && res.Kind.IsHeapCloneKind() {
			c.Program.Add(ir.RuntimeCall("_string_clone", 1))
		}
	}
	c.Program.Add(ir.RuntimeCall("_vector_new", len(n.Children)))
	return CompileResult{Kind: KindVector, Ownership: OwnershipOwned}, nil
}

func (c *Compiler) compileList(ctx *CompileContext, n ast.Node) (CompileResult, error) {
	if len(n.Children) == 0 {
		return CompileResult{}, &InvalidExpressionError{Message: "empty list is not callable"}
	}
	head, isSymbolHead := n.HeadSymbol()
	if !isSymbolHead {
		return CompileResult{}, &InvalidExpressionError{Message: "call head must be a symbol"}
	}
	args := n.Children[1:]

	switch head {
	case "let":
		return compileLet(c, ctx, args)
	case "if":
		return compileIf(c, ctx, args)
	case "fn", "defn":
		return c.compileFunctionDef(ctx, n)
	}

	if rule, ok := builtins[head]; ok {
		return rule(c, ctx, args)
	}

	return c.compileUserCall(ctx, head, args)
}

func (c *Compiler) compileUserCall(ctx *CompileContext, name string, args []ast.Node) (CompileResult, error) {
	sig, ok := c.functions[name]
	if !ok {
		return CompileResult{}, &UnknownSymbolError{Name: name}
	}
	if len(args) != sig.paramCount {
		return CompileResult{}, &ArityError{Name: name, Expected: itoa(sig.paramCount), Got: len(args)}
	}
	for _, a := range args {
		res, err := c.compileNode(ctx, a)
		if err != nil {
			return CompileResult{}, err
		}
		if res.Ownership == OwnershipBorrowed && res.Kind.IsHeapCloneKind() {
			c.Program.Add(ir.RuntimeCall("_string_clone", 1))
		}
	}
	c.Program.Add(ir.Call(name, len(args)))
	ownership := OwnershipNone
	if sig.returnHeap {
		ownership = OwnershipOwned
	}
	return CompileResult{Kind: sig.returnKind, Ownership: ownership}, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
