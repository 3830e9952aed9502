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

// compileFunctionDef handles both `(fn [params] body)` (anonymous, only
// valid at top level in this AOT subset — SLisp has no closures, so an
// anonymous fn is only meaningful as an immediately-registered definition)
// and `(defn name [params] body)`. Parameters become LoadParam slots; the
// body compiles like a let body; Return is appended; DefineFunction
// brackets the function's span in the IR stream.
func (c *Compiler) compileFunctionDef(ctx *CompileContext, n ast.Node) (CompileResult, error) {
	children := n.Children
	head := children[0].Symbol
	rest := children[1:]

	var name string
	var paramsNode ast.Node
	var body ast.Node

	if head == "defn" {
		if len(rest) != 3 {
			return CompileResult{}, &ArityError{Name: "defn", Expected: "3", Got: len(rest)}
		}
		if !rest[0].IsSymbol() {
			return CompileResult{}, &InvalidExpressionError{Message: "defn name must be a symbol"}
		}
		name = rest[0].Symbol
		paramsNode = rest[1]
		body = rest[2]
	} else {
		if len(rest) != 2 {
			return CompileResult{}, &ArityError{Name: "fn", Expected: "2", Got: len(rest)}
		}
		name = "__anon"
		paramsNode = rest[0]
		body = rest[1]
	}

	if !paramsNode.IsVector() {
		return CompileResult{}, &InvalidExpressionError{Message: "function parameter list must be a vector"}
	}
	params := make([]string, 0, len(paramsNode.Children))
	for _, p := range paramsNode.Children {
		if !p.IsSymbol() {
			return CompileResult{}, &InvalidExpressionError{Message: "function parameters must be symbols"}
		}
		params = append(params, p.Symbol)
	}

	entryIndex := c.Program.Len()
	defineIdx := c.Program.Add(ir.DefineFunction(name, len(params), 0))

	fnCtx := ctx.NewFunctionScope(params)
	bodyRes, err := c.compileNode(fnCtx, body)
	if err != nil {
		return CompileResult{}, err
	}
	c.Program.Add(ir.Return())

	bodyLen := c.Program.Len() - defineIdx - 1
	c.Program.Instructions[defineIdx].Args = bodyLen

	c.Program.AddFunction(ir.FunctionInfo{
		Name:       name,
		ParamCount: len(params),
		LocalCount: fnCtx.LocalCount(),
		EntryIndex: entryIndex,
	})

	c.functions[name] = functionSignature{
		paramCount: len(params),
		returnKind: bodyRes.Kind,
		returnHeap: bodyRes.Ownership == OwnershipOwned && bodyRes.Kind.IsHeapKind(),
	}

	return CompileResult{Kind: KindNil, Ownership: OwnershipNone}, nil
}
