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

// builtinRule compiles one call form's arguments and emits its op(s),
// given an already-opened CompileContext.
type builtinRule func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error)

// builtins is the single dispatch table design note 9 calls for: every
// primitive's compile rule lives here, keyed by symbol, instead of being
// split across per-category files that a reimplementation would otherwise
// wire together through cross-module use chains.
var builtins map[string]builtinRule

func init() {
	builtins = make(map[string]builtinRule)
	registerArithmetic(builtins)
	registerComparison(builtins)
	registerLogic(builtins)
	registerCollections(builtins)
	registerStrings(builtins)
	registerPrint(builtins)
}

// compileOperandsOwned compiles each argument left to right, cloning any
// Borrowed heap-kind result so the operator receives independently owned
// storage when it needs to retain one (most operators here just consume
// and discard, but str/hash-map/vec element lists must own what they
// store).
func compileOperandsOwned(c *Compiler, ctx *CompileContext, args []ast.Node) error {
	for _, a := range args {
		res, err := c.compileNode(ctx, a)
		if err != nil {
			return err
		}
		if res.Ownership == OwnershipBorrowed && res.Kind.IsHeapCloneKind() {
			c.Program.Add(ir.RuntimeCall("_string_clone", 1))
		}
		if res.Ownership == OwnershipOwned && res.Kind.IsHeapKind() {
			// fully owned already; nothing to do
		}
	}
	return nil
}

// compileOperandsTransient compiles arguments that are consumed
// immediately by a single non-heap-returning op (arithmetic/comparison):
// a Borrowed or Owned value is used as-is; any intermediate Owned heap
// value here would be a type error caught upstream, since arithmetic only
// accepts numbers.
func compileOperandsTransient(c *Compiler, ctx *CompileContext, args []ast.Node) ([]CompileResult, error) {
	results := make([]CompileResult, 0, len(args))
	for _, a := range args {
		res, err := c.compileNode(ctx, a)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func requireNumericKinds(name string, results []CompileResult) error {
	for _, r := range results {
		if r.Kind != KindNumber && r.Kind != KindAny {
			return &TypeError{Message: name + ": expected numeric operands"}
		}
	}
	return nil
}

func registerArithmetic(b map[string]builtinRule) {
	reduce := func(op func() ir0) builtinRule {
		return func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
			if len(args) < 2 {
				return CompileResult{}, &ArityError{Name: "arithmetic", Expected: "at least 2", Got: len(args)}
			}
			results, err := compileOperandsTransient(c, ctx, args)
			if err != nil {
				return CompileResult{}, err
			}
			if err := requireNumericKinds("arithmetic", results); err != nil {
				return CompileResult{}, err
			}
			for i := 0; i < len(args)-1; i++ {
				c.Program.Add(op())
			}
			return CompileResult{Kind: KindNumber, Ownership: OwnershipNone}, nil
		}
	}
	b["+"] = reduce(func() ir0 { return ir.Add() })
	b["-"] = reduce(func() ir0 { return ir.Sub() })
	b["*"] = reduce(func() ir0 { return ir.Mul() })
	b["/"] = reduce(func() ir0 { return ir.Div() })
}

// ir0 is a tiny alias so reduce's op-factory signature reads cleanly;
// every arithmetic IR instruction takes no operand fields.
type ir0 = ir.Instruction

func registerComparison(b map[string]builtinRule) {
	cmp := func(op func() ir.Instruction) builtinRule {
		return func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
			if len(args) != 2 {
				return CompileResult{}, &ArityError{Name: "comparison", Expected: "2", Got: len(args)}
			}
			results, err := compileOperandsTransient(c, ctx, args)
			if err != nil {
				return CompileResult{}, err
			}
			if err := requireNumericKinds("comparison", results); err != nil {
				return CompileResult{}, err
			}
			c.Program.Add(op())
			return CompileResult{Kind: KindBoolean, Ownership: OwnershipNone}, nil
		}
	}
	b["="] = func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
		if len(args) != 2 {
			return CompileResult{}, &ArityError{Name: "=", Expected: "2", Got: len(args)}
		}
		if _, err := compileOperandsTransient(c, ctx, args); err != nil {
			return CompileResult{}, err
		}
		c.Program.Add(ir.Equal())
		return CompileResult{Kind: KindBoolean, Ownership: OwnershipNone}, nil
	}
	b["<"] = cmp(func() ir.Instruction { return ir.Less() })
	b[">"] = cmp(func() ir.Instruction { return ir.Greater() })
	b["<="] = cmp(func() ir.Instruction { return ir.LessEqual() })
	b[">="] = cmp(func() ir.Instruction { return ir.GreaterEqual() })
}

func registerLogic(b map[string]builtinRule) {
	b["and"] = func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
		if len(args) != 2 {
			return CompileResult{}, &ArityError{Name: "and", Expected: "2", Got: len(args)}
		}
		if _, err := compileOperandsTransient(c, ctx, args); err != nil {
			return CompileResult{}, err
		}
		c.Program.Add(ir.And())
		return CompileResult{Kind: KindBoolean, Ownership: OwnershipNone}, nil
	}
	b["or"] = func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
		if len(args) != 2 {
			return CompileResult{}, &ArityError{Name: "or", Expected: "2", Got: len(args)}
		}
		if _, err := compileOperandsTransient(c, ctx, args); err != nil {
			return CompileResult{}, err
		}
		c.Program.Add(ir.Or())
		return CompileResult{Kind: KindBoolean, Ownership: OwnershipNone}, nil
	}
	b["not"] = func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
		if len(args) != 1 {
			return CompileResult{}, &ArityError{Name: "not", Expected: "1", Got: len(args)}
		}
		if _, err := compileOperandsTransient(c, ctx, args); err != nil {
			return CompileResult{}, err
		}
		c.Program.Add(ir.Not())
		return CompileResult{Kind: KindBoolean, Ownership: OwnershipNone}, nil
	}
}

func registerStrings(b map[string]builtinRule) {
	b["str"] = func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
		if len(args) == 0 {
			c.Program.Add(ir.PushString(nil))
			return CompileResult{Kind: KindString, Ownership: OwnershipOwned}, nil
		}
		if err := compileOperandsOwned(c, ctx, args); err != nil {
			return CompileResult{}, err
		}
		// Every operand reaching a concat call is owned (compileOperandsOwned
		// clones Borrowed ones), so _string_concat_2 can freely consume and
		// free both of its arguments; the fold's only surviving pointer is
		// the final call's result, which this rule returns as Owned.
		for i := 0; i < len(args)-1; i++ {
			c.Program.Add(ir.RuntimeCall("_string_concat_2", 2))
		}
		return CompileResult{Kind: KindString, Ownership: OwnershipOwned}, nil
	}
	b["count"] = func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
		if len(args) != 1 {
			return CompileResult{}, &ArityError{Name: "count", Expected: "1", Got: len(args)}
		}
		if _, err := compileOperandsTransient(c, ctx, args); err != nil {
			return CompileResult{}, err
		}
		c.Program.Add(ir.RuntimeCall("_count", 1))
		return CompileResult{Kind: KindNumber, Ownership: OwnershipNone}, nil
	}
	b["subs"] = func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
		if len(args) != 2 && len(args) != 3 {
			return CompileResult{}, &ArityError{Name: "subs", Expected: "2 or 3", Got: len(args)}
		}
		if _, err := compileOperandsTransient(c, ctx, args); err != nil {
			return CompileResult{}, err
		}
		c.Program.Add(ir.RuntimeCall("_subs", len(args)))
		return CompileResult{Kind: KindString, Ownership: OwnershipOwned}, nil
	}
}

func registerCollections(b map[string]builtinRule) {
	b["hash-map"] = func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
		if len(args)%2 != 0 {
			return CompileResult{}, &InvalidExpressionError{Message: "hash-map requires an even number of key/value arguments"}
		}
		mvt := MapValueTypes{}
		allLiteral := true
		for i := 0; i+1 < len(args); i += 2 {
			keyNode := args[i]
			valNode := args[i+1]
			lit, ok := literalMapKey(keyNode)
			keyRes, err := c.compileNode(ctx, keyNode)
			if err != nil {
				return CompileResult{}, err
			}
			cloneIfBorrowed(c, keyRes)
			valRes, err := c.compileNode(ctx, valNode)
			if err != nil {
				return CompileResult{}, err
			}
			cloneIfBorrowed(c, valRes)
			if ok {
				mvt[lit] = valRes.Kind
			} else {
				allLiteral = false
			}
		}
		c.Program.Add(ir.RuntimeCall("_hash_map_new", len(args)))
		res := CompileResult{Kind: KindMap, Ownership: OwnershipOwned}
		if allLiteral {
			res.MapValueTypes = mvt
		}
		return res, nil
	}
	b["hash-set"] = func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
		if err := compileOperandsOwned(c, ctx, args); err != nil {
			return CompileResult{}, err
		}
		c.Program.Add(ir.RuntimeCall("_hash_set_new", len(args)))
		return CompileResult{Kind: KindSet, Ownership: OwnershipOwned}, nil
	}
	b["vec"] = func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
		if err := compileOperandsOwned(c, ctx, args); err != nil {
			return CompileResult{}, err
		}
		c.Program.Add(ir.RuntimeCall("_vector_new", len(args)))
		return CompileResult{Kind: KindVector, Ownership: OwnershipOwned}, nil
	}
	b["get"] = func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
		if len(args) != 2 {
			return CompileResult{}, &ArityError{Name: "get", Expected: "2", Got: len(args)}
		}
		mapRes, err := c.compileNode(ctx, args[0])
		if err != nil {
			return CompileResult{}, err
		}
		if _, err := c.compileNode(ctx, args[1]); err != nil {
			return CompileResult{}, err
		}
		c.Program.Add(ir.RuntimeCall("_map_get", 2))
		kind := KindAny
		if lit, ok := literalMapKey(args[1]); ok && mapRes.MapValueTypes != nil {
			if k, ok := mapRes.MapValueTypes[lit]; ok {
				kind = k
			}
		}
		return CompileResult{Kind: kind, Ownership: OwnershipBorrowed}, nil
	}
	b["assoc"] = func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
		if len(args) != 3 {
			return CompileResult{}, &ArityError{Name: "assoc", Expected: "3", Got: len(args)}
		}
		if err := compileOperandsOwned(c, ctx, args); err != nil {
			return CompileResult{}, err
		}
		c.Program.Add(ir.RuntimeCall("_map_assoc", 3))
		return CompileResult{Kind: KindMap, Ownership: OwnershipOwned}, nil
	}
	b["dissoc"] = func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
		if len(args) != 2 {
			return CompileResult{}, &ArityError{Name: "dissoc", Expected: "2", Got: len(args)}
		}
		if err := compileOperandsOwned(c, ctx, args); err != nil {
			return CompileResult{}, err
		}
		c.Program.Add(ir.RuntimeCall("_map_dissoc", 2))
		return CompileResult{Kind: KindMap, Ownership: OwnershipOwned}, nil
	}
	b["contains?"] = func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
		if len(args) != 2 {
			return CompileResult{}, &ArityError{Name: "contains?", Expected: "2", Got: len(args)}
		}
		if _, err := compileOperandsTransient(c, ctx, args); err != nil {
			return CompileResult{}, err
		}
		c.Program.Add(ir.RuntimeCall("_contains", 2))
		return CompileResult{Kind: KindBoolean, Ownership: OwnershipNone}, nil
	}
	b["disj"] = func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
		if len(args) != 2 {
			return CompileResult{}, &ArityError{Name: "disj", Expected: "2", Got: len(args)}
		}
		if err := compileOperandsOwned(c, ctx, args); err != nil {
			return CompileResult{}, err
		}
		c.Program.Add(ir.RuntimeCall("_set_disj", 2))
		return CompileResult{Kind: KindSet, Ownership: OwnershipOwned}, nil
	}
}

func cloneIfBorrowed(c *Compiler, res CompileResult) {
	if res.Ownership == OwnershipBorrowed && res.Kind.IsHeapCloneKind() {
		c.Program.Add(ir.RuntimeCall("_string_clone", 1))
	}
}

func literalMapKey(n ast.Node) (MapKeyLiteral, bool) {
	switch n.Kind {
	case ast.KindPrimitive:
		if n.Primitive.Kind == ast.PrimNumber {
			return MapKeyLiteral{Kind: MapKeyNumber, Number: n.Primitive.Number}, true
		}
		return MapKeyLiteral{Kind: MapKeyString, String: n.Primitive.String}, true
	case ast.KindSymbol:
		if len(n.Symbol) > 0 && n.Symbol[0] == ':' {
			return MapKeyLiteral{Kind: MapKeyKeyword, String: n.Symbol}, true
		}
		if n.Symbol == "true" || n.Symbol == "false" {
			return MapKeyLiteral{Kind: MapKeyBoolean, Bool: n.Symbol == "true"}, true
		}
		if n.Symbol == "nil" {
			return MapKeyLiteral{Kind: MapKeyNil}, true
		}
	}
	return MapKeyLiteral{}, false
}

func registerPrint(b map[string]builtinRule) {
	printRule := func(newline bool) builtinRule {
		return func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
			if err := compileOperandsOwned(c, ctx, args); err != nil {
				return CompileResult{}, err
			}
			symbol := "_print_values"
			nl := int64(0)
			if newline {
				nl = 1
			}
			c.Program.Add(ir.Push(nl))
			c.Program.Add(ir.RuntimeCall(symbol, len(args)+1))
			return CompileResult{Kind: KindNil, Ownership: OwnershipNone}, nil
		}
	}
	b["print"] = printRule(false)
	b["println"] = printRule(true)
	b["printf"] = func(c *Compiler, ctx *CompileContext, args []ast.Node) (CompileResult, error) {
		if len(args) < 1 {
			return CompileResult{}, &ArityError{Name: "printf", Expected: "at least 1", Got: len(args)}
		}
		if err := compileOperandsOwned(c, ctx, args); err != nil {
			return CompileResult{}, err
		}
		c.Program.Add(ir.RuntimeCall("_printf_values", len(args)))
		return CompileResult{Kind: KindNil, Ownership: OwnershipNone}, nil
	}
}
