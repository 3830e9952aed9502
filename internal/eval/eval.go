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
package eval

import (
	"github.com/launix-de/slisp/internal/ast"
)

// RunProgram evaluates every top-level form in order against a shared
// Environment, returning the last form's value (Nil for an empty
// program), the way the compiler's CompileProgram folds top-level forms
// into one InitHeap-prefixed sequence.
func RunProgram(forms []ast.Node) (Value, error) {
	env := NewEnvironment()
	result := Nil()
	for _, form := range forms {
		v, err := Eval(form, env)
		if err != nil {
			return Value{}, err
		}
		result = v
	}
	return result, nil
}

// Eval is eval_with_env: the single recursive dispatch over a Node.
func Eval(n ast.Node, env *Environment) (Value, error) {
	switch n.Kind {
	case ast.KindPrimitive:
		if n.Primitive.Kind == ast.PrimNumber {
			return Num(n.Primitive.Number), nil
		}
		return Str(n.Primitive.String), nil
	case ast.KindSymbol:
		return evalSymbol(n.Symbol, env)
	case ast.KindVector:
		items := make([]Value, len(n.Children))
		for i, c := range n.Children {
			v, err := Eval(c, env)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Vector(items), nil
	case ast.KindList:
		return evalList(n, env)
	}
	return Value{}, &InvalidOperationError{Message: "unreachable node kind"}
}

func evalSymbol(name string, env *Environment) (Value, error) {
	switch name {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	case "nil":
		return Nil(), nil
	}
	if len(name) > 0 && name[0] == ':' {
		return Keyword(name), nil
	}
	if v, ok := env.Lookup(name); ok {
		return v, nil
	}
	return Value{}, &UnboundSymbolError{Name: name}
}

func evalList(n ast.Node, env *Environment) (Value, error) {
	if len(n.Children) == 0 {
		return Value{}, &InvalidOperationError{Message: "empty list is not callable"}
	}
	head := n.Children[0]
	args := n.Children[1:]

	if head.IsSymbol() {
		switch head.Symbol {
		case "let":
			return evalLet(args, env)
		case "if":
			return evalIf(args, env)
		case "fn", "defn":
			return evalFunctionDef(head.Symbol, args, env)
		}
		if rule, ok := primitives[head.Symbol]; ok {
			return rule(args, env)
		}
		if fn, ok := env.LookupFunction(head.Symbol); ok {
			return callFunction(fn, args, env)
		}
	}
	return Value{}, &UnboundSymbolError{Name: callHeadName(head)}
}

func callHeadName(head ast.Node) string {
	if head.IsSymbol() {
		return head.Symbol
	}
	return "<non-symbol call target>"
}

// evalLet mirrors compile_let: arity 2, even-length bindings vector,
// shadowing rejected within the same block, sequential evaluation so
// later bindings see earlier ones.
func evalLet(args []ast.Node, env *Environment) (Value, error) {
	if len(args) != 2 {
		return Value{}, &ArityError{Name: "let", Expected: 2, Got: len(args)}
	}
	bindings := args[0]
	if !bindings.IsVector() {
		return Value{}, &InvalidOperationError{Message: "let bindings must be a vector"}
	}
	if len(bindings.Children)%2 != 0 {
		return Value{}, &InvalidOperationError{Message: "let bindings must have an even number of forms"}
	}

	block := env.NewBlock()
	for i := 0; i+1 < len(bindings.Children); i += 2 {
		nameNode := bindings.Children[i]
		valueNode := bindings.Children[i+1]
		if !nameNode.IsSymbol() {
			return Value{}, &InvalidOperationError{Message: "let binding name must be a symbol"}
		}
		if block.IsBoundInBlock(nameNode.Symbol) {
			return Value{}, &InvalidOperationError{Message: "let binding shadows an earlier binding in the same block: " + nameNode.Symbol}
		}
		v, err := Eval(valueNode, block)
		if err != nil {
			return Value{}, err
		}
		block.Insert(nameNode.Symbol, v)
	}
	return Eval(args[1], block)
}

// evalIf mirrors compile_if: arity 2 or 3; an absent else branch
// evaluates to Nil.
func evalIf(args []ast.Node, env *Environment) (Value, error) {
	if len(args) != 2 && len(args) != 3 {
		return Value{}, &ArityError{Name: "if", Expected: 2, Got: len(args)}
	}
	test, err := Eval(args[0], env)
	if err != nil {
		return Value{}, err
	}
	if test.IsTruthy() {
		return Eval(args[1], env)
	}
	if len(args) == 3 {
		return Eval(args[2], env)
	}
	return Nil(), nil
}

func evalFunctionDef(head string, args []ast.Node, env *Environment) (Value, error) {
	var name string
	var paramsNode, body ast.Node
	if head == "defn" {
		if len(args) != 3 {
			return Value{}, &ArityError{Name: "defn", Expected: 3, Got: len(args)}
		}
		if !args[0].IsSymbol() {
			return Value{}, &InvalidOperationError{Message: "defn name must be a symbol"}
		}
		name, paramsNode, body = args[0].Symbol, args[1], args[2]
	} else {
		if len(args) != 2 {
			return Value{}, &ArityError{Name: "fn", Expected: 2, Got: len(args)}
		}
		name, paramsNode, body = "__anon", args[0], args[1]
	}
	if !paramsNode.IsVector() {
		return Value{}, &InvalidOperationError{Message: "function parameter list must be a vector"}
	}
	params := make([]string, len(paramsNode.Children))
	for i, p := range paramsNode.Children {
		if !p.IsSymbol() {
			return Value{}, &InvalidOperationError{Message: "function parameters must be symbols"}
		}
		params[i] = p.Symbol
	}
	fn := &Function{Name: name, Params: params, Body: body}
	env.DefineFunction(fn)
	return Nil(), nil
}

func callFunction(fn *Function, argNodes []ast.Node, env *Environment) (Value, error) {
	if len(argNodes) != len(fn.Params) {
		return Value{}, &ArityError{Name: fn.Name, Expected: len(fn.Params), Got: len(argNodes)}
	}
	call := env.NewCall()
	for i, p := range fn.Params {
		v, err := Eval(argNodes[i], env)
		if err != nil {
			return Value{}, err
		}
		call.Insert(p, v)
	}
	return Eval(fn.Body, call)
}

// foldPairs underlies hash-map validation, requiring an even-length
// node slice and folding left to right over (key, value) pairs.
func foldPairs[T any](nodes []ast.Node, init T, onOdd func() error, f func(acc T, left, right ast.Node) (T, error)) (T, error) {
	var zero T
	if len(nodes)%2 != 0 {
		if err := onOdd(); err != nil {
			return zero, err
		}
	}
	acc := init
	for i := 0; i+1 < len(nodes); i += 2 {
		var err error
		acc, err = f(acc, nodes[i], nodes[i+1])
		if err != nil {
			return zero, err
		}
	}
	return acc, nil
}
