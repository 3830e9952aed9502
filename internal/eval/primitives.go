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
	"fmt"
	"os"
	"strings"

	"github.com/launix-de/slisp/internal/ast"
)

type primitiveRule func(args []ast.Node, env *Environment) (Value, error)

var primitives map[string]primitiveRule

func init() {
	primitives = map[string]primitiveRule{
		"+": arithmetic("+", func(a, b int64) int64 { return a + b }),
		"-": arithmetic("-", func(a, b int64) int64 { return a - b }),
		"*": arithmetic("*", func(a, b int64) int64 { return a * b }),
		"/": arithmetic("/", func(a, b int64) int64 { return a / b }),

		"=":  evalEqual,
		"<":  comparison("<", func(a, b int64) bool { return a < b }),
		">":  comparison(">", func(a, b int64) bool { return a > b }),
		"<=": comparison("<=", func(a, b int64) bool { return a <= b }),
		">=": comparison(">=", func(a, b int64) bool { return a >= b }),

		"and": evalAnd,
		"or":  evalOr,
		"not": evalNot,

		"str":   evalStr,
		"count": evalCount,
		"subs":  evalSubs,

		"hash-map":   evalHashMap,
		"hash-set":   evalHashSet,
		"vec":        evalVec,
		"get":        evalGet,
		"assoc":      evalAssoc,
		"dissoc":     evalDissoc,
		"contains?":  evalContains,
		"disj":       evalDisj,

		"print":   printRule(false),
		"println": printRule(true),
		"printf":  evalPrintf,
	}
}

func arithmetic(name string, op func(a, b int64) int64) primitiveRule {
	return func(args []ast.Node, env *Environment) (Value, error) {
		if len(args) < 2 {
			return Value{}, &ArityError{Name: name, Expected: 2, Got: len(args)}
		}
		first, err := Eval(args[0], env)
		if err != nil {
			return Value{}, err
		}
		if first.Kind != KindNumber {
			return Value{}, &TypeError{Message: name + " requires numbers"}
		}
		acc := first.Number
		for _, a := range args[1:] {
			v, err := Eval(a, env)
			if err != nil {
				return Value{}, err
			}
			if v.Kind != KindNumber {
				return Value{}, &TypeError{Message: name + " requires numbers"}
			}
			acc = op(acc, v.Number)
		}
		return Num(acc), nil
	}
}

func comparison(name string, op func(a, b int64) bool) primitiveRule {
	return func(args []ast.Node, env *Environment) (Value, error) {
		if len(args) != 2 {
			return Value{}, &ArityError{Name: name, Expected: 2, Got: len(args)}
		}
		left, err := Eval(args[0], env)
		if err != nil {
			return Value{}, err
		}
		right, err := Eval(args[1], env)
		if err != nil {
			return Value{}, err
		}
		if left.Kind != KindNumber || right.Kind != KindNumber {
			return Value{}, &TypeError{Message: name + " requires numbers"}
		}
		return Bool(op(left.Number, right.Number)), nil
	}
}

func evalEqual(args []ast.Node, env *Environment) (Value, error) {
	if len(args) != 2 {
		return Value{}, &ArityError{Name: "=", Expected: 2, Got: len(args)}
	}
	left, err := Eval(args[0], env)
	if err != nil {
		return Value{}, err
	}
	right, err := Eval(args[1], env)
	if err != nil {
		return Value{}, err
	}
	return Bool(Equal(left, right)), nil
}

func evalAnd(args []ast.Node, env *Environment) (Value, error) {
	if len(args) != 2 {
		return Value{}, &ArityError{Name: "and", Expected: 2, Got: len(args)}
	}
	left, err := Eval(args[0], env)
	if err != nil {
		return Value{}, err
	}
	right, err := Eval(args[1], env)
	if err != nil {
		return Value{}, err
	}
	return Bool(left.IsTruthy() && right.IsTruthy()), nil
}

func evalOr(args []ast.Node, env *Environment) (Value, error) {
	if len(args) != 2 {
		return Value{}, &ArityError{Name: "or", Expected: 2, Got: len(args)}
	}
	left, err := Eval(args[0], env)
	if err != nil {
		return Value{}, err
	}
	right, err := Eval(args[1], env)
	if err != nil {
		return Value{}, err
	}
	return Bool(left.IsTruthy() || right.IsTruthy()), nil
}

func evalNot(args []ast.Node, env *Environment) (Value, error) {
	if len(args) != 1 {
		return Value{}, &ArityError{Name: "not", Expected: 1, Got: len(args)}
	}
	v, err := Eval(args[0], env)
	if err != nil {
		return Value{}, err
	}
	return Bool(!v.IsTruthy()), nil
}

func evalStr(args []ast.Node, env *Environment) (Value, error) {
	var b strings.Builder
	for _, a := range args {
		v, err := Eval(a, env)
		if err != nil {
			return Value{}, err
		}
		b.WriteString(v.String())
	}
	return Str(b.String()), nil
}

func evalCount(args []ast.Node, env *Environment) (Value, error) {
	if len(args) != 1 {
		return Value{}, &ArityError{Name: "count", Expected: 1, Got: len(args)}
	}
	v, err := Eval(args[0], env)
	if err != nil {
		return Value{}, err
	}
	switch v.Kind {
	case KindNil:
		return Num(0), nil
	case KindString:
		return Num(int64(len(v.Str))), nil
	case KindVector, KindSet:
		return Num(int64(len(v.Items))), nil
	case KindMap:
		return Num(int64(len(v.Keys))), nil
	}
	return Value{}, &TypeError{Message: "count requires a string, vector, map, set, or nil argument"}
}

func evalSubs(args []ast.Node, env *Environment) (Value, error) {
	if len(args) != 2 && len(args) != 3 {
		return Value{}, &ArityError{Name: "subs", Expected: 2, Got: len(args)}
	}
	s, err := Eval(args[0], env)
	if err != nil {
		return Value{}, err
	}
	if s.Kind != KindString {
		return Value{}, &TypeError{Message: "subs requires a string"}
	}
	start, err := Eval(args[1], env)
	if err != nil {
		return Value{}, err
	}
	if start.Kind != KindNumber {
		return Value{}, &TypeError{Message: "subs start index must be a number"}
	}
	end := int64(len(s.Str))
	if len(args) == 3 {
		e, err := Eval(args[2], env)
		if err != nil {
			return Value{}, err
		}
		if e.Kind != KindNumber {
			return Value{}, &TypeError{Message: "subs end index must be a number"}
		}
		end = e.Number
	}
	if start.Number < 0 || end > int64(len(s.Str)) || start.Number > end {
		return Value{}, &TypeError{Message: "subs index out of range"}
	}
	return Str(s.Str[start.Number:end]), nil
}

func evalHashMap(args []ast.Node, env *Environment) (Value, error) {
	acc, err := foldPairs(args, [2][]Value{}, func() error {
		return &InvalidOperationError{Message: "hash-map requires an even number of key/value arguments"}
	}, func(acc [2][]Value, left, right ast.Node) ([2][]Value, error) {
		k, err := Eval(left, env)
		if err != nil {
			return acc, err
		}
		v, err := Eval(right, env)
		if err != nil {
			return acc, err
		}
		acc[0] = append(acc[0], k)
		acc[1] = append(acc[1], v)
		return acc, nil
	})
	if err != nil {
		return Value{}, err
	}
	return Map(acc[0], acc[1]), nil
}

func evalHashSet(args []ast.Node, env *Environment) (Value, error) {
	var items []Value
	for _, a := range args {
		v, err := Eval(a, env)
		if err != nil {
			return Value{}, err
		}
		if !containsValue(items, v) {
			items = append(items, v)
		}
	}
	return Set(items), nil
}

func evalVec(args []ast.Node, env *Environment) (Value, error) {
	items := make([]Value, len(args))
	for i, a := range args {
		v, err := Eval(a, env)
		if err != nil {
			return Value{}, err
		}
		items[i] = v
	}
	return Vector(items), nil
}

func evalGet(args []ast.Node, env *Environment) (Value, error) {
	if len(args) != 2 {
		return Value{}, &ArityError{Name: "get", Expected: 2, Got: len(args)}
	}
	m, err := Eval(args[0], env)
	if err != nil {
		return Value{}, err
	}
	if m.Kind != KindMap {
		return Value{}, &TypeError{Message: "get requires a map"}
	}
	key, err := Eval(args[1], env)
	if err != nil {
		return Value{}, err
	}
	v, ok := mapGet(m, key)
	if !ok {
		return Nil(), nil
	}
	return v, nil
}

func evalAssoc(args []ast.Node, env *Environment) (Value, error) {
	if len(args) != 3 {
		return Value{}, &ArityError{Name: "assoc", Expected: 3, Got: len(args)}
	}
	m, err := Eval(args[0], env)
	if err != nil {
		return Value{}, err
	}
	if m.Kind != KindMap {
		return Value{}, &TypeError{Message: "assoc requires a map"}
	}
	key, err := Eval(args[1], env)
	if err != nil {
		return Value{}, err
	}
	val, err := Eval(args[2], env)
	if err != nil {
		return Value{}, err
	}
	keys := append([]Value(nil), m.Keys...)
	vals := append([]Value(nil), m.Vals...)
	for i, k := range keys {
		if Equal(k, key) {
			vals[i] = val
			return Map(keys, vals), nil
		}
	}
	return Map(append(keys, key), append(vals, val)), nil
}

func evalDissoc(args []ast.Node, env *Environment) (Value, error) {
	if len(args) != 2 {
		return Value{}, &ArityError{Name: "dissoc", Expected: 2, Got: len(args)}
	}
	m, err := Eval(args[0], env)
	if err != nil {
		return Value{}, err
	}
	if m.Kind != KindMap {
		return Value{}, &TypeError{Message: "dissoc requires a map"}
	}
	key, err := Eval(args[1], env)
	if err != nil {
		return Value{}, err
	}
	var keys, vals []Value
	for i, k := range m.Keys {
		if !Equal(k, key) {
			keys = append(keys, k)
			vals = append(vals, m.Vals[i])
		}
	}
	return Map(keys, vals), nil
}

func evalContains(args []ast.Node, env *Environment) (Value, error) {
	if len(args) != 2 {
		return Value{}, &ArityError{Name: "contains?", Expected: 2, Got: len(args)}
	}
	container, err := Eval(args[0], env)
	if err != nil {
		return Value{}, err
	}
	key, err := Eval(args[1], env)
	if err != nil {
		return Value{}, err
	}
	switch container.Kind {
	case KindMap:
		_, ok := mapGet(container, key)
		return Bool(ok), nil
	case KindSet, KindVector:
		return Bool(containsValue(container.Items, key)), nil
	}
	return Value{}, &TypeError{Message: "contains? requires a map, set, or vector"}
}

func evalDisj(args []ast.Node, env *Environment) (Value, error) {
	if len(args) != 2 {
		return Value{}, &ArityError{Name: "disj", Expected: 2, Got: len(args)}
	}
	s, err := Eval(args[0], env)
	if err != nil {
		return Value{}, err
	}
	if s.Kind != KindSet {
		return Value{}, &TypeError{Message: "disj requires a set"}
	}
	v, err := Eval(args[1], env)
	if err != nil {
		return Value{}, err
	}
	var out []Value
	for _, e := range s.Items {
		if !Equal(e, v) {
			out = append(out, e)
		}
	}
	return Set(out), nil
}

func printRule(newline bool) primitiveRule {
	return func(args []ast.Node, env *Environment) (Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			v, err := Eval(a, env)
			if err != nil {
				return Value{}, err
			}
			parts[i] = v.String()
		}
		fmt.Fprint(os.Stdout, strings.Join(parts, " "))
		if newline {
			fmt.Fprintln(os.Stdout)
		}
		return Nil(), nil
	}
}

// evalPrintf scans format the same byte-by-byte way
// internal/runtime.PrintfValues does, so the evaluator's printf output
// matches the compiled path's for the same program.
func evalPrintf(args []ast.Node, env *Environment) (Value, error) {
	if len(args) < 1 {
		return Value{}, &ArityError{Name: "printf", Expected: 1, Got: len(args)}
	}
	formatVal, err := Eval(args[0], env)
	if err != nil {
		return Value{}, err
	}
	if formatVal.Kind != KindString {
		return Value{}, &TypeError{Message: "printf requires a string format"}
	}
	rest := make([]Value, len(args)-1)
	for i, a := range args[1:] {
		v, err := Eval(a, env)
		if err != nil {
			return Value{}, err
		}
		rest[i] = v
	}

	format := formatVal.Str
	argIdx := 0
	var out strings.Builder
	i := 0
	for i < len(format) {
		ch := format[i]
		if ch != '%' {
			out.WriteByte(ch)
			i++
			continue
		}
		if i+1 >= len(format) {
			out.WriteByte(ch)
			i++
			continue
		}
		spec := format[i+1]
		switch {
		case spec == '%':
			out.WriteByte('%')
			i += 2
		case lower(spec) == 'n':
			out.WriteByte('\n')
			i += 2
		case argIdx < len(rest):
			out.WriteString(rest[argIdx].String())
			argIdx++
			i += 2
		default:
			out.WriteByte('%')
			out.WriteByte(spec)
			i += 2
		}
	}
	fmt.Fprint(os.Stdout, out.String())
	return Nil(), nil
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}
