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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launix-de/slisp/internal/ir"
	"github.com/launix-de/slisp/internal/parser"
)

func mustCompile(t *testing.T, src string) *ir.Program {
	t.Helper()
	forms, err := parser.ParseProgram(src)
	require.NoError(t, err)
	prog, err := CompileProgram(forms)
	require.NoError(t, err)
	return prog
}

// heapBalance counts Allocate + owned-returning runtime calls against
// Free + FreeLocal along every path: each function body up to its Return,
// and the top-level stream, following both arms of every JumpIfZero.
// _string_concat_2 also frees its two operands (runtime.StringConcat2), so
// it nets -1. It returns the first non-zero path balance, or 0 when every
// path balances.
var ownedRuntimeCalls = map[string]bool{
	"_string_clone": true, "_string_concat_2": true, "_subs": true,
	"_hash_map_new": true, "_hash_set_new": true, "_vector_new": true,
	"_map_assoc": true, "_map_dissoc": true, "_set_disj": true,
}

var consumingRuntimeCalls = map[string]int{"_string_concat_2": 2}

func heapBalance(prog *ir.Program) int {
	for _, fn := range prog.Functions {
		if b := pathBalance(prog, fn.EntryIndex+1, 0); b != 0 {
			return b
		}
	}
	return pathBalance(prog, 0, 0)
}

func pathBalance(prog *ir.Program, pc, balance int) int {
	for pc < prog.Len() {
		instr := prog.Instructions[pc]
		switch instr.Op {
		case ir.OpDefineFunction:
			pc = prog.FunctionEnd(pc)
			continue
		case ir.OpReturn:
			return balance
		case ir.OpJumpIfZero:
			if b := pathBalance(prog, instr.Target, balance); b != 0 {
				return b
			}
		case ir.OpJump:
			pc = instr.Target
			continue
		case ir.OpAllocate, ir.OpPushString:
			balance++
		case ir.OpRuntimeCall:
			if ownedRuntimeCalls[instr.Name] {
				balance++
			}
			balance -= consumingRuntimeCalls[instr.Name]
		case ir.OpFree, ir.OpFreeLocal:
			balance--
		}
		pc++
	}
	return balance
}

func TestCompileLetHeapBalance(t *testing.T) {
	prog := mustCompile(t, `(let [x "hello" y " world"] (str x y))`)
	assert.Equal(t, 0, heapBalance(prog))
}

func TestCompileArithmetic(t *testing.T) {
	prog := mustCompile(t, `(+ 1 2)`)
	assert.Equal(t, 0, heapBalance(prog))
	var adds int
	for _, i := range prog.Instructions {
		if i.Op == ir.OpAdd {
			adds++
		}
	}
	assert.Equal(t, 1, adds)
}

func TestCompileIfHeapBalance(t *testing.T) {
	prog := mustCompile(t, `(if (< 2 3) (str "a" "b") (str "c" "d"))`)
	assert.Equal(t, 0, heapBalance(prog))
}

func TestCompileDefnAndCall(t *testing.T) {
	prog := mustCompile(t, `(defn add [a b] (+ a b)) (add 3 4)`)
	require.Len(t, prog.Functions, 1)
	assert.Equal(t, "add", prog.Functions[0].Name)
	assert.Equal(t, 2, prog.Functions[0].ParamCount)
}

func TestCompileLetRejectsShadowing(t *testing.T) {
	forms, err := parser.ParseProgram(`(let [x 1 x 2] x)`)
	require.NoError(t, err)
	_, err = CompileProgram(forms)
	require.Error(t, err)
}

func TestCompileUnknownSymbol(t *testing.T) {
	forms, err := parser.ParseProgram(`(frobnicate 1)`)
	require.NoError(t, err)
	_, err = CompileProgram(forms)
	require.Error(t, err)
	var use *UnknownSymbolError
	require.ErrorAs(t, err, &use)
}

func TestCompileArityError(t *testing.T) {
	forms, err := parser.ParseProgram(`(+ 1)`)
	require.NoError(t, err)
	_, err = CompileProgram(forms)
	require.Error(t, err)
	var ae *ArityError
	require.ErrorAs(t, err, &ae)
}

func TestCompileHashMapLiteralKeyTracking(t *testing.T) {
	prog := mustCompile(t, `(let [m (hash-map :a 1)] (get m :a))`)
	assert.Equal(t, 0, heapBalance(prog))
}

func TestOwnershipCombineLattice(t *testing.T) {
	assert.Equal(t, OwnershipOwned, OwnershipOwned.Combine(OwnershipOwned))
	assert.Equal(t, OwnershipNone, OwnershipNone.Combine(OwnershipNone))
	assert.Equal(t, OwnershipBorrowed, OwnershipNone.Combine(OwnershipBorrowed))
	assert.Equal(t, OwnershipBorrowed, OwnershipBorrowed.Combine(OwnershipNone))
	assert.Equal(t, OwnershipBorrowed, OwnershipBorrowed.Combine(OwnershipBorrowed))
	assert.Equal(t, OwnershipBorrowed, OwnershipOwned.Combine(OwnershipBorrowed))
	assert.Equal(t, OwnershipBorrowed, OwnershipOwned.Combine(OwnershipNone))
}
