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

// Package vm interprets a compiled ir.Program directly against
// internal/runtime, standing in for the (out-of-scope) linked executable
// so the compiled path's observable behavior can be tested without an
// ELF loader: tests run the same program through here and through
// internal/eval and compare, exercising the evaluator-compiler agreement
// property, and the heap-balance property by watching Telemetry directly
// rather than approximating it statically.
package vm

import (
	"fmt"
	"os"

	"github.com/launix-de/slisp/internal/ir"
	"github.com/launix-de/slisp/internal/runtime"
)

// ExecError wraps a runtime fault (stack underflow, unknown runtime call,
// bad pointer) with the instruction index it happened at.
type ExecError struct {
	Index   int
	Message string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("vm: instruction %d: %s", e.Index, e.Message)
}

// VM executes a single ir.Program to completion. It is not reentrant
// across goroutines; each run gets a fresh VM over a fresh Heap, matching
// the single-shot-executable model the runtime contract describes.
type VM struct {
	prog  *ir.Program
	heap  *runtime.Heap
	stack []runtime.TaggedPtr
	out   *os.File
}

func New(prog *ir.Program) *VM {
	return &VM{prog: prog, heap: runtime.NewHeap(), out: os.Stdout}
}

func (v *VM) Heap() *runtime.Heap { return v.heap }

// Run executes the program. When entrySymbol names a defined function,
// that function is called directly with no arguments (useful for
// exercising one function in isolation). Otherwise it runs the implicit
// top-level body: every instruction the compiler left outside any
// function's span, in program order, which is what a script-style
// SLisp program with no explicit entry function compiles to.
func (v *VM) Run(entrySymbol string) (runtime.TaggedPtr, error) {
	v.heap.Init()
	if entrySymbol != "" {
		if fn, ok := v.findFunction(entrySymbol); ok {
			return v.call(fn, nil)
		}
	}
	return v.runEntry()
}

func (v *VM) findFunction(name string) (ir.FunctionInfo, bool) {
	for _, fn := range v.prog.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return ir.FunctionInfo{}, false
}

// call runs fn's body in a fresh local-variable frame and returns the
// value its Return instruction leaves on top of the stack.
func (v *VM) call(fn ir.FunctionInfo, args []runtime.TaggedPtr) (runtime.TaggedPtr, error) {
	locals := make([]runtime.TaggedPtr, fn.LocalCount)
	params := make([]runtime.TaggedPtr, fn.ParamCount)
	copy(params, args)

	end := v.prog.FunctionEnd(fn.EntryIndex)
	savedStackBase := len(v.stack)

	for pc := fn.EntryIndex; pc < end; pc++ {
		instr := v.prog.Instructions[pc]
		next, result, returned, err := v.step(instr, pc, params, locals)
		if err != nil {
			return runtime.TaggedPtr{}, err
		}
		if returned {
			v.stack = v.stack[:savedStackBase]
			return result, nil
		}
		if next != pc+1 {
			pc = next - 1 // loop's pc++ advances to next
		}
	}
	return runtime.TaggedPtr{}, &ExecError{Index: fn.EntryIndex, Message: "function fell off the end without Return"}
}

// runEntry walks the whole program from index 0, executing every
// top-level instruction and stepping clean over any embedded defn/fn
// body (reachable only via Call) by jumping straight to its
// FunctionEnd when the walk reaches its DefineFunction marker. There is
// no top-level Return, so the result is whatever the last top-level
// form left on the stack (Nil if every form so far has been freed or
// nothing has run yet) — freeOwned in the compiler already discards a
// heap-owned top-level result immediately, matching a real frame's
// epilogue dropping the whole stack on return.
func (v *VM) runEntry() (runtime.TaggedPtr, error) {
	locals := make([]runtime.TaggedPtr, v.prog.EntryLocalCount)
	var params []runtime.TaggedPtr
	savedStackBase := len(v.stack)

	for pc := 0; pc < v.prog.Len(); {
		instr := v.prog.Instructions[pc]
		if instr.Op == ir.OpDefineFunction {
			pc = v.prog.FunctionEnd(pc)
			continue
		}
		next, _, returned, err := v.step(instr, pc, params, locals)
		if err != nil {
			return runtime.TaggedPtr{}, err
		}
		if returned {
			break
		}
		pc = next
	}

	result := runtime.TaggedPtr{Tag: runtime.TagNil}
	if len(v.stack) > savedStackBase {
		result = v.stack[len(v.stack)-1]
	}
	v.stack = v.stack[:savedStackBase]
	return result, nil
}

func (v *VM) push(t runtime.TaggedPtr) { v.stack = append(v.stack, t) }

func (v *VM) pop(pc int) (runtime.TaggedPtr, error) {
	if len(v.stack) == 0 {
		return runtime.TaggedPtr{}, &ExecError{Index: pc, Message: "stack underflow"}
	}
	top := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	return top, nil
}

func number(n int64) runtime.TaggedPtr  { return runtime.TaggedPtr{Tag: runtime.TagNumber, Ptr: uint64(n)} }
func boolean(b bool) runtime.TaggedPtr {
	if b {
		return runtime.TaggedPtr{Tag: runtime.TagBoolean, Ptr: 1}
	}
	return runtime.TaggedPtr{Tag: runtime.TagBoolean, Ptr: 0}
}
func asNumber(t runtime.TaggedPtr) int64 { return int64(t.Ptr) }
func truthy(t runtime.TaggedPtr) bool {
	switch t.Tag {
	case runtime.TagNil:
		return false
	case runtime.TagBoolean, runtime.TagNumber:
		return t.Ptr != 0
	}
	return true
}

// step executes a single instruction; returns the next pc (normally
// pc+1, or a jump target), the function's result plus returned=true when
// instr was Return, or an error.
func (v *VM) step(instr ir.Instruction, pc int, params, locals []runtime.TaggedPtr) (next int, result runtime.TaggedPtr, returned bool, err error) {
	switch instr.Op {
	case ir.OpPush:
		v.push(number(instr.Imm))
	case ir.OpPop:
		if _, err = v.pop(pc); err != nil {
			return
		}
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv:
		var b, a runtime.TaggedPtr
		if b, err = v.pop(pc); err != nil {
			return
		}
		if a, err = v.pop(pc); err != nil {
			return
		}
		var r int64
		switch instr.Op {
		case ir.OpAdd:
			r = asNumber(a) + asNumber(b)
		case ir.OpSub:
			r = asNumber(a) - asNumber(b)
		case ir.OpMul:
			r = asNumber(a) * asNumber(b)
		case ir.OpDiv:
			if asNumber(b) == 0 {
				err = &ExecError{Index: pc, Message: "division by zero"}
				return
			}
			r = asNumber(a) / asNumber(b)
		}
		v.push(number(r))
	case ir.OpEqual, ir.OpLess, ir.OpGreater, ir.OpLessEqual, ir.OpGreaterEqual:
		var b, a runtime.TaggedPtr
		if b, err = v.pop(pc); err != nil {
			return
		}
		if a, err = v.pop(pc); err != nil {
			return
		}
		var r bool
		switch instr.Op {
		case ir.OpEqual:
			r = v.heap.Equal(a, b)
		case ir.OpLess:
			r = asNumber(a) < asNumber(b)
		case ir.OpGreater:
			r = asNumber(a) > asNumber(b)
		case ir.OpLessEqual:
			r = asNumber(a) <= asNumber(b)
		case ir.OpGreaterEqual:
			r = asNumber(a) >= asNumber(b)
		}
		v.push(boolean(r))
	case ir.OpAnd, ir.OpOr:
		var b, a runtime.TaggedPtr
		if b, err = v.pop(pc); err != nil {
			return
		}
		if a, err = v.pop(pc); err != nil {
			return
		}
		if instr.Op == ir.OpAnd {
			v.push(boolean(truthy(a) && truthy(b)))
		} else {
			v.push(boolean(truthy(a) || truthy(b)))
		}
	case ir.OpNot:
		var a runtime.TaggedPtr
		if a, err = v.pop(pc); err != nil {
			return
		}
		v.push(boolean(!truthy(a)))
	case ir.OpJumpIfZero:
		var a runtime.TaggedPtr
		if a, err = v.pop(pc); err != nil {
			return
		}
		if !truthy(a) {
			next = instr.Target
			return
		}
		next = pc + 1
		return
	case ir.OpJump:
		next = instr.Target
		return
	case ir.OpReturn:
		if result, err = v.pop(pc); err != nil {
			return
		}
		returned = true
		return
	case ir.OpLoadLocal:
		v.push(locals[instr.Slot])
	case ir.OpStoreLocal:
		var a runtime.TaggedPtr
		if a, err = v.pop(pc); err != nil {
			return
		}
		locals[instr.Slot] = a
	case ir.OpLoadParam:
		v.push(params[instr.Index])
	case ir.OpPushLocalAddress:
		v.push(locals[instr.Slot])
	case ir.OpFreeLocal:
		v.heap.Free(locals[instr.Slot].Ptr)
	case ir.OpDefineFunction, ir.OpInitHeap:
		// no-op at execution time; InitHeap already ran once in Run.
	case ir.OpCall:
		callee, ok := v.findFunction(instr.Name)
		if !ok {
			err = &ExecError{Index: pc, Message: "call to unknown function " + instr.Name}
			return
		}
		args := make([]runtime.TaggedPtr, instr.Args)
		for i := instr.Args - 1; i >= 0; i-- {
			if args[i], err = v.pop(pc); err != nil {
				return
			}
		}
		var r runtime.TaggedPtr
		r, err = v.call(callee, args)
		if err != nil {
			return
		}
		v.push(r)
	case ir.OpAllocate:
		ptr := v.heap.Allocate(instr.Size)
		v.push(runtime.TaggedPtr{Tag: runtime.TagAny, Ptr: ptr})
	case ir.OpFree:
		var a runtime.TaggedPtr
		if a, err = v.pop(pc); err != nil {
			return
		}
		v.heap.Free(a.Ptr)
	case ir.OpPushString:
		ptr := v.heap.NewString(instr.Bytes)
		v.push(runtime.TaggedPtr{Tag: runtime.TagString, Ptr: ptr})
	case ir.OpRuntimeCall:
		args := make([]runtime.TaggedPtr, instr.Args)
		for i := instr.Args - 1; i >= 0; i-- {
			if args[i], err = v.pop(pc); err != nil {
				return
			}
		}
		var r runtime.TaggedPtr
		r, err = v.runtimeCall(instr.Name, args)
		if err != nil {
			return
		}
		v.push(r)
	}
	next = pc + 1
	return
}
