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

// Package backend is the x86-64 Linux two-pass emitter: sizing.go computes
// each instruction's exact byte length so forward jump offsets are known
// ahead of emission, emit.go writes the bytes, abi.go and entry.go hold
// the System V prologue/epilogue and the program entry stub. Ported from
// original_source/src/codegen/x86_64_linux/{sizing,helpers}.rs, encoded in
// the byte-emission idiom of scm/jit_emit_amd64.go.
package backend

import (
	"github.com/launix-de/slisp/internal/ir"
)

// InstructionSize returns instr's emitted byte length. hasLocals affects
// only Return, which needs the full `mov rsp,rbp; pop rbp; ret` epilogue
// (5 bytes) whenever the function has any locals or saved parameters;
// otherwise a bare `ret` (1 byte) suffices.
func InstructionSize(instr ir.Instruction, hasLocals bool) int {
	switch instr.Op {
	case ir.OpPush:
		if instr.Imm >= -128 && instr.Imm <= 127 {
			return 2 // push imm8
		}
		return 5 // push imm32
	case ir.OpPop:
		return 1
	case ir.OpAdd, ir.OpSub:
		return 6
	case ir.OpMul:
		return 7
	case ir.OpDiv:
		return 14
	case ir.OpEqual, ir.OpLess, ir.OpGreater, ir.OpLessEqual, ir.OpGreaterEqual:
		return 13
	case ir.OpAnd, ir.OpOr:
		return 6
	case ir.OpNot:
		return 12
	case ir.OpJumpIfZero:
		return 10
	case ir.OpJump:
		return 5
	case ir.OpReturn:
		if hasLocals {
			return 5
		}
		return 1
	case ir.OpLoadLocal:
		return 10
	case ir.OpStoreLocal:
		return 11
	case ir.OpLoadParam:
		return 3
	case ir.OpPushLocalAddress:
		return 10
	case ir.OpFreeLocal:
		return 6
	case ir.OpDefineFunction, ir.OpInitHeap:
		return 0
	case ir.OpCall:
		return 6
	case ir.OpAllocate:
		return 10
	case ir.OpFree:
		return 6
	case ir.OpPushString:
		return 10
	case ir.OpRuntimeCall:
		return 6
	}
	return 0
}
