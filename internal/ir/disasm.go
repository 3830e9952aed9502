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
package ir

import (
	"fmt"
	"strings"
)

// String names an opcode for disassembly; unlike a Scmer value's printer
// this never needs to round-trip, only to read back at a glance.
func (op Op) String() string {
	switch op {
	case OpPush:
		return "push"
	case OpPop:
		return "pop"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpEqual:
		return "eq"
	case OpLess:
		return "lt"
	case OpGreater:
		return "gt"
	case OpLessEqual:
		return "le"
	case OpGreaterEqual:
		return "ge"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNot:
		return "not"
	case OpJumpIfZero:
		return "jz"
	case OpJump:
		return "jmp"
	case OpReturn:
		return "ret"
	case OpLoadLocal:
		return "load_local"
	case OpStoreLocal:
		return "store_local"
	case OpLoadParam:
		return "load_param"
	case OpPushLocalAddress:
		return "push_local_addr"
	case OpFreeLocal:
		return "free_local"
	case OpDefineFunction:
		return "defn"
	case OpCall:
		return "call"
	case OpInitHeap:
		return "init_heap"
	case OpAllocate:
		return "alloc"
	case OpFree:
		return "free"
	case OpPushString:
		return "push_str"
	case OpRuntimeCall:
		return "rtcall"
	}
	return "op?"
}

// String renders one instruction as "<op> <operands>", operands chosen by
// opcode the same way backend/sizing.go and vm.go's step switch pick
// which Instruction field applies.
func (i Instruction) String() string {
	switch i.Op {
	case OpPush:
		return fmt.Sprintf("push %d", i.Imm)
	case OpJumpIfZero, OpJump:
		return fmt.Sprintf("%s ->%d", i.Op, i.Target)
	case OpLoadLocal, OpStoreLocal, OpPushLocalAddress, OpFreeLocal:
		return fmt.Sprintf("%s #%d", i.Op, i.Slot)
	case OpLoadParam:
		return fmt.Sprintf("load_param #%d", i.Index)
	case OpDefineFunction:
		return fmt.Sprintf("defn %s/%d (%d instrs)", i.Name, i.Params, i.Args)
	case OpCall:
		return fmt.Sprintf("call %s/%d", i.Name, i.Args)
	case OpRuntimeCall:
		return fmt.Sprintf("rtcall %s/%d", i.Name, i.Args)
	case OpAllocate:
		return fmt.Sprintf("alloc %d", i.Size)
	case OpPushString:
		return fmt.Sprintf("push_str %q", string(i.Bytes))
	}
	return i.Op.String()
}

// Disassemble renders the whole program: the implicit entry's local-slot
// count, the function table, then every instruction in stream order.
func (p *Program) Disassemble() string {
	var b strings.Builder
	fmt.Fprintf(&b, "entry: %d locals\n", p.EntryLocalCount)
	for _, fn := range p.Functions {
		fmt.Fprintf(&b, "function %s: %d params, %d locals, entry @%d\n", fn.Name, fn.ParamCount, fn.LocalCount, fn.EntryIndex)
	}
	for i, instr := range p.Instructions {
		fmt.Fprintf(&b, "%4d  %s\n", i, instr)
	}
	return b.String()
}
