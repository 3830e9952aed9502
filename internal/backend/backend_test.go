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
package backend

import (
	"encoding/binary"
	"testing"

	"github.com/launix-de/slisp/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simpleProgram has no defn at all: InitHeap plus an arithmetic
// expression, all of it the implicit top-level entry body.
func simpleProgram() *ir.Program {
	prog := ir.NewProgram()
	prog.Add(ir.InitHeap())
	prog.Add(ir.Push(2))
	prog.Add(ir.Push(3))
	prog.Add(ir.Add())
	return prog
}

// branchingProgram is a bare top-level if/else with a tail instruction
// after the end label, so the Jump target isn't the one-past-end index.
func branchingProgram() *ir.Program {
	prog := ir.NewProgram()
	prog.Add(ir.Push(1))
	jz := prog.Add(ir.JumpIfZero(0))
	prog.Add(ir.Push(10))
	jmp := prog.Add(ir.Jump(0))
	elseTarget := prog.Len()
	prog.PatchTarget(jz, elseTarget)
	prog.Add(ir.Push(20))
	endTarget := prog.Len()
	prog.PatchTarget(jmp, endTarget)
	prog.Add(ir.Pop())
	return prog
}

// TestSizingEmissionLengthMatches checks property 2: the sum of
// InstructionSize over the whole program plus its implicit entry
// prologue and closing return equals the number of bytes actually
// emitted for that span.
func TestSizingEmissionLengthMatches(t *testing.T) {
	prog := simpleProgram()
	out := CompileProgram(prog, Options{})

	want := prologueSize(0, prog.EntryLocalCount)
	for _, instr := range prog.Instructions {
		want += InstructionSize(instr, false)
	}
	want++ // bare ret closing the top-level frame (no locals)

	stub := newWriter()
	generateEntryStub(stub, "main", false)

	assert.Equal(t, len(stub.code)+want, len(out.Code), "stub size + prologue + body sizing + closing return must equal total emitted bytes")
}

// TestJumpTargetsPointAtInstructionOffsets checks property 3: every
// Jump/JumpIfZero rel32 displacement, added to the address right after
// the displacement field, lands exactly at the target instruction's
// emitted offset.
func TestJumpTargetsPointAtInstructionOffsets(t *testing.T) {
	prog := branchingProgram()
	out := CompileProgram(prog, Options{})

	offsets := make([]int, prog.Len())
	cur := prologueSize(0, prog.EntryLocalCount)
	for i, instr := range prog.Instructions {
		offsets[i] = cur
		cur += InstructionSize(instr, false)
	}

	// locate the stub length the same way CompileProgram does: emit a
	// fresh stub to know its size, since the top-level body starts right
	// after it.
	stub := newWriter()
	generateEntryStub(stub, "main", false)
	stubLen := len(stub.code)

	// JumpIfZero is instruction 1: pop(1)+test(3)+jz-opcode(2) precede its rel32.
	jzSite := stubLen + offsets[1]
	rel32Offset := jzSite + 6
	disp := int32(binary.LittleEndian.Uint32(out.Code[rel32Offset : rel32Offset+4]))
	gotTarget := rel32Offset + 4 + int(disp)
	assert.Equal(t, stubLen+offsets[4], gotTarget, "JumpIfZero must land on the else branch's first instruction")

	// Jump is instruction 3: its rel32 immediately follows the single 0xE9 byte.
	jmpSite := stubLen + offsets[3]
	rel32Offset2 := jmpSite + 1
	disp2 := int32(binary.LittleEndian.Uint32(out.Code[rel32Offset2 : rel32Offset2+4]))
	gotTarget2 := rel32Offset2 + 4 + int(disp2)
	assert.Equal(t, stubLen+offsets[5], gotTarget2, "Jump must land on the end label's first instruction")
}

func TestCallRelocationOffsetPointsPastOpcode(t *testing.T) {
	prog := ir.NewProgram()
	entry := prog.Len()
	prog.Add(ir.DefineFunction("main", 0, 2))
	prog.Add(ir.RuntimeCall("_string_concat2", 2))
	prog.Add(ir.Return())
	prog.AddFunction(ir.FunctionInfo{Name: "main", EntryIndex: entry})

	out := CompileProgram(prog, Options{})
	// The entry stub's _heap_init and main calls come first in the table.
	require.Len(t, out.Relocations, 3)
	reloc := out.Relocations[2]
	assert.Equal(t, "_string_concat2", reloc.Symbol)
	assert.Equal(t, RelocationCallRel32, reloc.Kind)
	assert.Equal(t, byte(0xe8), out.Code[reloc.Offset-1])
}

func TestPushStringInternsOnceAndRelocatesAbsolute(t *testing.T) {
	prog := ir.NewProgram()
	entry := prog.Len()
	prog.Add(ir.PushString([]byte("hi")))
	prog.Add(ir.Pop())
	prog.Add(ir.PushString([]byte("hi")))
	prog.Add(ir.Return())
	prog.AddFunction(ir.FunctionInfo{Name: "main", EntryIndex: entry})

	out := CompileProgram(prog, Options{})
	require.Len(t, out.StringTable, 1, "identical string literals share one table entry")

	var absolute int
	for _, r := range out.Relocations {
		if r.Kind == RelocationAbsolute64 {
			absolute++
			assert.Equal(t, out.StringTable[0].Symbol, r.Symbol)
		}
	}
	assert.Equal(t, 2, absolute, "each PushString site gets its own relocation even when the symbol is shared")
}

func TestEntryStubTelemetryToggle(t *testing.T) {
	off := newWriter()
	generateEntryStub(off, "main", false)

	on := newWriter()
	generateEntryStub(on, "main", true)

	assert.Greater(t, len(on.code), len(off.code))
	assert.Len(t, off.relocations, 2, "heap_init + entry symbol only")
	assert.Len(t, on.relocations, 5, "plus telemetry reset + enable + dump")
}

func TestPrologueSizeMatchesGeneratePrologue(t *testing.T) {
	for _, tc := range []struct{ params, locals int }{
		{0, 0}, {1, 2}, {6, 10}, {3, 0},
	} {
		w := newWriter()
		generatePrologue(w, tc.params, tc.locals)
		assert.Equal(t, prologueSize(tc.params, tc.locals), len(w.code))
	}
}

func TestFrameSizeFormula(t *testing.T) {
	assert.Equal(t, 128, frameSize(0, 0))
	assert.Equal(t, (2+3)*8+128, frameSize(2, 3))
}

// TestDefinedFunctionBetweenTopLevelFormsGetsItsOwnAddress exercises the
// common shape a program actually compiles to: a defn sits inline between
// two top-level expressions. Both the defn's own callable address and
// the byte count of every instruction (top-level and function body
// alike) must be accounted for, not just the function table's entries.
func TestDefinedFunctionBetweenTopLevelFormsGetsItsOwnAddress(t *testing.T) {
	prog := ir.NewProgram()
	prog.Add(ir.InitHeap())              // 0: top-level
	prog.Add(ir.Push(1))                 // 1: top-level
	entry := prog.Len()
	prog.Add(ir.DefineFunction("square", 1, 0)) // 2
	prog.Add(ir.LoadParam(0))                   // 3
	prog.Add(ir.LoadParam(0))                   // 4
	prog.Add(ir.Mul())                          // 5
	prog.Add(ir.Return())                       // 6
	prog.Instructions[entry].Args = prog.Len() - entry - 1
	prog.AddFunction(ir.FunctionInfo{Name: "square", ParamCount: 1, LocalCount: 0, EntryIndex: entry})
	prog.Add(ir.Push(2)) // 7: top-level, after the function

	out := CompileProgram(prog, Options{})

	squareAddr, ok := out.FunctionSymbols["square"]
	require.True(t, ok, "defined function must get a callable address")
	entryAddr, ok := out.FunctionSymbols["main"]
	require.True(t, ok, "the implicit top-level body must get a callable address")
	assert.NotEqual(t, entryAddr, squareAddr)

	// Total bytes: stub + top-level prologue + 3 top-level instructions
	// (InitHeap=0, Push, Push) + function prologue + 4 body instructions
	// (LoadParam, LoadParam, Mul, Return with locals) + closing ret.
	stub := newWriter()
	generateEntryStub(stub, "main", false)

	want := len(stub.code)
	want += prologueSize(0, 0)
	want += InstructionSize(ir.InitHeap(), false)
	want += InstructionSize(ir.Push(1), false)
	want += InstructionSize(ir.Push(2), false)
	want += 1 // bare ret closing the top-level frame

	want += prologueSize(1, 0)
	want += InstructionSize(ir.LoadParam(0), true)
	want += InstructionSize(ir.LoadParam(0), true)
	want += InstructionSize(ir.Mul(), true)
	want += InstructionSize(ir.Return(), true)

	assert.Equal(t, want, len(out.Code))
}
