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

import "github.com/launix-de/slisp/internal/ir"

// Program is the backend's output: raw machine code plus the relocation
// and string-literal tables the (out-of-scope) ELF linker consumes.
type Program struct {
	Code        []byte
	Relocations []SymbolRelocation
	StringTable []StringLiteral
	EntrySymbol string
	// FunctionSymbols maps every defined function's name, plus EntrySymbol
	// itself (the implicit top-level body), to the byte offset of its
	// callable entry point (the first prologue byte, not the zero-size
	// DefineFunction marker) so Call/entry-stub relocations against a
	// locally-defined function resolve within this object.
	FunctionSymbols map[string]int
}

// Options controls code generation that isn't implied by the IR itself.
type Options struct {
	// TelemetryEnabled wires the entry stub's allocator-telemetry
	// reset/enable/dump calls around the program's single entry point.
	TelemetryEnabled bool
	// EntrySymbol names the implicit top-level body the entry stub calls
	// after heap_init; "main" when absent.
	EntrySymbol string
}

// functionAt reports the FunctionInfo whose DefineFunction marker sits at
// index, if any: instructions not covered by any function's span belong
// to the implicit top-level entry body.
func functionAt(prog *ir.Program, index int) (ir.FunctionInfo, bool) {
	for _, fn := range prog.Functions {
		if fn.EntryIndex == index {
			return fn, true
		}
	}
	return ir.FunctionInfo{}, false
}

// CompileProgram runs the two-pass emitter over prog: first the entry
// stub (so its relocations stay first and stable regardless of how many
// function bodies follow), then a sizing pass over the whole instruction
// stream that fills a single offsets table indexed by each instruction's
// global position in prog.Instructions (the same indexing Jump/JumpIfZero
// targets use), then an emission pass that resolves every jump directly
// against that table. The stream is walked once in program order; at each
// function's DefineFunction marker a prologue is emitted and the walk
// continues straight through that function's body (it is physically
// inline), while the space between/after function spans is the implicit
// top-level entry — the one the entry stub's call to entrySymbol lands
// on — framed with its own prologue using EntryLocalCount.
func CompileProgram(prog *ir.Program, opts Options) *Program {
	entrySymbol := opts.EntrySymbol
	if entrySymbol == "" {
		entrySymbol = "main"
	}

	w := newWriter()
	generateEntryStub(w, entrySymbol, opts.TelemetryEnabled)

	entryHasLocals := prog.EntryLocalCount > 0
	offsets := make([]int, prog.Len())
	functionSymbols := make(map[string]int, len(prog.Functions)+1)

	cur := w.offset()
	functionSymbols[entrySymbol] = cur
	cur += prologueSize(0, prog.EntryLocalCount)
	for i := 0; i < prog.Len(); {
		if fn, ok := functionAt(prog, i); ok {
			end := prog.FunctionEnd(i)
			hasLocals := fn.LocalCount > 0 || fn.ParamCount > 0
			functionSymbols[fn.Name] = cur
			cur += prologueSize(fn.ParamCount, fn.LocalCount)
			for j := i; j < end; j++ {
				offsets[j] = cur
				cur += InstructionSize(prog.Instructions[j], hasLocals)
			}
			i = end
			continue
		}
		offsets[i] = cur
		cur += InstructionSize(prog.Instructions[i], entryHasLocals)
		i++
	}

	generatePrologue(w, 0, prog.EntryLocalCount)
	for i := 0; i < prog.Len(); {
		if fn, ok := functionAt(prog, i); ok {
			end := prog.FunctionEnd(i)
			hasLocals := fn.LocalCount > 0 || fn.ParamCount > 0
			generatePrologue(w, fn.ParamCount, fn.LocalCount)
			for j := i; j < end; j++ {
				emitInstruction(w, prog.Instructions[j], offsets, j, hasLocals)
			}
			i = end
			continue
		}
		emitInstruction(w, prog.Instructions[i], offsets, i, entryHasLocals)
		i++
	}
	// Top-level code has no Return of its own; close its frame here so
	// the entry stub's call returns normally.
	if entryHasLocals {
		generateEpilogue(w)
	} else {
		w.emitByte(0xc3)
	}

	return &Program{
		Code:            w.code,
		Relocations:     w.relocations,
		StringTable:     w.strings,
		EntrySymbol:     entrySymbol,
		FunctionSymbols: functionSymbols,
	}
}

// prologueSize mirrors generatePrologue's byte count exactly: `push rbp`
// (1) + `mov rbp,rsp` (3) + `sub rsp,imm` (4 or 7) + one save per
// parameter register, up to 6 (4 bytes each).
func prologueSize(paramCount, localCount int) int {
	size := 1 + 3
	s := frameSize(paramCount, localCount)
	if s <= 127 {
		size += 4
	} else {
		size += 7
	}
	saved := paramCount
	if saved > 6 {
		saved = 6
	}
	size += saved * 4
	return size
}
