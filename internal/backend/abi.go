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

// System V AMD64 parameter registers, in calling-convention order for the
// first six integer/pointer arguments.
var paramRegSaveBytes = [6][]byte{
	{0x48, 0x89, 0x7d}, // mov [rbp+disp8], rdi
	{0x48, 0x89, 0x75}, // mov [rbp+disp8], rsi
	{0x48, 0x89, 0x55}, // mov [rbp+disp8], rdx
	{0x48, 0x89, 0x4d}, // mov [rbp+disp8], rcx
	{0x4c, 0x89, 0x45}, // mov [rbp+disp8], r8
	{0x4c, 0x89, 0x4d}, // mov [rbp+disp8], r9
}

// popToArgRegBytes pops the top of stack into argument register i (0..5),
// used in reverse by generateCallSetup so the first pushed argument lands
// in rdi.
var popToArgRegBytes = [6][]byte{
	{0x5f},       // pop rdi
	{0x5e},       // pop rsi
	{0x5a},       // pop rdx
	{0x59},       // pop rcx
	{0x41, 0x58}, // pop r8
	{0x41, 0x59}, // pop r9
}

// frameSize computes S = (params+locals)*8 + 128 from §4.4: the 128-byte
// pad covers backend scratch use plus the traditional red-zone margin.
func frameSize(paramCount, localCount int) int {
	return (paramCount+localCount)*8 + 128
}

// generatePrologue emits `push rbp; mov rbp,rsp; sub rsp,S` then saves up
// to 6 parameter registers into `[rbp-8*(i+1)]`, porting
// original_source/src/codegen/abi.rs's generate_prologue exactly.
func generatePrologue(w *writer, paramCount, localCount int) {
	w.emitByte(0x55)                   // push rbp
	w.emitBytes(0x48, 0x89, 0xe5)       // mov rbp, rsp
	s := frameSize(paramCount, localCount)
	if s <= 127 {
		w.emitBytes(0x48, 0x83, 0xec, byte(s)) // sub rsp, imm8
	} else {
		w.emitBytes(0x48, 0x81, 0xec)
		w.emitU32(uint32(s))
	}
	saved := paramCount
	if saved > 6 {
		saved = 6
	}
	for i := 0; i < saved; i++ {
		disp := -8 * (i + 1)
		w.emitBytes(paramRegSaveBytes[i]...)
		w.emitByte(byte(int8(disp)))
	}
}

// generateEpilogue emits `mov rsp,rbp; pop rbp; ret`.
func generateEpilogue(w *writer) {
	w.emitBytes(0x48, 0x89, 0xec, 0x5d, 0xc3)
}

// generateCallSetup pops argCount stack arguments into rdi, rsi, rdx,
// rcx, r8, r9 in reverse order, so the first pushed argument lands in
// rdi. Arguments beyond six are unsupported, matching §4.4.
func generateCallSetup(w *writer, argCount int) {
	if argCount > 6 {
		argCount = 6
	}
	for i := argCount - 1; i >= 0; i-- {
		w.emitBytes(popToArgRegBytes[i]...)
	}
}
