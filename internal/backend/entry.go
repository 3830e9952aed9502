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

// generateEntryStub ports generate_entry_stub from
// original_source/src/codegen/x86_64_linux/helpers.rs. It is prepended to
// every program and emits its own relocations first (design note: stub
// relocations must be stable under any later growth of the table, so user
// code and functions are emitted only after this call).
func generateEntryStub(w *writer, entrySymbol string, telemetryEnabled bool) {
	if telemetryEnabled {
		callSite := w.offset()
		w.emitByte(0xe8)
		w.emitI32(0)
		w.addCallRelocation(callSite, "_allocator_telemetry_reset")

		w.emitBytes(0xbf, 0x01, 0x00, 0x00, 0x00) // mov edi, 1

		callSite = w.offset()
		w.emitByte(0xe8)
		w.emitI32(0)
		w.addCallRelocation(callSite, "_allocator_telemetry_enable")
	}

	callSite := w.offset()
	w.emitByte(0xe8)
	w.emitI32(0)
	w.addCallRelocation(callSite, "_heap_init")

	callSite = w.offset()
	w.emitByte(0xe8)
	w.emitI32(0)
	w.addCallRelocation(callSite, entrySymbol)

	if telemetryEnabled {
		w.emitBytes(0x48, 0x89, 0xc3) // mov rbx, rax

		callSite = w.offset()
		w.emitByte(0xe8)
		w.emitI32(0)
		w.addCallRelocation(callSite, "_allocator_telemetry_dump_stdout")

		w.emitBytes(0x48, 0x89, 0xdf) // mov rdi, rbx
	} else {
		w.emitBytes(0x48, 0x89, 0xc7) // mov rdi, rax
	}

	w.emitBytes(0x48, 0xc7, 0xc0, 0x3c, 0x00, 0x00, 0x00) // mov rax, 60
	w.emitBytes(0x0f, 0x05)                               // syscall
}
