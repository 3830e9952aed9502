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
package runtime

// NewString is PushString's backing store: registers a fresh owned string
// block holding exactly the literal bytes (no NUL terminator tracked; see
// StringCount, which uses len() rather than scanning for a terminator).
func (h *Heap) NewString(data []byte) uint64 {
	return h.Write(data)
}

// StringCount is _string_count: length of the string at ptr.
func (h *Heap) StringCount(ptr uint64) int64 {
	return int64(len(h.Read(ptr)))
}

// StringConcat2 is _string_concat_2: returns a fresh owned string and
// consumes both operands, freeing them once their bytes are copied out.
// str's fold (internal/compiler/builtins.go) only ever feeds this owned
// strings (literals and Borrowed locals are cloned first), so every call
// here has exactly one consumer for each operand's lifetime.
func (h *Heap) StringConcat2(a, b uint64) uint64 {
	da, db := h.Read(a), h.Read(b)
	out := make([]byte, 0, len(da)+len(db))
	out = append(out, da...)
	out = append(out, db...)
	ptr := h.Write(out)
	h.Free(a)
	h.Free(b)
	return ptr
}

// StringClone is _string_clone: an owned duplicate.
func (h *Heap) StringClone(ptr uint64) uint64 {
	src := h.Read(ptr)
	out := make([]byte, len(src))
	copy(out, src)
	return h.Write(out)
}
