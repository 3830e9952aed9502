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

import "fmt"

// Block is one allocation tracked by Heap. Real pointers don't exist in
// this Go model; Ptr is a synthetic handle stable for the block's lifetime.
type Block struct {
	Ptr    uint64
	Data   []byte
	Object any // non-nil for Vector/Map/Set payloads; see AllocateObject
}

// Heap is a bump/reuse allocator: freed blocks of an exact size are kept
// on a per-size freelist and handed back out before the arena grows,
// mirroring the "bump/reuse allocator" the runtime contract names. Each
// internal/vm run owns its own Heap; there is no process-global arena the way scm.Globalenv is a
// package-level var, since SLisp's runtime must model a single-shot
// executable, not a long-lived server process.
type Heap struct {
	nextPtr   uint64
	blocks    map[uint64]*Block
	freeLists map[int64][]uint64
	telemetry *Telemetry
}

func NewHeap() *Heap {
	return &Heap{
		nextPtr:   1,
		blocks:    make(map[uint64]*Block),
		freeLists: make(map[int64][]uint64),
		telemetry: NewTelemetry(),
	}
}

// Init is _heap_init: idempotent, here a no-op since construction already
// prepares the arena.
func (h *Heap) Init() {}

func (h *Heap) Telemetry() *Telemetry { return h.telemetry }

// Allocate is _allocate: 8-byte aligned conceptually (sizes are tracked
// exactly; alignment has no observable effect in this Go model since there
// is no raw memory to mis-align). Reuses a same-size freed block when one
// is available.
func (h *Heap) Allocate(size int64) uint64 {
	reused := false
	var ptr uint64
	if free := h.freeLists[size]; len(free) > 0 {
		ptr = free[len(free)-1]
		h.freeLists[size] = free[:len(free)-1]
		h.blocks[ptr] = &Block{Ptr: ptr, Data: make([]byte, size)}
		reused = true
	} else {
		ptr = h.nextPtr
		h.nextPtr++
		h.blocks[ptr] = &Block{Ptr: ptr, Data: make([]byte, size)}
	}
	h.telemetry.recordAlloc(ptr, size, reused, len(h.blocks))
	return ptr
}

// Free is _free: tolerates null (ptr==0) and double-free defensively by
// treating both as no-ops, matching "_free(ptr) may be a no-op ... must
// tolerate null".
func (h *Heap) Free(ptr uint64) {
	if ptr == 0 {
		return
	}
	blk, ok := h.blocks[ptr]
	if !ok {
		return
	}
	size := int64(len(blk.Data))
	delete(h.blocks, ptr)
	h.freeLists[size] = append(h.freeLists[size], ptr)
	h.telemetry.recordFree(ptr, size, len(h.blocks))
}

func (h *Heap) block(ptr uint64) *Block {
	blk, ok := h.blocks[ptr]
	if !ok {
		panic(fmt.Sprintf("runtime: use of freed or unknown pointer 0x%x", ptr))
	}
	return blk
}

// Read returns the live bytes stored at ptr.
func (h *Heap) Read(ptr uint64) []byte {
	return h.block(ptr).Data
}

// Write stores data into a freshly-sized block and returns its handle.
func (h *Heap) Write(data []byte) uint64 {
	ptr := h.Allocate(int64(len(data)))
	copy(h.blocks[ptr].Data, data)
	return ptr
}

// AllocateObject tracks a non-string heap value (Vector/Map/Set payloads
// from internal/vm's RuntimeCall handlers) through the same allocator so
// telemetry counts and Free/reuse behavior stay uniform across value
// kinds, instead of giving collections a parallel bookkeeping path.
func (h *Heap) AllocateObject(size int64, payload any) uint64 {
	ptr := h.Allocate(size)
	h.blocks[ptr].Object = payload
	return ptr
}

func (h *Heap) Object(ptr uint64) any {
	return h.block(ptr).Object
}

func (h *Heap) SetObject(ptr uint64, payload any) {
	h.block(ptr).Object = payload
}
