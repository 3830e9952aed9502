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

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// EventKind discriminates a telemetry Event.
type EventKind int

const (
	EventAlloc EventKind = iota
	EventFree
)

// EventFlagReused marks an ALLOC event that reused a freed block instead
// of growing the arena.
const EventFlagReused = 1 << 0

// Event is one allocator action, recorded into Telemetry's ring buffer.
type Event struct {
	Kind       EventKind
	Ptr        uint64
	Size       int64
	InUseAfter int
	Flags      int
}

// Counters is the atomically-snapshotted telemetry summary; _counters
// copies this whole struct by value, matching the "snapshot semantics"
// resource-model note.
type Counters struct {
	TotalAllocations int64
	TotalFrees       int64
	TotalReuses      int64
	Outstanding      int64
	PeakOutstanding  int64
	EventsDropped    int64
}

const ringCapacity = 256

// Telemetry tracks allocator counters with plain atomics (single-threaded
// runtime, but atomics keep the counters consistent with scm.metrics's
// lock-free style) and a fixed-capacity ring buffer of events with drop
// counting, mirroring scm.metrics's circular sample buffers.
type Telemetry struct {
	enabled int32

	totalAllocations int64
	totalFrees       int64
	totalReuses      int64
	outstanding      int64
	peakOutstanding  int64
	eventsDropped    int64

	ring     [ringCapacity]Event
	ringNext int
	ringLen  int
}

func NewTelemetry() *Telemetry {
	return &Telemetry{}
}

func (t *Telemetry) Reset() {
	atomic.StoreInt64(&t.totalAllocations, 0)
	atomic.StoreInt64(&t.totalFrees, 0)
	atomic.StoreInt64(&t.totalReuses, 0)
	atomic.StoreInt64(&t.outstanding, 0)
	atomic.StoreInt64(&t.peakOutstanding, 0)
	atomic.StoreInt64(&t.eventsDropped, 0)
	t.ringNext = 0
	t.ringLen = 0
}

func (t *Telemetry) Enable(on bool) {
	if on {
		atomic.StoreInt32(&t.enabled, 1)
	} else {
		atomic.StoreInt32(&t.enabled, 0)
	}
}

func (t *Telemetry) Enabled() bool {
	return atomic.LoadInt32(&t.enabled) != 0
}

func (t *Telemetry) recordAlloc(ptr uint64, size int64, reused bool, liveBlocks int) {
	atomic.AddInt64(&t.totalAllocations, 1)
	if reused {
		atomic.AddInt64(&t.totalReuses, 1)
	}
	outstanding := t.storeOutstanding()
	if outstanding > atomic.LoadInt64(&t.peakOutstanding) {
		atomic.StoreInt64(&t.peakOutstanding, outstanding)
	}
	flags := 0
	if reused {
		flags |= EventFlagReused
	}
	t.push(Event{Kind: EventAlloc, Ptr: ptr, Size: size, InUseAfter: liveBlocks, Flags: flags})
}

func (t *Telemetry) recordFree(ptr uint64, size int64, liveBlocks int) {
	atomic.AddInt64(&t.totalFrees, 1)
	t.storeOutstanding()
	t.push(Event{Kind: EventFree, Ptr: ptr, Size: size, InUseAfter: liveBlocks})
}

// storeOutstanding recomputes the outstanding counter from the other three
// (total_allocations - total_frees - total_reuses, the formula a reused
// block's allocation and its prior free must both be netted out by) and
// returns the new value, so callers can compare it against the peak in the
// same pass instead of reloading it.
func (t *Telemetry) storeOutstanding() int64 {
	o := atomic.LoadInt64(&t.totalAllocations) - atomic.LoadInt64(&t.totalFrees) - atomic.LoadInt64(&t.totalReuses)
	atomic.StoreInt64(&t.outstanding, o)
	return o
}

func (t *Telemetry) push(e Event) {
	if !t.Enabled() {
		return
	}
	if t.ringLen == ringCapacity {
		atomic.AddInt64(&t.eventsDropped, 1)
		// overwrite oldest: ring stays fixed-capacity, drop counted
	} else {
		t.ringLen++
	}
	t.ring[t.ringNext] = e
	t.ringNext = (t.ringNext + 1) % ringCapacity
}

// Snapshot is _allocator_telemetry_counters: a point-in-time copy.
func (t *Telemetry) Snapshot() Counters {
	return Counters{
		TotalAllocations: atomic.LoadInt64(&t.totalAllocations),
		TotalFrees:       atomic.LoadInt64(&t.totalFrees),
		TotalReuses:      atomic.LoadInt64(&t.totalReuses),
		Outstanding:       atomic.LoadInt64(&t.outstanding),
		PeakOutstanding:   atomic.LoadInt64(&t.peakOutstanding),
		EventsDropped:     atomic.LoadInt64(&t.eventsDropped),
	}
}

// Drain is _allocator_telemetry_drain: copies up to cap events and reports
// how many, removing them from the ring. Callers loop until a short read.
func (t *Telemetry) Drain(cap int) []Event {
	n := t.ringLen
	if cap < n {
		n = cap
	}
	out := make([]Event, 0, n)
	start := (t.ringNext - t.ringLen + ringCapacity) % ringCapacity
	for i := 0; i < n; i++ {
		out = append(out, t.ring[(start+i)%ringCapacity])
	}
	t.ringLen -= n
	return out
}

// DumpStdout is _allocator_telemetry_dump_stdout: renders the report in
// the format original_source/src/allocator_trace.rs produces: one counter
// line, then one line per event drained from the ring.
func (t *Telemetry) DumpStdout() string {
	var b strings.Builder
	c := t.Snapshot()
	fmt.Fprintf(&b, "[allocator] allocations=%d frees=%d reused=%d outstanding=%d peak=%d dropped=%d\n",
		c.TotalAllocations, c.TotalFrees, c.TotalReuses, c.Outstanding, c.PeakOutstanding, c.EventsDropped)
	for _, e := range t.Drain(ringCapacity) {
		kind := "ALLOC"
		if e.Kind == EventFree {
			kind = "FREE"
		}
		line := fmt.Sprintf("[allocator] %-5s ptr=0x%016x size=%d live_after=%d", kind, e.Ptr, e.Size, e.InUseAfter)
		if e.Flags&EventFlagReused != 0 {
			line += " reused"
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
