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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringConcatAndClone(t *testing.T) {
	h := NewHeap()
	a := h.NewString([]byte("hello"))
	b := h.NewString([]byte(" world"))
	c := h.StringConcat2(a, b)
	assert.Equal(t, "hello world", string(h.Read(c)))

	// StringConcat2 consumes and frees a and b, so clone a fresh string
	// rather than reusing either freed operand.
	original := h.NewString([]byte("hello"))
	clone := h.StringClone(original)
	assert.NotEqual(t, original, clone)
	assert.Equal(t, string(h.Read(original)), string(h.Read(clone)))
}

func TestHeapReuse(t *testing.T) {
	h := NewHeap()
	h.Telemetry().Enable(true)
	p1 := h.Allocate(8)
	h.Free(p1)
	p2 := h.Allocate(8)
	assert.Equal(t, p1, p2, "same-size free should be reused before growing the arena")

	snap := h.Telemetry().Snapshot()
	assert.Equal(t, int64(2), snap.TotalAllocations)
	assert.Equal(t, int64(1), snap.TotalFrees)
	assert.Equal(t, int64(1), snap.TotalReuses)
	// p1 was freed and its slot reused for p2: the one live block (p2) is
	// netted out by total_allocations(2) - total_frees(1) - total_reuses(1).
	assert.Equal(t, int64(0), snap.Outstanding)
}

func TestTelemetryConsistency(t *testing.T) {
	h := NewHeap()
	h.Telemetry().Enable(true)
	ptrs := []uint64{h.Allocate(8), h.Allocate(16), h.Allocate(8)}
	h.Free(ptrs[0])
	// Reuse ptrs[0]'s now-freed 8-byte slot so total_reuses > 0 and the
	// invariant below is actually exercised, not vacuously true at zero.
	reused := h.Allocate(8)
	require.Equal(t, ptrs[0], reused, "same-size free should be reused before growing the arena")

	snap := h.Telemetry().Snapshot()
	require.Greater(t, snap.TotalReuses, int64(0))
	assert.Equal(t, snap.TotalAllocations-snap.TotalFrees-snap.TotalReuses, snap.Outstanding)
	assert.GreaterOrEqual(t, snap.PeakOutstanding, snap.Outstanding)
}

func TestFreeTolerateNull(t *testing.T) {
	h := NewHeap()
	require.NotPanics(t, func() { h.Free(0) })
}

func TestPrintValues(t *testing.T) {
	h := NewHeap()
	a := h.NewString([]byte("x"))
	b := h.NewString([]byte("y"))
	var buf bytes.Buffer
	h.PrintValues(&buf, []uint64{a, b}, true)
	assert.Equal(t, "x y\n", buf.String())
}

func TestPrintfValues(t *testing.T) {
	h := NewHeap()
	x := h.NewString([]byte("x"))
	forty2 := h.NewString([]byte("42"))
	var buf bytes.Buffer
	h.PrintfValues(&buf, []byte("%s=%d%n"), []uint64{x, forty2})
	assert.Equal(t, "x=42\n", buf.String())
}

func TestPrintfPercentLiteralAndUnknownSpecifier(t *testing.T) {
	h := NewHeap()
	var buf bytes.Buffer
	h.PrintfValues(&buf, []byte("100%% done %q"), nil)
	assert.Equal(t, "100% done %q", buf.String())
}

func TestMapAssocGetDissoc(t *testing.T) {
	h := NewHeap()
	kA := TaggedPtr{Tag: TagKeyword, Ptr: h.NewKeyword(":a")}
	kB := TaggedPtr{Tag: TagKeyword, Ptr: h.NewKeyword(":b")}
	v1 := TaggedPtr{Tag: TagNumber, Ptr: 1}
	v2 := TaggedPtr{Tag: TagNumber, Ptr: 2}
	m := h.NewMap([]TaggedPtr{kA}, []TaggedPtr{v1})
	m = h.MapAssoc(m, kB, v2)
	got, ok := h.MapGet(m, kB)
	require.True(t, ok)
	assert.Equal(t, v2, got)

	m2 := h.MapDissoc(m, kA)
	_, ok = h.MapGet(m2, kA)
	assert.False(t, ok)
}

func TestSetDisjAndDedup(t *testing.T) {
	h := NewHeap()
	one := TaggedPtr{Tag: TagNumber, Ptr: 1}
	two := TaggedPtr{Tag: TagNumber, Ptr: 2}
	s := h.NewSet([]TaggedPtr{one, one, two})
	assert.Len(t, h.Set(s).Elems, 2)
	s2 := h.SetDisj(s, one)
	assert.Len(t, h.Set(s2).Elems, 1)
}
