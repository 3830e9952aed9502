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

// TaggedPtr pairs a heap/stack slot's runtime tag with its payload: for
// Number/Boolean the payload is packed directly into Ptr; for heap kinds
// Ptr is a Heap handle. This is how compiled IR's stack values are
// represented once internal/vm interprets RuntimeCall results, since the
// real backend keeps the tag implicit (known at compile time) but the
// interpreter needs it explicit to dispatch collection/print operations.
type TaggedPtr struct {
	Tag Tag
	Ptr uint64
}

// VectorObject is the payload behind a Vector-tagged heap block.
type VectorObject struct {
	Elems []TaggedPtr
}

// SetObject is the payload behind a Set-tagged heap block: insertion order
// preserved for deterministic Print, membership by structural key.
type SetObject struct {
	Elems []TaggedPtr
}

// MapObject is the payload behind a Map-tagged heap block.
type MapObject struct {
	Keys []TaggedPtr
	Vals []TaggedPtr
}

func elemSize(elems []TaggedPtr) int64 { return int64(len(elems)) * 8 }

// NewVector builds a fresh owned vector from already-evaluated elements.
func (h *Heap) NewVector(elems []TaggedPtr) uint64 {
	cp := append([]TaggedPtr(nil), elems...)
	return h.AllocateObject(elemSize(cp), &VectorObject{Elems: cp})
}

func (h *Heap) Vector(ptr uint64) *VectorObject {
	return h.Object(ptr).(*VectorObject)
}

// NewSet builds a fresh owned set, deduplicating by structural equality.
func (h *Heap) NewSet(elems []TaggedPtr) uint64 {
	var out []TaggedPtr
	for _, e := range elems {
		if !h.setContains(out, e) {
			out = append(out, e)
		}
	}
	return h.AllocateObject(elemSize(out), &SetObject{Elems: out})
}

func (h *Heap) Set(ptr uint64) *SetObject {
	return h.Object(ptr).(*SetObject)
}

func (h *Heap) setContains(elems []TaggedPtr, v TaggedPtr) bool {
	for _, e := range elems {
		if h.Equal(e, v) {
			return true
		}
	}
	return false
}

// SetDisj returns a fresh owned set with one element removed (disj never
// mutates the receiver, matching every other collection op's Owned-result
// contract).
func (h *Heap) SetDisj(setPtr uint64, v TaggedPtr) uint64 {
	src := h.Set(setPtr).Elems
	var out []TaggedPtr
	for _, e := range src {
		if !h.Equal(e, v) {
			out = append(out, e)
		}
	}
	return h.AllocateObject(elemSize(out), &SetObject{Elems: out})
}

// NewMap builds a fresh owned map from alternating key/value pairs.
func (h *Heap) NewMap(keys, vals []TaggedPtr) uint64 {
	ck := append([]TaggedPtr(nil), keys...)
	cv := append([]TaggedPtr(nil), vals...)
	return h.AllocateObject(elemSize(ck)+elemSize(cv), &MapObject{Keys: ck, Vals: cv})
}

func (h *Heap) Map(ptr uint64) *MapObject {
	return h.Object(ptr).(*MapObject)
}

// MapGet looks a key up by structural equality; ok is false when absent
// (the evaluator/backend both treat a missing key as Nil).
func (h *Heap) MapGet(mapPtr uint64, key TaggedPtr) (TaggedPtr, bool) {
	m := h.Map(mapPtr)
	for i, k := range m.Keys {
		if h.Equal(k, key) {
			return m.Vals[i], true
		}
	}
	return TaggedPtr{}, false
}

// MapAssoc returns a fresh owned map with key bound to val, replacing any
// existing binding for that key.
func (h *Heap) MapAssoc(mapPtr uint64, key, val TaggedPtr) uint64 {
	m := h.Map(mapPtr)
	keys := append([]TaggedPtr(nil), m.Keys...)
	vals := append([]TaggedPtr(nil), m.Vals...)
	for i, k := range keys {
		if h.Equal(k, key) {
			vals[i] = val
			return h.NewMap(keys, vals)
		}
	}
	keys = append(keys, key)
	vals = append(vals, val)
	return h.NewMap(keys, vals)
}

// MapDissoc returns a fresh owned map with key removed, if present.
func (h *Heap) MapDissoc(mapPtr uint64, key TaggedPtr) uint64 {
	m := h.Map(mapPtr)
	var keys, vals []TaggedPtr
	for i, k := range m.Keys {
		if !h.Equal(k, key) {
			keys = append(keys, k)
			vals = append(vals, m.Vals[i])
		}
	}
	return h.NewMap(keys, vals)
}

func (h *Heap) MapContainsKey(mapPtr uint64, key TaggedPtr) bool {
	_, ok := h.MapGet(mapPtr, key)
	return ok
}

// Count is `count`: String/Vector/Set/Map length, 0 for Nil.
func (h *Heap) Count(v TaggedPtr) int64 {
	switch v.Tag {
	case TagNil:
		return 0
	case TagString:
		return h.StringCount(v.Ptr)
	case TagVector:
		return int64(len(h.Vector(v.Ptr).Elems))
	case TagSet:
		return int64(len(h.Set(v.Ptr).Elems))
	case TagMap:
		return int64(len(h.Map(v.Ptr).Keys))
	}
	return 0
}

// Equal is structural equality across same-variant values, per the
// evaluator's `=` semantics (cross-variant false except Nil=Nil).
func (h *Heap) Equal(a, b TaggedPtr) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TagNil:
		return true
	case TagNumber, TagBoolean:
		return a.Ptr == b.Ptr
	case TagString:
		return string(h.Read(a.Ptr)) == string(h.Read(b.Ptr))
	case TagKeyword:
		return string(h.Read(a.Ptr)) == string(h.Read(b.Ptr))
	case TagVector:
		av, bv := h.Vector(a.Ptr).Elems, h.Vector(b.Ptr).Elems
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !h.Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case TagSet:
		as, bs := h.Set(a.Ptr).Elems, h.Set(b.Ptr).Elems
		if len(as) != len(bs) {
			return false
		}
		for _, e := range as {
			if !h.setContains(bs, e) {
				return false
			}
		}
		return true
	case TagMap:
		am, bm := h.Map(a.Ptr), h.Map(b.Ptr)
		if len(am.Keys) != len(bm.Keys) {
			return false
		}
		for i, k := range am.Keys {
			bv, ok := h.MapGet(b.Ptr, k)
			if !ok || !h.Equal(am.Vals[i], bv) {
				return false
			}
		}
		return true
	}
	return false
}
