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
package vm

import (
	"fmt"

	"github.com/launix-de/slisp/internal/runtime"
)

// runtimeCall dispatches one ir.RuntimeCall by symbol, the interpreter's
// counterpart to the backend's call-site relocation against the same
// symbol name: both ultimately reach the same internal/runtime method,
// one at compile time via a linked call, one here directly.
func (v *VM) runtimeCall(symbol string, args []runtime.TaggedPtr) (runtime.TaggedPtr, error) {
	switch symbol {
	case "_string_concat_2":
		ptr := v.heap.StringConcat2(args[0].Ptr, args[1].Ptr)
		return runtime.TaggedPtr{Tag: runtime.TagString, Ptr: ptr}, nil
	case "_string_clone":
		ptr := v.heap.StringClone(args[0].Ptr)
		return runtime.TaggedPtr{Tag: runtime.TagString, Ptr: ptr}, nil
	case "_count":
		return number(v.heap.Count(args[0])), nil
	case "_subs":
		return v.subs(args)
	case "_hash_map_new":
		keys := make([]runtime.TaggedPtr, 0, len(args)/2)
		vals := make([]runtime.TaggedPtr, 0, len(args)/2)
		for i := 0; i+1 < len(args); i += 2 {
			keys = append(keys, args[i])
			vals = append(vals, args[i+1])
		}
		ptr := v.heap.NewMap(keys, vals)
		return runtime.TaggedPtr{Tag: runtime.TagMap, Ptr: ptr}, nil
	case "_hash_set_new":
		ptr := v.heap.NewSet(args)
		return runtime.TaggedPtr{Tag: runtime.TagSet, Ptr: ptr}, nil
	case "_vector_new":
		ptr := v.heap.NewVector(args)
		return runtime.TaggedPtr{Tag: runtime.TagVector, Ptr: ptr}, nil
	case "_map_get":
		val, ok := v.heap.MapGet(args[0].Ptr, args[1])
		if !ok {
			return runtime.TaggedPtr{Tag: runtime.TagNil}, nil
		}
		return val, nil
	case "_map_assoc":
		ptr := v.heap.MapAssoc(args[0].Ptr, args[1], args[2])
		return runtime.TaggedPtr{Tag: runtime.TagMap, Ptr: ptr}, nil
	case "_map_dissoc":
		ptr := v.heap.MapDissoc(args[0].Ptr, args[1])
		return runtime.TaggedPtr{Tag: runtime.TagMap, Ptr: ptr}, nil
	case "_contains":
		return boolean(v.contains(args[0], args[1])), nil
	case "_set_disj":
		ptr := v.heap.SetDisj(args[0].Ptr, args[1])
		return runtime.TaggedPtr{Tag: runtime.TagSet, Ptr: ptr}, nil
	case "_print_values":
		newline := truthy(args[len(args)-1])
		strPtrs := make([]uint64, len(args)-1)
		for i, a := range args[:len(args)-1] {
			strPtrs[i] = a.Ptr
		}
		v.heap.PrintValues(v.out, strPtrs, newline)
		// print/println's builtins.go rule runs every argument through
		// compileOperandsOwned, so each of strPtrs is this call's sole
		// owner; free them once printed rather than leaking the arg vector.
		for _, ptr := range strPtrs {
			v.heap.Free(ptr)
		}
		return runtime.TaggedPtr{Tag: runtime.TagNil}, nil
	case "_printf_values":
		format := v.heap.Read(args[0].Ptr)
		argPtrs := make([]uint64, len(args)-1)
		for i, a := range args[1:] {
			argPtrs[i] = a.Ptr
		}
		v.heap.PrintfValues(v.out, format, argPtrs)
		v.heap.Free(args[0].Ptr)
		for _, ptr := range argPtrs {
			v.heap.Free(ptr)
		}
		return runtime.TaggedPtr{Tag: runtime.TagNil}, nil
	}
	return runtime.TaggedPtr{}, fmt.Errorf("vm: unknown runtime call %q", symbol)
}

func (v *VM) contains(container, key runtime.TaggedPtr) bool {
	switch container.Tag {
	case runtime.TagMap:
		return v.heap.MapContainsKey(container.Ptr, key)
	case runtime.TagSet:
		set := v.heap.Set(container.Ptr)
		for _, e := range set.Elems {
			if v.heap.Equal(e, key) {
				return true
			}
		}
		return false
	case runtime.TagVector:
		vec := v.heap.Vector(container.Ptr)
		for _, e := range vec.Elems {
			if v.heap.Equal(e, key) {
				return true
			}
		}
		return false
	}
	return false
}

// subs is `subs`: (subs s start) takes from start to the end of s;
// (subs s start end) takes [start, end). Both clamp to the string's
// bounds rather than panicking on a bad range.
func (v *VM) subs(args []runtime.TaggedPtr) (runtime.TaggedPtr, error) {
	data := v.heap.Read(args[0].Ptr)
	start := int(asNumber(args[1]))
	end := len(data)
	if len(args) == 3 {
		end = int(asNumber(args[2]))
	}
	if start < 0 {
		start = 0
	}
	if end > len(data) {
		end = len(data)
	}
	if start > end {
		start = end
	}
	ptr := v.heap.NewString(data[start:end])
	return runtime.TaggedPtr{Tag: runtime.TagString, Ptr: ptr}, nil
}
