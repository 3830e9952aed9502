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
	"io"
	"strconv"
	"strings"
)

// PrintValues is _print_values: writes each string separated by a space,
// appending '\n' iff newline is true.
func (h *Heap) PrintValues(w io.Writer, strPtrs []uint64, newline bool) {
	parts := make([]string, len(strPtrs))
	for i, p := range strPtrs {
		parts[i] = string(h.Read(p))
	}
	io.WriteString(w, strings.Join(parts, " "))
	if newline {
		io.WriteString(w, "\n")
	}
}

// PrintfValues is _printf_values: a byte-by-byte scanner over fmt, ported
// from original_source/targets/x86_64_linux/runtime/src/output.rs. Literal
// runs are copied verbatim; "%%" becomes a literal '%'; "%n"/"%N" (checked
// case-insensitively) becomes a newline; any other specifier consumes the
// next arg via write_string; an unknown specifier or one with no
// corresponding arg is passed through VERBATIM, including the '%' and the
// spec character.
func (h *Heap) PrintfValues(w io.Writer, format []byte, argPtrs []uint64) {
	argIdx := 0
	i := 0
	for i < len(format) {
		ch := format[i]
		if ch != '%' {
			w.Write([]byte{ch})
			i++
			continue
		}
		if i+1 >= len(format) {
			w.Write([]byte{ch})
			i++
			continue
		}
		spec := format[i+1]
		switch {
		case spec == '%':
			io.WriteString(w, "%")
			i += 2
		case lowerByte(spec) == 'n':
			io.WriteString(w, "\n")
			i += 2
		case argIdx < len(argPtrs):
			io.WriteString(w, valueToPrintfArg(h, spec, argPtrs[argIdx]))
			argIdx++
			i += 2
		default:
			w.Write([]byte{'%', spec})
			i += 2
		}
	}
}

func lowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}

// valueToPrintfArg renders the next argument as write_string would: every
// consumed argument in this runtime is a string pointer already, per the
// compiler's print-family lowering (arguments are marshaled to an argument
// vector of string pointers before the call), so %d and %s both resolve
// the same way; the specifier character only decides whether the slot is
// consumed, matching the Rust original's write_string-for-everything.
func valueToPrintfArg(h *Heap, spec byte, ptr uint64) string {
	_ = spec
	return string(h.Read(ptr))
}

// NewKeyword interns a keyword literal (":foo") as a heap string so it can
// flow through the same TaggedPtr machinery as other heap kinds. Keywords
// are represented identically to strings at the storage layer.
func (h *Heap) NewKeyword(text string) uint64 {
	return h.Write([]byte(text))
}

func (h *Heap) KeywordText(ptr uint64) string {
	return string(h.Read(ptr))
}

// FormatNumber renders a signed 64-bit number the way the evaluator and
// print family both expect (base 10, no leading '+').
func FormatNumber(n int64) string {
	return strconv.FormatInt(n, 10)
}
