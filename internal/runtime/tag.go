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

// Package runtime models the contract described in section 4.5: a
// bump/reuse allocator, string/collection routines, print/printf, and
// allocator telemetry. Real freestanding assembly and ELF framing are out
// of scope for this repository (see cmd/slispc), so this package is the
// Go-native stand-in internal/vm executes compiled IR against.
package runtime

// Tag is the one-byte runtime discriminator shared with compiler.ValueKind.
type Tag byte

const (
	TagNil     Tag = 0
	TagNumber  Tag = 1
	TagBoolean Tag = 2
	TagString  Tag = 3
	TagVector  Tag = 4
	TagMap     Tag = 5
	TagKeyword Tag = 6
	TagSet     Tag = 7
	TagAny     Tag = 0xFF
)
