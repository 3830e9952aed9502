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
package ast

import (
	"strconv"
	"strings"
)

// Print renders a Node back to source text. Round-tripping Print through
// the parser must reproduce an equal Node. The parser has already lowered
// map/set reader sugar to (hash-map ...)/(hash-set ...) lists, so Print
// renders those list forms; keywords print as their symbol text.
func Print(n Node) string {
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func writeNode(b *strings.Builder, n Node) {
	switch n.Kind {
	case KindSymbol:
		b.WriteString(n.Symbol)
	case KindPrimitive:
		writePrimitive(b, n.Primitive)
	case KindVector:
		b.WriteByte('[')
		writeChildren(b, n.Children)
		b.WriteByte(']')
	case KindList:
		b.WriteByte('(')
		writeChildren(b, n.Children)
		b.WriteByte(')')
	}
}

func writeChildren(b *strings.Builder, children []Node) {
	for i, c := range children {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeNode(b, c)
	}
}

func writePrimitive(b *strings.Builder, p Primitive) {
	if p.Kind == PrimNumber {
		b.WriteString(strconv.FormatInt(p.Number, 10))
		return
	}
	b.WriteByte('"')
	for _, r := range p.String {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}
