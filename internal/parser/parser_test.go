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
package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launix-de/slisp/internal/ast"
)

func TestParseSimpleList(t *testing.T) {
	forms, err := ParseProgram(`(+ 1 2)`)
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.True(t, forms[0].IsList())
	assert.Len(t, forms[0].Children, 3)
}

func TestParseNegativeNumber(t *testing.T) {
	forms, err := ParseProgram(`(- -5 1)`)
	require.NoError(t, err)
	n := forms[0].Children[1]
	require.True(t, n.IsPrimitive())
	assert.Equal(t, int64(-5), n.Primitive.Number)
}

func TestParseStringEscapes(t *testing.T) {
	forms, err := ParseProgram(`"a\nb\"c"`)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\"c", forms[0].Primitive.String)
}

func TestParseMapSugar(t *testing.T) {
	forms, err := ParseProgram(`{:a 1 :b 2}`)
	require.NoError(t, err)
	head, ok := forms[0].HeadSymbol()
	require.True(t, ok)
	assert.Equal(t, "hash-map", head)
}

func TestParseSetSugar(t *testing.T) {
	forms, err := ParseProgram(`#{1 2 3}`)
	require.NoError(t, err)
	head, ok := forms[0].HeadSymbol()
	require.True(t, ok)
	assert.Equal(t, "hash-set", head)
}

func TestParseMismatchedDelimiter(t *testing.T) {
	_, err := ParseProgram(`(+ 1 2]`)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestParseUnterminatedString(t *testing.T) {
	_, err := ParseProgram(`"abc`)
	require.Error(t, err)
}

func TestParseRestartableAcrossForms(t *testing.T) {
	forms, err := ParseProgram(`(+ 1 2) (+ 3`)
	require.Error(t, err)
	require.Len(t, forms, 1)
}

func TestParseRoundTrip(t *testing.T) {
	sources := []string{
		`(+ 1 2)`,
		`(let [x 1 y 2] (+ x y))`,
		`(defn add [a b] (+ a b))`,
		`[1 2 3]`,
		`(str "hello" " world")`,
	}
	for _, src := range sources {
		forms, err := ParseProgram(src)
		require.NoError(t, err)
		require.Len(t, forms, 1)
		printed := ast.Print(forms[0])
		reparsed, err := ParseProgram(printed)
		require.NoError(t, err)
		require.Len(t, reparsed, 1)
		assert.Equal(t, forms[0], reparsed[0])
	}
}
