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
package eval

import (
	"testing"

	"github.com/launix-de/slisp/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalSource(t *testing.T, src string) Value {
	t.Helper()
	forms, err := parser.ParseProgram(src)
	require.NoError(t, err)
	v, err := RunProgram(forms)
	require.NoError(t, err)
	return v
}

func TestEvalArithmeticAndLet(t *testing.T) {
	v := evalSource(t, `(let [a 2 b 3] (+ a b))`)
	assert.Equal(t, Num(5), v)
}

func TestEvalLetRejectsShadowing(t *testing.T) {
	forms, err := parser.ParseProgram(`(let [a 1 a 2] a)`)
	require.NoError(t, err)
	_, err = RunProgram(forms)
	require.Error(t, err)
	assert.IsType(t, &InvalidOperationError{}, err)
}

func TestEvalIfBranches(t *testing.T) {
	assert.Equal(t, Num(1), evalSource(t, `(if true 1 2)`))
	assert.Equal(t, Num(2), evalSource(t, `(if false 1 2)`))
	assert.Equal(t, Nil(), evalSource(t, `(if false 1)`))
}

func TestEvalTruthinessOfZeroAndEmpty(t *testing.T) {
	assert.Equal(t, Num(2), evalSource(t, `(if 0 1 2)`))
	assert.Equal(t, Num(2), evalSource(t, `(if "" 1 2)`))
	assert.Equal(t, Num(1), evalSource(t, `(if "x" 1 2)`))
}

func TestEvalDefnAndCall(t *testing.T) {
	v := evalSource(t, `(defn square [n] (* n n)) (square 6)`)
	assert.Equal(t, Num(36), v)
}

func TestEvalEqualityCrossVariant(t *testing.T) {
	assert.Equal(t, Bool(true), evalSource(t, `(= nil nil)`))
	assert.Equal(t, Bool(false), evalSource(t, `(= 1 "1")`))
	assert.Equal(t, Bool(true), evalSource(t, `(= (vec 1 2) (vec 1 2))`))
}

func TestEvalCollections(t *testing.T) {
	assert.Equal(t, Num(3), evalSource(t, `(count (vec 1 2 3))`))
	assert.Equal(t, Num(0), evalSource(t, `(count nil)`))
	v := evalSource(t, `(get (assoc (hash-map :a 1) :b 2) :b)`)
	assert.Equal(t, Num(2), v)
	assert.Equal(t, Bool(true), evalSource(t, `(contains? (hash-set 1 2) 2)`))
	assert.Equal(t, Bool(false), evalSource(t, `(contains? (disj (hash-set 1 2) 2) 2)`))
}

func TestEvalStrAndSubs(t *testing.T) {
	assert.Equal(t, Str("ab3"), evalSource(t, `(str "a" "b" 3)`))
	assert.Equal(t, Str("ell"), evalSource(t, `(subs "hello" 1 4)`))
}

func TestEvalUnboundSymbol(t *testing.T) {
	forms, err := parser.ParseProgram(`missing-name`)
	require.NoError(t, err)
	_, err = RunProgram(forms)
	require.Error(t, err)
	assert.IsType(t, &UnboundSymbolError{}, err)
}

func TestEvalArityErrors(t *testing.T) {
	forms, err := parser.ParseProgram(`(+ 1)`)
	require.NoError(t, err)
	_, err = RunProgram(forms)
	require.Error(t, err)
	assert.IsType(t, &ArityError{}, err)
}
