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

import "fmt"

// ArityError mirrors EvalError::ArityError(name, expected, got).
type ArityError struct {
	Name     string
	Expected int
	Got      int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s: expected %d argument(s), got %d", e.Name, e.Expected, e.Got)
}

// TypeError mirrors EvalError::TypeError(message).
type TypeError struct {
	Message string
}

func (e *TypeError) Error() string { return e.Message }

// UnboundSymbolError mirrors EvalError::UnboundSymbol(name).
type UnboundSymbolError struct {
	Name string
}

func (e *UnboundSymbolError) Error() string { return "unbound symbol: " + e.Name }

// InvalidOperationError mirrors EvalError::InvalidOperation(message), used
// by fold_pairs and malformed special forms.
type InvalidOperationError struct {
	Message string
}

func (e *InvalidOperationError) Error() string { return e.Message }
