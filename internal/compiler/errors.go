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
package compiler

import "fmt"

type ArityError struct {
	Name     string
	Expected string
	Got      int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s: expected %s arguments, got %d", e.Name, e.Expected, e.Got)
}

type InvalidExpressionError struct {
	Message string
}

func (e *InvalidExpressionError) Error() string {
	return "invalid expression: " + e.Message
}

type UnknownSymbolError struct {
	Name string
}

func (e *UnknownSymbolError) Error() string {
	return "unknown symbol: " + e.Name
}

type TypeError struct {
	Message string
}

func (e *TypeError) Error() string {
	return "type error: " + e.Message
}

type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal compiler error: " + e.Message
}
