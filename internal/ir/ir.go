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

// Package ir defines the linear IR stack machine that sits between the
// compiler and the x86-64 backend: a flat instruction sequence plus a
// function table, mirroring original_source's ir.rs one-for-one.
package ir

// Op is the IR opcode.
type Op int

const (
	OpPush Op = iota
	OpPop
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpEqual
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual
	OpAnd
	OpOr
	OpNot
	OpJumpIfZero
	OpJump
	OpReturn
	OpLoadLocal
	OpStoreLocal
	OpLoadParam
	OpPushLocalAddress
	OpFreeLocal
	OpDefineFunction
	OpCall
	OpInitHeap
	OpAllocate
	OpFree
	OpPushString
	OpRuntimeCall
)

// Instruction is one IR op plus whichever operand fields it uses. Unused
// fields are zero; this mirrors a Rust enum's per-variant payload without
// needing Go's less convenient tagged-union idioms.
type Instruction struct {
	Op Op

	Imm    int64  // Push
	Slot   int    // LoadLocal/StoreLocal/PushLocalAddress/FreeLocal
	Index  int    // LoadParam
	Target int    // JumpIfZero/Jump: instruction index, resolved to rel32 by the backend
	Name   string // Call/RuntimeCall/DefineFunction
	Args   int    // Call/RuntimeCall: argument count
	Params int    // DefineFunction: parameter count
	Size   int64  // Allocate: byte size
	Bytes  []byte // PushString: literal content (no NUL; the runtime contract null-terminates)
}

func Push(n int64) Instruction              { return Instruction{Op: OpPush, Imm: n} }
func Pop() Instruction                      { return Instruction{Op: OpPop} }
func Add() Instruction                      { return Instruction{Op: OpAdd} }
func Sub() Instruction                      { return Instruction{Op: OpSub} }
func Mul() Instruction                      { return Instruction{Op: OpMul} }
func Div() Instruction                      { return Instruction{Op: OpDiv} }
func Equal() Instruction                    { return Instruction{Op: OpEqual} }
func Less() Instruction                     { return Instruction{Op: OpLess} }
func Greater() Instruction                  { return Instruction{Op: OpGreater} }
func LessEqual() Instruction                { return Instruction{Op: OpLessEqual} }
func GreaterEqual() Instruction             { return Instruction{Op: OpGreaterEqual} }
func And() Instruction                      { return Instruction{Op: OpAnd} }
func Or() Instruction                       { return Instruction{Op: OpOr} }
func Not() Instruction                      { return Instruction{Op: OpNot} }
func JumpIfZero(target int) Instruction     { return Instruction{Op: OpJumpIfZero, Target: target} }
func Jump(target int) Instruction           { return Instruction{Op: OpJump, Target: target} }
func Return() Instruction                   { return Instruction{Op: OpReturn} }
func LoadLocal(slot int) Instruction        { return Instruction{Op: OpLoadLocal, Slot: slot} }
func StoreLocal(slot int) Instruction       { return Instruction{Op: OpStoreLocal, Slot: slot} }
func LoadParam(index int) Instruction       { return Instruction{Op: OpLoadParam, Index: index} }
func PushLocalAddress(slot int) Instruction { return Instruction{Op: OpPushLocalAddress, Slot: slot} }
func FreeLocal(slot int) Instruction        { return Instruction{Op: OpFreeLocal, Slot: slot} }
func DefineFunction(name string, params, bodyLen int) Instruction {
	return Instruction{Op: OpDefineFunction, Name: name, Params: params, Args: bodyLen}
}
func Call(name string, argCount int) Instruction {
	return Instruction{Op: OpCall, Name: name, Args: argCount}
}
func InitHeap() Instruction            { return Instruction{Op: OpInitHeap} }
func Allocate(size int64) Instruction  { return Instruction{Op: OpAllocate, Size: size} }
func Free() Instruction                { return Instruction{Op: OpFree} }
func PushString(b []byte) Instruction  { return Instruction{Op: OpPushString, Bytes: b} }
func RuntimeCall(symbol string, argCount int) Instruction {
	return Instruction{Op: OpRuntimeCall, Name: symbol, Args: argCount}
}

// FunctionInfo describes one compiled function's entry point and frame
// shape within a Program's flat instruction stream.
type FunctionInfo struct {
	Name       string
	ParamCount int
	LocalCount int
	EntryIndex int
}

// Program is the ordered instruction sequence plus the function table.
// defn/fn bodies sit inline at the position they were compiled, bracketed
// by their DefineFunction marker and a Return; any other top-level form
// compiles directly into Instructions with no FunctionInfo of its own, so
// a straight-line walk of the program (from index 0) must treat the gaps
// between function spans as the implicit entry body and skip over each
// function span it meets rather than falling into it.
type Program struct {
	Instructions []Instruction
	Functions    []FunctionInfo
	// EntryLocalCount is the local-slot count the top-level (non-function)
	// instruction span needs, mirroring a FunctionInfo's LocalCount for
	// the implicit entry body.
	EntryLocalCount int
}

func NewProgram() *Program {
	return &Program{}
}

// Add appends an instruction and returns its index, so callers can patch
// Jump/JumpIfZero targets once the instruction they point to is known.
func (p *Program) Add(instr Instruction) int {
	p.Instructions = append(p.Instructions, instr)
	return len(p.Instructions) - 1
}

func (p *Program) Len() int {
	return len(p.Instructions)
}

// PatchTarget rewrites the Target field of a previously-added jump
// instruction, used when the else/end label position becomes known after
// the jump itself was emitted.
func (p *Program) PatchTarget(index, target int) {
	p.Instructions[index].Target = target
}

func (p *Program) AddFunction(info FunctionInfo) {
	p.Functions = append(p.Functions, info)
}

// FunctionEnd returns the index one past the Return instruction closing
// the function whose DefineFunction marker sits at entryIndex, using the
// marker's recorded body length rather than assuming the next function
// table entry (if any) immediately follows: top-level forms can sit
// between one function's body and the next.
func (p *Program) FunctionEnd(entryIndex int) int {
	return entryIndex + 1 + p.Instructions[entryIndex].Args
}
