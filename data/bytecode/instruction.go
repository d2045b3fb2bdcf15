// Copyright (C) 2019-2025 Algorand, Inc.
// This file is part of go-zkvm
//
// go-zkvm is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-zkvm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-zkvm.  If not, see <https://www.gnu.org/licenses/>.

// Package bytecode defines the instruction set of the zkvm, its binary
// encoding and a line-oriented text assembler.
package bytecode

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/algorand/go-zkvm/data/basics"
)

// Instruction is one decoded instruction. The set of implementations is
// closed; consumers switch over the concrete types.
type Instruction interface {
	// Opcode is the byte that introduces the instruction in bytecode.
	Opcode() byte
	// String is the assembly form of the instruction.
	String() string

	encodeImmediates(e *encoder)
}

// NoOperation does nothing.
type NoOperation struct{}

// Push places a constant on the evaluation stack.
type Push struct {
	Value *big.Int
	Type  basics.ScalarType
}

// Pop discards Count cells.
type Pop struct{ Count int }

// Copy duplicates the top cell.
type Copy struct{}

// Swap exchanges the two top cells.
type Swap struct{}

// Load pushes the data stack cell at a frame-relative address.
type Load struct{ Address int }

// Store pops into a frame-relative address.
type Store struct{ Address int }

// LoadGlobal pushes the data stack cell at an absolute address.
type LoadGlobal struct{ Address int }

// StoreGlobal pops into an absolute address.
type StoreGlobal struct{ Address int }

// LoadSequence pushes Len consecutive frame-relative cells starting at Address.
type LoadSequence struct{ Address, Len int }

// StoreSequence pops Len cells into consecutive frame-relative slots starting
// at Address. The top of the stack lands in the last slot.
type StoreSequence struct{ Address, Len int }

// Ref pushes an Address cell for a frame-relative address.
type Ref struct{ Address int }

// LoadByRef pops an Address cell and pushes the cell it points to.
type LoadByRef struct{}

// StoreByRef pops an Address cell, then a value, and stores the value there.
type StoreByRef struct{}

// Add and the following arithmetic instructions pop the right operand, then the left.
type Add struct{}

// Sub is left - right.
type Sub struct{}

// Mul is left * right.
type Mul struct{}

// Div is Euclidean division for integers and multiplication by the inverse for field elements.
type Div struct{}

// Rem is the Euclidean remainder.
type Rem struct{}

// Neg negates a signed integer or field element.
type Neg struct{}

// Lt pushes left < right.
type Lt struct{}

// Le pushes left <= right.
type Le struct{}

// Eq pushes left == right.
type Eq struct{}

// Ne pushes left != right.
type Ne struct{}

// Ge pushes left >= right.
type Ge struct{}

// Gt pushes left > right.
type Gt struct{}

// And is boolean conjunction.
type And struct{}

// Or is boolean disjunction.
type Or struct{}

// Xor is boolean exclusive or.
type Xor struct{}

// Not is boolean negation.
type Not struct{}

// Cast retags the top value as Type, range-checking integer targets.
type Cast struct{ Type basics.ScalarType }

// ConditionalSelect pops cond, then the then-value, then the else-value.
type ConditionalSelect struct{}

// If pops a boolean and opens a branch.
type If struct{}

// Else switches to the second arm of the innermost branch.
type Else struct{}

// EndIf closes the innermost branch and merges both arms.
type EndIf struct{}

// LoopBegin opens a loop whose body runs Iterations times.
type LoopBegin struct{ Iterations int }

// LoopEnd closes the innermost loop.
type LoopEnd struct{}

// Call enters the function at instruction index Address with InputSize arguments.
type Call struct{ Address, InputSize int }

// Return leaves the current function with OutputSize results.
type Return struct{ OutputSize int }

// Exit ends the program; the top OutputSize cells become public outputs.
type Exit struct{ OutputSize int }

// CallNative runs a built-in function over the top Size cells.
type CallNative struct {
	Function NativeFunction
	Size     int
	// NewSize is the target length for array_truncate and array_pad.
	NewSize int
}

// Assert pops a boolean that must hold whenever the instruction is reached.
type Assert struct{ Message string }

// Dbg pops ArgCount values and logs them through Format, replacing each {}.
type Dbg struct {
	Format   string
	ArgCount int
}

// StorageLoad pops a leaf index and pushes the leaf's values typed as Types.
type StorageLoad struct{ Types []basics.ScalarType }

// StorageStore pops Size values, then a leaf index, and writes the leaf.
type StorageStore struct{ Size int }

// StorageRoot pushes the current storage root.
type StorageRoot struct{}

// NewPush builds a Push with v brought into canonical form for t: signed
// integers keep their sign, every other type is reduced modulo the field
// order. It fails when v is not a value of t.
func NewPush(v *big.Int, t basics.ScalarType) (Push, error) {
	if err := t.Validate(); err != nil {
		return Push{}, err
	}
	c := new(big.Int).Set(v)
	if t.Kind == basics.KindField {
		c.Mod(c, fr.Modulus())
	} else if !t.Contains(c) {
		return Push{}, fmt.Errorf("%w: %s is not a %s", errImmediateRange, v, t)
	}
	return Push{Value: c, Type: t}, nil
}

func (NoOperation) Opcode() byte       { return OpNoOperation }
func (Push) Opcode() byte              { return OpPush }
func (Pop) Opcode() byte               { return OpPop }
func (Copy) Opcode() byte              { return OpCopy }
func (Swap) Opcode() byte              { return OpSwap }
func (Load) Opcode() byte              { return OpLoad }
func (Store) Opcode() byte             { return OpStore }
func (LoadGlobal) Opcode() byte        { return OpLoadGlobal }
func (StoreGlobal) Opcode() byte       { return OpStoreGlobal }
func (LoadSequence) Opcode() byte      { return OpLoadSequence }
func (StoreSequence) Opcode() byte     { return OpStoreSequence }
func (Ref) Opcode() byte               { return OpRef }
func (LoadByRef) Opcode() byte         { return OpLoadByRef }
func (StoreByRef) Opcode() byte        { return OpStoreByRef }
func (Add) Opcode() byte               { return OpAdd }
func (Sub) Opcode() byte               { return OpSub }
func (Mul) Opcode() byte               { return OpMul }
func (Div) Opcode() byte               { return OpDiv }
func (Rem) Opcode() byte               { return OpRem }
func (Neg) Opcode() byte               { return OpNeg }
func (Lt) Opcode() byte                { return OpLt }
func (Le) Opcode() byte                { return OpLe }
func (Eq) Opcode() byte                { return OpEq }
func (Ne) Opcode() byte                { return OpNe }
func (Ge) Opcode() byte                { return OpGe }
func (Gt) Opcode() byte                { return OpGt }
func (And) Opcode() byte               { return OpAnd }
func (Or) Opcode() byte                { return OpOr }
func (Xor) Opcode() byte               { return OpXor }
func (Not) Opcode() byte               { return OpNot }
func (Cast) Opcode() byte              { return OpCast }
func (ConditionalSelect) Opcode() byte { return OpConditionalSelect }
func (If) Opcode() byte                { return OpIf }
func (Else) Opcode() byte              { return OpElse }
func (EndIf) Opcode() byte             { return OpEndIf }
func (LoopBegin) Opcode() byte         { return OpLoopBegin }
func (LoopEnd) Opcode() byte           { return OpLoopEnd }
func (Call) Opcode() byte              { return OpCall }
func (Return) Opcode() byte            { return OpReturn }
func (Exit) Opcode() byte              { return OpExit }
func (CallNative) Opcode() byte        { return OpCallNative }
func (Assert) Opcode() byte            { return OpAssert }
func (Dbg) Opcode() byte               { return OpDbg }
func (StorageLoad) Opcode() byte       { return OpStorageLoad }
func (StorageStore) Opcode() byte      { return OpStorageStore }
func (StorageRoot) Opcode() byte       { return OpStorageRoot }

func (i NoOperation) String() string       { return opName(i) }
func (i Copy) String() string              { return opName(i) }
func (i Swap) String() string              { return opName(i) }
func (i LoadByRef) String() string         { return opName(i) }
func (i StoreByRef) String() string        { return opName(i) }
func (i Add) String() string               { return opName(i) }
func (i Sub) String() string               { return opName(i) }
func (i Mul) String() string               { return opName(i) }
func (i Div) String() string               { return opName(i) }
func (i Rem) String() string               { return opName(i) }
func (i Neg) String() string               { return opName(i) }
func (i Lt) String() string                { return opName(i) }
func (i Le) String() string                { return opName(i) }
func (i Eq) String() string                { return opName(i) }
func (i Ne) String() string                { return opName(i) }
func (i Ge) String() string                { return opName(i) }
func (i Gt) String() string                { return opName(i) }
func (i And) String() string               { return opName(i) }
func (i Or) String() string                { return opName(i) }
func (i Xor) String() string               { return opName(i) }
func (i Not) String() string               { return opName(i) }
func (i ConditionalSelect) String() string { return opName(i) }
func (i If) String() string                { return opName(i) }
func (i Else) String() string              { return opName(i) }
func (i EndIf) String() string             { return opName(i) }
func (i LoopEnd) String() string           { return opName(i) }
func (i StorageRoot) String() string       { return opName(i) }

func (i Push) String() string {
	return withImmediates(i, i.Value.String(), i.Type.String())
}
func (i Pop) String() string           { return withImmediates(i, strconv.Itoa(i.Count)) }
func (i Load) String() string          { return withImmediates(i, strconv.Itoa(i.Address)) }
func (i Store) String() string         { return withImmediates(i, strconv.Itoa(i.Address)) }
func (i LoadGlobal) String() string    { return withImmediates(i, strconv.Itoa(i.Address)) }
func (i StoreGlobal) String() string   { return withImmediates(i, strconv.Itoa(i.Address)) }
func (i Ref) String() string           { return withImmediates(i, strconv.Itoa(i.Address)) }
func (i Cast) String() string          { return withImmediates(i, i.Type.String()) }
func (i LoopBegin) String() string     { return withImmediates(i, strconv.Itoa(i.Iterations)) }
func (i Return) String() string        { return withImmediates(i, strconv.Itoa(i.OutputSize)) }
func (i Exit) String() string          { return withImmediates(i, strconv.Itoa(i.OutputSize)) }
func (i StorageStore) String() string  { return withImmediates(i, strconv.Itoa(i.Size)) }
func (i Assert) String() string        { return withImmediates(i, strconv.Quote(i.Message)) }
func (i LoadSequence) String() string  { return withImmediates(i, strconv.Itoa(i.Address), strconv.Itoa(i.Len)) }
func (i StoreSequence) String() string { return withImmediates(i, strconv.Itoa(i.Address), strconv.Itoa(i.Len)) }
func (i Call) String() string {
	return withImmediates(i, strconv.Itoa(i.Address), strconv.Itoa(i.InputSize))
}
func (i Dbg) String() string {
	return withImmediates(i, strconv.Quote(i.Format), strconv.Itoa(i.ArgCount))
}
func (i CallNative) String() string {
	return withImmediates(i, i.Function.String(), strconv.Itoa(i.Size), strconv.Itoa(i.NewSize))
}
func (i StorageLoad) String() string {
	types := make([]string, len(i.Types))
	for j, t := range i.Types {
		types[j] = t.String()
	}
	return withImmediates(i, types...)
}

func opName(i Instruction) string {
	return opsByOpcode[i.Opcode()].Name
}

func withImmediates(i Instruction, immediates ...string) string {
	if len(immediates) == 0 {
		return opName(i)
	}
	return opName(i) + " " + strings.Join(immediates, " ")
}
