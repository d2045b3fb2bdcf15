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

package bytecode

import (
	"fmt"
)

// Opcodes
const (
	OpNoOperation byte = 0x00
	OpPush        byte = 0x01
	OpPop         byte = 0x02
	OpCopy        byte = 0x03
	OpSwap        byte = 0x04

	OpLoad          byte = 0x10
	OpStore         byte = 0x11
	OpLoadGlobal    byte = 0x12
	OpStoreGlobal   byte = 0x13
	OpLoadSequence  byte = 0x14
	OpStoreSequence byte = 0x15
	OpRef           byte = 0x16
	OpLoadByRef     byte = 0x17
	OpStoreByRef    byte = 0x18

	OpAdd byte = 0x20
	OpSub byte = 0x21
	OpMul byte = 0x22
	OpDiv byte = 0x23
	OpRem byte = 0x24
	OpNeg byte = 0x25

	OpLt byte = 0x30
	OpLe byte = 0x31
	OpEq byte = 0x32
	OpNe byte = 0x33
	OpGe byte = 0x34
	OpGt byte = 0x35

	OpAnd               byte = 0x38
	OpOr                byte = 0x39
	OpXor               byte = 0x3a
	OpNot               byte = 0x3b
	OpCast              byte = 0x3c
	OpConditionalSelect byte = 0x3d

	OpIf        byte = 0x40
	OpElse      byte = 0x41
	OpEndIf     byte = 0x42
	OpLoopBegin byte = 0x43
	OpLoopEnd   byte = 0x44
	OpCall      byte = 0x45
	OpReturn    byte = 0x46
	OpExit      byte = 0x47

	OpCallNative byte = 0x50
	OpAssert     byte = 0x51
	OpDbg        byte = 0x52

	OpStorageLoad  byte = 0x60
	OpStorageStore byte = 0x61
	OpStorageRoot  byte = 0x62
)

// NativeFunction selects the built-in run by CallNative.
type NativeFunction byte

// Native functions
const (
	// NativeMiMC hashes Size values into one field element.
	NativeMiMC NativeFunction = iota
	// NativeToBits expands one value into its little-endian bits.
	NativeToBits
	// NativeFromBits packs Size booleans into u<Size>.
	NativeFromBits
	// NativeArrayReverse reverses the top Size cells.
	NativeArrayReverse
	// NativeArrayTruncate keeps the first NewSize of the top Size cells.
	NativeArrayTruncate
	// NativeArrayPad extends the top Size cells to NewSize with zeros.
	NativeArrayPad

	numNativeFunctions
)

var nativeNames = [numNativeFunctions]string{
	NativeMiMC:          "mimc",
	NativeToBits:        "to_bits",
	NativeFromBits:      "from_bits",
	NativeArrayReverse:  "array_reverse",
	NativeArrayTruncate: "array_truncate",
	NativeArrayPad:      "array_pad",
}

func (f NativeFunction) String() string {
	if f < numNativeFunctions {
		return nativeNames[f]
	}
	return fmt.Sprintf("native(%d)", byte(f))
}

// Valid reports whether f names a known native function.
func (f NativeFunction) Valid() bool {
	return f < numNativeFunctions
}

// ParseNativeFunction is the inverse of NativeFunction.String.
func ParseNativeFunction(name string) (NativeFunction, error) {
	for f, n := range nativeNames {
		if n == name {
			return NativeFunction(f), nil
		}
	}
	return 0, fmt.Errorf("unknown native function %q", name)
}

type decodeFunc func(d *decoder) (Instruction, error)

type asmFunc func(args []string, labels map[string]int) (Instruction, error)

// OpSpec defines an opcode
type OpSpec struct {
	Opcode byte
	Name   string
	// Immediates is the number of assembly arguments; -1 when variable.
	Immediates int

	decode decodeFunc
	asm    asmFunc
}

// nullary describes an instruction without immediates.
func nullary(opcode byte, name string, inst Instruction) OpSpec {
	return OpSpec{
		Opcode: opcode,
		Name:   name,
		decode: func(*decoder) (Instruction, error) { return inst, nil },
		asm:    func([]string, map[string]int) (Instruction, error) { return inst, nil },
	}
}

func immediates(opcode byte, name string, count int, decode decodeFunc, asm asmFunc) OpSpec {
	return OpSpec{Opcode: opcode, Name: name, Immediates: count, decode: decode, asm: asm}
}

// OpSpecs is the table of instructions that can be assembled and decoded.
var OpSpecs = []OpSpec{
	nullary(OpNoOperation, "noop", NoOperation{}),
	immediates(OpPush, "push", 2, decodePush, asmPush),
	immediates(OpPop, "pop", 1, decodePop, asmPop),
	nullary(OpCopy, "copy", Copy{}),
	nullary(OpSwap, "swap", Swap{}),

	immediates(OpLoad, "load", 1, decodeAddress(func(a int) Instruction { return Load{a} }), asmAddress(func(a int) Instruction { return Load{a} })),
	immediates(OpStore, "store", 1, decodeAddress(func(a int) Instruction { return Store{a} }), asmAddress(func(a int) Instruction { return Store{a} })),
	immediates(OpLoadGlobal, "load_global", 1, decodeAddress(func(a int) Instruction { return LoadGlobal{a} }), asmAddress(func(a int) Instruction { return LoadGlobal{a} })),
	immediates(OpStoreGlobal, "store_global", 1, decodeAddress(func(a int) Instruction { return StoreGlobal{a} }), asmAddress(func(a int) Instruction { return StoreGlobal{a} })),
	immediates(OpLoadSequence, "load_seq", 2, decodeSequence(func(a, n int) Instruction { return LoadSequence{a, n} }), asmSequence(func(a, n int) Instruction { return LoadSequence{a, n} })),
	immediates(OpStoreSequence, "store_seq", 2, decodeSequence(func(a, n int) Instruction { return StoreSequence{a, n} }), asmSequence(func(a, n int) Instruction { return StoreSequence{a, n} })),
	immediates(OpRef, "ref", 1, decodeAddress(func(a int) Instruction { return Ref{a} }), asmAddress(func(a int) Instruction { return Ref{a} })),
	nullary(OpLoadByRef, "load_ref", LoadByRef{}),
	nullary(OpStoreByRef, "store_ref", StoreByRef{}),

	nullary(OpAdd, "add", Add{}),
	nullary(OpSub, "sub", Sub{}),
	nullary(OpMul, "mul", Mul{}),
	nullary(OpDiv, "div", Div{}),
	nullary(OpRem, "rem", Rem{}),
	nullary(OpNeg, "neg", Neg{}),

	nullary(OpLt, "lt", Lt{}),
	nullary(OpLe, "le", Le{}),
	nullary(OpEq, "eq", Eq{}),
	nullary(OpNe, "ne", Ne{}),
	nullary(OpGe, "ge", Ge{}),
	nullary(OpGt, "gt", Gt{}),

	nullary(OpAnd, "and", And{}),
	nullary(OpOr, "or", Or{}),
	nullary(OpXor, "xor", Xor{}),
	nullary(OpNot, "not", Not{}),
	immediates(OpCast, "cast", 1, decodeCast, asmCast),
	nullary(OpConditionalSelect, "select", ConditionalSelect{}),

	nullary(OpIf, "if", If{}),
	nullary(OpElse, "else", Else{}),
	nullary(OpEndIf, "endif", EndIf{}),
	immediates(OpLoopBegin, "loop_begin", 1, decodeLoopBegin, asmLoopBegin),
	nullary(OpLoopEnd, "loop_end", LoopEnd{}),
	immediates(OpCall, "call", 2, decodeCall, asmCall),
	immediates(OpReturn, "return", 1, decodeReturn, asmReturn),
	immediates(OpExit, "exit", 1, decodeExit, asmExit),

	immediates(OpCallNative, "call_native", 3, decodeCallNative, asmCallNative),
	immediates(OpAssert, "assert", 1, decodeAssert, asmAssert),
	immediates(OpDbg, "dbg", 2, decodeDbg, asmDbg),

	immediates(OpStorageLoad, "storage_load", -1, decodeStorageLoad, asmStorageLoad),
	immediates(OpStorageStore, "storage_store", 1, decodeStorageStore, asmStorageStore),
	nullary(OpStorageRoot, "storage_root", StorageRoot{}),
}

// direct opcode bytes
var opsByOpcode [256]OpSpec

// OpsByName maps mnemonics to their OpSpec
var OpsByName map[string]OpSpec

func init() {
	OpsByName = make(map[string]OpSpec, len(OpSpecs))
	for _, spec := range OpSpecs {
		if opsByOpcode[spec.Opcode].Name != "" {
			panic(fmt.Sprintf("duplicate opcode 0x%02x", spec.Opcode))
		}
		opsByOpcode[spec.Opcode] = spec
		OpsByName[spec.Name] = spec
	}
}

// OpSpecForOpcode returns the spec of opcode and whether it is defined.
func OpSpecForOpcode(opcode byte) (OpSpec, bool) {
	spec := opsByOpcode[opcode]
	return spec, spec.Name != ""
}
