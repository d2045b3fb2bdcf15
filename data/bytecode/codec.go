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
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/algorand/go-zkvm/data/basics"
)

// maxImmediate bounds counts and addresses so they fit an int everywhere.
const maxImmediate = math.MaxInt32

// maxElementBytes is the byte length of a field element.
const maxElementBytes = fr.Bytes

var (
	errImmediateRange = errors.New("immediate out of range")
	errEOF            = errors.New("unexpected end of bytecode")
)

// DecodingErrorKind classifies a DecodingError.
type DecodingErrorKind int

const (
	// UnexpectedEOF means the bytecode ended inside an instruction.
	UnexpectedEOF DecodingErrorKind = iota
	// UnknownInstructionCode means the opcode byte is not defined.
	UnknownInstructionCode
	// InvalidImmediate means an immediate could not be decoded into a valid value.
	InvalidImmediate
)

// DecodingError reports the first instruction that could not be decoded.
type DecodingError struct {
	// Offset is the byte offset of the instruction within the program.
	Offset int
	Kind   DecodingErrorKind
	// Code is the opcode byte of the failing instruction.
	Code byte
	Err  error
}

func (e *DecodingError) Error() string {
	switch e.Kind {
	case UnexpectedEOF:
		return fmt.Sprintf("unexpected end of bytecode in instruction 0x%02x at offset %d", e.Code, e.Offset)
	case UnknownInstructionCode:
		return fmt.Sprintf("unknown instruction code 0x%02x at offset %d", e.Code, e.Offset)
	default:
		return fmt.Sprintf("invalid immediate for %s at offset %d: %v", opsByOpcode[e.Code].Name, e.Offset, e.Err)
	}
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

type decoder struct {
	b   []byte
	pos int
}

func (d *decoder) u8() (byte, error) {
	if d.pos >= len(d.b) {
		return 0, errEOF
	}
	c := d.b[d.pos]
	d.pos++
	return c, nil
}

func (d *decoder) uvarint() (uint64, error) {
	v, n := binary.Uvarint(d.b[d.pos:])
	if n == 0 {
		return 0, errEOF
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: varint overflows 64 bits", errImmediateRange)
	}
	d.pos += n
	return v, nil
}

// count reads an unsigned immediate that must fit an int.
func (d *decoder) count() (int, error) {
	v, err := d.uvarint()
	if err != nil {
		return 0, err
	}
	if v > maxImmediate {
		return 0, fmt.Errorf("%w: %d", errImmediateRange, v)
	}
	return int(v), nil
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	if len(d.b)-d.pos < n {
		return nil, errEOF
	}
	out := d.b[d.pos : d.pos+n]
	d.pos += n
	return out, nil
}

func (d *decoder) scalarType() (basics.ScalarType, error) {
	kind, err := d.u8()
	if err != nil {
		return basics.ScalarType{}, err
	}
	var t basics.ScalarType
	switch basics.ScalarKind(kind) {
	case basics.KindField:
		t = basics.Field
	case basics.KindBoolean:
		t = basics.Boolean
	case basics.KindUnsigned, basics.KindSigned:
		bits, err := d.count()
		if err != nil {
			return basics.ScalarType{}, err
		}
		t = basics.ScalarType{Kind: basics.ScalarKind(kind), Bits: bits}
	default:
		return basics.ScalarType{}, fmt.Errorf("%w: kind %d", basics.ErrInvalidScalarType, kind)
	}
	return t, t.Validate()
}

type encoder struct {
	buf []byte
}

func (e *encoder) u8(c byte) {
	e.buf = append(e.buf, c)
}

func (e *encoder) uvarint(v int) {
	e.buf = binary.AppendUvarint(e.buf, uint64(v))
}

func (e *encoder) bytes(b []byte) {
	e.uvarint(len(b))
	e.buf = append(e.buf, b...)
}

func (e *encoder) scalarType(t basics.ScalarType) {
	e.u8(byte(t.Kind))
	if t.IsInteger() {
		e.uvarint(t.Bits)
	}
}

// DecodeInstruction decodes the instruction at the start of b and returns it
// with the number of bytes it occupies.
func DecodeInstruction(b []byte) (Instruction, int, error) {
	if len(b) == 0 {
		return nil, 0, &DecodingError{Kind: UnexpectedEOF, Err: errEOF}
	}
	code := b[0]
	spec, ok := OpSpecForOpcode(code)
	if !ok {
		return nil, 0, &DecodingError{Kind: UnknownInstructionCode, Code: code}
	}
	d := decoder{b: b, pos: 1}
	inst, err := spec.decode(&d)
	if err != nil {
		kind := InvalidImmediate
		if errors.Is(err, errEOF) {
			kind = UnexpectedEOF
		}
		return nil, 0, &DecodingError{Kind: kind, Code: code, Err: err}
	}
	return inst, d.pos, nil
}

// DecodeProgram decodes a whole program. It stops at the first instruction
// that cannot be decoded and reports its offset.
func DecodeProgram(b []byte) ([]Instruction, error) {
	var program []Instruction
	for pc := 0; pc < len(b); {
		inst, n, err := DecodeInstruction(b[pc:])
		if err != nil {
			var de *DecodingError
			if errors.As(err, &de) {
				de.Offset = pc
			}
			return nil, err
		}
		program = append(program, inst)
		pc += n
	}
	return program, nil
}

// EncodeInstruction returns the bytecode of inst.
func EncodeInstruction(inst Instruction) []byte {
	var e encoder
	e.u8(inst.Opcode())
	inst.encodeImmediates(&e)
	return e.buf
}

// EncodeProgram concatenates the bytecode of every instruction.
func EncodeProgram(program []Instruction) []byte {
	var e encoder
	for _, inst := range program {
		e.u8(inst.Opcode())
		inst.encodeImmediates(&e)
	}
	return e.buf
}

func decodePush(d *decoder) (Instruction, error) {
	t, err := d.scalarType()
	if err != nil {
		return nil, err
	}
	raw, err := d.bytes()
	if err != nil {
		return nil, err
	}
	if len(raw) > maxElementBytes {
		return nil, fmt.Errorf("%w: %d byte constant", errImmediateRange, len(raw))
	}
	v := new(big.Int).SetBytes(raw)
	if v.Cmp(fr.Modulus()) >= 0 {
		return nil, fmt.Errorf("%w: constant exceeds the field order", errImmediateRange)
	}
	if t.IsSigned() && v.Cmp(new(big.Int).Rsh(fr.Modulus(), 1)) > 0 {
		v.Sub(v, fr.Modulus())
	}
	return NewPush(v, t)
}

func decodePop(d *decoder) (Instruction, error) {
	n, err := d.count()
	return Pop{Count: n}, err
}

func decodeAddress(mk func(int) Instruction) decodeFunc {
	return func(d *decoder) (Instruction, error) {
		a, err := d.count()
		if err != nil {
			return nil, err
		}
		return mk(a), nil
	}
}

func decodeSequence(mk func(int, int) Instruction) decodeFunc {
	return func(d *decoder) (Instruction, error) {
		a, err := d.count()
		if err != nil {
			return nil, err
		}
		n, err := d.count()
		if err != nil {
			return nil, err
		}
		return mk(a, n), nil
	}
}

func decodeCast(d *decoder) (Instruction, error) {
	t, err := d.scalarType()
	return Cast{Type: t}, err
}

func decodeLoopBegin(d *decoder) (Instruction, error) {
	n, err := d.count()
	return LoopBegin{Iterations: n}, err
}

func decodeCall(d *decoder) (Instruction, error) {
	a, err := d.count()
	if err != nil {
		return nil, err
	}
	n, err := d.count()
	return Call{Address: a, InputSize: n}, err
}

func decodeReturn(d *decoder) (Instruction, error) {
	n, err := d.count()
	return Return{OutputSize: n}, err
}

func decodeExit(d *decoder) (Instruction, error) {
	n, err := d.count()
	return Exit{OutputSize: n}, err
}

func decodeCallNative(d *decoder) (Instruction, error) {
	f, err := d.u8()
	if err != nil {
		return nil, err
	}
	size, err := d.count()
	if err != nil {
		return nil, err
	}
	newSize, err := d.count()
	if err != nil {
		return nil, err
	}
	if !NativeFunction(f).Valid() {
		return nil, fmt.Errorf("%w: native function %d", errImmediateRange, f)
	}
	return CallNative{Function: NativeFunction(f), Size: size, NewSize: newSize}, nil
}

func decodeAssert(d *decoder) (Instruction, error) {
	msg, err := d.bytes()
	return Assert{Message: string(msg)}, err
}

func decodeDbg(d *decoder) (Instruction, error) {
	format, err := d.bytes()
	if err != nil {
		return nil, err
	}
	n, err := d.count()
	return Dbg{Format: string(format), ArgCount: n}, err
}

func decodeStorageLoad(d *decoder) (Instruction, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return StorageLoad{}, nil
	}
	if n > len(d.b)-d.pos {
		// every type takes at least one byte
		return nil, errEOF
	}
	types := make([]basics.ScalarType, n)
	for i := range types {
		if types[i], err = d.scalarType(); err != nil {
			return nil, err
		}
	}
	return StorageLoad{Types: types}, nil
}

func decodeStorageStore(d *decoder) (Instruction, error) {
	n, err := d.count()
	return StorageStore{Size: n}, err
}

func (NoOperation) encodeImmediates(*encoder)       {}
func (Copy) encodeImmediates(*encoder)              {}
func (Swap) encodeImmediates(*encoder)              {}
func (LoadByRef) encodeImmediates(*encoder)         {}
func (StoreByRef) encodeImmediates(*encoder)        {}
func (Add) encodeImmediates(*encoder)               {}
func (Sub) encodeImmediates(*encoder)               {}
func (Mul) encodeImmediates(*encoder)               {}
func (Div) encodeImmediates(*encoder)               {}
func (Rem) encodeImmediates(*encoder)               {}
func (Neg) encodeImmediates(*encoder)               {}
func (Lt) encodeImmediates(*encoder)                {}
func (Le) encodeImmediates(*encoder)                {}
func (Eq) encodeImmediates(*encoder)                {}
func (Ne) encodeImmediates(*encoder)                {}
func (Ge) encodeImmediates(*encoder)                {}
func (Gt) encodeImmediates(*encoder)                {}
func (And) encodeImmediates(*encoder)               {}
func (Or) encodeImmediates(*encoder)                {}
func (Xor) encodeImmediates(*encoder)               {}
func (Not) encodeImmediates(*encoder)               {}
func (ConditionalSelect) encodeImmediates(*encoder) {}
func (If) encodeImmediates(*encoder)                {}
func (Else) encodeImmediates(*encoder)              {}
func (EndIf) encodeImmediates(*encoder)             {}
func (LoopEnd) encodeImmediates(*encoder)           {}
func (StorageRoot) encodeImmediates(*encoder)       {}

func (i Push) encodeImmediates(e *encoder) {
	e.scalarType(i.Type)
	v := new(big.Int).Mod(i.Value, fr.Modulus())
	e.bytes(v.Bytes())
}

func (i Pop) encodeImmediates(e *encoder)         { e.uvarint(i.Count) }
func (i Load) encodeImmediates(e *encoder)        { e.uvarint(i.Address) }
func (i Store) encodeImmediates(e *encoder)       { e.uvarint(i.Address) }
func (i LoadGlobal) encodeImmediates(e *encoder)  { e.uvarint(i.Address) }
func (i StoreGlobal) encodeImmediates(e *encoder) { e.uvarint(i.Address) }
func (i Ref) encodeImmediates(e *encoder)         { e.uvarint(i.Address) }
func (i Cast) encodeImmediates(e *encoder)        { e.scalarType(i.Type) }
func (i LoopBegin) encodeImmediates(e *encoder)   { e.uvarint(i.Iterations) }
func (i Return) encodeImmediates(e *encoder)      { e.uvarint(i.OutputSize) }
func (i Exit) encodeImmediates(e *encoder)        { e.uvarint(i.OutputSize) }
func (i StorageStore) encodeImmediates(e *encoder) {
	e.uvarint(i.Size)
}

func (i LoadSequence) encodeImmediates(e *encoder) {
	e.uvarint(i.Address)
	e.uvarint(i.Len)
}

func (i StoreSequence) encodeImmediates(e *encoder) {
	e.uvarint(i.Address)
	e.uvarint(i.Len)
}

func (i Call) encodeImmediates(e *encoder) {
	e.uvarint(i.Address)
	e.uvarint(i.InputSize)
}

func (i CallNative) encodeImmediates(e *encoder) {
	e.u8(byte(i.Function))
	e.uvarint(i.Size)
	e.uvarint(i.NewSize)
}

func (i Assert) encodeImmediates(e *encoder) {
	e.bytes([]byte(i.Message))
}

func (i Dbg) encodeImmediates(e *encoder) {
	e.bytes([]byte(i.Format))
	e.uvarint(i.ArgCount)
}

func (i StorageLoad) encodeImmediates(e *encoder) {
	e.uvarint(len(i.Types))
	for _, t := range i.Types {
		e.scalarType(t)
	}
}
