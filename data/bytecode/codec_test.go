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
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/algorand/go-zkvm/data/basics"
	"github.com/algorand/go-zkvm/test/partitiontest"
)

var bigIntComparer = cmp.Comparer(func(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
})

func mustPush(t require.TestingT, v int64, typ basics.ScalarType) Push {
	p, err := NewPush(big.NewInt(v), typ)
	require.NoError(t, err)
	return p
}

// everyInstruction returns one instance of each opcode.
func everyInstruction(t require.TestingT) []Instruction {
	return []Instruction{
		NoOperation{},
		mustPush(t, 3, basics.Unsigned(8)),
		mustPush(t, -3, basics.Signed(8)),
		mustPush(t, 0, basics.Field),
		mustPush(t, 1, basics.Boolean),
		Pop{Count: 2},
		Copy{},
		Swap{},
		Load{Address: 1},
		Store{Address: 300},
		LoadGlobal{Address: 4},
		StoreGlobal{Address: 5},
		LoadSequence{Address: 1, Len: 3},
		StoreSequence{Address: 2, Len: 4},
		Ref{Address: 7},
		LoadByRef{},
		StoreByRef{},
		Add{}, Sub{}, Mul{}, Div{}, Rem{}, Neg{},
		Lt{}, Le{}, Eq{}, Ne{}, Ge{}, Gt{},
		And{}, Or{}, Xor{}, Not{},
		Cast{Type: basics.Signed(16)},
		ConditionalSelect{},
		If{}, Else{}, EndIf{},
		LoopBegin{Iterations: 10},
		LoopEnd{},
		Call{Address: 12, InputSize: 2},
		Return{OutputSize: 1},
		Exit{OutputSize: 3},
		CallNative{Function: NativeMiMC, Size: 2},
		CallNative{Function: NativeArrayPad, Size: 2, NewSize: 4},
		Assert{Message: "balance must not underflow"},
		Dbg{Format: "x = {}, y = {}", ArgCount: 2},
		StorageLoad{Types: []basics.ScalarType{basics.Unsigned(64), basics.Field}},
		StorageLoad{},
		StorageStore{Size: 2},
		StorageRoot{},
	}
}

func TestDecodeScenario(t *testing.T) {
	partitiontest.PartitionTest(t)

	code := []byte{
		0x01, 0x02, 0x08, 0x01, 0x03, // push 3 u8
		0x01, 0x02, 0x08, 0x01, 0x04, // push 4 u8
		0x20,       // add
		0x47, 0x01, // exit 1
	}
	program, err := DecodeProgram(code)
	require.NoError(t, err)

	expected := []Instruction{
		mustPush(t, 3, basics.Unsigned(8)),
		mustPush(t, 4, basics.Unsigned(8)),
		Add{},
		Exit{OutputSize: 1},
	}
	if diff := cmp.Diff(expected, program, bigIntComparer); diff != "" {
		t.Fatalf("decoded program mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, code, EncodeProgram(program))
}

func TestEncodeDecodeEveryOpcode(t *testing.T) {
	partitiontest.PartitionTest(t)

	program := everyInstruction(t)
	decoded, err := DecodeProgram(EncodeProgram(program))
	require.NoError(t, err)
	if diff := cmp.Diff(program, decoded, bigIntComparer); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	for _, inst := range program {
		code := EncodeInstruction(inst)
		got, n, err := DecodeInstruction(code)
		require.NoError(t, err, inst.String())
		require.Equal(t, len(code), n)
		require.Empty(t, cmp.Diff(inst, got, bigIntComparer))
	}
}

func TestOpSpecTable(t *testing.T) {
	partitiontest.PartitionTest(t)

	seen := make(map[byte]bool)
	for _, inst := range everyInstruction(t) {
		seen[inst.Opcode()] = true
		spec, ok := OpSpecForOpcode(inst.Opcode())
		require.True(t, ok)
		require.Contains(t, inst.String(), spec.Name)
	}
	for _, spec := range OpSpecs {
		require.True(t, seen[spec.Opcode], "no test instruction for %s", spec.Name)
		require.Equal(t, spec.Opcode, OpsByName[spec.Name].Opcode)
	}
	require.Len(t, OpsByName, len(OpSpecs))
}

func TestSignedPushEncoding(t *testing.T) {
	partitiontest.PartitionTest(t)

	push := mustPush(t, -3, basics.Signed(8))
	code := EncodeInstruction(push)
	// opcode, kind, bits, length, then the full field element p-3
	require.Len(t, code, 4+fr.Bytes)

	inst, _, err := DecodeInstruction(code)
	require.NoError(t, err)
	require.Equal(t, int64(-3), inst.(Push).Value.Int64())

	field := mustPush(t, -1, basics.Field)
	expected := new(big.Int).Sub(fr.Modulus(), big.NewInt(1))
	require.Zero(t, expected.Cmp(field.Value))
}

func TestNewPushRange(t *testing.T) {
	partitiontest.PartitionTest(t)

	_, err := NewPush(big.NewInt(256), basics.Unsigned(8))
	require.ErrorIs(t, err, errImmediateRange)
	_, err = NewPush(big.NewInt(-1), basics.Unsigned(8))
	require.ErrorIs(t, err, errImmediateRange)
	_, err = NewPush(big.NewInt(2), basics.Boolean)
	require.ErrorIs(t, err, errImmediateRange)
	_, err = NewPush(big.NewInt(-128), basics.Signed(8))
	require.NoError(t, err)
	_, err = NewPush(big.NewInt(1), basics.Unsigned(0))
	require.ErrorIs(t, err, basics.ErrInvalidScalarType)
}

func TestDecodeTruncated(t *testing.T) {
	partitiontest.PartitionTest(t)

	prefix := EncodeInstruction(NoOperation{})
	for _, inst := range everyInstruction(t) {
		code := EncodeInstruction(inst)
		for cut := 1; cut < len(code); cut++ {
			_, err := DecodeProgram(append(append([]byte{}, prefix...), code[:cut]...))
			var de *DecodingError
			require.ErrorAs(t, err, &de, "%s cut at %d", inst, cut)
			require.Equal(t, UnexpectedEOF, de.Kind)
			require.Equal(t, len(prefix), de.Offset)
			require.Equal(t, inst.Opcode(), de.Code)
		}
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	partitiontest.PartitionTest(t)

	code := append(EncodeProgram([]Instruction{Add{}, Pop{Count: 1}}), 0xff, 0x20)
	_, err := DecodeProgram(code)
	var de *DecodingError
	require.ErrorAs(t, err, &de)
	require.Equal(t, UnknownInstructionCode, de.Kind)
	require.Equal(t, 3, de.Offset)
	require.Equal(t, byte(0xff), de.Code)
	require.Contains(t, de.Error(), "0xff")
}

func TestDecodeInvalidImmediates(t *testing.T) {
	partitiontest.PartitionTest(t)

	tests := []struct {
		name string
		code []byte
	}{
		{"constant out of type", []byte{OpPush, 0x02, 0x08, 0x02, 0x01, 0x00}},
		{"unknown kind", []byte{OpCast, 0x09}},
		{"zero bit integer", []byte{OpCast, 0x02, 0x00}},
		{"too wide integer", []byte{OpCast, 0x03, 0xf9, 0x01}},
		{"unknown native", []byte{OpCallNative, 0x40, 0x01, 0x00}},
		{"address overflow", []byte{OpLoad, 0xff, 0xff, 0xff, 0xff, 0x0f}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := DecodeProgram(test.code)
			var de *DecodingError
			require.ErrorAs(t, err, &de)
			require.Equal(t, InvalidImmediate, de.Kind)
			require.Equal(t, test.code[0], de.Code)
		})
	}

	oversized := append([]byte{OpPush, 0x00, fr.Bytes + 1}, make([]byte, fr.Bytes+1)...)
	_, err := DecodeProgram(oversized)
	require.ErrorIs(t, err, errImmediateRange)

	modulus := fr.Modulus().Bytes()
	_, err = DecodeProgram(append([]byte{OpPush, 0x00, byte(len(modulus))}, modulus...))
	require.ErrorIs(t, err, errImmediateRange)
}

func TestDecodeEmpty(t *testing.T) {
	partitiontest.PartitionTest(t)

	program, err := DecodeProgram(nil)
	require.NoError(t, err)
	require.Empty(t, program)

	_, _, err = DecodeInstruction(nil)
	var de *DecodingError
	require.ErrorAs(t, err, &de)
	require.Equal(t, UnexpectedEOF, de.Kind)
}
