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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/algorand/go-zkvm/data/basics"
	"github.com/algorand/go-zkvm/test/partitiontest"
)

const transferSource = `
// move amount from slot 0 to slot 1 when allowed
load 0
load 2
ge
if
  load 0
  load 2
  sub
  store 0
  load 1
  load 2
  add
  store 1
endif
call double 1   // labels resolve forward
exit 1

double:
  copy
  add
  dbg "doubled: {}" 0
  assert "always \"true\"" // quoted strings keep escapes
  return 1
`

func TestAssembleSource(t *testing.T) {
	partitiontest.PartitionTest(t)

	program, err := Assemble(transferSource)
	require.NoError(t, err)

	expected := []Instruction{
		Load{0}, Load{2}, Ge{}, If{},
		Load{0}, Load{2}, Sub{}, Store{0},
		Load{1}, Load{2}, Add{}, Store{1},
		EndIf{},
		Call{Address: 15, InputSize: 1},
		Exit{OutputSize: 1},
		Copy{}, Add{},
		Dbg{Format: "doubled: {}"},
		Assert{Message: `always "true"`},
		Return{OutputSize: 1},
	}
	require.Empty(t, cmp.Diff(expected, program, bigIntComparer))
}

func TestAssembleDisassembleRoundTrip(t *testing.T) {
	partitiontest.PartitionTest(t)

	program := everyInstruction(t)
	text := Disassemble(program)
	reassembled, err := Assemble(text)
	require.NoError(t, err, text)
	if diff := cmp.Diff(program, reassembled, bigIntComparer); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAssemblePushForms(t *testing.T) {
	partitiontest.PartitionTest(t)

	program, err := Assemble("push 0x10 u8\npush -5 i16\npush 1 bool\npush -1 field")
	require.NoError(t, err)
	require.Len(t, program, 4)
	require.Equal(t, "push 16 u8", program[0].String())
	require.Equal(t, "push -5 i16", program[1].String())
	require.Equal(t, basics.Boolean, program[2].(Push).Type)
	require.NotEqual(t, "push -1 field", program[3].String())
}

func TestAssembleErrors(t *testing.T) {
	partitiontest.PartitionTest(t)

	tests := []struct {
		name string
		src  string
		line int
	}{
		{"unknown opcode", "add\nfrobnicate", 2},
		{"missing immediate", "load", 1},
		{"extra immediate", "add 1", 1},
		{"negative address", "noop\nnoop\nstore -1", 3},
		{"constant out of range", "push 256 u8", 1},
		{"bad type", "cast u0", 1},
		{"unterminated string", `assert "oops`, 1},
		{"unquoted message", "assert oops", 1},
		{"unknown label", "call nowhere 0", 1},
		{"duplicate label", "f:\nnoop\nf:\nnoop", 3},
		{"unknown native", "call_native sha256 1 0", 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Assemble(test.src)
			var le *LineError
			require.ErrorAs(t, err, &le)
			require.Equal(t, test.line, le.Line)
		})
	}

	_, err := Assemble("call nowhere 0")
	require.ErrorIs(t, err, errUnknownLabel)
}

func TestTokenize(t *testing.T) {
	partitiontest.PartitionTest(t)

	tokens, err := tokenize(`  dbg	"a // b \" c" 1 // trailing`)
	require.NoError(t, err)
	require.Equal(t, []string{"dbg", `"a // b \" c"`, "1"}, tokens)

	tokens, err = tokenize("// only a comment")
	require.NoError(t, err)
	require.Empty(t, tokens)
}
