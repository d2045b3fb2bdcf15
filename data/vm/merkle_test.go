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

package vm

import (
	"fmt"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/algorand/go-zkvm/circuit"
	"github.com/algorand/go-zkvm/data/basics"
	"github.com/algorand/go-zkvm/storage"
	"github.com/algorand/go-zkvm/test/partitiontest"
)

func testTree(t require.TestingT, depth int) *storage.Tree {
	tree, err := storage.NewMemoryTree(depth)
	require.NoError(t, err)
	return tree
}

func evalWithStorage(t require.TestingT, backend storage.Backend, source string, inputs ...Input) (*Result, *circuit.R1CS, error) {
	cs := circuit.NewR1CS()
	ep := defaultEvalParams(cs)
	ep.Storage = backend
	res, err := Eval(testProg(t, source), inputs, ep)
	return res, cs, err
}

func requireSatisfied(t require.TestingT, cs *circuit.R1CS) {
	ok, err := cs.IsSatisfied()
	require.NoError(t, err)
	require.True(t, ok, cs.WhichIsUnsatisfied())
}

func TestStorageRoundTrip(t *testing.T) {
	partitiontest.PartitionTest(t)

	tree := testTree(t, 4)
	source := `
push 3 u8
push 11 u8
push 12 u8
storage_store 2
push 5 u8
push 21 u8
push 22 u8
storage_store 2
storage_root
push 3 u8
storage_load u8 u8
storage_root
exit 4
`
	res, cs, err := evalWithStorage(t, tree, source)
	require.NoError(t, err)
	requireSatisfied(t, cs)

	require.Len(t, res.Outputs, 4)
	require.Equal(t, int64(11), res.Outputs[1].BigInt().Int64())
	require.Equal(t, int64(12), res.Outputs[2].BigInt().Int64())
	// the read leaves the root unchanged
	require.True(t, res.Outputs[0].Value().Equal(res.Outputs[3].Value()))

	root := tree.Root()
	require.True(t, res.Root.Value().Equal(&root))

	leaf, err := tree.Load(5)
	require.NoError(t, err)
	require.Equal(t, []fr.Element{*feInt(21), *feInt(22)}, leaf.Values)
}

func TestStorageMatchesTree(t *testing.T) {
	partitiontest.PartitionTest(t)

	rapid.Check(t, func(t *rapid.T) {
		tree := testTree(t, 3)
		writes := rapid.IntRange(1, 6).Draw(t, "writes")
		expected := make(map[int64]int64)
		source := ""
		for w := 0; w < writes; w++ {
			index := rapid.Int64Range(0, 7).Draw(t, "index")
			value := rapid.Int64Range(0, 255).Draw(t, "value")
			expected[index] = value
			source += fmt.Sprintf("push %d u8\npush %d u8\nstorage_store 1\n", index, value)
		}
		var order []int64
		for index := range expected {
			order = append(order, index)
			source += fmt.Sprintf("push %d u8\nstorage_load u8\n", index)
		}
		source += fmt.Sprintf("exit %d\n", len(order))

		res, cs, err := evalWithStorage(t, tree, source)
		require.NoError(t, err)
		requireSatisfied(t, cs)
		for i, index := range order {
			require.Equal(t, expected[index], res.Outputs[i].BigInt().Int64())
		}
	})
}

func TestStorageInBranch(t *testing.T) {
	partitiontest.PartitionTest(t)

	source := `
load 0
if
  push 1 u8
  push 7 u8
  storage_store 1
endif
exit 0
`
	tree := testTree(t, 2)
	before := tree.Root()
	_, cs, err := evalWithStorage(t, tree, source, in(0, basics.Boolean))
	require.NoError(t, err)
	requireSatisfied(t, cs)
	after := tree.Root()
	require.True(t, before.Equal(&after))

	_, cs, err = evalWithStorage(t, tree, source, in(1, basics.Boolean))
	require.NoError(t, err)
	requireSatisfied(t, cs)
	leaf, err := tree.Load(1)
	require.NoError(t, err)
	require.Equal(t, []fr.Element{*feInt(7)}, leaf.Values)
}

func TestStorageInBothArms(t *testing.T) {
	partitiontest.PartitionTest(t)

	source := `
load 0
if
  push 1 u8
  push 7 u8
  storage_store 1
else
  push 1 u8
  push 9 u8
  storage_store 1
endif
push 1 u8
storage_load u8
storage_root
exit 2
`
	for _, c := range []int64{0, 1} {
		t.Run(fmt.Sprintf("cond=%d", c), func(t *testing.T) {
			tree := testTree(t, 2)
			res, cs, err := evalWithStorage(t, tree, source, in(c, basics.Boolean))
			require.NoError(t, err)
			requireSatisfied(t, cs)

			expected := int64(9)
			if c == 1 {
				expected = 7
			}
			require.Equal(t, expected, res.Outputs[0].BigInt().Int64())

			leaf, err := tree.Load(1)
			require.NoError(t, err)
			require.Equal(t, []fr.Element{*feInt(expected)}, leaf.Values)
			root := tree.Root()
			require.True(t, res.Outputs[1].Value().Equal(&root))
			require.True(t, res.Root.Value().Equal(&root))
		})
	}
}

func TestStorageRollbackOnError(t *testing.T) {
	partitiontest.PartitionTest(t)

	tree := testTree(t, 2)
	require.NoError(t, tree.Init(0, []fr.Element{*feInt(1)}))
	before := tree.Root()

	source := `
push 0 u8
push 9 u8
storage_store 1
push 0 bool
assert "stop"
exit 0
`
	_, _, err := evalWithStorage(t, tree, source)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)

	after := tree.Root()
	require.True(t, before.Equal(&after))
}

func TestStorageLeafSizeMismatch(t *testing.T) {
	partitiontest.PartitionTest(t)

	tree := testTree(t, 2)
	require.NoError(t, tree.Init(2, []fr.Element{*feInt(1), *feInt(2)}))

	_, _, err := evalWithStorage(t, tree, "push 2 u8\nstorage_load u8\nexit 1")
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	require.ErrorIs(t, err, ErrLeafSizeMismatch)

	_, _, err = evalWithStorage(t, tree, "push 9 u8\nstorage_load u8\nexit 1")
	require.ErrorAs(t, err, &re)
	require.ErrorIs(t, err, storage.ErrIndexOutOfRange)
}

// lyingBackend hands out a corrupted authentication path.
type lyingBackend struct {
	*storage.Tree
}

func (b lyingBackend) Load(index uint64) (storage.Leaf, error) {
	leaf, err := b.Tree.Load(index)
	if err == nil {
		leaf.Path[0].SetUint64(12345)
	}
	return leaf, err
}

func TestStorageForgedPathIsUnsatisfied(t *testing.T) {
	partitiontest.PartitionTest(t)

	tree := testTree(t, 2)
	require.NoError(t, tree.Init(1, []fr.Element{*feInt(4)}))

	res, cs, err := evalWithStorage(t, lyingBackend{tree}, "push 1 u8\nstorage_load u8\nexit 1")
	require.NoError(t, err)
	require.Equal(t, int64(4), res.Outputs[0].BigInt().Int64())
	ok, err := cs.IsSatisfied()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStorageWitnessFreeShape(t *testing.T) {
	partitiontest.PartitionTest(t)

	source := `
load 0
load 1
storage_store 1
load 0
storage_load u8
exit 1
`
	inputs := []Input{in(2, u8), in(3, u8)}

	withWitness := circuit.NewR1CS()
	ep := defaultEvalParams(withWitness)
	ep.Storage = testTree(t, 3)
	_, err := Eval(testProg(t, source), inputs, ep)
	require.NoError(t, err)
	requireSatisfied(t, withWitness)

	shapeOnly := circuit.NewR1CS()
	ep = defaultEvalParams(shapeOnly)
	ep.Storage = testTree(t, 3)
	_, err = Eval(testProg(t, source), witnessFree(inputs), ep)
	require.NoError(t, err)

	require.Equal(t, withWitness.NumConstraints(), shapeOnly.NumConstraints())
	require.Equal(t, withWitness.NumAux(), shapeOnly.NumAux())
}
