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
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/algorand/go-zkvm/circuit"
	"github.com/algorand/go-zkvm/circuit/gadgets"
	"github.com/algorand/go-zkvm/data/basics"
	"github.com/algorand/go-zkvm/test/partitiontest"
)

func u8Cell(cs circuit.ConstraintSystem, v int64) Cell {
	return ValueCell(gadgets.Constant(cs, "v", big.NewInt(v), u8))
}

func cellValue(t require.TestingT, ds *dataStack, address int) int64 {
	c, err := ds.get(address)
	require.NoError(t, err)
	s, err := c.Scalar()
	require.NoError(t, err)
	return s.BigInt().Int64()
}

func TestForkMergeIdempotence(t *testing.T) {
	partitiontest.PartitionTest(t)

	rapid.Check(t, func(t *rapid.T) {
		cs := circuit.NewR1CS()
		address := rapid.IntRange(0, 8).Draw(t, "address")
		before := rapid.Int64Range(0, 255).Draw(t, "before")
		v := rapid.Int64Range(0, 255).Draw(t, "v")
		taken := rapid.Bool().Draw(t, "taken")

		var ds dataStack
		ds.set(address, u8Cell(cs, before))
		ds.fork()
		ds.set(address, u8Cell(cs, v))
		ds.set(address, u8Cell(cs, v)) // a repeated write keeps the first old
		require.NoError(t, ds.merge(cs, gadgets.ConstantBool(cs, "c", taken)))

		if taken {
			require.Equal(t, v, cellValue(t, &ds, address))
		} else {
			require.Equal(t, before, cellValue(t, &ds, address))
		}
		require.Empty(t, ds.branches)

		ok, err := cs.IsSatisfied()
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func TestTwoArmSelectionLaw(t *testing.T) {
	partitiontest.PartitionTest(t)

	rapid.Check(t, func(t *rapid.T) {
		cs := circuit.NewR1CS()
		a := rapid.IntRange(0, 4).Draw(t, "a")
		other := rapid.IntRange(5, 8).Draw(t, "other")
		v1 := rapid.Int64Range(0, 255).Draw(t, "v1")
		v2 := rapid.Int64Range(0, 255).Draw(t, "v2")
		c := rapid.Bool().Draw(t, "c")

		var ds dataStack
		ds.set(a, u8Cell(cs, 0))
		ds.set(other, u8Cell(cs, 42))
		ds.fork()
		ds.set(a, u8Cell(cs, v1))
		ds.set(other, u8Cell(cs, 1))
		require.NoError(t, ds.switchBranch())
		// the then arm's writes are invisible to the else arm
		require.Equal(t, int64(42), cellValue(t, &ds, other))
		ds.set(a, u8Cell(cs, v2))
		require.NoError(t, ds.merge(cs, gadgets.ConstantBool(cs, "c", c)))

		if c {
			require.Equal(t, v1, cellValue(t, &ds, a))
			require.Equal(t, int64(1), cellValue(t, &ds, other))
		} else {
			require.Equal(t, v2, cellValue(t, &ds, a))
			require.Equal(t, int64(42), cellValue(t, &ds, other))
		}
	})
}

func TestNestedMergeRecordsIntoParent(t *testing.T) {
	partitiontest.PartitionTest(t)

	cs := circuit.NewR1CS()
	var ds dataStack
	ds.set(0, u8Cell(cs, 1))

	ds.fork()
	ds.fork()
	ds.set(0, u8Cell(cs, 2))
	require.NoError(t, ds.merge(cs, gadgets.ConstantBool(cs, "inner", true)))
	require.Equal(t, int64(2), cellValue(t, &ds, 0))
	require.NoError(t, ds.merge(cs, gadgets.ConstantBool(cs, "outer", false)))
	require.Equal(t, int64(1), cellValue(t, &ds, 0))
}

func TestMergeUnsetsOneArmSlots(t *testing.T) {
	partitiontest.PartitionTest(t)

	for _, taken := range []bool{false, true} {
		cs := circuit.NewR1CS()
		var ds dataStack
		ds.set(0, u8Cell(cs, 7))

		ds.fork()
		ds.set(1, u8Cell(cs, 99))
		ds.set(2, u8Cell(cs, 1))
		require.NoError(t, ds.switchBranch())
		ds.set(2, u8Cell(cs, 2))
		ds.set(3, u8Cell(cs, 5))
		require.NoError(t, ds.merge(cs, gadgets.ConstantBool(cs, "c", taken)))

		for _, address := range []int{1, 3} {
			_, err := ds.get(address)
			require.ErrorIs(t, err, ErrUninitializedCell, "address %d", address)
		}
		expected := int64(2)
		if taken {
			expected = 1
		}
		require.Equal(t, expected, cellValue(t, &ds, 2))
		require.Equal(t, int64(7), cellValue(t, &ds, 0))
	}
}

func TestMergeErrors(t *testing.T) {
	partitiontest.PartitionTest(t)

	cs := circuit.NewR1CS()
	var ds dataStack
	require.ErrorIs(t, ds.merge(cs, gadgets.ConstantBool(cs, "c", true)), ErrUnexpectedEndIf)
	require.ErrorIs(t, ds.switchBranch(), ErrUnexpectedElse)

	ds.set(0, AddressCell(3))
	ds.fork()
	ds.set(0, u8Cell(cs, 1))
	err := ds.merge(cs, gadgets.ConstantBool(cs, "c", true))
	require.ErrorIs(t, err, ErrMergeKindMismatch)

	ds.set(1, AddressCell(3))
	ds.fork()
	ds.set(1, AddressCell(3))
	require.NoError(t, ds.merge(cs, gadgets.ConstantBool(cs, "same", false)))

	ds.set(2, ValueCell(gadgets.Constant(cs, "v", big.NewInt(1), basics.Signed(8))))
	ds.fork()
	ds.set(2, u8Cell(cs, 1))
	require.ErrorIs(t, ds.merge(cs, gadgets.ConstantBool(cs, "c", true)), ErrMergeKindMismatch)

	_, err = ds.get(40)
	require.ErrorIs(t, err, ErrUninitializedCell)
}

func TestEvaluationStackSegments(t *testing.T) {
	partitiontest.PartitionTest(t)

	cs := circuit.NewR1CS()
	es := newEvaluationStack()
	es.push(u8Cell(cs, 1))

	es.fork()
	_, err := es.pop()
	require.ErrorIs(t, err, ErrStackUnderflow)
	es.push(u8Cell(cs, 2))
	es.fork()
	es.push(u8Cell(cs, 3))
	require.Equal(t, 3, es.size)

	require.NoError(t, es.merge(cs, gadgets.ConstantBool(cs, "c", false)))
	require.Equal(t, 2, es.size)
	top, err := es.popValue()
	require.NoError(t, err)
	require.Equal(t, int64(3), top.BigInt().Int64())

	es.fork()
	es.push(u8Cell(cs, 4))
	require.NoError(t, es.revert())
	require.Equal(t, 1, es.size)
	require.ErrorIs(t, es.revert(), ErrUnexpectedEndIf)

	cells, err := es.popN(1)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	_, err = es.popN(1)
	require.ErrorIs(t, err, ErrStackUnderflow)
}
