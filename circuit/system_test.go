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

package circuit

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"github.com/algorand/go-zkvm/test/partitiontest"
)

func fe(v uint64) *fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return &e
}

func TestMultiplication(t *testing.T) {
	partitiontest.PartitionTest(t)

	cs := NewR1CS()
	x := cs.Alloc("x", fe(3))
	y := cs.Alloc("y", fe(4))
	z := cs.AllocInput("z", fe(12))
	cs.Enforce("mul", LC(x), LC(y), LC(z))

	ok, err := cs.IsSatisfied()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, cs.NumConstraints())
	require.Equal(t, 1, cs.NumInputs())
	require.Equal(t, 2, cs.NumAux())
	require.Equal(t, []fr.Element{*fe(12)}, cs.PublicInputs())
	require.Empty(t, cs.WhichIsUnsatisfied())
}

func TestUnsatisfied(t *testing.T) {
	partitiontest.PartitionTest(t)

	cs := NewR1CS()
	x := cs.Alloc("x", fe(3))
	cs.PushNamespace("check")
	cs.Enforce("square", LC(x), LC(x), ConstantUint64(10))
	cs.PopNamespace()

	ok, err := cs.IsSatisfied()
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "check/square", cs.WhichIsUnsatisfied())
}

func TestMissingWitness(t *testing.T) {
	partitiontest.PartitionTest(t)

	cs := NewR1CS()
	x := cs.Alloc("x", nil)
	cs.Enforce("bool", LC(x), LC(cs.One()).Sub(LC(x)), nil)

	_, err := cs.IsSatisfied()
	require.ErrorIs(t, err, ErrMissingWitness)
	_, ok := cs.Value(x)
	require.False(t, ok)
	require.Empty(t, cs.WhichIsUnsatisfied())
}

func TestUniqueLabels(t *testing.T) {
	partitiontest.PartitionTest(t)

	cs := NewR1CS()
	cs.PushNamespace("add")
	a := cs.Alloc("out", fe(1))
	b := cs.Alloc("out", fe(2))
	cs.PushNamespace("inner")
	c := cs.Alloc("out", fe(3))
	cs.PopNamespace()
	cs.PopNamespace()
	cs.PopNamespace()
	d := cs.Alloc("out", fe(4))

	require.Equal(t, "add/out", cs.VariableLabel(a))
	require.Equal(t, "add/out#1", cs.VariableLabel(b))
	require.Equal(t, "add/inner/out", cs.VariableLabel(c))
	require.Equal(t, "out", cs.VariableLabel(d))
	require.Equal(t, "one", cs.VariableLabel(cs.One()))
}

func TestLinearCombination(t *testing.T) {
	partitiontest.PartitionTest(t)

	cs := NewR1CS()
	x := cs.Alloc("x", fe(7))
	y := cs.Alloc("y", fe(2))

	// 3x - y + 5 = 24
	lc := LC(x).Scale(*fe(3)).Sub(LC(y)).Add(ConstantUint64(5))
	v, ok := lc.Evaluate(cs.Value)
	require.True(t, ok)
	require.Equal(t, *fe(24), v)

	v, ok = LinearCombination{}.Evaluate(cs.Value)
	require.True(t, ok)
	require.True(t, v.IsZero())

	lc2 := LC(x).AddTerm(*fe(2), x)
	v, ok = lc2.Evaluate(cs.Value)
	require.True(t, ok)
	require.Equal(t, *fe(21), v)
}
