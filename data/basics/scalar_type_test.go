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

package basics

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-zkvm/test/partitiontest"
)

func TestParseScalarType(t *testing.T) {
	partitiontest.PartitionTest(t)

	for _, typ := range []ScalarType{Boolean, Field, Unsigned(1), Unsigned(8), Unsigned(248), Signed(64)} {
		parsed, err := ParseScalarType(typ.String())
		require.NoError(t, err)
		require.Equal(t, typ, parsed)
	}

	for _, bad := range []string{"", "u", "u0", "u249", "i-3", "x8", "boolean", "uabc"} {
		_, err := ParseScalarType(bad)
		require.ErrorIs(t, err, ErrInvalidScalarType, bad)
	}
}

func TestScalarTypeRange(t *testing.T) {
	partitiontest.PartitionTest(t)

	lo, hi := Unsigned(8).Range()
	require.Equal(t, int64(0), lo.Int64())
	require.Equal(t, int64(255), hi.Int64())

	lo, hi = Signed(8).Range()
	require.Equal(t, int64(-128), lo.Int64())
	require.Equal(t, int64(127), hi.Int64())

	require.True(t, Boolean.Contains(big.NewInt(1)))
	require.False(t, Boolean.Contains(big.NewInt(2)))
	require.False(t, Signed(8).Contains(big.NewInt(128)))
	require.True(t, Signed(8).Contains(big.NewInt(-128)))
	require.True(t, Field.Contains(big.NewInt(-5)))
}

func TestScalarTypeValidate(t *testing.T) {
	partitiontest.PartitionTest(t)

	require.NoError(t, Field.Validate())
	require.NoError(t, Boolean.Validate())
	require.Error(t, ScalarType{Kind: KindField, Bits: 3}.Validate())
	require.Error(t, ScalarType{Kind: 9}.Validate())
	require.True(t, Signed(4).IsSigned())
	require.True(t, Signed(4).IsInteger())
	require.False(t, Boolean.IsInteger())
}
