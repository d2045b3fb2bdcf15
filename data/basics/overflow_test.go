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
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-zkvm/test/partitiontest"
)

func TestUnsignedOverflow(t *testing.T) {
	partitiontest.PartitionTest(t)

	_, overflowed := OAdd(uint64(math.MaxUint64), 1)
	require.True(t, overflowed)
	res, overflowed := OAdd(uint64(math.MaxUint64-1), 1)
	require.False(t, overflowed)
	require.Equal(t, uint64(math.MaxUint64), res)

	_, overflowed = OAdd(uint8(200), 100)
	require.True(t, overflowed)
	small, overflowed := OAdd(uint8(3), 4)
	require.False(t, overflowed)
	require.Equal(t, uint8(7), small)
}
