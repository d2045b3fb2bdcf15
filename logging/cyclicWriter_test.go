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

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-zkvm/test/partitiontest"
)

func TestCyclicWrite(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	liveFileName := filepath.Join(t.TempDir(), "zkvm.log")

	space := 1024
	cyclicWriter, err := MakeCyclicFileWriter(liveFileName, uint64(space))
	require.NoError(t, err)
	defer cyclicWriter.Close()

	firstWrite := bytes.Repeat([]byte{'A'}, space)
	n, err := cyclicWriter.Write(firstWrite)
	require.NoError(t, err)
	require.Equal(t, len(firstWrite), n)

	secondWrite := []byte{'B'}
	n, err = cyclicWriter.Write(secondWrite)
	require.NoError(t, err)
	require.Equal(t, len(secondWrite), n)

	liveData, err := os.ReadFile(liveFileName)
	require.NoError(t, err)
	require.Equal(t, secondWrite, liveData)

	oldData, err := os.ReadFile(liveFileName + ArchiveSuffix)
	require.NoError(t, err)
	require.Equal(t, firstWrite, oldData)
}

func TestCyclicWriteResumesSize(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	liveFileName := filepath.Join(t.TempDir(), "zkvm.log")
	require.NoError(t, os.WriteFile(liveFileName, []byte("123456"), 0600))

	cyclicWriter, err := MakeCyclicFileWriter(liveFileName, 8)
	require.NoError(t, err)
	defer cyclicWriter.Close()

	_, err = cyclicWriter.Write([]byte("789"))
	require.NoError(t, err)
	liveData, err := os.ReadFile(liveFileName)
	require.NoError(t, err)
	require.Equal(t, "789", string(liveData))

	_, err = cyclicWriter.Write([]byte("too long entry"))
	require.Error(t, err)
}

func TestCyclicWriteUnlimited(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	liveFileName := filepath.Join(t.TempDir(), "zkvm.log")
	cyclicWriter, err := MakeCyclicFileWriter(liveFileName, 0)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err = cyclicWriter.Write(bytes.Repeat([]byte{'x'}, 100))
		require.NoError(t, err)
	}
	require.NoError(t, cyclicWriter.Close())

	fi, err := os.Stat(liveFileName)
	require.NoError(t, err)
	require.Equal(t, int64(1000), fi.Size())
	require.NoFileExists(t, liveFileName+ArchiveSuffix)
}
