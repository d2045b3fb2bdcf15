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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-zkvm/test/partitiontest"
)

func TestSaveThenLoad(t *testing.T) {
	partitiontest.PartitionTest(t)

	dir := t.TempDir()
	c1 := GetDefaultLocal()
	c1.MaxCallDepth = 17
	c1.StorageEngine = StorageEngineSqlite
	require.NoError(t, c1.SaveToDisk(dir))

	c2, err := LoadConfigFromDisk(dir)
	require.NoError(t, err)
	require.Equal(t, c1, c2)
}

func TestSaveOmitsDefaults(t *testing.T) {
	partitiontest.PartitionTest(t)

	dir := t.TempDir()
	c := GetDefaultLocal()
	c.EnableTracing = true
	require.NoError(t, c.SaveToDisk(dir))

	data, err := os.ReadFile(filepath.Join(dir, ConfigFilename))
	require.NoError(t, err)
	text := string(data)
	require.Contains(t, text, `"Version"`)
	require.Contains(t, text, `"EnableTracing": true`)
	require.False(t, strings.Contains(text, "MaxCallDepth"))
}

func TestLoadMissing(t *testing.T) {
	partitiontest.PartitionTest(t)

	c, err := LoadConfigFromDisk(filepath.Join(t.TempDir(), "missing"))
	require.True(t, os.IsNotExist(err))
	require.Equal(t, GetDefaultLocal(), c)
}

func TestMergeConfig(t *testing.T) {
	partitiontest.PartitionTest(t)

	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, ConfigFilename), []byte(`{"MerkleTreeDepth": 4, "EnableMetrics": true}`), 0600)
	require.NoError(t, err)

	c, err := LoadConfigFromDisk(dir)
	require.NoError(t, err)
	require.Equal(t, uint64(4), c.MerkleTreeDepth)
	require.True(t, c.EnableMetrics)
	require.Equal(t, defaultLocal.MaxStackDepth, c.MaxStackDepth)
}

func TestValidate(t *testing.T) {
	partitiontest.PartitionTest(t)

	require.NoError(t, GetDefaultLocal().Validate())

	c := GetDefaultLocal()
	c.StorageEngine = "leveldb"
	require.ErrorIs(t, c.Validate(), errInvalidStorageEngine)

	c = GetDefaultLocal()
	c.MerkleTreeDepth = 0
	require.Error(t, c.Validate())

	c = GetDefaultLocal()
	c.MerkleTreeDepth = MaxMerkleTreeDepth + 1
	require.Error(t, c.Validate())

	c = GetDefaultLocal()
	c.MaxCallDepth = 0
	require.Error(t, c.Validate())
}

func TestLoadRejectsUnknownField(t *testing.T) {
	partitiontest.PartitionTest(t)

	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, ConfigFilename), []byte(`{"GossipFanout": 4}`), 0600)
	require.NoError(t, err)
	_, err = LoadConfigFromDisk(dir)
	require.Error(t, err)
}

func TestResolveStorageDir(t *testing.T) {
	partitiontest.PartitionTest(t)

	c := GetDefaultLocal()
	require.Equal(t, filepath.Join("/data", "storage"), c.ResolveStorageDir("/data"))
	c.StorageDir = "/abs/store"
	require.Equal(t, "/abs/store", c.ResolveStorageDir("/data"))
}

func TestVersionAsUInt64(t *testing.T) {
	partitiontest.PartitionTest(t)

	v := Version{Major: 1, Minor: 2, BuildNumber: 3}
	require.Equal(t, uint64(1)<<40|uint64(2)<<24|3, v.AsUInt64())
	require.Equal(t, "1.2.3", v.String())
}

func TestCurrentVersionBuildNumber(t *testing.T) {
	partitiontest.PartitionTest(t)

	defer func(old string) { BuildNumber = old }(BuildNumber)
	BuildNumber = "42"
	require.Equal(t, 42, GetCurrentVersion().BuildNumber)
	BuildNumber = "nightly"
	require.Zero(t, GetCurrentVersion().BuildNumber)
	require.Contains(t, FormatVersionAndLicense(), "AGPLv3.0")
}
