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

package kvstore

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-zkvm/test/partitiontest"
)

func openEngines(t *testing.T) map[string]KVStore {
	stores := make(map[string]KVStore)
	for _, engine := range Engines() {
		kv, err := NewKVStore(engine, filepath.Join(t.TempDir(), "db"), false)
		require.NoError(t, err, engine)
		t.Cleanup(func() { kv.Close() })
		stores[engine] = kv
	}
	return stores
}

func TestEngines(t *testing.T) {
	partitiontest.PartitionTest(t)

	require.Equal(t, []string{"memory", "pebble", "sqlite"}, Engines())
	_, err := NewKVStore("leveldb", t.TempDir(), true)
	require.Error(t, err)
}

func TestGetSet(t *testing.T) {
	partitiontest.PartitionTest(t)

	for engine, kv := range openEngines(t) {
		_, err := kv.Get([]byte("missing"))
		require.ErrorIs(t, err, ErrNotFound, engine)

		require.NoError(t, kv.Set([]byte("a"), []byte("1")), engine)
		v, err := kv.Get([]byte("a"))
		require.NoError(t, err, engine)
		require.Equal(t, []byte("1"), v, engine)

		require.NoError(t, kv.Set([]byte("a"), []byte("2")), engine)
		v, err = kv.Get([]byte("a"))
		require.NoError(t, err, engine)
		require.Equal(t, []byte("2"), v, engine)
	}
}

func TestBatchAndIterator(t *testing.T) {
	partitiontest.PartitionTest(t)

	for engine, kv := range openEngines(t) {
		b := kv.NewBatch()
		for i := 0; i < 10; i++ {
			require.NoError(t, b.Set([]byte(fmt.Sprintf("k%02d", i)), []byte{byte(i)}), engine)
		}
		require.NoError(t, b.Commit(), engine)

		cancelled := kv.NewBatch()
		require.NoError(t, cancelled.Set([]byte("k99"), []byte{99}), engine)
		cancelled.Cancel()
		_, err := kv.Get([]byte("k99"))
		require.ErrorIs(t, err, ErrNotFound, engine)

		it := kv.NewIterator([]byte("k03"), []byte("k07"))
		var seen []byte
		for ; it.Valid(); it.Next() {
			v, err := it.Value()
			require.NoError(t, err, engine)
			require.Equal(t, fmt.Sprintf("k%02d", v[0]), string(it.Key()), engine)
			seen = append(seen, v[0])
		}
		it.Close()
		require.Equal(t, []byte{3, 4, 5, 6}, seen, engine)

		it = kv.NewIterator(nil, nil)
		count := 0
		for ; it.Valid(); it.Next() {
			count++
		}
		it.Close()
		require.Equal(t, 10, count, engine)
	}
}

func TestInMemoryEngines(t *testing.T) {
	partitiontest.PartitionTest(t)

	for _, engine := range Engines() {
		kv1, err := NewKVStore(engine, "mem", true)
		require.NoError(t, err, engine)
		defer kv1.Close()
		kv2, err := NewKVStore(engine, "mem", true)
		require.NoError(t, err, engine)
		defer kv2.Close()

		require.NoError(t, kv1.Set([]byte("x"), []byte("y")))
		_, err = kv2.Get([]byte("x"))
		require.ErrorIs(t, err, ErrNotFound, engine)
	}
}
