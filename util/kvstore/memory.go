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
	"bytes"
	"sort"

	"github.com/algorand/go-deadlock"
)

func init() {
	kvImpls["memory"] = memoryFactory{}
}

type memoryFactory struct{}

func (memoryFactory) New(string, bool) (KVStore, error) {
	return NewMemoryDB(), nil
}

// MemoryDB is a KVStore kept entirely in a map. It is the default engine for
// throwaway runs and tests.
type MemoryDB struct {
	mu   deadlock.RWMutex
	data map[string][]byte
}

// NewMemoryDB returns an empty MemoryDB
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{data: make(map[string][]byte)}
}

// Close is a no-op
func (m *MemoryDB) Close() error { return nil }

// Get a key
func (m *MemoryDB) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte{}, v...), nil
}

// Set a key to value
func (m *MemoryDB) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = append([]byte{}, value...)
	return nil
}

type memoryBatch struct {
	m       *MemoryDB
	pending []kvPair
}

// NewBatch creates a batch writer
func (m *MemoryDB) NewBatch() BatchWriter { return &memoryBatch{m: m} }

func (b *memoryBatch) Set(key, value []byte) error {
	b.pending = append(b.pending, kvPair{key: append([]byte{}, key...), value: append([]byte{}, value...)})
	return nil
}

func (b *memoryBatch) Commit() error {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	for _, p := range b.pending {
		b.m.data[string(p.key)] = p.value
	}
	b.pending = nil
	return nil
}

func (b *memoryBatch) Cancel() { b.pending = nil }

// NewIterator scans a snapshot of [start, end); either bound may be empty.
func (m *MemoryDB) NewIterator(start, end []byte) Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []kvPair
	for k, v := range m.data {
		key := []byte(k)
		if bytes.Compare(key, start) < 0 {
			continue
		}
		if len(end) > 0 && bytes.Compare(key, end) >= 0 {
			continue
		}
		rows = append(rows, kvPair{key: key, value: append([]byte{}, v...)})
	}
	sort.Slice(rows, func(i, j int) bool { return bytes.Compare(rows[i].key, rows[j].key) < 0 })
	return &sliceIterator{rows: rows}
}
