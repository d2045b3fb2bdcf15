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
	"errors"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	"github.com/cockroachdb/pebble/vfs"
)

func init() {
	kvImpls["pebble"] = pebbleFactory{}
}

type pebbleFactory struct{}

func (pebbleFactory) New(dbdir string, inMem bool) (KVStore, error) {
	return openPebble(dbdir+".pebbledb", inMem)
}

// pebbleStore keeps leaves in a pebble LSM. Writes are synced unless the
// store lives in memory.
type pebbleStore struct {
	db *pebble.DB
	wo *pebble.WriteOptions
}

// Leaf records are a few hundred bytes and read by point lookup, so every
// level carries a bloom filter and the tables stay small.
func pebbleOptions(inMem bool) *pebble.Options {
	opts := &pebble.Options{
		L0CompactionThreshold: 2,
		MemTableSize:          4 << 20,
		Levels:                make([]pebble.LevelOptions, 7),
	}
	for i := range opts.Levels {
		opts.Levels[i].BlockSize = 16 << 10
		opts.Levels[i].FilterPolicy = bloom.FilterPolicy(10)
		opts.Levels[i].FilterType = pebble.TableFilter
		opts.Levels[i].EnsureDefaults()
	}
	if inMem {
		opts.FS = vfs.NewMem()
	}
	return opts
}

func openPebble(path string, inMem bool) (*pebbleStore, error) {
	cache := pebble.NewCache(16 << 20)
	defer cache.Unref()
	opts := pebbleOptions(inMem)
	opts.Cache = cache

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}
	return &pebbleStore{db: db, wo: &pebble.WriteOptions{Sync: !inMem}}, nil
}

func (s *pebbleStore) Close() error { return s.db.Close() }

func (s *pebbleStore) Get(key []byte) ([]byte, error) {
	value, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte{}, value...), nil
}

func (s *pebbleStore) Set(key, value []byte) error { return s.db.Set(key, value, s.wo) }

func (s *pebbleStore) NewBatch() BatchWriter {
	return &pebbleBatch{b: s.db.NewBatch(), wo: s.wo}
}

type pebbleBatch struct {
	b  *pebble.Batch
	wo *pebble.WriteOptions
}

func (b *pebbleBatch) Set(key, value []byte) error { return b.b.Set(key, value, nil) }
func (b *pebbleBatch) Commit() error               { return b.b.Commit(b.wo) }
func (b *pebbleBatch) Cancel()                     { b.b.Close() }

func (s *pebbleStore) NewIterator(start, end []byte) Iterator {
	it := s.db.NewIter(&pebble.IterOptions{LowerBound: start, UpperBound: end})
	it.First()
	return pebbleIterator{it}
}

type pebbleIterator struct {
	*pebble.Iterator
}

func (i pebbleIterator) Next()  { i.Iterator.Next() }
func (i pebbleIterator) Close() { i.Iterator.Close() }

func (i pebbleIterator) Key() []byte {
	return append([]byte{}, i.Iterator.Key()...)
}

func (i pebbleIterator) Value() ([]byte, error) {
	return append([]byte{}, i.Iterator.Value()...), nil
}
