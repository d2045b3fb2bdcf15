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

// Package storage keeps the leaves behind the authenticated storage gadget:
// a sparse binary MiMC tree of fixed depth, persisted leaf by leaf in a
// key/value store.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/algorand/go-deadlock"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/algorand/go-zkvm/config"
	"github.com/algorand/go-zkvm/crypto/mimc"
	"github.com/algorand/go-zkvm/protocol"
	"github.com/algorand/go-zkvm/util/kvstore"
)

var (
	// ErrIndexOutOfRange is returned for leaf indexes not below 2^depth.
	ErrIndexOutOfRange = errors.New("leaf index out of range")

	errInvalidDepth  = errors.New("invalid tree depth")
	errDepthMismatch = errors.New("stored tree depth differs")
)

// Leaf is the witness for one storage slot: its values and the sibling
// hashes from the leaf level up to just below the root.
type Leaf struct {
	Values []fr.Element
	Path   []fr.Element
}

// Backend supplies leaves with their authentication paths and accepts
// writes. Writes become durable on Commit and are undone by Rollback.
type Backend interface {
	Depth() int
	Root() fr.Element
	Load(index uint64) (Leaf, error)
	Store(index uint64, values []fr.Element) error
	Commit() error
	Rollback() error
}

type leafRecord struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Index  uint64   `codec:"i"`
	Values [][]byte `codec:"v"`
}

type treeMeta struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Depth int `codec:"d"`
}

var metaKey = protocol.StorageMetaPrefix.Key([]byte("tree"))

// Tree is a sparse fixed-depth Merkle tree. Leaf hashes are mimc(values...)
// and inner nodes mimc(left, right); untouched subtrees take precomputed
// default hashes, so an empty leaf hashes to mimc() = 0.
type Tree struct {
	mu deadlock.RWMutex

	kv    kvstore.KVStore
	depth int

	// nodes[0] holds leaf hashes, nodes[depth] the root
	nodes    []map[uint64]fr.Element
	defaults []fr.Element
	leaves   map[uint64][]fr.Element

	// committed leaf values of every leaf written since the last Commit;
	// nil for leaves that were empty
	undo map[uint64][]fr.Element
}

// LeafHash is the hash of a leaf holding values.
func LeafHash(values []fr.Element) fr.Element {
	return mimc.Sum(values...)
}

// NodeHash is the hash of an inner node.
func NodeHash(left, right fr.Element) fr.Element {
	return mimc.Sum(left, right)
}

// Open loads a tree of the given depth from kv. A store created with another
// depth is rejected.
func Open(kv kvstore.KVStore, depth int) (*Tree, error) {
	if depth < 1 || depth > config.MaxMerkleTreeDepth {
		return nil, fmt.Errorf("%w: %d", errInvalidDepth, depth)
	}
	t := &Tree{
		kv:       kv,
		depth:    depth,
		nodes:    make([]map[uint64]fr.Element, depth+1),
		defaults: make([]fr.Element, depth+1),
		leaves:   make(map[uint64][]fr.Element),
		undo:     make(map[uint64][]fr.Element),
	}
	for l := range t.nodes {
		t.nodes[l] = make(map[uint64]fr.Element)
	}
	t.defaults[0] = LeafHash(nil)
	for l := 1; l <= depth; l++ {
		t.defaults[l] = NodeHash(t.defaults[l-1], t.defaults[l-1])
	}

	if err := t.loadMeta(); err != nil {
		return nil, err
	}
	if err := t.loadLeaves(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewMemoryTree returns an empty tree over an in-memory store.
func NewMemoryTree(depth int) (*Tree, error) {
	kv, err := kvstore.NewKVStore("memory", "", true)
	if err != nil {
		return nil, err
	}
	return Open(kv, depth)
}

func (t *Tree) loadMeta() error {
	raw, err := t.kv.Get(metaKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return t.kv.Set(metaKey, protocol.Encode(&treeMeta{Depth: t.depth}))
	}
	if err != nil {
		return err
	}
	var meta treeMeta
	if err := protocol.Decode(raw, &meta); err != nil {
		return err
	}
	if meta.Depth != t.depth {
		return fmt.Errorf("%w: store has depth %d, opened with %d", errDepthMismatch, meta.Depth, t.depth)
	}
	return nil
}

func (t *Tree) loadLeaves() error {
	start := protocol.StorageLeafPrefix.Key(nil)
	end := protocol.StorageLeafPrefix.Key([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	it := t.kv.NewIterator(start, end)
	defer it.Close()
	for ; it.Valid(); it.Next() {
		raw, err := it.Value()
		if err != nil {
			return err
		}
		var rec leafRecord
		if err := protocol.Decode(raw, &rec); err != nil {
			return fmt.Errorf("leaf %x: %w", it.Key(), err)
		}
		values := make([]fr.Element, len(rec.Values))
		for i, b := range rec.Values {
			if len(b) != fr.Bytes {
				return fmt.Errorf("leaf %d value %d: %d bytes", rec.Index, i, len(b))
			}
			values[i].SetBytes(b)
		}
		if err := t.checkIndex(rec.Index); err != nil {
			return err
		}
		t.setLeaf(rec.Index, values)
	}
	return nil
}

func leafKey(index uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], index)
	return protocol.StorageLeafPrefix.Key(b[:])
}

func (t *Tree) checkIndex(index uint64) error {
	if index>>uint(t.depth) != 0 {
		return fmt.Errorf("%w: %d with depth %d", ErrIndexOutOfRange, index, t.depth)
	}
	return nil
}

func (t *Tree) node(level int, index uint64) fr.Element {
	if h, ok := t.nodes[level][index]; ok {
		return h
	}
	return t.defaults[level]
}

// setLeaf replaces the leaf and rehashes its path. Caller holds the lock.
func (t *Tree) setLeaf(index uint64, values []fr.Element) {
	if len(values) == 0 {
		delete(t.leaves, index)
	} else {
		t.leaves[index] = values
	}
	t.nodes[0][index] = LeafHash(values)
	for l := 0; l < t.depth; l++ {
		left := t.node(l, index&^1)
		right := t.node(l, index|1)
		index >>= 1
		t.nodes[l+1][index] = NodeHash(left, right)
	}
}

// Depth is the number of levels between a leaf and the root.
func (t *Tree) Depth() int {
	return t.depth
}

// Root returns the current root hash, including uncommitted writes.
func (t *Tree) Root() fr.Element {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.node(t.depth, 0)
}

// Load returns the values of a leaf and its authentication path. Empty
// leaves have no values.
func (t *Tree) Load(index uint64) (Leaf, error) {
	if err := t.checkIndex(index); err != nil {
		return Leaf{}, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	leaf := Leaf{
		Values: append([]fr.Element(nil), t.leaves[index]...),
		Path:   make([]fr.Element, t.depth),
	}
	for l := 0; l < t.depth; l++ {
		leaf.Path[l] = t.node(l, index^1)
		index >>= 1
	}
	return leaf, nil
}

// Store replaces the values of a leaf. The write is visible immediately and
// persisted by Commit.
func (t *Tree) Store(index uint64, values []fr.Element) error {
	if err := t.checkIndex(index); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.undo[index]; !ok {
		t.undo[index] = t.leaves[index]
	}
	t.setLeaf(index, append([]fr.Element(nil), values...))
	return nil
}

// Init seeds a leaf and commits it.
func (t *Tree) Init(index uint64, values []fr.Element) error {
	if err := t.Store(index, values); err != nil {
		return err
	}
	return t.Commit()
}

// Commit persists every leaf written since the last Commit or Rollback.
func (t *Tree) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.undo) == 0 {
		return nil
	}

	batch := t.kv.NewBatch()
	for index := range t.undo {
		values := t.leaves[index]
		rec := leafRecord{Index: index, Values: make([][]byte, len(values))}
		for i := range values {
			b := values[i].Bytes()
			rec.Values[i] = b[:]
		}
		if err := batch.Set(leafKey(index), protocol.Encode(&rec)); err != nil {
			batch.Cancel()
			return err
		}
	}
	if err := batch.Commit(); err != nil {
		return err
	}
	t.undo = make(map[uint64][]fr.Element)
	return nil
}

// Rollback discards every write since the last Commit.
func (t *Tree) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for index, values := range t.undo {
		t.setLeaf(index, values)
	}
	t.undo = make(map[uint64][]fr.Element)
	return nil
}

// Close releases the underlying store. Uncommitted writes are lost.
func (t *Tree) Close() error {
	return t.kv.Close()
}

// VerifyPath recomputes the root from a leaf hash and its authentication
// path and compares it with root.
func VerifyPath(root, leafHash fr.Element, index uint64, path []fr.Element) bool {
	h := leafHash
	for _, sibling := range path {
		if index&1 == 0 {
			h = NodeHash(h, sibling)
		} else {
			h = NodeHash(sibling, h)
		}
		index >>= 1
	}
	return index == 0 && h.Equal(&root)
}
