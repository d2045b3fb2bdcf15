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
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/algorand/go-zkvm/circuit"
	"github.com/algorand/go-zkvm/circuit/gadgets"
	"github.com/algorand/go-zkvm/config"
	"github.com/algorand/go-zkvm/data/basics"
	"github.com/algorand/go-zkvm/storage"
)

// merkleStorage proves storage accesses against root, a public input fixed
// at the start of the run. The backend only supplies witnesses.
type merkleStorage struct {
	backend storage.Backend
	depth   int
	root    gadgets.Scalar
}

func newMerkleStorage(cs circuit.ConstraintSystem, backend storage.Backend) (*merkleStorage, error) {
	depth := backend.Depth()
	if depth < 1 || depth > config.MaxMerkleTreeDepth {
		return nil, fmt.Errorf("storage depth %d out of range", depth)
	}
	root := backend.Root()
	return &merkleStorage{
		backend: backend,
		depth:   depth,
		root:    gadgets.AllocInput(cs, "storage_root", &root, basics.Field),
	}, nil
}

// leafIndex converts the witness of index for the backend.
func leafIndex(index gadgets.Scalar) (uint64, error) {
	v := index.BigInt()
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, fmt.Errorf("%w: %s", storage.ErrIndexOutOfRange, v)
	}
	return v.Uint64(), nil
}

// witness fetches the leaf at index, or returns nil without a witness.
func (ms *merkleStorage) witness(index gadgets.Scalar) (*storage.Leaf, uint64, error) {
	if !index.HasValue() {
		return nil, 0, nil
	}
	i, err := leafIndex(index)
	if err != nil {
		return nil, 0, err
	}
	leaf, err := ms.backend.Load(i)
	if err != nil {
		if errors.Is(err, storage.ErrIndexOutOfRange) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrStorageBackend, err)
	}
	if len(leaf.Path) != ms.depth {
		return nil, 0, fmt.Errorf("%w: path of %d siblings for depth %d", ErrLeafSizeMismatch, len(leaf.Path), ms.depth)
	}
	return &leaf, i, nil
}

func (ms *merkleStorage) allocPath(cs circuit.ConstraintSystem, leaf *storage.Leaf) []gadgets.Scalar {
	path := make([]gadgets.Scalar, ms.depth)
	for l := range path {
		var value *fr.Element
		if leaf != nil {
			value = &leaf.Path[l]
		}
		path[l] = gadgets.Alloc(cs, fmt.Sprintf("sibling%d", l), value, basics.Field)
	}
	return path
}

// walk hashes from a leaf to the root. A set index bit puts the running
// hash on the right.
func walk(cs circuit.ConstraintSystem, name string, bits []gadgets.Scalar, leafHash gadgets.Scalar, path []gadgets.Scalar) (gadgets.Scalar, error) {
	cs.PushNamespace(name)
	defer cs.PopNamespace()

	h := leafHash
	for l, sibling := range path {
		left, err := gadgets.ConditionalSelect(cs, fmt.Sprintf("left%d", l), bits[l], sibling, h)
		if err != nil {
			return gadgets.Scalar{}, err
		}
		right, err := gadgets.ConditionalSelect(cs, fmt.Sprintf("right%d", l), bits[l], h, sibling)
		if err != nil {
			return gadgets.Scalar{}, err
		}
		h = gadgets.MiMC(cs, fmt.Sprintf("node%d", l), left, right)
	}
	return h, nil
}

// load proves the leaf at index under the current root and returns its
// values typed as types.
func (ms *merkleStorage) load(cs circuit.ConstraintSystem, index gadgets.Scalar, types []basics.ScalarType) ([]gadgets.Scalar, error) {
	leaf, _, err := ms.witness(index)
	if err != nil {
		return nil, err
	}
	if leaf != nil && len(leaf.Values) != len(types) {
		return nil, fmt.Errorf("%w: leaf has %d values, loading %d", ErrLeafSizeMismatch, len(leaf.Values), len(types))
	}
	bits := gadgets.ToBitsN(cs, "index", index, ms.depth)

	values := make([]gadgets.Scalar, len(types))
	for i, typ := range types {
		if err := typ.Validate(); err != nil {
			return nil, err
		}
		var value *fr.Element
		if leaf != nil {
			value = &leaf.Values[i]
		}
		values[i] = gadgets.AllocChecked(cs, fmt.Sprintf("value%d", i), value, typ)
	}
	path := ms.allocPath(cs, leaf)

	root, err := walk(cs, "path", bits, gadgets.MiMC(cs, "leaf", values...), path)
	if err != nil {
		return nil, err
	}
	gadgets.EnforceEqual(cs, "root", root, ms.root)
	return values, nil
}

// store replaces the leaf at index when cond holds. The old leaf is proven
// under the current root before the new root is derived from the same path.
func (ms *merkleStorage) store(cs circuit.ConstraintSystem, index gadgets.Scalar, values []gadgets.Scalar, cond gadgets.Scalar) error {
	leaf, i, err := ms.witness(index)
	if err != nil {
		return err
	}
	bits := gadgets.ToBitsN(cs, "index", index, ms.depth)

	var oldValue *fr.Element
	if leaf != nil {
		h := storage.LeafHash(leaf.Values)
		oldValue = &h
	}
	oldHash := gadgets.Alloc(cs, "old_leaf", oldValue, basics.Field)
	path := ms.allocPath(cs, leaf)

	oldRoot, err := walk(cs, "old_path", bits, oldHash, path)
	if err != nil {
		return err
	}
	gadgets.EnforceEqual(cs, "old_root", oldRoot, ms.root)

	newHash := gadgets.MiMC(cs, "new_leaf", values...)
	leafHash, err := gadgets.ConditionalSelect(cs, "leaf", cond, newHash, oldHash)
	if err != nil {
		return err
	}
	newRoot, err := walk(cs, "new_path", bits, leafHash, path)
	if err != nil {
		return err
	}
	ms.root = newRoot

	if taken, ok := cond.Bool(); !ok || !taken || leaf == nil {
		return nil
	}
	elems := make([]fr.Element, len(values))
	for j, v := range values {
		if !v.HasValue() {
			return nil
		}
		elems[j] = *v.Value()
	}
	if err := ms.backend.Store(i, elems); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageBackend, err)
	}
	return nil
}
