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
	"fmt"

	"github.com/algorand/go-zkvm/circuit"
	"github.com/algorand/go-zkvm/circuit/gadgets"
)

// Cell is a stack slot: a Scalar value or the absolute address of a data
// stack slot.
type Cell struct {
	scalar    gadgets.Scalar
	address   int
	isAddress bool
}

// ValueCell wraps a Scalar.
func ValueCell(s gadgets.Scalar) Cell {
	return Cell{scalar: s}
}

// AddressCell refers to data stack slot index.
func AddressCell(index int) Cell {
	return Cell{address: index, isAddress: true}
}

// IsAddress reports whether c holds an address.
func (c Cell) IsAddress() bool {
	return c.isAddress
}

// Scalar returns the value of c.
func (c Cell) Scalar() (gadgets.Scalar, error) {
	if c.isAddress {
		return gadgets.Scalar{}, ErrNotAValue
	}
	return c.scalar, nil
}

// Address returns the slot c refers to.
func (c Cell) Address() (int, error) {
	if !c.isAddress {
		return 0, ErrNotAnAddress
	}
	return c.address, nil
}

func (c Cell) String() string {
	if c.isAddress {
		return fmt.Sprintf("&%d", c.address)
	}
	return c.scalar.String()
}

// selectCell returns a when cond holds and b otherwise. Values are combined
// with a select gate; addresses pass through only when both arms agree.
func selectCell(cs circuit.ConstraintSystem, name string, cond gadgets.Scalar, a, b Cell) (Cell, error) {
	switch {
	case a.isAddress && b.isAddress:
		if a.address != b.address {
			return Cell{}, fmt.Errorf("%w: addresses %d and %d", ErrMergeKindMismatch, a.address, b.address)
		}
		return a, nil
	case a.isAddress != b.isAddress:
		return Cell{}, fmt.Errorf("%w: %s and %s", ErrMergeKindMismatch, a, b)
	}
	if a.scalar.Type() != b.scalar.Type() {
		return Cell{}, fmt.Errorf("%w: types %s and %s", ErrMergeKindMismatch, a.scalar.Type(), b.scalar.Type())
	}
	s, err := gadgets.ConditionalSelect(cs, name, cond, a.scalar, b.scalar)
	if err != nil {
		return Cell{}, err
	}
	return ValueCell(s), nil
}
