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
	"sort"

	"github.com/algorand/go-zkvm/circuit"
	"github.com/algorand/go-zkvm/circuit/gadgets"
)

// cellDelta records a slot written inside an open branch arm. old is the
// value before the branch, nil when the slot was unset; it is captured by
// the first write and kept through later ones.
type cellDelta struct {
	old *Cell
	new Cell
}

type delta map[int]*cellDelta

// branchDelta is IfThen while elseArm is nil and IfThenElse after
// switchBranch.
type branchDelta struct {
	thenArm delta
	elseArm delta
}

func (bd *branchDelta) current() delta {
	if bd.elseArm != nil {
		return bd.elseArm
	}
	return bd.thenArm
}

// dataStack is the addressable memory of a run: frame locals and globals.
type dataStack struct {
	memory   []*Cell
	branches []*branchDelta
}

func (ds *dataStack) size() int {
	return len(ds.memory)
}

func (ds *dataStack) get(address int) (Cell, error) {
	if address < 0 || address >= len(ds.memory) || ds.memory[address] == nil {
		return Cell{}, fmt.Errorf("%w: address %d", ErrUninitializedCell, address)
	}
	return *ds.memory[address], nil
}

// lookup returns the slot without failing on unset addresses.
func (ds *dataStack) lookup(address int) *Cell {
	if address < len(ds.memory) {
		return ds.memory[address]
	}
	return nil
}

func (ds *dataStack) write(address int, c *Cell) {
	if address >= len(ds.memory) {
		if c == nil {
			return
		}
		grown := make([]*Cell, address+1)
		copy(grown, ds.memory)
		ds.memory = grown
	}
	ds.memory[address] = c
}

// set stores c at address, recording the write in the innermost open arm.
func (ds *dataStack) set(address int, c Cell) {
	ds.record(address, c, ds.lookup(address))
}

// record writes c and, inside a branch, remembers old as the pre-branch
// value unless the arm already wrote the slot.
func (ds *dataStack) record(address int, c Cell, old *Cell) {
	if n := len(ds.branches); n > 0 {
		d := ds.branches[n-1].current()
		if entry, ok := d[address]; ok {
			entry.new = c
		} else {
			d[address] = &cellDelta{old: old, new: c}
		}
	}
	ds.write(address, &c)
}

// release unsets the slots [from, to) when a frame returns. Inside a branch,
// slots that had a value before the branch keep their recorded write, so the
// merge still sees it.
func (ds *dataStack) release(from, to int) {
	var d delta
	if n := len(ds.branches); n > 0 {
		d = ds.branches[n-1].current()
	}
	for address := from; address < to && address < len(ds.memory); address++ {
		if d != nil {
			entry, ok := d[address]
			if ok && entry.old != nil {
				continue
			}
			if !ok && ds.memory[address] != nil {
				continue
			}
			delete(d, address)
		}
		ds.memory[address] = nil
	}
}

func (ds *dataStack) fork() {
	ds.branches = append(ds.branches, &branchDelta{thenArm: make(delta)})
}

// switchBranch undoes the writes of the then arm and opens the else arm.
func (ds *dataStack) switchBranch() error {
	n := len(ds.branches)
	if n == 0 || ds.branches[n-1].elseArm != nil {
		return ErrUnexpectedElse
	}
	bd := ds.branches[n-1]
	for address, entry := range bd.thenArm {
		ds.write(address, entry.old)
	}
	bd.elseArm = make(delta)
	return nil
}

func sortedAddresses(deltas ...delta) []int {
	seen := make(map[int]bool)
	var addresses []int
	for _, d := range deltas {
		for address := range d {
			if !seen[address] {
				seen[address] = true
				addresses = append(addresses, address)
			}
		}
	}
	sort.Ints(addresses)
	return addresses
}

// merge closes the innermost branch. Every slot written by an arm becomes
// select(cond, then value, else value), where an arm that did not write the
// slot contributes the pre-branch value. A slot unset before the branch and
// written by one arm only is unset again after the merge.
func (ds *dataStack) merge(cs circuit.ConstraintSystem, cond gadgets.Scalar) error {
	n := len(ds.branches)
	if n == 0 {
		return ErrUnexpectedEndIf
	}
	bd := ds.branches[n-1]
	ds.branches = ds.branches[:n-1]

	elseArm := bd.elseArm
	if elseArm == nil {
		elseArm = delta{}
	}
	for _, address := range sortedAddresses(bd.thenArm, elseArm) {
		thenEntry, inThen := bd.thenArm[address]
		elseEntry, inElse := elseArm[address]

		var old *Cell
		if inThen {
			old = thenEntry.old
		} else {
			old = elseEntry.old
		}

		var thenCell, elseCell *Cell
		if inThen {
			thenCell = &thenEntry.new
		} else {
			thenCell = old
		}
		if inElse {
			elseCell = &elseEntry.new
		} else {
			elseCell = old
		}

		if thenCell == nil || elseCell == nil {
			ds.write(address, nil)
			continue
		}
		merged, err := selectCell(cs, fmt.Sprintf("data%d", address), cond, *thenCell, *elseCell)
		if err != nil {
			return err
		}
		ds.record(address, merged, old)
	}
	return nil
}
