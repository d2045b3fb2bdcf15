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

	"github.com/algorand/go-zkvm/circuit/gadgets"
)

// block is a control structure open in a frame: *loopBlock or *branchBlock.
type block interface {
	isBlock()
}

type loopBlock struct {
	// start is the index of the first body instruction
	start int
	left  int
}

type branchBlock struct {
	condition gadgets.Scalar
	full      bool
}

func (*loopBlock) isBlock()   {}
func (*branchBlock) isBlock() {}

// frame is one function activation. Locals live in the data stack from base;
// top is one past the highest slot the frame has written.
type frame struct {
	base     int
	top      int
	returnPC int
	blocks   []block
}

func (f *frame) raise(address int) {
	if address+1 > f.top {
		f.top = address + 1
	}
}

func (f *frame) pushBlock(b block) {
	f.blocks = append(f.blocks, b)
}

func (f *frame) topBlock() block {
	if len(f.blocks) == 0 {
		return nil
	}
	return f.blocks[len(f.blocks)-1]
}

func (f *frame) popBlock() {
	f.blocks = f.blocks[:len(f.blocks)-1]
}

func (cx *EvalContext) frame() *frame {
	return &cx.frames[len(cx.frames)-1]
}

// local converts a frame-relative address.
func (cx *EvalContext) local(address int) int {
	return cx.frame().base + address
}

// condition is the conjunction of every enclosing branch condition.
func (cx *EvalContext) condition() gadgets.Scalar {
	if len(cx.conditions) == 0 {
		return cx.alwaysTrue
	}
	return cx.conditions[len(cx.conditions)-1]
}

func (cx *EvalContext) pushCondition(c gadgets.Scalar) error {
	combined, err := gadgets.And(cx.ConstraintSystem, "condition", cx.condition(), c)
	if err != nil {
		return err
	}
	cx.conditions = append(cx.conditions, combined)
	return nil
}

func (cx *EvalContext) popCondition() {
	cx.conditions = cx.conditions[:len(cx.conditions)-1]
}

// checkBlocksClosed fails when any frame still has an open loop or branch.
func (cx *EvalContext) checkBlocksClosed(frames []frame) error {
	for i := range frames {
		if n := len(frames[i].blocks); n > 0 {
			return fmt.Errorf("%w: %d open in frame %d", ErrUnterminatedBlock, n, i)
		}
	}
	return nil
}
