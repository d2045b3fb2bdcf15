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

// evaluationStack is the operand stack. Each open branch arm owns a segment;
// an arm can only pop what it pushed itself.
type evaluationStack struct {
	segments [][]Cell
	size     int
}

func newEvaluationStack() evaluationStack {
	return evaluationStack{segments: [][]Cell{nil}}
}

func (es *evaluationStack) top() *[]Cell {
	return &es.segments[len(es.segments)-1]
}

// depth is the number of cells in the current segment.
func (es *evaluationStack) depth() int {
	return len(*es.top())
}

func (es *evaluationStack) push(c Cell) {
	seg := es.top()
	*seg = append(*seg, c)
	es.size++
}

func (es *evaluationStack) pop() (Cell, error) {
	seg := es.top()
	n := len(*seg)
	if n == 0 {
		return Cell{}, ErrStackUnderflow
	}
	c := (*seg)[n-1]
	*seg = (*seg)[:n-1]
	es.size--
	return c, nil
}

// popN pops n cells and returns them in push order.
func (es *evaluationStack) popN(n int) ([]Cell, error) {
	seg := es.top()
	if n > len(*seg) {
		return nil, fmt.Errorf("%w: need %d cells, have %d", ErrStackUnderflow, n, len(*seg))
	}
	cells := make([]Cell, n)
	copy(cells, (*seg)[len(*seg)-n:])
	*seg = (*seg)[:len(*seg)-n]
	es.size -= n
	return cells, nil
}

func (es *evaluationStack) popValue() (gadgets.Scalar, error) {
	c, err := es.pop()
	if err != nil {
		return gadgets.Scalar{}, err
	}
	return c.Scalar()
}

func (es *evaluationStack) pushValue(s gadgets.Scalar) {
	es.push(ValueCell(s))
}

// fork opens a segment for a branch arm.
func (es *evaluationStack) fork() {
	es.segments = append(es.segments, nil)
}

// revert drops the current segment and everything pushed into it.
func (es *evaluationStack) revert() error {
	if len(es.segments) < 2 {
		return ErrUnexpectedEndIf
	}
	es.size -= es.depth()
	es.segments = es.segments[:len(es.segments)-1]
	return nil
}

// merge closes both arms of a two-armed branch, pushing
// select(cond, then[i], else[i]) into the enclosing segment.
func (es *evaluationStack) merge(cs circuit.ConstraintSystem, cond gadgets.Scalar) error {
	if len(es.segments) < 3 {
		return ErrUnexpectedEndIf
	}
	n := len(es.segments)
	thenArm, elseArm := es.segments[n-2], es.segments[n-1]
	if len(thenArm) != len(elseArm) {
		return fmt.Errorf("%w: %d and %d", ErrBranchDepthMismatch, len(thenArm), len(elseArm))
	}
	es.segments = es.segments[:n-2]
	es.size -= len(thenArm) + len(elseArm)
	for i := range thenArm {
		c, err := selectCell(cs, fmt.Sprintf("stack%d", i), cond, thenArm[i], elseArm[i])
		if err != nil {
			return err
		}
		es.push(c)
	}
	return nil
}
