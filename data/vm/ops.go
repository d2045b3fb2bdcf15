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
	"math/big"
	"strings"

	"github.com/algorand/go-zkvm/circuit"
	"github.com/algorand/go-zkvm/circuit/gadgets"
	"github.com/algorand/go-zkvm/data/basics"
	"github.com/algorand/go-zkvm/data/bytecode"
)

type binaryGadget func(cs circuit.ConstraintSystem, name string, a, b gadgets.Scalar) (gadgets.Scalar, error)

func (cx *EvalContext) dispatch(inst bytecode.Instruction) error {
	switch inst := inst.(type) {
	case bytecode.NoOperation:
		return nil
	case bytecode.Push:
		return opPush(cx, inst)
	case bytecode.Pop:
		_, err := cx.stack.popN(inst.Count)
		return err
	case bytecode.Copy:
		return opCopy(cx)
	case bytecode.Swap:
		return opSwap(cx)

	case bytecode.Load:
		return opLoad(cx, cx.local(inst.Address))
	case bytecode.Store:
		return opStore(cx, cx.local(inst.Address))
	case bytecode.LoadGlobal:
		return opLoad(cx, inst.Address)
	case bytecode.StoreGlobal:
		return opStore(cx, inst.Address)
	case bytecode.LoadSequence:
		return opLoadSequence(cx, inst)
	case bytecode.StoreSequence:
		return opStoreSequence(cx, inst)
	case bytecode.Ref:
		cx.stack.push(AddressCell(cx.local(inst.Address)))
		return nil
	case bytecode.LoadByRef:
		return opLoadByRef(cx)
	case bytecode.StoreByRef:
		return opStoreByRef(cx)

	case bytecode.Add:
		return opArithmetic(cx, "add", gadgets.Add)
	case bytecode.Sub:
		return opArithmetic(cx, "sub", gadgets.Sub)
	case bytecode.Mul:
		return opArithmetic(cx, "mul", gadgets.Mul)
	case bytecode.Div:
		return opArithmetic(cx, "div", gadgets.Div)
	case bytecode.Rem:
		return opArithmetic(cx, "rem", gadgets.Rem)
	case bytecode.Neg:
		return opNeg(cx)
	case bytecode.Lt:
		return opBinary(cx, "lt", gadgets.Lt)
	case bytecode.Le:
		return opBinary(cx, "le", gadgets.Le)
	case bytecode.Eq:
		return opBinary(cx, "eq", gadgets.Eq)
	case bytecode.Ne:
		return opBinary(cx, "ne", gadgets.Ne)
	case bytecode.Ge:
		return opBinary(cx, "ge", gadgets.Ge)
	case bytecode.Gt:
		return opBinary(cx, "gt", gadgets.Gt)
	case bytecode.And:
		return opBinary(cx, "and", gadgets.And)
	case bytecode.Or:
		return opBinary(cx, "or", gadgets.Or)
	case bytecode.Xor:
		return opBinary(cx, "xor", gadgets.Xor)
	case bytecode.Not:
		return opUnary(cx, "not", gadgets.Not)
	case bytecode.Cast:
		return opCast(cx, inst)
	case bytecode.ConditionalSelect:
		return opSelect(cx)

	case bytecode.If:
		return opIf(cx)
	case bytecode.Else:
		return opElse(cx)
	case bytecode.EndIf:
		return opEndIf(cx)
	case bytecode.LoopBegin:
		return opLoopBegin(cx, inst)
	case bytecode.LoopEnd:
		return opLoopEnd(cx)
	case bytecode.Call:
		return opCall(cx, inst)
	case bytecode.Return:
		return opReturn(cx, inst)
	case bytecode.Exit:
		return opExit(cx, inst)

	case bytecode.CallNative:
		return opCallNative(cx, inst)
	case bytecode.Assert:
		return opAssert(cx, inst)
	case bytecode.Dbg:
		return opDbg(cx, inst)

	case bytecode.StorageLoad:
		return opStorageLoad(cx, inst)
	case bytecode.StorageStore:
		return opStorageStore(cx, inst)
	case bytecode.StorageRoot:
		if cx.storage == nil {
			return ErrStorageUnavailable
		}
		cx.stack.pushValue(cx.storage.root)
		return nil
	}
	return fmt.Errorf("unsupported instruction %T", inst)
}

func opPush(cx *EvalContext, inst bytecode.Push) error {
	if err := inst.Type.Validate(); err != nil {
		return err
	}
	cx.stack.pushValue(gadgets.Constant(cx.ConstraintSystem, "constant", inst.Value, inst.Type))
	return nil
}

func opCopy(cx *EvalContext) error {
	c, err := cx.stack.pop()
	if err != nil {
		return err
	}
	cx.stack.push(c)
	cx.stack.push(c)
	return nil
}

func opSwap(cx *EvalContext) error {
	cells, err := cx.stack.popN(2)
	if err != nil {
		return err
	}
	cx.stack.push(cells[1])
	cx.stack.push(cells[0])
	return nil
}

func opLoad(cx *EvalContext, address int) error {
	c, err := cx.data.get(address)
	if err != nil {
		return err
	}
	cx.stack.push(c)
	return nil
}

func (cx *EvalContext) store(address int, c Cell) error {
	if address < 0 {
		return fmt.Errorf("%w: address %d", ErrUninitializedCell, address)
	}
	if err := cx.checkCells(address, 1); err != nil {
		return err
	}
	cx.data.set(address, c)
	cx.frame().raise(address)
	return nil
}

// checkCells fails when the n cells from address would grow the data stack
// past MaxStackDepth.
func (cx *EvalContext) checkCells(address, n int) error {
	end, overflowed := basics.OAdd(uint64(address), uint64(n))
	if overflowed || (cx.MaxStackDepth > 0 && end > uint64(cx.MaxStackDepth)) {
		return fmt.Errorf("%w: cells [%d, %d)", ErrStackOverflow, address, end)
	}
	return nil
}

func opStore(cx *EvalContext, address int) error {
	c, err := cx.stack.pop()
	if err != nil {
		return err
	}
	return cx.store(address, c)
}

func opLoadSequence(cx *EvalContext, inst bytecode.LoadSequence) error {
	base := cx.local(inst.Address)
	for i := 0; i < inst.Len; i++ {
		if err := opLoad(cx, base+i); err != nil {
			return err
		}
	}
	return nil
}

// opStoreSequence stores the top Len cells so that the top lands in the
// last slot.
func opStoreSequence(cx *EvalContext, inst bytecode.StoreSequence) error {
	cells, err := cx.stack.popN(inst.Len)
	if err != nil {
		return err
	}
	base := cx.local(inst.Address)
	if err := cx.checkCells(base, len(cells)); err != nil {
		return err
	}
	for i, c := range cells {
		if err := cx.store(base+i, c); err != nil {
			return err
		}
	}
	return nil
}

func opLoadByRef(cx *EvalContext) error {
	ref, err := cx.stack.pop()
	if err != nil {
		return err
	}
	address, err := ref.Address()
	if err != nil {
		return err
	}
	return opLoad(cx, address)
}

func opStoreByRef(cx *EvalContext) error {
	ref, err := cx.stack.pop()
	if err != nil {
		return err
	}
	address, err := ref.Address()
	if err != nil {
		return err
	}
	return opStore(cx, address)
}

// popOperands pops the right operand, then the left.
func (cx *EvalContext) popOperands() (a, b gadgets.Scalar, err error) {
	b, err = cx.stack.popValue()
	if err != nil {
		return
	}
	a, err = cx.stack.popValue()
	return
}

// guard replaces v with neutral inside an open branch when the branch is not
// taken. Range checks of an arm that is not taken then hold for any input.
func (cx *EvalContext) guard(name string, v gadgets.Scalar, neutral int64) (gadgets.Scalar, error) {
	if len(cx.conditions) == 0 {
		return v, nil
	}
	cs := cx.ConstraintSystem
	n := gadgets.Constant(cs, name+"_neutral", big.NewInt(neutral), v.Type())
	return gadgets.ConditionalSelect(cs, name, cx.condition(), v, n)
}

func opBinary(cx *EvalContext, name string, gadget binaryGadget) error {
	a, b, err := cx.popOperands()
	if err != nil {
		return err
	}
	out, err := gadget(cx.ConstraintSystem, name, a, b)
	if err != nil {
		return err
	}
	cx.stack.pushValue(out)
	return nil
}

// opArithmetic is opBinary for ops whose result is range-checked. Inside a
// branch the operands are guarded so that only the taken arm can overflow.
func opArithmetic(cx *EvalContext, name string, gadget binaryGadget) error {
	a, b, err := cx.popOperands()
	if err != nil {
		return err
	}
	divides := name == "div" || name == "rem"
	if len(cx.conditions) > 0 && a.Type() == b.Type() {
		if a, err = cx.guard("lhs", a, 0); err != nil {
			return err
		}
		divisor := int64(0)
		if divides {
			divisor = 1
		}
		if b, err = cx.guard("rhs", b, divisor); err != nil {
			return err
		}
	}
	out, err := gadget(cx.ConstraintSystem, name, a, b)
	if err != nil {
		return err
	}
	cx.stack.pushValue(out)
	return nil
}

func opUnary(cx *EvalContext, name string, gadget func(circuit.ConstraintSystem, string, gadgets.Scalar) (gadgets.Scalar, error)) error {
	a, err := cx.stack.popValue()
	if err != nil {
		return err
	}
	out, err := gadget(cx.ConstraintSystem, name, a)
	if err != nil {
		return err
	}
	cx.stack.pushValue(out)
	return nil
}

func opNeg(cx *EvalContext) error {
	a, err := cx.stack.popValue()
	if err != nil {
		return err
	}
	if a.Type().IsSigned() {
		if a, err = cx.guard("operand", a, 0); err != nil {
			return err
		}
	}
	out, err := gadgets.Neg(cx.ConstraintSystem, "neg", a)
	if err != nil {
		return err
	}
	cx.stack.pushValue(out)
	return nil
}

func opCast(cx *EvalContext, inst bytecode.Cast) error {
	a, err := cx.stack.popValue()
	if err != nil {
		return err
	}
	if a.Type() != inst.Type && inst.Type.Kind != basics.KindField {
		if a, err = cx.guard("operand", a, 0); err != nil {
			return err
		}
	}
	out, err := gadgets.Cast(cx.ConstraintSystem, "cast", a, inst.Type)
	if err != nil {
		return err
	}
	cx.stack.pushValue(out)
	return nil
}

// opSelect pops the condition, then the value for true, then the value for
// false.
func opSelect(cx *EvalContext) error {
	cond, err := cx.stack.popValue()
	if err != nil {
		return err
	}
	whenTrue, err := cx.stack.pop()
	if err != nil {
		return err
	}
	whenFalse, err := cx.stack.pop()
	if err != nil {
		return err
	}
	out, err := selectCell(cx.ConstraintSystem, "select", cond, whenTrue, whenFalse)
	if err != nil {
		return err
	}
	cx.stack.push(out)
	return nil
}

func opIf(cx *EvalContext) error {
	cond, err := cx.stack.popValue()
	if err != nil {
		return err
	}
	if cond.Type() != basics.Boolean {
		return fmt.Errorf("%w: if condition is %s", gadgets.ErrTypeMismatch, cond.Type())
	}
	if err := cx.pushCondition(cond); err != nil {
		return err
	}
	cx.frame().pushBlock(&branchBlock{condition: cond})
	cx.stack.fork()
	cx.data.fork()
	return nil
}

func opElse(cx *EvalContext) error {
	b, ok := cx.frame().topBlock().(*branchBlock)
	if !ok || b.full {
		return ErrUnexpectedElse
	}
	b.full = true
	cx.popCondition()
	notCond, err := gadgets.Not(cx.ConstraintSystem, "not", b.condition)
	if err != nil {
		return err
	}
	if err := cx.pushCondition(notCond); err != nil {
		return err
	}
	if err := cx.data.switchBranch(); err != nil {
		return err
	}
	cx.stack.fork()
	return nil
}

func opEndIf(cx *EvalContext) error {
	b, ok := cx.frame().topBlock().(*branchBlock)
	if !ok {
		return ErrUnexpectedEndIf
	}
	cx.frame().popBlock()
	cx.popCondition()

	cs := cx.ConstraintSystem
	if b.full {
		if err := cx.stack.merge(cs, b.condition); err != nil {
			return err
		}
	} else if err := cx.stack.revert(); err != nil {
		return err
	}
	return cx.data.merge(cs, b.condition)
}

func opLoopBegin(cx *EvalContext, inst bytecode.LoopBegin) error {
	if inst.Iterations < 1 {
		return ErrZeroIterations
	}
	cx.frame().pushBlock(&loopBlock{start: cx.pc + 1, left: inst.Iterations - 1})
	return nil
}

func opLoopEnd(cx *EvalContext) error {
	l, ok := cx.frame().topBlock().(*loopBlock)
	if !ok {
		return ErrUnexpectedLoopEnd
	}
	if l.left > 0 {
		l.left--
		cx.nextpc = l.start
		return nil
	}
	cx.frame().popBlock()
	return nil
}

func opCall(cx *EvalContext, inst bytecode.Call) error {
	if cx.MaxCallDepth > 0 && len(cx.frames) >= cx.MaxCallDepth {
		return fmt.Errorf("%w: %d frames", ErrCallDepthExceeded, len(cx.frames))
	}
	if inst.Address < 0 || inst.Address >= len(cx.program) {
		return fmt.Errorf("%w: call to %d", ErrInvalidJump, inst.Address)
	}
	args, err := cx.stack.popN(inst.InputSize)
	if err != nil {
		return err
	}
	base := cx.frame().top
	cx.frames = append(cx.frames, frame{base: base, top: base, returnPC: cx.pc + 1})
	for i, c := range args {
		if err := cx.store(base+i, c); err != nil {
			return err
		}
	}
	cx.nextpc = inst.Address
	return nil
}

func opReturn(cx *EvalContext, inst bytecode.Return) error {
	n := len(cx.frames)
	if n < 2 {
		return ErrReturnFromEntry
	}
	if err := cx.checkBlocksClosed(cx.frames[n-1:]); err != nil {
		return err
	}
	outputs, err := cx.stack.popN(inst.OutputSize)
	if err != nil {
		return err
	}
	callee := cx.frame()
	returnPC := callee.returnPC
	cx.data.release(callee.base, callee.top)
	cx.frames = cx.frames[:n-1]
	for _, c := range outputs {
		cx.stack.push(c)
	}
	cx.nextpc = returnPC
	return nil
}

// opExit exposes the top OutputSize values as public inputs, in push order,
// and halts.
func opExit(cx *EvalContext, inst bytecode.Exit) error {
	if err := cx.checkBlocksClosed(cx.frames); err != nil {
		return err
	}
	cells, err := cx.stack.popN(inst.OutputSize)
	if err != nil {
		return err
	}
	cs := cx.ConstraintSystem
	outputs := make([]gadgets.Scalar, len(cells))
	for i, c := range cells {
		s, err := c.Scalar()
		if err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		name := fmt.Sprintf("output%d", i)
		outputs[i] = gadgets.AllocInput(cs, name, s.Value(), s.Type())
		gadgets.EnforceEqual(cs, name, outputs[i], s)
	}
	cx.outputs = outputs
	cx.halted = true
	cx.nextpc = len(cx.program)
	return nil
}

func opAssert(cx *EvalContext, inst bytecode.Assert) error {
	cond, err := cx.stack.popValue()
	if err != nil {
		return err
	}
	err = gadgets.AssertTrue(cx.ConstraintSystem, "assert", cond, cx.condition())
	if err != nil && inst.Message != "" {
		return fmt.Errorf("%w: %s", err, inst.Message)
	}
	return err
}

// opDbg formats its arguments into Format, one per {} placeholder. Nothing
// is printed from an arm that is not taken.
func opDbg(cx *EvalContext, inst bytecode.Dbg) error {
	args, err := cx.stack.popN(inst.ArgCount)
	if err != nil {
		return err
	}
	if taken, ok := cx.condition().Bool(); !ok || !taken {
		return nil
	}
	var sb strings.Builder
	rest := inst.Format
	for _, arg := range args {
		i := strings.Index(rest, "{}")
		if i < 0 {
			break
		}
		sb.WriteString(rest[:i])
		sb.WriteString(arg.String())
		rest = rest[i+2:]
	}
	sb.WriteString(rest)

	cx.log().With("run", cx.runID.String()).With("pc", cx.pc).Info(sb.String())
	if cx.Trace != nil {
		fmt.Fprintf(cx.Trace, "dbg: %s\n", sb.String())
	}
	return nil
}

func opStorageLoad(cx *EvalContext, inst bytecode.StorageLoad) error {
	if cx.storage == nil {
		return ErrStorageUnavailable
	}
	index, err := cx.stack.popValue()
	if err != nil {
		return err
	}
	values, err := cx.storage.load(cx.ConstraintSystem, index, inst.Types)
	if err != nil {
		return err
	}
	for _, v := range values {
		cx.stack.pushValue(v)
	}
	return nil
}

// opStorageStore pops Size values, then the leaf index.
func opStorageStore(cx *EvalContext, inst bytecode.StorageStore) error {
	if cx.storage == nil {
		return ErrStorageUnavailable
	}
	values, err := cx.popValues(inst.Size)
	if err != nil {
		return err
	}
	index, err := cx.stack.popValue()
	if err != nil {
		return err
	}
	return cx.storage.store(cx.ConstraintSystem, index, values, cx.condition())
}
