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
	"github.com/algorand/go-zkvm/data/bytecode"
)

type nativeFunc func(cx *EvalContext, inst bytecode.CallNative) error

var natives = map[bytecode.NativeFunction]nativeFunc{
	bytecode.NativeMiMC:          nativeMiMC,
	bytecode.NativeToBits:        nativeToBits,
	bytecode.NativeFromBits:      nativeFromBits,
	bytecode.NativeArrayReverse:  nativeArrayReverse,
	bytecode.NativeArrayTruncate: nativeArrayTruncate,
	bytecode.NativeArrayPad:      nativeArrayPad,
}

// opCallNative hands the evaluation stack to a built-in, which pops its own
// arguments and pushes its own results.
func opCallNative(cx *EvalContext, inst bytecode.CallNative) error {
	fn, ok := natives[inst.Function]
	if !ok {
		return fmt.Errorf("%w: unknown native function %d", ErrNativeArity, inst.Function)
	}
	if inst.Size < 0 || inst.NewSize < 0 {
		return fmt.Errorf("%w: %s", ErrNativeArity, inst)
	}
	cx.ConstraintSystem.PushNamespace(inst.Function.String())
	defer cx.ConstraintSystem.PopNamespace()
	return fn(cx, inst)
}

func (cx *EvalContext) popValues(n int) ([]gadgets.Scalar, error) {
	cells, err := cx.stack.popN(n)
	if err != nil {
		return nil, err
	}
	values := make([]gadgets.Scalar, n)
	for i, c := range cells {
		if values[i], err = c.Scalar(); err != nil {
			return nil, err
		}
	}
	return values, nil
}

func nativeMiMC(cx *EvalContext, inst bytecode.CallNative) error {
	if inst.Size < 1 {
		return fmt.Errorf("%w: mimc of %d values", ErrNativeArity, inst.Size)
	}
	values, err := cx.popValues(inst.Size)
	if err != nil {
		return err
	}
	cx.stack.pushValue(gadgets.MiMC(cx.ConstraintSystem, "digest", values...))
	return nil
}

// nativeToBits pushes the bits of one value, least significant first.
func nativeToBits(cx *EvalContext, inst bytecode.CallNative) error {
	if inst.Size != 1 {
		return fmt.Errorf("%w: to_bits takes one value, not %d", ErrNativeArity, inst.Size)
	}
	v, err := cx.stack.popValue()
	if err != nil {
		return err
	}
	for _, bit := range gadgets.ToBits(cx.ConstraintSystem, "bits", v) {
		cx.stack.pushValue(bit)
	}
	return nil
}

// nativeFromBits packs Size booleans, the first pushed being least
// significant.
func nativeFromBits(cx *EvalContext, inst bytecode.CallNative) error {
	if inst.Size < 1 {
		return fmt.Errorf("%w: from_bits of %d bits", ErrNativeArity, inst.Size)
	}
	bits, err := cx.popValues(inst.Size)
	if err != nil {
		return err
	}
	packed, err := gadgets.FromBits(cx.ConstraintSystem, "packed", bits)
	if err != nil {
		return err
	}
	cx.stack.pushValue(packed)
	return nil
}

func nativeArrayReverse(cx *EvalContext, inst bytecode.CallNative) error {
	cells, err := cx.stack.popN(inst.Size)
	if err != nil {
		return err
	}
	for i := len(cells) - 1; i >= 0; i-- {
		cx.stack.push(cells[i])
	}
	return nil
}

func nativeArrayTruncate(cx *EvalContext, inst bytecode.CallNative) error {
	if inst.NewSize > inst.Size {
		return fmt.Errorf("%w: cannot truncate %d cells to %d", ErrNativeArity, inst.Size, inst.NewSize)
	}
	cells, err := cx.stack.popN(inst.Size)
	if err != nil {
		return err
	}
	for _, c := range cells[:inst.NewSize] {
		cx.stack.push(c)
	}
	return nil
}

// nativeArrayPad extends the array with zeros of its first element's type.
func nativeArrayPad(cx *EvalContext, inst bytecode.CallNative) error {
	if inst.Size < 1 || inst.NewSize < inst.Size {
		return fmt.Errorf("%w: cannot pad %d cells to %d", ErrNativeArity, inst.Size, inst.NewSize)
	}
	cells, err := cx.stack.popN(inst.Size)
	if err != nil {
		return err
	}
	first, err := cells[0].Scalar()
	if err != nil {
		return err
	}
	for _, c := range cells {
		cx.stack.push(c)
	}
	for i := inst.Size; i < inst.NewSize; i++ {
		cx.stack.pushValue(gadgets.ZeroOf(cx.ConstraintSystem, fmt.Sprintf("zero%d", i), first.Type()))
	}
	return nil
}
