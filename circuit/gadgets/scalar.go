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

// Package gadgets implements typed circuit values and the operations the
// interpreter performs on them. Every gadget both computes the witness (when
// its inputs carry one) and emits the constraints that prove it, so a run
// without inputs yields the same circuit as a run with them.
package gadgets

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/algorand/go-zkvm/circuit"
	"github.com/algorand/go-zkvm/data/basics"
)

var (
	// ErrTypeMismatch is returned when operand types do not fit the operation.
	ErrTypeMismatch = errors.New("operand type mismatch")

	// ErrDivisionByZero is returned when a divisor's witness is zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrAssertionFailed is returned when an enabled assertion's witness is false.
	ErrAssertionFailed = errors.New("assertion failed")
)

// Scalar is a typed value bound to a circuit wire. The witness is absent when
// the circuit is synthesized without inputs.
type Scalar struct {
	value    *fr.Element
	variable circuit.Variable
	typ      basics.ScalarType
}

// Alloc creates a private wire holding value, without range checks.
func Alloc(cs circuit.ConstraintSystem, name string, value *fr.Element, typ basics.ScalarType) Scalar {
	return Scalar{value: copyElement(value), variable: cs.Alloc(name, value), typ: typ}
}

// AllocInput creates a public input wire holding value.
func AllocInput(cs circuit.ConstraintSystem, name string, value *fr.Element, typ basics.ScalarType) Scalar {
	return Scalar{value: copyElement(value), variable: cs.AllocInput(name, value), typ: typ}
}

// AllocChecked creates a private wire and constrains it to the range of typ.
func AllocChecked(cs circuit.ConstraintSystem, name string, value *fr.Element, typ basics.ScalarType) Scalar {
	cs.PushNamespace(name)
	defer cs.PopNamespace()
	s := Alloc(cs, "value", value, typ)
	rangeCheck(cs, s.num(), typ)
	return s
}

// Constant creates a wire fixed to v by a constraint. Negative values are
// taken modulo the field order.
func Constant(cs circuit.ConstraintSystem, name string, v *big.Int, typ basics.ScalarType) Scalar {
	var e fr.Element
	e.SetBigInt(v)
	s := Alloc(cs, name, &e, typ)
	cs.Enforce(name, circuit.LC(s.variable), circuit.LC(cs.One()), circuit.Constant(e))
	return s
}

// ConstantBool is Constant for booleans.
func ConstantBool(cs circuit.ConstraintSystem, name string, b bool) Scalar {
	v := big.NewInt(0)
	if b {
		v.SetInt64(1)
	}
	return Constant(cs, name, v, basics.Boolean)
}

// Value returns a copy of the witness, or nil.
func (s Scalar) Value() *fr.Element {
	return copyElement(s.value)
}

// HasValue reports whether the scalar carries a witness.
func (s Scalar) HasValue() bool {
	return s.value != nil
}

// Variable is the wire of s.
func (s Scalar) Variable() circuit.Variable {
	return s.variable
}

// Type is the type tag of s.
func (s Scalar) Type() basics.ScalarType {
	return s.typ
}

// LC is the linear combination 1 * wire.
func (s Scalar) LC() circuit.LinearCombination {
	return circuit.LC(s.variable)
}

// BigInt returns the witness as an integer, negative for signed values
// stored above half the field order. It returns nil without a witness.
func (s Scalar) BigInt() *big.Int {
	if s.value == nil {
		return nil
	}
	v := new(big.Int)
	s.value.BigInt(v)
	if s.typ.IsSigned() && v.Cmp(halfModulus) > 0 {
		v.Sub(v, fr.Modulus())
	}
	return v
}

// Bool returns the witness of a boolean. ok is false without a witness.
func (s Scalar) Bool() (b bool, ok bool) {
	if s.value == nil {
		return false, false
	}
	return !s.value.IsZero(), true
}

func (s Scalar) String() string {
	if s.value == nil {
		return fmt.Sprintf("?:%s", s.typ)
	}
	return fmt.Sprintf("%s:%s", s.BigInt().String(), s.typ)
}

var halfModulus = new(big.Int).Rsh(fr.Modulus(), 1)

func copyElement(e *fr.Element) *fr.Element {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

// num is an unallocated linear expression with its optional witness. Linear
// steps combine nums for free; only products and outputs get wires.
type num struct {
	lc    circuit.LinearCombination
	value *fr.Element
}

func (s Scalar) num() num {
	return num{lc: s.LC(), value: copyElement(s.value)}
}

func constNum(c fr.Element) num {
	return num{lc: circuit.Constant(c), value: &c}
}

func constNumUint64(c uint64) num {
	var e fr.Element
	e.SetUint64(c)
	return constNum(e)
}

func (n num) add(o num) num {
	out := num{lc: n.lc.Add(o.lc)}
	if n.value != nil && o.value != nil {
		out.value = new(fr.Element).Add(n.value, o.value)
	}
	return out
}

func (n num) sub(o num) num {
	out := num{lc: n.lc.Sub(o.lc)}
	if n.value != nil && o.value != nil {
		out.value = new(fr.Element).Sub(n.value, o.value)
	}
	return out
}

func (n num) scale(c fr.Element) num {
	out := num{lc: n.lc.Scale(c)}
	if n.value != nil {
		out.value = new(fr.Element).Mul(n.value, &c)
	}
	return out
}

// mul allocates the product of a and b.
func mul(cs circuit.ConstraintSystem, name string, a, b num) num {
	var value *fr.Element
	if a.value != nil && b.value != nil {
		value = new(fr.Element).Mul(a.value, b.value)
	}
	v := cs.Alloc(name, value)
	cs.Enforce(name, a.lc, b.lc, circuit.LC(v))
	return num{lc: circuit.LC(v), value: value}
}

// scalar allocates a wire equal to n and tags it with typ.
func (n num) scalar(cs circuit.ConstraintSystem, name string, typ basics.ScalarType) Scalar {
	s := Alloc(cs, name, n.value, typ)
	cs.Enforce(name, n.lc, circuit.LC(cs.One()), s.LC())
	return s
}

func sameType(a, b Scalar) error {
	if a.typ != b.typ {
		return fmt.Errorf("%w: %s and %s", ErrTypeMismatch, a.typ, b.typ)
	}
	return nil
}

func requireKind(s Scalar, kinds ...basics.ScalarKind) error {
	for _, k := range kinds {
		if s.typ.Kind == k {
			return nil
		}
	}
	return fmt.Errorf("%w: %s not allowed", ErrTypeMismatch, s.typ)
}

func elementFromBig(v *big.Int) *fr.Element {
	var e fr.Element
	e.SetBigInt(v)
	return &e
}

func pow2(n int) fr.Element {
	var e fr.Element
	e.SetBigInt(new(big.Int).Lsh(big.NewInt(1), uint(n)))
	return e
}
