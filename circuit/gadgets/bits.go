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

package gadgets

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/algorand/go-zkvm/circuit"
	"github.com/algorand/go-zkvm/data/basics"
)

// bitsOf decomposes n into count little-endian boolean wires whose weighted
// sum is constrained to n. A witness that does not fit in count bits keeps
// its low bits, which leaves the packing constraint unsatisfied.
func bitsOf(cs circuit.ConstraintSystem, n num, count int) []Scalar {
	var bi *big.Int
	if n.value != nil {
		bi = new(big.Int)
		n.value.BigInt(bi)
	}
	bits := make([]Scalar, count)
	var sum circuit.LinearCombination
	for i := 0; i < count; i++ {
		var value *fr.Element
		if bi != nil {
			value = new(fr.Element).SetUint64(uint64(bi.Bit(i)))
		}
		label := fmt.Sprintf("bit%d", i)
		b := Alloc(cs, label, value, basics.Boolean)
		enforceBoolean(cs, label, b.num())
		bits[i] = b
		sum = sum.AddTerm(pow2(i), b.variable)
	}
	cs.Enforce("pack", sum, circuit.LC(cs.One()), n.lc)
	return bits
}

// enforceBoolean adds n * (1 - n) = 0.
func enforceBoolean(cs circuit.ConstraintSystem, name string, n num) {
	cs.Enforce(name, n.lc, circuit.LC(cs.One()).Sub(n.lc), nil)
}

// rangeCheck constrains n to the values of typ.
func rangeCheck(cs circuit.ConstraintSystem, n num, typ basics.ScalarType) {
	switch typ.Kind {
	case basics.KindBoolean:
		enforceBoolean(cs, "bool", n)
	case basics.KindUnsigned:
		bitsOf(cs, n, typ.Bits)
	case basics.KindSigned:
		bitsOf(cs, n.add(constNum(pow2(typ.Bits-1))), typ.Bits)
	}
}

// RangeCheck constrains s to the range of its own type. Field values are
// unconstrained.
func RangeCheck(cs circuit.ConstraintSystem, name string, s Scalar) {
	cs.PushNamespace(name)
	defer cs.PopNamespace()
	rangeCheck(cs, s.num(), s.typ)
}

// modulusMinusOne is the largest field element as an integer.
var modulusMinusOne = new(big.Int).Sub(fr.Modulus(), big.NewInt(1))

// fieldBits decomposes n into the bits of its representative in [0, p).
// Without the bound, small values also decompose as n + p.
func fieldBits(cs circuit.ConstraintSystem, n num) []Scalar {
	bits := bitsOf(cs, n, basics.FieldBits)
	enforceCanonical(cs, bits)
	return bits
}

// enforceCanonical constrains little-endian bits to encode at most p - 1. The
// scan runs from the least significant bit, so the highest bit that differs
// from the modulus decides.
func enforceCanonical(cs circuit.ConstraintSystem, bits []Scalar) {
	cs.PushNamespace("canonical")
	defer cs.PopNamespace()

	one := constNumUint64(1)
	le := one
	for i, b := range bits {
		x := b.num()
		if modulusMinusOne.Bit(i) == 1 {
			// le <- x ? le : 1
			le = one.sub(mul(cs, "scan", x, one.sub(le)))
		} else {
			// le <- x ? 0 : le
			le = le.sub(mul(cs, "scan", x, le))
		}
	}
	cs.Enforce("bound", le.lc, circuit.LC(cs.One()), circuit.LC(cs.One()))
}

// ToBits returns the little-endian bits of s: two's complement for signed
// integers, the canonical decomposition for field elements.
func ToBits(cs circuit.ConstraintSystem, name string, s Scalar) []Scalar {
	cs.PushNamespace(name)
	defer cs.PopNamespace()

	if s.typ.Kind == basics.KindField {
		return fieldBits(cs, s.num())
	}
	if !s.typ.IsSigned() {
		return bitsOf(cs, s.num(), s.typ.BitLength())
	}
	// offset binary differs from two's complement only in the top bit
	n := s.typ.Bits
	bits := bitsOf(cs, s.num().add(constNum(pow2(n-1))), n)
	bits[n-1] = notScalar(cs, "sign", bits[n-1])
	return bits
}

// ToBitsN decomposes s into exactly n little-endian bits. Values needing more
// bits leave the circuit unsatisfied.
func ToBitsN(cs circuit.ConstraintSystem, name string, s Scalar, n int) []Scalar {
	cs.PushNamespace(name)
	defer cs.PopNamespace()
	return bitsOf(cs, s.num(), n)
}

// FromBits packs little-endian booleans into an unsigned integer of the same width.
func FromBits(cs circuit.ConstraintSystem, name string, bits []Scalar) (Scalar, error) {
	if len(bits) < 1 || len(bits) > basics.MaxIntegerBits {
		return Scalar{}, fmt.Errorf("%w: cannot pack %d bits", ErrTypeMismatch, len(bits))
	}
	cs.PushNamespace(name)
	defer cs.PopNamespace()

	acc := num{value: new(fr.Element)}
	for i, b := range bits {
		if err := requireKind(b, basics.KindBoolean); err != nil {
			return Scalar{}, err
		}
		acc = acc.add(b.num().scale(pow2(i)))
	}
	return acc.scalar(cs, "packed", basics.Unsigned(len(bits))), nil
}

// Cast retags s as typ. Casting to an integer or boolean type range-checks
// the value, so a value outside typ leaves the circuit unsatisfied.
func Cast(cs circuit.ConstraintSystem, name string, s Scalar, typ basics.ScalarType) (Scalar, error) {
	if err := typ.Validate(); err != nil {
		return Scalar{}, err
	}
	if s.typ == typ {
		return s, nil
	}
	cs.PushNamespace(name)
	defer cs.PopNamespace()
	rangeCheck(cs, s.num(), typ)
	return Scalar{value: copyElement(s.value), variable: s.variable, typ: typ}, nil
}
