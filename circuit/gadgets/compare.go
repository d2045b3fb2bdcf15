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
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/algorand/go-zkvm/circuit"
	"github.com/algorand/go-zkvm/data/basics"
)

// lessThanBits returns the boolean a < b for a, b in [0, 2^n): the top bit of
// a - b + 2^n is clear exactly when a < b.
func lessThanBits(cs circuit.ConstraintSystem, a, b num, n int) num {
	d := a.sub(b).add(constNum(pow2(n)))
	bits := bitsOf(cs, d, n+1)
	return constNumUint64(1).sub(bits[n].num())
}

// lessThanField compares canonical 254-bit decompositions, scanning from the
// least significant bit so that the highest differing bit decides.
func lessThanField(cs circuit.ConstraintSystem, a, b Scalar) num {
	cs.PushNamespace("left")
	left := fieldBits(cs, a.num())
	cs.PopNamespace()
	cs.PushNamespace("right")
	right := fieldBits(cs, b.num())
	cs.PopNamespace()

	var two fr.Element
	two.SetUint64(2)
	lt := constNumUint64(0)
	for i := 0; i < basics.FieldBits; i++ {
		x, y := left[i].num(), right[i].num()
		both := mul(cs, "both", x, y)
		differ := x.add(y).sub(both.scale(two))
		// lt <- differ ? y : lt
		lt = lt.add(mul(cs, "scan", differ, y.sub(lt)))
	}
	return lt
}

func lessThan(cs circuit.ConstraintSystem, a, b Scalar) (num, error) {
	if err := sameType(a, b); err != nil {
		return num{}, err
	}
	switch a.typ.Kind {
	case basics.KindField:
		return lessThanField(cs, a, b), nil
	case basics.KindSigned:
		offset := constNum(pow2(a.typ.Bits - 1))
		return lessThanBits(cs, a.num().add(offset), b.num().add(offset), a.typ.Bits), nil
	default:
		return lessThanBits(cs, a.num(), b.num(), a.typ.Bits), nil
	}
}

func comparison(cs circuit.ConstraintSystem, name string, a, b Scalar, swap, negate bool) (Scalar, error) {
	cs.PushNamespace(name)
	defer cs.PopNamespace()
	if swap {
		a, b = b, a
	}
	lt, err := lessThan(cs, a, b)
	if err != nil {
		return Scalar{}, err
	}
	if negate {
		lt = constNumUint64(1).sub(lt)
	}
	return lt.scalar(cs, "result", basics.Boolean), nil
}

// Lt returns a < b.
func Lt(cs circuit.ConstraintSystem, name string, a, b Scalar) (Scalar, error) {
	return comparison(cs, name, a, b, false, false)
}

// Le returns a <= b.
func Le(cs circuit.ConstraintSystem, name string, a, b Scalar) (Scalar, error) {
	return comparison(cs, name, a, b, true, true)
}

// Gt returns a > b.
func Gt(cs circuit.ConstraintSystem, name string, a, b Scalar) (Scalar, error) {
	return comparison(cs, name, a, b, true, false)
}

// Ge returns a >= b.
func Ge(cs circuit.ConstraintSystem, name string, a, b Scalar) (Scalar, error) {
	return comparison(cs, name, a, b, false, true)
}

// isZero returns the boolean n == 0 using an inverse hint.
func isZero(cs circuit.ConstraintSystem, n num) num {
	var inv, out *fr.Element
	if n.value != nil {
		inv, out = new(fr.Element), new(fr.Element)
		if n.value.IsZero() {
			out.SetOne()
		} else {
			inv.Inverse(n.value)
		}
	}
	invVar := cs.Alloc("inverse", inv)
	outVar := cs.Alloc("is_zero", out)
	cs.Enforce("inverse", n.lc, circuit.LC(invVar), circuit.LC(cs.One()).Sub(circuit.LC(outVar)))
	cs.Enforce("zero", n.lc, circuit.LC(outVar), nil)
	return num{lc: circuit.LC(outVar), value: out}
}

// Eq returns a == b.
func Eq(cs circuit.ConstraintSystem, name string, a, b Scalar) (Scalar, error) {
	if err := sameType(a, b); err != nil {
		return Scalar{}, err
	}
	cs.PushNamespace(name)
	defer cs.PopNamespace()
	z := isZero(cs, a.num().sub(b.num()))
	return Scalar{value: z.value, variable: z.lc[0].Var, typ: basics.Boolean}, nil
}

// Ne returns a != b.
func Ne(cs circuit.ConstraintSystem, name string, a, b Scalar) (Scalar, error) {
	if err := sameType(a, b); err != nil {
		return Scalar{}, err
	}
	cs.PushNamespace(name)
	defer cs.PopNamespace()
	z := isZero(cs, a.num().sub(b.num()))
	return constNumUint64(1).sub(z).scalar(cs, "result", basics.Boolean), nil
}
