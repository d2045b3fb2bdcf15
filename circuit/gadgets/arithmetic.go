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
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/algorand/go-zkvm/circuit"
	"github.com/algorand/go-zkvm/data/basics"
)

func arithmeticOperands(a, b Scalar) error {
	if err := sameType(a, b); err != nil {
		return err
	}
	return requireKind(a, basics.KindField, basics.KindUnsigned, basics.KindSigned)
}

// Add returns a + b. Integer results are range-checked to the operand type.
func Add(cs circuit.ConstraintSystem, name string, a, b Scalar) (Scalar, error) {
	if err := arithmeticOperands(a, b); err != nil {
		return Scalar{}, err
	}
	cs.PushNamespace(name)
	defer cs.PopNamespace()

	out := a.num().add(b.num()).scalar(cs, "sum", a.typ)
	rangeCheck(cs, out.num(), out.typ)
	return out, nil
}

// Sub returns a - b. Unsigned underflow leaves the circuit unsatisfied.
func Sub(cs circuit.ConstraintSystem, name string, a, b Scalar) (Scalar, error) {
	if err := arithmeticOperands(a, b); err != nil {
		return Scalar{}, err
	}
	cs.PushNamespace(name)
	defer cs.PopNamespace()

	out := a.num().sub(b.num()).scalar(cs, "difference", a.typ)
	rangeCheck(cs, out.num(), out.typ)
	return out, nil
}

// Mul returns a * b.
func Mul(cs circuit.ConstraintSystem, name string, a, b Scalar) (Scalar, error) {
	if err := arithmeticOperands(a, b); err != nil {
		return Scalar{}, err
	}
	cs.PushNamespace(name)
	defer cs.PopNamespace()

	var out Scalar
	if a.typ.Kind != basics.KindField && a.typ.Bits > narrowBits {
		out = exactProduct(cs, a.num(), b.num(), a.typ).scalar(cs, "product", a.typ)
	} else {
		p := mul(cs, "product", a.num(), b.num())
		out = Scalar{value: p.value, variable: p.lc[0].Var, typ: a.typ}
	}
	rangeCheck(cs, out.num(), out.typ)
	return out, nil
}

// narrowBits is the widest integer type whose products stay below the field
// order. Wider products are built from limbs.
const narrowBits = (basics.FieldBits - 1) / 2

// exactProduct returns a * b for integers of typ and constrains |a * b| < 2^n,
// where n is the width of typ. The magnitudes are split into two limbs so
// that every partial product is below the field order and the returned value
// is the integer product, not its residue.
func exactProduct(cs circuit.ConstraintSystem, a, b num, typ basics.ScalarType) num {
	n := typ.Bits
	cs.PushNamespace("lhs")
	abits, aneg := magnitude(cs, a, typ)
	cs.PopNamespace()
	cs.PushNamespace("rhs")
	bbits, bneg := magnitude(cs, b, typ)
	cs.PopNamespace()

	k := (n + 1) / 2
	alo, ahi := packBits(abits[:k]), packBits(abits[k:])
	blo, bhi := packBits(bbits[:k]), packBits(bbits[k:])
	// hi*hi carries weight 2^2k >= 2^n
	cs.Enforce("hi_hi", ahi.lc, bhi.lc, nil)
	mid := mul(cs, "hi_lo", ahi, blo).add(mul(cs, "lo_hi", alo, bhi))
	cs.PushNamespace("mid")
	bitsOf(cs, mid, n-k)
	cs.PopNamespace()
	product := mid.scale(pow2(k)).add(mul(cs, "lo_lo", alo, blo))
	cs.PushNamespace("total")
	bitsOf(cs, product, n)
	cs.PopNamespace()

	if !typ.IsSigned() {
		return product
	}
	var two fr.Element
	two.SetUint64(2)
	// the signs differ exactly when aneg xor bneg
	differ := aneg.add(bneg).sub(mul(cs, "signs", aneg, bneg).scale(two))
	return product.sub(mul(cs, "sign", differ, product).scale(two))
}

// magnitude returns the n bits of |x| and the boolean x < 0, which is the
// constant zero for unsigned types. The bits also range-check x.
func magnitude(cs circuit.ConstraintSystem, x num, typ basics.ScalarType) ([]Scalar, num) {
	n := typ.Bits
	if !typ.IsSigned() {
		return bitsOf(cs, x, n), constNumUint64(0)
	}
	offset := bitsOf(cs, x.add(constNum(pow2(n-1))), n)
	neg := constNumUint64(1).sub(offset[n-1].num())
	var two fr.Element
	two.SetUint64(2)
	abs := x.sub(mul(cs, "abs", neg, x).scale(two))
	cs.PushNamespace("abs")
	defer cs.PopNamespace()
	return bitsOf(cs, abs, n), neg
}

// packBits is the weighted sum of little-endian bits.
func packBits(bits []Scalar) num {
	acc := num{value: new(fr.Element)}
	for i, b := range bits {
		acc = acc.add(b.num().scale(pow2(i)))
	}
	return acc
}

// Neg returns -a for signed integers and field elements.
func Neg(cs circuit.ConstraintSystem, name string, a Scalar) (Scalar, error) {
	if err := requireKind(a, basics.KindField, basics.KindSigned); err != nil {
		return Scalar{}, err
	}
	cs.PushNamespace(name)
	defer cs.PopNamespace()

	var minusOne fr.Element
	minusOne.SetOne()
	minusOne.Neg(&minusOne)
	out := a.num().scale(minusOne).scalar(cs, "negation", a.typ)
	rangeCheck(cs, out.num(), out.typ)
	return out, nil
}

// Div returns a / b: multiplication by the inverse for field elements,
// Euclidean division for integers.
func Div(cs circuit.ConstraintSystem, name string, a, b Scalar) (Scalar, error) {
	if err := arithmeticOperands(a, b); err != nil {
		return Scalar{}, err
	}
	if b.value != nil && b.value.IsZero() {
		return Scalar{}, ErrDivisionByZero
	}
	cs.PushNamespace(name)
	defer cs.PopNamespace()

	if a.typ.Kind == basics.KindField {
		return fieldDiv(cs, a, b), nil
	}
	q, _ := divMod(cs, a, b)
	return q, nil
}

// Rem returns the Euclidean remainder of a / b, which is never negative.
func Rem(cs circuit.ConstraintSystem, name string, a, b Scalar) (Scalar, error) {
	if err := arithmeticOperands(a, b); err != nil {
		return Scalar{}, err
	}
	if err := requireKind(a, basics.KindUnsigned, basics.KindSigned); err != nil {
		return Scalar{}, err
	}
	if b.value != nil && b.value.IsZero() {
		return Scalar{}, ErrDivisionByZero
	}
	cs.PushNamespace(name)
	defer cs.PopNamespace()

	_, r := divMod(cs, a, b)
	return r, nil
}

func fieldDiv(cs circuit.ConstraintSystem, a, b Scalar) Scalar {
	var inv, quotient *fr.Element
	if b.value != nil {
		inv = new(fr.Element).Inverse(b.value)
		if a.value != nil {
			quotient = new(fr.Element).Mul(a.value, inv)
		}
	}
	invVar := cs.Alloc("inverse", inv)
	cs.Enforce("nonzero", b.LC(), circuit.LC(invVar), circuit.LC(cs.One()))

	out := Alloc(cs, "quotient", quotient, a.typ)
	cs.Enforce("quotient", b.LC(), out.LC(), a.LC())
	return out
}

// divMod constrains a = q * b + r with 0 <= r < |b|.
func divMod(cs circuit.ConstraintSystem, a, b Scalar) (q, r Scalar) {
	typ := a.typ
	n := typ.Bits

	var qv, rv *fr.Element
	if a.value != nil && b.value != nil {
		quo, rem := new(big.Int).DivMod(a.BigInt(), b.BigInt(), new(big.Int))
		qv, rv = elementFromBig(quo), elementFromBig(rem)
	}

	q = Alloc(cs, "quotient", qv, typ)
	rangeCheck(cs, q.num(), typ)
	r = Alloc(cs, "remainder", rv, typ)
	rangeCheck(cs, r.num(), basics.Unsigned(n))
	if n > narrowBits {
		qb := exactProduct(cs, q.num(), b.num(), typ)
		cs.Enforce("divmod", qb.lc, circuit.LC(cs.One()), a.LC().Sub(r.LC()))
	} else {
		cs.Enforce("divmod", q.LC(), b.LC(), a.LC().Sub(r.LC()))
	}

	abs := b.num()
	if typ.IsSigned() {
		// the top offset bit is set exactly when b >= 0
		bits := bitsOf(cs, b.num().add(constNum(pow2(n-1))), n)
		t := mul(cs, "signed", bits[n-1].num(), b.num())
		var two fr.Element
		two.SetUint64(2)
		abs = t.scale(two).sub(b.num())
	}
	lt := lessThanBits(cs, r.num(), abs, n)
	cs.Enforce("bound", lt.lc, circuit.LC(cs.One()), circuit.LC(cs.One()))
	return q, r
}
