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

func booleanOperands(operands ...Scalar) error {
	for _, s := range operands {
		if err := requireKind(s, basics.KindBoolean); err != nil {
			return err
		}
	}
	return nil
}

// And returns a AND b.
func And(cs circuit.ConstraintSystem, name string, a, b Scalar) (Scalar, error) {
	if err := booleanOperands(a, b); err != nil {
		return Scalar{}, err
	}
	cs.PushNamespace(name)
	defer cs.PopNamespace()
	p := mul(cs, "and", a.num(), b.num())
	return Scalar{value: p.value, variable: p.lc[0].Var, typ: basics.Boolean}, nil
}

// Or returns a OR b, computed as a + b - ab.
func Or(cs circuit.ConstraintSystem, name string, a, b Scalar) (Scalar, error) {
	if err := booleanOperands(a, b); err != nil {
		return Scalar{}, err
	}
	cs.PushNamespace(name)
	defer cs.PopNamespace()
	p := mul(cs, "both", a.num(), b.num())
	return a.num().add(b.num()).sub(p).scalar(cs, "or", basics.Boolean), nil
}

// Xor returns a XOR b, computed as a + b - 2ab.
func Xor(cs circuit.ConstraintSystem, name string, a, b Scalar) (Scalar, error) {
	if err := booleanOperands(a, b); err != nil {
		return Scalar{}, err
	}
	cs.PushNamespace(name)
	defer cs.PopNamespace()
	var two fr.Element
	two.SetUint64(2)
	p := mul(cs, "both", a.num(), b.num())
	return a.num().add(b.num()).sub(p.scale(two)).scalar(cs, "xor", basics.Boolean), nil
}

// Not returns NOT a.
func Not(cs circuit.ConstraintSystem, name string, a Scalar) (Scalar, error) {
	if err := booleanOperands(a); err != nil {
		return Scalar{}, err
	}
	return notScalar(cs, name, a), nil
}

func notScalar(cs circuit.ConstraintSystem, name string, a Scalar) Scalar {
	return constNumUint64(1).sub(a.num()).scalar(cs, name, basics.Boolean)
}

// ConditionalSelect returns a when cond holds and b otherwise, constrained by
// cond * (a - b) = out - b.
func ConditionalSelect(cs circuit.ConstraintSystem, name string, cond, a, b Scalar) (Scalar, error) {
	if err := booleanOperands(cond); err != nil {
		return Scalar{}, err
	}
	if err := sameType(a, b); err != nil {
		return Scalar{}, err
	}
	cs.PushNamespace(name)
	defer cs.PopNamespace()

	var value *fr.Element
	if c, ok := cond.Bool(); ok {
		if c {
			value = a.value
		} else {
			value = b.value
		}
	}
	out := Alloc(cs, "selected", value, a.typ)
	cs.Enforce("select", cond.LC(), a.LC().Sub(b.LC()), out.LC().Sub(b.LC()))
	return out, nil
}

// AssertTrue enforces cond OR NOT gate, so the assertion only binds while the
// gate holds. A witness that violates it is reported as ErrAssertionFailed;
// the constraint is emitted either way.
func AssertTrue(cs circuit.ConstraintSystem, name string, cond, gate Scalar) error {
	if err := booleanOperands(cond, gate); err != nil {
		return err
	}
	cs.PushNamespace(name)
	defer cs.PopNamespace()

	cs.Enforce("assert", gate.LC(), circuit.LC(cs.One()).Sub(cond.LC()), nil)

	g, gok := gate.Bool()
	c, cok := cond.Bool()
	if gok && cok && g && !c {
		return ErrAssertionFailed
	}
	return nil
}

// EnforceEqual constrains a == b.
func EnforceEqual(cs circuit.ConstraintSystem, name string, a, b Scalar) {
	cs.Enforce(name, a.LC().Sub(b.LC()), circuit.LC(cs.One()), nil)
}

// ZeroOf returns a constant zero of typ.
func ZeroOf(cs circuit.ConstraintSystem, name string, typ basics.ScalarType) Scalar {
	var zero fr.Element
	s := Alloc(cs, name, &zero, typ)
	cs.Enforce(name, s.LC(), circuit.LC(cs.One()), nil)
	return s
}
