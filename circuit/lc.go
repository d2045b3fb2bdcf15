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

package circuit

import (
	"fmt"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Variable identifies a wire of the constraint system. Variable 0 is the
// constant one wire.
type Variable int

// OneVariable is the wire fixed to 1.
const OneVariable Variable = 0

// Term is a single coefficient * variable product.
type Term struct {
	Coeff fr.Element
	Var   Variable
}

// LinearCombination is a sum of terms. Terms on the same variable are allowed;
// they add up when evaluated.
type LinearCombination []Term

// LC returns the combination 1 * v.
func LC(v Variable) LinearCombination {
	var one fr.Element
	one.SetOne()
	return LinearCombination{{Coeff: one, Var: v}}
}

// Constant returns the combination c * one.
func Constant(c fr.Element) LinearCombination {
	return LinearCombination{{Coeff: c, Var: OneVariable}}
}

// ConstantUint64 returns the combination c * one.
func ConstantUint64(c uint64) LinearCombination {
	var e fr.Element
	e.SetUint64(c)
	return Constant(e)
}

// Add returns lc + other. Neither operand is modified.
func (lc LinearCombination) Add(other LinearCombination) LinearCombination {
	out := make(LinearCombination, 0, len(lc)+len(other))
	out = append(out, lc...)
	return append(out, other...)
}

// Sub returns lc - other. Neither operand is modified.
func (lc LinearCombination) Sub(other LinearCombination) LinearCombination {
	out := make(LinearCombination, 0, len(lc)+len(other))
	out = append(out, lc...)
	for _, t := range other {
		t.Coeff.Neg(&t.Coeff)
		out = append(out, t)
	}
	return out
}

// Scale returns c * lc.
func (lc LinearCombination) Scale(c fr.Element) LinearCombination {
	out := make(LinearCombination, len(lc))
	for i, t := range lc {
		out[i].Var = t.Var
		out[i].Coeff.Mul(&t.Coeff, &c)
	}
	return out
}

// AddTerm returns lc + coeff * v.
func (lc LinearCombination) AddTerm(coeff fr.Element, v Variable) LinearCombination {
	return lc.Add(LinearCombination{{Coeff: coeff, Var: v}})
}

// Evaluate computes the combination with the given assignment. It reports
// false when some variable has no value.
func (lc LinearCombination) Evaluate(value func(Variable) (fr.Element, bool)) (fr.Element, bool) {
	var sum, prod fr.Element
	for _, t := range lc {
		v, ok := value(t.Var)
		if !ok {
			return fr.Element{}, false
		}
		prod.Mul(&t.Coeff, &v)
		sum.Add(&sum, &prod)
	}
	return sum, true
}

func (lc LinearCombination) String() string {
	if len(lc) == 0 {
		return "0"
	}
	parts := make([]string, len(lc))
	for i, t := range lc {
		if t.Var == OneVariable {
			parts[i] = t.Coeff.String()
		} else {
			parts[i] = fmt.Sprintf("%s*v%d", t.Coeff.String(), t.Var)
		}
	}
	return strings.Join(parts, " + ")
}
