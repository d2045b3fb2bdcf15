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

	"github.com/algorand/go-zkvm/circuit"
	"github.com/algorand/go-zkvm/crypto/mimc"
	"github.com/algorand/go-zkvm/data/basics"
)

// encrypt constrains the MiMC-x^5 encryption of m under key.
func encrypt(cs circuit.ConstraintSystem, m, key num) num {
	for i := 0; i < mimc.NumRounds; i++ {
		cs.PushNamespace(fmt.Sprintf("round%d", i))
		t := m.add(key).add(constNum(mimc.RoundConstant(i)))
		t2 := mul(cs, "square", t, t)
		t4 := mul(cs, "fourth", t2, t2)
		m = mul(cs, "fifth", t4, t)
		cs.PopNamespace()
	}
	return m.add(key)
}

// MiMC hashes inputs with the Miyaguchi-Preneel construction of
// crypto/mimc. The digest witness equals mimc.Sum of the input witnesses.
func MiMC(cs circuit.ConstraintSystem, name string, inputs ...Scalar) Scalar {
	cs.PushNamespace(name)
	defer cs.PopNamespace()

	h := constNumUint64(0)
	for i, x := range inputs {
		cs.PushNamespace(fmt.Sprintf("absorb%d", i))
		e := encrypt(cs, x.num(), h)
		h = e.add(h).add(x.num()).scalar(cs, "state", basics.Field).num()
		cs.PopNamespace()
	}
	return h.scalar(cs, "digest", basics.Field)
}
