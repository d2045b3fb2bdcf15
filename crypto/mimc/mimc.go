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

// Package mimc implements the MiMC-x^5 block cipher over the BN254 scalar
// field and the Miyaguchi-Preneel hash built on it.
//
// The circuit gadget in circuit/gadgets uses the same round constants, so a
// digest computed here is exactly the value the gadget constrains.
package mimc

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/crypto/sha3"
)

// NumRounds is the number of x^5 rounds of one encryption.
const NumRounds = 110

const seed = "seed"

var roundConstants [NumRounds]fr.Element

func init() {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(seed))
	rnd := h.Sum(nil)
	for i := range roundConstants {
		h.Reset()
		h.Write(rnd)
		rnd = h.Sum(nil)
		roundConstants[i].SetBytes(rnd)
	}
}

// RoundConstant returns the additive constant of round i.
func RoundConstant(i int) fr.Element {
	return roundConstants[i]
}

// Encrypt returns E_key(m): NumRounds rounds of m <- (m + key + c_i)^5,
// followed by a final key addition.
func Encrypt(m, key fr.Element) fr.Element {
	var t, t2 fr.Element
	for i := range roundConstants {
		t.Add(&m, &key).Add(&t, &roundConstants[i])
		t2.Square(&t)
		m.Square(&t2).Mul(&m, &t)
	}
	m.Add(&m, &key)
	return m
}

// Hasher absorbs field elements one at a time. The zero value is ready to use.
type Hasher struct {
	h fr.Element
}

// Write absorbs x: h <- E_h(x) + h + x.
func (d *Hasher) Write(x fr.Element) {
	e := Encrypt(x, d.h)
	d.h.Add(&d.h, &e).Add(&d.h, &x)
}

// Sum returns the digest of everything written so far.
func (d *Hasher) Sum() fr.Element {
	return d.h
}

// Reset clears the state.
func (d *Hasher) Reset() {
	d.h.SetZero()
}

// Sum hashes inputs in order.
func Sum(inputs ...fr.Element) fr.Element {
	var d Hasher
	for _, x := range inputs {
		d.Write(x)
	}
	return d.Sum()
}
