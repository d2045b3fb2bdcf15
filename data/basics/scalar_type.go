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

package basics

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
)

// ScalarKind is the family of a ScalarType.
type ScalarKind uint8

const (
	// KindField is a raw element of the BN254 scalar field.
	KindField ScalarKind = iota
	// KindBoolean is 0 or 1.
	KindBoolean
	// KindUnsigned is an integer in [0, 2^n).
	KindUnsigned
	// KindSigned is an integer in [-2^(n-1), 2^(n-1)), stored modulo the field order.
	KindSigned
)

// FieldBits is the bitlength of the BN254 scalar field order.
const FieldBits = 254

// MaxIntegerBits is the widest integer type. Keeping integers below the field
// size leaves headroom for sums and products before range checks.
const MaxIntegerBits = 248

// ErrInvalidScalarType is returned for malformed type tags.
var ErrInvalidScalarType = errors.New("invalid scalar type")

// ScalarType is the type tag carried by every circuit value.
type ScalarType struct {
	Kind ScalarKind
	// Bits is the integer bitlength; it is only meaningful for integer kinds.
	Bits int
}

// Predefined scalar types.
var (
	Boolean = ScalarType{Kind: KindBoolean, Bits: 1}
	Field   = ScalarType{Kind: KindField, Bits: FieldBits}
)

// Unsigned returns the type u<bits>.
func Unsigned(bits int) ScalarType {
	return ScalarType{Kind: KindUnsigned, Bits: bits}
}

// Signed returns the type i<bits>.
func Signed(bits int) ScalarType {
	return ScalarType{Kind: KindSigned, Bits: bits}
}

// Validate checks the bitlength of integer types.
func (t ScalarType) Validate() error {
	switch t.Kind {
	case KindField:
		if t.Bits != FieldBits {
			return fmt.Errorf("%w: field with %d bits", ErrInvalidScalarType, t.Bits)
		}
	case KindBoolean:
		if t.Bits != 1 {
			return fmt.Errorf("%w: bool with %d bits", ErrInvalidScalarType, t.Bits)
		}
	case KindUnsigned, KindSigned:
		if t.Bits < 1 || t.Bits > MaxIntegerBits {
			return fmt.Errorf("%w: integer bitlength %d out of range [1, %d]", ErrInvalidScalarType, t.Bits, MaxIntegerBits)
		}
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidScalarType, t.Kind)
	}
	return nil
}

// BitLength is the number of bits needed to represent any value of t.
func (t ScalarType) BitLength() int {
	return t.Bits
}

// IsInteger reports whether t is u<n> or i<n>.
func (t ScalarType) IsInteger() bool {
	return t.Kind == KindUnsigned || t.Kind == KindSigned
}

// IsSigned reports whether t is i<n>.
func (t ScalarType) IsSigned() bool {
	return t.Kind == KindSigned
}

// Range returns the smallest and largest value of an integer or boolean type.
// Field has no range; both results are nil.
func (t ScalarType) Range() (lo, hi *big.Int) {
	switch t.Kind {
	case KindBoolean:
		return big.NewInt(0), big.NewInt(1)
	case KindUnsigned:
		hi = new(big.Int).Lsh(big.NewInt(1), uint(t.Bits))
		return big.NewInt(0), hi.Sub(hi, big.NewInt(1))
	case KindSigned:
		half := new(big.Int).Lsh(big.NewInt(1), uint(t.Bits-1))
		lo = new(big.Int).Neg(half)
		return lo, half.Sub(half, big.NewInt(1))
	}
	return nil, nil
}

// Contains reports whether v is a value of t.
func (t ScalarType) Contains(v *big.Int) bool {
	lo, hi := t.Range()
	if lo == nil {
		return true
	}
	return v.Cmp(lo) >= 0 && v.Cmp(hi) <= 0
}

func (t ScalarType) String() string {
	switch t.Kind {
	case KindField:
		return "field"
	case KindBoolean:
		return "bool"
	case KindUnsigned:
		return "u" + strconv.Itoa(t.Bits)
	case KindSigned:
		return "i" + strconv.Itoa(t.Bits)
	}
	return fmt.Sprintf("kind(%d)", t.Kind)
}

// ParseScalarType parses the text form written by String.
func ParseScalarType(s string) (ScalarType, error) {
	switch s {
	case "field":
		return Field, nil
	case "bool":
		return Boolean, nil
	}
	if len(s) < 2 || (s[0] != 'u' && s[0] != 'i') {
		return ScalarType{}, fmt.Errorf("%w: %q", ErrInvalidScalarType, s)
	}
	bits, err := strconv.Atoi(s[1:])
	if err != nil {
		return ScalarType{}, fmt.Errorf("%w: %q", ErrInvalidScalarType, s)
	}
	t := Unsigned(bits)
	if s[0] == 'i' {
		t = Signed(bits)
	}
	return t, t.Validate()
}
