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

// Package circuit defines the constraint-system capability consumed by the
// gadget layer and the interpreter, and an in-memory R1CS implementation.
package circuit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// ErrMissingWitness is returned when satisfiability is checked on a system
// that was synthesized without some witness values.
var ErrMissingWitness = errors.New("missing witness value")

// ConstraintSystem is what gadgets need from a proving backend: wires,
// rank-1 constraints and hierarchical gate labels.
type ConstraintSystem interface {
	// One returns the constant-one wire.
	One() Variable

	// Alloc creates a private wire. A nil value allocates the wire without
	// a witness, as done when only the circuit shape is wanted.
	Alloc(name string, value *fr.Element) Variable

	// AllocInput creates a public input wire.
	AllocInput(name string, value *fr.Element) Variable

	// Enforce adds the constraint a * b = c.
	Enforce(name string, a, b, c LinearCombination)

	PushNamespace(name string)
	PopNamespace()

	// Value returns the witness of v, if it has one.
	Value(v Variable) (fr.Element, bool)
}

// Constraint is one labelled rank-1 constraint.
type Constraint struct {
	Label   string
	A, B, C LinearCombination
}

// R1CS records wires and constraints in memory and can check them against
// the witness it was given.
type R1CS struct {
	values []fr.Element
	known  []bool
	labels []string

	inputs      []Variable
	constraints []Constraint

	namespace []string
	seen      map[string]int
}

// NewR1CS returns an empty system holding only the one wire.
func NewR1CS() *R1CS {
	cs := &R1CS{seen: make(map[string]int)}
	var one fr.Element
	one.SetOne()
	cs.values = append(cs.values, one)
	cs.known = append(cs.known, true)
	cs.labels = append(cs.labels, "one")
	return cs
}

// label returns a unique path for name under the current namespace.
func (cs *R1CS) label(name string) string {
	path := name
	if len(cs.namespace) > 0 {
		path = strings.Join(cs.namespace, "/") + "/" + name
	}
	n := cs.seen[path]
	cs.seen[path] = n + 1
	if n > 0 {
		path = fmt.Sprintf("%s#%d", path, n)
	}
	return path
}

func (cs *R1CS) alloc(name string, value *fr.Element) Variable {
	v := Variable(len(cs.values))
	if value != nil {
		cs.values = append(cs.values, *value)
		cs.known = append(cs.known, true)
	} else {
		cs.values = append(cs.values, fr.Element{})
		cs.known = append(cs.known, false)
	}
	cs.labels = append(cs.labels, cs.label(name))
	return v
}

// One implements ConstraintSystem.
func (cs *R1CS) One() Variable {
	return OneVariable
}

// Alloc implements ConstraintSystem.
func (cs *R1CS) Alloc(name string, value *fr.Element) Variable {
	return cs.alloc(name, value)
}

// AllocInput implements ConstraintSystem.
func (cs *R1CS) AllocInput(name string, value *fr.Element) Variable {
	v := cs.alloc(name, value)
	cs.inputs = append(cs.inputs, v)
	return v
}

// Enforce implements ConstraintSystem.
func (cs *R1CS) Enforce(name string, a, b, c LinearCombination) {
	cs.constraints = append(cs.constraints, Constraint{Label: cs.label(name), A: a, B: b, C: c})
}

// PushNamespace implements ConstraintSystem.
func (cs *R1CS) PushNamespace(name string) {
	cs.namespace = append(cs.namespace, name)
}

// PopNamespace implements ConstraintSystem.
func (cs *R1CS) PopNamespace() {
	if len(cs.namespace) > 0 {
		cs.namespace = cs.namespace[:len(cs.namespace)-1]
	}
}

// Value implements ConstraintSystem.
func (cs *R1CS) Value(v Variable) (fr.Element, bool) {
	if int(v) < 0 || int(v) >= len(cs.values) || !cs.known[v] {
		return fr.Element{}, false
	}
	return cs.values[v], true
}

// NumConstraints is the number of enforced constraints.
func (cs *R1CS) NumConstraints() int {
	return len(cs.constraints)
}

// NumInputs is the number of public inputs, not counting the one wire.
func (cs *R1CS) NumInputs() int {
	return len(cs.inputs)
}

// NumAux is the number of private wires.
func (cs *R1CS) NumAux() int {
	return len(cs.values) - 1 - len(cs.inputs)
}

// Constraints returns the recorded constraints in order.
func (cs *R1CS) Constraints() []Constraint {
	return cs.constraints
}

// VariableLabel returns the label v was allocated under.
func (cs *R1CS) VariableLabel(v Variable) string {
	if int(v) < 0 || int(v) >= len(cs.labels) {
		return ""
	}
	return cs.labels[v]
}

// PublicInputs returns the witness of every public input in allocation
// order. Inputs allocated without a witness read as zero.
func (cs *R1CS) PublicInputs() []fr.Element {
	out := make([]fr.Element, len(cs.inputs))
	for i, v := range cs.inputs {
		out[i] = cs.values[v]
	}
	return out
}

// check evaluates constraint c; ok is false when some wire has no witness.
func (cs *R1CS) check(c *Constraint) (satisfied bool, ok bool) {
	a, okA := c.A.Evaluate(cs.Value)
	b, okB := c.B.Evaluate(cs.Value)
	r, okC := c.C.Evaluate(cs.Value)
	if !okA || !okB || !okC {
		return false, false
	}
	var ab fr.Element
	ab.Mul(&a, &b)
	return ab.Equal(&r), true
}

// IsSatisfied checks every constraint against the witness.
func (cs *R1CS) IsSatisfied() (bool, error) {
	for i := range cs.constraints {
		sat, ok := cs.check(&cs.constraints[i])
		if !ok {
			return false, fmt.Errorf("%s: %w", cs.constraints[i].Label, ErrMissingWitness)
		}
		if !sat {
			return false, nil
		}
	}
	return true, nil
}

// WhichIsUnsatisfied returns the label of the first failing constraint, or ""
// when all constraints that can be evaluated hold.
func (cs *R1CS) WhichIsUnsatisfied() string {
	for i := range cs.constraints {
		sat, ok := cs.check(&cs.constraints[i])
		if ok && !sat {
			return cs.constraints[i].Label
		}
	}
	return ""
}
