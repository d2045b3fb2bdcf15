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

package main

import (
	"fmt"
	"strings"
)

// enumValue is a pflag.Value restricted to a fixed set of strings.
type enumValue struct {
	value   string
	allowed []string
	isSet   bool
}

// makeEnumValue creates an enumValue defaulting to value that also accepts others.
func makeEnumValue(value string, others []string) *enumValue {
	e := &enumValue{value: value}
	e.allowed = append(e.allowed, value)
	e.allowed = append(e.allowed, others...)
	return e
}

func (e *enumValue) String() string { return e.value }
func (e *enumValue) Type() string   { return "string" }
func (e *enumValue) IsSet() bool    { return e.isSet }

// Set sets a value and fails if it is not allowed
func (e *enumValue) Set(other string) error {
	for _, s := range e.allowed {
		if other == s {
			e.value = other
			e.isSet = true
			return nil
		}
	}
	return fmt.Errorf("value %s not allowed, expected one of %s", other, e.AllowedString())
}

// AllowedString returns a comma-separated string of allowed values
func (e *enumValue) AllowedString() string {
	return strings.Join(e.allowed, ", ")
}
