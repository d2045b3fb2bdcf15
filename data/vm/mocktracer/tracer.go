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

// Package mocktracer records the hooks a run calls on a vm.EvalTracer.
package mocktracer

import (
	"github.com/algorand/go-zkvm/data/vm"
)

// EventType represents a type of vm.EvalTracer event
type EventType string

const (
	// BeforeProgramEvent represents the vm.EvalTracer.BeforeProgram event
	BeforeProgramEvent EventType = "BeforeProgram"
	// AfterProgramEvent represents the vm.EvalTracer.AfterProgram event
	AfterProgramEvent EventType = "AfterProgram"
	// BeforeOpcodeEvent represents the vm.EvalTracer.BeforeOpcode event
	BeforeOpcodeEvent EventType = "BeforeOpcode"
	// AfterOpcodeEvent represents the vm.EvalTracer.AfterOpcode event
	AfterOpcodeEvent EventType = "AfterOpcode"
)

// Event represents a vm.EvalTracer event
type Event struct {
	Type EventType

	// PC is the instruction index; 0 for program events.
	PC int

	// HasError is set on After events whose run or op failed.
	HasError bool
}

// BeforeProgram creates a new Event with the type BeforeProgramEvent
func BeforeProgram() Event {
	return Event{Type: BeforeProgramEvent}
}

// AfterProgram creates a new Event with the type AfterProgramEvent
func AfterProgram(hasError bool) Event {
	return Event{Type: AfterProgramEvent, HasError: hasError}
}

// BeforeOpcode creates a new Event with the type BeforeOpcodeEvent
func BeforeOpcode(pc int) Event {
	return Event{Type: BeforeOpcodeEvent, PC: pc}
}

// AfterOpcode creates a new Event with the type AfterOpcodeEvent
func AfterOpcode(pc int, hasError bool) Event {
	return Event{Type: AfterOpcodeEvent, PC: pc, HasError: hasError}
}

// OpcodeEvents returns the Before/After pairs for executing pcs in order,
// with only the last op failing when hasError is set.
func OpcodeEvents(pcs []int, hasError bool) []Event {
	events := make([]Event, 0, 2*len(pcs))
	for i, pc := range pcs {
		events = append(events, BeforeOpcode(pc), AfterOpcode(pc, hasError && i == len(pcs)-1))
	}
	return events
}

// FlattenEvents concatenates event slices.
func FlattenEvents(rows [][]Event) []Event {
	var out []Event
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}

// Tracer is a mock tracer that implements vm.EvalTracer
type Tracer struct {
	Events []Event
}

// BeforeProgram mocks the vm.EvalTracer.BeforeProgram method
func (d *Tracer) BeforeProgram(cx *vm.EvalContext) {
	d.Events = append(d.Events, BeforeProgram())
}

// AfterProgram mocks the vm.EvalTracer.AfterProgram method
func (d *Tracer) AfterProgram(cx *vm.EvalContext, evalError error) {
	d.Events = append(d.Events, AfterProgram(evalError != nil))
}

// BeforeOpcode mocks the vm.EvalTracer.BeforeOpcode method
func (d *Tracer) BeforeOpcode(cx *vm.EvalContext) {
	d.Events = append(d.Events, BeforeOpcode(cx.PC()))
}

// AfterOpcode mocks the vm.EvalTracer.AfterOpcode method
func (d *Tracer) AfterOpcode(cx *vm.EvalContext, evalError error) {
	d.Events = append(d.Events, AfterOpcode(cx.PC(), evalError != nil))
}
