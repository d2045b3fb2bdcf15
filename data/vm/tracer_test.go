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

package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-zkvm/circuit"
	"github.com/algorand/go-zkvm/config"
	"github.com/algorand/go-zkvm/data/bytecode"
	"github.com/algorand/go-zkvm/data/vm"
	"github.com/algorand/go-zkvm/data/vm/mocktracer"
	"github.com/algorand/go-zkvm/test/partitiontest"
)

func TestEvalTracerEvents(t *testing.T) {
	partitiontest.PartitionTest(t)

	cases := []struct {
		name     string
		source   string
		expected []mocktracer.Event
	}{
		{
			name:   "straight line",
			source: "push 1 u8\npush 2 u8\nadd\nexit 1",
			expected: mocktracer.FlattenEvents([][]mocktracer.Event{
				{mocktracer.BeforeProgram()},
				mocktracer.OpcodeEvents([]int{0, 1, 2, 3}, false),
				{mocktracer.AfterProgram(false)},
			}),
		},
		{
			name:   "loop",
			source: "loop_begin 2\nnoop\nloop_end\nexit 0",
			expected: mocktracer.FlattenEvents([][]mocktracer.Event{
				{mocktracer.BeforeProgram()},
				mocktracer.OpcodeEvents([]int{0, 1, 2, 1, 2, 3}, false),
				{mocktracer.AfterProgram(false)},
			}),
		},
		{
			name:   "call",
			source: "call f 0\nexit 0\nf:\nreturn 0",
			expected: mocktracer.FlattenEvents([][]mocktracer.Event{
				{mocktracer.BeforeProgram()},
				mocktracer.OpcodeEvents([]int{0, 2, 1}, false),
				{mocktracer.AfterProgram(false)},
			}),
		},
		{
			name:   "failure",
			source: "noop\nadd\nexit 1",
			expected: mocktracer.FlattenEvents([][]mocktracer.Event{
				{mocktracer.BeforeProgram()},
				mocktracer.OpcodeEvents([]int{0, 1}, true),
				{mocktracer.AfterProgram(true)},
			}),
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			program, err := bytecode.Assemble(c.source)
			require.NoError(t, err)

			tracer := &mocktracer.Tracer{}
			ep := vm.NewEvalParams(circuit.NewR1CS(), config.GetDefaultLocal())
			ep.Tracer = tracer
			_, _ = vm.Eval(program, nil, ep)
			require.Equal(t, c.expected, tracer.Events)
		})
	}
}

func TestNullEvalTracer(t *testing.T) {
	partitiontest.PartitionTest(t)

	program, err := bytecode.Assemble("push 1 u8\nexit 1")
	require.NoError(t, err)
	ep := vm.NewEvalParams(circuit.NewR1CS(), config.GetDefaultLocal())
	ep.Tracer = vm.NullEvalTracer{}
	res, err := vm.Eval(program, nil, ep)
	require.NoError(t, err)
	require.Len(t, res.Outputs, 1)
}

func TestMetricsCount(t *testing.T) {
	partitiontest.PartitionTest(t)

	program, err := bytecode.Assemble("push 1 u8\npush 2 u8\nadd\nexit 1")
	require.NoError(t, err)

	_, err = vm.Eval(program, nil, vm.NewEvalParams(circuit.NewR1CS(), config.GetDefaultLocal()))
	require.NoError(t, err)

	families, err := vm.Registry.Gather()
	require.NoError(t, err)
	counters := make(map[string]float64)
	for _, f := range families {
		for _, m := range f.GetMetric() {
			counters[f.GetName()] += m.GetCounter().GetValue()
		}
	}
	require.GreaterOrEqual(t, counters["zkvm_runs_total"], 1.0)
	require.GreaterOrEqual(t, counters["zkvm_instructions_executed_total"], 4.0)
	require.Greater(t, counters["zkvm_constraints_synthesized_total"], 0.0)
}
