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

package vm

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the interpreter counters. It is separate from the default
// prometheus registry so that tools can dump only what runs recorded.
var Registry = prometheus.NewRegistry()

var (
	instructionsExecuted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zkvm",
		Name:      "instructions_executed_total",
		Help:      "Instructions executed, by mnemonic.",
	}, []string{"op"})

	constraintsSynthesized = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zkvm",
		Name:      "constraints_synthesized_total",
		Help:      "Constraints added to constraint systems by runs.",
	})

	runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zkvm",
		Name:      "runs_total",
		Help:      "Finished runs, by result.",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(instructionsExecuted, constraintsSynthesized, runsTotal)
}

func resultLabel(err error) string {
	var me *MalformedBytecodeError
	var re *RuntimeError
	var pe PanicError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &me):
		return "malformed"
	case errors.As(err, &re):
		return "runtime"
	case errors.As(err, &pe):
		return "panic"
	}
	return "error"
}
