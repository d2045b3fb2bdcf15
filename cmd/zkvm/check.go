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
	"runtime"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/algorand/go-zkvm/circuit"
	"github.com/algorand/go-zkvm/config"
	"github.com/algorand/go-zkvm/data/vm"
	"github.com/algorand/go-zkvm/storage"
)

var (
	checkInputFilename string
	checkStorage       bool
)

func init() {
	checkCmd.Flags().StringVarP(&checkInputFilename, "input", "i", "", "JSON file with the input types; values are ignored")
	checkCmd.Flags().BoolVarP(&checkStorage, "storage", "s", false, "Read leaves from the data directory storage; writes are discarded")
}

var checkCmd = &cobra.Command{
	Use:   "check [program]...",
	Short: "Synthesize programs without a witness and report their circuit sizes",
	Long:  `Synthesize each program without a witness, as a prover setup would, and report the shape of the resulting constraint system. Programs are checked in parallel.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir, cfg, closeLog := prepare()
		defer closeLog()
		if cfg.EnableMetrics {
			defer printMetrics()
		}

		inputs, err := loadInputs(checkInputFilename)
		if err != nil {
			reportErrorf(errReadingInputs, checkInputFilename, err)
		}
		var backend storage.Backend
		if checkStorage {
			handle, err := openStorage(cfg, dir)
			if err != nil {
				reportStorageError(cfg, dir, err)
			}
			defer handle.Close()
			backend = readOnly{handle.tree}
		}
		shapes, err := checkPrograms(args, witnessFree(inputs), cfg, backend)
		if err != nil {
			reportErrorln(err)
		}
		for i, shape := range shapes {
			reportInfof(infoCheckResult, args[i], shape.constraints, shape.inputs, shape.aux)
		}
	},
}

// circuitShape is the size of a synthesized constraint system.
type circuitShape struct {
	constraints int
	inputs      int
	aux         int
}

// readOnly serves leaves from a tree and drops every write, so that runs
// sharing it stay independent.
type readOnly struct {
	*storage.Tree
}

func (readOnly) Store(uint64, []fr.Element) error { return nil }
func (readOnly) Commit() error                    { return nil }
func (readOnly) Rollback() error                  { return nil }

// checkPrograms synthesizes every program with the given inputs and returns
// their shapes in argument order. backend may be nil.
func checkPrograms(filenames []string, inputs []vm.Input, cfg config.Local, backend storage.Backend) ([]circuitShape, error) {
	cfg.EnableTracing = false
	shapes := make([]circuitShape, len(filenames))

	var workers errgroup.Group
	workers.SetLimit(runtime.NumCPU())
	for i, filename := range filenames {
		workers.Go(func() error {
			program, err := loadProgram(filename)
			if err != nil {
				return fmt.Errorf("reading %s: %w", filename, err)
			}
			cs := circuit.NewR1CS()
			ep := vm.NewEvalParams(cs, cfg)
			ep.SetLogger(log.With("program", filename))
			ep.Storage = backend
			if _, err := vm.Eval(program, inputs, ep); err != nil {
				return fmt.Errorf("%s: %w", filename, err)
			}
			shapes[i] = circuitShape{constraints: cs.NumConstraints(), inputs: cs.NumInputs(), aux: cs.NumAux()}
			return nil
		})
	}
	if err := workers.Wait(); err != nil {
		return nil, err
	}
	return shapes, nil
}
