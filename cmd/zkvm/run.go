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
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/algorand/go-zkvm/circuit"
	"github.com/algorand/go-zkvm/config"
	"github.com/algorand/go-zkvm/data/bytecode"
	"github.com/algorand/go-zkvm/data/vm"
	"github.com/algorand/go-zkvm/storage"
)

var (
	inputFilename  string
	outputFilename string
	useStorage     bool
	traceRun       bool
	dumpMetrics    bool
)

func init() {
	runCmd.Flags().StringVarP(&inputFilename, "input", "i", "", "JSON file with the program inputs")
	runCmd.Flags().StringVarP(&outputFilename, "output", "o", "", "Write the outputs as JSON to this file (- for stdout)")
	runCmd.Flags().BoolVarP(&useStorage, "storage", "s", false, "Prove storage accesses against the data directory storage")
	runCmd.Flags().BoolVarP(&traceRun, "trace", "t", false, "Print a per-instruction trace to stderr")
	runCmd.Flags().BoolVarP(&dumpMetrics, "metrics", "m", false, "Print run counters to stderr")
}

var runCmd = &cobra.Command{
	Use:   "run [program]",
	Short: "Execute a program and check the synthesized constraint system",
	Long:  `Execute a program, encoded or as ` + assemblySuffix + ` assembly, with the given inputs. The outputs are printed and the constraint system built by the run is checked against its witness. Storage writes are kept only when the constraint system is satisfied.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir, cfg, closeLog := prepare()
		defer closeLog()

		program, err := loadProgram(args[0])
		if err != nil {
			reportErrorf(errReadingProgram, args[0], err)
		}
		inputs, err := loadInputs(inputFilename)
		if err != nil {
			reportErrorf(errReadingInputs, inputFilename, err)
		}
		cfg.EnableTracing = cfg.EnableTracing || traceRun
		cfg.EnableMetrics = cfg.EnableMetrics || dumpMetrics
		if cfg.EnableMetrics {
			defer printMetrics()
		}

		var tree *storage.Tree
		if useStorage {
			handle, err := openStorage(cfg, dir)
			if err != nil {
				reportStorageError(cfg, dir, err)
			}
			defer handle.Close()
			tree = handle.tree
		}

		report, err := execute(program, inputs, cfg, tree)
		if report.trace != "" {
			fmt.Fprint(os.Stderr, report.trace)
		}
		if err != nil {
			reportErrorf(errRunFailed, args[0], err)
		}

		for i, out := range report.result.Outputs {
			reportInfof("output %d: %s", i, out.String())
		}
		if report.result.Root != nil {
			reportInfof(infoStorageRoot, report.result.Root.BigInt().String())
		}
		reportInfof(infoCircuitSize, report.cs.NumConstraints(), report.cs.NumInputs(), report.cs.NumAux(), report.result.Steps)
		if report.satisfied {
			reportInfof("%s", color.New(color.FgGreen).Sprint(infoSatisfied))
		} else {
			reportInfof("%s", color.New(color.FgRed).Sprintf(infoUnsatisfied, report.unsatisfied))
		}

		if outputFilename != "" {
			if err := saveOutputFile(outputFilename, makeOutputFile(report.result, report.satisfied)); err != nil {
				reportErrorf(errWritingFile, outputFilename, err)
			}
		}
		if !report.satisfied {
			reportErrorf(errUnsatisfied, args[0])
		}
	},
}

// runReport is the outcome of one executed program.
type runReport struct {
	result      *vm.Result
	cs          *circuit.R1CS
	satisfied   bool
	unsatisfied string
	trace       string
}

// deferredCommit keeps the writes of a run pending until its constraint
// system has been checked.
type deferredCommit struct {
	*storage.Tree
}

func (deferredCommit) Commit() error { return nil }

// execute runs program with a fresh constraint system and checks it. With a
// tree, the run's writes are committed only when the system is satisfied.
func execute(program []bytecode.Instruction, inputs []vm.Input, cfg config.Local, tree *storage.Tree) (*runReport, error) {
	report := &runReport{cs: circuit.NewR1CS()}
	ep := vm.NewEvalParams(report.cs, cfg)
	ep.SetLogger(log)
	if tree != nil {
		ep.Storage = deferredCommit{tree}
	}

	res, err := vm.Eval(program, inputs, ep)
	if ep.Trace != nil {
		report.trace = ep.Trace.String()
	}
	if err != nil {
		return report, err
	}
	report.result = res

	report.satisfied, err = report.cs.IsSatisfied()
	if err != nil {
		err = fmt.Errorf(errCheckingCircuit, err)
		if tree != nil {
			if rbErr := tree.Rollback(); rbErr != nil {
				err = errors.Join(err, rbErr)
			}
		}
		return report, err
	}
	if !report.satisfied {
		report.unsatisfied = strings.TrimSpace(report.cs.WhichIsUnsatisfied())
	}
	if tree != nil {
		if report.satisfied {
			err = tree.Commit()
		} else {
			err = tree.Rollback()
		}
	}
	return report, err
}
