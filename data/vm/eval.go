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

// Package vm executes zkvm bytecode while synthesizing its circuit. A run
// with input values computes the witness alongside the constraints; a run
// without them yields the same constraint system. Both arms of every branch
// are synthesized and their effects merged with select gates.
package vm

import (
	"errors"
	"fmt"
	"math/big"
	"runtime"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/google/uuid"

	"github.com/algorand/go-zkvm/circuit"
	"github.com/algorand/go-zkvm/circuit/gadgets"
	"github.com/algorand/go-zkvm/config"
	"github.com/algorand/go-zkvm/data/basics"
	"github.com/algorand/go-zkvm/data/bytecode"
	"github.com/algorand/go-zkvm/logging"
	"github.com/algorand/go-zkvm/storage"
)

// EvalParams contains data that is shared by every run using them.
type EvalParams struct {
	ConstraintSystem circuit.ConstraintSystem

	// Storage backs the storage instructions; nil disables them.
	Storage storage.Backend

	Trace *strings.Builder

	// optional tracer
	Tracer EvalTracer

	MaxStackDepth int
	MaxCallDepth  int

	logger logging.Logger
}

// NewEvalParams builds EvalParams with the limits of cfg.
func NewEvalParams(cs circuit.ConstraintSystem, cfg config.Local) *EvalParams {
	ep := &EvalParams{
		ConstraintSystem: cs,
		MaxStackDepth:    int(cfg.MaxStackDepth),
		MaxCallDepth:     int(cfg.MaxCallDepth),
	}
	if cfg.EnableTracing {
		ep.Trace = &strings.Builder{}
	}
	return ep
}

// SetLogger sets the logger runs report to.
func (ep *EvalParams) SetLogger(l logging.Logger) {
	ep.logger = l
}

func (ep *EvalParams) log() logging.Logger {
	if ep.logger != nil {
		return ep.logger
	}
	return logging.Base()
}

// Input is a private input of the entry frame. Value is nil when
// synthesizing without a witness.
type Input struct {
	Type  basics.ScalarType
	Value *big.Int
}

// Result is the outcome of a run that reached exit.
type Result struct {
	RunID string
	// Outputs are the public output wires, in declared order.
	Outputs []gadgets.Scalar
	Steps   int
	// Root is the storage root after the run, when storage is configured.
	Root *gadgets.Scalar
}

// Values returns the output witnesses, nil entries when absent.
func (r *Result) Values() []*big.Int {
	values := make([]*big.Int, len(r.Outputs))
	for i, out := range r.Outputs {
		values[i] = out.BigInt()
	}
	return values
}

// EvalContext is the execution state of one run.
type EvalContext struct {
	*EvalParams

	runID   uuid.UUID
	program []bytecode.Instruction
	pc      int
	nextpc  int
	steps   int
	halted  bool

	stack      evaluationStack
	data       dataStack
	frames     []frame
	conditions []gadgets.Scalar
	alwaysTrue gadgets.Scalar
	storage    *merkleStorage

	outputs []gadgets.Scalar
}

// PC is the index of the instruction being executed.
func (cx *EvalContext) PC() int {
	return cx.pc
}

// Instruction is the instruction being executed, or nil past the end.
func (cx *EvalContext) Instruction() bytecode.Instruction {
	if cx.pc < len(cx.program) {
		return cx.program[cx.pc]
	}
	return nil
}

// StackDepth is the number of cells on the evaluation stack.
func (cx *EvalContext) StackDepth() int {
	return cx.stack.size
}

// CallDepth is the number of active frames.
func (cx *EvalContext) CallDepth() int {
	return len(cx.frames)
}

// Steps is the number of instructions executed so far.
func (cx *EvalContext) Steps() int {
	return cx.steps
}

// RunID identifies the run in logs.
func (cx *EvalContext) RunID() string {
	return cx.runID.String()
}

// Eval runs program on inputs. The circuit is synthesized into
// params.ConstraintSystem; whether it is satisfied is for the caller to
// check. Structural faults are reported as *MalformedBytecodeError and
// witness-dependent ones as *RuntimeError.
func Eval(program []bytecode.Instruction, inputs []Input, params *EvalParams) (*Result, error) {
	cx := &EvalContext{
		EvalParams: params,
		runID:      uuid.New(),
		program:    program,
		stack:      newEvaluationStack(),
	}
	return cx.eval(inputs)
}

func (cx *EvalContext) eval(inputs []Input) (res *Result, err error) {
	log := cx.log().With("run", cx.runID.String())

	defer func() {
		if x := recover(); x != nil {
			buf := make([]byte, 16*1024)
			stlen := runtime.Stack(buf, false)
			errstr := string(buf[:stlen])
			if cx.Trace != nil {
				errstr += cx.Trace.String()
			}
			res = nil
			err = PanicError{x, errstr}
			log.Errorf("recovered panic in Eval: %v", err)
		}
		if cx.Storage != nil {
			var serr error
			if err == nil {
				serr = cx.Storage.Commit()
			} else {
				serr = cx.Storage.Rollback()
			}
			if serr != nil && err == nil {
				res, err = nil, fmt.Errorf("storage commit: %w", serr)
			}
		}
		runsTotal.WithLabelValues(resultLabel(err)).Inc()
	}()

	constraintsBefore := numConstraints(cx.ConstraintSystem)
	log.Debugf("starting run of %d instructions with %d inputs", len(cx.program), len(inputs))

	if err = cx.begin(inputs); err != nil {
		return nil, cx.classify("inputs", err)
	}
	if cx.Tracer != nil {
		cx.Tracer.BeforeProgram(cx)
	}
	for !cx.halted && cx.pc < len(cx.program) {
		if err = cx.step(); err != nil {
			break
		}
	}
	if err == nil && !cx.halted {
		err = cx.fallOff()
	}
	if cx.Tracer != nil {
		cx.Tracer.AfterProgram(cx, err)
	}
	constraintsSynthesized.Add(float64(numConstraints(cx.ConstraintSystem) - constraintsBefore))
	if err != nil {
		if cx.Trace != nil {
			fmt.Fprintf(cx.Trace, "%3d %s\n", cx.pc, err)
		}
		log.Debugf("run failed after %d steps: %v", cx.steps, err)
		return nil, err
	}

	res = &Result{RunID: cx.runID.String(), Outputs: cx.outputs, Steps: cx.steps}
	if cx.storage != nil {
		root := cx.storage.root
		res.Root = &root
	}
	log.Debugf("run finished after %d steps with %d outputs", cx.steps, len(cx.outputs))
	return res, nil
}

// begin allocates the inputs into the entry frame and opens storage.
func (cx *EvalContext) begin(inputs []Input) error {
	cs := cx.ConstraintSystem
	cx.alwaysTrue = gadgets.ConstantBool(cs, "true", true)
	cx.frames = []frame{{returnPC: len(cx.program)}}

	if cx.Storage != nil {
		ms, err := newMerkleStorage(cs, cx.Storage)
		if err != nil {
			return err
		}
		cx.storage = ms
	}

	cs.PushNamespace("inputs")
	defer cs.PopNamespace()
	for i, in := range inputs {
		if err := in.Type.Validate(); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		var value *fr.Element
		if in.Value != nil {
			if !in.Type.Contains(in.Value) {
				return fmt.Errorf("%w: input %d is %s, not a %s", ErrInvalidInput, i, in.Value, in.Type)
			}
			value = new(fr.Element).SetBigInt(in.Value)
		}
		s := gadgets.AllocChecked(cs, fmt.Sprintf("input%d", i), value, in.Type)
		cx.data.set(i, ValueCell(s))
		cx.frame().raise(i)
	}
	return nil
}

// fallOff ends a program that ran past its last instruction, as exit 0.
func (cx *EvalContext) fallOff() error {
	var err error
	if len(cx.frames) > 1 {
		err = fmt.Errorf("%w: program ended inside a function", ErrUnterminatedBlock)
	} else {
		err = cx.checkBlocksClosed(cx.frames)
	}
	if err != nil {
		return &MalformedBytecodeError{PC: cx.pc, Instruction: "end", Err: err}
	}
	cx.halted = true
	return nil
}

func opName(inst bytecode.Instruction) string {
	spec, _ := bytecode.OpSpecForOpcode(inst.Opcode())
	return spec.Name
}

func (cx *EvalContext) step() error {
	inst := cx.program[cx.pc]
	name := opName(inst)
	cx.nextpc = cx.pc + 1

	if cx.Tracer != nil {
		cx.Tracer.BeforeOpcode(cx)
	}

	cx.ConstraintSystem.PushNamespace(fmt.Sprintf("%d_%s", cx.pc, name))
	err := cx.dispatch(inst)
	cx.ConstraintSystem.PopNamespace()
	cx.steps++
	instructionsExecuted.WithLabelValues(name).Inc()

	if err == nil && (cx.stack.size > cx.MaxStackDepth || cx.data.size() > cx.MaxStackDepth) && cx.MaxStackDepth > 0 {
		err = fmt.Errorf("%w: %d cells", ErrStackOverflow, max(cx.stack.size, cx.data.size()))
	}
	if err != nil {
		err = cx.classify(inst.String(), err)
	}

	if cx.Trace != nil {
		top := "<empty>"
		if n := cx.stack.depth(); n > 0 {
			top = (*cx.stack.top())[n-1].String()
		}
		fmt.Fprintf(cx.Trace, "%3d %s => %s\n", cx.pc, inst, top)
	}
	if cx.Tracer != nil {
		cx.Tracer.AfterOpcode(cx, err)
	}
	if err != nil {
		return err
	}
	cx.pc = cx.nextpc
	return nil
}

func (cx *EvalContext) classify(where string, err error) error {
	var me *MalformedBytecodeError
	var re *RuntimeError
	if errors.As(err, &me) || errors.As(err, &re) {
		return err
	}
	if isRuntimeCause(err) {
		return &RuntimeError{PC: cx.pc, Instruction: where, Err: err}
	}
	return &MalformedBytecodeError{PC: cx.pc, Instruction: where, Err: err}
}

// counter is implemented by constraint systems that can count their gates.
type counter interface {
	NumConstraints() int
}

func numConstraints(cs circuit.ConstraintSystem) int {
	if c, ok := cs.(counter); ok {
		return c.NumConstraints()
	}
	return 0
}
