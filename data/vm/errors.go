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
	"fmt"

	"github.com/algorand/go-zkvm/circuit/gadgets"
	"github.com/algorand/go-zkvm/storage"
)

// Structural violations. The producer of the bytecode is at fault.
var (
	ErrStackUnderflow      = errors.New("stack underflow")
	ErrStackOverflow       = errors.New("stack depth limit exceeded")
	ErrCallDepthExceeded   = errors.New("call depth limit exceeded")
	ErrUnexpectedElse      = errors.New("else without a matching if")
	ErrUnexpectedEndIf     = errors.New("endif without a matching if")
	ErrUnexpectedLoopEnd   = errors.New("loop_end without a matching loop_begin")
	ErrUnterminatedBlock   = errors.New("unterminated block")
	ErrZeroIterations      = errors.New("loop with zero iterations")
	ErrBranchDepthMismatch = errors.New("branch arms leave different stack depths")
	ErrInvalidJump         = errors.New("jump target outside the program")
	ErrReturnFromEntry     = errors.New("return outside a function")
	ErrNotAValue           = errors.New("cell is an address, expected a value")
	ErrNotAnAddress        = errors.New("cell is a value, expected an address")
	ErrNativeArity         = errors.New("invalid native call arity")
	ErrStorageUnavailable  = errors.New("storage instruction without a storage backend")
)

// Witness-dependent failures.
var (
	ErrUninitializedCell = errors.New("read of an uninitialized cell")
	ErrMergeKindMismatch = errors.New("branch arms disagree on a cell")
	ErrLeafSizeMismatch  = errors.New("storage leaf size mismatch")
	ErrInvalidInput      = errors.New("input does not fit its type")
	ErrStorageBackend    = errors.New("storage backend failure")
)

var runtimeCauses = []error{
	ErrUninitializedCell,
	ErrMergeKindMismatch,
	ErrLeafSizeMismatch,
	ErrInvalidInput,
	ErrStorageBackend,
	gadgets.ErrDivisionByZero,
	gadgets.ErrAssertionFailed,
	storage.ErrIndexOutOfRange,
}

func isRuntimeCause(err error) bool {
	for _, cause := range runtimeCauses {
		if errors.Is(err, cause) {
			return true
		}
	}
	return false
}

// MalformedBytecodeError reports a structural violation at an instruction.
// It is never fixed by retrying with other inputs.
type MalformedBytecodeError struct {
	PC          int
	Instruction string
	Err         error
}

func (e *MalformedBytecodeError) Error() string {
	return fmt.Sprintf("malformed bytecode at pc=%d (%s): %v", e.PC, e.Instruction, e.Err)
}

func (e *MalformedBytecodeError) Unwrap() error {
	return e.Err
}

// RuntimeError reports a failure that depends on the witness. Running again
// with other inputs may succeed.
type RuntimeError struct {
	PC          int
	Instruction string
	Err         error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at pc=%d (%s): %v", e.PC, e.Instruction, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// PanicError is returned when evaluation panics.
type PanicError struct {
	PanicValue interface{}
	StackTrace string
}

func (pe PanicError) Error() string {
	return fmt.Sprintf("panic in zkvm Eval: %v\n%s", pe.PanicValue, pe.StackTrace)
}
