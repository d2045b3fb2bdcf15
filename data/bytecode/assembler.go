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

package bytecode

import (
	"bufio"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/algorand/go-zkvm/data/basics"
)

var (
	errUnterminatedString = errors.New("unterminated string")
	errUnknownLabel       = errors.New("unknown label")
)

// LineError is an assembly error located at a source line.
type LineError struct {
	Line int
	Err  error
}

func (le *LineError) Error() string {
	return fmt.Sprintf("%d: %s", le.Line, le.Err.Error())
}

func (le *LineError) Unwrap() error {
	return le.Err
}

func lineErr(line int, err error) error {
	return &LineError{Line: line, Err: err}
}

type sourceLine struct {
	number int
	tokens []string
}

// Assemble parses the text form of a program. Each line holds one
// instruction, a mnemonic followed by its immediates. A line of the form
// "name:" defines a label for the next instruction, usable as the address of
// call. Text after // is ignored.
func Assemble(src string) ([]Instruction, error) {
	var lines []sourceLine
	labels := make(map[string]int)

	scanner := bufio.NewScanner(strings.NewReader(src))
	scanner.Buffer(nil, 1<<20)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		tokens, err := tokenize(scanner.Text())
		if err != nil {
			return nil, lineErr(lineNumber, err)
		}
		if len(tokens) == 0 {
			continue
		}
		if len(tokens) == 1 && strings.HasSuffix(tokens[0], ":") {
			label := strings.TrimSuffix(tokens[0], ":")
			if label == "" {
				return nil, lineErr(lineNumber, errors.New("empty label"))
			}
			if _, dup := labels[label]; dup {
				return nil, lineErr(lineNumber, fmt.Errorf("duplicate label %q", label))
			}
			labels[label] = len(lines)
			continue
		}
		lines = append(lines, sourceLine{number: lineNumber, tokens: tokens})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	program := make([]Instruction, 0, len(lines))
	for _, line := range lines {
		spec, ok := OpsByName[line.tokens[0]]
		if !ok {
			return nil, lineErr(line.number, fmt.Errorf("unknown opcode %q", line.tokens[0]))
		}
		args := line.tokens[1:]
		if spec.Immediates >= 0 && len(args) != spec.Immediates {
			return nil, lineErr(line.number, fmt.Errorf("%s expects %d immediates, got %d", spec.Name, spec.Immediates, len(args)))
		}
		inst, err := spec.asm(args, labels)
		if err != nil {
			return nil, lineErr(line.number, fmt.Errorf("%s: %w", spec.Name, err))
		}
		program = append(program, inst)
	}
	return program, nil
}

// Disassemble writes one instruction per line in the form Assemble reads.
func Disassemble(program []Instruction) string {
	var sb strings.Builder
	for _, inst := range program {
		sb.WriteString(inst.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// tokenize splits a line on blanks, keeping quoted strings (with their
// quotes) as single tokens and dropping comments.
func tokenize(line string) ([]string, error) {
	var tokens []string
	for i := 0; i < len(line); {
		switch c := line[i]; {
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case strings.HasPrefix(line[i:], "//"):
			return tokens, nil
		case c == '"':
			j := i + 1
			for ; j < len(line) && line[j] != '"'; j++ {
				if line[j] == '\\' {
					j++
				}
			}
			if j >= len(line) {
				return nil, errUnterminatedString
			}
			tokens = append(tokens, line[i:j+1])
			i = j + 1
		default:
			j := i
			for j < len(line) && line[j] != ' ' && line[j] != '\t' && line[j] != '\r' {
				j++
			}
			tokens = append(tokens, line[i:j])
			i = j
		}
	}
	return tokens, nil
}

func parseCount(s string) (int, error) {
	v, err := strconv.ParseUint(s, 0, 31)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errImmediateRange, s)
	}
	return int(v), nil
}

func parseQuoted(s string) (string, error) {
	if !strings.HasPrefix(s, `"`) {
		return "", fmt.Errorf("expected a quoted string, got %s", s)
	}
	return strconv.Unquote(s)
}

func asmPush(args []string, _ map[string]int) (Instruction, error) {
	v, ok := new(big.Int).SetString(args[0], 0)
	if !ok {
		return nil, fmt.Errorf("unable to parse constant %q", args[0])
	}
	t, err := basics.ParseScalarType(args[1])
	if err != nil {
		return nil, err
	}
	return NewPush(v, t)
}

func asmPop(args []string, _ map[string]int) (Instruction, error) {
	n, err := parseCount(args[0])
	return Pop{Count: n}, err
}

func asmAddress(mk func(int) Instruction) asmFunc {
	return func(args []string, _ map[string]int) (Instruction, error) {
		a, err := parseCount(args[0])
		if err != nil {
			return nil, err
		}
		return mk(a), nil
	}
}

func asmSequence(mk func(int, int) Instruction) asmFunc {
	return func(args []string, _ map[string]int) (Instruction, error) {
		a, err := parseCount(args[0])
		if err != nil {
			return nil, err
		}
		n, err := parseCount(args[1])
		if err != nil {
			return nil, err
		}
		return mk(a, n), nil
	}
}

func asmCast(args []string, _ map[string]int) (Instruction, error) {
	t, err := basics.ParseScalarType(args[0])
	if err != nil {
		return nil, err
	}
	return Cast{Type: t}, nil
}

func asmLoopBegin(args []string, _ map[string]int) (Instruction, error) {
	n, err := parseCount(args[0])
	return LoopBegin{Iterations: n}, err
}

func asmCall(args []string, labels map[string]int) (Instruction, error) {
	address, ok := labels[args[0]]
	if !ok {
		var err error
		address, err = parseCount(args[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", errUnknownLabel, args[0])
		}
	}
	n, err := parseCount(args[1])
	if err != nil {
		return nil, err
	}
	return Call{Address: address, InputSize: n}, nil
}

func asmReturn(args []string, _ map[string]int) (Instruction, error) {
	n, err := parseCount(args[0])
	return Return{OutputSize: n}, err
}

func asmExit(args []string, _ map[string]int) (Instruction, error) {
	n, err := parseCount(args[0])
	return Exit{OutputSize: n}, err
}

func asmCallNative(args []string, _ map[string]int) (Instruction, error) {
	f, err := ParseNativeFunction(args[0])
	if err != nil {
		return nil, err
	}
	size, err := parseCount(args[1])
	if err != nil {
		return nil, err
	}
	newSize, err := parseCount(args[2])
	if err != nil {
		return nil, err
	}
	return CallNative{Function: f, Size: size, NewSize: newSize}, nil
}

func asmAssert(args []string, _ map[string]int) (Instruction, error) {
	msg, err := parseQuoted(args[0])
	if err != nil {
		return nil, err
	}
	return Assert{Message: msg}, nil
}

func asmDbg(args []string, _ map[string]int) (Instruction, error) {
	format, err := parseQuoted(args[0])
	if err != nil {
		return nil, err
	}
	n, err := parseCount(args[1])
	if err != nil {
		return nil, err
	}
	return Dbg{Format: format, ArgCount: n}, nil
}

func asmStorageLoad(args []string, _ map[string]int) (Instruction, error) {
	if len(args) == 0 {
		return StorageLoad{}, nil
	}
	types := make([]basics.ScalarType, len(args))
	for i, arg := range args {
		t, err := basics.ParseScalarType(arg)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return StorageLoad{Types: types}, nil
}

func asmStorageStore(args []string, _ map[string]int) (Instruction, error) {
	n, err := parseCount(args[0])
	return StorageStore{Size: n}, err
}
