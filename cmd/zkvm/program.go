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
	"math/big"
	"path/filepath"

	"github.com/algorand/go-zkvm/data/basics"
	"github.com/algorand/go-zkvm/data/bytecode"
	"github.com/algorand/go-zkvm/data/vm"
	"github.com/algorand/go-zkvm/protocol"
	"github.com/algorand/go-zkvm/util/codecs"
)

// assemblySuffix marks program files holding assembly text rather than
// encoded bytecode.
const assemblySuffix = ".zasm"

// loadProgram reads a program file, assembling it when it carries the
// assembly suffix and decoding it otherwise.
func loadProgram(filename string) ([]bytecode.Instruction, error) {
	data, err := readFile(filename)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(filename) == assemblySuffix {
		return bytecode.Assemble(string(data))
	}
	return bytecode.DecodeProgram(data)
}

// inputFile is the JSON witness accepted by run and check:
//
//	{"inputs": [{"type": "u8", "value": "3"}, {"type": "bool", "value": "1"}]}
//
// Values are decimal or 0x-prefixed; an empty value allocates the input
// without a witness.
type inputFile struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Inputs []inputEntry `codec:"inputs" json:"inputs"`
}

type inputEntry struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Type  string `codec:"type" json:"type"`
	Value string `codec:"value" json:"value,omitempty"`
}

func parseInputs(data []byte) ([]vm.Input, error) {
	var file inputFile
	if err := protocol.DecodeJSON(data, &file); err != nil {
		return nil, err
	}
	return file.inputs()
}

func (file inputFile) inputs() ([]vm.Input, error) {
	inputs := make([]vm.Input, len(file.Inputs))
	for i, entry := range file.Inputs {
		typ, err := basics.ParseScalarType(entry.Type)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		inputs[i].Type = typ
		if entry.Value == "" {
			continue
		}
		v, ok := new(big.Int).SetString(entry.Value, 0)
		if !ok {
			return nil, fmt.Errorf("input %d: invalid value %q", i, entry.Value)
		}
		inputs[i].Value = v
	}
	return inputs, nil
}

func loadInputs(filename string) ([]vm.Input, error) {
	if filename == "" {
		return nil, nil
	}
	if filename != stdioFilename {
		var file inputFile
		if err := codecs.LoadObjectFromFile(filename, &file); err != nil {
			return nil, err
		}
		return file.inputs()
	}
	data, err := readFile(filename)
	if err != nil {
		return nil, err
	}
	return parseInputs(data)
}

// witnessFree drops the values of inputs, keeping their types.
func witnessFree(inputs []vm.Input) []vm.Input {
	stripped := make([]vm.Input, len(inputs))
	for i, input := range inputs {
		stripped[i] = vm.Input{Type: input.Type}
	}
	return stripped
}

// outputFile is the JSON report written by run --output.
type outputFile struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	RunID     string        `codec:"run" json:"run"`
	Outputs   []outputEntry `codec:"outputs" json:"outputs"`
	Root      string        `codec:"root" json:"root,omitempty"`
	Satisfied bool          `codec:"satisfied" json:"satisfied"`
}

type outputEntry struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Type  string `codec:"type" json:"type"`
	Value string `codec:"value" json:"value"`
}

func makeOutputFile(res *vm.Result, satisfied bool) outputFile {
	out := outputFile{
		RunID:     res.RunID,
		Outputs:   make([]outputEntry, len(res.Outputs)),
		Satisfied: satisfied,
	}
	for i, o := range res.Outputs {
		out.Outputs[i] = outputEntry{Type: o.Type().String(), Value: o.BigInt().String()}
	}
	if res.Root != nil {
		out.Root = res.Root.BigInt().String()
	}
	return out
}

// saveOutputFile writes out to filename, or to stdout for "-".
func saveOutputFile(filename string, out outputFile) error {
	if filename == stdioFilename {
		return writeFile(filename, append(protocol.EncodeJSON(out), '\n'), 0)
	}
	return codecs.SaveObjectToFile(filename, out, true)
}
