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
	"strings"

	"github.com/spf13/cobra"

	"github.com/algorand/go-zkvm/data/bytecode"
)

var asmOutFilename string

func init() {
	asmCmd.Flags().StringVarP(&asmOutFilename, "outfile", "o", "", "Filename to write the encoded program to (default: input with the "+assemblySuffix+" suffix replaced)")
}

var asmCmd = &cobra.Command{
	Use:   "asm [source]",
	Short: "Assemble a program into bytecode",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		src, err := readFile(args[0])
		if err != nil {
			reportErrorf(errReadingProgram, args[0], err)
		}
		program, err := bytecode.Assemble(string(src))
		if err != nil {
			reportErrorf(errReadingProgram, args[0], err)
		}
		out := asmOutFilename
		if out == "" {
			out = defaultAsmOutput(args[0])
		}
		if err := writeFile(out, bytecode.EncodeProgram(program), 0644); err != nil {
			reportErrorf(errWritingFile, out, err)
		}
	},
}

var disasmCmd = &cobra.Command{
	Use:   "disasm [program]",
	Short: "Print the assembly of an encoded program",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		program, err := loadProgram(args[0])
		if err != nil {
			reportErrorf(errReadingProgram, args[0], err)
		}
		if err := writeFile(stdioFilename, []byte(bytecode.Disassemble(program)), 0); err != nil {
			reportErrorf(errWritingFile, stdioFilename, err)
		}
	},
}

func defaultAsmOutput(source string) string {
	if source == stdioFilename {
		return "program.zvm"
	}
	if strings.HasSuffix(source, assemblySuffix) {
		return strings.TrimSuffix(source, assemblySuffix) + ".zvm"
	}
	return source + ".zvm"
}
