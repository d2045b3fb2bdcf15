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

package logging

import (
	"fmt"
	"os"

	"github.com/algorand/go-deadlock"
)

// ArchiveSuffix is appended to the live log path to name the archived log.
const ArchiveSuffix = ".archive"

// CyclicFileWriter is an io.Writer over a log file that never grows past a
// size limit. A write that would cross the limit first moves the live file
// to its archive path, replacing the previous archive.
type CyclicFileWriter struct {
	mu      deadlock.Mutex
	file    *os.File
	live    string
	archive string
	size    uint64
	limit   uint64
}

// MakeCyclicFileWriter opens live for appending. A zero limit never archives.
func MakeCyclicFileWriter(live string, limit uint64) (*CyclicFileWriter, error) {
	cyclic := &CyclicFileWriter{live: live, archive: live + ArchiveSuffix, limit: limit}
	if fi, err := os.Stat(live); err == nil {
		cyclic.size = uint64(fi.Size())
	}
	if err := cyclic.open(os.O_APPEND); err != nil {
		return nil, err
	}
	return cyclic, nil
}

func (cyclic *CyclicFileWriter) open(mode int) (err error) {
	cyclic.file, err = os.OpenFile(cyclic.live, os.O_CREATE|os.O_WRONLY|mode, 0666)
	if err != nil {
		return fmt.Errorf("CyclicFileWriter: cannot open log file %w", err)
	}
	return nil
}

// Write appends p, archiving the live file first when p does not fit.
func (cyclic *CyclicFileWriter) Write(p []byte) (n int, err error) {
	cyclic.mu.Lock()
	defer cyclic.mu.Unlock()

	if cyclic.limit > 0 {
		if uint64(len(p)) > cyclic.limit {
			return 0, fmt.Errorf("CyclicFileWriter: entry of %d bytes exceeds the %d byte limit", len(p), cyclic.limit)
		}
		if cyclic.size+uint64(len(p)) > cyclic.limit {
			cyclic.file.Close()
			if err = os.Rename(cyclic.live, cyclic.archive); err != nil {
				return 0, fmt.Errorf("CyclicFileWriter: cannot archive full log %w", err)
			}
			if err = cyclic.open(os.O_TRUNC); err != nil {
				return 0, err
			}
			cyclic.size = 0
		}
	}
	n, err = cyclic.file.Write(p)
	cyclic.size += uint64(n)
	return
}

// Close closes the live log file.
func (cyclic *CyclicFileWriter) Close() error {
	cyclic.mu.Lock()
	defer cyclic.mu.Unlock()
	return cyclic.file.Close()
}
