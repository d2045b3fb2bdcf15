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

// Package partitiontest splits the test suite across CI workers. Set
// PARTITION_TOTAL to the worker count and PARTITION_ID to this worker's index.
package partitiontest

import (
	"hash/fnv"
	"os"
	"runtime"
	"strconv"
	"testing"
)

// PartitionTest skips t unless it hashes to the current partition. Every
// test calls it first.
func PartitionTest(t testing.TB) {
	total, id, ok := partition()
	if !ok {
		return
	}
	_, file, _, _ := runtime.Caller(1)
	h := fnv.New64a()
	h.Write([]byte(file + ":" + t.Name()))
	if assigned := h.Sum64() % total; assigned != id {
		t.Skipf("skipping due to partitioning, assigned to partition %d", assigned)
	}
}

// partition reads the partition settings; ok is false when partitioning is
// off or misconfigured.
func partition() (total, id uint64, ok bool) {
	total, err := strconv.ParseUint(os.Getenv("PARTITION_TOTAL"), 10, 64)
	if err != nil || total == 0 {
		return 0, 0, false
	}
	id, err = strconv.ParseUint(os.Getenv("PARTITION_ID"), 10, 64)
	if err != nil || id >= total {
		return 0, 0, false
	}
	return total, id, true
}
