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

const (
	// General
	errLoadingConfig  = "Error loading config: %v"
	errOpeningLog     = "Error opening log file %s: %v"
	errReadingProgram = "Error reading program %s: %v"
	errReadingInputs  = "Error reading inputs %s: %v"
	errWritingFile    = "Error writing %s: %v"
	errWritingMetrics = "Error writing metrics: %v"

	// Run
	infoSatisfied      = "constraint system satisfied"
	infoUnsatisfied    = "constraint system NOT satisfied at %s"
	infoCircuitSize    = "%d constraints, %d public inputs, %d auxiliary variables, %d steps"
	infoStorageRoot    = "storage root: %s"
	errRunFailed       = "Program %s failed: %v"
	errCheckingCircuit = "Error checking constraint system: %v"
	errUnsatisfied     = "Program %s produced an unsatisfied constraint system"

	// Check
	infoCheckResult = "%s: %d constraints, %d public inputs, %d auxiliary variables"

	// Storage
	infoStorageCreated = "Created %s storage of depth %d in %s"
	infoLeafEmpty      = "leaf %d is empty"
	errOpeningStorage  = "Error opening storage: %v"
	errStorageInUse    = "Storage in %s is in use by another zkvm process"
	errClosingStorage  = "Error closing storage: %v"
	errParsingIndex    = "Invalid leaf index %q: %v"
	errLoadingLeaf     = "Error loading leaf %d: %v"
	errSavingConfig    = "Error saving config: %v"
)
