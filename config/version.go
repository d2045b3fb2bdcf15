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

package config

import (
	"fmt"
	"strconv"
)

// Set through -ldflags "-X github.com/algorand/go-zkvm/config.BuildNumber=..."
var (
	// BuildNumber is the monotonic build number.
	BuildNumber string
	// CommitHash is the git commit the binary was built from.
	CommitHash string
	// Branch is the git branch the binary was built from.
	Branch string
)

const (
	versionMajor = 0
	versionMinor = 3
)

// Version identifies a zkvm build.
type Version struct {
	Major       int
	Minor       int
	BuildNumber int
	CommitHash  string
	Branch      string
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.BuildNumber)
}

// AsUInt64 packs the version as major<<40 | minor<<24 | build, so that
// packed versions compare in release order.
func (v Version) AsUInt64() uint64 {
	return uint64(v.Major)<<40 | uint64(v.Minor)<<24 | uint64(v.BuildNumber)
}

// GetCurrentVersion returns the version of the running binary. A missing or
// malformed build number reads as zero.
func GetCurrentVersion() Version {
	build, _ := strconv.Atoi(BuildNumber)
	return Version{
		Major:       versionMajor,
		Minor:       versionMinor,
		BuildNumber: build,
		CommitHash:  CommitHash,
		Branch:      Branch,
	}
}

// FormatVersionAndLicense returns the text printed by zkvm --version.
func FormatVersionAndLicense() string {
	v := GetCurrentVersion()
	return fmt.Sprintf("%d\n%s [%s] (commit #%s)\n%s", v.AsUInt64(), v, v.Branch, v.CommitHash, GetLicenseInfo())
}

// GetLicenseInfo returns the license notice.
func GetLicenseInfo() string {
	return "go-zkvm is licensed with AGPLv3.0\nsource code available at https://github.com/algorand/go-zkvm"
}
