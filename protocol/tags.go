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

package protocol

// KeyPrefix separates the record kinds sharing one key/value store.
type KeyPrefix string

// Key prefixes, in lexicographic sort order of prefix values to avoid duplicates.
const (
	StorageLeafPrefix KeyPrefix = "leaf/"
	StorageMetaPrefix KeyPrefix = "meta/"
)

// Key appends suffix to the prefix.
func (p KeyPrefix) Key(suffix []byte) []byte {
	k := make([]byte, 0, len(p)+len(suffix))
	k = append(k, p...)
	return append(k, suffix...)
}
