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

package codecs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-zkvm/test/partitiontest"
)

type testValue struct {
	Bool   bool
	String string
	Int    int
	hidden int
}

func TestNonDefaultFields(t *testing.T) {
	partitiontest.PartitionTest(t)

	v := testValue{Bool: true, String: "default", Int: 1, hidden: 3}
	def := testValue{Bool: true, String: "default", Int: 2}

	fields, err := nonDefaultFields(v, def, nil)
	require.NoError(t, err)
	require.Equal(t, []namedValue{{"Int", 1}}, fields)

	fields, err = nonDefaultFields(v, def, []string{"Bool"})
	require.NoError(t, err)
	require.Equal(t, []namedValue{{"Bool", true}, {"Int", 1}}, fields)

	_, err = nonDefaultFields(v, struct{ Int int }{}, nil)
	require.Error(t, err)
}

func TestSaveNonDefaultValues(t *testing.T) {
	partitiontest.PartitionTest(t)

	filename := filepath.Join(t.TempDir(), "obj.json")
	v := testValue{Bool: true, String: "changed", Int: 2}
	def := testValue{Bool: true, String: "default", Int: 2}
	require.NoError(t, SaveNonDefaultValuesToFile(filename, v, def, []string{"Int"}, true))

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	require.Equal(t, "{\n\t\"String\": \"changed\",\n\t\"Int\": 2\n}\n", string(data))

	var loaded testValue
	require.NoError(t, LoadObjectFromFile(filename, &loaded))
	require.Equal(t, "changed", loaded.String)
	require.Equal(t, 2, loaded.Int)
	require.False(t, loaded.Bool)

	require.NoError(t, SaveNonDefaultValuesToFile(filename, def, def, nil, false))
	data, err = os.ReadFile(filename)
	require.NoError(t, err)
	require.Equal(t, "{}\n", string(data))
}

func TestSaveObjectToFile(t *testing.T) {
	partitiontest.PartitionTest(t)

	filename := filepath.Join(t.TempDir(), "obj.json")
	v := testValue{Bool: true, String: "s", Int: 7}
	require.NoError(t, SaveObjectToFile(filename, v, false))

	var loaded testValue
	require.NoError(t, LoadObjectFromFile(filename, &loaded))
	require.Equal(t, v, loaded)
}
