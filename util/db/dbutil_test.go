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

package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-zkvm/test/partitiontest"
)

func TestInMemoryUniqueDB(t *testing.T) {
	partitiontest.PartitionTest(t)

	acc, err := MakeAccessor("fn.db", false, true)
	require.NoError(t, err)
	defer acc.Close()
	err = acc.Atomic("create", func(tx *sql.Tx) error {
		_, err := tx.Exec("create table Service (data blob)")
		return err
	})
	require.NoError(t, err)

	anotherAcc, err := MakeAccessor("fn2.db", false, true)
	require.NoError(t, err)
	defer anotherAcc.Close()
	err = anotherAcc.Atomic("count", func(tx *sql.Tx) error {
		var nrows int
		row := tx.QueryRow("select count(*) from Service")
		err := row.Scan(&nrows)
		if err == nil {
			return errors.New("table `Service` presents while it should not")
		}
		return nil
	})
	require.NoError(t, err)
}

func TestAtomicRollback(t *testing.T) {
	partitiontest.PartitionTest(t)

	fn := filepath.Join(t.TempDir(), "rollback.sqlite")
	acc, err := MakeAccessor(fn, false, false)
	require.NoError(t, err)
	defer acc.Close()

	err = acc.Atomic("create", func(tx *sql.Tx) error {
		_, err := tx.Exec("CREATE TABLE foo (a INTEGER)")
		return err
	})
	require.NoError(t, err)

	failure := errors.New("abort")
	err = acc.Atomic("insert", func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO foo (a) VALUES (1)"); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	err = acc.Atomic("panic", func(tx *sql.Tx) error {
		panic("boom")
	})
	require.EqualError(t, err, "boom")

	var count int
	err = acc.Atomic("count", func(tx *sql.Tx) error {
		return tx.QueryRow("SELECT count(*) FROM foo").Scan(&count)
	})
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestPairReadsWrites(t *testing.T) {
	partitiontest.PartitionTest(t)

	fn := filepath.Join(t.TempDir(), "pair.sqlite")
	p, err := OpenPair(fn, false)
	require.NoError(t, err)
	defer p.Close()

	err = p.Write("write", func(tx *sql.Tx) error {
		if _, err := tx.Exec("CREATE TABLE foo (a INTEGER)"); err != nil {
			return err
		}
		_, err := tx.Exec("INSERT INTO foo (a) VALUES (7)")
		return err
	})
	require.NoError(t, err)

	var a int
	err = p.Rdb.AtomicContext(context.Background(), "read", func(tx *sql.Tx) error {
		return tx.QueryRow("SELECT a FROM foo").Scan(&a)
	})
	require.NoError(t, err)
	require.Equal(t, 7, a)
}

func TestURI(t *testing.T) {
	partitiontest.PartitionTest(t)

	require.Equal(t, "file:x.db?_busy_timeout=1000&_synchronous=full&_txlock=immediate", URI("x.db", false, false))
	require.Equal(t, "file:x.db?_busy_timeout=1000&_synchronous=full&mode=memory&cache=shared", URI("x.db", true, true))
}
