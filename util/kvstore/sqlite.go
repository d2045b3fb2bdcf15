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

package kvstore

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/algorand/go-zkvm/util/db"
)

func init() {
	kvImpls["sqlite"] = sqliteFactory{}
}

type sqliteFactory struct{}

func (sqliteFactory) New(dbdir string, inMem bool) (KVStore, error) {
	return NewSqliteDB(dbdir, inMem)
}

const sqliteSchema = "CREATE TABLE IF NOT EXISTS kv (k BLOB PRIMARY KEY, v BLOB NOT NULL)"

// SqliteDB implements KVStore over a single sqlite table.
type SqliteDB struct {
	pair db.Pair
}

// NewSqliteDB opens (creating if needed) dbdir+".sqlite". In-memory stores get a
// private name so that two of them never share the sqlite cache.
func NewSqliteDB(dbdir string, inMem bool) (*SqliteDB, error) {
	filename := dbdir + ".sqlite"
	if inMem {
		filename = "kv-" + uuid.NewString()
	}
	pair, err := db.OpenPair(filename, inMem)
	if err != nil {
		return nil, err
	}
	err = pair.Write("kvstore schema", func(tx *sql.Tx) error {
		_, err := tx.Exec(sqliteSchema)
		return err
	})
	if err != nil {
		pair.Close()
		return nil, err
	}
	return &SqliteDB{pair: pair}, nil
}

// Close closes both accessors
func (s *SqliteDB) Close() error {
	s.pair.Close()
	return nil
}

// Get a key
func (s *SqliteDB) Get(key []byte) (value []byte, err error) {
	err = s.pair.Read("kvstore get", func(tx *sql.Tx) error {
		return tx.QueryRow("SELECT v FROM kv WHERE k = ?", key).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return value, err
}

// Set a key to value
func (s *SqliteDB) Set(key, value []byte) error {
	return s.pair.Write("kvstore set", func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT OR REPLACE INTO kv (k, v) VALUES (?, ?)", key, value)
		return err
	})
}

type sqliteBatch struct {
	s       *SqliteDB
	pending []kvPair
}

type kvPair struct {
	key, value []byte
}

// NewBatch creates a batch writer; its writes land in one transaction on Commit
func (s *SqliteDB) NewBatch() BatchWriter { return &sqliteBatch{s: s} }

func (b *sqliteBatch) Set(key, value []byte) error {
	b.pending = append(b.pending, kvPair{key: append([]byte{}, key...), value: append([]byte{}, value...)})
	return nil
}

func (b *sqliteBatch) Commit() error {
	err := b.s.pair.Write("kvstore batch", func(tx *sql.Tx) error {
		stmt, err := tx.Prepare("INSERT OR REPLACE INTO kv (k, v) VALUES (?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range b.pending {
			if _, err := stmt.Exec(p.key, p.value); err != nil {
				return err
			}
		}
		return nil
	})
	b.pending = nil
	return err
}

func (b *sqliteBatch) Cancel() { b.pending = nil }

// NewIterator scans a snapshot of [start, end); either bound may be empty.
func (s *SqliteDB) NewIterator(start, end []byte) Iterator {
	var rows []kvPair
	err := s.pair.Read("kvstore scan", func(tx *sql.Tx) error {
		rows = rows[:0]
		query := "SELECT k, v FROM kv WHERE k >= ?"
		args := []interface{}{start}
		if start == nil {
			args[0] = []byte{}
		}
		if len(end) > 0 {
			query += " AND k < ?"
			args = append(args, end)
		}
		query += " ORDER BY k"
		r, err := tx.Query(query, args...)
		if err != nil {
			return err
		}
		defer r.Close()
		for r.Next() {
			var p kvPair
			if err := r.Scan(&p.key, &p.value); err != nil {
				return err
			}
			rows = append(rows, p)
		}
		return r.Err()
	})
	return &sliceIterator{rows: rows, err: err}
}

// sliceIterator walks a materialized, key-ordered snapshot.
type sliceIterator struct {
	rows []kvPair
	pos  int
	err  error
}

func (i *sliceIterator) Next()       { i.pos++ }
func (i *sliceIterator) Valid() bool { return i.err == nil && i.pos < len(i.rows) }
func (i *sliceIterator) Close()      { i.rows = nil }
func (i *sliceIterator) Key() []byte { return i.rows[i.pos].key }

func (i *sliceIterator) Value() ([]byte, error) {
	if i.err != nil {
		return nil, i.err
	}
	return i.rows[i.pos].value, nil
}
