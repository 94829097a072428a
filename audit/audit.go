// Copyright 2014 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package audit is an optional, debug-only append-only record of every
// RMI request/reply pair the monitor processed: fid, argument words
// and error code, keyed by a monotonic sequence number. It is never
// consulted by the monitor for correctness, only by operators and
// tests for post-hoc introspection and deterministic replay, the same
// role the teacher's rawdb plays for chain data.
package audit

import (
	"encoding/binary"
	"encoding/json"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

type Record struct {
	Seq  uint64   `json:"seq"`
	Fid  uint32   `json:"fid"`
	Args [5]uint64 `json:"args"`
	Err  uint8    `json:"err"`
}

// Log is a LevelDB-backed append log. A nil *Log is a valid no-op
// logger, so wiring it in is always optional.
type Log struct {
	db  *leveldb.DB
	seq uint64
}

// Open creates or reopens a LevelDB audit log at path.
func Open(path string) (*Log, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Log{db: db}, nil
}

// OpenMemory opens an in-memory (non-persistent) log, used by tests
// that want audit coverage without touching the filesystem, the same
// role the teacher's rawdb.NewMemoryDatabase plays for chain data.
func OpenMemory() (*Log, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &Log{db: db}, nil
}

func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

// Append records one RMI call. A nil Log is a silent no-op.
func (l *Log) Append(fid uint32, args [5]uint64, errCode uint8) error {
	if l == nil {
		return nil
	}
	rec := Record{Seq: l.seq, Fid: fid, Args: args, Err: errCode}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], l.seq)
	l.seq++
	return l.db.Put(key[:], data, nil)
}

// Replay iterates every recorded call in sequence order.
func (l *Log) Replay(fn func(Record)) error {
	if l == nil {
		return nil
	}
	iter := l.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		var rec Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return err
		}
		fn(rec)
	}
	return iter.Error()
}
