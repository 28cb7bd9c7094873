// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package main

import "github.com/m8ttyB/nearcore/ethdb"

// exportSnapshot copies every key currently in db into a brand-new leveldb
// store at dest: a consistent read-only view via LDBSnapshot, batched into
// the fresh store via RawLDBBatch, compacted once the copy lands. This is
// the --snapshot path for taking a point-in-time backup of a --datadir run
// without holding a write lock on the live database for the whole copy.
func exportSnapshot(db *ethdb.LDBDatabase, dest string) error {
	snap, err := db.LDBSnapshot()
	if err != nil {
		return err
	}
	defer snap.Release()

	rdb, err := ethdb.OpenNewRawLDB(dest)
	if err != nil {
		return err
	}
	defer rdb.Close()

	batch := ethdb.NewRawLDBBatch()
	iter := snap.FullIter()
	defer iter.Release()
	for iter.Next() {
		batch.Put(append([]byte(nil), iter.Key()...), append([]byte(nil), iter.Value()...))
	}
	if err := iter.Error(); err != nil {
		return err
	}
	if err := rdb.WriteBatch(batch, true); err != nil {
		return err
	}
	return rdb.CompactAll()
}
