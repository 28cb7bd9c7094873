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

// Package trie is the reference implementation of the out-of-scope
// trie/state-store collaborator (spec §1, §6): get/set/remove over an
// ethdb.Database base (LDBDatabase or MemDatabase), with commit-cause
// journaling and a finalize step that yields the new root plus a staged,
// not-yet-applied write batch.
package trie

import (
	"bytes"
	"sort"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/crypto"
	"github.com/m8ttyB/nearcore/ethdb"
)

// Cause names a point in apply's control flow at which staged mutations move
// from "pending" to "committed" (spec §9 "transactional state").
type Cause string

const (
	TransactionProcessing          Cause = "TransactionProcessing"
	ActionReceiptProcessingStarted Cause = "ActionReceiptProcessingStarted"
	ReceiptProcessing              Cause = "ReceiptProcessing"
	ActionReceiptGasReward         Cause = "ActionReceiptGasReward"
	PostponedReceipt               Cause = "PostponedReceipt"
	ValidatorAccountsUpdateCause   Cause = "ValidatorAccountsUpdate"
	UpdatedDelayedReceipts         Cause = "UpdatedDelayedReceipts"
	InitialState                   Cause = "InitialState"
)

type kv struct {
	key    []byte
	value  []byte
	remove bool
}

// Store is the collaborator contract of spec §6: get/set/remove, commit with
// cause, rollback, finalize to a new root, and a per-cause change feed.
type Store interface {
	Get(key []byte) ([]byte, bool, error)
	Set(key, value []byte)
	Remove(key []byte)
	Commit(cause Cause) error
	Rollback()
	Finalize() (*Changes, error)
	CommittedUpdatesPerCause() map[Cause][]KeyValue
}

// KeyValue is one entry of a change-feed batch; Value == nil means deletion.
type KeyValue struct {
	Key   []byte
	Value []byte
}

// Changes is the result of Finalize: the new root plus the batch the caller
// must apply to the underlying store to publish it (spec §3 "Lifetime &
// ownership").
type Changes struct {
	NewRoot    common.Hash
	Insertions []KeyValue
	Deletions  [][]byte
}

// TrieUpdate is the single mutable authority over staged state during one
// apply call (spec §5 "Concurrency & Resource Model"). It reads through to
// base (read-only during apply) for keys it hasn't overlaid.
type TrieUpdate struct {
	base     ethdb.Database
	baseRoot common.Hash

	committed map[string]kv
	byCause   map[Cause][]kv
	pending   []kv
}

// NewTrieUpdate opens an update against base at baseRoot. baseRoot is
// opaque to this reference implementation (the real trie would use it to
// select which version of the store to read); it is threaded through purely
// so Finalize can report a root derived from it plus this update's changes.
func NewTrieUpdate(base ethdb.Database, baseRoot common.Hash) *TrieUpdate {
	return &TrieUpdate{
		base:      base,
		baseRoot:  baseRoot,
		committed: make(map[string]kv),
		byCause:   make(map[Cause][]kv),
	}
}

func (t *TrieUpdate) Get(key []byte) ([]byte, bool, error) {
	ks := string(key)
	for i := len(t.pending) - 1; i >= 0; i-- {
		if bytes.Equal(t.pending[i].key, key) {
			if t.pending[i].remove {
				return nil, false, nil
			}
			return t.pending[i].value, true, nil
		}
	}
	if v, ok := t.committed[ks]; ok {
		if v.remove {
			return nil, false, nil
		}
		return v.value, true, nil
	}
	val, err := t.base.Get(key)
	if err != nil {
		return nil, false, nil
	}
	return val, true, nil
}

func (t *TrieUpdate) Set(key, value []byte) {
	t.pending = append(t.pending, kv{key: common.CopyBytes(key), value: common.CopyBytes(value)})
}

func (t *TrieUpdate) Remove(key []byte) {
	t.pending = append(t.pending, kv{key: common.CopyBytes(key), remove: true})
}

// Commit moves every pending mutation into the committed set under cause,
// keeping only the last write per key (spec §9, §4.9 call sites).
func (t *TrieUpdate) Commit(cause Cause) error {
	if len(t.pending) == 0 {
		return nil
	}
	t.byCause[cause] = append(t.byCause[cause], t.pending...)
	for _, op := range t.pending {
		t.committed[string(op.key)] = op
	}
	t.pending = nil
	return nil
}

// Rollback discards only the uncommitted mutations since the last Commit —
// fine-grained rollback, per spec §7 propagation policy.
func (t *TrieUpdate) Rollback() {
	t.pending = nil
}

// Finalize derives the new root plus a staged write batch from the committed
// overlay. The overlay stays in place, so later reads through this
// TrieUpdate still see it and a later Finalize reports those writes again.
// It does not itself write to base; the caller (apply's
// orchestrator) owns publishing that batch (spec §5).
func (t *TrieUpdate) Finalize() (*Changes, error) {
	keys := make([]string, 0, len(t.committed))
	for k := range t.committed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	changes := &Changes{}
	hasher := [][]byte{t.baseRoot.Bytes()}
	for _, k := range keys {
		op := t.committed[k]
		if op.remove {
			changes.Deletions = append(changes.Deletions, op.key)
			hasher = append(hasher, op.key, []byte{0})
			continue
		}
		changes.Insertions = append(changes.Insertions, KeyValue{Key: op.key, Value: op.value})
		hasher = append(hasher, op.key, op.value)
	}
	changes.NewRoot = crypto.Keccak256Hash(hasher...)
	return changes, nil
}

func (t *TrieUpdate) CommittedUpdatesPerCause() map[Cause][]KeyValue {
	out := make(map[Cause][]KeyValue, len(t.byCause))
	for cause, ops := range t.byCause {
		list := make([]KeyValue, 0, len(ops))
		for _, op := range ops {
			if op.remove {
				list = append(list, KeyValue{Key: op.key})
				continue
			}
			list = append(list, KeyValue{Key: op.key, Value: op.value})
		}
		out[cause] = list
	}
	return out
}
