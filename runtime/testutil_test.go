package runtime

import (
	"testing"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/ethdb"
	"github.com/m8ttyB/nearcore/trie"
)

// newTestState returns a fresh State backed by an in-memory trie.Store, for
// tests that need to exercise the full get/set/commit/finalize path without
// a leveldb file on disk.
func newTestState(t *testing.T) *State {
	t.Helper()
	db := ethdb.NewMemDatabase()
	update := trie.NewTrieUpdate(db, common.Hash{})
	return NewState(update)
}
