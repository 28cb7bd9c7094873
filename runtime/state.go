package runtime

import (
	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/rlp"
	"github.com/m8ttyB/nearcore/trie"
	"github.com/m8ttyB/nearcore/types"
)

// State is the thin RLP marshaling layer between the runtime package's
// typed records and trie.Store's flat byte-key interface — the generalized
// analogue of the teacher's *state.StateDB, minus account tries and the
// EVM-specific parts of that type.
type State struct {
	store trie.Store

	touched map[common.AccountID]*types.Account
}

func NewState(store trie.Store) *State { return &State{store: store} }

// ResetTouched clears the touched-account ledger CheckBalance reads, the
// bookkeeping the balance audit (spec §4.10) needs at apply call boundaries.
func (s *State) ResetTouched() { s.touched = nil }

// TouchedAccounts returns the first-seen snapshot of every account GetAccount
// read since the last ResetTouched, keyed by id. Accounts never read this
// call don't change balance and are correctly omitted from the audit.
func (s *State) TouchedAccounts() map[common.AccountID]*types.Account {
	out := make(map[common.AccountID]*types.Account, len(s.touched))
	for id, acc := range s.touched {
		out[id] = acc
	}
	return out
}

func (s *State) recordTouched(id common.AccountID, acc *types.Account) {
	if s.touched == nil {
		s.touched = make(map[common.AccountID]*types.Account)
	}
	if _, ok := s.touched[id]; ok {
		return
	}
	if acc == nil {
		s.touched[id] = types.NewAccount()
		return
	}
	snapshot := *acc
	s.touched[id] = &snapshot
}

// FinalAccountSnapshots re-reads the current value of every account touched
// since the last ResetTouched, for the balance audit's closing side. It does
// not perturb the touched ledger itself.
func (s *State) FinalAccountSnapshots() (map[common.AccountID]*types.Account, error) {
	out := make(map[common.AccountID]*types.Account, len(s.touched))
	for id := range s.touched {
		raw, ok, err := s.store.Get(trie.AccountKey(id))
		if err != nil {
			return nil, StorageError("reading account "+string(id), err)
		}
		if !ok {
			out[id] = types.NewAccount()
			continue
		}
		var acc types.Account
		if err := rlp.DecodeBytes(raw, &acc); err != nil {
			return nil, StorageError("decoding account "+string(id), err)
		}
		out[id] = &acc
	}
	return out, nil
}

func (s *State) GetAccount(id common.AccountID) (*types.Account, bool, error) {
	raw, ok, err := s.store.Get(trie.AccountKey(id))
	if err != nil {
		return nil, false, StorageError("reading account "+string(id), err)
	}
	if !ok {
		s.recordTouched(id, nil)
		return nil, false, nil
	}
	var acc types.Account
	if err := rlp.DecodeBytes(raw, &acc); err != nil {
		return nil, false, StorageError("decoding account "+string(id), err)
	}
	s.recordTouched(id, &acc)
	return &acc, true, nil
}

func (s *State) PutAccount(id common.AccountID, acc *types.Account) error {
	raw, err := rlp.EncodeToBytes(acc)
	if err != nil {
		return StorageError("encoding account "+string(id), err)
	}
	s.store.Set(trie.AccountKey(id), raw)
	return nil
}

func (s *State) RemoveAccount(id common.AccountID) {
	s.store.Remove(trie.AccountKey(id))
}

// GetCode and PutCode store the contract bytecode an account's code_hash
// points at, content-addressed so identical contracts across accounts
// share one blob.
func (s *State) GetCode(codeHash common.Hash) ([]byte, bool, error) {
	raw, ok, err := s.store.Get(trie.CodeKey(codeHash))
	if err != nil {
		return nil, false, StorageError("reading code "+codeHash.String(), err)
	}
	return raw, ok, nil
}

func (s *State) PutCode(codeHash common.Hash, code []byte) {
	s.store.Set(trie.CodeKey(codeHash), code)
}

func (s *State) GetAccessKey(id common.AccountID, pk types.PublicKey) (*types.AccessKey, bool, error) {
	raw, ok, err := s.store.Get(trie.AccessKeyKey(id, string(pk)))
	if err != nil {
		return nil, false, StorageError("reading access key", err)
	}
	if !ok {
		return nil, false, nil
	}
	var ak types.AccessKey
	if err := rlp.DecodeBytes(raw, &ak); err != nil {
		return nil, false, StorageError("decoding access key", err)
	}
	return &ak, true, nil
}

func (s *State) PutAccessKey(id common.AccountID, pk types.PublicKey, ak *types.AccessKey) error {
	raw, err := rlp.EncodeToBytes(ak)
	if err != nil {
		return StorageError("encoding access key", err)
	}
	s.store.Set(trie.AccessKeyKey(id, string(pk)), raw)
	return nil
}

func (s *State) RemoveAccessKey(id common.AccountID, pk types.PublicKey) {
	s.store.Remove(trie.AccessKeyKey(id, string(pk)))
}

// ReceivedData: received_data[account, data_id] -> Option<bytes> (spec §3).
func (s *State) GetReceivedData(account common.AccountID, dataID common.Hash) (types.OptionalBytes, bool, error) {
	raw, ok, err := s.store.Get(trie.ReceivedDataKey(account, dataID))
	if err != nil {
		return types.OptionalBytes{}, false, StorageError("reading received data", err)
	}
	if !ok {
		return types.OptionalBytes{}, false, nil
	}
	var ob types.OptionalBytes
	if err := rlp.DecodeBytes(raw, &ob); err != nil {
		return types.OptionalBytes{}, false, StorageError("decoding received data", err)
	}
	return ob, true, nil
}

func (s *State) PutReceivedData(account common.AccountID, dataID common.Hash, data types.OptionalBytes) error {
	raw, err := rlp.EncodeToBytes(&data)
	if err != nil {
		return StorageError("encoding received data", err)
	}
	s.store.Set(trie.ReceivedDataKey(account, dataID), raw)
	return nil
}

func (s *State) RemoveReceivedData(account common.AccountID, dataID common.Hash) {
	s.store.Remove(trie.ReceivedDataKey(account, dataID))
}

// Postponed receipt bookkeeping (spec §3, §4.6).
func (s *State) GetPostponedReceiptID(account common.AccountID, dataID common.Hash) (common.Hash, bool, error) {
	raw, ok, err := s.store.Get(trie.PostponedReceiptIDKey(account, dataID))
	if err != nil {
		return common.Hash{}, false, StorageError("reading postponed receipt id", err)
	}
	if !ok {
		return common.Hash{}, false, nil
	}
	return common.BytesToHash(raw), true, nil
}

func (s *State) PutPostponedReceiptID(account common.AccountID, dataID, receiptID common.Hash) {
	s.store.Set(trie.PostponedReceiptIDKey(account, dataID), receiptID.Bytes())
}

func (s *State) RemovePostponedReceiptID(account common.AccountID, dataID common.Hash) {
	s.store.Remove(trie.PostponedReceiptIDKey(account, dataID))
}

func (s *State) GetPendingDataCount(account common.AccountID, receiptID common.Hash) (uint32, bool, error) {
	raw, ok, err := s.store.Get(trie.PendingDataCountKey(account, receiptID))
	if err != nil {
		return 0, false, StorageError("reading pending data count", err)
	}
	if !ok || len(raw) != 4 {
		return 0, ok, nil
	}
	return uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3]), true, nil
}

func (s *State) PutPendingDataCount(account common.AccountID, receiptID common.Hash, count uint32) {
	b := []byte{byte(count >> 24), byte(count >> 16), byte(count >> 8), byte(count)}
	s.store.Set(trie.PendingDataCountKey(account, receiptID), b)
}

func (s *State) RemovePendingDataCount(account common.AccountID, receiptID common.Hash) {
	s.store.Remove(trie.PendingDataCountKey(account, receiptID))
}

func (s *State) GetPostponedReceipt(account common.AccountID, receiptID common.Hash) (*types.Receipt, bool, error) {
	raw, ok, err := s.store.Get(trie.PostponedReceiptKey(account, receiptID))
	if err != nil {
		return nil, false, StorageError("reading postponed receipt", err)
	}
	if !ok {
		return nil, false, nil
	}
	var r types.Receipt
	if err := rlp.DecodeBytes(raw, &r); err != nil {
		return nil, false, StorageError("decoding postponed receipt", err)
	}
	return &r, true, nil
}

func (s *State) PutPostponedReceipt(account common.AccountID, receiptID common.Hash, r *types.Receipt) error {
	raw, err := rlp.EncodeToBytes(r)
	if err != nil {
		return StorageError("encoding postponed receipt", err)
	}
	s.store.Set(trie.PostponedReceiptKey(account, receiptID), raw)
	return nil
}

func (s *State) RemovePostponedReceipt(account common.AccountID, receiptID common.Hash) {
	s.store.Remove(trie.PostponedReceiptKey(account, receiptID))
}

// Delayed-receipt queue (spec §3, §4.7).
func (s *State) GetDelayedReceiptIndices() (types.DelayedReceiptIndices, error) {
	raw, ok, err := s.store.Get(trie.DelayedReceiptIndicesKey)
	if err != nil {
		return types.DelayedReceiptIndices{}, StorageError("reading delayed receipt indices", err)
	}
	if !ok {
		return types.DelayedReceiptIndices{}, nil
	}
	var idx types.DelayedReceiptIndices
	if err := rlp.DecodeBytes(raw, &idx); err != nil {
		return types.DelayedReceiptIndices{}, StorageError("decoding delayed receipt indices", err)
	}
	return idx, nil
}

func (s *State) PutDelayedReceiptIndices(idx types.DelayedReceiptIndices) error {
	raw, err := rlp.EncodeToBytes(&idx)
	if err != nil {
		return StorageError("encoding delayed receipt indices", err)
	}
	s.store.Set(trie.DelayedReceiptIndicesKey, raw)
	return nil
}

func (s *State) GetDelayedReceipt(i uint64) (*types.Receipt, bool, error) {
	raw, ok, err := s.store.Get(trie.DelayedReceiptKey(i))
	if err != nil {
		return nil, false, StorageError("reading delayed receipt", err)
	}
	if !ok {
		return nil, false, nil
	}
	var r types.Receipt
	if err := rlp.DecodeBytes(raw, &r); err != nil {
		return nil, false, StorageError("decoding delayed receipt", err)
	}
	return &r, true, nil
}

func (s *State) PutDelayedReceipt(i uint64, r *types.Receipt) error {
	raw, err := rlp.EncodeToBytes(r)
	if err != nil {
		return StorageError("encoding delayed receipt", err)
	}
	s.store.Set(trie.DelayedReceiptKey(i), raw)
	return nil
}

func (s *State) RemoveDelayedReceipt(i uint64) {
	s.store.Remove(trie.DelayedReceiptKey(i))
}

func (s *State) Commit(cause trie.Cause) error { return s.store.Commit(cause) }
func (s *State) Rollback()                      { s.store.Rollback() }

// Finalize closes out the apply call, producing the new root and the write
// batch the caller must publish (spec §5, §6).
func (s *State) Finalize() (*trie.Changes, error) { return s.store.Finalize() }

// CommittedUpdatesPerCause exposes the per-cause change feed the host chain
// consumes for indexing (spec §9).
func (s *State) CommittedUpdatesPerCause() map[trie.Cause][]trie.KeyValue {
	return s.store.CommittedUpdatesPerCause()
}
