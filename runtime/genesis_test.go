package runtime

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/config"
	"github.com/m8ttyB/nearcore/types"
)

func TestApplyGenesisStatePatchesStorageUsage(t *testing.T) {
	state := newTestState(t)
	cfg := config.DefaultRuntimeConfig()

	records := []StateRecord{
		{Kind: StateRecordAccount, AccountID: "alice", Account: &types.Account{Amount: *uint256.NewInt(1000)}},
		{Kind: StateRecordAccessKey, AccountID: "alice", PublicKey: "ed25519:alice-key", AccessKey: &types.AccessKey{Permission: types.FullAccess}},
		// A Data record naming "alice" arrives before its storage-usage
		// patch pass, same ordering SPEC_FULL §3 item 3 calls out.
		{Kind: StateRecordData, AccountID: "alice", DataID: common.BytesToHash([]byte("d1")), Data: []byte("hello")},
	}

	changes, err := ApplyGenesisState(state, cfg, nil, records)
	if err != nil {
		t.Fatalf("ApplyGenesisState: %v", err)
	}
	if changes == nil {
		t.Fatal("ApplyGenesisState returned nil changes")
	}

	acc, exists, err := state.GetAccount("alice")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !exists {
		t.Fatal("account alice missing after genesis load")
	}
	if acc.StorageUsage == 0 {
		t.Error("storage_usage was not patched onto alice's account")
	}

	ak, exists, err := state.GetAccessKey("alice", "ed25519:alice-key")
	if err != nil {
		t.Fatalf("GetAccessKey: %v", err)
	}
	if !exists {
		t.Fatal("access key missing after genesis load")
	}
	if ak.Permission != types.FullAccess {
		t.Errorf("access key permission = %v, want FullAccess", ak.Permission)
	}
}

func TestApplyGenesisStateOverwritesValidatorLockedBalance(t *testing.T) {
	state := newTestState(t)
	cfg := config.DefaultRuntimeConfig()

	records := []StateRecord{
		{Kind: StateRecordAccount, AccountID: "validator1", Account: &types.Account{Amount: *uint256.NewInt(500), Locked: *uint256.NewInt(1)}},
	}
	validators := []types.ValidatorStake{
		{AccountID: "validator1", Stake: *uint256.NewInt(250)},
	}

	if _, err := ApplyGenesisState(state, cfg, validators, records); err != nil {
		t.Fatalf("ApplyGenesisState: %v", err)
	}

	acc, exists, err := state.GetAccount("validator1")
	if err != nil || !exists {
		t.Fatalf("GetAccount(validator1): exists=%v err=%v", exists, err)
	}
	if acc.Locked.Cmp(uint256.NewInt(250)) != 0 {
		t.Errorf("locked balance = %s, want 250 (validator stake authoritative over record)", acc.Locked.String())
	}
}

func TestApplyGenesisStateRejectsMissingValidatorAccount(t *testing.T) {
	state := newTestState(t)
	cfg := config.DefaultRuntimeConfig()

	validators := []types.ValidatorStake{{AccountID: "ghost", Stake: *uint256.NewInt(1)}}
	if _, err := ApplyGenesisState(state, cfg, validators, nil); err == nil {
		t.Fatal("expected an error for a validator with no genesis account record")
	}
}

func TestApplyGenesisStateDelaysAlreadyJoinedPostponedReceipt(t *testing.T) {
	state := newTestState(t)
	cfg := config.DefaultRuntimeConfig()

	dataID := common.BytesToHash([]byte("d1"))
	receipt := &types.Receipt{
		PredecessorID: "alice",
		ReceiverID:    "bob",
		ReceiptID:     common.BytesToHash([]byte("r1")),
		Kind:          types.ReceiptAction,
		Action: &types.ActionReceipt{
			SignerID:     "alice",
			InputDataIDs: []common.Hash{dataID},
			Actions:      []types.Action{types.NewCreateAccount()},
		},
	}
	records := []StateRecord{
		{Kind: StateRecordAccount, AccountID: "bob", Account: types.NewAccount()},
		// The data this postponed receipt was waiting on already landed
		// elsewhere in the stream, so it has nothing left to wait for.
		{Kind: StateRecordData, AccountID: "bob", DataID: dataID, Data: []byte("ready")},
		{Kind: StateRecordPostponedReceipt, Receipt: receipt},
	}

	if _, err := ApplyGenesisState(state, cfg, nil, records); err != nil {
		t.Fatalf("ApplyGenesisState: %v", err)
	}

	idx, err := state.GetDelayedReceiptIndices()
	if err != nil {
		t.Fatalf("GetDelayedReceiptIndices: %v", err)
	}
	if idx.NextAvailableIndex != 1 {
		t.Fatalf("next_available_index = %d, want 1 (receipt pushed to delayed queue)", idx.NextAvailableIndex)
	}
	delayed, ok, err := state.GetDelayedReceipt(0)
	if err != nil || !ok {
		t.Fatalf("GetDelayedReceipt(0): ok=%v err=%v", ok, err)
	}
	if delayed.ReceiptID != receipt.ReceiptID {
		t.Errorf("delayed receipt id = %s, want %s", delayed.ReceiptID, receipt.ReceiptID)
	}

	if _, found, err := state.GetPostponedReceipt("bob", receipt.ReceiptID); err != nil || found {
		t.Errorf("receipt should not remain in the postponed store: found=%v err=%v", found, err)
	}
}
