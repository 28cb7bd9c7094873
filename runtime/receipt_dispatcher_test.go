package runtime

import (
	"testing"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/config"
	"github.com/m8ttyB/nearcore/executor"
	"github.com/m8ttyB/nearcore/types"
)

func TestDispatchPostponesReceiptMissingInputData(t *testing.T) {
	state := newTestState(t)
	cfg := config.DefaultRuntimeConfig()
	as := &types.ApplyState{BlockHeight: 1, EpochLength: 100}

	dataID := common.BytesToHash([]byte("awaited"))
	r := &types.Receipt{
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

	result, newlyPostponed, released, err := Dispatch(state, cfg, executor.NewStub(), as, r)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !newlyPostponed {
		t.Fatal("expected the receipt to be newly postponed")
	}
	if result != nil || released != nil {
		t.Fatalf("expected no result/released on postponement, got result=%v released=%v", result, released)
	}

	if _, found, err := state.GetPostponedReceipt("bob", r.ReceiptID); err != nil || !found {
		t.Fatalf("postponed receipt not stored: found=%v err=%v", found, err)
	}
}

func TestDispatchReleasesPostponedReceiptWhenDataArrives(t *testing.T) {
	state := newTestState(t)
	cfg := config.DefaultRuntimeConfig()
	as := &types.ApplyState{BlockHeight: 1, EpochLength: 100}

	dataID := common.BytesToHash([]byte("awaited"))
	r := &types.Receipt{
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
	if _, newlyPostponed, _, err := Dispatch(state, cfg, executor.NewStub(), as, r); err != nil || !newlyPostponed {
		t.Fatalf("setup: Dispatch newlyPostponed=%v err=%v", newlyPostponed, err)
	}

	dataReceipt := &types.Receipt{
		PredecessorID: "alice",
		ReceiverID:    "bob",
		ReceiptID:     common.BytesToHash([]byte("d1")),
		Kind:          types.ReceiptData,
		Data:          &types.DataReceipt{DataID: dataID, Data: types.SomeBytes([]byte("value"))},
	}
	result, newlyPostponed, released, err := Dispatch(state, cfg, executor.NewStub(), as, dataReceipt)
	if err != nil {
		t.Fatalf("Dispatch(data): %v", err)
	}
	if newlyPostponed {
		t.Fatal("a data receipt should never itself be reported as newly postponed")
	}
	if released == nil {
		t.Fatal("expected the waiting receipt to be released")
	}
	if released.ReceiptID != r.ReceiptID {
		t.Errorf("released receipt id = %s, want %s", released.ReceiptID, r.ReceiptID)
	}
	if result == nil {
		t.Fatal("expected a result once the postponed receipt ran")
	}
	if result.Outcome.Status.Kind == types.StatusFailure {
		t.Fatalf("released receipt failed: %v", result.Outcome.Status.Failure)
	}

	if _, found, err := state.GetPostponedReceipt("bob", r.ReceiptID); err != nil || found {
		t.Errorf("postponed receipt should be gone: found=%v err=%v", found, err)
	}
}
