package runtime

import (
	"testing"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/types"
)

func testReceipt(receiverID common.AccountID) *types.Receipt {
	return &types.Receipt{
		PredecessorID: common.SystemAccount,
		ReceiverID:    receiverID,
		ReceiptID:     common.BytesToHash([]byte(receiverID)),
		Kind:          types.ReceiptAction,
		Action: &types.ActionReceipt{
			SignerID: common.SystemAccount,
			Actions:  []types.Action{types.NewCreateAccount()},
		},
	}
}

func TestDelayReceiptFIFOOrder(t *testing.T) {
	state := newTestState(t)

	for _, id := range []common.AccountID{"alice", "bob", "carol"} {
		if err := DelayReceipt(state, testReceipt(id)); err != nil {
			t.Fatalf("DelayReceipt(%s): %v", id, err)
		}
	}

	var drained []common.AccountID
	err := DrainDelayedReceipts(state, func(*types.Receipt) bool { return true }, func(r *types.Receipt) error {
		drained = append(drained, r.ReceiverID)
		return nil
	})
	if err != nil {
		t.Fatalf("DrainDelayedReceipts: %v", err)
	}

	want := []common.AccountID{"alice", "bob", "carol"}
	if len(drained) != len(want) {
		t.Fatalf("drained %v, want %v", drained, want)
	}
	for i := range want {
		if drained[i] != want[i] {
			t.Errorf("drained[%d] = %s, want %s", i, drained[i], want[i])
		}
	}

	idx, err := state.GetDelayedReceiptIndices()
	if err != nil {
		t.Fatalf("GetDelayedReceiptIndices: %v", err)
	}
	if idx.FirstIndex != idx.NextAvailableIndex {
		t.Errorf("queue not empty after full drain: first=%d next=%d", idx.FirstIndex, idx.NextAvailableIndex)
	}
}

func TestDrainDelayedReceiptsStopsAtBudget(t *testing.T) {
	state := newTestState(t)
	for _, id := range []common.AccountID{"alice", "bob"} {
		if err := DelayReceipt(state, testReceipt(id)); err != nil {
			t.Fatalf("DelayReceipt(%s): %v", id, err)
		}
	}

	calls := 0
	err := DrainDelayedReceipts(state, func(*types.Receipt) bool { return calls == 0 }, func(r *types.Receipt) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("DrainDelayedReceipts: %v", err)
	}
	if calls != 1 {
		t.Fatalf("process called %d times, want 1", calls)
	}

	idx, err := state.GetDelayedReceiptIndices()
	if err != nil {
		t.Fatalf("GetDelayedReceiptIndices: %v", err)
	}
	if idx.FirstIndex != 1 || idx.NextAvailableIndex != 2 {
		t.Errorf("queue left at first=%d next=%d, want first=1 next=2", idx.FirstIndex, idx.NextAvailableIndex)
	}

	remaining, ok, err := state.GetDelayedReceipt(idx.FirstIndex)
	if err != nil || !ok {
		t.Fatalf("GetDelayedReceipt(%d): ok=%v err=%v", idx.FirstIndex, ok, err)
	}
	if remaining.ReceiverID != "bob" {
		t.Errorf("undrained receipt receiver = %s, want bob", remaining.ReceiverID)
	}
}
