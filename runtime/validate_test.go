package runtime

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/config"
	"github.com/m8ttyB/nearcore/types"
)

func TestValidateReceiptRejectsBadReceiverID(t *testing.T) {
	cfg := config.DefaultRuntimeConfig()
	r := &types.Receipt{PredecessorID: "alice", ReceiverID: "NOT VALID", Kind: types.ReceiptAction, Action: &types.ActionReceipt{}}
	verr := ValidateReceipt(cfg, r)
	if verr == nil {
		t.Fatal("expected a validation error for an invalid receiver_id")
	}
	if verr.Kind != InvalidReceiverID {
		t.Errorf("kind = %v, want InvalidReceiverID", verr.Kind)
	}
}

func TestValidateReceiptRejectsTooManyActions(t *testing.T) {
	cfg := config.DefaultRuntimeConfig()
	actions := make([]types.Action, cfg.Limits.MaxActionsPerReceipt+1)
	for i := range actions {
		actions[i] = types.NewCreateAccount()
	}
	r := &types.Receipt{
		PredecessorID: "alice",
		ReceiverID:    "bob",
		Kind:          types.ReceiptAction,
		Action:        &types.ActionReceipt{Actions: actions},
	}
	verr := ValidateReceipt(cfg, r)
	if verr == nil || verr.Kind != TooManyActions {
		t.Fatalf("ValidateReceipt = %v, want TooManyActions", verr)
	}
}

func TestValidateReceiptRejectsOversizedMethodName(t *testing.T) {
	cfg := config.DefaultRuntimeConfig()
	longName := make([]byte, cfg.Limits.MaxMethodNameLength+1)
	for i := range longName {
		longName[i] = 'a'
	}
	r := &types.Receipt{
		PredecessorID: "alice",
		ReceiverID:    "bob",
		Kind:          types.ReceiptAction,
		Action: &types.ActionReceipt{
			Actions: []types.Action{types.NewFunctionCall(string(longName), nil, 0, uint256.Int{})},
		},
	}
	verr := ValidateReceipt(cfg, r)
	if verr == nil || verr.Kind != MethodNameTooLong {
		t.Fatalf("ValidateReceipt = %v, want MethodNameTooLong", verr)
	}
}

func TestValidateReceiptAllowsSystemPredecessor(t *testing.T) {
	cfg := config.DefaultRuntimeConfig()
	r := &types.Receipt{
		PredecessorID: common.SystemAccount,
		ReceiverID:    "bob",
		Kind:          types.ReceiptAction,
		Action:        &types.ActionReceipt{Actions: []types.Action{types.NewCreateAccount()}},
	}
	if verr := ValidateReceipt(cfg, r); verr != nil {
		t.Fatalf("ValidateReceipt rejected a system-originated receipt: %v", verr)
	}
}
