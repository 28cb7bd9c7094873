package runtime

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/config"
	"github.com/m8ttyB/nearcore/executor"
	"github.com/m8ttyB/nearcore/trie"
	"github.com/m8ttyB/nearcore/types"
)

func createAccountReceipt(receiverID common.AccountID) types.Receipt {
	return types.Receipt{
		PredecessorID: "alice",
		ReceiverID:    receiverID,
		ReceiptID:     common.BytesToHash([]byte(string(receiverID) + "-create")),
		Kind:          types.ReceiptAction,
		Action: &types.ActionReceipt{
			SignerID: "alice",
			Actions:  []types.Action{types.NewCreateAccount()},
		},
	}
}

func TestApplyRunsIncomingReceiptAndFinalizes(t *testing.T) {
	state := newTestState(t)
	cfg := config.DefaultRuntimeConfig()
	as := &types.ApplyState{BlockHeight: 1, EpochLength: 100, GasLimit: types.SomeGas(1 << 40)}

	result, err := Apply(state, cfg, executor.NewStub(), nil, as, nil, []types.Receipt{createAccountReceipt("charlie")}, nil, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(result.Outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(result.Outcomes))
	}
	if result.Outcomes[0].Status.Kind == types.StatusFailure {
		t.Fatalf("create-account outcome failed: %v", result.Outcomes[0].Status.Failure)
	}

	acc, exists, err := state.GetAccount("charlie")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !exists {
		t.Fatal("charlie was not created")
	}
	if acc.Amount.Sign() != 0 {
		t.Errorf("charlie's balance = %s, want 0", acc.Amount.String())
	}
}

func TestApplyDelaysReceiptsThatExceedTheGasBudget(t *testing.T) {
	state := newTestState(t)
	cfg := config.DefaultRuntimeConfig()
	as := &types.ApplyState{BlockHeight: 1, EpochLength: 100, GasLimit: types.SomeGas(0)}

	result, err := Apply(state, cfg, executor.NewStub(), nil, as, nil, []types.Receipt{createAccountReceipt("dave")}, nil, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(result.Outcomes) != 0 {
		t.Fatalf("got %d outcomes under a zero gas budget, want 0", len(result.Outcomes))
	}

	idx, err := state.GetDelayedReceiptIndices()
	if err != nil {
		t.Fatalf("GetDelayedReceiptIndices: %v", err)
	}
	if idx.NextAvailableIndex != 1 {
		t.Fatalf("next_available_index = %d, want 1 (receipt pushed to delayed queue)", idx.NextAvailableIndex)
	}

	if _, exists, err := state.GetAccount("dave"); err != nil {
		t.Fatalf("GetAccount: %v", err)
	} else if exists {
		t.Error("dave should not have been created while its receipt is delayed")
	}
}

func TestApplyRejectsInvalidIncomingReceipt(t *testing.T) {
	state := newTestState(t)
	cfg := config.DefaultRuntimeConfig()
	as := &types.ApplyState{BlockHeight: 1, EpochLength: 100, GasLimit: types.SomeGas(1 << 40)}

	bad := createAccountReceipt("!!!not-a-valid-account!!!")
	_, err := Apply(state, cfg, executor.NewStub(), nil, as, nil, []types.Receipt{bad}, nil, nil)
	if err == nil {
		t.Fatal("expected Apply to reject a receipt with an invalid receiver_id")
	}
}

func TestApplyAppliesValidatorAccountsUpdate(t *testing.T) {
	state := newTestState(t)
	cfg := config.DefaultRuntimeConfig()
	as := &types.ApplyState{BlockHeight: 1, EpochLength: 100, GasLimit: types.SomeGas(1 << 40)}

	if err := state.PutAccount("validator1", &types.Account{Locked: *uint256.NewInt(100)}); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}
	if err := state.Commit(trie.InitialState); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	update := &types.ValidatorAccountsUpdate{
		StakeInfo: map[common.AccountID]uint256.Int{"validator1": *uint256.NewInt(100)},
	}

	result, err := Apply(state, cfg, executor.NewStub(), nil, as, update, nil, nil, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(result.Outcomes) != 0 {
		t.Fatalf("got %d outcomes, want 0 for a validator-only apply", len(result.Outcomes))
	}

	acc, exists, err := state.GetAccount("validator1")
	if err != nil || !exists {
		t.Fatalf("GetAccount(validator1): exists=%v err=%v", exists, err)
	}
	if acc.Locked.Cmp(uint256.NewInt(100)) != 0 {
		t.Errorf("locked balance = %s, want unchanged 100 (stake == proposed max)", acc.Locked.String())
	}
}

// Every unit of gas a receipt burns earns the validator a reward, not just
// the share attributable to a function call (orig `validator_reward =
// gas_to_balance(gas_price, result.gas_burnt)`, computed unconditionally).
// A plain create-account receipt never runs a function call, so this would
// read zero under the old function-call-gated computation.
func TestApplyCreditsValidatorRewardForNonFunctionCallGas(t *testing.T) {
	state := newTestState(t)
	cfg := config.DefaultRuntimeConfig()
	as := &types.ApplyState{BlockHeight: 1, EpochLength: 100, GasLimit: types.SomeGas(1 << 40)}

	r := createAccountReceipt("erin")
	r.Action.GasPrice = *uint256.NewInt(1)

	result, err := Apply(state, cfg, executor.NewStub(), nil, as, nil, []types.Receipt{r}, nil, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.Stats.TotalValidatorReward.Sign() <= 0 {
		t.Errorf("TotalValidatorReward = %s, want > 0 for a gas-burning, function-call-free receipt", result.Stats.TotalValidatorReward.String())
	}
}

// A validator reward credited by UpdateValidatorAccounts raises the final
// side of the conservation ledger; apply.go matches it on the initial side
// through the audit's IncomingValidatorRewards, so a valid apply does not
// abort with a spurious balance mismatch. The stake info covers stake plus
// reward, so none of the reward is returned to the liquid amount.
func TestApplyAppliesValidatorAccountsUpdateWithReward(t *testing.T) {
	state := newTestState(t)
	cfg := config.DefaultRuntimeConfig()
	as := &types.ApplyState{BlockHeight: 1, EpochLength: 100, GasLimit: types.SomeGas(1 << 40)}

	if err := state.PutAccount("validator1", &types.Account{Locked: *uint256.NewInt(100)}); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}
	if err := state.Commit(trie.InitialState); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	update := &types.ValidatorAccountsUpdate{
		StakeInfo:        map[common.AccountID]uint256.Int{"validator1": *uint256.NewInt(10_000_100)},
		ValidatorRewards: map[common.AccountID]uint256.Int{"validator1": *uint256.NewInt(10_000_000)},
	}

	result, err := Apply(state, cfg, executor.NewStub(), nil, as, update, nil, nil, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	acc, exists, err := state.GetAccount("validator1")
	if err != nil || !exists {
		t.Fatalf("GetAccount(validator1): exists=%v err=%v", exists, err)
	}
	want := uint256.NewInt(100)
	want.Add(want, uint256.NewInt(10_000_000))
	if acc.Locked.Cmp(want) != 0 {
		t.Errorf("locked balance = %s, want %s (stake + reward)", acc.Locked.String(), want.String())
	}
	if result.Stats.TotalValidatorReward.Sign() != 0 {
		t.Errorf("TotalValidatorReward = %s, want 0 (this reward came from the validator update, not a dispatched receipt)", result.Stats.TotalValidatorReward.String())
	}
}
