package runtime

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/types"
)

func TestUpdateValidatorAccountsReturnsExcessStake(t *testing.T) {
	state := newTestState(t)
	if err := state.PutAccount("v1", &types.Account{Amount: *uint256.NewInt(10), Locked: *uint256.NewInt(100)}); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}

	stats := &types.ApplyStats{}
	update := &types.ValidatorAccountsUpdate{
		StakeInfo: map[common.AccountID]uint256.Int{"v1": *uint256.NewInt(60)},
	}
	if err := UpdateValidatorAccounts(state, stats, update); err != nil {
		t.Fatalf("UpdateValidatorAccounts: %v", err)
	}

	acc, exists, err := state.GetAccount("v1")
	if err != nil || !exists {
		t.Fatalf("GetAccount(v1): exists=%v err=%v", exists, err)
	}
	if acc.Locked.Cmp(uint256.NewInt(60)) != 0 {
		t.Errorf("locked = %s, want 60", acc.Locked.String())
	}
	if acc.Amount.Cmp(uint256.NewInt(50)) != 0 {
		t.Errorf("amount = %s, want 50 (10 + 40 returned)", acc.Amount.String())
	}
}

func TestUpdateValidatorAccountsAppliesReward(t *testing.T) {
	state := newTestState(t)
	if err := state.PutAccount("v1", &types.Account{Locked: *uint256.NewInt(100)}); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}

	stats := &types.ApplyStats{}
	update := &types.ValidatorAccountsUpdate{
		StakeInfo:        map[common.AccountID]uint256.Int{"v1": *uint256.NewInt(105)},
		ValidatorRewards: map[common.AccountID]uint256.Int{"v1": *uint256.NewInt(5)},
	}
	if err := UpdateValidatorAccounts(state, stats, update); err != nil {
		t.Fatalf("UpdateValidatorAccounts: %v", err)
	}

	acc, exists, err := state.GetAccount("v1")
	if err != nil || !exists {
		t.Fatalf("GetAccount(v1): exists=%v err=%v", exists, err)
	}
	if acc.Locked.Cmp(uint256.NewInt(105)) != 0 {
		t.Errorf("locked = %s, want 105 (100 + 5 reward)", acc.Locked.String())
	}
}

func TestUpdateValidatorAccountsSlashesFully(t *testing.T) {
	state := newTestState(t)
	if err := state.PutAccount("v1", &types.Account{Locked: *uint256.NewInt(100)}); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}

	stats := &types.ApplyStats{}
	update := &types.ValidatorAccountsUpdate{
		SlashingInfo: map[common.AccountID]*uint256.Int{"v1": nil},
	}
	if err := UpdateValidatorAccounts(state, stats, update); err != nil {
		t.Fatalf("UpdateValidatorAccounts: %v", err)
	}

	acc, exists, err := state.GetAccount("v1")
	if err != nil || !exists {
		t.Fatalf("GetAccount(v1): exists=%v err=%v", exists, err)
	}
	if acc.Locked.Sign() != 0 {
		t.Errorf("locked = %s, want 0 after full slash", acc.Locked.String())
	}
	if stats.TotalBalanceSlashed.Cmp(uint256.NewInt(100)) != 0 {
		t.Errorf("TotalBalanceSlashed = %s, want 100", stats.TotalBalanceSlashed.String())
	}
}

func TestUpdateValidatorAccountsRejectsMissingAccount(t *testing.T) {
	state := newTestState(t)
	stats := &types.ApplyStats{}
	update := &types.ValidatorAccountsUpdate{
		StakeInfo: map[common.AccountID]uint256.Int{"ghost": *uint256.NewInt(1)},
	}
	if err := UpdateValidatorAccounts(state, stats, update); err == nil {
		t.Fatal("expected an error for a validator with no existing account")
	}
}
