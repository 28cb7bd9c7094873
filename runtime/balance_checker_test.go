package runtime

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/types"
)

func acct(amount, locked uint64) *types.Account {
	return &types.Account{Amount: *uint256.NewInt(amount), Locked: *uint256.NewInt(locked)}
}

func TestCheckBalanceConserved(t *testing.T) {
	in := &BalanceCheckInputs{
		InitialAccounts: map[common.AccountID]*types.Account{
			"alice": acct(100, 0),
		},
		FinalAccounts: map[common.AccountID]*types.Account{
			"alice": acct(40, 0),
		},
		Outgoing: []types.Receipt{
			{
				Kind: types.ReceiptAction,
				Action: &types.ActionReceipt{
					Actions: []types.Action{types.NewTransfer(*uint256.NewInt(60))},
				},
			},
		},
	}
	if err := CheckBalance(in, &types.ApplyStats{}); err != nil {
		t.Fatalf("CheckBalance: %v", err)
	}
}

func TestCheckBalanceDetectsLeak(t *testing.T) {
	in := &BalanceCheckInputs{
		InitialAccounts: map[common.AccountID]*types.Account{
			"alice": acct(100, 0),
		},
		FinalAccounts: map[common.AccountID]*types.Account{
			"alice": acct(40, 0),
		},
		// Missing the outgoing transfer receipt: 60 tokens vanish.
	}
	err := CheckBalance(in, &types.ApplyStats{})
	if err == nil {
		t.Fatal("CheckBalance: expected a balance mismatch error, got nil")
	}
}

func TestCheckBalanceAccountsForRentAndBurnt(t *testing.T) {
	in := &BalanceCheckInputs{
		InitialAccounts: map[common.AccountID]*types.Account{
			"alice": acct(100, 0),
		},
		FinalAccounts: map[common.AccountID]*types.Account{
			"alice": acct(70, 0),
		},
	}
	stats := &types.ApplyStats{
		TotalRentPaid:       *uint256.NewInt(20),
		TotalBalanceBurnt:   *uint256.NewInt(10),
	}
	if err := CheckBalance(in, stats); err != nil {
		t.Fatalf("CheckBalance: %v", err)
	}
}

func TestCheckBalanceNewlyPostponedDebitsRHS(t *testing.T) {
	receipt := types.Receipt{
		Kind: types.ReceiptAction,
		Action: &types.ActionReceipt{
			Actions: []types.Action{types.NewTransfer(*uint256.NewInt(25))},
		},
	}
	in := &BalanceCheckInputs{
		InitialAccounts: map[common.AccountID]*types.Account{
			"alice": acct(100, 0),
		},
		FinalAccounts: map[common.AccountID]*types.Account{
			"alice": acct(75, 0),
		},
		NewlyPostponed: []types.Receipt{receipt},
	}
	if err := CheckBalance(in, &types.ApplyStats{}); err != nil {
		t.Fatalf("CheckBalance: %v", err)
	}
}
