package runtime

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/config"
	"github.com/m8ttyB/nearcore/types"
)

// BalanceCheckInputs collects every value this call to apply observed
// crossing the account/receipt boundary (spec §4.10). A receipt parked into
// the delayed queue or the postponed-receipt store debits this call's ledger
// on the right and credits a future call's ledger on the left when it is
// later drained or released, so the parked terms telescope away across a
// chain of chunks and the literal conservation law of spec §8 invariant 1
// holds end to end even though any single apply only ever sees one slice
// of it.
type BalanceCheckInputs struct {
	InitialAccounts map[common.AccountID]*types.Account
	FinalAccounts   map[common.AccountID]*types.Account

	Incoming          []types.Receipt
	DrainedDelayed    []types.Receipt
	ReleasedPostponed []types.Receipt

	// IncomingValidatorRewards is the sum of this call's
	// ValidatorAccountsUpdate.ValidatorRewards entries — the balance
	// UpdateValidatorAccounts credits into account.Locked (or, for an
	// unrewarded protocol treasury, account.Amount) before a single
	// receipt runs. It raises the final side of the ledger exactly once
	// per call, so it belongs on the initial side of the audit.
	IncomingValidatorRewards uint256.Int

	Outgoing       []types.Receipt
	NewlyDelayed   []types.Receipt
	NewlyPostponed []types.Receipt
}

// CheckBalance is the end-of-apply conservation audit (spec §4.10). A
// mismatch is never recoverable within the call: it means some component
// moved balance without going through checked arithmetic, or dropped a
// receipt on the floor.
func CheckBalance(in *BalanceCheckInputs, stats *types.ApplyStats) error {
	lhs := new(uint256.Int)
	rhs := new(uint256.Int)
	var err error

	for _, acc := range in.InitialAccounts {
		if lhs, err = addAccountBalance(lhs, acc); err != nil {
			return err
		}
	}
	for _, acc := range in.FinalAccounts {
		if rhs, err = addAccountBalance(rhs, acc); err != nil {
			return err
		}
	}

	for _, group := range [][]types.Receipt{in.Incoming, in.DrainedDelayed, in.ReleasedPostponed} {
		for i := range group {
			if lhs, err = addReceiptBalance(lhs, &group[i]); err != nil {
				return err
			}
		}
	}
	if lhs, err = config.SafeAddBalance(lhs, &in.IncomingValidatorRewards); err != nil {
		return IntegerOverflowError(err)
	}
	for _, group := range [][]types.Receipt{in.Outgoing, in.NewlyDelayed, in.NewlyPostponed} {
		for i := range group {
			if rhs, err = addReceiptBalance(rhs, &group[i]); err != nil {
				return err
			}
		}
	}

	if rhs, err = config.SafeAddBalance(rhs, &stats.TotalRentPaid); err != nil {
		return IntegerOverflowError(err)
	}
	if rhs, err = config.SafeAddBalance(rhs, &stats.TotalValidatorReward); err != nil {
		return IntegerOverflowError(err)
	}
	if rhs, err = config.SafeAddBalance(rhs, &stats.TotalBalanceBurnt); err != nil {
		return IntegerOverflowError(err)
	}
	if rhs, err = config.SafeAddBalance(rhs, &stats.TotalBalanceSlashed); err != nil {
		return IntegerOverflowError(err)
	}

	if lhs.Cmp(rhs) != 0 {
		return BalanceMismatchError(fmt.Sprintf("conservation check failed: lhs=%s rhs=%s", lhs, rhs))
	}
	return nil
}

func addAccountBalance(sum *uint256.Int, acc *types.Account) (*uint256.Int, error) {
	s, err := config.SafeAddBalance(sum, &acc.Amount)
	if err != nil {
		return nil, IntegerOverflowError(err)
	}
	return config.SafeAddBalance(s, &acc.Locked)
}

func addReceiptBalance(sum *uint256.Int, r *types.Receipt) (*uint256.Int, error) {
	if r.Kind != types.ReceiptAction || r.Action == nil {
		return sum, nil
	}
	var err error
	for i := range r.Action.Actions {
		a := &r.Action.Actions[i]
		deposit := a.DepositValue()
		sum, err = config.SafeAddBalance(sum, &deposit)
		if err != nil {
			return nil, IntegerOverflowError(err)
		}
		gas := a.PrepaidGas()
		if gas == 0 {
			continue
		}
		gasBalance, err := config.SafeGasToBalance(&r.Action.GasPrice, gas)
		if err != nil {
			return nil, IntegerOverflowError(err)
		}
		sum, err = config.SafeAddBalance(sum, gasBalance)
		if err != nil {
			return nil, IntegerOverflowError(err)
		}
	}
	return sum, nil
}
