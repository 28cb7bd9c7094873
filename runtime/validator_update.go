package runtime

import (
	"github.com/m8ttyB/nearcore/config"
	"github.com/m8ttyB/nearcore/trie"
	"github.com/m8ttyB/nearcore/types"
)

// UpdateValidatorAccounts applies rewards, releases excess stake, slashes,
// and credits the protocol treasury, exactly the four passes of spec §4.8.
func UpdateValidatorAccounts(state *State, stats *types.ApplyStats, u *types.ValidatorAccountsUpdate) error {
	rewardedTreasury := false

	for accountID, maxOfStakes := range u.StakeInfo {
		account, exists, err := state.GetAccount(accountID)
		if err != nil {
			return err
		}
		if !exists {
			return BalanceMismatchError("validator account " + string(accountID) + " does not exist")
		}

		if reward, ok := u.ValidatorRewards[accountID]; ok {
			newLocked, err := config.SafeAddBalance(&account.Locked, &reward)
			if err != nil {
				return IntegerOverflowError(err)
			}
			account.Locked = *newLocked
			if u.ProtocolTreasuryAccountID != nil && accountID == *u.ProtocolTreasuryAccountID {
				rewardedTreasury = true
			}
		}

		if account.Locked.Cmp(&maxOfStakes) < 0 {
			return BalanceMismatchError("validator " + string(accountID) + " locked balance below its proposed stake")
		}

		floor := maxOfStakes
		if last, ok := u.LastProposals[accountID]; ok && last.Cmp(&floor) > 0 {
			floor = last
		}
		returnStake, err := config.SafeSubBalance(&account.Locked, &floor)
		if err != nil {
			return IntegerOverflowError(err)
		}
		if returnStake.Sign() > 0 {
			newLocked, err := config.SafeSubBalance(&account.Locked, returnStake)
			if err != nil {
				return IntegerOverflowError(err)
			}
			newAmount, err := config.SafeAddBalance(&account.Amount, returnStake)
			if err != nil {
				return IntegerOverflowError(err)
			}
			account.Locked = *newLocked
			account.Amount = *newAmount
		}
		if err := state.PutAccount(accountID, account); err != nil {
			return err
		}
	}

	for accountID, slash := range u.SlashingInfo {
		account, exists, err := state.GetAccount(accountID)
		if err != nil {
			return err
		}
		if !exists {
			return BalanceMismatchError("slashed account " + string(accountID) + " does not exist")
		}
		amount := account.Locked
		if slash != nil {
			amount = *slash
		}
		if account.Locked.Cmp(&amount) < 0 {
			return BalanceMismatchError("slash amount exceeds " + string(accountID) + "'s locked balance")
		}
		newLocked, err := config.SafeSubBalance(&account.Locked, &amount)
		if err != nil {
			return IntegerOverflowError(err)
		}
		account.Locked = *newLocked
		newSlashed, err := config.SafeAddBalance(&stats.TotalBalanceSlashed, &amount)
		if err != nil {
			return IntegerOverflowError(err)
		}
		stats.TotalBalanceSlashed = *newSlashed
		if err := state.PutAccount(accountID, account); err != nil {
			return err
		}
	}

	if u.ProtocolTreasuryAccountID != nil && !rewardedTreasury {
		treasuryID := *u.ProtocolTreasuryAccountID
		if reward, ok := u.ValidatorRewards[treasuryID]; ok && reward.Sign() > 0 {
			account, exists, err := state.GetAccount(treasuryID)
			if err != nil {
				return err
			}
			if !exists {
				return BalanceMismatchError("protocol treasury account " + string(treasuryID) + " does not exist")
			}
			newAmount, err := config.SafeAddBalance(&account.Amount, &reward)
			if err != nil {
				return IntegerOverflowError(err)
			}
			account.Amount = *newAmount
			if err := state.PutAccount(treasuryID, account); err != nil {
				return err
			}
		}
	}

	return state.Commit(trie.ValidatorAccountsUpdateCause)
}
