package runtime

import (
	"github.com/holiman/uint256"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/config"
	"github.com/m8ttyB/nearcore/executor"
	"github.com/m8ttyB/nearcore/logger"
	"github.com/m8ttyB/nearcore/logger/glog"
	"github.com/m8ttyB/nearcore/metrics"
	"github.com/m8ttyB/nearcore/trie"
	"github.com/m8ttyB/nearcore/types"
	"github.com/m8ttyB/nearcore/verifier"
)

// IsLocalAccount decides whether a receipt addressed to account belongs to
// this call's shard and should dispatch now, or must leave as an outgoing
// receipt for the caller to route elsewhere. Consensus, block production,
// and the routing decision itself are out of scope here (spec §1
// Non-goals) — the engine only classifies. A nil predicate treats every
// receipt as local, the single-shard configuration.
type IsLocalAccount func(common.AccountID) bool

// Apply is the engine's entry point (spec §6). Control flow is fixed by
// spec §2/§4.9: validator accounts update, then transactions, then local
// receipts under the gas budget, then the delayed queue under whatever
// budget remains, then incoming receipts under whatever budget remains
// after that, then the balance audit and trie finalization.
func Apply(
	state *State,
	cfg *config.RuntimeConfig,
	contract executor.Contract,
	v verifier.Verifier,
	as *types.ApplyState,
	validatorUpdate *types.ValidatorAccountsUpdate,
	incomingReceipts []types.Receipt,
	transactions []*types.SignedTransaction,
	isLocal IsLocalAccount,
) (*types.ApplyResult, error) {
	if isLocal == nil {
		isLocal = func(common.AccountID) bool { return true }
	}
	state.ResetTouched()

	stats := &types.ApplyStats{}
	var outcomes []types.ExecutionOutcome
	var outgoingReceipts []types.Receipt
	var validatorProposals []types.ValidatorStake
	audit := &BalanceCheckInputs{}

	var totalGasBurnt config.Gas
	gasLimit := as.GasLimit.Get()
	hasBudget := func() bool { return totalGasBurnt < gasLimit }

	addGas := func(g config.Gas) error {
		sum, err := config.SafeAddGas(totalGasBurnt, g)
		if err != nil {
			return IntegerOverflowError(err)
		}
		totalGasBurnt = sum
		return nil
	}
	addRent := func(amount *uint256.Int) error {
		sum, err := config.SafeAddBalance(&stats.TotalRentPaid, amount)
		if err != nil {
			return IntegerOverflowError(err)
		}
		stats.TotalRentPaid = *sum
		return nil
	}
	addReward := func(amount *uint256.Int) error {
		sum, err := config.SafeAddBalance(&stats.TotalValidatorReward, amount)
		if err != nil {
			return IntegerOverflowError(err)
		}
		stats.TotalValidatorReward = *sum
		return nil
	}
	addBurnt := func(amount *uint256.Int) error {
		sum, err := config.SafeAddBalance(&stats.TotalBalanceBurnt, amount)
		if err != nil {
			return IntegerOverflowError(err)
		}
		stats.TotalBalanceBurnt = *sum
		return nil
	}

	var localQueue []types.Receipt
	pushLocalOrOutgoing := func(r types.Receipt) {
		if isLocal(r.ReceiverID) {
			localQueue = append(localQueue, r)
			return
		}
		outgoingReceipts = append(outgoingReceipts, r)
		audit.Outgoing = append(audit.Outgoing, r)
	}

	// runOne dispatches a single receipt that has already cleared the gas
	// budget check, folding its outcome, stats, proposals, and any receipts
	// it spawned into the running totals (spec §4.6, §4.9).
	runOne := func(r *types.Receipt) error {
		result, newlyPostponed, released, err := Dispatch(state, cfg, contract, as, r)
		if err != nil {
			return err
		}
		if newlyPostponed {
			audit.NewlyPostponed = append(audit.NewlyPostponed, *r)
			return nil
		}
		if released != nil {
			audit.ReleasedPostponed = append(audit.ReleasedPostponed, *released)
		}
		if result == nil {
			return nil
		}
		if err := addGas(result.Outcome.GasBurnt); err != nil {
			return err
		}
		if err := addReward(&result.ValidatorReward); err != nil {
			return err
		}
		if err := addRent(&result.RentPaid); err != nil {
			return err
		}
		if err := addBurnt(&result.BalanceBurnt); err != nil {
			return err
		}
		outcomes = append(outcomes, result.Outcome)
		validatorProposals = append(validatorProposals, result.ValidatorProposals...)
		for _, nr := range result.OutgoingReceipts {
			pushLocalOrOutgoing(nr)
		}
		return nil
	}

	// drainLocal processes local receipts in generation order (spec §5
	// ordering guarantee b) until the queue empties or the budget runs out;
	// anything that doesn't fit overflows to the delayed queue (spec §4.7,
	// §4.9). Receipts any of these calls spawn are appended to localQueue's
	// tail and drained in the same pass, so cascades never escape the
	// budget check.
	drainLocal := func() error {
		for len(localQueue) > 0 {
			r := localQueue[0]
			localQueue = localQueue[1:]
			if !hasBudget() {
				if err := DelayReceipt(state, &r); err != nil {
					return err
				}
				audit.NewlyDelayed = append(audit.NewlyDelayed, r)
				continue
			}
			if err := runOne(&r); err != nil {
				return err
			}
		}
		return nil
	}

	// Step 1: validator accounts update (spec §4.8).
	if validatorUpdate != nil {
		if err := UpdateValidatorAccounts(state, stats, validatorUpdate); err != nil {
			return nil, err
		}
		for _, reward := range validatorUpdate.ValidatorRewards {
			r := reward
			sum, err := config.SafeAddBalance(&audit.IncomingValidatorRewards, &r)
			if err != nil {
				return nil, IntegerOverflowError(err)
			}
			audit.IncomingValidatorRewards = *sum
		}
	}

	// Step 2: transactions, in input order (spec §5 ordering guarantee a).
	for _, tx := range transactions {
		pt, err := ProcessTransaction(state, cfg, v, &as.GasPrice, tx)
		if err != nil {
			metrics.TransactionProcessedFailureTotal.Inc(1)
			glog.V(logger.Warn).Infof("runtime: apply aborting on invalid tx %s: %v", tx.Hash(), err)
			return nil, err
		}
		metrics.TransactionProcessedSuccessTotal.Inc(1)
		if err := addGas(pt.Outcome.GasBurnt); err != nil {
			return nil, err
		}
		if err := addRent(&pt.RentPaid); err != nil {
			return nil, err
		}
		if err := addReward(&pt.ValidatorReward); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, pt.Outcome)
		audit.Incoming = append(audit.Incoming, pt.Receipt)
		pushLocalOrOutgoing(pt.Receipt)
	}

	// Step 3: local receipts.
	if err := drainLocal(); err != nil {
		return nil, err
	}

	// Step 4: drain the delayed-receipt queue under whatever budget
	// remains (spec §4.7, §5 ordering guarantee c). A delayed entry that
	// fails validation is a state inconsistency, not a normal rejection
	// (spec §8 scenario "Invalid delayed receipt").
	if err := DrainDelayedReceipts(state, func(r *types.Receipt) bool { return hasBudget() }, func(r *types.Receipt) error {
		if verr := ValidateReceipt(cfg, r); verr != nil {
			return StorageError("delayed receipt "+r.ReceiptID.String()+" in the state is invalid: "+verr.Error(), nil)
		}
		audit.DrainedDelayed = append(audit.DrainedDelayed, *r)
		return runOne(r)
	}); err != nil {
		return nil, err
	}
	if err := drainLocal(); err != nil {
		return nil, err
	}

	// Step 5: incoming receipts, in input order (spec §5 ordering guarantee
	// d). Validation here is the externally-originated gate of spec §6; a
	// failure aborts the whole apply (spec §7 category 1, §8 scenario
	// "Invalid incoming receipt").
	for i := range incomingReceipts {
		r := incomingReceipts[i]
		if verr := ValidateReceipt(cfg, &r); verr != nil {
			return nil, verr
		}
		audit.Incoming = append(audit.Incoming, r)
		if !hasBudget() {
			if err := DelayReceipt(state, &r); err != nil {
				return nil, err
			}
			audit.NewlyDelayed = append(audit.NewlyDelayed, r)
			continue
		}
		if err := runOne(&r); err != nil {
			return nil, err
		}
	}
	if err := drainLocal(); err != nil {
		return nil, err
	}

	// Step 6: balance audit (spec §4.10, §8 invariant 1), then finalize.
	initial := state.TouchedAccounts()
	final, err := state.FinalAccountSnapshots()
	if err != nil {
		return nil, err
	}
	audit.InitialAccounts = initial
	audit.FinalAccounts = final
	if err := CheckBalance(audit, stats); err != nil {
		return nil, err
	}

	if err := state.Commit(trie.UpdatedDelayedReceipts); err != nil {
		return nil, err
	}
	changes, err := state.Finalize()
	if err != nil {
		return nil, err
	}
	metrics.GasBurntTotal.Update(int64(totalGasBurnt))

	kv := make(map[string][]byte, len(changes.Insertions)+len(changes.Deletions))
	for _, ins := range changes.Insertions {
		kv[string(ins.Key)] = ins.Value
	}
	for _, del := range changes.Deletions {
		kv[string(del)] = nil
	}

	return &types.ApplyResult{
		StateRoot:          changes.NewRoot,
		ValidatorProposals: validatorProposals,
		OutgoingReceipts:   outgoingReceipts,
		Outcomes:           outcomes,
		KeyValueChanges:    kv,
		Stats:              *stats,
	}, nil
}
