package runtime

import (
	"github.com/holiman/uint256"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/config"
	"github.com/m8ttyB/nearcore/crypto"
	"github.com/m8ttyB/nearcore/executor"
	"github.com/m8ttyB/nearcore/logger"
	"github.com/m8ttyB/nearcore/logger/glog"
	"github.com/m8ttyB/nearcore/trie"
	"github.com/m8ttyB/nearcore/types"
)

// ActionReceiptResult is the outcome of ProcessActionReceipt: the receipt's
// own execution outcome, every receipt it spawned (refunds, data fan-out,
// action children), and the stats delta the caller folds into ApplyStats.
type ActionReceiptResult struct {
	Outcome            types.ExecutionOutcome
	OutgoingReceipts   []types.Receipt
	ValidatorProposals []types.ValidatorStake
	RentPaid           uint256.Int
	ValidatorReward    uint256.Int
	BalanceBurnt       uint256.Int
}

// ProcessActionReceipt is the join-plus-run kernel of the engine (spec §4.5).
// Its pre-condition — every input_data_id already present in received_data —
// is established by the caller, receipt_dispatcher.go's Dispatch, through
// which apply.go runs local, delayed and incoming receipts alike.
func ProcessActionReceipt(state *State, cfg *config.RuntimeConfig, contract executor.Contract, as *types.ApplyState, r *types.Receipt) (*ActionReceiptResult, error) {
	ar := r.Action
	systemOriginated := r.PredecessorID == common.SystemAccount

	// Step 1: consume input data, building promise_results in input order.
	promiseResults := make([]executor.PromiseResult, 0, len(ar.InputDataIDs))
	for _, dataID := range ar.InputDataIDs {
		data, ok, err := state.GetReceivedData(r.ReceiverID, dataID)
		if err != nil {
			return nil, err
		}
		state.RemoveReceivedData(r.ReceiverID, dataID)
		if ok && data.Valid {
			promiseResults = append(promiseResults, executor.PromiseResult{Successful: true, Data: data.Value})
		} else {
			promiseResults = append(promiseResults, executor.PromiseResult{Successful: false})
		}
	}

	// Step 2.
	if err := state.Commit(trie.ActionReceiptProcessingStarted); err != nil {
		return nil, err
	}

	// Step 3: load receiver account, charge rent.
	account, exists, err := state.GetAccount(r.ReceiverID)
	if err != nil {
		return nil, err
	}
	st := &execState{Account: account, Exists: exists}
	if st.Account == nil {
		st.Account = types.NewAccount()
	}

	var rentPaid uint256.Int
	if exists {
		charged, err := ApplyRent(st.Account, as.BlockHeight, &cfg.Rent)
		if err != nil {
			return nil, IntegerOverflowError(err)
		}
		rentPaid = *charged
	}

	// Step 4: seed gas accumulator, set actor_id = predecessor_id.
	ctx := &ActionContext{
		PredecessorID:   r.PredecessorID,
		ReceiverID:      r.ReceiverID,
		SignerID:        ar.SignerID,
		SignerPublicKey: ar.SignerPublicKey,
		GasPrice:        &ar.GasPrice,
		ParentReceiptID: r.ReceiptID,
		BlockHeight:     as.BlockHeight,
		BlockTimestamp:  as.BlockTimestamp,
		ActorID:         r.PredecessorID,
		PromiseResults:  promiseResults,
	}
	acc := types.ActionResult{
		GasBurnt: cfg.TransactionCosts.ActionCosts.ActionReceiptCreation,
		GasUsed:  cfg.TransactionCosts.ActionCosts.ActionReceiptCreation,
	}

	var gasBurntForFunctionCall config.Gas
	failed := false
	for i, action := range ar.Actions {
		sub := RunAction(st, ctx, &action, uint64(i), cfg, contract)
		if action.Kind == types.ActionFunctionCall {
			fee := singleActionFee(cfg, &action)
			if sub.GasBurnt > fee {
				gasBurntForFunctionCall, err = config.SafeAddGas(gasBurntForFunctionCall, sub.GasBurnt-fee)
				if err != nil {
					return nil, IntegerOverflowError(err)
				}
			}
		}
		if len(sub.NewReceipts) > 0 {
			if verr := validateProducedReceipts(cfg, sub.NewReceipts); verr != nil {
				sub = types.ActionResult{Result: types.ResultErr, Err: NewActionError(uint64(i), types.NewReceiptValidationError, "%s", verr.Error())}
			}
		}
		if err := acc.Merge(sub); err != nil {
			return nil, IntegerOverflowError(err)
		}
		if acc.Result == types.ResultErr {
			failed = true
			break
		}
	}

	// Step 6: post-execution rent check.
	if !failed && st.Exists && !st.Deleted {
		if actionErr, err := CheckRent(st.Account, as.EpochLength, &cfg.Rent); err != nil {
			return nil, IntegerOverflowError(err)
		} else if actionErr != nil {
			acc = types.ActionResult{Result: types.ResultErr, Err: actionErr, GasBurnt: acc.GasBurnt, GasUsed: acc.GasUsed}
			failed = true
		}
	}

	glog.V(logger.Debug).Infof("runtime: processed action receipt %s failed=%v gas_burnt=%d", r.ReceiptID, failed, acc.GasBurnt)

	// Step 7: refund generation.
	var outgoing []types.Receipt
	if !systemOriginated {
		refunds, err := buildRefunds(cfg, ar, failed, acc.GasBurnt, acc.GasUsed, &ar.GasPrice, r.PredecessorID)
		if err != nil {
			return nil, IntegerOverflowError(err)
		}
		outgoing = append(outgoing, refunds...)
	}
	// acc.ReceiptIndex (when acc.Result == ResultReceiptIndex) addresses a
	// position within acc.NewReceipts; refunds precede it in outgoing, so
	// every later lookup must rebias by this offset.
	receiptIndexBase := len(outgoing)

	// Step 8/9: commit or roll back; system-originated failures burn instead.
	var balanceBurnt uint256.Int
	if !failed {
		if st.Deleted {
			state.RemoveAccount(r.ReceiverID)
		} else if st.Exists {
			if err := state.PutAccount(r.ReceiverID, st.Account); err != nil {
				return nil, err
			}
		}
		for _, nr := range acc.NewReceipts {
			outgoing = append(outgoing, nr)
		}
		if err := state.Commit(trie.ReceiptProcessing); err != nil {
			return nil, err
		}
	} else {
		state.Rollback()
		if systemOriginated {
			total, _, err := totalActionDeposit(ar.Actions)
			if err != nil {
				return nil, IntegerOverflowError(err)
			}
			balanceBurnt = *total
		}
	}

	// Step 10: gas reward split. The validator earns the balance value of
	// every unit of gas the receipt burnt; if a function call burnt gas
	// and the receiver still exists, the receiver's share of that burn is
	// carved back out of the validator's reward (orig `lib.rs` around the
	// `receiver_gas_reward` computation).
	vr, err := config.SafeGasToBalance(&ar.GasPrice, acc.GasBurnt)
	if err != nil {
		return nil, IntegerOverflowError(err)
	}
	validatorReward := *vr
	if gasBurntForFunctionCall > 0 {
		reward := cfg.TransactionCosts.BurntGasReward
		receiverGas, err := config.MulRatioGasTrunc(gasBurntForFunctionCall, reward.Num, reward.Den)
		if err != nil {
			return nil, IntegerOverflowError(err)
		}
		if receiverGas > 0 && !failed && st.Exists && !st.Deleted {
			receiverReward, err := config.SafeGasToBalance(&ar.GasPrice, receiverGas)
			if err != nil {
				return nil, IntegerOverflowError(err)
			}
			newValidatorReward, err := config.SafeSubBalance(&validatorReward, receiverReward)
			if err != nil {
				return nil, IntegerOverflowError(err)
			}
			validatorReward = *newValidatorReward
			newAmount, err := config.SafeAddBalance(&st.Account.Amount, receiverReward)
			if err != nil {
				return nil, IntegerOverflowError(err)
			}
			st.Account.Amount = *newAmount
			if err := state.PutAccount(r.ReceiverID, st.Account); err != nil {
				return nil, err
			}
			if err := state.Commit(trie.ActionReceiptGasReward); err != nil {
				return nil, err
			}
		}
	}

	// Step 11: output-data fan-out for this receipt's own result. The
	// result's ReceiptIndex, when present, addresses outgoing relative to
	// receiptIndexBase (refunds precede the action-produced receipts).
	resultReceiptPos := int(acc.ReceiptIndex) + receiptIndexBase
	outgoing = append(outgoing, fanOutOutputData(r.ReceiverID, ar.OutputDataReceivers, acc.Result, acc.Value, resultReceiptPos, outgoing)...)

	// Step 12: child receipt ID assignment.
	childIDs := make([]common.Hash, len(outgoing))
	actionReceiptIDs := make([]common.Hash, 0, len(outgoing))
	for i := range outgoing {
		childIDs[i] = crypto.CreateNonceWithNonce(r.ReceiptID, uint64(i))
		outgoing[i].ReceiptID = childIDs[i]
		if outgoing[i].Kind == types.ReceiptAction {
			actionReceiptIDs = append(actionReceiptIDs, childIDs[i])
		}
	}

	// Step 13: status mapping.
	var status types.ExecutionStatus
	switch acc.Result {
	case types.ResultReceiptIndex:
		if resultReceiptPos >= 0 && resultReceiptPos < len(childIDs) {
			status = types.SuccessReceiptIDStatus(childIDs[resultReceiptPos])
		} else {
			status = types.SuccessValueStatus(nil)
		}
	case types.ResultValue:
		status = types.SuccessValueStatus(acc.Value)
	case types.ResultErr:
		status = types.FailureStatus(acc.Err)
	default:
		status = types.SuccessValueStatus(nil)
	}

	outcome := types.ExecutionOutcome{
		ID:         r.ReceiptID,
		Status:     status,
		Logs:       acc.Logs,
		ReceiptIDs: actionReceiptIDs,
		GasBurnt:   acc.GasBurnt,
	}

	var proposals []types.ValidatorStake
	if !failed {
		proposals = acc.ValidatorProposals
	}

	return &ActionReceiptResult{
		Outcome:            outcome,
		OutgoingReceipts:   outgoing,
		ValidatorProposals: proposals,
		RentPaid:           rentPaid,
		ValidatorReward:    validatorReward,
		BalanceBurnt:       balanceBurnt,
	}, nil
}

// singleActionFee is the nominal exec fee of one action, the same per-kind
// table the verifier package's execFeeFor uses, factored out so the function-call gas-burnt
// accumulator can subtract the flat part and keep only the contract's own
// dynamic burn (spec §4.5 step 10).
func singleActionFee(cfg *config.RuntimeConfig, a *types.Action) config.Gas {
	costs := cfg.TransactionCosts.ActionCosts
	switch a.Kind {
	case types.ActionCreateAccount:
		return costs.CreateAccount
	case types.ActionDeployContract:
		return costs.DeployContract + costs.DeployContractPerByte*uint64(len(a.DeployContract.Code))
	case types.ActionFunctionCall:
		return costs.FunctionCall + costs.FunctionCallPerByte*uint64(len(a.FunctionCall.Args))
	case types.ActionTransfer:
		return costs.Transfer
	case types.ActionStake:
		return costs.Stake
	case types.ActionAddKey:
		return costs.AddKey + costs.AddKeyPerByte*uint64(len(a.AddKey.PublicKey))
	case types.ActionDeleteKey:
		return costs.DeleteKey
	case types.ActionDeleteAccount:
		return costs.DeleteAccount
	default:
		return 0
	}
}

func actionReceiptExecFee(cfg *config.RuntimeConfig, actions []types.Action) (config.Gas, error) {
	var total config.Gas
	var err error
	for i := range actions {
		total, err = config.SafeAddGas(total, singleActionFee(cfg, &actions[i]))
		if err != nil {
			return 0, err
		}
	}
	return config.SafeAddGas(total, cfg.TransactionCosts.ActionCosts.ActionReceiptCreation)
}

func totalActionDeposit(actions []types.Action) (*uint256.Int, config.Gas, error) {
	var deposit uint256.Int
	var gas config.Gas
	for i := range actions {
		d := actions[i].DepositValue()
		sum, err := config.SafeAddBalance(&deposit, &d)
		if err != nil {
			return nil, 0, err
		}
		deposit = *sum
		gas, err = config.SafeAddGas(gas, actions[i].PrepaidGas())
		if err != nil {
			return nil, 0, err
		}
	}
	return &deposit, gas, nil
}

// buildRefunds implements spec §4.5 step 7, including the SPEC_FULL §3
// item 2 merge: when signer_id == predecessor_id the deposit and gas
// refunds collapse into a single receipt, but the second record is kept in
// the output with its amount zeroed rather than dropped.
func buildRefunds(cfg *config.RuntimeConfig, ar *types.ActionReceipt, failed bool, gasBurnt, gasUsed config.Gas, gasPrice *uint256.Int, predecessorID common.AccountID) ([]types.Receipt, error) {
	totalDeposit, prepaidGas, err := totalActionDeposit(ar.Actions)
	if err != nil {
		return nil, err
	}
	execGas, err := actionReceiptExecFee(cfg, ar.Actions)
	if err != nil {
		return nil, err
	}
	budget, err := config.SafeAddGas(prepaidGas, execGas)
	if err != nil {
		return nil, err
	}

	var depositRefund uint256.Int
	var gasRefundGas config.Gas
	if failed {
		depositRefund = *totalDeposit
		gasRefundGas, err = config.SafeSubGas(budget, gasBurnt)
	} else {
		gasRefundGas, err = config.SafeSubGas(budget, gasUsed)
	}
	if err != nil {
		return nil, err
	}
	gasRefundBalance, err := config.SafeGasToBalance(gasPrice, gasRefundGas)
	if err != nil {
		return nil, err
	}

	type entry struct {
		receiverID common.AccountID
		amount     uint256.Int
	}
	var entries []entry
	if depositRefund.Sign() > 0 {
		entries = append(entries, entry{predecessorID, depositRefund})
	}
	if gasRefundBalance.Sign() > 0 {
		entries = append(entries, entry{ar.SignerID, *gasRefundBalance})
	}
	if len(entries) == 2 && entries[0].receiverID == entries[1].receiverID {
		merged, err := config.SafeAddBalance(&entries[0].amount, &entries[1].amount)
		if err != nil {
			return nil, err
		}
		entries[0].amount = *merged
		entries[1].amount = uint256.Int{}
	}

	refunds := make([]types.Receipt, 0, len(entries))
	for _, e := range entries {
		refunds = append(refunds, types.NewRefundReceipt(e.receiverID, e.amount))
	}
	return refunds, nil
}

// validateProducedReceipts rejects a sub-action's receipts that fail
// account-id syntax or exceed the configured action/size limits, turned by
// the caller into a NewReceiptValidationError for the producing action
// (spec §4.5 step 5).
func validateProducedReceipts(cfg *config.RuntimeConfig, receipts []types.Receipt) error {
	for i := range receipts {
		if verr := ValidateReceipt(cfg, &receipts[i]); verr != nil {
			return verr
		}
	}
	return nil
}

// fanOutOutputData implements spec §4.5 step 11. When the receipt's result
// names a child receipt by index, the parent's output_data_receivers are
// handed to that child so the join completes once the child finishes.
// Otherwise a data-receipt is synthesized per receiver with the resolved
// value, an empty success, or None on failure.
func fanOutOutputData(producerID common.AccountID, receivers []types.DataReceiver, result types.ActionResultKind, value []byte, resultReceiptPos int, newReceipts []types.Receipt) []types.Receipt {
	if len(receivers) == 0 {
		return nil
	}
	if result == types.ResultReceiptIndex && resultReceiptPos >= 0 && resultReceiptPos < len(newReceipts) {
		child := &newReceipts[resultReceiptPos]
		if child.Kind == types.ReceiptAction && child.Action != nil {
			child.Action.OutputDataReceivers = append(child.Action.OutputDataReceivers, receivers...)
		}
		return nil
	}

	var data types.OptionalBytes
	switch result {
	case types.ResultValue:
		data = types.SomeBytes(value)
	case types.ResultErr:
		data = types.NoBytes()
	default:
		data = types.SomeBytes(nil)
	}

	out := make([]types.Receipt, 0, len(receivers))
	for _, dr := range receivers {
		out = append(out, types.Receipt{
			PredecessorID: producerID,
			ReceiverID:    dr.ReceiverID,
			Kind:          types.ReceiptData,
			Data:          &types.DataReceipt{DataID: dr.DataID, Data: data},
		})
	}
	return out
}
