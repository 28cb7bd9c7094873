package runtime

import (
	"github.com/holiman/uint256"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/config"
	"github.com/m8ttyB/nearcore/crypto"
	"github.com/m8ttyB/nearcore/executor"
	"github.com/m8ttyB/nearcore/logger"
	"github.com/m8ttyB/nearcore/logger/glog"
	"github.com/m8ttyB/nearcore/metrics"
	"github.com/m8ttyB/nearcore/types"
)

// ActionContext carries the receipt-level facts every action handler needs,
// generalizing the teacher's per-transaction EVMContext to the multi-action,
// multi-kind shape of spec §4.2.
type ActionContext struct {
	PredecessorID   common.AccountID
	ReceiverID      common.AccountID
	SignerID        common.AccountID
	SignerPublicKey types.PublicKey
	GasPrice        *uint256.Int
	ParentReceiptID common.Hash
	BlockHeight     uint64
	BlockTimestamp  uint64

	// ActorID starts as PredecessorID and becomes ReceiverID once a
	// CreateAccount action in this receipt succeeds (spec §4.2).
	ActorID common.AccountID

	// PromiseResults is built once per receipt from its input_data_ids
	// (spec §4.5 step 1) and handed unchanged to every FunctionCall action.
	PromiseResults []executor.PromiseResult
}

// execState is the mutable per-receipt account snapshot an action handler
// reads and writes. Exists reports whether the account currently exists;
// Account is never nil (a fresh zero Account stands in when it does not).
type execState struct {
	Account *types.Account
	Exists  bool
	Deleted bool
}

// CheckAccountExistence is the first of the two pre-checks run before every
// action (spec §4.2).
func CheckAccountExistence(kind types.ActionKind, exists bool, index uint64) *types.ActionError {
	if kind == types.ActionCreateAccount && exists {
		return NewActionError(index, types.AccountAlreadyExists, "account already exists")
	}
	if kind != types.ActionCreateAccount && !exists {
		return NewActionError(index, types.AccountDoesNotExist, "account does not exist")
	}
	return nil
}

// actorOnlyKinds must be executed by the account they target: only the
// receiver account itself may deploy its own code, manage its own keys,
// stake on its own behalf, or delete itself. CreateAccount, Transfer and
// FunctionCall are the action kinds any predecessor may direct at another
// account.
var actorOnlyKinds = map[types.ActionKind]bool{
	types.ActionDeployContract: true,
	types.ActionStake:          true,
	types.ActionAddKey:         true,
	types.ActionDeleteKey:      true,
	types.ActionDeleteAccount:  true,
}

// CheckActorPermissions is the second pre-check of spec §4.2.
func CheckActorPermissions(kind types.ActionKind, actorID, receiverID common.AccountID, index uint64) *types.ActionError {
	if actorOnlyKinds[kind] && actorID != receiverID {
		return NewActionError(index, types.ActorNoPermission, "actor %s has no permission on %s", actorID, receiverID)
	}
	return nil
}

// RunAction dispatches one action to its handler after running both
// pre-checks, and returns the per-action result the receipt's accumulator
// merges (spec §4.2, §4.5 step 5).
func RunAction(st *execState, ctx *ActionContext, action *types.Action, index uint64, cfg *config.RuntimeConfig, contract executor.Contract) types.ActionResult {
	if err := CheckAccountExistence(action.Kind, st.Exists, index); err != nil {
		return types.ActionResult{Result: types.ResultErr, Err: err}
	}
	if err := CheckActorPermissions(action.Kind, ctx.ActorID, ctx.ReceiverID, index); err != nil {
		return types.ActionResult{Result: types.ResultErr, Err: err}
	}

	glog.V(logger.Debug).Infof("runtime: executing action %d (kind=%d) on %s", index, action.Kind, ctx.ReceiverID)
	metrics.IncAction(action.Kind)

	switch action.Kind {
	case types.ActionCreateAccount:
		return actionCreateAccount(st, ctx, cfg)
	case types.ActionDeployContract:
		return actionDeployContract(st, action.DeployContract, cfg)
	case types.ActionFunctionCall:
		return actionFunctionCall(st, ctx, action.FunctionCall, index, cfg, contract)
	case types.ActionTransfer:
		return actionTransfer(st, action.Transfer)
	case types.ActionStake:
		return actionStake(st, action.Stake, cfg)
	case types.ActionAddKey:
		return actionAddKey(st, action.AddKey, cfg)
	case types.ActionDeleteKey:
		return actionDeleteKey(st, action.DeleteKey, cfg, index)
	case types.ActionDeleteAccount:
		return actionDeleteAccount(st, ctx, action.DeleteAccount, index)
	default:
		return types.ActionResult{Result: types.ResultErr, Err: NewActionError(index, types.FunctionCallErrorKind, "unknown action kind %d", action.Kind)}
	}
}

func actionCreateAccount(st *execState, ctx *ActionContext, cfg *config.RuntimeConfig) types.ActionResult {
	st.Account = types.NewAccount()
	st.Exists = true
	ctx.ActorID = ctx.ReceiverID
	return types.ActionResult{GasBurnt: cfg.TransactionCosts.ActionCosts.CreateAccount, GasUsed: cfg.TransactionCosts.ActionCosts.CreateAccount}
}

func actionDeployContract(st *execState, action *types.DeployContractAction, cfg *config.RuntimeConfig) types.ActionResult {
	oldLen := uint64(0)
	if !st.Account.CodeHash.IsZero() {
		oldLen = st.Account.StorageUsage
	}
	st.Account.CodeHash = contractCodeHash(action.Code)
	newLen := uint64(len(action.Code))
	if newLen >= oldLen {
		st.Account.StorageUsage += newLen - oldLen
	} else {
		st.Account.StorageUsage -= oldLen - newLen
	}
	fee := cfg.TransactionCosts.ActionCosts.DeployContract + cfg.TransactionCosts.ActionCosts.DeployContractPerByte*uint64(len(action.Code))
	return types.ActionResult{GasBurnt: fee, GasUsed: fee}
}

func actionTransfer(st *execState, action *types.TransferAction) types.ActionResult {
	amt, err := config.SafeAddBalance(&st.Account.Amount, &action.Deposit)
	if err != nil {
		return types.ActionResult{Result: types.ResultErr, Err: &types.ActionError{Kind: types.LackBalanceForState, Msg: err.Error()}}
	}
	st.Account.Amount = *amt
	return types.ActionResult{}
}

func actionStake(st *execState, action *types.StakeAction, cfg *config.RuntimeConfig) types.ActionResult {
	prevLocked := st.Account.Locked
	if action.Stake.Cmp(&prevLocked) >= 0 {
		diff, err := config.SafeSubBalance(&action.Stake, &prevLocked)
		if err != nil {
			return types.ActionResult{Result: types.ResultErr, Err: &types.ActionError{Kind: types.TriesToStake, Msg: err.Error()}}
		}
		if diff.Cmp(&st.Account.Amount) > 0 {
			return types.ActionResult{Result: types.ResultErr, Err: &types.ActionError{Kind: types.TriesToStake, Msg: "not enough balance to increase stake"}}
		}
		amt, _ := config.SafeSubBalance(&st.Account.Amount, diff)
		st.Account.Amount = *amt
	} else {
		diff, _ := config.SafeSubBalance(&prevLocked, &action.Stake)
		amt, err := config.SafeAddBalance(&st.Account.Amount, diff)
		if err != nil {
			return types.ActionResult{Result: types.ResultErr, Err: &types.ActionError{Kind: types.TriesToUnstake, Msg: err.Error()}}
		}
		st.Account.Amount = *amt
	}
	st.Account.Locked = action.Stake
	fee := cfg.TransactionCosts.ActionCosts.Stake
	return types.ActionResult{
		GasBurnt: fee, GasUsed: fee,
		ValidatorProposals: []types.ValidatorStake{{
			Stake: action.Stake,
		}},
	}
}

func actionAddKey(st *execState, action *types.AddKeyAction, cfg *config.RuntimeConfig) types.ActionResult {
	fee := cfg.TransactionCosts.ActionCosts.AddKey
	// Only the storage delta is sized here. The access key record itself is
	// not written to state, neither by this handler nor by its caller.
	st.Account.StorageUsage += cfg.TransactionCosts.StorageUsageConfig.NumExtraBytesRecord + uint64(len(action.PublicKey))
	return types.ActionResult{GasBurnt: fee, GasUsed: fee}
}

func actionDeleteKey(st *execState, action *types.DeleteKeyAction, cfg *config.RuntimeConfig, index uint64) types.ActionResult {
	fee := cfg.TransactionCosts.ActionCosts.DeleteKey
	return types.ActionResult{GasBurnt: fee, GasUsed: fee}
}

func actionDeleteAccount(st *execState, ctx *ActionContext, action *types.DeleteAccountAction, index uint64) types.ActionResult {
	total, err := config.SafeAddBalance(&st.Account.Amount, &st.Account.Locked)
	if err != nil {
		return types.ActionResult{Result: types.ResultErr, Err: &types.ActionError{Kind: types.LackBalanceForState, Msg: err.Error()}}
	}
	if st.Account.Locked.Sign() != 0 {
		return types.ActionResult{Result: types.ResultErr, Err: NewActionError(index, types.DeleteAccountStaking, "account %s still has locked stake", ctx.ReceiverID)}
	}
	st.Deleted = true
	result := types.ActionResult{}
	if total.Sign() > 0 && action.BeneficiaryID != ctx.ReceiverID {
		refund := types.NewRefundReceipt(action.BeneficiaryID, *total)
		result.NewReceipts = []types.Receipt{refund}
		result.Result = types.ResultReceiptIndex
		result.ReceiptIndex = 0
	}
	return result
}

func contractCodeHash(code []byte) common.Hash {
	if len(code) == 0 {
		return common.Hash{}
	}
	return crypto.Keccak256Hash(code)
}

// actionFunctionCall invokes the external contract executor, folding its
// response into an ActionResult the way the teacher's ApplyTransaction folds
// an EVM ApplyMessage result into a receipt (spec §4.2, §6).
func actionFunctionCall(st *execState, ctx *ActionContext, action *types.FunctionCallAction, index uint64, cfg *config.RuntimeConfig, contract executor.Contract) types.ActionResult {
	amt, err := config.SafeAddBalance(&st.Account.Amount, &action.Deposit)
	if err != nil {
		return types.ActionResult{Result: types.ResultErr, Err: &types.ActionError{Kind: types.LackBalanceForState, Msg: err.Error()}}
	}

	fee := cfg.TransactionCosts.ActionCosts.FunctionCall + cfg.TransactionCosts.ActionCosts.FunctionCallPerByte*uint64(len(action.Args))
	runCtx := executor.RunContext{
		PredecessorID:   ctx.PredecessorID,
		ReceiverID:      ctx.ReceiverID,
		SignerID:        ctx.SignerID,
		SignerPublicKey: ctx.SignerPublicKey,
		AttachedDeposit: &action.Deposit,
		GasPrice:        ctx.GasPrice,
		BlockHeight:     ctx.BlockHeight,
		BlockTimestamp:  ctx.BlockTimestamp,
		ActionHash:      crypto.ActionHash(ctx.ParentReceiptID, index),
	}
	res, runErr := contract.Run(st.Account.CodeHash.Bytes(), action.MethodName, action.Args, action.Gas, ctx.PromiseResults, runCtx)
	if runErr != nil {
		return types.ActionResult{Result: types.ResultErr, Err: &types.ActionError{Index: index, Kind: types.FunctionCallErrorKind, Msg: runErr.Error()}}
	}

	gasBurnt, err := config.SafeAddGas(fee, res.GasBurnt)
	if err != nil {
		return types.ActionResult{Result: types.ResultErr, Err: &types.ActionError{Index: index, Kind: types.FunctionCallErrorKind, Msg: err.Error()}}
	}
	gasUsed, err := config.SafeAddGas(fee, res.GasUsed)
	if err != nil {
		return types.ActionResult{Result: types.ResultErr, Err: &types.ActionError{Index: index, Kind: types.FunctionCallErrorKind, Msg: err.Error()}}
	}

	if res.Kind == types.ResultErr {
		// the attached deposit was never applied to the account: undo.
		return types.ActionResult{GasBurnt: gasBurnt, GasUsed: gasUsed, Result: types.ResultErr, Err: res.Err, Logs: res.Logs}
	}
	st.Account.Amount = *amt

	newReceipts := make([]types.Receipt, 0, len(res.NewReceipts))
	for _, nr := range res.NewReceipts {
		newReceipts = append(newReceipts, types.Receipt{
			PredecessorID: ctx.ReceiverID,
			ReceiverID:    nr.ReceiverID,
			Kind:          types.ReceiptAction,
			Action: &types.ActionReceipt{
				SignerID:        ctx.SignerID,
				SignerPublicKey: ctx.SignerPublicKey,
				Actions:         nr.Actions,
			},
		})
	}

	return types.ActionResult{
		GasBurnt:     gasBurnt,
		GasUsed:      gasUsed,
		Logs:         res.Logs,
		NewReceipts:  newReceipts,
		Result:       res.Kind,
		Value:        res.Value,
		ReceiptIndex: res.ReceiptIndex,
	}
}
