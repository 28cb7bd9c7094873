package runtime

import (
	"github.com/holiman/uint256"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/config"
	"github.com/m8ttyB/nearcore/crypto"
	"github.com/m8ttyB/nearcore/logger"
	"github.com/m8ttyB/nearcore/logger/glog"
	"github.com/m8ttyB/nearcore/trie"
	"github.com/m8ttyB/nearcore/types"
	"github.com/m8ttyB/nearcore/verifier"
)

// ProcessedTransaction is the result of ProcessTransaction: a new local
// action-receipt plus the outcome and stats delta the caller folds into
// ApplyResult (spec §4.4).
type ProcessedTransaction struct {
	Receipt types.Receipt
	Outcome types.ExecutionOutcome
	RentPaid        uint256.Int
	ValidatorReward uint256.Int
}

// ProcessTransaction gates tx through the verifier and, on success, converts
// it into exactly one action-receipt (spec §4.4). On verifier failure it
// rolls back the State's uncommitted changes itself and returns an
// *InvalidTxError carrying the transaction hash.
func ProcessTransaction(state *State, cfg *config.RuntimeConfig, v verifier.Verifier, gasPrice *uint256.Int, tx *types.SignedTransaction) (*ProcessedTransaction, error) {
	result, err := v.VerifyAndCharge(cfg, state, gasPrice, tx)
	if err != nil {
		state.Rollback()
		return nil, &InvalidTxError{Hash: tx.Hash(), Message: err.Error()}
	}
	if err := state.Commit(trie.TransactionProcessing); err != nil {
		return nil, err
	}

	receiptID := crypto.CreateNonceWithNonce(tx.Hash(), 0)
	receipt := types.Receipt{
		PredecessorID: tx.SignerID(),
		ReceiverID:    tx.ReceiverID(),
		ReceiptID:     receiptID,
		Kind:          types.ReceiptAction,
		Action: &types.ActionReceipt{
			SignerID:        tx.SignerID(),
			SignerPublicKey: tx.Dat.PublicKey,
			GasPrice:        *gasPrice,
			Actions:         tx.Actions(),
		},
	}

	glog.V(logger.Debug).Infof("runtime: tx %s -> receipt %s", tx.Hash(), receiptID)

	outcome := types.ExecutionOutcome{
		ID:         tx.Hash(),
		Status:     types.SuccessReceiptIDStatus(receiptID),
		ReceiptIDs: []common.Hash{receiptID},
		GasBurnt:   result.GasBurnt,
	}

	return &ProcessedTransaction{
		Receipt:         receipt,
		Outcome:         outcome,
		RentPaid:        result.RentPaid,
		ValidatorReward: result.ValidatorReward,
	}, nil
}
