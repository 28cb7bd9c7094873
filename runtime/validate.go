package runtime

import (
	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/config"
	"github.com/m8ttyB/nearcore/rlp"
	"github.com/m8ttyB/nearcore/types"
)

// ValidateReceipt checks account-id syntax, byte-size bounds for data
// receipts, and per-action limits (method-name length, args size, number of
// actions), the gate spec §6 requires before dispatch of any
// externally-originated receipt.
func ValidateReceipt(cfg *config.RuntimeConfig, r *types.Receipt) *ReceiptValidationError {
	if !common.ValidAccountID(r.PredecessorID) && r.PredecessorID != common.SystemAccount {
		return &ReceiptValidationError{ReceiptID: r.ReceiptID, Kind: InvalidPredecessorID, Message: "invalid predecessor_id " + string(r.PredecessorID)}
	}
	if !common.ValidAccountID(r.ReceiverID) {
		return &ReceiptValidationError{ReceiptID: r.ReceiptID, Kind: InvalidReceiverID, Message: "invalid receiver_id " + string(r.ReceiverID)}
	}

	enc, err := rlp.EncodeToBytes(r)
	if err == nil && len(enc) > cfg.Limits.MaxReceiptSize {
		return &ReceiptValidationError{ReceiptID: r.ReceiptID, Kind: ReceiptSizeExceeded, Message: "receipt exceeds max_receipt_size"}
	}

	if r.Kind != types.ReceiptAction || r.Action == nil {
		return nil
	}
	ar := r.Action
	if len(ar.Actions) > cfg.Limits.MaxActionsPerReceipt {
		return &ReceiptValidationError{ReceiptID: r.ReceiptID, Kind: TooManyActions, Message: "too many actions in receipt"}
	}
	if len(ar.OutputDataReceivers) > cfg.Limits.MaxNumberDataReceivers {
		return &ReceiptValidationError{ReceiptID: r.ReceiptID, Kind: TooManyDataReceivers, Message: "too many output data receivers"}
	}
	for _, a := range ar.Actions {
		if a.Kind != types.ActionFunctionCall {
			continue
		}
		if len(a.FunctionCall.MethodName) > cfg.Limits.MaxMethodNameLength {
			return &ReceiptValidationError{ReceiptID: r.ReceiptID, Kind: MethodNameTooLong, Message: "method name too long"}
		}
		if len(a.FunctionCall.Args) > cfg.Limits.MaxArgumentsLength {
			return &ReceiptValidationError{ReceiptID: r.ReceiptID, Kind: ArgumentsTooLarge, Message: "arguments too large"}
		}
	}
	return nil
}
