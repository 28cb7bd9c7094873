package types

import "github.com/m8ttyB/nearcore/config"

// ActionResultKind tags which variant of the action-executor's return value
// ActionResult.Result carries (spec §3: SuccessValue/SuccessReceiptId/Failure,
// plus the zero-value "nothing produced yet" case for actions like Transfer).
type ActionResultKind int

const (
	ResultNone ActionResultKind = iota
	ResultValue
	ResultReceiptIndex
	ResultErr
)

// ActionResult accumulates the outcome of running one action, and is the
// running total every action in a receipt's list folds into via Merge
// (spec §4.2/§4.5).
type ActionResult struct {
	GasBurnt config.Gas
	GasUsed  config.Gas

	Result       ActionResultKind
	Value        []byte
	ReceiptIndex uint64 // index into the accumulator's NewReceipts, when Result == ResultReceiptIndex
	Err          *ActionError

	Logs               []string
	NewReceipts        []Receipt
	ValidatorProposals []ValidatorStake
}

// Merge folds next (a single action's result) into acc, the shared
// accumulator for the whole receipt's action list (spec §4.5 "Result merge",
// SPEC_FULL §3 item 1 for the exact re-biasing order).
func (acc *ActionResult) Merge(next ActionResult) error {
	var err error
	acc.GasBurnt, err = config.SafeAddGas(acc.GasBurnt, next.GasBurnt)
	if err != nil {
		return err
	}
	acc.GasUsed, err = config.SafeAddGas(acc.GasUsed, next.GasUsed)
	if err != nil {
		return err
	}
	acc.Logs = append(acc.Logs, next.Logs...)

	acc.Result = next.Result
	acc.Value = next.Value
	acc.Err = next.Err

	if next.Result == ResultErr {
		// the sub-result's pending receipts/proposals never happened.
		return nil
	}

	// Re-bias a ReceiptIndex the sub-result produced so it still addresses
	// the right entry once its NewReceipts are appended after acc's own.
	if next.Result == ResultReceiptIndex {
		acc.ReceiptIndex = next.ReceiptIndex + uint64(len(acc.NewReceipts))
	}
	acc.NewReceipts = append(acc.NewReceipts, next.NewReceipts...)
	acc.ValidatorProposals = append(acc.ValidatorProposals, next.ValidatorProposals...)
	return nil
}
