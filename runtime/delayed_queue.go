package runtime

import (
	"github.com/m8ttyB/nearcore/metrics"
	"github.com/m8ttyB/nearcore/types"
)

// DelayReceipt appends r to the persistent FIFO at next_available_index and
// advances the index (spec §4.7).
func DelayReceipt(state *State, r *types.Receipt) error {
	idx, err := state.GetDelayedReceiptIndices()
	if err != nil {
		return err
	}
	if err := state.PutDelayedReceipt(idx.NextAvailableIndex, r); err != nil {
		return err
	}
	idx.NextAvailableIndex++
	metrics.ReceiptsDelayedTotal.Inc(1)
	return state.PutDelayedReceiptIndices(idx)
}

// DrainDelayedReceipts pops receipts off the front of the queue one at a
// time, handing each to shouldDispatch so the caller can stop as soon as the
// chunk's gas budget (spec §4.9) is exhausted. A receipt shouldDispatch
// declines is left at the front of the queue for a future chunk; popped
// receipts are handed to process, which must have already validated the
// receipt (delayed entries are assumed well-formed, per spec §4.7 — a
// malformed entry here is a state inconsistency, not a normal failure).
func DrainDelayedReceipts(state *State, shouldDispatch func(*types.Receipt) bool, process func(*types.Receipt) error) error {
	idx, err := state.GetDelayedReceiptIndices()
	if err != nil {
		return err
	}
	for idx.FirstIndex < idx.NextAvailableIndex {
		r, ok, err := state.GetDelayedReceipt(idx.FirstIndex)
		if err != nil {
			return err
		}
		if !ok {
			return StorageError("delayed receipt queue entry missing at index", nil)
		}
		if !shouldDispatch(r) {
			break
		}
		if err := process(r); err != nil {
			return err
		}
		state.RemoveDelayedReceipt(idx.FirstIndex)
		idx.FirstIndex++
	}
	return state.PutDelayedReceiptIndices(idx)
}
