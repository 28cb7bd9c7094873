package runtime

import (
	"github.com/m8ttyB/nearcore/config"
	"github.com/m8ttyB/nearcore/executor"
	"github.com/m8ttyB/nearcore/logger"
	"github.com/m8ttyB/nearcore/logger/glog"
	"github.com/m8ttyB/nearcore/metrics"
	"github.com/m8ttyB/nearcore/trie"
	"github.com/m8ttyB/nearcore/types"
)

// Dispatch classifies and routes one receipt into the engine, the
// generalized listener pattern the original core's internals_processor.go
// uses for watched transactions, adapted to receipts (spec §4.6).
//
// result is the outcome of whatever action receipt actually ran as a
// consequence of this call — either r itself, or a previously postponed
// receipt that r's data just completed — or nil if nothing ran yet.
// newlyPostponed reports whether this call caused r itself to be parked in
// the postponed-receipt store. released is the full receipt object a data
// receipt's arrival just pulled out of the postponed store to run, or nil.
// Both flags exist purely for the caller's balance audit (balance_checker.go):
// a postponed receipt's value leaves circulation without producing an
// outcome or an outgoing receipt, so it must be tracked on its own.
func Dispatch(state *State, cfg *config.RuntimeConfig, contract executor.Contract, as *types.ApplyState, r *types.Receipt) (result *ActionReceiptResult, newlyPostponed bool, released *types.Receipt, err error) {
	metrics.ReceiptsProcessedTotal.Inc(1)
	if r.Kind == types.ReceiptData {
		result, released, err = dispatchDataReceipt(state, cfg, contract, as, r)
		return result, false, released, err
	}
	result, newlyPostponed, err = dispatchActionReceipt(state, cfg, contract, as, r)
	if newlyPostponed {
		metrics.ReceiptsPostponedTotal.Inc(1)
	}
	return result, newlyPostponed, nil, err
}

// dispatchDataReceipt implements spec §4.6's data-receipt half: record the
// value, and if it was the last piece a postponed receipt was waiting on,
// run that receipt now.
func dispatchDataReceipt(state *State, cfg *config.RuntimeConfig, contract executor.Contract, as *types.ApplyState, r *types.Receipt) (*ActionReceiptResult, *types.Receipt, error) {
	dr := r.Data
	if err := state.PutReceivedData(r.ReceiverID, dr.DataID, dr.Data); err != nil {
		return nil, nil, err
	}

	postponedID, found, err := state.GetPostponedReceiptID(r.ReceiverID, dr.DataID)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, nil
	}
	state.RemovePostponedReceiptID(r.ReceiverID, dr.DataID)

	count, found, err := state.GetPendingDataCount(r.ReceiverID, postponedID)
	if err != nil {
		return nil, nil, err
	}
	if !found || count == 0 {
		return nil, nil, StorageError("pending data count missing or already zero for postponed receipt "+postponedID.String(), nil)
	}
	count--
	if count > 0 {
		state.PutPendingDataCount(r.ReceiverID, postponedID, count)
		return nil, nil, nil
	}

	state.RemovePendingDataCount(r.ReceiverID, postponedID)
	postponed, found, err := state.GetPostponedReceipt(r.ReceiverID, postponedID)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, StorageError("postponed receipt "+postponedID.String()+" vanished from the store", nil)
	}
	state.RemovePostponedReceipt(r.ReceiverID, postponedID)

	glog.V(logger.Debug).Infof("runtime: data %s completes postponed receipt %s, running now", dr.DataID, postponedID)
	result, err := ProcessActionReceipt(state, cfg, contract, as, postponed)
	if err != nil {
		return nil, nil, err
	}
	return result, postponed, nil
}

// dispatchActionReceipt implements spec §4.6's action-receipt half: if every
// input datum is already available, run immediately; otherwise persist the
// receipt under the postponed keys and wait.
func dispatchActionReceipt(state *State, cfg *config.RuntimeConfig, contract executor.Contract, as *types.ApplyState, r *types.Receipt) (*ActionReceiptResult, bool, error) {
	ar := r.Action

	var missingIdx []int
	for i, dataID := range ar.InputDataIDs {
		_, ok, err := state.GetReceivedData(r.ReceiverID, dataID)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			missingIdx = append(missingIdx, i)
		}
	}

	if len(missingIdx) == 0 {
		result, err := ProcessActionReceipt(state, cfg, contract, as, r)
		return result, false, err
	}

	for _, i := range missingIdx {
		state.PutPostponedReceiptID(r.ReceiverID, ar.InputDataIDs[i], r.ReceiptID)
	}
	state.PutPendingDataCount(r.ReceiverID, r.ReceiptID, uint32(len(missingIdx)))
	if err := state.PutPostponedReceipt(r.ReceiverID, r.ReceiptID, r); err != nil {
		return nil, false, err
	}
	if err := state.Commit(trie.PostponedReceipt); err != nil {
		return nil, false, err
	}
	glog.V(logger.Debug).Infof("runtime: postponed receipt %s awaiting %d data ids", r.ReceiptID, len(missingIdx))
	return nil, true, nil
}
