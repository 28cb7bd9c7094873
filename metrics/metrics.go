// Package metrics holds the in-process counters apply() increments as it
// runs, the Go analogue of the original's near_metrics::inc_counter call
// sites in apply_action/process_transaction. Built on the teacher's existing
// rcrowley/go-metrics dependency rather than introducing a push-based client.
package metrics

import (
	gometrics "github.com/rcrowley/go-metrics"

	"github.com/m8ttyB/nearcore/types"
)

var (
	actionCounters = map[types.ActionKind]gometrics.Counter{
		types.ActionCreateAccount:  gometrics.NewRegisteredCounter("action/create_account/total", nil),
		types.ActionDeployContract: gometrics.NewRegisteredCounter("action/deploy_contract/total", nil),
		types.ActionFunctionCall:   gometrics.NewRegisteredCounter("action/function_call/total", nil),
		types.ActionTransfer:       gometrics.NewRegisteredCounter("action/transfer/total", nil),
		types.ActionStake:          gometrics.NewRegisteredCounter("action/stake/total", nil),
		types.ActionAddKey:         gometrics.NewRegisteredCounter("action/add_key/total", nil),
		types.ActionDeleteKey:      gometrics.NewRegisteredCounter("action/delete_key/total", nil),
		types.ActionDeleteAccount:  gometrics.NewRegisteredCounter("action/delete_account/total", nil),
	}

	TransactionProcessedSuccessTotal = gometrics.NewRegisteredCounter("transaction/processed/success/total", nil)
	TransactionProcessedFailureTotal = gometrics.NewRegisteredCounter("transaction/processed/failure/total", nil)

	ReceiptsProcessedTotal  = gometrics.NewRegisteredCounter("receipt/processed/total", nil)
	ReceiptsPostponedTotal  = gometrics.NewRegisteredCounter("receipt/postponed/total", nil)
	ReceiptsDelayedTotal    = gometrics.NewRegisteredCounter("receipt/delayed/total", nil)

	GasBurntTotal = gometrics.NewRegisteredGauge("gas/burnt/total", nil)
)

// IncAction bumps the per-action-kind counter, mirroring one
// near_metrics::inc_counter call site per action executor.
func IncAction(kind types.ActionKind) {
	if c, ok := actionCounters[kind]; ok {
		c.Inc(1)
	}
}
