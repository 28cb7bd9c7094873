// Package executor models the smart-contract executor collaborator of
// spec §6: it consumes a contract code blob, a method name, arguments,
// attached gas and observed promise results, and returns logs, new
// receipts, gas burnt/used and a result. Contract sandboxing itself is
// explicitly out of scope (spec §1 Non-goals) — this package is the
// interface plus one deterministic stub used by runtime's tests, the same
// role the teacher's vm_env.go plays for the EVM (a call-shape adapter, not
// an interpreter).
package executor

import (
	"github.com/holiman/uint256"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/types"
)

// PromiseResult is one entry of the promise_results vector passed to a
// FunctionCall: the outcome of one of the receipt's input_data_ids (spec §4.2).
type PromiseResult struct {
	Successful bool
	Data       []byte
}

// RunContext is the execution context the FunctionCall action builds for the
// executor, derived from the receipt and the action's position in it.
type RunContext struct {
	PredecessorID   common.AccountID
	ReceiverID      common.AccountID
	SignerID        common.AccountID
	SignerPublicKey types.PublicKey
	AttachedDeposit *uint256.Int
	GasPrice        *uint256.Int
	BlockHeight     uint64
	BlockTimestamp  uint64
	ActionHash      common.Hash // hash(parent_receipt_id, MAX_U64 - action_index), spec §3
}

// NewReceipt is an unrouted receipt a contract call wants to create; the
// action-receipt executor (spec §4.5 step 12) assigns it a real receipt_id
// and folds it into the accumulator.
type NewReceipt struct {
	ReceiverID common.AccountID
	Actions    []types.Action
}

// Result is the executor's response to one FunctionCall invocation (spec §6).
type Result struct {
	Logs                   []string
	NewReceipts            []NewReceipt
	GasBurnt               uint64
	GasUsed                uint64
	BurntGasRewardEligible bool // counts toward gas_burnt_for_function_call (spec §4.5 step 10)

	Kind         types.ActionResultKind
	Value        []byte
	ReceiptIndex uint64
	Err          *types.ActionError
}

// Contract is the collaborator contract of spec §6.
type Contract interface {
	Run(code []byte, method string, args []byte, attachedGas uint64, promiseResults []PromiseResult, ctx RunContext) (Result, error)
}

// Stub is a trivial, fully deterministic Contract used by runtime's tests:
// it burns a fixed amount of the attached gas and echoes args back as its
// success value, never producing sub-receipts. It is intentionally not a
// real virtual machine — see DESIGN.md for why dop251/goja was not wired
// here.
type Stub struct {
	GasPerCall uint64
}

func NewStub() *Stub { return &Stub{GasPerCall: 1_000_000} }

func (s *Stub) Run(code []byte, method string, args []byte, attachedGas uint64, promiseResults []PromiseResult, ctx RunContext) (Result, error) {
	burnt := s.GasPerCall
	if burnt > attachedGas {
		burnt = attachedGas
	}
	if method == "" {
		return Result{
			GasBurnt: burnt,
			GasUsed:  burnt,
			Kind:     types.ResultErr,
			Err:      &types.ActionError{Kind: types.FunctionCallErrorKind, Msg: "executor: empty method name"},
		}, nil
	}
	return Result{
		Logs:                   []string{"stub: " + method},
		GasBurnt:               burnt,
		GasUsed:                burnt,
		BurntGasRewardEligible: true,
		Kind:                   types.ResultValue,
		Value:                  append([]byte(nil), args...),
	}, nil
}
