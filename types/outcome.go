// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package types

import (
	"github.com/holiman/uint256"

	"github.com/m8ttyB/nearcore/common"
)

// StatusKind tags which variant ExecutionStatus carries (spec §3).
type StatusKind int

const (
	StatusUnknown StatusKind = iota
	StatusSuccessValue
	StatusSuccessReceiptID
	StatusFailure
)

// ExecutionStatus is the outcome of running one receipt (spec §3).
type ExecutionStatus struct {
	Kind      StatusKind
	Value     []byte      // StatusSuccessValue
	ReceiptID common.Hash // StatusSuccessReceiptID
	Failure   *ActionError
}

func SuccessValueStatus(v []byte) ExecutionStatus {
	return ExecutionStatus{Kind: StatusSuccessValue, Value: v}
}
func SuccessReceiptIDStatus(id common.Hash) ExecutionStatus {
	return ExecutionStatus{Kind: StatusSuccessReceiptID, ReceiptID: id}
}
func FailureStatus(err *ActionError) ExecutionStatus {
	return ExecutionStatus{Kind: StatusFailure, Failure: err}
}

// ExecutionOutcome is the externally observable record of processing one
// receipt or transaction (spec §3).
type ExecutionOutcome struct {
	ID         common.Hash
	Status     ExecutionStatus
	Logs       []string
	ReceiptIDs []common.Hash // action-receipt children only, not data children
	GasBurnt   uint64
}

// ActionErrorKind enumerates the per-action failure modes of spec §7.
type ActionErrorKind int

const (
	AccountAlreadyExists ActionErrorKind = iota
	AccountDoesNotExist
	ActorNoPermission
	DeleteKeyDoesNotExist
	AddKeyAlreadyExists
	DeleteAccountStaking
	LackBalanceForState
	TriesToUnstake
	TriesToStake
	FunctionCallErrorKind
	NewReceiptValidationError
	RentUnpaid
)

// ActionError carries the failing action's index and a descriptive kind, per
// spec §7.
type ActionError struct {
	Index uint64
	Kind  ActionErrorKind
	Msg   string
}

func (e *ActionError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "action error"
}

// ValidatorStake is the proposal emitted by a Stake action (spec §4.2),
// consumed by epoch management outside this engine.
type ValidatorStake struct {
	AccountID common.AccountID
	PublicKey PublicKey
	Stake     uint256.Int
}

// ApplyState is the per-chunk input to apply (spec §3).
type ApplyState struct {
	BlockHeight    uint64
	EpochLength    uint64
	GasPrice       uint256.Int
	BlockTimestamp uint64
	GasLimit       OptionalGas
}

// ApplyStats is the per-chunk accounting output of apply (spec §3).
type ApplyStats struct {
	TotalRentPaid        uint256.Int
	TotalValidatorReward  uint256.Int
	TotalBalanceBurnt     uint256.Int
	TotalBalanceSlashed   uint256.Int
}

// ValidatorAccountsUpdate is the optional per-chunk input driving §4.8.
type ValidatorAccountsUpdate struct {
	StakeInfo                 map[common.AccountID]uint256.Int // account_id -> max_of_stakes
	ValidatorRewards           map[common.AccountID]uint256.Int
	LastProposals              map[common.AccountID]uint256.Int
	ProtocolTreasuryAccountID *common.AccountID
	SlashingInfo               map[common.AccountID]*uint256.Int // nil value = slash everything locked
}

// VerificationResult is returned by the verifier collaborator on a
// successfully charged transaction (spec §6).
type VerificationResult struct {
	GasBurnt        uint64
	GasUsed         uint64
	RentPaid        uint256.Int
	ValidatorReward uint256.Int
}

// DelayedReceiptIndices is the well-known singleton trie record tracking the
// delayed-receipt FIFO bounds (spec §3).
type DelayedReceiptIndices struct {
	FirstIndex        uint64
	NextAvailableIndex uint64
}

// ApplyResult is the output of apply (spec §6).
type ApplyResult struct {
	StateRoot           common.Hash
	ValidatorProposals   []ValidatorStake
	OutgoingReceipts     []Receipt
	Outcomes             []ExecutionOutcome
	KeyValueChanges      map[string][]byte
	Stats                ApplyStats
}
