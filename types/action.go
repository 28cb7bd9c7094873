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
	"errors"
	"io"

	"github.com/holiman/uint256"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/rlp"
)

// ActionKind tags the variant carried by Action, dispatched by the
// table-driven switch in runtime/actions.go (spec §4.2, design note on
// "polymorphism over ... action kinds").
type ActionKind byte

const (
	ActionCreateAccount ActionKind = iota
	ActionDeployContract
	ActionFunctionCall
	ActionTransfer
	ActionStake
	ActionAddKey
	ActionDeleteKey
	ActionDeleteAccount
)

type CreateAccountAction struct{}

type DeployContractAction struct {
	Code []byte
}

type FunctionCallAction struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    uint256.Int
}

type TransferAction struct {
	Deposit uint256.Int
}

type StakeAction struct {
	Stake     uint256.Int
	PublicKey PublicKey
}

type AddKeyAction struct {
	PublicKey PublicKey
	AccessKey AccessKey
}

type DeleteKeyAction struct {
	PublicKey PublicKey
}

type DeleteAccountAction struct {
	BeneficiaryID common.AccountID
}

// Action is a tagged union over the eight action kinds of spec §4.2.
// Exactly one of the typed fields is meaningful, selected by Kind.
type Action struct {
	Kind ActionKind

	CreateAccount  *CreateAccountAction
	DeployContract *DeployContractAction
	FunctionCall   *FunctionCallAction
	Transfer       *TransferAction
	Stake          *StakeAction
	AddKey         *AddKeyAction
	DeleteKey      *DeleteKeyAction
	DeleteAccount  *DeleteAccountAction
}

// DepositValue returns the action's attached deposit, or zero for action kinds
// that don't carry one.
func (a *Action) DepositValue() uint256.Int {
	switch a.Kind {
	case ActionFunctionCall:
		return a.FunctionCall.Deposit
	case ActionTransfer:
		return a.Transfer.Deposit
	default:
		return uint256.Int{}
	}
}

// PrepaidGas returns the action's attached gas, or zero for action kinds
// that don't carry one.
func (a *Action) PrepaidGas() uint64 {
	if a.Kind == ActionFunctionCall {
		return a.FunctionCall.Gas
	}
	return 0
}

func NewCreateAccount() Action { return Action{Kind: ActionCreateAccount, CreateAccount: &CreateAccountAction{}} }
func NewDeployContract(code []byte) Action {
	return Action{Kind: ActionDeployContract, DeployContract: &DeployContractAction{Code: code}}
}
func NewFunctionCall(method string, args []byte, gas uint64, deposit uint256.Int) Action {
	return Action{Kind: ActionFunctionCall, FunctionCall: &FunctionCallAction{method, args, gas, deposit}}
}
func NewTransfer(deposit uint256.Int) Action {
	return Action{Kind: ActionTransfer, Transfer: &TransferAction{Deposit: deposit}}
}
func NewStake(stake uint256.Int, pk PublicKey) Action {
	return Action{Kind: ActionStake, Stake: &StakeAction{stake, pk}}
}
func NewAddKey(pk PublicKey, ak AccessKey) Action {
	return Action{Kind: ActionAddKey, AddKey: &AddKeyAction{pk, ak}}
}
func NewDeleteKey(pk PublicKey) Action {
	return Action{Kind: ActionDeleteKey, DeleteKey: &DeleteKeyAction{pk}}
}
func NewDeleteAccount(beneficiary common.AccountID) Action {
	return Action{Kind: ActionDeleteAccount, DeleteAccount: &DeleteAccountAction{beneficiary}}
}

func (a Action) EncodeRLP(w io.Writer) error {
	var payload interface{}
	switch a.Kind {
	case ActionCreateAccount:
		payload = a.CreateAccount
	case ActionDeployContract:
		payload = a.DeployContract
	case ActionFunctionCall:
		payload = a.FunctionCall
	case ActionTransfer:
		payload = a.Transfer
	case ActionStake:
		payload = a.Stake
	case ActionAddKey:
		payload = a.AddKey
	case ActionDeleteKey:
		payload = a.DeleteKey
	case ActionDeleteAccount:
		payload = a.DeleteAccount
	default:
		return errors.New("types: unknown action kind")
	}
	return rlp.Encode(w, struct {
		Kind    ActionKind
		Payload interface{}
	}{a.Kind, payload})
}

func (a *Action) DecodeRLP(s *rlp.Stream) error {
	inner, err := s.EnterList()
	if err != nil {
		return err
	}
	var kind ActionKind
	if err := inner.Decode(&kind); err != nil {
		return err
	}
	a.Kind = kind
	switch kind {
	case ActionCreateAccount:
		a.CreateAccount = new(CreateAccountAction)
		return inner.Decode(a.CreateAccount)
	case ActionDeployContract:
		a.DeployContract = new(DeployContractAction)
		return inner.Decode(a.DeployContract)
	case ActionFunctionCall:
		a.FunctionCall = new(FunctionCallAction)
		return inner.Decode(a.FunctionCall)
	case ActionTransfer:
		a.Transfer = new(TransferAction)
		return inner.Decode(a.Transfer)
	case ActionStake:
		a.Stake = new(StakeAction)
		return inner.Decode(a.Stake)
	case ActionAddKey:
		a.AddKey = new(AddKeyAction)
		return inner.Decode(a.AddKey)
	case ActionDeleteKey:
		a.DeleteKey = new(DeleteKeyAction)
		return inner.Decode(a.DeleteKey)
	case ActionDeleteAccount:
		a.DeleteAccount = new(DeleteAccountAction)
		return inner.Decode(a.DeleteAccount)
	default:
		return errors.New("types: unknown action kind")
	}
}
