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

// DataReceiver names one output_data_receivers entry (spec §3).
type DataReceiver struct {
	DataID     common.Hash
	ReceiverID common.AccountID
}

// ActionReceipt is the "work to perform" payload of a Receipt (spec §3).
type ActionReceipt struct {
	SignerID            common.AccountID
	SignerPublicKey      PublicKey
	GasPrice             uint256.Int
	OutputDataReceivers  []DataReceiver
	InputDataIDs         []common.Hash
	Actions              []Action
}

// DataReceipt is the "value flowing to a join" payload of a Receipt.
type DataReceipt struct {
	DataID common.Hash
	Data   OptionalBytes // None means the producing action failed
}

// ReceiptKind tags which of ActionReceipt/DataReceipt a Receipt carries.
type ReceiptKind byte

const (
	ReceiptAction ReceiptKind = iota
	ReceiptData
)

// Receipt is the cross-account/cross-shard message of spec §3. Exactly one
// of Action/Data is populated, selected by Kind — receipts never hold
// pointers to other receipts (design note: "Receipt cycles via ID only"),
// the join graph is expressed purely through InputDataIDs/OutputDataReceivers.
type Receipt struct {
	PredecessorID common.AccountID
	ReceiverID    common.AccountID
	ReceiptID     common.Hash

	Kind   ReceiptKind
	Action *ActionReceipt
	Data   *DataReceipt
}

// NewRefundReceipt builds a system-originated Transfer action-receipt
// refunding amount to receiverID, per spec §4.5 step 7.
func NewRefundReceipt(receiverID common.AccountID, amount uint256.Int) Receipt {
	return Receipt{
		PredecessorID: common.SystemAccount,
		ReceiverID:    receiverID,
		Kind:          ReceiptAction,
		Action: &ActionReceipt{
			SignerID:  common.SystemAccount,
			GasPrice:  uint256.Int{},
			Actions:   []Action{NewTransfer(amount)},
		},
	}
}

func (r Receipt) EncodeRLP(w io.Writer) error {
	var payload interface{}
	switch r.Kind {
	case ReceiptAction:
		payload = r.Action
	case ReceiptData:
		payload = r.Data
	default:
		return errors.New("types: unknown receipt kind")
	}
	return rlp.Encode(w, struct {
		PredecessorID common.AccountID
		ReceiverID    common.AccountID
		ReceiptID     common.Hash
		Kind          ReceiptKind
		Payload       interface{}
	}{r.PredecessorID, r.ReceiverID, r.ReceiptID, r.Kind, payload})
}

func (r *Receipt) DecodeRLP(s *rlp.Stream) error {
	inner, err := s.EnterList()
	if err != nil {
		return err
	}
	if err := inner.Decode(&r.PredecessorID); err != nil {
		return err
	}
	if err := inner.Decode(&r.ReceiverID); err != nil {
		return err
	}
	if err := inner.Decode(&r.ReceiptID); err != nil {
		return err
	}
	if err := inner.Decode(&r.Kind); err != nil {
		return err
	}
	switch r.Kind {
	case ReceiptAction:
		r.Action = new(ActionReceipt)
		return inner.Decode(r.Action)
	case ReceiptData:
		r.Data = new(DataReceipt)
		return inner.Decode(r.Data)
	default:
		return errors.New("types: unknown receipt kind")
	}
}
