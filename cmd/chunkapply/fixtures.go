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

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/holiman/uint256"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/runtime"
	"github.com/m8ttyB/nearcore/types"
)

// genesisFixture is the on-disk JSON shape of a genesis file: a validator
// set plus the state-record stream runtime.ApplyGenesisState consumes.
// Amounts are decimal strings since uint256.Int has no JSON literal form
// that round-trips through a text editor.
type genesisFixture struct {
	Validators []validatorFixture `json:"validators"`
	Records    []recordFixture    `json:"records"`
}

type validatorFixture struct {
	AccountID string `json:"account_id"`
	Stake     string `json:"stake"`
}

type recordFixture struct {
	Kind      string `json:"kind"` // account | access_key | data | postponed_receipt
	AccountID string `json:"account_id"`

	Amount string `json:"amount,omitempty"`
	Locked string `json:"locked,omitempty"`

	PublicKey string `json:"public_key,omitempty"`

	DataID string `json:"data_id,omitempty"`
	Data   string `json:"data,omitempty"`

	Receipt *receiptFixture `json:"receipt,omitempty"`
}

// chunkFixture is one element of the ordered sequence of chunk-apply calls
// the run command replays against the loaded genesis state.
type chunkFixture struct {
	BlockHeight    uint64            `json:"block_height"`
	EpochLength    uint64            `json:"epoch_length"`
	GasPrice       string            `json:"gas_price"`
	BlockTimestamp uint64            `json:"block_timestamp"`
	GasLimit       *uint64           `json:"gas_limit,omitempty"`
	Receipts       []receiptFixture  `json:"receipts"`
}

type receiptFixture struct {
	PredecessorID string           `json:"predecessor_id"`
	ReceiverID    string           `json:"receiver_id"`
	ReceiptID     string           `json:"receipt_id"`
	SignerID      string           `json:"signer_id,omitempty"`
	Actions       []actionFixture  `json:"actions,omitempty"`
}

// actionFixture covers the two action kinds a demo chunk stream needs;
// everything else (deploy/function-call/stake/key management) is exercised
// directly by runtime's own test suite rather than through this CLI.
type actionFixture struct {
	Kind    string `json:"kind"` // create_account | transfer
	Deposit string `json:"deposit,omitempty"`
}

func loadGenesisFixture(path string) (*genesisFixture, error) {
	var g genesisFixture
	if err := readJSONFile(path, &g); err != nil {
		return nil, fmt.Errorf("chunkapply: loading genesis fixture %s: %w", path, err)
	}
	return &g, nil
}

func loadChunkFixture(path string) (*chunkFixture, error) {
	var c chunkFixture
	if err := readJSONFile(path, &c); err != nil {
		return nil, fmt.Errorf("chunkapply: loading chunk fixture %s: %w", path, err)
	}
	return &c, nil
}

func readJSONFile(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(v)
}

func parseBalance(s string) (uint256.Int, error) {
	if s == "" {
		return uint256.Int{}, nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("parsing balance %q: %w", s, err)
	}
	return *v, nil
}

// toStateRecords converts a genesisFixture's validators/records into the
// types runtime.ApplyGenesisState expects.
func toStateRecords(g *genesisFixture) ([]types.ValidatorStake, []runtime.StateRecord, error) {
	validators := make([]types.ValidatorStake, len(g.Validators))
	for i, v := range g.Validators {
		stake, err := parseBalance(v.Stake)
		if err != nil {
			return nil, nil, err
		}
		validators[i] = types.ValidatorStake{AccountID: common.AccountID(v.AccountID), Stake: stake}
	}

	records := make([]runtime.StateRecord, 0, len(g.Records))
	for _, r := range g.Records {
		switch r.Kind {
		case "account":
			amount, err := parseBalance(r.Amount)
			if err != nil {
				return nil, nil, err
			}
			locked, err := parseBalance(r.Locked)
			if err != nil {
				return nil, nil, err
			}
			records = append(records, runtime.StateRecord{
				Kind:      runtime.StateRecordAccount,
				AccountID: common.AccountID(r.AccountID),
				Account:   &types.Account{Amount: amount, Locked: locked},
			})
		case "access_key":
			records = append(records, runtime.StateRecord{
				Kind:      runtime.StateRecordAccessKey,
				AccountID: common.AccountID(r.AccountID),
				PublicKey: types.PublicKey(r.PublicKey),
				AccessKey: &types.AccessKey{Permission: types.FullAccess},
			})
		case "data":
			records = append(records, runtime.StateRecord{
				Kind:      runtime.StateRecordData,
				AccountID: common.AccountID(r.AccountID),
				DataID:    common.HexToHash(r.DataID),
				Data:      []byte(r.Data),
			})
		case "postponed_receipt":
			if r.Receipt == nil {
				return nil, nil, fmt.Errorf("postponed_receipt record for %s has no receipt body", r.AccountID)
			}
			receipt, err := r.Receipt.toReceipt()
			if err != nil {
				return nil, nil, err
			}
			records = append(records, runtime.StateRecord{Kind: runtime.StateRecordPostponedReceipt, Receipt: &receipt})
		default:
			return nil, nil, fmt.Errorf("unknown genesis record kind %q", r.Kind)
		}
	}
	return validators, records, nil
}

func (rf receiptFixture) toReceipt() (types.Receipt, error) {
	actions := make([]types.Action, len(rf.Actions))
	for i, a := range rf.Actions {
		switch a.Kind {
		case "create_account":
			actions[i] = types.NewCreateAccount()
		case "transfer":
			deposit, err := parseBalance(a.Deposit)
			if err != nil {
				return types.Receipt{}, err
			}
			actions[i] = types.NewTransfer(deposit)
		default:
			return types.Receipt{}, fmt.Errorf("unknown action kind %q", a.Kind)
		}
	}

	receiptID := common.HexToHash(rf.ReceiptID)
	if receiptID.IsZero() {
		receiptID = common.BytesToHash([]byte(rf.PredecessorID + "->" + rf.ReceiverID))
	}
	signerID := rf.SignerID
	if signerID == "" {
		signerID = rf.PredecessorID
	}

	return types.Receipt{
		PredecessorID: common.AccountID(rf.PredecessorID),
		ReceiverID:    common.AccountID(rf.ReceiverID),
		ReceiptID:     receiptID,
		Kind:          types.ReceiptAction,
		Action: &types.ActionReceipt{
			SignerID: common.AccountID(signerID),
			Actions:  actions,
		},
	}, nil
}

// toApplyState builds the per-chunk ApplyState and incoming-receipt slice
// runtime.Apply needs from one chunkFixture.
func toApplyState(c *chunkFixture) (*types.ApplyState, []types.Receipt, error) {
	gasPrice, err := parseBalance(c.GasPrice)
	if err != nil {
		return nil, nil, err
	}
	as := &types.ApplyState{
		BlockHeight:    c.BlockHeight,
		EpochLength:    c.EpochLength,
		GasPrice:       gasPrice,
		BlockTimestamp: c.BlockTimestamp,
		GasLimit:       types.SomeGas(^uint64(0)),
	}
	if c.GasLimit != nil {
		as.GasLimit = types.SomeGas(*c.GasLimit)
	}

	receipts := make([]types.Receipt, len(c.Receipts))
	for i, rf := range c.Receipts {
		r, err := rf.toReceipt()
		if err != nil {
			return nil, nil, err
		}
		receipts[i] = r
	}
	return as, receipts, nil
}
