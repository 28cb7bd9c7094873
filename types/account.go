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

// Package types is the data model of spec §3: accounts, access keys,
// receipts, signed transactions, execution outcomes and the small set of
// per-chunk input/output structs apply() is parameterized by.
package types

import (
	"github.com/holiman/uint256"

	"github.com/m8ttyB/nearcore/common"
)

// Account is the owner of a single AccountID (spec §3).
type Account struct {
	Amount            uint256.Int // liquid balance
	Locked            uint256.Int // staked balance
	CodeHash          common.Hash // zero value means no contract attached
	StorageUsage      uint64      // bytes
	StorageRentCheckpoint uint64  // block_height rent was last charged up to
}

func NewAccount() *Account {
	return &Account{}
}

// Permission is the access-key permission kind.
type Permission int

const (
	FullAccess Permission = iota
	FunctionCallAccess
)

// FunctionCallPermission restricts a function-call access key to a single
// receiver contract, an optional allowance and a method allow-list.
type FunctionCallPermission struct {
	Allowance   *uint256.Int // nil means unlimited
	ReceiverID  common.AccountID
	MethodNames []string
}

// AccessKey is a (account_id, public_key) -> AccessKey mapping entry.
type AccessKey struct {
	Nonce      uint64
	Permission Permission
	FunctionCall *FunctionCallPermission // only set when Permission == FunctionCallAccess
}

// PublicKey is an opaque, comparable wire-format public key.
type PublicKey string
