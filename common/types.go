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

// Package common holds the small set of value types shared across every
// package in this module: content hashes, account identifiers and a
// handful of byte-slice helpers.
package common

import (
	"encoding/hex"
	"fmt"
	"regexp"
)

const HashLength = 32

// Hash is a content address: a receipt_id, an action-hash, a tx hash or a
// trie node hash.
type Hash [HashLength]byte

func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

func HexToHash(s string) Hash {
	b, _ := hex.DecodeString(s)
	return BytesToHash(b)
}

func (h Hash) Bytes() []byte   { return h[:] }
func (h Hash) Hex() string     { return "0x" + hex.EncodeToString(h[:]) }
func (h Hash) String() string  { return h.Hex() }
func (h Hash) IsZero() bool    { return h == Hash{} }

// MarshalJSON renders a Hash the way the rpc package's JSON views expect it:
// a 0x-prefixed hex string rather than an array of 32 numbers.
func (h Hash) MarshalJSON() ([]byte, error) {
	return []byte(`"` + h.Hex() + `"`), nil
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	s = trimHexPrefix(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*h = BytesToHash(b)
	return nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// AccountID is a NEAR-style dotted account identifier, e.g. "alice.near" or
// "system".
type AccountID string

var accountIDPattern = regexp.MustCompile(`^(([a-z0-9]+[-_])*[a-z0-9]+\.)*([a-z0-9]+[-_])*[a-z0-9]+$`)

// ValidAccountID reports whether id satisfies the account-id syntax rules
// checked by receipt validation (spec §6).
func ValidAccountID(id AccountID) bool {
	if len(id) < 2 || len(id) > 64 {
		return false
	}
	return accountIDPattern.MatchString(string(id))
}

// SystemAccount is the dedicated identity that originates refund receipts.
// Its receipts neither burn gas nor generate further refunds.
const SystemAccount AccountID = "system"

// StorageSize is a number of bytes an account occupies in the trie,
// formatted for logs the way the teacher formats it.
type StorageSize float64

func (s StorageSize) String() string {
	if s > 1000000 {
		return fmt.Sprintf("%.2f mB", s/1000000)
	} else if s > 1000 {
		return fmt.Sprintf("%.2f kB", s/1000)
	}
	return fmt.Sprintf("%.2f B", s)
}

// CopyBytes returns an exact copy of the provided byte slice.
func CopyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	cpy := make([]byte, len(b))
	copy(cpy, b)
	return cpy
}
