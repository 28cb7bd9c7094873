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

package crypto

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/m8ttyB/nearcore/common"
)

// Keccak256 returns the Keccak-256 digest of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash is Keccak256 wrapped into a common.Hash.
func Keccak256Hash(data ...[]byte) common.Hash {
	return common.BytesToHash(Keccak256(data...))
}

// CreateNonceWithNonce derives a content-addressed ID from a parent hash and
// an index, used both for new receipt IDs (hash(parent_receipt_id, index))
// and for action-hashes (hash(parent_receipt_id, MAX_U64 - action_index)).
func CreateNonceWithNonce(base common.Hash, nonce uint64) common.Hash {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], nonce)
	return Keccak256Hash(base[:], buf[:])
}

// ActionHash derives the hash used as the execution context for the
// action_index'th action of a receipt, chosen so it never collides with a
// child-receipt ID (see spec §9 and DESIGN.md Open Question).
func ActionHash(parentReceiptID common.Hash, actionIndex uint64) common.Hash {
	return CreateNonceWithNonce(parentReceiptID, ^uint64(0)-actionIndex)
}

var ErrInvalidSig = errors.New("invalid signature values")

// Sign signs digest with prv and returns a 65-byte [R || S || V] signature.
func Sign(digest []byte, prv *btcec.PrivateKey) ([]byte, error) {
	if len(digest) != 32 {
		return nil, errors.New("hash is required to be exactly 32 bytes")
	}
	sig := ecdsa.SignCompact(prv, digest, false)
	// btcec's compact format is [V || R || S]; re-order to [R || S || V].
	out := make([]byte, 65)
	copy(out[:64], sig[1:])
	out[64] = sig[0]
	return out, nil
}

// Ecrecover recovers the public key (uncompressed, 65 bytes) that produced
// sig over digest.
func Ecrecover(digest, sig []byte) ([]byte, error) {
	if len(sig) != 65 {
		return nil, ErrInvalidSig
	}
	compact := make([]byte, 65)
	compact[0] = sig[64]
	copy(compact[1:], sig[:64])
	pub, _, err := ecdsa.RecoverCompact(compact, digest)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

// ValidateSignatureValues checks that r, s fall within the secp256k1 group
// order, mirroring the teacher's homestead-vs-frontier signature validation.
func ValidateSignatureValues(v byte, r, s *big.Int) bool {
	if r == nil || s == nil {
		return false
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return false
	}
	n := btcec.S256().N
	return r.Cmp(n) < 0 && s.Cmp(n) < 0 && (v == 0 || v == 1)
}
