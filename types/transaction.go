// Copyright 2014 The go-ethereum Authors
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
	"fmt"
	"io"
	"math/big"
	"sync/atomic"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/crypto"
	"github.com/m8ttyB/nearcore/logger"
	"github.com/m8ttyB/nearcore/logger/glog"
	"github.com/m8ttyB/nearcore/rlp"
)

var ErrInvalidSig = errors.New("invalid v, r, s values")

// SignedTransaction is a client-submitted, signed intent to run a list of
// actions against receiver_id (spec §4.4 input). The cached hash/size idiom
// mirrors the teacher's *Transaction.
type SignedTransaction struct {
	Dat TxData
	// caches
	hash atomic.Value
	size atomic.Value
}

// TxData is the plain, RLP-encoded payload of a SignedTransaction — the
// same split the teacher uses between Transaction and TxData so the
// signature fields sit beside what they sign.
type TxData struct {
	SignerID   common.AccountID
	PublicKey  PublicKey
	Nonce      uint64
	ReceiverID common.AccountID
	Actions    []Action

	V    byte // signature
	R, S [32]byte
}

func NewSignedTransaction(signerID common.AccountID, pubKey PublicKey, nonce uint64, receiverID common.AccountID, actions []Action) *SignedTransaction {
	return &SignedTransaction{Dat: TxData{
		SignerID:   signerID,
		PublicKey:  pubKey,
		Nonce:      nonce,
		ReceiverID: receiverID,
		Actions:    actions,
	}}
}

func (tx *SignedTransaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &tx.Dat)
}

func (tx *SignedTransaction) DecodeRLP(s *rlp.Stream) error {
	_, size, _ := s.Kind()
	err := s.Decode(&tx.Dat)
	if err == nil {
		tx.size.Store(common.StorageSize(rlp.ListSize(size)))
	}
	return err
}

func (tx *SignedTransaction) SignerID() common.AccountID   { return tx.Dat.SignerID }
func (tx *SignedTransaction) ReceiverID() common.AccountID { return tx.Dat.ReceiverID }
func (tx *SignedTransaction) Nonce() uint64                { return tx.Dat.Nonce }
func (tx *SignedTransaction) Actions() []Action            { return tx.Dat.Actions }

// Hash hashes the RLP encoding of the whole payload, signature fields
// included. It uniquely identifies the transaction, the same role tx.Hash()
// plays for the teacher.
func (tx *SignedTransaction) Hash() common.Hash {
	if hash := tx.hash.Load(); hash != nil {
		return hash.(common.Hash)
	}
	v := rlpHash(&tx.Dat)
	tx.hash.Store(v)
	return v
}

// SigHash returns the hash to be signed by the sender. It excludes the
// signature fields, so it does not uniquely identify the transaction once
// signed — mirrors the teacher's SigHash.
func (tx *SignedTransaction) SigHash() common.Hash {
	return rlpHash([]interface{}{
		tx.Dat.SignerID,
		tx.Dat.PublicKey,
		tx.Dat.Nonce,
		tx.Dat.ReceiverID,
		tx.Dat.Actions,
	})
}

func (tx *SignedTransaction) Size() common.StorageSize {
	if size := tx.size.Load(); size != nil {
		return size.(common.StorageSize)
	}
	enc, _ := rlp.EncodeToBytes(&tx.Dat)
	tx.size.Store(common.StorageSize(len(enc)))
	return common.StorageSize(len(enc))
}

// WithSignature returns a copy of tx carrying the compact 65-byte signature
// sig (R || S || V), the same convention the teacher's WithSignature uses.
func (tx *SignedTransaction) WithSignature(sig []byte) (*SignedTransaction, error) {
	if len(sig) != 65 {
		return nil, fmt.Errorf("types: wrong size for signature: got %d, want 65", len(sig))
	}
	cpy := &SignedTransaction{Dat: tx.Dat}
	copy(cpy.Dat.R[:], sig[:32])
	copy(cpy.Dat.S[:], sig[32:64])
	cpy.Dat.V = sig[64]
	return cpy, nil
}

// PublicKeyBytes recovers the signer's public key from (SigHash, V, R, S),
// failing closed the way the teacher's publicKey() does on a bad signature.
func (tx *SignedTransaction) PublicKeyBytes() ([]byte, error) {
	r := new(big.Int).SetBytes(tx.Dat.R[:])
	s := new(big.Int).SetBytes(tx.Dat.S[:])
	if !crypto.ValidateSignatureValues(tx.Dat.V, r, s) {
		return nil, ErrInvalidSig
	}
	sig := make([]byte, 65)
	copy(sig[:32], tx.Dat.R[:])
	copy(sig[32:64], tx.Dat.S[:])
	sig[64] = tx.Dat.V

	hash := tx.SigHash()
	pub, err := crypto.Ecrecover(hash[:], sig)
	if err != nil {
		glog.V(logger.Error).Infof("types: could not recover pubkey from signature: %v", err)
		return nil, err
	}
	return pub, nil
}

func (tx *SignedTransaction) String() string {
	enc, _ := rlp.EncodeToBytes(&tx.Dat)
	return fmt.Sprintf(`
	TX(%x)
	Signer:   %s
	Receiver: %s
	Nonce:    %d
	Actions:  %d
	Hex:      %x
`,
		tx.Hash(),
		tx.Dat.SignerID,
		tx.Dat.ReceiverID,
		tx.Dat.Nonce,
		len(tx.Dat.Actions),
		enc,
	)
}

func rlpHash(x interface{}) (h common.Hash) {
	b, _ := rlp.EncodeToBytes(x)
	return crypto.Keccak256Hash(b)
}
