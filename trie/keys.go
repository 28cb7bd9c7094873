package trie

import (
	"encoding/binary"

	"github.com/m8ttyB/nearcore/common"
)

// Namespace separators for the per-account postponed-receipt keys (spec §6).
const (
	sepPostponedReceipt   byte = 0x01
	sepPostponedReceiptID byte = 0x02
	sepPendingDataCount   byte = 0x03
	sepReceivedData       byte = 0x04
	sepAccessKey          byte = 0x05
)

var accountKeyPrefix = []byte{0x00}
var codeKeyPrefix = []byte{0x06}

// AccountKey is the trie key for account.account_id's Account record.
func AccountKey(accountID common.AccountID) []byte {
	return append(append([]byte{}, accountKeyPrefix...), []byte(accountID)...)
}

// CodeKey is the trie key for the contract code blob addressed by its hash
// (account.code_hash, spec §3 "Account").
func CodeKey(codeHash common.Hash) []byte {
	return append(append([]byte{}, codeKeyPrefix...), codeHash.Bytes()...)
}

// AccessKeyKey is the trie key for one (account_id, public_key) access key.
func AccessKeyKey(accountID common.AccountID, publicKey string) []byte {
	return accountNamespaceKey(accountID, sepAccessKey, []byte(publicKey))
}

// DelayedReceiptIndicesKey is the single well-known key for the delayed
// queue's {first_index, next_available_index} record (spec §6).
var DelayedReceiptIndicesKey = []byte("DELAYED_RECEIPT_INDICES")

// DelayedReceiptKey is the key for delayed_receipt(i), i encoded big-endian
// (spec §6).
func DelayedReceiptKey(i uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], i)
	return append([]byte("delayed_receipt:"), buf[:]...)
}

// PostponedReceiptKey is postponed_receipt(account, receipt_id) (spec §6).
func PostponedReceiptKey(accountID common.AccountID, receiptID common.Hash) []byte {
	return accountNamespaceKey(accountID, sepPostponedReceipt, receiptID.Bytes())
}

// PostponedReceiptIDKey is postponed_receipt_id(account, data_id): the
// reverse index from a missing data_id back to the receipt awaiting it.
func PostponedReceiptIDKey(accountID common.AccountID, dataID common.Hash) []byte {
	return accountNamespaceKey(accountID, sepPostponedReceiptID, dataID.Bytes())
}

// PendingDataCountKey is pending_data_count(account, receipt_id).
func PendingDataCountKey(accountID common.AccountID, receiptID common.Hash) []byte {
	return accountNamespaceKey(accountID, sepPendingDataCount, receiptID.Bytes())
}

// ReceivedDataKey is received_data(account, data_id).
func ReceivedDataKey(accountID common.AccountID, dataID common.Hash) []byte {
	return accountNamespaceKey(accountID, sepReceivedData, dataID.Bytes())
}

func accountNamespaceKey(accountID common.AccountID, sep byte, suffix []byte) []byte {
	out := make([]byte, 0, len(accountID)+1+len(suffix))
	out = append(out, []byte(accountID)...)
	out = append(out, sep)
	out = append(out, suffix...)
	return out
}
