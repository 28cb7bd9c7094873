// Package runtime implements the chunk-apply engine: the action executors,
// the rent and receipt machinery, and the apply orchestrator built on top of
// the types and config packages (spec §2, §4).
package runtime

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/types"
)

// RuntimeError is a fatal error that aborts apply without publishing any
// trie finalization (spec §7 category 1).
type RuntimeError struct {
	Kind string
	Err  error
}

func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("runtime: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("runtime: %s", e.Kind)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// StorageError wraps an inconsistent-state or IO failure from the trie
// collaborator. Cause is preserved via github.com/pkg/errors so a caller can
// still recover the originating error without changing RuntimeError's
// identity for errors.Is.
func StorageError(message string, cause error) *RuntimeError {
	var err error
	if cause != nil {
		err = pkgerrors.Wrap(cause, message)
	} else {
		err = pkgerrors.New(message)
	}
	return &RuntimeError{Kind: "StorageInconsistentState", Err: err}
}

// IntegerOverflowError reports a checked-arithmetic overflow anywhere in the
// engine (spec §4.1, §9 — "never saturating, never wrapping").
func IntegerOverflowError(cause error) *RuntimeError {
	return &RuntimeError{Kind: "UnexpectedIntegerOverflow", Err: cause}
}

// BalanceMismatchError reports a failed end-of-apply conservation audit
// (spec §4.10).
func BalanceMismatchError(message string) *RuntimeError {
	return &RuntimeError{Kind: "BalanceMismatch", Err: pkgerrors.New(message)}
}

// ReceiptValidationKind enumerates why an externally-originated receipt was
// rejected before dispatch (spec §6).
type ReceiptValidationKind int

const (
	InvalidPredecessorID ReceiptValidationKind = iota
	InvalidReceiverID
	ReceiptSizeExceeded
	TooManyActions
	MethodNameTooLong
	ArgumentsTooLarge
	TooManyDataReceivers
)

// ReceiptValidationError reports a malformed incoming or delayed receipt
// (spec §6, §8 scenario "Invalid incoming receipt").
type ReceiptValidationError struct {
	ReceiptID common.Hash
	Kind      ReceiptValidationKind
	Message   string
}

func (e *ReceiptValidationError) Error() string {
	return fmt.Sprintf("runtime: receipt %s invalid: %s", e.ReceiptID, e.Message)
}

// InvalidTxError reports a transaction the verifier rejected (spec §7).
type InvalidTxError struct {
	Hash    common.Hash
	Message string
}

func (e *InvalidTxError) Error() string {
	return fmt.Sprintf("runtime: invalid transaction %s: %s", e.Hash, e.Message)
}

// NewActionError builds the ActionError carried in a failed receipt's outcome
// (spec §7, §4.2 "pre-checks").
func NewActionError(index uint64, kind types.ActionErrorKind, format string, args ...interface{}) *types.ActionError {
	return &types.ActionError{Index: index, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
