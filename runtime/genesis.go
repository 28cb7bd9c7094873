package runtime

import (
	"github.com/m8ttyB/nearcore/common"
	"github.com/m8ttyB/nearcore/config"
	"github.com/m8ttyB/nearcore/crypto"
	"github.com/m8ttyB/nearcore/rlp"
	"github.com/m8ttyB/nearcore/trie"
	"github.com/m8ttyB/nearcore/types"
)

// StateRecordKind tags which variant of the genesis record stream a
// StateRecord carries (spec §6 "apply_genesis_state").
type StateRecordKind int

const (
	StateRecordAccount StateRecordKind = iota
	StateRecordAccessKey
	StateRecordData
	StateRecordContract
	StateRecordPostponedReceipt
)

// StateRecord is one entry of the genesis record stream. Only the fields
// matching Kind are populated.
type StateRecord struct {
	Kind StateRecordKind

	AccountID common.AccountID
	Account   *types.Account

	PublicKey types.PublicKey
	AccessKey *types.AccessKey

	DataID common.Hash
	Data   []byte

	Code []byte

	Receipt *types.Receipt
}

// ApplyGenesisState initializes state from a validator list and a genesis
// record stream (spec §6). Records are written in a single first pass;
// storage_usage is then computed over the whole stream and patched onto
// every account in a second pass, since a Data record can precede the
// Account record it belongs to (SPEC_FULL §3 item 3). Postponed receipts
// named in the stream are buffered and re-joined against already-loaded
// received_data only after every other record has landed, since the data a
// postponed receipt needs may appear later in the stream (SPEC_FULL §3
// item 4). Every validator's locked balance is then forced to its bonded
// amount, overwriting whatever the records set (SPEC_FULL §3 item 5).
func ApplyGenesisState(state *State, cfg *config.RuntimeConfig, validators []types.ValidatorStake, records []StateRecord) (*trie.Changes, error) {
	state.ResetTouched()

	usageRecords := make([]GenesisRecord, 0, len(records))
	var postponed []*types.Receipt

	for i := range records {
		r := &records[i]
		switch r.Kind {
		case StateRecordAccount:
			if err := state.PutAccount(r.AccountID, r.Account); err != nil {
				return nil, err
			}
			usageRecords = append(usageRecords, GenesisRecord{AccountID: string(r.AccountID), Kind: RecordAccount})

		case StateRecordAccessKey:
			if err := state.PutAccessKey(r.AccountID, r.PublicKey, r.AccessKey); err != nil {
				return nil, err
			}
			enc, err := rlp.EncodeToBytes(r.AccessKey)
			if err != nil {
				return nil, StorageError("encoding genesis access key for "+string(r.AccountID), err)
			}
			usageRecords = append(usageRecords, GenesisRecord{
				AccountID: string(r.AccountID), Kind: RecordAccessKey,
				KeyLen: len(r.PublicKey), ValueLen: len(enc),
			})

		case StateRecordData:
			if err := state.PutReceivedData(r.AccountID, r.DataID, types.SomeBytes(r.Data)); err != nil {
				return nil, err
			}
			usageRecords = append(usageRecords, GenesisRecord{
				AccountID: string(r.AccountID), Kind: RecordData,
				KeyLen: len(r.DataID.Bytes()), ValueLen: len(r.Data),
			})

		case StateRecordContract:
			codeHash := crypto.Keccak256Hash(r.Code)
			state.PutCode(codeHash, r.Code)
			acc, exists, err := state.GetAccount(r.AccountID)
			if err != nil {
				return nil, err
			}
			if !exists {
				return nil, StorageError("genesis contract record for unknown account "+string(r.AccountID), nil)
			}
			acc.CodeHash = codeHash
			if err := state.PutAccount(r.AccountID, acc); err != nil {
				return nil, err
			}
			usageRecords = append(usageRecords, GenesisRecord{
				AccountID: string(r.AccountID), Kind: RecordContractCode,
				ValueLen: len(r.Code),
			})

		case StateRecordPostponedReceipt:
			postponed = append(postponed, r.Receipt)

		default:
			return nil, StorageError("unknown genesis record kind", nil)
		}
	}

	// Second pass: patch storage_usage now that every record has landed.
	usage := ComputeStorageUsage(usageRecords, cfg)
	for accountID, bytes := range usage {
		acc, exists, err := state.GetAccount(common.AccountID(accountID))
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, StorageError("storage usage computed for unknown account "+accountID, nil)
		}
		acc.StorageUsage = bytes
		if err := state.PutAccount(common.AccountID(accountID), acc); err != nil {
			return nil, err
		}
	}

	// Re-join postponed receipts against whatever received_data landed
	// anywhere else in the stream. One whose inputs are already all present
	// has nothing left to wait on; rather than inventing a genesis-only
	// execution path, it goes straight into the delayed queue so the first
	// real apply call picks it up through the ordinary drain (runtime/apply.go).
	for _, r := range postponed {
		var missingIdx []int
		for i, dataID := range r.Action.InputDataIDs {
			_, ok, err := state.GetReceivedData(r.ReceiverID, dataID)
			if err != nil {
				return nil, err
			}
			if !ok {
				missingIdx = append(missingIdx, i)
			}
		}
		if len(missingIdx) == 0 {
			if err := DelayReceipt(state, r); err != nil {
				return nil, err
			}
			continue
		}
		for _, i := range missingIdx {
			state.PutPostponedReceiptID(r.ReceiverID, r.Action.InputDataIDs[i], r.ReceiptID)
		}
		state.PutPendingDataCount(r.ReceiverID, r.ReceiptID, uint32(len(missingIdx)))
		if err := state.PutPostponedReceipt(r.ReceiverID, r.ReceiptID, r); err != nil {
			return nil, err
		}
	}

	// Validator locked balances are authoritative over the record stream.
	for _, v := range validators {
		acc, exists, err := state.GetAccount(v.AccountID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, StorageError("validator "+string(v.AccountID)+" has no genesis account record", nil)
		}
		acc.Locked = v.Stake
		if err := state.PutAccount(v.AccountID, acc); err != nil {
			return nil, err
		}
	}

	if err := state.Commit(trie.InitialState); err != nil {
		return nil, err
	}
	return state.Finalize()
}
