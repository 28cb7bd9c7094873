package runtime

import (
	"github.com/holiman/uint256"

	"github.com/m8ttyB/nearcore/config"
	"github.com/m8ttyB/nearcore/types"
)

// ApplyRent charges an account time-based rent proportional to
// (now_block - checkpoint) * storage_usage * rent_rate, capped at the
// account's liquid balance (spec §4.3). It returns the amount actually
// charged; a charge smaller than the nominal amount means the account ran
// out of balance, which check_rent below turns into a failure.
func ApplyRent(account *types.Account, nowBlock uint64, cfg *config.RentConfig) (*uint256.Int, error) {
	if nowBlock <= account.StorageRentCheckpoint {
		return new(uint256.Int), nil
	}
	blocks := nowBlock - account.StorageRentCheckpoint
	account.StorageRentCheckpoint = nowBlock

	nominal, err := rentDue(account.StorageUsage, blocks, cfg)
	if err != nil {
		return nil, err
	}
	charge := nominal
	if charge.Cmp(&account.Amount) > 0 {
		charge = &account.Amount
	}
	newAmount, err := config.SafeSubBalance(&account.Amount, charge)
	if err != nil {
		return nil, err
	}
	account.Amount = *newAmount
	return charge, nil
}

func rentDue(storageUsage, blocks uint64, cfg *config.RentConfig) (*uint256.Int, error) {
	byteBlocks := new(uint256.Int).SetUint64(storageUsage)
	byteBlocks.Mul(byteBlocks, new(uint256.Int).SetUint64(blocks))
	num := new(uint256.Int).SetUint64(cfg.RentRatePerByteBlock.Num)
	den := new(uint256.Int).SetUint64(cfg.RentRatePerByteBlock.Den)
	if den.IsZero() {
		return new(uint256.Int), nil
	}
	out, overflow := new(uint256.Int).MulOverflow(byteBlocks, num)
	if overflow {
		return nil, config.ErrIntegerOverflow
	}
	out.Div(out, den)
	return out, nil
}

// CheckRent validates that an account's remaining balance covers at least
// epoch_length more blocks of rent at its current usage (spec §4.3).
// Insufficiency is not a RuntimeError: it fails only the receipt being
// processed (spec §7).
func CheckRent(account *types.Account, epochLength uint64, cfg *config.RentConfig) (*types.ActionError, error) {
	due, err := rentDue(account.StorageUsage, epochLength, cfg)
	if err != nil {
		return nil, err
	}
	if due.Cmp(&account.Amount) > 0 {
		return &types.ActionError{Kind: types.RentUnpaid, Msg: "account cannot cover " + due.String() + " of rent for the next epoch"}, nil
	}
	return nil, nil
}

// recordSize is the rent-accounting byte cost of one genesis record, used by
// ComputeStorageUsage (spec §4.3).
func recordSize(dataLen int, cfg *config.RuntimeConfig) uint64 {
	return cfg.TransactionCosts.StorageUsageConfig.NumExtraBytesRecord + uint64(dataLen)
}

// GenesisRecordKind tags which genesis record contributes to an account's
// storage_usage (spec §3 "Genesis storage usage").
type GenesisRecordKind int

const (
	RecordAccount GenesisRecordKind = iota
	RecordData
	RecordContractCode
	RecordAccessKey
)

// GenesisRecord is one entry of the genesis record stream, reduced to the
// bytes ComputeStorageUsage needs to size it.
type GenesisRecord struct {
	AccountID string
	Kind      GenesisRecordKind
	KeyLen    int
	ValueLen  int
}

// ComputeStorageUsage sums, per account, the encoded size of every record
// belonging to it, in a single pass over the full record set — never
// inline while writing, since a Data record can precede its owning Account
// record in the input vector (SPEC_FULL §3 item 3, orig compute_storage_usage).
func ComputeStorageUsage(records []GenesisRecord, cfg *config.RuntimeConfig) map[string]uint64 {
	usage := make(map[string]uint64)
	for _, r := range records {
		switch r.Kind {
		case RecordAccount:
			usage[r.AccountID] += cfg.TransactionCosts.StorageUsageConfig.NumBytesAccount
		default:
			usage[r.AccountID] += recordSize(r.KeyLen+r.ValueLen, cfg)
		}
	}
	return usage
}
