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

package config

import (
	"os"

	"github.com/naoina/toml"
)

// ActionCosts carries the exec fee for every action kind (spec §4.2).
type ActionCosts struct {
	CreateAccount   Gas `toml:"create_account"`
	DeployContract  Gas `toml:"deploy_contract"`
	DeployContractPerByte Gas `toml:"deploy_contract_per_byte"`
	FunctionCall    Gas `toml:"function_call"`
	FunctionCallPerByte Gas `toml:"function_call_per_byte"`
	Transfer        Gas `toml:"transfer"`
	Stake           Gas `toml:"stake"`
	AddKey          Gas `toml:"add_key"`
	AddKeyPerByte   Gas `toml:"add_key_per_byte"`
	DeleteKey       Gas `toml:"delete_key"`
	DeleteAccount   Gas `toml:"delete_account"`
	ActionReceiptCreation Gas `toml:"action_receipt_creation"`
	DataReceiptCreationBase Gas `toml:"data_receipt_creation_base"`
	DataReceiptCreationPerByte Gas `toml:"data_receipt_creation_per_byte"`
}

// Ratio is an integer num/den fraction, truncated on division (spec §4.1).
type Ratio struct {
	Num uint64 `toml:"numerator"`
	Den uint64 `toml:"denominator"`
}

// StorageUsageConfig mirrors the original's per-record overhead constants
// used by both genesis storage-usage computation and the AddKey/DeleteKey
// executors (spec §4.3).
type StorageUsageConfig struct {
	NumBytesAccount     uint64 `toml:"num_bytes_account"`
	NumExtraBytesRecord uint64 `toml:"num_extra_bytes_record"`
}

// TransactionCosts is the full consensus-critical fee table, the Go
// analogue of the original's RuntimeFeesConfig.
type TransactionCosts struct {
	ActionCosts         ActionCosts        `toml:"action_costs"`
	BurntGasReward      Ratio              `toml:"burnt_gas_reward"`
	StorageUsageConfig  StorageUsageConfig `toml:"storage_usage_config"`
	StorageAmountPerByte uint64            `toml:"storage_amount_per_byte"`
}

// Limits bounds receipt validation (spec §6, §9 Open Question).
type Limits struct {
	MaxActionsPerReceipt   int `toml:"max_actions_per_receipt"`
	MaxMethodNameLength    int `toml:"max_method_name_length"`
	MaxArgumentsLength     int `toml:"max_arguments_length"`
	MaxReceiptSize         int `toml:"max_receipt_size"`
	MaxNumberDataReceivers int `toml:"max_number_data_receivers"`
}

// RentConfig drives ApplyRent / CheckRent (spec §4.3).
type RentConfig struct {
	// RentRatePerByteBlock is the balance charged per (byte * block) of
	// storage_usage, e.g. {Num:1, Den:1000000} NEAR-per-byte-per-block.
	RentRatePerByteBlock Ratio `toml:"rent_rate_per_byte_block"`
}

// RuntimeConfig is the full knob set the chunk-apply engine is parameterized
// by; loaded once at process start and threaded through every call, the way
// the teacher threads params.ChainConfig.
type RuntimeConfig struct {
	TransactionCosts TransactionCosts `toml:"transaction_costs"`
	Limits           Limits           `toml:"limits"`
	Rent             RentConfig       `toml:"rent"`
}

// DefaultRuntimeConfig returns the reference parameterization used by tests
// and by the cmd/chunkapply CLI, which takes no config file.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		TransactionCosts: TransactionCosts{
			ActionCosts: ActionCosts{
				CreateAccount:              100_000,
				DeployContract:             184_765_750,
				DeployContractPerByte:      6_812,
				FunctionCall:               2_319_861_500,
				FunctionCallPerByte:        2_235,
				Transfer:                   115_123_062,
				Stake:                      141_715_687,
				AddKey:                     101_765_762,
				AddKeyPerByte:              1_365_762,
				DeleteKey:                  94_946_625,
				DeleteAccount:              147_489_000,
				ActionReceiptCreation:      108_059_500,
				DataReceiptCreationBase:    4_697_339,
				DataReceiptCreationPerByte: 59_357_464,
			},
			BurntGasReward:     Ratio{Num: 30, Den: 100},
			StorageUsageConfig: StorageUsageConfig{NumBytesAccount: 100, NumExtraBytesRecord: 40},
			StorageAmountPerByte: 10_000_000_000_000_000_000, // 1e19 yocto-units/byte
		},
		Limits: Limits{
			MaxActionsPerReceipt:   16,
			MaxMethodNameLength:    256,
			MaxArgumentsLength:     4_000_000,
			MaxReceiptSize:         4_000_000,
			MaxNumberDataReceivers: 100,
		},
		Rent: RentConfig{RentRatePerByteBlock: Ratio{Num: 1, Den: 1_000_000}},
	}
}

// LoadRuntimeConfig reads a RuntimeConfig from a TOML file, falling back to
// field defaults for anything the file omits.
func LoadRuntimeConfig(path string) (*RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
