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

// Package config holds the checked-arithmetic primitives and per-action fee
// table every other package in this module calls into. Every balance and
// gas sum in the engine is consensus-critical: an overflow must surface as
// ErrIntegerOverflow, never wrap or saturate (spec §4.1, §9).
package config

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// ErrIntegerOverflow is returned by every checked-arithmetic helper on
// overflow or underflow. The apply orchestrator maps it straight to the
// fatal RuntimeError of the same name.
var ErrIntegerOverflow = errors.New("unexpected integer overflow")

// Balance is a non-negative 256-bit token amount.
type Balance = uint256.Int

// Gas is a 64-bit unit count; gas quantities never approach the 256-bit
// range balances do, but sums are still checked.
type Gas = uint64

// NewBalance builds a *Balance from a uint64, the common case in tests and
// genesis loading.
func NewBalance(v uint64) *Balance {
	return new(uint256.Int).SetUint64(v)
}

// SafeAddBalance returns a+b, checked.
func SafeAddBalance(a, b *Balance) (*Balance, error) {
	out := new(uint256.Int)
	if _, overflow := out.AddOverflow(a, b); overflow {
		return nil, ErrIntegerOverflow
	}
	return out, nil
}

// SafeSubBalance returns a-b, checked; also fails if b > a (underflow).
func SafeSubBalance(a, b *Balance) (*Balance, error) {
	if a.Cmp(b) < 0 {
		return nil, ErrIntegerOverflow
	}
	out := new(uint256.Int).Sub(a, b)
	return out, nil
}

// SafeAddGas returns a+b, checked against uint64 overflow.
func SafeAddGas(a, b Gas) (Gas, error) {
	sum := a + b
	if sum < a {
		return 0, ErrIntegerOverflow
	}
	return sum, nil
}

// SafeSubGas returns a-b, checked against underflow.
func SafeSubGas(a, b Gas) (Gas, error) {
	if b > a {
		return 0, ErrIntegerOverflow
	}
	return a - b, nil
}

// SafeGasToBalance converts a gas quantity to a balance at the given
// gas_price, checked: gas * gas_price must not overflow 256 bits.
func SafeGasToBalance(gasPrice *Balance, gas Gas) (*Balance, error) {
	g := new(uint256.Int).SetUint64(gas)
	out := new(uint256.Int)
	_, overflow := out.MulOverflow(g, gasPrice)
	if overflow {
		return nil, ErrIntegerOverflow
	}
	return out, nil
}

// MulRatioGasTrunc computes num*gas/den with truncation toward zero, used
// for the burnt-gas-reward fraction (spec §4.1). The intermediate product
// is computed at 128-bit width so it can never silently wrap; the result
// is checked to still fit in 64 bits.
func MulRatioGasTrunc(gas Gas, num, den uint64) (Gas, error) {
	if den == 0 {
		return 0, errors.New("config: zero denominator in gas ratio")
	}
	product := new(big.Int).Mul(new(big.Int).SetUint64(gas), new(big.Int).SetUint64(num))
	product.Quo(product, new(big.Int).SetUint64(den))
	if !product.IsUint64() {
		return 0, ErrIntegerOverflow
	}
	return product.Uint64(), nil
}
