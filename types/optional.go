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

package types

import (
	"io"

	"github.com/m8ttyB/nearcore/rlp"
)

// OptionalBytes distinguishes "no data" (a failed promise) from "empty
// data" (a successful call with no return value) — the same Option<bytes>
// distinction spec §3 draws for DataReceipt.Data, which bare nil-slice or
// nil-pointer RLP encoding cannot represent unambiguously.
type OptionalBytes struct {
	Valid bool
	Value []byte
}

func SomeBytes(b []byte) OptionalBytes { return OptionalBytes{Valid: true, Value: b} }
func NoBytes() OptionalBytes           { return OptionalBytes{} }

func (o OptionalBytes) EncodeRLP(w io.Writer) error {
	type wire struct {
		Valid bool
		Value []byte
	}
	return rlp.Encode(w, wire{o.Valid, o.Value})
}

func (o *OptionalBytes) DecodeRLP(s *rlp.Stream) error {
	var wire struct {
		Valid bool
		Value []byte
	}
	if err := s.Decode(&wire); err != nil {
		return err
	}
	o.Valid, o.Value = wire.Valid, wire.Value
	return nil
}

// OptionalGas represents apply_state.gas_limit: Option<Gas>.
type OptionalGas struct {
	Valid bool
	Value uint64
}

func SomeGas(v uint64) OptionalGas { return OptionalGas{Valid: true, Value: v} }

// Get returns the gas limit, or math.MaxUint64 when absent (spec §4.9:
// "infinite if absent").
func (o OptionalGas) Get() uint64 {
	if !o.Valid {
		return ^uint64(0)
	}
	return o.Value
}
