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

// Package rlp implements the trie's wire codec for every record this engine
// stores: accounts, access keys, receipts, the delayed-receipt queue and
// signed transactions. It follows the same shape as the teacher's rlp usage
// (EncodeRLP/DecodeRLP methods on a value, delegating to a plain field
// struct) without depending on upstream go-ethereum.
package rlp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"reflect"

	"github.com/holiman/uint256"
)

// Encoder is implemented by types with a custom wire representation, exactly
// as the teacher's *Transaction does for its TxData.
type Encoder interface {
	EncodeRLP(io.Writer) error
}

// Decoder is the Encoder counterpart.
type Decoder interface {
	DecodeRLP(*Stream) error
}

// byteser is implemented by holiman/uint256.Int and math/big.Int-compatible
// checked-arithmetic wrappers so they serialize as a minimal big-endian
// byte string instead of via struct reflection.
type byteser interface {
	Bytes() []byte
}

// EncodeToBytes returns the RLP encoding of val.
func EncodeToBytes(val interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, val); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the RLP encoding of val to w.
func Encode(w io.Writer, val interface{}) error {
	b, err := encodeValue(reflect.ValueOf(val))
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ListSize returns the encoded size of an RLP list with contentSize bytes
// of payload, mirroring the teacher's `rlp.ListSize(size)` call in
// transaction.go's DecodeRLP.
func ListSize(contentSize uint64) uint64 {
	return uint64(len(encodeListHeader(contentSize))) + contentSize
}

func encodeValue(v reflect.Value) ([]byte, error) {
	if !v.IsValid() {
		return encodeString(nil), nil
	}
	if v.CanInterface() {
		if enc, ok := v.Interface().(Encoder); ok {
			var buf bytes.Buffer
			if err := enc.EncodeRLP(&buf); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		}
		if bi, ok := v.Interface().(*big.Int); ok {
			if bi == nil {
				return encodeString(nil), nil
			}
			return encodeString(bi.Bytes()), nil
		}
		if b, ok := v.Interface().(byteser); ok {
			rv := reflect.ValueOf(b)
			if rv.Kind() == reflect.Ptr && rv.IsNil() {
				return encodeString(nil), nil
			}
			return encodeString(b.Bytes()), nil
		}
		// byteser is frequently implemented with a pointer receiver (e.g.
		// holiman/uint256.Int.Bytes()), which is absent from the method set
		// of a bare value; check the addressable pointer too.
		if v.CanAddr() {
			if b, ok := v.Addr().Interface().(byteser); ok {
				return encodeString(b.Bytes()), nil
			}
		}
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return encodeString(nil), nil
		}
		return encodeValue(v.Elem())
	case reflect.Ptr:
		if v.IsNil() {
			return encodeString(nil), nil
		}
		return encodeValue(v.Elem())
	case reflect.String:
		return encodeString([]byte(v.String())), nil
	case reflect.Bool:
		if v.Bool() {
			return encodeString([]byte{1}), nil
		}
		return encodeString(nil), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return encodeString(trimLeadingZeros(uintToBytes(v.Uint()))), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Int() < 0 {
			return nil, fmt.Errorf("rlp: cannot encode negative integer %d", v.Int())
		}
		return encodeString(trimLeadingZeros(uintToBytes(uint64(v.Int())))), nil
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return encodeString(sliceBytes(v)), nil
		}
		var items [][]byte
		for i := 0; i < v.Len(); i++ {
			b, err := encodeValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			items = append(items, b)
		}
		return encodeList(items), nil
	case reflect.Struct:
		var items [][]byte
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).PkgPath != "" {
				continue // unexported
			}
			b, err := encodeValue(v.Field(i))
			if err != nil {
				return nil, err
			}
			items = append(items, b)
		}
		return encodeList(items), nil
	case reflect.Map:
		keys := v.MapKeys()
		var items [][]byte
		for _, k := range keys {
			kb, err := encodeValue(k)
			if err != nil {
				return nil, err
			}
			vb, err := encodeValue(v.MapIndex(k))
			if err != nil {
				return nil, err
			}
			items = append(items, encodeList([][]byte{kb, vb}))
		}
		return encodeList(items), nil
	default:
		return nil, fmt.Errorf("rlp: unsupported kind %s", v.Kind())
	}
}

func uintToBytes(u uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(u)
		u >>= 8
	}
	return b
}

func trimLeadingZeros(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return b[i:]
}

func sliceBytes(v reflect.Value) []byte {
	if v.Kind() == reflect.Array {
		b := make([]byte, v.Len())
		reflect.Copy(reflect.ValueOf(b), v)
		return b
	}
	return v.Bytes()
}

func encodeString(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return b
	}
	if len(b) < 56 {
		out := make([]byte, 0, len(b)+1)
		out = append(out, 0x80+byte(len(b)))
		return append(out, b...)
	}
	lenBytes := trimLeadingZeros(uintToBytes(uint64(len(b))))
	out := make([]byte, 0, len(b)+len(lenBytes)+1)
	out = append(out, 0xb7+byte(len(lenBytes)))
	out = append(out, lenBytes...)
	return append(out, b...)
}

func encodeListHeader(contentSize uint64) []byte {
	if contentSize < 56 {
		return []byte{0xc0 + byte(contentSize)}
	}
	lenBytes := trimLeadingZeros(uintToBytes(contentSize))
	out := make([]byte, 0, len(lenBytes)+1)
	out = append(out, 0xf7+byte(len(lenBytes)))
	return append(out, lenBytes...)
}

func encodeList(items [][]byte) []byte {
	var size uint64
	for _, it := range items {
		size += uint64(len(it))
	}
	out := encodeListHeader(size)
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

// Kind classifies the next RLP item in a Stream.
type Kind int

const (
	Byte Kind = iota
	String
	List
)

// Stream reads successive RLP values from an in-memory buffer.
type Stream struct {
	buf []byte
	pos int
}

func NewStream(b []byte) *Stream { return &Stream{buf: b} }

// Kind returns the type and payload size of the next value without
// consuming it, the same call the teacher's Transaction.DecodeRLP makes to
// learn the wire size for its Size() cache.
func (s *Stream) Kind() (Kind, uint64, error) {
	if s.pos >= len(s.buf) {
		return 0, 0, io.EOF
	}
	b := s.buf[s.pos]
	switch {
	case b < 0x80:
		return Byte, 1, nil
	case b < 0xb8:
		return String, uint64(b - 0x80), nil
	case b < 0xc0:
		n := int(b - 0xb7)
		size, err := readSize(s.buf[s.pos+1 : s.pos+1+n])
		return String, size, err
	case b < 0xf8:
		return List, uint64(b - 0xc0), nil
	default:
		n := int(b - 0xf7)
		size, err := readSize(s.buf[s.pos+1 : s.pos+1+n])
		return List, size, err
	}
}

func readSize(b []byte) (uint64, error) {
	var size uint64
	for _, c := range b {
		size = size<<8 | uint64(c)
	}
	return size, nil
}

// headerLen returns how many bytes the current item's header occupies.
func (s *Stream) headerLen() int {
	b := s.buf[s.pos]
	switch {
	case b < 0x80:
		return 0
	case b < 0xb8:
		return 1
	case b < 0xc0:
		return 1 + int(b-0xb7)
	case b < 0xf8:
		return 1
	default:
		return 1 + int(b-0xf7)
	}
}

func (s *Stream) raw() ([]byte, Kind, error) {
	kind, size, err := s.Kind()
	if err != nil {
		return nil, 0, err
	}
	hl := s.headerLen()
	if kind == Byte {
		v := s.buf[s.pos]
		s.pos++
		return []byte{v}, Byte, nil
	}
	start := s.pos + hl
	end := start + int(size)
	if end > len(s.buf) {
		return nil, 0, errors.New("rlp: value overruns buffer")
	}
	s.pos = end
	return s.buf[start:end], kind, nil
}

// bytesValue reads a byte-string item.
func (s *Stream) bytesValue() ([]byte, error) {
	b, kind, err := s.raw()
	if err != nil {
		return nil, err
	}
	if kind == List {
		return nil, errors.New("rlp: expected string, got list")
	}
	return b, nil
}

// listPayload reads a list item and returns its raw payload bytes for a
// nested Stream to iterate over.
func (s *Stream) listPayload() ([]byte, error) {
	b, kind, err := s.raw()
	if err != nil {
		return nil, err
	}
	if kind != List {
		return nil, errors.New("rlp: expected list, got string")
	}
	return b, nil
}

func (s *Stream) more() bool { return s.pos < len(s.buf) }

// EnterList consumes the next value, which must be a list, and returns a
// Stream over its payload so a custom Decoder can read the list's elements
// one at a time — used by tagged-union types (types.Action, types.Receipt)
// whose shape depends on a discriminant read partway through the list.
func (s *Stream) EnterList() (*Stream, error) {
	payload, err := s.listPayload()
	if err != nil {
		return nil, err
	}
	return NewStream(payload), nil
}

// Decode reads the next RLP value into val, which must be a non-nil pointer.
func (s *Stream) Decode(val interface{}) error {
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("rlp: Decode requires a non-nil pointer")
	}
	return s.decodeInto(rv.Elem())
}

func (s *Stream) decodeInto(v reflect.Value) error {
	if v.CanAddr() {
		if dec, ok := v.Addr().Interface().(Decoder); ok {
			return dec.DecodeRLP(s)
		}
	}
	if bi, ok := v.Addr().Interface().(*big.Int); ok {
		b, err := s.bytesValue()
		if err != nil {
			return err
		}
		bi.SetBytes(b)
		return nil
	}
	if u, ok := v.Addr().Interface().(*uint256.Int); ok {
		b, err := s.bytesValue()
		if err != nil {
			return err
		}
		u.SetBytes(b)
		return nil
	}

	switch v.Kind() {
	case reflect.Ptr:
		kind, size, err := s.Kind()
		if err != nil {
			return err
		}
		if kind != List && size == 0 {
			// A nil pointer is encoded as an empty byte string; this
			// convention is only used for fields that are never legally
			// "present but empty" (see types.OptionalBytes/OptionalUint64
			// for fields where that distinction matters).
			_, _ = s.bytesValue()
			v.Set(reflect.Zero(v.Type()))
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return s.decodeInto(v.Elem())
	case reflect.String:
		b, err := s.bytesValue()
		if err != nil {
			return err
		}
		v.SetString(string(b))
		return nil
	case reflect.Bool:
		b, err := s.bytesValue()
		if err != nil {
			return err
		}
		v.SetBool(len(b) == 1 && b[0] == 1)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		b, err := s.bytesValue()
		if err != nil {
			return err
		}
		var u uint64
		for _, c := range b {
			u = u<<8 | uint64(c)
		}
		v.SetUint(u)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b, err := s.bytesValue()
		if err != nil {
			return err
		}
		var u uint64
		for _, c := range b {
			u = u<<8 | uint64(c)
		}
		v.SetInt(int64(u))
		return nil
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, err := s.bytesValue()
			if err != nil {
				return err
			}
			if v.Kind() == reflect.Array {
				reflect.Copy(v, reflect.ValueOf(b))
			} else {
				v.SetBytes(append([]byte(nil), b...))
			}
			return nil
		}
		payload, err := s.listPayload()
		if err != nil {
			return err
		}
		inner := NewStream(payload)
		elemType := v.Type().Elem()
		slice := reflect.MakeSlice(v.Type(), 0, 0)
		for inner.more() {
			elem := reflect.New(elemType).Elem()
			if err := inner.decodeInto(elem); err != nil {
				return err
			}
			slice = reflect.Append(slice, elem)
		}
		v.Set(slice)
		return nil
	case reflect.Struct:
		payload, err := s.listPayload()
		if err != nil {
			return err
		}
		inner := NewStream(payload)
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).PkgPath != "" {
				continue
			}
			if !inner.more() {
				break // a shorter list leaves the remaining fields untouched
			}
			if err := inner.decodeInto(v.Field(i)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("rlp: unsupported kind %s", v.Kind())
	}
}

// DecodeBytes parses RLP data from b into val.
func DecodeBytes(b []byte, val interface{}) error {
	s := NewStream(b)
	return s.Decode(val)
}

// Decode parses RLP data from r into val.
func Decode(r io.Reader, val interface{}) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return DecodeBytes(b, val)
}
