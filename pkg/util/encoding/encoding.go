// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

// Package encoding exposes the datum-level byte codec shared by the key and
// value layers. Every encoded datum is a single flag byte followed by a
// flag-determined payload. Key positions use the order-preserving
// ("memcomparable") encodings so that bytes.Compare over encoded keys agrees
// with the logical ordering of the values; value positions may use the
// shorter varint-based encodings instead.
package encoding

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

// Datum flag bytes. The flag values are part of the on-disk format and must
// never be renumbered.
const (
	// NilFlag marks a NULL datum. It has no payload.
	NilFlag byte = 0
	// BytesFlag marks a memcomparable group-encoded byte string.
	BytesFlag byte = 1
	// CompactBytesFlag marks a varint-length-prefixed byte string.
	CompactBytesFlag byte = 2
	// IntFlag marks a sign-flipped big-endian 8-byte signed integer.
	IntFlag byte = 3
	// UintFlag marks a big-endian 8-byte unsigned integer.
	UintFlag byte = 4
	// FloatFlag marks an order-preserving 8-byte float64.
	FloatFlag byte = 5
	// DecimalFlag is reserved for fixed-point decimals (not decoded here).
	DecimalFlag byte = 6
	// DurationFlag is reserved for time durations (not decoded here).
	DurationFlag byte = 7
	// VarintFlag marks a zigzag varint signed integer.
	VarintFlag byte = 8
	// UvarintFlag marks a varint unsigned integer.
	UvarintFlag byte = 9
	// JSONFlag is reserved for JSON documents (not decoded here).
	JSONFlag byte = 10
	// MaxFlag sorts after every other datum. It has no payload.
	MaxFlag byte = 250
)

const signMask uint64 = 0x8000000000000000

// The memcomparable bytes encoding splits the input into groups of eight,
// right-padding the final group with zero bytes. Each group is followed by a
// marker byte 0xFF-pad so that shorter strings sort before their extensions.
const (
	bytesGroupSize  = 8
	bytesPadByte    = 0x0
	bytesMarkerByte = 0xFF
)

// EncodeCmpInt appends the order-preserving encoding of v (no flag byte).
func EncodeCmpInt(b []byte, v int64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v)^signMask)
	return append(b, buf[:]...)
}

// DecodeCmpInt decodes an integer encoded by EncodeCmpInt, returning the
// remainder of the buffer.
func DecodeCmpInt(b []byte) ([]byte, int64, error) {
	if len(b) < 8 {
		return nil, 0, errors.Errorf("insufficient bytes to decode int: %d", len(b))
	}
	u := binary.BigEndian.Uint64(b)
	return b[8:], int64(u ^ signMask), nil
}

// EncodeCmpUint appends the big-endian encoding of v (no flag byte).
func EncodeCmpUint(b []byte, v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return append(b, buf[:]...)
}

// DecodeCmpUint decodes an integer encoded by EncodeCmpUint.
func DecodeCmpUint(b []byte) ([]byte, uint64, error) {
	if len(b) < 8 {
		return nil, 0, errors.Errorf("insufficient bytes to decode uint: %d", len(b))
	}
	return b[8:], binary.BigEndian.Uint64(b), nil
}

// EncodeCmpFloat appends the order-preserving encoding of f. Positive floats
// have the sign bit set; negative floats are bitwise complemented so that
// more-negative values sort first.
func EncodeCmpFloat(b []byte, f float64) []byte {
	u := math.Float64bits(f)
	if u&signMask == 0 {
		u |= signMask
	} else {
		u = ^u
	}
	return EncodeCmpUint(b, u)
}

// DecodeCmpFloat decodes a float encoded by EncodeCmpFloat.
func DecodeCmpFloat(b []byte) ([]byte, float64, error) {
	b, u, err := DecodeCmpUint(b)
	if err != nil {
		return nil, 0, errors.Wrap(err, "decoding float")
	}
	if u&signMask != 0 {
		u &^= signMask
	} else {
		u = ^u
	}
	return b, math.Float64frombits(u), nil
}

// EncodeCmpBytes appends the memcomparable group encoding of data.
func EncodeCmpBytes(b, data []byte) []byte {
	for len(data) >= bytesGroupSize {
		b = append(b, data[:bytesGroupSize]...)
		b = append(b, bytesMarkerByte)
		data = data[bytesGroupSize:]
	}
	pad := bytesGroupSize - len(data)
	b = append(b, data...)
	for i := 0; i < pad; i++ {
		b = append(b, bytesPadByte)
	}
	return append(b, bytesMarkerByte-byte(pad))
}

// DecodeCmpBytes decodes a byte string encoded by EncodeCmpBytes.
func DecodeCmpBytes(b []byte) ([]byte, []byte, error) {
	data := []byte{}
	for {
		if len(b) < bytesGroupSize+1 {
			return nil, nil, errors.Errorf("insufficient bytes to decode group: %d", len(b))
		}
		group, marker := b[:bytesGroupSize], b[bytesGroupSize]
		b = b[bytesGroupSize+1:]
		pad := int(bytesMarkerByte - marker)
		if pad < 0 || pad > bytesGroupSize {
			return nil, nil, errors.Errorf("invalid group marker %#x", marker)
		}
		data = append(data, group[:bytesGroupSize-pad]...)
		if pad > 0 {
			for _, c := range group[bytesGroupSize-pad:] {
				if c != bytesPadByte {
					return nil, nil, errors.Errorf("invalid padding byte %#x", c)
				}
			}
			return b, data, nil
		}
	}
}

// EncodeCompactBytes appends the varint-length-prefixed encoding of data.
func EncodeCompactBytes(b, data []byte) []byte {
	b = EncodeVarint(b, int64(len(data)))
	return append(b, data...)
}

// DecodeCompactBytes decodes a byte string encoded by EncodeCompactBytes.
func DecodeCompactBytes(b []byte) ([]byte, []byte, error) {
	b, n, err := DecodeVarint(b)
	if err != nil {
		return nil, nil, errors.Wrap(err, "decoding compact bytes length")
	}
	if n < 0 || int64(len(b)) < n {
		return nil, nil, errors.Errorf("insufficient bytes to decode compact bytes: want %d have %d", n, len(b))
	}
	return b[n:], b[:n], nil
}

// EncodeVarint appends the zigzag varint encoding of v.
func EncodeVarint(b []byte, v int64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutVarint(buf[:], v)
	return append(b, buf[:n]...)
}

// DecodeVarint decodes an integer encoded by EncodeVarint.
func DecodeVarint(b []byte) ([]byte, int64, error) {
	v, n := binary.Varint(b)
	if n <= 0 {
		return nil, 0, errors.Errorf("invalid varint (%d)", n)
	}
	return b[n:], v, nil
}

// EncodeUvarint appends the varint encoding of v.
func EncodeUvarint(b []byte, v uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return append(b, buf[:n]...)
}

// DecodeUvarint decodes an integer encoded by EncodeUvarint.
func DecodeUvarint(b []byte) ([]byte, uint64, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return nil, 0, errors.Errorf("invalid uvarint (%d)", n)
	}
	return b[n:], v, nil
}

// PeekLength returns the total length (flag byte included) of the first
// encoded datum in b.
func PeekLength(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, errors.Errorf("empty datum")
	}
	switch flag := b[0]; flag {
	case NilFlag, MaxFlag:
		return 1, nil
	case IntFlag, UintFlag, FloatFlag:
		if len(b) < 9 {
			return 0, errors.Errorf("insufficient bytes for flag %#x: %d", flag, len(b))
		}
		return 9, nil
	case BytesFlag:
		n, err := peekCmpBytesLength(b[1:])
		if err != nil {
			return 0, err
		}
		return 1 + n, nil
	case CompactBytesFlag:
		rest, n, err := DecodeVarint(b[1:])
		if err != nil {
			return 0, err
		}
		if n < 0 || int64(len(rest)) < n {
			return 0, errors.Errorf("insufficient bytes for compact bytes: want %d have %d", n, len(rest))
		}
		return len(b) - len(rest) + int(n), nil
	case VarintFlag:
		_, n := binary.Varint(b[1:])
		if n <= 0 {
			return 0, errors.Errorf("invalid varint datum (%d)", n)
		}
		return 1 + n, nil
	case UvarintFlag:
		_, n := binary.Uvarint(b[1:])
		if n <= 0 {
			return 0, errors.Errorf("invalid uvarint datum (%d)", n)
		}
		return 1 + n, nil
	default:
		return 0, errors.Errorf("unsupported datum flag %#x", flag)
	}
}

func peekCmpBytesLength(b []byte) (int, error) {
	total := 0
	for {
		if len(b) < bytesGroupSize+1 {
			return 0, errors.Errorf("insufficient bytes for group encoding: %d", len(b))
		}
		marker := b[bytesGroupSize]
		total += bytesGroupSize + 1
		if marker != bytesMarkerByte {
			return total, nil
		}
		b = b[bytesGroupSize+1:]
	}
}

// CutOne splits the first encoded datum (flag byte included) off the front
// of b, returning the datum and the remainder.
func CutOne(b []byte) (datum, remain []byte, err error) {
	n, err := PeekLength(b)
	if err != nil {
		return nil, nil, err
	}
	return b[:n], b[n:], nil
}

// SkipN skips n encoded datums at the front of b.
func SkipN(b []byte, n int) ([]byte, error) {
	for i := 0; i < n; i++ {
		l, err := PeekLength(b)
		if err != nil {
			return nil, errors.Wrapf(err, "skipping datum %d", i)
		}
		b = b[l:]
	}
	return b, nil
}

// IsNull reports whether the first encoded datum in b is NULL.
func IsNull(b []byte) bool {
	return len(b) > 0 && b[0] == NilFlag
}
