// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

// Package rowenc implements the row-level encodings layered on top of
// util/encoding: typed datums, index keys and the index value layouts.
package rowenc

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/copra-db/copra/pkg/util/encoding"
)

// DatumKind identifies the runtime representation of a Datum.
type DatumKind int8

const (
	// KindNull is the NULL datum.
	KindNull DatumKind = iota
	// KindInt is a signed 64-bit integer.
	KindInt
	// KindUint is an unsigned 64-bit integer.
	KindUint
	// KindFloat is a 64-bit float.
	KindFloat
	// KindBytes is a byte string.
	KindBytes
	// KindMin sorts before every real datum; usable only in range endpoints.
	KindMin
	// KindMax sorts after every real datum; usable only in range endpoints.
	KindMax
)

// Datum is a single typed column value.
type Datum struct {
	kind DatumKind
	i    int64
	f    float64
	b    []byte
}

// NullDatum returns the NULL datum.
func NullDatum() Datum { return Datum{kind: KindNull} }

// IntDatum returns a signed integer datum.
func IntDatum(v int64) Datum { return Datum{kind: KindInt, i: v} }

// UintDatum returns an unsigned integer datum.
func UintDatum(v uint64) Datum { return Datum{kind: KindUint, i: int64(v)} }

// FloatDatum returns a float datum.
func FloatDatum(v float64) Datum { return Datum{kind: KindFloat, f: v} }

// BytesDatum returns a byte-string datum. The slice is not copied.
func BytesDatum(v []byte) Datum { return Datum{kind: KindBytes, b: v} }

// MinDatum returns the datum sorting before all others.
func MinDatum() Datum { return Datum{kind: KindMin} }

// MaxDatum returns the datum sorting after all others.
func MaxDatum() Datum { return Datum{kind: KindMax} }

// Kind returns the datum's kind.
func (d Datum) Kind() DatumKind { return d.kind }

// IsNull reports whether the datum is NULL.
func (d Datum) IsNull() bool { return d.kind == KindNull }

// Int returns the signed integer value.
func (d Datum) Int() int64 { return d.i }

// Uint returns the unsigned integer value.
func (d Datum) Uint() uint64 { return uint64(d.i) }

// Float returns the float value.
func (d Datum) Float() float64 { return d.f }

// Bytes returns the byte-string value.
func (d Datum) Bytes() []byte { return d.b }

func (d Datum) String() string {
	switch d.kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return fmt.Sprint(d.i)
	case KindUint:
		return fmt.Sprint(uint64(d.i))
	case KindFloat:
		return fmt.Sprint(d.f)
	case KindBytes:
		return fmt.Sprintf("%q", d.b)
	case KindMin:
		return "-inf"
	case KindMax:
		return "+inf"
	default:
		return fmt.Sprintf("unknown(%d)", d.kind)
	}
}

// EncodeKey appends the order-preserving encoding of each datum to buf.
// Keys produced this way compare bytewise in datum order, which is what the
// index key layout requires.
func EncodeKey(buf []byte, datums ...Datum) ([]byte, error) {
	for _, d := range datums {
		switch d.kind {
		case KindNull:
			buf = append(buf, encoding.NilFlag)
		case KindInt:
			buf = append(buf, encoding.IntFlag)
			buf = encoding.EncodeCmpInt(buf, d.i)
		case KindUint:
			buf = append(buf, encoding.UintFlag)
			buf = encoding.EncodeCmpUint(buf, uint64(d.i))
		case KindFloat:
			buf = append(buf, encoding.FloatFlag)
			buf = encoding.EncodeCmpFloat(buf, d.f)
		case KindBytes:
			buf = append(buf, encoding.BytesFlag)
			buf = encoding.EncodeCmpBytes(buf, d.b)
		case KindMin:
			buf = append(buf, encoding.NilFlag)
		case KindMax:
			buf = append(buf, encoding.MaxFlag)
		default:
			return nil, errors.AssertionFailedf("cannot key-encode datum kind %d", d.kind)
		}
	}
	return buf, nil
}

// EncodeValue appends the compact (non-comparable) encoding of each datum.
func EncodeValue(buf []byte, datums ...Datum) ([]byte, error) {
	for _, d := range datums {
		switch d.kind {
		case KindNull:
			buf = append(buf, encoding.NilFlag)
		case KindInt:
			buf = append(buf, encoding.VarintFlag)
			buf = encoding.EncodeVarint(buf, d.i)
		case KindUint:
			buf = append(buf, encoding.UvarintFlag)
			buf = encoding.EncodeUvarint(buf, uint64(d.i))
		case KindFloat:
			buf = append(buf, encoding.FloatFlag)
			buf = encoding.EncodeCmpFloat(buf, d.f)
		case KindBytes:
			buf = append(buf, encoding.CompactBytesFlag)
			buf = encoding.EncodeCompactBytes(buf, d.b)
		default:
			return nil, errors.AssertionFailedf("cannot value-encode datum kind %d", d.kind)
		}
	}
	return buf, nil
}

// DecodeDatum decodes the first encoded datum in b, returning the remainder.
// The flag byte alone determines the representation, so no type is needed.
func DecodeDatum(b []byte) (Datum, []byte, error) {
	if len(b) == 0 {
		return Datum{}, nil, errors.Errorf("empty datum")
	}
	switch flag := b[0]; flag {
	case encoding.NilFlag:
		return NullDatum(), b[1:], nil
	case encoding.IntFlag:
		rest, v, err := encoding.DecodeCmpInt(b[1:])
		if err != nil {
			return Datum{}, nil, err
		}
		return IntDatum(v), rest, nil
	case encoding.UintFlag:
		rest, v, err := encoding.DecodeCmpUint(b[1:])
		if err != nil {
			return Datum{}, nil, err
		}
		return UintDatum(v), rest, nil
	case encoding.FloatFlag:
		rest, v, err := encoding.DecodeCmpFloat(b[1:])
		if err != nil {
			return Datum{}, nil, err
		}
		return FloatDatum(v), rest, nil
	case encoding.BytesFlag:
		rest, v, err := encoding.DecodeCmpBytes(b[1:])
		if err != nil {
			return Datum{}, nil, err
		}
		return BytesDatum(v), rest, nil
	case encoding.CompactBytesFlag:
		rest, v, err := encoding.DecodeCompactBytes(b[1:])
		if err != nil {
			return Datum{}, nil, err
		}
		return BytesDatum(v), rest, nil
	case encoding.VarintFlag:
		rest, v, err := encoding.DecodeVarint(b[1:])
		if err != nil {
			return Datum{}, nil, err
		}
		return IntDatum(v), rest, nil
	case encoding.UvarintFlag:
		rest, v, err := encoding.DecodeUvarint(b[1:])
		if err != nil {
			return Datum{}, nil, err
		}
		return UintDatum(v), rest, nil
	default:
		return Datum{}, nil, errors.Errorf("unsupported datum flag %#x", flag)
	}
}

// DecodeDatums decodes all datums in b.
func DecodeDatums(b []byte) ([]Datum, error) {
	var out []Datum
	for len(b) > 0 {
		d, rest, err := DecodeDatum(b)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
		b = rest
	}
	return out, nil
}
