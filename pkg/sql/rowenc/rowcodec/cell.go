// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

package rowcodec

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/copra-db/copra/pkg/sql/types"
	"github.com/copra-db/copra/pkg/util/encoding"
)

// AppendCellDatum converts one cell to the flagged datum encoding and
// appends it to buf. The cell's type decides the interpretation: cells
// carry no type information of their own.
func AppendCellDatum(buf, cell []byte, typ types.T) ([]byte, error) {
	switch typ.Family {
	case types.IntFamily:
		u, err := decodeCellUint(cell)
		if err != nil {
			return nil, err
		}
		if typ.Unsigned {
			buf = append(buf, encoding.UvarintFlag)
			return encoding.EncodeUvarint(buf, u), nil
		}
		v, err := decodeCellInt(cell)
		if err != nil {
			return nil, err
		}
		buf = append(buf, encoding.VarintFlag)
		return encoding.EncodeVarint(buf, v), nil
	case types.FloatFamily:
		if len(cell) != 8 {
			return nil, errors.Errorf("float cell must be 8 bytes, got %d", len(cell))
		}
		buf = append(buf, encoding.FloatFlag)
		return append(buf, cell...), nil
	case types.BytesFamily:
		buf = append(buf, encoding.CompactBytesFlag)
		return encoding.EncodeCompactBytes(buf, cell), nil
	default:
		return nil, errors.AssertionFailedf("unhandled type family %d", typ.Family)
	}
}

func encodeCellInt(buf []byte, v int64) []byte {
	switch {
	case int64(int8(v)) == v:
		return append(buf, byte(v))
	case int64(int16(v)) == v:
		return binary.LittleEndian.AppendUint16(buf, uint16(v))
	case int64(int32(v)) == v:
		return binary.LittleEndian.AppendUint32(buf, uint32(v))
	default:
		return binary.LittleEndian.AppendUint64(buf, uint64(v))
	}
}

func encodeCellUint(buf []byte, v uint64) []byte {
	switch {
	case v <= 0xff:
		return append(buf, byte(v))
	case v <= 0xffff:
		return binary.LittleEndian.AppendUint16(buf, uint16(v))
	case v <= 0xffffffff:
		return binary.LittleEndian.AppendUint32(buf, uint32(v))
	default:
		return binary.LittleEndian.AppendUint64(buf, v)
	}
}

func decodeCellInt(cell []byte) (int64, error) {
	switch len(cell) {
	case 1:
		return int64(int8(cell[0])), nil
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(cell))), nil
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(cell))), nil
	case 8:
		return int64(binary.LittleEndian.Uint64(cell)), nil
	default:
		return 0, errors.Errorf("invalid integer cell length %d", len(cell))
	}
}

func decodeCellUint(cell []byte) (uint64, error) {
	switch len(cell) {
	case 1:
		return uint64(cell[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(cell)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(cell)), nil
	case 8:
		return binary.LittleEndian.Uint64(cell), nil
	default:
		return 0, errors.Errorf("invalid integer cell length %d", len(cell))
	}
}
