// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

package rowcodec

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/copra-db/copra/pkg/sql/rowenc"
	"github.com/copra-db/copra/pkg/util/encoding"
)

// ColData pairs a column ID with its value for encoding.
type ColData struct {
	ID    int64
	Datum rowenc.Datum
}

// Encode produces the row-format bytes for the given columns. Column IDs
// must be unique; order does not matter.
func Encode(cols []ColData) ([]byte, error) {
	sorted := make([]ColData, len(cols))
	copy(sorted, cols)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var notNull, null []ColData
	large := false
	for i, c := range sorted {
		if c.ID <= 0 || c.ID > 0xffffffff {
			return nil, errors.Errorf("column ID %d out of range", c.ID)
		}
		if i > 0 && c.ID == sorted[i-1].ID {
			return nil, errors.Errorf("duplicate column ID %d", c.ID)
		}
		if c.ID > 0xff {
			large = true
		}
		if c.Datum.IsNull() {
			null = append(null, c)
		} else {
			notNull = append(notNull, c)
		}
	}

	var values []byte
	offsets := make([]int, 0, len(notNull))
	for _, c := range notNull {
		var err error
		if values, err = encodeCell(values, c.Datum); err != nil {
			return nil, errors.Wrapf(err, "column %d", c.ID)
		}
		offsets = append(offsets, len(values))
	}
	if len(values) > 0xffff {
		large = true
	}

	var flags byte
	if large {
		flags |= largeFlag
	}
	buf := []byte{CodecVer, flags,
		byte(len(notNull)), byte(len(notNull) >> 8),
		byte(len(null)), byte(len(null) >> 8),
	}
	buf = appendIDs(buf, notNull, large)
	buf = appendIDs(buf, null, large)
	for _, off := range offsets {
		if large {
			buf = append(buf, byte(off), byte(off>>8), byte(off>>16), byte(off>>24))
		} else {
			buf = append(buf, byte(off), byte(off>>8))
		}
	}
	return append(buf, values...), nil
}

func appendIDs(buf []byte, cols []ColData, large bool) []byte {
	for _, c := range cols {
		if large {
			buf = append(buf, byte(c.ID), byte(c.ID>>8), byte(c.ID>>16), byte(c.ID>>24))
		} else {
			buf = append(buf, byte(c.ID))
		}
	}
	return buf
}

func encodeCell(buf []byte, d rowenc.Datum) ([]byte, error) {
	switch d.Kind() {
	case rowenc.KindInt:
		return encodeCellInt(buf, d.Int()), nil
	case rowenc.KindUint:
		return encodeCellUint(buf, d.Uint()), nil
	case rowenc.KindFloat:
		return encoding.EncodeCmpFloat(buf, d.Float()), nil
	case rowenc.KindBytes:
		return append(buf, d.Bytes()...), nil
	default:
		return nil, errors.AssertionFailedf("cannot cell-encode datum kind %d", d.Kind())
	}
}
