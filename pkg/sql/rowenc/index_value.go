// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

package rowenc

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// An index value is laid out in one of six ways, chosen by the writer based
// on whether the entry is unique, what kind of row handle it carries, and
// whether collation-aware "restore data" must ride along:
//
//	With restore data (len > MaxOldEncodedValueLen):
//
//	  non-unique:            tailLen | restoreData | padding
//	                         1       | ...         | tailLen (< 8)
//
//	  unique common handle:  0x00 | 0x7F | handleLen | handle | restoreData
//	                         1    | 1    | 2 (BE)    | ...    | ...
//
//	  unique int handle:     0x08 | restoreData | handle
//	                         1    | ...         | 8 (BE)
//
//	Without restore data (len <= MaxOldEncodedValueLen):
//
//	  non-unique:            '0'
//	  unique common handle:  0x00 | 0x7F | handleLen | handle
//	  unique int handle:     handle (8, BE)
//
// The non-unique restore-data layout is padded so that its total length
// always exceeds MaxOldEncodedValueLen, keeping the length-based dispatch
// unambiguous.
const (
	// MaxOldEncodedValueLen is the largest value the restore-data-free
	// layouts can produce; anything longer is a restore-data layout.
	MaxOldEncodedValueLen = 9

	// CommonHandleFlag introduces an embedded common handle.
	CommonHandleFlag byte = 127
	// PartitionIDFlag introduces a global-index partition ID segment.
	PartitionIDFlag byte = 126
	// RestoreDataFlag is the version byte every restore-data row starts
	// with (rowcodec.CodecVer).
	RestoreDataFlag byte = 128
)

// IndexValueSegments is the result of SplitIndexValue.
type IndexValueSegments struct {
	CommonHandle   []byte
	PartitionID    []byte
	RestoredValues []byte
	IntHandle      []byte
}

// SplitIndexValue cuts a restore-data-format index value into its segments.
// The value must be longer than MaxOldEncodedValueLen.
func SplitIndexValue(value []byte) (segs IndexValueSegments, err error) {
	tailLen := int(value[0])
	if tailLen > len(value)-1 {
		return segs, errors.Errorf("index value tail length %d exceeds value length %d", tailLen, len(value))
	}
	tail := value[len(value)-tailLen:]
	body := value[1 : len(value)-tailLen]
	if len(tail) >= 8 {
		segs.IntHandle = tail[:8]
	}
	if len(body) > 0 && body[0] == CommonHandleFlag {
		if len(body) < 3 {
			return segs, errors.Errorf("truncated common handle length")
		}
		handleLen := int(binary.BigEndian.Uint16(body[1:]))
		if 3+handleLen > len(body) {
			return segs, errors.Errorf("common handle length %d is corrupted", handleLen)
		}
		segs.CommonHandle = body[3 : 3+handleLen]
		body = body[3+handleLen:]
	}
	if len(body) > 0 && body[0] == PartitionIDFlag {
		if len(body) < 9 {
			return segs, errors.Errorf("truncated partition ID segment")
		}
		segs.PartitionID = body[1:9]
		body = body[9:]
	}
	if len(body) > 0 && body[0] == RestoreDataFlag {
		segs.RestoredValues = body
	}
	return segs, nil
}

// IndexValueOpts selects one of the six index value layouts.
type IndexValueOpts struct {
	// Unique stores the handle in the value rather than the key suffix.
	Unique bool
	// IntHandle is the row handle for integer-handle indexes. Used only
	// when Unique is set and CommonHandle is empty.
	IntHandle int64
	// CommonHandle holds the key-encoded composite handle datums. Used only
	// when Unique is set.
	CommonHandle []byte
	// RestoreData holds the row-format bytes for collation-aware indexes;
	// empty selects the legacy layouts.
	RestoreData []byte
}

// EncodeIndexValue produces the index value for one entry. Non-unique
// entries carry their handle in the key suffix, so only uniqueness and the
// handle representation of unique entries affect the output.
func EncodeIndexValue(opts IndexValueOpts) ([]byte, error) {
	if len(opts.CommonHandle) > 0 && !opts.Unique {
		return nil, errors.AssertionFailedf("common handle in value requires a unique entry")
	}
	switch {
	case len(opts.CommonHandle) > 0:
		if len(opts.CommonHandle) > int(^uint16(0)) {
			return nil, errors.Errorf("common handle too long: %d bytes", len(opts.CommonHandle))
		}
		value := make([]byte, 0, 4+len(opts.CommonHandle)+len(opts.RestoreData))
		value = append(value, 0 /* tailLen */, CommonHandleFlag)
		value = binary.BigEndian.AppendUint16(value, uint16(len(opts.CommonHandle)))
		value = append(value, opts.CommonHandle...)
		value = append(value, opts.RestoreData...)
		return value, nil

	case len(opts.RestoreData) > 0 && opts.Unique:
		value := make([]byte, 0, 1+len(opts.RestoreData)+8)
		value = append(value, 8 /* tailLen */)
		value = append(value, opts.RestoreData...)
		value = binary.BigEndian.AppendUint64(value, uint64(opts.IntHandle))
		return value, nil

	case len(opts.RestoreData) > 0:
		// Pad the tail so the total length always lands in new-format
		// territory.
		padding := 0
		if n := MaxOldEncodedValueLen + 1 - (1 + len(opts.RestoreData)); n > 0 {
			padding = n
		}
		value := make([]byte, 0, 1+len(opts.RestoreData)+padding)
		value = append(value, byte(padding))
		value = append(value, opts.RestoreData...)
		value = append(value, make([]byte, padding)...)
		return value, nil

	case opts.Unique:
		return binary.BigEndian.AppendUint64(nil, uint64(opts.IntHandle)), nil

	default:
		return []byte{'0'}, nil
	}
}
