// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

// Package rowcodec implements the self-describing row format embedded in
// collation-aware index values ("restore data").
//
// Layout:
//
//	version  | flags | numNotNull | numNull | notNullIDs | nullIDs | offsets | values
//	1 (=128) | 1     | 2 (LE)     | 2 (LE)  | ...        | ...     | ...     | ...
//
// Column IDs are stored ascending within each set, one byte each, or four
// bytes (LE) each when the large flag is set. Offsets hold the end offset of
// each non-null value in the values section, two bytes (LE) each, or four
// when large. Cells are encoded per column type: integers as minimal-width
// little-endian, floats as the 8-byte order-preserving encoding, byte
// strings raw.
package rowcodec

import (
	"encoding/binary"
	"sort"

	"github.com/cockroachdb/errors"
)

// CodecVer is the version byte the format opens with. It doubles as the
// restore-data flag in index values.
const CodecVer byte = 128

const largeFlag byte = 1

// RowSlice provides indexed access to an encoded row without materializing
// it. The backing bytes are borrowed; a RowSlice must not outlive them.
type RowSlice struct {
	large      bool
	notNullIDs []byte
	nullIDs    []byte
	offsets    []byte
	values     []byte
}

// FromBytes parses the row header and returns a RowSlice over b.
func FromBytes(b []byte) (RowSlice, error) {
	if len(b) < 6 {
		return RowSlice{}, errors.Errorf("row too short: %d bytes", len(b))
	}
	if b[0] != CodecVer {
		return RowSlice{}, errors.Errorf("unsupported row version %d", b[0])
	}
	large := b[1]&largeFlag != 0
	numNotNull := int(binary.LittleEndian.Uint16(b[2:]))
	numNull := int(binary.LittleEndian.Uint16(b[4:]))

	idSize, offSize := 1, 2
	if large {
		idSize, offSize = 4, 4
	}
	rest := b[6:]
	need := (numNotNull+numNull)*idSize + numNotNull*offSize
	if len(rest) < need {
		return RowSlice{}, errors.Errorf("row header wants %d bytes, have %d", need, len(rest))
	}
	r := RowSlice{large: large}
	r.notNullIDs, rest = rest[:numNotNull*idSize], rest[numNotNull*idSize:]
	r.nullIDs, rest = rest[:numNull*idSize], rest[numNull*idSize:]
	r.offsets, rest = rest[:numNotNull*offSize], rest[numNotNull*offSize:]
	r.values = rest
	if n := r.numNotNull(); n > 0 {
		if end := r.offsetAt(n - 1); end > len(r.values) {
			return RowSlice{}, errors.Errorf("row values truncated: want %d bytes, have %d", end, len(r.values))
		}
	}
	return r, nil
}

func (r RowSlice) numNotNull() int {
	if r.large {
		return len(r.notNullIDs) / 4
	}
	return len(r.notNullIDs)
}

func (r RowSlice) numNull() int {
	if r.large {
		return len(r.nullIDs) / 4
	}
	return len(r.nullIDs)
}

func (r RowSlice) notNullIDAt(i int) int64 {
	if r.large {
		return int64(binary.LittleEndian.Uint32(r.notNullIDs[i*4:]))
	}
	return int64(r.notNullIDs[i])
}

func (r RowSlice) nullIDAt(i int) int64 {
	if r.large {
		return int64(binary.LittleEndian.Uint32(r.nullIDs[i*4:]))
	}
	return int64(r.nullIDs[i])
}

func (r RowSlice) offsetAt(i int) int {
	if r.large {
		return int(binary.LittleEndian.Uint32(r.offsets[i*4:]))
	}
	return int(binary.LittleEndian.Uint16(r.offsets[i*2:]))
}

// SearchInNonNullIDs looks up colID among the non-null columns. On success
// it returns the [start, end) byte range of the cell within Values.
func (r RowSlice) SearchInNonNullIDs(colID int64) (start, end int, ok bool) {
	n := r.numNotNull()
	i := sort.Search(n, func(i int) bool { return r.notNullIDAt(i) >= colID })
	if i == n || r.notNullIDAt(i) != colID {
		return 0, 0, false
	}
	if i > 0 {
		start = r.offsetAt(i - 1)
	}
	return start, r.offsetAt(i), true
}

// SearchInNullIDs reports whether colID is stored as an explicit NULL.
func (r RowSlice) SearchInNullIDs(colID int64) bool {
	n := r.numNull()
	i := sort.Search(n, func(i int) bool { return r.nullIDAt(i) >= colID })
	return i < n && r.nullIDAt(i) == colID
}

// Values returns the concatenated cell bytes.
func (r RowSlice) Values() []byte {
	return r.values
}
