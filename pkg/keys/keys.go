// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

// Package keys builds and validates the fixed key shape under which index
// data is stored:
//
//	t | cmp-int(tableID) | _i | cmp-int(indexID) | encoded index datums...
//
// The table and index IDs are encoded with the order-preserving integer
// encoding so that all keys of one index form a contiguous range.
package keys

import (
	"github.com/cockroachdb/errors"

	"github.com/copra-db/copra/pkg/kvpb"
	"github.com/copra-db/copra/pkg/util/encoding"
)

const (
	tablePrefixByte = 't'
	idLen           = 8
	// tablePrefixLen is the length of "t | tableID | sep".
	tablePrefixLen = 1 + idLen + 2
	// IndexPrefixLen is the length of the full index key prefix, up to where
	// the encoded index datums begin.
	IndexPrefixLen = tablePrefixLen + idLen
)

var (
	indexPrefixSep  = []byte("_i")
	recordPrefixSep = []byte("_r")
)

// MakeIndexPrefix returns the key prefix shared by all entries of the given
// index.
func MakeIndexPrefix(tableID, indexID int64) kvpb.Key {
	key := make([]byte, 0, IndexPrefixLen)
	key = append(key, tablePrefixByte)
	key = encoding.EncodeCmpInt(key, tableID)
	key = append(key, indexPrefixSep...)
	key = encoding.EncodeCmpInt(key, indexID)
	return key
}

// MakeRecordPrefix returns the key prefix shared by all primary-record
// entries of the given table.
func MakeRecordPrefix(tableID int64) kvpb.Key {
	key := make([]byte, 0, tablePrefixLen)
	key = append(key, tablePrefixByte)
	key = encoding.EncodeCmpInt(key, tableID)
	key = append(key, recordPrefixSep...)
	return key
}

// EncodeIndexSeekKey appends encodedDatums to the index prefix, yielding a
// key usable both for storage and for range endpoints.
func EncodeIndexSeekKey(tableID, indexID int64, encodedDatums []byte) kvpb.Key {
	key := make([]byte, 0, IndexPrefixLen+len(encodedDatums))
	key = append(key, MakeIndexPrefix(tableID, indexID)...)
	key = append(key, encodedDatums...)
	return key
}

// CheckIndexKey validates that key carries the index key shape. It does not
// inspect the datum payload.
func CheckIndexKey(key []byte) error {
	if len(key) < IndexPrefixLen {
		return errors.Errorf("invalid index key: too short (%d bytes)", len(key))
	}
	if key[0] != tablePrefixByte || key[1+idLen] != indexPrefixSep[0] || key[2+idLen] != indexPrefixSep[1] {
		return errors.Errorf("invalid index key: bad prefix %v", kvpb.Key(key[:tablePrefixLen]))
	}
	return nil
}

// CutIndexPrefix strips the fixed prefix, returning the key payload: the
// encoded index datums, optionally followed by encoded handle datums.
// The key must have passed CheckIndexKey.
func CutIndexPrefix(key []byte) []byte {
	return key[IndexPrefixLen:]
}

// DecodeIndexKeyHead decodes the table and index IDs from an index key.
func DecodeIndexKeyHead(key []byte) (tableID, indexID int64, err error) {
	if err := CheckIndexKey(key); err != nil {
		return 0, 0, err
	}
	if _, tableID, err = encoding.DecodeCmpInt(key[1:]); err != nil {
		return 0, 0, errors.Wrap(err, "decoding table ID")
	}
	if _, indexID, err = encoding.DecodeCmpInt(key[tablePrefixLen:]); err != nil {
		return 0, 0, errors.Wrap(err, "decoding index ID")
	}
	return tableID, indexID, nil
}
