// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

// Package kvpb holds the key, value and span types exchanged with storage
// sources. There is no wire protocol at this layer; ranges and pairs arrive
// in process.
package kvpb

import (
	"bytes"

	"github.com/cockroachdb/redact"
)

// Key is an ordered byte string addressing a single KV entry.
type Key []byte

// Clone returns a copy of the key.
func (k Key) Clone() Key {
	if k == nil {
		return nil
	}
	c := make(Key, len(k))
	copy(c, k)
	return c
}

// Compare implements three-way lexicographic comparison.
func (k Key) Compare(o Key) int {
	return bytes.Compare(k, o)
}

// Equal reports byte equality.
func (k Key) Equal(o Key) bool {
	return bytes.Equal(k, o)
}

// PrefixEnd returns the smallest key strictly greater than every key having
// the receiver as a prefix: the receiver with its trailing byte incremented,
// carrying into earlier bytes on overflow. A key of all 0xff bytes has no
// such successor; in that case the original key with a zero byte appended is
// returned, which is the convention the upstream key ranges use.
func (k Key) PrefixEnd() Key {
	end := k.Clone()
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end
		}
	}
	return append(k.Clone(), 0)
}

// String formats the key as quoted hex for debugging.
func (k Key) String() string {
	return redact.StringWithoutMarkers(k)
}

// SafeFormat implements redact.SafeFormatter. Raw keys may embed user data,
// so only the hex form is emitted and it is treated as unsafe.
func (k Key) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%q", []byte(k))
}

var _ redact.SafeFormatter = Key(nil)

// KeyValue is one raw pair produced by a storage source. Both slices are
// borrowed from the source for the duration of a single decode call; callers
// must copy anything they retain.
type KeyValue struct {
	Key   Key
	Value []byte
}
