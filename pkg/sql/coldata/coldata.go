// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

// Package coldata defines the columnar batches the scan executors emit.
//
// Most columns stay in raw encoded form: decoding every datum up front is
// wasted work when a downstream operator only touches a subset. A raw
// column is a single contiguous buffer plus per-row offsets, so appending a
// row is a copy and an offset push. Columns the executor itself must
// interpret, the integer row handle, are decoded eagerly into an int64
// vector instead.
package coldata

import "github.com/cockroachdb/errors"

// Vec is one column of a Batch, in either raw or decoded form.
type Vec struct {
	decoded bool

	// Raw form: data holds the concatenated encoded datums, offsets the end
	// offset of each row. Row i spans data[offsets[i-1]:offsets[i]].
	data    []byte
	offsets []int

	// Decoded form.
	ints []int64
}

// NewRawVec returns an empty raw column with room for n rows.
func NewRawVec(n int) *Vec {
	return &Vec{offsets: make([]int, 0, n)}
}

// NewIntVec returns an empty decoded int64 column with room for n rows.
func NewIntVec(n int) *Vec {
	return &Vec{decoded: true, ints: make([]int64, 0, n)}
}

// IsDecoded reports whether the column is in decoded form.
func (v *Vec) IsDecoded() bool { return v.decoded }

// Len returns the number of rows in the column.
func (v *Vec) Len() int {
	if v.decoded {
		return len(v.ints)
	}
	return len(v.offsets)
}

// AppendRaw appends one row of encoded datum bytes to a raw column.
func (v *Vec) AppendRaw(b []byte) {
	v.data = append(v.data, b...)
	v.offsets = append(v.offsets, len(v.data))
}

// AppendInt appends one value to a decoded column.
func (v *Vec) AppendInt(x int64) {
	v.ints = append(v.ints, x)
}

// RawAt returns row i of a raw column. The slice aliases the column buffer.
func (v *Vec) RawAt(i int) []byte {
	start := 0
	if i > 0 {
		start = v.offsets[i-1]
	}
	return v.data[start:v.offsets[i]]
}

// IntAt returns row i of a decoded column.
func (v *Vec) IntAt(i int) int64 {
	return v.ints[i]
}

// Ints returns the backing slice of a decoded column.
func (v *Vec) Ints() []int64 {
	return v.ints
}

// TruncateLast removes the most recently appended row. Used to roll back a
// partially built row after a decode error.
func (v *Vec) TruncateLast() {
	if v.decoded {
		v.ints = v.ints[:len(v.ints)-1]
		return
	}
	v.offsets = v.offsets[:len(v.offsets)-1]
	end := 0
	if n := len(v.offsets); n > 0 {
		end = v.offsets[n-1]
	}
	v.data = v.data[:end]
}

// Batch is a set of equal-length columns.
type Batch struct {
	vecs []*Vec
}

// NewBatch wraps the given columns.
func NewBatch(vecs []*Vec) *Batch {
	return &Batch{vecs: vecs}
}

// Width returns the number of columns.
func (b *Batch) Width() int { return len(b.vecs) }

// Vec returns column i.
func (b *Batch) Vec(i int) *Vec { return b.vecs[i] }

// Len returns the number of rows, which every column must agree on.
func (b *Batch) Len() int {
	if len(b.vecs) == 0 {
		return 0
	}
	return b.vecs[0].Len()
}

// AssertEqualLen checks the column-length invariant. It is cheap and runs
// after every appended row in the executors.
func (b *Batch) AssertEqualLen() error {
	for i := 1; i < len(b.vecs); i++ {
		if b.vecs[i].Len() != b.vecs[0].Len() {
			return errors.AssertionFailedf(
				"column %d has %d rows, column 0 has %d", i, b.vecs[i].Len(), b.vecs[0].Len())
		}
	}
	return nil
}
