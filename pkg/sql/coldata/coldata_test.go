// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

package coldata

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRawVec(t *testing.T) {
	v := NewRawVec(4)
	require.False(t, v.IsDecoded())
	require.Zero(t, v.Len())

	v.AppendRaw([]byte("abc"))
	v.AppendRaw(nil)
	v.AppendRaw([]byte("xy"))
	require.Equal(t, 3, v.Len())
	require.Equal(t, []byte("abc"), v.RawAt(0))
	require.Empty(t, v.RawAt(1))
	require.Equal(t, []byte("xy"), v.RawAt(2))
}

func TestIntVec(t *testing.T) {
	v := NewIntVec(4)
	require.True(t, v.IsDecoded())
	v.AppendInt(-5)
	v.AppendInt(10)
	require.Equal(t, 2, v.Len())
	require.Equal(t, int64(-5), v.IntAt(0))
	require.Equal(t, int64(10), v.IntAt(1))
	require.Equal(t, []int64{-5, 10}, v.Ints())
}

func TestTruncateLast(t *testing.T) {
	raw := NewRawVec(2)
	raw.AppendRaw([]byte("abc"))
	raw.AppendRaw([]byte("de"))
	raw.TruncateLast()
	require.Equal(t, 1, raw.Len())
	require.Equal(t, []byte("abc"), raw.RawAt(0))
	raw.AppendRaw([]byte("fg"))
	require.Equal(t, []byte("fg"), raw.RawAt(1))

	ints := NewIntVec(2)
	ints.AppendInt(1)
	ints.AppendInt(2)
	ints.TruncateLast()
	require.Equal(t, 1, ints.Len())
	require.Equal(t, int64(1), ints.IntAt(0))
}

func TestBatch(t *testing.T) {
	a, b := NewRawVec(2), NewIntVec(2)
	batch := NewBatch([]*Vec{a, b})
	require.Equal(t, 2, batch.Width())
	require.Zero(t, batch.Len())
	require.NoError(t, batch.AssertEqualLen())

	a.AppendRaw([]byte("x"))
	require.Error(t, batch.AssertEqualLen())
	b.AppendInt(9)
	require.NoError(t, batch.AssertEqualLen())
	require.Equal(t, 1, batch.Len())
	require.Same(t, a, batch.Vec(0))
}
