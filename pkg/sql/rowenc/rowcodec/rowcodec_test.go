// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

package rowcodec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/copra-db/copra/pkg/sql/rowenc"
	"github.com/copra-db/copra/pkg/sql/types"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	enc, err := Encode([]ColData{
		{ID: 5, Datum: rowenc.IntDatum(-1000)},
		{ID: 2, Datum: rowenc.BytesDatum([]byte("hello"))},
		{ID: 9, Datum: rowenc.NullDatum()},
		{ID: 3, Datum: rowenc.FloatDatum(4.25)},
	})
	require.NoError(t, err)
	require.Equal(t, CodecVer, enc[0])

	row, err := FromBytes(enc)
	require.NoError(t, err)

	start, end, ok := row.SearchInNonNullIDs(2)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), row.Values()[start:end])

	start, end, ok = row.SearchInNonNullIDs(5)
	require.True(t, ok)
	v, err := decodeCellInt(row.Values()[start:end])
	require.NoError(t, err)
	require.Equal(t, int64(-1000), v)

	require.True(t, row.SearchInNullIDs(9))
	require.False(t, row.SearchInNullIDs(2))

	_, _, ok = row.SearchInNonNullIDs(9)
	require.False(t, ok)
	_, _, ok = row.SearchInNonNullIDs(100)
	require.False(t, ok)
}

func TestEncodeLargeColumnIDs(t *testing.T) {
	enc, err := Encode([]ColData{
		{ID: 300, Datum: rowenc.IntDatum(1)},
		{ID: 70000, Datum: rowenc.BytesDatum([]byte("x"))},
		{ID: 2, Datum: rowenc.NullDatum()},
	})
	require.NoError(t, err)
	require.NotZero(t, enc[1]&largeFlag)

	row, err := FromBytes(enc)
	require.NoError(t, err)
	_, _, ok := row.SearchInNonNullIDs(300)
	require.True(t, ok)
	start, end, ok := row.SearchInNonNullIDs(70000)
	require.True(t, ok)
	require.Equal(t, []byte("x"), row.Values()[start:end])
	require.True(t, row.SearchInNullIDs(2))
}

func TestEncodeRejectsBadIDs(t *testing.T) {
	_, err := Encode([]ColData{{ID: 0, Datum: rowenc.IntDatum(1)}})
	require.Error(t, err)
	_, err = Encode([]ColData{
		{ID: 4, Datum: rowenc.IntDatum(1)},
		{ID: 4, Datum: rowenc.IntDatum(2)},
	})
	require.Error(t, err)
}

func TestFromBytesErrors(t *testing.T) {
	_, err := FromBytes(nil)
	require.Error(t, err)
	_, err = FromBytes([]byte{0x01, 0, 0, 0, 0, 0})
	require.Error(t, err)
	// Header promising more columns than the buffer holds.
	_, err = FromBytes([]byte{CodecVer, 0, 10, 0, 0, 0})
	require.Error(t, err)
}

func TestCellIntWidths(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 127, -128, 128, 32767, -32768, 1 << 20, -(1 << 20), 1 << 40, -(1 << 40)} {
		cell := encodeCellInt(nil, v)
		got, err := decodeCellInt(cell)
		require.NoError(t, err)
		require.Equal(t, v, got, "width %d", len(cell))
	}
	for _, v := range []uint64{0, 255, 256, 65535, 65536, 1 << 32, 1 << 63} {
		cell := encodeCellUint(nil, v)
		got, err := decodeCellUint(cell)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestAppendCellDatum(t *testing.T) {
	check := func(cell []byte, typ types.T, want rowenc.Datum) {
		t.Helper()
		buf, err := AppendCellDatum(nil, cell, typ)
		require.NoError(t, err)
		got, rest, err := rowenc.DecodeDatum(buf)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.Equal(t, want, got)
	}
	check(encodeCellInt(nil, -77), types.Int(), rowenc.IntDatum(-77))
	check(encodeCellUint(nil, 77), types.Uint(), rowenc.UintDatum(77))
	floatCell, err := encodeCell(nil, rowenc.FloatDatum(2.5))
	require.NoError(t, err)
	check(floatCell, types.Float(), rowenc.FloatDatum(2.5))
	check([]byte("abc"), types.Bytes(), rowenc.BytesDatum([]byte("abc")))

	_, err = AppendCellDatum(nil, []byte{1, 2, 3}, types.Float())
	require.Error(t, err)
	_, err = AppendCellDatum(nil, []byte{1, 2, 3}, types.Int())
	require.Error(t, err)
}
