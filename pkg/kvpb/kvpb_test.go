// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

package kvpb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyPrefixEnd(t *testing.T) {
	require.Equal(t, Key{0x01, 0x03}, Key{0x01, 0x02}.PrefixEnd())
	// The carry zeroes overflowed bytes but keeps the key length.
	require.Equal(t, Key{0x02, 0x00}, Key{0x01, 0xff}.PrefixEnd())
	require.Equal(t, Key{0x01, 0x02, 0x00}, Key{0x01, 0x01, 0xff}.PrefixEnd())
	// No successor exists; the convention is to append a zero byte.
	require.Equal(t, Key{0xff, 0xff, 0x00}, Key{0xff, 0xff}.PrefixEnd())
}

func TestKeyPrefixEndDoesNotMutate(t *testing.T) {
	k := Key{0x01, 0x02}
	_ = k.PrefixEnd()
	require.Equal(t, Key{0x01, 0x02}, k)
}

func TestKeyCompareClone(t *testing.T) {
	a, b := Key("abc"), Key("abd")
	require.Negative(t, a.Compare(b))
	require.Positive(t, b.Compare(a))
	require.Zero(t, a.Compare(Key("abc")))

	c := a.Clone()
	require.True(t, a.Equal(c))
	c[0] = 'z'
	require.False(t, a.Equal(c))
}

func TestSpanValid(t *testing.T) {
	require.True(t, Span{Key: Key("a"), EndKey: Key("b")}.Valid())
	require.False(t, Span{Key: Key("b"), EndKey: Key("a")}.Valid())
	require.False(t, Span{Key: Key("a"), EndKey: Key("a")}.Valid())
}

func TestSpanIsPoint(t *testing.T) {
	require.True(t, Span{Key: Key("a"), EndKey: Key("b")}.IsPoint())
	require.True(t, Span{Key: Key{0x01, 0xff}, EndKey: Key{0x02, 0x00}}.IsPoint())
	require.False(t, Span{Key: Key{0x01, 0xff}, EndKey: Key{0x02}}.IsPoint())
	require.False(t, Span{Key: Key("a"), EndKey: Key("c")}.IsPoint())
	require.False(t, Span{Key: Key("a"), EndKey: Key("a\x00")}.IsPoint())
}

func TestSpanContainsKey(t *testing.T) {
	s := Span{Key: Key("b"), EndKey: Key("d")}
	require.False(t, s.ContainsKey(Key("a")))
	require.True(t, s.ContainsKey(Key("b")))
	require.True(t, s.ContainsKey(Key("c")))
	require.False(t, s.ContainsKey(Key("d")))
}
