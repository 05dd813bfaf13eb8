// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/copra-db/copra/pkg/kvpb"
)

func drainScanner(t *testing.T, s *RangesScanner) []kvpb.Key {
	t.Helper()
	var out []kvpb.Key
	for {
		kv, state, err := s.Next()
		require.NoError(t, err)
		require.NotEqual(t, ScanWouldBlock, state)
		if state == ScanDone {
			return out
		}
		out = append(out, kv.Key.Clone())
	}
}

func TestRangesScannerMultipleRanges(t *testing.T) {
	m := newTestStore(t)
	s := NewRangesScanner(RangesScannerConfig{
		Storage: m,
		Ranges: []kvpb.Span{
			{Key: kvpb.Key("a"), EndKey: kvpb.Key("c")},
			{Key: kvpb.Key("c"), EndKey: kvpb.Key("e")},
			{Key: kvpb.Key("e"), EndKey: kvpb.Key("z")},
		},
	})
	require.Equal(t, []kvpb.Key{kvpb.Key("b"), kvpb.Key("d"), kvpb.Key("f")}, drainScanner(t, s))

	// Subsequent calls stay drained.
	_, state, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, ScanDone, state)
}

func TestRangesScannerBackward(t *testing.T) {
	m := newTestStore(t)
	// Ranges are pre-ordered by the caller; each one is scanned backward.
	s := NewRangesScanner(RangesScannerConfig{
		Storage:  m,
		Backward: true,
		Ranges: []kvpb.Span{
			{Key: kvpb.Key("e"), EndKey: kvpb.Key("z")},
			{Key: kvpb.Key("a"), EndKey: kvpb.Key("e")},
		},
	})
	require.Equal(t, []kvpb.Key{kvpb.Key("f"), kvpb.Key("d"), kvpb.Key("b")}, drainScanner(t, s))
}

func TestRangesScannerPointOptimize(t *testing.T) {
	m := newTestStore(t)
	point := func(k string) kvpb.Span {
		return kvpb.Span{Key: kvpb.Key(k), EndKey: kvpb.Key(k).PrefixEnd()}
	}
	s := NewRangesScanner(RangesScannerConfig{
		Storage:       m,
		PointOptimize: true,
		Ranges:        []kvpb.Span{point("b"), point("c"), point("f")},
	})
	require.Equal(t, []kvpb.Key{kvpb.Key("b"), kvpb.Key("f")}, drainScanner(t, s))
}

func TestRangesScannerWouldBlockResumes(t *testing.T) {
	m := newTestStore(t)
	m.SetBlockEvery(2)
	s := NewRangesScanner(RangesScannerConfig{
		Storage: m,
		Ranges:  []kvpb.Span{{Key: kvpb.Key("a"), EndKey: kvpb.Key("z")}},
	})
	var got []kvpb.Key
	blocked := 0
	for {
		kv, state, err := s.Next()
		require.NoError(t, err)
		if state == ScanWouldBlock {
			blocked++
			continue
		}
		if state == ScanDone {
			break
		}
		got = append(got, kv.Key.Clone())
	}
	require.Positive(t, blocked)
	require.Equal(t, []kvpb.Key{kvpb.Key("b"), kvpb.Key("d"), kvpb.Key("f")}, got)
}

func TestRangesScannerCollectScannedRows(t *testing.T) {
	m := newTestStore(t)
	s := NewRangesScanner(RangesScannerConfig{
		Storage: m,
		Ranges: []kvpb.Span{
			{Key: kvpb.Key("a"), EndKey: kvpb.Key("e")},
			{Key: kvpb.Key("e"), EndKey: kvpb.Key("z")},
		},
	})
	drainScanner(t, s)
	counts := s.CollectScannedRows(nil)
	require.Equal(t, []int64{2, 1}, counts)

	// Counters reset after collection.
	require.Empty(t, s.CollectScannedRows(nil))
}

func TestRangesScannerTakeScannedRangeForward(t *testing.T) {
	m := newTestStore(t)
	s := NewRangesScanner(RangesScannerConfig{
		Storage:           m,
		TrackScannedRange: true,
		Ranges:            []kvpb.Span{{Key: kvpb.Key("a"), EndKey: kvpb.Key("z")}},
	})

	kv, state, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, ScanOK, state)
	require.Equal(t, kvpb.Key("b"), kv.Key)

	r := s.TakeScannedRange()
	require.Equal(t, kvpb.Key("a"), r.Key)
	require.Equal(t, kvpb.Key("b\x00"), r.EndKey)

	drainScanner(t, s)
	r = s.TakeScannedRange()
	// Adjacent to the previous taken range, extending to the range end.
	require.Equal(t, kvpb.Key("b\x00"), r.Key)
	require.Equal(t, kvpb.Key("z"), r.EndKey)
}

func TestRangesScannerTakeScannedRangeBackward(t *testing.T) {
	m := newTestStore(t)
	s := NewRangesScanner(RangesScannerConfig{
		Storage:           m,
		Backward:          true,
		TrackScannedRange: true,
		Ranges:            []kvpb.Span{{Key: kvpb.Key("a"), EndKey: kvpb.Key("z")}},
	})

	kv, state, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, ScanOK, state)
	require.Equal(t, kvpb.Key("f"), kv.Key)

	r := s.TakeScannedRange()
	require.Equal(t, kvpb.Key("f"), r.Key)
	require.Equal(t, kvpb.Key("z"), r.EndKey)

	drainScanner(t, s)
	r = s.TakeScannedRange()
	require.Equal(t, kvpb.Key("a"), r.Key)
	require.Equal(t, kvpb.Key("f"), r.EndKey)
}
