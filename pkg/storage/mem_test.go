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

func newTestStore(t *testing.T) *MemStore {
	t.Helper()
	m := NewMemStore()
	m.Put(kvpb.Key("b"), []byte("vb"))
	m.Put(kvpb.Key("d"), []byte("vd"))
	m.Put(kvpb.Key("f"), []byte("vf"))
	return m
}

func drainScan(t *testing.T, s Storage) []kvpb.KeyValue {
	t.Helper()
	var out []kvpb.KeyValue
	for {
		kv, state, err := s.ScanNext()
		require.NoError(t, err)
		require.NotEqual(t, ScanWouldBlock, state)
		if state == ScanDone {
			return out
		}
		out = append(out, kvpb.KeyValue{Key: kv.Key.Clone(), Value: append([]byte(nil), kv.Value...)})
	}
}

func TestMemStoreForwardScan(t *testing.T) {
	m := newTestStore(t)
	require.NoError(t, m.BeginScan(false, false, kvpb.Span{Key: kvpb.Key("a"), EndKey: kvpb.Key("e")}))
	got := drainScan(t, m)
	require.Len(t, got, 2)
	require.Equal(t, kvpb.Key("b"), got[0].Key)
	require.Equal(t, []byte("vb"), got[0].Value)
	require.Equal(t, kvpb.Key("d"), got[1].Key)
}

func TestMemStoreBackwardScan(t *testing.T) {
	m := newTestStore(t)
	require.NoError(t, m.BeginScan(true, false, kvpb.Span{Key: kvpb.Key("a"), EndKey: kvpb.Key("g")}))
	got := drainScan(t, m)
	require.Len(t, got, 3)
	require.Equal(t, kvpb.Key("f"), got[0].Key)
	require.Equal(t, kvpb.Key("d"), got[1].Key)
	require.Equal(t, kvpb.Key("b"), got[2].Key)
}

func TestMemStoreScanBoundsExclusive(t *testing.T) {
	m := newTestStore(t)
	// EndKey is exclusive both ways.
	require.NoError(t, m.BeginScan(false, false, kvpb.Span{Key: kvpb.Key("b"), EndKey: kvpb.Key("d")}))
	got := drainScan(t, m)
	require.Len(t, got, 1)
	require.Equal(t, kvpb.Key("b"), got[0].Key)

	require.NoError(t, m.BeginScan(true, false, kvpb.Span{Key: kvpb.Key("b"), EndKey: kvpb.Key("d")}))
	got = drainScan(t, m)
	require.Len(t, got, 1)
	require.Equal(t, kvpb.Key("b"), got[0].Key)
}

func TestMemStoreKeyOnly(t *testing.T) {
	m := newTestStore(t)
	require.NoError(t, m.BeginScan(false, true, kvpb.Span{Key: kvpb.Key("a"), EndKey: kvpb.Key("z")}))
	kv, state, err := m.ScanNext()
	require.NoError(t, err)
	require.Equal(t, ScanOK, state)
	require.Equal(t, kvpb.Key("b"), kv.Key)
	require.Nil(t, kv.Value)
}

func TestMemStoreGet(t *testing.T) {
	m := newTestStore(t)
	v, state, err := m.Get(false, kvpb.Key("d"))
	require.NoError(t, err)
	require.Equal(t, ScanOK, state)
	require.Equal(t, []byte("vd"), v)

	_, state, err = m.Get(false, kvpb.Key("c"))
	require.NoError(t, err)
	require.Equal(t, ScanDone, state)
}

func TestMemStoreWouldBlockResumes(t *testing.T) {
	m := newTestStore(t)
	m.SetBlockEvery(2)
	require.NoError(t, m.BeginScan(false, false, kvpb.Span{Key: kvpb.Key("a"), EndKey: kvpb.Key("z")}))

	var got []kvpb.Key
	blocked := 0
	for {
		kv, state, err := m.ScanNext()
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

func TestMemStoreStats(t *testing.T) {
	m := newTestStore(t)
	require.NoError(t, m.BeginScan(false, false, kvpb.Span{Key: kvpb.Key("a"), EndKey: kvpb.Key("z")}))
	drainScan(t, m)

	var stats Stats
	m.CollectStatistics(&stats)
	require.Equal(t, int64(3), stats.ProcessedKeys)
	require.Equal(t, int64(3*3), stats.ProcessedBytes)

	// Collection resets the counters.
	stats = Stats{}
	m.CollectStatistics(&stats)
	require.Zero(t, stats.ProcessedKeys)
}

func TestMemStoreUncacheable(t *testing.T) {
	m := NewMemStore()
	met, known := m.MetUncacheableData()
	require.False(t, met)
	require.True(t, known)

	m.SetUncacheable(true, true)
	met, known = m.MetUncacheableData()
	require.True(t, met)
	require.True(t, known)
}
