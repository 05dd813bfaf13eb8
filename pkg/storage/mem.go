// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

package storage

import (
	"github.com/cockroachdb/errors"
	"github.com/google/btree"

	"github.com/copra-db/copra/pkg/kvpb"
)

type memItem struct {
	key   kvpb.Key
	value []byte
}

func (a memItem) Less(b btree.Item) bool {
	return a.key.Compare(b.(memItem).key) < 0
}

// MemStore is an in-memory Storage backed by a btree. It is primarily a
// test fixture: it can simulate would-block reads and uncacheable data,
// which the durable stores cannot do on demand.
type MemStore struct {
	tree *btree.BTree

	scanning bool
	backward bool
	keyOnly  bool
	span     kvpb.Span
	cursor   kvpb.Key

	stats            Stats
	uncacheableMet   bool
	uncacheableKnown bool

	blockEvery int
	reads      int
}

var _ Storage = (*MemStore)(nil)

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{tree: btree.New(32), uncacheableKnown: true}
}

// Put inserts or replaces a pair. Both slices are retained.
func (m *MemStore) Put(key kvpb.Key, value []byte) {
	m.tree.ReplaceOrInsert(memItem{key: key, value: value})
}

// SetUncacheable sets what MetUncacheableData reports.
func (m *MemStore) SetUncacheable(met, known bool) {
	m.uncacheableMet, m.uncacheableKnown = met, known
}

// SetBlockEvery makes every n-th read report ScanWouldBlock. Retrying the
// blocked read succeeds, so n must be at least 2. Zero disables blocking.
func (m *MemStore) SetBlockEvery(n int) {
	m.blockEvery = n
}

func (m *MemStore) wouldBlock() bool {
	m.reads++
	return m.blockEvery > 0 && m.reads%m.blockEvery == 0
}

// BeginScan implements Storage.
func (m *MemStore) BeginScan(backward, keyOnly bool, span kvpb.Span) error {
	if !span.Valid() {
		return errors.Errorf("invalid scan span %s", span)
	}
	m.scanning = true
	m.backward = backward
	m.keyOnly = keyOnly
	m.span = span.Clone()
	if backward {
		m.cursor = m.span.EndKey.Clone()
	} else {
		m.cursor = m.span.Key.Clone()
	}
	return nil
}

// ScanNext implements Storage.
func (m *MemStore) ScanNext() (kvpb.KeyValue, ScanState, error) {
	if !m.scanning {
		return kvpb.KeyValue{}, ScanDone, errors.AssertionFailedf("ScanNext without an active scan")
	}
	if m.wouldBlock() {
		return kvpb.KeyValue{}, ScanWouldBlock, nil
	}
	var found *memItem
	if m.backward {
		// cursor is an exclusive upper bound.
		m.tree.DescendLessOrEqual(memItem{key: m.cursor}, func(i btree.Item) bool {
			it := i.(memItem)
			if it.key.Compare(m.cursor) >= 0 {
				return true
			}
			if it.key.Compare(m.span.Key) < 0 {
				return false
			}
			found = &it
			return false
		})
		if found == nil {
			m.scanning = false
			return kvpb.KeyValue{}, ScanDone, nil
		}
		m.cursor = found.key.Clone()
	} else {
		m.tree.AscendGreaterOrEqual(memItem{key: m.cursor}, func(i btree.Item) bool {
			it := i.(memItem)
			if it.key.Compare(m.span.EndKey) >= 0 {
				return false
			}
			found = &it
			return false
		})
		if found == nil {
			m.scanning = false
			return kvpb.KeyValue{}, ScanDone, nil
		}
		m.cursor = append(found.key.Clone(), 0)
	}
	return m.emit(*found), ScanOK, nil
}

func (m *MemStore) emit(it memItem) kvpb.KeyValue {
	m.stats.ProcessedKeys++
	m.stats.ProcessedBytes += int64(len(it.key) + len(it.value))
	kv := kvpb.KeyValue{Key: it.key}
	if !m.keyOnly {
		kv.Value = it.value
	}
	return kv
}

// Get implements Storage.
func (m *MemStore) Get(keyOnly bool, key kvpb.Key) ([]byte, ScanState, error) {
	if m.wouldBlock() {
		return nil, ScanWouldBlock, nil
	}
	it := m.tree.Get(memItem{key: key})
	if it == nil {
		return nil, ScanDone, nil
	}
	found := it.(memItem)
	m.stats.ProcessedKeys++
	m.stats.ProcessedBytes += int64(len(found.key) + len(found.value))
	if keyOnly {
		return nil, ScanOK, nil
	}
	return found.value, ScanOK, nil
}

// MetUncacheableData implements Storage.
func (m *MemStore) MetUncacheableData() (met, known bool) {
	return m.uncacheableMet, m.uncacheableKnown
}

// CollectStatistics implements Storage.
func (m *MemStore) CollectStatistics(dst *Stats) {
	dst.MergeFrom(m.stats)
	m.stats = Stats{}
}
