// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

// Package storage abstracts the key-value substrate the executors scan, and
// provides the range-scanning driver layered on top of it.
package storage

import "github.com/copra-db/copra/pkg/kvpb"

// ScanState qualifies the result of a storage read.
type ScanState int8

const (
	// ScanOK means a pair was produced.
	ScanOK ScanState = iota
	// ScanDone means the scan is exhausted, or a point lookup found nothing.
	ScanDone
	// ScanWouldBlock means the data is not yet available locally. The same
	// call can be retried later and will resume where it left off.
	ScanWouldBlock
)

// Stats accumulates storage-level counters.
type Stats struct {
	// ProcessedKeys counts the pairs read from storage.
	ProcessedKeys int64
	// ProcessedBytes counts key plus value bytes of those pairs.
	ProcessedBytes int64
}

// MergeFrom adds other into s.
func (s *Stats) MergeFrom(other Stats) {
	s.ProcessedKeys += other.ProcessedKeys
	s.ProcessedBytes += other.ProcessedBytes
}

// Storage is a cursor-style view over sorted key-value data. At most one
// scan is active at a time; BeginScan discards any previous one.
//
// Implementations are not required to be safe for concurrent use.
type Storage interface {
	// BeginScan starts a scan over span. With backward set, ScanNext yields
	// pairs in descending key order. With keyOnly set, values are omitted.
	BeginScan(backward, keyOnly bool, span kvpb.Span) error

	// ScanNext returns the next pair of the active scan. The returned
	// slices may be reused by the next call.
	ScanNext() (kvpb.KeyValue, ScanState, error)

	// Get performs a point lookup. A missing key reports ScanDone.
	Get(keyOnly bool, key kvpb.Key) ([]byte, ScanState, error)

	// MetUncacheableData reports whether any read so far touched data that
	// must not enter a result cache. known is false when the implementation
	// cannot tell.
	MetUncacheableData() (met, known bool)

	// CollectStatistics merges this storage's counters into dst and resets
	// them.
	CollectStatistics(dst *Stats)
}
