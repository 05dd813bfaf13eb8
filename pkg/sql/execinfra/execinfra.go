// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

// Package execinfra holds the interfaces and shared types the batch
// executors are built from.
package execinfra

import (
	"context"

	"github.com/copra-db/copra/pkg/kvpb"
	"github.com/copra-db/copra/pkg/sql/coldata"
	"github.com/copra-db/copra/pkg/sql/types"
	"github.com/copra-db/copra/pkg/storage"
)

// ColumnInfo describes one output column of an executor.
type ColumnInfo struct {
	// ID is the column's stable identifier, used to look values up in
	// restore data.
	ID int64
	// Type is the column's value type.
	Type types.T
	// PKHandle marks the column holding the integer row handle.
	PKHandle bool
}

// Drained is a tri-state answer to "is this executor finished".
type Drained int8

const (
	// DrainedUnknown means the executor stopped early, typically because
	// storage would block, and must be polled again.
	DrainedUnknown Drained = iota
	// DrainedNo means more data is available.
	DrainedNo
	// DrainedYes means all ranges are exhausted.
	DrainedYes
)

func (d Drained) String() string {
	switch d {
	case DrainedUnknown:
		return "unknown"
	case DrainedNo:
		return "no"
	case DrainedYes:
		return "yes"
	default:
		return "invalid"
	}
}

// BatchResult is the unit of output of a BatchExecutor. Err, if set,
// poisons the whole batch: the rows alongside it must not be consumed.
type BatchResult struct {
	Batch   *coldata.Batch
	Drained Drained
	Err     error
}

// ExecStats accumulates per-executor runtime counters across NextBatch
// calls.
type ExecStats struct {
	// ScannedRowsPerRange has one entry per key range handed to the
	// executor, counting the rows produced from it.
	ScannedRowsPerRange []int64
	// ProducedRows counts rows emitted in total.
	ProducedRows int64
}

// BatchExecutor produces columnar batches from storage.
type BatchExecutor interface {
	// Schema returns the output columns. The returned slice must not be
	// modified.
	Schema() []ColumnInfo

	// NextBatch produces up to maxRows rows. maxRows must be positive.
	NextBatch(ctx context.Context, maxRows int) BatchResult

	// CollectExecStats merges this executor's counters into dst.
	CollectExecStats(dst *ExecStats)

	// CollectStorageStats merges the underlying storage counters into dst.
	CollectStorageStats(dst *storage.Stats)

	// TakeScannedRange returns the key range covered since the previous
	// call, for result-cache bookkeeping. Valid only when range tracking
	// was requested at construction.
	TakeScannedRange() kvpb.Span

	// CanBeCached reports whether everything read so far is safe to cache.
	CanBeCached() bool
}
