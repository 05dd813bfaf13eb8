// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

// Package rowexec implements the batch executors that read index data from
// storage and emit columnar batches.
package rowexec

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/copra-db/copra/pkg/kvpb"
	"github.com/copra-db/copra/pkg/sql/coldata"
	"github.com/copra-db/copra/pkg/sql/execinfra"
	"github.com/copra-db/copra/pkg/storage"
)

// scanImpl is the format-specific half of a scan executor: it knows the
// output schema and how to turn one key-value pair into one row.
type scanImpl interface {
	schema() []execinfra.ColumnInfo
	buildColumns(capacity int) []*coldata.Vec
	processKV(kv kvpb.KeyValue, batch *coldata.Batch) error
}

// scanExecutor drives a scanImpl over a RangesScanner. It owns batching,
// drained-state bookkeeping and stats; the impl owns decoding.
type scanExecutor struct {
	impl    scanImpl
	store   storage.Storage
	scanner *storage.RangesScanner
	tracer  trace.Tracer

	stats    execinfra.ExecStats
	terminal bool
	err      error
}

var _ execinfra.BatchExecutor = (*scanExecutor)(nil)

func newScanExecutor(
	impl scanImpl,
	store storage.Storage,
	scannerCfg storage.RangesScannerConfig,
	tracer trace.Tracer,
) (*scanExecutor, error) {
	for _, r := range scannerCfg.Ranges {
		if !r.Valid() {
			return nil, errors.Errorf("invalid key range %s", r)
		}
	}
	scannerCfg.Storage = store
	return &scanExecutor{
		impl:    impl,
		store:   store,
		scanner: storage.NewRangesScanner(scannerCfg),
		tracer:  tracer,
	}, nil
}

// Schema implements execinfra.BatchExecutor.
func (e *scanExecutor) Schema() []execinfra.ColumnInfo {
	return e.impl.schema()
}

// NextBatch implements execinfra.BatchExecutor.
func (e *scanExecutor) NextBatch(ctx context.Context, maxRows int) execinfra.BatchResult {
	if e.tracer == nil {
		return e.nextBatch(ctx, maxRows)
	}
	ctx, span := e.tracer.Start(ctx, "scan.NextBatch")
	defer span.End()
	res := e.nextBatch(ctx, maxRows)
	rows := 0
	if res.Batch != nil {
		rows = res.Batch.Len()
	}
	span.SetAttributes(
		attribute.Int("scan.rows", rows),
		attribute.String("scan.drained", res.Drained.String()),
	)
	if res.Err != nil {
		span.RecordError(res.Err)
	}
	return res
}

func (e *scanExecutor) nextBatch(ctx context.Context, maxRows int) execinfra.BatchResult {
	if maxRows <= 0 {
		return execinfra.BatchResult{
			Drained: execinfra.DrainedYes,
			Err:     errors.AssertionFailedf("maxRows must be positive, got %d", maxRows),
		}
	}
	if e.err != nil {
		return execinfra.BatchResult{Drained: execinfra.DrainedYes, Err: e.err}
	}
	if e.terminal {
		return execinfra.BatchResult{
			Batch:   coldata.NewBatch(e.impl.buildColumns(0)),
			Drained: execinfra.DrainedYes,
		}
	}

	batch := coldata.NewBatch(e.impl.buildColumns(maxRows))
	drained := execinfra.DrainedNo
	for batch.Len() < maxRows {
		if err := ctx.Err(); err != nil {
			return e.fail(batch, err)
		}
		kv, state, err := e.scanner.Next()
		if err != nil {
			return e.fail(batch, err)
		}
		if state == storage.ScanWouldBlock {
			drained = execinfra.DrainedUnknown
			break
		}
		if state == storage.ScanDone {
			drained = execinfra.DrainedYes
			e.terminal = true
			break
		}
		rows := batch.Len()
		if err := e.impl.processKV(kv, batch); err != nil {
			rollbackRow(batch, rows)
			return e.fail(batch, errors.Wrapf(err, "processing key %s", kv.Key))
		}
		if err := batch.AssertEqualLen(); err != nil {
			return e.fail(batch, err)
		}
	}
	e.stats.ProducedRows += int64(batch.Len())
	return execinfra.BatchResult{Batch: batch, Drained: drained}
}

// fail records err as terminal and returns a poisoned result. The rows in
// the batch, if any, must not be consumed.
func (e *scanExecutor) fail(batch *coldata.Batch, err error) execinfra.BatchResult {
	e.err = err
	e.terminal = true
	return execinfra.BatchResult{Batch: batch, Drained: execinfra.DrainedYes, Err: err}
}

// rollbackRow removes any cells appended past the given row count, so a
// half-decoded row does not leave the columns ragged.
func rollbackRow(batch *coldata.Batch, rows int) {
	for i := 0; i < batch.Width(); i++ {
		if vec := batch.Vec(i); vec.Len() > rows {
			vec.TruncateLast()
		}
	}
}

// CollectExecStats implements execinfra.BatchExecutor.
func (e *scanExecutor) CollectExecStats(dst *execinfra.ExecStats) {
	dst.ScannedRowsPerRange = e.scanner.CollectScannedRows(dst.ScannedRowsPerRange)
	dst.ProducedRows += e.stats.ProducedRows
	e.stats.ProducedRows = 0
}

// CollectStorageStats implements execinfra.BatchExecutor.
func (e *scanExecutor) CollectStorageStats(dst *storage.Stats) {
	e.store.CollectStatistics(dst)
}

// TakeScannedRange implements execinfra.BatchExecutor.
func (e *scanExecutor) TakeScannedRange() kvpb.Span {
	return e.scanner.TakeScannedRange()
}

// CanBeCached implements execinfra.BatchExecutor.
func (e *scanExecutor) CanBeCached() bool {
	met, known := e.store.MetUncacheableData()
	return known && !met
}
