// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

package rowexec

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/trace"

	"github.com/copra-db/copra/pkg/keys"
	"github.com/copra-db/copra/pkg/kvpb"
	"github.com/copra-db/copra/pkg/sql/coldata"
	"github.com/copra-db/copra/pkg/sql/execinfra"
	"github.com/copra-db/copra/pkg/sql/rowenc"
	"github.com/copra-db/copra/pkg/sql/rowenc/rowcodec"
	"github.com/copra-db/copra/pkg/sql/types"
	"github.com/copra-db/copra/pkg/storage"
	"github.com/copra-db/copra/pkg/util/encoding"
)

// IndexScanArgs configures an index scan executor.
type IndexScanArgs struct {
	Storage storage.Storage

	// Columns is the output schema: the index columns in key order,
	// followed by the handle columns. An integer handle is marked with
	// PKHandle on the last column; a common handle is declared through
	// PrimaryColumnCount instead.
	Columns []execinfra.ColumnInfo

	// PrimaryColumnCount is the number of trailing columns holding the
	// common (composite primary key) handle. Zero means no common handle.
	PrimaryColumnCount int

	// Ranges are the key ranges to scan, in the intended output order.
	Ranges []kvpb.Span

	// Reverse scans each range backward and emits rows in descending key
	// order. The range order itself is taken as given.
	Reverse bool

	// Unique lets single-key ranges be served by point lookups.
	Unique bool

	// TrackScannedRange enables TakeScannedRange on the executor.
	TrackScannedRange bool

	// Tracer, when set, opens a span around each NextBatch call.
	Tracer trace.Tracer
}

type handleStrategy int8

const (
	handleNone handleStrategy = iota
	handleInt
	handleCommon
)

// indexScanImpl decodes index entries. The value layout is dispatched per
// pair: entries written before and after the collation-aware format change
// coexist in one index.
type indexScanImpl struct {
	columns  []execinfra.ColumnInfo
	strategy handleStrategy
	// indexColCnt counts the leading columns decoded from the index datums;
	// the rest, if any, come from the handle.
	indexColCnt int
}

// NewIndexScan returns a BatchExecutor scanning index entries.
func NewIndexScan(args IndexScanArgs) (execinfra.BatchExecutor, error) {
	impl, err := newIndexScanImpl(args.Columns, args.PrimaryColumnCount)
	if err != nil {
		return nil, err
	}
	return newScanExecutor(impl, args.Storage, storage.RangesScannerConfig{
		Ranges:            args.Ranges,
		Backward:          args.Reverse,
		PointOptimize:     args.Unique,
		TrackScannedRange: args.TrackScannedRange,
	}, args.Tracer)
}

func newIndexScanImpl(columns []execinfra.ColumnInfo, primaryColumnCount int) (*indexScanImpl, error) {
	if len(columns) == 0 {
		return nil, errors.Errorf("index scan requires at least one column")
	}
	pkIdx := -1
	for i, col := range columns {
		if !col.PKHandle {
			continue
		}
		if pkIdx >= 0 {
			return nil, errors.Errorf("more than one handle column (%d and %d)", pkIdx, i)
		}
		pkIdx = i
	}
	if primaryColumnCount < 0 || primaryColumnCount > len(columns) {
		return nil, errors.Errorf(
			"primary column count %d out of range for %d columns", primaryColumnCount, len(columns))
	}
	impl := &indexScanImpl{columns: columns}
	switch {
	case pkIdx >= 0 && primaryColumnCount > 0:
		return nil, errors.Errorf("integer and common handle cannot both be requested")
	case pkIdx >= 0:
		if pkIdx != len(columns)-1 {
			return nil, errors.Errorf("handle column must be last, got index %d", pkIdx)
		}
		if columns[pkIdx].Type.Family != types.IntFamily {
			return nil, errors.Errorf("handle column must be an integer, got %s", columns[pkIdx].Type)
		}
		impl.strategy = handleInt
		impl.indexColCnt = len(columns) - 1
	case primaryColumnCount > 0:
		impl.strategy = handleCommon
		impl.indexColCnt = len(columns) - primaryColumnCount
	default:
		impl.strategy = handleNone
		impl.indexColCnt = len(columns)
	}
	return impl, nil
}

func (e *indexScanImpl) schema() []execinfra.ColumnInfo {
	return e.columns
}

func (e *indexScanImpl) buildColumns(capacity int) []*coldata.Vec {
	vecs := make([]*coldata.Vec, len(e.columns))
	for i := range e.columns {
		if e.strategy == handleInt && i == e.indexColCnt {
			vecs[i] = coldata.NewIntVec(capacity)
		} else {
			vecs[i] = coldata.NewRawVec(capacity)
		}
	}
	return vecs
}

func (e *indexScanImpl) processKV(kv kvpb.KeyValue, batch *coldata.Batch) error {
	if err := keys.CheckIndexKey(kv.Key); err != nil {
		return err
	}
	payload := keys.CutIndexPrefix(kv.Key)
	if len(kv.Value) > rowenc.MaxOldEncodedValueLen {
		return e.processNewFormat(payload, kv.Value, batch)
	}
	return e.processOldFormat(payload, kv.Value, batch)
}

// processOldFormat handles the three restore-data-free layouts. All index
// columns live in the key; a unique entry's handle is the whole value.
func (e *indexScanImpl) processOldFormat(payload, value []byte, batch *coldata.Batch) error {
	rest, err := e.appendIndexColumnsFromKey(payload, batch)
	if err != nil {
		return err
	}
	switch e.strategy {
	case handleInt:
		var h int64
		if len(rest) == 0 {
			if len(value) < 8 {
				return errors.Errorf("missing row handle: key exhausted and value is %d bytes", len(value))
			}
			// A 9-byte value is the 8-byte handle plus the uncommitted-entry
			// marker; the handle always occupies the leading 8 bytes.
			h = int64(binary.BigEndian.Uint64(value[:8]))
		} else if h, err = decodeHandleFromKey(rest); err != nil {
			return err
		}
		batch.Vec(e.indexColCnt).AppendInt(h)
	case handleCommon:
		return e.appendCommonHandle(rest, batch)
	}
	return nil
}

// processNewFormat handles the three restore-data layouts. Index columns
// come from the embedded row data when present, otherwise from the key; the
// handle comes from whichever segment carries it.
func (e *indexScanImpl) processNewFormat(payload, value []byte, batch *coldata.Batch) error {
	segs, err := rowenc.SplitIndexValue(value)
	if err != nil {
		return err
	}
	if segs.CommonHandle != nil && e.strategy != handleCommon {
		return errors.Errorf("value embeds a common handle but the scan declares no common handle columns")
	}
	var rest []byte
	if segs.RestoredValues != nil {
		if err := e.appendIndexColumnsFromRestore(segs.RestoredValues, batch); err != nil {
			return err
		}
		if rest, err = encoding.SkipN(payload, e.indexColCnt); err != nil {
			return errors.Wrap(err, "skipping index datums in key")
		}
	} else {
		// A value with no restored-row segment decodes its index columns
		// from the key, which always carries them for such entries.
		if rest, err = e.appendIndexColumnsFromKey(payload, batch); err != nil {
			return err
		}
	}
	switch e.strategy {
	case handleInt:
		var h int64
		if segs.IntHandle != nil {
			h = int64(binary.BigEndian.Uint64(segs.IntHandle))
		} else if h, err = decodeHandleFromKey(rest); err != nil {
			return err
		}
		batch.Vec(e.indexColCnt).AppendInt(h)
	case handleCommon:
		handle := segs.CommonHandle
		if handle == nil {
			handle = rest
		}
		return e.appendCommonHandle(handle, batch)
	}
	return nil
}

// appendIndexColumnsFromKey cuts one encoded datum per index column off the
// key payload and returns what follows them.
func (e *indexScanImpl) appendIndexColumnsFromKey(
	payload []byte, batch *coldata.Batch,
) ([]byte, error) {
	for i := 0; i < e.indexColCnt; i++ {
		datum, rest, err := encoding.CutOne(payload)
		if err != nil {
			return nil, errors.Wrapf(err, "cutting datum for column %d", i)
		}
		batch.Vec(i).AppendRaw(datum)
		payload = rest
	}
	return payload, nil
}

// appendIndexColumnsFromRestore rebuilds the index columns from the row
// data embedded in the value, which preserves the original (pre key
// encoding) representation of collation-sensitive columns.
func (e *indexScanImpl) appendIndexColumnsFromRestore(
	restore []byte, batch *coldata.Batch,
) error {
	row, err := rowcodec.FromBytes(restore)
	if err != nil {
		return errors.Wrap(err, "parsing restored row data")
	}
	for i := 0; i < e.indexColCnt; i++ {
		col := e.columns[i]
		if start, end, ok := row.SearchInNonNullIDs(col.ID); ok {
			cell, err := rowcodec.AppendCellDatum(nil, row.Values()[start:end], col.Type)
			if err != nil {
				return errors.Wrapf(err, "column %d", col.ID)
			}
			batch.Vec(i).AppendRaw(cell)
		} else if row.SearchInNullIDs(col.ID) {
			batch.Vec(i).AppendRaw([]byte{encoding.NilFlag})
		} else {
			return errors.Errorf("column %d missing from restored row data", col.ID)
		}
	}
	return nil
}

// appendCommonHandle cuts one encoded datum per handle column off the raw
// handle bytes.
func (e *indexScanImpl) appendCommonHandle(handle []byte, batch *coldata.Batch) error {
	for i := e.indexColCnt; i < len(e.columns); i++ {
		datum, rest, err := encoding.CutOne(handle)
		if err != nil {
			return errors.Wrapf(err, "cutting handle datum for column %d", i)
		}
		batch.Vec(i).AppendRaw(datum)
		handle = rest
	}
	return nil
}

// decodeHandleFromKey decodes the integer handle trailing the index datums
// in the key. Unlike a handle stored in the value, it is flag-prefixed and
// order-preserving encoded.
func decodeHandleFromKey(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, errors.Errorf("missing row handle in key")
	}
	switch flag := b[0]; flag {
	case encoding.IntFlag:
		_, v, err := encoding.DecodeCmpInt(b[1:])
		return v, err
	case encoding.UintFlag:
		_, u, err := encoding.DecodeCmpUint(b[1:])
		return int64(u), err
	default:
		return 0, errors.Errorf("unexpected handle flag %#x", flag)
	}
}
