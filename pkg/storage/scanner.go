// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

package storage

import (
	"github.com/cockroachdb/errors"

	"github.com/copra-db/copra/pkg/kvpb"
)

// RangesScannerConfig configures a RangesScanner.
type RangesScannerConfig struct {
	Storage Storage

	// Ranges are scanned in order. Within each range pairs come back in key
	// order, descending when Backward is set. The ranges themselves are not
	// reordered.
	Ranges   []kvpb.Span
	Backward bool
	KeyOnly  bool

	// PointOptimize turns single-key ranges into point lookups instead of
	// scans. Only safe when the caller knows each such range holds at most
	// one pair.
	PointOptimize bool

	// TrackScannedRange enables TakeScannedRange bookkeeping.
	TrackScannedRange bool
}

// RangesScanner drives a Storage across multiple key ranges, presenting
// them as one continuous stream of pairs.
type RangesScanner struct {
	cfg RangesScannerConfig

	rangeIdx int
	inRange  bool
	current  kvpb.Span

	rowCounts []int64

	// Scanned-range tracking. workingBegin is where the not-yet-taken
	// covered range starts; workingEnd is how far scanning has progressed.
	// For backward scans begin is the high end and end the low end.
	workingBegin kvpb.Key
	workingEnd   kvpb.Key
}

// NewRangesScanner returns a scanner over cfg.Ranges.
func NewRangesScanner(cfg RangesScannerConfig) *RangesScanner {
	return &RangesScanner{cfg: cfg}
}

// Next returns the next pair across all ranges. ScanDone means every range
// is exhausted. ScanWouldBlock means the current position is not ready;
// calling Next again resumes exactly where it left off.
func (s *RangesScanner) Next() (kvpb.KeyValue, ScanState, error) {
	for {
		if !s.inRange {
			if s.rangeIdx >= len(s.cfg.Ranges) {
				return kvpb.KeyValue{}, ScanDone, nil
			}
			r := s.cfg.Ranges[s.rangeIdx]
			if s.cfg.PointOptimize && r.IsPoint() {
				value, state, err := s.cfg.Storage.Get(s.cfg.KeyOnly, r.Key)
				if err != nil {
					return kvpb.KeyValue{}, ScanDone, errors.Wrap(err, "point lookup")
				}
				if state == ScanWouldBlock {
					return kvpb.KeyValue{}, ScanWouldBlock, nil
				}
				s.startRange(r)
				s.rangeIdx++
				s.finishRange(r)
				if state == ScanDone {
					continue
				}
				s.rowCounts[len(s.rowCounts)-1]++
				return kvpb.KeyValue{Key: r.Key.Clone(), Value: value}, ScanOK, nil
			}
			if err := s.cfg.Storage.BeginScan(s.cfg.Backward, s.cfg.KeyOnly, r); err != nil {
				return kvpb.KeyValue{}, ScanDone, errors.Wrap(err, "begin scan")
			}
			s.inRange = true
			s.current = r
			s.startRange(r)
		}

		kv, state, err := s.cfg.Storage.ScanNext()
		if err != nil {
			return kvpb.KeyValue{}, ScanDone, err
		}
		switch state {
		case ScanWouldBlock:
			return kvpb.KeyValue{}, ScanWouldBlock, nil
		case ScanDone:
			s.inRange = false
			s.rangeIdx++
			s.finishRange(s.current)
			continue
		}
		s.rowCounts[len(s.rowCounts)-1]++
		if s.cfg.TrackScannedRange {
			if s.cfg.Backward {
				s.workingEnd = kv.Key.Clone()
			} else {
				s.workingEnd = append(kv.Key.Clone(), 0)
			}
		}
		return kv, ScanOK, nil
	}
}

// startRange opens the per-range row counter and, on the very first range,
// pins the start of the covered-range tracking.
func (s *RangesScanner) startRange(r kvpb.Span) {
	s.rowCounts = append(s.rowCounts, 0)
	if s.cfg.TrackScannedRange && s.workingBegin == nil {
		if s.cfg.Backward {
			s.workingBegin = r.EndKey.Clone()
		} else {
			s.workingBegin = r.Key.Clone()
		}
	}
}

func (s *RangesScanner) finishRange(r kvpb.Span) {
	if !s.cfg.TrackScannedRange {
		return
	}
	if s.cfg.Backward {
		s.workingEnd = r.Key.Clone()
	} else {
		s.workingEnd = r.EndKey.Clone()
	}
}

// CollectScannedRows appends the per-range row counts accumulated since the
// last call to dst and resets them. The range in progress, if any, keeps a
// fresh zero counter.
func (s *RangesScanner) CollectScannedRows(dst []int64) []int64 {
	dst = append(dst, s.rowCounts...)
	s.rowCounts = s.rowCounts[:0]
	if s.inRange {
		s.rowCounts = append(s.rowCounts, 0)
	}
	return dst
}

// TakeScannedRange returns the key range covered since the previous call.
// Consecutive calls return adjacent, non-overlapping spans whose union is
// everything covered so far. Requires TrackScannedRange.
func (s *RangesScanner) TakeScannedRange() kvpb.Span {
	var r kvpb.Span
	if s.workingBegin == nil {
		return r
	}
	if s.workingEnd == nil {
		s.workingEnd = s.workingBegin.Clone()
	}
	if s.cfg.Backward {
		r.Key = s.workingEnd.Clone()
		r.EndKey = s.workingBegin
	} else {
		r.Key = s.workingBegin
		r.EndKey = s.workingEnd.Clone()
	}
	s.workingBegin = s.workingEnd.Clone()
	return r
}
