// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

package storage

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"

	"github.com/copra-db/copra/pkg/kvpb"
)

// PebbleStore adapts a pebble database to the Storage interface. The
// database is owned by the caller; Close releases only the scan iterator.
type PebbleStore struct {
	db   *pebble.DB
	iter *pebble.Iterator

	positioned bool
	backward   bool
	keyOnly    bool

	stats Stats
}

var _ Storage = (*PebbleStore)(nil)

// NewPebbleStore wraps db.
func NewPebbleStore(db *pebble.DB) *PebbleStore {
	return &PebbleStore{db: db}
}

// BeginScan implements Storage.
func (p *PebbleStore) BeginScan(backward, keyOnly bool, span kvpb.Span) error {
	if !span.Valid() {
		return errors.Errorf("invalid scan span %s", span)
	}
	if err := p.closeIter(); err != nil {
		return err
	}
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: span.Key,
		UpperBound: span.EndKey,
	})
	if err != nil {
		return errors.Wrap(err, "creating iterator")
	}
	p.iter = iter
	p.positioned = false
	p.backward = backward
	p.keyOnly = keyOnly
	return nil
}

// ScanNext implements Storage. The returned slices are owned by the
// iterator and are valid only until the next call.
func (p *PebbleStore) ScanNext() (kvpb.KeyValue, ScanState, error) {
	if p.iter == nil {
		return kvpb.KeyValue{}, ScanDone, errors.AssertionFailedf("ScanNext without an active scan")
	}
	var valid bool
	switch {
	case !p.positioned && p.backward:
		valid = p.iter.Last()
	case !p.positioned:
		valid = p.iter.First()
	case p.backward:
		valid = p.iter.Prev()
	default:
		valid = p.iter.Next()
	}
	p.positioned = true
	if !valid {
		err := p.iter.Error()
		if cerr := p.closeIter(); err == nil {
			err = cerr
		}
		return kvpb.KeyValue{}, ScanDone, err
	}
	kv := kvpb.KeyValue{Key: p.iter.Key()}
	if !p.keyOnly {
		kv.Value = p.iter.Value()
	}
	p.stats.ProcessedKeys++
	p.stats.ProcessedBytes += int64(len(p.iter.Key()) + len(p.iter.Value()))
	return kv, ScanOK, nil
}

// Get implements Storage.
func (p *PebbleStore) Get(keyOnly bool, key kvpb.Key) ([]byte, ScanState, error) {
	value, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ScanDone, nil
	}
	if err != nil {
		return nil, ScanDone, err
	}
	p.stats.ProcessedKeys++
	p.stats.ProcessedBytes += int64(len(key) + len(value))
	var out []byte
	if !keyOnly {
		out = append([]byte(nil), value...)
	}
	if err := closer.Close(); err != nil {
		return nil, ScanDone, err
	}
	return out, ScanOK, nil
}

// MetUncacheableData implements Storage. Pebble reads a stable local
// snapshot, so everything is cacheable.
func (p *PebbleStore) MetUncacheableData() (met, known bool) {
	return false, true
}

// CollectStatistics implements Storage.
func (p *PebbleStore) CollectStatistics(dst *Stats) {
	dst.MergeFrom(p.stats)
	p.stats = Stats{}
}

// Close releases the active iterator, if any.
func (p *PebbleStore) Close() error {
	return p.closeIter()
}

func (p *PebbleStore) closeIter() error {
	if p.iter == nil {
		return nil
	}
	err := p.iter.Close()
	p.iter = nil
	return err
}
