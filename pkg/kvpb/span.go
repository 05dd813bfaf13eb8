// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

package kvpb

import "github.com/cockroachdb/redact"

// Span is a half-open key interval [Key, EndKey).
type Span struct {
	Key    Key
	EndKey Key
}

// Valid reports whether the span is non-empty and well ordered.
func (s Span) Valid() bool {
	return s.Key.Compare(s.EndKey) < 0
}

// IsPoint reports whether the span covers exactly one key, i.e. EndKey is
// the immediate successor of Key. Such spans are eligible for point lookups
// instead of range iteration.
func (s Span) IsPoint() bool {
	return s.EndKey.Equal(s.Key.PrefixEnd())
}

// ContainsKey reports whether k lies within the span.
func (s Span) ContainsKey(k Key) bool {
	return k.Compare(s.Key) >= 0 && k.Compare(s.EndKey) < 0
}

// Clone returns a deep copy of the span.
func (s Span) Clone() Span {
	return Span{Key: s.Key.Clone(), EndKey: s.EndKey.Clone()}
}

// String formats the span for debugging.
func (s Span) String() string {
	return redact.StringWithoutMarkers(s)
}

// SafeFormat implements redact.SafeFormatter.
func (s Span) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("{%v-%v}", s.Key, s.EndKey)
}

var _ redact.SafeFormatter = Span{}

// Spans is an ordered list of spans.
type Spans []Span
