// Copyright 2025 The Copra Authors.
//
// Use of this software is governed by the Apache License, Version 2.0
// included in the /LICENSE file.

// Package types describes the column types the scan executors can produce.
package types

import "fmt"

// Family groups types by their physical representation.
type Family int8

const (
	// IntFamily covers 64-bit signed and unsigned integers.
	IntFamily Family = iota
	// FloatFamily covers 64-bit IEEE floats.
	FloatFamily
	// BytesFamily covers strings and raw byte columns.
	BytesFamily
)

// T is a column type.
type T struct {
	Family Family
	// Unsigned applies to IntFamily only and selects the unsigned key
	// encoding and handle interpretation.
	Unsigned bool
}

// Int returns the signed integer type.
func Int() T { return T{Family: IntFamily} }

// Uint returns the unsigned integer type.
func Uint() T { return T{Family: IntFamily, Unsigned: true} }

// Float returns the float type.
func Float() T { return T{Family: FloatFamily} }

// Bytes returns the byte-string type.
func Bytes() T { return T{Family: BytesFamily} }

func (t T) String() string {
	switch t.Family {
	case IntFamily:
		if t.Unsigned {
			return "uint"
		}
		return "int"
	case FloatFamily:
		return "float"
	case BytesFamily:
		return "bytes"
	default:
		return fmt.Sprintf("unknown(%d)", t.Family)
	}
}
