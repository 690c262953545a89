// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"cmp"
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// RootValue is the raw value reported by BranchID.Value for the root.
const RootValue uint64 = math.MaxUint64

// UninitValue is the raw value reported by BranchID.Value for the transient
// marker used while decoding.
const UninitValue uint64 = math.MaxUint64 - 1

// MaxIndex is the largest node index a BranchID can hold. Larger indexes
// would collide with the reserved raw values.
const MaxIndex = math.MaxUint64 - 2

// BranchID identifies either the root of a tree or one of its nodes. The zero
// value is the root.
type BranchID struct {
	// v is the node index plus one. Zero is the root and math.MaxUint64 is the
	// decoder's uninit marker.
	v uint64
}

// Root is the BranchID of the implicit root of every tree.
var Root = BranchID{}

// Uninit is the placeholder parent of a decoded node whose parent has not
// been written yet.
var Uninit = BranchID{v: math.MaxUint64}

// MakeBranchID returns the BranchID of the node at the given index.
func MakeBranchID(index int) BranchID {
	if index < 0 || uint64(index) > MaxIndex {
		panic(errors.Mark(errors.AssertionFailedf("branch index %d out of range", index), ErrInvalidBranch))
	}
	return BranchID{v: uint64(index) + 1}
}

// IsRoot returns true if b is the root.
func (b BranchID) IsRoot() bool {
	return b.v == 0
}

// IsUninit returns true if b is the decoder's placeholder parent.
func (b BranchID) IsUninit() bool {
	return b.v == math.MaxUint64
}

// Index returns the node index of b. It returns ok=false for the root and the
// uninit marker.
func (b BranchID) Index() (index int, ok bool) {
	if b.v == 0 || b.v == math.MaxUint64 {
		return 0, false
	}
	return int(b.v - 1), true
}

// Value returns the raw integer behind b: the node index for ordinary nodes,
// RootValue for the root and UninitValue for the uninit marker.
func (b BranchID) Value() uint64 {
	// Wraps to RootValue for the root and UninitValue for the uninit marker.
	return b.v - 1
}

// Compare orders the root before every node and nodes by index.
func Compare(a, b BranchID) int {
	return cmp.Compare(a.v, b.v)
}

// String implements fmt.Stringer.
func (b BranchID) String() string {
	switch {
	case b.IsRoot():
		return "<root>"
	case b.IsUninit():
		return "<uninit>"
	default:
		return strconv.FormatUint(b.v-1, 10)
	}
}

// SafeFormat implements redact.SafeFormatter.
func (b BranchID) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(b.String()))
}
