// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package firetree

import "github.com/cockroachdb/firetree/internal/base"

// BranchID exports the base.BranchID type.
type BranchID = base.BranchID

// Root is the BranchID of the implicit root of every tree. It is the zero
// value of BranchID.
var Root = base.Root

// RootValue is the raw value reported by BranchID.Value for Root.
const RootValue = base.RootValue

// MakeBranchID returns the BranchID of the node at the given index. It panics
// if index is negative.
func MakeBranchID(index int) BranchID {
	return base.MakeBranchID(index)
}

// CompareBranchIDs orders Root before every node and nodes by index.
func CompareBranchIDs(a, b BranchID) int {
	return base.Compare(a, b)
}

// ErrInvalidBranch marks panics caused by using a BranchID that does not
// exist in the tree it was passed to, or by using a Builder after Freeze.
var ErrInvalidBranch = base.ErrInvalidBranch

// ErrFormat is the class of every error returned for malformed encoded trees.
var ErrFormat = base.ErrFormat

// Format error kinds returned by DecodeStorage. An error of one of these kinds
// satisfies errors.Is for its kind and for ErrFormat, but not for the other
// kinds.
var (
	ErrUnknownKey     = base.ErrUnknownKey
	ErrDuplicateField = base.ErrDuplicateField
	ErrMissingField   = base.ErrMissingField
	ErrPayloadOnRoot  = base.ErrPayloadOnRoot
	ErrExpectedMap    = base.ErrExpectedMap
	ErrTooDeep        = base.ErrTooDeep
)
