// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "github.com/cockroachdb/errors"

// ErrInvalidBranch marks panics caused by a BranchID that does not name a
// node of the tree it was used with.
var ErrInvalidBranch = errors.New("firetree: invalid branch")

// ErrFormat is the class of every error caused by malformed encoded trees.
// Use errors.Is(err, ErrFormat) to test for it.
var ErrFormat = errors.New("firetree: malformed encoded tree")

// MarkFormatError marks the given error as a format error.
func MarkFormatError(err error) error {
	return errors.Mark(err, ErrFormat)
}

// FormatErrorf formats an error and marks it as a format error.
func FormatErrorf(format string, args ...interface{}) error {
	return MarkFormatError(errors.Newf(format, args...))
}

// WrapFormatErrorf wraps one of the format error kinds below with the
// offending key or index and marks the result as a format error.
func WrapFormatErrorf(kind error, format string, args ...interface{}) error {
	return MarkFormatError(errors.Wrapf(kind, format, args...))
}

// Format error kinds. The kinds are distinct from each other and from
// ErrFormat; decoders report them through WrapFormatErrorf so that the
// resulting errors match both their kind and ErrFormat.
var (
	ErrUnknownKey     = errors.New("firetree: unknown key")
	ErrDuplicateField = errors.New("firetree: duplicate field")
	ErrMissingField   = errors.New("firetree: missing field")
	ErrPayloadOnRoot  = errors.New("firetree: payload specified in root")
	ErrExpectedMap    = errors.New("firetree: expected a map")
	ErrTooDeep        = errors.New("firetree: tree nesting too deep")
)

// InvalidBranchPanic panics with an assertion failure stating that id does not
// name a branch.
func InvalidBranchPanic(id BranchID) {
	panic(errors.Mark(
		errors.AssertionFailedf("given %s does not point to any branch", id), ErrInvalidBranch))
}
