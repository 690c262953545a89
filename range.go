// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package firetree

import (
	"fmt"
	"iter"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/firetree/internal/base"
	"github.com/cockroachdb/firetree/internal/invariants"
)

// Range is a half-open range [Start, End) of sibling BranchIDs within a
// Snapshot.
type Range struct {
	Start, End BranchID
}

// span is the internal form of a Range.
type span struct {
	start, end int
}

func (s span) len() int {
	return invariants.SafeSub(s.end, s.start)
}

func (s span) toRange() Range {
	return Range{Start: base.MakeBranchID(s.start), End: base.MakeBranchID(s.end)}
}

func (r Range) bounds() (start, end int) {
	start, ok1 := r.Start.Index()
	end, ok2 := r.End.Index()
	if !ok1 || !ok2 || end < start {
		panic(errors.Mark(errors.AssertionFailedf("invalid child range %s", r), base.ErrInvalidBranch))
	}
	return start, end
}

// Len returns the number of BranchIDs in the range.
func (r Range) Len() int {
	start, end := r.bounds()
	return end - start
}

// Contains returns true if id lies within the range.
func (r Range) Contains(id BranchID) bool {
	start, end := r.bounds()
	i, ok := id.Index()
	return ok && start <= i && i < end
}

// Nth returns the n-th BranchID of the range. It panics if n is outside
// [0, Len()).
func (r Range) Nth(n int) BranchID {
	start, end := r.bounds()
	if n < 0 {
		panic(errors.Mark(errors.AssertionFailedf("negative child index %d", n), base.ErrInvalidBranch))
	}
	target := start + n
	if target < start {
		panic(errors.Mark(errors.AssertionFailedf(
			"the given child #%d, when added to the child index start %d, overflows", n, start),
			base.ErrInvalidBranch))
	}
	if target >= end {
		panic(errors.Mark(errors.AssertionFailedf(
			"there are only %d children, but tried to access #%d", end-start, n),
			base.ErrInvalidBranch))
	}
	return base.MakeBranchID(target)
}

// All returns an iterator over the BranchIDs of the range, in order.
func (r Range) All() iter.Seq[BranchID] {
	start, end := r.bounds()
	return func(yield func(BranchID) bool) {
		for i := start; i < end; i++ {
			if !yield(base.MakeBranchID(i)) {
				return
			}
		}
	}
}

// String implements fmt.Stringer.
func (r Range) String() string {
	return fmt.Sprintf("[%s,%s)", r.Start, r.End)
}
