// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package firetree

import (
	"slices"

	"github.com/cockroachdb/firetree/internal/base"
	"github.com/cockroachdb/firetree/internal/invariants"
)

// Freeze finishes building and returns the tree as a Snapshot. The Builder is
// consumed: any further use of it panics.
//
// Every node is renumbered. Siblings keep their relative insertion order and
// occupy a contiguous range of the snapshot; the root's children come first.
// Snapshot.Origin maps a snapshot node back to the BranchID it had in the
// Builder.
//
// Freeze allocates the whole snapshot up front and makes several passes over
// the nodes. It is meant for trees that are often discarded without being
// traversed; callers that always need traversal might prefer a structure with
// explicit child lists.
func (b *Builder[T]) Freeze() *Snapshot[T] {
	b.checkLive()
	b.frozen = true
	src := b.nodes
	b.nodes = nil

	s := &Snapshot[T]{}
	if len(src) == 0 {
		return s
	}

	nodes := make([]node[T], len(src))
	for i := range src {
		// parent still refers to pre-sort indexes at this point.
		nodes[i] = node[T]{parent: src[i].parent, payload: src[i].payload, origin: i}
	}
	clear(src)

	// Root sorts first, so the root's children end up at the front.
	slices.SortStableFunc(nodes, func(a, b node[T]) int {
		return base.Compare(a.parent, b.parent)
	})

	oldToNew := make([]int, len(nodes))
	for newIdx := range nodes {
		oldToNew[nodes[newIdx].origin] = newIdx
	}
	for i := range nodes {
		if old, ok := nodes[i].parent.Index(); ok {
			nodes[i].parent = base.MakeBranchID(oldToNew[old])
		}
	}

	// Every parent's children are now adjacent. Close a range each time the
	// parent changes.
	lastParent := Root
	lo := 0
	closeRange := func(end int) {
		if lastParent.IsRoot() {
			s.rootChildren = span{start: lo, end: end}
		} else {
			p, _ := lastParent.Index()
			nodes[p].children = span{start: lo, end: end}
		}
	}
	for i := range nodes {
		if p := nodes[i].parent; p != lastParent {
			closeRange(i)
			lastParent = p
			lo = i
		}
	}
	closeRange(len(nodes))

	s.nodes = nodes
	if invariants.Enabled {
		if err := s.checkLayout(); err != nil {
			panic(err)
		}
	}
	return s
}
