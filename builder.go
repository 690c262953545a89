// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package firetree

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/firetree/internal/base"
)

type builderNode[T any] struct {
	parent  BranchID
	payload T
}

// Builder is an in-progress tree. Nodes can be inserted under the root or
// under any node inserted earlier, in any order. A Builder cannot be
// traversed; call Freeze to obtain a Snapshot.
//
// Each node carries one payload of type T. The root never carries a payload.
//
// The zero value is an empty Builder ready to use. A Builder must not be
// mutated concurrently.
type Builder[T any] struct {
	nodes  []builderNode[T]
	frozen bool
}

// NewBuilder returns an empty Builder.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{}
}

// Grow ensures there is space for another n nodes without reallocating.
func (b *Builder[T]) Grow(n int) {
	b.checkLive()
	b.nodes = slices.Grow(b.nodes, n)
}

func (b *Builder[T]) checkLive() {
	if b.frozen {
		panic(errors.Mark(errors.AssertionFailedf("firetree: builder used after Freeze"), base.ErrInvalidBranch))
	}
}

// NodeCount returns the number of nodes in the tree, not counting the root.
func (b *Builder[T]) NodeCount() int {
	b.checkLive()
	return len(b.nodes)
}

// Exists returns true if id is Root or a node of this Builder. IDs handed out
// by a Builder remain valid until it is frozen.
func (b *Builder[T]) Exists(id BranchID) bool {
	b.checkLive()
	if id.IsRoot() {
		return true
	}
	i, ok := id.Index()
	return ok && i < len(b.nodes)
}

func (b *Builder[T]) node(id BranchID) *builderNode[T] {
	i, ok := id.Index()
	if !ok || i >= len(b.nodes) {
		base.InvalidBranchPanic(id)
	}
	return &b.nodes[i]
}

// Parent returns the parent of id. It returns ok=false if id is Root, and
// panics if id does not exist.
func (b *Builder[T]) Parent(id BranchID) (parent BranchID, ok bool) {
	b.checkLive()
	if id.IsRoot() {
		return Root, false
	}
	return b.node(id).parent, true
}

// Payload returns the payload of id. It returns ok=false if id is Root, and
// panics if id does not exist.
func (b *Builder[T]) Payload(id BranchID) (payload T, ok bool) {
	b.checkLive()
	if id.IsRoot() {
		return payload, false
	}
	return b.node(id).payload, true
}

// PayloadPtr returns a pointer to the payload of id, or nil if id is Root. It
// panics if id does not exist. The pointer is only valid until the next call
// to Insert.
func (b *Builder[T]) PayloadPtr(id BranchID) *T {
	b.checkLive()
	if id.IsRoot() {
		return nil
	}
	return &b.node(id).payload
}

// Insert appends a new node under parent and returns its BranchID. parent
// must be Root or a BranchID previously returned by this Builder; Insert
// panics otherwise rather than attaching the node somewhere else.
//
// IDs are handed out in strictly increasing order starting at 0.
func (b *Builder[T]) Insert(parent BranchID, payload T) BranchID {
	if !b.Exists(parent) {
		base.InvalidBranchPanic(parent)
	}
	id := b.NextID()
	b.nodes = append(b.nodes, builderNode[T]{parent: parent, payload: payload})
	return id
}

// NextID returns the BranchID the next call to Insert will return. It is
// never Root.
func (b *Builder[T]) NextID() BranchID {
	b.checkLive()
	return base.MakeBranchID(len(b.nodes))
}
