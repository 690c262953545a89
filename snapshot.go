// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package firetree

import (
	"fmt"
	"iter"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/firetree/internal/base"
)

type node[T any] struct {
	parent   BranchID
	payload  T
	children span
	// origin is the node's index in the Builder it was frozen from. Decoded
	// nodes have origin -1.
	origin int
}

// Snapshot is an immutable tree produced by Builder.Freeze or by decoding. The
// shape of a Snapshot never changes, but payloads may be mutated through
// PayloadPtr.
//
// Nodes live in a single array. The children of every node, and of the root,
// occupy a contiguous range of that array, in the order they were inserted.
//
// The zero value is an empty tree.
type Snapshot[T any] struct {
	nodes        []node[T]
	rootChildren span
}

// Clear empties the tree while keeping its allocation for reuse.
func (s *Snapshot[T]) Clear() {
	clear(s.nodes)
	s.nodes = s.nodes[:0]
	s.rootChildren = span{}
}

// NodeCount returns the number of nodes in the tree, not counting the root.
func (s *Snapshot[T]) NodeCount() int {
	return len(s.nodes)
}

// Exists returns true if id is Root or a node of this Snapshot.
func (s *Snapshot[T]) Exists(id BranchID) bool {
	if id.IsRoot() {
		return true
	}
	i, ok := id.Index()
	return ok && i < len(s.nodes)
}

func (s *Snapshot[T]) node(id BranchID) *node[T] {
	i, ok := id.Index()
	if !ok || i >= len(s.nodes) {
		base.InvalidBranchPanic(id)
	}
	return &s.nodes[i]
}

// Root returns a reference to the root branch.
func (s *Snapshot[T]) Root() BranchRef[T] {
	return BranchRef[T]{id: Root, children: s.rootChildren}
}

// Branch returns a reference to the branch id. It panics if id does not exist.
func (s *Snapshot[T]) Branch(id BranchID) BranchRef[T] {
	if id.IsRoot() {
		return s.Root()
	}
	n := s.node(id)
	return BranchRef[T]{id: id, n: n, children: n.children}
}

// RootChildren returns the range of the root's children.
func (s *Snapshot[T]) RootChildren() Range {
	return s.rootChildren.toRange()
}

// Parent returns the parent of id. It returns ok=false if id is Root, and
// panics if id does not exist.
func (s *Snapshot[T]) Parent(id BranchID) (parent BranchID, ok bool) {
	return s.Branch(id).Parent()
}

// Payload returns the payload of id. It returns ok=false if id is Root, and
// panics if id does not exist.
func (s *Snapshot[T]) Payload(id BranchID) (payload T, ok bool) {
	return s.Branch(id).Payload()
}

// PayloadPtr returns a pointer to the payload of id, or nil if id is Root. It
// panics if id does not exist. The pointer stays valid for the lifetime of the
// Snapshot, or until it is cleared.
func (s *Snapshot[T]) PayloadPtr(id BranchID) *T {
	return s.Branch(id).PayloadPtr()
}

// Children returns the range of id's children. It panics if id does not exist.
func (s *Snapshot[T]) Children(id BranchID) Range {
	return s.Branch(id).Children()
}

// ChildCount returns the number of children of id. It panics if id does not
// exist.
func (s *Snapshot[T]) ChildCount(id BranchID) int {
	return s.Branch(id).ChildCount()
}

// NthChild returns the n-th child of id. It panics if id does not exist or if
// n is out of range.
func (s *Snapshot[T]) NthChild(id BranchID, n int) BranchID {
	return s.Branch(id).Child(n)
}

// Origin returns the BranchID that id had in the Builder the Snapshot was
// frozen from. It returns ok=false for Root and for decoded nodes.
func (s *Snapshot[T]) Origin(id BranchID) (origin BranchID, ok bool) {
	if id.IsRoot() {
		return Root, false
	}
	n := s.node(id)
	if n.origin < 0 {
		return Root, false
	}
	return base.MakeBranchID(n.origin), true
}

// String returns the tree rendered by PrintFormat("%v").
func (s *Snapshot[T]) String() string {
	return s.PrintFormat("%v").String()
}

// DebugString returns the flat layout of the tree: the root's child range
// followed by one line per node.
func (s *Snapshot[T]) DebugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "root: children=%s\n", s.RootChildren())
	for i := range s.nodes {
		n := &s.nodes[i]
		fmt.Fprintf(&buf, "%d: parent=%s children=%s", i, n.parent, n.children.toRange())
		if n.origin >= 0 {
			fmt.Fprintf(&buf, " origin=%d", n.origin)
		}
		fmt.Fprintf(&buf, " payload=%v\n", n.payload)
	}
	return buf.String()
}

// checkLayout verifies that the child ranges partition the node array and that
// parent pointers agree with them.
func (s *Snapshot[T]) checkLayout() error {
	owner := make([]int, len(s.nodes))
	for i := range owner {
		owner[i] = -2
	}
	claim := func(parent int, r span) error {
		if r.start > r.end || r.start < 0 || r.end > len(s.nodes) {
			return errors.AssertionFailedf("firetree: invalid child range [%d,%d) of %d", r.start, r.end, parent)
		}
		for c := r.start; c < r.end; c++ {
			if owner[c] != -2 {
				return errors.AssertionFailedf("firetree: node %d claimed by %d and %d", c, owner[c], parent)
			}
			owner[c] = parent
		}
		return nil
	}
	if err := claim(-1, s.rootChildren); err != nil {
		return err
	}
	for i := range s.nodes {
		if err := claim(i, s.nodes[i].children); err != nil {
			return err
		}
	}
	for i := range s.nodes {
		want := Root
		if owner[i] >= 0 {
			want = base.MakeBranchID(owner[i])
		} else if owner[i] == -2 {
			return errors.AssertionFailedf("firetree: node %d is nobody's child", i)
		}
		if s.nodes[i].parent != want {
			return errors.AssertionFailedf("firetree: node %d has parent %s, expected %s",
				i, s.nodes[i].parent, want)
		}
	}
	return nil
}

// BranchRef is a reference to the root or one node of a Snapshot. The zero
// value is not valid; obtain one through Snapshot.Root or Snapshot.Branch.
type BranchRef[T any] struct {
	id BranchID
	// n is nil for the root.
	n        *node[T]
	children span
}

// ID returns the BranchID of the branch.
func (r BranchRef[T]) ID() BranchID {
	return r.id
}

// IsRoot returns true if this is the root branch.
func (r BranchRef[T]) IsRoot() bool {
	return r.n == nil
}

// Parent returns the parent of the branch, or ok=false for the root.
func (r BranchRef[T]) Parent() (parent BranchID, ok bool) {
	if r.n == nil {
		return Root, false
	}
	return r.n.parent, true
}

// Payload returns the payload of the branch, or ok=false for the root.
func (r BranchRef[T]) Payload() (payload T, ok bool) {
	if r.n == nil {
		return payload, false
	}
	return r.n.payload, true
}

// PayloadPtr returns a pointer to the payload of the branch, or nil for the
// root.
func (r BranchRef[T]) PayloadPtr() *T {
	if r.n == nil {
		return nil
	}
	return &r.n.payload
}

// Children returns the range of the branch's children.
func (r BranchRef[T]) Children() Range {
	return r.children.toRange()
}

// ChildCount returns the number of children of the branch.
func (r BranchRef[T]) ChildCount() int {
	return r.children.len()
}

// Child returns the n-th child of the branch. It panics if n is out of range.
func (r BranchRef[T]) Child(n int) BranchID {
	return r.Children().Nth(n)
}

// ChildIDs returns an iterator over the children of the branch, in order.
func (r BranchRef[T]) ChildIDs() iter.Seq[BranchID] {
	return r.Children().All()
}
