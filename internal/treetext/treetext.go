// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package treetext parses trees written as indented text and inserts them
// into a firetree.Builder; see Parse and Build.
package treetext

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/firetree"
)

// Parse a multi-line input string into trees of nodes. For example:
//
//	a
//	 a1
//	  a11
//	 a2
//	b
//	 b1
//
// is parsed into two Nodes (a and b). Node a has two children (a1, a2), and a1
// has one child (a11); node b has one child (b1).
//
// The indentation is arbitrary but it must be consistent across nodes: every
// distinct indentation width is one level of depth. For example, the following
// is not valid because b1 is at the third level:
//
//	a
//	 a1
//	b
//	  b1
//
// Tabs cannot be used for indentation. Lines whose first non-space character
// is '#' are comments and are skipped, as are blank lines.
func Parse(input string) ([]Node, error) {
	type line struct {
		num    int
		indent int
		value  string
	}
	var lines []line
	for i, l := range strings.Split(input, "\n") {
		trimmed := strings.TrimLeft(l, " ")
		switch {
		case strings.TrimSpace(trimmed) == "", trimmed[0] == '#':
			continue
		case trimmed[0] == '\t':
			return nil, errors.Errorf("treetext: line %d: tab indentation", i+1)
		}
		lines = append(lines, line{num: i + 1, indent: len(l) - len(trimmed), value: strings.TrimRight(trimmed, " \t")})
	}
	if len(lines) == 0 {
		return nil, errors.Errorf("treetext: empty input")
	}

	levels := make([]int, len(lines))
	for i := range lines {
		levels[i] = lines[i].indent
	}
	slices.Sort(levels)
	levels = slices.Compact(levels)

	// stack[d] is the node under which nodes at depth d are added; stack[0] is
	// a synthetic root.
	root := &Node{}
	stack := []*Node{root}
	for _, l := range lines {
		depth, _ := slices.BinarySearch(levels, l.indent)
		if depth >= len(stack) {
			return nil, errors.Errorf("treetext: line %d: inconsistent indentation", l.num)
		}
		stack = stack[:depth+1]
		parent := stack[depth]
		parent.children = append(parent.children, Node{value: l.value})
		stack = append(stack, &parent.children[len(parent.children)-1])
	}
	return root.children, nil
}

// Node in a hierarchy returned by Parse.
type Node struct {
	value    string
	children []Node
}

// Value returns the contents of the line for this node (without the
// indentation).
func (n *Node) Value() string {
	return n.value
}

// Children returns the child nodes, if any.
func (n *Node) Children() []Node {
	return n.children
}

// Order is the order in which Build inserts nodes. Every order inserts a node
// after its parent and keeps siblings in text order; they differ in how
// subtrees are interleaved, which determines the BranchIDs assigned by the
// Builder.
type Order int

const (
	// InOrder inserts nodes in pre-order, so that insertion order matches the
	// text.
	InOrder Order = iota
	// BreadthFirst inserts all nodes of one depth before the next.
	BreadthFirst
	// Interleaved inserts the top-level subtrees round-robin, one node of each
	// in turn, each subtree in pre-order.
	Interleaved
)

var orderNames = [...]string{
	InOrder:      "in-order",
	BreadthFirst: "breadth-first",
	Interleaved:  "interleaved",
}

// String implements fmt.Stringer.
func (o Order) String() string {
	if o < 0 || int(o) >= len(orderNames) {
		return "unknown"
	}
	return orderNames[o]
}

// ParseOrder returns the Order with the given name.
func ParseOrder(s string) (Order, error) {
	for o, name := range orderNames {
		if s == name {
			return Order(o), nil
		}
	}
	return 0, errors.Errorf("treetext: unknown order %q", s)
}

// flatNode is a node in pre-order along with the pre-order index of its
// parent (-1 for top-level nodes) and of its top-level ancestor.
type flatNode struct {
	value   string
	parent  int
	depth   int
	subtree int
}

func flatten(nodes []Node) []flatNode {
	var out []flatNode
	type frame struct {
		n      *Node
		parent int
		depth  int
	}
	var stack []frame
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, frame{n: &nodes[i], parent: -1})
	}
	subtree := -1
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.parent == -1 {
			subtree++
		}
		idx := len(out)
		out = append(out, flatNode{value: f.n.value, parent: f.parent, depth: f.depth, subtree: subtree})
		for i := len(f.n.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{n: &f.n.children[i], parent: idx, depth: f.depth + 1})
		}
	}
	return out
}

// insertionOrder returns the pre-order indexes of flat in the order they are
// to be inserted.
func insertionOrder(flat []flatNode, order Order) []int {
	perm := make([]int, len(flat))
	for i := range perm {
		perm[i] = i
	}
	switch order {
	case BreadthFirst:
		slices.SortStableFunc(perm, func(a, b int) int {
			return flat[a].depth - flat[b].depth
		})
	case Interleaved:
		// Rank each node by its position within its subtree; ties go to the
		// earlier subtree.
		rank := make([]int, len(flat))
		var seen []int
		for i := range flat {
			s := flat[i].subtree
			if s == len(seen) {
				seen = append(seen, 0)
			}
			rank[i] = seen[s]
			seen[s]++
		}
		slices.SortStableFunc(perm, func(a, b int) int {
			return rank[a] - rank[b]
		})
	}
	return perm
}

// Build inserts the given trees under the root of b in the given order. It
// returns the BranchIDs assigned to the nodes, listed in pre-order (the order
// of the lines in the text).
func Build(b *firetree.Builder[string], nodes []Node, order Order) []firetree.BranchID {
	flat := flatten(nodes)
	ids := make([]firetree.BranchID, len(flat))
	b.Grow(len(flat))
	for _, i := range insertionOrder(flat, order) {
		parent := firetree.Root
		if p := flat[i].parent; p >= 0 {
			parent = ids[p]
		}
		ids[i] = b.Insert(parent, flat[i].value)
	}
	return ids
}

// ParseAndBuild parses input and returns a Builder holding its trees, inserted
// in the given order.
func ParseAndBuild(input string, order Order) (*firetree.Builder[string], error) {
	nodes, err := Parse(input)
	if err != nil {
		return nil, err
	}
	b := firetree.NewBuilder[string]()
	Build(b, nodes, order)
	return b, nil
}
