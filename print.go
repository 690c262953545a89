// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package firetree

import (
	"fmt"
	"io"
	"strings"
)

// PrintFunc renders one branch of a tree. payload is nil for the root, and
// depth is 0 for the root, 1 for its children and so on.
type PrintFunc[T any] func(w io.Writer, payload *T, depth int) error

// Printer renders a Snapshot in a human-readable form. Branches are visited
// depth-first, each one before its children, children in order.
type Printer[T any] struct {
	s  *Snapshot[T]
	fn PrintFunc[T]
}

// Print returns a Printer which renders every branch with fn.
func (s *Snapshot[T]) Print(fn PrintFunc[T]) Printer[T] {
	return Printer[T]{s: s, fn: fn}
}

// PrintFormat returns a Printer which renders each branch on its own line as
// its payload formatted with verb, indented by two dashes per level and
// followed by a colon. The root is printed as "$:".
//
//	$:
//	--0:
//	----1:
//	--2:
func (s *Snapshot[T]) PrintFormat(verb string) Printer[T] {
	return s.Print(func(w io.Writer, payload *T, depth int) error {
		var err error
		if payload == nil {
			_, err = fmt.Fprintf(w, "%s$:\n", strings.Repeat("--", depth))
		} else {
			_, err = fmt.Fprintf(w, "%s"+verb+":\n", strings.Repeat("--", depth), *payload)
		}
		return err
	})
}

// Snapshot returns the Snapshot rendered by p.
func (p Printer[T]) Snapshot() *Snapshot[T] {
	return p.s
}

// WriteTo implements io.WriterTo.
func (p Printer[T]) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	type item struct {
		id    BranchID
		depth int
	}
	stack := []item{{id: Root}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ref := p.s.Branch(it.id)
		if err := p.fn(cw, ref.PayloadPtr(), it.depth); err != nil {
			return cw.n, err
		}
		// Push in reverse so the first child is visited first.
		children := ref.Children()
		for i := children.Len() - 1; i >= 0; i-- {
			stack = append(stack, item{id: children.Nth(i), depth: it.depth + 1})
		}
	}
	return cw.n, nil
}

// String implements fmt.Stringer.
func (p Printer[T]) String() string {
	var buf strings.Builder
	if _, err := p.WriteTo(&buf); err != nil {
		fmt.Fprintf(&buf, "<error: %v>", err)
	}
	return buf.String()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
