// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package treetext

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/crlib/crstrings"
	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/firetree"
	"github.com/stretchr/testify/require"
)

func TestTreeText(t *testing.T) {
	datadriven.RunTest(t, "testdata/treetext", func(t *testing.T, d *datadriven.TestData) string {
		order := InOrder
		for _, arg := range d.CmdArgs {
			switch arg.Key {
			case "order":
				var err error
				order, err = ParseOrder(arg.Vals[0])
				require.NoError(t, err)
			default:
				t.Fatalf("unknown argument: %s", arg.Key)
			}
		}

		switch d.Cmd {
		case "parse":
			nodes, err := Parse(d.Input)
			if err != nil {
				return fmt.Sprintf("error: %s", err)
			}
			var buf strings.Builder
			var dfs func(n *Node, depth int)
			dfs = func(n *Node, depth int) {
				fmt.Fprintf(&buf, "%s%s\n", strings.Repeat("  ", depth), n.Value())
				for i := range n.Children() {
					dfs(&n.Children()[i], depth+1)
				}
			}
			for i := range nodes {
				dfs(&nodes[i], 0)
			}
			return buf.String()

		case "build":
			b, err := ParseAndBuild(d.Input, order)
			if err != nil {
				return fmt.Sprintf("error: %s", err)
			}
			var buf strings.Builder
			for i := range b.NodeCount() {
				id := firetree.MakeBranchID(i)
				payload, _ := b.Payload(id)
				parent, _ := b.Parent(id)
				fmt.Fprintf(&buf, "%s: %s parent=%s\n", id, payload, parent)
			}
			return buf.String()

		case "freeze":
			b, err := ParseAndBuild(d.Input, order)
			if err != nil {
				return fmt.Sprintf("error: %s", err)
			}
			return b.Freeze().DebugString()

		default:
			t.Fatalf("unknown command: %s", d.Cmd)
			return ""
		}
	})
}

// TestOrdersAgreeOnShape checks that every insertion order yields the same
// tree once frozen, and that the returned BranchIDs follow the text.
func TestOrdersAgreeOnShape(t *testing.T) {
	const input = `
a
  a1
    a11
    a12
  a2
b
c
  c1
  c2
    c21
`
	nodes, err := Parse(input)
	require.NoError(t, err)
	var values []string
	for _, line := range crstrings.Lines(input) {
		if v := strings.TrimSpace(line); v != "" {
			values = append(values, v)
		}
	}
	var want string
	for o := InOrder; o <= Interleaved; o++ {
		t.Run(o.String(), func(t *testing.T) {
			b := firetree.NewBuilder[string]()
			ids := Build(b, nodes, o)
			require.Len(t, ids, len(values))
			for i, value := range values {
				got, ok := b.Payload(ids[i])
				require.True(t, ok)
				require.Equal(t, value, got)
			}
			s := b.Freeze().String()
			if want == "" {
				want = s
			}
			require.Equal(t, want, s)
		})
	}
	require.Equal(t, `$:
--a:
----a1:
------a11:
------a12:
----a2:
--b:
--c:
----c1:
----c2:
------c21:
`, want)
}
