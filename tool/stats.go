// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/cockroachdb/firetree"
	"github.com/cockroachdb/swiss"
	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// statsT implements the stats command.
type statsT struct {
	Root *cobra.Command

	t      *T
	format fileFormat
	top    int
	plot   int
}

func newStats(t *T) *statsT {
	s := &statsT{t: t}
	s.Root = &cobra.Command{
		Use:   "stats <files>",
		Short: "print tree statistics",
		Long: `
Print statistics about the trees stored in the given files: their size and
shape, the number of nodes at each depth and the most frequent payloads.
`,
		Args: cobra.MinimumNArgs(1),
		Run:  s.run,
	}
	s.Root.Flags().Var(&s.format, "input-format", "input format (text, json, jsonc, cbor, snap)")
	s.Root.Flags().IntVar(&s.top, "top", 5, "number of most frequent payloads to print")
	s.Root.Flags().IntVar(&s.plot, "plot", 0, "height of the plot of nodes per depth (0 disables it)")
	return s
}

// treeStats describes the shape of a tree.
type treeStats struct {
	nodes     int
	leaves    int
	maxFanout int
	// perDepth[i] is the number of nodes at depth i+1.
	perDepth []int
	payloads []payloadCount
	distinct int
}

type payloadCount struct {
	payload string
	count   int
}

// computeStats walks s breadth-first. Node order in a Snapshot does not
// follow depth for decoded trees, so depths are found from the root down.
func computeStats(s *firetree.Snapshot[string]) treeStats {
	st := treeStats{nodes: s.NodeCount(), maxFanout: s.RootChildren().Len()}

	var counts swiss.Map[string, int]
	counts.Init(16)
	// order lists the payloads in the order they were first seen.
	var order []string

	var level, next []firetree.BranchID
	level = slices.AppendSeq(level, s.RootChildren().All())
	for len(level) > 0 {
		st.perDepth = append(st.perDepth, len(level))
		next = next[:0]
		for _, id := range level {
			children := s.Children(id)
			if children.Len() == 0 {
				st.leaves++
			}
			st.maxFanout = max(st.maxFanout, children.Len())
			next = slices.AppendSeq(next, children.All())

			payload, _ := s.Payload(id)
			n, ok := counts.Get(payload)
			if !ok {
				order = append(order, payload)
			}
			counts.Put(payload, n+1)
		}
		level, next = next, level
	}

	st.distinct = counts.Len()
	st.payloads = make([]payloadCount, 0, len(order))
	for _, p := range order {
		n, _ := counts.Get(p)
		st.payloads = append(st.payloads, payloadCount{payload: p, count: n})
	}
	slices.SortStableFunc(st.payloads, func(a, b payloadCount) int {
		return cmp.Compare(b.count, a.count)
	})
	return st
}

func (s *statsT) run(cmd *cobra.Command, args []string) {
	for _, arg := range args {
		if err := s.runFile(stdout, arg); err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}
}

func (s *statsT) runFile(w io.Writer, path string) error {
	format, err := formatOf(path, s.format, "input-format")
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tree, err := s.t.readTree(path, format)
	if err != nil {
		return err
	}
	st := computeStats(tree)

	fmt.Fprintf(w, "%s\n", path)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"stat", "value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.Append([]string{"format", format.String()})
	table.Append([]string{"file size", string(crhumanize.Bytes(info.Size(), crhumanize.Compact, crhumanize.OmitI))})
	table.Append([]string{"nodes", strconv.Itoa(st.nodes)})
	table.Append([]string{"leaves", strconv.Itoa(st.leaves)})
	table.Append([]string{"depth", strconv.Itoa(len(st.perDepth))})
	table.Append([]string{"max fanout", strconv.Itoa(st.maxFanout)})
	table.Append([]string{"distinct payloads", strconv.Itoa(st.distinct)})
	table.Render()

	if len(st.perDepth) > 0 {
		table = tablewriter.NewWriter(w)
		table.SetHeader([]string{"depth", "nodes", "share"})
		table.SetAlignment(tablewriter.ALIGN_RIGHT)
		for i, n := range st.perDepth {
			table.Append([]string{
				strconv.Itoa(i + 1), strconv.Itoa(n), string(crhumanize.Percent(n, st.nodes)),
			})
		}
		table.Render()
	}

	if s.plot > 0 && len(st.perDepth) > 1 {
		values := make([]float64, len(st.perDepth))
		for i, n := range st.perDepth {
			values[i] = float64(n)
		}
		fmt.Fprintf(w, "nodes per depth:\n%s\n", asciigraph.Plot(values, asciigraph.Height(s.plot)))
	}

	if s.top > 0 && len(st.payloads) > 0 {
		table = tablewriter.NewWriter(w)
		table.SetHeader([]string{"payload", "count"})
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, pc := range st.payloads[:min(s.top, len(st.payloads))] {
			table.Append([]string{strconv.Quote(pc.payload), strconv.Itoa(pc.count)})
		}
		table.Render()
	}
	return nil
}
