// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"os"

	"github.com/cockroachdb/firetree/internal/treetext"
	"github.com/spf13/cobra"
)

// buildT implements the build command.
type buildT struct {
	Root *cobra.Command

	t      *T
	output string
	order  orderFlag
	write  writeOptions
}

func newBuild(t *T) *buildT {
	b := &buildT{t: t}
	b.Root = &cobra.Command{
		Use:   "build <text-file>",
		Short: "build a tree from indented text",
		Long: `
Build a tree from a file of indented text, one node per line, and write it in
the format given by --format or implied by the extension of the output file.
Without --output the tree is printed as JSON to stdout.

Nodes are inserted into the builder in the order given by --order, which
determines the branch ids assigned before the tree is frozen. The frozen tree
is the same for every order.
`,
		Args: cobra.ExactArgs(1),
		Run:  b.run,
	}
	b.Root.Flags().StringVarP(&b.output, "output", "o", "", "output file")
	b.Root.Flags().Var(&b.order, "order", "insertion order (in-order, breadth-first, interleaved)")
	b.Root.Flags().Var(&b.write.format, "format", "output format (text, json, jsonc, cbor, snap)")
	b.Root.Flags().Var(&b.write.wire, "wire", "wire format of snap files (json, cbor)")
	b.Root.Flags().Var(&b.write.compression, "compression", "compression of snap files (none, snappy, minlz, zstd)")
	return b
}

func (b *buildT) run(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
		return
	}
	builder, err := treetext.ParseAndBuild(string(data), b.order.o)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %s\n", args[0], err)
		osExit(1)
		return
	}
	b.t.logger().Infof("%s: inserted %d nodes %s", args[0], builder.NodeCount(), b.order.o)
	s := builder.Freeze()

	opts := b.write
	if b.output == "" {
		if opts.format == formatUnknown {
			opts.format = formatJSON
		}
		if err := b.t.writeTree(stdout, s, &opts); err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
			osExit(1)
		}
		return
	}
	if opts.format, err = formatOf(b.output, opts.format, "format"); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
		return
	}
	if err := b.t.writeFile(b.output, s, &opts); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
		return
	}
	fmt.Fprintf(stdout, "wrote %d nodes to %s\n", s.NodeCount(), b.output)
}
