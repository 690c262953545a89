// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"

	"github.com/spf13/cobra"
)

// convertT implements the convert command.
type convertT struct {
	Root *cobra.Command

	t           *T
	inputFormat fileFormat
	write       writeOptions
}

func newConvert(t *T) *convertT {
	c := &convertT{t: t}
	c.Root = &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "convert a tree between formats",
		Long: `
Read the tree stored in the input file and write it to the output file. The
formats are implied by the file extensions (.txt, .json, .jsonc, .cbor, .ftree)
unless given by --input-format and --format.
`,
		Args: cobra.ExactArgs(2),
		Run:  c.run,
	}
	c.Root.Flags().Var(&c.inputFormat, "input-format", "input format (text, json, jsonc, cbor, snap)")
	c.Root.Flags().Var(&c.write.format, "format", "output format (text, json, jsonc, cbor, snap)")
	c.Root.Flags().Var(&c.write.wire, "wire", "wire format of snap files (json, cbor)")
	c.Root.Flags().Var(&c.write.compression, "compression", "compression of snap files (none, snappy, minlz, zstd)")
	return c
}

func (c *convertT) run(cmd *cobra.Command, args []string) {
	in, out := args[0], args[1]
	inFormat, err := formatOf(in, c.inputFormat, "input-format")
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
		return
	}
	opts := c.write
	if opts.format, err = formatOf(out, opts.format, "format"); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
		return
	}
	s, err := c.t.readTree(in, inFormat)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
		return
	}
	if err := c.t.writeFile(out, s, &opts); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
		return
	}
	fmt.Fprintf(stdout, "converted %d nodes from %s to %s\n",
		s.NodeCount(), &inFormat, &opts.format)
}
