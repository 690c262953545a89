// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"

	"github.com/spf13/cobra"
)

// printT implements the print command.
type printT struct {
	Root *cobra.Command

	t      *T
	format fileFormat
	layout bool
}

func newPrint(t *T) *printT {
	p := &printT{t: t}
	p.Root = &cobra.Command{
		Use:   "print <files>",
		Short: "print trees",
		Long: `
Print the trees stored in the given files, one branch per line. With --layout
the node table of each tree is printed instead, including parent and child
ranges.
`,
		Args: cobra.MinimumNArgs(1),
		Run:  p.run,
	}
	p.Root.Flags().Var(&p.format, "input-format", "input format (text, json, jsonc, cbor, snap)")
	p.Root.Flags().BoolVar(&p.layout, "layout", false, "print the node table")
	return p
}

func (p *printT) run(cmd *cobra.Command, args []string) {
	for _, arg := range args {
		format, err := formatOf(arg, p.format, "input-format")
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
			continue
		}
		s, err := p.t.readTree(arg, format)
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
			continue
		}
		if len(args) > 1 {
			fmt.Fprintf(stdout, "%s\n", arg)
		}
		if p.layout {
			fmt.Fprint(stdout, s.DebugString())
			continue
		}
		if _, err := s.PrintFormat("%s").WriteTo(stdout); err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}
}
