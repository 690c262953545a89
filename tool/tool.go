// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package tool implements the firetree command line tools.
package tool

import (
	"github.com/cockroachdb/firetree/internal/base"
	"github.com/spf13/cobra"
)

// Options configures the tools.
type Options struct {
	// Logger receives progress messages from commands run with --verbose.
	Logger base.Logger
	// MaxDepth bounds the nesting of decoded trees. Zero selects the decoder
	// default.
	MaxDepth int
	// MaxDecodedSize bounds the uncompressed body of snapshot files. Zero
	// selects the snapfile default.
	MaxDecodedSize int
}

// EnsureDefaults ensures that the options are valid, filling in defaults for
// unset fields, and returns the receiver.
func (o *Options) EnsureDefaults() *Options {
	if o.Logger == nil {
		o.Logger = base.DefaultLogger{}
	}
	return o
}

// T is the container for all of the firetree tools.
type T struct {
	Commands []*cobra.Command
	opts     Options
	verbose  bool
}

// New creates a new set of firetree tools.
func New(opts Options) *T {
	t := &T{opts: *opts.EnsureDefaults()}
	t.Commands = []*cobra.Command{
		newBuild(t).Root,
		newPrint(t).Root,
		newConvert(t).Root,
		newStats(t).Root,
		newBench(t).Root,
	}
	for _, c := range t.Commands {
		c.Flags().BoolVarP(&t.verbose, "verbose", "v", false, "verbose output")
	}
	return t
}

func (t *T) logger() base.Logger {
	if t.verbose {
		return t.opts.Logger
	}
	return base.NoopLogger{}
}
