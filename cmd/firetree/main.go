// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"log"
	"os"

	"github.com/cockroachdb/firetree/internal/base"
	"github.com/cockroachdb/firetree/tool"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "firetree [command] (flags)",
	Short: "firetree tree building/introspection tool",
	Long:  ``,
}

func main() {
	log.SetFlags(0)

	cobra.EnableCommandSorting = false
	t := tool.New(tool.Options{Logger: base.DefaultLogger{}})
	rootCmd.AddCommand(t.Commands...)

	if err := rootCmd.Execute(); err != nil {
		// Cobra has already printed the error message.
		os.Exit(1)
	}
}
