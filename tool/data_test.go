// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/firetree/internal/testutils"
	"github.com/spf13/cobra"
)

// runTests runs the datadriven tests in the files matching path. Each test
// runs a tool command; its arguments are the command arguments followed by
// the words of the input. "$TMP" stands for a directory shared by the tests of
// a file.
func runTests(t *testing.T, path string) {
	paths, err := filepath.Glob(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			dir := t.TempDir()
			datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
				args := []string{d.Cmd}
				for _, arg := range d.CmdArgs {
					args = append(args, arg.String())
				}
				args = append(args, strings.Fields(d.Input)...)
				for i := range args {
					args[i] = strings.ReplaceAll(args[i], "$TMP", dir)
				}

				var buf bytes.Buffer
				stdout = &buf
				stderr = &buf
				osExit = func(int) {}

				defer func() {
					stdout = os.Stdout
					stderr = os.Stderr
					osExit = os.Exit
				}()

				c := &cobra.Command{}
				c.AddCommand(New(Options{Logger: testutils.Logger{T: t}}).Commands...)
				c.SetArgs(args)
				c.SetOutput(&buf)
				if err := c.Execute(); err != nil {
					return err.Error()
				}
				return strings.ReplaceAll(buf.String(), dir, "$TMP")
			})
		})
	}
}

func TestTool(t *testing.T) {
	runTests(t, "testdata/firetree")
}
