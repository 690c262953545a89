// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package testutils holds helpers shared by firetree tests.
package testutils

import (
	"testing"

	"github.com/cockroachdb/firetree/internal/base"
)

// Logger is a base.Logger that writes to a testing.TB.
type Logger struct {
	T testing.TB
}

var _ base.Logger = Logger{}

// Infof implements base.Logger.
func (l Logger) Infof(format string, args ...interface{}) {
	l.T.Helper()
	l.T.Logf(format, args...)
}

// Fatalf implements base.Logger. It fails the test instead of exiting.
func (l Logger) Fatalf(format string, args ...interface{}) {
	l.T.Helper()
	l.T.Fatalf(format, args...)
}

// CheckErr panics if err is non-nil, and returns v otherwise. It shortens test
// code that expects no errors:
//
//	data := testutils.CheckErr(jsonrepr.Marshal(s))
func CheckErr[V any](v V, err error) V {
	if err != nil {
		panic(err)
	}
	return v
}
