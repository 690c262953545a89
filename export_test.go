// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package firetree

// CheckLayout exports checkLayout for external tests.
func CheckLayout[T any](s *Snapshot[T]) error {
	return s.checkLayout()
}
