// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package invariants

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeSub(t *testing.T) {
	require.Equal(t, 3, SafeSub(5, 2))
	require.Equal(t, uint64(0), SafeSub(uint64(7), uint64(7)))
	if Enabled {
		require.Panics(t, func() { SafeSub(1, 2) })
		require.Panics(t, func() { CheckBounds(3, 3) })
	} else {
		require.Equal(t, 0, SafeSub(1, 2))
		require.NotPanics(t, func() { CheckBounds(3, 3) })
	}
	require.NotPanics(t, func() { CheckBounds(2, 3) })
}
