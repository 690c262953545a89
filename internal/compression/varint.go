// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package compression

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

// uvarintLen decodes the uvarint length prefix of a zstd block.
func uvarintLen(b []byte) (int, error) {
	n, varIntLen := binary.Uvarint(b)
	if varIntLen <= 0 || n > math.MaxInt32 {
		return 0, errors.Errorf("zstd: block has invalid length")
	}
	return int(n), nil
}
