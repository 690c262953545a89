// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package firetree

// DecodeOptions configures a DecodeStorage.
type DecodeOptions struct {
	// MaxDepth bounds how deeply nodes may be nested below the root. A child
	// of the root is at depth 1. Zero means no limit. Trees nested deeper
	// fail to decode with ErrTooDeep.
	MaxDepth int
}

// EnsureDefaults ensures that the options are valid, filling in defaults for
// unset fields, and returns the receiver.
func (o *DecodeOptions) EnsureDefaults() *DecodeOptions {
	if o.MaxDepth < 0 {
		o.MaxDepth = 0
	}
	return o
}
