// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base defines fundamental types used across firetree, including
// branch identifiers, error classes and the logging interface.
//
// # Branch identifiers
//
// A [BranchID] names a position in a tree: either the implicit root, which
// carries no payload, or an ordinary node identified by its 0-based index in a
// tree's flat node array. The encoding stores index+1 so that the zero value
// is the root. A third, private value (uninit) is used by the decoder while a
// node's parent is not yet known; it never escapes a decode.
//
// Identifiers are only meaningful within the tree instance that issued them.
// Freezing a builder renumbers every node, so builder identifiers must not be
// used to index the resulting snapshot (see Snapshot.Origin for the mapping).
package base
