// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package firetree provides a tree which is built quickly and then frozen into
// an immutable, traversable form in one go.
//
//   - A [Builder] is the mutable form. Inserting a node is an append; nodes may
//     be attached anywhere in the tree at any time, but children cannot be
//     enumerated.
//   - [Builder.Freeze] consumes the builder and produces a [Snapshot]. It groups
//     nodes by parent so that every node's children occupy a contiguous range
//     of the snapshot's node array, in insertion order.
//   - A [Snapshot] is the immutable form. Its shape never changes, but payloads
//     remain mutable through [Snapshot.PayloadPtr].
//
// Snapshots are encoded as nested maps. Every node is a map holding its
// payload under "v" and its children under the keys "0", "1", ..., in order:
//
//	{"0": {"v": 0, "0": {"v": 1}}, "1": {"v": 2}}
//
// The implicit root never has a payload. Wire formats plug in through the
// [MapWriter] and [MapReader] interfaces; see the jsonrepr and cborrepr
// packages. [DecodeStorage] decodes without recursion and reuses its buffers
// across decodes.
//
// Neither form is safe for concurrent mutation. Callers sharing a Builder
// across goroutines must serialize their calls.
package firetree
