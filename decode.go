// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package firetree

import (
	"cmp"
	"math"
	"slices"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/firetree/internal/base"
	"github.com/cockroachdb/firetree/internal/invariants"
)

// PayloadDecodeFunc decodes the payload held by the current entry of r,
// typically by calling r.DecodeValue.
type PayloadDecodeFunc[T any] func(r MapReader) (T, error)

// DecodePayload is the default PayloadDecodeFunc. It decodes the payload with
// MapReader.DecodeValue.
func DecodePayload[T any](r MapReader) (T, error) {
	var v T
	err := r.DecodeValue(&v)
	return v, err
}

// pendingEntry is a decoded child whose parent map has not ended yet. Its own
// children have already been flushed to the snapshot.
type pendingEntry[T any] struct {
	index    int
	payload  T
	children span
}

// decodeFrame is a map being decoded. Its children accumulate in
// DecodeStorage.entries from start onward.
type decodeFrame[T any] struct {
	start int
	// index is the child key under which the map appears in its parent, or -1
	// for the root.
	index      int
	payload    T
	hasPayload bool
}

// DecodeStorage holds the buffers needed to decode a Snapshot. A single
// DecodeStorage can decode many trees in turn, reusing its allocations,
// including those of Snapshot.
//
// Decoding does not recurse: the frame stack stands in for the call stack, so
// the depth of a tree is bounded by memory rather than by the goroutine stack
// (and by Options.MaxDepth, if set).
//
// A DecodeStorage must not be used by concurrent decodes.
type DecodeStorage[T any] struct {
	// Snapshot receives the decoded tree. It is cleared, without
	// deallocating, at the start of every decode. Callers may read or mutate
	// it between decodes, or move it out with Take.
	//
	// After a failed decode its contents are unspecified.
	Snapshot Snapshot[T]
	// Options configures decoding.
	Options DecodeOptions

	entries []pendingEntry[T]
	frames  []decodeFrame[T]
}

// NewDecodeStorage returns an empty DecodeStorage with the given options.
func NewDecodeStorage[T any](opts DecodeOptions) *DecodeStorage[T] {
	d := &DecodeStorage[T]{Options: opts}
	d.Options.EnsureDefaults()
	return d
}

// Decode decodes a Snapshot from r into d.Snapshot, decoding payloads with
// MapReader.DecodeValue.
func Decode[T any](r MapReader) (*Snapshot[T], error) {
	var d DecodeStorage[T]
	if err := d.Decode(r); err != nil {
		return nil, err
	}
	return d.Take(), nil
}

// Take moves the decoded Snapshot out of d, leaving d.Snapshot empty. The next
// decode allocates a new node array.
func (d *DecodeStorage[T]) Take() *Snapshot[T] {
	s := d.Snapshot
	d.Snapshot = Snapshot[T]{}
	return &s
}

// Decode decodes a Snapshot from r into d.Snapshot, decoding payloads with
// MapReader.DecodeValue.
func (d *DecodeStorage[T]) Decode(r MapReader) error {
	return d.DecodeWith(r, DecodePayload[T])
}

// DecodeWith decodes a Snapshot from r into d.Snapshot, decoding payloads with
// fn.
//
// The root map must not hold a payload and every other map must hold exactly
// one. The child keys of every map must be exactly "0" through "n-1", in any
// order. Violations are reported as errors marked with ErrFormat.
func (d *DecodeStorage[T]) DecodeWith(r MapReader, fn PayloadDecodeFunc[T]) error {
	d.reset()
	if err := r.BeginMap(); err != nil {
		return err
	}
	d.frames = append(d.frames, decodeFrame[T]{index: -1})
	for len(d.frames) > 0 {
		key, ok, err := r.NextKey()
		if err != nil {
			return err
		}
		if !ok {
			if err := d.finishMap(); err != nil {
				return err
			}
			continue
		}

		f := &d.frames[len(d.frames)-1]
		if key == PayloadKey {
			if len(d.frames) == 1 {
				return base.WrapFormatErrorf(base.ErrPayloadOnRoot, "field %q", key)
			}
			if f.hasPayload {
				return base.WrapFormatErrorf(base.ErrDuplicateField, "field %q", key)
			}
			payload, err := fn(r)
			if err != nil {
				return errors.Wrapf(err, "decoding field %q", key)
			}
			f.payload, f.hasPayload = payload, true
			continue
		}

		index, err := parseChildKey(key)
		if err != nil {
			return err
		}
		if limit := d.Options.MaxDepth; limit > 0 && len(d.frames) > limit {
			return base.WrapFormatErrorf(base.ErrTooDeep, "more than %d levels", limit)
		}
		if err := r.BeginMap(); err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		d.frames = append(d.frames, decodeFrame[T]{start: len(d.entries), index: index})
	}

	if invariants.Enabled {
		if err := d.Snapshot.checkLayout(); err != nil {
			panic(err)
		}
	}
	return nil
}

func (d *DecodeStorage[T]) reset() {
	d.Snapshot.Clear()
	clear(d.entries)
	d.entries = d.entries[:0]
	clear(d.frames)
	d.frames = d.frames[:0]
}

// parseChildKey parses a decimal child index.
func parseChildKey(key string) (int, error) {
	v, err := strconv.ParseUint(key, 10, 64)
	if err != nil || v > math.MaxInt {
		return 0, base.WrapFormatErrorf(base.ErrUnknownKey,
			"%q is neither %q nor a child index", key, PayloadKey)
	}
	return int(v), nil
}

// finishMap completes the innermost frame once its map has ended. The frame's
// children are validated, sorted by key and appended to the snapshot, which
// fixes their own children's parent pointers. The frame then becomes a pending
// entry of its parent, or, for the root, sets the root's child range.
func (d *DecodeStorage[T]) finishMap() error {
	top := len(d.frames) - 1
	f := d.frames[top]
	d.frames[top] = decodeFrame[T]{}
	d.frames = d.frames[:top]
	isRoot := top == 0

	if !isRoot && !f.hasPayload {
		return base.WrapFormatErrorf(base.ErrMissingField, "field %q", PayloadKey)
	}

	block := d.entries[f.start:]
	slices.SortFunc(block, func(a, b pendingEntry[T]) int {
		return cmp.Compare(a.index, b.index)
	})
	for i := range block {
		switch {
		case block[i].index < i:
			return base.WrapFormatErrorf(base.ErrDuplicateField, "field %q", strconv.Itoa(block[i].index))
		case block[i].index > i:
			return base.WrapFormatErrorf(base.ErrMissingField, "field %q", strconv.Itoa(i))
		}
	}

	parent := base.Uninit
	if isRoot {
		parent = Root
	}
	lo := len(d.Snapshot.nodes)
	for i := range block {
		e := &block[i]
		id := base.MakeBranchID(len(d.Snapshot.nodes))
		for c := e.children.start; c < e.children.end; c++ {
			invariants.CheckBounds(c, len(d.Snapshot.nodes))
			d.Snapshot.nodes[c].parent = id
		}
		d.Snapshot.nodes = append(d.Snapshot.nodes, node[T]{
			parent:   parent,
			payload:  e.payload,
			children: e.children,
			origin:   -1,
		})
	}
	hi := len(d.Snapshot.nodes)
	clear(block)
	d.entries = d.entries[:f.start]

	if isRoot {
		d.Snapshot.rootChildren = span{start: lo, end: hi}
		return nil
	}
	d.entries = append(d.entries, pendingEntry[T]{
		index:    f.index,
		payload:  f.payload,
		children: span{start: lo, end: hi},
	})
	return nil
}
