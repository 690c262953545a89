// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package firetree

import "strconv"

// PayloadKey is the map key under which a node's payload is encoded.
const PayloadKey = "v"

// MapWriter is implemented by wire formats that can stream nested maps. Keys
// are always strings.
type MapWriter interface {
	// BeginMap opens a map which will hold the given number of entries.
	BeginMap(entries int) error
	// WriteKey writes the key of the next entry. It is followed either by
	// WriteValue or by a nested BeginMap.
	WriteKey(key string) error
	// WriteValue writes the value of the current entry.
	WriteValue(v any) error
	// EndMap closes the innermost open map.
	EndMap() error
}

// MapReader is implemented by wire formats that can stream nested maps.
type MapReader interface {
	// BeginMap consumes the start of a map. At the top level it reads the
	// first value of the stream; otherwise it reads the value of the current
	// entry. It returns an error marked ErrExpectedMap if the value is not a
	// map.
	BeginMap() error
	// NextKey advances to the next entry of the innermost open map and
	// returns its key. Once the map is exhausted it consumes the end of the
	// map and returns ok=false.
	NextKey() (key string, ok bool, err error)
	// DecodeValue decodes the value of the current entry into v, which must be
	// a pointer.
	DecodeValue(v any) error
}

// Encode writes s to w. Payloads are passed to MapWriter.WriteValue as is.
func Encode[T any](w MapWriter, s *Snapshot[T]) error {
	return EncodeWith(w, s, func(p *T) T { return *p })
}

// EncodeWith writes s to w, passing every payload through project first. It
// allows encoding payloads in a different representation than the one held
// in memory.
//
// The root is written as a map without a payload entry. Every other node is a
// map holding its projected payload under PayloadKey and its children under
// "0", "1", ... in order. EncodeWith does not recurse, so deep trees cannot
// exhaust the stack.
func EncodeWith[T, P any](w MapWriter, s *Snapshot[T], project func(*T) P) error {
	open := func(ref BranchRef[T]) error {
		entries := ref.ChildCount()
		payload := ref.PayloadPtr()
		if payload != nil {
			entries++
		}
		if err := w.BeginMap(entries); err != nil {
			return err
		}
		if payload != nil {
			if err := w.WriteKey(PayloadKey); err != nil {
				return err
			}
			if err := w.WriteValue(project(payload)); err != nil {
				return err
			}
		}
		return nil
	}

	type frame struct {
		ref  BranchRef[T]
		next int
	}
	root := s.Root()
	if err := open(root); err != nil {
		return err
	}
	stack := []frame{{ref: root}}
	var keyBuf []byte
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.next == f.ref.ChildCount() {
			if err := w.EndMap(); err != nil {
				return err
			}
			stack = stack[:len(stack)-1]
			continue
		}
		keyBuf = strconv.AppendInt(keyBuf[:0], int64(f.next), 10)
		if err := w.WriteKey(string(keyBuf)); err != nil {
			return err
		}
		child := s.Branch(f.ref.Child(f.next))
		f.next++
		if err := open(child); err != nil {
			return err
		}
		stack = append(stack, frame{ref: child})
	}
	return nil
}
