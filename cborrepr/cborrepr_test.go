// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package cborrepr

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/firetree"
	"github.com/cockroachdb/firetree/internal/base"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	b := firetree.NewBuilder[int]()
	b.Insert(firetree.Root, 1)
	data, err := Marshal(b.Freeze())
	require.NoError(t, err)
	// {_ "0": {_ "v": 1}}
	require.Equal(t, []byte{0xbf, 0x61, '0', 0xbf, 0x61, 'v', 0x01, 0xff, 0xff}, data)

	w := NewWriter(&bytes.Buffer{})
	require.True(t, errors.IsAssertionFailure(w.EndMap()))
}

func TestRoundTrip(t *testing.T) {
	b := firetree.NewBuilder[any]()
	a := b.Insert(firetree.Root, map[string]any{"k": 1})
	b.Insert(a, "leaf")
	b.Insert(firetree.Root, []any{true, -2})
	data, err := Marshal(b.Freeze())
	require.NoError(t, err)

	s, err := Unmarshal[any](data)
	require.NoError(t, err)
	require.Equal(t, 2, s.RootChildren().Len())
	p, _ := s.Payload(s.Root().Child(0))
	require.Equal(t, map[string]any{"k": uint64(1)}, p)
	p, _ = s.Payload(s.Root().Child(1))
	require.Equal(t, []any{true, int64(-2)}, p)
	p, _ = s.Payload(s.Branch(s.Root().Child(0)).Child(0))
	require.Equal(t, "leaf", p)
}

func TestReaderErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input []byte
		is    error
		want  string
	}{
		{
			name:  "empty",
			input: nil,
			is:    base.ErrFormat,
			want:  "cborrepr: unexpected EOF",
		},
		{
			name:  "truncated",
			input: []byte{0xa1, 0x61},
			is:    base.ErrFormat,
			want:  "cborrepr: unexpected EOF",
		},
		{
			name:  "integer",
			input: []byte{0x01},
			is:    base.ErrExpectedMap,
			want:  "found integer: firetree: expected a map",
		},
		{
			name:  "array child",
			input: []byte{0xa1, 0x61, '0', 0x80},
			is:    base.ErrExpectedMap,
			want:  `field "0": found array: firetree: expected a map`,
		},
		{
			name:  "integer key",
			input: []byte{0xa1, 0x01, 0x02},
			is:    base.ErrUnknownKey,
			want:  "found integer key: firetree: unknown key",
		},
		{
			// {"0": {"v": 1, "v": 2}}
			name:  "duplicate payload",
			input: []byte{0xa1, 0x61, '0', 0xa2, 0x61, 'v', 0x01, 0x61, 'v', 0x02},
			is:    base.ErrDuplicateField,
			want:  `field "v": firetree: duplicate field`,
		},
		{
			// {"0": {"v": 1}, "0": {"v": 2}}
			name:  "duplicate child",
			input: []byte{0xa2, 0x61, '0', 0xa1, 0x61, 'v', 0x01, 0x61, '0', 0xa1, 0x61, 'v', 0x02},
			is:    base.ErrDuplicateField,
			want:  `field "0": firetree: duplicate field`,
		},
		{
			name:  "trailing item",
			input: []byte{0xa0, 0x01},
			is:    base.ErrFormat,
			want:  "cborrepr: data after the tree",
		},
		{
			name:  "trailing partial item",
			input: []byte{0xa0, 0x18},
			is:    base.ErrFormat,
			want:  "data after the tree: cborrepr: unexpected EOF",
		},
		{
			// {"0": {"v": {1: 2, 1: 3}}}
			name:  "duplicate key in payload",
			input: []byte{0xa1, 0x61, '0', 0xa1, 0x61, 'v', 0xa2, 0x01, 0x02, 0x01, 0x03},
			is:    base.ErrDuplicateField,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Unmarshal[any](tc.input)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.is), "%+v", err)
			require.True(t, errors.Is(err, base.ErrFormat), "%+v", err)
			if tc.want != "" {
				require.EqualError(t, err, tc.want)
			}
		})
	}
}

// TestReaderMixedLengths reads maps and keys of both definite and indefinite
// length.
func TestReaderMixedLengths(t *testing.T) {
	data := []byte{
		0xa2, // map(2)
		0x7f, 0x61, '1', 0xff, // (_ "1")
		0xbf, 0x61, 'v', 0x63, 'b', 'a', 'r', 0xff, // {_ "v": "bar"}
		0x61, '0', // "0"
		0xa2, 0x61, 'v', 0x63, 'f', 'o', 'o', // {"v": "foo",
		0x61, '0', 0xa1, 0x61, 'v', 0x60, // "0": {"v": ""}}
	}
	s, err := Unmarshal[string](data)
	require.NoError(t, err)
	require.Equal(t, "$:\n--foo:\n----:\n--bar:\n", s.String())
}

// TestReaderSkipsUnreadValues walks a tree without decoding any value, so
// every value is skipped over.
func TestReaderSkipsUnreadValues(t *testing.T) {
	tree := map[string]any{
		"0": map[string]any{
			"v": map[string]any{"k": []any{1, "x", []byte{1, 2}, map[string]any{"a": nil}}},
			"0": map[string]any{"v": 1.5},
		},
		"1": map[string]any{"v": cbor.Tag{Number: 100, Content: []any{true}}},
	}
	data, err := encMode.Marshal(tree)
	require.NoError(t, err)
	r := NewReader(bytes.NewReader(data))
	require.NoError(t, r.BeginMap())
	var keys []string
	for {
		key, ok, err := r.NextKey()
		require.NoError(t, err)
		if !ok {
			break
		}
		keys = append(keys, key)
	}
	require.ElementsMatch(t, []string{"0", "1"}, keys)
	require.Equal(t, len(data), r.off)

	// Indefinite-length items are skipped too.
	data = []byte{0xbf, 0x61, 'x', 0x9f, 0x5f, 0x41, 0x01, 0xff, 0x80, 0xff, 0x61, 'y', 0x01, 0xff}
	r = NewReader(bytes.NewReader(data))
	require.NoError(t, r.BeginMap())
	keys = keys[:0]
	for {
		key, ok, err := r.NextKey()
		require.NoError(t, err)
		if !ok {
			break
		}
		keys = append(keys, key)
	}
	require.Equal(t, []string{"x", "y"}, keys)
	require.Equal(t, len(data), r.off)
}

func TestSkip(t *testing.T) {
	for _, v := range []any{
		0, 23, 24, 1 << 40, -1, "", "text", []byte{1, 2, 3}, []any{}, []any{1, []any{2}},
		map[string]any{"a": map[string]any{"b": nil}}, 1.5, float32(2), true, nil,
		cbor.Tag{Number: 100, Content: cbor.Tag{Number: 101, Content: "x"}},
	} {
		data, err := encMode.Marshal(v)
		require.NoError(t, err)
		end, _, err := skip(append(data, 0x00), 0, nil)
		require.NoError(t, err)
		require.Equal(t, len(data), end, "%v", v)

		if len(data) > 1 {
			_, _, err = skip(data[:len(data)-1], 0, nil)
			require.True(t, errors.Is(err, base.ErrFormat), "%v", v)
		}
	}
	_, _, err := skip([]byte{0xff}, 0, nil)
	require.True(t, errors.Is(err, base.ErrFormat))
	_, _, err = skip([]byte{0x1c}, 0, nil)
	require.True(t, errors.Is(err, base.ErrFormat))
}

// TestDeepChainLinear checks that decoding a chain costs time proportional to
// its depth.
func TestDeepChainLinear(t *testing.T) {
	encodeChain := func(depth int) []byte {
		b := firetree.NewBuilder[int]()
		id := firetree.Root
		for i := range depth {
			id = b.Insert(id, i)
		}
		data, err := Marshal(b.Freeze())
		require.NoError(t, err)
		return data
	}
	d := firetree.NewDecodeStorage[int](firetree.DecodeOptions{})
	timeDecode := func(data []byte) time.Duration {
		best := time.Duration(math.MaxInt64)
		for range 3 {
			start := time.Now()
			require.NoError(t, d.Decode(NewReader(bytes.NewReader(data))))
			best = min(best, time.Since(start))
		}
		return best
	}

	const depth = 4000
	small, large := encodeChain(depth), encodeChain(4*depth)
	timeDecode(small)
	tSmall, tLarge := timeDecode(small), timeDecode(large)
	require.Equal(t, 4*depth, d.Snapshot.NodeCount())
	t.Logf("depth %d: %s, depth %d: %s", depth, tSmall, 4*depth, tLarge)
	// Quadratic decoding would take 16 times as long; allow for noise.
	require.Less(t, tLarge, 10*max(tSmall, time.Millisecond))
}

func TestDecodeStorageReuse(t *testing.T) {
	d := firetree.NewDecodeStorage[string](firetree.DecodeOptions{})
	for _, tree := range []map[string]any{
		{"0": map[string]any{"v": "a", "0": map[string]any{"v": "b"}}},
		{},
		{"1": map[string]any{"v": "y"}, "0": map[string]any{"v": "x"}},
	} {
		data, err := encMode.Marshal(tree)
		require.NoError(t, err)
		require.NoError(t, d.Decode(NewReader(bytes.NewReader(data))))
	}
	require.Equal(t, "$:\n--x:\n--y:\n", d.Snapshot.String())
}
