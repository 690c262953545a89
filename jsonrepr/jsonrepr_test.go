// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package jsonrepr

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/firetree"
	"github.com/cockroachdb/firetree/internal/base"
	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.BeginMap(2))
	require.NoError(t, w.WriteKey("0"))
	require.NoError(t, w.BeginMap(1))
	require.NoError(t, w.WriteKey("v"))
	require.NoError(t, w.WriteValue([]int{1, 2}))
	require.NoError(t, w.EndMap())
	// Nothing is flushed until the outermost object is closed.
	require.Zero(t, buf.Len())
	require.NoError(t, w.WriteKey(`"1"`))
	require.NoError(t, w.BeginMap(0))
	require.NoError(t, w.EndMap())
	require.NoError(t, w.EndMap())
	require.Equal(t, `{"0":{"v":[1,2]},"\"1\"":{}}`, buf.String())

	require.True(t, errors.IsAssertionFailure(w.EndMap()))
	require.True(t, errors.IsAssertionFailure(w.WriteKey("0")))
	require.Error(t, w.WriteValue(func() {}))
}

func TestReader(t *testing.T) {
	r := NewReader(strings.NewReader(`{"a": {"v": [1, "x"]}, "b": 7}`))
	require.NoError(t, r.BeginMap())

	key, ok, err := r.NextKey()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", key)
	require.NoError(t, r.BeginMap())
	key, ok, err = r.NextKey()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", key)
	var v []any
	require.NoError(t, r.DecodeValue(&v))
	require.Equal(t, []any{1.0, "x"}, v)
	_, ok, err = r.NextKey()
	require.NoError(t, err)
	require.False(t, ok)

	key, ok, err = r.NextKey()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "b", key)
	err = r.BeginMap()
	require.True(t, errors.Is(err, base.ErrExpectedMap), "%+v", err)
	require.True(t, errors.Is(err, base.ErrFormat), "%+v", err)
	require.False(t, errors.Is(err, base.ErrUnknownKey))
	require.EqualError(t, err, "found 7: firetree: expected a map")
}

func TestReaderErrors(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  string
	}{
		{input: ``, want: "jsonrepr: unexpected EOF"},
		{input: `{"0":`, want: `field "0": jsonrepr: unexpected EOF`},
		{input: `{"0" 1}`, want: `field "0": jsonrepr: invalid character '1' after object key`},
		{input: `{"0":{"v":{"x":1}}}`, want: `decoding field "v": jsonrepr: json: cannot unmarshal object into Go value of type int`},
		{input: `{"0":{"v":1}} junk`, want: `data after the tree: jsonrepr: invalid character 'j' looking for beginning of value`},
		{input: `{"0":{"v":1}}{}`, want: `jsonrepr: data after the tree: found {`},
		{input: `{} 1`, want: `jsonrepr: data after the tree: found 1`},
	} {
		t.Run(tc.input, func(t *testing.T) {
			_, err := Unmarshal[int]([]byte(tc.input))
			require.EqualError(t, err, tc.want)
			require.True(t, errors.Is(err, base.ErrFormat), "%+v", err)
		})
	}
}

func TestEnd(t *testing.T) {
	// Trailing white space is allowed.
	s, err := Unmarshal[int]([]byte("{\"0\":{\"v\":1}} \n\t"))
	require.NoError(t, err)
	require.Equal(t, 1, s.NodeCount())

	// A stream may hold several trees, read in turn from the same Reader.
	r := NewReader(strings.NewReader(`{"0":{"v":1}} {}`))
	d := firetree.NewDecodeStorage[int](firetree.DecodeOptions{})
	require.NoError(t, d.Decode(r))
	require.Equal(t, 1, d.Snapshot.NodeCount())
	require.NoError(t, d.Decode(r))
	require.Equal(t, 0, d.Snapshot.NodeCount())
	require.NoError(t, r.End())
}

func TestJSONC(t *testing.T) {
	s, err := firetree.Decode[string](NewReaderJSONC([]byte(`
// leading comment
{
  "0": {"v": "a", /* inline */ "0": {"v": "b"},},
}`)))
	require.NoError(t, err)
	require.Equal(t, "$:\n--a:\n----b:\n", s.String())
}

func TestMarshal(t *testing.T) {
	b := firetree.NewBuilder[int]()
	one := b.Insert(firetree.Root, 1)
	b.Insert(firetree.Root, 2)
	b.Insert(one, 3)
	data, err := Marshal(b.Freeze())
	require.NoError(t, err)
	require.Equal(t, `{"0":{"v":1,"0":{"v":3}},"1":{"v":2}}`, string(data))

	s, err := Unmarshal[int](data)
	require.NoError(t, err)
	require.Equal(t, "$:\n--1:\n----3:\n--2:\n", s.String())
}
