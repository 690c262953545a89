// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/crlib/testutils/leaktest"
	"github.com/cockroachdb/firetree"
	"github.com/cockroachdb/firetree/internal/testutils"
	"github.com/cockroachdb/firetree/internal/treetext"
	"github.com/cockroachdb/firetree/jsonrepr"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestComputeStats(t *testing.T) {
	b, err := treetext.ParseAndBuild(`
a
  x
  x
    y
b
  x
`, treetext.BreadthFirst)
	require.NoError(t, err)
	st := computeStats(b.Freeze())
	require.Equal(t, 6, st.nodes)
	require.Equal(t, 3, st.leaves)
	require.Equal(t, 2, st.maxFanout)
	require.Equal(t, []int{2, 3, 1}, st.perDepth)
	require.Equal(t, 4, st.distinct)
	require.Equal(t, []payloadCount{
		{payload: "x", count: 3},
		{payload: "a", count: 1},
		{payload: "b", count: 1},
		{payload: "y", count: 1},
	}, st.payloads)
}

func TestComputeStatsEmpty(t *testing.T) {
	st := computeStats(New(Options{}).newDecodeStorage().Take())
	require.Equal(t, treeStats{payloads: []payloadCount{}}, st)
}

func TestStats(t *testing.T) {
	s := newStats(New(Options{Logger: testutils.Logger{T: t}}))
	s.plot = 4
	s.top = 2
	var buf bytes.Buffer
	require.NoError(t, s.runFile(&buf, "testdata/fruit.txt"))
	out := buf.String()
	t.Log(out)

	require.True(t, strings.HasPrefix(out, "testdata/fruit.txt\n"))
	for _, want := range []string{"text", "nodes", "leaves", "max fanout", "nodes per depth:", `"fruit"`, `"vegetables"`} {
		require.Contains(t, out, want)
	}
	// Only the two most frequent payloads are listed.
	require.NotContains(t, out, `"apple"`)

	require.Error(t, s.runFile(&buf, "testdata/missing.txt"))
	require.Error(t, s.runFile(&buf, "testdata/fruit.dat"))
}

func TestBench(t *testing.T) {
	defer leaktest.AfterTest(t)()

	for _, format := range []fileFormat{formatJSON, formatCBOR, formatSnap} {
		t.Run(format.String(), func(t *testing.T) {
			b := newBench(New(Options{Logger: testutils.Logger{T: t}}))
			b.nodes = 200
			b.iterations = 3
			b.workers = 2
			b.seed = 1
			b.write.format = format
			require.NoError(t, b.Root.ParseFlags([]string{"--compression=minlz", "--verbose"}))

			var buf bytes.Buffer
			require.NoError(t, b.runBench(context.Background(), &buf))
			out := buf.String()
			t.Log(out)
			require.Contains(t, out, "trees of")
			for _, op := range benchOps {
				require.Contains(t, out, op)
			}
		})
	}
}

func TestBenchInvalid(t *testing.T) {
	b := newBench(New(Options{}))
	b.write.format = formatText
	require.ErrorContains(t, b.runBench(context.Background(), &bytes.Buffer{}), "unsupported format")

	b.write.format = formatCBOR
	b.workers = 0
	require.ErrorContains(t, b.runBench(context.Background(), &bytes.Buffer{}), "must be positive")
}

func TestBenchCanceled(t *testing.T) {
	b := newBench(New(Options{}))
	b.nodes = 10
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, b.runBench(ctx, &bytes.Buffer{}), context.Canceled)
}

func TestRandomTree(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	b := newBench(New(Options{}))
	for _, n := range []int{0, 1, 10, 1000} {
		builder := firetree.NewBuilder[string]()
		randomTree(rng, builder, n)
		s := builder.Freeze()
		require.Equal(t, n, s.NodeCount())

		data := testutils.CheckErr(jsonrepr.Marshal(s))
		d := b.t.newDecodeStorage()
		require.NoError(t, d.Decode(jsonrepr.NewReader(bytes.NewReader(data))))
		require.Equal(t, s.String(), d.Snapshot.String())
	}
}

func TestFormatOf(t *testing.T) {
	for _, tc := range []struct {
		path     string
		override fileFormat
		want     fileFormat
	}{
		{path: "a.txt", want: formatText},
		{path: "a.TREE", want: formatText},
		{path: "dir.d/a.json", want: formatJSON},
		{path: "a.jsonc", want: formatJSONC},
		{path: "a.cbor", want: formatCBOR},
		{path: "a.ftree", want: formatSnap},
		{path: "a.snap", want: formatSnap},
		{path: "a", override: formatCBOR, want: formatCBOR},
		{path: "a.json", override: formatSnap, want: formatSnap},
	} {
		t.Run(tc.path, func(t *testing.T) {
			got, err := formatOf(tc.path, tc.override, "format")
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
	_, err := formatOf("a.yaml", formatUnknown, "input-format")
	require.EqualError(t, err, `cannot determine the format of "a.yaml"; use --input-format`)
}

func TestFlags(t *testing.T) {
	var f fileFormat
	require.NoError(t, f.Set("jsonc"))
	require.Equal(t, "jsonc", f.String())
	require.Error(t, f.Set(""))
	require.Error(t, f.Set("xml"))

	var o orderFlag
	require.Equal(t, "in-order", o.String())
	require.NoError(t, o.Set("interleaved"))
	require.Equal(t, treetext.Interleaved, o.o)

	var c compressionFlag
	require.Equal(t, "default", c.String())
	require.NoError(t, c.Set("zstd"))
	require.Equal(t, "zstd", c.String())
	require.Error(t, c.Set("lz4"))

	var w wireFlag
	require.NoError(t, w.Set("json"))
	require.Equal(t, "json", w.String())
	require.Error(t, w.Set(fmt.Sprint(42)))
}

func TestWriteText(t *testing.T) {
	b := firetree.NewBuilder[string]()
	a := b.Insert(firetree.Root, "a b")
	b.Insert(a, "x#y")
	b.Insert(firetree.Root, "c")
	s := b.Freeze()
	var buf bytes.Buffer
	require.NoError(t, writeText(&buf, s))
	require.Equal(t, "a b\n  x#y\nc\n", buf.String())
	back, err := treetext.ParseAndBuild(buf.String(), treetext.InOrder)
	require.NoError(t, err)
	require.Equal(t, s.String(), back.Freeze().String())

	for _, tc := range []struct {
		payload string
		want    string
	}{
		{payload: "", want: `text format cannot hold payload "": it is blank`},
		{payload: " \t", want: `text format cannot hold payload " \t": it is blank`},
		{payload: "a\nb", want: `text format cannot hold payload "a\nb": it spans lines`},
		{payload: "a\r", want: `text format cannot hold payload "a\r": it spans lines`},
		{payload: "#a", want: `text format cannot hold payload "#a": it starts with '#'`},
		{payload: " a", want: `text format cannot hold payload " a": it has leading white space`},
		{payload: "\ta", want: `text format cannot hold payload "\ta": it has leading white space`},
		{payload: "a ", want: `text format cannot hold payload "a ": it has trailing white space`},
	} {
		t.Run(tc.payload, func(t *testing.T) {
			b := firetree.NewBuilder[string]()
			id := b.Insert(firetree.Root, "ok")
			b.Insert(id, tc.payload)
			var buf bytes.Buffer
			require.EqualError(t, writeText(&buf, b.Freeze()), tc.want)
			require.Zero(t, buf.Len())
		})
	}

	require.EqualError(t, writeText(&buf, firetree.NewBuilder[string]().Freeze()),
		"text format cannot hold an empty tree")
}

func TestParseTreeTrailingData(t *testing.T) {
	tool := New(Options{Logger: testutils.Logger{T: t}})
	for _, tc := range []struct {
		format fileFormat
		data   []byte
		want   string
	}{
		{
			format: formatJSON,
			data:   []byte(`{"0":{"v":"a"}} {}`),
			want:   "t.json: jsonrepr: data after the tree: found {",
		},
		{
			format: formatJSONC,
			data:   []byte("{\"0\":{\"v\":\"a\"}} // done\n1"),
			want:   "t.json: jsonrepr: data after the tree: found 1",
		},
		{
			format: formatCBOR,
			data:   []byte{0xa0, 0xa0},
			want:   "t.json: cborrepr: data after the tree",
		},
	} {
		t.Run(tc.format.String(), func(t *testing.T) {
			_, err := tool.parseTree(tc.data, "t.json", tc.format)
			require.EqualError(t, err, tc.want)
		})
	}
	s, err := tool.parseTree([]byte("{\"0\":{\"v\":\"a\"}} // done\n"), "t.json", formatJSONC)
	require.NoError(t, err)
	require.Equal(t, 1, s.NodeCount())
}
