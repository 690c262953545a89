// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package compression

import (
	"bytes"
	"encoding/binary"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/cockroachdb/crlib/testutils/leaktest"
	"github.com/stretchr/testify/require"
)

func TestCompressionRoundtrip(t *testing.T) {
	defer leaktest.AfterTest(t)()

	seed := uint64(time.Now().UnixNano())
	t.Logf("seed %d", seed)
	rng := rand.New(rand.NewPCG(0, seed))

	for a := NoCompression; a < NumAlgorithms; a++ {
		t.Run(a.String(), func(t *testing.T) {
			// Repetitive payloads compress; random ones exercise the worst case.
			for _, repetitive := range []bool{false, true} {
				payload := make([]byte, 64+rng.IntN(10<<10 /* 10 KiB */))
				for i := range payload {
					if repetitive {
						payload[i] = "firetree"[i%8]
					} else {
						payload[i] = byte(rng.Uint32())
					}
				}
				// Create a randomly-sized buffer to house the compressed output. If
				// it's not sufficient, Compress should allocate one that is.
				compressedBuf := make([]byte, 1+rng.IntN(1<<10 /* 1 KiB */))
				compressor := GetCompressor(a)
				require.Equal(t, a, compressor.Algorithm())
				compressed := compressor.Compress(compressedBuf, payload)
				compressor.Close()
				if repetitive && a != NoCompression {
					require.Less(t, len(compressed), len(payload))
				}
				got, err := Decompress(a, compressed)
				require.NoError(t, err)
				require.Equal(t, payload, got)
			}
		})
	}
}

// TestDecompressionError tests that a decompressing a value that does not
// decompress returns an error.
func TestDecompressionError(t *testing.T) {
	defer leaktest.AfterTest(t)()
	rng := rand.New(rand.NewPCG(0, 1 /* fixed seed */))

	// Create a buffer to represent a faux zstd compressed block. It's prefixed
	// with a uvarint of the appropriate length, followed by garbage.
	const payloadLen = 1 << 10
	fauxCompressed := binary.AppendUvarint(nil, payloadLen)
	for range payloadLen {
		fauxCompressed = append(fauxCompressed, byte(rng.Uint32()))
	}

	v, err := Decompress(Zstd, fauxCompressed)
	t.Log(err)
	require.Error(t, err)
	require.Nil(t, v)

	_, err = Decompress(Zstd, nil)
	require.Error(t, err)
}

func TestDecompressIntoWrongSize(t *testing.T) {
	defer leaktest.AfterTest(t)()
	payload := bytes.Repeat([]byte("abc"), 100)
	for _, a := range []Algorithm{NoCompression, Snappy, MinLZ} {
		t.Run(a.String(), func(t *testing.T) {
			c := GetCompressor(a)
			defer c.Close()
			compressed := c.Compress(nil, payload)
			d := GetDecompressor(a)
			defer d.Close()
			require.Error(t, d.DecompressInto(make([]byte, len(payload)/2), compressed))
		})
	}
}

func TestParseAlgorithm(t *testing.T) {
	for a := NoCompression; a < NumAlgorithms; a++ {
		got, err := ParseAlgorithm(a.String())
		require.NoError(t, err)
		require.Equal(t, a, got)
	}
	got, err := ParseAlgorithm("ZSTD")
	require.NoError(t, err)
	require.Equal(t, Zstd, got)
	_, err = ParseAlgorithm("lz4")
	require.Error(t, err)
	require.Equal(t, "unknown", NumAlgorithms.String())
}
