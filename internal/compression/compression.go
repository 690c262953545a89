// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package compression implements the block compression algorithms used by
// snapshot files.
package compression

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Algorithm identifies a compression algorithm. The values are persisted in
// snapshot file headers and must not change.
type Algorithm uint8

const (
	NoCompression Algorithm = iota
	Snappy
	MinLZ
	Zstd

	NumAlgorithms
)

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	switch a {
	case NoCompression:
		return "none"
	case Snappy:
		return "snappy"
	case MinLZ:
		return "minlz"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseAlgorithm returns the Algorithm with the given name, as returned by
// Algorithm.String. Matching is case-insensitive.
func ParseAlgorithm(s string) (Algorithm, error) {
	for a := NoCompression; a < NumAlgorithms; a++ {
		if strings.EqualFold(s, a.String()) {
			return a, nil
		}
	}
	return 0, errors.Errorf("unknown compression algorithm %q", s)
}

// Compressor compresses blocks.
type Compressor interface {
	// Algorithm returns the algorithm used by the compressor.
	Algorithm() Algorithm
	// Compress a block, appending the compressed data to dst[:0].
	Compress(dst, src []byte) []byte
	// Close must be called when the Compressor is no longer needed. After
	// Close is called, the Compressor must not be used again.
	Close()
}

// Decompressor decompresses blocks produced by the Compressor of the same
// algorithm.
type Decompressor interface {
	// DecompressInto decompresses compressed into buf. The buf slice must have
	// the exact size as the decompressed value. Callers may use
	// DecompressedLen to determine the correct size.
	DecompressInto(buf, compressed []byte) error
	// DecompressedLen returns the length of the provided block once
	// decompressed, allowing the caller to allocate a buffer exactly sized to
	// the decompressed payload.
	DecompressedLen(b []byte) (decompressedLen int, err error)
	// Close must be called when the Decompressor is no longer needed. After
	// Close is called, the Decompressor must not be used again.
	Close()
}

// DefaultZstdLevel is the zstd level used by GetCompressor.
const DefaultZstdLevel = 3

// GetCompressor returns a Compressor for the given algorithm. The caller must
// Close it when done.
func GetCompressor(a Algorithm) Compressor {
	switch a {
	case NoCompression:
		return noopCompressor{}
	case Snappy:
		return snappyCompressor{}
	case MinLZ:
		return minlzCompressorBalanced
	case Zstd:
		return getZstdCompressor(DefaultZstdLevel)
	default:
		panic(errors.AssertionFailedf("invalid compression algorithm %d", a))
	}
}

// GetDecompressor returns a Decompressor for the given algorithm. The caller
// must Close it when done.
func GetDecompressor(a Algorithm) Decompressor {
	switch a {
	case NoCompression:
		return noopDecompressor{}
	case Snappy:
		return snappyDecompressor{}
	case MinLZ:
		return minlzDecompressor{}
	case Zstd:
		return getZstdDecompressor()
	default:
		panic(errors.AssertionFailedf("invalid compression algorithm %d", a))
	}
}

// Decompress decompresses b, allocating a buffer of the right size.
func Decompress(a Algorithm, b []byte) ([]byte, error) {
	d := GetDecompressor(a)
	defer d.Close()
	n, err := d.DecompressedLen(b)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := d.DecompressInto(buf, b); err != nil {
		return nil, err
	}
	return buf, nil
}

// errUnexpectedBuffer is returned when a decompressor allocated a new buffer
// instead of writing into the one provided, meaning the advertised length was
// wrong.
func errUnexpectedBuffer(result, buf []byte) error {
	return errors.Errorf("decompressed into unexpected buffer: %d bytes, want %d",
		errors.Safe(len(result)), errors.Safe(len(buf)))
}
