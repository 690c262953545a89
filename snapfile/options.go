// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package snapfile

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/firetree/internal/base"
	"github.com/cockroachdb/firetree/internal/compression"
	"github.com/prometheus/client_golang/prometheus"
)

// Format is the wire format of the tree held in a snapshot file. The values
// are persisted in file headers.
type Format uint8

const (
	// DefaultFormat selects FormatCBOR when writing. It never appears in a
	// file header.
	DefaultFormat Format = iota
	FormatJSON
	FormatCBOR

	numFormats
)

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case DefaultFormat:
		return "default"
	case FormatJSON:
		return "json"
	case FormatCBOR:
		return "cbor"
	default:
		return "unknown"
	}
}

// ParseFormat returns the Format with the given name.
func ParseFormat(s string) (Format, error) {
	for f := DefaultFormat; f < numFormats; f++ {
		if strings.EqualFold(s, f.String()) {
			return f, nil
		}
	}
	return 0, errors.Errorf("unknown wire format %q", s)
}

// Compression selects the compression applied to a snapshot file's body.
type Compression int

const (
	DefaultCompression Compression = iota
	NoCompression
	SnappyCompression
	MinLZCompression
	ZstdCompression
)

// String implements fmt.Stringer.
func (c Compression) String() string {
	if c == DefaultCompression {
		return "default"
	}
	return c.algorithm().String()
}

// ParseCompression returns the Compression with the given name.
func ParseCompression(s string) (Compression, error) {
	if strings.EqualFold(s, "default") {
		return DefaultCompression, nil
	}
	a, err := compression.ParseAlgorithm(s)
	if err != nil {
		return 0, err
	}
	return Compression(a) + NoCompression, nil
}

func (c Compression) algorithm() compression.Algorithm {
	switch c {
	case DefaultCompression, SnappyCompression:
		return compression.Snappy
	case NoCompression:
		return compression.NoCompression
	case MinLZCompression:
		return compression.MinLZ
	case ZstdCompression:
		return compression.Zstd
	default:
		return compression.NumAlgorithms
	}
}

// WriterOptions configures Write.
type WriterOptions struct {
	// Format is the wire format of the tree. The default is FormatCBOR.
	Format Format
	// Compression is the compression applied to the encoded tree. The default
	// is SnappyCompression.
	Compression Compression
	// Latency, if set, observes the duration of every Write in seconds.
	Latency prometheus.Observer
	// Logger is used to log file writes. The default discards messages.
	Logger base.Logger
}

// EnsureDefaults ensures that the options are valid, filling in defaults for
// unset fields, and returns the receiver.
func (o *WriterOptions) EnsureDefaults() *WriterOptions {
	if o.Format == DefaultFormat {
		o.Format = FormatCBOR
	}
	if o.Compression == DefaultCompression {
		o.Compression = SnappyCompression
	}
	if o.Logger == nil {
		o.Logger = base.NoopLogger{}
	}
	return o
}

func (o *WriterOptions) validate() error {
	if o.Format >= numFormats {
		return errors.Errorf("snapfile: invalid format %d", errors.Safe(o.Format))
	}
	if o.Compression.algorithm() >= compression.NumAlgorithms {
		return errors.Errorf("snapfile: invalid compression %d", errors.Safe(o.Compression))
	}
	return nil
}

// DefaultMaxDecodedSize is the default ReaderOptions.MaxDecodedSize.
const DefaultMaxDecodedSize = 1 << 30

// ReaderOptions configures Read.
type ReaderOptions struct {
	// MaxDecodedSize bounds the size of the uncompressed body. Files claiming
	// a larger body are rejected before anything is allocated.
	MaxDecodedSize int
	// Latency, if set, observes the duration of every Read in seconds.
	Latency prometheus.Observer
	// Logger is used to log file reads. The default discards messages.
	Logger base.Logger
}

// EnsureDefaults ensures that the options are valid, filling in defaults for
// unset fields, and returns the receiver.
func (o *ReaderOptions) EnsureDefaults() *ReaderOptions {
	if o.MaxDecodedSize <= 0 {
		o.MaxDecodedSize = DefaultMaxDecodedSize
	}
	if o.Logger == nil {
		o.Logger = base.NoopLogger{}
	}
	return o
}
