// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package snapfile implements a self-describing file format for frozen trees.
//
// A snapshot file is laid out as follows:
//
//	+--------+---------+--------+-------------+----------+----------+-------------+------+
//	| "FTRE" | version | format | compression | reserved | checksum | decoded len | body |
//	|   4    |    1    |   1    |      1      |    1     |    8     |   uvarint   |      |
//	+--------+---------+--------+-------------+----------+----------+-------------+------+
//
// The body is the tree in the given wire format (see jsonrepr and cborrepr),
// compressed with the given algorithm. The checksum is the little-endian
// xxhash64 of everything following it, so it covers the decoded length as
// well as the body.
package snapfile

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/firetree"
	"github.com/cockroachdb/firetree/cborrepr"
	"github.com/cockroachdb/firetree/internal/base"
	"github.com/cockroachdb/firetree/internal/compression"
	"github.com/cockroachdb/firetree/jsonrepr"
)

// Magic is the first four bytes of every snapshot file.
const Magic = "FTRE"

// Version is the version of the layout written by Write.
const Version = 1

const (
	checksumOffset = len(Magic) + 4
	fixedHeaderLen = checksumOffset + 8
)

// ErrCorruptFile is returned when a snapshot file fails validation: bad
// magic, unknown version, checksum mismatch or truncation. Errors matching it
// also match firetree.ErrFormat.
var ErrCorruptFile = errors.New("firetree: corrupt snapshot file")

func markCorrupt(err error) error {
	return base.MarkFormatError(errors.Mark(err, ErrCorruptFile))
}

func corruptionErrorf(format string, args ...interface{}) error {
	return markCorrupt(errors.Newf(format, args...))
}

// Header describes a snapshot file.
type Header struct {
	Version     uint8
	Format      Format
	Compression compression.Algorithm
	Checksum    uint64
	// DecodedLen is the length of the body once decompressed.
	DecodedLen int
	// BodyLen is the length of the body as stored.
	BodyLen int
}

// Write encodes s in the format given by opts and writes it to w as a
// snapshot file. Payloads must be encodable by the chosen wire format.
func Write[T any](w io.Writer, s *firetree.Snapshot[T], opts WriterOptions) error {
	opts.EnsureDefaults()
	if err := opts.validate(); err != nil {
		return err
	}
	start := time.Now()

	var encoded bytes.Buffer
	var err error
	switch opts.Format {
	case FormatJSON:
		err = firetree.Encode(jsonrepr.NewWriter(&encoded), s)
	case FormatCBOR:
		err = firetree.Encode(cborrepr.NewWriter(&encoded), s)
	}
	if err != nil {
		return errors.Wrapf(err, "snapfile: encoding %s", opts.Format)
	}

	algo := opts.Compression.algorithm()
	compressor := compression.GetCompressor(algo)
	body := compressor.Compress(nil, encoded.Bytes())
	compressor.Close()

	buf := make([]byte, fixedHeaderLen, fixedHeaderLen+binary.MaxVarintLen64+len(body))
	copy(buf, Magic)
	buf[len(Magic)] = Version
	buf[len(Magic)+1] = byte(opts.Format)
	buf[len(Magic)+2] = byte(algo)
	buf = binary.AppendUvarint(buf, uint64(encoded.Len()))
	buf = append(buf, body...)
	binary.LittleEndian.PutUint64(buf[checksumOffset:], xxhash.Sum64(buf[fixedHeaderLen:]))

	if _, err := w.Write(buf); err != nil {
		return errors.Wrap(err, "snapfile: writing")
	}
	if opts.Latency != nil {
		opts.Latency.Observe(time.Since(start).Seconds())
	}
	opts.Logger.Infof("snapfile: wrote %d nodes as %s/%s: %d bytes, %d decoded",
		s.NodeCount(), opts.Format, algo, len(buf), encoded.Len())
	return nil
}

// ParseHeader validates data as a snapshot file and returns its header and
// its (still compressed) body.
func ParseHeader(data []byte) (Header, []byte, error) {
	if len(data) < fixedHeaderLen {
		return Header{}, nil, corruptionErrorf("snapfile: file too short: %d bytes", errors.Safe(len(data)))
	}
	if string(data[:len(Magic)]) != Magic {
		return Header{}, nil, corruptionErrorf("snapfile: bad magic %q", data[:len(Magic)])
	}
	h := Header{
		Version:     data[len(Magic)],
		Format:      Format(data[len(Magic)+1]),
		Compression: compression.Algorithm(data[len(Magic)+2]),
		Checksum:    binary.LittleEndian.Uint64(data[checksumOffset:]),
	}
	if h.Version != Version {
		return Header{}, nil, corruptionErrorf("snapfile: unsupported version %d", errors.Safe(h.Version))
	}
	if h.Format == DefaultFormat || h.Format >= numFormats {
		return Header{}, nil, corruptionErrorf("snapfile: unknown format %d", errors.Safe(h.Format))
	}
	if h.Compression >= compression.NumAlgorithms {
		return Header{}, nil, corruptionErrorf("snapfile: unknown compression %d", errors.Safe(h.Compression))
	}
	if data[len(Magic)+3] != 0 {
		return Header{}, nil, corruptionErrorf("snapfile: reserved byte is set")
	}
	rest := data[fixedHeaderLen:]
	if sum := xxhash.Sum64(rest); sum != h.Checksum {
		return Header{}, nil, corruptionErrorf("snapfile: checksum mismatch: %016x != %016x",
			errors.Safe(sum), errors.Safe(h.Checksum))
	}
	decodedLen, n := binary.Uvarint(rest)
	if n <= 0 || decodedLen > uint64(len(rest))*maxCompressionRatio+64 {
		return Header{}, nil, corruptionErrorf("snapfile: invalid decoded length")
	}
	h.DecodedLen = int(decodedLen)
	body := rest[n:]
	h.BodyLen = len(body)
	return h, body, nil
}

// maxCompressionRatio bounds the decoded length a file may claim relative to
// its size. No supported algorithm exceeds it.
const maxCompressionRatio = 1 << 16

// Read reads a snapshot file from r and decodes its tree into d.Snapshot,
// using d.Options. It returns the file's header.
func Read[T any](r io.Reader, d *firetree.DecodeStorage[T], opts ReaderOptions) (Header, error) {
	opts.EnsureDefaults()
	start := time.Now()
	data, err := io.ReadAll(r)
	if err != nil {
		return Header{}, errors.Wrap(err, "snapfile: reading")
	}
	h, body, err := ParseHeader(data)
	if err != nil {
		return Header{}, err
	}
	if h.DecodedLen > opts.MaxDecodedSize {
		return Header{}, errors.Errorf("snapfile: decoded body of %d bytes exceeds limit of %d",
			errors.Safe(h.DecodedLen), errors.Safe(opts.MaxDecodedSize))
	}

	decoded := make([]byte, h.DecodedLen)
	decompressor := compression.GetDecompressor(h.Compression)
	defer decompressor.Close()
	if n, err := decompressor.DecompressedLen(body); err != nil || n != h.DecodedLen {
		return Header{}, corruptionErrorf("snapfile: body length does not match header")
	}
	if err := decompressor.DecompressInto(decoded, body); err != nil {
		return Header{}, markCorrupt(errors.Wrap(err, "snapfile: decompressing"))
	}

	switch h.Format {
	case FormatJSON:
		r := jsonrepr.NewReader(bytes.NewReader(decoded))
		if err = d.Decode(r); err == nil {
			err = r.End()
		}
	case FormatCBOR:
		r := cborrepr.NewReader(bytes.NewReader(decoded))
		if err = d.Decode(r); err == nil {
			err = r.End()
		}
	}
	if err != nil {
		return Header{}, errors.Wrapf(err, "snapfile: decoding %s", h.Format)
	}
	if opts.Latency != nil {
		opts.Latency.Observe(time.Since(start).Seconds())
	}
	opts.Logger.Infof("snapfile: read %d nodes from %d bytes", d.Snapshot.NodeCount(), len(data))
	return h, nil
}
