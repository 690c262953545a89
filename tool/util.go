// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/firetree"
	"github.com/cockroachdb/firetree/cborrepr"
	"github.com/cockroachdb/firetree/internal/treetext"
	"github.com/cockroachdb/firetree/jsonrepr"
	"github.com/cockroachdb/firetree/snapfile"
)

var stdout = io.Writer(os.Stdout)
var stderr = io.Writer(os.Stderr)
var osExit = os.Exit

// fileFormat is the format of a tree file read or written by the tools.
type fileFormat int

const (
	formatUnknown fileFormat = iota
	formatText
	formatJSON
	formatJSONC
	formatCBOR
	formatSnap
)

var fileFormatNames = [...]string{
	formatUnknown: "",
	formatText:    "text",
	formatJSON:    "json",
	formatJSONC:   "jsonc",
	formatCBOR:    "cbor",
	formatSnap:    "snap",
}

func (f *fileFormat) String() string {
	return fileFormatNames[*f]
}

func (f *fileFormat) Type() string {
	return "format"
}

func (f *fileFormat) Set(v string) error {
	for i, name := range fileFormatNames {
		if i != int(formatUnknown) && v == name {
			*f = fileFormat(i)
			return nil
		}
	}
	return errors.Errorf("unknown format %q (one of text, json, jsonc, cbor, snap)", v)
}

// formatOf returns override if it is set, and otherwise the format implied by
// the extension of path. flag names the flag that overrides the detection.
func formatOf(path string, override fileFormat, flag string) (fileFormat, error) {
	if override != formatUnknown {
		return override, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".tree":
		return formatText, nil
	case ".json":
		return formatJSON, nil
	case ".jsonc":
		return formatJSONC, nil
	case ".cbor":
		return formatCBOR, nil
	case ".ftree", ".snap":
		return formatSnap, nil
	}
	return formatUnknown, errors.Errorf("cannot determine the format of %q; use --%s", path, flag)
}

type wireFlag struct {
	f snapfile.Format
}

func (w *wireFlag) String() string {
	return w.f.String()
}

func (w *wireFlag) Type() string {
	return "wire"
}

func (w *wireFlag) Set(v string) error {
	f, err := snapfile.ParseFormat(v)
	if err != nil {
		return err
	}
	w.f = f
	return nil
}

type compressionFlag struct {
	c snapfile.Compression
}

func (c *compressionFlag) String() string {
	return c.c.String()
}

func (c *compressionFlag) Type() string {
	return "compression"
}

func (c *compressionFlag) Set(v string) error {
	comp, err := snapfile.ParseCompression(v)
	if err != nil {
		return err
	}
	c.c = comp
	return nil
}

type orderFlag struct {
	o treetext.Order
}

func (o *orderFlag) String() string {
	return o.o.String()
}

func (o *orderFlag) Type() string {
	return "order"
}

func (o *orderFlag) Set(v string) error {
	order, err := treetext.ParseOrder(v)
	if err != nil {
		return err
	}
	o.o = order
	return nil
}

// writeOptions holds the flags shared by the commands that write trees.
type writeOptions struct {
	format      fileFormat
	wire        wireFlag
	compression compressionFlag
}

// decodeLabel decodes a payload as a string. Payloads of other types are
// formatted with fmt, so that trees written by other programs can still be
// inspected.
func decodeLabel(r firetree.MapReader) (string, error) {
	var v any
	if err := r.DecodeValue(&v); err != nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

func (t *T) newDecodeStorage() *firetree.DecodeStorage[string] {
	return firetree.NewDecodeStorage[string](firetree.DecodeOptions{MaxDepth: t.opts.MaxDepth})
}

// readTree reads the tree stored in path.
func (t *T) readTree(path string, format fileFormat) (*firetree.Snapshot[string], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return t.parseTree(data, path, format)
}

// wholeReader is implemented by the JSON and CBOR readers.
type wholeReader interface {
	firetree.MapReader
	// End checks that the input holds nothing after the tree.
	End() error
}

// decodeWhole decodes the only tree held by r.
func decodeWhole(d *firetree.DecodeStorage[string], r wholeReader) error {
	if err := d.DecodeWith(r, decodeLabel); err != nil {
		return err
	}
	return r.End()
}

func (t *T) parseTree(
	data []byte, name string, format fileFormat,
) (*firetree.Snapshot[string], error) {
	d := t.newDecodeStorage()
	var err error
	switch format {
	case formatText:
		b, err := treetext.ParseAndBuild(string(data), treetext.InOrder)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", name)
		}
		return b.Freeze(), nil
	case formatJSON:
		err = decodeWhole(d, jsonrepr.NewReader(bytes.NewReader(data)))
	case formatJSONC:
		err = decodeWhole(d, jsonrepr.NewReaderJSONC(data))
	case formatCBOR:
		err = decodeWhole(d, cborrepr.NewReader(bytes.NewReader(data)))
	case formatSnap:
		var h snapfile.Header
		h, err = snapfile.Read(bytes.NewReader(data), d, snapfile.ReaderOptions{
			MaxDecodedSize: t.opts.MaxDecodedSize,
			Logger:         t.logger(),
		})
		if err == nil {
			t.logger().Infof("%s: version %d, %s/%s, %d bytes body, %d bytes decoded",
				name, h.Version, h.Format, h.Compression, h.BodyLen, h.DecodedLen)
		}
	default:
		return nil, errors.AssertionFailedf("unknown format %d", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "%s", name)
	}
	t.logger().Infof("%s: decoded %d nodes", name, d.Snapshot.NodeCount())
	return d.Take(), nil
}

// writeTree writes s to w in the given format.
func (t *T) writeTree(w io.Writer, s *firetree.Snapshot[string], opts *writeOptions) error {
	switch opts.format {
	case formatText:
		bw := bufio.NewWriter(w)
		if err := writeText(bw, s); err != nil {
			return err
		}
		return bw.Flush()
	case formatJSON, formatJSONC:
		jw := jsonrepr.NewWriter(w)
		if err := firetree.Encode(jw, s); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	case formatCBOR:
		return firetree.Encode(cborrepr.NewWriter(w), s)
	case formatSnap:
		return snapfile.Write(w, s, snapfile.WriterOptions{
			Format:      opts.wire.f,
			Compression: opts.compression.c,
			Logger:      t.logger(),
		})
	default:
		return errors.AssertionFailedf("unknown format %d", opts.format)
	}
}

// writeText writes s as indented text which treetext.Parse reads back. Trees
// the text format cannot hold are rejected before anything is written.
func writeText(w io.Writer, s *firetree.Snapshot[string]) error {
	if s.NodeCount() == 0 {
		return errors.Errorf("text format cannot hold an empty tree")
	}
	for i := range s.NodeCount() {
		payload, _ := s.Payload(firetree.MakeBranchID(i))
		if err := checkTextPayload(payload); err != nil {
			return err
		}
	}
	_, err := s.Print(func(w io.Writer, payload *string, depth int) error {
		if payload == nil {
			return nil
		}
		_, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth-1), *payload)
		return err
	}).WriteTo(w)
	return err
}

// checkTextPayload returns an error if payload would not be read back
// unchanged from a line of text.
func checkTextPayload(payload string) error {
	var reason string
	switch {
	case strings.TrimSpace(payload) == "":
		reason = "is blank"
	case strings.ContainsAny(payload, "\n\r"):
		reason = "spans lines"
	case payload[0] == '#':
		reason = "starts with '#'"
	case strings.IndexByte(" \t", payload[0]) >= 0:
		reason = "has leading white space"
	case strings.IndexByte(" \t", payload[len(payload)-1]) >= 0:
		reason = "has trailing white space"
	default:
		return nil
	}
	return errors.Errorf("text format cannot hold payload %q: it %s", payload, reason)
}

// writeFile writes s to path, creating or truncating it.
func (t *T) writeFile(path string, s *firetree.Snapshot[string], opts *writeOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.writeTree(f, s, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
