// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package jsonrepr implements the JSON wire form of firetree snapshots.
//
// A tree is a JSON object per node: the payload under "v" and the children
// under "0", "1", ... For example:
//
//	{"0":{"v":0,"0":{"v":1}},"1":{"v":2,"0":{"v":3},"1":{"v":4}}}
//
// The Writer produces compact JSON. The Reader streams tokens, so it never
// holds more than one payload in memory. NewReaderJSONC additionally accepts
// comments and trailing commas.
package jsonrepr

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/firetree"
	"github.com/cockroachdb/firetree/internal/base"
	"github.com/tidwall/jsonc"
)

// Writer writes a tree as JSON. It implements firetree.MapWriter.
type Writer struct {
	w *bufio.Writer
	// empty[i] is true while the i-th open object has no entries.
	empty []bool
}

var _ firetree.MapWriter = (*Writer)(nil)

// NewWriter returns a Writer which writes to w. Output is buffered; it is
// flushed when the outermost object is closed, or by Flush.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// BeginMap implements firetree.MapWriter.
func (w *Writer) BeginMap(entries int) error {
	w.empty = append(w.empty, true)
	return w.w.WriteByte('{')
}

// WriteKey implements firetree.MapWriter.
func (w *Writer) WriteKey(key string) error {
	if len(w.empty) == 0 {
		return errors.AssertionFailedf("jsonrepr: key %q outside of an object", key)
	}
	top := len(w.empty) - 1
	if !w.empty[top] {
		if err := w.w.WriteByte(','); err != nil {
			return err
		}
	}
	w.empty[top] = false
	quoted, err := json.Marshal(key)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(quoted); err != nil {
		return err
	}
	return w.w.WriteByte(':')
}

// WriteValue implements firetree.MapWriter.
func (w *Writer) WriteValue(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "jsonrepr: encoding payload")
	}
	_, err = w.w.Write(b)
	return err
}

// EndMap implements firetree.MapWriter.
func (w *Writer) EndMap() error {
	if len(w.empty) == 0 {
		return errors.AssertionFailedf("jsonrepr: unbalanced EndMap")
	}
	w.empty = w.empty[:len(w.empty)-1]
	if err := w.w.WriteByte('}'); err != nil {
		return err
	}
	if len(w.empty) == 0 {
		return w.Flush()
	}
	return nil
}

// Flush writes any buffered output to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Reader reads a tree from a stream of JSON tokens. It implements
// firetree.MapReader.
type Reader struct {
	dec *json.Decoder
}

var _ firetree.MapReader = (*Reader)(nil)

// NewReader returns a Reader which reads from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: json.NewDecoder(r)}
}

// NewReaderJSONC returns a Reader for JSON which may contain comments and
// trailing commas.
func NewReaderJSONC(src []byte) *Reader {
	return NewReader(bytes.NewReader(jsonc.ToJSON(src)))
}

// BeginMap implements firetree.MapReader.
func (r *Reader) BeginMap() error {
	tok, err := r.dec.Token()
	if err != nil {
		return wrapErr(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return base.WrapFormatErrorf(base.ErrExpectedMap, "found %v", tok)
	}
	return nil
}

// NextKey implements firetree.MapReader.
func (r *Reader) NextKey() (key string, ok bool, err error) {
	if !r.dec.More() {
		tok, err := r.dec.Token()
		if err != nil {
			return "", false, wrapErr(err)
		}
		if d, ok := tok.(json.Delim); !ok || d != '}' {
			return "", false, base.FormatErrorf("jsonrepr: expected end of object, found %v", tok)
		}
		return "", false, nil
	}
	tok, err := r.dec.Token()
	if err != nil {
		return "", false, wrapErr(err)
	}
	key, ok = tok.(string)
	if !ok {
		return "", false, base.FormatErrorf("jsonrepr: expected object key, found %v", tok)
	}
	return key, true, nil
}

// DecodeValue implements firetree.MapReader.
func (r *Reader) DecodeValue(v any) error {
	return wrapErr(r.dec.Decode(v))
}

// End checks that nothing but white space follows the tree read from r.
func (r *Reader) End() error {
	tok, err := r.dec.Token()
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return base.MarkFormatError(errors.Wrap(wrapErr(err), "data after the tree"))
	}
	return base.FormatErrorf("jsonrepr: data after the tree: found %v", tok)
}

// wrapErr marks errors caused by malformed input as format errors. Other
// errors, such as those of the underlying reader, are returned unchanged.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return base.MarkFormatError(errors.Wrap(io.ErrUnexpectedEOF, "jsonrepr"))
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return base.MarkFormatError(errors.Wrap(err, "jsonrepr"))
	}
	return err
}

// Marshal returns the JSON encoding of s.
func Marshal[T any](s *firetree.Snapshot[T]) ([]byte, error) {
	var buf bytes.Buffer
	if err := firetree.Encode(NewWriter(&buf), s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a Snapshot from its JSON encoding. Use a
// firetree.DecodeStorage with NewReader to reuse allocations across decodes.
func Unmarshal[T any](data []byte) (*firetree.Snapshot[T], error) {
	r := NewReader(bytes.NewReader(data))
	s, err := firetree.Decode[T](r)
	if err != nil {
		return nil, err
	}
	if err := r.End(); err != nil {
		return nil, err
	}
	return s, nil
}
