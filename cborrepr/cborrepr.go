// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package cborrepr implements the CBOR wire form of firetree snapshots. The
// layout is the same as the JSON form: one map per node with the payload under
// "v" and children under "0", "1", ...
//
// The Writer streams indefinite-length maps, so nothing but the payload being
// written is buffered. The Reader reads the root data item into memory once and
// then walks it in a single pass, decoding only payloads with the CBOR library.
package cborrepr

import (
	"bytes"
	"io"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/firetree"
	"github.com/cockroachdb/firetree/internal/base"
	"github.com/fxamacker/cbor/v2"
)

// encMode streams indefinite-length maps. Payload values use the preferred
// (shortest) serialization.
var encMode cbor.EncMode

// decMode rejects duplicate map keys within payloads. Payloads decoded into interface values
// use map[string]any for maps so that they interoperate with encoding/json.
var decMode cbor.DecMode

func init() {
	var err error
	encOptions := cbor.PreferredUnsortedEncOptions()
	encOptions.IndefLength = cbor.IndefLengthAllowed
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("cborrepr: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		IndefLength:     cbor.IndefLengthAllowed,
		MaxNestedLevels: 65535,
	}.DecMode()
	if err != nil {
		panic("cborrepr: CBOR decoder initialization failed: " + err.Error())
	}
}

// Writer writes a tree as CBOR. It implements firetree.MapWriter.
type Writer struct {
	enc   *cbor.Encoder
	depth int
}

var _ firetree.MapWriter = (*Writer)(nil)

// NewWriter returns a Writer which writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: encMode.NewEncoder(w)}
}

// BeginMap implements firetree.MapWriter.
func (w *Writer) BeginMap(entries int) error {
	w.depth++
	return w.enc.StartIndefiniteMap()
}

// WriteKey implements firetree.MapWriter.
func (w *Writer) WriteKey(key string) error {
	return w.enc.Encode(key)
}

// WriteValue implements firetree.MapWriter.
func (w *Writer) WriteValue(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return errors.Wrap(err, "cborrepr: encoding payload")
	}
	return nil
}

// EndMap implements firetree.MapWriter.
func (w *Writer) EndMap() error {
	if w.depth == 0 {
		return errors.AssertionFailedf("cborrepr: unbalanced EndMap")
	}
	w.depth--
	return w.enc.EndIndefinite()
}

// CBOR major types.
const (
	majorUint  = 0
	majorNint  = 1
	majorBytes = 2
	majorText  = 3
	majorArray = 4
	majorMap   = 5
	majorTag   = 6
	majorOther = 7
)

const (
	infoIndefinite = 31
	breakCode      = 0xff
)

// head is the initial byte and argument of a data item.
type head struct {
	major byte
	// arg is the length of strings, arrays and maps, or the value of integers
	// and tags.
	arg        uint64
	indefinite bool
	// next is the offset just past the head.
	next int
}

// readHead parses the head of the data item at data[off:].
func readHead(data []byte, off int) (head, error) {
	if off >= len(data) {
		return head{}, errTruncated
	}
	h := head{major: data[off] >> 5, next: off + 1}
	info := data[off] & 0x1f
	switch {
	case info < 24:
		h.arg = uint64(info)
	case info <= 27:
		n := 1 << (info - 24)
		if h.next+n > len(data) {
			return head{}, errTruncated
		}
		for _, b := range data[h.next : h.next+n] {
			h.arg = h.arg<<8 | uint64(b)
		}
		h.next += n
	case info == infoIndefinite:
		if h.major == majorUint || h.major == majorNint || h.major == majorTag {
			return head{}, base.FormatErrorf("cborrepr: invalid additional information %d for major type %d", info, h.major)
		}
		h.indefinite = true
	default:
		return head{}, base.FormatErrorf("cborrepr: invalid additional information %d", info)
	}
	return h, nil
}

var errTruncated = base.MarkFormatError(errors.Wrap(io.ErrUnexpectedEOF, "cborrepr"))

// isBreak reports whether h is the break code ending an indefinite-length
// item.
func (h head) isBreak() bool {
	return h.major == majorOther && h.indefinite
}

// skip returns the offset just past the data item at data[off:]. Nested items
// are tracked with an explicit stack.
func skip(data []byte, off int, stack []int64) (int, []int64, error) {
	// stack holds the number of items left in each open item, or -1 for
	// indefinite-length items, which end with a break.
	stack = append(stack[:0], 1)
	for len(stack) > 0 {
		top := len(stack) - 1
		if stack[top] == 0 {
			stack = stack[:top]
			continue
		}
		h, err := readHead(data, off)
		if err != nil {
			return 0, stack, err
		}
		off = h.next
		if h.isBreak() {
			if stack[top] != -1 {
				return 0, stack, base.FormatErrorf("cborrepr: unexpected break")
			}
			stack = stack[:top]
			continue
		}
		if stack[top] > 0 {
			stack[top]--
		}
		switch h.major {
		case majorBytes, majorText:
			if h.indefinite {
				stack = append(stack, -1)
			} else if h.arg > uint64(len(data)-off) {
				return 0, stack, errTruncated
			} else {
				off += int(h.arg)
			}
		case majorArray, majorMap:
			n := int64(h.arg)
			if h.major == majorMap {
				n *= 2
			}
			switch {
			case h.indefinite:
				stack = append(stack, -1)
			case h.arg > uint64(len(data)-off) || n < 0:
				// Every item takes at least one byte.
				return 0, stack, errTruncated
			default:
				stack = append(stack, n)
			}
		case majorTag:
			stack = append(stack, 1)
		}
	}
	return off, stack, nil
}

// level is one map being read.
type level struct {
	// remaining is the number of entries left in a definite-length map, or -1
	// for an indefinite-length map.
	remaining int64
}

// Reader reads a tree from CBOR. It implements firetree.MapReader.
type Reader struct {
	dec *cbor.Decoder
	// data is the root data item. The tree is read from it in a single pass.
	data cbor.RawMessage
	off  int
	// levels holds the open maps, innermost last.
	levels []level
	// pending is set when NextKey has returned a key whose value, at off, has
	// not been read yet.
	pending bool
	stack   []int64
}

var _ firetree.MapReader = (*Reader)(nil)

// NewReader returns a Reader which reads the next CBOR data item from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: decMode.NewDecoder(r)}
}

// BeginMap implements firetree.MapReader.
func (r *Reader) BeginMap() error {
	if len(r.levels) == 0 {
		// The decoder checks that the whole item is well formed.
		if err := r.dec.Decode(&r.data); err != nil {
			return wrapErr(err)
		}
		r.off = 0
	} else if !r.pending {
		return errors.AssertionFailedf("cborrepr: BeginMap without a key")
	}
	r.pending = false

	h, err := readHead(r.data, r.off)
	if err != nil {
		return err
	}
	if h.major != majorMap {
		return base.WrapFormatErrorf(base.ErrExpectedMap, "found %s", describe(h.major))
	}
	l := level{remaining: -1}
	if !h.indefinite {
		l.remaining = int64(h.arg)
	}
	r.off = h.next
	r.levels = append(r.levels, l)
	return nil
}

// NextKey implements firetree.MapReader.
func (r *Reader) NextKey() (key string, ok bool, err error) {
	if len(r.levels) == 0 {
		return "", false, errors.AssertionFailedf("cborrepr: NextKey outside of a map")
	}
	if r.pending {
		// The value of the previous key was not read.
		if r.off, r.stack, err = skip(r.data, r.off, r.stack); err != nil {
			return "", false, err
		}
		r.pending = false
	}

	l := &r.levels[len(r.levels)-1]
	switch {
	case l.remaining == 0:
		r.levels = r.levels[:len(r.levels)-1]
		return "", false, nil
	case l.remaining < 0 && r.off < len(r.data) && r.data[r.off] == breakCode:
		r.off++
		r.levels = r.levels[:len(r.levels)-1]
		return "", false, nil
	case l.remaining > 0:
		l.remaining--
	}

	h, err := readHead(r.data, r.off)
	if err != nil {
		return "", false, err
	}
	if h.major != majorText {
		return "", false, base.WrapFormatErrorf(base.ErrUnknownKey, "found %s key", describe(h.major))
	}
	if h.indefinite {
		end, stack, err := skip(r.data, r.off, r.stack)
		r.stack = stack
		if err != nil {
			return "", false, err
		}
		if err := decMode.Unmarshal(r.data[r.off:end], &key); err != nil {
			return "", false, wrapErr(err)
		}
		r.off = end
	} else {
		if h.arg > uint64(len(r.data)-h.next) {
			return "", false, errTruncated
		}
		end := h.next + int(h.arg)
		key = string(r.data[h.next:end])
		r.off = end
	}
	r.pending = true
	return key, true, nil
}

// DecodeValue implements firetree.MapReader.
func (r *Reader) DecodeValue(v any) error {
	if !r.pending {
		return errors.AssertionFailedf("cborrepr: DecodeValue without a key")
	}
	end, stack, err := skip(r.data, r.off, r.stack)
	r.stack = stack
	if err != nil {
		return err
	}
	value := r.data[r.off:end]
	r.off, r.pending = end, false
	return wrapErr(decMode.Unmarshal(value, v))
}

// End checks that no data item follows the tree read from r.
func (r *Reader) End() error {
	err := r.dec.Skip()
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return base.MarkFormatError(errors.Wrap(wrapErr(err), "data after the tree"))
	}
	return base.FormatErrorf("cborrepr: data after the tree")
}

// describe names a CBOR major type.
func describe(major byte) string {
	switch major {
	case majorUint, majorNint:
		return "integer"
	case majorBytes:
		return "byte string"
	case majorText:
		return "text string"
	case majorArray:
		return "array"
	case majorMap:
		return "map"
	case majorTag:
		return "tagged item"
	default:
		return "simple value"
	}
}

// wrapErr classifies CBOR decoding errors. Duplicate keys become
// ErrDuplicateField; other malformed input is marked as a format error.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var dupErr *cbor.DupMapKeyError
	var syntaxErr *cbor.SyntaxError
	var typeErr *cbor.UnmarshalTypeError
	var semanticErr *cbor.SemanticError
	var nestingErr *cbor.MaxNestedLevelError
	switch {
	case errors.As(err, &dupErr):
		return base.WrapFormatErrorf(base.ErrDuplicateField, "field %v", dupErr.Key)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return errTruncated
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr),
		errors.As(err, &semanticErr), errors.As(err, &nestingErr):
		return base.MarkFormatError(errors.Wrap(err, "cborrepr"))
	}
	return err
}

// Marshal returns the CBOR encoding of s.
func Marshal[T any](s *firetree.Snapshot[T]) ([]byte, error) {
	var buf bytes.Buffer
	if err := firetree.Encode(NewWriter(&buf), s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a Snapshot from its CBOR encoding.
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
