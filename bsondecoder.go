// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultMaxDocumentBytes is the decoder's default document size ceiling.
const DefaultMaxDocumentBytes = 16 * 1024 * 1024

// DecoderConfig governs BSON-decoder behavior that isn't expressible in the
// value model itself.
type DecoderConfig struct {
	// MaxDocumentBytes caps the declared length of any document or
	// sub-document. Zero means DefaultMaxDocumentBytes.
	MaxDocumentBytes uint32

	// RejectDeprecated, when true (the default), makes encountering
	// Undefined, DBPointer, Symbol, or JavascriptScope on the wire fail
	// decoding with a Deprecated error. When false, these decode into their
	// (inert) Go types and a warning is logged — "lenient passthrough".
	RejectDeprecated bool

	// StrictUTF8, when true (the default), makes any string or cstring
	// payload containing invalid UTF-8 fail decoding with a Utf8 error.
	StrictUTF8 bool

	// AllowUInt64Extension permits decoding the non-standard UInt64 variant
	// (tag 0x13). Defaults to false: decoders treat bytes from an unknown
	// producer as untrusted, and that tag has no meaning to any other BSON
	// reader.
	AllowUInt64Extension bool

	// Logger receives warnings about lenient decoding decisions. A nil
	// Logger disables logging.
	Logger *zap.Logger
}

func (c DecoderConfig) maxDocumentBytes() uint32 {
	if c.MaxDocumentBytes == 0 {
		return DefaultMaxDocumentBytes
	}
	return c.MaxDocumentBytes
}

func (c DecoderConfig) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// DefaultDecoderConfig returns the config new decoders use when none is
// supplied: deprecated variants rejected, strict UTF-8, UInt64 extension
// rejected.
func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		RejectDeprecated: true,
		StrictUTF8:       true,
	}
}

// bsonReader walks a byte slice, tracking position and the enclosing
// document's end offset so every read can be bounds-checked before it
// happens, per spec.md §4.5 ("length-driven, bounds-checked against the
// enclosing document's declared length"). This mirrors the teacher's
// decode.go functions (readInt32/readCstring/readString/...), generalized
// to carry an explicit end bound instead of relying on slice re-slicing to
// implicitly enforce it.
type bsonReader struct {
	buf []byte
	pos int
	cfg DecoderConfig
}

func (r *bsonReader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *bsonReader) need(n int) error {
	if n < 0 || r.remaining() < n {
		return newErrf(InvalidDocument, "unexpected end of input at offset %v, need %v more bytes", r.pos, n)
	}
	return nil
}

func (r *bsonReader) readByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *bsonReader) readBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *bsonReader) readInt32() (int32, error) {
	b, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (r *bsonReader) readUint32() (uint32, error) {
	b, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *bsonReader) readInt64() (int64, error) {
	b, err := r.readBytes(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (r *bsonReader) readUint64() (uint64, error) {
	b, err := r.readBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *bsonReader) readFloat64() (float64, error) {
	v, err := r.readUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// readCstring reads a NUL-terminated string, searching only within the
// remaining buffer (never past it).
func (r *bsonReader) readCstring() (string, error) {
	end := -1
	for i := r.pos; i < len(r.buf); i++ {
		if r.buf[i] == 0x00 {
			end = i
			break
		}
	}
	if end < 0 {
		return "", newErrf(InvalidDocument, "unterminated cstring starting at offset %v", r.pos)
	}
	s := r.buf[r.pos:end]
	r.pos = end + 1
	return r.validateUTF8(s)
}

// readString reads a BSON string: int32 byte length (including the
// trailing NUL), followed by that many bytes, the last of which must be NUL.
func (r *bsonReader) readString() (string, error) {
	n, err := r.readInt32()
	if err != nil {
		return "", err
	}
	if n < 1 {
		return "", newErrf(InvalidDocument, "string length %v is not positive", n)
	}
	b, err := r.readBytes(int(n))
	if err != nil {
		return "", err
	}
	if b[len(b)-1] != 0x00 {
		return "", newErr(InvalidDocument, "string payload is not NUL-terminated")
	}
	return r.validateUTF8(b[:len(b)-1])
}

func (r *bsonReader) validateUTF8(b []byte) (string, error) {
	if r.cfg.StrictUTF8 && !utf8.Valid(b) {
		return "", newErr(Utf8, "string payload is not valid UTF-8")
	}
	return string(b), nil
}

// DecodeDocument decodes one top-level BSON document from b under cfg.
func DecodeDocument(b []byte, cfg DecoderConfig) (*Document, error) {
	r := &bsonReader{buf: b, cfg: cfg}
	doc, consumed, err := r.decodeDocumentBody(0)
	if err != nil {
		return nil, err
	}
	if consumed != len(b) {
		return nil, newErrf(InvalidDocument, "document declared length %v does not match input length %v", consumed, len(b))
	}
	return doc, nil
}

// decodeDocumentBody reads a length-prefixed document body (the length
// field itself, the elements, and the trailing NUL) and returns the decoded
// Document plus the number of bytes consumed, bounds-checking every read
// against the declared length. depth tracks nesting for maxBackpatchDepth.
func (r *bsonReader) decodeDocumentBody(depth int) (*Document, int, error) {
	if depth >= maxBackpatchDepth {
		return nil, 0, newErrf(InvalidDocument, "document nesting exceeds %v levels", maxBackpatchDepth)
	}
	start := r.pos
	length, err := r.readInt32()
	if err != nil {
		return nil, 0, err
	}
	if length < 5 {
		return nil, 0, newErrf(InvalidDocument, "declared document length %v is too small to be a valid frame", length)
	}
	if uint32(length) > r.cfg.maxDocumentBytes() {
		return nil, 0, newErrf(BufferOverflow, "declared document length %v exceeds max %v", length, r.cfg.maxDocumentBytes())
	}
	end := start + int(length)
	if end > len(r.buf) {
		return nil, 0, newErrf(InvalidDocument, "declared document length %v exceeds available input", length)
	}

	doc := NewDocument()
	for r.pos < end-1 {
		tag, err := r.readByte()
		if err != nil {
			return nil, 0, err
		}
		if tag == 0x00 {
			r.pos--
			break
		}
		name, err := r.readCstring()
		if err != nil {
			return nil, 0, err
		}
		val, err := r.decodeValue(tag, depth)
		if err != nil {
			return nil, 0, err
		}
		doc.Set(name, val)
	}
	terminator, err := r.readByte()
	if err != nil {
		return nil, 0, err
	}
	if terminator != 0x00 {
		return nil, 0, newErrf(InvalidDocument, "document missing NUL terminator at offset %v", r.pos-1)
	}
	if r.pos != end {
		return nil, 0, newErrf(InvalidDocument, "document body length mismatch: declared %v, consumed %v", length, r.pos-start)
	}
	return doc, r.pos - start, nil
}

// decodeArrayBody reads an array, which is wire-identical to a document
// whose field names happen to be dense decimal indices starting at "0"; the
// names are validated against that rule and then discarded (position in
// the resulting Array is what matters). A gap, duplicate, or non-decimal
// key is rejected per spec.md §4.5/§7's malformed-array rule.
func (r *bsonReader) decodeArrayBody(depth int) (Array, int, error) {
	doc, consumed, err := r.decodeDocumentBody(depth)
	if err != nil {
		return nil, 0, err
	}
	pairs := doc.Pairs()
	arr := make(Array, len(pairs))
	for i, p := range pairs {
		if p.Key != itoa(i) {
			return nil, 0, newErrf(InvalidValue, "array index %q is not dense decimal starting at 0 (expected %q)", p.Key, itoa(i))
		}
		arr[i] = p.Val
	}
	return arr, consumed, nil
}

func (r *bsonReader) rejectOrWarnDeprecated(kind string) error {
	if r.cfg.RejectDeprecated {
		return newErrf(Deprecated, "%v is a deprecated BSON type and RejectDeprecated is set", kind)
	}
	r.cfg.logger().Warn("decoding deprecated BSON type in lenient mode", zap.String("type", kind))
	return nil
}

// decodeValue reads the payload for a single element given its already-read
// tag byte. This is the decoder's counterpart to bsonEncoder.encodeElement:
// one case per wire tag, exhaustively.
func (r *bsonReader) decodeValue(tag byte, depth int) (interface{}, error) {
	switch tag {
	case tagDouble:
		v, err := r.readFloat64()
		return Float(v), err
	case tagString:
		v, err := r.readString()
		return String(v), err
	case tagDocument:
		v, _, err := r.decodeDocumentBody(depth + 1)
		return v, err
	case tagArray:
		v, _, err := r.decodeArrayBody(depth + 1)
		return v, err
	case tagBinary:
		return r.decodeBinary()
	case tagUndefined:
		if err := r.rejectOrWarnDeprecated("Undefined"); err != nil {
			return nil, err
		}
		return Undefined{}, nil
	case tagObjectId:
		b, err := r.readBytes(12)
		if err != nil {
			return nil, err
		}
		oid, err := ObjectIdFromBytes(b)
		return oid, err
	case tagBoolean:
		b, err := r.readByte()
		if err != nil {
			return nil, err
		}
		if b != 0x00 && b != 0x01 {
			return nil, newErrf(InvalidDocument, "boolean byte must be 0x00 or 0x01, got %#x", b)
		}
		return Bool(b == 0x01), nil
	case tagUTCDateTime:
		v, err := r.readInt64()
		return UTCDateTime(v), err
	case tagNull:
		return Null{}, nil
	case tagRegexp:
		return r.decodeRegexp()
	case tagDBPointer:
		return r.decodeDBPointer()
	case tagJavaScript:
		v, err := r.readString()
		return Javascript(v), err
	case tagSymbol:
		if err := r.rejectOrWarnDeprecated("Symbol"); err != nil {
			return nil, err
		}
		v, err := r.readString()
		return Symbol(v), err
	case tagJavaScriptScope:
		return r.decodeJavascriptScope(depth)
	case tagInt32:
		v, err := r.readInt32()
		return Int32(v), err
	case tagTimestamp:
		v, err := r.readUint64()
		return Timestamp(v), err
	case tagInt64:
		v, err := r.readInt64()
		return Int64(v), err
	case tagUInt64:
		if !r.cfg.AllowUInt64Extension {
			return nil, newErrf(InvalidDocument, "unknown BSON type tag %#x (UInt64 extension is disabled by AllowUInt64Extension)", tag)
		}
		v, err := r.readUint64()
		return UInt64(v), err
	case tagMinKey:
		return MinKey{}, nil
	case tagMaxKey:
		return MaxKey{}, nil
	}
	return nil, newErrf(InvalidDocument, "unknown BSON type tag %#x", tag)
}

func (r *bsonReader) decodeBinary() (Binary, error) {
	n, err := r.readInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, newErrf(InvalidDocument, "binary length %v is negative", n)
	}
	if _, err := r.readByte(); err != nil { // subtype, discarded
		return nil, err
	}
	b, err := r.readBytes(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return Binary(out), nil
}

func (r *bsonReader) decodeRegexp() (Regexp, error) {
	pattern, err := r.readCstring()
	if err != nil {
		return Regexp{}, err
	}
	options, err := r.readCstring()
	if err != nil {
		return Regexp{}, err
	}
	return Regexp{Pattern: pattern, Options: options}, nil
}

func (r *bsonReader) decodeDBPointer() (DBPointer, error) {
	if err := r.rejectOrWarnDeprecated("DBPointer"); err != nil {
		return DBPointer{}, err
	}
	name, err := r.readString()
	if err != nil {
		return DBPointer{}, err
	}
	b, err := r.readBytes(12)
	if err != nil {
		return DBPointer{}, err
	}
	oid, err := ObjectIdFromBytes(b)
	if err != nil {
		return DBPointer{}, err
	}
	return DBPointer{Name: name, ObjectId: oid}, nil
}

func (r *bsonReader) decodeJavascriptScope(depth int) (JavascriptScope, error) {
	if err := r.rejectOrWarnDeprecated("JavascriptScope"); err != nil {
		return JavascriptScope{}, err
	}
	start := r.pos
	length, err := r.readInt32()
	if err != nil {
		return JavascriptScope{}, err
	}
	end := start + int(length)
	if length < 5 || end > len(r.buf) {
		return JavascriptScope{}, newErrf(InvalidDocument, "declared code-with-scope length %v out of bounds", length)
	}
	code, err := r.readString()
	if err != nil {
		return JavascriptScope{}, err
	}
	scope, _, err := r.decodeDocumentBody(depth + 1)
	if err != nil {
		return JavascriptScope{}, err
	}
	if r.pos != end {
		return JavascriptScope{}, newErrf(InvalidDocument, "code-with-scope length mismatch: declared %v, consumed %v", length, r.pos-start)
	}
	return JavascriptScope{Javascript: code, Scope: scope}, nil
}
