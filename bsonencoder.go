// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import (
	"go.uber.org/zap"
)

// maxBackpatchDepth bounds the nesting depth the encoder will back-patch
// lengths for, guarding against unbounded recursion on adversarial or
// accidentally self-referential input (spec.md §9).
const maxBackpatchDepth = 100

// defaultMaxDocumentBytes matches the historical 16MiB MongoDB document
// ceiling; callers needing the legacy 64MiB ceiling the teacher used should
// set EncoderConfig.MaxDocumentBytes explicitly.
const defaultMaxDocumentBytes = 16 * 1024 * 1024

// EncoderConfig governs BSON-encoder behavior that isn't expressible in the
// value model itself.
type EncoderConfig struct {
	// MaxDocumentBytes caps the encoded size of any single document
	// (including nested sub-documents measured from their own start). Zero
	// means defaultMaxDocumentBytes.
	MaxDocumentBytes uint32

	// RejectDeprecated, when true (the default), makes encoding Undefined,
	// DBPointer, Symbol, or JavascriptScope values fail with a Deprecated
	// error instead of writing them to the wire.
	RejectDeprecated bool

	// AllowUInt64Extension permits encoding the non-standard UInt64 variant
	// (tag 0x13). Defaults to true for the encoder: producers opt out, since
	// the risk of the extension lies with whoever decodes it.
	AllowUInt64Extension bool

	// Logger receives warnings about lenient encoding decisions. A nil
	// Logger disables logging.
	Logger *zap.Logger
}

func (c EncoderConfig) maxDocumentBytes() uint32 {
	if c.MaxDocumentBytes == 0 {
		return defaultMaxDocumentBytes
	}
	return c.MaxDocumentBytes
}

func (c EncoderConfig) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// DefaultEncoderConfig returns the config new encoders use when none is
// supplied: deprecated variants rejected, UInt64 extension allowed.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		RejectDeprecated:     true,
		AllowUInt64Extension: true,
	}
}

// bsonEncoder implements Serializer by writing the BSON wire format to a
// Writer. Nested documents and arrays are handled by a stack of back-patch
// positions, generalizing the teacher's hand-rolled bytes.Buffer length
// patch (encode.go) to arbitrary nesting depth, behind the Writer
// abstraction so the same logic works over a growable buffer or a wrapped
// stream.
//
// A BSON element is TAG NAME PAYLOAD, but the Serializer contract's natural
// shape is "write the tag, then the payload" with the field name supplied
// separately via SerializeFieldName. encodeElement below owns that
// reordering for element writes; the plain Serialize<Variant> methods below
// it satisfy Serializer for values with no enclosing field name (array
// items reuse encodeElement with a decimal-string name, and code-with-scope
// documents go through encodeDocumentBody, so only bare top-level dispatch
// reaches these directly).
type bsonEncoder struct {
	w       Writer
	cfg     EncoderConfig
	patches []int64
}

func newBSONEncoder(w Writer, cfg EncoderConfig) *bsonEncoder {
	return &bsonEncoder{w: w, cfg: cfg}
}

// EncodeDocument encodes doc to w under cfg. A root document is
// int32 length ∥ e_list ∥ 0x00 with no leading type tag, so this calls
// encodeDocumentBody directly rather than SerializeDocument, which is for
// dispatched Document values nested under a field name (and so must emit
// the 0x03 tag).
func EncodeDocument(w Writer, doc *Document, cfg EncoderConfig) error {
	enc := newBSONEncoder(w, cfg)
	return enc.encodeDocumentBody(doc)
}

// StartDocument reserves a 4-byte length placeholder and records its
// position for later back-patching by EndDocument.
func (e *bsonEncoder) StartDocument() error {
	if len(e.patches) >= maxBackpatchDepth {
		return newErrf(InvalidDocument, "document nesting exceeds %v levels", maxBackpatchDepth)
	}
	pos := e.w.Pos()
	e.patches = append(e.patches, pos)
	return wrapIo2(e.w.WriteInt32(0))
}

// EndDocument writes the trailing NUL terminator and back-patches the
// length placeholder recorded by the matching StartDocument.
func (e *bsonEncoder) EndDocument() error {
	if len(e.patches) == 0 {
		return newErr(InvalidDocument, "EndDocument called without a matching StartDocument")
	}
	if err := e.w.WriteByte(0x00); err != nil {
		return wrapIo(err)
	}
	n := len(e.patches) - 1
	start := e.patches[n]
	e.patches = e.patches[:n]

	end := e.w.Pos()
	length := end - start
	if length < 0 || length > int64(e.cfg.maxDocumentBytes()) {
		return newErrf(BufferOverflow, "document length %v exceeds max %v", length, e.cfg.maxDocumentBytes())
	}
	if err := e.w.Seek(start); err != nil {
		return err
	}
	if err := e.w.WriteInt32(int32(length)); err != nil {
		return wrapIo(err)
	}
	return e.w.Seek(end)
}

// SerializeFieldName writes a field name as a BSON cstring: UTF-8 bytes
// followed by a NUL. A name containing an embedded NUL cannot be
// represented on the wire and is rejected.
func (e *bsonEncoder) SerializeFieldName(name string) error {
	if containsNUL(name) {
		return newErrf(InvalidValue, "field name %q contains an embedded NUL byte", name)
	}
	if _, err := e.w.Write([]byte(name)); err != nil {
		return wrapIo(err)
	}
	return e.w.WriteByte(0x00)
}

func containsNUL(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return true
		}
	}
	return false
}

func (e *bsonEncoder) writeTag(tag byte) error {
	return wrapIo2err(e.w.WriteByte(tag))
}

func (e *bsonEncoder) writeCstring(s string) error {
	if containsNUL(s) {
		return newErrf(InvalidValue, "string %q contains an embedded NUL byte", s)
	}
	if _, err := e.w.Write([]byte(s)); err != nil {
		return wrapIo(err)
	}
	return e.w.WriteByte(0x00)
}

// writeString writes a BSON string payload: int32 byte length (including
// the trailing NUL), the UTF-8 bytes, then the NUL.
func (e *bsonEncoder) writeString(s string) error {
	if err := e.w.WriteInt32(int32(len(s) + 1)); err != nil {
		return wrapIo(err)
	}
	if _, err := e.w.Write([]byte(s)); err != nil {
		return wrapIo(err)
	}
	return e.w.WriteByte(0x00)
}

func (e *bsonEncoder) writeBinaryBody(value Binary) error {
	if err := e.w.WriteInt32(int32(len(value))); err != nil {
		return wrapIo(err)
	}
	if err := e.w.WriteByte(0x00); err != nil { // generic subtype
		return wrapIo(err)
	}
	_, err := e.w.Write(value)
	return wrapIo2(err)
}

func (e *bsonEncoder) encodeDocumentBody(value *Document) error {
	if err := e.StartDocument(); err != nil {
		return err
	}
	for _, p := range value.Pairs() {
		if err := e.encodeElement(p.Key, p.Val); err != nil {
			return err
		}
	}
	return e.EndDocument()
}

func (e *bsonEncoder) encodeArrayBody(value Array) error {
	if err := e.StartDocument(); err != nil {
		return err
	}
	for i, v := range value {
		if err := e.encodeElement(itoa(i), v); err != nil {
			return err
		}
	}
	return e.EndDocument()
}

func (e *bsonEncoder) rejectDeprecated(kind string) error {
	if e.cfg.RejectDeprecated {
		return newErrf(Deprecated, "%v is a deprecated BSON type and RejectDeprecated is set", kind)
	}
	e.cfg.logger().Warn("encoding deprecated BSON type", zap.String("type", kind))
	return nil
}

// encodeElement writes one TAG NAME PAYLOAD element. This is the exhaustive
// type switch over the value model for element writes (spec.md §9's "closed
// tagged sum plus single dispatch function"); it intentionally does not
// route through dispatch/Serializer, since neither offers a ordinal slot
// between tag and payload for the field name.
func (e *bsonEncoder) encodeElement(name string, v interface{}) error {
	switch vt := normalizeValue(v).(type) {
	case Float:
		if err := e.writeTag(tagDouble); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		return wrapIo2err(e.w.WriteFloat64(float64(vt)))
	case String:
		if err := e.writeTag(tagString); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		return e.writeString(string(vt))
	case *Document:
		if err := e.writeTag(tagDocument); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		return e.encodeDocumentBody(vt)
	case Array:
		if err := e.writeTag(tagArray); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		return e.encodeArrayBody(vt)
	case Binary:
		if err := e.writeTag(tagBinary); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		return e.writeBinaryBody(vt)
	case Undefined:
		if err := e.rejectDeprecated("Undefined"); err != nil {
			return err
		}
		if err := e.writeTag(tagUndefined); err != nil {
			return err
		}
		return e.SerializeFieldName(name)
	case ObjectId:
		if err := e.writeTag(tagObjectId); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		_, err := e.w.Write(vt.Bytes())
		return wrapIo2(err)
	case Bool:
		if err := e.writeTag(tagBoolean); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		b := byte(0x00)
		if vt {
			b = 0x01
		}
		return wrapIo2err(e.w.WriteByte(b))
	case UTCDateTime:
		if err := e.writeTag(tagUTCDateTime); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		return wrapIo2err(e.w.WriteInt64(int64(vt)))
	case Null:
		if err := e.writeTag(tagNull); err != nil {
			return err
		}
		return e.SerializeFieldName(name)
	case Regexp:
		if err := e.writeTag(tagRegexp); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		if err := e.writeCstring(vt.Pattern); err != nil {
			return err
		}
		return e.writeCstring(vt.Options)
	case DBPointer:
		if err := e.rejectDeprecated("DBPointer"); err != nil {
			return err
		}
		if err := e.writeTag(tagDBPointer); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		if err := e.writeString(vt.Name); err != nil {
			return err
		}
		_, err := e.w.Write(vt.ObjectId.Bytes())
		return wrapIo2(err)
	case Javascript:
		if err := e.writeTag(tagJavaScript); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		return e.writeString(string(vt))
	case Symbol:
		if err := e.rejectDeprecated("Symbol"); err != nil {
			return err
		}
		if err := e.writeTag(tagSymbol); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		return e.writeString(string(vt))
	case JavascriptScope:
		if err := e.rejectDeprecated("JavascriptScope"); err != nil {
			return err
		}
		if err := e.writeTag(tagJavaScriptScope); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		return e.encodeJavascriptScopeBody(vt)
	case Int32:
		if err := e.writeTag(tagInt32); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		return wrapIo2err(e.w.WriteInt32(int32(vt)))
	case Timestamp:
		if err := e.writeTag(tagTimestamp); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		return wrapIo2err(e.w.WriteUint64(uint64(vt)))
	case Int64:
		if err := e.writeTag(tagInt64); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		return wrapIo2err(e.w.WriteInt64(int64(vt)))
	case UInt64:
		if !e.cfg.AllowUInt64Extension {
			return newErrf(NotSupported, "UInt64 extension disallowed by encoder config (field %q)", name)
		}
		if err := e.writeTag(tagUInt64); err != nil {
			return err
		}
		if err := e.SerializeFieldName(name); err != nil {
			return err
		}
		return wrapIo2err(e.w.WriteUint64(uint64(vt)))
	case MinKey:
		if err := e.writeTag(tagMinKey); err != nil {
			return err
		}
		return e.SerializeFieldName(name)
	case MaxKey:
		if err := e.writeTag(tagMaxKey); err != nil {
			return err
		}
		return e.SerializeFieldName(name)
	}
	return newErrf(InvalidValue, "cannot encode value of type %T for field %q", v, name)
}

func (e *bsonEncoder) encodeJavascriptScopeBody(value JavascriptScope) error {
	if err := e.StartDocument(); err != nil {
		return err
	}
	if err := e.writeString(value.Javascript); err != nil {
		return err
	}
	scope := value.Scope
	if scope == nil {
		scope = NewDocument()
	}
	if err := e.encodeDocumentBody(scope); err != nil {
		return err
	}
	return e.EndDocument()
}

// The remaining methods let bsonEncoder itself satisfy Serializer, for bare
// top-level values routed through dispatch (e.g. a caller encoding a scalar
// directly rather than a field of a document).

func (e *bsonEncoder) SerializeFloat(value Float) error {
	if err := e.writeTag(tagDouble); err != nil {
		return err
	}
	return wrapIo2err(e.w.WriteFloat64(float64(value)))
}

func (e *bsonEncoder) SerializeString(value String) error {
	if err := e.writeTag(tagString); err != nil {
		return err
	}
	return e.writeString(string(value))
}

func (e *bsonEncoder) SerializeDocument(value *Document) error {
	if err := e.writeTag(tagDocument); err != nil {
		return err
	}
	return e.encodeDocumentBody(value)
}

func (e *bsonEncoder) SerializeArray(value Array) error {
	if err := e.writeTag(tagArray); err != nil {
		return err
	}
	return e.encodeArrayBody(value)
}

func (e *bsonEncoder) SerializeBinary(value Binary) error {
	if err := e.writeTag(tagBinary); err != nil {
		return err
	}
	return e.writeBinaryBody(value)
}

func (e *bsonEncoder) SerializeUndefined() error {
	if err := e.rejectDeprecated("Undefined"); err != nil {
		return err
	}
	return e.writeTag(tagUndefined)
}

func (e *bsonEncoder) SerializeObjectId(value ObjectId) error {
	if err := e.writeTag(tagObjectId); err != nil {
		return err
	}
	_, err := e.w.Write(value.Bytes())
	return wrapIo2(err)
}

func (e *bsonEncoder) SerializeBool(value Bool) error {
	if err := e.writeTag(tagBoolean); err != nil {
		return err
	}
	b := byte(0x00)
	if value {
		b = 0x01
	}
	return wrapIo2err(e.w.WriteByte(b))
}

func (e *bsonEncoder) SerializeUTCDateTime(value UTCDateTime) error {
	if err := e.writeTag(tagUTCDateTime); err != nil {
		return err
	}
	return wrapIo2err(e.w.WriteInt64(int64(value)))
}

func (e *bsonEncoder) SerializeNull() error {
	return e.writeTag(tagNull)
}

func (e *bsonEncoder) SerializeRegexp(value Regexp) error {
	if err := e.writeTag(tagRegexp); err != nil {
		return err
	}
	if err := e.writeCstring(value.Pattern); err != nil {
		return err
	}
	return e.writeCstring(value.Options)
}

func (e *bsonEncoder) SerializeDBPointer(value DBPointer) error {
	if err := e.rejectDeprecated("DBPointer"); err != nil {
		return err
	}
	if err := e.writeTag(tagDBPointer); err != nil {
		return err
	}
	if err := e.writeString(value.Name); err != nil {
		return err
	}
	_, err := e.w.Write(value.ObjectId.Bytes())
	return wrapIo2(err)
}

func (e *bsonEncoder) SerializeJavascript(value Javascript) error {
	if err := e.writeTag(tagJavaScript); err != nil {
		return err
	}
	return e.writeString(string(value))
}

func (e *bsonEncoder) SerializeSymbol(value Symbol) error {
	if err := e.rejectDeprecated("Symbol"); err != nil {
		return err
	}
	if err := e.writeTag(tagSymbol); err != nil {
		return err
	}
	return e.writeString(string(value))
}

func (e *bsonEncoder) SerializeJavascriptScope(value JavascriptScope) error {
	if err := e.rejectDeprecated("JavascriptScope"); err != nil {
		return err
	}
	if err := e.writeTag(tagJavaScriptScope); err != nil {
		return err
	}
	return e.encodeJavascriptScopeBody(value)
}

func (e *bsonEncoder) SerializeInt32(value Int32) error {
	if err := e.writeTag(tagInt32); err != nil {
		return err
	}
	return wrapIo2err(e.w.WriteInt32(int32(value)))
}

func (e *bsonEncoder) SerializeTimestamp(value Timestamp) error {
	if err := e.writeTag(tagTimestamp); err != nil {
		return err
	}
	return wrapIo2err(e.w.WriteUint64(uint64(value)))
}

func (e *bsonEncoder) SerializeInt64(value Int64) error {
	if err := e.writeTag(tagInt64); err != nil {
		return err
	}
	return wrapIo2err(e.w.WriteInt64(int64(value)))
}

func (e *bsonEncoder) SerializeUInt64(value UInt64) error {
	if !e.cfg.AllowUInt64Extension {
		return newErr(NotSupported, "UInt64 extension disallowed by encoder config")
	}
	if err := e.writeTag(tagUInt64); err != nil {
		return err
	}
	return wrapIo2err(e.w.WriteUint64(uint64(value)))
}

func (e *bsonEncoder) SerializeMinKey() error {
	return e.writeTag(tagMinKey)
}

func (e *bsonEncoder) SerializeMaxKey() error {
	return e.writeTag(tagMaxKey)
}

func wrapIo2(err error) error {
	if err == nil {
		return nil
	}
	return wrapIo(err)
}

func wrapIo2err(err error) error {
	return wrapIo2(err)
}

// normalizeValue applies the same host-type coercions dispatch does, so
// encodeElement accepts plain Go values (bool, int, string, time.Time, ...)
// inside documents and arrays, not just the named Value variants.
func normalizeValue(v interface{}) interface{} {
	switch v.(type) {
	case Float, String, *Document, Array, Binary, Undefined, ObjectId, Bool,
		UTCDateTime, Null, Regexp, DBPointer, Javascript, Symbol,
		JavascriptScope, Int32, Timestamp, Int64, UInt64, MinKey, MaxKey:
		return v
	case nil:
		return Null{}
	}
	if coerced, ok := coerce(v); ok {
		return coerced
	}
	return v
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
