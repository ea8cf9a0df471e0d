// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import (
	"bytes"
	"fmt"
	"time"
)

// Wire type tags. One per Value variant.
const (
	tagDouble          = 0x01
	tagString          = 0x02
	tagDocument        = 0x03
	tagArray           = 0x04
	tagBinary          = 0x05
	tagUndefined       = 0x06 // deprecated
	tagObjectId        = 0x07
	tagBoolean         = 0x08
	tagUTCDateTime     = 0x09
	tagNull            = 0x0A
	tagRegexp          = 0x0B
	tagDBPointer       = 0x0C // deprecated
	tagJavaScript      = 0x0D
	tagSymbol          = 0x0E // deprecated
	tagJavaScriptScope = 0x0F // deprecated
	tagInt32           = 0x10
	tagTimestamp       = 0x11
	tagInt64           = 0x12
	tagUInt64          = 0x13 // non-standard extension
	tagMinKey          = 0xFF
	tagMaxKey          = 0x7F
)

// BSON value variants. Each is a distinct Go type so that a type switch
// acts as the exhaustive dispatch called for in the value model design
// (closed tagged sum + single dispatch function, not dynamic subtyping).

// Float is the BSON double (tag 0x01).
type Float float64

// String is the BSON UTF-8 string (tag 0x02).
type String string

// Array is the BSON array (tag 0x04): an ordered sequence of values, wire
// encoded as a document with dense decimal-string keys.
type Array []interface{}

// Binary is the BSON binary (tag 0x05). Subtype is always 0x00 (generic) on
// encode; on decode the subtype byte is discarded since this module treats
// every subtype as opaque bytes.
type Binary []byte

// Undefined is the deprecated BSON undefined (tag 0x06). It carries no
// payload and can only ever appear as the result of a lenient decode.
type Undefined struct{}

// Bool is the BSON boolean (tag 0x08).
type Bool bool

// UTCDateTime is the BSON UTC datetime (tag 0x09): milliseconds since the
// Unix epoch, stored as a raw signed 64-bit value so the wire bit pattern
// round-trips exactly.
type UTCDateTime int64

// ClockFunc returns the current time, injected so callers can substitute a
// fixed clock in tests.
type ClockFunc func() time.Time

// NewUTCDateTimeNow builds a UTCDateTime from clock(), truncated to
// millisecond resolution as the wire format requires. A nil clock defaults
// to time.Now.
func NewUTCDateTimeNow(clock ClockFunc) UTCDateTime {
	if clock == nil {
		clock = time.Now
	}
	return UTCDateTime(clock().UnixNano() / int64(time.Millisecond))
}

// Null is the BSON null value (tag 0x0A). It carries no payload.
type Null struct{}

// Regexp is the BSON regular expression (tag 0x0B).
type Regexp struct {
	Pattern string
	Options string
}

// DBPointer is the deprecated BSON database pointer (tag 0x0C).
type DBPointer struct {
	Name     string
	ObjectId ObjectId
}

// Javascript is BSON JavaScript code without scope (tag 0x0D).
type Javascript string

// Symbol is the deprecated BSON symbol (tag 0x0E).
type Symbol string

// JavascriptScope is the deprecated BSON JavaScript-with-scope (tag 0x0F).
type JavascriptScope struct {
	Javascript string
	Scope      *Document
}

// Int32 is the BSON 32-bit integer (tag 0x10).
type Int32 int32

// Timestamp is the BSON timestamp (tag 0x11): an unsigned 64-bit composite
// of (increment, seconds) on the wire, kept here as a raw bit pattern so a
// round trip never needs to reassemble a composite from two fields.
type Timestamp int64

// Seconds returns the high 32 bits of the timestamp (seconds since epoch).
func (t Timestamp) Seconds() uint32 {
	return uint32(uint64(t) >> 32)
}

// Increment returns the low 32 bits of the timestamp (ordinal within the second).
func (t Timestamp) Increment() uint32 {
	return uint32(uint64(t) & 0xFFFFFFFF)
}

// NewTimestamp packs seconds and increment into the wire bit pattern.
func NewTimestamp(seconds, increment uint32) Timestamp {
	return Timestamp(int64(uint64(seconds)<<32 | uint64(increment)))
}

// NewTimestampNow builds a Timestamp from clock() with the given ordinal
// increment within that second. A nil clock defaults to time.Now.
func NewTimestampNow(clock ClockFunc, increment uint32) Timestamp {
	if clock == nil {
		clock = time.Now
	}
	return NewTimestamp(uint32(clock().Unix()), increment)
}

// Int64 is the BSON 64-bit integer (tag 0x12).
type Int64 int64

// UInt64 is the non-standard unsigned 64-bit extension (tag 0x13). See
// EncoderConfig.AllowUInt64Extension / DecoderConfig.AllowUInt64Extension.
type UInt64 uint64

// MinKey is the BSON min-key sentinel (tag 0xFF). It carries no payload.
type MinKey struct{}

// MaxKey is the BSON max-key sentinel (tag 0x7F). It carries no payload.
type MaxKey struct{}

// AsFloat returns v as a Float, if that's what it is.
func AsFloat(v interface{}) (Float, bool) {
	f, ok := v.(Float)
	return f, ok
}

// AsString returns v as a String, if that's what it is.
func AsString(v interface{}) (String, bool) {
	s, ok := v.(String)
	return s, ok
}

// AsDocument returns v as a *Document, if that's what it is.
func AsDocument(v interface{}) (*Document, bool) {
	d, ok := v.(*Document)
	return d, ok
}

// AsArray returns v as an Array, if that's what it is.
func AsArray(v interface{}) (Array, bool) {
	a, ok := v.(Array)
	return a, ok
}

// AsBinary returns v as Binary, if that's what it is.
func AsBinary(v interface{}) (Binary, bool) {
	b, ok := v.(Binary)
	return b, ok
}

// AsObjectId returns v as an ObjectId, if that's what it is.
func AsObjectId(v interface{}) (ObjectId, bool) {
	o, ok := v.(ObjectId)
	return o, ok
}

// AsBool returns v as a Bool, if that's what it is.
func AsBool(v interface{}) (Bool, bool) {
	b, ok := v.(Bool)
	return b, ok
}

// AsUTCDateTime returns v as a UTCDateTime, if that's what it is.
func AsUTCDateTime(v interface{}) (UTCDateTime, bool) {
	u, ok := v.(UTCDateTime)
	return u, ok
}

// AsInt32 returns v as an Int32, if that's what it is.
func AsInt32(v interface{}) (Int32, bool) {
	i, ok := v.(Int32)
	return i, ok
}

// AsInt64 returns v as an Int64, if that's what it is.
func AsInt64(v interface{}) (Int64, bool) {
	i, ok := v.(Int64)
	return i, ok
}

// AsUInt64 returns v as a UInt64, if that's what it is.
func AsUInt64(v interface{}) (UInt64, bool) {
	i, ok := v.(UInt64)
	return i, ok
}

// AsTimestamp returns v as a Timestamp, if that's what it is.
func AsTimestamp(v interface{}) (Timestamp, bool) {
	t, ok := v.(Timestamp)
	return t, ok
}

// display renders a debug projection of a value. This is NOT a wire format;
// it exists for logging and test failure output. Code strings are truncated
// to their first ten characters.
func display(v interface{}) string {
	switch vt := v.(type) {
	case *Document:
		return vt.String()
	case Float:
		return fmt.Sprintf("Float(%v)", float64(vt))
	case String:
		return fmt.Sprintf("String(%v)", string(vt))
	case Array:
		wr := bytes.NewBuffer(nil)
		fmt.Fprint(wr, "Array([")
		for i, vtv := range vt {
			fmt.Fprint(wr, display(vtv))
			if i != len(vt)-1 {
				fmt.Fprint(wr, " ")
			}
		}
		fmt.Fprint(wr, "])")
		return wr.String()
	case Binary:
		return fmt.Sprintf("Binary(len=%v)", len(vt))
	case Undefined:
		return "Undefined()"
	case ObjectId:
		return fmt.Sprintf("ObjectId(%v)", vt.Hex())
	case Bool:
		return fmt.Sprintf("Bool(%v)", bool(vt))
	case UTCDateTime:
		return fmt.Sprintf("UTCDateTime(%v)", time.Unix(0, int64(vt)*int64(time.Millisecond)))
	case Null:
		return "Null()"
	case Regexp:
		return fmt.Sprintf("Regexp(Pattern(%v) Options(%v))", vt.Pattern, vt.Options)
	case DBPointer:
		return fmt.Sprintf("DBPointer(Name(%v) ObjectId(%v))", vt.Name, vt.ObjectId.Hex())
	case Javascript:
		return fmt.Sprintf("Javascript(%v)", truncateCode(string(vt)))
	case Symbol:
		return fmt.Sprintf("Symbol(%v)", vt)
	case JavascriptScope:
		return fmt.Sprintf("JavascriptScope(Javascript(%v) Scope(%v))",
			truncateCode(vt.Javascript), vt.Scope)
	case Int32:
		return fmt.Sprintf("Int32(%v)", int32(vt))
	case Timestamp:
		return fmt.Sprintf("Timestamp(%v)", int64(vt))
	case Int64:
		return fmt.Sprintf("Int64(%v)", int64(vt))
	case UInt64:
		return fmt.Sprintf("UInt64(%v)", uint64(vt))
	case MinKey:
		return "MinKey()"
	case MaxKey:
		return "MaxKey()"
	}
	return fmt.Sprint(v)
}

// truncateCode truncates a JavaScript code string to its first ten
// characters for display, appending "..." only if the
// original exceeded 100 characters.
func truncateCode(code string) string {
	runes := []rune(code)
	truncated := runes
	if len(runes) > 10 {
		truncated = runes[:10]
	}
	out := string(truncated)
	if len(runes) > 100 {
		out += "..."
	}
	return out
}
